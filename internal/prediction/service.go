package prediction

import (
	"context"
	"time"

	"cryptopredict/internal/gateway/crawler"
	"cryptopredict/internal/logger"
)

// Service glues generation to persistence.
type Service struct {
	gen   *Generator
	store Store
	now   func() time.Time
}

var _ Regenerator = (*Service)(nil)

func NewService(gen *Generator, store Store) *Service {
	return &Service{gen: gen, store: store, now: time.Now}
}

// Regenerate builds a prediction from fresh news and persists it. Any failure
// is returned so the controller can fall back to what is stored.
func (s *Service) Regenerate(ctx context.Context, symbol string) (Record, error) {
	rec, _, err := s.gen.Generate(ctx, symbol, 0)
	if err != nil {
		return Record{}, err
	}
	saved, err := s.store.Insert(ctx, rec)
	if err != nil {
		return Record{}, err
	}
	logger.Infof("[predict] %s stored prediction=%s confidence=%.2f model=%s",
		symbol, saved.Direction, saved.Confidence, saved.ModelVersion)
	return saved, nil
}

// Predict is the one-shot path: it always generates, and a failed insert is
// only logged.
func (s *Service) Predict(ctx context.Context, symbol string, limit int) (Record, []crawler.NewsItem, error) {
	rec, news, err := s.gen.Generate(ctx, symbol, limit)
	if err != nil {
		return Record{}, nil, err
	}
	saved, err := s.store.Insert(ctx, rec)
	if err != nil {
		logger.Errorf("[predict] %s persisting prediction failed: %v", symbol, err)
		rec.CreatedAt = s.now().UTC().Truncate(time.Millisecond)
		return rec, news, nil
	}
	return saved, news, nil
}
