package prediction

import (
	"context"
	"time"

	"cryptopredict/internal/inference"
)

// Record is one persisted prediction. Records are append-only; the latest per
// symbol is the one with the greatest CreatedAt.
type Record struct {
	ID           int64                      `json:"-"`
	Symbol       string                     `json:"symbol"`
	Direction    inference.Direction        `json:"prediction"`
	Confidence   float64                    `json:"confidence"`
	Summary      inference.SentimentSummary `json:"sentiment_summary"`
	Reasoning    string                     `json:"reasoning"`
	KeyFactors   []string                   `json:"key_factors"`
	NewsAnalyzed int                        `json:"news_analyzed"`
	CreatedAt    time.Time                  `json:"analyzed_at"`
	ModelVersion string                     `json:"model_version"`
}

// Store persists prediction records. Lookups return nil, nil when no record matches.
type Store interface {
	GetLatest(ctx context.Context, symbol string) (*Record, error)
	GetLatestAfter(ctx context.Context, symbol string, after time.Time) (*Record, error)
	// Insert assigns CreatedAt and ID and returns the stored record.
	Insert(ctx context.Context, rec Record) (Record, error)
}

// FromResult converts an inference result into an unsaved record.
func FromResult(res inference.PredictionResult) Record {
	return Record{
		Symbol:       res.Symbol,
		Direction:    res.Direction,
		Confidence:   inference.Clamp01(res.Confidence),
		Summary:      res.Summary,
		Reasoning:    res.Reasoning,
		KeyFactors:   inference.NormalizeKeyFactors(res.KeyFactors, res.Symbol),
		NewsAnalyzed: res.NewsAnalyzed,
		ModelVersion: res.ModelVersion,
	}
}
