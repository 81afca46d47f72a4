// Package predline asks the model for the next candle closes and lays them out
// as chart points. It has no keyword fallback.
package predline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cryptopredict/internal/gateway/crawler"
	"cryptopredict/internal/gateway/provider"
	"cryptopredict/internal/inference"
	"cryptopredict/internal/logger"
	"cryptopredict/internal/market"

	"golang.org/x/sync/errgroup"
)

var (
	ErrNoMarketData = errors.New("no market data")
	// ErrUpstream wraps a failed or rejected model call.
	ErrUpstream = errors.New("prediction model failed")
)

const (
	recentLimit   = 50
	promptCandles = 20
)

type NewsSource interface {
	Latest(ctx context.Context, symbol string, limit int) ([]crawler.NewsItem, error)
}

type Request struct {
	Symbol    string
	Interval  string
	Periods   int
	NewsLimit int
}

type Point struct {
	Time  int64   `json:"time"`
	Value float64 `json:"value"`
}

type Result struct {
	Success        bool                `json:"success"`
	Symbol         string              `json:"symbol"`
	Interval       string              `json:"interval"`
	CurrentPrice   float64             `json:"current_price"`
	CurrentTime    int64               `json:"current_time"`
	PredictionLine []Point             `json:"prediction_line"`
	Direction      inference.Direction `json:"direction"`
	Confidence     float64             `json:"confidence"`
	Reasoning      string              `json:"reasoning"`
	NewsAnalyzed   int                 `json:"news_analyzed"`
	ModelVersion   string              `json:"model_version"`
	GeneratedAt    string              `json:"generated_at"`
}

type Service struct {
	candles market.Source
	news    NewsSource
	iv      *inference.Invoker
	now     func() time.Time
}

func NewService(candles market.Source, news NewsSource, iv *inference.Invoker) *Service {
	return &Service{candles: candles, news: news, iv: iv, now: time.Now}
}

func (s *Service) Generate(ctx context.Context, req Request) (Result, error) {
	if !s.iv.Available() {
		return Result{}, provider.ErrNotConfigured
	}
	step, err := market.IntervalSeconds(req.Interval)
	if err != nil {
		return Result{}, err
	}

	var (
		recent market.Candles
		news   []crawler.NewsItem
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cs, err := s.candles.FetchRecent(gctx, req.Symbol, req.Interval, recentLimit)
		if err != nil {
			logger.Warnf("[predline] %s %s klines unavailable: %v", req.Symbol, req.Interval, err)
			return nil
		}
		recent = cs
		return nil
	})
	g.Go(func() error {
		items, err := s.news.Latest(gctx, req.Symbol, req.NewsLimit)
		if err != nil {
			logger.Warnf("[predline] %s news unavailable: %v", req.Symbol, err)
			return nil
		}
		news = items
		return nil
	})
	_ = g.Wait()

	last, ok := recent.LastClose()
	if !ok {
		return Result{}, fmt.Errorf("%s: %w", req.Symbol, ErrNoMarketData)
	}
	currentTime := recent[len(recent)-1].OpenTime / 1000

	line, err := s.iv.Line(ctx, inference.LineContext{
		Symbol:       req.Symbol,
		Interval:     req.Interval,
		Periods:      req.Periods,
		CurrentPrice: last,
		Candles:      recent.Tail(promptCandles),
		Indicators:   market.ComputeIndicators(recent).Line(),
		News:         inference.FormatNewsContext(news),
	})
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	points := make([]Point, len(line.PredictedPrices))
	for i, price := range line.PredictedPrices {
		points[i] = Point{Time: currentTime + int64(i+1)*step, Value: price}
	}
	logger.Infof("[predline] %s %s periods=%d direction=%s", req.Symbol, req.Interval, len(points), line.Direction)
	return Result{
		Success:        true,
		Symbol:         req.Symbol,
		Interval:       req.Interval,
		CurrentPrice:   last,
		CurrentTime:    currentTime,
		PredictionLine: points,
		Direction:      line.Direction,
		Confidence:     line.Confidence,
		Reasoning:      line.Reasoning,
		NewsAnalyzed:   len(news),
		ModelVersion:   s.iv.ModelID(),
		GeneratedAt:    s.now().UTC().Format(time.RFC3339),
	}, nil
}
