// Package causal relates a news article to the price action around its
// publication and projects a short-term trend.
package causal

import (
	"context"
	"time"

	"cryptopredict/internal/fallback"
	"cryptopredict/internal/inference"
	"cryptopredict/internal/logger"
	"cryptopredict/internal/market"
	"cryptopredict/internal/sentiment"

	"golang.org/x/sync/errgroup"
)

const (
	historyInterval = "1h"
	historyLimit    = 1000
)

type Request struct {
	Title       string
	Content     string
	PublishedAt time.Time
	Symbol      string
	HoursBefore int
	HoursAfter  int
	Horizon     string
}

type Result struct {
	NewsArticleID      *int64                       `json:"news_article_id"`
	Symbol             string                       `json:"symbol"`
	NewsPublishedAt    time.Time                    `json:"news_published_at"`
	AnalysisTimestamp  time.Time                    `json:"analysis_timestamp"`
	PriceBeforeNews    float64                      `json:"price_before_news"`
	PriceAfterNews     *float64                     `json:"price_after_news"`
	PriceChangePercent *float64                     `json:"price_change_percent"`
	SentimentLabel     string                       `json:"sentiment_label"`
	SentimentScore     float64                      `json:"sentiment_score"`
	CausalRelationship inference.CausalRelationship `json:"causal_relationship"`
	TrendPrediction    inference.TrendPrediction    `json:"trend_prediction"`
	PriceHistoryBefore []market.PricePoint          `json:"price_history_before"`
	PriceHistoryAfter  []market.PricePoint          `json:"price_history_after"`
	ModelVersion       string                       `json:"model_version"`
	AnalysisMetadata   map[string]any               `json:"analysis_metadata"`
}

// Service runs the sentiment, price history and causal inference steps.
type Service struct {
	sentiment *sentiment.Service
	candles   market.Source
	iv        *inference.Invoker
	now       func() time.Time
}

func NewService(sent *sentiment.Service, candles market.Source, iv *inference.Invoker) *Service {
	return &Service{sentiment: sent, candles: candles, iv: iv, now: time.Now}
}

func (s *Service) Analyze(ctx context.Context, req Request) (Result, error) {
	published := req.PublishedAt.UTC()
	sent := s.sentiment.Analyze(ctx, req.Title+"\n\n"+req.Content, false)

	before, after := s.fetchHistory(ctx, req.Symbol, published, req.HoursBefore, req.HoursAfter)
	priceBefore, _ := before.LastClose()
	var priceAfter, change *float64
	if last, ok := after.LastClose(); ok {
		priceAfter = &last
		if pct, ok := market.ChangePercent(priceBefore, last); ok {
			change = &pct
		}
	}

	outcome := s.infer(ctx, inference.CausalContext{
		Title:         req.Title,
		Content:       req.Content,
		PublishedAt:   published.Format(time.RFC3339),
		Sentiment:     sent,
		Before:        before.Points(),
		After:         after.Points(),
		PriceBefore:   priceBefore,
		PriceAfter:    priceAfter,
		ChangePercent: change,
		Horizon:       req.Horizon,
	})

	res := Result{
		Symbol:             req.Symbol,
		NewsPublishedAt:    published,
		AnalysisTimestamp:  s.now().UTC(),
		PriceBeforeNews:    priceBefore,
		PriceAfterNews:     priceAfter,
		PriceChangePercent: change,
		SentimentLabel:     sent.Label,
		SentimentScore:     sent.Score,
		CausalRelationship: outcome.Relationship,
		TrendPrediction:    outcome.Trend,
		PriceHistoryBefore: before.Points(),
		PriceHistoryAfter:  after.Points(),
		ModelVersion:       sent.ModelVersion,
		AnalysisMetadata: map[string]any{
			"sentiment_variant":  string(sent.Variant),
			"causal_variant":     string(outcome.Variant),
			"hours_before":       req.HoursBefore,
			"hours_after":        req.HoursAfter,
			"prediction_horizon": req.Horizon,
		},
	}
	logger.Infof("[causal] %s relationship=%s trend=%s variant=%s",
		req.Symbol, res.CausalRelationship.Type, res.TrendPrediction.Direction, outcome.Variant)
	return res, nil
}

func (s *Service) infer(ctx context.Context, c inference.CausalContext) inference.CausalOutcome {
	if s.iv.Available() {
		out, err := s.iv.Causal(ctx, c)
		if err == nil {
			return out
		}
		logger.Warnf("[causal] llm analysis failed, using fallback: %v", err)
	}
	return fallback.Causal(c.Sentiment, c.PriceBefore, c.PriceAfter)
}

// fetchHistory loads the hourly windows around publication. Fetch errors leave
// the window empty.
func (s *Service) fetchHistory(ctx context.Context, symbol string, published time.Time, hoursBefore, hoursAfter int) (market.Candles, market.Candles) {
	var before, after market.Candles
	now := s.now()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		start := published.Add(-time.Duration(hoursBefore) * time.Hour)
		cs, err := s.candles.FetchRange(gctx, symbol, historyInterval, start, published, historyLimit)
		if err != nil {
			logger.Warnf("[causal] %s history before news unavailable: %v", symbol, err)
			return nil
		}
		before = cs
		return nil
	})
	if now.After(published) {
		g.Go(func() error {
			end := published.Add(time.Duration(hoursAfter) * time.Hour)
			if end.After(now) {
				end = now
			}
			cs, err := s.candles.FetchRange(gctx, symbol, historyInterval, published, end, historyLimit)
			if err != nil {
				logger.Warnf("[causal] %s history after news unavailable: %v", symbol, err)
				return nil
			}
			after = cs
			return nil
		})
	}
	_ = g.Wait()
	return before, after
}
