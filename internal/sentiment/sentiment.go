// Package sentiment classifies free text through the LLM when it is configured
// and through the keyword analyzer otherwise.
package sentiment

import (
	"context"

	"cryptopredict/internal/fallback"
	"cryptopredict/internal/inference"
	"cryptopredict/internal/logger"

	"golang.org/x/sync/errgroup"
)

// MaxBatch bounds the texts accepted by one batch call.
const MaxBatch = 10

const batchParallelism = 4

// Analyzer is one sentiment variant.
type Analyzer interface {
	Variant() inference.Variant
	Analyze(ctx context.Context, text string) inference.SentimentResult
}

type keywordAnalyzer struct {
	kw *fallback.Analyzer
}

func (k keywordAnalyzer) Variant() inference.Variant { return inference.VariantFallback }

func (k keywordAnalyzer) Analyze(_ context.Context, text string) inference.SentimentResult {
	return k.kw.Sentiment(text)
}

// llmAnalyzer degrades to the keyword analyzer on any invoke failure.
type llmAnalyzer struct {
	iv       *inference.Invoker
	fallback keywordAnalyzer
}

func (l llmAnalyzer) Variant() inference.Variant { return inference.VariantLLM }

func (l llmAnalyzer) Analyze(ctx context.Context, text string) inference.SentimentResult {
	res, err := l.iv.Sentiment(ctx, text)
	if err != nil {
		logger.Warnf("[sentiment] llm analysis failed, using keyword fallback: %v", err)
		return l.fallback.Analyze(ctx, text)
	}
	return res
}

// Service picks its variant once, when it is built.
type Service struct {
	primary  Analyzer
	fallback Analyzer
}

func NewService(iv *inference.Invoker, kw *fallback.Analyzer) *Service {
	fb := keywordAnalyzer{kw: kw}
	s := &Service{primary: fb, fallback: fb}
	if iv.Available() {
		s.primary = llmAnalyzer{iv: iv, fallback: fb}
	}
	logger.Infof("[sentiment] variant=%s", s.primary.Variant())
	return s
}

func (s *Service) Variant() inference.Variant { return s.primary.Variant() }

// Analyze classifies text. forceFallback skips the LLM for this call.
func (s *Service) Analyze(ctx context.Context, text string, forceFallback bool) inference.SentimentResult {
	if forceFallback {
		return s.fallback.Analyze(ctx, text)
	}
	return s.primary.Analyze(ctx, text)
}

// Batch analyzes texts concurrently and returns results in input order.
func (s *Service) Batch(ctx context.Context, texts []string, forceFallback bool) []inference.SentimentResult {
	out := make([]inference.SentimentResult, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchParallelism)
	for i, text := range texts {
		i, text := i, text
		g.Go(func() error {
			out[i] = s.Analyze(gctx, text, forceFallback)
			return nil
		})
	}
	_ = g.Wait()
	return out
}
