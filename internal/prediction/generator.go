package prediction

import (
	"context"
	"errors"
	"fmt"

	"cryptopredict/internal/fallback"
	"cryptopredict/internal/gateway/crawler"
	"cryptopredict/internal/inference"
	"cryptopredict/internal/logger"
	symbolpkg "cryptopredict/internal/pkg/symbol"
)

// ErrNoArticles reports that the crawler returned nothing to analyze.
var ErrNoArticles = errors.New("no news articles available")

// NewsSource fetches the latest articles for a trading pair.
type NewsSource interface {
	Latest(ctx context.Context, symbol string, limit int) ([]crawler.NewsItem, error)
}

// predictor is one inference variant over an already fetched article set.
type predictor interface {
	Variant() inference.Variant
	Predict(ctx context.Context, symbol string, news []crawler.NewsItem) inference.PredictionResult
}

type keywordPredictor struct {
	kw *fallback.Analyzer
}

func (k keywordPredictor) Variant() inference.Variant { return inference.VariantFallback }

func (k keywordPredictor) Predict(_ context.Context, symbol string, news []crawler.NewsItem) inference.PredictionResult {
	return k.kw.Prediction(symbol, news)
}

// llmPredictor falls back on the same articles; it never re-fetches.
type llmPredictor struct {
	iv       *inference.Invoker
	fallback keywordPredictor
}

func (l llmPredictor) Variant() inference.Variant { return inference.VariantLLM }

func (l llmPredictor) Predict(ctx context.Context, symbol string, news []crawler.NewsItem) inference.PredictionResult {
	res, err := l.iv.Prediction(ctx, symbol, news)
	if err != nil {
		logger.Warnf("[predict] %s llm prediction failed, using keyword fallback: %v", symbol, err)
		return l.fallback.Predict(ctx, symbol, news)
	}
	return res
}

// Generator gathers news and produces an unsaved prediction.
type Generator struct {
	news      NewsSource
	predictor predictor
	newsLimit int
}

func NewGenerator(news NewsSource, iv *inference.Invoker, kw *fallback.Analyzer, newsLimit int) *Generator {
	fb := keywordPredictor{kw: kw}
	g := &Generator{news: news, predictor: fb, newsLimit: newsLimit}
	if iv.Available() {
		g.predictor = llmPredictor{iv: iv, fallback: fb}
	}
	logger.Infof("[predict] variant=%s news_limit=%d", g.predictor.Variant(), newsLimit)
	return g
}

func (g *Generator) Variant() inference.Variant { return g.predictor.Variant() }

// Generate fetches up to limit articles (the configured limit when <= 0) and
// runs inference over them.
func (g *Generator) Generate(ctx context.Context, symbol string, limit int) (Record, []crawler.NewsItem, error) {
	symbol = symbolpkg.Canonical(symbol)
	if limit <= 0 {
		limit = g.newsLimit
	}
	news, err := g.news.Latest(ctx, symbol, limit)
	if err != nil {
		return Record{}, nil, fmt.Errorf("fetch news for %s: %w", symbol, err)
	}
	if len(news) == 0 {
		return Record{}, nil, fmt.Errorf("%s: %w", symbol, ErrNoArticles)
	}
	res := g.predictor.Predict(ctx, symbol, news)
	res.Symbol = symbol
	res.NewsAnalyzed = len(news)
	return FromResult(res), news, nil
}
