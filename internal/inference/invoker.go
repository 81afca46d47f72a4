package inference

import (
	"context"
	"fmt"

	"cryptopredict/internal/config"
	"cryptopredict/internal/gateway/crawler"
	"cryptopredict/internal/gateway/provider"
	"cryptopredict/internal/logger"

	"github.com/tidwall/gjson"
)

// Invoker runs one structured completion per call. It never falls back on its
// own; callers pick the fallback variant when Invoke fails.
type Invoker struct {
	provider    provider.ModelProvider
	model       string
	maxTokens   int
	temperature float64
}

func NewInvoker(p provider.ModelProvider, cfg config.AIConfig) *Invoker {
	return &Invoker{
		provider:    p,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}
}

// Available reports whether the provider has credentials.
func (iv *Invoker) Available() bool {
	return iv != nil && iv.provider != nil && iv.provider.Enabled()
}

func (iv *Invoker) ModelID() string { return iv.model }

// Invoke sends p and returns the payload that passed the structural check.
func (iv *Invoker) Invoke(ctx context.Context, p Prompt) (gjson.Result, error) {
	if !iv.Available() {
		return gjson.Result{}, provider.ErrNotConfigured
	}
	raw, err := iv.provider.Call(ctx, provider.ChatPayload{
		System:      p.System,
		User:        p.User,
		ExpectJSON:  true,
		MaxTokens:   iv.maxTokens * p.Kind.budgetMultiplier(),
		Temperature: iv.temperature,
		Purpose:     p.Purpose,
		Kind:        string(p.Kind),
	})
	if err != nil {
		return gjson.Result{}, fmt.Errorf("%s completion: %w", p.Kind, err)
	}
	res, err := CheckStructure(p.Kind, raw)
	if err != nil {
		logger.Warnf("[inference] %s rejected: %v", p.Kind, err)
		return gjson.Result{}, err
	}
	return res, nil
}

func (iv *Invoker) Sentiment(ctx context.Context, text string) (SentimentResult, error) {
	res, err := iv.Invoke(ctx, SentimentPrompt(text))
	if err != nil {
		return SentimentResult{}, err
	}
	return FillSentiment(res, iv.model), nil
}

func (iv *Invoker) Prediction(ctx context.Context, symbol string, news []crawler.NewsItem) (PredictionResult, error) {
	res, err := iv.Invoke(ctx, PredictionPrompt(symbol, news))
	if err != nil {
		return PredictionResult{}, err
	}
	return FillPrediction(res, symbol, len(news), iv.model), nil
}

func (iv *Invoker) Causal(ctx context.Context, c CausalContext) (CausalOutcome, error) {
	res, err := iv.Invoke(ctx, CausalPrompt(c))
	if err != nil {
		return CausalOutcome{}, err
	}
	return FillCausal(res), nil
}

func (iv *Invoker) Line(ctx context.Context, c LineContext) (LineResult, error) {
	res, err := iv.Invoke(ctx, LinePrompt(c))
	if err != nil {
		return LineResult{}, err
	}
	return FillLine(res, c.Periods), nil
}
