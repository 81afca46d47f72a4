package provider

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"cryptopredict/internal/config"
	"cryptopredict/internal/logger"
	"cryptopredict/internal/pkg/circuit"

	"golang.org/x/time/rate"
)

// Providers holds the analysis model and the chat model. Both share one
// limiter and one breaker since they hit the same account.
type Providers struct {
	Analysis ModelProvider
	Chat     ModelProvider
}

func BuildProvidersFromConfig(cfg config.AIConfig) Providers {
	analysisID := fmt.Sprintf("openai:%s", strings.TrimSpace(cfg.Model))
	chatID := fmt.Sprintf("openai:%s", strings.TrimSpace(cfg.ChatModel))
	if !cfg.Configured() {
		logger.Warnf("[llm] api key not configured, LLM paths disabled")
		return Providers{Analysis: disabledProvider{id: analysisID}, Chat: disabledProvider{id: chatID}}
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := int(cfg.RequestsPerSecond)
	if burst < 1 {
		burst = 1
	}
	limiter := rate.NewLimiter(limit, burst)
	breaker := circuit.NewCircuitBreaker("openai", cfg.BreakerThreshold, cfg.BreakerCooldown())
	build := func(model string) *OpenAIChatClient {
		return &OpenAIChatClient{
			BaseURL:      cfg.APIURL,
			APIKey:       cfg.APIKey,
			Model:        model,
			Timeout:      cfg.Timeout(),
			MaxRetries:   cfg.MaxRetries,
			ExtraHeaders: cfg.Headers,
			Limiter:      limiter,
			Breaker:      breaker,
			HTTPClient:   &http.Client{Timeout: orDefault(cfg.Timeout(), 60*time.Second)},
		}
	}
	logger.Infof("[llm] analysis model=%s chat model=%s", cfg.Model, cfg.ChatModel)
	return Providers{
		Analysis: NewOpenAIModelProvider(analysisID, build(cfg.Model)),
		Chat:     NewOpenAIModelProvider(chatID, build(cfg.ChatModel)),
	}
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
