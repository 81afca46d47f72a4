package config

import (
	"fmt"
	"net/url"
	"strings"
)

func validate(c *Config) error {
	if err := c.App.validate(); err != nil {
		return err
	}
	if err := c.AI.validate(); err != nil {
		return err
	}
	if err := c.Crawler.validate(); err != nil {
		return err
	}
	if err := c.Market.validate(); err != nil {
		return err
	}
	if err := c.Prediction.validate(); err != nil {
		return err
	}
	if c.Chat.HistoryLimit < 1 {
		return fmt.Errorf("chat.history_limit must be >= 1")
	}
	if strings.TrimSpace(c.Store.Path) == "" {
		return fmt.Errorf("store.path cannot be empty")
	}
	return nil
}

func (a *AppConfig) validate() error {
	switch a.LogLevel {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("app.log_level must be one of debug/info/warn/error, got %q", a.LogLevel)
	}
	switch strings.ToLower(a.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("app.log_format must be text or json, got %q", a.LogFormat)
	}
	return nil
}

func (a *AIConfig) validate() error {
	if err := validateURL("ai.api_url", a.APIURL); err != nil {
		return err
	}
	if a.Temperature < 0 || a.Temperature > 2 {
		return fmt.Errorf("ai.temperature must be within [0,2]")
	}
	if a.ChatTemperature < 0 || a.ChatTemperature > 2 {
		return fmt.Errorf("ai.chat_temperature must be within [0,2]")
	}
	if a.MaxTokens < 1 || a.ChatMaxTokens < 1 {
		return fmt.Errorf("ai.max_tokens and ai.chat_max_tokens must be >= 1")
	}
	if a.MaxRetries < 0 {
		return fmt.Errorf("ai.max_retries must be >= 0")
	}
	if a.RequestsPerSecond < 0 {
		return fmt.Errorf("ai.requests_per_second must be >= 0")
	}
	if a.BreakerThreshold < 1 {
		return fmt.Errorf("ai.breaker_threshold must be >= 1")
	}
	return nil
}

func (c *CrawlerConfig) validate() error {
	if err := validateURL("crawler.base_url", c.BaseURL); err != nil {
		return err
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("crawler.max_retries must be >= 0")
	}
	return nil
}

func (m *MarketConfig) validate() error {
	return validateURL("market.rest_url", m.RESTURL)
}

func (p *PredictionConfig) validate() error {
	if p.MinPollSeconds > p.RefreshIntervalSeconds {
		return fmt.Errorf("prediction.min_poll_seconds must not exceed prediction.refresh_interval_seconds")
	}
	if p.NewsLimit < 1 || p.NewsLimit > 50 {
		return fmt.Errorf("prediction.news_limit must be within [1,50]")
	}
	return nil
}

func validateURL(key, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s must be an absolute URL, got %q", key, raw)
	}
	return nil
}
