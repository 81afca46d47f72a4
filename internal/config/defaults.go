package config

import (
	"strings"
)

const (
	defaultAppEnv       = "dev"
	defaultAppVersion   = "1.0.0"
	defaultAppLogLevel  = "info"
	defaultAppLogFormat = "text"
	defaultAppHTTPAddr  = ":8000"

	defaultAIURL             = "https://api.openai.com/v1"
	defaultAIModel           = "gpt-4o-mini"
	defaultAIMaxTokens       = 200
	defaultAITemperature     = 0.3
	defaultAITimeout         = 30
	defaultAIRetries         = 2
	defaultAIRPS             = 5
	defaultBreakerThreshold  = 5
	defaultBreakerCooldown   = 30
	defaultChatModel         = "gpt-3.5-turbo"
	defaultChatMaxTokens     = 800
	defaultChatTemperature   = 0.7
	defaultCrawlerURL        = "http://localhost:9002"
	defaultCrawlerTimeout    = 30
	defaultCrawlerSearchTime = 10
	defaultCrawlerRetries    = 2
	defaultMarketREST        = "https://api.binance.com"
	defaultMarketTimeout     = 15
	defaultStorePath         = "data/predictions.db"
	defaultRefreshInterval   = 300
	defaultMinPoll           = 5
	defaultDegradedPoll      = 10
	defaultNewsLimit         = 10
	defaultChatHistory       = 50
)

func (c *Config) applyDefaults(keys keySet) {
	c.App.applyDefaults(keys)
	c.AI.applyDefaults(keys)
	c.Crawler.applyDefaults(keys)
	c.Market.applyDefaults(keys)
	c.Store.applyDefaults(keys)
	c.Prediction.applyDefaults(keys)
	c.Chat.applyDefaults(keys)
}

func (a *AppConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("app.env", &a.Env, defaultAppEnv),
		stringFieldDefault("app.version", &a.Version, defaultAppVersion),
		stringFieldDefault("app.log_level", &a.LogLevel, defaultAppLogLevel),
		stringFieldDefault("app.log_format", &a.LogFormat, defaultAppLogFormat),
		stringFieldDefault("app.http_addr", &a.HTTPAddr, defaultAppHTTPAddr),
		boolFieldDefault("app.llm_dump_payload", &a.LLMDump, false),
	)
	a.LogLevel = strings.ToLower(strings.TrimSpace(a.LogLevel))
}

func (a *AIConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("ai.api_url", &a.APIURL, defaultAIURL),
		stringFieldDefault("ai.model", &a.Model, defaultAIModel),
		intFieldDefault("ai.max_tokens", &a.MaxTokens, defaultAIMaxTokens),
		floatFieldDefault("ai.temperature", &a.Temperature, defaultAITemperature),
		intFieldDefault("ai.timeout_seconds", &a.TimeoutSeconds, defaultAITimeout),
		intFieldDefault("ai.max_retries", &a.MaxRetries, defaultAIRetries),
		floatFieldDefault("ai.requests_per_second", &a.RequestsPerSecond, defaultAIRPS),
		intFieldDefault("ai.breaker_threshold", &a.BreakerThreshold, defaultBreakerThreshold),
		intFieldDefault("ai.breaker_cooldown_seconds", &a.BreakerCooldownSeconds, defaultBreakerCooldown),
		stringFieldDefault("ai.chat_model", &a.ChatModel, defaultChatModel),
		intFieldDefault("ai.chat_max_tokens", &a.ChatMaxTokens, defaultChatMaxTokens),
		floatFieldDefault("ai.chat_temperature", &a.ChatTemperature, defaultChatTemperature),
	)
	a.APIURL = strings.TrimRight(strings.TrimSpace(a.APIURL), "/")
	a.APIKey = strings.TrimSpace(a.APIKey)
}

func (c *CrawlerConfig) applyDefaults(keys keySet) {
	if c == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("crawler.base_url", &c.BaseURL, defaultCrawlerURL),
		intFieldDefault("crawler.timeout_seconds", &c.TimeoutSeconds, defaultCrawlerTimeout),
		intFieldDefault("crawler.search_timeout_seconds", &c.SearchTimeoutSeconds, defaultCrawlerSearchTime),
		intFieldDefault("crawler.max_retries", &c.MaxRetries, defaultCrawlerRetries),
	)
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
}

func (m *MarketConfig) applyDefaults(keys keySet) {
	if m == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("market.rest_url", &m.RESTURL, defaultMarketREST),
		intFieldDefault("market.timeout_seconds", &m.TimeoutSeconds, defaultMarketTimeout),
	)
}

func (s *StoreConfig) applyDefaults(keys keySet) {
	if s == nil {
		return
	}
	applyFieldDefaults(keys, stringFieldDefault("store.path", &s.Path, defaultStorePath))
}

func (p *PredictionConfig) applyDefaults(keys keySet) {
	if p == nil {
		return
	}
	applyFieldDefaults(keys,
		intFieldDefault("prediction.refresh_interval_seconds", &p.RefreshIntervalSeconds, defaultRefreshInterval),
		intFieldDefault("prediction.min_poll_seconds", &p.MinPollSeconds, defaultMinPoll),
		intFieldDefault("prediction.degraded_poll_seconds", &p.DegradedPollSeconds, defaultDegradedPoll),
		intFieldDefault("prediction.news_limit", &p.NewsLimit, defaultNewsLimit),
	)
}

func (c *ChatConfig) applyDefaults(keys keySet) {
	if c == nil {
		return
	}
	applyFieldDefaults(keys, intFieldDefault("chat.history_limit", &c.HistoryLimit, defaultChatHistory))
}

// Helper functions

func applyFieldDefaults(keys keySet, defs ...fieldDefault) {
	for _, def := range defs {
		if def.apply == nil {
			continue
		}
		if def.key != "" && keys.isSet(def.key) {
			continue
		}
		if def.need != nil && !def.need() {
			continue
		}
		def.apply()
	}
}

func stringFieldDefault(key string, target *string, def string) fieldDefault {
	return fieldDefault{
		key: key,
		need: func() bool {
			return target != nil && strings.TrimSpace(*target) == ""
		},
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

func boolFieldDefault(key string, target *bool, def bool) fieldDefault {
	return fieldDefault{
		key:  key,
		need: func() bool { return target != nil },
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

func intFieldDefault(key string, target *int, def int) fieldDefault {
	return fieldDefault{
		key:  key,
		need: func() bool { return target != nil && *target <= 0 },
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

// floatFieldDefault only fills unset keys; an explicit 0 is kept.
func floatFieldDefault(key string, target *float64, def float64) fieldDefault {
	return fieldDefault{
		key:  key,
		need: func() bool { return target != nil && *target == 0 },
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}
