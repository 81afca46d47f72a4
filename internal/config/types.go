package config

import (
	"strings"
	"time"
)

// Config is the root configuration of the prediction service.
type Config struct {
	App        AppConfig        `toml:"app"`
	AI         AIConfig         `toml:"ai"`
	Crawler    CrawlerConfig    `toml:"crawler"`
	Market     MarketConfig     `toml:"market"`
	Store      StoreConfig      `toml:"store"`
	Prediction PredictionConfig `toml:"prediction"`
	Fallback   FallbackConfig   `toml:"fallback"`
	Chat       ChatConfig       `toml:"chat"`
}

type AppConfig struct {
	Env       string `toml:"env"`
	Version   string `toml:"version"`
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
	HTTPAddr  string `toml:"http_addr"`
	LogPath   string `toml:"log_path"`
	LLMLog    string `toml:"llm_log_path"`
	LLMDump   bool   `toml:"llm_dump_payload"`
}

// AIConfig describes the OpenAI-compatible endpoint used for every model call.
// An empty APIKey disables the LLM paths; features with a keyword fallback keep
// working, the rest answer "service unavailable".
type AIConfig struct {
	APIURL                 string            `toml:"api_url"`
	APIKey                 string            `toml:"api_key"`
	Model                  string            `toml:"model"`
	MaxTokens              int               `toml:"max_tokens"`
	Temperature            float64           `toml:"temperature"`
	TimeoutSeconds         int               `toml:"timeout_seconds"`
	MaxRetries             int               `toml:"max_retries"`
	RequestsPerSecond      float64           `toml:"requests_per_second"`
	BreakerThreshold       int               `toml:"breaker_threshold"`
	BreakerCooldownSeconds int               `toml:"breaker_cooldown_seconds"`
	ChatModel              string            `toml:"chat_model"`
	ChatMaxTokens          int               `toml:"chat_max_tokens"`
	ChatTemperature        float64           `toml:"chat_temperature"`
	Headers                map[string]string `toml:"headers"`
}

func (a AIConfig) Configured() bool {
	return strings.TrimSpace(a.APIKey) != ""
}

func (a AIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

func (a AIConfig) BreakerCooldown() time.Duration {
	return time.Duration(a.BreakerCooldownSeconds) * time.Second
}

type CrawlerConfig struct {
	BaseURL              string `toml:"base_url"`
	TimeoutSeconds       int    `toml:"timeout_seconds"`
	SearchTimeoutSeconds int    `toml:"search_timeout_seconds"`
	MaxRetries           int    `toml:"max_retries"`
}

type MarketConfig struct {
	RESTURL        string `toml:"rest_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

type StoreConfig struct {
	Path string `toml:"path"`
}

// PredictionConfig holds the freshness policy of cached predictions.
type PredictionConfig struct {
	RefreshIntervalSeconds int `toml:"refresh_interval_seconds"`
	MinPollSeconds         int `toml:"min_poll_seconds"`
	DegradedPollSeconds    int `toml:"degraded_poll_seconds"`
	NewsLimit              int `toml:"news_limit"`
}

func (p PredictionConfig) RefreshInterval() time.Duration {
	return time.Duration(p.RefreshIntervalSeconds) * time.Second
}

type FallbackConfig struct {
	LexiconPath string `toml:"lexicon_path"`
}

type ChatConfig struct {
	HistoryLimit int `toml:"history_limit"`
}

type keySet map[string]struct{}

func (k keySet) mark(path string) {
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return
	}
	k[path] = struct{}{}
}

func (k keySet) isSet(path string) bool {
	if len(k) == 0 {
		return false
	}
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return false
	}
	_, ok := k[path]
	return ok
}

// fieldDefault applies a default when the key was not set explicitly and need reports true.
type fieldDefault struct {
	key   string
	need  func() bool
	apply func()
}
