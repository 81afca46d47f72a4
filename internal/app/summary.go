package app

import (
	"fmt"
	"strings"

	"cryptopredict/internal/config"
	"cryptopredict/internal/fallback"
)

type StartupSummary struct {
	Env          string
	Version      string
	HTTPAddr     string
	StorePath    string
	Model        string
	ChatModel    string
	LLMEnabled   bool
	RefreshEvery int
	MinPoll      int
	NewsLimit    int
	LexiconPath  string
	LexiconSizes [3]int
}

func buildSummary(cfg *config.Config, reg *fallback.Registry) *StartupSummary {
	s := &StartupSummary{
		Env:          cfg.App.Env,
		Version:      cfg.App.Version,
		HTTPAddr:     cfg.App.HTTPAddr,
		StorePath:    cfg.Store.Path,
		Model:        cfg.AI.Model,
		ChatModel:    cfg.AI.ChatModel,
		LLMEnabled:   cfg.AI.Configured(),
		RefreshEvery: cfg.Prediction.RefreshIntervalSeconds,
		MinPoll:      cfg.Prediction.MinPollSeconds,
		NewsLimit:    cfg.Prediction.NewsLimit,
		LexiconPath:  cfg.Fallback.LexiconPath,
	}
	if reg != nil {
		lex := reg.Lexicon()
		s.LexiconSizes = [3]int{len(lex.Bullish), len(lex.Bearish), len(lex.Neutral)}
	}
	return s
}

func (s *StartupSummary) Print() {
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("cryptopredict %s (%s)\n", s.Version, s.Env)
	fmt.Println(strings.Repeat("=", 60))

	fmt.Println("[HTTP]")
	fmt.Printf("  listen: %s\n", s.HTTPAddr)
	fmt.Println()

	fmt.Println("[MODEL]")
	if s.LLMEnabled {
		fmt.Printf("  analysis: %s\n", s.Model)
		fmt.Printf("  chat:     %s\n", s.ChatModel)
	} else {
		fmt.Println("  disabled (no api key): keyword fallback only, chat and prediction line unavailable")
	}
	fmt.Println()

	fmt.Println("[PREDICTION]")
	fmt.Printf("  store:   %s\n", s.StorePath)
	fmt.Printf("  refresh: %ds (min poll %ds)\n", s.RefreshEvery, s.MinPoll)
	fmt.Printf("  news:    %d articles\n", s.NewsLimit)
	fmt.Println()

	fmt.Println("[KEYWORD FALLBACK]")
	fmt.Printf("  lexicon: %s\n", orBuiltin(s.LexiconPath))
	fmt.Printf("  terms:   %d bullish, %d bearish, %d neutral\n", s.LexiconSizes[0], s.LexiconSizes[1], s.LexiconSizes[2])
	fmt.Println(strings.Repeat("=", 60))
}

func orBuiltin(path string) string {
	if strings.TrimSpace(path) == "" {
		return "(built-in)"
	}
	return path
}
