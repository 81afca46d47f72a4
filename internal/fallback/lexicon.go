package fallback

import (
	"fmt"
	"strings"
)

// Lexicon is the three keyword sets of the keyword analyzer.
type Lexicon struct {
	Bullish []string `yaml:"bullish"`
	Bearish []string `yaml:"bearish"`
	Neutral []string `yaml:"neutral"`
}

// DefaultLexicon returns the built-in crypto keyword sets.
func DefaultLexicon() Lexicon {
	return Lexicon{
		Bullish: []string{
			"bull", "bullish", "growth", "surge", "rally", "profit", "gain",
			"positive", "up", "rise", "pump", "moon", "breakout", "support",
			"buy", "accumulate", "hodl", "adoption", "partnership",
		},
		Bearish: []string{
			"bear", "bearish", "decline", "crash", "drop", "loss", "negative",
			"down", "fall", "dump", "dip", "breakdown", "resistance",
			"sell", "fear", "panic", "regulation", "hack", "scam",
		},
		Neutral: []string{
			"stable", "sideways", "consolidation", "range", "waiting",
			"uncertain", "mixed", "flat",
		},
	}
}

func (l Lexicon) normalized() Lexicon {
	return Lexicon{
		Bullish: normalizeWords(l.Bullish),
		Bearish: normalizeWords(l.Bearish),
		Neutral: normalizeWords(l.Neutral),
	}
}

func (l Lexicon) validate() error {
	if len(l.Bullish) == 0 || len(l.Bearish) == 0 || len(l.Neutral) == 0 {
		return fmt.Errorf("lexicon requires non-empty bullish, bearish and neutral sets")
	}
	return nil
}

func normalizeWords(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, w := range in {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}
