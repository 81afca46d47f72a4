package fallback

import (
	"math"
	"strings"
	"unicode"

	"cryptopredict/internal/inference"
	"cryptopredict/internal/logger"
)

const (
	scoreStep      = 0.08
	maxScore       = 0.95
	minScore       = 0.05
	maxConfidence  = 0.85
	densityWeight  = 2.0
	prefixMinChars = 4
)

// Counts is the raw keyword tally behind a keyword sentiment result.
type Counts struct {
	Bullish int
	Bearish int
	Neutral int
	Words   int
	// Hits lists matched keywords in first-seen order.
	Hits []string
}

func (c Counts) Matched() int { return c.Bullish + c.Bearish + c.Neutral }

// Analyzer is the deterministic keyword classifier.
type Analyzer struct {
	registry *Registry
}

func NewAnalyzer(reg *Registry) *Analyzer {
	if reg == nil {
		reg, _ = NewRegistry("")
	}
	return &Analyzer{registry: reg}
}

// Count tokenizes text and tallies keyword hits. A token counts for a set when
// it equals a keyword, or starts with a keyword of at least four letters; each
// token counts at most once per set.
func (a *Analyzer) Count(text string) Counts {
	lex := a.registry.Lexicon()
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	c := Counts{Words: len(tokens)}
	seen := make(map[string]struct{})
	for _, tok := range tokens {
		if kw, ok := match(tok, lex.Bullish); ok {
			c.Bullish++
			c.Hits = addHit(c.Hits, seen, kw)
		}
		if kw, ok := match(tok, lex.Bearish); ok {
			c.Bearish++
			c.Hits = addHit(c.Hits, seen, kw)
		}
		if kw, ok := match(tok, lex.Neutral); ok {
			c.Neutral++
			c.Hits = addHit(c.Hits, seen, kw)
		}
	}
	return c
}

// Sentiment classifies text. It never fails.
func (a *Analyzer) Sentiment(text string) inference.SentimentResult {
	c := a.Count(text)
	label, score := Classify(c)
	res := inference.SentimentResult{
		Label:        string(label),
		Score:        score,
		Confidence:   Confidence(c),
		ModelVersion: inference.FallbackModelVersion,
		Variant:      inference.VariantFallback,
	}
	logger.Debugf("[fallback] keyword sentiment=%s score=%.2f bullish=%d bearish=%d neutral=%d",
		res.Label, res.Score, c.Bullish, c.Bearish, c.Neutral)
	return res
}

// Classify picks the strictly dominant set; anything else is neutral at 0.5.
func Classify(c Counts) (inference.Direction, float64) {
	switch {
	case c.Bullish > c.Bearish && c.Bullish > c.Neutral:
		return inference.DirectionBullish, math.Min(0.5+float64(c.Bullish)*scoreStep, maxScore)
	case c.Bearish > c.Bullish && c.Bearish > c.Neutral:
		return inference.DirectionBearish, math.Max(0.5-float64(c.Bearish)*scoreStep, minScore)
	default:
		return inference.DirectionNeutral, 0.5
	}
}

// Confidence scales keyword density and caps it below LLM-grade certainty.
func Confidence(c Counts) float64 {
	words := c.Words
	if words < 1 {
		words = 1
	}
	return math.Min(0.5+float64(c.Matched())/float64(words)*densityWeight, maxConfidence)
}

func match(tok string, words []string) (string, bool) {
	for _, kw := range words {
		if tok == kw {
			return kw, true
		}
	}
	for _, kw := range words {
		if len(kw) >= prefixMinChars && strings.HasPrefix(tok, kw) {
			return kw, true
		}
	}
	return "", false
}

func addHit(hits []string, seen map[string]struct{}, kw string) []string {
	if _, ok := seen[kw]; ok {
		return hits
	}
	seen[kw] = struct{}{}
	return append(hits, kw)
}
