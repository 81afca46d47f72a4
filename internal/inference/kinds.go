// Package inference wraps structured LLM calls: prompt building, a structural
// check that rejects unusable output, and a soft-fill pass that patches and
// clamps what survived.
package inference

import "strings"

// Kind names a structured task with its own prompt, schema and token budget.
type Kind string

const (
	KindSentiment  Kind = "sentiment"
	KindPrediction Kind = "prediction"
	KindCausal     Kind = "causal"
	KindLine       Kind = "prediction_line"
)

// budgetMultiplier scales the configured max_tokens per kind.
func (k Kind) budgetMultiplier() int {
	switch k {
	case KindCausal:
		return 3
	case KindLine:
		return 4
	default:
		return 1
	}
}

// Variant tags which path produced a result.
type Variant string

const (
	VariantLLM      Variant = "llm"
	VariantFallback Variant = "fallback"
)

// FallbackModelVersion marks results of the keyword analyzer.
const FallbackModelVersion = "keyword-fallback-v1.0.0"

type Direction string

const (
	DirectionBullish Direction = "bullish"
	DirectionBearish Direction = "bearish"
	DirectionNeutral Direction = "neutral"
)

// ParseDirection maps free text to a Direction; unknown values are neutral.
func ParseDirection(s string) Direction {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bullish", "bull", "up", "positive":
		return DirectionBullish
	case "bearish", "bear", "down", "negative":
		return DirectionBearish
	default:
		return DirectionNeutral
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Clamp01 bounds v to [0,1].
func Clamp01(v float64) float64 { return clamp(v, 0, 1) }

// ClampSigned bounds v to [-1,1].
func ClampSigned(v float64) float64 { return clamp(v, -1, 1) }
