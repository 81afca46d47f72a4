package fallback

import (
	"fmt"
	"math"
	"strings"

	"cryptopredict/internal/inference"
)

const (
	trendUpThreshold   = 0.6
	trendDownThreshold = 0.4
	trendMove          = 2.0
	trendConfidence    = 0.6
	// priceNormPercent is the change treated as a full-scale move.
	priceNormPercent = 10.0
)

// Causal relates a sentiment result to the observed price move without an LLM.
func Causal(sent inference.SentimentResult, priceBefore float64, priceAfter *float64) inference.CausalOutcome {
	change := 0.0
	if priceAfter != nil && priceBefore > 0 {
		change = (*priceAfter - priceBefore) / priceBefore * 100
	}
	corr := 0.0
	if norm := change / priceNormPercent; norm != 0 {
		corr = inference.ClampSigned((sent.Score - 0.5) * (norm / 0.5))
	}

	tone := "negative"
	if sent.Score > 0.5 {
		tone = "positive"
	}
	rel := inference.CausalRelationship{
		Type:             relationshipFor(corr),
		CorrelationScore: corr,
		Explanation: fmt.Sprintf("Fallback analysis: Sentiment score %.2f shows %s sentiment. Price changed by %.2f%%. Correlation: %.2f.",
			sent.Score, tone, change, corr),
		EvidencePoints: []string{
			"Sentiment: " + sent.Label,
			fmt.Sprintf("Price change: %.2f%%", change),
			fmt.Sprintf("Correlation: %.2f", corr),
		},
	}
	return inference.CausalOutcome{
		Relationship: rel,
		Trend:        Trend(sent),
		Variant:      inference.VariantFallback,
	}
}

// Trend maps the sentiment score onto a fixed-size expected move.
func Trend(sent inference.SentimentResult) inference.TrendPrediction {
	dir, move := inference.TrendNeutral, 0.0
	switch {
	case sent.Score > trendUpThreshold:
		dir, move = inference.TrendUp, trendMove
	case sent.Score < trendDownThreshold:
		dir, move = inference.TrendDown, -trendMove
	}
	return inference.TrendPrediction{
		Direction:             dir,
		Confidence:            trendConfidence,
		ExpectedChangePercent: move,
		Reasoning: fmt.Sprintf("Based on sentiment analysis (%s), the market is expected to move %s. This is a simplified prediction using sentiment score of %.2f.",
			sent.Label, strings.ToLower(string(dir)), sent.Score),
		KeyFactors: []string{
			"News sentiment: " + sent.Label,
			fmt.Sprintf("Sentiment score: %.2f", sent.Score),
		},
	}
}

func relationshipFor(corr float64) inference.RelationshipType {
	switch a := math.Abs(corr); {
	case a > 0.7:
		return inference.RelationshipStrong
	case a > 0.4:
		return inference.RelationshipModerate
	case a > 0.1:
		return inference.RelationshipWeak
	default:
		return inference.RelationshipNone
	}
}
