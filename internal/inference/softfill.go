package inference

import (
	"strconv"
	"strings"

	"cryptopredict/internal/logger"
	"cryptopredict/internal/market"

	"github.com/tidwall/gjson"
)

const (
	defaultConfidence       = 0.5
	defaultSentimentScore   = 0.5
	defaultPredictionReason = "Prediction based on the overall sentiment of recent news."
	defaultLineReason       = "AI prediction based on price action and news sentiment."
	defaultExplanation      = "No explanation provided"
	defaultTrendReason      = "No reasoning provided"
	noKeyFactors            = "No specific factors identified"
)

var sentimentLabels = map[string]struct{}{
	"bullish": {}, "bearish": {}, "neutral": {}, "positive": {}, "negative": {},
}

var overallSentiments = map[string]struct{}{
	"positive": {}, "negative": {}, "mixed": {}, "neutral": {},
}

// FillSentiment patches a structurally valid sentiment payload.
func FillSentiment(res gjson.Result, model string) SentimentResult {
	label := strings.ToLower(strings.TrimSpace(res.Get("sentiment_label").String()))
	if _, ok := sentimentLabels[label]; !ok {
		label = string(DirectionNeutral)
	}
	return SentimentResult{
		Label:        label,
		Score:        Clamp01(floatOr(res.Get("sentiment_score"), defaultSentimentScore)),
		Confidence:   Clamp01(floatOr(res.Get("confidence"), defaultConfidence)),
		KeyFactors:   stringList(res.Get("key_factors")),
		ModelVersion: model,
		Variant:      VariantLLM,
	}
}

// FillPrediction patches a structurally valid prediction payload. The model may
// name the direction field "prediction" or "direction".
func FillPrediction(res gjson.Result, symbol string, newsCount int, model string) PredictionResult {
	dirField := res.Get("prediction")
	if !dirField.Exists() {
		dirField = res.Get("direction")
	}
	summary := res.Get("sentiment_summary")
	overall := strings.ToLower(strings.TrimSpace(summary.Get("overall_sentiment").String()))
	if _, ok := overallSentiments[overall]; !ok {
		overall = "neutral"
	}
	return PredictionResult{
		Symbol:     symbol,
		Direction:  ParseDirection(dirField.String()),
		Confidence: Clamp01(floatOr(res.Get("confidence"), defaultConfidence)),
		Summary: SentimentSummary{
			OverallSentiment: overall,
			BullishSignals:   nonNegative(summary.Get("bullish_signals").Int()),
			BearishSignals:   nonNegative(summary.Get("bearish_signals").Int()),
			NeutralSignals:   nonNegative(summary.Get("neutral_signals").Int()),
			SentimentScore:   ClampSigned(floatOr(summary.Get("sentiment_score"), 0)),
		},
		Reasoning:    textOr(res.Get("reasoning"), defaultPredictionReason),
		KeyFactors:   NormalizeKeyFactors(stringList(res.Get("key_factors")), symbol),
		NewsAnalyzed: newsCount,
		ModelVersion: model,
		Variant:      VariantLLM,
	}
}

// FillCausal patches a structurally valid causal payload.
func FillCausal(res gjson.Result) CausalOutcome {
	rel := res.Get("causal_relationship")
	trend := res.Get("trend_prediction")
	relType := RelationshipType(strings.ToUpper(strings.TrimSpace(rel.Get("relationship_type").String())))
	switch relType {
	case RelationshipStrong, RelationshipModerate, RelationshipWeak, RelationshipNone:
	default:
		relType = RelationshipNone
	}
	dir := TrendDirection(strings.ToUpper(strings.TrimSpace(trend.Get("direction").String())))
	switch dir {
	case TrendUp, TrendDown, TrendNeutral:
	default:
		dir = TrendNeutral
	}
	return CausalOutcome{
		Relationship: CausalRelationship{
			Type:             relType,
			CorrelationScore: ClampSigned(floatOr(rel.Get("correlation_score"), 0)),
			Explanation:      textOr(rel.Get("explanation"), defaultExplanation),
			EvidencePoints:   nonNil(stringList(rel.Get("evidence_points"))),
		},
		Trend: TrendPrediction{
			Direction:             dir,
			Confidence:            Clamp01(floatOr(trend.Get("confidence"), defaultConfidence)),
			ExpectedChangePercent: floatOr(trend.Get("expected_change_percent"), 0),
			Reasoning:             textOr(trend.Get("reasoning"), defaultTrendReason),
			KeyFactors:            NormalizeKeyFactors(stringList(trend.Get("key_factors")), "trend"),
		},
		Variant: VariantLLM,
	}
}

// FillLine pads a short price array with its last value, trims a long one to
// periods and rounds every value to two decimals.
func FillLine(res gjson.Result, periods int) LineResult {
	raw := res.Get("predicted_prices").Array()
	prices := make([]float64, 0, periods)
	for _, p := range raw {
		if len(prices) == periods {
			break
		}
		prices = append(prices, market.Round2(p.Float()))
	}
	for len(prices) > 0 && len(prices) < periods {
		prices = append(prices, prices[len(prices)-1])
	}
	return LineResult{
		Direction:       ParseDirection(res.Get("direction").String()),
		Confidence:      Clamp01(floatOr(res.Get("confidence"), defaultConfidence)),
		Reasoning:       textOr(res.Get("reasoning"), defaultLineReason),
		PredictedPrices: prices,
	}
}

// NormalizeKeyFactors enforces the 1..5 length bound. Extra entries are dropped
// with a warning; an empty list gets a placeholder.
func NormalizeKeyFactors(factors []string, tag string) []string {
	if len(factors) > MaxKeyFactors {
		logger.Warnf("[inference] %s key_factors truncated from %d to %d", tag, len(factors), MaxKeyFactors)
		factors = factors[:MaxKeyFactors]
	}
	if len(factors) == 0 {
		factors = []string{noKeyFactors}
	}
	return factors
}

func stringList(arr gjson.Result) []string {
	if !arr.IsArray() {
		return nil
	}
	var out []string
	for _, item := range arr.Array() {
		if s := strings.TrimSpace(item.String()); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// floatOr reads a number or a numeric string, else def.
func floatOr(v gjson.Result, def float64) float64 {
	switch v.Type {
	case gjson.Number:
		return v.Float()
	case gjson.String:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64); err == nil {
			return f
		}
	}
	return def
}

func textOr(v gjson.Result, def string) string {
	if s := strings.TrimSpace(v.String()); s != "" {
		return s
	}
	return def
}

func nonNegative(v int64) int {
	if v < 0 {
		return 0
	}
	return int(v)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
