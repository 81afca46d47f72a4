package fallback

import (
	"fmt"
	"strings"

	"cryptopredict/internal/gateway/crawler"
	"cryptopredict/internal/inference"
)

// Prediction builds a complete prediction from the articles alone. It is used
// when the LLM is not configured or its answer was rejected.
func (a *Analyzer) Prediction(symbol string, news []crawler.NewsItem) inference.PredictionResult {
	var (
		all      strings.Builder
		summary  inference.SentimentSummary
		scoreSum float64
	)
	for _, item := range news {
		text := articleText(item)
		all.WriteString(text)
		all.WriteString("\n")

		s := a.Sentiment(text)
		switch inference.Direction(s.Label) {
		case inference.DirectionBullish:
			summary.BullishSignals++
		case inference.DirectionBearish:
			summary.BearishSignals++
		default:
			summary.NeutralSignals++
		}
		scoreSum += (s.Score - 0.5) * 2
	}
	if len(news) > 0 {
		summary.SentimentScore = inference.ClampSigned(scoreSum / float64(len(news)))
	}
	summary.OverallSentiment = overallSentiment(summary)

	counts := a.Count(all.String())
	dir, _ := Classify(counts)
	return inference.PredictionResult{
		Symbol:       symbol,
		Direction:    dir,
		Confidence:   Confidence(counts),
		Summary:      summary,
		Reasoning:    predictionReasoning(len(news), counts, dir),
		KeyFactors:   keyFactors(counts.Hits, news),
		NewsAnalyzed: len(news),
		ModelVersion: inference.FallbackModelVersion,
		Variant:      inference.VariantFallback,
	}
}

func articleText(item crawler.NewsItem) string {
	if item.Summary == "" {
		return item.Title
	}
	return item.Title + " " + item.Summary
}

func overallSentiment(s inference.SentimentSummary) string {
	switch {
	case s.BullishSignals > s.BearishSignals:
		return "positive"
	case s.BearishSignals > s.BullishSignals:
		return "negative"
	case s.BullishSignals > 0:
		return "mixed"
	default:
		return "neutral"
	}
}

func predictionReasoning(n int, c Counts, dir inference.Direction) string {
	return fmt.Sprintf("Fallback keyword analysis of %d articles: %d bullish, %d bearish and %d neutral keyword hits suggest a %s outlook.",
		n, c.Bullish, c.Bearish, c.Neutral, dir)
}

// keyFactors prefers matched keywords and tops up with article titles.
func keyFactors(hits []string, news []crawler.NewsItem) []string {
	out := make([]string, 0, inference.MaxKeyFactors)
	for _, h := range hits {
		if len(out) == inference.MaxKeyFactors {
			return out
		}
		out = append(out, "Keyword: "+h)
	}
	for _, item := range news {
		if len(out) == inference.MaxKeyFactors {
			break
		}
		if t := strings.TrimSpace(item.Title); t != "" {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		out = append(out, "No specific factors identified")
	}
	return out
}
