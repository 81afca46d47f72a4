package inference

import (
	"fmt"
	"strings"

	"cryptopredict/internal/gateway/crawler"
	"cryptopredict/internal/market"
)

// Prompt is a fully rendered request for one task kind.
type Prompt struct {
	Kind    Kind
	System  string
	User    string
	Purpose string
}

const sentimentSystem = `You are an expert financial sentiment analyzer specializing in cryptocurrency and trading news.

Analyze the sentiment of the given text and respond with a JSON object containing:
- sentiment_label: one of "bullish", "bearish", "neutral", "positive", or "negative"
- sentiment_score: a float between 0.0 (most negative/bearish) and 1.0 (most positive/bullish)
- confidence: a float between 0.0 and 1.0 indicating your confidence in the analysis
- key_factors: a list of 2-3 key phrases or factors that influenced your decision

Consider financial terminology (bull/bear markets, support/resistance), price action
indicators (surge, crash, rally, decline), market mood (fear, greed, uncertainty) and
news impact (adoption, regulation, partnerships, security issues).

Respond ONLY with valid JSON, no additional text.`

func SentimentPrompt(text string) Prompt {
	return Prompt{
		Kind:   KindSentiment,
		System: sentimentSystem,
		User:   "Analyze the sentiment of this text:\n\n" + text,
	}
}

const predictionSystem = `You are an expert cryptocurrency market analyst specializing in news-based price prediction.

Analyze the provided news articles about a cryptocurrency trading pair and predict the likely price movement.

Your analysis should consider:
1. Overall sentiment trend across all articles
2. Impact level of each news item (market-moving vs routine news)
3. Recency and timing of news (more recent = higher weight)
4. Credibility of sources
5. Correlation between news sentiment and typical market reactions
6. Any conflicting signals or mixed sentiment

Respond with ONLY valid JSON in this exact format:
{
    "prediction": "bullish" | "bearish" | "neutral",
    "confidence": 0.0 to 1.0,
    "sentiment_summary": {
        "overall_sentiment": "positive" | "negative" | "mixed" | "neutral",
        "bullish_signals": number,
        "bearish_signals": number,
        "neutral_signals": number,
        "sentiment_score": -1.0 to 1.0
    },
    "reasoning": "Detailed explanation of your prediction based on the news analysis",
    "key_factors": ["factor 1", "factor 2", "factor 3"]
}

Confidence should reflect signal strength and consistency. Key factors should be
specific, actionable insights from the news, at most 5.`

func PredictionPrompt(symbol string, news []crawler.NewsItem) Prompt {
	user := fmt.Sprintf("Analyze these %d recent news articles for %s and predict the price movement:\n\n%s\n\nProvide your prediction in JSON format.",
		len(news), symbol, FormatArticles(news))
	return Prompt{Kind: KindPrediction, System: predictionSystem, User: user, Purpose: symbol}
}

// FormatArticles renders the numbered article blocks of the prediction prompt.
func FormatArticles(news []crawler.NewsItem) string {
	blocks := make([]string, 0, len(news))
	for i, n := range news {
		label := n.Sentiment.Label
		if label == "" {
			label = "unknown"
		}
		published := "unknown"
		if !n.PublishedAt.IsZero() {
			published = n.PublishedAt.UTC().Format("2006-01-02 15:04") + " UTC"
		}
		blocks = append(blocks, fmt.Sprintf("[Article %d]\nTitle: %s\nSummary: %s\nSource: %s\nPublished: %s\nCurrent Sentiment: %s (score: %.2f, confidence: %.2f)\n",
			i+1, n.Title, n.Summary, n.Source, published, label, n.Sentiment.Score, n.Sentiment.Confidence))
	}
	return strings.Join(blocks, "\n\n")
}

const causalSystem = `You are an expert financial analyst specializing in cryptocurrency market analysis and causal inference.

Your task is to:
1. Analyze the causal relationship between news events and price movements
2. Predict future price trends with detailed reasoning
3. Identify key factors influencing the market

Consider news sentiment and its alignment with price movements, price patterns before
and after the news, market context and volatility, correlation strength and potential
confounding factors.

Respond with valid JSON containing:
- causal_relationship: {
    relationship_type: "STRONG" | "MODERATE" | "WEAK" | "NONE",
    correlation_score: float (-1.0 to 1.0),
    explanation: string,
    evidence_points: array of strings
  }
- trend_prediction: {
    direction: "UP" | "DOWN" | "NEUTRAL",
    confidence: float (0.0 to 1.0),
    expected_change_percent: float (can be negative),
    reasoning: string,
    key_factors: array of 3-5 strings
  }

Respond ONLY with valid JSON, no additional text.`

const maxCausalContent = 2000

func CausalPrompt(c CausalContext) Prompt {
	content := c.Content
	if r := []rune(content); len(r) > maxCausalContent {
		content = string(r[:maxCausalContent]) + "..."
	}
	var b strings.Builder
	b.WriteString("Analyze the causal relationship and predict future trend:\n\n")
	fmt.Fprintf(&b, "NEWS ARTICLE:\nTitle: %s\nContent: %s\nPublished: %s\n\n", c.Title, content, c.PublishedAt)
	fmt.Fprintf(&b, "SENTIMENT ANALYSIS:\nLabel: %s\nScore: %.2f\nConfidence: %.2f\n\n", c.Sentiment.Label, c.Sentiment.Score, c.Sentiment.Confidence)
	fmt.Fprintf(&b, "PRICE HISTORY BEFORE NEWS (%d data points):\n%s\nPrice at news time: $%.2f\n\n", len(c.Before), market.Summarize(c.Before), c.PriceBefore)
	fmt.Fprintf(&b, "PRICE HISTORY AFTER NEWS (%d data points):\n", len(c.After))
	if len(c.After) == 0 {
		b.WriteString("Not enough data yet\n")
	} else {
		b.WriteString(market.Summarize(c.After) + "\n")
	}
	if c.PriceAfter != nil && c.ChangePercent != nil {
		fmt.Fprintf(&b, "Current price: $%.2f (Change: %.2f%%)\n", *c.PriceAfter, *c.ChangePercent)
	}
	fmt.Fprintf(&b, "\nPREDICTION HORIZON: %s\n\nProvide detailed causal analysis and trend prediction.", c.Horizon)
	return Prompt{Kind: KindCausal, System: causalSystem, User: b.String()}
}

const maxLineNews = 15

func LinePrompt(c LineContext) Prompt {
	system := fmt.Sprintf(`You are an expert quantitative crypto analyst.
Given recent price history and current news sentiment for %[1]s, predict the next %[2]d candle close prices on the %[3]s timeframe.

RULES:
1. Predictions must be realistic. Avoid extreme moves unless news justifies it.
2. Use the price history trend, support/resistance levels, indicators and news sentiment together.
3. Each predicted price should be a float. The first predicted price should be close to the current price.
4. Return ONLY valid JSON matching this exact schema:

{
  "direction": "bullish" | "bearish" | "neutral",
  "confidence": 0.0 to 1.0,
  "reasoning": "1-2 sentence explanation",
  "predicted_prices": [<float>, <float>, ...]
}

The "predicted_prices" array must have exactly %[2]d elements, one predicted close price per future candle period.
Current price is %.2[4]f.`, c.Symbol, c.Periods, c.Interval, c.CurrentPrice)
	news := c.News
	if strings.TrimSpace(news) == "" {
		news = "No recent news available."
	}
	user := fmt.Sprintf("Recent %s candles for %s:\n%s\n\nIndicators: %s\n\nLatest news:\n%s\n\nPredict the next %d candle close prices.",
		c.Interval, c.Symbol, market.FormatCandleLines(c.Candles), c.Indicators, news, c.Periods)
	return Prompt{Kind: KindLine, System: system, User: user, Purpose: c.Symbol}
}

// FormatNewsContext renders at most 15 "[i] title (sentiment: label, score: x)" lines.
func FormatNewsContext(news []crawler.NewsItem) string {
	if len(news) > maxLineNews {
		news = news[:maxLineNews]
	}
	lines := make([]string, 0, len(news))
	for i, n := range news {
		title := n.Title
		if title == "" {
			title = "N/A"
		}
		label := n.Sentiment.Label
		if label == "" {
			label = "unknown"
		}
		lines = append(lines, fmt.Sprintf("[%d] %s (sentiment: %s, score: %.2f)", i+1, title, label, n.Sentiment.Score))
	}
	return strings.Join(lines, "\n")
}
