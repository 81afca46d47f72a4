package inference

import "cryptopredict/internal/market"

const MaxKeyFactors = 5

type SentimentResult struct {
	Label        string   `json:"sentiment_label"`
	Score        float64  `json:"sentiment_score"`
	Confidence   float64  `json:"confidence"`
	KeyFactors   []string `json:"key_factors,omitempty"`
	ModelVersion string   `json:"model_version"`
	Variant      Variant  `json:"-"`
}

type SentimentSummary struct {
	OverallSentiment string  `json:"overall_sentiment"`
	BullishSignals   int     `json:"bullish_signals"`
	BearishSignals   int     `json:"bearish_signals"`
	NeutralSignals   int     `json:"neutral_signals"`
	SentimentScore   float64 `json:"sentiment_score"`
}

// PredictionResult is a news-driven direction call before persistence.
type PredictionResult struct {
	Symbol       string           `json:"symbol"`
	Direction    Direction        `json:"prediction"`
	Confidence   float64          `json:"confidence"`
	Summary      SentimentSummary `json:"sentiment_summary"`
	Reasoning    string           `json:"reasoning"`
	KeyFactors   []string         `json:"key_factors"`
	NewsAnalyzed int              `json:"news_analyzed"`
	ModelVersion string           `json:"model_version"`
	Variant      Variant          `json:"-"`
}

type RelationshipType string

const (
	RelationshipStrong   RelationshipType = "STRONG"
	RelationshipModerate RelationshipType = "MODERATE"
	RelationshipWeak     RelationshipType = "WEAK"
	RelationshipNone     RelationshipType = "NONE"
)

type TrendDirection string

const (
	TrendUp      TrendDirection = "UP"
	TrendDown    TrendDirection = "DOWN"
	TrendNeutral TrendDirection = "NEUTRAL"
)

type CausalRelationship struct {
	Type             RelationshipType `json:"relationship_type"`
	CorrelationScore float64          `json:"correlation_score"`
	Explanation      string           `json:"explanation"`
	EvidencePoints   []string         `json:"evidence_points"`
}

type TrendPrediction struct {
	Direction             TrendDirection `json:"direction"`
	Confidence            float64        `json:"confidence"`
	ExpectedChangePercent float64        `json:"expected_change_percent"`
	Reasoning             string         `json:"reasoning"`
	KeyFactors            []string       `json:"key_factors"`
}

// CausalOutcome is the inferred part of a causal analysis.
type CausalOutcome struct {
	Relationship CausalRelationship
	Trend        TrendPrediction
	Variant      Variant
}

// LineResult carries predicted closes already padded or trimmed to the
// requested number of periods and rounded to cents.
type LineResult struct {
	Direction       Direction
	Confidence      float64
	Reasoning       string
	PredictedPrices []float64
}

// CausalContext is the prompt input of a causal analysis.
type CausalContext struct {
	Title         string
	Content       string
	PublishedAt   string
	Sentiment     SentimentResult
	Before        []market.PricePoint
	After         []market.PricePoint
	PriceBefore   float64
	PriceAfter    *float64
	ChangePercent *float64
	Horizon       string
}

// LineContext is the prompt input of a prediction line.
type LineContext struct {
	Symbol       string
	Interval     string
	Periods      int
	CurrentPrice float64
	Candles      market.Candles
	Indicators   string
	News         string
}
