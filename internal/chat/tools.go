package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"cryptopredict/internal/gateway/crawler"
	"cryptopredict/internal/gateway/provider"
	"cryptopredict/internal/logger"
	"cryptopredict/internal/prediction"

	"github.com/tidwall/gjson"
)

const (
	toolPrediction = "get_crypto_price_prediction"
	toolSearch     = "search_articles_db"
)

// PredictionResolver serves cached-or-fresh predictions.
type PredictionResolver interface {
	Resolve(ctx context.Context, symbol string, clientTs *time.Time) prediction.Resolution
}

type ArticleSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]crawler.NewsItem, error)
}

func toolDefinitions() []provider.Tool {
	return []provider.Tool{
		{
			Name: toolPrediction,
			Description: "Predict the short-term price direction of a cryptocurrency from the latest news. " +
				"Use it when the user asks about a price prediction, trend or analysis of a specific coin.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"symbol": map[string]any{
						"type":        "string",
						"description": "Trading pair symbol, e.g. BTCUSDT or ETHUSDT",
						"enum":        SupportedSymbols,
					},
					"limit": map[string]any{
						"type":        "integer",
						"description": "Number of news articles to analyze (default 10)",
						"default":     10,
						"minimum":     5,
						"maximum":     20,
					},
				},
				"required": []string{"symbol"},
			},
		},
		{
			Name: toolSearch,
			Description: "Search the internal database of cryptocurrency news articles. " +
				"Use it to find recent information and patterns about market trends or news.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"keyword": map[string]any{
						"type":        "string",
						"description": "Search keyword or topic, e.g. 'Bitcoin', 'regulation', 'DeFi'",
					},
					"symbol": map[string]any{
						"type":        "string",
						"description": "Optional coin symbol to narrow results, e.g. 'BTC'",
					},
					"limit": map[string]any{
						"type":        "integer",
						"description": "Number of articles to retrieve (default 10)",
						"default":     10,
						"minimum":     5,
						"maximum":     30,
					},
				},
				"required": []string{"keyword"},
			},
		},
	}
}

type toolbox struct {
	predictions PredictionResolver
	articles    ArticleSearcher
}

// execute runs one tool call and returns its JSON result. Tool failures are
// reported to the model inside the result, never as an error.
func (t toolbox) execute(ctx context.Context, call provider.ToolCall) string {
	args := gjson.Parse(call.Arguments)
	var out map[string]any
	switch call.Name {
	case toolPrediction:
		out = t.predict(ctx, args)
	case toolSearch:
		out = t.search(ctx, args)
	default:
		out = map[string]any{"success": false, "error": "Unknown tool: " + call.Name}
	}
	raw, err := json.Marshal(out)
	if err != nil {
		return fmt.Sprintf(`{"success":false,"error":%q}`, err.Error())
	}
	return string(raw)
}

func (t toolbox) predict(ctx context.Context, args gjson.Result) map[string]any {
	symbol := strings.ToUpper(strings.TrimSpace(args.Get("symbol").String()))
	if symbol == "" {
		symbol = "BTCUSDT"
	}
	if !slices.Contains(SupportedSymbols, symbol) {
		return map[string]any{"success": false, "error": "Failed to get prediction: unsupported symbol " + symbol}
	}
	limit := clampInt(args.Get("limit"), 10, 5, 20)
	logger.Infof("[chat] tool %s symbol=%s limit=%d", toolPrediction, symbol, limit)

	res := t.predictions.Resolve(ctx, symbol, nil)
	rec := res.Prediction
	if rec == nil {
		return map[string]any{"success": false, "error": "Failed to get prediction: no prediction available right now"}
	}
	return map[string]any{
		"success":           true,
		"symbol":            symbol,
		"prediction":        rec.Direction,
		"confidence":        rec.Confidence,
		"sentiment_summary": rec.Summary,
		"reasoning":         rec.Reasoning,
		"key_factors":       rec.KeyFactors,
		"news_analyzed":     rec.NewsAnalyzed,
		"analyzed_at":       rec.CreatedAt.Format(time.RFC3339),
	}
}

func (t toolbox) search(ctx context.Context, args gjson.Result) map[string]any {
	keyword := strings.TrimSpace(args.Get("keyword").String())
	symbol := strings.TrimSpace(args.Get("symbol").String())
	limit := clampInt(args.Get("limit"), 10, 5, 30)
	query := keyword
	if symbol != "" {
		query = strings.TrimSpace(symbol + " " + keyword)
	}
	logger.Infof("[chat] tool %s query=%q limit=%d", toolSearch, query, limit)

	items, err := t.articles.Search(ctx, query, limit)
	if err != nil {
		logger.Warnf("[chat] article search failed: %v", err)
		return map[string]any{"success": false, "error": "Failed to search articles: " + err.Error()}
	}
	if len(items) == 0 {
		return map[string]any{
			"success":        true,
			"articles_found": 0,
			"message":        "No articles found for keyword: " + query,
			"articles":       []any{},
		}
	}
	if len(items) > limit {
		items = items[:limit]
	}
	articles := make([]map[string]any, 0, len(items))
	for _, it := range items {
		published := ""
		if !it.PublishedAt.IsZero() {
			published = it.PublishedAt.Format(time.RFC3339)
		}
		articles = append(articles, map[string]any{
			"id":           it.ID,
			"title":        it.Title,
			"summary":      it.Summary,
			"source":       it.Source,
			"published_at": published,
			"url":          it.URL,
		})
	}
	return map[string]any{
		"success":        true,
		"articles_found": len(articles),
		"search_query":   query,
		"articles":       articles,
	}
}

func clampInt(v gjson.Result, def, lo, hi int) int {
	if !v.Exists() {
		return def
	}
	n := int(v.Int())
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
