package crawler

import (
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// Sentiment is the crawler's own per-article sentiment tag.
type Sentiment struct {
	Label      string  `json:"label"`
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`
}

// NewsItem is an article as returned by the crawler. IDs may arrive as
// numbers or strings and are kept as strings.
type NewsItem struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Summary      string    `json:"summary"`
	Source       string    `json:"source"`
	URL          string    `json:"url,omitempty"`
	PublishedAt  time.Time `json:"published_at"`
	Sentiment    Sentiment `json:"sentiment"`
	RelatedPairs []string  `json:"related_pairs"`
}

var publishedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05.999999",
}

// ParsePublished reads crawler timestamps; naive values are taken as UTC.
func ParsePublished(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range publishedLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func parseItems(arr gjson.Result) []NewsItem {
	if !arr.IsArray() {
		return nil
	}
	out := make([]NewsItem, 0, len(arr.Array()))
	for _, it := range arr.Array() {
		if !it.IsObject() {
			continue
		}
		item := NewsItem{
			ID:      it.Get("id").String(),
			Title:   it.Get("title").String(),
			Summary: it.Get("summary").String(),
			Source:  it.Get("source").String(),
			URL:     it.Get("url").String(),
			Sentiment: Sentiment{
				Label:      it.Get("sentiment.label").String(),
				Score:      it.Get("sentiment.score").Float(),
				Confidence: it.Get("sentiment.confidence").Float(),
			},
		}
		if ts, ok := ParsePublished(it.Get("published_at").String()); ok {
			item.PublishedAt = ts
		}
		for _, p := range it.Get("related_pairs").Array() {
			item.RelatedPairs = append(item.RelatedPairs, p.String())
		}
		out = append(out, item)
	}
	return out
}
