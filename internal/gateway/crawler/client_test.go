package crawler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const latestBody = `{"success":true,"data":{"items":[
 {"id":17,"title":"BTC ETF inflows surge","summary":"Record day","source":"coindesk",
  "published_at":"2024-05-01T12:30:00Z","sentiment":{"label":"bullish","score":0.82,"confidence":0.9},
  "related_pairs":["BTCUSDT"]},
 {"id":"a-2","title":"Exchange hack","source":"theblock","published_at":"2024-05-01 08:00:00"}
]}}`

func newTestClient(url string) *Client {
	return New(Config{BaseURL: url + "/", MaxRetries: 2, RetryInterval: time.Millisecond})
}

func TestLatestParsesEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/news/latest/BTCUSDT", r.URL.Path)
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(latestBody))
	}))
	defer srv.Close()

	items, err := newTestClient(srv.URL).Latest(context.Background(), "BTCUSDT", 5)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "17", items[0].ID)
	assert.Equal(t, "bullish", items[0].Sentiment.Label)
	assert.InDelta(t, 0.82, items[0].Sentiment.Score, 1e-9)
	assert.Equal(t, []string{"BTCUSDT"}, items[0].RelatedPairs)
	assert.Equal(t, time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC), items[0].PublishedAt)
	assert.Equal(t, "a-2", items[1].ID)
	assert.Equal(t, time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC), items[1].PublishedAt)
}

func TestLatestWithoutSuccessIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"detail":"nope"}`))
	}))
	defer srv.Close()

	items, err := newTestClient(srv.URL).Latest(context.Background(), "BTCUSDT", 5)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestLatestRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(latestBody))
	}))
	defer srv.Close()

	items, err := newTestClient(srv.URL).Latest(context.Background(), "BTCUSDT", 5)
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestLatestClientErrorIsPermanent(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Latest(context.Background(), "BTCUSDT", 5)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestSearchBuildsQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/news/search", r.URL.Path)
		assert.Equal(t, "BTC etf", r.URL.Query().Get("keyword"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(latestBody))
	}))
	defer srv.Close()

	items, err := newTestClient(srv.URL).Search(context.Background(), "BTC etf", 1)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestParsePublished(t *testing.T) {
	_, ok := ParsePublished("yesterday")
	assert.False(t, ok)
	ts, ok := ParsePublished("2024-05-01T12:30:00.123456")
	require.True(t, ok)
	assert.Equal(t, 2024, ts.Year())
}
