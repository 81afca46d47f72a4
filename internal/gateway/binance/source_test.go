package binance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const klinesBody = `[
 [1714521600000,"100.0","101.5","99.0","100.5","12.5",1714525199999,"1250.0",42,"6.0","600.0","0"],
 [1714525200000,"100.5","103.0","100.0","102.0","8.0",1714528799999,"816.0",30,"4.0","408.0","0"]
]`

func TestFetchRangeParsesKlines(t *testing.T) {
	var query map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/klines", r.URL.Path)
		query = map[string]string{
			"symbol":    r.URL.Query().Get("symbol"),
			"interval":  r.URL.Query().Get("interval"),
			"startTime": r.URL.Query().Get("startTime"),
			"limit":     r.URL.Query().Get("limit"),
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(klinesBody))
	}))
	defer srv.Close()

	src := New(Config{RESTBaseURL: srv.URL})
	start := time.UnixMilli(1714521600000)
	out, err := src.FetchRange(context.Background(), "btc", "1h", start, start.Add(2*time.Hour), 5000)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "BTCUSDT", query["symbol"])
	assert.Equal(t, "1h", query["interval"])
	assert.Equal(t, "1714521600000", query["startTime"])
	assert.Equal(t, "1000", query["limit"])
	assert.Equal(t, 102.0, out[1].Close)
	assert.Equal(t, int64(42), out[0].Trades)
}

func TestFetchRangeEmptyWindow(t *testing.T) {
	src := New(Config{RESTBaseURL: "http://127.0.0.1:1"})
	now := time.Now()
	out, err := src.FetchRange(context.Background(), "BTCUSDT", "1h", now, now, 10)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestFetchRecentRejectsInterval(t *testing.T) {
	src := New(Config{RESTBaseURL: "http://127.0.0.1:1"})
	_, err := src.FetchRecent(context.Background(), "BTCUSDT", "2h", 10)
	require.Error(t, err)
}

func TestFetchRecentUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":-1121,"msg":"Invalid symbol."}`))
	}))
	defer srv.Close()

	_, err := New(Config{RESTBaseURL: srv.URL}).FetchRecent(context.Background(), "NOPE", "1h", 10)
	require.Error(t, err)
}
