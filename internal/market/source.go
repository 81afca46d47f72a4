package market

import (
	"context"
	"time"
)

// Source fetches historical candles for a trading pair such as "BTCUSDT".
type Source interface {
	FetchRange(ctx context.Context, symbol, interval string, start, end time.Time, limit int) (Candles, error)

	FetchRecent(ctx context.Context, symbol, interval string, limit int) (Candles, error)
}
