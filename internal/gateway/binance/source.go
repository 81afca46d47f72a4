package binance

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cryptopredict/internal/logger"
	"cryptopredict/internal/market"
	symbolpkg "cryptopredict/internal/pkg/symbol"

	gobinance "github.com/adshao/go-binance/v2"
)

const maxKlineLimit = 1000

// Source implements market.Source on the public spot klines endpoint.
type Source struct {
	cfg    Config
	client *gobinance.Client
}

func New(cfg Config) *Source {
	final := cfg.withDefaults()
	client := gobinance.NewClient("", "")
	client.BaseURL = final.RESTBaseURL
	client.HTTPClient = &http.Client{Timeout: final.HTTPTimeout}
	return &Source{cfg: final, client: client}
}

func (s *Source) FetchRecent(ctx context.Context, symbol, interval string, limit int) (market.Candles, error) {
	svc, err := s.klines(symbol, interval, limit)
	if err != nil {
		return nil, err
	}
	return s.do(ctx, svc, symbol, interval)
}

func (s *Source) FetchRange(ctx context.Context, symbol, interval string, start, end time.Time, limit int) (market.Candles, error) {
	if !end.After(start) {
		return nil, nil
	}
	svc, err := s.klines(symbol, interval, limit)
	if err != nil {
		return nil, err
	}
	svc = svc.StartTime(start.UnixMilli()).EndTime(end.UnixMilli())
	return s.do(ctx, svc, symbol, interval)
}

func (s *Source) klines(symbol, interval string, limit int) (*gobinance.KlinesService, error) {
	pair := symbolpkg.Pair(symbol)
	if pair == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	interval = strings.ToLower(strings.TrimSpace(interval))
	if _, err := market.IntervalSeconds(interval); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 100
	}
	if limit > maxKlineLimit {
		limit = maxKlineLimit
	}
	return s.client.NewKlinesService().Symbol(pair).Interval(interval).Limit(limit), nil
}

func (s *Source) do(ctx context.Context, svc *gobinance.KlinesService, symbol, interval string) (market.Candles, error) {
	kls, err := svc.Do(ctx)
	if err != nil {
		logger.Warnf("[binance] klines %s %s failed: %v", symbol, interval, err)
		return nil, fmt.Errorf("fetch klines %s %s: %w", symbol, interval, err)
	}
	out := make(market.Candles, 0, len(kls))
	for _, kl := range kls {
		if kl == nil {
			continue
		}
		out = append(out, market.Candle{
			OpenTime:  kl.OpenTime,
			CloseTime: kl.CloseTime,
			Open:      parseFloat(kl.Open),
			High:      parseFloat(kl.High),
			Low:       parseFloat(kl.Low),
			Close:     parseFloat(kl.Close),
			Volume:    parseFloat(kl.Volume),
			Trades:    kl.TradeNum,
		})
	}
	logger.Debugf("[binance] klines %s %s -> %d candles", symbol, interval, len(out))
	return out, nil
}

func parseFloat(v string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(v), 64)
	return f
}
