package prediction

import (
	"context"
	"time"

	"cryptopredict/internal/config"
	"cryptopredict/internal/logger"
	symbolpkg "cryptopredict/internal/pkg/symbol"
)

// Resolution is the poll envelope.
type Resolution struct {
	Success       bool    `json:"success"`
	HasNewData    bool    `json:"has_new_data"`
	Prediction    *Record `json:"prediction"`
	CacheHit      bool    `json:"cache_hit"`
	NextPollAfter int     `json:"next_poll_after"`
}

// Regenerator produces and persists a new record for symbol.
type Regenerator interface {
	Regenerate(ctx context.Context, symbol string) (Record, error)
}

// Controller decides per request whether to serve the stored prediction or to
// regenerate it. Each call resolves in a single round and regenerates at most
// once; clients poll again after NextPollAfter seconds.
type Controller struct {
	store        Store
	regen        Regenerator
	refresh      time.Duration
	minPoll      int
	degradedPoll int
	now          func() time.Time
}

type ControllerOption func(*Controller)

func WithControllerClock(now func() time.Time) ControllerOption {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

func NewController(store Store, regen Regenerator, cfg config.PredictionConfig, opts ...ControllerOption) *Controller {
	c := &Controller{
		store:        store,
		regen:        regen,
		refresh:      cfg.RefreshInterval(),
		minPoll:      cfg.MinPollSeconds,
		degradedPoll: cfg.DegradedPollSeconds,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Resolve never fails: store and regeneration errors end in the stale record
// or the degraded envelope.
func (c *Controller) Resolve(ctx context.Context, symbol string, clientTs *time.Time) Resolution {
	symbol = symbolpkg.Canonical(symbol)
	latest, err := c.store.GetLatest(ctx, symbol)
	if err != nil {
		logger.Warnf("[poll] %s lookup failed, treating as missing: %v", symbol, err)
		latest = nil
	}

	if latest != nil && c.now().Sub(latest.CreatedAt) <= c.refresh {
		return c.serve(latest, clientTs, false)
	}

	if latest == nil {
		logger.Infof("[poll] %s no prediction stored, regenerating", symbol)
	} else {
		logger.Infof("[poll] %s prediction is %s old, regenerating", symbol, c.now().Sub(latest.CreatedAt).Truncate(time.Second))
	}
	fresh, err := c.regen.Regenerate(ctx, symbol)
	if err == nil {
		return c.serve(&fresh, clientTs, true)
	}

	if latest != nil {
		logger.Warnf("[poll] %s regeneration failed, serving stale prediction: %v", symbol, err)
		return Resolution{
			Success:       true,
			HasNewData:    false,
			Prediction:    latest,
			CacheHit:      true,
			NextPollAfter: c.nextPoll(latest),
		}
	}
	logger.Warnf("[poll] %s regeneration failed with nothing stored: %v", symbol, err)
	return c.Degraded()
}

// Degraded is the envelope returned when there is nothing to serve.
func (c *Controller) Degraded() Resolution {
	return Resolution{Success: false, NextPollAfter: c.degradedPoll}
}

func (c *Controller) serve(rec *Record, clientTs *time.Time, regenerated bool) Resolution {
	res := Resolution{Success: true, Prediction: rec, NextPollAfter: c.nextPoll(rec)}
	if clientTs != nil && !rec.CreatedAt.After(*clientTs) {
		res.HasNewData = false
		res.CacheHit = true
		return res
	}
	res.HasNewData = true
	res.CacheHit = !regenerated
	return res
}

func (c *Controller) nextPoll(rec *Record) int {
	age := c.now().Sub(rec.CreatedAt)
	remaining := int((c.refresh - age) / time.Second)
	if remaining < c.minPoll {
		return c.minPoll
	}
	return remaining
}
