package market

import "time"

type Candle struct {
	OpenTime  int64   `json:"open_time"`
	CloseTime int64   `json:"close_time"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
	Trades    int64   `json:"trades"`
}

// OpenAt returns the candle open time in UTC.
func (c Candle) OpenAt() time.Time {
	return time.UnixMilli(c.OpenTime).UTC()
}

type Candles []Candle

func (cs Candles) Closes() []float64 {
	out := make([]float64, len(cs))
	for i, c := range cs {
		out[i] = c.Close
	}
	return out
}

// LastClose reports the final close, if any.
func (cs Candles) LastClose() (float64, bool) {
	if len(cs) == 0 {
		return 0, false
	}
	return cs[len(cs)-1].Close, true
}

// Tail returns at most the last n candles.
func (cs Candles) Tail(n int) Candles {
	if n <= 0 || len(cs) <= n {
		return cs
	}
	return cs[len(cs)-n:]
}
