package market

import (
	"fmt"
	"math"

	talib "github.com/markcheno/go-talib"
)

const (
	rsiPeriod = 14
	smaPeriod = 20
	emaPeriod = 9
)

// Indicators holds the latest values of the prompt indicator set. A zero value
// with its ok flag false means not enough candles.
type Indicators struct {
	RSI, SMA, EMA          float64
	HasRSI, HasSMA, HasEMA bool
}

func ComputeIndicators(cs Candles) Indicators {
	closes := cs.Closes()
	var out Indicators
	if len(closes) > rsiPeriod {
		out.RSI, out.HasRSI = lastFinite(talib.Rsi(closes, rsiPeriod))
	}
	if len(closes) >= smaPeriod {
		out.SMA, out.HasSMA = lastFinite(talib.Sma(closes, smaPeriod))
	}
	if len(closes) >= emaPeriod {
		out.EMA, out.HasEMA = lastFinite(talib.Ema(closes, emaPeriod))
	}
	return out
}

// Line renders "RSI14=.. SMA20=.. EMA9=.." skipping absent values.
func (in Indicators) Line() string {
	line := ""
	add := func(label string, v float64, ok bool) {
		if !ok {
			return
		}
		if line != "" {
			line += " "
		}
		line += fmt.Sprintf("%s=%.2f", label, v)
	}
	add(fmt.Sprintf("RSI%d", rsiPeriod), in.RSI, in.HasRSI)
	add(fmt.Sprintf("SMA%d", smaPeriod), in.SMA, in.HasSMA)
	add(fmt.Sprintf("EMA%d", emaPeriod), in.EMA, in.HasEMA)
	if line == "" {
		return "insufficient candles for indicators"
	}
	return line
}

func lastFinite(series []float64) (float64, bool) {
	if len(series) == 0 {
		return 0, false
	}
	v := series[len(series)-1]
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
