package market

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

var intervalSeconds = map[string]int64{
	"1m":  60,
	"5m":  300,
	"15m": 900,
	"30m": 1800,
	"1h":  3600,
	"4h":  14400,
	"1d":  86400,
	"1w":  604800,
}

// IntervalSeconds returns the candle width of a supported interval.
func IntervalSeconds(interval string) (int64, error) {
	sec, ok := intervalSeconds[strings.ToLower(strings.TrimSpace(interval))]
	if !ok {
		return 0, fmt.Errorf("unsupported interval %q, supported: %s", interval, strings.Join(SupportedIntervals(), ", "))
	}
	return sec, nil
}

func IntervalDuration(interval string) (time.Duration, error) {
	sec, err := IntervalSeconds(interval)
	if err != nil {
		return 0, err
	}
	return time.Duration(sec) * time.Second, nil
}

// SupportedIntervals lists the intervals from shortest to longest.
func SupportedIntervals() []string {
	out := make([]string, 0, len(intervalSeconds))
	for k := range intervalSeconds {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return intervalSeconds[out[i]] < intervalSeconds[out[j]] })
	return out
}
