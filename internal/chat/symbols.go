package chat

import (
	"regexp"
	"strings"
)

type symbolPattern struct {
	re     *regexp.Regexp
	symbol string
}

// SupportedSymbols are the pairs the prediction tool accepts.
var SupportedSymbols = []string{
	"BTCUSDT", "ETHUSDT", "SOLUSDT", "BNBUSDT", "ADAUSDT",
	"DOGEUSDT", "XRPUSDT", "DOTUSDT", "AVAXUSDT", "MATICUSDT",
}

var symbolPatterns = []symbolPattern{
	{regexp.MustCompile(`\bbitcoin\b|\bbtc\b`), "BTCUSDT"},
	{regexp.MustCompile(`\bethereum\b|\beth\b`), "ETHUSDT"},
	{regexp.MustCompile(`\bsolana\b|\bsol\b`), "SOLUSDT"},
	{regexp.MustCompile(`\bbinance coin\b|\bbnb\b`), "BNBUSDT"},
	{regexp.MustCompile(`\bcardano\b|\bada\b`), "ADAUSDT"},
	{regexp.MustCompile(`\bdogecoin\b|\bdoge\b`), "DOGEUSDT"},
	{regexp.MustCompile(`\bripple\b|\bxrp\b`), "XRPUSDT"},
	{regexp.MustCompile(`\bpolkadot\b|\bdot\b`), "DOTUSDT"},
	{regexp.MustCompile(`\bavalanche\b|\bavax\b`), "AVAXUSDT"},
	{regexp.MustCompile(`\bpolygon\b|\bmatic\b`), "MATICUSDT"},
}

var predictionWords = []string{
	"predict", "forecast", "trend", "price", "rise", "fall", "drop",
	"analyze", "analysis", "potential", "outlook",
}

// ExtractSymbol returns the first supported pair mentioned in message.
func ExtractSymbol(message string) (string, bool) {
	lower := strings.ToLower(message)
	for _, p := range symbolPatterns {
		if p.re.MatchString(lower) {
			return p.symbol, true
		}
	}
	return "", false
}

// IsPredictionRequest reports whether message asks about price direction.
func IsPredictionRequest(message string) bool {
	lower := strings.ToLower(message)
	for _, w := range predictionWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}
