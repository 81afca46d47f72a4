package symbol

import (
	"strings"
)

const defaultQuote = "USDT"

type Symbol struct {
	Base  string
	Quote string
}

func (s Symbol) Binance() string {
	if s.Base == "" || s.Quote == "" {
		return ""
	}
	return s.Base + s.Quote
}

// Parse accepts "BTC/USDT", "BTCUSDT" or "BTC/USDT:USDT".
func Parse(s string) Symbol {
	s = Canonical(s)
	if s == "" {
		return Symbol{}
	}
	if idx := strings.Index(s, ":"); idx >= 0 {
		s = s[:idx]
	}
	if parts := strings.SplitN(s, "/", 2); len(parts) == 2 {
		return Symbol{
			Base:  strings.TrimSpace(parts[0]),
			Quote: strings.TrimSpace(parts[1]),
		}
	}
	quoteCurrencies := []string{"USDT", "BUSD", "USDC", "TUSD", "FDUSD", "BTC", "ETH", "BNB"}
	for _, quote := range quoteCurrencies {
		if strings.HasSuffix(s, quote) && len(s) > len(quote) {
			return Symbol{
				Base:  s[:len(s)-len(quote)],
				Quote: quote,
			}
		}
	}
	return Symbol{}
}

// Canonical is the storage and cache key form: trimmed and uppercased.
func Canonical(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Pair returns the exchange trading pair, quoting bare tickers in USDT.
func Pair(s string) string {
	if p := Parse(s).Binance(); p != "" {
		return p
	}
	c := Canonical(s)
	if c == "" {
		return ""
	}
	return c + defaultQuote
}

func IsValid(s string) bool {
	sym := Parse(s)
	return sym.Base != "" && sym.Quote != ""
}
