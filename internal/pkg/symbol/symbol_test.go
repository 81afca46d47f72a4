package symbol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPair(t *testing.T) {
	assert.Equal(t, "BTCUSDT", Pair("btcusdt"))
	assert.Equal(t, "ETHUSDT", Pair("ETH/USDT"))
	assert.Equal(t, "SOLUSDT", Pair(" sol "))
	assert.Equal(t, "ETHBTC", Pair("eth/btc:btc"))
	assert.Equal(t, "", Pair(""))
}

func TestCanonicalAndValid(t *testing.T) {
	assert.Equal(t, "BTCUSDT", Canonical(" btcUSDT"))
	assert.True(t, IsValid("BTCUSDT"))
	assert.False(t, IsValid("BTC"))
}
