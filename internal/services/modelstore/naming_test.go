package modelstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArtifactName(t *testing.T) {
	cases := map[string]string{
		"BTCUSDT": "btc_hourly_predictor",
		"ethusdt": "eth_hourly_predictor",
		"SOLBUSD": "sol_hourly_predictor",
		"BTCUSD":  "btc_hourly_predictor",
		"ETH":     "eth_hourly_predictor",
		" xrp ":   "xrp_hourly_predictor",
		"USDT":    "usdt_hourly_predictor",
	}
	for symbol, want := range cases {
		got, err := ArtifactName(symbol)
		require.NoError(t, err, symbol)
		assert.Equal(t, want, got, symbol)
	}
}

func TestArtifactNameRejectsPaths(t *testing.T) {
	for _, symbol := range []string{"", "../etc", "btc/usdt", "btc usdt"} {
		_, err := ArtifactName(symbol)
		assert.ErrorIs(t, err, ErrInvalidSymbol, symbol)
	}
}

func TestCheckArtifactNames(t *testing.T) {
	require.NoError(t, CheckArtifactNames([]string{"BTCUSDT", "ETHUSDT", "SOLUSDC"}))

	err := CheckArtifactNames([]string{"BTCUSDT", "ETHUSDT", "BTCBUSD"})
	require.ErrorIs(t, err, ErrNameCollision)
	assert.Contains(t, err.Error(), "btc_hourly_predictor")

	assert.ErrorIs(t, CheckArtifactNames([]string{"BTC/USDT"}), ErrInvalidSymbol)
}
