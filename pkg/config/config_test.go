package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PriceCast/internal/services/modelstore"
)

func TestParseAppliesDefaults(t *testing.T) {
	c, err := Parse([]byte("environment: test\n"))
	require.NoError(t, err)

	assert.Equal(t, 24, c.Forecast.WindowSize)
	assert.Equal(t, 6, c.Forecast.DefaultHorizon)
	assert.Equal(t, 168, c.Forecast.MaxHorizon)
	assert.Equal(t, 0.03, c.Forecast.BandWidth)
	assert.Equal(t, 0.02, c.Forecast.FallbackSpread)
	assert.EqualValues(t, 2, c.Forecast.DisplayPrecision)
	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT"}, c.Forecast.Symbols)
	assert.Equal(t, "file", c.ModelStore.Backend)
	assert.Equal(t, "pkdata", c.ModelStore.ArtifactDir)
	assert.Equal(t, 5*time.Minute, c.ModelStore.CacheTTL)
	assert.Equal(t, 72, c.BarStore.FetchHours)
	assert.Equal(t, "info", c.Logger.Level)
	assert.Equal(t, 8080, c.Server.Port)
}

func TestParseOverridesAndNormalizes(t *testing.T) {
	c, err := Parse([]byte(`
environment: prod
forecast:
  window_size: 12
  symbols: [" solusdt ", BTCUSDT]
model_store:
  backend: redis
`))
	require.NoError(t, err)
	assert.Equal(t, 12, c.Forecast.WindowSize)
	assert.Equal(t, []string{"SOLUSDT", "BTCUSDT"}, c.Forecast.Symbols)
	assert.Equal(t, "redis", c.ModelStore.Backend)
	assert.True(t, c.Forecast.IsSupported("solusdt"))
	assert.False(t, c.Forecast.IsSupported("DOGEUSDT"))
}

func TestParseRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"bad backend":        "model_store:\n  backend: s3\n",
		"horizon over max":   "forecast:\n  default_horizon: 200\n",
		"negative band":      "forecast:\n  band_width: -0.1\n",
		"kafka no brokers":   "kafka:\n  enabled: true\n  brokers: []\n",
		"fetch below window": "bar_store:\n  fetch_hours: 10\n",
		"bad symbol":         "forecast:\n  symbols: [\"BTC/USDT\"]\n",
		"artifact collision": "forecast:\n  symbols: [BTCUSDT, btcbusd]\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(body))
			assert.Error(t, err)
		})
	}
}

func TestValidateRejectsSharedArtifactNames(t *testing.T) {
	c := Default()
	err := c.ApplyEnv(func(k string) string {
		if k == "SYMBOLS" {
			return "BTCUSDT,ETHUSDT,BTCBUSD"
		}
		return ""
	})
	require.ErrorIs(t, err, modelstore.ErrNameCollision)
}

func TestApplyEnv(t *testing.T) {
	c := Default()
	env := map[string]string{
		"SYMBOLS":       "ethusdt, xrpusdt",
		"ARTIFACT_DIR":  "/var/lib/models",
		"BAR_STORE":     "clickhouse",
		"KAFKA_BROKERS": "k1:9092,k2:9092",
		"FETCH_HOURS":   "96",
	}
	require.NoError(t, c.ApplyEnv(func(k string) string { return env[k] }))

	assert.Equal(t, []string{"ETHUSDT", "XRPUSDT"}, c.Forecast.Symbols)
	assert.Equal(t, "/var/lib/models", c.ModelStore.ArtifactDir)
	assert.Equal(t, "clickhouse", c.BarStore.Type)
	assert.Equal(t, 96, c.BarStore.FetchHours)
	assert.True(t, c.Kafka.Enabled)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.Kafka.Brokers)
}

func TestLoadExampleFile(t *testing.T) {
	path := filepath.Join("..", "..", "config", "config.yaml")
	if _, err := os.Stat(path); err != nil {
		t.Skip("example config not present")
	}
	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "development", c.Environment)
}
