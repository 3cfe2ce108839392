package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOverlaysDefaults(t *testing.T) {
	c, err := Parse([]byte(`
environment: production
market:
  vol_ttl: 10m
  symbols:
    SP500: "^GSPC"
kafka:
  enabled: true
  brokers: ["k1:9092"]
`))
	require.NoError(t, err)
	assert.Equal(t, "production", c.Environment)
	assert.Equal(t, 10*time.Minute, c.Market.VolatilityTTL)
	assert.Equal(t, 120*time.Second, c.Market.PriceTTL)
	assert.Equal(t, "^GSPC", c.Market.Symbols["SP500"])
	assert.Equal(t, "karion.analyses", c.Kafka.AnalysesTopic)
	assert.Equal(t, 8001, c.Server.Port)
}

func TestValidate(t *testing.T) {
	cases := map[string]string{
		"unknown provider":      "market:\n  provider: bloomberg\n",
		"clickhouse needs host": "market:\n  provider: clickhouse\n",
		"kafka needs brokers":   "kafka:\n  enabled: true\n",
		"redis needs addr":      "redis:\n  enabled: true\n",
		"bad port":              "server:\n  port: 70000\n",
		"non-positive ttl":      "market:\n  price_ttl: 0s\n",
		"ratelimit needs burst": "ratelimit:\n  enabled: true\n  burst: 0\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"PORT":           "9000",
		"KAFKA_BROKERS":  "a:1,b:2",
		"REDIS_ADDR":     "redis:6379",
		"ANALYTICS_SEED": "42",
	}
	c := Default()
	require.NoError(t, c.ApplyEnv(func(k string) string { return env[k] }))
	assert.Equal(t, 9000, c.Server.Port)
	assert.True(t, c.Kafka.Enabled)
	assert.Equal(t, []string{"a:1", "b:2"}, c.Kafka.Brokers)
	assert.True(t, c.Redis.Enabled)
	assert.Equal(t, int64(42), c.Analytics.Seed)

	assert.Error(t, Default().ApplyEnv(func(k string) string {
		if k == "PORT" {
			return "eighty"
		}
		return ""
	}))
}

func TestLoadWithEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("environment: test\n"), 0o600))
	t.Setenv("MARKET_PROVIDER", "clickhouse")
	t.Setenv("CLICKHOUSE_HOST", "ch")

	c, err := LoadWithEnv(path)
	require.NoError(t, err)
	assert.Equal(t, "clickhouse", c.Market.Provider)
	assert.Equal(t, "ch", c.ClickHouse.Host)
}
