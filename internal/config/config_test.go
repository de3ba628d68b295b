package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestLoadLedgerConfig_Defaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	cfg := LoadLedgerConfig()

	assert.False(t, cfg.EnforceTransitions)
	assert.False(t, cfg.VerifyReferences)
	assert.Equal(t, DefaultUpdateRetries, cfg.UpdateRetries)
	assert.Equal(t, DefaultCacheTTL, cfg.CacheTTL)
	assert.Equal(t, "ledger_events", cfg.EventQueue)
	assert.Equal(t, "mainnet-beta", cfg.SolanaCluster)
	assert.Equal(t, float64(DefaultRateLimit), cfg.RateLimit)
	assert.Equal(t, DefaultRateBurst, cfg.RateBurst)
}

func TestLoadLedgerConfig_FromEnv(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	t.Setenv("LEDGER_ENFORCE_TRANSITIONS", "true")
	t.Setenv("LEDGER_VERIFY_REFERENCES", "true")
	t.Setenv("LEDGER_UPDATE_RETRIES", "5")
	t.Setenv("LEDGER_CACHE_TTL", "30s")
	t.Setenv("LEDGER_EVENT_QUEUE", "ledger_events_test")
	t.Setenv("LEDGER_SOLANA_CLUSTER", "devnet")
	t.Setenv("LEDGER_RATE_LIMIT", "2.5")
	t.Setenv("LEDGER_RATE_BURST", "4")
	BindEnv()

	cfg := LoadLedgerConfig()

	assert.True(t, cfg.EnforceTransitions)
	assert.True(t, cfg.VerifyReferences)
	assert.Equal(t, 5, cfg.UpdateRetries)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
	assert.Equal(t, "ledger_events_test", cfg.EventQueue)
	assert.Equal(t, "devnet", cfg.SolanaCluster)
	assert.Equal(t, 2.5, cfg.RateLimit)
	assert.Equal(t, 4, cfg.RateBurst)
}

func TestLoadLedgerConfig_ClampsInvalidValues(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	t.Setenv("LEDGER_UPDATE_RETRIES", "0")
	t.Setenv("LEDGER_CACHE_TTL", "-1m")
	BindEnv()

	cfg := LoadLedgerConfig()

	assert.Equal(t, DefaultUpdateRetries, cfg.UpdateRetries)
	assert.Equal(t, DefaultCacheTTL, cfg.CacheTTL)
}

func TestServerPort(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	assert.Equal(t, "8080", ServerPort())

	t.Setenv("PORT", "9090")
	BindEnv()
	assert.Equal(t, "9090", ServerPort())
}
