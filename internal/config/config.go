package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultUpdateRetries = 3
	DefaultCacheTTL      = 10 * time.Minute
	DefaultEventQueue    = "ledger_events"
	DefaultSolanaCluster = "mainnet-beta"
	DefaultRateLimit     = 10
	DefaultRateBurst     = 20
)

var envBindings = map[string]string{
	"database.host":     "DATABASE_HOST",
	"database.port":     "DATABASE_PORT",
	"database.user":     "DATABASE_USER",
	"database.password": "DATABASE_PASSWORD",
	"database.name":     "DATABASE_NAME",
	"database.ssl_mode": "DATABASE_SSL_MODE",

	"redis.host":     "REDIS_HOST",
	"redis.port":     "REDIS_PORT",
	"redis.password": "REDIS_PASSWORD",
	"redis.db":       "REDIS_DB",

	"jwt.secret_key": "JWT_SECRET_KEY",
	"server.port":    "PORT",

	"ledger.enforce_transitions": "LEDGER_ENFORCE_TRANSITIONS",
	"ledger.verify_references":   "LEDGER_VERIFY_REFERENCES",
	"ledger.update_retries":      "LEDGER_UPDATE_RETRIES",
	"ledger.cache_ttl":           "LEDGER_CACHE_TTL",
	"ledger.event_queue":         "LEDGER_EVENT_QUEUE",
	"ledger.receipt_base_url":    "LEDGER_RECEIPT_BASE_URL",
	"ledger.solana_cluster":      "LEDGER_SOLANA_CLUSTER",
	"ledger.rate_limit":          "LEDGER_RATE_LIMIT",
	"ledger.rate_burst":          "LEDGER_RATE_BURST",
}

// Init reads .env when present and lets environment variables override it
func Init() {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	BindEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Config file not found, using defaults: %v", err)
	}
}

func BindEnv() {
	for key, env := range envBindings {
		viper.BindEnv(key, env)
	}
}

type LedgerConfig struct {
	EnforceTransitions bool
	VerifyReferences   bool
	UpdateRetries      int
	CacheTTL           time.Duration
	EventQueue         string
	ReceiptBaseURL     string
	SolanaCluster      string
	// RateLimit is requests per second per client address
	RateLimit float64
	RateBurst int
}

// LoadLedgerConfig returns ledger settings with defaults
func LoadLedgerConfig() *LedgerConfig {
	viper.SetDefault("ledger.enforce_transitions", false)
	viper.SetDefault("ledger.verify_references", false)
	viper.SetDefault("ledger.update_retries", DefaultUpdateRetries)
	viper.SetDefault("ledger.cache_ttl", DefaultCacheTTL)
	viper.SetDefault("ledger.event_queue", DefaultEventQueue)
	viper.SetDefault("ledger.receipt_base_url", "http://localhost:8080/receipts")
	viper.SetDefault("ledger.solana_cluster", DefaultSolanaCluster)
	viper.SetDefault("ledger.rate_limit", DefaultRateLimit)
	viper.SetDefault("ledger.rate_burst", DefaultRateBurst)

	cfg := &LedgerConfig{
		EnforceTransitions: viper.GetBool("ledger.enforce_transitions"),
		VerifyReferences:   viper.GetBool("ledger.verify_references"),
		UpdateRetries:      viper.GetInt("ledger.update_retries"),
		CacheTTL:           viper.GetDuration("ledger.cache_ttl"),
		EventQueue:         viper.GetString("ledger.event_queue"),
		ReceiptBaseURL:     viper.GetString("ledger.receipt_base_url"),
		SolanaCluster:      viper.GetString("ledger.solana_cluster"),
		RateLimit:          viper.GetFloat64("ledger.rate_limit"),
		RateBurst:          viper.GetInt("ledger.rate_burst"),
	}

	if cfg.UpdateRetries < 1 {
		cfg.UpdateRetries = DefaultUpdateRetries
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = DefaultRateLimit
	}
	if cfg.RateBurst < 1 {
		cfg.RateBurst = DefaultRateBurst
	}
	return cfg
}

// ServerPort is the HTTP listen port
func ServerPort() string {
	viper.SetDefault("server.port", "8080")
	return viper.GetString("server.port")
}
