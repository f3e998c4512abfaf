package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

const maxCoinsCeiling = 999_999_999

type CoinshopConfig struct {
	RunAddress     string          `env:"RUN_ADDRESS"`
	DatabaseURI    string          `env:"DATABASE_URI"`
	SessionSecret  string          `env:"SESSION_SECRET"`
	CoinRate       decimal.Decimal `env:"COIN_RATE"`
	MaxCoins       int64           `env:"MAX_COINS"`
	LookupDebounce time.Duration   `env:"LOOKUP_DEBOUNCE"`
	LookupLatency  time.Duration   `env:"LOOKUP_LATENCY"`
	PaymentLatency time.Duration   `env:"PAYMENT_LATENCY"`
	CountdownStart time.Duration   `env:"COUNTDOWN_START"`
	SessionTTL     time.Duration   `env:"SESSION_TTL"`
}

func LoadCoinshopConfig() (*CoinshopConfig, error) {
	return parse(os.Args[1:], os.LookupEnv)
}

func parse(args []string, lookupEnv func(string) (string, bool)) (*CoinshopConfig, error) {
	cfg := &CoinshopConfig{
		RunAddress:     "localhost:8080",
		MaxCoins:       999_999,
		LookupDebounce: 600 * time.Millisecond,
		LookupLatency:  time.Second,
		PaymentLatency: 1500 * time.Millisecond,
		CountdownStart: 5 * time.Minute,
		SessionTTL:     30 * time.Minute,
	}
	rate := "0.0195"

	fs := flag.NewFlagSet("coinshop", flag.ContinueOnError)
	fs.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "coinshop address")
	fs.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "database uri")
	fs.StringVar(&cfg.SessionSecret, "s", cfg.SessionSecret, "session token secret")
	fs.StringVar(&rate, "rate", rate, "price of one coin")
	fs.Int64Var(&cfg.MaxCoins, "max", cfg.MaxCoins, "largest custom amount")
	fs.DurationVar(&cfg.LookupDebounce, "debounce", cfg.LookupDebounce, "account search debounce")
	fs.DurationVar(&cfg.LookupLatency, "lookup-latency", cfg.LookupLatency, "account lookup latency")
	fs.DurationVar(&cfg.PaymentLatency, "payment-latency", cfg.PaymentLatency, "payment latency")
	fs.DurationVar(&cfg.CountdownStart, "countdown", cfg.CountdownStart, "processing countdown start")
	fs.DurationVar(&cfg.SessionTTL, "session-ttl", cfg.SessionTTL, "idle session expiry")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if envRunAddress, ok := lookupEnv("RUN_ADDRESS"); ok {
		cfg.RunAddress = envRunAddress
	}

	if envDatabaseURI, ok := lookupEnv("DATABASE_URI"); ok {
		cfg.DatabaseURI = envDatabaseURI
	}

	if envSessionSecret, ok := lookupEnv("SESSION_SECRET"); ok {
		cfg.SessionSecret = envSessionSecret
	}

	if envRate, ok := lookupEnv("COIN_RATE"); ok {
		rate = envRate
	}

	if envMax, ok := lookupEnv("MAX_COINS"); ok {
		n, err := strconv.ParseInt(envMax, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid MAX_COINS: %w", err)
		}
		cfg.MaxCoins = n
	}

	durations := []struct {
		env string
		dst *time.Duration
	}{
		{"LOOKUP_DEBOUNCE", &cfg.LookupDebounce},
		{"LOOKUP_LATENCY", &cfg.LookupLatency},
		{"PAYMENT_LATENCY", &cfg.PaymentLatency},
		{"COUNTDOWN_START", &cfg.CountdownStart},
		{"SESSION_TTL", &cfg.SessionTTL},
	}
	for _, d := range durations {
		v, ok := lookupEnv(d.env)
		if !ok {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", d.env, err)
		}
		*d.dst = parsed
	}

	r, err := decimal.NewFromString(rate)
	if err != nil {
		return nil, fmt.Errorf("invalid coin rate: %w", err)
	}
	cfg.CoinRate = r

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *CoinshopConfig) validate() error {
	if cfg.RunAddress == "" {
		return errors.New("run address is empty")
	}

	if cfg.SessionSecret == "" {
		return errors.New("session secret is empty")
	}

	if !cfg.CoinRate.IsPositive() {
		return errors.New("coin rate must be positive")
	}

	if cfg.MaxCoins < 1 || cfg.MaxCoins > maxCoinsCeiling {
		return fmt.Errorf("max coins must be between 1 and %d", maxCoinsCeiling)
	}

	for name, d := range map[string]time.Duration{
		"lookup debounce": cfg.LookupDebounce,
		"lookup latency":  cfg.LookupLatency,
		"payment latency": cfg.PaymentLatency,
		"countdown start": cfg.CountdownStart,
		"session ttl":     cfg.SessionTTL,
	} {
		if d < 0 {
			return fmt.Errorf("%s is negative", name)
		}
	}

	return nil
}
