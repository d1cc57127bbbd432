package config

import (
	"fmt"
	"log/slog"
	"os"
	internalErrors "receipt-resender/internal/errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

type Config struct {
	ShopID       string `yaml:"-"`
	SecretKey    string `yaml:"-"`
	DefaultEmail string `yaml:"default_email"`

	BaseURL           string        `yaml:"base_url"`
	RequestTimeout    time.Duration `yaml:"request_timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	MaxRetries        int           `yaml:"max_retries"`

	LookbackDays int `yaml:"lookback_days"`
	ListLimit    int `yaml:"list_limit"`

	PlanWorkers   int  `yaml:"plan_workers"`
	SubmitWorkers int  `yaml:"submit_workers"`
	StrictAmounts bool `yaml:"strict_amounts"`

	RedisAddr string `yaml:"redis_addr"`
}

func Default() Config {
	return Config{
		BaseURL:           DefaultBaseURL,
		RequestTimeout:    DefaultRequestTimeout,
		RequestsPerSecond: DefaultRequestsPerSecond,
		MaxRetries:        DefaultMaxRetries,
		LookbackDays:      DefaultLookbackDays,
		ListLimit:         MaxListLimit,
		PlanWorkers:       1,
		SubmitWorkers:     1,
	}
}

// Load reads an optional .env file, an optional YAML tuning file and the
// environment, in that order of increasing precedence. Credentials only come
// from the environment.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env file", "error", err)
	}

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.ShopID = strings.TrimSpace(os.Getenv("YOOKASSA_SHOP_ID"))
	cfg.SecretKey = strings.TrimSpace(os.Getenv("YOOKASSA_API_KEY"))
	if v := strings.TrimSpace(os.Getenv("DEFAULT_RECEIPT_EMAIL")); v != "" {
		cfg.DefaultEmail = v
	}
	if v := strings.TrimSpace(os.Getenv("YOOKASSA_BASE_URL")); v != "" {
		cfg.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("REDIS_ADDR")); v != "" {
		cfg.RedisAddr = v
	}

	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.ShopID == "" || c.SecretKey == "" {
		return internalErrors.ErrMissingCredentials
	}
	return nil
}

func (c *Config) normalize() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.LookbackDays <= 0 {
		c.LookbackDays = DefaultLookbackDays
	}
	c.ListLimit = ClampListLimit(c.ListLimit)
	if c.PlanWorkers < 1 {
		c.PlanWorkers = 1
	}
	if c.SubmitWorkers < 1 {
		c.SubmitWorkers = 1
	}
}

// ClampListLimit keeps a requested page size within what the provider accepts.
func ClampListLimit(limit int) int {
	if limit <= 0 || limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}

// Window returns the start of the trailing lookback window ending at now.
func (c Config) Window(now time.Time) time.Time {
	return now.UTC().AddDate(0, 0, -c.LookbackDays)
}
