package config

import "time"

const (
	// How far back to look for canceled receipts
	DefaultLookbackDays = 30

	// The provider returns at most this many receipts per page; only one page is read
	MaxListLimit = 100

	DefaultBaseURL = "https://api.yookassa.ru/v3"

	DefaultRequestTimeout = 10 * time.Second

	// Provider pacing and GET retries
	DefaultRequestsPerSecond = 5
	DefaultMaxRetries        = 2
	RetryBaseDelay           = 30 * time.Millisecond
	RetryMaxDelay            = 5 * time.Second

	// Redis lookup cache entries outlive a single run only briefly
	LookupCacheTTL = 15 * time.Minute

	// Standardized date format for the created_at filter
	DateTimeFormat = "2006-01-02T15:04:05.000Z"
)
