package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "crm"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultKafkaTopic = "crm.bookings"

	DefaultDirectoryTimeout = 5 * time.Second

	DefaultRateLimitRequests = 60
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	// Locks are held only across a single read-check-write sequence;
	// the TTL is a safety net for abandoned requests, not a lease.
	DefaultStaffLockTTL = 10 * time.Second

	DefaultDefaultPageSize = 50
	DefaultMaxPageSize     = 500
)
