package kafka

import "time"

// Config holds producer settings. Defaults favor durability over
// throughput: booking lifecycle events are low-volume.
type Config struct {
	Brokers      []string
	Topic        string
	RequireAcks  int // -1 all, 0 none, 1 leader
	MaxAttempts  int
	BatchTimeout time.Duration
	Async        bool
}

func (c *Config) applyDefaults() {
	if c.RequireAcks == 0 {
		c.RequireAcks = -1
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = 3
	}
	if c.BatchTimeout == 0 {
		c.BatchTimeout = 100 * time.Millisecond
	}
}
