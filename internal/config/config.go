// Package config provides configuration for the link store binaries via
// command-line flags with environment variable overrides.
package config

import (
	"flag"
	"os"
	"strconv"
	"time"
)

// Options holds the configuration values for the application.
type Options struct {
	// DatabaseDSN is the Postgres connection string. Empty selects the
	// in-memory store.
	DatabaseDSN string

	// LogLevel is the zap log level name.
	LogLevel string

	// BloomName is the logical name the bloom snapshot is stored under.
	BloomName string

	// BloomCapacity sizes the filter for the expected number of codes.
	BloomCapacity uint

	// BloomFPRate is the filter's target false positive rate.
	BloomFPRate float64

	// FlushInterval is how often the snapshot worker persists a
	// snapshot when codes trickle in below the threshold.
	FlushInterval time.Duration

	// FlushThreshold is the pending-code count that forces an immediate
	// snapshot write.
	FlushThreshold int
}

// options holds the current configuration values.
var options = &Options{}

// init initializes command-line flags and sets default values.
func init() {
	flag.StringVar(&options.DatabaseDSN, "d", "", "db address")
	flag.StringVar(&options.LogLevel, "l", "info", "log level")
	flag.StringVar(&options.BloomName, "n", "codes", "bloom snapshot name")
	flag.UintVar(&options.BloomCapacity, "c", 100000, "bloom filter capacity")
	flag.Float64Var(&options.BloomFPRate, "r", 0.01, "bloom false positive rate")
	flag.DurationVar(&options.FlushInterval, "i", 10*time.Second, "snapshot flush interval")
	flag.IntVar(&options.FlushThreshold, "t", 25, "snapshot flush threshold")
}

// Parse parses the command-line flags and environment variables and
// returns the resulting configuration.
func Parse() *Options {
	flag.Parse()
	applyEnv(options)
	return options
}

// applyEnv overrides flag values with environment variables when set.
func applyEnv(o *Options) {
	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		o.DatabaseDSN = dsn
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		o.LogLevel = level
	}

	if name := os.Getenv("BLOOM_NAME"); name != "" {
		o.BloomName = name
	}

	if capacity := os.Getenv("BLOOM_CAPACITY"); capacity != "" {
		if n, err := strconv.ParseUint(capacity, 10, 32); err == nil {
			o.BloomCapacity = uint(n)
		}
	}

	if rate := os.Getenv("BLOOM_FP_RATE"); rate != "" {
		if f, err := strconv.ParseFloat(rate, 64); err == nil {
			o.BloomFPRate = f
		}
	}

	if interval := os.Getenv("FLUSH_INTERVAL"); interval != "" {
		if d, err := time.ParseDuration(interval); err == nil {
			o.FlushInterval = d
		}
	}

	if threshold := os.Getenv("FLUSH_THRESHOLD"); threshold != "" {
		if n, err := strconv.Atoi(threshold); err == nil {
			o.FlushThreshold = n
		}
	}
}
