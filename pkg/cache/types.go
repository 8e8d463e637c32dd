package cache

import "time"

const (
	// DefaultMemoEntries bounds the number of memoized extractions
	DefaultMemoEntries = 1024

	// DefaultMemoTTL is how long a memoized extraction stays valid
	DefaultMemoTTL = 10 * time.Minute
)

// Stats represents cache statistics
type Stats struct {
	Hits      int64
	Misses    int64
	HitRate   float64
	ItemCount int64
}

// Config holds extraction memo configuration
type Config struct {
	MaxEntries int           // Max memoized files (default: 1024)
	TTL        time.Duration // TTL for entries (default: 10 minutes)
}

// DefaultConfig returns default memo configuration
func DefaultConfig() *Config {
	return &Config{
		MaxEntries: DefaultMemoEntries,
		TTL:        DefaultMemoTTL,
	}
}
