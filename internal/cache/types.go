package cache

import (
	"errors"
	"time"
)

// Common errors for cache operations
var (
	// ErrItemTooLarge is returned when an item exceeds the cache capacity
	ErrItemTooLarge = errors.New("item too large for cache")

	// ErrClosed is returned by Put after Close
	ErrClosed = errors.New("cache is closed")
)

// Stats holds cache counters.
type Stats struct {
	Capacity  int64 // Maximum size on disk in bytes
	Size      int64 // Current size on disk in bytes
	Raw       int64 // Uncompressed size of all entries
	ItemCount int64

	Hits      int64
	Misses    int64
	Evictions int64
	HitRate   float64 // hits / (hits + misses)

	LastAccess time.Time
	LastEvict  time.Time
}

// Config holds disk cache settings.
type Config struct {
	Dir              string        // Directory for cache files
	MaxSize          int64         // Bytes on disk
	CompressionLevel int           // zstd level (1-22); 0 disables compression
	TTL              time.Duration // Entries older than this are pruned on open; 0 keeps everything
}

// DefaultConfig returns the default cache configuration for dir.
func DefaultConfig(dir string) Config {
	return Config{
		Dir:              dir,
		MaxSize:          64 * 1024 * 1024,
		CompressionLevel: 3,
		TTL:              30 * 24 * time.Hour,
	}
}
