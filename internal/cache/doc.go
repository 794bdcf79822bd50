// Package cache persists rendered tone clips on disk so they survive
// between runs. Entries are compressed with zstd.
package cache
