package cache

import (
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/klauspost/compress/zstd"
)

const indexFile = "clips.index"

// DiskCache stores encoded clips as files under one directory. The index of
// entries is kept in memory and written back on Close.
type DiskCache struct {
	dir      string
	capacity int64
	size     int64

	encoder *zstd.Encoder
	decoder *zstd.Decoder

	index map[string]*entry

	mu     sync.Mutex
	stats  Stats
	closed bool
}

// entry is one cached clip. Exported fields are persisted in the index.
type entry struct {
	Key        string
	File       string
	Size       int64 // bytes on disk
	Raw        int64 // bytes before compression
	Compressed bool
	Created    time.Time
	LastAccess time.Time
	Hits       int64
}

// NewDiskCache opens or creates the cache in cfg.Dir.
func NewDiskCache(cfg Config) (*DiskCache, error) {
	if cfg.Dir == "" {
		return nil, errors.New("cache directory is not set")
	}
	if cfg.MaxSize <= 0 {
		return nil, fmt.Errorf("cache size must be positive, got %d", cfg.MaxSize)
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	dc := &DiskCache{
		dir:      cfg.Dir,
		capacity: cfg.MaxSize,
		index:    make(map[string]*entry),
	}

	if cfg.CompressionLevel > 0 {
		var err error
		dc.encoder, err = zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(cfg.CompressionLevel)))
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
		}
	}
	// entries written with compression stay readable when it is turned off
	var err error
	dc.decoder, err = zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}

	if err := dc.loadIndex(); err != nil {
		log.Warn("ignoring unreadable cache index", "dir", cfg.Dir, "err", err)
		dc.index = make(map[string]*entry)
	}
	for _, e := range dc.index {
		dc.size += e.Size
	}
	if cfg.TTL > 0 {
		if n := dc.removeOlderThan(time.Now().Add(-cfg.TTL)); n > 0 {
			log.Debug("pruned expired clips", "count", n)
		}
	}
	for dc.size > dc.capacity && len(dc.index) > 0 {
		dc.evictLRU()
	}

	log.Debug("clip cache opened", "dir", cfg.Dir, "entries", len(dc.index),
		"size", humanize.Bytes(uint64(dc.size)), "capacity", humanize.Bytes(uint64(dc.capacity)))
	return dc, nil
}

// Get returns the clip stored under key.
func (dc *DiskCache) Get(key string) ([]byte, bool) {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	e, ok := dc.index[key]
	if !ok {
		dc.stats.Misses++
		return nil, false
	}

	data, err := os.ReadFile(e.File)
	if err == nil && e.Compressed {
		data, err = dc.decoder.DecodeAll(data, nil)
	}
	if err != nil {
		log.Debug("dropping unreadable clip", "key", key, "err", err)
		dc.remove(key, e)
		dc.stats.Misses++
		return nil, false
	}

	now := time.Now()
	e.LastAccess = now
	e.Hits++
	dc.stats.Hits++
	dc.stats.LastAccess = now
	return data, true
}

// Put stores value under key, evicting least recently used clips to make
// room.
func (dc *DiskCache) Put(key string, value []byte) error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	if dc.closed {
		return ErrClosed
	}

	data, compressed := value, false
	if dc.encoder != nil {
		if packed := dc.encoder.EncodeAll(value, nil); len(packed) < len(value) {
			data, compressed = packed, true
		}
	}

	size := int64(len(data))
	if size > dc.capacity {
		return ErrItemTooLarge
	}
	if old, ok := dc.index[key]; ok {
		dc.remove(key, old)
	}
	for dc.size+size > dc.capacity && len(dc.index) > 0 {
		dc.evictLRU()
	}

	path := dc.path(key)
	if err := writeFile(path, data); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	now := time.Now()
	dc.index[key] = &entry{
		Key:        key,
		File:       path,
		Size:       size,
		Raw:        int64(len(value)),
		Compressed: compressed,
		Created:    now,
		LastAccess: now,
	}
	dc.size += size

	log.Debug("clip cached", "key", key, "raw", humanize.Bytes(uint64(len(value))), "stored", humanize.Bytes(uint64(size)))
	return nil
}

// Delete removes key from the cache.
func (dc *DiskCache) Delete(key string) error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	if e, ok := dc.index[key]; ok {
		dc.remove(key, e)
	}
	return nil
}

// Clear removes every clip.
func (dc *DiskCache) Clear() error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	for key, e := range dc.index {
		dc.remove(key, e)
	}
	return dc.saveIndex()
}

// Contains reports whether key is cached without touching its access time.
func (dc *DiskCache) Contains(key string) bool {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	_, ok := dc.index[key]
	return ok
}

// Size returns the bytes used on disk.
func (dc *DiskCache) Size() int64 {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	return dc.size
}

// Stats returns a snapshot of the cache counters.
func (dc *DiskCache) Stats() Stats {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	s := dc.stats
	s.Capacity = dc.capacity
	s.Size = dc.size
	s.ItemCount = int64(len(dc.index))
	for _, e := range dc.index {
		s.Raw += e.Raw
	}
	if s.Hits+s.Misses > 0 {
		s.HitRate = float64(s.Hits) / float64(s.Hits+s.Misses)
	}
	return s
}

// RemoveOlderThan drops clips created before cutoff and returns how many.
func (dc *DiskCache) RemoveOlderThan(cutoff time.Time) int {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	return dc.removeOlderThan(cutoff)
}

// Close writes the index. The cache refuses new entries afterwards.
func (dc *DiskCache) Close() error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	if dc.closed {
		return nil
	}
	dc.closed = true
	if dc.encoder != nil {
		dc.encoder.Close()
	}
	defer dc.decoder.Close()
	return dc.saveIndex()
}

func (dc *DiskCache) removeOlderThan(cutoff time.Time) int {
	removed := 0
	for key, e := range dc.index {
		if e.Created.Before(cutoff) {
			dc.remove(key, e)
			removed++
		}
	}
	return removed
}

func (dc *DiskCache) evictLRU() {
	entries := make([]*entry, 0, len(dc.index))
	for _, e := range dc.index {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].LastAccess.Before(entries[j].LastAccess)
	})
	oldest := entries[0]
	dc.remove(oldest.Key, oldest)
	dc.stats.Evictions++
	dc.stats.LastEvict = time.Now()
}

func (dc *DiskCache) remove(key string, e *entry) {
	os.Remove(e.File) //nolint:errcheck
	delete(dc.index, key)
	dc.size -= e.Size
}

func (dc *DiskCache) path(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(dc.dir, hex.EncodeToString(sum[:16])+".clip")
}

// writeFile writes through a temp file and renames it into place.
func writeFile(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		os.Remove(tmp) //nolint:errcheck
		return err
	}
	return os.Rename(tmp, path)
}

func (dc *DiskCache) loadIndex() error {
	f, err := os.Open(filepath.Join(dc.dir, indexFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	index := make(map[string]*entry)
	if err := gob.NewDecoder(f).Decode(&index); err != nil {
		return err
	}
	// drop entries whose files are gone
	for key, e := range index {
		if _, err := os.Stat(e.File); err != nil {
			delete(index, key)
		}
	}
	dc.index = index
	return nil
}

func (dc *DiskCache) saveIndex() error {
	path := filepath.Join(dc.dir, indexFile)
	tmp := path + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	err = gob.NewEncoder(f).Encode(dc.index)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmp) //nolint:errcheck
		return err
	}
	return os.Rename(tmp, path)
}
