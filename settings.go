package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/viper"

	"github.com/jorabin/sounds/internal/audio"
	"github.com/jorabin/sounds/internal/queue"
)

// envKeyReplacer maps config keys such as player.queue_size to
// SOUNDS_PLAYER_QUEUE_SIZE.
var envKeyReplacer = strings.NewReplacer(".", "_")

// settings is the validated configuration shared by all commands.
type settings struct {
	Debug bool

	QueueSize       int
	GracePeriod     time.Duration
	ShutdownTimeout time.Duration

	Device     string
	SampleRate int
	Periods    int

	CacheDisabled    bool
	CacheDir         string
	CacheMaxSize     int64 // bytes
	CacheCompression int
	CacheTTL         time.Duration
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("debug", false)

	v.SetDefault("player.queue_size", queue.DefaultCapacity)
	v.SetDefault("player.grace_period", "2s")
	v.SetDefault("player.shutdown_timeout", "3s")

	v.SetDefault("audio.device", "oto")
	v.SetDefault("audio.sample_rate", 44100)
	v.SetDefault("audio.periods", audio.DefaultPeriods)

	v.SetDefault("cache.disabled", false)
	v.SetDefault("cache.dir", "")
	v.SetDefault("cache.max_size", 64)
	v.SetDefault("cache.compression_level", 3)
	v.SetDefault("cache.ttl", "720h")
}

// readConfigFile replaces whatever v found on its search path with the
// file at path.
func readConfigFile(v *viper.Viper, path string) error {
	path = expandPath(path)
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("unable to read config %s: %w", path, err)
	}
	log.Debug("Using configuration file", "path", path)
	return nil
}

// loadSettings reads and validates the configuration in v.
func loadSettings(v *viper.Viper) (settings, error) {
	s := settings{
		Debug:            v.GetBool("debug"),
		QueueSize:        v.GetInt("player.queue_size"),
		GracePeriod:      v.GetDuration("player.grace_period"),
		ShutdownTimeout:  v.GetDuration("player.shutdown_timeout"),
		Device:           strings.ToLower(v.GetString("audio.device")),
		SampleRate:       v.GetInt("audio.sample_rate"),
		Periods:          v.GetInt("audio.periods"),
		CacheDisabled:    v.GetBool("cache.disabled"),
		CacheDir:         v.GetString("cache.dir"),
		CacheMaxSize:     v.GetInt64("cache.max_size") << 20,
		CacheCompression: v.GetInt("cache.compression_level"),
		CacheTTL:         v.GetDuration("cache.ttl"),
	}

	if s.QueueSize < 1 || s.QueueSize > 1024 {
		return s, fmt.Errorf("player.queue_size must be between 1 and 1024, got %d", s.QueueSize)
	}
	if s.GracePeriod < 0 {
		return s, fmt.Errorf("player.grace_period must not be negative, got %v", s.GracePeriod)
	}
	if s.ShutdownTimeout <= 0 {
		return s, fmt.Errorf("player.shutdown_timeout must be positive, got %v", s.ShutdownTimeout)
	}
	if s.Device != "oto" && s.Device != "null" {
		return s, fmt.Errorf("audio.device must be oto or null, got %q", s.Device)
	}
	if s.SampleRate != 44100 && s.SampleRate != 48000 {
		return s, fmt.Errorf("audio.sample_rate must be 44100 or 48000, got %d", s.SampleRate)
	}
	if s.Periods < 1 || s.Periods > 10000 {
		return s, fmt.Errorf("audio.periods must be between 1 and 10000, got %d", s.Periods)
	}
	if s.CacheMaxSize < 1<<20 {
		return s, fmt.Errorf("cache.max_size must be at least 1 MB, got %d MB", s.CacheMaxSize>>20)
	}
	if s.CacheCompression < 0 || s.CacheCompression > 22 {
		return s, fmt.Errorf("cache.compression_level must be between 0 and 22, got %d", s.CacheCompression)
	}

	if s.CacheDir == "" {
		dir, err := defaultCacheDir()
		if err != nil {
			return s, err
		}
		s.CacheDir = dir
	}
	s.CacheDir = expandPath(s.CacheDir)
	return s, nil
}

func defaultCacheDir() (string, error) {
	dir, err := gap.NewScope(gap.User, "sounds").CacheDir()
	if err != nil {
		return "", fmt.Errorf("unable to find cache directory: %w", err)
	}
	return filepath.Join(dir, "clips"), nil
}
