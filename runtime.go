package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/charmbracelet/log"

	"github.com/jorabin/sounds/internal/audio"
	"github.com/jorabin/sounds/internal/cache"
	"github.com/jorabin/sounds/internal/player"
	"github.com/jorabin/sounds/internal/queue"
)

// session is an open player and everything it owns.
type session struct {
	player   *player.Player
	renderer *audio.ToneRenderer
	store    *cache.DiskCache
}

// openSession builds the device, clip cache, renderer and player described
// by s and starts the player.
func openSession(s settings) (*session, error) {
	devCfg, err := audio.DeviceConfigFromEnv()
	if err != nil {
		return nil, fmt.Errorf("error parsing device config: %w", err)
	}
	// the config file applies unless the environment overrides it
	if _, ok := os.LookupEnv("SOUNDS_SAMPLE_RATE"); !ok {
		devCfg.SampleRate = s.SampleRate
	}
	if err := devCfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid device config: %w", err)
	}

	var device audio.Device
	switch s.Device {
	case "null":
		device = audio.NewNullDevice(devCfg)
	default:
		if device, err = audio.NewOtoDevice(devCfg); err != nil {
			return nil, fmt.Errorf("unable to open audio output: %w", err)
		}
	}

	sess := &session{}
	opts := []audio.RendererOption{audio.WithPeriods(s.Periods)}
	if !s.CacheDisabled {
		store, err := cache.NewDiskCache(cache.Config{
			Dir:              s.CacheDir,
			MaxSize:          s.CacheMaxSize,
			CompressionLevel: s.CacheCompression,
			TTL:              s.CacheTTL,
		})
		if err != nil {
			// rendering still works without the cache
			log.Warn("clip cache unavailable", "dir", s.CacheDir, "error", err)
		} else {
			sess.store = store
			opts = append(opts, audio.WithClipStore(store))
		}
	}
	sess.renderer = audio.NewToneRenderer(device, opts...)

	sess.player = player.New(sess.renderer,
		player.WithQueueSize(s.QueueSize),
		player.WithGracePeriod(s.GracePeriod),
	)
	if err := sess.player.Open(); err != nil {
		_ = sess.close(s)
		return nil, err
	}
	return sess, nil
}

// close stops the player and releases the device and cache.
func (sess *session) close(s settings) error {
	var errs []error
	if sess.player != nil && !sess.player.Shutdown(s.ShutdownTimeout) {
		errs = append(errs, errors.New("player did not stop in time"))
	}
	if sess.renderer != nil {
		if err := sess.renderer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if sess.store != nil {
		if err := sess.store.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// withSession runs fn against an open session and closes it afterwards.
// An interrupt cancels fn's context and stops playback.
func withSession(ctx context.Context, fn func(ctx context.Context, sess *session) error) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	sess, err := openSession(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sess.close(cfg); cerr != nil && err == nil {
			err = cerr
		}
	}()

	err = fn(ctx, sess)
	if ctx.Err() != nil {
		sess.player.CancelCurrent()
		return nil
	}
	return err
}

// waitAll waits for the last of items, which finishes after the others.
func waitAll(ctx context.Context, p *player.Player, items []*queue.Item) error {
	if len(items) == 0 {
		return nil
	}
	return p.Wait(ctx, items[len(items)-1])
}
