package audio

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/gopxl/beep"

	"github.com/jorabin/sounds/internal/tone"
)

// DefaultPeriods is the number of periods of the lowest tone held in a clip.
const DefaultPeriods = 200

// Handle is a rendered clip ready to be played.
type Handle interface {
	Tones() tone.List
	Nominal() time.Duration
}

// Renderer turns tone sets into playable handles. Play blocks for about d,
// looping the clip when it is shorter, and returns early when ctx is done or
// the handle is stopped. Stop is idempotent.
type Renderer interface {
	Render(tones tone.List, nominal time.Duration) (Handle, error)
	Play(ctx context.Context, h Handle, d time.Duration) error
	Stop(h Handle) error
}

// ClipStore persists encoded clips between runs.
type ClipStore interface {
	Get(key string) ([]byte, bool)
	Put(key string, value []byte) error
}

// RendererOption configures a ToneRenderer.
type RendererOption func(*ToneRenderer)

// WithPeriods sets how many periods of the lowest tone a clip holds.
func WithPeriods(n int) RendererOption {
	return func(r *ToneRenderer) {
		if n > 0 {
			r.periods = n
		}
	}
}

// WithClipStore enables the persistent clip cache.
func WithClipStore(s ClipStore) RendererOption {
	return func(r *ToneRenderer) {
		r.store = s
	}
}

// WithLogger sets the logger used by the renderer.
func WithLogger(l *log.Logger) RendererOption {
	return func(r *ToneRenderer) {
		if l != nil {
			r.logger = l
		}
	}
}

// ToneRenderer synthesizes sine clips with beep and plays them on a Device.
type ToneRenderer struct {
	device  Device
	periods int
	store   ClipStore
	logger  *log.Logger
}

// clip is the Handle produced by ToneRenderer.
type clip struct {
	tones   tone.List
	nominal time.Duration
	buf     *beep.Buffer

	mu     sync.Mutex
	cancel context.CancelFunc
}

func (c *clip) Tones() tone.List       { return c.tones }
func (c *clip) Nominal() time.Duration { return c.nominal }

// NewToneRenderer creates a renderer that plays on device.
func NewToneRenderer(device Device, opts ...RendererOption) *ToneRenderer {
	r := &ToneRenderer{
		device:  device,
		periods: DefaultPeriods,
		logger:  log.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render synthesizes the mix of tones, or loads it from the clip store.
func (r *ToneRenderer) Render(tones tone.List, nominal time.Duration) (Handle, error) {
	if len(tones) == 0 {
		return nil, fmt.Errorf("%w: no tones", ErrRender)
	}
	format := r.device.Format()
	key := r.storeKey(tones, format)

	if r.store != nil {
		if pcm, ok := r.store.Get(key); ok {
			buf, err := decodePCM(format, pcm)
			if err == nil {
				r.logger.Debug("clip loaded", "tones", tones, "size", humanize.Bytes(uint64(len(pcm))))
				return &clip{tones: tones.Clone(), nominal: nominal, buf: buf}, nil
			}
			r.logger.Warn("discarding stored clip", "tones", tones, "err", err)
		}
	}

	buf, err := synthesize(tones, format, r.periods)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("clip rendered", "tones", tones, "frames", buf.Len(), "length", format.SampleRate.D(buf.Len()))

	if r.store != nil {
		pcm := encodePCM(buf)
		if err := r.store.Put(key, pcm); err != nil {
			r.logger.Warn("failed to store clip", "tones", tones, "err", err)
		}
	}
	return &clip{tones: tones.Clone(), nominal: nominal, buf: buf}, nil
}

// Play loops the clip on the device for d.
func (r *ToneRenderer) Play(ctx context.Context, h Handle, d time.Duration) error {
	c, ok := h.(*clip)
	if !ok {
		return ErrInvalidHandle
	}
	if d <= 0 {
		return nil
	}

	playCtx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()
	defer r.Stop(c) //nolint:errcheck

	s := beep.Loop(-1, c.buf.Streamer(0, c.buf.Len()))
	err := r.device.Play(playCtx, s, d)
	if err != nil && errors.Is(err, context.Canceled) {
		// stopped through the handle or the caller
		return ctx.Err()
	}
	return err
}

// Stop ends playback of h if it is playing.
func (r *ToneRenderer) Stop(h Handle) error {
	c, ok := h.(*clip)
	if !ok {
		return ErrInvalidHandle
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	return nil
}

// Close releases the device.
func (r *ToneRenderer) Close() error {
	return r.device.Close()
}

func (r *ToneRenderer) storeKey(tones tone.List, format beep.Format) string {
	return fmt.Sprintf("%s/%d/%d", tone.Key(tones), r.periods, format.SampleRate)
}

var _ Renderer = (*ToneRenderer)(nil)
