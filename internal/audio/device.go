package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	"github.com/ebitengine/oto/v3"
	"github.com/gopxl/beep"
)

// Device plays a streamer for a bounded time.
type Device interface {
	// Format is the sample format the device expects.
	Format() beep.Format

	// Play streams s for d, returning early with ctx.Err() when ctx is done.
	Play(ctx context.Context, s beep.Streamer, d time.Duration) error

	// Close releases the device.
	Close() error
}

// DeviceConfig holds output settings. Fields can be overridden from the
// environment.
type DeviceConfig struct {
	SampleRate int           `env:"SOUNDS_SAMPLE_RATE" envDefault:"44100"`
	Channels   int           `env:"SOUNDS_CHANNELS"    envDefault:"2"`
	Buffer     time.Duration `env:"SOUNDS_BUFFER"      envDefault:"50ms"`
	Volume     float64       `env:"SOUNDS_VOLUME"      envDefault:"1.0"`
}

// DefaultDeviceConfig returns 16-bit stereo at 44.1 kHz.
func DefaultDeviceConfig() DeviceConfig {
	return DeviceConfig{
		SampleRate: 44100,
		Channels:   2,
		Buffer:     50 * time.Millisecond,
		Volume:     1.0,
	}
}

// DeviceConfigFromEnv reads the config from the environment.
func DeviceConfigFromEnv() (DeviceConfig, error) {
	return env.ParseAs[DeviceConfig]()
}

// Validate checks the config against what the device supports.
func (c DeviceConfig) Validate() error {
	// oto only supports these rates reliably
	if c.SampleRate != 44100 && c.SampleRate != 48000 {
		return fmt.Errorf("sample rate must be 44100 or 48000 Hz, got %d", c.SampleRate)
	}
	if c.Channels != 1 && c.Channels != 2 {
		return fmt.Errorf("channels must be 1 (mono) or 2 (stereo), got %d", c.Channels)
	}
	if c.Buffer <= 0 {
		return errors.New("buffer must be positive")
	}
	if c.Volume < 0.0 || c.Volume > 1.0 {
		return fmt.Errorf("volume must be between 0.0 and 1.0, got %f", c.Volume)
	}
	return nil
}

// Format returns the beep format matching the config.
func (c DeviceConfig) Format() beep.Format {
	return beep.Format{
		SampleRate:  beep.SampleRate(c.SampleRate),
		NumChannels: c.Channels,
		Precision:   2,
	}
}

// oto allows a single context per process.
var (
	otoOnce    sync.Once
	otoContext *oto.Context
	otoErr     error
	otoRate    int
	otoCh      int
)

// OtoDevice plays through the system audio output.
type OtoDevice struct {
	context *oto.Context
	config  DeviceConfig

	mu     sync.Mutex
	closed bool
}

// NewOtoDevice opens the system audio output. Only the first config used in
// a process takes effect; later calls with a different format fail.
func NewOtoDevice(config DeviceConfig) (*OtoDevice, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	otoOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   config.SampleRate,
			ChannelCount: config.Channels,
			Format:       oto.FormatSignedInt16LE,
			BufferSize:   config.Buffer,
		}
		var ready chan struct{}
		otoContext, ready, otoErr = oto.NewContext(op)
		if otoErr == nil {
			<-ready
		}
		otoRate, otoCh = config.SampleRate, config.Channels
	})
	if otoErr != nil {
		return nil, &DeviceError{Op: "open oto context", Cause: otoErr}
	}
	if otoRate != config.SampleRate || otoCh != config.Channels {
		return nil, &DeviceError{
			Op:    "open oto context",
			Cause: fmt.Errorf("already open at %d Hz, %d channels", otoRate, otoCh),
		}
	}

	log.Debug("audio device ready", "rate", config.SampleRate, "channels", config.Channels, "buffer", config.Buffer)
	return &OtoDevice{context: otoContext, config: config}, nil
}

// Format implements Device.
func (d *OtoDevice) Format() beep.Format {
	return d.config.Format()
}

// Play implements Device.
func (d *OtoDevice) Play(ctx context.Context, s beep.Streamer, dur time.Duration) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrClosed
	}
	d.mu.Unlock()

	format := d.Format()
	reader := &streamReader{
		streamer: beep.Take(format.SampleRate.N(dur), s),
		format:   format,
	}
	player := d.context.NewPlayer(reader)
	if player == nil {
		return &DeviceError{Op: "create oto player"}
	}
	player.SetVolume(d.config.Volume)
	player.Play()
	defer func() {
		player.Pause()
		if err := player.Close(); err != nil {
			log.Debug("closing oto player", "err", err)
		}
	}()

	timer := time.NewTimer(dur)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := player.Err(); err != nil {
		return &DeviceError{Op: "play", Cause: err}
	}
	return nil
}

// Close implements Device. The oto context itself lives for the process.
func (d *OtoDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

// streamReader encodes a streamer as signed little-endian PCM for oto.
type streamReader struct {
	streamer beep.Streamer
	format   beep.Format
	samples  [][2]float64
	pending  []byte
	done     bool
}

func (r *streamReader) Read(p []byte) (int, error) {
	if len(r.pending) == 0 {
		if r.done {
			return 0, io.EOF
		}
		r.fill(len(p))
	}
	n := copy(p, r.pending)
	r.pending = r.pending[n:]
	if n == 0 && r.done {
		return 0, io.EOF
	}
	return n, nil
}

func (r *streamReader) fill(want int) {
	width := r.format.Width()
	frames := want / width
	if frames < 1 {
		frames = 1
	}
	if cap(r.samples) < frames {
		r.samples = make([][2]float64, frames)
	}
	samples := r.samples[:frames]

	n, ok := r.streamer.Stream(samples)
	if !ok {
		r.done = true
	}
	buf := make([]byte, n*width)
	off := 0
	for i := 0; i < n; i++ {
		off += r.format.EncodeSigned(buf[off:], samples[i])
	}
	r.pending = buf[:off]
}

// NullDevice discards audio and only keeps time. Useful when no sound card
// is available.
type NullDevice struct {
	format beep.Format

	mu     sync.Mutex
	closed bool
	played time.Duration
}

// NewNullDevice returns a silent device using config's format.
func NewNullDevice(config DeviceConfig) *NullDevice {
	return &NullDevice{format: config.Format()}
}

// Format implements Device.
func (d *NullDevice) Format() beep.Format {
	return d.format
}

// Play implements Device.
func (d *NullDevice) Play(ctx context.Context, s beep.Streamer, dur time.Duration) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrClosed
	}
	d.mu.Unlock()

	start := time.Now()
	defer func() {
		d.mu.Lock()
		d.played += time.Since(start)
		d.mu.Unlock()
	}()

	timer := time.NewTimer(dur)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Played returns the total time spent playing.
func (d *NullDevice) Played() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.played
}

// Close implements Device.
func (d *NullDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

var (
	_ Device = (*OtoDevice)(nil)
	_ Device = (*NullDevice)(nil)
)
