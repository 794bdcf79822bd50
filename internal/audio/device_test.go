package audio

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/gopxl/beep"
)

// TestDeviceConfig tests the device configuration validation.
func TestDeviceConfig(t *testing.T) {
	tests := []struct {
		name      string
		config    DeviceConfig
		expectErr bool
	}{
		{
			name:   "valid config 44100Hz",
			config: DeviceConfig{SampleRate: 44100, Channels: 2, Buffer: 50 * time.Millisecond, Volume: 1},
		},
		{
			name:   "valid config 48000Hz mono",
			config: DeviceConfig{SampleRate: 48000, Channels: 1, Buffer: 100 * time.Millisecond, Volume: 0.5},
		},
		{
			name:      "invalid sample rate",
			config:    DeviceConfig{SampleRate: 22050, Channels: 2, Buffer: 50 * time.Millisecond, Volume: 1},
			expectErr: true,
		},
		{
			name:      "invalid channels",
			config:    DeviceConfig{SampleRate: 44100, Channels: 3, Buffer: 50 * time.Millisecond, Volume: 1},
			expectErr: true,
		},
		{
			name:      "invalid buffer",
			config:    DeviceConfig{SampleRate: 44100, Channels: 2, Volume: 1},
			expectErr: true,
		},
		{
			name:      "invalid volume",
			config:    DeviceConfig{SampleRate: 44100, Channels: 2, Buffer: 50 * time.Millisecond, Volume: 1.5},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.expectErr && err == nil {
				t.Errorf("Validate() expected error but got none")
			}
			if !tt.expectErr && err != nil {
				t.Errorf("Validate() unexpected error: %v", err)
			}
		})
	}
}

func TestDefaultDeviceConfig(t *testing.T) {
	config := DefaultDeviceConfig()
	if err := config.Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}

	f := config.Format()
	if f.SampleRate != 44100 || f.NumChannels != 2 || f.Precision != 2 {
		t.Errorf("unexpected format %+v", f)
	}
	if f.Width() != 4 {
		t.Errorf("expected 4 bytes per frame, got %d", f.Width())
	}
}

func TestDeviceConfigFromEnv(t *testing.T) {
	t.Setenv("SOUNDS_SAMPLE_RATE", "48000")
	t.Setenv("SOUNDS_VOLUME", "0.25")

	config, err := DeviceConfigFromEnv()
	if err != nil {
		t.Fatalf("DeviceConfigFromEnv: %v", err)
	}
	if config.SampleRate != 48000 {
		t.Errorf("expected 48000, got %d", config.SampleRate)
	}
	if config.Volume != 0.25 {
		t.Errorf("expected volume 0.25, got %v", config.Volume)
	}
	if config.Channels != 2 || config.Buffer != 50*time.Millisecond {
		t.Errorf("defaults not applied: %+v", config)
	}
}

func TestNullDevice_Play(t *testing.T) {
	dev := NewNullDevice(DefaultDeviceConfig())

	start := time.Now()
	if err := dev.Play(context.Background(), newOscillator(440, 44100), 50*time.Millisecond); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("Play returned after %v, expected at least 50ms", elapsed)
	}
	if dev.Played() < 50*time.Millisecond {
		t.Errorf("expected Played() >= 50ms, got %v", dev.Played())
	}
}

func TestNullDevice_Cancel(t *testing.T) {
	dev := NewNullDevice(DefaultDeviceConfig())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := dev.Play(ctx, newOscillator(440, 44100), 5*time.Second)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("cancel took %v", elapsed)
	}
}

func TestNullDevice_Closed(t *testing.T) {
	dev := NewNullDevice(DefaultDeviceConfig())
	dev.Close()

	if err := dev.Play(context.Background(), newOscillator(440, 44100), time.Millisecond); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestStreamReader(t *testing.T) {
	format := DefaultDeviceConfig().Format()
	reader := &streamReader{
		streamer: beep.Take(1000, newOscillator(441, format.SampleRate)),
		format:   format,
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(data) != 1000*format.Width() {
		t.Errorf("expected %d bytes, got %d", 1000*format.Width(), len(data))
	}
}

func TestDeviceError(t *testing.T) {
	cause := errors.New("no sound card")
	err := &DeviceError{Op: "open", Cause: cause}

	if !errors.Is(err, ErrDevice) {
		t.Error("DeviceError should match ErrDevice")
	}
	if !errors.Is(err, cause) {
		t.Error("DeviceError should match its cause")
	}
	if err.Error() != "open: no sound card" {
		t.Errorf("unexpected message %q", err.Error())
	}
}
