package playback

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jorabin/sounds/internal/audio"
	"github.com/jorabin/sounds/internal/cadence"
	"github.com/jorabin/sounds/internal/tone"
)

// fakeClock advances only when something sleeps on it or plays through the
// mock renderer, so playback runs instantly and deterministically.
type fakeClock struct {
	mu    sync.Mutex
	now   time.Time
	slept []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(0, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	c.slept = append(c.slept, d)
	ch := make(chan time.Time, 1)
	ch <- c.now
	return ch
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *fakeClock) sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.slept...)
}

func newTestPlayback(t *testing.T) (*Playback, *audio.MockRenderer, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	r := audio.NewMockRenderer(audio.MockCallbacks{
		OnPlay: func(_ tone.List, d time.Duration) { clock.advance(d) },
	})
	return New(r, WithClock(clock)), r, clock
}

func section(t *testing.T, text string) *cadence.Section {
	t.Helper()
	script, err := cadence.Parse(text, text)
	if err != nil {
		t.Fatalf("Parse(%q): %v", text, err)
	}
	return script.Sections[0]
}

func durations(plays []audio.PlayCall) []time.Duration {
	out := make([]time.Duration, len(plays))
	for i, p := range plays {
		out[i] = p.Duration
	}
	return out
}

func equalDurations(a, b []time.Duration) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func ms(v ...int) []time.Duration {
	out := make([]time.Duration, len(v))
	for i, n := range v {
		out[i] = time.Duration(n) * time.Millisecond
	}
	return out
}

func TestPlaySection(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		plays  []time.Duration
		sleeps []time.Duration
	}{
		{
			name:   "whole repeats",
			text:   "12(2/4)",
			plays:  ms(2000, 2000),
			sleeps: ms(4000, 4000),
		},
		{
			name:   "last pass truncated in the off time",
			text:   "10(2/4)",
			plays:  ms(2000, 2000),
			sleeps: ms(4000, 2000),
		},
		{
			name:   "last pass truncated in the on time",
			text:   "7(2/4)",
			plays:  ms(2000, 1000),
			sleeps: ms(4000),
		},
		{
			name:   "indefinite tone plays the whole section",
			text:   "440@-10;10(*/0/1)",
			plays:  ms(10000),
			sleeps: nil,
		},
		{
			name:   "silent segment between tones",
			text:   "440@-10;3(1/0/1,0/1/0)",
			plays:  ms(1000, 1000),
			sleeps: ms(1000),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, r, clock := newTestPlayback(t)
			s := section(t, tt.text)

			completed, err := p.PlaySection(context.Background(), s)
			if err != nil {
				t.Fatalf("PlaySection: %v", err)
			}
			if !completed {
				t.Error("expected section to complete")
			}

			if got := durations(r.Plays()); !equalDurations(got, tt.plays) {
				t.Errorf("plays = %v, want %v", got, tt.plays)
			}
			if got := clock.sleeps(); !equalDurations(got, tt.sleeps) {
				t.Errorf("sleeps = %v, want %v", got, tt.sleeps)
			}

			if elapsed := clock.Now().Sub(time.Unix(0, 0)); elapsed != time.Duration(s.Duration)*time.Millisecond {
				t.Errorf("played for %v, want %dms", elapsed, s.Duration)
			}
		})
	}
}

func TestPlaySection_RenderMemoized(t *testing.T) {
	p, r, _ := newTestPlayback(t)

	s := section(t, "10(.2/.2,.2/.2,.2/.2,1/4)")
	if _, err := p.PlaySection(context.Background(), s); err != nil {
		t.Fatalf("PlaySection: %v", err)
	}

	// two distinct (tones, nominal) keys: 200ms and 1000ms ringer bursts
	if renders := r.Renders(); len(renders) != 2 {
		t.Errorf("expected 2 renders, got %d: %v", len(renders), renders)
	}
	if plays := r.Plays(); len(plays) < 4 {
		t.Errorf("expected at least 4 plays, got %d", len(plays))
	}

	p.Forget()
	if _, err := p.PlaySection(context.Background(), s); err != nil {
		t.Fatalf("PlaySection: %v", err)
	}
	if renders := r.Renders(); len(renders) != 4 {
		t.Errorf("expected renders to repeat after Forget, got %d", len(renders))
	}
}

func TestPlaySection_NearlyEqualTonesRenderSeparately(t *testing.T) {
	p, r, _ := newTestPlayback(t)

	a := tone.List{tone.MustNew(350, 0.5)}
	b := tone.List{tone.MustNew(350.0000001, 0.5)}
	s, err := cadence.NewSection("near", 2000,
		cadence.Segment{Tones: a, On: 500},
		cadence.Segment{Tones: b, On: 500},
	)
	if err != nil {
		t.Fatalf("NewSection: %v", err)
	}
	if _, err := p.PlaySection(context.Background(), s); err != nil {
		t.Fatalf("PlaySection: %v", err)
	}
	if renders := r.Renders(); len(renders) != 2 {
		t.Errorf("expected 2 renders, got %d", len(renders))
	}
}

func TestPlaySection_Cancel(t *testing.T) {
	// real clock: the off period is long, cancellation must cut it short
	r := audio.NewMockRenderer(audio.MockCallbacks{})
	p := New(r)
	s := section(t, "60(.01/30)")

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	completed, err := p.PlaySection(ctx, s)
	if err != nil {
		t.Fatalf("PlaySection: %v", err)
	}
	if completed {
		t.Error("cancelled section must not report completion")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("cancellation took %v", elapsed)
	}
}

func TestPlaySection_CancelDuringTone(t *testing.T) {
	r := audio.NewMockRenderer(audio.MockCallbacks{})
	r.SetDelayFactor(1)
	p := New(r)
	s := section(t, "440@-10;60(*/0/1)")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	completed, err := p.PlaySection(ctx, s)
	if err != nil {
		t.Fatalf("cancellation is not an error: %v", err)
	}
	if completed {
		t.Error("expected completed false")
	}
}

func TestPlaySection_AlreadyCancelled(t *testing.T) {
	p, r, _ := newTestPlayback(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	completed, err := p.PlaySection(ctx, section(t, "10(2/4)"))
	if err != nil || completed {
		t.Errorf("PlaySection = %v, %v; want false, nil", completed, err)
	}
	if n := len(r.Plays()); n > 1 {
		t.Errorf("expected at most one play, got %d", n)
	}
}

func TestPlaySection_RendererError(t *testing.T) {
	p, r, _ := newTestPlayback(t)
	r.SetRenderError(audio.ErrSimulated)

	completed, err := p.PlaySection(context.Background(), section(t, "10(2/4)"))
	if completed {
		t.Error("expected completed false")
	}
	if !errors.Is(err, audio.ErrSimulated) {
		t.Errorf("expected simulated error, got %v", err)
	}

	r.SetRenderError(nil)
	r.SetPlayError(audio.ErrSimulated)
	if _, err := p.PlaySection(context.Background(), section(t, "10(2/4)")); !errors.Is(err, audio.ErrSimulated) {
		t.Errorf("expected simulated play error, got %v", err)
	}
}

func TestPlaySection_RejectsUnplayable(t *testing.T) {
	tests := []struct {
		name    string
		section *cadence.Section
	}{
		{"no segments", &cadence.Section{Description: "empty", Duration: 200}},
		{"zero length segments", &cadence.Section{Description: "zero", Duration: 200, Segments: []cadence.Segment{{}, {}}}},
		{"longer than duration", &cadence.Section{
			Description: "long",
			Duration:    1000,
			Segments:    []cadence.Segment{{Tones: cadence.RingerTones, On: 5000}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, r, clock := newTestPlayback(t)

			completed, err := p.PlaySection(context.Background(), tt.section)
			if !errors.Is(err, cadence.ErrUnplayable) {
				t.Errorf("PlaySection error = %v, want ErrUnplayable", err)
			}
			if completed {
				t.Error("unplayable section must not report completion")
			}
			if n := len(r.Plays()); n != 0 {
				t.Errorf("plays = %d, want 0", n)
			}
			if slept := clock.sleeps(); len(slept) != 0 {
				t.Errorf("sleeps = %v, want none", slept)
			}
		})
	}
}

func TestPlaySection_ToneLessOnTimeIsSilence(t *testing.T) {
	p, r, clock := newTestPlayback(t)
	s := &cadence.Section{
		Description: "silent timing",
		Duration:    3000,
		Segments:    []cadence.Segment{{On: 500, Off: 500}},
	}

	completed, err := p.PlaySection(context.Background(), s)
	if err != nil || !completed {
		t.Fatalf("PlaySection = %v, %v; want true, nil", completed, err)
	}
	if n := len(r.Plays()); n != 0 {
		t.Errorf("plays = %d, want 0", n)
	}
	if got, want := clock.sleeps(), ms(500, 500, 500, 500, 500, 500); !equalDurations(got, want) {
		t.Errorf("sleeps = %v, want %v", got, want)
	}
}

func TestPlaySection_IndefiniteRendersSectionLength(t *testing.T) {
	p, r, _ := newTestPlayback(t)

	if _, err := p.PlaySection(context.Background(), section(t, "440@-10;10(*/0/1)")); err != nil {
		t.Fatalf("PlaySection: %v", err)
	}
	renders := r.Renders()
	if len(renders) != 1 {
		t.Fatalf("renders = %d, want 1", len(renders))
	}
	if got := renders[0].Nominal; got != 10*time.Second {
		t.Errorf("nominal = %v, want 10s", got)
	}
}
