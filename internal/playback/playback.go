package playback

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/jorabin/sounds/internal/audio"
	"github.com/jorabin/sounds/internal/cadence"
	"github.com/jorabin/sounds/internal/tone"
)

// Option configures a Playback.
type Option func(*Playback)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(p *Playback) {
		if c != nil {
			p.clock = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(p *Playback) {
		if l != nil {
			p.logger = l
		}
	}
}

type handleKey struct {
	tones   string
	nominal time.Duration
}

// Playback plays sections one at a time. It is not safe for concurrent use;
// a player drives it from a single goroutine.
type Playback struct {
	renderer audio.Renderer
	clock    Clock
	logger   *log.Logger

	handles map[handleKey]audio.Handle
}

// New creates a Playback that renders through r.
func New(r audio.Renderer, opts ...Option) *Playback {
	p := &Playback{
		renderer: r,
		clock:    realClock{},
		logger:   log.Default(),
		handles:  make(map[handleKey]audio.Handle),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PlaySection repeats the section's segments until its duration has elapsed.
// It reports whether the full duration was played; cancelling ctx stops it
// early with completed false and a nil error. Sections that fail Validate
// and renderer failures are returned as errors.
func (p *Playback) PlaySection(ctx context.Context, s *cadence.Section) (completed bool, err error) {
	if err := s.Validate(); err != nil {
		return false, err
	}
	target := time.Duration(s.Duration) * time.Millisecond
	start := p.clock.Now()

	for {
		remaining := target - p.clock.Now().Sub(start)
		if remaining <= 0 {
			break
		}
		ok, err := p.PlayOnce(ctx, remaining, s)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return ctx.Err() == nil, nil
}

// PlayOnce plays each segment once within budget. The on time of a segment
// without tones is silence. It returns false if ctx was cancelled before the
// pass finished.
func (p *Playback) PlayOnce(ctx context.Context, budget time.Duration, s *cadence.Section) (bool, error) {
	p.logger.Debug("playing segments", "section", s.Description, "budget", budget)

	for _, seg := range s.Segments {
		var on time.Duration
		if seg.On != 0 {
			nominal := time.Duration(seg.On) * time.Millisecond
			if seg.IsIndefinite() {
				nominal = time.Duration(s.Duration) * time.Millisecond
			}
			on = min(nominal, budget)
			if on <= 0 {
				return true, nil
			}
			if len(seg.Tones) > 0 {
				if err := p.sound(ctx, seg.Tones, nominal, on); err != nil {
					if ctx.Err() != nil {
						return false, nil
					}
					return false, err
				}
			} else if !p.sleep(ctx, on) {
				return false, nil
			}
		}

		if ctx.Err() != nil {
			return false, nil
		}

		budget -= on
		if seg.Off == 0 {
			continue
		}
		off := min(time.Duration(seg.Off)*time.Millisecond, budget)
		if off <= 0 {
			return true, nil
		}
		if !p.sleep(ctx, off) {
			return false, nil
		}
		budget -= off
	}
	return true, nil
}

// sleep waits d on the clock. It returns false if ctx ended first.
func (p *Playback) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-p.clock.After(d):
	case <-ctx.Done():
		return false
	}
	return ctx.Err() == nil
}

// sound renders tones, reusing an earlier handle for the same tones and
// nominal length, and plays them for d.
func (p *Playback) sound(ctx context.Context, tones tone.List, nominal, d time.Duration) error {
	key := handleKey{tones: tone.Key(tones), nominal: nominal}
	h, ok := p.handles[key]
	if !ok {
		var err error
		h, err = p.renderer.Render(tones, nominal)
		if err != nil {
			return fmt.Errorf("render %s: %w", tones, err)
		}
		p.handles[key] = h
	}

	err := p.renderer.Play(ctx, h, d)
	if stopErr := p.renderer.Stop(h); stopErr != nil && err == nil {
		err = stopErr
	}
	if err != nil {
		return fmt.Errorf("play %s: %w", tones, err)
	}
	return nil
}

// Forget drops all memoized render handles.
func (p *Playback) Forget() {
	clear(p.handles)
}
