package audio

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jorabin/sounds/internal/tone"
)

// MockRenderer implements Renderer for testing purposes.
// It records every call and simulates playback without producing sound.
type MockRenderer struct {
	mu sync.Mutex

	// Recorded calls
	renders []RenderCall
	plays   []PlayCall

	// Test callbacks
	callbacks MockCallbacks

	// Test configuration
	delayFactor float64 // 0 returns immediately, 1.0 is real time
	renderErr   error
	playErr     error
	panicOnPlay bool

	// Metrics for testing
	renderCount atomic.Int64
	playCount   atomic.Int64
	stopCount   atomic.Int64
}

// RenderCall is one recorded Render.
type RenderCall struct {
	Tones   tone.List
	Nominal time.Duration
}

// PlayCall is one recorded Play.
type PlayCall struct {
	Tones    tone.List
	Duration time.Duration
}

// MockCallbacks provides hooks for testing.
type MockCallbacks struct {
	OnRender func(tones tone.List, nominal time.Duration)
	OnPlay   func(tones tone.List, d time.Duration)
	OnStop   func()
}

type mockHandle struct {
	tones   tone.List
	nominal time.Duration
}

func (h *mockHandle) Tones() tone.List       { return h.tones }
func (h *mockHandle) Nominal() time.Duration { return h.nominal }

// NewMockRenderer creates a mock renderer whose Play returns immediately.
func NewMockRenderer(callbacks MockCallbacks) *MockRenderer {
	return &MockRenderer{callbacks: callbacks}
}

// Render implements Renderer.
func (m *MockRenderer) Render(tones tone.List, nominal time.Duration) (Handle, error) {
	m.mu.Lock()
	err := m.renderErr
	if err == nil {
		m.renders = append(m.renders, RenderCall{Tones: tones.Clone(), Nominal: nominal})
	}
	cb := m.callbacks.OnRender
	m.mu.Unlock()

	if err != nil {
		return nil, err
	}
	m.renderCount.Add(1)
	if cb != nil {
		cb(tones, nominal)
	}
	return &mockHandle{tones: tones.Clone(), nominal: nominal}, nil
}

// Play implements Renderer. It waits d scaled by the delay factor, or until
// ctx is done.
func (m *MockRenderer) Play(ctx context.Context, h Handle, d time.Duration) error {
	mh, ok := h.(*mockHandle)
	if !ok {
		return ErrInvalidHandle
	}

	m.mu.Lock()
	err := m.playErr
	shouldPanic := m.panicOnPlay
	wait := time.Duration(float64(d) * m.delayFactor)
	m.plays = append(m.plays, PlayCall{Tones: mh.tones, Duration: d})
	cb := m.callbacks.OnPlay
	m.mu.Unlock()

	m.playCount.Add(1)
	if shouldPanic {
		panic("simulated renderer panic")
	}
	if err != nil {
		return err
	}
	if cb != nil {
		cb(mh.tones, d)
	}

	if wait <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop implements Renderer.
func (m *MockRenderer) Stop(h Handle) error {
	if _, ok := h.(*mockHandle); !ok {
		return ErrInvalidHandle
	}
	m.stopCount.Add(1)
	if m.callbacks.OnStop != nil {
		m.callbacks.OnStop()
	}
	return nil
}

// Test helper methods

// SetDelayFactor sets how long Play blocks relative to its duration.
// 0 returns immediately, 1.0 is real time.
func (m *MockRenderer) SetDelayFactor(factor float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delayFactor = factor
}

// SetRenderError makes every Render fail with err. Nil clears it.
func (m *MockRenderer) SetRenderError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.renderErr = err
}

// SetPlayError makes every Play fail with err. Nil clears it.
func (m *MockRenderer) SetPlayError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playErr = err
}

// SetPanicOnPlay makes Play panic.
func (m *MockRenderer) SetPanicOnPlay(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.panicOnPlay = enabled
}

// Renders returns a copy of the recorded Render calls.
func (m *MockRenderer) Renders() []RenderCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]RenderCall(nil), m.renders...)
}

// Plays returns a copy of the recorded Play calls.
func (m *MockRenderer) Plays() []PlayCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]PlayCall(nil), m.plays...)
}

// GetMetrics returns call counts for testing.
func (m *MockRenderer) GetMetrics() MockRendererMetrics {
	return MockRendererMetrics{
		RenderCount: m.renderCount.Load(),
		PlayCount:   m.playCount.Load(),
		StopCount:   m.stopCount.Load(),
	}
}

// MockRendererMetrics contains call counts for testing.
type MockRendererMetrics struct {
	RenderCount int64
	PlayCount   int64
	StopCount   int64
}

// ErrSimulated is a convenience error for failure tests.
var ErrSimulated = errors.New("simulated renderer failure")

// Ensure MockRenderer implements Renderer interface
var _ Renderer = (*MockRenderer)(nil)
