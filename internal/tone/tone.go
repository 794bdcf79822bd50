package tone

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

const (
	// LowAmplitude is silence.
	LowAmplitude = 0.0

	// HighAmplitude is the loudest representable amplitude.
	HighAmplitude = 1.0

	// MaxDecibels is the loudest dB value accepted. Anything quieter down to
	// negative infinity is valid.
	MaxDecibels = 0.0

	// MaxFrequency is the exclusive upper bound on tone frequency in Hz.
	MaxFrequency = 40000.0
)

var (
	// ErrFrequencyRange is returned for frequencies outside (0, 40000) Hz
	ErrFrequencyRange = errors.New("frequency is out of range")

	// ErrAmplitudeRange is returned for amplitudes outside [0, 1]
	ErrAmplitudeRange = errors.New("amplitude is out of range")

	// ErrDecibelRange is returned for dB values above 0 or NaN
	ErrDecibelRange = errors.New("decibels out of range")
)

// Tone is a frequency in Hz played at an amplitude in [0, 1].
// The zero value is not a valid tone; use New or FromDecibels.
type Tone struct {
	Frequency float64
	Amplitude float64
}

// New creates a tone, validating both components.
func New(frequency, amplitude float64) (Tone, error) {
	if !(frequency > 0 && frequency < MaxFrequency) {
		return Tone{}, fmt.Errorf("%w: %v Hz", ErrFrequencyRange, frequency)
	}
	if !ValidAmplitude(amplitude) {
		return Tone{}, fmt.Errorf("%w: %f not in %.1f to %.1f", ErrAmplitudeRange, amplitude, LowAmplitude, HighAmplitude)
	}
	return Tone{Frequency: frequency, Amplitude: amplitude}, nil
}

// FromDecibels creates a tone whose amplitude is given as a dBm value.
func FromDecibels(frequency, dB float64) (Tone, error) {
	amp, err := AmplitudeFromDecibels(dB)
	if err != nil {
		return Tone{}, err
	}
	return New(frequency, amp)
}

// MustNew is like New but panics on invalid input. It is meant for
// package-level tables.
func MustNew(frequency, amplitude float64) Tone {
	t, err := New(frequency, amplitude)
	if err != nil {
		panic(err)
	}
	return t
}

// MustFromDecibels is like FromDecibels but panics on invalid input.
func MustFromDecibels(frequency, dB float64) Tone {
	t, err := FromDecibels(frequency, dB)
	if err != nil {
		panic(err)
	}
	return t
}

// ValidAmplitude reports whether a is within [LowAmplitude, HighAmplitude].
func ValidAmplitude(a float64) bool {
	return a >= LowAmplitude && a <= HighAmplitude
}

// AmplitudeFromDecibels converts dB (at most 0) to a wave amplitude using
// the factor-20 rule: 10^(dB/20).
func AmplitudeFromDecibels(dB float64) (float64, error) {
	if math.IsNaN(dB) || dB > MaxDecibels {
		return 0, fmt.Errorf("%w: must be in range %.1f to -Inf, was %v", ErrDecibelRange, MaxDecibels, dB)
	}
	return math.Pow(10, dB/20.0), nil
}

// DecibelsFromAmplitude is the inverse of AmplitudeFromDecibels.
// An amplitude of 0 yields negative infinity.
func DecibelsFromAmplitude(amplitude float64) (float64, error) {
	if !ValidAmplitude(amplitude) {
		return 0, fmt.Errorf("%w: must be in range %.1f to %.1f, was %v", ErrAmplitudeRange, LowAmplitude, HighAmplitude, amplitude)
	}
	return 20 * math.Log10(amplitude), nil
}

// Decibels returns the tone's amplitude expressed in dB.
func (t Tone) Decibels() float64 {
	db, _ := DecibelsFromAmplitude(t.Amplitude)
	return db
}

// String renders the tone as rounded frequency and percentage loudness,
// e.g. "350@45%".
func (t Tone) String() string {
	return fmt.Sprintf("%d@%d%%", int64(math.Round(t.Frequency)), int64(math.Round(100*t.Amplitude)))
}

// List is an ordered collection of tones. Order is significant and
// duplicates are kept.
type List []Tone

// Clone returns a copy of l that shares no backing array.
func (l List) Clone() List {
	if l == nil {
		return nil
	}
	out := make(List, len(l))
	copy(out, l)
	return out
}

// String joins the tones with "+".
func (l List) String() string {
	parts := make([]string, len(l))
	for i, t := range l {
		parts[i] = t.String()
	}
	return strings.Join(parts, "+")
}

// Key returns an exact-match identity for a set of tones. Two lists share a
// key only if they hold bit-identical frequencies and amplitudes in the
// same order, so 350.0 and 350.0000001 Hz stay distinct.
func Key(l List) string {
	var b strings.Builder
	for i, t := range l {
		if i > 0 {
			b.WriteByte('+')
		}
		fmt.Fprintf(&b, "%x@%x", math.Float64bits(t.Frequency), math.Float64bits(t.Amplitude))
	}
	return b.String()
}
