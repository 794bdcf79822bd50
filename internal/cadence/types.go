package cadence

import (
	"fmt"
	"math"
	"strings"

	"github.com/jorabin/sounds/internal/tone"
)

// Indefinite is the on-duration of a segment that sounds for the whole of
// its section.
const Indefinite = -1

// Segment is a period of sound followed by a period of silence. Timings are
// in milliseconds. All tones sound together during the on period.
type Segment struct {
	// Tones to play simultaneously. Empty for pure silence or, before
	// ringer substitution, for silent-timing segments.
	Tones tone.List

	// On is the sound duration in ms, or Indefinite.
	On int

	// Off is the silence duration in ms.
	Off int
}

// IsIndefinite reports whether the segment sounds for its whole section.
func (s Segment) IsIndefinite() bool {
	return s.On < 0
}

// IsSilentTiming reports whether the segment gives timing but names no
// tones. Such segments are filled with the ringer tones.
func (s Segment) IsSilentTiming() bool {
	return len(s.Tones) == 0 && s.On > 0
}

// Length is the nominal on plus off time in ms.
func (s Segment) Length() int {
	return s.On + s.Off
}

// String renders the segment close to its ToneScript form.
func (s Segment) String() string {
	on := fmt.Sprintf("%d", s.On)
	if s.IsIndefinite() {
		on = "*"
	}
	if len(s.Tones) == 0 {
		return fmt.Sprintf("%s/%d", on, s.Off)
	}
	return fmt.Sprintf("%s/%d/%s", on, s.Off, s.Tones)
}

// Section is a list of segments played one after the other, looped or
// truncated so that playback lasts Duration ms.
type Section struct {
	Description string
	Segments    []Segment
	Duration    int
}

// NewSection creates a section with the given target duration in ms. When
// segments are given the section must be playable; a section built without
// segments is validated once they have been appended.
func NewSection(description string, duration int, segments ...Segment) (*Section, error) {
	if duration <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrSectionDuration, duration)
	}
	s := &Section{
		Description: description,
		Segments:    segments,
		Duration:    duration,
	}
	if len(segments) > 0 {
		if err := s.Validate(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// InherentLength is the time in ms taken to play every segment once. A
// section holding an indefinite segment lasts exactly its Duration, and
// such a segment must be the only one.
func (s *Section) InherentLength() (int, error) {
	total := 0
	for _, seg := range s.Segments {
		if seg.IsIndefinite() {
			if len(s.Segments) != 1 {
				return 0, fmt.Errorf("%w (%s)", ErrIndefiniteMix, s.Description)
			}
			return s.Duration, nil
		}
		total += seg.Length()
	}
	return total, nil
}

// RepeatCount is the number of passes over the segments that best fills
// Duration.
func (s *Section) RepeatCount() (int, error) {
	inherent, err := s.InherentLength()
	if err != nil {
		return 0, err
	}
	if inherent > s.Duration || inherent <= 0 {
		return 0, fmt.Errorf("%w (%s)", ErrUnplayable, s.Description)
	}
	return int(math.Round(float64(s.Duration) / float64(inherent))), nil
}

// Validate checks that the section can be played.
func (s *Section) Validate() error {
	if s.Duration <= 0 {
		return fmt.Errorf("%w: %d", ErrSectionDuration, s.Duration)
	}
	_, err := s.RepeatCount()
	return err
}

// String returns the description.
func (s *Section) String() string {
	return s.Description
}

// Script is a compiled ToneScript: one or more sections played in order.
type Script struct {
	Description string

	// Ringer is set when no segment names a tone; such scripts are played
	// with RingerTones.
	Ringer bool

	// Tones is the frequency list, or RingerTones for a ringer.
	Tones tone.List

	Sections []*Section
}

// Duration is the total target duration of all sections in ms.
func (s *Script) Duration() int {
	total := 0
	for _, sec := range s.Sections {
		total += sec.Duration
	}
	return total
}

// String renders the description and section count.
func (s *Script) String() string {
	names := make([]string, len(s.Sections))
	for i, sec := range s.Sections {
		names[i] = sec.Description
	}
	return fmt.Sprintf("%s [%s]", s.Description, strings.Join(names, "; "))
}
