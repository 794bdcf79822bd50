package cadence

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/jorabin/sounds/internal/tone"
)

const (
	maxTones    = 6
	maxSegments = 6
	maxSections = 2
)

// RingerTones are substituted into scripts that give timing only, and
// approximate a regular telephone bell.
var RingerTones = tone.List{
	tone.MustNew(2000.0, 0.25),
	tone.MustNew(1500.0, 0.25),
	tone.MustNew(1000.0, 0.25),
}

// Parse compiles ToneScript text into a Script:
//
//	script   := [freqList ';'] section [';' section]
//	freqList := freq '@' dBm {',' freq '@' dBm}        (up to 6)
//	section  := seconds '(' segment {',' segment} ')'  (up to 6 segments)
//	segment  := on '/' off ['/' index {'+' index}]
//	on       := seconds | '*'
//
// Indices are 1-based into the frequency list; index 0 means no tone and is
// allowed only with a zero on time. If a frequency list is given every
// segment must reference it, otherwise none may and the script is a ringer.
//
// Any failure is returned as a *SyntaxError quoting text.
func Parse(description, text string) (*Script, error) {
	script, err := parse(description, text)
	if err != nil {
		return nil, &SyntaxError{Text: text, Cause: err}
	}
	return script, nil
}

// MustParse is like Parse but panics if the text is invalid. It is used
// for the built-in tables.
func MustParse(description, text string) *Script {
	s, err := Parse(description, text)
	if err != nil {
		panic(err)
	}
	return s
}

func parse(description, text string) (*Script, error) {
	parts := strings.Split(strings.TrimSpace(text), ";")

	var pool tone.List
	if len(parts) > 1 && strings.Contains(parts[0], "@") {
		var err error
		if pool, err = parseFrequencies(parts[0]); err != nil {
			return nil, err
		}
		parts = parts[1:]
	}

	switch {
	case len(parts) == 0:
		return nil, ErrNoCadence
	case len(parts) > maxSections:
		return nil, ErrTooManySections
	}

	script := &Script{Description: description}
	for _, part := range parts {
		section, err := parseSection(part, pool)
		if err != nil {
			return nil, err
		}
		script.Sections = append(script.Sections, section)
	}

	ringer, err := classify(pool, script)
	if err != nil {
		return nil, err
	}
	script.Ringer = ringer
	if ringer {
		script.Tones = RingerTones.Clone()
	} else {
		script.Tones = pool
	}

	for _, section := range script.Sections {
		if err := section.Validate(); err != nil {
			return nil, err
		}
	}
	return script, nil
}

// classify checks that segments either all reference the frequency list or
// none do, and fills silent-timing segments with the ringer tones. It
// reports whether the script is a ringer.
func classify(pool tone.List, script *Script) (bool, error) {
	var toneSegments, silentSegments int
	for _, section := range script.Sections {
		for i := range section.Segments {
			seg := &section.Segments[i]
			if seg.IsSilentTiming() {
				silentSegments++
				seg.Tones = RingerTones.Clone()
			} else {
				toneSegments++
			}
		}
	}

	switch {
	case silentSegments > 0 && toneSegments > 0:
		return false, ErrMixedSegments
	case toneSegments > 0 && len(pool) == 0:
		return false, ErrMissingFrequencies
	case silentSegments > 0 && len(pool) > 0:
		return false, ErrUnusedFrequencies
	}
	return silentSegments > 0, nil
}

// parseFrequencies parses "freq@dB,freq@dB,...".
func parseFrequencies(input string) (tone.List, error) {
	entries := strings.Split(input, ",")
	if len(entries) > maxTones {
		return nil, fmt.Errorf("%w: got %d", ErrTooManyTones, len(entries))
	}

	pool := make(tone.List, 0, len(entries))
	for _, entry := range entries {
		fields := strings.Split(entry, "@")
		if len(fields) != 2 {
			return nil, fmt.Errorf("%w: %q", ErrToneFormat, entry)
		}
		freq, err := parseNumber(fields[0])
		if err != nil {
			return nil, fmt.Errorf("%w: frequency %q", ErrToneFormat, entry)
		}
		dB, err := parseNumber(fields[1])
		if err != nil {
			return nil, fmt.Errorf("%w: level %q", ErrToneFormat, entry)
		}
		t, err := tone.FromDecibels(freq, dB)
		if err != nil {
			return nil, fmt.Errorf("tone %q: %w", strings.TrimSpace(entry), err)
		}
		pool = append(pool, t)
	}
	return pool, nil
}

// parseSection parses "seconds(segment,segment,...)".
func parseSection(input string, pool tone.List) (*Section, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, ErrNoCadence
	}

	open := strings.IndexByte(input, '(')
	closing := strings.IndexByte(input, ')')
	if open < 0 || closing < 0 || closing < open {
		return nil, fmt.Errorf("%w %q", ErrSectionFormat, input)
	}
	if rest := strings.TrimSpace(input[closing+1:]); rest != "" {
		return nil, fmt.Errorf("%w %q", ErrTrailingText, input)
	}
	body := input[open+1 : closing]
	if strings.ContainsRune(body, '(') {
		return nil, fmt.Errorf("%w %q", ErrSectionFormat, input)
	}
	if strings.TrimSpace(body) == "" {
		return nil, fmt.Errorf("%w %q", ErrEmptyBody, input)
	}

	duration, err := parseMillis(input[:open])
	if err != nil {
		return nil, fmt.Errorf("%w for section %q", err, input)
	}

	segments := strings.Split(body, ",")
	if len(segments) > maxSegments {
		return nil, fmt.Errorf("%w: got %d in %q", ErrTooManySegments, len(segments), input)
	}

	section, err := NewSection(input, duration)
	if err != nil {
		return nil, err
	}
	for _, text := range segments {
		seg, err := parseSegment(text, pool)
		if err != nil {
			return nil, err
		}
		section.Segments = append(section.Segments, seg)
	}
	return section, nil
}

// parseSegment parses "on/off" or "on/off/i+j+...".
func parseSegment(input string, pool tone.List) (Segment, error) {
	fields := strings.Split(strings.TrimSpace(input), "/")
	if len(fields) != 2 && len(fields) != 3 {
		return Segment{}, fmt.Errorf("%w %q", ErrSegmentFormat, input)
	}
	if (len(fields) == 3) != (len(pool) > 0) {
		return Segment{}, fmt.Errorf("%w %q", ErrToneMismatch, input)
	}

	on := Indefinite
	if strings.TrimSpace(fields[0]) != "*" {
		var err error
		if on, err = parseMillis(fields[0]); err != nil {
			return Segment{}, fmt.Errorf("%w for segment %q", err, input)
		}
	}
	off, err := parseMillis(fields[1])
	if err != nil {
		return Segment{}, fmt.Errorf("%w for segment %q", err, input)
	}

	if len(fields) == 2 {
		return Segment{On: on, Off: off}, nil
	}

	refs := strings.Split(fields[2], "+")
	if len(refs) > maxTones {
		return Segment{}, fmt.Errorf("%w: segment %q", ErrTooManyTones, input)
	}
	var tones tone.List
	for _, ref := range refs {
		index, err := strconv.Atoi(strings.TrimSpace(ref))
		if err != nil || index < 0 || index > len(pool) {
			return Segment{}, fmt.Errorf("%w %q", ErrToneIndex, input)
		}
		if index == 0 {
			if on != 0 {
				return Segment{}, fmt.Errorf("%w %q", ErrZeroIndex, input)
			}
			continue
		}
		tones = append(tones, pool[index-1])
	}
	return Segment{Tones: tones, On: on, Off: off}, nil
}

// parseMillis parses non-negative seconds and rounds to milliseconds.
func parseMillis(s string) (int, error) {
	secs, err := parseNumber(s)
	if err != nil || secs < 0 {
		return 0, fmt.Errorf("%w %q", ErrDuration, strings.TrimSpace(s))
	}
	ms := math.Round(secs * 1000)
	if ms > math.MaxInt32 {
		return 0, fmt.Errorf("%w %q", ErrDuration, strings.TrimSpace(s))
	}
	return int(ms), nil
}

func parseNumber(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, strconv.ErrSyntax
	}
	return v, nil
}
