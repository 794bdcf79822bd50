package cadence

import (
	"errors"
	"fmt"
)

// ErrSyntax is matched by every error returned from Parse.
var ErrSyntax = errors.New("invalid ToneScript")

// Grammar and validation failures. They are wrapped in a SyntaxError when
// returned from Parse.
var (
	// ErrNoCadence indicates the script has no cadence section
	ErrNoCadence = errors.New("tone script must have at least one cadence section")

	// ErrTooManySections indicates more than two cadence sections
	ErrTooManySections = errors.New("tone script must have at most 1 frequency list and 2 cadence sections")

	// ErrTooManyTones indicates a frequency list or tone reference list longer than six
	ErrTooManyTones = errors.New("at most 6 tones may be given")

	// ErrToneFormat indicates a frequency list entry not of the form freq@dB
	ErrToneFormat = errors.New("tones are of the form 'freq@dB'")

	// ErrSectionFormat indicates a malformed duration(segments) section
	ErrSectionFormat = errors.New("invalid cadence section")

	// ErrEmptyBody indicates a section with nothing between its parentheses
	ErrEmptyBody = errors.New("no cadence found between parentheses")

	// ErrTrailingText indicates characters after the closing parenthesis
	ErrTrailingText = errors.New("extraneous characters after cadence")

	// ErrTooManySegments indicates more than six segments in a section
	ErrTooManySegments = errors.New("at most 6 segments may be given")

	// ErrSegmentFormat indicates a segment without 2 or 3 '/' separated fields
	ErrSegmentFormat = errors.New("segment must have 2 or 3 components")

	// ErrToneMismatch indicates tone references that disagree with the presence of a frequency list
	ErrToneMismatch = errors.New("segment tone references do not match the frequency list")

	// ErrDuration indicates an unparseable or negative duration
	ErrDuration = errors.New("invalid duration")

	// ErrToneIndex indicates a tone reference outside the frequency list
	ErrToneIndex = errors.New("frequency index is out of range")

	// ErrZeroIndex indicates tone index 0 used with a non-zero on-duration
	ErrZeroIndex = errors.New("cannot specify 0 frequency index with non-zero on-duration")

	// ErrMixedSegments indicates both tone and non-tone segments in one script
	ErrMixedSegments = errors.New("have both tone segments and non-tone segments")

	// ErrMissingFrequencies indicates tone segments without a frequency list
	ErrMissingFrequencies = errors.New("have tone segment but no frequency list")

	// ErrUnusedFrequencies indicates a frequency list that no segment uses
	ErrUnusedFrequencies = errors.New("have frequency list but no segment uses it")
)

// Section validation failures.
var (
	// ErrSectionDuration indicates a section target duration that is not positive
	ErrSectionDuration = errors.New("cadence duration must be > 0")

	// ErrIndefiniteMix indicates an indefinite segment alongside other segments
	ErrIndefiniteMix = errors.New("indefinite tone found with other tones")

	// ErrUnplayable indicates a section whose inherent length exceeds its duration
	ErrUnplayable = errors.New("cadence section cannot complete within duration")
)

// SyntaxError reports a ToneScript that could not be compiled. Text is the
// complete input as given to Parse.
type SyntaxError struct {
	Text  string
	Cause error
}

// Error implements the error interface
func (e *SyntaxError) Error() string {
	return fmt.Sprintf("ToneScript %q was not valid because %q", e.Text, e.Cause.Error())
}

// Unwrap exposes both ErrSyntax and the underlying cause to errors.Is.
func (e *SyntaxError) Unwrap() []error {
	return []error{ErrSyntax, e.Cause}
}
