package cadence

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/jorabin/sounds/internal/tone"
)

// DTMF keypad layout and levels. The fourth column (A-D) is not used in
// domestic telephony.
var (
	DTMFRowFrequencies    = [4]float64{697, 770, 852, 941}
	DTMFColumnFrequencies = [4]float64{1209, 1336, 1477, 1633}
)

const (
	DTMFRowDecibels    = -14.1
	DTMFColumnDecibels = -13.1

	// DTMFOn and DTMFOff are the digit timings in ms.
	DTMFOn  = 150
	DTMFOff = 60
)

// dtmfKeypad maps keypad positions (row*4+col) to symbols.
const dtmfKeypad = "123A456B789C*0#D"

// ErrInvalidDigit is returned for characters that are not on the keypad.
var ErrInvalidDigit = errors.New("invalid DTMF digit")

var dtmfSections = func() map[rune]*Section {
	m := make(map[rune]*Section, len(dtmfKeypad))
	for i, r := range dtmfKeypad {
		tones := tone.List{
			tone.MustFromDecibels(DTMFRowFrequencies[i/4], DTMFRowDecibels),
			tone.MustFromDecibels(DTMFColumnFrequencies[i%4], DTMFColumnDecibels),
		}
		m[r] = &Section{
			Description: "DTMF " + string(r),
			Segments:    []Segment{{Tones: tones, On: DTMFOn, Off: DTMFOff}},
			Duration:    DTMFOn + DTMFOff,
		}
	}
	return m
}()

// DigitSection returns the section that sounds one keypad symbol. Digits
// 0-9, '*', '#' and A-D (either case) are accepted. The returned section is
// shared and must not be modified.
func DigitSection(r rune) (*Section, error) {
	s, ok := dtmfSections[unicode.ToUpper(r)]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrInvalidDigit, r)
	}
	return s, nil
}

// DigitAt returns the symbol at a keypad row and column.
func DigitAt(row, col int) (rune, error) {
	if row < 0 || row > 3 || col < 0 || col > 3 {
		return 0, fmt.Errorf("%w: row %d col %d", ErrInvalidDigit, row, col)
	}
	return rune(dtmfKeypad[row*4+col]), nil
}

// DialSections maps a dial string to digit sections, skipping spaces. No
// sections are returned if any character is invalid.
func DialSections(dial string) ([]*Section, error) {
	sections := make([]*Section, 0, len(dial))
	for _, r := range dial {
		if unicode.IsSpace(r) {
			continue
		}
		s, err := DigitSection(r)
		if err != nil {
			return nil, fmt.Errorf("dial %q: %w", strings.TrimSpace(dial), err)
		}
		sections = append(sections, s)
	}
	return sections, nil
}
