package cadence

import (
	"errors"
	"math"
	"testing"
)

func TestParse_Ringer(t *testing.T) {
	script, err := Parse("test", "60(2/4)")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !script.Ringer {
		t.Error("expected ringer script")
	}
	if len(script.Sections) != 1 {
		t.Fatalf("expected 1 section, got %d", len(script.Sections))
	}

	section := script.Sections[0]
	if section.Duration != 60000 {
		t.Errorf("expected duration 60000, got %d", section.Duration)
	}
	if len(section.Segments) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(section.Segments))
	}
	seg := section.Segments[0]
	if seg.On != 2000 || seg.Off != 4000 {
		t.Errorf("expected 2000/4000, got %d/%d", seg.On, seg.Off)
	}
	if len(seg.Tones) != len(RingerTones) {
		t.Errorf("expected ringer tones substituted, got %v", seg.Tones)
	}
	if n, _ := section.InherentLength(); n != 6000 {
		t.Errorf("expected inherent length 6000, got %d", n)
	}
	if len(script.Tones) != len(RingerTones) {
		t.Errorf("expected script tones to be ringer tones, got %v", script.Tones)
	}
}

func TestParse_RingerMultipleSegments(t *testing.T) {
	script, err := Parse("test", "60(.2/.2,.2/.2,.2/.2,1/4)")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !script.Ringer {
		t.Error("expected ringer script")
	}
	section := script.Sections[0]
	want := [][2]int{{200, 200}, {200, 200}, {200, 200}, {1000, 4000}}
	if len(section.Segments) != len(want) {
		t.Fatalf("expected %d segments, got %d", len(want), len(section.Segments))
	}
	for i, w := range want {
		seg := section.Segments[i]
		if seg.On != w[0] || seg.Off != w[1] {
			t.Errorf("segment %d: expected %d/%d, got %d/%d", i, w[0], w[1], seg.On, seg.Off)
		}
	}
	if n, _ := section.InherentLength(); n != 6200 {
		t.Errorf("expected inherent length 6200, got %d", n)
	}
}

func TestParse_SpecialInformationTone(t *testing.T) {
	script, err := Parse("sit tone", "985@-16,1428@-16,1777@-16;20(.380/0/1,.380/0/2,.380/0/3,0/4/0)")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if script.Ringer {
		t.Error("expected non-ringer script")
	}
	if len(script.Tones) != 3 {
		t.Fatalf("expected 3 tones, got %d", len(script.Tones))
	}

	section := script.Sections[0]
	if section.Duration != 20000 {
		t.Errorf("expected duration 20000, got %d", section.Duration)
	}
	if len(section.Segments) != 4 {
		t.Fatalf("expected 4 segments, got %d", len(section.Segments))
	}

	freqs := []float64{985, 1428, 1777}
	for i, f := range freqs {
		seg := section.Segments[i]
		if seg.On != 380 || seg.Off != 0 {
			t.Errorf("segment %d: expected 380/0, got %d/%d", i, seg.On, seg.Off)
		}
		if len(seg.Tones) != 1 {
			t.Fatalf("segment %d: expected 1 tone, got %d", i, len(seg.Tones))
		}
		if math.Abs(seg.Tones[0].Frequency-f) > 0.1 {
			t.Errorf("segment %d: expected %v Hz, got %v", i, f, seg.Tones[0].Frequency)
		}
		if math.Abs(seg.Tones[0].Decibels()-(-16)) > 0.01 {
			t.Errorf("segment %d: expected -16 dB, got %v", i, seg.Tones[0].Decibels())
		}
	}

	last := section.Segments[3]
	if len(last.Tones) != 0 || last.On != 0 || last.Off != 4000 {
		t.Errorf("expected silent 0/4000 segment, got %+v", last)
	}
}

func TestParse_TwoSections(t *testing.T) {
	script, err := Parse("stutter tone", "350@-19,440@-19;2(.1/.1/1+2);10(*/0/1+2)")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if script.Ringer {
		t.Error("expected non-ringer")
	}
	if len(script.Sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(script.Sections))
	}

	first := script.Sections[0]
	if first.Duration != 2000 || first.Segments[0].On != 100 || first.Segments[0].Off != 100 {
		t.Errorf("unexpected first section %+v", first)
	}
	if len(first.Segments[0].Tones) != 2 {
		t.Errorf("expected 2 tones, got %d", len(first.Segments[0].Tones))
	}

	second := script.Sections[1]
	if second.Duration != 10000 {
		t.Errorf("expected duration 10000, got %d", second.Duration)
	}
	seg := second.Segments[0]
	if seg.On != Indefinite || seg.Off != 0 {
		t.Errorf("expected indefinite segment, got %d/%d", seg.On, seg.Off)
	}
	if seg.Tones[0].Frequency != 350 || seg.Tones[1].Frequency != 440 {
		t.Errorf("unexpected tones %v", seg.Tones)
	}
	if n, _ := second.InherentLength(); n != 10000 {
		t.Errorf("indefinite section should have inherent length equal to duration, got %d", n)
	}
	if script.Duration() != 12000 {
		t.Errorf("expected script duration 12000, got %d", script.Duration())
	}
}

func TestParse_Whitespace(t *testing.T) {
	script, err := Parse("test", "350 @ -19 , 440 @ -19 ; 10 (* / 0 / 1 + 2 )")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(script.Tones) != 2 {
		t.Errorf("expected 2 tones, got %d", len(script.Tones))
	}
	seg := script.Sections[0].Segments[0]
	if seg.On != Indefinite || len(seg.Tones) != 2 {
		t.Errorf("unexpected segment %+v", seg)
	}
}

func TestParse_ZeroIndexWithZeroOn(t *testing.T) {
	script, err := Parse("test", "440@-10;10(1/1/1,0/2/0+1)")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	seg := script.Sections[0].Segments[1]
	if len(seg.Tones) != 1 {
		t.Errorf("zero index should be skipped and the valid index kept, got %v", seg.Tones)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		cause error
	}{
		{name: "missing cadence", text: "350@-19,440@-19", cause: ErrSectionFormat},
		{name: "missing cadence short", text: "f@-1,f@-1", cause: ErrSectionFormat},
		{name: "empty cadence after list", text: "350@-19,440@-19;", cause: ErrNoCadence},
		{name: "duration only", text: "350@-19,440@-19;10", cause: ErrSectionFormat},
		{name: "empty parentheses", text: "350@-19,440@-19;10()", cause: ErrEmptyBody},
		{name: "blank parentheses", text: "10(  )", cause: ErrEmptyBody},
		{name: "garbage segment", text: "350@-19,440@-19;10(a)", cause: ErrSegmentFormat},
		{name: "zero index with on time", text: "350@-19,440@-19;10(3/2/0)", cause: ErrZeroIndex},
		{name: "index out of range", text: "350@-19,440@-19;10(1/2/3)", cause: ErrToneIndex},
		{name: "negative index", text: "350@-19,440@-19;10(1/2/-1)", cause: ErrToneIndex},
		{name: "non numeric index", text: "350@-19,440@-19;10(1/2/x)", cause: ErrToneIndex},
		{name: "trailing text", text: "350@-19,440@-19;10(1/2/1+2)hello world", cause: ErrTrailingText},
		{name: "bad second segment", text: "350@-19,440@-19;10(1/2/1+2, hello)", cause: ErrSegmentFormat},
		{name: "trailing parens", text: "350@-19,440@-19;10(1/2/1+2),()", cause: ErrTrailingText},
		{name: "extra closing paren", text: "350@-19,440@-19;10(1/2/1+2))", cause: ErrTrailingText},
		{name: "nested paren", text: "10((1/2)", cause: ErrSectionFormat},
		{name: "reversed parens", text: "10)1/2(", cause: ErrSectionFormat},
		{name: "three sections", text: "10(1/1);10(1/1);10(1/1)", cause: ErrTooManySections},
		{name: "refs without frequency list", text: "10(1/1/1)", cause: ErrToneMismatch},
		{name: "frequency list without refs", text: "440@-10;10(1/1)", cause: ErrToneMismatch},
		{name: "silence without frequency list", text: "10(0/1)", cause: ErrMissingFrequencies},
		{name: "star off time", text: "10(1/*)", cause: ErrDuration},
		{name: "negative on time", text: "10(-1/1)", cause: ErrDuration},
		{name: "zero duration", text: "0(1/1)", cause: ErrSectionDuration},
		{name: "unplayable", text: "1(2/4)", cause: ErrUnplayable},
		{name: "indefinite with others", text: "440@-10;10(*/0/1,1/1/1)", cause: ErrIndefiniteMix},
		{name: "positive dB", text: "440@3;10(1/1/1)", cause: nil},
		{name: "frequency out of range", text: "50000@-3;10(1/1/1)", cause: nil},
		{name: "bad tone form", text: "440@-3@1,500@-3;10(1/1/1)", cause: ErrToneFormat},
		{name: "seven tones", text: "1@-1,2@-1,3@-1,4@-1,5@-1,6@-1,7@-1;10(1/1/1)", cause: ErrTooManyTones},
		{name: "seven segments", text: "10(1/1,1/1,1/1,1/1,1/1,1/1,1/1)", cause: ErrTooManySegments},
		{name: "NaN duration", text: "NaN(1/1)", cause: ErrDuration},
		{name: "empty", text: "", cause: ErrNoCadence},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			script, err := Parse("fails", tt.text)
			if err == nil {
				t.Fatalf("expected error for %q, got script %v", tt.text, script)
			}
			if script != nil {
				t.Error("script must be nil on error")
			}
			if !errors.Is(err, ErrSyntax) {
				t.Errorf("expected ErrSyntax, got %v", err)
			}
			var se *SyntaxError
			if !errors.As(err, &se) || se.Text != tt.text {
				t.Errorf("expected SyntaxError quoting input, got %v", err)
			}
			if tt.cause != nil && !errors.Is(err, tt.cause) {
				t.Errorf("expected cause %v, got %v", tt.cause, err)
			}
		})
	}
}

func TestParse_MixedSegments(t *testing.T) {
	_, err := Parse("mixed", "10(1/1,0/1)")
	if !errors.Is(err, ErrMixedSegments) {
		t.Errorf("expected ErrMixedSegments, got %v", err)
	}
}

func TestMustParsePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	MustParse("bad", "nonsense")
}
