package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/jorabin/sounds/internal/cadence"
)

var parseCmd = &cobra.Command{
	Use:     "parse SCRIPT|NAME",
	Short:   "Show how a ToneScript will be played",
	Long:    paragraph(fmt.Sprintf("\n%s a ToneScript without playing it and print its sections, segments and repeat counts.", keyword("Check"))),
	Example: paragraph("sounds parse uk_SIT\nsounds parse \"10(.2/.2,.2/.2,.2/.2,1/4)\""),
	Args:    cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		script, err := resolveScript(args[0])
		if err != nil {
			return err
		}
		return describeScript(os.Stdout, script, term.IsTerminal(int(os.Stdout.Fd())))
	},
}

// describeScript writes the playback plan of script. Styling is applied
// only when styled is set.
func describeScript(w io.Writer, script *cadence.Script, styled bool) error {
	kw, note := keyword, faint
	if !styled {
		kw, note = plain, plain
	}

	var b strings.Builder
	kind := "tones"
	if script.Ringer {
		kind = "ringer"
	}
	fmt.Fprintf(&b, "%s %s\n", kw(script.Description), note("("+kind+")"))
	fmt.Fprintf(&b, "  tones: %s\n", script.Tones)
	fmt.Fprintf(&b, "  total: %s ms\n", humanize.Comma(int64(script.Duration())))

	for i, s := range script.Sections {
		inherent, err := s.InherentLength()
		if err != nil {
			return err
		}
		repeats, err := s.RepeatCount()
		if err != nil {
			return err
		}

		fmt.Fprintf(&b, "\n  %s section: %s ms", humanize.Ordinal(i+1), humanize.Comma(int64(s.Duration)))
		if continuous(s) {
			fmt.Fprintf(&b, " %s\n", note("(continuous)"))
		} else {
			fmt.Fprintf(&b, ", cadence %s ms x %d\n", humanize.Comma(int64(inherent)), repeats)
		}
		for _, seg := range s.Segments {
			fmt.Fprintf(&b, "    %s\n", describeSegment(seg))
		}
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("unable to write to writer: %w", err)
	}
	return nil
}

func plain(strs ...string) string {
	return strings.Join(strs, " ")
}

func continuous(s *cadence.Section) bool {
	for _, seg := range s.Segments {
		if seg.IsIndefinite() {
			return true
		}
	}
	return false
}

func describeSegment(seg cadence.Segment) string {
	off := time.Duration(seg.Off) * time.Millisecond
	switch {
	case seg.IsIndefinite():
		return fmt.Sprintf("on  continuous  %s", seg.Tones)
	case len(seg.Tones) == 0 || seg.On == 0:
		return fmt.Sprintf("off %v", off)
	default:
		on := time.Duration(seg.On) * time.Millisecond
		return fmt.Sprintf("on  %v then off %v  %s", on, off, seg.Tones)
	}
}
