package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jorabin/sounds/internal/cadence"
)

var listCmd = &cobra.Command{
	Use:     "list [PATTERN]",
	Short:   "List the named tones",
	Long:    paragraph(fmt.Sprintf("\n%s the built-in call progress tones, best match first when a pattern is given.", keyword("List"))),
	Example: paragraph("sounds list\nsounds list busy"),
	Args:    cobra.MaximumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		pattern := ""
		if len(args) > 0 {
			pattern = args[0]
		}
		return listTones(os.Stdout, pattern)
	},
}

func listTones(w io.Writer, pattern string) error {
	names := cadence.Search(pattern)
	if len(names) == 0 {
		return fmt.Errorf("no tones match %q", pattern)
	}

	width := 0
	for _, name := range names {
		width = max(width, len(name))
	}
	for _, name := range names {
		pad := fmt.Sprintf("%-*s", width, name)
		if _, err := fmt.Fprintf(w, "%s  %s\n", keyword(pad), faint(cadence.CallProgress[name])); err != nil {
			return fmt.Errorf("unable to write to writer: %w", err)
		}
	}
	return nil
}
