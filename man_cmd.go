package main

import (
	"fmt"

	mcobra "github.com/muesli/mango-cobra"
	"github.com/muesli/roff"
	"github.com/spf13/cobra"
)

var manCmd = &cobra.Command{
	Use:                   "man",
	Short:                 "Generates manpages",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Hidden:                true,
	Args:                  cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		page, err := mcobra.NewManPage(1, rootCmd)
		if err != nil {
			return fmt.Errorf("unable to build manpage: %w", err)
		}

		page = page.WithSection("Tonescript", toneScriptHelp)
		fmt.Println(page.Build(roff.NewDocument()))
		return nil
	},
}

const toneScriptHelp = `A script is an optional frequency list followed by one or two sections
of up to six segments each:

  freq@dB[,freq@dB...];seconds(on/off/index[+index],...)[;...]

Times are in seconds; an on time of * plays for the whole section. Indices
refer to the frequency list starting at 1. A script without a frequency list
is a ringer cadence and plays the standard ringer tones.`
