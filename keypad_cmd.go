package main

import (
	"context"
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/cobra"

	"github.com/jorabin/sounds/ui"
)

var keypadCmd = &cobra.Command{
	Use:     "keypad",
	Short:   "Dial interactively from a keypad",
	Long:    paragraph(fmt.Sprintf("\nOpen a %s that plays each key as you press it.", keyword("touch tone keypad"))),
	Example: paragraph("sounds keypad\nSOUNDS_KEYPAD_FULL_HELP=1 sounds keypad"),
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		// Read environment to get keypad settings
		kcfg, err := env.ParseAs[ui.Config]()
		if err != nil {
			return fmt.Errorf("error parsing config: %w", err)
		}

		return withSession(cmd.Context(), func(_ context.Context, sess *session) error {
			if _, err := ui.NewProgram(kcfg, sess.player).Run(); err != nil {
				return fmt.Errorf("unable to run tui program: %w", err)
			}
			return nil
		})
	},
}
