package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	dialBlock bool

	dialCmd = &cobra.Command{
		Use:     "dial NUMBER...",
		Short:   "Play the DTMF tones for a number",
		Long:    paragraph(fmt.Sprintf("\n%s a number as touch tones. Digits, %s, %s and A-D are accepted; spaces are ignored.", keyword("Dial"), keyword("*"), keyword("#"))),
		Example: paragraph("sounds dial 020 8995 0859\nsounds dial '*67#'"),
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			digits := strings.Join(args, " ")
			return withSession(cmd.Context(), func(ctx context.Context, sess *session) error {
				items, err := sess.player.Dial(ctx, digits, dialBlock)
				if err != nil {
					return err
				}
				if dialBlock {
					return nil
				}
				return waitAll(ctx, sess.player, items)
			})
		},
	}
)

func init() {
	dialCmd.Flags().BoolVarP(&dialBlock, "block", "b", false, "wait for each digit before queueing the next")
}
