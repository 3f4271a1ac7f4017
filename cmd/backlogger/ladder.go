package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/steveyegge/backlogger/internal/slo"
)

var ladderCmd = &cobra.Command{
	Use:   "ladder",
	Short: "Print the SLO periods in effect for a date",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		now, err := resolveNow(nowFlag, time.Now())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "SLO ladder as of %s\n\n", now.Format("2006-01-02"))
		fmt.Fprint(cmd.OutOrStdout(), slo.NewLadder(now).String())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ladderCmd)
}
