package main

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/steveyegge/backlogger/internal/config"
	"github.com/steveyegge/backlogger/internal/runstate"
)

var (
	stateDir  string
	stateJSON bool
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Show the failing queries recorded by the last run",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := stateDir
		if dir == "" {
			dir = config.SettingsFrom(v).StateFolder
		}
		if dir == "" {
			dir = "."
		}

		st, err := runstate.Load(dir)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		if st == nil {
			fmt.Fprintf(w, "No state found in %s\n", dir)
			return nil
		}

		if stateJSON {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(st)
		}

		fmt.Fprintf(w, "Last run: %s\n", st.Updated)
		if len(st.BadQueries) == 0 {
			fmt.Fprintln(w, color.GreenString("All queries within limits"))
			return nil
		}
		titles := st.Titles()
		sort.Strings(titles)
		for _, title := range titles {
			d := st.BadQueries[title]
			if d.Error != "" {
				fmt.Fprintf(w, "%s %s: %s\n", color.YellowString("?"), title, d.Error)
				continue
			}
			fmt.Fprintf(w, "%s %s: %d (limits %s)\n", color.RedString("✗"), title, d.IssueCount, d.Limits)
		}
		return nil
	},
}

func init() {
	stateCmd.Flags().StringVar(&stateDir, "state-dir", "", "Folder holding state.json (default: $STATE_FOLDER or .)")
	stateCmd.Flags().BoolVar(&stateJSON, "json", false, "Print the raw state as JSON")
	rootCmd.AddCommand(stateCmd)
}
