package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/steveyegge/backlogger/internal/backlog"
	"github.com/steveyegge/backlogger/internal/config"
	"github.com/steveyegge/backlogger/internal/notification"
	"github.com/steveyegge/backlogger/internal/redmine"
)

// ExitQueriesFailing is the exit status of a run with failing queries
// when --exit-code is set.
const ExitQueriesFailing = 3

const (
	outputMarkdown = "markdown"
	outputInfluxDB = "influxdb"
)

func init() {
	f := rootCmd.Flags()
	f.String("output", outputMarkdown, "Output format: markdown or influxdb")
	f.Bool("reminder-comment-on-issues", false, "Post reminders and lower priorities on tickets past their SLO")
	f.Bool("exit-code", false, fmt.Sprintf("Exit with status %d when any query fails", ExitQueriesFailing))
	f.String("report", "index.md", "Markdown dashboard output path")
	f.String("state-out", "state.json", "Where to write the failing set of this run")
	f.String("metrics-file", "", "Write Prometheus metrics of the run to this textfile")

	for _, name := range []string{"output", "reminder-comment-on-issues", "exit-code", "report", "state-out", "metrics-file"} {
		_ = v.BindPFlag(name, f.Lookup(name))
	}
}

func runBacklog(cmd *cobra.Command, args []string) error {
	path := config.DefaultPath
	if len(args) == 1 {
		path = args[0]
	}

	output := v.GetString("output")
	if output != outputMarkdown && output != outputInfluxDB {
		return fmt.Errorf("invalid --output %q: must be %s or %s", output, outputMarkdown, outputInfluxDB)
	}

	cfg, err := config.Load(path)
	if errors.Is(err, config.ErrNotFound) {
		return fmt.Errorf("configuration file %s not found", path)
	}
	if err != nil {
		return err
	}
	cfg.Settings = config.SettingsFrom(v)
	if err := cfg.Settings.RequireAPIKey(); err != nil {
		return err
	}

	now, err := resolveNow(nowFlag, time.Now())
	if err != nil {
		return err
	}

	client := redmine.NewClient(cfg.API, cfg.Web, cfg.Settings.APIKey, cfg.URL)
	client.Log = log

	dispatcher := notification.NewDispatcher(notification.Config{
		WebhookURL:      cfg.Settings.WebhookURL,
		SlackWebhookURL: cfg.Settings.SlackWebhookURL,
	}, log)

	runner := backlog.NewRunner(cfg, client, dispatcher, log)
	runner.Now = func() time.Time { return now }
	runner.Reminders = v.GetBool("reminder-comment-on-issues")

	var allGood bool
	switch output {
	case outputInfluxDB:
		lines, failed, err := runner.Influx(rootCtx, client)
		if err != nil {
			return err
		}
		for _, line := range lines {
			fmt.Fprintln(cmd.OutOrStdout(), line)
		}
		allGood = len(failed) == 0

	default:
		res, err := runner.Run(rootCtx, backlog.Options{
			ReportPath: v.GetString("report"),
			StateDir:   cfg.Settings.StateFolder,
			StateOut:   v.GetString("state-out"),
		})
		if err != nil {
			return err
		}
		if !quietFlag {
			printSummary(cmd.OutOrStdout(), res)
		}
		allGood = res.AllGood
	}

	if path := v.GetString("metrics-file"); path != "" {
		if err := runner.Metrics.WriteTextfile(path); err != nil {
			WarnError("%v", err)
		}
	}

	if v.GetBool("exit-code") && !allGood {
		return &exitError{code: ExitQueriesFailing}
	}
	return nil
}

// printSummary writes one colored status line per query.
func printSummary(w io.Writer, res *backlog.CheckResult) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	for _, r := range res.Results {
		switch {
		case r.Err != nil:
			fmt.Fprintf(w, "%s %s: %v\n", yellow("?"), r.Title, r.Err)
		case r.Pass:
			fmt.Fprintf(w, "%s %s: %d\n", green("✓"), r.Title, r.IssueCount)
		default:
			fmt.Fprintf(w, "%s %s: %d (limits %s)\n", red("✗"), r.Title, r.IssueCount, r.Limits)
		}
	}

	if s := res.Escalation; s.Reminders+s.Drops+s.Errors > 0 {
		fmt.Fprintf(w, "\nReminders: %d, priority drops: %d, skipped tickets: %d\n", s.Reminders, s.Drops, s.Errors)
	}
}

