package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/steveyegge/backlogger/internal/config"
	"github.com/steveyegge/backlogger/internal/debug"
	"github.com/steveyegge/backlogger/internal/telemetry"
	"github.com/steveyegge/backlogger/internal/timeparsing"
)

var (
	verboseFlag bool
	quietFlag   bool
	nowFlag     string

	// v holds the environment and the flags bound to it.
	v = config.NewViper()

	log = zap.NewNop().Sugar()

	// Signal-aware context for graceful cancellation
	rootCtx    = context.Background()
	rootCancel context.CancelFunc = func() {}
)

var rootCmd = &cobra.Command{
	Use:   "backlogger [config.yaml]",
	Short: "backlogger - backlog thresholds and SLO escalation for Redmine",
	Long: `Runs the configured Redmine queries, checks each against its limits,
writes a status dashboard and reminds or de-prioritizes tickets that sat too
long at their priority without an update.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupSignalContext()
		log = debug.NewLogger(debug.Options{Verbose: verboseFlag, Quiet: quietFlag})
		if err := telemetry.Init(rootCtx, "backlogger", Version); err != nil {
			WarnError("tracing disabled: %v", err)
		}
		return nil
	},
	RunE: runBacklog,
}

func init() {
	// Finalizers run even when RunE fails, which PersistentPostRun does not.
	cobra.OnFinalize(finish)

	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "Only log warnings and errors")
	rootCmd.PersistentFlags().StringVar(&nowFlag, "now", "", "Evaluate as of this time (e.g. -3d, 2025-01-31, \"last friday\")")
}

// finish flushes traces and logs and releases the signal context.
func finish() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	telemetry.Shutdown(ctx)
	_ = log.Sync()
	rootCancel()
}

func setupSignalContext() {
	rootCtx, rootCancel = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// resolveNow returns the reference time of the run.
func resolveNow(expr string, wall time.Time) (time.Time, error) {
	if expr == "" {
		return wall, nil
	}
	return timeparsing.ParseRelativeTime(expr, wall)
}

// exitError ends the process with a specific status without printing.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		FatalError("%v", err)
	}
}
