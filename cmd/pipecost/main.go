package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/ppiankov/pipecost/internal/app"
	"github.com/ppiankov/pipecost/internal/logging"
	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
	verbose bool
)

// Exit codes for structured error reporting.
const (
	ExitSuccess    = 0
	ExitInternal   = 1
	ExitInvalidArg = 2
	ExitNotFound   = 3
	ExitBadInput   = 4
	ExitFindings   = 6
)

// FindingsError indicates the analysis completed but issues were detected.
type FindingsError struct {
	Count int
}

func (e *FindingsError) Error() string {
	return fmt.Sprintf("%d issues detected", e.Count)
}

func main() {
	logging.Init(false)

	root := &cobra.Command{
		Use:   "pipecost",
		Short: "Warehouse cost attribution and waste detection",
		Long: `PipeCost attributes warehouse compute spend to the transformation
models in a dbt dependency graph and flags waste patterns: zombie
models nothing consumes, over-scheduled refreshes, and groups of
models redundantly computing the same work.

It reads two static documents - a dbt manifest and an exported query
history - and estimates recoverable savings per finding.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Init(verbose)
		},
	}

	root.PersistentFlags().BoolVar(&verbose, "verbose", false, "Verbose logging")
	root.SilenceUsage = true
	root.SilenceErrors = true

	root.AddCommand(NewScanCmd())
	root.AddCommand(NewServeCmd())
	root.AddCommand(NewVersionCmd())

	if app.IsFirstRun() && len(os.Args) == 1 {
		fmt.Fprintln(os.Stderr, "First run: try `pipecost scan manifest.json queries.json` to analyze a project.")
	}

	if err := root.Execute(); err != nil {
		exitCode := classifyError(err)
		var fe *FindingsError
		if errors.As(err, &fe) {
			slog.Info("issues detected", slog.Int("count", fe.Count))
		} else {
			slog.Error("command failed", slog.String("error", err.Error()))
		}
		os.Exit(exitCode)
	}
}

func classifyError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var fe *FindingsError
	if errors.As(err, &fe) {
		return ExitFindings
	}

	if os.IsNotExist(err) {
		return ExitNotFound
	}

	msg := strings.ToLower(err.Error())

	if strings.Contains(msg, "does not exist") ||
		strings.Contains(msg, "no such file") {
		return ExitNotFound
	}

	if strings.Contains(msg, "cyclic dependency") ||
		strings.Contains(msg, "no records resolving") ||
		strings.Contains(msg, "failed to parse") {
		return ExitBadInput
	}

	if strings.Contains(msg, "required") ||
		strings.Contains(msg, "invalid") ||
		strings.Contains(msg, "must be") ||
		strings.Contains(msg, "unknown") ||
		strings.Contains(msg, "expected") {
		return ExitInvalidArg
	}

	return ExitInternal
}
