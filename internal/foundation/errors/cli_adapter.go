package errors

import (
	"fmt"
	"log/slog"
	"os"
)

// CLIErrorAdapter handles error presentation and exit code determination for CLI commands.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
}

// NewCLIErrorAdapter creates a new CLI error adapter.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{
		verbose: verbose,
		logger:  logger,
	}
}

// ExitCodeFor determines the appropriate exit code for an error.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}

	if classified, ok := AsClassified(err); ok {
		return a.exitCodeFromClassified(classified)
	}

	// Fallback for unclassified errors
	return 1
}

// exitCodeFromClassified maps ClassifiedError to exit codes.
func (a *CLIErrorAdapter) exitCodeFromClassified(err *ClassifiedError) int {
	switch err.Category() {
	case CategoryValidation:
		return 2 // Invalid usage
	case CategoryConfig:
		return 3 // Bad configuration
	case CategorySession:
		return 4 // Rejected by the session state machine
	case CategoryProtocol:
		return 5 // Malformed or undecodable exchange
	case CategoryDaemon:
		return 6 // Daemon unavailable or refused
	case CategoryStorage, CategoryNotify:
		// Non-fatal infrastructure failures still exit non-zero for one-shot
		// clients, but with a generic code.
		return 1
	default:
		return 1
	}
}

// Report logs the error and prints a user-facing line to stderr.
func (a *CLIErrorAdapter) Report(err error) {
	if err == nil {
		return
	}

	if classified, ok := AsClassified(err); ok {
		if a.verbose {
			a.logger.Error("command failed",
				slog.String("category", string(classified.Category())),
				slog.String("severity", string(classified.Severity())),
				slog.String("error", classified.Error()))
		}
		fmt.Fprintf(os.Stderr, "focusd: %s\n", classified.Message())
		return
	}

	if a.verbose {
		a.logger.Error("command failed", slog.String("error", err.Error()))
	}
	fmt.Fprintf(os.Stderr, "focusd: %s\n", err.Error())
}

// ReportAndExit reports the error and exits with the mapped code.
func (a *CLIErrorAdapter) ReportAndExit(err error) {
	a.Report(err)
	os.Exit(a.ExitCodeFor(err))
}
