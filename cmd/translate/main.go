package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/alnah/go-translate/internal/apierr"
	"github.com/alnah/go-translate/internal/cli"
	"github.com/alnah/go-translate/internal/config"
	"github.com/alnah/go-translate/internal/document"
	"github.com/alnah/go-translate/internal/interrupt"
	"github.com/alnah/go-translate/internal/lang"
	"github.com/alnah/go-translate/internal/pipeline"
	"github.com/alnah/go-translate/internal/tokenizer"
	"github.com/alnah/go-translate/internal/translate"
)

// Injected at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

// Exit codes.
const (
	ExitOK          = 0
	ExitGeneral     = 1
	ExitUsage       = 2
	ExitSetup       = 3
	ExitValidation  = 4
	ExitTranslation = 5
	ExitInterrupt   = interrupt.ExitInterrupt
)

func main() {
	// Load .env file if present (ignore error if missing).
	_ = godotenv.Load()

	// First Ctrl+C stops gracefully, a second one aborts.
	handler, ctx := interrupt.NewHandler(context.Background())
	defer handler.Stop()

	env := cli.DefaultEnv()

	var verbose bool
	rootCmd := &cobra.Command{
		Use:     "translate",
		Short:   "Translate documents with large language models",
		Version: fmt.Sprintf("%s (commit: %s)", version, commit),
		// Silence Cobra's default error/usage printing; we handle it ourselves.
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			// The server logs JSON for log collectors.
			env.Logger = cli.NewLogger(os.Stderr, verbose, cmd.Name() == "serve")
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug diagnostics to stderr")

	rootCmd.AddCommand(cli.TranslateCmd(env))
	rootCmd.AddCommand(cli.EstimateCmd(env))
	rootCmd.AddCommand(cli.ServeCmd(env))
	rootCmd.AddCommand(cli.ConfigCmd(env))

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		handler.Stop()
		os.Exit(exitCode(err))
	}
}

// exitCode maps errors to exit codes.
func exitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	if errors.Is(err, context.Canceled) {
		return ExitInterrupt
	}

	// Cobra doesn't expose typed errors, so we check for known error message patterns.
	if isCobraUsageError(err) {
		return ExitUsage
	}

	// Setup errors (ExitSetup = 3).
	if errors.Is(err, cli.ErrAPIKeyMissing) || errors.Is(err, cli.ErrDeepSeekKeyMissing) ||
		errors.Is(err, cli.ErrVertexProjectMissing) || errors.Is(err, cli.ErrInvalidProvider) ||
		errors.Is(err, tokenizer.ErrUnavailable) || errors.Is(err, config.ErrInvalidValue) {
		return ExitSetup
	}

	// Validation errors (ExitValidation = 4).
	var sizeErr *pipeline.SizeLimitError
	var extractErr *document.ExtractionError
	if errors.Is(err, lang.ErrInvalid) || errors.Is(err, cli.ErrTargetMissing) ||
		errors.Is(err, cli.ErrFileNotFound) || errors.Is(err, cli.ErrOutputExists) ||
		errors.Is(err, document.ErrUnsupported) || errors.Is(err, document.ErrEmpty) ||
		errors.Is(err, config.ErrUnknownKey) || errors.Is(err, config.ErrNotDirectory) ||
		errors.Is(err, config.ErrNotWritable) ||
		errors.As(err, &sizeErr) || errors.As(err, &extractErr) {
		return ExitValidation
	}

	// Translation errors (ExitTranslation = 5).
	var trErr *translate.TranslationError
	if errors.As(err, &trErr) ||
		errors.Is(err, apierr.ErrRateLimit) || errors.Is(err, apierr.ErrQuotaExceeded) ||
		errors.Is(err, apierr.ErrTimeout) || errors.Is(err, apierr.ErrAuthFailed) ||
		errors.Is(err, apierr.ErrBadRequest) || errors.Is(err, apierr.ErrContextLength) ||
		errors.Is(err, apierr.ErrEmptyResponse) {
		return ExitTranslation
	}

	return ExitGeneral
}

// cobraUsageErrorPatterns contains error message substrings that indicate Cobra usage errors.
// These patterns are stable across Cobra versions (tested with v1.8+).
var cobraUsageErrorPatterns = []string{
	"required flag",             // Missing required flag
	"unknown flag",              // Flag doesn't exist
	"unknown shorthand",         // Short flag doesn't exist
	"flag needs an argument",    // Flag provided without value
	"invalid argument",          // Invalid flag value type
	"if any flags in the group", // Mutually exclusive flag violation
	"accepts ",                  // Wrong number of arguments (e.g., "accepts 1 arg(s)")
	"requires at least",         // Too few arguments
	"requires at most",          // Too many arguments
	"unknown command",           // Subcommand doesn't exist
}

// isCobraUsageError checks if an error is a Cobra usage/parsing error.
func isCobraUsageError(err error) bool {
	if err == nil {
		return false
	}
	errMsg := err.Error()
	for _, pattern := range cobraUsageErrorPatterns {
		if strings.Contains(errMsg, pattern) {
			return true
		}
	}
	return false
}
