// Package main is the entry point for paperctl, a command-line client that runs
// research queries in-process against the configured paper providers.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/helixir/research-paper-finder/internal/app"
	"github.com/helixir/research-paper-finder/internal/config"
	"github.com/helixir/research-paper-finder/internal/observability"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the paperctl CLI.
var rootCmd = &cobra.Command{
	Use:   "paperctl",
	Short: "Find research papers from the command line",
	Long: `paperctl searches arXiv, Semantic Scholar, PubMed, DOAJ, CORE and BASE for
papers matching a research question. Results are validated, deduplicated and
ranked by relevance and citations.

Configuration is read from config.yaml (or --config) and PAPERFINDER_*
environment variables, exactly as the HTTP server reads it.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default: ./config.yaml, ./config/config.yaml or /etc/paper-finder/config.yaml)")
	rootCmd.PersistentFlags().StringP("output", "o", formatText, "output format: text, json or yaml")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log pipeline progress to stderr")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// buildApp loads configuration and assembles the service for one command.
func buildApp(cmd *cobra.Command) (*app.App, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadFile(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logCfg := observability.DefaultLoggingConfig()
	logCfg.Level = "warn"
	logCfg.Format = "console"
	logCfg.Output = "stderr"
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		logCfg.Level = "debug"
	}
	logger := observability.NewLogger(logCfg).With().Str("component", "paperctl").Logger()

	return app.Build(cfg, nil, logger)
}

// outputFormat returns the validated --output flag.
func outputFormat(cmd *cobra.Command) (string, error) {
	format, _ := cmd.Flags().GetString("output")
	format = strings.ToLower(strings.TrimSpace(format))
	switch format {
	case formatText, formatJSON, formatYAML:
		return format, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, json or yaml)", format)
	}
}

// withApp runs fn with an assembled app and closes it afterwards.
func withApp(cmd *cobra.Command, fn func(a *app.App, format string) error) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	a, err := buildApp(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", closeErr)
		}
	}()
	return fn(a, format)
}

// queryArg joins positional arguments into one query.
func queryArg(args []string) string {
	return strings.Join(args, " ")
}
