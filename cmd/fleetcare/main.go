// fleetcare is the command-line front end of the fleet maintenance pipeline.
//
// Usage:
//
//	fleetcare analyze [--payload=<file>] [--json] [--speak]
//	fleetcare scan [--json]
//	fleetcare insights
//	fleetcare book --vehicle=<id> --pad-mm=<mm> [--answer=<text>]
//	fleetcare chat [--session=<id>]
//	fleetcare serve [--addr=<addr>]
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tailored-agentic-units/fleetcare/kernel"
	"github.com/tailored-agentic-units/fleetcare/observability"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	configFile string
	envFile    string
	verbose    bool

	cfg             *kernel.Config
	logger          *slog.Logger
	shutdownTracing = func(context.Context) error { return nil }
)

var rootCmd = &cobra.Command{
	Use:   "fleetcare",
	Short: "Predictive maintenance for a vehicle fleet",
	Long: "fleetcare scores vehicle telemetry for failure risk, proposes a service\n" +
		"slot within the SLA, scripts the owner call, and audits which agent\n" +
		"touched which resource.",
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to config file (YAML or JSON)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Environment file with FLEETCARE_* overrides")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging to stderr")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(insightsCmd)
	rootCmd.AddCommand(bookCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.Version = version
}

// setup resolves configuration (defaults, file, environment), configures
// logging, and installs tracing. Subcommand flags are applied by each
// subcommand afterwards.
func setup(cmd *cobra.Command, _ []string) error {
	loaded := kernel.DefaultConfig()
	cfg = &loaded
	if configFile != "" {
		c, err := kernel.LoadConfig(configFile)
		if err != nil {
			return err
		}
		cfg = c
	}
	if err := cfg.ApplyEnv(envFile); err != nil {
		return err
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	if verbose {
		level = slog.LevelDebug
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	observability.RegisterObserver("slog", observability.NewSlogObserver(logger))

	shutdown, err := observability.SetupTracing(cmd.Context(), cfg.Tracing)
	if err != nil {
		return err
	}
	shutdownTracing = shutdown
	return nil
}

func teardown(cmd *cobra.Command, _ []string) error {
	return shutdownTracing(context.WithoutCancel(cmd.Context()))
}

// newKernel builds the runtime from the resolved configuration.
func newKernel(opts ...kernel.Option) (*kernel.Kernel, error) {
	k, err := kernel.New(cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create runtime: %w", err)
	}
	return k, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
