package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"emodccdl/internal/ccdl"
	"emodccdl/internal/config"
	"emodccdl/internal/logging"
)

var (
	// Global flags
	verbose    bool
	configFile string

	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "ccdl",
	Short: "Compile campaigns to and from CCDL",
	Long: `ccdl translates between structured simulation campaigns and CCDL, the
line notation WHEN :: WHERE :: WHO :: WHAT.

  decode  campaign JSON -> CCDL lines
  encode  CCDL lines -> sparse parameter records
  graph   CCDL lines -> signal dependency graph (DOT or JSON)
  check   run a regression battery`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configFile)
		if err != nil {
			return err
		}
		if verbose {
			cfg.Logging.Level = "debug"
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config %s: %w", configFile, err)
		}
		logger, err = logging.Initialize(cfg.LoggingOptions())
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configFile, "config-file", config.DefaultPath, "Tool config file (YAML)")

	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(encodeCmd)
	rootCmd.AddCommand(graphCmd)
	rootCmd.AddCommand(checkCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// commandContext returns the command's context, or Background when the
// command was not started through Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

// reportDiagnostics logs diagnostics to stderr, keeping stdout for output.
func reportDiagnostics(diags ccdl.Diagnostics) {
	for _, d := range diags {
		fields := []zap.Field{
			zap.Int("index", d.Index),
			zap.String("kind", d.Kind.String()),
			zap.String("input", d.Input),
		}
		if d.Err != nil {
			fields = append(fields, zap.Error(d.Err))
		}
		if d.Partial() {
			logger.Warn(d.Message, fields...)
		} else {
			logger.Error(d.Message, fields...)
		}
	}
}
