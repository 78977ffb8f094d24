// Package commands implements the ecg-extractor command line.
package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/spherical/ecg-extractor/cmd/ecg-extractor/ui"
	"github.com/spherical/ecg-extractor/internal/config"
	"github.com/spherical/ecg-extractor/internal/extract"
	"github.com/spherical/ecg-extractor/internal/observability"
)

var (
	cfgFile string
	verbose bool
	noColor bool

	// Overrides applied on top of the loaded configuration.
	modeFlag     string
	upsampleFlag int
	workersFlag  int
	noSidecar    bool
	noStore      bool
)

var rootCmd = &cobra.Command{
	Use:   "ecg-extractor",
	Short: "Reconstruct ECG lead signals from vector renderings of 12-lead ECG pages",
	Long: `ecg-extractor reads the vector drawing of a printed 12-lead ECG page (SVG, or
PDF rendered through MuPDF), recovers the twelve standard leads and the long
lead II rhythm strip as baseline-corrected amplitude sequences, infers their
sampling frequency and writes them out as JSON records.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		ui.InitUI(noColor, verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().StringVarP(&modeFlag, "mode", "m", "", "page layout mode (S or H)")
	rootCmd.PersistentFlags().IntVar(&upsampleFlag, "upsample", -1, "output rate in Hz (0 keeps the page rate)")
	rootCmd.PersistentFlags().IntVarP(&workersFlag, "workers", "w", 0, "concurrent pages")
	rootCmd.PersistentFlags().BoolVar(&noSidecar, "no-sidecar", false, "do not write <name>.json next to each input")
	rootCmd.PersistentFlags().BoolVar(&noStore, "no-store", false, "do not persist records to the database")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig reads the configuration and applies command line overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if modeFlag != "" {
		cfg.Extraction.Mode = modeFlag
	}
	if upsampleFlag >= 0 {
		cfg.Extraction.UpsampleTo = upsampleFlag
	}
	if workersFlag > 0 {
		cfg.Extraction.Workers = workersFlag
	}
	if noSidecar {
		cfg.Extraction.WriteSidecar = false
	}
	if noStore {
		cfg.Database.Driver = "none"
	}
	if verbose {
		cfg.Observability.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *observability.Logger {
	return observability.NewLogger(observability.LogConfig{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.ServiceName,
	})
}

// setup loads the configuration and wires the runtime.
func setup(ctx context.Context, failFast bool) (*config.Config, *observability.Logger, *extract.Runtime, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	logger := newLogger(cfg)
	rt, err := extract.NewRuntime(ctx, cfg, logger, failFast)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("initialise: %w", err)
	}
	return cfg, logger, rt, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
