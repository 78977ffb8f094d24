package commands

import (
	"github.com/spf13/cobra"

	"github.com/spherical/ecg-extractor/internal/api"
)

var (
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the extractor over HTTP",
	Long: `Serve the extractor over HTTP.

  POST /v1/frames?mode=S   SVG page in the body, record JSON out
  GET  /v1/records         most recent stored records
  GET  /v1/records/{id}    one stored record
  GET  /health`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "listen host (overrides config)")
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "listen port (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	cfg, logger, rt, err := setup(ctx, false)
	if err != nil {
		return err
	}
	defer rt.Close()

	if serveHost != "" {
		cfg.Server.Host = serveHost
	}
	if servePort != 0 {
		cfg.Server.Port = servePort
	}

	logger.Info().
		Str("addr", cfg.Address()).
		Str("mode", cfg.Extraction.Mode).
		Str("database", cfg.Database.Driver).
		Str("cache", cfg.Cache.Driver).
		Msg("Starting ECG extractor API")

	router := api.NewRouter(rt.Service, logger, api.RouterConfig{
		RequestTimeout: cfg.Server.ReadTimeout,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
	})
	return api.NewServer(cfg.Server, router, logger).Run(ctx)
}
