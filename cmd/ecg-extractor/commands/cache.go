package commands

import (
	"github.com/spf13/cobra"

	"github.com/spherical/ecg-extractor/cmd/ecg-extractor/ui"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the frame cache",
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Drop every cached frame",
	Long: `Drop every cached frame so the next run reconstructs each page again.
Only the redis driver keeps frames between runs.`,
	Args: cobra.NoArgs,
	RunE: runCachePurge,
}

func init() {
	cacheCmd.AddCommand(cachePurgeCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCachePurge(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	cfg, _, rt, err := setup(ctx, false)
	if err != nil {
		return err
	}
	defer rt.Close()

	if cfg.Cache.Driver == "none" {
		ui.Warning("Frame cache is disabled")
		return nil
	}
	if err := rt.Service.PurgeCache(ctx); err != nil {
		return err
	}
	ui.Success("Purged %s frame cache", cfg.Cache.Driver)
	return nil
}
