package commands

import (
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/spherical/ecg-extractor/cmd/ecg-extractor/ui"
	"github.com/spherical/ecg-extractor/internal/domain"
	"github.com/spherical/ecg-extractor/internal/watch"
)

var watchSettle time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Extract ECG pages as they are written to a directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchSettle, "settle", watch.DefaultSettle, "quiet period before a new file is read")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	_, logger, rt, err := setup(ctx, false)
	if err != nil {
		return err
	}
	defer rt.Close()

	w := watch.New(rt.Service, watchSettle, logger)
	w.OnResult = func(r domain.PageResult) {
		if r.Failed() {
			ui.Error("%s: %v", filepath.Base(r.Path), r.Err)
			return
		}
		ui.Success("%s (%d Hz)", filepath.Base(r.Path), r.Record.Frame.Frequency)
	}

	ui.Info("Watching %s (Ctrl+C to stop)", args[0])
	return w.Run(ctx, args[0], nil)
}
