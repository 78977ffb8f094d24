package commands

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/spherical/ecg-extractor/cmd/ecg-extractor/ui"
	"github.com/spherical/ecg-extractor/internal/domain"
	"github.com/spherical/ecg-extractor/internal/extract"
)

var (
	batchRecursive bool
	batchFailFast  bool
)

var batchCmd = &cobra.Command{
	Use:   "batch <dir>",
	Short: "Extract every ECG page in a directory",
	Long: `Extract every .svg and .pdf page in a directory with a bounded worker pool.
Pages that cannot be reconstructed are reported and skipped unless
--fail-fast is set.`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().BoolVarP(&batchRecursive, "recursive", "r", false, "descend into subdirectories")
	batchCmd.Flags().BoolVar(&batchFailFast, "fail-fast", false, "stop at the first failed page")
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	paths, err := extract.Discover(args[0], batchRecursive)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		ui.Warning("No .svg or .pdf files in %s", args[0])
		return nil
	}

	cfg, _, rt, err := setup(ctx, batchFailFast)
	if err != nil {
		return err
	}
	defer rt.Close()

	ui.Info("Processing %d pages with %d workers", len(paths), cfg.Extraction.Workers)

	// Each page emits at most two events, plus start and complete.
	events := make(chan domain.StreamEvent, 2*len(paths)+2)
	progress := ui.NewPageProgress(len(paths), "Extracting")
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range events {
			switch ev.Type {
			case domain.EventPageComplete:
				progress.Done(false)
			case domain.EventError:
				progress.Done(true)
			}
		}
	}()

	results, stats, runErr := rt.Batch.Process(ctx, paths, events)
	close(events)
	<-done
	progress.Finish()

	ui.Section("Batch Summary")
	ui.Table([]string{"Metric", "Value"}, [][]string{
		{"Pages", strconv.Itoa(stats.PagesProcessed)},
		{"Succeeded", strconv.Itoa(stats.SuccessfulPages)},
		{"Failed", strconv.Itoa(stats.FailedPages)},
		{"From cache", strconv.Itoa(stats.CachedPages)},
		{"Duration", ui.FormatDuration(stats.TotalTime)},
	})

	var failed [][]string
	for _, r := range results {
		if r.Failed() {
			kind := string(domain.TypeOf(r.Err))
			if kind == "" {
				kind = "error"
			}
			failed = append(failed, []string{filepath.Base(r.Path), kind, r.Err.Error()})
		}
	}
	if len(failed) > 0 {
		ui.Section("Failed Pages")
		ui.Table([]string{"File", "Kind", "Error"}, failed)
	}
	ui.Newline()

	if runErr != nil {
		return fmt.Errorf("batch aborted: %w", runErr)
	}
	if stats.FailedPages == 0 {
		ui.Success("All %d pages extracted", stats.SuccessfulPages)
	} else {
		ui.Warning("%d of %d pages failed", stats.FailedPages, stats.PagesProcessed)
	}
	return nil
}
