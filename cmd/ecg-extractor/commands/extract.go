package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/spherical/ecg-extractor/cmd/ecg-extractor/ui"
	"github.com/spherical/ecg-extractor/internal/domain"
)

var extractJSON bool

var extractCmd = &cobra.Command{
	Use:   "extract <file>",
	Short: "Extract the lead signals of one ECG page",
	Long:  "Extract the thirteen lead signals of a single .svg or .pdf ECG page.",
	Args:  cobra.ExactArgs(1),
	RunE:  runExtract,
}

func init() {
	extractCmd.Flags().BoolVar(&extractJSON, "json", false, "print the record as JSON on stdout")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	cfg, _, rt, err := setup(ctx, false)
	if err != nil {
		return err
	}
	defer rt.Close()

	path := args[0]
	var rec *domain.Record
	extractPage := func() (err error) {
		rec, err = rt.Service.ProcessFile(ctx, path, nil)
		return err
	}
	if extractJSON {
		err = extractPage()
	} else {
		err = ui.Spin(fmt.Sprintf("Extracting %s...", path), extractPage)
	}
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}

	if extractJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	}

	ui.Success("Extracted %s", rec.FileName)
	ui.Section("Frame")
	printFrame(rec)
	if rec.Metadata != nil {
		ui.Section("Patient")
		printMetadata(rec.Metadata)
	}
	ui.Newline()
	if cfg.Extraction.WriteSidecar {
		ui.Info("Sidecar written next to %s", path)
	}
	if rt.Service.Store() != nil {
		ui.Info("Record %s stored", rec.ID)
	}
	return nil
}

func printFrame(rec *domain.Record) {
	ui.KeyValue("Mode", rec.Mode)
	ui.KeyValue("Frequency", fmt.Sprintf("%d Hz", rec.Frame.Frequency))
	if rec.Frame.SourceFrequency != rec.Frame.Frequency {
		ui.KeyValue("Page frequency", fmt.Sprintf("%d Hz", rec.Frame.SourceFrequency))
	}
	ui.Newline()

	rows := make([][]string, 0, len(rec.Frame.Leads))
	for _, l := range rec.Frame.Leads {
		lo, hi := minMax(l.Samples)
		rows = append(rows, []string{
			string(l.Lead),
			strconv.Itoa(len(l.Samples)),
			strconv.FormatFloat(lo, 'f', 2, 64),
			strconv.FormatFloat(hi, 'f', 2, 64),
		})
	}
	ui.Table([]string{"Lead", "Samples", "Min", "Max"}, rows)
}

func printMetadata(m *domain.PatientRecord) {
	ui.Table([]string{"Field", "Value"}, [][]string{
		{"Patient ID", m.PatientID},
		{"Study", m.StudyDate + " " + m.StudyTime},
		{"Gender", m.Gender},
		{"Age", m.Age},
		{"Heart rate", m.HeartRate},
		{"PR / QRS", m.PRInterval + " / " + m.QRSInterval},
		{"QT / QTc", m.QTInterval + " / " + m.QTcInterval},
		{"P / QRS / T axes", m.PAxis + " / " + m.QRSAxis + " / " + m.TAxis},
	})
	for _, line := range m.Interpretation {
		ui.Message("  %s", line)
	}
}

func minMax(xs []float64) (float64, float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	lo, hi := xs[0], xs[0]
	for _, x := range xs[1:] {
		if x < lo {
			lo = x
		}
		if x > hi {
			hi = x
		}
	}
	return lo, hi
}
