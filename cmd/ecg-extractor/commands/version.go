package commands

import (
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spherical/ecg-extractor/cmd/ecg-extractor/ui"
	"github.com/spherical/ecg-extractor/internal/ecg"
)

var (
	appVersion = "dev"
	appCommit  = "none"
)

// SetVersion records the build version shown by the version command.
func SetVersion(version, commit string) {
	appVersion = version
	appCommit = commit
	rootCmd.Version = version
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ui.KeyValue("Version", appVersion)
		ui.KeyValue("Commit", appCommit)
		ui.KeyValue("Go", runtime.Version())
		ui.KeyValue("Modes", strings.Join(ecg.ModeNames(), ", "))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
