package ui

import (
	"fmt"
	"time"

	"github.com/briandowns/spinner"
	"github.com/schollz/progressbar/v3"
)

// PageProgress counts finished pages of a batch on stderr.
type PageProgress struct {
	bar    *progressbar.ProgressBar
	label  string
	failed int
}

// NewPageProgress starts a bar for total pages.
func NewPageProgress(total int, label string) *PageProgress {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(stderr),
		progressbar.OptionSetDescription(label),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionClearOnFinish(),
	)
	return &PageProgress{bar: bar, label: label}
}

// Done records one finished page. Failures are counted in the label.
func (p *PageProgress) Done(failed bool) {
	if failed {
		p.failed++
		p.bar.Describe(fmt.Sprintf("%s (%s)", p.label, red(fmt.Sprintf("%d failed", p.failed))))
	}
	_ = p.bar.Add(1)
}

// Finish clears the bar.
func (p *PageProgress) Finish() {
	_ = p.bar.Finish()
}

// Spin shows message with a spinner on stderr while fn runs.
func Spin(message string, fn func() error) error {
	s := spinner.New(spinner.CharSets[11], 80*time.Millisecond, spinner.WithWriter(stderr))
	s.Suffix = " " + message
	s.Start()
	defer s.Stop()
	return fn()
}
