package ecg

import (
	"fmt"

	"github.com/spherical/ecg-extractor/internal/domain"
)

// Correct re-zeroes every assigned waveform on its row's baseline and
// projects it to amplitudes, in the layout's output order.
func Correct(c *Classification, layout Layout) (*domain.Frame, error) {
	frame := &domain.Frame{
		Frequency:       c.Frequency,
		SourceFrequency: c.Frequency,
		Leads:           make([]domain.LeadSignal, 0, len(layout.Output)),
	}
	for _, lead := range layout.Output {
		a, ok := c.Lookup(lead)
		if !ok {
			return nil, domain.StructuralMismatchError(fmt.Sprintf("no waveform assigned to lead %s", lead), nil)
		}
		samples := make([]float64, len(a.Line))
		for i, pt := range a.Line {
			samples[i] = pt.Y - a.Baseline
		}
		frame.Leads = append(frame.Leads, domain.LeadSignal{Lead: lead, Samples: samples})
	}
	return frame, nil
}

// Reconstruct turns the path data of one page into a baseline-corrected
// frame of lead signals.
func Reconstruct(paths []string, m Mode) (*domain.Frame, error) {
	lines, err := ExtractPolylines(paths)
	if err != nil {
		return nil, err
	}
	c, err := Classify(lines, m)
	if err != nil {
		return nil, err
	}
	return Correct(c, m.Layout)
}
