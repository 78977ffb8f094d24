package ecg

import (
	"fmt"
	"sort"

	"github.com/spherical/ecg-extractor/internal/domain"
)

// Assignment is a waveform polyline labelled with its lead and the y of the
// baseline marker of its row.
type Assignment struct {
	Lead     domain.Lead
	Line     Polyline
	Baseline float64
}

// Classification is the outcome of sorting one page's polylines into leads.
type Classification struct {
	Frequency   domain.Frequency
	Assignments []Assignment
}

// Lookup returns the assignment for lead.
func (c *Classification) Lookup(lead domain.Lead) (Assignment, bool) {
	for _, a := range c.Assignments {
		if a.Lead == lead {
			return a, true
		}
	}
	return Assignment{}, false
}

// IsMarker reports whether p is a baseline marker under m. The tick height
// must equal the mode gap exactly.
func (m Mode) IsMarker(p Polyline) bool {
	if len(p) != m.TickLength || len(p) == 0 {
		return false
	}
	return p.MaxY()-p[0].Y == m.Gap
}

// IsWaveform reports whether p has a waveform length under m.
func (m Mode) IsWaveform(p Polyline) bool {
	return m.validLength(len(p))
}

// Classify finds the baseline markers and waveforms among lines, infers the
// sampling rate and labels every waveform with its lead.
//
// Checks run in order: marker count, waveform count, common grid lead
// length, sampling rate, rhythm strip length.
func Classify(lines []Polyline, m Mode) (*Classification, error) {
	layout := m.Layout

	var markers, waves []Polyline
	for _, p := range lines {
		switch {
		case m.IsMarker(p):
			markers = append(markers, p)
		case m.IsWaveform(p):
			waves = append(waves, p)
		}
	}

	if len(markers) != layout.Markers() {
		return nil, domain.StructuralMismatchError(
			fmt.Sprintf("found %d baseline markers, want %d", len(markers), layout.Markers()), nil)
	}
	if len(waves) != layout.Waveforms() {
		return nil, domain.StructuralMismatchError(
			fmt.Sprintf("found %d waveforms, want %d", len(waves), layout.Waveforms()), nil)
	}

	grid := layout.GridLeads()
	leadLength := len(waves[0])
	for i, w := range waves[:grid] {
		if len(w) != leadLength {
			return nil, domain.StructuralMismatchError(fmt.Sprintf(
				"waveform %d has %d points, first has %d", i, len(w), leadLength), nil)
		}
	}

	freq, err := InferFrequency(leadLength, len(waves[grid]))
	if err != nil {
		return nil, err
	}

	baselines := make([]float64, len(markers))
	for i, p := range markers {
		baselines[i] = p[0].Y
	}
	// Larger y is higher on the page.
	sort.SliceStable(baselines, func(i, j int) bool { return baselines[i] > baselines[j] })

	medians := make([]float64, len(waves))
	order := make([]int, len(waves))
	for i, w := range waves {
		medians[i] = w.MedianY()
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool { return medians[order[i]] > medians[order[j]] })

	out := &Classification{Frequency: freq}

	// Rows run top to bottom in sorted order; row k sits on marker k.
	offset := 0
	for r, labels := range layout.Rows {
		row := append([]int(nil), order[offset:offset+len(labels)]...)
		offset += len(labels)
		sort.SliceStable(row, func(i, j int) bool { return waves[row[i]][0].X < waves[row[j]][0].X })

		for k, idx := range row {
			out.Assignments = append(out.Assignments, Assignment{
				Lead:     labels[k],
				Line:     waves[idx],
				Baseline: baselines[r],
			})
		}
	}

	// The lowest waveform is the rhythm strip and sits on the last marker.
	out.Assignments = append(out.Assignments, Assignment{
		Lead:     layout.Rhythm,
		Line:     waves[order[len(order)-1]],
		Baseline: baselines[len(layout.Rows)],
	})
	return out, nil
}
