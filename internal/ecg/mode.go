// Package ecg reconstructs lead waveforms from the vector paths of a printed
// 12-lead ECG page.
package ecg

import (
	"fmt"
	"strings"

	"github.com/spherical/ecg-extractor/internal/domain"
)

// Layout is the printed lead grid. Rows run top to bottom and each row lists
// its leads left to right. Every row has one baseline marker, and the rhythm
// strip below the grid has the last one.
type Layout struct {
	Rows   [][]domain.Lead
	Rhythm domain.Lead
	// Output is the order of the reconstructed signals.
	Output []domain.Lead
}

// GridLeads is the number of leads printed in the grid.
func (l Layout) GridLeads() int {
	n := 0
	for _, row := range l.Rows {
		n += len(row)
	}
	return n
}

// Waveforms is the number of waveform polylines a page must contain.
func (l Layout) Waveforms() int {
	return l.GridLeads() + 1
}

// Markers is the number of baseline markers a page must contain.
func (l Layout) Markers() int {
	return len(l.Rows) + 1
}

// StandardLayout is the 3x4 grid with a lead II rhythm strip.
var StandardLayout = Layout{
	Rows: [][]domain.Lead{
		{domain.LeadI, domain.LeadAVR, domain.LeadV1, domain.LeadV4},
		{domain.LeadII, domain.LeadAVL, domain.LeadV2, domain.LeadV5},
		{domain.LeadIII, domain.LeadAVF, domain.LeadV3, domain.LeadV6},
	},
	Rhythm: domain.LeadRhythmII,
	Output: []domain.Lead{
		domain.LeadRhythmII,
		domain.LeadI, domain.LeadII, domain.LeadIII,
		domain.LeadAVR, domain.LeadAVL, domain.LeadAVF,
		domain.LeadV1, domain.LeadV2, domain.LeadV3,
		domain.LeadV4, domain.LeadV5, domain.LeadV6,
	},
}

// Mode is the constant set describing one source document layout.
type Mode struct {
	Name string
	// TickLength is the point count of a baseline marker.
	TickLength int
	// Gap is the height of a baseline marker: max(y) minus the y of its first point.
	Gap float64
	// ValidLengths are the point counts a waveform polyline may have.
	ValidLengths []int
	Layout       Layout
}

var (
	// ModeS is the layout of the S document family, printed at 250 or 500 Hz.
	ModeS = Mode{
		Name:         "S",
		TickLength:   60,
		Gap:          1000,
		ValidLengths: []int{619, 2500, 1238, 5000},
		Layout:       StandardLayout,
	}

	// ModeH is the layout of the H document family.
	ModeH = Mode{
		Name:         "H",
		TickLength:   8,
		Gap:          82,
		ValidLengths: []int{1247, 1250, 4997},
		Layout:       StandardLayout,
	}
)

var modes = map[string]Mode{
	ModeS.Name: ModeS,
	ModeH.Name: ModeH,
}

// ModeByName returns the mode registered under name (case-insensitive).
func ModeByName(name string) (Mode, error) {
	m, ok := modes[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return Mode{}, domain.UnsupportedModeError(fmt.Sprintf("unknown mode %q", name), nil)
	}
	return m, nil
}

// ModeNames lists the supported mode selectors.
func ModeNames() []string {
	return []string{ModeS.Name, ModeH.Name}
}

func (m Mode) validLength(n int) bool {
	for _, v := range m.ValidLengths {
		if v == n {
			return true
		}
	}
	return false
}

// FrequencyEntry maps the common grid lead length to a sampling rate and the
// rhythm strip length expected at that rate.
type FrequencyEntry struct {
	LeadLength   int
	RhythmLength int
	Frequency    domain.Frequency
}

// FrequencyTable lists the supported sample counts.
var FrequencyTable = []FrequencyEntry{
	{LeadLength: 619, RhythmLength: 2500, Frequency: domain.Frequency250},
	{LeadLength: 1238, RhythmLength: 5000, Frequency: domain.Frequency500},
}

// InferFrequency looks up the sampling rate for the common grid lead length
// and checks the rhythm strip length against it.
func InferFrequency(leadLength, rhythmLength int) (domain.Frequency, error) {
	for _, e := range FrequencyTable {
		if e.LeadLength != leadLength {
			continue
		}
		if rhythmLength != e.RhythmLength {
			return 0, domain.StructuralMismatchError(fmt.Sprintf(
				"rhythm strip has %d points, want %d for %d-point leads",
				rhythmLength, e.RhythmLength, leadLength), nil)
		}
		return e.Frequency, nil
	}
	return 0, domain.UnsupportedSampleCountError(
		fmt.Sprintf("no sampling rate for %d-point leads", leadLength), nil)
}
