package ecg

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical/ecg-extractor/internal/domain"
)

// page builds synthetic path data for a standard layout.
type page struct {
	markerYs    []float64
	leadLength  int
	rhythmLen   int
	lengths     map[domain.Lead]int // per-lead override
	dropMarker  bool
	dropWave    bool
	extraMarker bool
}

func newPage(leadLength, rhythmLen int) *page {
	return &page{
		markerYs:   []float64{300, 200, 100, 0},
		leadLength: leadLength,
		rhythmLen:  rhythmLen,
		lengths:    map[domain.Lead]int{},
	}
}

// markerPath draws a tick whose top sits gap above its first point.
func markerPath(x, y, gap float64, n int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "M %g,%g", x, y)
	for i := 1; i < n; i++ {
		fmt.Fprintf(&b, " L %g,%g", x, y+gap)
	}
	return b.String()
}

// wavePath uses implicit lineto repetition after the initial moveto.
func wavePath(x0, base, offset float64, n int) string {
	var b strings.Builder
	b.WriteString("M")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, " %g,%g", x0+float64(i), sample(base, offset, i))
	}
	return b.String()
}

func sample(base, offset float64, i int) float64 {
	return base + offset + math.Sin(float64(i)/10)
}

// leadOffset gives every lead a distinct signature.
func leadOffset(l domain.Lead) float64 {
	for i, o := range StandardLayout.Output {
		if o == l {
			return float64(i) * 2
		}
	}
	return 0
}

func (p *page) paths() []string {
	var out []string
	markers := p.markerYs
	if p.dropMarker {
		markers = markers[:len(markers)-1]
	}
	for i, y := range markers {
		out = append(out, markerPath(-100-float64(i), y, ModeS.Gap, ModeS.TickLength))
	}
	if p.extraMarker {
		out = append(out, markerPath(-200, 50, ModeS.Gap, ModeS.TickLength))
	}

	// Grid leads go out right to left and bottom to top so that document
	// order never matches the layout.
	var grid []string
	for r := len(StandardLayout.Rows) - 1; r >= 0; r-- {
		row := StandardLayout.Rows[r]
		for c := len(row) - 1; c >= 0; c-- {
			n := p.leadLength
			if v, ok := p.lengths[row[c]]; ok {
				n = v
			}
			grid = append(grid, wavePath(float64(c)*2000, p.markerYs[r], leadOffset(row[c]), n))
		}
	}
	if p.dropWave {
		grid = grid[1:]
	}
	out = append(out, grid...)
	out = append(out, wavePath(0, p.markerYs[3], leadOffset(domain.LeadRhythmII), p.rhythmLen))

	// Decorations that match neither shape.
	out = append(out, "M 0,0 L 10,0 L 10,10 Z", "M 5,5 h 3 v 3")
	return out
}

func TestInferFrequency(t *testing.T) {
	tests := []struct {
		name    string
		lead    int
		rhythm  int
		want    domain.Frequency
		errType domain.ErrorType
	}{
		{name: "500 Hz", lead: 1238, rhythm: 5000, want: domain.Frequency500},
		{name: "250 Hz", lead: 619, rhythm: 2500, want: domain.Frequency250},
		{name: "rhythm one short", lead: 1238, rhythm: 4999, errType: domain.ErrorTypeStructuralMismatch},
		{name: "rhythm from other rate", lead: 619, rhythm: 5000, errType: domain.ErrorTypeStructuralMismatch},
		{name: "unknown lead length", lead: 1000, rhythm: 4000, errType: domain.ErrorTypeUnsupportedSampleCount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := InferFrequency(tt.lead, tt.rhythm)
			if tt.errType != "" {
				require.Error(t, err)
				assert.Equal(t, tt.errType, domain.TypeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestModeByName(t *testing.T) {
	m, err := ModeByName("S")
	require.NoError(t, err)
	assert.Equal(t, ModeS.Name, m.Name)

	m, err = ModeByName(" h ")
	require.NoError(t, err)
	assert.Equal(t, ModeH.TickLength, m.TickLength)

	_, err = ModeByName("X")
	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeUnsupportedMode))
}

func TestLayoutCounts(t *testing.T) {
	assert.Equal(t, 12, StandardLayout.GridLeads())
	assert.Equal(t, 13, StandardLayout.Waveforms())
	assert.Equal(t, 4, StandardLayout.Markers())
	assert.Len(t, StandardLayout.Output, 13)
}

func TestPolyline_MedianY(t *testing.T) {
	odd := Polyline{{X: 0, Y: 3}, {X: 1, Y: 1}, {X: 2, Y: 2}}
	assert.Equal(t, 2.0, odd.MedianY())

	even := Polyline{{X: 0, Y: 4}, {X: 1, Y: 1}, {X: 2, Y: 2}, {X: 3, Y: 10}}
	assert.Equal(t, 3.0, even.MedianY())
	assert.Equal(t, 10.0, even.MaxY())
}

func TestMode_IsMarker(t *testing.T) {
	lines, err := ExtractPolylines([]string{
		markerPath(0, 40, 1000, 60),
		markerPath(0, 40, 999, 60),
		markerPath(0, 40, 1000, 59),
	})
	require.NoError(t, err)

	assert.True(t, ModeS.IsMarker(lines[0]))
	assert.False(t, ModeS.IsMarker(lines[1]), "wrong gap")
	assert.False(t, ModeS.IsMarker(lines[2]), "wrong length")
}

func TestMode_IsMarker_ExactGap(t *testing.T) {
	lines, err := ExtractPolylines([]string{markerPath(0, 40, 1000+1e-9, 60)})
	require.NoError(t, err)
	assert.False(t, ModeS.IsMarker(lines[0]))
}

func TestExtractPolylines_OnePointPerCommand(t *testing.T) {
	lines, err := ExtractPolylines([]string{"M 0,0 C 1,1 2,2 3,3 Q 4,4 5,5 L 6,6"})
	require.NoError(t, err)
	assert.Equal(t, Polyline{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 4, Y: 4}, {X: 6, Y: 6}}, lines[0])
}

func TestExtractPolylines_CurvedMarker(t *testing.T) {
	// A tick drawn with cubic segments: the first control point of each
	// segment sits at the top of the tick.
	var b strings.Builder
	b.WriteString("M 0,40")
	for i := 1; i < ModeS.TickLength; i++ {
		fmt.Fprintf(&b, " C 0,%g 0,%g 0,%g", 40+ModeS.Gap, 40+ModeS.Gap/2, 40+ModeS.Gap)
	}
	lines, err := ExtractPolylines([]string{b.String()})
	require.NoError(t, err)
	require.Len(t, lines[0], ModeS.TickLength)
	assert.True(t, ModeS.IsMarker(lines[0]))
}

func TestExtractPolylines_KeepsOrder(t *testing.T) {
	paths := make([]string, 50)
	for i := range paths {
		paths[i] = fmt.Sprintf("M %d,0 l 1,1", i)
	}
	lines, err := ExtractPolylines(paths)
	require.NoError(t, err)
	require.Len(t, lines, 50)
	for i, l := range lines {
		assert.Equal(t, float64(i), l[0].X)
		assert.Equal(t, float64(i+1), l[1].X)
	}
}

func TestExtractPolylines_MalformedPath(t *testing.T) {
	_, err := ExtractPolylines([]string{"M 0,0 L 1,1", "M 0,0 L"})
	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeMalformedPath))
	assert.Contains(t, err.Error(), "path 1")
}

func TestReconstruct_EndToEnd(t *testing.T) {
	frame, err := Reconstruct(newPage(1238, 5000).paths(), ModeS)
	require.NoError(t, err)

	assert.Equal(t, domain.Frequency500, frame.Frequency)
	assert.Equal(t, domain.Frequency500, frame.SourceFrequency)
	require.Len(t, frame.Leads, 13)

	for i, s := range frame.Leads {
		assert.Equal(t, StandardLayout.Output[i], s.Lead)
	}

	leadI, ok := frame.Lead(domain.LeadI)
	require.True(t, ok)
	require.Len(t, leadI, 1238)
	for i, v := range leadI {
		// Raw y minus the top marker at 300.
		assert.InDelta(t, sample(300, leadOffset(domain.LeadI), i)-300, v, 1e-9)
	}

	baselines := map[domain.Lead]float64{}
	for r, row := range StandardLayout.Rows {
		for _, l := range row {
			baselines[l] = newPage(0, 0).markerYs[r]
		}
	}
	for lead, base := range baselines {
		got, ok := frame.Lead(lead)
		require.True(t, ok, lead)
		assert.Len(t, got, 1238, lead)
		assert.InDelta(t, sample(base, leadOffset(lead), 7)-base, got[7], 1e-9, lead)
	}

	rhythm, ok := frame.Lead(domain.LeadRhythmII)
	require.True(t, ok)
	assert.Len(t, rhythm, 5000)
	assert.InDelta(t, sample(0, leadOffset(domain.LeadRhythmII), 4321), rhythm[4321], 1e-9)
}

func TestReconstruct_250Hz(t *testing.T) {
	frame, err := Reconstruct(newPage(619, 2500).paths(), ModeS)
	require.NoError(t, err)
	assert.Equal(t, domain.Frequency250, frame.Frequency)

	for _, s := range frame.Leads {
		want := 619
		if s.Lead == domain.LeadRhythmII {
			want = 2500
		}
		assert.Len(t, s.Samples, want, s.Lead)
	}
}

func TestReconstruct_Failures(t *testing.T) {
	tests := []struct {
		name    string
		page    func() *page
		errType domain.ErrorType
		msg     string
	}{
		{
			name:    "missing marker",
			page:    func() *page { p := newPage(1238, 5000); p.dropMarker = true; return p },
			errType: domain.ErrorTypeStructuralMismatch,
			msg:     "baseline markers",
		},
		{
			name:    "extra marker",
			page:    func() *page { p := newPage(1238, 5000); p.extraMarker = true; return p },
			errType: domain.ErrorTypeStructuralMismatch,
			msg:     "baseline markers",
		},
		{
			name:    "missing waveform",
			page:    func() *page { p := newPage(1238, 5000); p.dropWave = true; return p },
			errType: domain.ErrorTypeStructuralMismatch,
			msg:     "waveforms",
		},
		{
			name: "inconsistent grid lengths",
			page: func() *page {
				p := newPage(1238, 5000)
				p.lengths[domain.LeadAVF] = 619
				return p
			},
			errType: domain.ErrorTypeStructuralMismatch,
			msg:     "points",
		},
		{
			name:    "grid length with no rate",
			page:    func() *page { return newPage(2500, 5000) },
			errType: domain.ErrorTypeUnsupportedSampleCount,
		},
		{
			name:    "rhythm strip of the wrong rate",
			page:    func() *page { return newPage(1238, 2500) },
			errType: domain.ErrorTypeStructuralMismatch,
			msg:     "rhythm strip",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, err := Reconstruct(tt.page().paths(), ModeS)
			require.Error(t, err)
			assert.Nil(t, frame)
			assert.Equal(t, tt.errType, domain.TypeOf(err), "got %v", err)
			if tt.msg != "" {
				assert.Contains(t, err.Error(), tt.msg)
			}
		})
	}
}

func TestReconstruct_ModeHRejectsModeSPage(t *testing.T) {
	_, err := Reconstruct(newPage(1238, 5000).paths(), ModeH)
	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeStructuralMismatch))
}

func TestReconstruct_MalformedPathAborts(t *testing.T) {
	paths := append(newPage(1238, 5000).paths(), "M 0,0 C 1,1")
	_, err := Reconstruct(paths, ModeS)
	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeMalformedPath))
}
