// Package ecgtest builds synthetic mode S pages for tests of the packages
// that sit on top of the reconstruction pipeline.
package ecgtest

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"math"
	"strings"

	"github.com/spherical/ecg-extractor/internal/domain"
	"github.com/spherical/ecg-extractor/internal/ecg"
)

// Baselines are the marker heights of the four rows, top row first.
var Baselines = []float64{300, 200, 100, 0}

// Page lengths for the two supported rates.
const (
	LeadLength250   = 619
	RhythmLength250 = 2500
	LeadLength500   = 1238
	RhythmLength500 = 5000
)

// Sample is the corrected amplitude of lead at index i.
func Sample(lead domain.Lead, i int) float64 {
	return offset(lead) + math.Sin(float64(i)/10)
}

// Expected returns the first n corrected samples of lead.
func Expected(lead domain.Lead, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = Sample(lead, i)
	}
	return out
}

func offset(lead domain.Lead) float64 {
	for i, o := range ecg.StandardLayout.Output {
		if o == lead {
			return float64(i) * 2
		}
	}
	return 0
}

// Paths returns the path data of a page with the given grid and rhythm
// strip lengths.
func Paths(leadLength, rhythmLength int) []string {
	m := ecg.ModeS
	var out []string
	for i, y := range Baselines {
		var b strings.Builder
		fmt.Fprintf(&b, "M %g,%g", -100-float64(i), y)
		for j := 1; j < m.TickLength; j++ {
			fmt.Fprintf(&b, " L %g,%g", -100-float64(i), y+m.Gap)
		}
		out = append(out, b.String())
	}
	for r, row := range ecg.StandardLayout.Rows {
		for c, lead := range row {
			out = append(out, wave(float64(c)*2000, Baselines[r], lead, leadLength))
		}
	}
	out = append(out, wave(0, Baselines[len(Baselines)-1], ecg.StandardLayout.Rhythm, rhythmLength))
	return append(out, "M 0,0 L 10,0 L 10,10 Z")
}

func wave(x0, base float64, lead domain.Lead, n int) string {
	var b strings.Builder
	b.WriteString("M")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, " %g,%g", x0+float64(i), base+Sample(lead, i))
	}
	return b.String()
}

// SVG renders a page as an SVG document. Each text becomes one tspan.
func SVG(leadLength, rhythmLength int, texts ...string) []byte {
	var b bytes.Buffer
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<svg xmlns="http://www.w3.org/2000/svg" width="1000" height="800">` + "\n")
	for _, d := range Paths(leadLength, rhythmLength) {
		fmt.Fprintf(&b, "<path d=\"%s\" fill=\"none\"/>\n", d)
	}
	for _, t := range texts {
		b.WriteString("<text><tspan>")
		_ = xml.EscapeText(&b, []byte(t))
		b.WriteString("</tspan></text>\n")
	}
	b.WriteString("</svg>\n")
	return b.Bytes()
}

// Texts returns the text items of a page whose patient block parses.
func Texts() []string {
	out := []string{"I", "aVR", "V1", "V4", "II", "aVL", "V2", "V5", "III", "aVF", "V3", "V6", "II", "Lead II"}
	out = append(out, "ID:12345", "29-MAY-2014 08:54:41", "Page 1", "Sinus rhythm", "Normal ECG")
	out = append(out, "25mm/s 10mm/mV 40Hz", "", "", "", "", "", "", "", "", "")
	return append(out,
		"72", "Vent. rate", "ms", "160", "PR interval", "ms", "92", "QRS duration", "ms",
		"QT/QTc", "380/410", "45", "30", "60", "P-R-T axes", "11-MAY-1959 (59 yr)", "Male",
	)
}
