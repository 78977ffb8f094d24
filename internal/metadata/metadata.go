// Package metadata reads the patient and measurement block printed on an ECG
// page.
package metadata

import (
	"fmt"
	"strings"

	"github.com/spherical/ecg-extractor/internal/domain"
)

// Lead-name labels printed above the waveforms. Older layouts omit the label
// of the rhythm strip.
const (
	leadLabels        = 14
	rhythmLabelIndex  = 12
	speedMarker       = "mm/s"
	missingUnitBefore = "PR"
)

// Offsets within the measurement block of the tspan layout, counted from the
// item that carries the paper speed.
const (
	idxRate      = 10
	idxRateLabel = 11
	idxPR        = 13
	idxPRLabel   = 14
	idxQRS       = 16
	idxQRSLabel  = 17
	idxQTLabel   = 19
	idxQT        = 20
	idxTAxis     = 21
	idxQRSAxis   = 22
	idxPAxis     = 23
	idxAxesLabel = 24
	idxAge       = 25
	idxGender    = 26
)

var months = map[string]string{
	"JAN": "01", "FEB": "02", "MAR": "03", "APR": "04",
	"MAY": "05", "JUN": "06", "JUL": "07", "AUG": "08",
	"SEP": "09", "OCT": "10", "NOV": "11", "DEC": "12",
}

func invalid(format string, args ...interface{}) error {
	return domain.ValidationError("metadata: "+fmt.Sprintf(format, args...), nil)
}

// skipLeadLabels drops the lead-name labels and reports whether the rhythm
// strip label was missing.
func skipLeadLabels(items []string, labels int) ([]string, bool, error) {
	if len(items) <= labels {
		return nil, false, invalid("only %d text items", len(items))
	}
	if !strings.HasPrefix(items[rhythmLabelIndex], "II") {
		return items[labels-1:], true, nil
	}
	return items[labels:], false, nil
}

// Parse reads patient metadata from the text items of an SVG page, one item
// per tspan.
func Parse(texts []string) (*domain.PatientRecord, error) {
	items, missing, err := skipLeadLabels(texts, leadLabels)
	if err != nil {
		return nil, err
	}
	if len(items) < 3 {
		return nil, invalid("truncated header")
	}

	rec := &domain.PatientRecord{MissingRhythmLabel: missing}
	if rec.PatientID, err = parseID(items[0]); err != nil {
		return nil, err
	}
	stamp := strings.Fields(items[1])
	if len(stamp) < 2 {
		return nil, invalid("malformed study timestamp %q", items[1])
	}
	if rec.StudyDate, err = parseDate(stamp[0]); err != nil {
		return nil, err
	}
	rec.StudyTime = stamp[1]

	speed := indexContaining(items, speedMarker)
	if speed < 3 {
		return nil, invalid("paper speed not found")
	}
	rec.Interpretation = append([]string{}, items[3:speed]...)

	rest := items[speed:]
	if len(rest) > idxPR && strings.HasPrefix(rest[idxPR], missingUnitBefore) {
		fixed := make([]string, 0, len(rest)+1)
		fixed = append(fixed, rest[:idxPR-1]...)
		fixed = append(fixed, "ms")
		rest = append(fixed, rest[idxPR-1:]...)
	}
	if len(rest) <= idxGender {
		return nil, invalid("measurement block has %d items", len(rest))
	}

	for idx, label := range map[int]string{
		idxRateLabel: "Vent. rate",
		idxPRLabel:   "PR interval",
		idxQRSLabel:  "QRS duration",
		idxQTLabel:   "QT/QTc",
		idxAxesLabel: "P-R-T axes",
	} {
		if rest[idx] != label {
			return nil, invalid("expected %q at measurement %d, got %q", label, idx, rest[idx])
		}
	}

	rec.HeartRate = rest[idxRate]
	rec.PRInterval = rest[idxPR]
	rec.QRSInterval = rest[idxQRS]
	if rec.QTInterval, rec.QTcInterval, err = splitQT(rest[idxQT]); err != nil {
		return nil, err
	}
	rec.TAxis = rest[idxTAxis]
	rec.QRSAxis = rest[idxQRSAxis]
	rec.PAxis = rest[idxPAxis]
	if rec.Age, err = parseAge(rest[idxAge]); err != nil {
		return nil, err
	}
	if rec.Gender, err = parseGender(rest[idxGender]); err != nil {
		return nil, err
	}
	return rec, nil
}

// ParseBlocks reads patient metadata from the text blocks of a PDF page,
// where one block can span several lines.
func ParseBlocks(blocks []string) (*domain.PatientRecord, error) {
	items, missing, err := skipLeadLabels(blocks, leadLabels-1)
	if err != nil {
		return nil, err
	}

	rec := &domain.PatientRecord{MissingRhythmLabel: missing}
	header := lines(items[0])
	if len(header) < 3 {
		return nil, invalid("truncated header block")
	}
	if rec.PatientID, err = parseID(header[1]); err != nil {
		return nil, err
	}
	stamp := strings.Fields(header[2])
	if len(stamp) < 2 {
		return nil, invalid("malformed study timestamp %q", header[2])
	}
	if rec.StudyDate, err = parseDate(stamp[0]); err != nil {
		return nil, err
	}
	rec.StudyTime = stamp[len(stamp)-1]

	speed := indexContaining(items, speedMarker)
	if speed < 1 {
		return nil, invalid("paper speed not found")
	}
	for _, d := range items[1:speed] {
		rec.Interpretation = append(rec.Interpretation, strings.TrimSpace(d))
	}

	rest := items[speed:]
	if len(rest) < 9 {
		return nil, invalid("measurement block has %d blocks", len(rest))
	}
	for idx, label := range map[int]string{
		2: "Vent.",
		3: "PR interval",
		4: "QRS duration",
		5: "QT/QTc",
		6: "P-R-T axes",
		7: "yr",
		8: "ale",
	} {
		if !strings.Contains(rest[idx], label) {
			return nil, invalid("expected %q in measurement block %d", label, idx)
		}
	}

	field := func(block, line int) (string, error) {
		l := lines(rest[block])
		if line >= len(l) {
			return "", invalid("measurement block %d has %d lines", block, len(l))
		}
		return l[line], nil
	}

	var qt, axesT, axesQRS, axesP, age, gender string
	for _, f := range []struct {
		dst         *string
		block, line int
	}{
		{&rec.HeartRate, 2, 1},
		{&rec.PRInterval, 3, 1},
		{&rec.QRSInterval, 4, 1},
		{&qt, 5, 2},
		{&axesT, 6, 0},
		{&axesQRS, 6, 1},
		{&axesP, 6, 2},
		{&age, 7, 0},
		{&gender, 8, 0},
	} {
		if *f.dst, err = field(f.block, f.line); err != nil {
			return nil, err
		}
	}

	if rec.QTInterval, rec.QTcInterval, err = splitQT(qt); err != nil {
		return nil, err
	}
	rec.TAxis, rec.QRSAxis, rec.PAxis = axesT, axesQRS, axesP
	if rec.Age, err = parseAge(age); err != nil {
		return nil, err
	}
	if f := strings.Fields(gender); len(f) > 0 {
		gender = f[0]
	}
	if rec.Gender, err = parseGender(gender); err != nil {
		return nil, err
	}
	return rec, nil
}

// SplitBlocks splits page text into blocks separated by blank lines.
func SplitBlocks(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var blocks []string
	for _, b := range strings.Split(text, "\n\n") {
		if strings.TrimSpace(b) == "" {
			continue
		}
		blocks = append(blocks, strings.Trim(b, "\n")+"\n")
	}
	return blocks
}

func lines(block string) []string {
	return strings.Split(strings.TrimRight(block, "\n"), "\n")
}

func indexContaining(items []string, sub string) int {
	for i, s := range items {
		if strings.Contains(s, sub) {
			return i
		}
	}
	return -1
}

func parseID(s string) (string, error) {
	if !strings.HasPrefix(s, "ID:") {
		return "", invalid("expected patient id, got %q", s)
	}
	return strings.TrimSpace(strings.TrimPrefix(s, "ID:")), nil
}

// parseDate turns DD-MON-YYYY into YYYY-MM-DD.
func parseDate(s string) (string, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return "", invalid("malformed date %q", s)
	}
	month, ok := months[strings.ToUpper(parts[1])]
	if !ok {
		return "", invalid("unknown month in %q", s)
	}
	return parts[2] + "-" + month + "-" + parts[0], nil
}

// parseAge accepts "63 yr" and "11-MAY-1959 (59 yr)".
func parseAge(s string) (string, error) {
	f := strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == '(' || r == ')' })
	if len(f) < 2 || f[len(f)-1] != "yr" {
		return "", invalid("malformed age %q", s)
	}
	return f[len(f)-2], nil
}

func parseGender(s string) (string, error) {
	g := strings.ToUpper(strings.TrimSpace(s))
	if g != "MALE" && g != "FEMALE" {
		return "", invalid("unknown gender %q", s)
	}
	return g, nil
}

func splitQT(s string) (string, string, error) {
	qt, qtc, ok := strings.Cut(s, "/")
	if !ok {
		return "", "", invalid("malformed QT/QTc %q", s)
	}
	return qt, qtc, nil
}
