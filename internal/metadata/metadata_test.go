package metadata

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical/ecg-extractor/internal/domain"
)

var labels = []string{"I", "aVR", "V1", "V4", "II", "aVL", "V2", "V5", "III", "aVF", "V3", "V6", "II", "Lead II"}

func measurements() []string {
	return []string{
		"25mm/s 10mm/mV 40Hz", // 0
		"", "", "", "", "", "", "", "", "",
		"72",           // 10
		"Vent. rate",   // 11
		"ms",           // 12
		"160",          // 13
		"PR interval",  // 14
		"ms",           // 15
		"92",           // 16
		"QRS duration", // 17
		"ms",           // 18
		"QT/QTc",       // 19
		"380/410",      // 20
		"45",           // 21
		"30",           // 22
		"60",           // 23
		"P-R-T axes",   // 24
		"11-MAY-1959 (59 yr)",
		"Male",
	}
}

func tspans(labels []string, measures []string) []string {
	var out []string
	out = append(out, labels...)
	out = append(out, "ID:12345", "29-MAY-2014 08:54:41", "Page 1", "Sinus rhythm", "Normal ECG")
	return append(out, measures...)
}

func TestParse(t *testing.T) {
	rec, err := Parse(tspans(labels, measurements()))
	require.NoError(t, err)

	assert.Equal(t, &domain.PatientRecord{
		PatientID:      "12345",
		StudyDate:      "2014-05-29",
		StudyTime:      "08:54:41",
		Gender:         "MALE",
		Age:            "59",
		HeartRate:      "72",
		PRInterval:     "160",
		QRSInterval:    "92",
		QTInterval:     "380",
		QTcInterval:    "410",
		PAxis:          "60",
		QRSAxis:        "30",
		TAxis:          "45",
		Interpretation: []string{"Sinus rhythm", "Normal ECG"},
	}, rec)
}

func TestParse_MissingRhythmLabel(t *testing.T) {
	short := append([]string{}, labels[:12]...)
	short = append(short, "Lead II")
	rec, err := Parse(tspans(short, measurements()))
	require.NoError(t, err)
	assert.True(t, rec.MissingRhythmLabel)
	assert.Equal(t, "12345", rec.PatientID)
}

func TestParse_ReinsertsMissingUnit(t *testing.T) {
	m := measurements()
	m = append(m[:12], m[13:]...)
	rec, err := Parse(tspans(labels, m))
	require.NoError(t, err)
	assert.Equal(t, "160", rec.PRInterval)
	assert.Equal(t, "92", rec.QRSInterval)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		items func() []string
		msg   string
	}{
		{
			name:  "too few items",
			items: func() []string { return labels[:5] },
			msg:   "text items",
		},
		{
			name: "no patient id",
			items: func() []string {
				it := tspans(labels, measurements())
				it[14] = "12345"
				return it
			},
			msg: "patient id",
		},
		{
			name: "unknown month",
			items: func() []string {
				it := tspans(labels, measurements())
				it[15] = "29-FOO-2014 08:54:41"
				return it
			},
			msg: "month",
		},
		{
			name: "no paper speed",
			items: func() []string {
				m := measurements()
				m[0] = "speed"
				return tspans(labels, m)
			},
			msg: "paper speed",
		},
		{
			name: "label out of place",
			items: func() []string {
				m := measurements()
				m[17] = "QRS"
				return tspans(labels, m)
			},
			msg: "QRS duration",
		},
		{
			name: "unknown gender",
			items: func() []string {
				m := measurements()
				m[26] = "Unknown"
				return tspans(labels, m)
			},
			msg: "gender",
		},
		{
			name: "truncated block",
			items: func() []string {
				return tspans(labels, measurements()[:20])
			},
			msg: "measurement block",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := Parse(tt.items())
			require.Error(t, err)
			assert.Nil(t, rec)
			assert.True(t, domain.IsType(err, domain.ErrorTypeValidation))
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestParseAge(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"63 yr", "63", true},
		{"11-MAY-1959 (59 yr)", "59", true},
		{"63 years", "", false},
		{"yr", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseAge(tt.in)
			if !tt.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

const pdfText = `I

aVR

V1

V4

II

aVL

V2

V5

III

aVF

V3

V6

II

Hospital
ID:12345
29-MAY-2014 at 08:54:41

Sinus rhythm

Normal ECG

25mm/s 10mm/mV

Technician

Vent. rate
72
bpm

PR interval
160
ms

QRS duration
92
ms

QT/QTc
ms
380/410

45
30
60
P-R-T axes

63 yr

Female Caucasian
`

func TestParseBlocks(t *testing.T) {
	blocks := SplitBlocks(pdfText)
	require.Len(t, blocks, 25)

	rec, err := ParseBlocks(blocks)
	require.NoError(t, err)

	assert.Equal(t, "12345", rec.PatientID)
	assert.Equal(t, "2014-05-29", rec.StudyDate)
	assert.Equal(t, "08:54:41", rec.StudyTime)
	assert.Equal(t, []string{"Sinus rhythm", "Normal ECG"}, rec.Interpretation)
	assert.Equal(t, "72", rec.HeartRate)
	assert.Equal(t, "160", rec.PRInterval)
	assert.Equal(t, "92", rec.QRSInterval)
	assert.Equal(t, "380", rec.QTInterval)
	assert.Equal(t, "410", rec.QTcInterval)
	assert.Equal(t, "45", rec.TAxis)
	assert.Equal(t, "30", rec.QRSAxis)
	assert.Equal(t, "60", rec.PAxis)
	assert.Equal(t, "63", rec.Age)
	assert.Equal(t, "FEMALE", rec.Gender)
	assert.False(t, rec.MissingRhythmLabel)
}

func TestParseBlocks_MissingRhythmLabel(t *testing.T) {
	text := strings.Replace(pdfText, "V6\n\nII\n\n", "V6\n\n", 1)
	rec, err := ParseBlocks(SplitBlocks(text))
	require.NoError(t, err)
	assert.True(t, rec.MissingRhythmLabel)
	assert.Equal(t, "FEMALE", rec.Gender)
}

func TestParseBlocks_BadLabel(t *testing.T) {
	text := strings.Replace(pdfText, "P-R-T axes", "axes", 1)
	_, err := ParseBlocks(SplitBlocks(text))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "P-R-T axes")
}
