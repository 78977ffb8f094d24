package domain

import (
	"time"

	"github.com/google/uuid"
)

// Lead identifies one printed ECG channel.
type Lead string

const (
	LeadI   Lead = "I"
	LeadII  Lead = "II"
	LeadIII Lead = "III"
	LeadAVR Lead = "aVR"
	LeadAVL Lead = "aVL"
	LeadAVF Lead = "aVF"
	LeadV1  Lead = "V1"
	LeadV2  Lead = "V2"
	LeadV3  Lead = "V3"
	LeadV4  Lead = "V4"
	LeadV5  Lead = "V5"
	LeadV6  Lead = "V6"

	// LeadRhythmII is the long lead II strip printed across the bottom of the page.
	LeadRhythmII Lead = "II-rhythm"
)

// Frequency is a sampling rate in Hz.
type Frequency int

const (
	Frequency250 Frequency = 250
	Frequency500 Frequency = 500
)

// LeadSignal is one baseline-corrected amplitude sequence.
type LeadSignal struct {
	Lead    Lead      `json:"lead"`
	Samples []float64 `json:"samples"`
}

// Frame is the reconstructed content of one ECG page: thirteen lead signals
// in output order and the sampling frequency they are expressed at.
type Frame struct {
	Leads     []LeadSignal `json:"leads"`
	Frequency Frequency    `json:"frequency"`

	// SourceFrequency is the rate inferred from the page. It differs from
	// Frequency only when the frame was resampled after reconstruction.
	SourceFrequency Frequency `json:"source_frequency"`
}

// Lead returns the samples recorded for the given lead.
func (f *Frame) Lead(lead Lead) ([]float64, bool) {
	for _, s := range f.Leads {
		if s.Lead == lead {
			return s.Samples, true
		}
	}
	return nil, false
}

// Amplitudes returns the bare sample sequences in output order.
func (f *Frame) Amplitudes() [][]float64 {
	out := make([][]float64, len(f.Leads))
	for i, s := range f.Leads {
		out[i] = s.Samples
	}
	return out
}

// PatientRecord holds the measurements and demographics printed on the page.
type PatientRecord struct {
	PatientID      string   `json:"patient_id"`
	StudyDate      string   `json:"study_date"` // YYYY-MM-DD
	StudyTime      string   `json:"study_time"` // HH:MM:SS
	Gender         string   `json:"gender"`
	Age            string   `json:"age"`
	HeartRate      string   `json:"heart_rate"`
	PRInterval     string   `json:"pr_interval"`
	QRSInterval    string   `json:"qrs_interval"`
	QTInterval     string   `json:"qt_interval"`
	QTcInterval    string   `json:"qtc_interval"`
	PAxis          string   `json:"p_axis"`
	QRSAxis        string   `json:"qrs_axis"`
	TAxis          string   `json:"t_axis"`
	Interpretation []string `json:"interpretation"`

	// MissingRhythmLabel is set for older layouts that omit the label of the
	// long lead II strip.
	MissingRhythmLabel bool `json:"missing_rhythm_label,omitempty"`
}

// Record is a processed page ready to be persisted.
type Record struct {
	ID         uuid.UUID      `json:"id"`
	SourcePath string         `json:"source_path"`
	FileName   string         `json:"file_name"`
	Mode       string         `json:"mode"`
	Frame      Frame          `json:"frame"`
	Metadata   *PatientRecord `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// PageResult is the outcome of processing one input during a batch.
// Exactly one of Record and Err is set.
type PageResult struct {
	Path   string
	Record *Record
	Err    error
}

// Failed reports whether the page could not be processed.
func (r PageResult) Failed() bool {
	return r.Err != nil
}

// EventType represents the type of stream event
type EventType string

const (
	EventStart          EventType = "start"
	EventPageProcessing EventType = "page_processing"
	EventPageComplete   EventType = "page_complete"
	EventPageSkipped    EventType = "page_skipped"
	EventError          EventType = "error"
	EventComplete       EventType = "complete"
)

// StreamEvent represents an event emitted during processing
type StreamEvent struct {
	Type      EventType   `json:"type"`
	Path      string      `json:"path,omitempty"`
	Payload   interface{} `json:"payload,omitempty"` // status message or *Record
	Timestamp time.Time   `json:"timestamp"`
}

// ProcessingStats contains metadata about a batch execution
type ProcessingStats struct {
	TotalTime       time.Duration
	PagesProcessed  int
	SuccessfulPages int
	FailedPages     int
	CachedPages     int
}
