package entities

import "time"

// Segment is one recognized utterance span. Segments within a result are
// non-overlapping and monotonically increasing in start offset.
type Segment struct {
	Text       string  `json:"text"`
	Timestamp  float64 `json:"timestamp"`
	Duration   float64 `json:"duration"`
	Confidence float64 `json:"confidence"`
}

// TranscriptionResult is the outcome of one transcription, whether from a
// file or a live recording. Immutable after creation.
type TranscriptionResult struct {
	Text       string    `json:"text"`
	Confidence float64   `json:"confidence"`
	Segments   []Segment `json:"segments"`
}

// NewTranscriptionResult assembles a result from chronological segments,
// joining their texts with spaces and averaging their confidences.
func NewTranscriptionResult(segments []Segment) *TranscriptionResult {
	result := &TranscriptionResult{Segments: segments}
	if len(segments) == 0 {
		result.Segments = []Segment{}
		return result
	}
	var sum float64
	for i, segment := range segments {
		if i > 0 {
			result.Text += " "
		}
		result.Text += segment.Text
		sum += segment.Confidence
	}
	result.Confidence = sum / float64(len(segments))
	return result
}

// HistoryEntry is one record of a capability invocation, accepted
// fire-and-forget by the history collaborator.
type HistoryEntry struct {
	ID         int64     `json:"id"`
	Capability string    `json:"capability"`
	Operation  string    `json:"operation"`
	OK         bool      `json:"ok"`
	ErrorKind  string    `json:"errorKind,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}
