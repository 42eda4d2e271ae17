package entities

// AudioFormat is the container format for synthesized audio output.
type AudioFormat string

const (
	FormatWAV AudioFormat = "wav"
	FormatMP3 AudioFormat = "mp3"
	FormatAAC AudioFormat = "aac"
	FormatM4A AudioFormat = "m4a"
)

// ContentType returns the MIME type for the format.
func (f AudioFormat) ContentType() string {
	switch f {
	case FormatWAV:
		return "audio/wav"
	case FormatMP3:
		return "audio/mpeg"
	case FormatAAC:
		return "audio/aac"
	case FormatM4A:
		return "audio/mp4"
	default:
		return "application/octet-stream"
	}
}

// Valid reports whether the format is one of the supported containers.
func (f AudioFormat) Valid() bool {
	switch f {
	case FormatWAV, FormatMP3, FormatAAC, FormatM4A:
		return true
	}
	return false
}

// Synthesis parameter ranges. Values outside these bounds are rejected
// with KindInvalidConfiguration before touching the engine.
const (
	RateMin   = 0.0
	RateMax   = 1.0
	PitchMin  = 0.5
	PitchMax  = 2.0
	VolumeMin = 0.0
	VolumeMax = 1.0
)

// SynthesisRequest holds parameters for one speech-synthesis invocation.
type SynthesisRequest struct {
	Text     string
	Voice    string
	Language string
	Rate     float64
	Pitch    float64
	Volume   float64
}

// Validate checks the contractual parameter ranges.
func (r SynthesisRequest) Validate() error {
	if r.Text == "" {
		return NewError(KindInvalidText, "text must not be empty")
	}
	if r.Rate < RateMin || r.Rate > RateMax {
		return NewError(KindInvalidConfiguration, "rate must be within [0,1]")
	}
	if r.Pitch < PitchMin || r.Pitch > PitchMax {
		return NewError(KindInvalidConfiguration, "pitch must be within [0.5,2.0]")
	}
	if r.Volume < VolumeMin || r.Volume > VolumeMax {
		return NewError(KindInvalidConfiguration, "volume must be within [0,1]")
	}
	return nil
}

// Voice describes one engine voice.
type Voice struct {
	Identifier string `json:"identifier"`
	Name       string `json:"name"`
	Language   string `json:"language"`
	Quality    string `json:"quality"`
}
