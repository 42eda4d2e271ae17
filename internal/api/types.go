package api

import (
	"net/http"

	"github.com/leonw111/mac-ai-toolkit/domain/entities"
)

// HealthResponse is the /health payload.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// TTSRequest is the /tts payload. Rate, pitch and volume are optional;
// absent values take the documented defaults.
type TTSRequest struct {
	Text         string   `json:"text"`
	Voice        string   `json:"voice,omitempty"`
	Language     string   `json:"language,omitempty"`
	Rate         *float64 `json:"rate,omitempty"`
	Pitch        *float64 `json:"pitch,omitempty"`
	Volume       *float64 `json:"volume,omitempty"`
	OutputFormat string   `json:"outputFormat,omitempty"`
}

// Defaults applied to absent /tts parameters.
const (
	defaultRate   = 0.5
	defaultPitch  = 1.0
	defaultVolume = 1.0
)

// SynthesisRequest converts the wire payload into the typed request.
func (r TTSRequest) SynthesisRequest() entities.SynthesisRequest {
	req := entities.SynthesisRequest{
		Text:     r.Text,
		Voice:    r.Voice,
		Language: r.Language,
		Rate:     defaultRate,
		Pitch:    defaultPitch,
		Volume:   defaultVolume,
	}
	if r.Rate != nil {
		req.Rate = *r.Rate
	}
	if r.Pitch != nil {
		req.Pitch = *r.Pitch
	}
	if r.Volume != nil {
		req.Volume = *r.Volume
	}
	return req
}

// ErrorInfo is the code/message pair carried by every non-2xx response.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse is the error envelope: {"error":{"code","message"}}.
type ErrorResponse struct {
	Error ErrorInfo `json:"error"`
}

// statusForKind maps the capability error taxonomy onto HTTP statuses.
func statusForKind(kind entities.ErrorKind) int {
	switch kind {
	case entities.KindInvalidImage,
		entities.KindInvalidAudio,
		entities.KindInvalidText,
		entities.KindInvalidConfiguration:
		return http.StatusBadRequest
	case entities.KindNotAuthorized:
		return http.StatusForbidden
	case entities.KindAlreadyPlaying,
		entities.KindAlreadyRecording,
		entities.KindNotRecording:
		return http.StatusConflict
	case entities.KindRecognizerNotAvailable,
		entities.KindServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
