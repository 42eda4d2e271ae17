package entities

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a capability failure. Every error that crosses a
// service wrapper boundary carries exactly one of these kinds.
type ErrorKind string

const (
	// 400-class: the caller sent something unusable.
	KindInvalidImage         ErrorKind = "invalid_image"
	KindInvalidAudio         ErrorKind = "invalid_audio"
	KindInvalidText          ErrorKind = "invalid_text"
	KindInvalidConfiguration ErrorKind = "invalid_configuration"

	// 403-class: OS-level permission missing, never silently degraded.
	KindNotAuthorized ErrorKind = "not_authorized"

	// 503-class: the requested language/mode is unsupported on this host.
	KindRecognizerNotAvailable ErrorKind = "recognizer_not_available"
	KindServiceUnavailable     ErrorKind = "service_unavailable"

	// 409-class: state-machine contract violations by the caller.
	KindAlreadyPlaying   ErrorKind = "already_playing"
	KindAlreadyRecording ErrorKind = "already_recording"
	KindNotRecording     ErrorKind = "not_recording"

	// 500-class: engine or I/O failure, wraps the underlying cause.
	KindRecognitionFailed   ErrorKind = "recognition_failed"
	KindSynthesizeFailed    ErrorKind = "synthesize_failed"
	KindTranscriptionFailed ErrorKind = "transcription_failed"
	KindFileWriteFailed     ErrorKind = "file_write_failed"

	// Caller-initiated stop; not a failure for logging purposes.
	KindCancelled ErrorKind = "cancelled"
)

// CapabilityError is the normalized failure description produced at the
// wrapper boundary. Raw engine errors never cross a wrapper unnormalized.
type CapabilityError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *CapabilityError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *CapabilityError) Unwrap() error {
	return e.Err
}

// NewError creates a CapabilityError without an underlying cause.
func NewError(kind ErrorKind, message string) *CapabilityError {
	return &CapabilityError{Kind: kind, Message: message}
}

// WrapError creates a CapabilityError wrapping an underlying cause.
func WrapError(kind ErrorKind, message string, err error) *CapabilityError {
	return &CapabilityError{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the ErrorKind from err. Errors that are not capability
// errors report as KindServiceUnavailable when nil-kind would otherwise leak;
// wrappers are expected to normalize before returning, so this is the
// safety net for the gateway boundary.
func KindOf(err error) ErrorKind {
	var capErr *CapabilityError
	if errors.As(err, &capErr) {
		return capErr.Kind
	}
	return KindServiceUnavailable
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}
