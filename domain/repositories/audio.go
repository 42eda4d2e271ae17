package repositories

import (
	"context"

	"github.com/leonw111/mac-ai-toolkit/domain/entities"
)

// AudioSample is one chunk of captured microphone audio (s16le PCM).
type AudioSample struct {
	Data   []byte
	Frames uint32
}

// AudioCapture is an open microphone stream. Samples are delivered on a
// buffered channel; overflow is reported on Errors rather than blocking the
// device callback.
type AudioCapture interface {
	Samples() <-chan AudioSample
	Errors() <-chan error

	// Stop closes the stream and both channels. Idempotent.
	Stop() error
}

// AudioInput acquires the microphone. Open fails when the device cannot be
// acquired, which includes missing OS-level permission.
type AudioInput interface {
	Open(ctx context.Context) (AudioCapture, error)
}

// AudioEncoder writes PCM into a real container of the requested format.
type AudioEncoder interface {
	// WriteFile encodes pcm into outputPath.
	WriteFile(ctx context.Context, outputPath string, format entities.AudioFormat, pcm PCMAudio) error

	// Encode renders pcm into memory.
	Encode(ctx context.Context, format entities.AudioFormat, pcm PCMAudio) ([]byte, error)
}

// AudioPlayer renders PCM to the default output device. Play blocks until
// the audio has finished, the context is cancelled, or Stop is called; the
// completion comes from the device draining its buffer, not from polling.
type AudioPlayer interface {
	Play(ctx context.Context, audio PCMAudio) error

	// Stop interrupts an in-flight Play. Calling it when nothing is playing
	// is a no-op.
	Stop()
}
