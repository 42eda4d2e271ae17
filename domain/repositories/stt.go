package repositories

import (
	"context"

	"github.com/leonw111/mac-ai-toolkit/domain/entities"
)

// SpeechTranscriber abstracts the speech-transcription engine.
// Implementations are not required to be safe for concurrent use; the
// transcription service serializes access.
type SpeechTranscriber interface {
	// Transcribe recognizes speech from an audio file and returns the
	// engine's timed segments in chronological order. When localOnly is
	// set the engine must perform recognition entirely on-device or fail;
	// falling back to a network-backed path is not permitted.
	Transcribe(ctx context.Context, audioPath string, language string, localOnly bool) ([]entities.Segment, error)

	// SupportsLocalOnly reports whether on-device-only recognition is
	// available on this host.
	SupportsLocalOnly() bool

	// NewSession opens a live recognition session keyed to language.
	// An unsupported language fails here, before any audio is fed.
	NewSession(ctx context.Context, language string) (TranscriberSession, error)
}

// TranscriberSession is one live recognition session. Audio is fed
// incrementally; only Finish produces a result — partial hypotheses are
// never surfaced.
type TranscriberSession interface {
	// Feed appends captured PCM (s16le) to the session.
	Feed(pcm []byte) error

	// Finish signals end-of-audio, awaits the engine's final result and
	// releases the session. It must be called at most once.
	Finish(ctx context.Context) ([]entities.Segment, error)

	// Cancel abandons the session without producing a result. Safe to call
	// after Finish; it is then a no-op.
	Cancel()
}
