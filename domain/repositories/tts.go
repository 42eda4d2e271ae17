package repositories

import (
	"context"

	"github.com/leonw111/mac-ai-toolkit/domain/entities"
)

// PCMAudio is raw audio produced by a synthesis engine: little-endian
// 16-bit signed samples.
type PCMAudio struct {
	Data       []byte
	SampleRate int
	Channels   int
}

// SpeechSynthesizer abstracts the speech-synthesis engine. Implementations
// are not required to be safe for concurrent use; the synthesis service
// serializes access.
type SpeechSynthesizer interface {
	// Synthesize renders the request to raw PCM in memory.
	Synthesize(ctx context.Context, req entities.SynthesisRequest) (PCMAudio, error)

	// Voices enumerates the voices the engine offers.
	Voices(ctx context.Context) ([]entities.Voice, error)
}
