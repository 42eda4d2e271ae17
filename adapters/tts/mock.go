package tts

import (
	"context"
	"sync"

	"github.com/leonw111/mac-ai-toolkit/domain/entities"
	"github.com/leonw111/mac-ai-toolkit/domain/repositories"
)

// MockSynthesizer is an in-memory engine for tests. It produces a
// deterministic PCM payload sized by the request text.
type MockSynthesizer struct {
	mu sync.Mutex

	// Err, when set, fails synthesis.
	Err error

	// VoiceList is returned from Voices.
	VoiceList []entities.Voice

	// Requests records every synthesis request.
	Requests []entities.SynthesisRequest
}

// NewMockSynthesizer creates a mock engine with one default voice.
func NewMockSynthesizer() *MockSynthesizer {
	return &MockSynthesizer{
		VoiceList: []entities.Voice{
			{Identifier: "mock-en-1", Name: "Mock", Language: "en-US", Quality: "default"},
		},
	}
}

func (m *MockSynthesizer) Synthesize(_ context.Context, req entities.SynthesisRequest) (repositories.PCMAudio, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests = append(m.Requests, req)
	if m.Err != nil {
		return repositories.PCMAudio{}, m.Err
	}
	data := make([]byte, len(req.Text)*64)
	for i := range data {
		data[i] = byte(i % 251)
	}
	return repositories.PCMAudio{Data: data, SampleRate: 22050, Channels: 1}, nil
}

func (m *MockSynthesizer) Voices(_ context.Context) ([]entities.Voice, error) {
	return m.VoiceList, nil
}

var _ repositories.SpeechSynthesizer = (*MockSynthesizer)(nil)
