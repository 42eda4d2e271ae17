package stt

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/leonw111/mac-ai-toolkit/domain/entities"
	"github.com/leonw111/mac-ai-toolkit/domain/repositories"
)

// MockTranscriber is an in-memory engine for tests. It returns configured
// segments and records every call so tests can assert on ordering.
type MockTranscriber struct {
	mu sync.Mutex

	// Segments is returned from every transcription.
	Segments []entities.Segment

	// TranscribeErr, when set, fails file transcription.
	TranscribeErr error

	// SessionErr, when set, fails NewSession.
	SessionErr error

	// FinishErr, when set, fails session finalization.
	FinishErr error

	// LocalOnly controls SupportsLocalOnly.
	LocalOnly bool

	// UnsupportedLanguages fail NewSession.
	UnsupportedLanguages []string

	// FilePaths records every Transcribe call's audio path.
	FilePaths []string

	// FedBytes counts PCM bytes fed into live sessions.
	FedBytes int
}

// NewMockTranscriber creates a mock engine that supports local-only mode.
func NewMockTranscriber() *MockTranscriber {
	return &MockTranscriber{LocalOnly: true}
}

func (m *MockTranscriber) Transcribe(_ context.Context, audioPath string, language string, localOnly bool) ([]entities.Segment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FilePaths = append(m.FilePaths, audioPath)
	if m.TranscribeErr != nil {
		return nil, m.TranscribeErr
	}
	return m.Segments, nil
}

func (m *MockTranscriber) SupportsLocalOnly() bool {
	return m.LocalOnly
}

func (m *MockTranscriber) NewSession(_ context.Context, language string) (repositories.TranscriberSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SessionErr != nil {
		return nil, m.SessionErr
	}
	for _, unsupported := range m.UnsupportedLanguages {
		if strings.EqualFold(unsupported, language) {
			return nil, fmt.Errorf("language %q not supported", language)
		}
	}
	return &mockSession{engine: m}, nil
}

type mockSession struct {
	engine   *MockTranscriber
	finished bool
}

func (s *mockSession) Feed(pcm []byte) error {
	s.engine.mu.Lock()
	defer s.engine.mu.Unlock()
	if s.finished {
		return fmt.Errorf("session already finished")
	}
	s.engine.FedBytes += len(pcm)
	return nil
}

func (s *mockSession) Finish(_ context.Context) ([]entities.Segment, error) {
	s.engine.mu.Lock()
	defer s.engine.mu.Unlock()
	if s.finished {
		return nil, fmt.Errorf("session already finished")
	}
	s.finished = true
	if s.engine.FinishErr != nil {
		return nil, s.engine.FinishErr
	}
	return s.engine.Segments, nil
}

func (s *mockSession) Cancel() {
	s.engine.mu.Lock()
	defer s.engine.mu.Unlock()
	s.finished = true
}

var _ repositories.SpeechTranscriber = (*MockTranscriber)(nil)
