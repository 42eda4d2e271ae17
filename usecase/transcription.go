package usecase

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/leonw111/mac-ai-toolkit/domain/entities"
	"github.com/leonw111/mac-ai-toolkit/domain/repositories"
)

type recordingState int

const (
	stateIdle recordingState = iota
	stateRecording
	// stateFinalizing is internal: start sees it as busy, stop sees it as
	// not recordable. It is never exposed to callers.
	stateFinalizing
)

// TranscriptionService is the serialized access point around the
// speech-transcription engine. It handles one-shot file transcription and
// owns the live recording state machine; at most one recording session
// exists per process.
type TranscriptionService struct {
	engine          repositories.SpeechTranscriber
	input           repositories.AudioInput
	history         repositories.HistoryRecorder
	logger          *zap.Logger
	defaultLanguage string

	// engineMu is the serialization boundary for engine calls.
	engineMu sync.Mutex

	// recMu guards the state machine.
	recMu   sync.Mutex
	state   recordingState
	session *recordingSession
}

type recordingSession struct {
	id            string
	capture       repositories.AudioCapture
	engineSession repositories.TranscriberSession
	pumpDone      chan struct{}
}

// NewTranscriptionService creates the transcription wrapper.
func NewTranscriptionService(engine repositories.SpeechTranscriber, input repositories.AudioInput, history repositories.HistoryRecorder, logger *zap.Logger, defaultLanguage string) *TranscriptionService {
	if defaultLanguage == "" {
		defaultLanguage = "en-US"
	}
	return &TranscriptionService{
		engine:          engine,
		input:           input,
		history:         history,
		logger:          logger,
		defaultLanguage: defaultLanguage,
	}
}

// TranscribeFile recognizes speech from an audio file. When localOnly is set
// and the engine cannot guarantee on-device recognition, the call fails
// closed with ServiceUnavailable instead of silently using a network path.
func (s *TranscriptionService) TranscribeFile(ctx context.Context, audioPath string, language string, localOnly bool) (*entities.TranscriptionResult, error) {
	result, err := s.transcribeFile(ctx, audioPath, language, localOnly)
	s.record(ctx, "transcribeFile", err)
	return result, err
}

func (s *TranscriptionService) transcribeFile(ctx context.Context, audioPath string, language string, localOnly bool) (*entities.TranscriptionResult, error) {
	if localOnly && !s.engine.SupportsLocalOnly() {
		return nil, entities.NewError(entities.KindServiceUnavailable, "on-device recognition is not available on this host")
	}
	if language == "" {
		language = s.defaultLanguage
	}

	s.engineMu.Lock()
	segments, err := s.engine.Transcribe(ctx, audioPath, language, localOnly)
	s.engineMu.Unlock()
	if err != nil {
		return nil, entities.WrapError(entities.KindTranscriptionFailed, "transcription engine failed", err)
	}

	result := assembleResult(segments)
	s.logger.Info("transcription completed",
		zap.String("language", language),
		zap.Int("segments", len(result.Segments)),
		zap.Float64("confidence", result.Confidence))
	return result, nil
}

// StartRecording opens the singleton live recording session: it acquires an
// engine session keyed to language and the microphone stream, then feeds
// captured audio to the engine until StopRecording. Partial hypotheses are
// discarded; only StopRecording produces a result.
func (s *TranscriptionService) StartRecording(ctx context.Context, language string) error {
	err := s.startRecording(ctx, language)
	s.record(ctx, "startRecording", err)
	return err
}

func (s *TranscriptionService) startRecording(ctx context.Context, language string) error {
	s.recMu.Lock()
	defer s.recMu.Unlock()

	if s.state != stateIdle {
		return entities.NewError(entities.KindAlreadyRecording, "a recording session is already open")
	}
	if language == "" {
		language = s.defaultLanguage
	}

	engineSession, err := s.engine.NewSession(ctx, language)
	if err != nil {
		return entities.WrapError(entities.KindRecognizerNotAvailable, "recognizer unavailable for language "+language, err)
	}

	capture, err := s.input.Open(ctx)
	if err != nil {
		engineSession.Cancel()
		return entities.WrapError(entities.KindNotAuthorized, "microphone could not be acquired", err)
	}

	session := &recordingSession{
		id:            uuid.NewString(),
		capture:       capture,
		engineSession: engineSession,
		pumpDone:      make(chan struct{}),
	}
	go s.pump(session)

	s.state = stateRecording
	s.session = session
	s.logger.Info("recording started",
		zap.String("session", session.id),
		zap.String("language", language))
	return nil
}

// pump feeds captured audio into the engine session until the capture
// channel closes.
func (s *TranscriptionService) pump(session *recordingSession) {
	defer close(session.pumpDone)
	for {
		select {
		case sample, ok := <-session.capture.Samples():
			if !ok {
				return
			}
			if err := session.engineSession.Feed(sample.Data); err != nil {
				s.logger.Warn("feeding audio failed",
					zap.String("session", session.id),
					zap.Error(err))
			}
		case err, ok := <-session.capture.Errors():
			if ok && err != nil {
				s.logger.Warn("capture error",
					zap.String("session", session.id),
					zap.Error(err))
			}
		}
	}
}

// StopRecording closes the session: it tears down the microphone stream,
// signals end-of-audio, awaits the engine's final result and returns to
// Idle unconditionally, even when the engine fails.
func (s *TranscriptionService) StopRecording(ctx context.Context) (*entities.TranscriptionResult, error) {
	result, err := s.stopRecording(ctx)
	s.record(ctx, "stopRecording", err)
	return result, err
}

func (s *TranscriptionService) stopRecording(ctx context.Context) (*entities.TranscriptionResult, error) {
	s.recMu.Lock()
	if s.state != stateRecording {
		s.recMu.Unlock()
		return nil, entities.NewError(entities.KindNotRecording, "no recording session is open")
	}
	session := s.session
	s.state = stateFinalizing
	s.recMu.Unlock()

	defer func() {
		s.recMu.Lock()
		s.state = stateIdle
		s.session = nil
		s.recMu.Unlock()
	}()

	if err := session.capture.Stop(); err != nil {
		s.logger.Warn("stopping capture failed",
			zap.String("session", session.id),
			zap.Error(err))
	}
	<-session.pumpDone

	s.engineMu.Lock()
	segments, err := session.engineSession.Finish(ctx)
	s.engineMu.Unlock()
	if err != nil {
		return nil, entities.WrapError(entities.KindTranscriptionFailed, "finalizing recording failed", err)
	}

	result := assembleResult(segments)
	s.logger.Info("recording finished",
		zap.String("session", session.id),
		zap.Int("segments", len(result.Segments)),
		zap.Float64("confidence", result.Confidence))
	return result, nil
}

// Recording reports whether a session is currently open. Consumed by the UI.
func (s *TranscriptionService) Recording() bool {
	s.recMu.Lock()
	defer s.recMu.Unlock()
	return s.state != stateIdle
}

func (s *TranscriptionService) record(ctx context.Context, operation string, err error) {
	entry := entities.HistoryEntry{Capability: "transcription", Operation: operation, OK: err == nil}
	if err != nil {
		entry.ErrorKind = string(entities.KindOf(err))
		entry.Detail = err.Error()
	}
	s.history.Record(ctx, entry)
}

// assembleResult orders segments chronologically and aggregates confidence.
func assembleResult(segments []entities.Segment) *entities.TranscriptionResult {
	sort.SliceStable(segments, func(i, j int) bool {
		return segments[i].Timestamp < segments[j].Timestamp
	})
	return entities.NewTranscriptionResult(segments)
}
