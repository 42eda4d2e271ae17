package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/leonw111/mac-ai-toolkit/domain/entities"
	"github.com/leonw111/mac-ai-toolkit/domain/repositories"
)

// SynthesisService is the serialized access point around the
// speech-synthesis engine. Rendering is served one call at a time; audible
// playback is additionally exclusive, because overlapping speech is a
// user-visible defect rather than a schedulable race.
type SynthesisService struct {
	engine          repositories.SpeechSynthesizer
	player          repositories.AudioPlayer
	encoder         repositories.AudioEncoder
	history         repositories.HistoryRecorder
	logger          *zap.Logger
	defaultVoice    string
	defaultLanguage string

	mu       sync.Mutex
	speaking atomic.Bool

	// cancelSpeak cancels the Speak currently holding the exclusivity flag,
	// covering the render leg as well as playback.
	cancelMu    sync.Mutex
	cancelSpeak context.CancelFunc
}

// NewSynthesisService creates the synthesis wrapper with the configured
// capability defaults.
func NewSynthesisService(
	engine repositories.SpeechSynthesizer,
	player repositories.AudioPlayer,
	encoder repositories.AudioEncoder,
	history repositories.HistoryRecorder,
	logger *zap.Logger,
	defaultVoice string,
	defaultLanguage string,
) *SynthesisService {
	return &SynthesisService{
		engine:          engine,
		player:          player,
		encoder:         encoder,
		history:         history,
		logger:          logger,
		defaultVoice:    defaultVoice,
		defaultLanguage: defaultLanguage,
	}
}

func (s *SynthesisService) applyDefaults(req entities.SynthesisRequest) entities.SynthesisRequest {
	if req.Voice == "" {
		req.Voice = s.defaultVoice
	}
	if req.Language == "" {
		req.Language = s.defaultLanguage
	}
	return req
}

// Speak renders the request and plays it on the default output device,
// blocking until playback completes. A second call while one is in flight
// fails with AlreadyPlaying rather than queuing silently.
func (s *SynthesisService) Speak(ctx context.Context, req entities.SynthesisRequest) error {
	err := s.speak(ctx, req)
	s.record(ctx, "speak", err)
	return err
}

func (s *SynthesisService) speak(ctx context.Context, req entities.SynthesisRequest) error {
	req = s.applyDefaults(req)
	if err := req.Validate(); err != nil {
		return err
	}

	if !s.speaking.CompareAndSwap(false, true) {
		return entities.NewError(entities.KindAlreadyPlaying, "speech is already playing")
	}
	defer s.speaking.Store(false)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.cancelMu.Lock()
	s.cancelSpeak = cancel
	s.cancelMu.Unlock()
	defer func() {
		s.cancelMu.Lock()
		s.cancelSpeak = nil
		s.cancelMu.Unlock()
	}()

	pcm, err := s.render(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return entities.WrapError(entities.KindCancelled, "speech stopped during synthesis", ctx.Err())
		}
		return err
	}
	// A Stop issued while the engine was rendering must win before any
	// audio is emitted.
	if ctx.Err() != nil {
		return entities.WrapError(entities.KindCancelled, "speech stopped during synthesis", ctx.Err())
	}

	if err := s.player.Play(ctx, pcm); err != nil {
		if errors.Is(err, context.Canceled) {
			return entities.WrapError(entities.KindCancelled, "playback stopped", err)
		}
		return entities.WrapError(entities.KindSynthesizeFailed, "playback failed", err)
	}
	return nil
}

// Stop cancels an in-flight Speak, whether it is still rendering or already
// playing. Idempotent: stopping when nothing is in flight is a no-op.
func (s *SynthesisService) Stop() {
	s.cancelMu.Lock()
	if s.cancelSpeak != nil {
		s.cancelSpeak()
	}
	s.cancelMu.Unlock()
	s.player.Stop()
}

// Synthesize renders the request into memory in the given container format.
// Used by the HTTP gateway.
func (s *SynthesisService) Synthesize(ctx context.Context, req entities.SynthesisRequest, format entities.AudioFormat) ([]byte, error) {
	data, err := s.synthesize(ctx, req, format)
	s.record(ctx, "synthesize", err)
	return data, err
}

func (s *SynthesisService) synthesize(ctx context.Context, req entities.SynthesisRequest, format entities.AudioFormat) ([]byte, error) {
	req = s.applyDefaults(req)
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if !format.Valid() {
		return nil, entities.NewError(entities.KindInvalidConfiguration, "unsupported output format")
	}

	pcm, err := s.render(ctx, req)
	if err != nil {
		return nil, err
	}

	data, err := s.encoder.Encode(ctx, format, pcm)
	if err != nil {
		return nil, normalizeEncodeError(err)
	}
	return data, nil
}

// SynthesizeToFile renders the request and writes it to outputPath in the
// given container format. A write failure reports FileWriteFailed so callers
// can tell "the audio is fine, the disk isn't" from a synthesis failure.
func (s *SynthesisService) SynthesizeToFile(ctx context.Context, req entities.SynthesisRequest, outputPath string, format entities.AudioFormat) error {
	err := s.synthesizeToFile(ctx, req, outputPath, format)
	s.record(ctx, "synthesizeToFile", err)
	return err
}

func (s *SynthesisService) synthesizeToFile(ctx context.Context, req entities.SynthesisRequest, outputPath string, format entities.AudioFormat) error {
	req = s.applyDefaults(req)
	if err := req.Validate(); err != nil {
		return err
	}
	if !format.Valid() {
		return entities.NewError(entities.KindInvalidConfiguration, "unsupported output format")
	}

	pcm, err := s.render(ctx, req)
	if err != nil {
		return err
	}

	if err := s.encoder.WriteFile(ctx, outputPath, format, pcm); err != nil {
		return normalizeEncodeError(err)
	}
	s.logger.Info("synthesized to file",
		zap.String("path", outputPath),
		zap.String("format", string(format)))
	return nil
}

func (s *SynthesisService) render(ctx context.Context, req entities.SynthesisRequest) (repositories.PCMAudio, error) {
	s.mu.Lock()
	pcm, err := s.engine.Synthesize(ctx, req)
	s.mu.Unlock()
	if err != nil {
		return repositories.PCMAudio{}, entities.WrapError(entities.KindSynthesizeFailed, "synthesis engine failed", err)
	}
	return pcm, nil
}

// Voices enumerates the engine's voices.
func (s *SynthesisService) Voices(ctx context.Context) ([]entities.Voice, error) {
	s.mu.Lock()
	voices, err := s.engine.Voices(ctx)
	s.mu.Unlock()
	if err != nil {
		return nil, entities.WrapError(entities.KindServiceUnavailable, "voice enumeration failed", err)
	}
	if voices == nil {
		voices = []entities.Voice{}
	}
	return voices, nil
}

func (s *SynthesisService) record(ctx context.Context, operation string, err error) {
	entry := entities.HistoryEntry{Capability: "synthesis", Operation: operation, OK: err == nil}
	if err != nil {
		entry.ErrorKind = string(entities.KindOf(err))
		entry.Detail = err.Error()
	}
	s.history.Record(ctx, entry)
}

// normalizeEncodeError keeps capability kinds assigned by the encoder
// (FileWriteFailed, InvalidConfiguration) and classifies everything else as
// a synthesis failure.
func normalizeEncodeError(err error) error {
	var capErr *entities.CapabilityError
	if errors.As(err, &capErr) {
		return err
	}
	return entities.WrapError(entities.KindSynthesizeFailed, "audio encode failed", err)
}
