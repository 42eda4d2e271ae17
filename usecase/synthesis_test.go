package usecase

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/leonw111/mac-ai-toolkit/adapters/audio"
	"github.com/leonw111/mac-ai-toolkit/adapters/history"
	"github.com/leonw111/mac-ai-toolkit/adapters/tts"
	"github.com/leonw111/mac-ai-toolkit/domain/entities"
	"github.com/leonw111/mac-ai-toolkit/domain/repositories"
)

// fakePlayer blocks until Stop or context cancellation, standing in for a
// real output device.
type fakePlayer struct {
	mu      sync.Mutex
	stop    chan struct{}
	started chan struct{}
	block   bool
}

func newFakePlayer(block bool) *fakePlayer {
	return &fakePlayer{started: make(chan struct{}, 8), block: block}
}

func (p *fakePlayer) Play(ctx context.Context, _ repositories.PCMAudio) error {
	p.mu.Lock()
	stop := make(chan struct{})
	p.stop = stop
	p.mu.Unlock()
	p.started <- struct{}{}
	if !p.block {
		return nil
	}
	select {
	case <-stop:
		return context.Canceled
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *fakePlayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stop != nil {
		select {
		case <-p.stop:
		default:
			close(p.stop)
		}
	}
}

// gatedSynthesizer parks inside Synthesize until released, standing in for
// an engine mid-render.
type gatedSynthesizer struct {
	entered chan struct{}
	release chan struct{}
}

func newGatedSynthesizer() *gatedSynthesizer {
	return &gatedSynthesizer{entered: make(chan struct{}, 1), release: make(chan struct{})}
}

func (g *gatedSynthesizer) Synthesize(context.Context, entities.SynthesisRequest) (repositories.PCMAudio, error) {
	g.entered <- struct{}{}
	<-g.release
	return repositories.PCMAudio{Data: make([]byte, 128), SampleRate: 22050, Channels: 1}, nil
}

func (g *gatedSynthesizer) Voices(context.Context) ([]entities.Voice, error) {
	return nil, nil
}

func newSynthesisService(t *testing.T, engine repositories.SpeechSynthesizer, player repositories.AudioPlayer) *SynthesisService {
	t.Helper()
	encoder, err := audio.NewEncoder("ffmpeg")
	require.NoError(t, err)
	return NewSynthesisService(engine, player, encoder, history.NopRecorder{}, zaptest.NewLogger(t), "", "en-US")
}

func TestSpeakRejectsEmptyText(t *testing.T) {
	engine := tts.NewMockSynthesizer()
	service := newSynthesisService(t, engine, newFakePlayer(false))

	err := service.Speak(context.Background(), entities.SynthesisRequest{Rate: 0.5, Pitch: 1, Volume: 1})
	require.Error(t, err)
	assert.Equal(t, entities.KindInvalidText, entities.KindOf(err))
	assert.Empty(t, engine.Requests, "empty text must never reach the engine")
}

func TestSpeakValidatesRanges(t *testing.T) {
	engine := tts.NewMockSynthesizer()
	service := newSynthesisService(t, engine, newFakePlayer(false))

	tests := []entities.SynthesisRequest{
		{Text: "hi", Rate: 1.5, Pitch: 1, Volume: 1},
		{Text: "hi", Rate: 0.5, Pitch: 0.1, Volume: 1},
		{Text: "hi", Rate: 0.5, Pitch: 1, Volume: 2},
		{Text: "hi", Rate: -0.1, Pitch: 1, Volume: 1},
	}
	for _, req := range tests {
		err := service.Speak(context.Background(), req)
		require.Error(t, err)
		assert.Equal(t, entities.KindInvalidConfiguration, entities.KindOf(err))
	}
	assert.Empty(t, engine.Requests)
}

func TestSpeakIsExclusive(t *testing.T) {
	engine := tts.NewMockSynthesizer()
	player := newFakePlayer(true)
	service := newSynthesisService(t, engine, player)

	first := make(chan error, 1)
	go func() {
		first <- service.Speak(context.Background(), entities.SynthesisRequest{Text: "long utterance", Rate: 0.5, Pitch: 1, Volume: 1})
	}()
	<-player.started

	err := service.Speak(context.Background(), entities.SynthesisRequest{Text: "second", Rate: 0.5, Pitch: 1, Volume: 1})
	require.Error(t, err)
	assert.Equal(t, entities.KindAlreadyPlaying, entities.KindOf(err))

	service.Stop()
	err = <-first
	require.Error(t, err)
	assert.Equal(t, entities.KindCancelled, entities.KindOf(err))
}

func TestStopDuringRenderCancels(t *testing.T) {
	engine := newGatedSynthesizer()
	player := newFakePlayer(true)
	service := newSynthesisService(t, engine, player)

	done := make(chan error, 1)
	go func() {
		done <- service.Speak(context.Background(), entities.SynthesisRequest{Text: "hello", Rate: 0.5, Pitch: 1, Volume: 1})
	}()
	<-engine.entered

	service.Stop()
	close(engine.release)

	err := <-done
	require.Error(t, err)
	assert.Equal(t, entities.KindCancelled, entities.KindOf(err))
	assert.Empty(t, player.started, "playback must not begin after a stop during render")
}

func TestStopIsIdempotent(t *testing.T) {
	service := newSynthesisService(t, tts.NewMockSynthesizer(), newFakePlayer(false))
	service.Stop()
	service.Stop()
}

func TestSpeakCompletesAndReleasesExclusivity(t *testing.T) {
	engine := tts.NewMockSynthesizer()
	service := newSynthesisService(t, engine, newFakePlayer(false))

	req := entities.SynthesisRequest{Text: "hello", Rate: 0.5, Pitch: 1, Volume: 1}
	require.NoError(t, service.Speak(context.Background(), req))
	require.NoError(t, service.Speak(context.Background(), req))
	assert.Len(t, engine.Requests, 2)
}

func TestSynthesizeToFileWAV(t *testing.T) {
	engine := tts.NewMockSynthesizer()
	service := newSynthesisService(t, engine, newFakePlayer(false))
	out := filepath.Join(t.TempDir(), "out.wav")

	err := service.SynthesizeToFile(context.Background(),
		entities.SynthesisRequest{Text: "hello", Rate: 0.5, Pitch: 1, Volume: 1},
		out, entities.FormatWAV)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Greater(t, len(data), 44)
	assert.Equal(t, "RIFF", string(data[:4]))
	assert.Equal(t, "WAVE", string(data[8:12]))
}

func TestSynthesizeToFileWriteFailure(t *testing.T) {
	engine := tts.NewMockSynthesizer()
	service := newSynthesisService(t, engine, newFakePlayer(false))

	err := service.SynthesizeToFile(context.Background(),
		entities.SynthesisRequest{Text: "hello", Rate: 0.5, Pitch: 1, Volume: 1},
		filepath.Join(t.TempDir(), "missing", "nested", "out.wav"), entities.FormatWAV)
	require.Error(t, err)
	assert.Equal(t, entities.KindFileWriteFailed, entities.KindOf(err))
}

func TestSynthesizeRejectsUnknownFormat(t *testing.T) {
	engine := tts.NewMockSynthesizer()
	service := newSynthesisService(t, engine, newFakePlayer(false))

	_, err := service.Synthesize(context.Background(),
		entities.SynthesisRequest{Text: "hello", Rate: 0.5, Pitch: 1, Volume: 1}, "flac")
	require.Error(t, err)
	assert.Equal(t, entities.KindInvalidConfiguration, entities.KindOf(err))
	assert.Empty(t, engine.Requests)
}

func TestSpeakEngineFailureNormalized(t *testing.T) {
	engine := tts.NewMockSynthesizer()
	engine.Err = os.ErrDeadlineExceeded
	service := newSynthesisService(t, engine, newFakePlayer(false))

	err := service.Speak(context.Background(), entities.SynthesisRequest{Text: "hello", Rate: 0.5, Pitch: 1, Volume: 1})
	require.Error(t, err)
	assert.Equal(t, entities.KindSynthesizeFailed, entities.KindOf(err))

	// Exclusivity must be released after a failed attempt.
	engine.Err = nil
	require.Eventually(t, func() bool {
		return service.Speak(context.Background(), entities.SynthesisRequest{Text: "again", Rate: 0.5, Pitch: 1, Volume: 1}) == nil
	}, time.Second, 10*time.Millisecond)
}
