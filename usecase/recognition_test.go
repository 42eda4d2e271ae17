package usecase

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/leonw111/mac-ai-toolkit/adapters/history"
	"github.com/leonw111/mac-ai-toolkit/adapters/ocr"
	"github.com/leonw111/mac-ai-toolkit/domain/entities"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 16))
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestRecognizeAggregatesConfidence(t *testing.T) {
	engine := ocr.NewMockRecognizer(zaptest.NewLogger(t))
	engine.Blocks = []entities.TextBlock{
		{Text: "Hello", Confidence: 0.9},
		{Text: "World", Confidence: 0.5},
	}
	service := NewRecognitionService(engine, history.NopRecorder{}, zaptest.NewLogger(t), "en-US")

	result, err := service.Recognize(context.Background(), pngBytes(t), "en-US", entities.RecognitionAccurate)
	require.NoError(t, err)
	assert.Equal(t, "Hello\nWorld", result.Text)
	assert.InDelta(t, 0.7, result.Confidence, 1e-9)
	assert.Equal(t, "en-US", result.Language)
}

func TestRecognizeNoTextIsAResultNotAnError(t *testing.T) {
	engine := ocr.NewMockRecognizer(zaptest.NewLogger(t))
	service := NewRecognitionService(engine, history.NopRecorder{}, zaptest.NewLogger(t), "en-US")

	result, err := service.Recognize(context.Background(), pngBytes(t), "", "")
	require.NoError(t, err)
	assert.Empty(t, result.Text)
	assert.Zero(t, result.Confidence)
	assert.Empty(t, result.Blocks)
}

func TestRecognizeInvalidImage(t *testing.T) {
	engine := ocr.NewMockRecognizer(zaptest.NewLogger(t))
	service := NewRecognitionService(engine, history.NopRecorder{}, zaptest.NewLogger(t), "en-US")

	_, err := service.Recognize(context.Background(), []byte("not an image"), "en-US", "")
	require.Error(t, err)
	assert.Equal(t, entities.KindInvalidImage, entities.KindOf(err))
	assert.Empty(t, engine.Calls, "undecodable input must never reach the engine")
}

func TestRecognizeInvalidLevel(t *testing.T) {
	engine := ocr.NewMockRecognizer(zaptest.NewLogger(t))
	service := NewRecognitionService(engine, history.NopRecorder{}, zaptest.NewLogger(t), "en-US")

	_, err := service.Recognize(context.Background(), pngBytes(t), "en-US", "turbo")
	require.Error(t, err)
	assert.Equal(t, entities.KindInvalidConfiguration, entities.KindOf(err))
}

func TestExpandLanguages(t *testing.T) {
	tests := []struct {
		hint string
		want []string
	}{
		{"en-US", []string{"en-US", "en"}},
		{"de-DE", []string{"de-DE", "de", "en"}},
		{"fr", []string{"fr", "en"}},
		{"en", []string{"en"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExpandLanguages(tt.hint), "hint %q", tt.hint)
	}
}

// overlapDetector fails the test if two recognitions ever run concurrently.
type overlapDetector struct {
	inFlight atomic.Int32
	overlap  atomic.Bool
	calls    atomic.Int32
}

func (d *overlapDetector) Recognize(_ context.Context, _ image.Image, _ []string, _ entities.RecognitionLevel) ([]entities.TextBlock, error) {
	if d.inFlight.Add(1) > 1 {
		d.overlap.Store(true)
	}
	defer d.inFlight.Add(-1)
	d.calls.Add(1)
	return nil, nil
}

func TestRecognizeSerializesEngineAccess(t *testing.T) {
	engine := &overlapDetector{}
	service := NewRecognitionService(engine, history.NopRecorder{}, zaptest.NewLogger(t), "en-US")
	img := pngBytes(t)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = service.Recognize(context.Background(), img, "en-US", entities.RecognitionFast)
		}()
	}
	wg.Wait()

	assert.False(t, engine.overlap.Load(), "engine observed overlapping calls")
	assert.EqualValues(t, 16, engine.calls.Load())
}
