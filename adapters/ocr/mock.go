package ocr

import (
	"context"
	"image"

	"go.uber.org/zap"

	"github.com/leonw111/mac-ai-toolkit/domain/entities"
	"github.com/leonw111/mac-ai-toolkit/domain/repositories"
)

// MockRecognizer is a placeholder engine for tests and offline development.
// It returns the configured blocks and records what it was asked.
type MockRecognizer struct {
	logger *zap.Logger

	// Blocks is returned from every Recognize call.
	Blocks []entities.TextBlock

	// Err, when set, is returned instead.
	Err error

	// Calls records the language preference list of each invocation.
	Calls [][]string
}

// NewMockRecognizer creates a mock text-recognition engine.
func NewMockRecognizer(logger *zap.Logger) *MockRecognizer {
	return &MockRecognizer{logger: logger}
}

func (m *MockRecognizer) Recognize(_ context.Context, img image.Image, languages []string, level entities.RecognitionLevel) ([]entities.TextBlock, error) {
	m.Calls = append(m.Calls, languages)
	m.logger.Info("mock recognition",
		zap.Int("width", img.Bounds().Dx()),
		zap.Int("height", img.Bounds().Dy()),
		zap.Strings("languages", languages),
		zap.String("level", string(level)))
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Blocks, nil
}

var _ repositories.TextRecognizer = (*MockRecognizer)(nil)
