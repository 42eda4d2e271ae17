package usecase

import (
	"bytes"
	"context"
	"image"
	"strings"
	"sync"

	// Register decoders for the common raster formats accepted on /ocr.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"go.uber.org/zap"

	"github.com/leonw111/mac-ai-toolkit/domain/entities"
	"github.com/leonw111/mac-ai-toolkit/domain/repositories"
)

// fallbackLanguage closes every expanded language preference list so the
// engine always has a generic candidate.
const fallbackLanguage = "en"

// RecognitionService is the serialized access point around the
// text-recognition engine. Concurrent callers queue on the internal mutex
// and are serviced one at a time; the engine is never entered twice
// concurrently.
type RecognitionService struct {
	engine          repositories.TextRecognizer
	history         repositories.HistoryRecorder
	logger          *zap.Logger
	defaultLanguage string
	mu              sync.Mutex
}

// NewRecognitionService creates the recognition wrapper. defaultLanguage is
// the configured capability default used when a caller sends no hint.
func NewRecognitionService(engine repositories.TextRecognizer, history repositories.HistoryRecorder, logger *zap.Logger, defaultLanguage string) *RecognitionService {
	if defaultLanguage == "" {
		defaultLanguage = "en-US"
	}
	return &RecognitionService{
		engine:          engine,
		history:         history,
		logger:          logger,
		defaultLanguage: defaultLanguage,
	}
}

// Recognize decodes imageBytes and runs text recognition. An image with no
// recognizable text yields an empty result with confidence 0, not an error.
func (s *RecognitionService) Recognize(ctx context.Context, imageBytes []byte, languageHint string, level entities.RecognitionLevel) (*entities.RecognitionResult, error) {
	result, err := s.recognize(ctx, imageBytes, languageHint, level)
	s.record(ctx, "recognize", err)
	return result, err
}

func (s *RecognitionService) recognize(ctx context.Context, imageBytes []byte, languageHint string, level entities.RecognitionLevel) (*entities.RecognitionResult, error) {
	switch level {
	case entities.RecognitionFast, entities.RecognitionAccurate:
	case "":
		level = entities.RecognitionAccurate
	default:
		return nil, entities.NewError(entities.KindInvalidConfiguration, "recognitionLevel must be fast or accurate")
	}

	img, _, err := image.Decode(bytes.NewReader(imageBytes))
	if err != nil {
		return nil, entities.WrapError(entities.KindInvalidImage, "image could not be decoded", err)
	}

	if languageHint == "" {
		languageHint = s.defaultLanguage
	}
	languages := ExpandLanguages(languageHint)

	s.mu.Lock()
	blocks, err := s.engine.Recognize(ctx, img, languages, level)
	s.mu.Unlock()
	if err != nil {
		return nil, entities.WrapError(entities.KindRecognitionFailed, "recognition engine failed", err)
	}

	result := entities.NewRecognitionResult(languageHint, blocks)
	s.logger.Info("recognition completed",
		zap.String("language", languageHint),
		zap.Int("blocks", len(result.Blocks)),
		zap.Float64("confidence", result.Confidence))
	return result, nil
}

func (s *RecognitionService) record(ctx context.Context, operation string, err error) {
	entry := entities.HistoryEntry{Capability: "recognition", Operation: operation, OK: err == nil}
	if err != nil {
		entry.ErrorKind = string(entities.KindOf(err))
		entry.Detail = err.Error()
	}
	s.history.Record(ctx, entry)
}

// ExpandLanguages turns a BCP-47-like hint into the ordered preference list
// handed to the engine: the hint first, then its primary-subtag family, then
// the generic fallback, deduplicated.
func ExpandLanguages(hint string) []string {
	var languages []string
	seen := map[string]bool{}
	add := func(tag string) {
		key := strings.ToLower(tag)
		if tag != "" && !seen[key] {
			seen[key] = true
			languages = append(languages, tag)
		}
	}
	add(hint)
	if idx := strings.IndexAny(hint, "-_"); idx > 0 {
		add(hint[:idx])
	}
	add(fallbackLanguage)
	return languages
}
