package repositories

import (
	"context"
	"image"

	"github.com/leonw111/mac-ai-toolkit/domain/entities"
)

// TextRecognizer abstracts the text-recognition engine. Implementations are
// not required to be safe for concurrent use; the recognition service
// serializes access.
type TextRecognizer interface {
	// Recognize extracts text regions from a decoded image. The languages
	// slice is an ordered preference list; the engine uses the first entry
	// as primary. A zero-region outcome is returned as an empty slice, not
	// an error.
	Recognize(ctx context.Context, img image.Image, languages []string, level entities.RecognitionLevel) ([]entities.TextBlock, error)
}
