package entities

// RecognitionLevel selects the engine's speed/accuracy trade-off.
type RecognitionLevel string

const (
	RecognitionFast     RecognitionLevel = "fast"
	RecognitionAccurate RecognitionLevel = "accurate"
)

// BoundingBox is a normalized region within the source image.
// All coordinates are fractions of the image dimensions in [0,1].
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"w"`
	Height float64 `json:"h"`
}

// TextBlock is one recognized text region. Immutable once created.
type TextBlock struct {
	Text        string      `json:"text"`
	Confidence  float64     `json:"confidence"`
	BoundingBox BoundingBox `json:"boundingBox"`
}

// RecognitionResult is the outcome of one text-recognition call.
// Confidence is the mean of the block confidences, 0 when there are none;
// "no text found" is a valid result, not an error.
type RecognitionResult struct {
	Text       string      `json:"text"`
	Confidence float64     `json:"confidence"`
	Language   string      `json:"language"`
	Blocks     []TextBlock `json:"blocks"`
}

// NewRecognitionResult assembles a result from recognized blocks, joining
// block texts with newlines and averaging their confidences.
func NewRecognitionResult(language string, blocks []TextBlock) *RecognitionResult {
	result := &RecognitionResult{
		Language: language,
		Blocks:   blocks,
	}
	if len(blocks) == 0 {
		result.Blocks = []TextBlock{}
		return result
	}
	var sum float64
	for i, block := range blocks {
		if i > 0 {
			result.Text += "\n"
		}
		result.Text += block.Text
		sum += block.Confidence
	}
	result.Confidence = sum / float64(len(blocks))
	return result
}
