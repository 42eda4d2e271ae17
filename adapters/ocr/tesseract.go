package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/mattn/go-shellwords"

	"github.com/leonw111/mac-ai-toolkit/domain/entities"
	"github.com/leonw111/mac-ai-toolkit/domain/repositories"
)

// TesseractRecognizer runs the local tesseract binary and parses its TSV
// output into text blocks, one block per recognized line.
type TesseractRecognizer struct {
	cmd []string
	mu  sync.Mutex
}

// NewTesseractRecognizer parses the recognizer command from configuration,
// typically just "tesseract".
func NewTesseractRecognizer(command string) (*TesseractRecognizer, error) {
	parser := shellwords.NewParser()
	args, err := parser.Parse(command)
	if err != nil {
		return nil, fmt.Errorf("parse ocr command: %w", err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("ocr command is empty")
	}
	return &TesseractRecognizer{cmd: args}, nil
}

// languageCodes maps BCP-47 primary subtags to tesseract language packs.
var languageCodes = map[string]string{
	"en": "eng",
	"de": "deu",
	"fr": "fra",
	"es": "spa",
	"it": "ita",
	"pt": "por",
	"nl": "nld",
	"ja": "jpn",
	"ko": "kor",
	"zh": "chi_sim",
	"ru": "rus",
	"ar": "ara",
}

func (t *TesseractRecognizer) Recognize(ctx context.Context, img image.Image, languages []string, level entities.RecognitionLevel) ([]entities.TextBlock, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	file, err := os.CreateTemp(os.TempDir(), "toolkit_ocr_*.png")
	if err != nil {
		return nil, fmt.Errorf("temp file: %w", err)
	}
	defer os.Remove(file.Name())
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		return nil, fmt.Errorf("stage png: %w", err)
	}

	args := append([]string{}, t.cmd[1:]...)
	args = append(args, file.Name(), "stdout", "tsv", "-l", tesseractLanguages(languages))
	if level == entities.RecognitionFast {
		args = append(args, "--psm", "6")
	} else {
		args = append(args, "--psm", "3")
	}

	command := exec.CommandContext(ctx, t.cmd[0], args...)
	var stdout, stderr bytes.Buffer
	command.Stdout = &stdout
	command.Stderr = &stderr
	if err := command.Run(); err != nil {
		return nil, fmt.Errorf("ocr command failed: %w: %s", err, stderr.String())
	}

	bounds := img.Bounds()
	return parseTSV(stdout.String(), float64(bounds.Dx()), float64(bounds.Dy())), nil
}

func tesseractLanguages(languages []string) string {
	var codes []string
	seen := map[string]bool{}
	for _, lang := range languages {
		primary := strings.ToLower(strings.SplitN(lang, "-", 2)[0])
		code, ok := languageCodes[primary]
		if !ok {
			continue
		}
		if !seen[code] {
			seen[code] = true
			codes = append(codes, code)
		}
	}
	if len(codes) == 0 {
		codes = []string{"eng"}
	}
	return strings.Join(codes, "+")
}

// parseTSV groups tesseract word rows into one TextBlock per line. Word
// confidences come in 0..100 and are normalized to [0,1].
func parseTSV(tsv string, imageWidth, imageHeight float64) []entities.TextBlock {
	type lineKey struct{ block, par, line string }

	type lineAccum struct {
		words   []string
		confSum float64
		left    float64
		top     float64
		right   float64
		bottom  float64
	}

	accums := map[lineKey]*lineAccum{}
	var order []lineKey

	rows := strings.Split(tsv, "\n")
	for i, row := range rows {
		if i == 0 || strings.TrimSpace(row) == "" {
			continue
		}
		fields := strings.Split(row, "\t")
		if len(fields) < 12 || fields[0] != "5" {
			continue
		}
		text := strings.TrimSpace(fields[11])
		if text == "" {
			continue
		}
		conf, err := strconv.ParseFloat(fields[10], 64)
		if err != nil || conf < 0 {
			continue
		}
		left, _ := strconv.ParseFloat(fields[6], 64)
		top, _ := strconv.ParseFloat(fields[7], 64)
		width, _ := strconv.ParseFloat(fields[8], 64)
		height, _ := strconv.ParseFloat(fields[9], 64)

		key := lineKey{block: fields[2], par: fields[3], line: fields[4]}
		accum, ok := accums[key]
		if !ok {
			accum = &lineAccum{left: left, top: top, right: left + width, bottom: top + height}
			accums[key] = accum
			order = append(order, key)
		}
		accum.words = append(accum.words, text)
		accum.confSum += conf / 100
		if left < accum.left {
			accum.left = left
		}
		if top < accum.top {
			accum.top = top
		}
		if left+width > accum.right {
			accum.right = left + width
		}
		if top+height > accum.bottom {
			accum.bottom = top + height
		}
	}

	blocks := make([]entities.TextBlock, 0, len(order))
	for _, key := range order {
		accum := accums[key]
		blocks = append(blocks, entities.TextBlock{
			Text:       strings.Join(accum.words, " "),
			Confidence: accum.confSum / float64(len(accum.words)),
			BoundingBox: entities.BoundingBox{
				X:      accum.left / imageWidth,
				Y:      accum.top / imageHeight,
				Width:  (accum.right - accum.left) / imageWidth,
				Height: (accum.bottom - accum.top) / imageHeight,
			},
		})
	}
	return blocks
}

var _ repositories.TextRecognizer = (*TesseractRecognizer)(nil)
