package ocr

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTSV = `level	page_num	block_num	par_num	line_num	word_num	left	top	width	height	conf	text
1	1	0	0	0	0	0	0	200	100	-1
4	1	1	1	1	0	10	10	120	20	-1
5	1	1	1	1	1	10	10	50	20	96.5	Hello
5	1	1	1	1	2	70	10	60	20	91.5	World
4	1	1	1	2	0	10	40	80	20	-1
5	1	1	1	2	1	10	40	80	20	80	Again
5	1	1	1	2	2	95	40	10	20	-1
`

func TestParseTSVGroupsWordsIntoLines(t *testing.T) {
	blocks := parseTSV(sampleTSV, 200, 100)
	require.Len(t, blocks, 2)

	assert.Equal(t, "Hello World", blocks[0].Text)
	assert.InDelta(t, 0.94, blocks[0].Confidence, 1e-9)
	assert.InDelta(t, 0.05, blocks[0].BoundingBox.X, 1e-9)
	assert.InDelta(t, 0.1, blocks[0].BoundingBox.Y, 1e-9)
	assert.InDelta(t, 0.6, blocks[0].BoundingBox.Width, 1e-9)
	assert.InDelta(t, 0.2, blocks[0].BoundingBox.Height, 1e-9)

	assert.Equal(t, "Again", blocks[1].Text)
	assert.InDelta(t, 0.8, blocks[1].Confidence, 1e-9)
}

func TestParseTSVEmptyInput(t *testing.T) {
	assert.Empty(t, parseTSV("", 100, 100))
	assert.Empty(t, parseTSV("level\tpage_num\n", 100, 100))
}

func TestTesseractLanguages(t *testing.T) {
	tests := []struct {
		languages []string
		want      string
	}{
		{[]string{"en-US", "en"}, "eng"},
		{[]string{"de-DE", "de", "en"}, "deu+eng"},
		{[]string{"xx-YY"}, "eng"},
		{nil, "eng"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tesseractLanguages(tt.languages), "languages %v", tt.languages)
	}
}

func TestNewTesseractRecognizerRejectsEmptyCommand(t *testing.T) {
	_, err := NewTesseractRecognizer("")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "empty"))
}
