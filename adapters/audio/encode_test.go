package audio

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leonw111/mac-ai-toolkit/domain/entities"
	"github.com/leonw111/mac-ai-toolkit/domain/repositories"
)

func testPCM() repositories.PCMAudio {
	data := make([]byte, 3200)
	for i := range data {
		data[i] = byte(i % 7)
	}
	return repositories.PCMAudio{Data: data, SampleRate: 16000, Channels: 1}
}

func TestStageWAVRoundTrip(t *testing.T) {
	pcm := testPCM()
	staged, err := StageWAV("audio_test_*.wav", pcm)
	require.NoError(t, err)
	defer os.Remove(staged)

	decoded, err := ReadWAV(staged)
	require.NoError(t, err)
	assert.Equal(t, 16000, decoded.SampleRate)
	assert.Equal(t, 1, decoded.Channels)
	assert.Equal(t, pcm.Data, decoded.Data)
}

func TestWriteWAVRejectsUnalignedPCM(t *testing.T) {
	file, err := os.CreateTemp(t.TempDir(), "bad_*.wav")
	require.NoError(t, err)
	defer file.Close()

	err = WriteWAV(file, repositories.PCMAudio{Data: []byte{1, 2, 3}, SampleRate: 16000, Channels: 1})
	require.Error(t, err)
}

func TestEncoderWritesWAVNatively(t *testing.T) {
	encoder, err := NewEncoder("ffmpeg")
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "out.wav")
	require.NoError(t, encoder.WriteFile(context.Background(), out, entities.FormatWAV, testPCM()))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Greater(t, len(data), 44)
	assert.Equal(t, "RIFF", string(data[:4]))
}

func TestEncoderRejectsUnknownFormat(t *testing.T) {
	encoder, err := NewEncoder("ffmpeg")
	require.NoError(t, err)

	err = encoder.WriteFile(context.Background(), filepath.Join(t.TempDir(), "out.xyz"), "xyz", testPCM())
	require.Error(t, err)
	assert.Equal(t, entities.KindInvalidConfiguration, entities.KindOf(err))
}

func TestEncoderFileWriteFailure(t *testing.T) {
	encoder, err := NewEncoder("ffmpeg")
	require.NoError(t, err)

	err = encoder.WriteFile(context.Background(), filepath.Join(t.TempDir(), "no", "such", "dir", "out.wav"), entities.FormatWAV, testPCM())
	require.Error(t, err)
	assert.Equal(t, entities.KindFileWriteFailed, entities.KindOf(err))
}

func TestNewEncoderRejectsEmptyCommand(t *testing.T) {
	_, err := NewEncoder("")
	require.Error(t, err)
}

func TestCompressedWriteToUnwritablePathIsFileWriteFailed(t *testing.T) {
	encoder, err := NewEncoder("ffmpeg")
	require.NoError(t, err)

	err = encoder.WriteFile(context.Background(), filepath.Join(t.TempDir(), "no", "such", "dir", "out.mp3"), entities.FormatMP3, testPCM())
	require.Error(t, err)
	assert.Equal(t, entities.KindFileWriteFailed, entities.KindOf(err))
}

func TestEncodeLeavesNoStagedFiles(t *testing.T) {
	encoder, err := NewEncoder("ffmpeg")
	require.NoError(t, err)
	encoder.tempDir = t.TempDir()

	data, err := encoder.Encode(context.Background(), entities.FormatWAV, testPCM())
	require.NoError(t, err)
	require.NotEmpty(t, data)

	left, err := os.ReadDir(encoder.tempDir)
	require.NoError(t, err)
	assert.Empty(t, left, "staged files must be removed after a successful encode")
}

func TestFailedEncodeLeavesNoStagedFiles(t *testing.T) {
	encoder, err := NewEncoder("/nonexistent/pcm-encoder")
	require.NoError(t, err)
	encoder.tempDir = t.TempDir()

	outDir := t.TempDir()
	outputPath := filepath.Join(outDir, "out.mp3")
	err = encoder.WriteFile(context.Background(), outputPath, entities.FormatMP3, testPCM())
	require.Error(t, err)

	left, err := os.ReadDir(encoder.tempDir)
	require.NoError(t, err)
	assert.Empty(t, left, "staged files must be removed after a failed encode")

	_, err = os.Stat(outputPath)
	assert.True(t, os.IsNotExist(err), "partial output must be removed after a failed encode")
}
