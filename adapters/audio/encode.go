package audio

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/mattn/go-shellwords"

	"github.com/leonw111/mac-ai-toolkit/domain/entities"
	"github.com/leonw111/mac-ai-toolkit/domain/repositories"
)

// Encoder writes PCM into a real container of the requested format. WAV is
// encoded natively; compressed formats are produced by the configured
// encoder command (ffmpeg by default), staged through a temp WAV.
type Encoder struct {
	cmd []string

	// tempDir overrides the staging directory; empty means os.TempDir.
	tempDir string
}

// NewEncoder parses the encoder command line from configuration.
func NewEncoder(command string) (*Encoder, error) {
	parser := shellwords.NewParser()
	args, err := parser.Parse(command)
	if err != nil {
		return nil, fmt.Errorf("parse encoder command: %w", err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("encoder command is empty")
	}
	return &Encoder{cmd: args}, nil
}

// WriteFile encodes pcm into outputPath in the requested container format.
// Failures creating or writing outputPath carry KindFileWriteFailed so
// callers can tell disk trouble from encode trouble.
func (e *Encoder) WriteFile(ctx context.Context, outputPath string, format entities.AudioFormat, pcm repositories.PCMAudio) error {
	if !format.Valid() {
		return entities.NewError(entities.KindInvalidConfiguration, fmt.Sprintf("unsupported output format %q", format))
	}

	if format == entities.FormatWAV {
		file, err := os.Create(outputPath)
		if err != nil {
			return entities.WrapError(entities.KindFileWriteFailed, "create output file", err)
		}
		if err := WriteWAV(file, pcm); err != nil {
			file.Close()
			os.Remove(outputPath)
			return entities.WrapError(entities.KindFileWriteFailed, "write output file", err)
		}
		if err := file.Close(); err != nil {
			os.Remove(outputPath)
			return entities.WrapError(entities.KindFileWriteFailed, "close output file", err)
		}
		return nil
	}

	// Pre-flight the output path so disk trouble is reported as
	// FileWriteFailed instead of an encoder failure.
	out, err := os.Create(outputPath)
	if err != nil {
		return entities.WrapError(entities.KindFileWriteFailed, "create output file", err)
	}
	out.Close()

	staged, err := stageWAVIn(e.tempRoot(), "toolkit_encode_*.wav", pcm)
	if err != nil {
		os.Remove(outputPath)
		return fmt.Errorf("stage wav for encode: %w", err)
	}
	defer os.Remove(staged)

	args := append([]string{}, e.cmd[1:]...)
	args = append(args, "-y", "-i", staged, "-f", encodeMuxer(format), outputPath)

	command := exec.CommandContext(ctx, e.cmd[0], args...)
	var stderr bytes.Buffer
	command.Stderr = &stderr
	if err := command.Run(); err != nil {
		os.Remove(outputPath)
		return fmt.Errorf("encoder command failed: %w: %s", err, stderr.String())
	}
	return nil
}

// Encode renders pcm into memory in the requested format, staging through a
// uniquely named temp file that is always removed.
func (e *Encoder) Encode(ctx context.Context, format entities.AudioFormat, pcm repositories.PCMAudio) ([]byte, error) {
	out, err := os.CreateTemp(e.tempRoot(), "toolkit_out_*."+string(format))
	if err != nil {
		return nil, fmt.Errorf("temp file: %w", err)
	}
	path := out.Name()
	out.Close()
	defer os.Remove(path)

	if err := e.WriteFile(ctx, path, format, pcm); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read encoded audio: %w", err)
	}
	return data, nil
}

func (e *Encoder) tempRoot() string {
	if e.tempDir != "" {
		return e.tempDir
	}
	return os.TempDir()
}

func encodeMuxer(format entities.AudioFormat) string {
	switch format {
	case entities.FormatMP3:
		return "mp3"
	case entities.FormatAAC:
		return "adts"
	case entities.FormatM4A:
		return "ipod"
	default:
		return string(format)
	}
}
