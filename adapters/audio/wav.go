package audio

import (
	"encoding/binary"
	"fmt"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/leonw111/mac-ai-toolkit/domain/repositories"
)

// WriteWAV writes s16le PCM into file as a 16-bit WAV container.
func WriteWAV(file *os.File, pcm repositories.PCMAudio) error {
	if len(pcm.Data)%2 != 0 {
		return fmt.Errorf("pcm payload not aligned")
	}
	buffer := &goaudio.IntBuffer{
		Format: &goaudio.Format{NumChannels: pcm.Channels, SampleRate: pcm.SampleRate},
	}
	samples := make([]int, len(pcm.Data)/2)
	for i := range samples {
		samples[i] = int(int16(binary.LittleEndian.Uint16(pcm.Data[i*2:])))
	}
	buffer.Data = samples

	enc := wav.NewEncoder(file, pcm.SampleRate, 16, pcm.Channels, 1)
	if err := enc.Write(buffer); err != nil {
		return fmt.Errorf("write wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("close wav encoder: %w", err)
	}
	return nil
}

// ReadWAV decodes a 16-bit WAV file back into s16le PCM.
func ReadWAV(path string) (repositories.PCMAudio, error) {
	file, err := os.Open(path)
	if err != nil {
		return repositories.PCMAudio{}, fmt.Errorf("open wav: %w", err)
	}
	defer file.Close()

	dec := wav.NewDecoder(file)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return repositories.PCMAudio{}, fmt.Errorf("decode wav: %w", err)
	}
	data := make([]byte, len(buf.Data)*2)
	for i, sample := range buf.Data {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(int16(sample)))
	}
	return repositories.PCMAudio{
		Data:       data,
		SampleRate: buf.Format.SampleRate,
		Channels:   buf.Format.NumChannels,
	}, nil
}

// StageWAV writes PCM to a fresh temp file named with the given pattern and
// returns its path. The caller owns deletion.
func StageWAV(pattern string, pcm repositories.PCMAudio) (string, error) {
	return stageWAVIn(os.TempDir(), pattern, pcm)
}

func stageWAVIn(dir, pattern string, pcm repositories.PCMAudio) (string, error) {
	file, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return "", fmt.Errorf("temp file: %w", err)
	}
	if err := WriteWAV(file, pcm); err != nil {
		file.Close()
		os.Remove(file.Name())
		return "", err
	}
	if err := file.Close(); err != nil {
		os.Remove(file.Name())
		return "", fmt.Errorf("close temp wav: %w", err)
	}
	return file.Name(), nil
}
