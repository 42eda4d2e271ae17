package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/mattn/go-shellwords"

	"github.com/leonw111/mac-ai-toolkit/adapters/audio"
	"github.com/leonw111/mac-ai-toolkit/domain/entities"
	"github.com/leonw111/mac-ai-toolkit/domain/repositories"
)

// Config holds exec transcriber settings.
type Config struct {
	// Command is the transcriber command line, e.g. "whisper-cli".
	Command string

	// ModelPath is passed as --model when set.
	ModelPath string

	// Languages restricts the supported language set. Empty means the
	// engine accepts any language tag.
	Languages []string

	// SampleRate and Channels describe the PCM fed into live sessions.
	SampleRate int
	Channels   int
}

// ExecTranscriber shells out to a local transcription command. The command
// receives a WAV path and prints one JSON document on stdout:
//
//	{"text":"...","segments":[{"text":"...","start":0.0,"duration":1.2,"confidence":0.9}]}
//
// Recognition happens entirely on this machine, so localOnly is always
// honored.
type ExecTranscriber struct {
	cmd []string
	cfg Config
	mu  sync.Mutex
}

type execSegment struct {
	Text       string  `json:"text"`
	Start      float64 `json:"start"`
	Duration   float64 `json:"duration"`
	Confidence float64 `json:"confidence"`
}

type execOutput struct {
	Text     string        `json:"text"`
	Segments []execSegment `json:"segments"`
}

// NewExecTranscriber parses the transcriber command from configuration.
func NewExecTranscriber(cfg Config) (*ExecTranscriber, error) {
	parser := shellwords.NewParser()
	args, err := parser.Parse(cfg.Command)
	if err != nil {
		return nil, fmt.Errorf("parse stt command: %w", err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("stt command is empty")
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 16000
	}
	if cfg.Channels == 0 {
		cfg.Channels = 1
	}
	return &ExecTranscriber{cmd: args, cfg: cfg}, nil
}

func (t *ExecTranscriber) Transcribe(ctx context.Context, audioPath string, language string, localOnly bool) ([]entities.Segment, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.run(ctx, audioPath, language)
}

func (t *ExecTranscriber) run(ctx context.Context, audioPath string, language string) ([]entities.Segment, error) {
	args := append([]string{}, t.cmd[1:]...)
	args = append(args, "--audio", audioPath)
	if t.cfg.ModelPath != "" {
		args = append(args, "--model", t.cfg.ModelPath)
	}
	if language != "" {
		args = append(args, "--language", language)
	}

	command := exec.CommandContext(ctx, t.cmd[0], args...)
	var stdout, stderr bytes.Buffer
	command.Stdout = &stdout
	command.Stderr = &stderr
	if err := command.Run(); err != nil {
		return nil, fmt.Errorf("stt command failed: %w: %s", err, stderr.String())
	}

	var out execOutput
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		return nil, fmt.Errorf("decode stt output: %w", err)
	}
	segments := make([]entities.Segment, 0, len(out.Segments))
	for _, seg := range out.Segments {
		segments = append(segments, entities.Segment{
			Text:       seg.Text,
			Timestamp:  seg.Start,
			Duration:   seg.Duration,
			Confidence: seg.Confidence,
		})
	}
	return segments, nil
}

// SupportsLocalOnly always reports true: the command runs on this host.
func (t *ExecTranscriber) SupportsLocalOnly() bool {
	return true
}

// NewSession opens a live session. Audio is buffered and recognized in one
// pass when the session finishes; the command has no incremental mode.
func (t *ExecTranscriber) NewSession(_ context.Context, language string) (repositories.TranscriberSession, error) {
	if !t.supportsLanguage(language) {
		return nil, fmt.Errorf("language %q not supported", language)
	}
	return &execSession{engine: t, language: language}, nil
}

func (t *ExecTranscriber) supportsLanguage(language string) bool {
	if len(t.cfg.Languages) == 0 {
		return true
	}
	primary := strings.ToLower(strings.SplitN(language, "-", 2)[0])
	for _, supported := range t.cfg.Languages {
		if strings.EqualFold(supported, language) || strings.EqualFold(supported, primary) {
			return true
		}
	}
	return false
}

type execSession struct {
	engine   *ExecTranscriber
	language string

	mu       sync.Mutex
	buffer   bytes.Buffer
	finished bool
}

func (s *execSession) Feed(pcm []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished {
		return fmt.Errorf("session already finished")
	}
	_, err := s.buffer.Write(pcm)
	return err
}

func (s *execSession) Finish(ctx context.Context) ([]entities.Segment, error) {
	s.mu.Lock()
	if s.finished {
		s.mu.Unlock()
		return nil, fmt.Errorf("session already finished")
	}
	s.finished = true
	pcm := append([]byte(nil), s.buffer.Bytes()...)
	s.mu.Unlock()

	if len(pcm) == 0 {
		return nil, nil
	}

	staged, err := audio.StageWAV("toolkit_stt_*.wav", repositories.PCMAudio{
		Data:       pcm,
		SampleRate: s.engine.cfg.SampleRate,
		Channels:   s.engine.cfg.Channels,
	})
	if err != nil {
		return nil, err
	}
	defer os.Remove(staged)

	s.engine.mu.Lock()
	defer s.engine.mu.Unlock()
	return s.engine.run(ctx, staged, s.language)
}

func (s *execSession) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finished = true
	s.buffer.Reset()
}

var _ repositories.SpeechTranscriber = (*ExecTranscriber)(nil)
