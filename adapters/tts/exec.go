package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"sync"

	"github.com/mattn/go-shellwords"

	"github.com/leonw111/mac-ai-toolkit/domain/entities"
	"github.com/leonw111/mac-ai-toolkit/domain/repositories"
)

// Config holds exec synthesizer settings.
type Config struct {
	// Command is the synthesis command line, e.g. "piper --model en.onnx".
	// The command reads a JSON request on stdin and writes raw s16le PCM
	// on stdout.
	Command string

	// VoicesCommand lists available voices as a JSON array of
	// {identifier, name, language, quality} on stdout.
	VoicesCommand string

	// SampleRate and Channels describe the PCM the command produces.
	SampleRate int
	Channels   int
}

// ExecSynthesizer shells out to a local synthesis command.
type ExecSynthesizer struct {
	cmd       []string
	voicesCmd []string
	cfg       Config
	mu        sync.Mutex
}

type execRequest struct {
	Text       string  `json:"text"`
	Voice      string  `json:"voice,omitempty"`
	Language   string  `json:"language,omitempty"`
	Rate       float64 `json:"rate"`
	Pitch      float64 `json:"pitch"`
	Volume     float64 `json:"volume"`
	SampleRate int     `json:"sample_rate"`
	Channels   int     `json:"channels"`
}

// NewExecSynthesizer parses the synthesis command lines from configuration.
func NewExecSynthesizer(cfg Config) (*ExecSynthesizer, error) {
	parser := shellwords.NewParser()
	args, err := parser.Parse(cfg.Command)
	if err != nil {
		return nil, fmt.Errorf("parse tts command: %w", err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("tts command is empty")
	}
	var voicesArgs []string
	if cfg.VoicesCommand != "" {
		voicesArgs, err = parser.Parse(cfg.VoicesCommand)
		if err != nil {
			return nil, fmt.Errorf("parse tts voices command: %w", err)
		}
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 22050
	}
	if cfg.Channels == 0 {
		cfg.Channels = 1
	}
	return &ExecSynthesizer{cmd: args, voicesCmd: voicesArgs, cfg: cfg}, nil
}

func (e *ExecSynthesizer) Synthesize(ctx context.Context, req entities.SynthesisRequest) (repositories.PCMAudio, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	payload, err := json.Marshal(execRequest{
		Text:       req.Text,
		Voice:      req.Voice,
		Language:   req.Language,
		Rate:       req.Rate,
		Pitch:      req.Pitch,
		Volume:     req.Volume,
		SampleRate: e.cfg.SampleRate,
		Channels:   e.cfg.Channels,
	})
	if err != nil {
		return repositories.PCMAudio{}, err
	}

	command := exec.CommandContext(ctx, e.cmd[0], e.cmd[1:]...)
	command.Stdin = bytes.NewReader(payload)
	var stdout, stderr bytes.Buffer
	command.Stdout = &stdout
	command.Stderr = &stderr
	if err := command.Run(); err != nil {
		return repositories.PCMAudio{}, fmt.Errorf("tts command failed: %w: %s", err, stderr.String())
	}
	if stdout.Len() == 0 {
		return repositories.PCMAudio{}, fmt.Errorf("tts command produced no audio")
	}

	return repositories.PCMAudio{
		Data:       stdout.Bytes(),
		SampleRate: e.cfg.SampleRate,
		Channels:   e.cfg.Channels,
	}, nil
}

func (e *ExecSynthesizer) Voices(ctx context.Context) ([]entities.Voice, error) {
	if len(e.voicesCmd) == 0 {
		return []entities.Voice{}, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	command := exec.CommandContext(ctx, e.voicesCmd[0], e.voicesCmd[1:]...)
	var stdout, stderr bytes.Buffer
	command.Stdout = &stdout
	command.Stderr = &stderr
	if err := command.Run(); err != nil {
		return nil, fmt.Errorf("tts voices command failed: %w: %s", err, stderr.String())
	}

	var voices []entities.Voice
	if err := json.Unmarshal(stdout.Bytes(), &voices); err != nil {
		return nil, fmt.Errorf("decode voices output: %w", err)
	}
	return voices, nil
}

var _ repositories.SpeechSynthesizer = (*ExecSynthesizer)(nil)
