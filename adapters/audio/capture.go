package audio

import (
	"context"
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"

	"github.com/leonw111/mac-ai-toolkit/domain/repositories"
)

// CaptureConfig holds microphone capture parameters.
type CaptureConfig struct {
	// SampleRate in Hz. 16000 is what the transcription engines expect.
	SampleRate uint32

	// Channels: 1 = mono.
	Channels uint32

	// BufferFrames is the number of frames per device period.
	BufferFrames uint32

	// SampleBufferSize is the channel buffer for delivered samples.
	SampleBufferSize int
}

// DefaultCaptureConfig returns 16 kHz mono capture with 30 ms periods.
func DefaultCaptureConfig() CaptureConfig {
	return CaptureConfig{
		SampleRate:       16000,
		Channels:         1,
		BufferFrames:     480,
		SampleBufferSize: 64,
	}
}

// MalgoInput acquires the default capture device through malgo.
type MalgoInput struct {
	config CaptureConfig
}

// NewMalgoInput creates a microphone input with the given configuration.
func NewMalgoInput(config CaptureConfig) *MalgoInput {
	return &MalgoInput{config: config}
}

// Open initializes the capture device and starts delivering samples.
func (m *MalgoInput) Open(ctx context.Context) (repositories.AudioCapture, error) {
	malgoCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("init audio context: %w", err)
	}

	capture := &malgoCapture{
		malgoCtx: malgoCtx,
		samples:  make(chan repositories.AudioSample, m.config.SampleBufferSize),
		errors:   make(chan error, 8),
		stopCh:   make(chan struct{}),
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = m.config.Channels
	deviceConfig.SampleRate = m.config.SampleRate
	deviceConfig.PeriodSizeInFrames = m.config.BufferFrames

	callbacks := malgo.DeviceCallbacks{
		Data: func(_, input []byte, frameCount uint32) {
			data := make([]byte, len(input))
			copy(data, input)
			select {
			case capture.samples <- repositories.AudioSample{Data: data, Frames: frameCount}:
			default:
				select {
				case capture.errors <- fmt.Errorf("sample buffer overflow, dropping %d frames", frameCount):
				default:
				}
			}
		},
	}

	device, err := malgo.InitDevice(malgoCtx.Context, deviceConfig, callbacks)
	if err != nil {
		malgoCtx.Uninit()
		malgoCtx.Free()
		return nil, fmt.Errorf("init capture device: %w", err)
	}
	capture.device = device

	if err := device.Start(); err != nil {
		device.Uninit()
		malgoCtx.Uninit()
		malgoCtx.Free()
		return nil, fmt.Errorf("start capture device: %w", err)
	}

	go func() {
		select {
		case <-ctx.Done():
			_ = capture.Stop()
		case <-capture.stopCh:
		}
	}()

	return capture, nil
}

type malgoCapture struct {
	malgoCtx *malgo.AllocatedContext
	device   *malgo.Device
	samples  chan repositories.AudioSample
	errors   chan error

	stopOnce sync.Once
	stopCh   chan struct{}
}

func (c *malgoCapture) Samples() <-chan repositories.AudioSample {
	return c.samples
}

func (c *malgoCapture) Errors() <-chan error {
	return c.errors
}

func (c *malgoCapture) Stop() error {
	var err error
	c.stopOnce.Do(func() {
		close(c.stopCh)
		// Stop and uninit before closing the channels so the device
		// callback can no longer fire into them.
		if stopErr := c.device.Stop(); stopErr != nil {
			err = fmt.Errorf("stop capture device: %w", stopErr)
		}
		c.device.Uninit()
		c.malgoCtx.Uninit()
		c.malgoCtx.Free()
		close(c.samples)
		close(c.errors)
	})
	return err
}
