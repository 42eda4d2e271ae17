package audio

import (
	"context"
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"

	"github.com/leonw111/mac-ai-toolkit/domain/repositories"
)

// MalgoPlayer renders PCM through the default output device. Completion is
// signalled by the device callback draining the buffer, not by polling.
type MalgoPlayer struct {
	mu   sync.Mutex
	stop chan struct{}
}

// NewMalgoPlayer creates a playback device wrapper.
func NewMalgoPlayer() *MalgoPlayer {
	return &MalgoPlayer{}
}

// Play blocks until the audio has been fully rendered, the context is
// cancelled, or Stop is called. Cancellation returns context.Canceled.
func (p *MalgoPlayer) Play(ctx context.Context, audio repositories.PCMAudio) error {
	p.mu.Lock()
	stop := make(chan struct{})
	p.stop = stop
	p.mu.Unlock()

	malgoCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return fmt.Errorf("init audio context: %w", err)
	}
	defer func() {
		malgoCtx.Uninit()
		malgoCtx.Free()
	}()

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatS16
	deviceConfig.Playback.Channels = uint32(audio.Channels)
	deviceConfig.SampleRate = uint32(audio.SampleRate)

	bytesPerFrame := 2 * audio.Channels
	var offset int
	done := make(chan struct{})
	var doneOnce sync.Once

	callbacks := malgo.DeviceCallbacks{
		Data: func(output, _ []byte, frameCount uint32) {
			want := int(frameCount) * bytesPerFrame
			remaining := len(audio.Data) - offset
			if remaining <= 0 {
				doneOnce.Do(func() { close(done) })
				return
			}
			n := want
			if n > remaining {
				n = remaining
			}
			copy(output, audio.Data[offset:offset+n])
			offset += n
			if offset >= len(audio.Data) {
				doneOnce.Do(func() { close(done) })
			}
		},
	}

	device, err := malgo.InitDevice(malgoCtx.Context, deviceConfig, callbacks)
	if err != nil {
		return fmt.Errorf("init playback device: %w", err)
	}
	defer device.Uninit()

	if err := device.Start(); err != nil {
		return fmt.Errorf("start playback device: %w", err)
	}
	defer func() { _ = device.Stop() }()

	select {
	case <-done:
		return nil
	case <-stop:
		return context.Canceled
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop interrupts an in-flight Play. No-op when nothing is playing.
func (p *MalgoPlayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stop != nil {
		select {
		case <-p.stop:
		default:
			close(p.stop)
		}
	}
}
