// ABOUTME: Audio preview using oto
// ABOUTME: Plays decoded or transformed buffers with software volume control
package player

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"github.com/ebitengine/oto/v3"
	"github.com/sirupsen/logrus"

	"github.com/Resonate-Protocol/voicechanger-go/pkg/audio"
	"github.com/Resonate-Protocol/voicechanger-go/pkg/audio/resample"
)

// Device output layout. oto allows a single context per process.
const (
	DeviceRate     = 44100
	DeviceChannels = 2
)

// Output previews clips on the default audio device
type Output struct {
	mu     sync.Mutex
	otoCtx *oto.Context
	player *oto.Player
	volume int
	muted  bool
	ready  bool
}

// NewOutput creates an audio output
func NewOutput() *Output {
	return &Output{
		volume: 100,
		muted:  false,
	}
}

// Initialize opens the audio device
func (o *Output) Initialize() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.ready {
		return nil
	}

	op := &oto.NewContextOptions{
		SampleRate:   DeviceRate,
		ChannelCount: DeviceChannels,
		Format:       oto.FormatSignedInt16LE,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return fmt.Errorf("failed to create oto context: %w", err)
	}

	<-readyChan

	o.otoCtx = ctx
	o.ready = true

	logrus.Debugf("Audio output initialized: %dHz, %d channels", DeviceRate, DeviceChannels)
	return nil
}

// Play starts playing buf, replacing anything already playing. It returns
// once playback has started.
func (o *Output) Play(buf *audio.Buffer) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.ready {
		return fmt.Errorf("output not initialized")
	}

	pcm, err := render(buf, o.volume, o.muted)
	if err != nil {
		return err
	}

	o.stopLocked()
	o.player = o.otoCtx.NewPlayer(bytes.NewReader(pcm))
	o.player.Play()
	return nil
}

// Stop halts playback
func (o *Output) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stopLocked()
}

func (o *Output) stopLocked() {
	if o.player == nil {
		return
	}
	o.player.Pause()
	o.player = nil
}

// IsPlaying reports whether a clip is still playing
func (o *Output) IsPlaying() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.player != nil && o.player.IsPlaying()
}

// SetVolume sets the volume (0-100); it applies from the next Play
func (o *Output) SetVolume(volume int) {
	if volume < 0 {
		volume = 0
	}
	if volume > 100 {
		volume = 100
	}
	o.mu.Lock()
	o.volume = volume
	o.mu.Unlock()
}

// SetMuted sets mute state
func (o *Output) SetMuted(muted bool) {
	o.mu.Lock()
	o.muted = muted
	o.mu.Unlock()
}

// GetVolume returns current volume
func (o *Output) GetVolume() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.volume
}

// IsMuted returns mute state
func (o *Output) IsMuted() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.muted
}

// Close stops playback and suspends the device
func (o *Output) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.stopLocked()
	if o.otoCtx != nil {
		o.otoCtx.Suspend()
		o.ready = false
	}
}

// render converts buf to the device layout as 16-bit little-endian bytes
func render(buf *audio.Buffer, volume int, muted bool) ([]byte, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}

	samples := remix(buf.Samples, buf.Format.Channels, DeviceChannels)
	if rate := buf.Format.SampleRate; rate != DeviceRate {
		frames := int(math.Round(float64(len(samples)/DeviceChannels) * DeviceRate / float64(rate)))
		if frames < 1 {
			frames = 1
		}
		var err error
		samples, err = resample.Convert(samples, DeviceChannels, rate, DeviceRate, frames, resample.EngineLinear)
		if err != nil {
			return nil, fmt.Errorf("failed to resample for playback: %w", err)
		}
	}

	samples = applyVolume(samples, volume, muted)

	output := make([]byte, len(samples)*2)
	for i, sample := range samples {
		binary.LittleEndian.PutUint16(output[i*2:], uint16(audio.SampleToInt16(sample)))
	}
	return output, nil
}

// remix maps interleaved frames onto a different channel count. Missing
// channels repeat the last source channel; extra ones are dropped.
func remix(samples []int32, from, to int) []int32 {
	if from == to {
		return samples
	}
	frames := len(samples) / from
	out := make([]int32, frames*to)
	for f := 0; f < frames; f++ {
		for ch := 0; ch < to; ch++ {
			src := ch
			if src >= from {
				src = from - 1
			}
			out[f*to+ch] = samples[f*from+src]
		}
	}
	return out
}

// applyVolume applies volume and mute to samples
func applyVolume(samples []int32, volume int, muted bool) []int32 {
	multiplier := getVolumeMultiplier(volume, muted)

	result := make([]int32, len(samples))
	for i, sample := range samples {
		result[i] = int32(float64(sample) * multiplier)
	}

	return result
}

// getVolumeMultiplier calculates volume multiplier
func getVolumeMultiplier(volume int, muted bool) float64 {
	if muted {
		return 0.0
	}
	return float64(volume) / 100.0
}
