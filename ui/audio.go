package ui

import (
	"fmt"

	"github.com/golang/glog"
	"github.com/gordonklaus/portaudio"
	"github.com/kelvindecosta/gones/apu"
)

// audio drains the console's mono sample ring into a stereo portaudio
// stream. The NES's APU mixer is single-channel; this duplicates each
// sample to both output channels rather than attempting any synthesis
// of true stereo, matching how the spec's external audio interface
// (left, right) is meant to be satisfied at the host boundary.
type audio struct {
	stream *portaudio.Stream
	ring   *apu.Ring
	mono   []float32
}

func newAudio(ring *apu.Ring) *audio {
	return &audio{ring: ring}
}

// start opens and starts the output stream. An underrun is not
// returned to any caller: every short read (fewer samples available
// than the callback needs) is logged and the remainder is padded with
// silence rather than glitching the stream or blocking the emulation
// thread.
func (a *audio) start() error {
	portaudio.Initialize()
	cb := func(out []float32) {
		frames := len(out) / 2
		if cap(a.mono) < frames {
			a.mono = make([]float32, frames)
		}
		mono := a.mono[:frames]
		n := a.ring.Pop(mono)
		if n < frames {
			glog.V(2).Infof("audio: underrun, wanted %d samples got %d", frames, n)
			for i := n; i < frames; i++ {
				mono[i] = 0
			}
		}
		for i := 0; i < frames; i++ {
			out[2*i] = mono[i]
			out[2*i+1] = mono[i]
		}
	}
	stream, err := portaudio.OpenDefaultStream(0, 2, apu.SampleRate, 0, cb)
	if err != nil {
		return fmt.Errorf("failed to open the audio stream: %w", err)
	}
	a.stream = stream
	if err := stream.Start(); err != nil {
		return fmt.Errorf("failed to start the audio stream: %w", err)
	}
	return nil
}

func (a *audio) terminate() {
	a.stream.Close()
	portaudio.Terminate()
}
