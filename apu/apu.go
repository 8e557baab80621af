// Package apu implements the NES Audio Processing Unit: two pulse
// channels, a triangle channel, a noise channel, and a DMC sample
// player, mixed through the hardware's non-linear DAC formula and
// pushed into a lock-free ring buffer for a host audio backend to
// drain. The package never touches an audio device itself.
package apu

import "github.com/kelvindecosta/gones/apu/channels"

const (
	SampleRate  = 44100
	cpuClockHz  = 1789773.0
	framePeriod = cpuClockHz / 240.0
)

// Bus is the narrow interface the DMC channel needs to fetch sample
// bytes; implemented by nes.CPUBus. CPU stalls during a fetch go
// through the haltCPU callback passed to New.
type Bus interface {
	Read(addr uint16) byte
}

// IRQNotifier lets the APU drive the CPU's maskable interrupt line
// without apu/ importing cpu/.
type IRQNotifier interface {
	RequestIRQ()
	ClearIRQLine()
}

type APU struct {
	pulse1   *channels.Pulse
	pulse2   *channels.Pulse
	triangle *channels.Triangle
	noise    *channels.Noise
	dmc      *channels.DMC
	mix      mixer

	ring *Ring

	frameCycles  float64
	sampleCycles float64
	sequenceStep int
	fiveStepMode bool
	inhibitIRQ   bool
	frameIRQ     bool
	halfCycle    bool

	cpu IRQNotifier
}

// New creates an APU producing samples into a ring buffer holding at
// least a quarter second of audio at SampleRate (rounded up to a power
// of two, 16384 samples).
func New(bus Bus, haltCPU func(int), cpu IRQNotifier) *APU {
	a := &APU{
		pulse1:   channels.NewPulse(1),
		pulse2:   channels.NewPulse(2),
		triangle: channels.NewTriangle(),
		noise:    channels.NewNoise(),
		dmc:      channels.NewDMC(),
		ring:     NewRing(SampleRate / 4),
		cpu:      cpu,
	}
	a.dmc.ReadMemory = bus.Read
	a.dmc.StallCPU = haltCPU
	return a
}

// Ring exposes the producer's output for a host audio backend to drain.
func (a *APU) Ring() *Ring { return a.ring }

// WriteRegister dispatches a CPU write in the $4000-$4017 range.
func (a *APU) WriteRegister(addr uint16, value byte) {
	switch {
	case addr >= 0x4000 && addr <= 0x4003:
		a.pulse1.WriteRegister(addr, value)
	case addr >= 0x4004 && addr <= 0x4007:
		a.pulse2.WriteRegister(addr, value)
	case addr >= 0x4008 && addr <= 0x400B:
		a.triangle.WriteRegister(addr, value)
	case addr >= 0x400C && addr <= 0x400F:
		a.noise.WriteRegister(addr, value)
	case addr >= 0x4010 && addr <= 0x4013:
		a.dmc.WriteRegister(addr, value)
	case addr == 0x4015:
		a.pulse1.SetEnabled(value&0x01 != 0)
		a.pulse2.SetEnabled(value&0x02 != 0)
		a.triangle.SetEnabled(value&0x04 != 0)
		a.noise.SetEnabled(value&0x08 != 0)
		a.dmc.SetEnabled(value&0x10 != 0)
		a.dmc.ClearIRQ()
		a.updateIRQLine()
	case addr == 0x4017:
		a.fiveStepMode = value&0x80 != 0
		a.inhibitIRQ = value&0x40 != 0
		if a.inhibitIRQ {
			a.frameIRQ = false
		}
		a.frameCycles = 0
		a.sequenceStep = 0
		if a.fiveStepMode {
			a.clockQuarter()
			a.clockHalf()
		}
		a.updateIRQLine()
	}
}

// ReadStatus handles a CPU read of $4015.
func (a *APU) ReadStatus() byte {
	var status byte
	if a.pulse1.IsLengthCounterActive() {
		status |= 0x01
	}
	if a.pulse2.IsLengthCounterActive() {
		status |= 0x02
	}
	if a.triangle.IsLengthCounterActive() {
		status |= 0x04
	}
	if a.noise.IsLengthCounterActive() {
		status |= 0x08
	}
	if a.dmc.IsSamplePlaybackActive() {
		status |= 0x10
	}
	if a.frameIRQ {
		status |= 0x40
	}
	if a.dmc.IRQ() {
		status |= 0x80
	}
	a.frameIRQ = false
	a.updateIRQLine()
	return status
}

func (a *APU) updateIRQLine() {
	if a.cpu == nil {
		return
	}
	if a.frameIRQ || a.dmc.IRQ() {
		a.cpu.RequestIRQ()
	} else {
		a.cpu.ClearIRQLine()
	}
}

// Step advances the APU by one CPU cycle.
func (a *APU) Step() {
	a.triangle.ClockTimer()
	a.dmc.ClockTimer()
	a.updateIRQLine() // DMC IRQ can assert mid-fetch, not just on register access
	// Pulse/noise timers clock at half the CPU rate.
	if a.halfCycle {
		a.pulse1.ClockTimer()
		a.pulse2.ClockTimer()
		a.noise.ClockTimer()
	}
	a.halfCycle = !a.halfCycle

	a.frameCycles++
	if a.frameCycles >= framePeriod {
		a.frameCycles -= framePeriod
		a.clockFrameSequencer()
	}

	a.sampleCycles++
	if a.sampleCycles >= cpuClockHz/SampleRate {
		a.sampleCycles -= cpuClockHz / SampleRate
		a.generateSample()
	}
}

func (a *APU) clockFrameSequencer() {
	step := a.sequenceStep
	if a.fiveStepMode {
		switch step {
		case 0, 2:
			a.clockQuarter()
		case 1, 4:
			a.clockQuarter()
			a.clockHalf()
		}
		a.sequenceStep = (step + 1) % 5
	} else {
		switch step {
		case 0, 2:
			a.clockQuarter()
		case 1:
			a.clockQuarter()
			a.clockHalf()
		case 3:
			a.clockQuarter()
			a.clockHalf()
			if !a.inhibitIRQ {
				a.frameIRQ = true
				a.updateIRQLine()
			}
		}
		a.sequenceStep = (step + 1) % 4
	}
}

func (a *APU) clockQuarter() {
	a.pulse1.ClockEnvelope()
	a.pulse2.ClockEnvelope()
	a.triangle.ClockLinearCounter()
	a.noise.ClockEnvelope()
}

func (a *APU) clockHalf() {
	a.pulse1.ClockLengthCounter()
	a.pulse1.ClockSweep()
	a.pulse2.ClockLengthCounter()
	a.pulse2.ClockSweep()
	a.triangle.ClockLengthCounter()
	a.noise.ClockLengthCounter()
}

// State is the serializable snapshot of the whole APU: every channel's
// state plus the frame sequencer. The ring buffer is a live audio
// pipeline, not state, and is never part of a save state.
type State struct {
	Pulse1, Pulse2 channels.PulseState
	Triangle       channels.TriangleState
	Noise          channels.NoiseState
	DMC            channels.DMCState
	FrameCycles    float64
	SampleCycles   float64
	SequenceStep   int
	FiveStepMode   bool
	InhibitIRQ     bool
	FrameIRQ       bool
	HalfCycle      bool
}

// Snapshot captures the whole APU's serializable state.
func (a *APU) Snapshot() State {
	return State{
		Pulse1: a.pulse1.Snapshot(), Pulse2: a.pulse2.Snapshot(),
		Triangle: a.triangle.Snapshot(), Noise: a.noise.Snapshot(), DMC: a.dmc.Snapshot(),
		FrameCycles: a.frameCycles, SampleCycles: a.sampleCycles, SequenceStep: a.sequenceStep,
		FiveStepMode: a.fiveStepMode, InhibitIRQ: a.inhibitIRQ, FrameIRQ: a.frameIRQ, HalfCycle: a.halfCycle,
	}
}

// Restore replaces the APU's state with a previously captured snapshot.
// The DMC's ReadMemory/StallCPU wiring is left untouched.
func (a *APU) Restore(s State) {
	a.pulse1.Restore(s.Pulse1)
	a.pulse2.Restore(s.Pulse2)
	a.triangle.Restore(s.Triangle)
	a.noise.Restore(s.Noise)
	a.dmc.Restore(s.DMC)
	a.frameCycles, a.sampleCycles, a.sequenceStep = s.FrameCycles, s.SampleCycles, s.SequenceStep
	a.fiveStepMode, a.inhibitIRQ, a.frameIRQ, a.halfCycle = s.FiveStepMode, s.InhibitIRQ, s.FrameIRQ, s.HalfCycle
	a.updateIRQLine()
}

func (a *APU) generateSample() {
	sample := a.mix.mix(
		a.pulse1.Output(),
		a.pulse2.Output(),
		a.triangle.Output(),
		a.noise.Output(),
		a.dmc.Output(),
	)
	a.ring.Push(sample)
}
