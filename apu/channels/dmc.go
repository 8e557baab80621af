package channels

// RateTable is the NTSC DMC timer period table for $4010's low nibble.
var RateTable = [16]uint16{
	428, 380, 340, 320, 286, 254, 226, 214,
	190, 160, 142, 128, 106, 84, 72, 54,
}

// DMC plays back 1-bit delta-encoded PCM samples fetched directly from
// PRG space, stealing CPU cycles to do so.
type DMC struct {
	// ReadMemory fetches one byte of the current sample from $C000-$FFFF
	// (wrapped). Wired by the owning APU since the channel itself must
	// not depend on cpu/ or mapper/.
	ReadMemory func(addr uint16) byte
	// StallCPU requests the CPU halt for n cycles for a sample fetch.
	StallCPU func(cycles int)

	irqEnabled bool
	loop       bool
	rateIndex  byte
	timer      uint16

	sampleAddress uint16
	sampleLength  uint16

	currentAddress uint16
	bytesRemaining uint16

	sampleBuffer     byte
	sampleBufferFull bool

	shiftRegister byte
	bitsRemaining byte
	silence       bool

	outputLevel byte

	irqPending bool
}

func NewDMC() *DMC {
	d := &DMC{}
	d.Reset()
	return d
}

func (d *DMC) Reset() {
	readMem, stall := d.ReadMemory, d.StallCPU
	*d = DMC{ReadMemory: readMem, StallCPU: stall}
	d.bitsRemaining = 8
	d.silence = true
}

func (d *DMC) WriteRegister(addr uint16, value byte) {
	switch addr {
	case 0x4010:
		d.irqEnabled = value&0x80 != 0
		d.loop = value&0x40 != 0
		d.rateIndex = value & 0x0F
		d.timer = RateTable[d.rateIndex]
		if !d.irqEnabled {
			d.irqPending = false
		}
	case 0x4011:
		d.outputLevel = value & 0x7F
	case 0x4012:
		d.sampleAddress = 0xC000 + uint16(value)*64
	case 0x4013:
		d.sampleLength = uint16(value)*16 + 1
	}
}

// SetEnabled starts/stops sample playback; matches $4015 semantics where
// enabling with no bytes remaining restarts from the sample start.
func (d *DMC) SetEnabled(enabled bool) {
	if !enabled {
		d.bytesRemaining = 0
		return
	}
	if d.bytesRemaining == 0 {
		d.currentAddress = d.sampleAddress
		d.bytesRemaining = d.sampleLength
	}
}

func (d *DMC) IsSamplePlaybackActive() bool { return d.bytesRemaining > 0 }

func (d *DMC) fetchSample() {
	if d.sampleBufferFull || d.bytesRemaining == 0 {
		return
	}
	if d.StallCPU != nil {
		d.StallCPU(4)
	}
	if d.ReadMemory != nil {
		d.sampleBuffer = d.ReadMemory(d.currentAddress)
	}
	d.sampleBufferFull = true
	d.currentAddress++
	if d.currentAddress == 0 {
		d.currentAddress = 0x8000
	}
	d.bytesRemaining--
	if d.bytesRemaining == 0 {
		if d.loop {
			d.currentAddress = d.sampleAddress
			d.bytesRemaining = d.sampleLength
		} else if d.irqEnabled {
			d.irqPending = true
		}
	}
}

// ClockTimer advances the output unit; called once per CPU cycle.
func (d *DMC) ClockTimer() {
	d.fetchSample()
	if d.timer == 0 {
		d.timer = RateTable[d.rateIndex]
		if !d.silence {
			if d.shiftRegister&1 != 0 {
				if d.outputLevel <= 125 {
					d.outputLevel += 2
				}
			} else {
				if d.outputLevel >= 2 {
					d.outputLevel -= 2
				}
			}
		}
		d.shiftRegister >>= 1
		if d.bitsRemaining > 0 {
			d.bitsRemaining--
		}
		if d.bitsRemaining == 0 {
			d.bitsRemaining = 8
			if d.sampleBufferFull {
				d.shiftRegister = d.sampleBuffer
				d.sampleBufferFull = false
				d.silence = false
			} else {
				d.silence = true
			}
		}
	} else {
		d.timer--
	}
}

// DMCState is the serializable snapshot of the DMC channel. ReadMemory
// and StallCPU are wiring, not state, and are left untouched by Restore.
type DMCState struct {
	IRQEnabled       bool
	Loop             bool
	RateIndex        byte
	Timer            uint16
	SampleAddress    uint16
	SampleLength     uint16
	CurrentAddress   uint16
	BytesRemaining   uint16
	SampleBuffer     byte
	SampleBufferFull bool
	ShiftRegister    byte
	BitsRemaining    byte
	Silence          bool
	OutputLevel      byte
	IRQPending       bool
}

func (d *DMC) Snapshot() DMCState {
	return DMCState{
		IRQEnabled: d.irqEnabled, Loop: d.loop, RateIndex: d.rateIndex, Timer: d.timer,
		SampleAddress: d.sampleAddress, SampleLength: d.sampleLength,
		CurrentAddress: d.currentAddress, BytesRemaining: d.bytesRemaining,
		SampleBuffer: d.sampleBuffer, SampleBufferFull: d.sampleBufferFull,
		ShiftRegister: d.shiftRegister, BitsRemaining: d.bitsRemaining, Silence: d.silence,
		OutputLevel: d.outputLevel, IRQPending: d.irqPending,
	}
}

func (d *DMC) Restore(s DMCState) {
	d.irqEnabled, d.loop, d.rateIndex, d.timer = s.IRQEnabled, s.Loop, s.RateIndex, s.Timer
	d.sampleAddress, d.sampleLength = s.SampleAddress, s.SampleLength
	d.currentAddress, d.bytesRemaining = s.CurrentAddress, s.BytesRemaining
	d.sampleBuffer, d.sampleBufferFull = s.SampleBuffer, s.SampleBufferFull
	d.shiftRegister, d.bitsRemaining, d.silence = s.ShiftRegister, s.BitsRemaining, s.Silence
	d.outputLevel, d.irqPending = s.OutputLevel, s.IRQPending
}

func (d *DMC) Output() byte { return d.outputLevel }

func (d *DMC) IRQ() bool { return d.irqPending }

func (d *DMC) ClearIRQ() { d.irqPending = false }
