package channels

// DutyTable holds the four selectable 8-step square waveforms.
var DutyTable = [4][8]byte{
	{0, 1, 0, 0, 0, 0, 0, 0},
	{0, 1, 1, 0, 0, 0, 0, 0},
	{0, 1, 1, 1, 1, 0, 0, 0},
	{1, 0, 0, 1, 1, 1, 1, 1},
}

// Pulse is one of the APU's two square-wave channels. channelNum (1 or
// 2) changes the sweep unit's negate-mode off-by-one, matching hardware.
type Pulse struct {
	channelNum   int
	enabled      bool
	lengthHalted bool
	dutyMode     byte
	dutyPosition byte

	timerPeriod uint16
	timerValue  uint16

	lengthCounter byte

	envelope EnvelopeUnit
	sweep    SweepUnit
}

func NewPulse(channelNum int) *Pulse {
	p := &Pulse{channelNum: channelNum, sweep: *NewSweepUnit(channelNum)}
	return p
}

func (p *Pulse) Reset() {
	ch := p.channelNum
	*p = Pulse{channelNum: ch, sweep: *NewSweepUnit(ch)}
}

func (p *Pulse) WriteRegister(addr uint16, value byte) {
	switch addr & 3 {
	case 0:
		p.dutyMode = (value >> 6) & 3
		p.lengthHalted = value&0x20 != 0
		p.envelope.loop = p.lengthHalted
		p.envelope.constant = value&0x10 != 0
		p.envelope.value = value & 0x0F
	case 1:
		p.sweep.Write(value)
	case 2:
		p.timerPeriod = (p.timerPeriod & 0xFF00) | uint16(value)
	case 3:
		p.timerPeriod = (p.timerPeriod & 0x00FF) | (uint16(value&0x07) << 8)
		if p.enabled {
			p.lengthCounter = LengthTable[(value>>3)&0x1F]
		}
		p.envelope.start = true
		p.dutyPosition = 0
	}
}

func (p *Pulse) ClockTimer() {
	if p.timerValue == 0 {
		p.timerValue = p.timerPeriod
		p.dutyPosition = (p.dutyPosition + 1) % 8
	} else {
		p.timerValue--
	}
}

func (p *Pulse) ClockEnvelope() { p.envelope.Clock() }

func (p *Pulse) ClockLengthCounter() {
	if !p.lengthHalted && p.lengthCounter > 0 {
		p.lengthCounter--
	}
}

func (p *Pulse) ClockSweep() {
	p.timerPeriod = p.sweep.Clock(p.timerPeriod)
}

func (p *Pulse) SetEnabled(enabled bool) {
	p.enabled = enabled
	if !enabled {
		p.lengthCounter = 0
	}
}

func (p *Pulse) IsLengthCounterActive() bool { return p.lengthCounter > 0 }

// PulseState is the serializable snapshot of a Pulse channel.
type PulseState struct {
	Enabled      bool
	LengthHalted bool
	DutyMode     byte
	DutyPosition byte
	TimerPeriod  uint16
	TimerValue   uint16
	LengthCounter byte
	Envelope     EnvelopeState
	Sweep        SweepState
}

func (p *Pulse) Snapshot() PulseState {
	return PulseState{
		Enabled: p.enabled, LengthHalted: p.lengthHalted, DutyMode: p.dutyMode,
		DutyPosition: p.dutyPosition, TimerPeriod: p.timerPeriod, TimerValue: p.timerValue,
		LengthCounter: p.lengthCounter, Envelope: p.envelope.Snapshot(), Sweep: p.sweep.Snapshot(),
	}
}

func (p *Pulse) Restore(s PulseState) {
	p.enabled, p.lengthHalted, p.dutyMode = s.Enabled, s.LengthHalted, s.DutyMode
	p.dutyPosition, p.timerPeriod, p.timerValue = s.DutyPosition, s.TimerPeriod, s.TimerValue
	p.lengthCounter = s.LengthCounter
	p.envelope.Restore(s.Envelope)
	p.sweep.Restore(s.Sweep)
}

// Output returns the channel's current DAC input, 0-15.
func (p *Pulse) Output() byte {
	if !p.enabled || p.lengthCounter == 0 || p.timerPeriod < 8 {
		return 0
	}
	if p.sweep.IsMuting(p.timerPeriod) {
		return 0
	}
	if DutyTable[p.dutyMode][p.dutyPosition] == 0 {
		return 0
	}
	return p.envelope.Volume()
}
