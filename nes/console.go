package nes

import (
	"image"

	"github.com/kelvindecosta/gones/apu"
	"github.com/kelvindecosta/gones/cpu"
	"github.com/kelvindecosta/gones/mapper"
	"github.com/kelvindecosta/gones/ppu"
	"github.com/kelvindecosta/gones/rom"
)

// Console is the host-facing emulation API: advance it, pull video
// frames and audio samples from it, feed it controller input, and
// save/restore its state.
type Console interface {
	Reset() error
	Step() (int, error)
	Frame() (*image.RGBA, bool)
	AudioRing() *apu.Ring
	SetButtons(port int, buttons [8]bool)
	Crashed() (uint16, bool)
	Snapshot() Snapshot
	Restore(s Snapshot) error
}

// irqLine combines the APU's and the mapper's independent IRQ sources
// onto the CPU's single shared interrupt line. cpu.CPU only tracks one
// asserted/deasserted bool with no per-source bookkeeping, so the APU
// and a mapper (MMC3/MMC5 scanline IRQ) driving RequestIRQ/ClearIRQLine
// directly would let either source's "no longer pending" silence the
// other's still-pending request.
type irqLine struct {
	cpu            *cpu.CPU
	apuAsserted    bool
	mapperAsserted bool
}

func (l *irqLine) RequestIRQ()   { l.apuAsserted = true; l.sync() }
func (l *irqLine) ClearIRQLine() { l.apuAsserted = false; l.sync() }

func (l *irqLine) setMapper(asserted bool) {
	if asserted == l.mapperAsserted {
		return
	}
	l.mapperAsserted = asserted
	l.sync()
}

func (l *irqLine) sync() {
	if l.apuAsserted || l.mapperAsserted {
		l.cpu.RequestIRQ(cpu.IRQNormal)
	} else {
		l.cpu.ClearIRQLine()
	}
}

// NesConsole wires the CPU, PPU, APU, and cartridge mapper together and
// drives them in lockstep. It implements Console.
type NesConsole struct {
	cpu    *cpu.CPU
	ppu    *ppu.PPU
	apu    *apu.APU
	mapper mapper.Mapper
	irq    *irqLine

	cpuRAM      *RAM
	ciram       *RAM
	controller1 *Controller
	controller2 *Controller
	cpuBus      *CPUBus

	rom *rom.ROM

	lastFrame    uint64
	currentFrame uint64
	buffer       *image.RGBA
}

// NewConsole parses an iNES ROM image and wires a playable console for
// it. apu.New always produces apu.SampleRate (44100 Hz) samples; it is
// the host's job to resample for its output device if needed.
func NewConsole(romData []byte) (*NesConsole, error) {
	r, err := rom.Parse(romData)
	if err != nil {
		return nil, err
	}
	m, err := mapper.New(r)
	if err != nil {
		return nil, err
	}

	cpuRAM := NewRAM()
	ciram := NewRAM()
	controller1 := NewController()
	controller2 := NewController()

	ppuBus := NewPPUBus(ciram, m)
	p := ppu.New(ppuBus)

	c := &NesConsole{
		ppu: p, mapper: m, rom: r,
		cpuRAM: cpuRAM, ciram: ciram,
		controller1: controller1, controller2: controller2,
	}

	cpuBus := NewCPUBus(cpuRAM, p, nil, m, controller1, controller2)
	cc := cpu.New(cpuBus)
	cpuBus.cpu = cc
	c.cpu = cc
	c.cpuBus = cpuBus
	c.irq = &irqLine{cpu: cc}
	a := apu.New(cpuBus, cc.HaltCycles, c.irq)
	c.apu = a
	cpuBus.apu = a

	return c, nil
}

func (c *NesConsole) Reset() error {
	c.currentFrame = 0
	c.lastFrame = 0
	c.cpu.Reset()
	c.ppu.Reset()
	return nil
}

// Step executes one CPU instruction and advances the APU and PPU the
// matching number of cycles: the APU one cycle per CPU cycle, the PPU
// three dots per CPU cycle, per the NTSC clock ratio.
func (c *NesConsole) Step() (int, error) {
	cycles, err := c.cpu.Step()
	if err != nil {
		if ce, ok := err.(*cpu.CrashError); ok {
			return cycles, &CrashError{PC: ce.PC}
		}
		return cycles, err
	}
	c.cpuBus.cycleCount += cycles

	for i := 0; i < cycles; i++ {
		c.apu.Step()
	}

	for i := 0; i < cycles*3; i++ {
		if c.ppu.Step() {
			c.cpu.TriggerNMI()
		}
		if ok, f := c.ppu.Frame(); ok {
			c.currentFrame++
			c.buffer = f
		}
	}

	// The mapper IRQ line is level-sensitive, same as real hardware: a
	// game's own register writes clear irqPending internally (e.g.
	// MMC3's $E000), so this just forwards the current level rather
	// than acknowledging it on the console's behalf.
	if src, ok := c.mapper.(mapper.IRQSource); ok {
		c.irq.setMapper(src.IRQPending())
	}

	// MMC1's bus-conflict write-suppression clock runs once per CPU
	// cycle, independent of the Mapper interface every other mapper
	// satisfies.
	if ticker, ok := c.mapper.(interface{ Tick() }); ok {
		for i := 0; i < cycles; i++ {
			ticker.Tick()
		}
	}

	return cycles, nil
}

// Frame reports whether a new frame completed since the last call.
func (c *NesConsole) Frame() (*image.RGBA, bool) {
	if c.lastFrame < c.currentFrame {
		c.lastFrame = c.currentFrame
		return c.buffer, true
	}
	return c.buffer, false
}

func (c *NesConsole) AudioRing() *apu.Ring { return c.apu.Ring() }

// SetButtons updates one of the two controller ports' button state.
// Ports are 1 and 2; any other value is ignored.
func (c *NesConsole) SetButtons(port int, buttons [8]bool) {
	switch port {
	case 1:
		c.controller1.Set(buttons)
	case 2:
		c.controller2.Set(buttons)
	}
}

// Crashed reports whether the CPU halted on an undecodable opcode, and
// where. Step keeps returning the same CrashError until Reset.
func (c *NesConsole) Crashed() (uint16, bool) { return c.cpu.Crashed() }

// saveStateVersion increments whenever Snapshot's field set changes in
// a way that would make an old snapshot unsafe to Restore.
const saveStateVersion = 1

// Snapshot is the serializable record of the console's entire state:
// plain Go values the host can gob-encode (or otherwise serialize) for
// durable storage. nes/ itself never touches a byte format.
type Snapshot struct {
	Version     int
	Fingerprint uint32

	CPU  cpu.State
	PPU  ppu.State
	APU  apu.State
	WRAM [2048]byte
	RAM  [2048]byte // PPU nametable VRAM (behind PPUBus.ciram)

	Controller1, Controller2 ControllerState

	// MapperState is nil when the mapper has no dynamic state beyond
	// its PRG/CHR backing arrays (StateSaver unimplemented, e.g. NROM).
	MapperState any
}

// Snapshot captures the console's entire serializable state.
func (c *NesConsole) Snapshot() Snapshot {
	s := Snapshot{
		Version:     saveStateVersion,
		Fingerprint: c.rom.Fingerprint(),
		CPU:         c.cpu.Snapshot(),
		PPU:         c.ppu.Snapshot(),
		APU:         c.apu.Snapshot(),
		WRAM:        c.cpuRAM.Snapshot(),
		RAM:         c.ciram.Snapshot(),
		Controller1: c.controller1.Snapshot(),
		Controller2: c.controller2.Snapshot(),
	}
	if saver, ok := c.mapper.(mapper.StateSaver); ok {
		s.MapperState = saver.SaveState()
	}
	return s
}

// Restore replaces the console's state with a previously captured
// snapshot. A schema version mismatch is a hard error (the snapshot's
// shape can't be trusted); a ROM fingerprint mismatch still restores
// but returns a RestoreWarning so the host can tell the player their
// save state doesn't match the loaded ROM.
func (c *NesConsole) Restore(s Snapshot) error {
	if s.Version != saveStateVersion {
		return &SaveStateMismatchError{Got: s.Version, Want: saveStateVersion}
	}

	c.cpu.Restore(s.CPU)
	c.ppu.Restore(s.PPU)
	c.apu.Restore(s.APU)
	c.cpuRAM.Restore(s.WRAM)
	c.ciram.Restore(s.RAM)
	c.controller1.Restore(s.Controller1)
	c.controller2.Restore(s.Controller2)
	if saver, ok := c.mapper.(mapper.StateSaver); ok && s.MapperState != nil {
		saver.LoadState(s.MapperState)
	}
	c.lastFrame, c.currentFrame = 0, 0

	if current := c.rom.Fingerprint(); current != s.Fingerprint {
		return &RestoreWarning{SnapshotFingerprint: s.Fingerprint, CurrentFingerprint: current}
	}
	return nil
}
