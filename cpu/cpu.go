// Package cpu implements the NES's 6502-derived CPU: official and
// widely-used illegal opcodes, all addressing modes, the interrupt
// gate (RESET/NMI/IRQ/BRK), and cycle accounting including page-cross
// and taken-branch penalties.
package cpu

import "fmt"

const Frequency = 1789773

// Bus is the memory-mapped interface the CPU drives. Implemented by
// nes.CPUBus; kept as a narrow interface here so cpu/ has no import
// dependency on nes/.
type Bus interface {
	Read(addr uint16) byte
	Write(addr uint16, v byte)
}

type addressingMode int

const (
	modeImplied addressingMode = iota
	modeAccumulator
	modeImmediate
	modeZeroPage
	modeZeroPageX
	modeZeroPageY
	modeRelative
	modeAbsolute
	modeAbsoluteX
	modeAbsoluteY
	modeIndirect
	modeIndirectX
	modeIndirectY
)

// Flags packs the 6502 status byte. Bit 5 (R, "reserved") is always 1
// whenever the flags are pushed to the stack.
type Flags struct {
	C, Z, I, D, B, V, N bool
}

func (f *Flags) encode(breakBit bool) byte {
	var b byte
	set := func(bit uint, v bool) {
		if v {
			b |= 1 << bit
		}
	}
	set(0, f.C)
	set(1, f.Z)
	set(2, f.I)
	set(3, f.D)
	set(4, breakBit)
	set(5, true) // unused bit, always 1 when pushed
	set(6, f.V)
	set(7, f.N)
	return b
}

func (f *Flags) decode(b byte) {
	f.C = b&0x01 != 0
	f.Z = b&0x02 != 0
	f.I = b&0x04 != 0
	f.D = b&0x08 != 0
	f.B = b&0x10 != 0
	f.V = b&0x40 != 0
	f.N = b&0x80 != 0
}

// IRQKind names the kind of a maskable interrupt request. IRQNormal is
// the only kind; RequestIRQ ignores it and drives a single shared line,
// and the non-maskable interrupt goes through TriggerNMI instead.
type IRQKind int

const (
	IRQNormal IRQKind = iota
)

// CrashError is returned by Step when the fetched opcode has no table
// entry — the emulator's modeled definition of a CPU crash.
type CrashError struct {
	PC     uint16
	Opcode byte
}

func (e *CrashError) Error() string {
	return fmt.Sprintf("cpu crashed: unknown opcode %#02x at PC=%#04x", e.Opcode, e.PC)
}

type instruction struct {
	mnemonic string
	mode     addressingMode
	execute  func(c *CPU, mode addressingMode, operand uint16, pageCrossed bool)
	size     uint16
	cycles   int
}

// CPU is the 6502-derived interpreter. A single Step call executes one
// instruction, services one interrupt, or consumes one DMA-stall cycle,
// and returns the number of CPU cycles consumed.
type CPU struct {
	A, X, Y byte
	S       byte
	PC      uint16
	P       Flags

	bus          Bus
	table        [256]instruction
	stall        int
	irqLine      bool
	nmiLine      bool
	crashed      bool
	crashedAt    uint16
	lastMnemonic string
}

// New wires a CPU to its bus and performs power-on reset.
func New(bus Bus) *CPU {
	c := &CPU{bus: bus}
	c.buildTable()
	c.Reset()
	return c
}

// Reset implements the RESET entry of the interrupt gate: PC loads
// from the word at 0xFFFC and I is set.
func (c *CPU) Reset() {
	c.PC = c.read16(0xFFFC)
	c.S = 0xFD
	c.P.decode(0x24)
	c.stall = 0
	c.crashed = false
}

// RequestIRQ asserts the maskable interrupt line; it stays asserted
// until the servicing component (APU frame counter, MMC3, MMC5, ...)
// calls ClearIRQ-equivalent logic on its own side and stops requesting.
func (c *CPU) RequestIRQ(kind IRQKind) { c.irqLine = true }

// ClearIRQLine deasserts the maskable interrupt line; call once no
// pending source remains.
func (c *CPU) ClearIRQLine() { c.irqLine = false }

// TriggerNMI asserts the non-maskable interrupt line; the PPU calls
// this once per VBlank when NMI-on-VBlank is enabled.
func (c *CPU) TriggerNMI() { c.nmiLine = true }

// HaltCycles stalls the CPU for n cycles (OAMDMA halts it for 513 or
// 514 depending on CPU parity).
func (c *CPU) HaltCycles(n int) { c.stall += n }

// Crashed reports whether Step has hit an unknown opcode; every later
// Step returns a CrashError for the same PC until Reset.
func (c *CPU) Crashed() (uint16, bool) { return c.crashedAt, c.crashed }

// State is the serializable portion of CPU state for save states: the
// registers, flags, interrupt lines, and DMA-stall counter. CPU RAM
// lives on nes.CPUBus, not here, so it isn't part of this struct.
type State struct {
	A, X, Y   byte
	S         byte
	PC        uint16
	P         Flags
	Stall     int
	IRQLine   bool
	NMILine   bool
	Crashed   bool
	CrashedAt uint16
}

// Snapshot captures the CPU's serializable state.
func (c *CPU) Snapshot() State {
	return State{
		A: c.A, X: c.X, Y: c.Y, S: c.S, PC: c.PC, P: c.P,
		Stall: c.stall, IRQLine: c.irqLine, NMILine: c.nmiLine,
		Crashed: c.crashed, CrashedAt: c.crashedAt,
	}
}

// Restore replaces the CPU's state with a previously captured snapshot.
// The bus and opcode table are untouched.
func (c *CPU) Restore(s State) {
	c.A, c.X, c.Y, c.S, c.PC, c.P = s.A, s.X, s.Y, s.S, s.PC, s.P
	c.stall, c.irqLine, c.nmiLine = s.Stall, s.IRQLine, s.NMILine
	c.crashed, c.crashedAt = s.Crashed, s.CrashedAt
}

func (c *CPU) read(addr uint16) byte      { return c.bus.Read(addr) }
func (c *CPU) write(addr uint16, v byte)  { c.bus.Write(addr, v) }

// read16 reads a little-endian word at addr with normal address-space
// wraparound (no page-wrap bug).
func (c *CPU) read16(addr uint16) uint16 {
	lo := uint16(c.read(addr))
	hi := uint16(c.read(addr + 1))
	return lo | hi<<8
}

// read16Wrapped reproduces the 6502's JMP ($xxFF) page-wrap bug: when
// the low byte of the pointer is 0xFF, the high byte is fetched from
// $xx00 of the *same* page rather than the next page.
func (c *CPU) read16Wrapped(addr uint16) uint16 {
	lo := uint16(c.read(addr))
	hiAddr := (addr & 0xFF00) | ((addr + 1) & 0x00FF)
	hi := uint16(c.read(hiAddr))
	return lo | hi<<8
}

func (c *CPU) push(v byte) {
	c.write(0x100|uint16(c.S), v)
	c.S--
}

func (c *CPU) pop() byte {
	c.S++
	return c.read(0x100 | uint16(c.S))
}

func (c *CPU) pushWord(v uint16) {
	c.push(byte(v >> 8))
	c.push(byte(v))
}

func (c *CPU) popWord() uint16 {
	lo := uint16(c.pop())
	hi := uint16(c.pop())
	return lo | hi<<8
}

func (c *CPU) setNZ(v byte) {
	c.P.N = v&0x80 != 0
	c.P.Z = v == 0
}

func samePage(a, b uint16) bool { return a&0xFF00 == b&0xFF00 }

// Step services the interrupt gate, then executes one instruction
// (or consumes one stall cycle), returning CPU cycles spent.
func (c *CPU) Step() (int, error) {
	if c.crashed {
		return 0, &CrashError{PC: c.crashedAt, Opcode: c.read(c.crashedAt)}
	}
	if c.stall > 0 {
		c.stall--
		return 1, nil
	}
	if c.nmiLine {
		c.nmiLine = false
		c.pushWord(c.PC)
		c.push(c.P.encode(false))
		c.P.I = true
		c.PC = c.read16(0xFFFA)
		return 7, nil
	}
	if c.irqLine && !c.P.I {
		c.pushWord(c.PC)
		c.push(c.P.encode(false))
		c.P.I = true
		c.PC = c.read16(0xFFFE)
		return 7, nil
	}

	opcode := c.read(c.PC)
	inst := c.table[opcode]
	if inst.execute == nil {
		c.crashed = true
		c.crashedAt = c.PC
		return 0, &CrashError{PC: c.PC, Opcode: opcode}
	}

	operand, pageCrossed := c.decodeOperand(inst.mode)
	c.PC += inst.size
	cycles := inst.cycles

	startPC := c.PC
	inst.execute(c, inst.mode, operand, pageCrossed)

	if pageCrossed && readsMemory(inst.mode, inst.mnemonic) {
		cycles++
	}
	if isBranch(inst.mnemonic) && c.PC != startPC {
		cycles++
		if pageCrossed {
			cycles++
		}
	}
	c.lastMnemonic = inst.mnemonic
	return cycles, nil
}

// readsMemory reports whether an instruction pays the extra cycle on a
// page-crossing indexed read. Stores and read-modify-write opcodes
// already carry that cycle in their table count.
func readsMemory(mode addressingMode, mnemonic string) bool {
	switch mnemonic {
	case "STA", "ASL", "LSR", "ROL", "ROR", "INC", "DEC",
		"SLO", "RLA", "SRE", "RRA", "DCP", "ISC":
		return false
	}
	switch mode {
	case modeAbsoluteX, modeAbsoluteY, modeIndirectY:
		return true
	}
	return false
}

func isBranch(mnemonic string) bool {
	switch mnemonic {
	case "BCC", "BCS", "BEQ", "BMI", "BNE", "BPL", "BVC", "BVS":
		return true
	}
	return false
}

// decodeOperand resolves the effective address (or immediate operand
// address) for the current instruction's addressing mode, reporting
// whether a page boundary was crossed computing it.
func (c *CPU) decodeOperand(mode addressingMode) (uint16, bool) {
	switch mode {
	case modeImplied, modeAccumulator:
		return 0, false
	case modeImmediate:
		return c.PC + 1, false
	case modeZeroPage:
		return uint16(c.read(c.PC + 1)), false
	case modeZeroPageX:
		return uint16(c.read(c.PC+1) + c.X), false
	case modeZeroPageY:
		return uint16(c.read(c.PC+1) + c.Y), false
	case modeRelative:
		offset := c.read(c.PC + 1)
		base := c.PC + 2
		var target uint16
		if offset < 0x80 {
			target = base + uint16(offset)
		} else {
			target = base + uint16(offset) - 0x100
		}
		return target, !samePage(base, target)
	case modeAbsolute:
		return c.read16(c.PC + 1), false
	case modeAbsoluteX:
		base := c.read16(c.PC + 1)
		addr := base + uint16(c.X)
		return addr, !samePage(base, addr)
	case modeAbsoluteY:
		base := c.read16(c.PC + 1)
		addr := base + uint16(c.Y)
		return addr, !samePage(base, addr)
	case modeIndirect:
		ptr := c.read16(c.PC + 1)
		return c.read16Wrapped(ptr), false
	case modeIndirectX:
		ptr := c.read(c.PC+1) + c.X
		lo := uint16(c.read(uint16(ptr)))
		hi := uint16(c.read(uint16(ptr + 1)))
		return lo | hi<<8, false
	case modeIndirectY:
		ptr := c.read(c.PC + 1)
		lo := uint16(c.read(uint16(ptr)))
		hi := uint16(c.read(uint16(ptr + 1)))
		base := lo | hi<<8
		addr := base + uint16(c.Y)
		return addr, !samePage(base, addr)
	}
	return 0, false
}

// DebugString renders the current state the way the teacher's trace
// log did, for use by the debug console / instruction tracing.
func (c *CPU) DebugString() string {
	return fmt.Sprintf("PC=%04X A=%02X X=%02X Y=%02X S=%02X P=%02X %s",
		c.PC, c.A, c.X, c.Y, c.S, c.P.encode(false), c.lastMnemonic)
}
