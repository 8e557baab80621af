// Package mapper implements the cartridge mapper contract: PRG/CHR bank
// switching, nametable mirroring, and the optional capability hooks the
// PPU invokes for mappers with scanline IRQs, CHR latches, or other
// sub-frame behavior. The PPU never branches on mapper identity — it
// branches on the capability flags this package's Mapper interface
// reports; any given mapper simply declares which optional methods are
// meaningful to call.
package mapper

import (
	"fmt"

	"github.com/kelvindecosta/gones/rom"
	"github.com/kelvindecosta/gones/tile"
)

// Mirror mirrors rom.Mirror plus the two single-screen variants a
// mapper can select at runtime (MMC1, AxROM, and others bank-switch
// mirroring dynamically; the iNES header only gives a power-on hint).
type Mirror int

const (
	MirrorHorizontal Mirror = iota
	MirrorVertical
	MirrorSingleLower
	MirrorSingleUpper
	MirrorFourScreen
)

func fromRomMirror(m rom.Mirror) Mirror {
	switch m {
	case rom.MirrorVertical:
		return MirrorVertical
	case rom.MirrorFourScreen:
		return MirrorFourScreen
	default:
		return MirrorHorizontal
	}
}

// Mapper is the mandatory interface every cartridge mapper implements.
type Mapper interface {
	CPURead(addr uint16) byte
	CPUWrite(addr uint16, v byte)
	PPURead(addr uint16) byte
	PPUWrite(addr uint16, v byte)
	Mirroring() Mirror

	// TileCache returns the decoded-tile cache backing the mapper's
	// current CHR source, and the physical byte offset that PPU
	// address addr (0x0000-0x1FFF) currently maps to. The PPU combines
	// these to look up pre-decoded pixels without ever touching raw
	// bitplanes on the hot path.
	TileCache() *tile.Cache
	CHROffset(addr uint16) int
}

// Capability-gated optional interfaces. A mapper implements the ones it
// needs; nes.PPUBus and the console type-assert for a capability at
// each point of use and call through the narrow interface, never
// inspecting the concrete mapper type.

// ChrLatcher is implemented by mappers with a CHR address latch
// (MMC2/MMC4): the PPU reports the real fetched pattern address on
// every fetch so the mapper can detect its magic latch tiles.
type ChrLatcher interface {
	LatchAccess(addr uint16)
}

// IRQSource is implemented by any mapper that can assert a cartridge
// IRQ line, regardless of what clocks it (MMC3's A12 counter, MMC5's
// scanline hook). The console forwards IRQPending to the CPU's IRQ
// line after every instruction and never calls ClearIRQ; the mapper
// clears its own pending flag through its register writes.
type IRQSource interface {
	IRQPending() bool
	ClearIRQ()
}

// ScanlineIRQSource is implemented by mappers that count PPU address
// line A12 edges to generate a scanline IRQ (MMC3).
type ScanlineIRQSource interface {
	IRQSource
	NotifyA12(bit int)
}

// A13ChrSwitcher is the hook for the BG/sprite fetch-phase transition on
// PPU address bit 13. MMC5 implements it with an empty body, and no PPU
// or bus code calls it.
type A13ChrSwitcher interface {
	NotifyPPUA13(bit int)
}

// NametableOverride is implemented by mappers that substitute their own
// logic for nametable accesses instead of routing to CIRAM (MMC5
// ExRAM/fill-mode nametables).
type NametableOverride interface {
	ReadNametable(addr uint16) byte
	WriteNametable(addr uint16, v byte)
}

// PPUAddressHook receives the PPU's VRAM address after each PPUADDR
// write and PPUDATA access, forwarded by nes.PPUBus. No mapper in this
// package implements it.
type PPUAddressHook interface {
	PPUAddressUpdate(addr uint16)
}

// ScanlineHook is implemented by mappers that take a per-scanline call
// independent of A12 edges (MMC5's scanline IRQ). Nothing in nes/ or
// ppu/ calls OnScanline.
type ScanlineHook interface {
	OnScanline(scanline int, rendering bool)
}

// StateSaver is implemented by mappers with save-state-relevant
// register state beyond their PRG/CHR backing arrays (which the console
// snapshots separately by reference to the ROM's CHR-RAM/PRG-RAM
// regions). Bank-switch registers, IRQ counters, and latches all need
// to round-trip through a save state; the console type-asserts for this
// capability rather than knowing about any concrete mapper type.
type StateSaver interface {
	SaveState() any
	LoadState(s any)
}

// UnsupportedMapperError is returned by New for an unrecognized mapper
// number.
type UnsupportedMapperError struct {
	Number int
}

func (e *UnsupportedMapperError) Error() string {
	return fmt.Sprintf("unsupported mapper number %d", e.Number)
}

// New constructs the Mapper implementation named by r.Mapper.
func New(r *rom.ROM) (Mapper, error) {
	switch r.Mapper {
	case 0:
		return newNROM(r), nil
	case 1:
		return newMMC1(r), nil
	case 2:
		return newUxROM(r), nil
	case 3:
		return newCNROM(r), nil
	case 4:
		return newMMC3(r), nil
	case 5:
		return newMMC5(r), nil
	case 7:
		return newAxROM(r), nil
	case 9:
		return newMMC2(r), nil
	case 10:
		return newMMC4(r), nil
	case 11:
		return newColorDreams(r), nil
	case 34:
		return newBNROM(r), nil
	case 66:
		return newGxROM(r), nil
	default:
		return nil, &UnsupportedMapperError{Number: r.Mapper}
	}
}

// chrBacking flattens a ROM's 4 KiB CHR banks into one contiguous
// array so mapper implementations can compute a single physical byte
// offset that both addresses CHR data and keys the tile cache. CHR RAM
// is always writable in place; CHR ROM is copied once and never
// mutated.
func chrBacking(r *rom.ROM) []byte {
	backing := make([]byte, len(r.CHR)*0x1000)
	for i, bank := range r.CHR {
		copy(backing[i*0x1000:(i+1)*0x1000], bank)
	}
	return backing
}

// prgBacking flattens a ROM's 16 KiB PRG banks into one contiguous
// array for simple offset arithmetic.
func prgBacking(r *rom.ROM) []byte {
	backing := make([]byte, len(r.PRG)*0x4000)
	for i, bank := range r.PRG {
		copy(backing[i*0x4000:(i+1)*0x4000], bank)
	}
	return backing
}
