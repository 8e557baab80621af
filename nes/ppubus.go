package nes

import "github.com/kelvindecosta/gones/mapper"

// PPUBus implements ppu.Bus: it routes pattern-table accesses (0x0000-
// 0x1FFF) to the cartridge mapper and nametable accesses (0x2000-0x3EFF)
// to the console's 2 KiB CIRAM, mirrored according to the mapper's
// current Mirroring(). A mapper that implements NametableOverride
// (MMC5's ExRAM nametables) takes priority over CIRAM entirely.
//
// Palette RAM (0x3F00-0x3FFF) never reaches this bus: ppu.PPU keeps it
// internally and only calls through Bus for addresses below 0x3F00.
type PPUBus struct {
	ciram  *RAM
	mapper mapper.Mapper
}

// NewPPUBus creates the PPU-side memory bus over the console's
// nametable RAM and the cartridge's mapper.
func NewPPUBus(ciram *RAM, m mapper.Mapper) *PPUBus {
	return &PPUBus{ciram: ciram, mapper: m}
}

func (b *PPUBus) Read(address uint16) byte {
	address &= 0x3FFF
	if address < 0x2000 {
		if latcher, ok := b.mapper.(mapper.ChrLatcher); ok {
			latcher.LatchAccess(address)
		}
		return b.mapper.PPURead(address)
	}
	if nt, ok := b.mapper.(mapper.NametableOverride); ok {
		return nt.ReadNametable(address)
	}
	return b.ciram.read(b.mirrorAddress(address))
}

func (b *PPUBus) Write(address uint16, data byte) {
	address &= 0x3FFF
	if address < 0x2000 {
		b.mapper.PPUWrite(address, data)
		return
	}
	if nt, ok := b.mapper.(mapper.NametableOverride); ok {
		nt.WriteNametable(address, data)
		return
	}
	b.ciram.write(b.mirrorAddress(address), data)
}

// TileRow implements ppu.TileCacheReader: it resolves the tile row
// whose low bitplane byte sits at lowPlaneAddr to its mapper's physical
// CHR offset and returns the pre-decoded pixel row from the mapper's
// tile.Cache, so the PPU never has to shift raw bitplane bits itself.
func (b *PPUBus) TileRow(lowPlaneAddr uint16) (pixels [8]byte, opaque bool) {
	offset := b.mapper.CHROffset(lowPlaneAddr)
	row := offset & 0x7
	base := offset &^ 0xF
	t := b.mapper.TileCache().Tile(base)
	return t.Pixels[row], t.Opaque[row]
}

// NotifyA12 forwards edge-filtered PPU address-line A12 transitions
// (ppu.A12Notifier) to a mapper that counts them for its own scanline
// IRQ (MMC3).
func (b *PPUBus) NotifyA12(bit int) {
	if src, ok := b.mapper.(mapper.ScanlineIRQSource); ok {
		src.NotifyA12(bit)
	}
}

// PPUAddressUpdate forwards the VRAM addresses the PPU reports
// (ppu.AddressNotifier) to a mapper implementing mapper.PPUAddressHook;
// no mapper in package mapper implements it.
func (b *PPUBus) PPUAddressUpdate(address uint16) {
	if hook, ok := b.mapper.(mapper.PPUAddressHook); ok {
		hook.PPUAddressUpdate(address)
	}
}

// mirrorAddress folds one of the four 1 KiB logical nametables (0x2000-
// 0x2FFF, with 0x3000-0x3EFF mirroring 0x2000-0x2EFF) down onto the 2 KiB
// of physical CIRAM per the mapper's current mirroring mode.
//
// Grounded on the teacher's PPUBus.mirrorAddress/offsets table, which
// only handled the two fixed modes an iNES header can declare; this
// generalizes it to mapper.Mirroring()'s four-way result so mappers that
// bank-switch mirroring at runtime (MMC1, AxROM) work without this file
// knowing about any particular mapper.
func (b *PPUBus) mirrorAddress(address uint16) uint16 {
	table := (address - 0x2000) % 0x1000 / 0x0400 // which of the 4 logical tables, 0-3
	offset := (address - 0x2000) % 0x0400

	switch b.mapper.Mirroring() {
	case mapper.MirrorHorizontal:
		// Tables 0,1 -> physical 0; tables 2,3 -> physical 1.
		return (table/2)*0x0400 + offset
	case mapper.MirrorVertical:
		// Tables 0,2 -> physical 0; tables 1,3 -> physical 1.
		return (table%2)*0x0400 + offset
	case mapper.MirrorSingleLower:
		return offset
	case mapper.MirrorSingleUpper:
		return 0x0400 + offset
	default: // MirrorFourScreen: reported when the iNES header sets the
		// four-screen bit, but four-screen carts need extra cartridge
		// VRAM this bus doesn't have. Fall back to vertical rather than
		// index outside CIRAM's 2 KiB.
		return (table%2)*0x0400 + offset
	}
}
