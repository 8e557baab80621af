package mapper

import (
	"github.com/kelvindecosta/gones/rom"
	"github.com/kelvindecosta/gones/tile"
)

// gxrom, bnrom, and colordreams are the other one-register,
// no-IRQ bank-switchers spec §4.6 groups together. Each differs only
// in which bits select PRG vs CHR and how big the switchable windows
// are, so they share the same small shape rather than three near-
// identical files.

// gxrom implements mapper 66: one register, bits 4-5 select a 32 KiB
// PRG bank, bits 0-1 select an 8 KiB CHR bank.
type gxrom struct {
	prg, chr     []byte
	cache        *tile.Cache
	mirror       Mirror
	prgBank      int
	chrBank      int
	numPrgBanks  int
	numChrBanks8 int
}

func newGxROM(r *rom.ROM) *gxrom {
	chr := chrBacking(r)
	prg := prgBacking(r)
	return &gxrom{
		prg: prg, chr: chr,
		cache:        tile.NewCache(chr),
		mirror:       fromRomMirror(r.Mirror),
		numPrgBanks:  len(prg) / 0x8000,
		numChrBanks8: len(chr) / 0x2000,
	}
}

func (m *gxrom) CPURead(addr uint16) byte {
	if addr < 0x8000 {
		return 0
	}
	return m.prg[m.prgBank*0x8000+int(addr-0x8000)]
}

func (m *gxrom) CPUWrite(addr uint16, v byte) {
	if addr < 0x8000 {
		return
	}
	if m.numChrBanks8 > 0 {
		m.chrBank = int(v&0x03) % m.numChrBanks8
	}
	if m.numPrgBanks > 0 {
		m.prgBank = int((v>>4)&0x03) % m.numPrgBanks
	}
}

func (m *gxrom) PPURead(addr uint16) byte { return m.chr[m.CHROffset(addr)] }
func (m *gxrom) PPUWrite(addr uint16, v byte) {
	off := m.CHROffset(addr)
	m.chr[off] = v
	m.cache.Invalidate(off)
}
// GxROMState is the serializable snapshot of a gxrom's bank registers.
type GxROMState struct{ PRGBank, CHRBank int }

func (m *gxrom) SaveState() any { return GxROMState{PRGBank: m.prgBank, CHRBank: m.chrBank} }
func (m *gxrom) LoadState(s any) {
	if st, ok := s.(GxROMState); ok {
		m.prgBank, m.chrBank = st.PRGBank, st.CHRBank
	}
}

func (m *gxrom) Mirroring() Mirror      { return m.mirror }
func (m *gxrom) TileCache() *tile.Cache { return m.cache }
func (m *gxrom) CHROffset(addr uint16) int {
	return m.chrBank*0x2000 + int(addr)
}

// bnrom implements mapper 34: one register selects a 32 KiB PRG bank;
// CHR is fixed 8 KiB RAM.
type bnrom struct {
	prg, chr []byte
	cache    *tile.Cache
	mirror   Mirror
	bank     int
	numBanks int
}

func newBNROM(r *rom.ROM) *bnrom {
	chr := chrBacking(r)
	prg := prgBacking(r)
	return &bnrom{
		prg: prg, chr: chr,
		cache:    tile.NewCache(chr),
		mirror:   fromRomMirror(r.Mirror),
		numBanks: len(prg) / 0x8000,
	}
}

func (m *bnrom) CPURead(addr uint16) byte {
	if addr < 0x8000 {
		return 0
	}
	return m.prg[m.bank*0x8000+int(addr-0x8000)]
}

func (m *bnrom) CPUWrite(addr uint16, v byte) {
	if addr < 0x8000 || m.numBanks == 0 {
		return
	}
	m.bank = int(v) % m.numBanks
}

func (m *bnrom) PPURead(addr uint16) byte { return m.chr[m.CHROffset(addr)] }
func (m *bnrom) PPUWrite(addr uint16, v byte) {
	off := m.CHROffset(addr)
	m.chr[off] = v
	m.cache.Invalidate(off)
}
// BNROMState is the serializable snapshot of a bnrom's bank register.
type BNROMState struct{ Bank int }

func (m *bnrom) SaveState() any { return BNROMState{Bank: m.bank} }
func (m *bnrom) LoadState(s any) {
	if st, ok := s.(BNROMState); ok {
		m.bank = st.Bank
	}
}

func (m *bnrom) Mirroring() Mirror         { return m.mirror }
func (m *bnrom) TileCache() *tile.Cache    { return m.cache }
func (m *bnrom) CHROffset(addr uint16) int { return int(addr) % len(m.chr) }

// colordreams implements mapper 11: one register, low nibble selects a
// 32 KiB PRG bank, high nibble selects an 8 KiB CHR bank.
type colordreams struct {
	prg, chr     []byte
	cache        *tile.Cache
	mirror       Mirror
	prgBank      int
	chrBank      int
	numPrgBanks  int
	numChrBanks8 int
}

func newColorDreams(r *rom.ROM) *colordreams {
	chr := chrBacking(r)
	prg := prgBacking(r)
	return &colordreams{
		prg: prg, chr: chr,
		cache:        tile.NewCache(chr),
		mirror:       fromRomMirror(r.Mirror),
		numPrgBanks:  len(prg) / 0x8000,
		numChrBanks8: len(chr) / 0x2000,
	}
}

func (m *colordreams) CPURead(addr uint16) byte {
	if addr < 0x8000 {
		return 0
	}
	return m.prg[m.prgBank*0x8000+int(addr-0x8000)]
}

func (m *colordreams) CPUWrite(addr uint16, v byte) {
	if addr < 0x8000 {
		return
	}
	if m.numPrgBanks > 0 {
		m.prgBank = int(v&0x0F) % m.numPrgBanks
	}
	if m.numChrBanks8 > 0 {
		m.chrBank = int((v>>4)&0x0F) % m.numChrBanks8
	}
}

func (m *colordreams) PPURead(addr uint16) byte { return m.chr[m.CHROffset(addr)] }
func (m *colordreams) PPUWrite(addr uint16, v byte) {
	off := m.CHROffset(addr)
	m.chr[off] = v
	m.cache.Invalidate(off)
}
// ColorDreamsState is the serializable snapshot of a colordreams's bank
// registers.
type ColorDreamsState struct{ PRGBank, CHRBank int }

func (m *colordreams) SaveState() any {
	return ColorDreamsState{PRGBank: m.prgBank, CHRBank: m.chrBank}
}
func (m *colordreams) LoadState(s any) {
	if st, ok := s.(ColorDreamsState); ok {
		m.prgBank, m.chrBank = st.PRGBank, st.CHRBank
	}
}

func (m *colordreams) Mirroring() Mirror      { return m.mirror }
func (m *colordreams) TileCache() *tile.Cache { return m.cache }
func (m *colordreams) CHROffset(addr uint16) int {
	return m.chrBank*0x2000 + int(addr)
}
