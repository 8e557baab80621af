package mapper

import (
	"github.com/kelvindecosta/gones/rom"
	"github.com/kelvindecosta/gones/tile"
)

// axrom implements mapper 7 (AxROM): a single register switches a 32
// KiB PRG bank and selects single-screen mirroring; CHR is always 8
// KiB of RAM. Grounded on
// andrewthecodertx-go-nes-emulator/pkg/cartridge/mapper7.go.
type axrom struct {
	prg      []byte
	chr      []byte
	cache    *tile.Cache
	bank     int
	numBanks int
	mirror   Mirror
}

func newAxROM(r *rom.ROM) *axrom {
	chr := chrBacking(r)
	prg := prgBacking(r)
	return &axrom{
		prg:      prg,
		chr:      chr,
		cache:    tile.NewCache(chr),
		numBanks: len(prg) / 0x8000,
		mirror:   MirrorSingleLower,
	}
}

func (m *axrom) CPURead(addr uint16) byte {
	if addr < 0x8000 {
		return 0
	}
	return m.prg[m.bank*0x8000+int(addr-0x8000)]
}

func (m *axrom) CPUWrite(addr uint16, v byte) {
	if addr < 0x8000 {
		return
	}
	bank := int(v & 0x07)
	if m.numBanks > 0 {
		bank %= m.numBanks
	}
	m.bank = bank
	if v&0x10 != 0 {
		m.mirror = MirrorSingleUpper
	} else {
		m.mirror = MirrorSingleLower
	}
}

func (m *axrom) PPURead(addr uint16) byte { return m.chr[m.CHROffset(addr)] }

func (m *axrom) PPUWrite(addr uint16, v byte) {
	off := m.CHROffset(addr)
	m.chr[off] = v
	m.cache.Invalidate(off)
}

// AxROMState is the serializable snapshot of an axrom's bank/mirror
// registers.
type AxROMState struct {
	Bank   int
	Mirror Mirror
}

func (m *axrom) SaveState() any { return AxROMState{Bank: m.bank, Mirror: m.mirror} }
func (m *axrom) LoadState(s any) {
	if st, ok := s.(AxROMState); ok {
		m.bank, m.mirror = st.Bank, st.Mirror
	}
}

func (m *axrom) Mirroring() Mirror         { return m.mirror }
func (m *axrom) TileCache() *tile.Cache    { return m.cache }
func (m *axrom) CHROffset(addr uint16) int { return int(addr) % len(m.chr) }
