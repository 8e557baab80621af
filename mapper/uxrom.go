package mapper

import (
	"github.com/golang/glog"
	"github.com/kelvindecosta/gones/rom"
	"github.com/kelvindecosta/gones/tile"
)

// uxrom implements mapper 2 (UxROM): a single register switches the 16
// KiB bank visible at $8000; $C000 is fixed to the last bank. CHR is
// always RAM. Grounded on jyane-jnes/nes/mapper2.go and
// andrewthecodertx-go-nes-emulator/pkg/cartridge/mapper2.go.
type uxrom struct {
	prg      []byte
	chr      []byte
	cache    *tile.Cache
	mirror   Mirror
	bank     int
	numBanks int
}

func newUxROM(r *rom.ROM) *uxrom {
	chr := chrBacking(r)
	prg := prgBacking(r)
	return &uxrom{
		prg:      prg,
		chr:      chr,
		cache:    tile.NewCache(chr),
		mirror:   fromRomMirror(r.Mirror),
		numBanks: len(prg) / 0x4000,
	}
}

func (m *uxrom) CPURead(addr uint16) byte {
	switch {
	case addr >= 0x8000 && addr < 0xC000:
		return m.prg[m.bank*0x4000+int(addr-0x8000)]
	case addr >= 0xC000:
		last := m.numBanks - 1
		return m.prg[last*0x4000+int(addr-0xC000)]
	}
	return 0
}

func (m *uxrom) CPUWrite(addr uint16, v byte) {
	if addr < 0x8000 {
		return
	}
	m.bank = int(v) % m.numBanks
	glog.V(2).Infof("uxrom: switched PRG bank to %d", m.bank)
}

func (m *uxrom) PPURead(addr uint16) byte { return m.chr[m.CHROffset(addr)] }

func (m *uxrom) PPUWrite(addr uint16, v byte) {
	off := m.CHROffset(addr)
	m.chr[off] = v
	m.cache.Invalidate(off)
}

// UxROMState is the serializable snapshot of a uxrom's bank register.
type UxROMState struct{ Bank int }

func (m *uxrom) SaveState() any { return UxROMState{Bank: m.bank} }
func (m *uxrom) LoadState(s any) {
	if st, ok := s.(UxROMState); ok {
		m.bank = st.Bank
	}
}

func (m *uxrom) Mirroring() Mirror         { return m.mirror }
func (m *uxrom) TileCache() *tile.Cache    { return m.cache }
func (m *uxrom) CHROffset(addr uint16) int { return int(addr) % len(m.chr) }
