package mapper

import (
	"github.com/golang/glog"
	"github.com/kelvindecosta/gones/rom"
	"github.com/kelvindecosta/gones/tile"
)

// cnrom implements mapper 3 (CNROM): fixed PRG, single register
// switches an 8 KiB CHR bank. Grounded on
// andrewthecodertx-go-nes-emulator/pkg/cartridge/mapper3.go.
type cnrom struct {
	prg      []byte
	chr      []byte
	chrRAM   bool
	cache    *tile.Cache
	mirror   Mirror
	bank     int
	numBanks int // in 8 KiB units
}

func newCNROM(r *rom.ROM) *cnrom {
	chr := chrBacking(r)
	return &cnrom{
		prg:      prgBacking(r),
		chr:      chr,
		chrRAM:   r.ChrIsRAM,
		cache:    tile.NewCache(chr),
		mirror:   fromRomMirror(r.Mirror),
		numBanks: len(chr) / 0x2000,
	}
}

func (m *cnrom) CPURead(addr uint16) byte {
	if addr < 0x8000 {
		return 0
	}
	return m.prg[int(addr-0x8000)%len(m.prg)]
}

func (m *cnrom) CPUWrite(addr uint16, v byte) {
	if addr < 0x8000 || m.numBanks == 0 {
		return
	}
	m.bank = int(v) % m.numBanks
	glog.V(2).Infof("cnrom: switched CHR bank to %d", m.bank)
}

func (m *cnrom) PPURead(addr uint16) byte { return m.chr[m.CHROffset(addr)] }

func (m *cnrom) PPUWrite(addr uint16, v byte) {
	if !m.chrRAM {
		return
	}
	off := m.CHROffset(addr)
	m.chr[off] = v
	m.cache.Invalidate(off)
}

// CNROMState is the serializable snapshot of a cnrom's bank register.
type CNROMState struct{ Bank int }

func (m *cnrom) SaveState() any { return CNROMState{Bank: m.bank} }
func (m *cnrom) LoadState(s any) {
	if st, ok := s.(CNROMState); ok {
		m.bank = st.Bank
	}
}

func (m *cnrom) Mirroring() Mirror      { return m.mirror }
func (m *cnrom) TileCache() *tile.Cache { return m.cache }
func (m *cnrom) CHROffset(addr uint16) int {
	return m.bank*0x2000 + int(addr)
}
