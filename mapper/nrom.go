package mapper

import (
	"github.com/kelvindecosta/gones/rom"
	"github.com/kelvindecosta/gones/tile"
)

// nrom implements mapper 0: fixed PRG mapping, no bank switching. A
// single 16 KiB PRG bank is mirrored into both $8000 and $C000.
// Grounded on jyane-jnes/nes/mapper0.go.
type nrom struct {
	prg    []byte
	chr    []byte
	chrRAM bool
	cache  *tile.Cache
	mirror Mirror
}

func newNROM(r *rom.ROM) *nrom {
	chr := chrBacking(r)
	return &nrom{
		prg:    prgBacking(r),
		chr:    chr,
		chrRAM: r.ChrIsRAM,
		cache:  tile.NewCache(chr),
		mirror: fromRomMirror(r.Mirror),
	}
}

func (m *nrom) CPURead(addr uint16) byte {
	if addr < 0x8000 {
		return 0
	}
	return m.prg[int(addr-0x8000)%len(m.prg)]
}

func (m *nrom) CPUWrite(addr uint16, v byte) {}

func (m *nrom) PPURead(addr uint16) byte { return m.chr[m.CHROffset(addr)] }

func (m *nrom) PPUWrite(addr uint16, v byte) {
	if !m.chrRAM {
		return
	}
	off := m.CHROffset(addr)
	m.chr[off] = v
	m.cache.Invalidate(off)
}

func (m *nrom) Mirroring() Mirror       { return m.mirror }
func (m *nrom) TileCache() *tile.Cache  { return m.cache }
func (m *nrom) CHROffset(addr uint16) int { return int(addr) % len(m.chr) }
