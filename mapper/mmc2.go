package mapper

import (
	"github.com/kelvindecosta/gones/rom"
	"github.com/kelvindecosta/gones/tile"
)

// mmc2mmc4 implements mappers 9 (MMC2) and 10 (MMC4): two independent
// CHR latches, one per 4 KiB pattern-table half, each remembering the
// last of {$FD, $FE} tile fetched in its half and selecting a 4 KiB
// CHR bank accordingly. The latch flips when the PPU fetches the
// "magic" tile whose address matches mask (addr & 0x0FF0) ∈
// {0x0FD0, 0x0FE0}, considered independently for the low and high
// pattern tables. MMC2 switches 8 KiB PRG at $8000 with the three
// 8 KiB slots above it fixed to the last three banks; MMC4 switches
// 16 KiB at $8000 with $C000-$FFFF fixed to the last 16 KiB bank.
// $F000 selects H/V mirroring (no single-screen mode
// on this mapper family). There is no pack exemplar for either number;
// built directly from spec §4.6.
type mmc2mmc4 struct {
	prg, chr []byte
	cache    *tile.Cache
	prgRAM   [0x2000]byte
	mirror   Mirror
	isMMC4   bool

	prgBank int // 8 KiB bank (MMC2) or 16 KiB bank (MMC4)

	chrFD0, chrFE0 byte // low-half CHR banks selected by latch0
	chrFD1, chrFE1 byte // high-half CHR banks selected by latch1
	latch0, latch1 bool // false selects FD bank, true selects FE bank

	numPrgBanks int
	numChrBanks int // 4 KiB units
}

func newMMC2(r *rom.ROM) *mmc2mmc4 { return newMMC2MMC4(r, false) }
func newMMC4(r *rom.ROM) *mmc2mmc4 { return newMMC2MMC4(r, true) }

func newMMC2MMC4(r *rom.ROM, isMMC4 bool) *mmc2mmc4 {
	chr := chrBacking(r)
	prg := prgBacking(r)
	numPrg := len(prg) / 0x2000
	if isMMC4 {
		numPrg = len(prg) / 0x4000
	}
	return &mmc2mmc4{
		prg: prg, chr: chr,
		cache:       tile.NewCache(chr),
		mirror:      fromRomMirror(r.Mirror),
		isMMC4:      isMMC4,
		numPrgBanks: numPrg,
		numChrBanks: len(chr) / 0x1000,
	}
}

func (m *mmc2mmc4) CPURead(addr uint16) byte {
	if addr < 0x6000 {
		return 0
	}
	if addr < 0x8000 {
		return m.prgRAM[addr-0x6000]
	}
	if m.isMMC4 {
		if addr < 0xC000 {
			bank := m.prgBank % m.numPrgBanks
			return m.prg[bank*0x4000+int(addr-0x8000)]
		}
		last := m.numPrgBanks - 1
		return m.prg[last*0x4000+int(addr-0xC000)]
	}
	// MMC2: 8 KiB switchable at $8000, three fixed 8 KiB banks follow.
	if addr < 0xA000 {
		bank := m.prgBank % m.numPrgBanks
		return m.prg[bank*0x2000+int(addr-0x8000)]
	}
	fixedBase := m.numPrgBanks - 3
	switch {
	case addr < 0xC000:
		return m.prg[(fixedBase+0)*0x2000+int(addr-0xA000)]
	case addr < 0xE000:
		return m.prg[(fixedBase+1)*0x2000+int(addr-0xC000)]
	default:
		return m.prg[(fixedBase+2)*0x2000+int(addr-0xE000)]
	}
}

func (m *mmc2mmc4) CPUWrite(addr uint16, v byte) {
	switch {
	case addr >= 0x6000 && addr < 0x8000:
		m.prgRAM[addr-0x6000] = v
	case addr >= 0xA000 && addr < 0xB000:
		m.prgBank = int(v)
	case addr >= 0xB000 && addr < 0xC000:
		m.chrFD0 = v & 0x1F
	case addr >= 0xC000 && addr < 0xD000:
		m.chrFE0 = v & 0x1F
	case addr >= 0xD000 && addr < 0xE000:
		m.chrFD1 = v & 0x1F
	case addr >= 0xE000 && addr < 0xF000:
		m.chrFE1 = v & 0x1F
	case addr >= 0xF000:
		if v&1 == 0 {
			m.mirror = MirrorVertical
		} else {
			m.mirror = MirrorHorizontal
		}
	}
}

func (m *mmc2mmc4) chrBankOffset(addr uint16) (bank int, base uint16) {
	if addr < 0x1000 {
		if m.latch0 {
			return int(m.chrFE0), 0x0000
		}
		return int(m.chrFD0), 0x0000
	}
	if m.latch1 {
		return int(m.chrFE1), 0x1000
	}
	return int(m.chrFD1), 0x1000
}

func (m *mmc2mmc4) CHROffset(addr uint16) int {
	if m.numChrBanks == 0 {
		return int(addr) % len(m.chr)
	}
	bank, base := m.chrBankOffset(addr)
	return (bank%m.numChrBanks)*0x1000 + int(addr-base)
}

// PPURead does not flip the latch itself: the bus calls LatchAccess
// (ChrLatcher) on every pattern-table access, including ones served
// from the tile cache that never reach this method.
func (m *mmc2mmc4) PPURead(addr uint16) byte {
	return m.chr[m.CHROffset(addr)]
}

func (m *mmc2mmc4) PPUWrite(addr uint16, v byte) {}

// updateLatch implements the magic-tile edge detector: a fetch whose
// address (masked to ignore fine-Y) equals $0FD0 or $0FE0 in either
// pattern-table half flips that half's latch.
func (m *mmc2mmc4) updateLatch(addr uint16) {
	masked := addr & 0x0FF0
	switch {
	case addr < 0x1000 && masked == 0x0FD0:
		m.latch0 = false
	case addr < 0x1000 && masked == 0x0FE0:
		m.latch0 = true
	case addr >= 0x1000 && masked == 0x0FD0:
		m.latch1 = false
	case addr >= 0x1000 && masked == 0x0FE0:
		m.latch1 = true
	}
}

// LatchAccess implements ChrLatcher: nes.PPUBus calls this with the
// real fetched pattern address on every pattern-table access, so the
// latch updates even when the tile cache serves the pixel data.
func (m *mmc2mmc4) LatchAccess(addr uint16) { m.updateLatch(addr) }

// MMC2MMC4State is the serializable snapshot of an mmc2mmc4's bank
// register, CHR latches, and PRG-RAM.
type MMC2MMC4State struct {
	PRGRAM         [0x2000]byte
	Mirror         Mirror
	PRGBank        int
	ChrFD0, ChrFE0 byte
	ChrFD1, ChrFE1 byte
	Latch0, Latch1 bool
}

func (m *mmc2mmc4) SaveState() any {
	return MMC2MMC4State{
		PRGRAM: m.prgRAM, Mirror: m.mirror, PRGBank: m.prgBank,
		ChrFD0: m.chrFD0, ChrFE0: m.chrFE0, ChrFD1: m.chrFD1, ChrFE1: m.chrFE1,
		Latch0: m.latch0, Latch1: m.latch1,
	}
}

func (m *mmc2mmc4) LoadState(s any) {
	st, ok := s.(MMC2MMC4State)
	if !ok {
		return
	}
	m.prgRAM = st.PRGRAM
	m.mirror, m.prgBank = st.Mirror, st.PRGBank
	m.chrFD0, m.chrFE0, m.chrFD1, m.chrFE1 = st.ChrFD0, st.ChrFE0, st.ChrFD1, st.ChrFE1
	m.latch0, m.latch1 = st.Latch0, st.Latch1
}

func (m *mmc2mmc4) TileCache() *tile.Cache { return m.cache }
func (m *mmc2mmc4) Mirroring() Mirror      { return m.mirror }
