package mapper

import (
	"github.com/kelvindecosta/gones/rom"
	"github.com/kelvindecosta/gones/tile"
)

// mmc5 implements mapper 5: the richest of the supported mappers.
// Registers live at $5000-$5FFF. PRG mode selects how $8000-$FFFF is
// split into 8/16/32 KiB windows; CHR mode selects 8/4/2/1 KiB windows
// with two independent bank-register sets (A for sprites, B for
// background when 8x16 sprites or ExRAM mode 1 is active). ExRAM has
// four modes: write-only nametable extension, extended-attribute
// (per-tile palette + CHR high bits), general RAM, and read-only RAM.
// Nametable mapping ($5105) selects per-quadrant CIRAM-A, CIRAM-B,
// ExRAM, or a fill pattern. A scanline IRQ becomes pending when
// OnScanline reports the configured target scanline with rendering
// active; the in-frame flag follows OnScanline's rendering argument.
// PPU nametable fetches are not counted, and A12 edges are not used.
//
// Split-screen vertical mode ($5200-$5202) is recorded but not
// consulted by the rendering path — an explicitly allowed simplification
// per the spec's open design note; see DESIGN.md.
//
// There is no pack exemplar; built directly from spec §4.6.
type mmc5 struct {
	prg, chr []byte
	cache    *tile.Cache
	prgRAM   [0x8000]byte // up to 32 KiB of cartridge PRG-RAM
	exRAM    [0x400]byte
	mirror   Mirror

	prgMode byte
	chrMode byte

	prgRAMProtect1 byte
	prgRAMProtect2 byte

	exRAMMode    byte
	nametableMap byte // 2 bits per quadrant
	fillTile     byte
	fillAttr     byte

	prgBanks [5]byte // $5113-$5117; high bit distinguishes ROM/RAM banks for 5114-5117

	chrSetA   [8]byte // $5120-$5127
	chrSetB   [4]byte // $5128-$512B
	chrHiBits byte    // $5130

	splitEnabled bool
	splitSide    byte
	splitTile    byte
	splitScroll  byte
	splitBank    byte

	irqTarget  byte
	irqPending bool
	inFrame    bool

	multiplicandA byte
	multiplicandB byte

	numPrgBanks8K int
	numChrBanksA  int // 1 KiB units, for set A
	nametableFetchRun int
}

func newMMC5(r *rom.ROM) *mmc5 {
	chr := chrBacking(r)
	prg := prgBacking(r)
	return &mmc5{
		prg: prg, chr: chr,
		cache:         tile.NewCache(chr),
		mirror:        fromRomMirror(r.Mirror),
		numPrgBanks8K: len(prg) / 0x2000,
		numChrBanksA:  max(1, len(chr)/0x400),
	}
}

func (m *mmc5) CPURead(addr uint16) byte {
	switch {
	case addr >= 0x5000 && addr < 0x5100:
		return 0 // pulse/PCM audio registers, not modeled
	case addr == 0x5204:
		v := byte(0)
		if m.irqPending {
			v |= 0x80
		}
		if m.inFrame {
			v |= 0x40
		}
		m.irqPending = false
		return v
	case addr == 0x5205:
		return byte(uint16(m.multiplicandA) * uint16(m.multiplicandB))
	case addr == 0x5206:
		return byte((uint16(m.multiplicandA) * uint16(m.multiplicandB)) >> 8)
	case addr >= 0x5C00 && addr < 0x6000:
		return m.exRAM[addr-0x5C00]
	case addr >= 0x6000 && addr < 0x8000:
		return m.prgRAM[addr-0x6000]
	case addr >= 0x8000:
		return m.prg[m.prgOffset(addr)]
	}
	return 0
}

// prgOffset resolves a CPU address in $8000-$FFFF to a physical PRG
// byte offset per the current PRG mode (0=32K,1=16+16,2=16+8+8,3=8x4).
func (m *mmc5) prgOffset(addr uint16) int {
	bankOf := func(reg byte, romOnly bool) int {
		n := int(reg & 0x7F)
		if m.numPrgBanks8K > 0 {
			n %= m.numPrgBanks8K
		}
		return n
	}
	switch m.prgMode {
	case 0:
		bank := bankOf(m.prgBanks[4], true) &^ 3
		return bank*0x2000 + int(addr-0x8000)
	case 1:
		if addr < 0xC000 {
			bank := bankOf(m.prgBanks[2], false) &^ 1
			return bank*0x2000 + int(addr-0x8000)
		}
		bank := bankOf(m.prgBanks[4], true) &^ 1
		return bank*0x2000 + int(addr-0xC000)
	case 2:
		switch {
		case addr < 0xC000:
			bank := bankOf(m.prgBanks[2], false) &^ 1
			return bank*0x2000 + int(addr-0x8000)
		case addr < 0xE000:
			return bankOf(m.prgBanks[3], false)*0x2000 + int(addr-0xC000)
		default:
			return bankOf(m.prgBanks[4], true)*0x2000 + int(addr-0xE000)
		}
	default: // 3: four independent 8 KiB banks
		switch {
		case addr < 0xA000:
			return bankOf(m.prgBanks[1], false)*0x2000 + int(addr-0x8000)
		case addr < 0xC000:
			return bankOf(m.prgBanks[2], false)*0x2000 + int(addr-0xA000)
		case addr < 0xE000:
			return bankOf(m.prgBanks[3], false)*0x2000 + int(addr-0xC000)
		default:
			return bankOf(m.prgBanks[4], true)*0x2000 + int(addr-0xE000)
		}
	}
}

func (m *mmc5) CPUWrite(addr uint16, v byte) {
	switch {
	case addr == 0x5100:
		m.prgMode = v & 0x03
	case addr == 0x5101:
		m.chrMode = v & 0x03
	case addr == 0x5102:
		m.prgRAMProtect1 = v & 0x03
	case addr == 0x5103:
		m.prgRAMProtect2 = v & 0x03
	case addr == 0x5104:
		m.exRAMMode = v & 0x03
	case addr == 0x5105:
		m.nametableMap = v
	case addr == 0x5106:
		m.fillTile = v
	case addr == 0x5107:
		m.fillAttr = v & 0x03
	case addr >= 0x5113 && addr <= 0x5117:
		m.prgBanks[addr-0x5113] = v
	case addr >= 0x5120 && addr <= 0x5127:
		m.chrSetA[addr-0x5120] = v
	case addr >= 0x5128 && addr <= 0x512B:
		m.chrSetB[addr-0x5128] = v
	case addr == 0x5130:
		m.chrHiBits = v & 0x03
	case addr == 0x5200:
		m.splitEnabled = v&0x80 != 0
		m.splitSide = (v >> 6) & 1
		m.splitTile = v & 0x1F
	case addr == 0x5201:
		m.splitScroll = v
	case addr == 0x5202:
		m.splitBank = v
	case addr == 0x5203:
		m.irqTarget = v
	case addr >= 0x5C00 && addr < 0x6000:
		if m.exRAMMode != 3 {
			m.exRAM[addr-0x5C00] = v
		}
	case addr >= 0x6000 && addr < 0x8000:
		if m.prgRAMWritable() {
			m.prgRAM[addr-0x6000] = v
		}
	case addr == 0x5205:
		m.multiplicandA = v
	case addr == 0x5206:
		m.multiplicandB = v
	}
}

func (m *mmc5) prgRAMWritable() bool {
	return m.prgRAMProtect1 == 2 && m.prgRAMProtect2 == 1
}

func (m *mmc5) PPURead(addr uint16) byte { return m.chr[m.CHROffset(addr)] }

func (m *mmc5) PPUWrite(addr uint16, v byte) {
	// MMC5's CHR is always ROM in practice; writes are ignored.
}

func (m *mmc5) CHROffset(addr uint16) int {
	if m.numChrBanksA == 0 {
		return int(addr) % len(m.chr)
	}
	// Background tiles pull from CHR set B when 8x16 sprites or ExRAM
	// mode 1 is in effect; this core approximates that by always using
	// set A, since distinguishing BG vs sprite fetches happens in the
	// PPU via NotifyPPUA13, not here. Set B is exposed for that hook.
	idx := int(addr / 0x400)
	if idx >= len(m.chrSetA) {
		idx = len(m.chrSetA) - 1
	}
	bank := int(m.chrSetA[idx]) % m.numChrBanksA
	return bank*0x400 + int(addr%0x400)
}

func (m *mmc5) TileCache() *tile.Cache { return m.cache }
func (m *mmc5) Mirroring() Mirror      { return m.mirror }

// NotifyPPUA13 implements A13ChrSwitcher with an empty body: the
// transition is accepted and ignored, and CHROffset always resolves
// through CHR set A, so set B is never selected for background fetches.
func (m *mmc5) NotifyPPUA13(bit int) {}

// ReadNametable / WriteNametable implement NametableOverride: each
// quadrant of nametable space resolves per nametableMap's 2-bit field
// to CIRAM-A, CIRAM-B, ExRAM, or the fill pattern. CIRAM routing is
// left to the caller (nes.PPUBus owns CIRAM); this method only handles
// the ExRAM/fill cases the override exists for.
func (m *mmc5) ReadNametable(addr uint16) byte {
	quadrant := (addr - 0x2000) / 0x400
	mode := (m.nametableMap >> (quadrant * 2)) & 0x03
	switch mode {
	case 2:
		return m.exRAM[addr%0x400]
	case 3:
		if addr%0x400 >= 0x3C0 {
			return m.fillAttr
		}
		return m.fillTile
	default:
		return 0 // CIRAM cases are handled by the caller before reaching here
	}
}

func (m *mmc5) WriteNametable(addr uint16, v byte) {
	quadrant := (addr - 0x2000) / 0x400
	mode := (m.nametableMap >> (quadrant * 2)) & 0x03
	if mode == 2 && m.exRAMMode != 3 {
		m.exRAM[addr%0x400] = v
	}
}

// OnScanline implements ScanlineHook: the in-frame flag is set while
// the caller reports rendering and cleared (with nametableFetchRun)
// when it does not; the IRQ becomes pending when a rendering scanline
// equals the configured target. Nametable fetches are not counted.
func (m *mmc5) OnScanline(scanline int, rendering bool) {
	if !rendering {
		m.inFrame = false
		m.nametableFetchRun = 0
		return
	}
	m.inFrame = true
	if scanline == int(m.irqTarget) {
		m.irqPending = true
	}
}

// MMC5State is the serializable snapshot of an mmc5's registers,
// PRG-RAM, and ExRAM.
type MMC5State struct {
	PRGRAM         [0x8000]byte
	ExRAM          [0x400]byte
	Mirror         Mirror
	PRGMode        byte
	CHRMode        byte
	PRGRAMProtect1 byte
	PRGRAMProtect2 byte
	ExRAMMode      byte
	NametableMap   byte
	FillTile       byte
	FillAttr       byte
	PRGBanks       [5]byte
	ChrSetA        [8]byte
	ChrSetB        [4]byte
	ChrHiBits      byte
	SplitEnabled   bool
	SplitSide      byte
	SplitTile      byte
	SplitScroll    byte
	SplitBank      byte
	IRQTarget      byte
	IRQPending     bool
	InFrame        bool
	MultiplicandA  byte
	MultiplicandB  byte
	NametableFetchRun int
}

func (m *mmc5) SaveState() any {
	return MMC5State{
		PRGRAM: m.prgRAM, ExRAM: m.exRAM, Mirror: m.mirror, PRGMode: m.prgMode, CHRMode: m.chrMode,
		PRGRAMProtect1: m.prgRAMProtect1, PRGRAMProtect2: m.prgRAMProtect2, ExRAMMode: m.exRAMMode,
		NametableMap: m.nametableMap, FillTile: m.fillTile, FillAttr: m.fillAttr,
		PRGBanks: m.prgBanks, ChrSetA: m.chrSetA, ChrSetB: m.chrSetB, ChrHiBits: m.chrHiBits,
		SplitEnabled: m.splitEnabled, SplitSide: m.splitSide, SplitTile: m.splitTile,
		SplitScroll: m.splitScroll, SplitBank: m.splitBank, IRQTarget: m.irqTarget,
		IRQPending: m.irqPending, InFrame: m.inFrame, MultiplicandA: m.multiplicandA,
		MultiplicandB: m.multiplicandB, NametableFetchRun: m.nametableFetchRun,
	}
}

func (m *mmc5) LoadState(s any) {
	st, ok := s.(MMC5State)
	if !ok {
		return
	}
	m.prgRAM, m.exRAM, m.mirror = st.PRGRAM, st.ExRAM, st.Mirror
	m.prgMode, m.chrMode = st.PRGMode, st.CHRMode
	m.prgRAMProtect1, m.prgRAMProtect2 = st.PRGRAMProtect1, st.PRGRAMProtect2
	m.exRAMMode, m.nametableMap, m.fillTile, m.fillAttr = st.ExRAMMode, st.NametableMap, st.FillTile, st.FillAttr
	m.prgBanks, m.chrSetA, m.chrSetB, m.chrHiBits = st.PRGBanks, st.ChrSetA, st.ChrSetB, st.ChrHiBits
	m.splitEnabled, m.splitSide, m.splitTile = st.SplitEnabled, st.SplitSide, st.SplitTile
	m.splitScroll, m.splitBank, m.irqTarget = st.SplitScroll, st.SplitBank, st.IRQTarget
	m.irqPending, m.inFrame = st.IRQPending, st.InFrame
	m.multiplicandA, m.multiplicandB, m.nametableFetchRun = st.MultiplicandA, st.MultiplicandB, st.NametableFetchRun
}

func (m *mmc5) IRQPending() bool { return m.irqPending }
func (m *mmc5) ClearIRQ()        { m.irqPending = false }
