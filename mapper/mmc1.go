package mapper

import (
	"github.com/golang/glog"
	"github.com/kelvindecosta/gones/rom"
	"github.com/kelvindecosta/gones/tile"
)

// mmc1 implements mapper 1: a 5-bit LSB-first serial shift register fed
// by writes to $8000-$FFFF. Bit 7 set resets the register and forces
// PRG mode 3 (fix-last). After the fifth non-reset write, the
// accumulated value latches into the register chosen by address bits
// 13-14 (control/CHR0/CHR1/PRG). Consecutive-cycle writes are ignored
// to emulate MMC1's bus-conflict-driven write suppression.
// Grounded on andrewthecodertx-go-nes-emulator/pkg/cartridge/mapper1.go.
type mmc1 struct {
	prg    []byte
	chr    []byte
	chrRAM bool
	cache  *tile.Cache

	prgRAM [0x2000]byte

	shift      byte
	shiftCount int

	control byte // mirroring(2) | prgMode(2) | chrMode(1)
	chr0    byte
	chr1    byte
	prg5    byte

	numPrgBanks16 int
	numChrBanks4  int

	prgRAMEnabled bool

	// MMC1 ignores a write on the CPU cycle immediately following a
	// previous write (bus conflict); the console advances cycle through
	// Tick, and CPUWrite records lastWriteCycle.
	lastWriteCycle int64
	cycle          int64
}

func newMMC1(r *rom.ROM) *mmc1 {
	chr := chrBacking(r)
	prg := prgBacking(r)
	m := &mmc1{
		prg: prg, chr: chr,
		chrRAM:        r.ChrIsRAM,
		cache:         tile.NewCache(chr),
		control:       0x0C, // power-on: PRG mode 3, fix-last
		numPrgBanks16: len(prg) / 0x4000,
		numChrBanks4:  len(chr) / 0x1000,
		prgRAMEnabled: true,
	}
	return m
}

// Tick advances MMC1's internal bus-conflict clock. The console calls
// this once per CPU cycle; it is not part of the mandatory Mapper
// interface because only MMC1 needs cycle-level write suppression.
func (m *mmc1) Tick() { m.cycle++ }

func (m *mmc1) CPURead(addr uint16) byte {
	switch {
	case addr >= 0x6000 && addr < 0x8000:
		if m.prgRAMEnabled {
			return m.prgRAM[addr-0x6000]
		}
		return 0
	case addr >= 0x8000 && addr < 0xC000:
		bank := m.prgBankLow()
		return m.prg[bank*0x4000+int(addr-0x8000)]
	case addr >= 0xC000:
		bank := m.prgBankHigh()
		return m.prg[bank*0x4000+int(addr-0xC000)]
	}
	return 0
}

func (m *mmc1) prgMode() byte { return (m.control >> 2) & 0x03 }
func (m *mmc1) chrMode() byte { return (m.control >> 4) & 0x01 }

func (m *mmc1) prgBankLow() int {
	switch m.prgMode() {
	case 0, 1:
		return int(m.prg5&0xFE) % m.numPrgBanks16
	case 2:
		return 0
	default: // 3
		return int(m.prg5) % m.numPrgBanks16
	}
}

func (m *mmc1) prgBankHigh() int {
	switch m.prgMode() {
	case 0, 1:
		return int(m.prg5|0x01) % m.numPrgBanks16
	case 2:
		return int(m.prg5) % m.numPrgBanks16
	default: // 3
		return m.numPrgBanks16 - 1
	}
}

func (m *mmc1) CPUWrite(addr uint16, v byte) {
	if addr < 0x6000 {
		return
	}
	if addr < 0x8000 {
		if m.prgRAMEnabled {
			m.prgRAM[addr-0x6000] = v
		}
		return
	}
	if m.cycle == m.lastWriteCycle+1 {
		// Bus conflict: consecutive-cycle writes are ignored.
		m.lastWriteCycle = m.cycle
		return
	}
	m.lastWriteCycle = m.cycle

	if v&0x80 != 0 {
		m.shift = 0
		m.shiftCount = 0
		m.control |= 0x0C
		return
	}
	m.shift = (m.shift >> 1) | ((v & 1) << 4)
	m.shiftCount++
	if m.shiftCount < 5 {
		return
	}
	value := m.shift
	m.shift = 0
	m.shiftCount = 0
	switch {
	case addr < 0xA000:
		m.control = value & 0x1F
	case addr < 0xC000:
		m.chr0 = value & 0x1F
	case addr < 0xE000:
		m.chr1 = value & 0x1F
	default:
		m.prg5 = value & 0x0F
		m.prgRAMEnabled = value&0x10 == 0
	}
	glog.V(2).Infof("mmc1: register write addr=%#x value=%#x control=%#x", addr, value, m.control)
}

func (m *mmc1) PPURead(addr uint16) byte  { return m.chr[m.CHROffset(addr)] }
func (m *mmc1) PPUWrite(addr uint16, v byte) {
	if !m.chrRAM {
		return
	}
	off := m.CHROffset(addr)
	m.chr[off] = v
	m.cache.Invalidate(off)
}

func (m *mmc1) CHROffset(addr uint16) int {
	if m.numChrBanks4 == 0 {
		return int(addr) % len(m.chr)
	}
	if m.chrMode() == 0 {
		bank := int(m.chr0&0xFE) % m.numChrBanks4
		if addr >= 0x1000 {
			bank++
		}
		return bank*0x1000 + int(addr&0x0FFF)
	}
	if addr < 0x1000 {
		return (int(m.chr0) % m.numChrBanks4) * 0x1000 + int(addr)
	}
	return (int(m.chr1) % m.numChrBanks4) * 0x1000 + int(addr-0x1000)
}

func (m *mmc1) TileCache() *tile.Cache { return m.cache }

// MMC1State is the serializable snapshot of an mmc1's registers, shift
// register, and PRG-RAM.
type MMC1State struct {
	PRGRAM         [0x2000]byte
	Shift          byte
	ShiftCount     int
	Control        byte
	CHR0, CHR1     byte
	PRG5           byte
	PRGRAMEnabled  bool
	LastWriteCycle int64
	Cycle          int64
}

func (m *mmc1) SaveState() any {
	return MMC1State{
		PRGRAM: m.prgRAM, Shift: m.shift, ShiftCount: m.shiftCount, Control: m.control,
		CHR0: m.chr0, CHR1: m.chr1, PRG5: m.prg5, PRGRAMEnabled: m.prgRAMEnabled,
		LastWriteCycle: m.lastWriteCycle, Cycle: m.cycle,
	}
}

func (m *mmc1) LoadState(s any) {
	st, ok := s.(MMC1State)
	if !ok {
		return
	}
	m.prgRAM = st.PRGRAM
	m.shift, m.shiftCount, m.control = st.Shift, st.ShiftCount, st.Control
	m.chr0, m.chr1, m.prg5 = st.CHR0, st.CHR1, st.PRG5
	m.prgRAMEnabled = st.PRGRAMEnabled
	m.lastWriteCycle, m.cycle = st.LastWriteCycle, st.Cycle
}

func (m *mmc1) Mirroring() Mirror {
	switch m.control & 0x03 {
	case 0:
		return MirrorSingleLower
	case 1:
		return MirrorSingleUpper
	case 2:
		return MirrorVertical
	default:
		return MirrorHorizontal
	}
}
