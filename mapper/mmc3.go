package mapper

import (
	"github.com/golang/glog"
	"github.com/kelvindecosta/gones/rom"
	"github.com/kelvindecosta/gones/tile"
)

// mmc3 implements mapper 4: six bank registers selected by $8000 bits
// 0-2 and latched by $8001; bit 6 of $8000 swaps which 8 KiB PRG slot
// is fixed vs switchable, bit 7 swaps which CHR half is 2 KiB-banked
// vs 1 KiB-banked. $A000 sets H/V mirroring, $C000/$C001 set the IRQ
// reload latch/request, $E000/$E001 disable/enable the IRQ. The
// counter is clocked on PPU-address-bit-12 rising edges; the PPU
// already edge-filters bit 12 before calling NotifyA12, so one clock
// occurs per real low-to-high transition (one per visible scanline
// during normal background/sprite fetch patterns).
// Grounded on andrewthecodertx-go-nes-emulator/pkg/cartridge/mapper4.go
// and other_examples' MMC3 ports (meadori-vibemulator, yoshiomiyamae-gones).
type mmc3 struct {
	prg    []byte
	chr    []byte
	chrRAM bool
	cache  *tile.Cache
	prgRAM [0x2000]byte

	bankSelect byte
	prgMode    byte
	chrMode    byte
	registers  [8]byte

	mirror Mirror

	prgRAMEnabled      bool
	prgRAMWriteProtect bool

	irqLatch      byte
	irqCounter    byte
	irqEnabled    bool
	irqPending    bool
	irqReloadFlag bool

	numPrg8KBanks int
	numChr1KBanks int

	lastA12 int
}

func newMMC3(r *rom.ROM) *mmc3 {
	chr := chrBacking(r)
	prg := prgBacking(r)
	return &mmc3{
		prg: prg, chr: chr,
		chrRAM:        r.ChrIsRAM,
		cache:         tile.NewCache(chr),
		mirror:        fromRomMirror(r.Mirror),
		prgRAMEnabled: true,
		numPrg8KBanks: len(prg) / 0x2000,
		numChr1KBanks: max(1, len(chr)/0x400),
	}
}

func (m *mmc3) CPURead(addr uint16) byte {
	switch {
	case addr >= 0x6000 && addr < 0x8000:
		if m.prgRAMEnabled {
			return m.prgRAM[addr-0x6000]
		}
		return 0
	case addr >= 0x8000 && addr < 0xA000:
		return m.prg[m.prgBank(0)*0x2000+int(addr-0x8000)]
	case addr >= 0xA000 && addr < 0xC000:
		return m.prg[m.prgBank(1)*0x2000+int(addr-0xA000)]
	case addr >= 0xC000 && addr < 0xE000:
		return m.prg[m.prgBank(2)*0x2000+int(addr-0xC000)]
	case addr >= 0xE000:
		return m.prg[m.prgBank(3)*0x2000+int(addr-0xE000)]
	}
	return 0
}

// prgBank returns the physical 8 KiB bank number visible at CPU slot
// (0=$8000,1=$A000,2=$C000,3=$E000).
func (m *mmc3) prgBank(slot int) int {
	last := m.numPrg8KBanks - 1
	secondLast := m.numPrg8KBanks - 2
	r6 := int(m.registers[6]) % m.numPrg8KBanks
	r7 := int(m.registers[7]) % m.numPrg8KBanks
	if m.prgMode == 0 {
		switch slot {
		case 0:
			return r6
		case 1:
			return r7
		case 2:
			return secondLast
		default:
			return last
		}
	}
	switch slot {
	case 0:
		return secondLast
	case 1:
		return r7
	case 2:
		return r6
	default:
		return last
	}
}

func (m *mmc3) CPUWrite(addr uint16, v byte) {
	switch {
	case addr >= 0x6000 && addr < 0x8000:
		if m.prgRAMEnabled && !m.prgRAMWriteProtect {
			m.prgRAM[addr-0x6000] = v
		}
	case addr >= 0x8000 && addr < 0xA000:
		if addr&1 == 0 {
			m.bankSelect = v & 0x07
			m.prgMode = (v >> 6) & 0x01
			m.chrMode = (v >> 7) & 0x01
		} else {
			m.registers[m.bankSelect] = v
		}
	case addr >= 0xA000 && addr < 0xC000:
		if addr&1 == 0 {
			if v&1 == 0 {
				m.mirror = MirrorVertical
			} else {
				m.mirror = MirrorHorizontal
			}
		} else {
			m.prgRAMWriteProtect = v&0x40 != 0
			m.prgRAMEnabled = v&0x80 != 0
		}
	case addr >= 0xC000 && addr < 0xE000:
		if addr&1 == 0 {
			m.irqLatch = v
		} else {
			m.irqCounter = 0
			m.irqReloadFlag = true
		}
	case addr >= 0xE000:
		if addr&1 == 0 {
			m.irqEnabled = false
			m.irqPending = false
		} else {
			m.irqEnabled = true
		}
	}
}

func (m *mmc3) PPURead(addr uint16) byte { return m.chr[m.CHROffset(addr)] }

func (m *mmc3) PPUWrite(addr uint16, v byte) {
	if !m.chrRAM {
		return
	}
	off := m.CHROffset(addr)
	m.chr[off] = v
	m.cache.Invalidate(off)
}

func (m *mmc3) CHROffset(addr uint16) int {
	r := func(i int) int { return int(m.registers[i]) % m.numChr1KBanks }
	var bank, base int
	if m.chrMode == 0 {
		switch {
		case addr < 0x0800:
			bank, base = r(0)&^1, 0x0000
		case addr < 0x1000:
			bank, base = r(1)&^1, 0x0800
		case addr < 0x1400:
			bank, base = r(2), 0x1000
		case addr < 0x1800:
			bank, base = r(3), 0x1400
		case addr < 0x1C00:
			bank, base = r(4), 0x1800
		default:
			bank, base = r(5), 0x1C00
		}
	} else {
		switch {
		case addr < 0x0400:
			bank, base = r(2), 0x0000
		case addr < 0x0800:
			bank, base = r(3), 0x0400
		case addr < 0x0C00:
			bank, base = r(4), 0x0800
		case addr < 0x1000:
			bank, base = r(5), 0x0C00
		case addr < 0x1800:
			bank, base = r(0)&^1, 0x1000
		default:
			bank, base = r(1)&^1, 0x1800
		}
	}
	return bank*0x400 + int(addr)-base
}

func (m *mmc3) TileCache() *tile.Cache { return m.cache }
func (m *mmc3) Mirroring() Mirror      { return m.mirror }

// NotifyA12 implements ScanlineIRQSource. The PPU already edge-filters
// before calling this (ppu.signalA12 only fires on a sign change of
// address bit 12), so every call here is a real transition; MMC3 just
// clocks its counter on the rising ones.
func (m *mmc3) NotifyA12(bit int) {
	if bit == 1 && m.lastA12 == 0 {
		m.clockIRQCounter()
	}
	m.lastA12 = bit
}

func (m *mmc3) clockIRQCounter() {
	if m.irqCounter == 0 || m.irqReloadFlag {
		m.irqCounter = m.irqLatch
		m.irqReloadFlag = false
	} else {
		m.irqCounter--
	}
	if m.irqCounter == 0 && m.irqEnabled {
		m.irqPending = true
		glog.V(2).Infof("mmc3: IRQ fired")
	}
}

// MMC3State is the serializable snapshot of an mmc3's bank registers,
// mirroring, PRG-RAM, and IRQ counter.
type MMC3State struct {
	PRGRAM             [0x2000]byte
	BankSelect         byte
	PRGMode            byte
	CHRMode            byte
	Registers          [8]byte
	Mirror             Mirror
	PRGRAMEnabled      bool
	PRGRAMWriteProtect bool
	IRQLatch           byte
	IRQCounter         byte
	IRQEnabled         bool
	IRQPending         bool
	IRQReloadFlag      bool
	LastA12            int
}

func (m *mmc3) SaveState() any {
	return MMC3State{
		PRGRAM: m.prgRAM, BankSelect: m.bankSelect, PRGMode: m.prgMode, CHRMode: m.chrMode,
		Registers: m.registers, Mirror: m.mirror, PRGRAMEnabled: m.prgRAMEnabled,
		PRGRAMWriteProtect: m.prgRAMWriteProtect, IRQLatch: m.irqLatch, IRQCounter: m.irqCounter,
		IRQEnabled: m.irqEnabled, IRQPending: m.irqPending, IRQReloadFlag: m.irqReloadFlag,
		LastA12: m.lastA12,
	}
}

func (m *mmc3) LoadState(s any) {
	st, ok := s.(MMC3State)
	if !ok {
		return
	}
	m.prgRAM = st.PRGRAM
	m.bankSelect, m.prgMode, m.chrMode = st.BankSelect, st.PRGMode, st.CHRMode
	m.registers, m.mirror = st.Registers, st.Mirror
	m.prgRAMEnabled, m.prgRAMWriteProtect = st.PRGRAMEnabled, st.PRGRAMWriteProtect
	m.irqLatch, m.irqCounter = st.IRQLatch, st.IRQCounter
	m.irqEnabled, m.irqPending, m.irqReloadFlag = st.IRQEnabled, st.IRQPending, st.IRQReloadFlag
	m.lastA12 = st.LastA12
}

func (m *mmc3) IRQPending() bool { return m.irqPending }
func (m *mmc3) ClearIRQ()        { m.irqPending = false }
