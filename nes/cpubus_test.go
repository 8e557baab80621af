package nes

import (
	"testing"

	"github.com/kelvindecosta/gones/apu"
	"github.com/kelvindecosta/gones/cpu"
	"github.com/kelvindecosta/gones/ppu"
)

// noopIRQNotifier satisfies apu.IRQNotifier without touching a real CPU;
// CPUBus tests exercise register dispatch, not interrupt plumbing.
type noopIRQNotifier struct{}

func (noopIRQNotifier) RequestIRQ()   {}
func (noopIRQNotifier) ClearIRQLine() {}

func newTestCPUBus(m *baseMapper) (*CPUBus, *cpu.CPU) {
	wram := NewRAM()
	ciram := NewRAM()
	c1 := NewController()
	c2 := NewController()
	p := ppu.New(NewPPUBus(ciram, m))
	bus := NewCPUBus(wram, p, nil, m, c1, c2)
	cc := cpu.New(bus)
	bus.cpu = cc
	a := apu.New(bus, cc.HaltCycles, noopIRQNotifier{})
	bus.apu = a
	return bus, cc
}

func TestCPUBusWRAMMirroring(t *testing.T) {
	bus, _ := newTestCPUBus(newBaseMapper())
	bus.Write(0x0010, 0x42)
	for _, addr := range []uint16{0x0010, 0x0810, 0x1010, 0x1810} {
		if got := bus.Read(addr); got != 0x42 {
			t.Fatalf("Read(0x%04x) = 0x%02x, want 0x42 (WRAM mirrors every 0x0800)", addr, got)
		}
	}
}

func TestCPUBusPPURegisterMirroring(t *testing.T) {
	bus, _ := newTestCPUBus(newBaseMapper())
	// 0x2008 (the first mirror of 0x2000-0x2007) must dispatch to the
	// same PPUADDR/PPUDATA registers as their base addresses: writing
	// the address through the mirror and reading data through the base
	// (or vice versa) must land on the same location.
	bus.Write(0x2008+6, 0x20) // PPUADDR hi, via the 0x2006 mirror
	bus.Write(0x2008+6, 0x10) // PPUADDR lo -> 0x2010
	bus.Write(0x2007, 0x55)   // PPUDATA, via the base address
	bus.Write(0x2006, 0x20)   // re-point PPUADDR at 0x2010 via the base
	bus.Write(0x2006, 0x10)
	bus.Read(0x2007) // PPUDATA reads are buffered: this primes the buffer
	if got := bus.Read(0x2008 + 7); got != 0x55 {
		t.Fatalf("0x200F (PPUDATA mirror) = 0x%02x, want 0x55", got)
	}
}

func TestCPUBusOAMDMACopiesPageAndHaltsCPU(t *testing.T) {
	bus, cc := newTestCPUBus(newBaseMapper())
	// Seed WRAM page 2 (0x0200-0x02FF) with a recognizable pattern.
	for i := 0; i < 256; i++ {
		bus.Write(0x0200+uint16(i), byte(i))
	}
	bus.cycleCount = 0 // force the even-cycle (513-cycle) path
	bus.Write(0x4014, 0x02)

	oam := bus.ppu.OAM()
	for i := 0; i < 256; i++ {
		if oam[i] != byte(i) {
			t.Fatalf("OAM[%d] = 0x%02x, want 0x%02x", i, oam[i], byte(i))
		}
	}
	if _, halted := cc.Crashed(); halted {
		t.Fatalf("OAMDMA must not crash the CPU")
	}
	if got := cc.Snapshot().Stall; got != 513 {
		t.Fatalf("even-cycle OAMDMA stall = %d, want 513", got)
	}
}

func TestCPUBusOAMDMAOddCycleHaltsOneCycleLonger(t *testing.T) {
	even, evenCPU := newTestCPUBus(newBaseMapper())
	even.cycleCount = 0
	even.Write(0x4014, 0x02)

	odd, oddCPU := newTestCPUBus(newBaseMapper())
	odd.cycleCount = 1
	odd.Write(0x4014, 0x02)

	// The pending DMA stall is visible through cpu.State.Stall.
	if got, want := oddCPU.Snapshot().Stall, evenCPU.Snapshot().Stall+1; got != want {
		t.Fatalf("odd-cycle OAMDMA stall = %d, want %d (one more than even)", got, want)
	}
	evenOAM, oddOAM := even.ppu.OAM(), odd.ppu.OAM()
	for i := range evenOAM {
		if evenOAM[i] != oddOAM[i] {
			t.Fatalf("OAM contents should be identical regardless of cycle parity")
		}
	}
}

func TestCPUBusTwoControllerRouting(t *testing.T) {
	bus, _ := newTestCPUBus(newBaseMapper())
	bus.controller1.Set([8]bool{ButtonA: true})
	bus.controller2.Set([8]bool{ButtonB: true})

	bus.Write(0x4016, 1) // strobe both ports
	bus.Write(0x4016, 0)

	if got := bus.Read(0x4016) & 1; got != 1 {
		t.Fatalf("controller 1's first bit (A) should read 1, got %d", got)
	}
	if got := bus.Read(0x4017) & 1; got != 0 {
		t.Fatalf("controller 2's first bit (A, unpressed) should read 0, got %d", got)
	}
}

func TestCPUBusAPUStatusAndFrameCounterRouting(t *testing.T) {
	bus, _ := newTestCPUBus(newBaseMapper())
	bus.Write(0x4015, 0x01)   // enable pulse 1
	bus.Write(0x4003, 0x08)   // load pulse 1's length counter (only takes effect once enabled)
	if status := bus.Read(0x4015); status&0x01 == 0 {
		t.Fatalf("APU status should report pulse 1's length counter active, got 0x%02x", status)
	}
	bus.Write(0x4017, 0x80) // must route to the APU frame counter, not controller 2
}

func TestCPUBusMapperFallthrough(t *testing.T) {
	m := newBaseMapper()
	m.cpuReadValues[0x8000] = 0x99
	bus, _ := newTestCPUBus(m)

	if got := bus.Read(0x8000); got != 0x99 {
		t.Fatalf("cartridge-range read should fall through to the mapper, got 0x%02x", got)
	}
	bus.Write(0x6000, 0x77)
	if got := m.cpuWrites[0x6000]; got != 0x77 {
		t.Fatalf("cartridge-range write should fall through to the mapper, got 0x%02x", got)
	}
}

func TestCPUBusUnusedIORangeReadsZero(t *testing.T) {
	bus, _ := newTestCPUBus(newBaseMapper())
	if got := bus.Read(0x4018); got != 0 {
		t.Fatalf("unused APU/IO test range should read 0, got 0x%02x", got)
	}
}
