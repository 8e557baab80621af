package nes

import (
	"testing"

	"github.com/kelvindecosta/gones/mapper"
	"github.com/kelvindecosta/gones/tile"
)

func TestPPUBusCHRReadWrite(t *testing.T) {
	m := newBaseMapper()
	m.ppuReadValues[0x0010] = 0xAB
	bus := NewPPUBus(NewRAM(), m)

	if got := bus.Read(0x0010); got != 0xAB {
		t.Fatalf("Read(0x0010) = 0x%02x, want 0xab", got)
	}
	bus.Write(0x0005, 0xCD)
	if got := m.ppuWrites[0x0005]; got != 0xCD {
		t.Fatalf("mapper.PPUWrite not called: got 0x%02x, want 0xcd", got)
	}
}

func TestPPUBusHorizontalMirroring(t *testing.T) {
	m := newBaseMapper()
	m.mirror = mapper.MirrorHorizontal
	bus := NewPPUBus(NewRAM(), m)

	// Tables 0 and 1 share physical nametable 0.
	bus.Write(0x2000, 0x11)
	if got := bus.Read(0x2400); got != 0x11 {
		t.Fatalf("table 1 should mirror table 0 under horizontal mirroring, got 0x%02x", got)
	}
	// Tables 2 and 3 share physical nametable 1, distinct from 0/1.
	bus.Write(0x2800, 0x22)
	if got := bus.Read(0x2C00); got != 0x22 {
		t.Fatalf("table 3 should mirror table 2 under horizontal mirroring, got 0x%02x", got)
	}
	if got := bus.Read(0x2000); got != 0x11 {
		t.Fatalf("table 0 clobbered by table 2/3 write, got 0x%02x", got)
	}
}

func TestPPUBusVerticalMirroring(t *testing.T) {
	m := newBaseMapper()
	m.mirror = mapper.MirrorVertical
	bus := NewPPUBus(NewRAM(), m)

	// Tables 0 and 2 share physical nametable 0.
	bus.Write(0x2000, 0x33)
	if got := bus.Read(0x2800); got != 0x33 {
		t.Fatalf("table 2 should mirror table 0 under vertical mirroring, got 0x%02x", got)
	}
	// Tables 1 and 3 share physical nametable 1.
	bus.Write(0x2400, 0x44)
	if got := bus.Read(0x2C00); got != 0x44 {
		t.Fatalf("table 3 should mirror table 1 under vertical mirroring, got 0x%02x", got)
	}
}

func TestPPUBusSingleScreenMirroring(t *testing.T) {
	m := newBaseMapper()
	m.mirror = mapper.MirrorSingleLower
	bus := NewPPUBus(NewRAM(), m)
	bus.Write(0x2000, 0x55)
	for _, addr := range []uint16{0x2400, 0x2800, 0x2C00} {
		if got := bus.Read(addr); got != 0x55 {
			t.Fatalf("single-screen-lower: table at 0x%04x = 0x%02x, want 0x55 (all tables share nametable 0)", addr, got)
		}
	}

	m.mirror = mapper.MirrorSingleUpper
	bus.Write(0x2000, 0x66) // physically writes to nametable 1 now
	if got := bus.Read(0x2400); got != 0x66 {
		t.Fatalf("single-screen-upper: table 1 = 0x%02x, want 0x66", got)
	}
}

func TestPPUBusThreeThousandRangeMirrorsTwoThousand(t *testing.T) {
	m := newBaseMapper()
	m.mirror = mapper.MirrorVertical
	bus := NewPPUBus(NewRAM(), m)
	bus.Write(0x2000, 0x77)
	if got := bus.Read(0x3000); got != 0x77 {
		t.Fatalf("0x3000 should mirror 0x2000, got 0x%02x", got)
	}
}

func TestPPUBusNametableOverrideTakesPriorityOverCIRAM(t *testing.T) {
	m := newCapMapper()
	bus := NewPPUBus(NewRAM(), m)

	bus.Write(0x2000, 0x88)
	if got := m.nametable[0x2000]; got != 0x88 {
		t.Fatalf("write should have gone to the mapper's NametableOverride, got mapper value 0x%02x", got)
	}
	if got := bus.Read(0x2000); got != 0x88 {
		t.Fatalf("read should come back from the override, got 0x%02x", got)
	}
}

func TestPPUBusNotifyA12Forwarding(t *testing.T) {
	plain := newBaseMapper()
	plainBus := NewPPUBus(NewRAM(), plain)
	plainBus.NotifyA12(1) // must not panic when the mapper has no ScanlineIRQSource

	capM := newCapMapper()
	capBus := NewPPUBus(NewRAM(), capM)
	capBus.NotifyA12(1)
	capBus.NotifyA12(0)
	if len(capM.a12Log) != 2 || capM.a12Log[0] != 1 || capM.a12Log[1] != 0 {
		t.Fatalf("NotifyA12 not forwarded to mapper.ScanlineIRQSource: got %v", capM.a12Log)
	}
}

func TestPPUBusTileRowResolvesThroughTileCache(t *testing.T) {
	m := newBaseMapper()
	// Low bitplane row 3 = 0b10100000 (columns 0,2 set), high bitplane
	// row 3 = 0b01000000 (column 1 set) -> pixels [1,2,1,0,0,0,0,0]
	// (low plane is bit 0 of the index, high plane bit 1).
	raw := make([]byte, 16)
	raw[3] = 0b10100000
	raw[8+3] = 0b01000000
	m.cache = tile.NewCache(raw)
	bus := NewPPUBus(NewRAM(), m)

	pixels, opaque := bus.TileRow(3) // addr=3 -> offset 3 -> row 3, tile base 0
	want := [8]byte{1, 2, 1, 0, 0, 0, 0, 0}
	if pixels != want {
		t.Fatalf("TileRow pixels = %v, want %v", pixels, want)
	}
	if opaque {
		t.Fatalf("row with zero columns should not be reported opaque")
	}
}

func TestPPUBusChrLatcherForwarding(t *testing.T) {
	plain := newBaseMapper()
	plainBus := NewPPUBus(NewRAM(), plain)
	plainBus.Read(0x0005) // must not panic when the mapper has no ChrLatcher

	capM := newCapMapper()
	capBus := NewPPUBus(NewRAM(), capM)
	capBus.Read(0x0123)
	if len(capM.latchLog) != 1 || capM.latchLog[0] != 0x0123 {
		t.Fatalf("LatchAccess not forwarded on a CHR-range read: got %v", capM.latchLog)
	}
	capBus.Read(0x2000) // nametable range must not trigger the latch
	if len(capM.latchLog) != 1 {
		t.Fatalf("LatchAccess should only fire for CHR-range (<0x2000) reads, got %v", capM.latchLog)
	}
}

func TestPPUBusPPUAddressUpdateForwarding(t *testing.T) {
	plain := newBaseMapper()
	plainBus := NewPPUBus(NewRAM(), plain)
	plainBus.PPUAddressUpdate(0x2000) // no PPUAddressHook: must be a silent no-op

	capM := newCapMapper()
	capBus := NewPPUBus(NewRAM(), capM)
	capBus.PPUAddressUpdate(0x1234)
	if len(capM.addressLog) != 1 || capM.addressLog[0] != 0x1234 {
		t.Fatalf("PPUAddressUpdate not forwarded: got %v", capM.addressLog)
	}
}
