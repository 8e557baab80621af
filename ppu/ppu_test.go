package ppu

import "testing"

// fakeBus is a flat 16KiB PPU address space (nametables/CHR collapsed
// together; enough to exercise register semantics and timing).
type fakeBus struct {
	mem [0x4000]byte
}

func (b *fakeBus) Read(addr uint16) byte     { return b.mem[addr%0x4000] }
func (b *fakeBus) Write(addr uint16, v byte) { b.mem[addr%0x4000] = v }

func TestPPUSTATUSClearsVBlankAndWriteToggle(t *testing.T) {
	p := New(&fakeBus{})
	p.nmiOccurred = true
	p.oldNMI = true
	p.w = true
	status := p.ReadPPUSTATUS()
	if status&0x80 == 0 {
		t.Fatal("expected bit 7 set on first read after vblank")
	}
	if p.w {
		t.Errorf("reading PPUSTATUS must clear the write toggle")
	}
	if p.nmiOccurred {
		t.Errorf("reading PPUSTATUS must clear nmiOccurred")
	}
}

func TestPPUSCROLLWriteToggle(t *testing.T) {
	p := New(&fakeBus{})
	p.WritePPUSCROLL(0x7D) // coarse X write
	if p.w != true {
		t.Fatal("expected write toggle set after first PPUSCROLL write")
	}
	p.WritePPUSCROLL(0x5E)
	if p.w != false {
		t.Fatal("expected write toggle cleared after second PPUSCROLL write")
	}
}

func TestPPUADDRLoadsV(t *testing.T) {
	p := New(&fakeBus{})
	p.WritePPUADDR(0x23)
	p.WritePPUADDR(0xC0)
	if p.v != 0x23C0 {
		t.Errorf("expected v=0x23C0 after two PPUADDR writes, got %04X", p.v)
	}
}

func TestPPUDATAReadIsBufferedOutsidePalette(t *testing.T) {
	p := New(&fakeBus{})
	bus := p.bus.(*fakeBus)
	bus.mem[0x2000] = 0x11
	bus.mem[0x2001] = 0x22
	p.WritePPUADDR(0x20)
	p.WritePPUADDR(0x00)
	first := p.ReadPPUDATA()
	second := p.ReadPPUDATA()
	if first != 0 {
		t.Errorf("expected first read to return stale buffer (0), got %02X", first)
	}
	if second != 0x11 {
		t.Errorf("expected second read to return the buffered byte 0x11, got %02X", second)
	}
}

func TestPPUDATAIncrementsByStride(t *testing.T) {
	p := New(&fakeBus{})
	p.WritePPUCTRL(0x04) // vramIncrementFlag = 1 (stride 32)
	p.WritePPUADDR(0x20)
	p.WritePPUADDR(0x00)
	p.ReadPPUDATA()
	if p.v != 0x2020 {
		t.Errorf("expected v to advance by 32, got %04X", p.v)
	}
}

func TestOAMDATAAutoIncrementsAddress(t *testing.T) {
	p := New(&fakeBus{})
	p.WriteOAMADDR(0x10)
	p.WriteOAMDATA(0x99)
	if p.oamAddress != 0x11 {
		t.Errorf("expected OAMADDR to auto-increment, got %02X", p.oamAddress)
	}
	if p.primaryOAM[0x10] != 0x99 {
		t.Errorf("expected OAM[0x10]=0x99, got %02X", p.primaryOAM[0x10])
	}
}

func TestVBlankNMIFiresOnce(t *testing.T) {
	p := New(&fakeBus{})
	p.WritePPUCTRL(0x80) // enable NMI output
	p.scanline = 240
	p.cycle = 340
	fired := 0
	for i := 0; i < 2000; i++ {
		if p.Step() {
			fired++
		}
	}
	if fired != 1 {
		t.Fatalf("expected exactly one NMI within 2000 dots from pre-vblank, got %d", fired)
	}
}

func TestPaletteMirroring(t *testing.T) {
	var pr paletteRAM
	pr.write(0x3F00, 0x10)
	if got := pr.read(0x3F20); got != 0x10 {
		t.Errorf("expected 0x3F20 to mirror 0x3F00, got %02X", got)
	}
	pr.write(0x3F10, 0x20)
	if got := pr.read(0x3F00); got != 0x20 {
		t.Errorf("expected sprite backdrop 0x3F10 to mirror onto universal backdrop 0x3F00, got %02X", got)
	}
}

func TestA12NotifierCalledOnBankCrossing(t *testing.T) {
	tracker := &a12Tracker{}
	p := New(tracker)
	p.WritePPUCTRL(0x10) // backgroundTableFlag = 1 -> fetch tiles from $1000
	p.v = 0x1000
	p.fetchLowTileByte()
	if len(tracker.edges) == 0 {
		t.Fatal("expected at least one A12 notification when reading from the $1000 CHR bank")
	}
}

type a12Tracker struct {
	fakeBus
	edges []int
}

func (a *a12Tracker) NotifyA12(bit int) { a.edges = append(a.edges, bit) }

// tileCacheBus is a fakeBus whose TileRow returns canned decoded rows,
// standing in for nes.PPUBus's real tile.Cache-backed implementation.
type tileCacheBus struct {
	fakeBus
	rows map[uint16][8]byte
}

func (b *tileCacheBus) TileRow(addr uint16) ([8]byte, bool) {
	return b.rows[addr], true
}

func TestFetchLowTileBytePopulatesTileRowFromCache(t *testing.T) {
	bus := &tileCacheBus{rows: map[uint16][8]byte{0x0000: {3, 2, 1, 0, 3, 2, 1, 0}}}
	p := New(bus)
	p.fetchLowTileByte() // backgroundTableFlag=0, nameTableByte=0, fineY=0 -> address 0x0000
	if p.tileRows[0] != bus.rows[0x0000] {
		t.Fatalf("fetchLowTileByte did not populate tileRows[0] from TileCacheReader, got %v", p.tileRows[0])
	}
}

func TestRenderBackgroundPixelReadsFromTileCacheWhenAvailable(t *testing.T) {
	p := New(&tileCacheBus{})
	p.showBackground = true
	p.cycle = 3 // x = cycle-1 = 2, col = 2
	p.tileRows[1] = [8]byte{0, 1, 2, 3, 0, 1, 2, 3}
	if got := p.renderBackgroundPixel(); got != 2 {
		t.Fatalf("renderBackgroundPixel should index the decoded tile-cache row, got %d", got)
	}
}

func TestRenderBackgroundPixelFallsBackToRawBitplanesWithoutTileCache(t *testing.T) {
	p := New(&fakeBus{})
	p.showBackground = true
	p.cycle = 1 // x = 0, col = 0 -> most significant bit of each byte
	p.tileDataBuffer[4] = 0x80 // low plane bit 7 set
	p.tileDataBuffer[5] = 0x00
	if got := p.renderBackgroundPixel(); got != 1 {
		t.Fatalf("expected raw-bitplane fallback to report pixel value 1, got %d", got)
	}
}
