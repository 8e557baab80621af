// Package ppu implements the NES Picture Processing Unit: background and
// sprite compositing, the Loopy scrolling model, palette RAM, and VBlank/NMI
// timing. Rendering is cycle-accurate: one Step call advances one PPU dot.
package ppu

import (
	"image"
	"image/color"
)

const (
	Width  = 256
	Height = 240
)

// Bus is the memory-mapped interface the PPU drives for nametable/CHR
// access (addresses 0x0000-0x3EFF; palette RAM is handled internally).
// Implemented by nes.PPUBus; kept narrow so ppu/ has no import dependency
// on nes/ or mapper/.
type Bus interface {
	Read(addr uint16) byte
	Write(addr uint16, v byte)
}

// A12Notifier is implemented by buses whose mapper wants edge-filtered A12
// transition signaling (MMC3's scanline IRQ counter).
type A12Notifier interface {
	NotifyA12(bit int)
}

// AddressNotifier is implemented by buses that want the VRAM address v
// after each PPUADDR write and PPUDATA access; changes of v made by
// rendering are not reported.
type AddressNotifier interface {
	PPUAddressUpdate(addr uint16)
}

// TileCacheReader is implemented by buses whose mapper exposes a
// pre-decoded tile cache. lowPlaneAddr is the pattern-table address of
// a tile row's low bitplane byte (the same address fetchLowTileByte
// computes); TileRow returns one 2-bit color index per column plus
// whether the whole row is opaque, so the render path never has to
// shift raw bitplane bits itself.
type TileCacheReader interface {
	TileRow(lowPlaneAddr uint16) (pixels [8]byte, opaque bool)
}

// Famicom/NES master palette.
// Reference: https://emulation.gametechwiki.com/index.php/Famicom_color_palette
var colors = [64]color.RGBA{
	{0x6D, 0x6D, 0x6D, 255}, {0x00, 0x24, 0x92, 255}, {0x00, 0x00, 0xDB, 255}, {0x6D, 0x49, 0xDB, 255},
	{0x92, 0x00, 0x6D, 255}, {0xB6, 0x00, 0x6D, 255}, {0xB6, 0x24, 0x00, 255}, {0x92, 0x49, 0x00, 255},
	{0x6D, 0x49, 0x00, 255}, {0x24, 0x49, 0x00, 255}, {0x00, 0x6D, 0x24, 255}, {0x00, 0x92, 0x00, 255},
	{0x00, 0x49, 0x49, 255}, {0x00, 0x00, 0x00, 255}, {0x00, 0x00, 0x00, 255}, {0x00, 0x00, 0x00, 255},
	{0xB6, 0xB6, 0xB6, 255}, {0x00, 0x6D, 0xDB, 255}, {0x00, 0x49, 0xFF, 255}, {0x92, 0x00, 0xFF, 255},
	{0xB6, 0x00, 0xFF, 255}, {0xFF, 0x00, 0x92, 255}, {0xFF, 0x00, 0x00, 255}, {0xDB, 0x6D, 0x00, 255},
	{0x92, 0x6D, 0x00, 255}, {0x24, 0x92, 0x00, 255}, {0x00, 0x92, 0x00, 255}, {0x00, 0xB6, 0x6D, 255},
	{0x00, 0x92, 0x92, 255}, {0x24, 0x24, 0x24, 255}, {0x00, 0x00, 0x00, 255}, {0x00, 0x00, 0x00, 255},
	{0xFF, 0xFF, 0xFF, 255}, {0x6D, 0xB6, 0xFF, 255}, {0x92, 0x92, 0xFF, 255}, {0xDB, 0x6D, 0xFF, 255},
	{0xFF, 0x00, 0xFF, 255}, {0xFF, 0x6D, 0xFF, 255}, {0xFF, 0x92, 0x00, 255}, {0xFF, 0xB6, 0x00, 255},
	{0xDB, 0xDB, 0x00, 255}, {0x6D, 0xDB, 0x00, 255}, {0x00, 0xFF, 0x00, 255}, {0x49, 0xFF, 0xDB, 255},
	{0x00, 0xFF, 0xFF, 255}, {0x49, 0x49, 0x49, 255}, {0x00, 0x00, 0x00, 255}, {0x00, 0x00, 0x00, 255},
	{0xFF, 0xFF, 0xFF, 255}, {0xB6, 0xDB, 0xFF, 255}, {0xDB, 0xB6, 0xFF, 255}, {0xFF, 0xB6, 0xFF, 255},
	{0xFF, 0x92, 0xFF, 255}, {0xFF, 0xB6, 0xB6, 255}, {0xFF, 0xDB, 0x92, 255}, {0xFF, 0xFF, 0x49, 255},
	{0xFF, 0xFF, 0x6D, 255}, {0xB6, 0xFF, 0x49, 255}, {0x92, 0xFF, 0x6D, 255}, {0x49, 0xFF, 0xDB, 255},
	{0x92, 0xDB, 0xFF, 255}, {0x92, 0x92, 0x92, 255}, {0x00, 0x00, 0x00, 255}, {0x00, 0x00, 0x00, 255},
}

// sprite is a secondary-OAM entry evaluated for the current scanline.
type sprite struct {
	index     int
	y         int
	tile      byte
	attribute byte
	x         int
}

func (s *sprite) priority() byte       { return s.attribute >> 5 & 1 }
func (s *sprite) horizontalFlip() bool { return s.attribute>>6&1 == 1 }
func (s *sprite) verticalFlip() bool   { return s.attribute>>7&1 == 1 }

func (s *sprite) paletteAddress(value byte) uint16 {
	return (0x3F00 | uint16((s.attribute&3)+4)*4) + uint16(value)
}

// paletteRAM is the PPU's 32-byte internal palette memory, with the
// $3F10/$3F14/$3F18/$3F1C sprite-backdrop mirrors to universal background.
type paletteRAM struct {
	ram [32]byte
}

func (r *paletteRAM) read(address uint16) byte {
	mirrored := (address-0x3F00)%0x20 + 0x3F00
	switch address {
	case 0x3F10, 0x3F14, 0x3F18, 0x3F1C:
		mirrored = address - 0x10
	}
	return r.ram[mirrored-0x3F00]
}

func (r *paletteRAM) write(address uint16, data byte) {
	mirrored := (address-0x3F00)%0x20 + 0x3F00
	switch address {
	case 0x3F10, 0x3F14, 0x3F18, 0x3F1C:
		mirrored = address - 0x10
	}
	r.ram[mirrored-0x3F00] = data
}

// PPU renders a 256x240 NTSC frame over 341x262 dots.
type PPU struct {
	bus     Bus
	picture *image.RGBA

	oamAddress   byte
	primaryOAM   [256]byte
	secondaryOAM [8]sprite
	secondaryNum int

	spriteOverflow bool
	spriteZeroHit  bool

	v, t uint16
	x    byte
	w    bool
	buffer byte

	nmiOccurred bool
	oldNMI      bool
	nmiOutput   bool

	nameTableFlag         byte
	vramIncrementFlag     byte
	spriteTableFlag       byte
	backgroundTableFlag   byte
	spriteSizeFlag        byte // 0: 8x8, 1: 8x16
	masterSlaveSelectFlag byte

	grayScale          bool
	showLeftBackground bool
	showLeftSprite     bool
	showBackground     bool
	showSprite         bool
	emphasizeRed       bool
	emphasizeGreen     bool
	emphasizeBlue      bool

	register byte

	paletteRAM paletteRAM

	nameTableByte      byte
	attributeTableByte byte
	lowTileByte        byte
	highTileByte       byte
	tileDataBuffer     [6]byte

	// tileRows pipelines decoded background tile rows the same way
	// tileDataBuffer pipelines raw bytes: index 0 holds the row just
	// fetched, index 1 holds the row due for rendering this tile.
	// Populated only when bus implements TileCacheReader.
	tileRows [2][8]byte

	cycle    int
	scanline int

	// previousA12 tracks the sign of address bit 12 across bus reads so
	// mappers that need edge-filtered A12 clocking (MMC3) see only real
	// transitions, not every re-read of the same address.
	previousA12 int

	tileCache TileCacheReader
}

// New wires a PPU to its bus, starting in VBlank (power-on state is
// otherwise unspecified by hardware and every emulator picks one).
func New(bus Bus) *PPU {
	p := &PPU{
		bus:      bus,
		picture:  image.NewRGBA(image.Rect(0, 0, Width, Height)),
		scanline: 240,
	}
	p.tileCache, _ = bus.(TileCacheReader)
	return p
}

// State is the serializable portion of PPU state for save states: OAM,
// palette RAM, loopy scroll/address registers, and rendering flags.
// Nametable VRAM lives on nes.PPUBus, not here.
type State struct {
	OAMAddress   byte
	PrimaryOAM   [256]byte
	PaletteRAM   [32]byte
	V, T         uint16
	X            byte
	W            bool
	Buffer       byte
	NMIOccurred  bool
	OldNMI       bool
	NMIOutput    bool
	CTRL         byte
	MASK         byte
	Register     byte
	Cycle        int
	Scanline     int
	PreviousA12  int
	SpriteZeroHit  bool
	SpriteOverflow bool
}

// Snapshot captures the PPU's serializable state.
func (p *PPU) Snapshot() State {
	s := State{
		OAMAddress: p.oamAddress, PrimaryOAM: p.primaryOAM, PaletteRAM: p.paletteRAM.ram,
		V: p.v, T: p.t, X: p.x, W: p.w, Buffer: p.buffer,
		NMIOccurred: p.nmiOccurred, OldNMI: p.oldNMI, NMIOutput: p.nmiOutput,
		Register: p.register, Cycle: p.cycle, Scanline: p.scanline, PreviousA12: p.previousA12,
		SpriteZeroHit: p.spriteZeroHit, SpriteOverflow: p.spriteOverflow,
	}
	s.CTRL = p.nameTableFlag | p.vramIncrementFlag<<2 | p.spriteTableFlag<<3 |
		p.backgroundTableFlag<<4 | p.spriteSizeFlag<<5 | p.masterSlaveSelectFlag<<6
	if p.nmiOutput {
		s.CTRL |= 1 << 7
	}
	s.MASK = b2u(p.grayScale) | b2u(p.showLeftBackground)<<1 | b2u(p.showLeftSprite)<<2 |
		b2u(p.showBackground)<<3 | b2u(p.showSprite)<<4 | b2u(p.emphasizeRed)<<5 |
		b2u(p.emphasizeGreen)<<6 | b2u(p.emphasizeBlue)<<7
	return s
}

func b2u(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// Restore replaces the PPU's state with a previously captured snapshot.
func (p *PPU) Restore(s State) {
	p.oamAddress, p.primaryOAM = s.OAMAddress, s.PrimaryOAM
	p.paletteRAM.ram = s.PaletteRAM
	p.v, p.t, p.x, p.w, p.buffer = s.V, s.T, s.X, s.W, s.Buffer
	p.nmiOccurred, p.oldNMI, p.nmiOutput = s.NMIOccurred, s.OldNMI, s.NMIOutput
	p.register, p.cycle, p.scanline, p.previousA12 = s.Register, s.Cycle, s.Scanline, s.PreviousA12
	p.spriteZeroHit, p.spriteOverflow = s.SpriteZeroHit, s.SpriteOverflow
	p.WritePPUCTRL(s.CTRL)
	p.WritePPUMASK(s.MASK)
}

func (p *PPU) Reset() {
	p.cycle = 0
	p.scanline = 240
}

// Frame reports whether the just-stepped cycle completed a frame and, if
// so, returns the rendered picture.
func (p *PPU) Frame() (bool, *image.RGBA) {
	if p.cycle == 257 && p.scanline == 239 {
		return true, p.picture
	}
	return false, nil
}

func (p *PPU) OAMAddress() byte     { return p.oamAddress }
func (p *PPU) OAM() *[256]byte      { return &p.primaryOAM }

func (p *PPU) WritePPUCTRL(data byte) {
	p.nameTableFlag = data & 3
	p.vramIncrementFlag = (data >> 2) & 1
	p.spriteTableFlag = (data >> 3) & 1
	p.backgroundTableFlag = (data >> 4) & 1
	p.spriteSizeFlag = (data >> 5) & 1
	p.masterSlaveSelectFlag = (data >> 6) & 1
	p.nmiOutput = (data>>7)&1 == 1
	p.t = (p.t & 0xF3FF) | ((uint16(data) & 0x03) << 10)
}

func (p *PPU) WritePPUMASK(data byte) {
	p.grayScale = data&1 == 1
	p.showLeftBackground = (data>>1)&1 == 1
	p.showLeftSprite = (data>>2)&1 == 1
	p.showBackground = (data>>3)&1 == 1
	p.showSprite = (data>>4)&1 == 1
	p.emphasizeRed = (data>>5)&1 == 1
	p.emphasizeGreen = (data>>6)&1 == 1
	p.emphasizeBlue = (data>>7)&1 == 1
}

func (p *PPU) ReadPPUSTATUS() byte {
	res := p.register & 0x1F
	if p.spriteOverflow {
		res |= 1 << 5
	}
	if p.spriteZeroHit {
		res |= 1 << 6
	}
	if p.oldNMI {
		res |= 1 << 7
	}
	p.updateNMI(false)
	p.w = false
	return res
}

func (p *PPU) WriteOAMADDR(data byte) { p.oamAddress = data }

func (p *PPU) ReadOAMDATA() byte { return p.primaryOAM[p.oamAddress] }

func (p *PPU) WriteOAMDATA(data byte) {
	p.primaryOAM[p.oamAddress] = data
	p.oamAddress++
}

func (p *PPU) WritePPUSCROLL(data byte) {
	if !p.w {
		p.t = (p.t & 0xFFE0) | (uint16(data) >> 3)
		p.x = data & 7
		p.w = true
	} else {
		p.t = (p.t & 0x8FFF) | ((uint16(data) & 0x07) << 12)
		p.t = (p.t & 0xFC1F) | ((uint16(data) & 0xF8) << 2)
		p.w = false
	}
}

func (p *PPU) WritePPUADDR(data byte) {
	if !p.w {
		p.t = (p.t & 0xC0FF) | (uint16(data) << 8)
		p.w = true
	} else {
		p.t = (p.t & 0xFF00) | uint16(data)
		p.v = p.t
		p.notifyAddress()
		p.w = false
	}
}

func (p *PPU) WritePPUDATA(data byte) {
	if p.v >= 0x3F00 {
		p.paletteRAM.write(p.v, data)
	} else {
		p.busWrite(p.v, data)
	}
	p.incrementV()
}

func (p *PPU) ReadPPUDATA() byte {
	data := p.busRead(p.v)
	var result byte
	if p.v < 0x3F00 {
		result = p.buffer
		p.buffer = data
	} else {
		// Reading palette space still buffers whatever the underlying
		// nametable mirror holds at that address, matching hardware.
		result = p.paletteRAM.read(p.v)
		p.buffer = data
	}
	p.incrementV()
	return result
}

func (p *PPU) incrementV() {
	if p.vramIncrementFlag == 0 {
		p.v++
	} else {
		p.v += 32
	}
	p.notifyAddress()
}

func (p *PPU) busRead(addr uint16) byte {
	p.signalA12(addr)
	return p.bus.Read(addr)
}

func (p *PPU) busWrite(addr uint16, v byte) {
	p.signalA12(addr)
	p.bus.Write(addr, v)
}

func (p *PPU) signalA12(addr uint16) {
	notifier, ok := p.bus.(A12Notifier)
	if !ok {
		return
	}
	bit := int((addr >> 12) & 1)
	if bit != p.previousA12 {
		notifier.NotifyA12(bit)
		p.previousA12 = bit
	}
}

func (p *PPU) notifyAddress() {
	if notifier, ok := p.bus.(AddressNotifier); ok {
		notifier.PPUAddressUpdate(p.v)
	}
}

func (p *PPU) updateNMI(flag bool) {
	p.nmiOccurred = flag
	p.oldNMI = p.nmiOccurred
}

func (p *PPU) color(value, attributeTableData byte) *color.RGBA {
	x := p.cycle - 1
	y := p.scanline
	num := byte(y&8)>>2 | byte(x&8)>>3
	palette := (attributeTableData >> (num << 1)) & 3
	paletteIndex := p.paletteRAM.read(0x3F00 | uint16((palette<<2)+value))
	return &colors[paletteIndex]
}

func (p *PPU) incrementCoarseX() {
	if p.v&0x001F == 31 {
		p.v &= 0xFFE0
		p.v ^= 0x0400
	} else {
		p.v++
	}
}

func (p *PPU) copyX() {
	p.v = (p.v & 0xFBE0) | (p.t & 0x041F)
}

func (p *PPU) copyY() {
	p.v = (p.v & 0x841F) | (p.t & 0x7BE0)
}

func (p *PPU) incrementY() {
	if (p.v & 0x7000) != 0x7000 {
		p.v += 0x1000
	} else {
		p.v &= 0x8FFF
		y := (p.v & 0x03E0) >> 5
		if y == 29 {
			y = 0
			p.v ^= 0x0800
		} else if y == 31 {
			y = 0
		} else {
			y++
		}
		p.v = (p.v & 0xFC1F) | (y << 5)
	}
}

func (p *PPU) fetchLowTileByte() {
	fineY := (p.v >> 12) & 0b111
	address := 0x1000*uint16(p.backgroundTableFlag) + uint16(p.nameTableByte)*16 + fineY
	p.lowTileByte = p.busRead(address)
	if p.tileCache != nil {
		p.tileRows[0], _ = p.tileCache.TileRow(address)
	}
}

func (p *PPU) fetchHighTileByte() {
	fineY := (p.v >> 12) & 0b111
	address := 0x1000*uint16(p.backgroundTableFlag) + uint16(p.nameTableByte)*16 + fineY + 8
	p.highTileByte = p.busRead(address)
}

func (p *PPU) fetchAttributeTableByte() {
	address := 0x23C0 | (p.v & 0x0C00) | ((p.v >> 4) & 0x38) | ((p.v >> 2) & 0x07)
	p.attributeTableByte = p.busRead(address)
}

func (p *PPU) fetchNameTableByte() {
	p.nameTableByte = p.busRead(0x2000 | (p.v & 0x0FFF))
}

// spriteHeight returns 8 or 16 depending on PPUCTRL bit 5.
func (p *PPU) spriteHeight() int {
	if p.spriteSizeFlag == 1 {
		return 16
	}
	return 8
}

// evaluateSprite scans primary OAM for sprites intersecting the next
// scanline, honoring 8x16 mode's doubled height.
func (p *PPU) evaluateSprite() {
	height := p.spriteHeight()
	spriteCount := 0
	for i := 0; i < 64; i++ {
		y := int(p.primaryOAM[i*4])
		tile := p.primaryOAM[i*4+1]
		attribute := p.primaryOAM[i*4+2]
		x := int(p.primaryOAM[i*4+3])
		if y <= p.scanline+1 && p.scanline+1 < y+height {
			if spriteCount < 8 {
				p.secondaryOAM[spriteCount] = sprite{index: i, y: y, tile: tile, attribute: attribute, x: x}
			}
			spriteCount++
		}
	}
	if 8 < spriteCount {
		spriteCount = 8
		p.spriteOverflow = true
	}
	p.secondaryNum = spriteCount
}

// sprite8x16PatternAddress resolves the CHR address of an 8x16 sprite's
// row: the tile bank comes from the tile index's low bit (not PPUCTRL),
// and rows 8-15 fall in the next tile over.
func sprite8x16PatternAddress(spr sprite, row int) uint16 {
	bank := uint16(0x0000)
	if spr.tile&1 != 0 {
		bank = 0x1000
	}
	tileIndex := spr.tile &^ 1
	half := row / 8
	rowInHalf := row % 8
	return bank + uint16(tileIndex+byte(half))*16 + uint16(rowInHalf)
}

func (p *PPU) renderSpritePixel() (int, byte) {
	if !p.showSprite {
		return 0, 0
	}
	x := p.cycle - 1
	y := p.scanline
	height := p.spriteHeight()
	for i := 0; i < p.secondaryNum; i++ {
		spr := p.secondaryOAM[i]
		if spr.x <= x && x < spr.x+8 {
			row := y - spr.y
			if spr.verticalFlip() {
				row = height - 1 - row
			}
			var address uint16
			if height == 8 {
				bank := uint16(p.spriteTableFlag) * 0x1000
				address = bank + uint16(spr.tile)*16 + uint16(row)
			} else {
				address = sprite8x16PatternAddress(spr, row)
			}
			lowTileByte := p.busRead(address)
			highTileByte := p.busRead(address + 8)
			col := x - spr.x
			if spr.horizontalFlip() {
				col = 7 - col
			}
			if p.tileCache != nil {
				pixels, _ := p.tileCache.TileRow(address)
				return i, pixels[col]
			}
			shift := 7 - col
			lv := (lowTileByte >> uint(shift)) & 1
			hv := (highTileByte >> uint(shift)) & 1
			return i, lv + hv
		}
	}
	return 0, 0
}

func (p *PPU) renderBackgroundPixel() byte {
	if !p.showBackground {
		return 0
	}
	x := p.cycle - 1
	col := x % 8
	if p.tileCache != nil {
		return p.tileRows[1][col]
	}
	lowTileByte := p.tileDataBuffer[4]
	highTileByte := p.tileDataBuffer[5]
	lv := lowTileByte >> uint(7-col) & 1
	hv := highTileByte >> uint(7-col) & 1
	return lv + hv
}

func (p *PPU) renderPixel() {
	x := p.cycle - 1
	y := p.scanline
	attributeTableByte := p.tileDataBuffer[3]
	bg := p.renderBackgroundPixel()
	i, sp := p.renderSpritePixel()
	if x < 8 && !p.showLeftBackground {
		bg = 0
	}
	if x < 8 && !p.showLeftSprite {
		sp = 0
	}
	bgOpaque := bg != 0
	spOpaque := sp != 0
	spr := p.secondaryOAM[i]
	var out *color.RGBA
	switch {
	case !spOpaque && !bgOpaque:
		out = &colors[p.paletteRAM.read(0x3F00)]
	case spOpaque && !bgOpaque:
		out = &colors[p.paletteRAM.read(spr.paletteAddress(sp))]
	case !spOpaque && bgOpaque:
		out = p.color(bg, attributeTableByte)
	default:
		if spr.priority() == 1 {
			out = p.color(bg, attributeTableByte)
		} else {
			out = &colors[p.paletteRAM.read(spr.paletteAddress(sp))]
		}
		if spr.index == 0 && x < 255 {
			p.spriteZeroHit = true
		}
	}
	p.picture.SetRGBA(x, y, *out)
}

// Step advances the PPU by one dot, returning true exactly once per frame
// at the moment VBlank NMI should fire.
func (p *PPU) Step() bool {
	p.cycle++
	if p.cycle == 341 {
		p.cycle = 0
		p.scanline++
		if p.scanline == 262 {
			p.scanline = 0
		}
	}
	if p.showBackground || p.showSprite {
		if 1 <= p.cycle && p.cycle <= 256 && p.scanline <= 239 {
			p.renderPixel()
		}
		if p.scanline == 261 && 280 <= p.cycle && p.cycle <= 304 {
			p.copyY()
		}
		if p.scanline < 240 || p.scanline == 261 {
			if 1 <= p.cycle && p.cycle <= 256 && p.cycle%8 == 0 {
				p.incrementCoarseX()
			}
			if p.cycle == 328 || p.cycle == 336 {
				p.incrementCoarseX()
			}
			if p.cycle == 256 {
				p.incrementY()
			}
			if p.cycle == 257 {
				p.copyX()
			}
			if (0 < p.cycle && p.cycle <= 257) || 320 < p.cycle {
				switch p.cycle % 8 {
				case 0:
					p.tileDataBuffer[3] = p.tileDataBuffer[0]
					p.tileDataBuffer[4] = p.tileDataBuffer[1]
					p.tileDataBuffer[5] = p.tileDataBuffer[2]
					p.tileDataBuffer[0] = p.attributeTableByte
					p.tileDataBuffer[1] = p.lowTileByte
					p.tileDataBuffer[2] = p.highTileByte
					p.tileRows[1] = p.tileRows[0]
				case 1:
					p.fetchNameTableByte()
				case 3:
					p.fetchAttributeTableByte()
				case 5:
					p.fetchLowTileByte()
				case 7:
					p.fetchHighTileByte()
				}
			}
		}
	}
	if p.scanline == 241 && p.cycle == 1 {
		p.updateNMI(true)
	}
	if p.scanline == 261 && p.cycle == 1 {
		p.spriteOverflow = false
		p.spriteZeroHit = false
		p.updateNMI(false)
	}
	if p.cycle == 257 {
		if p.scanline < 240 {
			p.evaluateSprite()
		} else {
			p.secondaryNum = 0
		}
	}
	return p.nmiOutput && p.nmiOccurred && p.scanline == 241 && p.cycle == 1
}
