package nes

import (
	"github.com/kelvindecosta/gones/mapper"
	"github.com/kelvindecosta/gones/tile"
)

// baseMapper implements only the mandatory mapper.Mapper methods, with
// no optional capability interfaces -- used wherever a test needs a
// mapper that behaves like NROM (plain CIRAM mirroring, no IRQ, no
// nametable override).
type baseMapper struct {
	mirror mapper.Mirror
	cache  *tile.Cache

	cpuReadValues map[uint16]byte
	cpuReadLog    []uint16
	cpuWrites     map[uint16]byte
	ppuReadValues map[uint16]byte
	ppuWrites     map[uint16]byte
}

func newBaseMapper() *baseMapper {
	return &baseMapper{
		mirror:        mapper.MirrorHorizontal,
		cache:         tile.NewCache(make([]byte, 16)),
		cpuReadValues: map[uint16]byte{},
		cpuWrites:     map[uint16]byte{},
		ppuReadValues: map[uint16]byte{},
		ppuWrites:     map[uint16]byte{},
	}
}

func (m *baseMapper) CPURead(addr uint16) byte {
	m.cpuReadLog = append(m.cpuReadLog, addr)
	return m.cpuReadValues[addr]
}
func (m *baseMapper) CPUWrite(addr uint16, v byte) { m.cpuWrites[addr] = v }
func (m *baseMapper) PPURead(addr uint16) byte     { return m.ppuReadValues[addr] }
func (m *baseMapper) PPUWrite(addr uint16, v byte) { m.ppuWrites[addr] = v }
func (m *baseMapper) Mirroring() mapper.Mirror     { return m.mirror }
func (m *baseMapper) TileCache() *tile.Cache       { return m.cache }
func (m *baseMapper) CHROffset(addr uint16) int    { return int(addr) }

var _ mapper.Mapper = (*baseMapper)(nil)

// capMapper embeds baseMapper for the mandatory interface and adds
// every optional capability PPUBus/console type-assert for, so tests
// can exercise capability dispatch and priority over plain CIRAM.
type capMapper struct {
	*baseMapper

	nametable map[uint16]byte

	a12Log     []int
	irqPending bool
	irqCleared bool

	addressLog []uint16
	latchLog   []uint16
}

func newCapMapper() *capMapper {
	return &capMapper{baseMapper: newBaseMapper(), nametable: map[uint16]byte{}}
}

func (m *capMapper) ReadNametable(addr uint16) byte     { return m.nametable[addr] }
func (m *capMapper) WriteNametable(addr uint16, v byte) { m.nametable[addr] = v }

func (m *capMapper) IRQPending() bool { return m.irqPending }
func (m *capMapper) ClearIRQ()        { m.irqPending = false; m.irqCleared = true }
func (m *capMapper) NotifyA12(bit int) {
	m.a12Log = append(m.a12Log, bit)
}

func (m *capMapper) PPUAddressUpdate(addr uint16) {
	m.addressLog = append(m.addressLog, addr)
}

func (m *capMapper) LatchAccess(addr uint16) {
	m.latchLog = append(m.latchLog, addr)
}

var _ mapper.Mapper = (*capMapper)(nil)
var _ mapper.NametableOverride = (*capMapper)(nil)
var _ mapper.ScanlineIRQSource = (*capMapper)(nil)
var _ mapper.PPUAddressHook = (*capMapper)(nil)
var _ mapper.ChrLatcher = (*capMapper)(nil)
