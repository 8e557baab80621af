package nes

import (
	"github.com/kelvindecosta/gones/apu"
	"github.com/kelvindecosta/gones/cpu"
	"github.com/kelvindecosta/gones/mapper"
	"github.com/kelvindecosta/gones/ppu"
)

// CPUBus implements cpu.Bus and apu.Bus: the CPU's view of memory, plus
// the narrow Read the DMC channel needs for its own sample fetches.
type CPUBus struct {
	wram        *RAM
	ppu         *ppu.PPU
	apu         *apu.APU
	cpu         *cpu.CPU
	mapper      mapper.Mapper
	controller1 *Controller
	controller2 *Controller

	// cycleCount tracks total elapsed CPU cycles so OAMDMA can apply the
	// extra stall cycle when the write lands on an odd cycle.
	cycleCount int
}

// NewCPUBus creates the CPU-side memory bus.
// CPU memory map
// 0x0000 - 0x07FF	WRAM
// 0x0800 - 0x1FFF	WRAM Mirror
// 0x2000 - 0x2007	PPU Registers
// 0x2008 - 0x3FFF	PPU Registers Mirror
// 0x4000 - 0x4013	APU registers
// 0x4014		OAMDMA
// 0x4015		APU status
// 0x4016		Controller 1 (strobes both on write)
// 0x4017		Controller 2 read / APU frame counter write
// 0x4018 - 0x401F	Unused I/O
// 0x4020 - 0xFFFF	Cartridge (mapper decides PRG-RAM/PRG-ROM layout)
func NewCPUBus(wram *RAM, p *ppu.PPU, a *apu.APU, m mapper.Mapper, c1, c2 *Controller) *CPUBus {
	return &CPUBus{wram: wram, ppu: p, apu: a, mapper: m, controller1: c1, controller2: c2}
}

func (b *CPUBus) readPPURegister(address uint16) byte {
	switch address {
	case 0x2002:
		return b.ppu.ReadPPUSTATUS()
	case 0x2004:
		return b.ppu.ReadOAMDATA()
	case 0x2007:
		return b.ppu.ReadPPUDATA()
	default:
		return 0
	}
}

// Read reads a byte, satisfying cpu.Bus and apu.Bus (the DMC channel's
// sample fetches come back through here too).
func (b *CPUBus) Read(address uint16) byte {
	switch {
	case address < 0x2000:
		return b.wram.read(address % 0x0800)
	case address < 0x4000:
		return b.readPPURegister(0x2000 + address%8)
	case address == 0x4015:
		return b.apu.ReadStatus()
	case address == 0x4016:
		return b.controller1.read()
	case address == 0x4017:
		return b.controller2.read()
	case address < 0x4020:
		return 0
	default:
		return b.mapper.CPURead(address)
	}
}

func (b *CPUBus) writePPURegister(address uint16, data byte) {
	switch address {
	case 0x2000:
		b.ppu.WritePPUCTRL(data)
	case 0x2001:
		b.ppu.WritePPUMASK(data)
	case 0x2003:
		b.ppu.WriteOAMADDR(data)
	case 0x2004:
		b.ppu.WriteOAMDATA(data)
	case 0x2005:
		b.ppu.WritePPUSCROLL(data)
	case 0x2006:
		b.ppu.WritePPUADDR(data)
	case 0x2007:
		b.ppu.WritePPUDATA(data)
	}
}

// writeOAMDMA copies the 256 bytes of page*0x100 into OAM and stalls the
// CPU 513 cycles, or 514 if the write landed on an odd CPU cycle, per
// the real hardware's DMA alignment quirk.
func (b *CPUBus) writeOAMDMA(page byte) {
	oam := b.ppu.OAM()
	base := uint16(page) << 8
	for i := range oam {
		oam[i] = b.Read(base + uint16(i))
	}
	halt := 513
	if b.cycleCount%2 != 0 {
		halt = 514
	}
	b.cpu.HaltCycles(halt)
}

// Write writes a byte, satisfying cpu.Bus.
func (b *CPUBus) Write(address uint16, data byte) {
	switch {
	case address < 0x2000:
		b.wram.write(address%0x0800, data)
	case address < 0x4000:
		b.writePPURegister(0x2000+address%8, data)
	case address == 0x4014:
		b.writeOAMDMA(data)
	case address == 0x4016:
		b.controller1.write(data)
		b.controller2.write(data)
	case address == 0x4017:
		// Real hardware multiplexes $4017 between controller 2 reads and
		// the APU frame counter write; there is no controller 2 write.
		b.apu.WriteRegister(address, data)
	case address < 0x4018:
		b.apu.WriteRegister(address, data)
	case address < 0x4020:
		// APU/IO test-mode registers, unused on a retail console.
	default:
		b.mapper.CPUWrite(address, data)
	}
}
