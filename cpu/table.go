package cpu

func regA(c *CPU) byte { return c.A }
func regX(c *CPU) byte { return c.X }
func regY(c *CPU) byte { return c.Y }

// buildTable fills in the 256-entry opcode table. Unlisted entries
// keep their zero value (execute == nil), which Step treats as a CPU
// crash — matching spec §4.3's "unknown opcode -> fatal crash".
func (c *CPU) buildTable() {
	t := &c.table
	set := func(op byte, mnemonic string, mode addressingMode, size uint16, cycles int, fn func(*CPU, addressingMode, uint16, bool)) {
		t[op] = instruction{mnemonic: mnemonic, mode: mode, execute: fn, size: size, cycles: cycles}
	}

	cmpA := compare(regA)
	cmpX := compare(regX)
	cmpY := compare(regY)

	// Official opcodes.
	set(0x00, "BRK", modeImplied, 1, 7, brk)
	set(0x01, "ORA", modeIndirectX, 2, 6, ora)
	set(0x05, "ORA", modeZeroPage, 2, 3, ora)
	set(0x06, "ASL", modeZeroPage, 2, 5, asl)
	set(0x08, "PHP", modeImplied, 1, 3, php)
	set(0x09, "ORA", modeImmediate, 2, 2, ora)
	set(0x0A, "ASL", modeAccumulator, 1, 2, asl)
	set(0x0D, "ORA", modeAbsolute, 3, 4, ora)
	set(0x0E, "ASL", modeAbsolute, 3, 6, asl)
	set(0x11, "ORA", modeIndirectY, 2, 5, ora)
	set(0x15, "ORA", modeZeroPageX, 2, 4, ora)
	set(0x16, "ASL", modeZeroPageX, 2, 6, asl)
	set(0x18, "CLC", modeImplied, 1, 2, clc)
	set(0x19, "ORA", modeAbsoluteY, 3, 4, ora)
	set(0x1D, "ORA", modeAbsoluteX, 3, 4, ora)
	set(0x1E, "ASL", modeAbsoluteX, 3, 7, asl)
	set(0x20, "JSR", modeAbsolute, 3, 6, jsr)
	set(0x21, "AND", modeIndirectX, 2, 6, and)
	set(0x24, "BIT", modeZeroPage, 2, 3, bit)
	set(0x25, "AND", modeZeroPage, 2, 3, and)
	set(0x26, "ROL", modeZeroPage, 2, 5, rol)
	set(0x28, "PLP", modeImplied, 1, 4, plp)
	set(0x29, "AND", modeImmediate, 2, 2, and)
	set(0x2A, "ROL", modeAccumulator, 1, 2, rol)
	set(0x2C, "BIT", modeAbsolute, 3, 4, bit)
	set(0x2D, "AND", modeAbsolute, 3, 4, and)
	set(0x2E, "ROL", modeAbsolute, 3, 6, rol)
	set(0x31, "AND", modeIndirectY, 2, 5, and)
	set(0x35, "AND", modeZeroPageX, 2, 4, and)
	set(0x36, "ROL", modeZeroPageX, 2, 6, rol)
	set(0x38, "SEC", modeImplied, 1, 2, sec)
	set(0x39, "AND", modeAbsoluteY, 3, 4, and)
	set(0x3D, "AND", modeAbsoluteX, 3, 4, and)
	set(0x3E, "ROL", modeAbsoluteX, 3, 7, rol)
	set(0x40, "RTI", modeImplied, 1, 6, rti)
	set(0x41, "EOR", modeIndirectX, 2, 6, eor)
	set(0x45, "EOR", modeZeroPage, 2, 3, eor)
	set(0x46, "LSR", modeZeroPage, 2, 5, lsr)
	set(0x48, "PHA", modeImplied, 1, 3, pha)
	set(0x49, "EOR", modeImmediate, 2, 2, eor)
	set(0x4A, "LSR", modeAccumulator, 1, 2, lsr)
	set(0x4C, "JMP", modeAbsolute, 3, 3, jmp)
	set(0x4D, "EOR", modeAbsolute, 3, 4, eor)
	set(0x4E, "LSR", modeAbsolute, 3, 6, lsr)
	set(0x51, "EOR", modeIndirectY, 2, 5, eor)
	set(0x55, "EOR", modeZeroPageX, 2, 4, eor)
	set(0x56, "LSR", modeZeroPageX, 2, 6, lsr)
	set(0x58, "CLI", modeImplied, 1, 2, cli)
	set(0x59, "EOR", modeAbsoluteY, 3, 4, eor)
	set(0x5D, "EOR", modeAbsoluteX, 3, 4, eor)
	set(0x5E, "LSR", modeAbsoluteX, 3, 7, lsr)
	set(0x60, "RTS", modeImplied, 1, 6, rts)
	set(0x61, "ADC", modeIndirectX, 2, 6, adc)
	set(0x65, "ADC", modeZeroPage, 2, 3, adc)
	set(0x66, "ROR", modeZeroPage, 2, 5, ror)
	set(0x68, "PLA", modeImplied, 1, 4, pla)
	set(0x69, "ADC", modeImmediate, 2, 2, adc)
	set(0x6A, "ROR", modeAccumulator, 1, 2, ror)
	set(0x6C, "JMP", modeIndirect, 3, 5, jmp)
	set(0x6D, "ADC", modeAbsolute, 3, 4, adc)
	set(0x6E, "ROR", modeAbsolute, 3, 6, ror)
	set(0x71, "ADC", modeIndirectY, 2, 5, adc)
	set(0x75, "ADC", modeZeroPageX, 2, 4, adc)
	set(0x76, "ROR", modeZeroPageX, 2, 6, ror)
	set(0x78, "SEI", modeImplied, 1, 2, sei)
	set(0x79, "ADC", modeAbsoluteY, 3, 4, adc)
	set(0x7D, "ADC", modeAbsoluteX, 3, 4, adc)
	set(0x7E, "ROR", modeAbsoluteX, 3, 7, ror)
	set(0x81, "STA", modeIndirectX, 2, 6, sta)
	set(0x84, "STY", modeZeroPage, 2, 3, sty)
	set(0x85, "STA", modeZeroPage, 2, 3, sta)
	set(0x86, "STX", modeZeroPage, 2, 3, stx)
	set(0x88, "DEY", modeImplied, 1, 2, dey)
	set(0x8A, "TXA", modeImplied, 1, 2, txa)
	set(0x8C, "STY", modeAbsolute, 3, 4, sty)
	set(0x8D, "STA", modeAbsolute, 3, 4, sta)
	set(0x8E, "STX", modeAbsolute, 3, 4, stx)
	set(0x91, "STA", modeIndirectY, 2, 6, sta)
	set(0x94, "STY", modeZeroPageX, 2, 4, sty)
	set(0x95, "STA", modeZeroPageX, 2, 4, sta)
	set(0x96, "STX", modeZeroPageY, 2, 4, stx)
	set(0x98, "TYA", modeImplied, 1, 2, tya)
	set(0x99, "STA", modeAbsoluteY, 3, 5, sta)
	set(0x9A, "TXS", modeImplied, 1, 2, txs)
	set(0x9D, "STA", modeAbsoluteX, 3, 5, sta)
	set(0xA0, "LDY", modeImmediate, 2, 2, ldy)
	set(0xA1, "LDA", modeIndirectX, 2, 6, lda)
	set(0xA2, "LDX", modeImmediate, 2, 2, ldx)
	set(0xA4, "LDY", modeZeroPage, 2, 3, ldy)
	set(0xA5, "LDA", modeZeroPage, 2, 3, lda)
	set(0xA6, "LDX", modeZeroPage, 2, 3, ldx)
	set(0xA8, "TAY", modeImplied, 1, 2, tay)
	set(0xA9, "LDA", modeImmediate, 2, 2, lda)
	set(0xAA, "TAX", modeImplied, 1, 2, tax)
	set(0xAC, "LDY", modeAbsolute, 3, 4, ldy)
	set(0xAD, "LDA", modeAbsolute, 3, 4, lda)
	set(0xAE, "LDX", modeAbsolute, 3, 4, ldx)
	set(0xB1, "LDA", modeIndirectY, 2, 5, lda)
	set(0xB4, "LDY", modeZeroPageX, 2, 4, ldy)
	set(0xB5, "LDA", modeZeroPageX, 2, 4, lda)
	set(0xB6, "LDX", modeZeroPageY, 2, 4, ldx)
	set(0xB8, "CLV", modeImplied, 1, 2, clv)
	set(0xB9, "LDA", modeAbsoluteY, 3, 4, lda)
	set(0xBA, "TSX", modeImplied, 1, 2, tsx)
	set(0xBC, "LDY", modeAbsoluteX, 3, 4, ldy)
	set(0xBD, "LDA", modeAbsoluteX, 3, 4, lda)
	set(0xBE, "LDX", modeAbsoluteY, 3, 4, ldx)
	set(0xC0, "CPY", modeImmediate, 2, 2, cmpY)
	set(0xC1, "CMP", modeIndirectX, 2, 6, cmpA)
	set(0xC4, "CPY", modeZeroPage, 2, 3, cmpY)
	set(0xC5, "CMP", modeZeroPage, 2, 3, cmpA)
	set(0xC6, "DEC", modeZeroPage, 2, 5, dec)
	set(0xC8, "INY", modeImplied, 1, 2, iny)
	set(0xC9, "CMP", modeImmediate, 2, 2, cmpA)
	set(0xCA, "DEX", modeImplied, 1, 2, dex)
	set(0xCC, "CPY", modeAbsolute, 3, 4, cmpY)
	set(0xCD, "CMP", modeAbsolute, 3, 4, cmpA)
	set(0xCE, "DEC", modeAbsolute, 3, 6, dec)
	set(0xD1, "CMP", modeIndirectY, 2, 5, cmpA)
	set(0xD5, "CMP", modeZeroPageX, 2, 4, cmpA)
	set(0xD6, "DEC", modeZeroPageX, 2, 6, dec)
	set(0xD8, "CLD", modeImplied, 1, 2, cld)
	set(0xD9, "CMP", modeAbsoluteY, 3, 4, cmpA)
	set(0xDD, "CMP", modeAbsoluteX, 3, 4, cmpA)
	set(0xDE, "DEC", modeAbsoluteX, 3, 7, dec)
	set(0xE0, "CPX", modeImmediate, 2, 2, cmpX)
	set(0xE1, "SBC", modeIndirectX, 2, 6, sbc)
	set(0xE4, "CPX", modeZeroPage, 2, 3, cmpX)
	set(0xE5, "SBC", modeZeroPage, 2, 3, sbc)
	set(0xE6, "INC", modeZeroPage, 2, 5, inc)
	set(0xE8, "INX", modeImplied, 1, 2, inx)
	set(0xE9, "SBC", modeImmediate, 2, 2, sbc)
	set(0xEA, "NOP", modeImplied, 1, 2, nop)
	set(0xEC, "CPX", modeAbsolute, 3, 4, cmpX)
	set(0xED, "SBC", modeAbsolute, 3, 4, sbc)
	set(0xEE, "INC", modeAbsolute, 3, 6, inc)
	set(0xF1, "SBC", modeIndirectY, 2, 5, sbc)
	set(0xF5, "SBC", modeZeroPageX, 2, 4, sbc)
	set(0xF6, "INC", modeZeroPageX, 2, 6, inc)
	set(0xF8, "SED", modeImplied, 1, 2, sed)
	set(0xF9, "SBC", modeAbsoluteY, 3, 4, sbc)
	set(0xFD, "SBC", modeAbsoluteX, 3, 4, sbc)
	set(0xFE, "INC", modeAbsoluteX, 3, 7, inc)

	// Branches read P at dispatch time, not at table-build time, so
	// they're wrapped to evaluate lazily.
	branchOp := func(op byte, mnemonic string, cond func(*CPU) bool) {
		set(op, mnemonic, modeRelative, 2, 2, func(c *CPU, mode addressingMode, operand uint16, crossed bool) {
			if cond(c) {
				c.PC = operand
			}
		})
	}
	branchOp(0x10, "BPL", func(c *CPU) bool { return !c.P.N })
	branchOp(0x30, "BMI", func(c *CPU) bool { return c.P.N })
	branchOp(0x50, "BVC", func(c *CPU) bool { return !c.P.V })
	branchOp(0x70, "BVS", func(c *CPU) bool { return c.P.V })
	branchOp(0x90, "BCC", func(c *CPU) bool { return !c.P.C })
	branchOp(0xB0, "BCS", func(c *CPU) bool { return c.P.C })
	branchOp(0xD0, "BNE", func(c *CPU) bool { return !c.P.Z })
	branchOp(0xF0, "BEQ", func(c *CPU) bool { return c.P.Z })

	// Illegal opcodes.
	set(0x03, "SLO", modeIndirectX, 2, 8, slo)
	set(0x07, "SLO", modeZeroPage, 2, 5, slo)
	set(0x0F, "SLO", modeAbsolute, 3, 6, slo)
	set(0x13, "SLO", modeIndirectY, 2, 8, slo)
	set(0x17, "SLO", modeZeroPageX, 2, 6, slo)
	set(0x1B, "SLO", modeAbsoluteY, 3, 7, slo)
	set(0x1F, "SLO", modeAbsoluteX, 3, 7, slo)

	set(0x23, "RLA", modeIndirectX, 2, 8, rla)
	set(0x27, "RLA", modeZeroPage, 2, 5, rla)
	set(0x2F, "RLA", modeAbsolute, 3, 6, rla)
	set(0x33, "RLA", modeIndirectY, 2, 8, rla)
	set(0x37, "RLA", modeZeroPageX, 2, 6, rla)
	set(0x3B, "RLA", modeAbsoluteY, 3, 7, rla)
	set(0x3F, "RLA", modeAbsoluteX, 3, 7, rla)

	set(0x43, "SRE", modeIndirectX, 2, 8, sre)
	set(0x47, "SRE", modeZeroPage, 2, 5, sre)
	set(0x4F, "SRE", modeAbsolute, 3, 6, sre)
	set(0x53, "SRE", modeIndirectY, 2, 8, sre)
	set(0x57, "SRE", modeZeroPageX, 2, 6, sre)
	set(0x5B, "SRE", modeAbsoluteY, 3, 7, sre)
	set(0x5F, "SRE", modeAbsoluteX, 3, 7, sre)

	set(0x63, "RRA", modeIndirectX, 2, 8, rra)
	set(0x67, "RRA", modeZeroPage, 2, 5, rra)
	set(0x6F, "RRA", modeAbsolute, 3, 6, rra)
	set(0x73, "RRA", modeIndirectY, 2, 8, rra)
	set(0x77, "RRA", modeZeroPageX, 2, 6, rra)
	set(0x7B, "RRA", modeAbsoluteY, 3, 7, rra)
	set(0x7F, "RRA", modeAbsoluteX, 3, 7, rra)

	set(0x83, "SAX", modeIndirectX, 2, 6, sax)
	set(0x87, "SAX", modeZeroPage, 2, 3, sax)
	set(0x8F, "SAX", modeAbsolute, 3, 4, sax)
	set(0x97, "SAX", modeZeroPageY, 2, 4, sax)

	set(0xA3, "LAX", modeIndirectX, 2, 6, lax)
	set(0xA7, "LAX", modeZeroPage, 2, 3, lax)
	set(0xAF, "LAX", modeAbsolute, 3, 4, lax)
	set(0xB3, "LAX", modeIndirectY, 2, 5, lax)
	set(0xB7, "LAX", modeZeroPageY, 2, 4, lax)
	set(0xBF, "LAX", modeAbsoluteY, 3, 4, lax)

	set(0xC3, "DCP", modeIndirectX, 2, 8, dcp)
	set(0xC7, "DCP", modeZeroPage, 2, 5, dcp)
	set(0xCF, "DCP", modeAbsolute, 3, 6, dcp)
	set(0xD3, "DCP", modeIndirectY, 2, 8, dcp)
	set(0xD7, "DCP", modeZeroPageX, 2, 6, dcp)
	set(0xDB, "DCP", modeAbsoluteY, 3, 7, dcp)
	set(0xDF, "DCP", modeAbsoluteX, 3, 7, dcp)

	set(0xE3, "ISC", modeIndirectX, 2, 8, isc)
	set(0xE7, "ISC", modeZeroPage, 2, 5, isc)
	set(0xEF, "ISC", modeAbsolute, 3, 6, isc)
	set(0xF3, "ISC", modeIndirectY, 2, 8, isc)
	set(0xF7, "ISC", modeZeroPageX, 2, 6, isc)
	set(0xFB, "ISC", modeAbsoluteY, 3, 7, isc)
	set(0xFF, "ISC", modeAbsoluteX, 3, 7, isc)

	set(0x0B, "ANC", modeImmediate, 2, 2, anc)
	set(0x2B, "ANC", modeImmediate, 2, 2, anc)
	set(0x4B, "ALR", modeImmediate, 2, 2, alr)
	set(0x6B, "ARR", modeImmediate, 2, 2, arr)
	set(0xCB, "AXS", modeImmediate, 2, 2, axs)
	set(0xEB, "SBC", modeImmediate, 2, 2, sbc) // undocumented SBC duplicate

	// Multi-byte NOPs (SKB/IGN): still consume the operand bytes and a
	// read cycle but otherwise do nothing.
	skbOps := []struct {
		op    byte
		mode  addressingMode
		size  uint16
		cyc   int
	}{
		{0x04, modeZeroPage, 2, 3}, {0x44, modeZeroPage, 2, 3}, {0x64, modeZeroPage, 2, 3},
		{0x0C, modeAbsolute, 3, 4},
		{0x14, modeZeroPageX, 2, 4}, {0x34, modeZeroPageX, 2, 4}, {0x54, modeZeroPageX, 2, 4},
		{0x74, modeZeroPageX, 2, 4}, {0xD4, modeZeroPageX, 2, 4}, {0xF4, modeZeroPageX, 2, 4},
		{0x1A, modeImplied, 1, 2}, {0x3A, modeImplied, 1, 2}, {0x5A, modeImplied, 1, 2},
		{0x7A, modeImplied, 1, 2}, {0xDA, modeImplied, 1, 2}, {0xFA, modeImplied, 1, 2},
		{0x80, modeImmediate, 2, 2}, {0x82, modeImmediate, 2, 2}, {0x89, modeImmediate, 2, 2},
		{0xC2, modeImmediate, 2, 2}, {0xE2, modeImmediate, 2, 2},
		{0x1C, modeAbsoluteX, 3, 4}, {0x3C, modeAbsoluteX, 3, 4}, {0x5C, modeAbsoluteX, 3, 4},
		{0x7C, modeAbsoluteX, 3, 4}, {0xDC, modeAbsoluteX, 3, 4}, {0xFC, modeAbsoluteX, 3, 4},
	}
	for _, s := range skbOps {
		set(s.op, "NOP", s.mode, s.size, s.cyc, skbIgn)
	}
}
