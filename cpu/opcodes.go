package cpu

// Official 6502 mnemonics. Each execute function receives the already
// decoded operand address (meaningless for implied/accumulator modes)
// and whether fetching it crossed a page boundary (used by callers to
// add the extra read cycle; branch-taken extra cycles are handled in
// Step, not here).

func adc(c *CPU, mode addressingMode, operand uint16, _ bool) {
	c.doADC(c.read(operand))
}

func (c *CPU) doADC(v byte) {
	a := uint16(c.A)
	sum := a + uint16(v)
	if c.P.C {
		sum++
	}
	result := byte(sum)
	c.P.C = sum > 0xFF
	c.P.V = (a^uint16(v))&0x80 == 0 && (a^sum)&0x80 != 0
	c.A = result
	c.setNZ(c.A)
}

func and(c *CPU, mode addressingMode, operand uint16, _ bool) {
	c.A &= c.read(operand)
	c.setNZ(c.A)
}

func asl(c *CPU, mode addressingMode, operand uint16, _ bool) {
	if mode == modeAccumulator {
		c.P.C = c.A&0x80 != 0
		c.A <<= 1
		c.setNZ(c.A)
		return
	}
	v := c.read(operand)
	c.P.C = v&0x80 != 0
	v <<= 1
	c.write(operand, v)
	c.setNZ(v)
}

func branch(cond bool) func(c *CPU, mode addressingMode, operand uint16, _ bool) {
	return func(c *CPU, mode addressingMode, operand uint16, _ bool) {
		if cond {
			c.PC = operand
		}
	}
}

func bit(c *CPU, mode addressingMode, operand uint16, _ bool) {
	v := c.read(operand)
	c.P.Z = c.A&v == 0
	c.P.V = v&0x40 != 0
	c.P.N = v&0x80 != 0
}

func brk(c *CPU, mode addressingMode, operand uint16, _ bool) {
	c.pushWord(c.PC + 1)
	c.push(c.P.encode(true))
	c.P.I = true
	c.PC = c.read16(0xFFFE)
}

func clc(c *CPU, mode addressingMode, operand uint16, _ bool) { c.P.C = false }
func cld(c *CPU, mode addressingMode, operand uint16, _ bool) { c.P.D = false }
func cli(c *CPU, mode addressingMode, operand uint16, _ bool) { c.P.I = false }
func clv(c *CPU, mode addressingMode, operand uint16, _ bool) { c.P.V = false }

func compare(reg func(*CPU) byte) func(c *CPU, mode addressingMode, operand uint16, _ bool) {
	return func(c *CPU, mode addressingMode, operand uint16, _ bool) {
		r := reg(c)
		v := c.read(operand)
		c.P.C = r >= v
		c.setNZ(r - v)
	}
}

func dec(c *CPU, mode addressingMode, operand uint16, _ bool) {
	v := c.read(operand) - 1
	c.write(operand, v)
	c.setNZ(v)
}

func dex(c *CPU, mode addressingMode, operand uint16, _ bool) { c.X--; c.setNZ(c.X) }
func dey(c *CPU, mode addressingMode, operand uint16, _ bool) { c.Y--; c.setNZ(c.Y) }

func eor(c *CPU, mode addressingMode, operand uint16, _ bool) {
	c.A ^= c.read(operand)
	c.setNZ(c.A)
}

func inc(c *CPU, mode addressingMode, operand uint16, _ bool) {
	v := c.read(operand) + 1
	c.write(operand, v)
	c.setNZ(v)
}

func inx(c *CPU, mode addressingMode, operand uint16, _ bool) { c.X++; c.setNZ(c.X) }
func iny(c *CPU, mode addressingMode, operand uint16, _ bool) { c.Y++; c.setNZ(c.Y) }

func jmp(c *CPU, mode addressingMode, operand uint16, _ bool) { c.PC = operand }

func jsr(c *CPU, mode addressingMode, operand uint16, _ bool) {
	c.pushWord(c.PC - 1)
	c.PC = operand
}

func lda(c *CPU, mode addressingMode, operand uint16, _ bool) { c.A = c.read(operand); c.setNZ(c.A) }
func ldx(c *CPU, mode addressingMode, operand uint16, _ bool) { c.X = c.read(operand); c.setNZ(c.X) }
func ldy(c *CPU, mode addressingMode, operand uint16, _ bool) { c.Y = c.read(operand); c.setNZ(c.Y) }

func lsr(c *CPU, mode addressingMode, operand uint16, _ bool) {
	if mode == modeAccumulator {
		c.P.C = c.A&1 != 0
		c.A >>= 1
		c.setNZ(c.A)
		return
	}
	v := c.read(operand)
	c.P.C = v&1 != 0
	v >>= 1
	c.write(operand, v)
	c.setNZ(v)
}

func nop(c *CPU, mode addressingMode, operand uint16, _ bool) {}

func ora(c *CPU, mode addressingMode, operand uint16, _ bool) {
	c.A |= c.read(operand)
	c.setNZ(c.A)
}

func pha(c *CPU, mode addressingMode, operand uint16, _ bool) { c.push(c.A) }
func php(c *CPU, mode addressingMode, operand uint16, _ bool) { c.push(c.P.encode(true)) }
func pla(c *CPU, mode addressingMode, operand uint16, _ bool) { c.A = c.pop(); c.setNZ(c.A) }
func plp(c *CPU, mode addressingMode, operand uint16, _ bool) {
	breakBit := c.P.B
	c.P.decode(c.pop())
	c.P.B = breakBit
}

func rol(c *CPU, mode addressingMode, operand uint16, _ bool) {
	var carry byte
	if c.P.C {
		carry = 1
	}
	if mode == modeAccumulator {
		c.P.C = c.A&0x80 != 0
		c.A = (c.A << 1) | carry
		c.setNZ(c.A)
		return
	}
	v := c.read(operand)
	c.P.C = v&0x80 != 0
	v = (v << 1) | carry
	c.write(operand, v)
	c.setNZ(v)
}

func ror(c *CPU, mode addressingMode, operand uint16, _ bool) {
	var carry byte
	if c.P.C {
		carry = 0x80
	}
	if mode == modeAccumulator {
		c.P.C = c.A&1 != 0
		c.A = (c.A >> 1) | carry
		c.setNZ(c.A)
		return
	}
	v := c.read(operand)
	c.P.C = v&1 != 0
	v = (v >> 1) | carry
	c.write(operand, v)
	c.setNZ(v)
}

func rti(c *CPU, mode addressingMode, operand uint16, _ bool) {
	breakBit := c.P.B
	c.P.decode(c.pop())
	c.P.B = breakBit
	c.PC = c.popWord()
}

func rts(c *CPU, mode addressingMode, operand uint16, _ bool) { c.PC = c.popWord() + 1 }

func sbc(c *CPU, mode addressingMode, operand uint16, _ bool) {
	c.doADC(^c.read(operand))
}

func sec(c *CPU, mode addressingMode, operand uint16, _ bool) { c.P.C = true }
func sed(c *CPU, mode addressingMode, operand uint16, _ bool) { c.P.D = true }
func sei(c *CPU, mode addressingMode, operand uint16, _ bool) { c.P.I = true }

func sta(c *CPU, mode addressingMode, operand uint16, _ bool) { c.write(operand, c.A) }
func stx(c *CPU, mode addressingMode, operand uint16, _ bool) { c.write(operand, c.X) }
func sty(c *CPU, mode addressingMode, operand uint16, _ bool) { c.write(operand, c.Y) }

func tax(c *CPU, mode addressingMode, operand uint16, _ bool) { c.X = c.A; c.setNZ(c.X) }
func tay(c *CPU, mode addressingMode, operand uint16, _ bool) { c.Y = c.A; c.setNZ(c.Y) }
func tsx(c *CPU, mode addressingMode, operand uint16, _ bool) { c.X = c.S; c.setNZ(c.X) }
func txa(c *CPU, mode addressingMode, operand uint16, _ bool) { c.A = c.X; c.setNZ(c.A) }
func txs(c *CPU, mode addressingMode, operand uint16, _ bool) { c.S = c.X }
func tya(c *CPU, mode addressingMode, operand uint16, _ bool) { c.A = c.Y; c.setNZ(c.A) }
