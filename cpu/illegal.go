package cpu

// Illegal (undocumented) opcodes widely relied upon by commercial ROMs
// and test suites. Each is a documented combination of two legal
// operations' internal logic, not a guess — see nesdev's "Programming
// with unofficial opcodes" page.

func lax(c *CPU, mode addressingMode, operand uint16, _ bool) {
	v := c.read(operand)
	c.A = v
	c.X = v
	c.setNZ(v)
}

func sax(c *CPU, mode addressingMode, operand uint16, _ bool) {
	c.write(operand, c.A&c.X)
}

func dcp(c *CPU, mode addressingMode, operand uint16, _ bool) {
	v := c.read(operand) - 1
	c.write(operand, v)
	c.P.C = c.A >= v
	c.setNZ(c.A - v)
}

func isc(c *CPU, mode addressingMode, operand uint16, _ bool) {
	v := c.read(operand) + 1
	c.write(operand, v)
	c.doADC(^v)
}

func slo(c *CPU, mode addressingMode, operand uint16, _ bool) {
	v := c.read(operand)
	c.P.C = v&0x80 != 0
	v <<= 1
	c.write(operand, v)
	c.A |= v
	c.setNZ(c.A)
}

func rla(c *CPU, mode addressingMode, operand uint16, _ bool) {
	v := c.read(operand)
	carry := byte(0)
	if c.P.C {
		carry = 1
	}
	c.P.C = v&0x80 != 0
	v = (v << 1) | carry
	c.write(operand, v)
	c.A &= v
	c.setNZ(c.A)
}

func sre(c *CPU, mode addressingMode, operand uint16, _ bool) {
	v := c.read(operand)
	c.P.C = v&1 != 0
	v >>= 1
	c.write(operand, v)
	c.A ^= v
	c.setNZ(c.A)
}

func rra(c *CPU, mode addressingMode, operand uint16, _ bool) {
	v := c.read(operand)
	carry := byte(0)
	if c.P.C {
		carry = 0x80
	}
	c.P.C = v&1 != 0
	v = (v >> 1) | carry
	c.write(operand, v)
	c.doADC(v)
}

func anc(c *CPU, mode addressingMode, operand uint16, _ bool) {
	c.A &= c.read(operand)
	c.setNZ(c.A)
	c.P.C = c.A&0x80 != 0
}

func alr(c *CPU, mode addressingMode, operand uint16, _ bool) {
	c.A &= c.read(operand)
	c.P.C = c.A&1 != 0
	c.A >>= 1
	c.setNZ(c.A)
}

func arr(c *CPU, mode addressingMode, operand uint16, _ bool) {
	c.A &= c.read(operand)
	carry := byte(0)
	if c.P.C {
		carry = 0x80
	}
	c.A = (c.A >> 1) | carry
	c.setNZ(c.A)
	c.P.C = c.A&0x40 != 0
	c.P.V = (c.A&0x40 != 0) != (c.A&0x20 != 0)
}

// axs (also called SBX): (A & X) - operand -> X, no borrow-in, sets C
// as an unsigned "no borrow" flag.
func axs(c *CPU, mode addressingMode, operand uint16, _ bool) {
	v := c.read(operand)
	t := c.A & c.X
	c.P.C = t >= v
	c.X = t - v
	c.setNZ(c.X)
}

// skb/ign are multi-byte NOPs that still fetch their operand (for
// correct cycle and address-bus behavior) and discard it.
func skbIgn(c *CPU, mode addressingMode, operand uint16, _ bool) {
	_ = c.read(operand)
}
