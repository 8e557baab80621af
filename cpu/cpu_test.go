package cpu

import "testing"

// flatBus is a 64KiB flat address space, enough to exercise addressing
// modes and the interrupt vectors without needing nes/'s real bus.
type flatBus struct {
	mem [0x10000]byte
}

func (b *flatBus) Read(addr uint16) byte     { return b.mem[addr] }
func (b *flatBus) Write(addr uint16, v byte) { b.mem[addr] = v }

func newTestCPU() (*CPU, *flatBus) {
	bus := &flatBus{}
	bus.mem[0xFFFC] = 0x00
	bus.mem[0xFFFD] = 0x80
	c := New(bus)
	return c, bus
}

func load(bus *flatBus, addr uint16, bytes ...byte) {
	for i, b := range bytes {
		bus.mem[int(addr)+i] = b
	}
}

func TestResetVector(t *testing.T) {
	c, _ := newTestCPU()
	if c.PC != 0x8000 {
		t.Fatalf("expected PC=0x8000 after reset, got %04X", c.PC)
	}
	if c.S != 0xFD {
		t.Fatalf("expected S=0xFD after reset, got %02X", c.S)
	}
}

func TestLDAImmediateSetsFlags(t *testing.T) {
	c, bus := newTestCPU()
	load(bus, 0x8000, 0xA9, 0x00) // LDA #$00
	if _, err := c.Step(); err != nil {
		t.Fatal(err)
	}
	if !c.P.Z || c.P.N {
		t.Errorf("LDA #$00 should set Z and clear N, got Z=%v N=%v", c.P.Z, c.P.N)
	}

	c2, bus2 := newTestCPU()
	load(bus2, 0x8000, 0xA9, 0x80) // LDA #$80
	if _, err := c2.Step(); err != nil {
		t.Fatal(err)
	}
	if c2.P.Z || !c2.P.N {
		t.Errorf("LDA #$80 should clear Z and set N, got Z=%v N=%v", c2.P.Z, c2.P.N)
	}
}

func TestAbsoluteXPageCrossExtraCycle(t *testing.T) {
	c, bus := newTestCPU()
	load(bus, 0x8000, 0xBD, 0xFF, 0x00) // LDA $00FF,X
	c.X = 1
	cycles, err := c.Step()
	if err != nil {
		t.Fatal(err)
	}
	if cycles != 5 {
		t.Errorf("expected 5 cycles (4 + page cross), got %d", cycles)
	}
}

func TestAbsoluteXNoPageCrossBaseCycles(t *testing.T) {
	c, bus := newTestCPU()
	load(bus, 0x8000, 0xBD, 0x00, 0x00) // LDA $0000,X
	c.X = 1
	cycles, err := c.Step()
	if err != nil {
		t.Fatal(err)
	}
	if cycles != 4 {
		t.Errorf("expected 4 cycles, got %d", cycles)
	}
}

func TestBranchTakenExtraCycle(t *testing.T) {
	c, bus := newTestCPU()
	load(bus, 0x8000, 0xF0, 0x02) // BEQ +2
	c.P.Z = true
	cycles, err := c.Step()
	if err != nil {
		t.Fatal(err)
	}
	if cycles != 3 {
		t.Errorf("expected 3 cycles for taken branch without page cross, got %d", cycles)
	}
	if c.PC != 0x8004 {
		t.Errorf("expected PC=0x8004 after branch, got %04X", c.PC)
	}
}

func TestBranchNotTakenBaseCycles(t *testing.T) {
	c, bus := newTestCPU()
	load(bus, 0x8000, 0xF0, 0x02) // BEQ +2
	c.P.Z = false
	cycles, err := c.Step()
	if err != nil {
		t.Fatal(err)
	}
	if cycles != 2 {
		t.Errorf("expected 2 cycles for non-taken branch, got %d", cycles)
	}
}

func TestBranchPageCrossExtraCycle(t *testing.T) {
	c, bus := newTestCPU()
	c.PC = 0x80F0
	load(bus, 0x80F0, 0xF0, 0x20) // BEQ +32, crosses into next page
	c.P.Z = true
	cycles, err := c.Step()
	if err != nil {
		t.Fatal(err)
	}
	if cycles != 4 {
		t.Errorf("expected 4 cycles for taken+page-crossing branch, got %d", cycles)
	}
}

func TestJMPIndirectPageWrapBug(t *testing.T) {
	c, bus := newTestCPU()
	load(bus, 0x8000, 0x6C, 0xFF, 0x02) // JMP ($02FF)
	bus.mem[0x02FF] = 0x34
	bus.mem[0x0300] = 0x12 // would be high byte if bug absent
	bus.mem[0x0200] = 0x56 // actual high byte fetched per the bug
	if _, err := c.Step(); err != nil {
		t.Fatal(err)
	}
	if c.PC != 0x5634 {
		t.Errorf("expected JMP indirect page-wrap bug to produce PC=0x5634, got %04X", c.PC)
	}
}

func TestIndirectXAddressing(t *testing.T) {
	c, bus := newTestCPU()
	load(bus, 0x8000, 0xA1, 0x10) // LDA ($10,X)
	c.X = 0x01
	bus.mem[0x11] = 0x00
	bus.mem[0x12] = 0x04
	bus.mem[0x0400] = 0x42
	if _, err := c.Step(); err != nil {
		t.Fatal(err)
	}
	if c.A != 0x42 {
		t.Errorf("expected A=0x42 via (zp,X) addressing, got %02X", c.A)
	}
}

func TestIndirectYAddressing(t *testing.T) {
	c, bus := newTestCPU()
	load(bus, 0x8000, 0xB1, 0x10) // LDA ($10),Y
	bus.mem[0x10] = 0x00
	bus.mem[0x11] = 0x04
	c.Y = 0x05
	bus.mem[0x0405] = 0x99
	if _, err := c.Step(); err != nil {
		t.Fatal(err)
	}
	if c.A != 0x99 {
		t.Errorf("expected A=0x99 via (zp),Y addressing, got %02X", c.A)
	}
}

func TestADCOverflowFlag(t *testing.T) {
	c, bus := newTestCPU()
	load(bus, 0x8000, 0x69, 0x50) // ADC #$50
	c.A = 0x50
	c.P.C = false
	if _, err := c.Step(); err != nil {
		t.Fatal(err)
	}
	if c.A != 0xA0 {
		t.Errorf("expected A=0xA0, got %02X", c.A)
	}
	if !c.P.V {
		t.Errorf("expected overflow flag set for 0x50+0x50")
	}
	if c.P.C {
		t.Errorf("expected no carry for 0x50+0x50")
	}
}

func TestSBCBorrow(t *testing.T) {
	c, bus := newTestCPU()
	load(bus, 0x8000, 0xE9, 0x01) // SBC #$01
	c.A = 0x00
	c.P.C = true // no borrow-in
	if _, err := c.Step(); err != nil {
		t.Fatal(err)
	}
	if c.A != 0xFF {
		t.Errorf("expected A=0xFF after 0x00-0x01, got %02X", c.A)
	}
	if c.P.C {
		t.Errorf("expected carry clear (borrow occurred)")
	}
}

func TestPLPPreservesBreakBit(t *testing.T) {
	c, bus := newTestCPU()
	c.P.B = true
	load(bus, 0x8000, 0x08, 0x28) // PHP; PLP
	if _, err := c.Step(); err != nil {
		t.Fatal(err)
	}
	c.P.B = false
	if _, err := c.Step(); err != nil {
		t.Fatal(err)
	}
	if c.P.B {
		t.Errorf("PLP must not let the pulled break bit clobber B")
	}
}

func TestNMIPriorityOverIRQ(t *testing.T) {
	c, bus := newTestCPU()
	bus.mem[0xFFFA] = 0x00
	bus.mem[0xFFFB] = 0x90
	bus.mem[0xFFFE] = 0x00
	bus.mem[0xFFFF] = 0xA0
	load(bus, 0x8000, 0xEA) // NOP, irrelevant
	c.P.I = false
	c.RequestIRQ(IRQNormal)
	c.TriggerNMI()
	cycles, err := c.Step()
	if err != nil {
		t.Fatal(err)
	}
	if cycles != 7 {
		t.Errorf("expected 7 cycles servicing an interrupt, got %d", cycles)
	}
	if c.PC != 0x9000 {
		t.Errorf("expected NMI vector to win over pending IRQ, got PC=%04X", c.PC)
	}
}

func TestIRQMaskedByI(t *testing.T) {
	c, bus := newTestCPU()
	load(bus, 0x8000, 0xEA) // NOP
	c.P.I = true
	c.RequestIRQ(IRQNormal)
	if _, err := c.Step(); err != nil {
		t.Fatal(err)
	}
	if c.PC != 0x8001 {
		t.Errorf("expected IRQ to be masked by I flag, got PC=%04X", c.PC)
	}
}

func TestUnknownOpcodeCrashes(t *testing.T) {
	c, bus := newTestCPU()
	load(bus, 0x8000, 0x02) // unmapped KIL-class slot
	if _, err := c.Step(); err == nil {
		t.Fatal("expected crash error for unmapped opcode")
	}
	pc, crashed := c.Crashed()
	if !crashed || pc != 0x8000 {
		t.Errorf("expected crashed=true at PC=0x8000, got crashed=%v pc=%04X", crashed, pc)
	}
	if _, err := c.Step(); err == nil {
		t.Errorf("expected Step to keep returning the crash once crashed")
	}
}

func TestLAXLoadsBothRegisters(t *testing.T) {
	c, bus := newTestCPU()
	load(bus, 0x8000, 0xA7, 0x10) // LAX $10
	bus.mem[0x10] = 0x77
	if _, err := c.Step(); err != nil {
		t.Fatal(err)
	}
	if c.A != 0x77 || c.X != 0x77 {
		t.Errorf("expected LAX to load A and X with 0x77, got A=%02X X=%02X", c.A, c.X)
	}
}

func TestDCPDecrementsAndCompares(t *testing.T) {
	c, bus := newTestCPU()
	load(bus, 0x8000, 0xC7, 0x10) // DCP $10
	bus.mem[0x10] = 0x05
	c.A = 0x04
	if _, err := c.Step(); err != nil {
		t.Fatal(err)
	}
	if bus.mem[0x10] != 0x04 {
		t.Errorf("expected memory decremented to 0x04, got %02X", bus.mem[0x10])
	}
	if !c.P.C {
		t.Errorf("expected carry set since A(0x04) >= decremented value(0x04)")
	}
}

func TestAXSComputesANDXminusOperand(t *testing.T) {
	c, bus := newTestCPU()
	load(bus, 0x8000, 0xCB, 0x02) // AXS #$02
	c.A = 0x0F
	c.X = 0xFF
	if _, err := c.Step(); err != nil {
		t.Fatal(err)
	}
	if c.X != 0x0D {
		t.Errorf("expected X=0x0D, got %02X", c.X)
	}
	if !c.P.C {
		t.Errorf("expected no-borrow carry set")
	}
}

func TestOAMDMAStallConsumesCycles(t *testing.T) {
	c, _ := newTestCPU()
	c.HaltCycles(513)
	total := 0
	for i := 0; i < 513; i++ {
		cycles, err := c.Step()
		if err != nil {
			t.Fatal(err)
		}
		total += cycles
	}
	if total != 513 {
		t.Errorf("expected 513 stall cycles consumed one at a time, got %d", total)
	}
}
