package nes

import (
	"testing"

	"github.com/kelvindecosta/gones/cpu"
)

// fakeCPUBus is a bare cpu.Bus for testing irqLine in isolation, without
// constructing a whole console.
type fakeCPUBus struct{}

func (fakeCPUBus) Read(addr uint16) byte     { return 0xEA } // NOP, keeps Step() harmless if ever called
func (fakeCPUBus) Write(addr uint16, v byte) {}

func TestIRQLineCombinesSources(t *testing.T) {
	cc := cpu.New(fakeCPUBus{})
	l := &irqLine{cpu: cc}

	l.RequestIRQ()
	if !cc.Snapshot().IRQLine {
		t.Fatalf("APU-asserted IRQ should raise the CPU's shared line")
	}

	l.setMapper(true)
	l.ClearIRQLine() // APU deasserts, but the mapper still holds the line
	if !cc.Snapshot().IRQLine {
		t.Fatalf("CPU's IRQ line should stay asserted while the mapper still holds it")
	}

	l.setMapper(false) // now both sources are clear
	if cc.Snapshot().IRQLine {
		t.Fatalf("CPU's IRQ line should deassert once every source clears")
	}
}

func TestIRQLineSetMapperIsIdempotent(t *testing.T) {
	cc := cpu.New(fakeCPUBus{})
	l := &irqLine{cpu: cc}

	l.setMapper(true)
	l.setMapper(true) // must not re-sync / toggle anything
	if !cc.Snapshot().IRQLine {
		t.Fatalf("IRQ line should still be asserted")
	}
	l.setMapper(false)
	if cc.Snapshot().IRQLine {
		t.Fatalf("IRQ line should clear once the mapper deasserts")
	}
}

// buildNROM assembles a minimal one-bank iNES image (mapper 0, 16 KiB
// PRG, 8 KiB CHR RAM) whose reset vector points at resetOpcode placed
// at PRG offset 0. PRG is mirrored into both halves of CPU address
// space 0x8000-0xFFFF, so the reset vector at 0xFFFC works regardless
// of NROM-128 vs NROM-256 mirroring.
func buildNROM(resetOpcode byte) []byte {
	const prgSize = 0x4000
	const chrSize = 0x2000
	data := make([]byte, 16+prgSize+chrSize)
	copy(data[0:4], []byte{'N', 'E', 'S', 0x1A})
	data[4] = 1 // 1x 16KiB PRG bank
	data[5] = 1 // 1x 8KiB CHR bank
	prg := data[16 : 16+prgSize]
	prg[0] = resetOpcode
	// Reset vector at the end of the 16 KiB bank, 0x3FFC/0x3FFD, maps to
	// CPU address 0xFFFC/0xFFFD and must point back at offset 0.
	prg[0x3FFC] = 0x00
	prg[0x3FFD] = 0x80
	return data
}

func TestNewConsoleNROM(t *testing.T) {
	console, err := NewConsole(buildNROM(0xEA)) // NOP
	if err != nil {
		t.Fatalf("NewConsole: %v", err)
	}
	if err := console.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	cycles, err := console.Step()
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if cycles <= 0 {
		t.Fatalf("Step should report a positive cycle count, got %d", cycles)
	}
}

func TestConsoleCrashPropagation(t *testing.T) {
	console, err := NewConsole(buildNROM(0x02)) // KIL: no table entry
	if err != nil {
		t.Fatalf("NewConsole: %v", err)
	}
	console.Reset()
	if _, err := console.Step(); err == nil {
		t.Fatalf("Step should report a CrashError for an unknown opcode")
	}
	pc, crashed := console.Crashed()
	if !crashed {
		t.Fatalf("Crashed() should report true after a crash")
	}
	if pc != 0x8000 {
		t.Fatalf("Crashed() PC = 0x%04x, want 0x8000", pc)
	}
}

func TestConsoleSnapshotRestoreRoundTrip(t *testing.T) {
	console, err := NewConsole(buildNROM(0xEA))
	if err != nil {
		t.Fatalf("NewConsole: %v", err)
	}
	console.Reset()
	console.Step()
	snap := console.Snapshot()

	console2, _ := NewConsole(buildNROM(0xEA))
	console2.Reset()
	if err := console2.Restore(snap); err != nil {
		t.Fatalf("Restore on a matching ROM should not error, got %v", err)
	}
}

func TestConsoleRestoreVersionMismatch(t *testing.T) {
	console, _ := NewConsole(buildNROM(0xEA))
	console.Reset()
	snap := console.Snapshot()
	snap.Version = saveStateVersion + 1

	if err := console.Restore(snap); err == nil {
		t.Fatalf("Restore should reject a snapshot with a different schema version")
	} else if _, ok := err.(*SaveStateMismatchError); !ok {
		t.Fatalf("Restore should return a *SaveStateMismatchError, got %T", err)
	}
}

func TestConsoleRestoreFingerprintMismatchWarns(t *testing.T) {
	console, _ := NewConsole(buildNROM(0xEA))
	console.Reset()
	snap := console.Snapshot()
	snap.Fingerprint ^= 0xFFFFFFFF // pretend this came from a different ROM

	err := console.Restore(snap)
	if err == nil {
		t.Fatalf("Restore should still surface the fingerprint mismatch as a warning")
	}
	if _, ok := err.(*RestoreWarning); !ok {
		t.Fatalf("Restore should return a *RestoreWarning for a fingerprint mismatch, got %T", err)
	}
}
