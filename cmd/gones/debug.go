package main

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/kelvindecosta/gones/nes"
)

// debugger is a minimal stdin step/print/breakpoint REPL, adapted from
// the teacher's DebugConsole. It only breaks on a crash (the Console
// interface doesn't expose the CPU's PC for arbitrary breakpoints,
// unlike the teacher's version, which reached directly into CPU
// internals); this is a development aid, not a feature the spec
// requires.
type debugger struct {
	console nes.Console
	cycles  uint64
	frames  uint64
}

func runDebugger(console nes.Console) {
	d := &debugger{console: console}
	fmt.Println("gones debugger, 'q' to quit, 's' to step, 'p' to print, 'r' to reset")
	in := bufio.NewReader(os.Stdin)
	for {
		fmt.Print(">> ")
		line, err := in.ReadString('\n')
		if err != nil {
			return
		}
		args := strings.Fields(line)
		if len(args) == 0 {
			continue
		}
		switch args[0] {
		case "s", "step":
			d.step(args)
		case "p", "print":
			d.print()
		case "r", "reset":
			d.console.Reset()
			d.cycles, d.frames = 0, 0
			fmt.Println("reset")
		case "q", "quit":
			return
		default:
			fmt.Printf("unknown command %q\n", args[0])
		}
	}
}

// step executes one instruction, or N with "s N".
func (d *debugger) step(args []string) {
	n := 1
	if len(args) > 1 {
		re := regexp.MustCompile(`^[0-9]+$`)
		if re.MatchString(args[1]) {
			n, _ = strconv.Atoi(args[1])
		}
	}
	for i := 0; i < n; i++ {
		cycles, err := d.console.Step()
		d.cycles += uint64(cycles)
		if _, ok := d.console.Frame(); ok {
			d.frames++
		}
		if err != nil {
			if pc, crashed := d.console.Crashed(); crashed {
				fmt.Printf("crashed at pc=0x%04x: %v\n", pc, err)
			} else {
				fmt.Printf("step error: %v\n", err)
			}
			break
		}
	}
	d.print()
}

func (d *debugger) print() {
	pc, crashed := d.console.Crashed()
	fmt.Println("--------------------------------------------------")
	fmt.Printf("cycles=%d frames=%d\n", d.cycles, d.frames)
	if crashed {
		fmt.Printf("crashed at pc=0x%04x\n", pc)
	}
}
