// Command gones is the executable NES emulator: it loads an iNES ROM,
// wires up a console, and either drives a window (the default) or an
// interactive stdin debugger (-debug).
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime/pprof"

	"github.com/golang/glog"

	"github.com/kelvindecosta/gones/nes"
	"github.com/kelvindecosta/gones/ui"
)

func main() {
	rom := flag.String("rom", "", "path to an iNES ROM file")
	scale := flag.Int("scale", 3, "window scale factor (output is always 256x240 internally)")
	debug := flag.Bool("debug", false, "run the stdin step/print/breakpoint debugger instead of the GUI")
	cpuprofile := flag.String("cpuprofile", "", "write a CPU profile to this path")
	flag.Parse()
	defer glog.Flush()

	if *rom == "" {
		fmt.Fprintln(os.Stderr, "usage: gones -rom path/to/game.nes")
		flag.PrintDefaults()
		os.Exit(2)
	}

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			glog.Fatalf("creating cpu profile: %v", err)
		}
		defer f.Close()
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	data, err := os.ReadFile(*rom)
	if err != nil {
		glog.Fatalf("reading rom: %v", err)
	}

	console, err := nes.NewConsole(data)
	if err != nil {
		glog.Fatalf("loading rom: %v", err)
	}

	if *debug {
		runDebugger(console)
		return
	}

	ui.Start(console, 256*(*scale), 240*(*scale))
}
