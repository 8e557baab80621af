package ui

import (
	"time"

	"github.com/go-gl/gl/v3.3-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/golang/glog"

	"github.com/kelvindecosta/gones/nes"
)

// Start opens a window, drives console one CPU instruction at a time,
// and presents every completed PPU frame. It blocks until the window is
// closed.
func Start(console nes.Console, width int, height int) {
	if err := glfw.Init(); err != nil {
		glog.Fatalln(err)
	}
	defer glfw.Terminate()
	glfw.WindowHint(glfw.ContextVersionMajor, 3)
	glfw.WindowHint(glfw.ContextVersionMinor, 3)
	window, err := glfw.CreateWindow(width, height, "gones", nil, nil)
	if err != nil {
		glog.Fatalln(err)
	}
	window.MakeContextCurrent()
	if err := gl.Init(); err != nil {
		glog.Fatalln(err)
	}
	program, err := newProgram()
	if err != nil {
		glog.Fatalln(err)
	}
	gl.UseProgram(program)

	a := newAudio(console.AudioRing())
	if err := a.start(); err != nil {
		glog.Errorf("audio disabled: %v", err)
	} else {
		defer a.terminate()
	}

	crashed := false
	for !window.ShouldClose() {
		time.Sleep(time.Millisecond)
		glfw.PollEvents()
		if window.GetKey(glfw.KeyR) == glfw.Press {
			console.Reset()
			crashed = false
		}
		if !crashed {
			if _, err := console.Step(); err != nil {
				if _, isCrash := console.Crashed(); isCrash {
					glog.Errorf("cpu crashed: %v; press R to reset", err)
					crashed = true
				} else {
					glog.Errorf("step failed: %v", err)
				}
			}
		}
		if picture, ok := console.Frame(); ok {
			updateTexture(program, picture)
			console.SetButtons(1, getKeys1(window))
			console.SetButtons(2, getKeys2(window))
			window.SwapBuffers()
		}
	}
}
