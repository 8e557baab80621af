package nes

// Reference:
//   http://hp.vector.co.jp/authors/VA042397/nes/joypad.html (In Japanese)
//   https://www.nesdev.org/wiki/Controller_reading
//   https://www.nesdev.org/wiki/Controller_reading_code

type button int

// Controller bit assignments, 1 means pressed otherwise 0.
// bit    7 6      5     4  3    2    1     0
// button A B Select Start Up Down Left Right
const (
	ButtonA button = iota
	ButtonB
	ButtonSelect
	ButtonStart
	ButtonUp
	ButtonDown
	ButtonLeft
	ButtonRight
)

// Controller models one standard NES joypad port. $4016 strobes both
// ports at once; $4016/$4017 each shift out one port's eight buttons
// followed by a run of 1 bits on real hardware (unimplemented here, as
// the teacher's single-port version also left it unimplemented — no
// licensed game depends on the bit-8-onward behavior).
type Controller struct {
	buttons [8]bool
	index   byte
	strobe  byte
}

func NewController() *Controller {
	return &Controller{}
}

func (c *Controller) Set(buttons [8]bool) {
	c.buttons = buttons
}

func (c *Controller) read() byte {
	ret := byte(0)
	if c.index < 8 && c.buttons[c.index] {
		ret = 1
	}
	c.index++
	if c.strobe&1 == 1 {
		c.index = 0
	}
	return ret
}

// write latches the strobe bit. Real hardware wires both controller
// ports to the same $4016 strobe line; nes.CPUBus calls this on both
// ports for every $4016 write.
// https://bugzmanov.github.io/nes_ebook/chapter_7.html
func (c *Controller) write(data byte) {
	c.strobe = data
	if c.strobe&1 == 1 {
		c.index = 0
	}
}

// ControllerState is the serializable snapshot of one controller port's shift
// register position. Button state itself isn't saved — a restored
// game resumes reading whatever the host's current input is.
type ControllerState struct {
	Index  byte
	Strobe byte
}

func (c *Controller) Snapshot() ControllerState { return ControllerState{c.index, c.strobe} }
func (c *Controller) Restore(s ControllerState) { c.index, c.strobe = s.Index, s.Strobe }
