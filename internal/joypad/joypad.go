// Package joypad implements the DMG's two selectable 4-bit button matrices.
package joypad

import "dmgcore/internal/interrupt"

// Button enumerates the eight physical buttons.
type Button int

const (
	A Button = iota
	B
	Select
	Start
	Up
	Down
	Left
	Right
)

// Joypad holds the JOYP register (0xFF00) select bits and the current
// button state, raising the Joypad interrupt on any active-low falling
// edge of the currently-selected matrix.
type Joypad struct {
	selectBits byte // bits 5-4 as last written
	pressed    byte // bitmask, 1 = pressed, indexed by Button
	prevLow4   byte // last computed active-low lower nibble, for edge detection

	irq *interrupt.Controller
}

// New constructs a Joypad that raises interrupts through irq.
func New(irq *interrupt.Controller) *Joypad {
	return &Joypad{irq: irq, prevLow4: 0x0F}
}

// SetButton records a button's pressed state and re-evaluates the IRQ edge.
func (j *Joypad) SetButton(b Button, pressed bool) {
	if pressed {
		j.pressed |= 1 << b
	} else {
		j.pressed &^= 1 << b
	}
	j.recompute()
}

// Read returns JOYP (0xFF00): bits 7-6 forced high, bits 5-4 the last
// written selection, bits 3-0 the active-low state of the selected matrix.
func (j *Joypad) Read() byte {
	return 0xC0 | (j.selectBits & 0x30) | j.lowerNibble()
}

// Write stores the 2-bit select field (bits 5-4) written to JOYP.
func (j *Joypad) Write(v byte) {
	j.selectBits = v & 0x30
	j.recompute()
}

func (j *Joypad) lowerNibble() byte {
	out := byte(0x0F)
	if j.selectBits&0x10 == 0 { // P14 low selects the d-pad
		if j.pressed&(1<<Right) != 0 {
			out &^= 0x01
		}
		if j.pressed&(1<<Left) != 0 {
			out &^= 0x02
		}
		if j.pressed&(1<<Up) != 0 {
			out &^= 0x04
		}
		if j.pressed&(1<<Down) != 0 {
			out &^= 0x08
		}
	}
	if j.selectBits&0x20 == 0 { // P15 low selects the buttons
		if j.pressed&(1<<A) != 0 {
			out &^= 0x01
		}
		if j.pressed&(1<<B) != 0 {
			out &^= 0x02
		}
		if j.pressed&(1<<Select) != 0 {
			out &^= 0x04
		}
		if j.pressed&(1<<Start) != 0 {
			out &^= 0x08
		}
	}
	return out
}

func (j *Joypad) recompute() {
	cur := j.lowerNibble()
	// A 1->0 transition on any bit requests the Joypad interrupt.
	if j.prevLow4&^cur != 0 {
		j.irq.Request(interrupt.Joypad)
	}
	j.prevLow4 = cur
}
