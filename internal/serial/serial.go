// Package serial implements the DMG's one-byte serial port, SB/SC.
package serial

import "dmgcore/internal/interrupt"

// Sink receives bytes transmitted over the serial port.
type Sink interface {
	PutByte(b byte)
}

// Serial holds SB (0xFF01) and SC (0xFF02). Writing the internal-clock
// start bit to SC schedules a transfer that completes on the next Tick.
type Serial struct {
	sb byte
	sc byte

	pending bool
	irq     *interrupt.Controller
	sink    Sink
}

// New constructs a Serial port that raises interrupts through irq.
func New(irq *interrupt.Controller) *Serial {
	return &Serial{irq: irq}
}

// SetSink installs the byte sink; nil is valid and simply drops bytes.
func (s *Serial) SetSink(sink Sink) { s.sink = sink }

func (s *Serial) ReadSB() byte { return s.sb }
func (s *Serial) WriteSB(v byte) { s.sb = v }

// ReadSC returns SC with its unused bits forced high.
func (s *Serial) ReadSC() byte { return 0x7E | (s.sc & 0x81) }

// WriteSC stores SC. Setting the transfer-start bit (7) together with the
// internal-clock bit (0) arms a one-byte transfer that completes on the
// next Tick; starting a transfer on the external clock instead leaves it
// pending forever, since no link peer is ever connected to supply one.
func (s *Serial) WriteSC(v byte) {
	s.sc = v & 0x81
	if s.sc&0x81 == 0x81 {
		s.pending = true
	}
}

// Tick completes a pending transfer: the current SB value is handed to
// the sink, SC's start bit is cleared, and the Serial interrupt fires.
func (s *Serial) Tick() {
	if !s.pending {
		return
	}
	s.pending = false
	if s.sink != nil {
		s.sink.PutByte(s.sb)
	}
	s.sc &^= 0x80
	s.irq.Request(interrupt.Serial)
}
