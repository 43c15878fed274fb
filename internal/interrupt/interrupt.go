// Package interrupt holds the DMG interrupt-enable/interrupt-flag pair
// that the CPU services and every other peripheral can raise bits on.
package interrupt

// Bit enumerates the five interrupt sources in hardware priority order.
type Bit uint

const (
	VBlank Bit = iota
	LCDStat
	Timer
	Serial
	Joypad
)

// Controller holds IE (0xFFFF) and IF (0xFF0F). Discipline: peripherals
// only ever call Request; the CPU is the only caller of Clear.
type Controller struct {
	ie byte
	iflag byte
}

// Request sets the given interrupt's flag bit in IF.
func (c *Controller) Request(b Bit) { c.iflag |= 1 << b }

// Clear clears the given interrupt's flag bit in IF.
func (c *Controller) Clear(b Bit) { c.iflag &^= 1 << b }

// Pending returns the bits that are both requested and enabled.
func (c *Controller) Pending() byte { return c.iflag & c.ie & 0x1F }

// Any reports whether any enabled interrupt is pending, regardless of IME.
// HALT exits on this condition even when IME is false.
func (c *Controller) Any() bool { return c.Pending() != 0 }

// ReadIE returns the raw IE byte at 0xFFFF.
func (c *Controller) ReadIE() byte { return c.ie }

// WriteIE stores the IE byte at 0xFFFF.
func (c *Controller) WriteIE(v byte) { c.ie = v }

// ReadIF returns IF at 0xFF0F with the top three unused bits forced to 1.
func (c *Controller) ReadIF() byte { return 0xE0 | (c.iflag & 0x1F) }

// WriteIF stores the low 5 bits written to 0xFF0F.
func (c *Controller) WriteIF(v byte) { c.iflag = v & 0x1F }
