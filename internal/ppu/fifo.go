package ppu

// pixelFIFO is a small ring buffer of resolved, palette-applied pixels
// awaiting emission to the host sink. Capacity 16 comfortably covers the
// single pending background tile (8 pixels) the fetcher ever queues.
type pixelFIFO struct {
	buf        [16]Color
	head, size int
}

func (f *pixelFIFO) push(c Color) {
	f.buf[(f.head+f.size)%len(f.buf)] = c
	f.size++
}

func (f *pixelFIFO) pop() (Color, bool) {
	if f.size == 0 {
		return Color{}, false
	}
	c := f.buf[f.head]
	f.head = (f.head + 1) % len(f.buf)
	f.size--
	return c, true
}

func (f *pixelFIFO) clear() { f.head, f.size = 0, 0 }

func (f *pixelFIFO) empty() bool { return f.size == 0 }
