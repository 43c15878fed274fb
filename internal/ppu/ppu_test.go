package ppu

import (
	"testing"

	"github.com/stretchr/testify/require"

	"dmgcore/internal/interrupt"
)

type capturingSink struct {
	pixels     map[[2]int]Color
	frameCount int
}

func newCapturingSink() *capturingSink { return &capturingSink{pixels: map[[2]int]Color{}} }

func (s *capturingSink) SetPixel(x, y int, c Color) { s.pixels[[2]int{x, y}] = c }
func (s *capturingSink) EndFrame()                  { s.frameCount++ }

func newEnabledPPU() (*PPU, *interrupt.Controller, *capturingSink) {
	var irq interrupt.Controller
	p := New(&irq)
	sink := newCapturingSink()
	p.SetSink(sink)
	p.WriteRegister(0xFF40, 0x91) // LCD+BG on, BG tile data 0x8000, BG map 0x9800
	return p, &irq, sink
}

func TestModeTimingOneLine(t *testing.T) {
	p, _, _ := newEnabledPPU()
	require.Equal(t, byte(modeOAM), p.Mode(), "expected OAM mode at line start")

	p.Tick(80)
	require.Equal(t, byte(modeTransfer), p.Mode(), "expected Transfer mode after 80 dots")

	for i := 0; i < 300 && p.Mode() != modeHBlank; i++ {
		p.Tick(1)
	}
	require.Equal(t, byte(modeHBlank), p.Mode(), "expected HBlank mode before line end")
}

func TestVBlankRaisesInterruptAndEndsFrame(t *testing.T) {
	p, irq, sink := newEnabledPPU()
	irq.WriteIE(0xFF)
	for line := 0; line < 144; line++ {
		p.Tick(456)
	}
	require.Equal(t, byte(modeVBlank), p.Mode())
	require.True(t, irq.Any(), "expected VBlank interrupt to be pending")
	require.Equal(t, 1, sink.frameCount, "expected EndFrame called once")
	require.Equal(t, 1, p.FrameCount())
}

func TestBGPAllBlackProducesBlackPixels(t *testing.T) {
	p, _, sink := newEnabledPPU()
	// Tile 0 fully opaque (color id 3 everywhere): lo=hi=0xFF.
	p.vram[0x00] = 0xFF // tile 0 row 0 low byte (0x8000 + 0*16 + 0)
	p.vram[0x01] = 0xFF // tile 0 row 0 high byte
	p.WriteRegister(0xFF47, 0xE4) // BGP: id3->3(black), id2->2, id1->1, id0->0, but every read id is 3

	p.Tick(80)
	for i := 0; i < 400 && p.Mode() == modeTransfer; i++ {
		p.Tick(1)
	}
	for x := 0; x < 160; x++ {
		c, ok := sink.pixels[[2]int{x, 0}]
		require.True(t, ok, "pixel (%d,0) never emitted", x)
		require.Equal(t, PixelBlack, c, "pixel (%d,0)", x)
	}
}

func TestLYCCoincidenceRequestsStatInterrupt(t *testing.T) {
	var irq interrupt.Controller
	irq.WriteIE(0xFF)
	p := New(&irq)
	p.WriteRegister(0xFF40, 0x80)
	p.WriteRegister(0xFF41, 0x40) // enable LYC=LY STAT source
	p.WriteRegister(0xFF45, 0)    // LYC=0 already matches LY=0
	p.updateLYC()
	require.True(t, irq.Any(), "expected LCD STAT interrupt on LYC match")
}

func TestSpriteScanLimitsToTenAndSortsByX(t *testing.T) {
	p, _, _ := newEnabledPPU()
	p.WriteRegister(0xFF40, 0x93) // LCD+BG+OBJ on, 8x8 sprites
	// The LCD is on and in mode 2, so the CPU-side WriteOAM is locked out;
	// fill OAM through the DMA path, which bypasses that lock.
	for i := 0; i < 20; i++ {
		base := i * 4
		p.DMAWriteOAM(base, 16)               // Y so sprite intersects LY=0
		p.DMAWriteOAM(base+1, byte(160-i))    // descending X so the scan must reorder
		p.DMAWriteOAM(base+2, 0)
		p.DMAWriteOAM(base+3, 0)
	}
	sprites := p.scanOAM(0)
	require.Len(t, sprites, 10, "OAM scan should cap at 10 sprites per line")
	for i := 1; i < len(sprites); i++ {
		require.LessOrEqual(t, sprites[i-1].x, sprites[i].x, "sprites should be sorted ascending by X")
	}
}
