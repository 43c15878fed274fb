// Package ppu implements the DMG picture processing unit: the OAM/VRAM
// store, the LCDC/STAT/scroll/palette register file, and the scanline
// mode-timing and pixel-FIFO pipeline that turns tile data into pixels.
package ppu

import "dmgcore/internal/interrupt"

const (
	modeHBlank byte = 0
	modeVBlank byte = 1
	modeOAM    byte = 2
	modeTransfer byte = 3
)

// PixelSink receives one resolved pixel at a time, in scanline order, and
// is notified at the end of each frame (the VBlank transition).
type PixelSink interface {
	SetPixel(x, y int, c Color)
	EndFrame()
}

// PPU holds VRAM, OAM, every LCD register, and the scanline pipeline state.
type PPU struct {
	vram [0x2000]byte // 0x8000-0x9FFF
	oam  [0xA0]byte   // 0xFE00-0xFE9F

	lcdc, stat       byte
	scy, scx         byte
	ly, lyc          byte
	bgp, obp0, obp1  byte
	wy, wx           byte

	dot  int
	mode byte

	irq  *interrupt.Controller
	sink PixelSink

	scanlineSprites           []sprite
	windowTriggeredThisFrame bool
	windowLine               int
	windowActiveThisLine     bool

	fetchStage    fetchStage
	halfTick      bool
	fetchX        int
	renderX       int
	lx            int
	windowMode    bool
	tileRow       int
	tileIndex     byte
	tileDataAddr  uint16
	tileDataLo    byte
	tileDataHi    byte
	pendingSprites []int
	spriteFetched  []bool
	spriteAddr     []uint16
	spriteLoBytes  []byte
	spriteHiBytes  []byte

	bgFIFO pixelFIFO

	frameCount int
}

// New constructs a PPU that raises interrupts through irq.
func New(irq *interrupt.Controller) *PPU {
	return &PPU{irq: irq, windowLine: -1}
}

// SetSink installs the pixel sink; nil is valid and simply drops frames.
func (p *PPU) SetSink(sink PixelSink) { p.sink = sink }

// VRAMLocked reports whether the CPU's view of VRAM is currently blocked.
func (p *PPU) VRAMLocked() bool { return p.lcdc&0x80 != 0 && p.mode == modeTransfer }

// OAMLocked reports whether the CPU's view of OAM is currently blocked.
func (p *PPU) OAMLocked() bool {
	return p.lcdc&0x80 != 0 && (p.mode == modeOAM || p.mode == modeTransfer)
}

func (p *PPU) ReadVRAM(addr uint16) byte {
	if p.VRAMLocked() {
		return 0xFF
	}
	return p.vram[addr-0x8000]
}

func (p *PPU) WriteVRAM(addr uint16, v byte) {
	if p.VRAMLocked() {
		return
	}
	p.vram[addr-0x8000] = v
}

func (p *PPU) ReadOAM(addr uint16) byte {
	if p.OAMLocked() {
		return 0xFF
	}
	return p.oam[addr-0xFE00]
}

func (p *PPU) WriteOAM(addr uint16, v byte) {
	if p.OAMLocked() {
		return
	}
	p.oam[addr-0xFE00] = v
}

// DMAWriteOAM bypasses the mode-based OAM lock; the bus's DMA engine uses
// this to copy sprite data while the CPU's own OAM window stays shut.
func (p *PPU) DMAWriteOAM(index int, v byte) { p.oam[index] = v }

// ReadRegister reads one of the FF40-FF4B PPU registers (FF46, the DMA
// trigger, is owned and handled by the bus).
func (p *PPU) ReadRegister(addr uint16) byte {
	switch addr {
	case 0xFF40:
		return p.lcdc
	case 0xFF41:
		return 0x80 | (p.stat & 0x7F)
	case 0xFF42:
		return p.scy
	case 0xFF43:
		return p.scx
	case 0xFF44:
		return p.ly
	case 0xFF45:
		return p.lyc
	case 0xFF47:
		return p.bgp
	case 0xFF48:
		return p.obp0
	case 0xFF49:
		return p.obp1
	case 0xFF4A:
		return p.wy
	case 0xFF4B:
		return p.wx
	default:
		return 0xFF
	}
}

// WriteRegister writes one of the FF40-FF4B PPU registers.
func (p *PPU) WriteRegister(addr uint16, v byte) {
	switch addr {
	case 0xFF40:
		prev := p.lcdc
		p.lcdc = v
		if prev&0x80 != 0 && v&0x80 == 0 {
			p.ly, p.dot = 0, 0
			p.mode = modeHBlank
			p.stat &^= 0x03
		} else if prev&0x80 == 0 && v&0x80 != 0 {
			p.ly, p.dot = 0, 0
			p.windowTriggeredThisFrame = false
			p.windowLine = -1
			p.setMode(modeOAM)
		}
	case 0xFF41:
		p.stat = (p.stat & 0x07) | (v & 0x78)
	case 0xFF42:
		p.scy = v
	case 0xFF43:
		p.scx = v
	case 0xFF44:
		// Read-only; writes reset nothing on real hardware beyond being ignored.
	case 0xFF45:
		p.lyc = v
		p.updateLYC()
	case 0xFF47:
		p.bgp = v
	case 0xFF48:
		p.obp0 = v
	case 0xFF49:
		p.obp1 = v
	case 0xFF4A:
		p.wy = v
	case 0xFF4B:
		p.wx = v
	}
}

// Tick advances the PPU by the given number of T-cycles (dots).
func (p *PPU) Tick(tcycles int) {
	for i := 0; i < tcycles; i++ {
		p.step()
	}
}

func (p *PPU) step() {
	if p.lcdc&0x80 == 0 {
		return
	}
	switch p.mode {
	case modeOAM:
		if p.dot == 0 {
			p.scanlineSprites = p.scanOAM(int(p.ly))
			if p.lcdc&0x20 != 0 && int(p.ly) == int(p.wy) {
				p.windowTriggeredThisFrame = true
			}
		}
		p.dot++
		if p.dot >= 80 {
			p.enterTransfer()
		}
	case modeTransfer:
		p.stepFetcher()
		p.stepPixelOutput()
		p.dot++
	case modeHBlank, modeVBlank:
		p.dot++
		if p.dot >= 456 {
			p.endLine()
		}
	}
}

func (p *PPU) enterTransfer() {
	p.setMode(modeTransfer)
	p.resetFetcher()
}

func (p *PPU) endLine() {
	p.dot = 0
	if p.windowActiveThisLine {
		p.windowLine++
	}
	p.ly++
	if p.mode == modeVBlank {
		if p.ly > 153 {
			p.ly = 0
			p.windowTriggeredThisFrame = false
			p.windowLine = -1
			p.updateLYC()
			p.setMode(modeOAM)
			return
		}
		p.updateLYC()
		return
	}
	p.updateLYC()
	if int(p.ly) >= 144 {
		p.setMode(modeVBlank)
	} else {
		p.setMode(modeOAM)
	}
}

func (p *PPU) setMode(m byte) {
	if p.mode == m {
		return
	}
	p.mode = m
	p.stat = (p.stat &^ 0x03) | m
	switch m {
	case modeHBlank:
		if p.stat&0x08 != 0 {
			p.irq.Request(interrupt.LCDStat)
		}
	case modeOAM:
		if p.stat&0x20 != 0 {
			p.irq.Request(interrupt.LCDStat)
		}
	case modeVBlank:
		p.irq.Request(interrupt.VBlank)
		if p.stat&0x10 != 0 {
			p.irq.Request(interrupt.LCDStat)
		}
		p.frameCount++
		if p.sink != nil {
			p.sink.EndFrame()
		}
	}
}

func (p *PPU) updateLYC() {
	wasSet := p.stat&0x04 != 0
	coincident := p.ly == p.lyc
	if coincident {
		p.stat |= 0x04
	} else {
		p.stat &^= 0x04
	}
	if coincident && !wasSet && p.stat&0x40 != 0 {
		p.irq.Request(interrupt.LCDStat)
	}
}

// Mode returns the current STAT mode (0-3), for tests and host diagnostics.
func (p *PPU) Mode() byte { return p.mode }

// LY returns the current scanline, for tests and host diagnostics.
func (p *PPU) LY() byte { return p.ly }

// FrameCount returns the number of frames completed so far (every VBlank
// entry), letting a host step until the count advances instead of
// guessing a fixed T-cycle budget per frame.
func (p *PPU) FrameCount() int { return p.frameCount }
