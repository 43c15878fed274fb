package ppu

type fetchStage int

const (
	stageTile fetchStage = iota
	stageDataLow
	stageDataHigh
	stageSleep
	stagePush
)

// resetFetcher re-arms the pixel fetcher for a new scanline's Transfer phase.
func (p *PPU) resetFetcher() {
	p.fetchStage = stageTile
	p.fetchX = 0
	p.renderX = 0
	p.lx = 0
	p.halfTick = false
	p.windowMode = false
	p.bgFIFO.clear()
	p.spriteFetched = make([]bool, len(p.scanlineSprites))
	p.pendingSprites = p.pendingSprites[:0]
	p.spriteAddr = p.spriteAddr[:0]
}

// stepFetcher advances the 5-stage fetcher state machine. The fetcher runs
// at half the CPU rate: one stage transition every other dot.
func (p *PPU) stepFetcher() {
	p.halfTick = !p.halfTick
	if !p.halfTick {
		return
	}
	switch p.fetchStage {
	case stageTile:
		p.fetchTile()
		p.fetchStage = stageDataLow
	case stageDataLow:
		p.fetchDataLow()
		p.fetchStage = stageDataHigh
	case stageDataHigh:
		p.fetchDataHigh()
		p.fetchStage = stageSleep
	case stageSleep:
		p.fetchStage = stagePush
	case stagePush:
		p.push()
	}
}

func (p *PPU) fetchTile() {
	wxCol := int(p.wx) - 7 // column (pixels) at which the window begins
	useWindow := p.lcdc&0x20 != 0 && p.windowTriggeredThisFrame && p.fetchX*8 >= wxCol
	if useWindow && !p.windowMode {
		p.windowMode = true
		p.windowActiveThisLine = true
		p.fetchX = 0
	}

	var mapBase uint16
	var row, col int
	if p.windowMode {
		if p.lcdc&0x40 != 0 {
			mapBase = 0x9C00
		} else {
			mapBase = 0x9800
		}
		row = p.windowLine
		col = p.fetchX
	} else {
		if p.lcdc&0x08 != 0 {
			mapBase = 0x9C00
		} else {
			mapBase = 0x9800
		}
		row = (int(p.ly) + int(p.scy)) & 0xFF
		col = (p.fetchX + int(p.scx)/8) & 0x1F
	}
	p.tileRow = row % 8
	mapIndex := (row/8)*32 + (col & 0x1F)
	p.tileIndex = p.vram[mapBase+uint16(mapIndex)-0x8000]

	if p.lcdc&0x10 != 0 {
		p.tileDataAddr = 0x8000 + uint16(p.tileIndex)*16 + uint16(p.tileRow)*2
	} else {
		p.tileDataAddr = uint16(0x9000+int(int8(p.tileIndex))*16) + uint16(p.tileRow)*2
	}

	if p.lcdc&0x02 == 0 {
		return
	}
	winStart := p.fetchX * 8
	winEnd := winStart + 8
	for i := range p.scanlineSprites {
		if len(p.pendingSprites) >= 3 {
			break
		}
		if p.spriteFetched[i] {
			continue
		}
		sp := p.scanlineSprites[i]
		spStart := int(sp.x) - 8
		spEnd := spStart + 8
		if spStart >= winEnd || spEnd <= winStart {
			continue
		}
		p.spriteFetched[i] = true
		p.pendingSprites = append(p.pendingSprites, i)
		p.spriteAddr = append(p.spriteAddr, p.spriteTileAddr(sp))
	}
}

func (p *PPU) spriteTileAddr(sp sprite) uint16 {
	height := 8
	if p.lcdc&0x04 != 0 {
		height = 16
	}
	row := int(p.ly) - (int(sp.y) - 16)
	if sp.yFlip() {
		row = height - 1 - row
	}
	tile := sp.tile
	if height == 16 {
		tile &^= 0x01
		if row >= 8 {
			tile++
			row -= 8
		}
	}
	return 0x8000 + uint16(tile)*16 + uint16(row)*2
}

func (p *PPU) fetchDataLow() {
	p.tileDataLo = p.vram[p.tileDataAddr-0x8000]
	p.spriteLoBytes = p.spriteLoBytes[:0]
	for _, addr := range p.spriteAddr {
		p.spriteLoBytes = append(p.spriteLoBytes, p.vram[addr-0x8000])
	}
}

func (p *PPU) fetchDataHigh() {
	p.tileDataHi = p.vram[p.tileDataAddr+1-0x8000]
	p.spriteHiBytes = p.spriteHiBytes[:0]
	for _, addr := range p.spriteAddr {
		p.spriteHiBytes = append(p.spriteHiBytes, p.vram[addr+1-0x8000])
	}
}

func (p *PPU) push() {
	if !p.bgFIFO.empty() {
		return
	}
	for i := 0; i < 8; i++ {
		bit := 7 - i
		bgColorID := ((p.tileDataHi>>bit)&1)<<1 | ((p.tileDataLo >> bit) & 1)
		col := applyPalette(bgColorID, p.bgp)
		if p.lcdc&0x01 == 0 {
			col = shadeTable[0]
			bgColorID = 0
		}

		if p.lcdc&0x02 != 0 {
			absX := p.fetchX*8 + i
			for k, si := range p.pendingSprites {
				sp := p.scanlineSprites[si]
				spStart := int(sp.x) - 8
				pos := absX - spStart
				if pos < 0 || pos > 7 {
					continue
				}
				var bitIdx int
				if sp.xFlip() {
					bitIdx = pos
				} else {
					bitIdx = 7 - pos
				}
				spColor := ((p.spriteHiBytes[k]>>bitIdx)&1)<<1 | ((p.spriteLoBytes[k] >> bitIdx) & 1)
				if spColor == 0 {
					continue
				}
				if sp.priorityBehindBG() && bgColorID != 0 {
					continue
				}
				palette := p.obp0
				if sp.paletteOBP1() {
					palette = p.obp1
				}
				col = applyPalette(spColor, palette)
				break
			}
		}
		p.bgFIFO.push(col)
	}
	p.fetchX++
	p.fetchStage = stageTile
}

// stepPixelOutput pops one pixel per dot, discarding the leading SCX%8
// pixels of the line, and emits the rest to the sink until 160 are out.
func (p *PPU) stepPixelOutput() {
	c, ok := p.bgFIFO.pop()
	if !ok {
		return
	}
	if p.lx < int(p.scx)%8 {
		p.lx++
		return
	}
	p.lx++
	if p.renderX < 160 {
		if p.sink != nil {
			p.sink.SetPixel(p.renderX, int(p.ly), c)
		}
		p.renderX++
	}
	if p.renderX >= 160 {
		p.setMode(modeHBlank)
	}
}
