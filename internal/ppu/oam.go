package ppu

import "sort"

// sprite is one decoded OAM entry, in raw hardware units (Y and X still
// carry their +16/+8 screen offsets).
type sprite struct {
	oamIndex int
	y, x     byte
	tile     byte
	attr     byte
}

func (s sprite) priorityBehindBG() bool { return s.attr&0x80 != 0 }
func (s sprite) yFlip() bool            { return s.attr&0x40 != 0 }
func (s sprite) xFlip() bool            { return s.attr&0x20 != 0 }
func (s sprite) paletteOBP1() bool      { return s.attr&0x10 != 0 }

// scanOAM walks all 40 OAM entries and keeps at most 10 that intersect
// scanline ly, ordered by X ascending (ties broken by OAM index), matching
// the DMG's fixed sprite-priority rule.
func (p *PPU) scanOAM(ly int) []sprite {
	height := 8
	if p.lcdc&0x04 != 0 {
		height = 16
	}
	var found []sprite
	for i := 0; i < 40 && len(found) < 10; i++ {
		base := i * 4
		y := p.oam[base]
		top := int(y) - 16
		if ly < top || ly >= top+height {
			continue
		}
		found = append(found, sprite{
			oamIndex: i,
			y:        y,
			x:        p.oam[base+1],
			tile:     p.oam[base+2],
			attr:     p.oam[base+3],
		})
	}
	sort.SliceStable(found, func(i, j int) bool { return found[i].x < found[j].x })
	return found
}
