package system

import "testing"

func newTestROM(cartType, ramSizeCode byte) []byte {
	rom := make([]byte, 32*1024)
	rom[0x0147] = cartType
	rom[0x0148] = 0x00 // 32 KiB
	rom[0x0149] = ramSizeCode
	return rom
}

func mustSystem(t *testing.T, rom []byte) *System {
	t.Helper()
	s, err := New(rom, Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

// Scenario 1 (spec.md §8): LD A,0x42; LD (0xC000),A; LD A,0x00; LD A,(0xC000)
// ends with A=0x42. Each instruction's T-cycle cost is the standard SM83
// timing (8, 16, 8, 16), summing to 48, not the 28 the prose scenario
// states; see DESIGN.md's Open Questions for why 48 is the number this
// core actually produces.
func TestScenarioLoadStoreReload(t *testing.T) {
	rom := newTestROM(0x00, 0x00)
	prog := []byte{
		0x3E, 0x42, // LD A,0x42
		0xEA, 0x00, 0xC0, // LD (0xC000),A
		0x3E, 0x00, // LD A,0x00
		0xFA, 0x00, 0xC0, // LD A,(0xC000)
	}
	copy(rom[0x0100:], prog)
	s := mustSystem(t, rom)

	total := 0
	for i := 0; i < 4; i++ {
		total += s.Step()
	}
	if s.CPU().A != 0x42 {
		t.Fatalf("A = 0x%02X, want 0x42", s.CPU().A)
	}
	if total != 48 {
		t.Fatalf("total T-cycles = %d, want 48", total)
	}
}

// Scenario 2: ADD A,A with A=0x80, F=0x00 yields A=0x00, F=0x90 (Z,C set).
func TestScenarioAddOverflowFlags(t *testing.T) {
	rom := newTestROM(0x00, 0x00)
	rom[0x0100] = 0x87 // ADD A,A
	s := mustSystem(t, rom)
	s.CPU().A = 0x80
	s.CPU().F = 0x00
	s.Step()
	if s.CPU().A != 0x00 {
		t.Fatalf("A = 0x%02X, want 0x00", s.CPU().A)
	}
	if s.CPU().F != 0x90 {
		t.Fatalf("F = 0x%02X, want 0x90", s.CPU().F)
	}
}

type capturingSerial struct{ bytes []byte }

func (c *capturingSerial) PutByte(b byte) { c.bytes = append(c.bytes, b) }

// Scenario 3: writing 0x81 to SC with SB=0x41 delivers 0x41 to the serial
// sink on the next tick, sets IF bit 3, and clears SC bit 7.
func TestScenarioSerialTransfer(t *testing.T) {
	rom := newTestROM(0x00, 0x00)
	s := mustSystem(t, rom)
	sink := &capturingSerial{}
	s.SetSerialSink(sink)

	s.Bus().Write(0xFF01, 0x41)
	s.Bus().Write(0xFF02, 0x81)
	s.Bus().Tick(1)

	if len(sink.bytes) != 1 || sink.bytes[0] != 0x41 {
		t.Fatalf("serial sink = %v, want [0x41]", sink.bytes)
	}
	if s.Bus().Read(0xFF0F)&0x08 == 0 {
		t.Fatalf("expected Serial IF bit set")
	}
	if s.Bus().Read(0xFF02)&0x80 != 0 {
		t.Fatalf("expected SC bit 7 cleared after transfer")
	}
}

type capturingPixels struct {
	colors map[[2]int]Color
}

func (c *capturingPixels) SetPixel(x, y int, col Color) {
	if c.colors == nil {
		c.colors = map[[2]int]Color{}
	}
	c.colors[[2]int{x, y}] = col
}
func (c *capturingPixels) EndFrame() {}

// Scenario 5: with BGP=0xE4 and a fully-opaque (color-id 3) tile, every
// emitted pixel on that line equals the black shade.
func TestScenarioBGPAllBlack(t *testing.T) {
	rom := newTestROM(0x00, 0x00)
	s := mustSystem(t, rom)
	sink := &capturingPixels{}
	s.SetPixelSink(sink)

	p := s.Bus().PPU()
	p.WriteRegister(0xFF40, 0x91) // LCD+BG on
	p.WriteVRAM(0x8000, 0xFF)
	p.WriteVRAM(0x8001, 0xFF)
	p.WriteRegister(0xFF47, 0xE4) // BGP identity mapping

	deadline := s.Bus().PPU().FrameCount() + 1
	for s.Bus().PPU().FrameCount() < deadline {
		s.Step()
	}
	for x := 0; x < 160; x++ {
		c, ok := sink.colors[[2]int{x, 0}]
		if !ok {
			t.Fatalf("pixel (%d,0) never emitted", x)
		}
		if c != PixelBlack {
			t.Fatalf("pixel (%d,0) = %v, want PixelBlack", x, c)
		}
	}
}

// Scenario 6: MBC1 RAM enable/disable gate.
func TestScenarioMBC1RAMEnableDisable(t *testing.T) {
	rom := newTestROM(0x01, 0x02) // MBC1, 8 KiB RAM
	s := mustSystem(t, rom)

	s.Bus().Write(0x0000, 0x0A) // enable RAM
	s.Bus().Write(0xA000, 0xAB)
	if got := s.Bus().Read(0xA000); got != 0xAB {
		t.Fatalf("RAM enabled read = 0x%02X, want 0xAB", got)
	}

	s.Bus().Write(0x0000, 0x00) // disable RAM
	if got := s.Bus().Read(0xA000); got != 0xFF {
		t.Fatalf("RAM disabled read = 0x%02X, want 0xFF", got)
	}
}
