package bus

import (
	"testing"

	"dmgcore/internal/cart"
)

func newTestROM() []byte {
	rom := make([]byte, 32*1024)
	rom[0x0147] = 0x00 // ROM ONLY
	rom[0x0148] = 0x00 // 32 KiB
	rom[0x0149] = 0x00 // no RAM
	return rom
}

func newTestBus(t *testing.T) *Bus {
	t.Helper()
	c, err := cart.Load(newTestROM())
	if err != nil {
		t.Fatalf("cart.Load: %v", err)
	}
	return NewWithCartridge(c, 48000)
}

func TestWRAMReadWriteRoundTrip(t *testing.T) {
	b := newTestBus(t)
	b.Write(0xC000, 0x42)
	if got := b.Read(0xC000); got != 0x42 {
		t.Fatalf("WRAM roundtrip: got 0x%02X, want 0x42", got)
	}
	b.Write(0xDFFF, 0x7A)
	if got := b.Read(0xDFFF); got != 0x7A {
		t.Fatalf("WRAM roundtrip at top: got 0x%02X, want 0x7A", got)
	}
}

func TestEchoRAMMirrorsWRAM(t *testing.T) {
	b := newTestBus(t)
	b.Write(0xC010, 0x55)
	if got := b.Read(0xE010); got != 0x55 {
		t.Fatalf("echo read: got 0x%02X, want 0x55", got)
	}
	b.Write(0xE020, 0x99)
	if got := b.Read(0xC020); got != 0x99 {
		t.Fatalf("echo write reflected in WRAM: got 0x%02X, want 0x99", got)
	}
}

func TestOAMDMACopiesSourcePage(t *testing.T) {
	b := newTestBus(t)
	for i := 0; i < 0xA0; i++ {
		b.Write(0xC100+uint16(i), byte(i+1))
	}
	b.Write(0xFF46, 0xC1) // source page 0xC100
	if !b.dmaActive {
		t.Fatalf("expected DMA to be active immediately after trigger")
	}
	// While DMA is active, CPU writes to OAM must be blocked.
	b.Write(0xFE00, 0xAA)
	b.Tick(160)
	if b.dmaActive {
		t.Fatalf("expected DMA to complete after 160 T-cycles")
	}
	for i := 0; i < 0xA0; i++ {
		if got := b.ppu.ReadOAM(0xFE00 + uint16(i)); got != byte(i+1) {
			t.Fatalf("OAM[%d] = 0x%02X, want 0x%02X", i, got, i+1)
		}
	}
}

func TestIEIFPassThroughToInterruptController(t *testing.T) {
	b := newTestBus(t)
	b.Write(0xFFFF, 0x1F)
	if got := b.Read(0xFFFF); got != 0x1F {
		t.Fatalf("IE roundtrip: got 0x%02X, want 0x1F", got)
	}
	b.Write(0xFF0F, 0x05)
	if got := b.Read(0xFF0F); got != 0xE0|0x05 {
		t.Fatalf("IF roundtrip: got 0x%02X, want 0x%02X", got, 0xE0|0x05)
	}
	if !b.irq.Any() {
		t.Fatalf("expected a pending interrupt once IE and IF overlap")
	}
}

type recordingSerialSink struct {
	bytes []byte
}

func (r *recordingSerialSink) PutByte(b byte) { r.bytes = append(r.bytes, b) }

func TestSerialTransferDeliversByteAndRaisesInterrupt(t *testing.T) {
	b := newTestBus(t)
	sink := &recordingSerialSink{}
	b.SetSerialSink(sink)

	b.Write(0xFF01, 0x41) // SB = 'A'
	b.Write(0xFF02, 0x81) // SC: start transfer, internal clock

	b.Tick(1)

	if len(sink.bytes) != 1 || sink.bytes[0] != 0x41 {
		t.Fatalf("expected sink to receive 0x41, got %v", sink.bytes)
	}
	if b.irq.ReadIF()&0x08 == 0 {
		t.Fatalf("expected Serial interrupt flag set after transfer")
	}
}

func TestHRAMReadWriteRoundTrip(t *testing.T) {
	b := newTestBus(t)
	b.Write(0xFF80, 0x11)
	b.Write(0xFFFE, 0x22)
	if got := b.Read(0xFF80); got != 0x11 {
		t.Fatalf("HRAM start: got 0x%02X, want 0x11", got)
	}
	if got := b.Read(0xFFFE); got != 0x22 {
		t.Fatalf("HRAM end: got 0x%02X, want 0x22", got)
	}
}
