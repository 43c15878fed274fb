package cart

import "testing"

func TestMBC3_ROMBanking(t *testing.T) {
	rom := make([]byte, 2*1024*1024)
	for bank := 0; bank < 128; bank++ {
		rom[bank*0x4000] = byte(bank)
	}
	m := NewMBC3(rom, &Header{})
	if got := m.Read(0x4000); got != 0x01 {
		t.Fatalf("default bank got %02X want 01", got)
	}
	m.Write(0x2000, 0x00) // remapped to 1
	if got := m.Read(0x4000); got != 0x01 {
		t.Fatalf("bank0 write got %02X want 01 (no auto-bump quirk on MBC3)", got)
	}
	m.Write(0x2000, 0x7F)
	if got := m.Read(0x4000); got != 0x7F {
		t.Fatalf("bank 0x7F got %02X", got)
	}
}

func TestMBC3_RAMAndRTCSelect(t *testing.T) {
	rom := make([]byte, 32*1024)
	m := NewMBC3(rom, &Header{RAMSizeBytes: 32 * 1024})
	m.Write(0x0000, 0x0A) // enable

	m.Write(0x4000, 0x01) // RAM bank 1
	m.Write(0xA000, 0x55)
	if got := m.Read(0xA000); got != 0x55 {
		t.Fatalf("RAM bank1 got %02X want 55", got)
	}

	m.Write(0x4000, 0x08) // RTC seconds register
	m.Write(0xA000, 0x2A)
	if got := m.Read(0xA000); got != 0x2A {
		t.Fatalf("RTC seconds got %02X want 2A", got)
	}
	// switching back to RAM bank 1 must not see the RTC write
	m.Write(0x4000, 0x01)
	if got := m.Read(0xA000); got != 0x55 {
		t.Fatalf("RAM bank1 clobbered by RTC write: got %02X", got)
	}
}

func TestMBC3_RAMDisabledReadsFF(t *testing.T) {
	rom := make([]byte, 32*1024)
	m := NewMBC3(rom, &Header{RAMSizeBytes: 8 * 1024})
	if got := m.Read(0xA000); got != 0xFF {
		t.Fatalf("got %02X want FF when RAM disabled", got)
	}
}
