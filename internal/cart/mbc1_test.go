package cart

import "testing"

func TestMBC1_ROMBanking(t *testing.T) {
	rom := make([]byte, 128*1024)
	for bank := 0; bank < 8; bank++ {
		rom[bank*0x4000] = byte(bank)
	}
	m := NewMBC1(rom, &Header{})

	if got := m.Read(0x0000); got != 0x00 {
		t.Fatalf("bank0 read got %02X want 00", got)
	}
	if got := m.Read(0x4000); got != 0x01 {
		t.Fatalf("default switchable bank got %02X want 01", got)
	}

	m.Write(0x2000, 0x03)
	if got := m.Read(0x4000); got != 0x03 {
		t.Fatalf("bank3 read got %02X want 03", got)
	}

	m.Write(0x2000, 0x00)
	if got := m.Read(0x4000); got != 0x01 {
		t.Fatalf("bank0->1 remap failed: got %02X", got)
	}
}

func TestMBC1_ForbiddenBankBump(t *testing.T) {
	rom := make([]byte, 2*1024*1024)
	for bank := 0; bank < 128; bank++ {
		rom[bank*0x4000] = byte(bank)
	}
	m := NewMBC1(rom, &Header{})
	cases := []struct{ low5, high2, want byte }{
		{0x00, 0x01, 0x21},
		{0x00, 0x02, 0x41},
		{0x00, 0x03, 0x61},
	}
	for _, tc := range cases {
		m.Write(0x2000, tc.low5)
		m.Write(0x4000, tc.high2)
		if got := m.Read(0x4000); got != tc.want {
			t.Fatalf("low5=%#x high2=%#x: got bank byte %02X want %02X", tc.low5, tc.high2, got, tc.want)
		}
	}
}

func TestMBC1_RAMEnableAndBanking(t *testing.T) {
	rom := make([]byte, 128*1024)
	m := NewMBC1(rom, &Header{RAMSizeBytes: 32 * 1024})

	if got := m.Read(0xA000); got != 0xFF {
		t.Fatalf("disabled RAM read got %02X want FF", got)
	}

	m.Write(0x0000, 0x0A) // enable
	m.Write(0x6000, 0x01) // RAM-banking mode
	m.Write(0x4000, 0x01) // RAM bank 1
	m.Write(0xA000, 0xAB)
	if got := m.Read(0xA000); got != 0xAB {
		t.Fatalf("RAM bank1 read got %02X want AB", got)
	}

	m.Write(0x4000, 0x00)
	if got := m.Read(0xA000); got == 0xAB {
		t.Fatalf("RAM bank0 unexpectedly aliased bank1's value")
	}

	m.Write(0x0000, 0x00) // disable
	if got := m.Read(0xA000); got != 0xFF {
		t.Fatalf("disabled RAM read got %02X want FF", got)
	}
}
