package cart

import "testing"

func makeROM(size int, cartType, romSize, ramSize byte) []byte {
	rom := make([]byte, size)
	copy(rom[0x0134:0x0144], []byte("TESTGAME"))
	rom[0x0147] = cartType
	rom[0x0148] = romSize
	rom[0x0149] = ramSize
	var sum byte
	for addr := 0x0134; addr <= 0x014C; addr++ {
		sum = sum - rom[addr] - 1
	}
	rom[0x014D] = sum
	return rom
}

func TestParseHeader_Title(t *testing.T) {
	rom := makeROM(32*1024, 0x00, 0x00, 0x00)
	h, err := ParseHeader(rom)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if h.Title != "TESTGAME" {
		t.Fatalf("Title got %q want TESTGAME", h.Title)
	}
	if h.ROMSizeBytes != 32*1024 || h.ROMBanks != 2 {
		t.Fatalf("ROM size decode got %d/%d", h.ROMSizeBytes, h.ROMBanks)
	}
}

func TestHeaderChecksumOK(t *testing.T) {
	rom := makeROM(32*1024, 0x00, 0x00, 0x00)
	if !HeaderChecksumOK(rom) {
		t.Fatalf("expected checksum to validate")
	}
	rom[0x014D] ^= 0xFF
	if HeaderChecksumOK(rom) {
		t.Fatalf("expected checksum mismatch to be detected")
	}
}

func TestLoad_TooSmall(t *testing.T) {
	if _, err := Load(make([]byte, 100)); err == nil {
		t.Fatalf("expected error for undersized image")
	}
}

func TestLoad_UnsupportedMBC(t *testing.T) {
	rom := makeROM(32*1024, 0x05, 0x00, 0x00) // MBC2, unsupported
	if _, err := Load(rom); err == nil {
		t.Fatalf("expected error for unsupported cartridge type")
	}
}

func TestLoad_PicksVariant(t *testing.T) {
	cases := []struct {
		cartType byte
		want     string
	}{
		{0x00, "*cart.MBC0"},
		{0x01, "*cart.MBC1"},
		{0x13, "*cart.MBC3"},
	}
	for _, tc := range cases {
		rom := makeROM(128*1024, tc.cartType, 0x02, 0x02)
		c, err := Load(rom)
		if err != nil {
			t.Fatalf("Load(%#02x): %v", tc.cartType, err)
		}
		if got := typeName(c); got != tc.want {
			t.Fatalf("Load(%#02x) got %s want %s", tc.cartType, got, tc.want)
		}
	}
}

func typeName(c Cartridge) string {
	switch c.(type) {
	case *MBC0:
		return "*cart.MBC0"
	case *MBC1:
		return "*cart.MBC1"
	case *MBC3:
		return "*cart.MBC3"
	default:
		return "unknown"
	}
}
