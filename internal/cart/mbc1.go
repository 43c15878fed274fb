package cart

// MBC1Mode selects whether the 2-bit upper bank register feeds the ROM
// bank number or the RAM bank number.
type MBC1Mode byte

const (
	MBC1ModeROM MBC1Mode = 0
	MBC1ModeRAM MBC1Mode = 1
)

// MBC1 implements the classic 2 MiB ROM / 32 KiB RAM bank controller,
// including the "bank 0/0x20/0x40/0x60 never selectable" quirk.
type MBC1 struct {
	rom []byte
	ram []byte
	hdr *Header

	ramEnabled bool
	bankLow5   byte // lower 5 bits of the ROM bank register; 0 is remapped to 1
	bankHigh2  byte // 2-bit register: RAM bank in RAM mode, ROM bank bits 5-6 in ROM mode
	mode       MBC1Mode
}

// NewMBC1 constructs an MBC1 cartridge sized from the parsed header.
func NewMBC1(rom []byte, h *Header) *MBC1 {
	m := &MBC1{rom: rom, hdr: h, bankLow5: 1}
	if h.RAMSizeBytes > 0 {
		m.ram = make([]byte, h.RAMSizeBytes)
	}
	return m
}

func (m *MBC1) Header() *Header { return m.hdr }

func (m *MBC1) Read(addr uint16) byte {
	switch {
	case addr < 0x4000:
		// The bank-0 window always maps image offset addr, in both modes.
		return m.romAt(addr, 0)
	case addr < 0x8000:
		return m.romAt(addr-0x4000, int(m.effectiveROMBank()))
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled || len(m.ram) == 0 {
			return 0xFF
		}
		off := m.ramOffset(addr)
		if off < len(m.ram) {
			return m.ram[off]
		}
		return 0xFF
	default:
		return 0xFF
	}
}

func (m *MBC1) Write(addr uint16, value byte) {
	switch {
	case addr < 0x2000:
		m.ramEnabled = (value & 0x0F) == 0x0A
	case addr < 0x4000:
		m.bankLow5 = value & 0x1F
		if m.bankLow5 == 0 {
			m.bankLow5 = 1
		}
	case addr < 0x6000:
		m.bankHigh2 = value & 0x03
	case addr < 0x8000:
		if value&0x01 != 0 {
			m.mode = MBC1ModeRAM
		} else {
			m.mode = MBC1ModeROM
		}
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled || len(m.ram) == 0 {
			return
		}
		off := m.ramOffset(addr)
		if off < len(m.ram) {
			m.ram[off] = value
		}
	}
}

// effectiveROMBank combines the low-5 and high-2 bank registers. The
// low-5 field is never stored as zero (Write remaps a written 0 to 1),
// which is exactly equivalent to assembling the full 7-bit bank and then
// bumping the forbidden values {0x00, 0x20, 0x40, 0x60} by one: those
// values only arise when the low-5 field would otherwise be zero. In
// RAM-banking mode the high-2 register selects the RAM bank instead, so
// only the low-5 field applies.
func (m *MBC1) effectiveROMBank() byte {
	if m.mode == MBC1ModeRAM {
		return m.bankLow5
	}
	return m.bankLow5 | (m.bankHigh2 << 5)
}

func (m *MBC1) romAt(addr uint16, bank int) byte {
	off := bank*0x4000 + int(addr)
	if off >= 0 && off < len(m.rom) {
		return m.rom[off]
	}
	return 0xFF
}

func (m *MBC1) ramOffset(addr uint16) int {
	bank := 0
	if m.mode == MBC1ModeRAM {
		bank = int(m.bankHigh2 & 0x03)
	}
	return bank*0x2000 + int(addr-0xA000)
}

func (m *MBC1) SaveRAM() []byte {
	out := make([]byte, len(m.ram))
	copy(out, m.ram)
	return out
}

func (m *MBC1) LoadRAM(data []byte) {
	copy(m.ram, data)
}
