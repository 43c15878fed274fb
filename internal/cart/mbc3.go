package cart

// rtcRegister names the MBC3 RTC registers latched into the 0xA000-0xBFFF
// window when the RAM-bank selector is 0x08-0x0C. Values are stored but
// never advanced (spec.md Non-goals: no wall-clock RTC).
type rtcRegister int

const (
	rtcSeconds rtcRegister = iota
	rtcMinutes
	rtcHours
	rtcDayLow
	rtcDayHigh
)

// MBC3 implements ROM banking with a single 7-bit bank register, up to
// 4 RAM banks, and a stubbed real-time-clock register file.
type MBC3 struct {
	rom []byte
	ram []byte
	hdr *Header

	ramEnabled bool
	romBank    byte // 7 bits, 0 remapped to 1
	bankSel    byte // 0x00-0x03 selects RAM bank; 0x08-0x0C selects an RTC register

	rtc       [5]byte
	rtcLatch  byte // last byte written to 0x6000-0x7FFF, for the 0x00->0x01 latch sequence
	rtcLatched bool
}

// NewMBC3 constructs an MBC3 cartridge sized from the parsed header.
func NewMBC3(rom []byte, h *Header) *MBC3 {
	m := &MBC3{rom: rom, hdr: h, romBank: 1}
	if h.RAMSizeBytes > 0 {
		m.ram = make([]byte, h.RAMSizeBytes)
	}
	return m
}

func (m *MBC3) Header() *Header { return m.hdr }

func (m *MBC3) Read(addr uint16) byte {
	switch {
	case addr < 0x4000:
		if int(addr) < len(m.rom) {
			return m.rom[addr]
		}
		return 0xFF
	case addr < 0x8000:
		bank := int(m.romBank)
		off := bank*0x4000 + int(addr-0x4000)
		if off >= 0 && off < len(m.rom) {
			return m.rom[off]
		}
		return 0xFF
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled {
			return 0xFF
		}
		if reg, ok := rtcRegisterFor(m.bankSel); ok {
			return m.rtc[reg]
		}
		if len(m.ram) == 0 {
			return 0xFF
		}
		off := int(m.bankSel&0x03)*0x2000 + int(addr-0xA000)
		if off < len(m.ram) {
			return m.ram[off]
		}
		return 0xFF
	default:
		return 0xFF
	}
}

func (m *MBC3) Write(addr uint16, value byte) {
	switch {
	case addr < 0x2000:
		m.ramEnabled = (value & 0x0F) == 0x0A
	case addr < 0x4000:
		v := value & 0x7F
		if v == 0 {
			v = 1
		}
		m.romBank = v
	case addr < 0x6000:
		m.bankSel = value
	case addr < 0x8000:
		// Latch sequence: a 0x00 write followed by a 0x01 write snapshots
		// the RTC registers into the latch (here, a no-op since the
		// registers never change on their own).
		if m.rtcLatch == 0x00 && value == 0x01 {
			m.rtcLatched = true
		}
		m.rtcLatch = value
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled {
			return
		}
		if reg, ok := rtcRegisterFor(m.bankSel); ok {
			m.rtc[reg] = value
			return
		}
		if len(m.ram) == 0 {
			return
		}
		off := int(m.bankSel&0x03)*0x2000 + int(addr-0xA000)
		if off < len(m.ram) {
			m.ram[off] = value
		}
	}
}

func rtcRegisterFor(sel byte) (rtcRegister, bool) {
	if sel >= 0x08 && sel <= 0x0C {
		return rtcRegister(sel - 0x08), true
	}
	return 0, false
}

func (m *MBC3) SaveRAM() []byte {
	out := make([]byte, len(m.ram))
	copy(out, m.ram)
	return out
}

func (m *MBC3) LoadRAM(data []byte) {
	copy(m.ram, data)
}
