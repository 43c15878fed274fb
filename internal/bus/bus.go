// Package bus wires the CPU-visible 64 KiB address space to the
// cartridge, work RAM, high RAM, and every memory-mapped peripheral.
package bus

import (
	"dmgcore/internal/apu"
	"dmgcore/internal/cart"
	"dmgcore/internal/interrupt"
	"dmgcore/internal/joypad"
	"dmgcore/internal/ppu"
	"dmgcore/internal/serial"
	"dmgcore/internal/timer"
)

// Bus owns every peripheral and dispatches CPU reads/writes by address.
type Bus struct {
	cart cart.Cartridge

	wram [0x2000]byte // 0xC000-0xDFFF, echoed at 0xE000-0xFDFF
	hram [0x7F]byte   // 0xFF80-0xFFFE

	irq     interrupt.Controller
	timer   *timer.Timer
	serial  *serial.Serial
	joypad  *joypad.Joypad
	ppu     *ppu.PPU
	apu     *apu.APU

	dmaActive bool
	dmaSrc    uint16
	dmaIndex  int

	bootROM     []byte
	bootEnabled bool
}

// New builds a Bus around rom, resampling APU output to sampleRate.
func New(rom []byte, sampleRate int) (*Bus, error) {
	c, err := cart.Load(rom)
	if err != nil {
		return nil, err
	}
	return NewWithCartridge(c, sampleRate), nil
}

// NewWithCartridge wires a pre-constructed cartridge, useful for tests.
func NewWithCartridge(c cart.Cartridge, sampleRate int) *Bus {
	b := &Bus{cart: c}
	b.timer = timer.New(&b.irq)
	b.serial = serial.New(&b.irq)
	b.joypad = joypad.New(&b.irq)
	b.ppu = ppu.New(&b.irq)
	b.apu = apu.New(sampleRate)
	return b
}

func (b *Bus) PPU() *ppu.PPU           { return b.ppu }
func (b *Bus) APU() *apu.APU           { return b.apu }
func (b *Bus) Interrupts() *interrupt.Controller { return &b.irq }
func (b *Bus) Joypad() *joypad.Joypad  { return b.joypad }
func (b *Bus) Cart() cart.Cartridge    { return b.cart }

// SetSerialSink installs the byte sink for the serial port.
func (b *Bus) SetSerialSink(sink serial.Sink) { b.serial.SetSink(sink) }

// SetBootROM loads a 256-byte DMG boot ROM, mapped at 0x0000-0x00FF until a
// non-zero write to 0xFF50 disables the overlay.
func (b *Bus) SetBootROM(data []byte) {
	b.bootROM = nil
	b.bootEnabled = false
	if len(data) >= 0x100 {
		b.bootROM = make([]byte, 0x100)
		copy(b.bootROM, data[:0x100])
		b.bootEnabled = true
	}
}

func (b *Bus) Read(addr uint16) byte {
	switch {
	case addr < 0x8000:
		if b.bootEnabled && addr < 0x0100 {
			return b.bootROM[addr]
		}
		return b.cart.Read(addr)
	case addr <= 0x9FFF:
		return b.ppu.ReadVRAM(addr)
	case addr <= 0xBFFF:
		return b.cart.Read(addr)
	case addr <= 0xDFFF:
		return b.wram[addr-0xC000]
	case addr <= 0xFDFF:
		return b.wram[addr-0x2000-0xC000]
	case addr <= 0xFE9F:
		if b.dmaActive {
			return 0xFF
		}
		return b.ppu.ReadOAM(addr)
	case addr <= 0xFEFF:
		return 0xFF
	case addr == 0xFF00:
		return b.joypad.Read()
	case addr == 0xFF01:
		return b.serial.ReadSB()
	case addr == 0xFF02:
		return b.serial.ReadSC()
	case addr == 0xFF04:
		return b.timer.ReadDIV()
	case addr == 0xFF05:
		return b.timer.ReadTIMA()
	case addr == 0xFF06:
		return b.timer.ReadTMA()
	case addr == 0xFF07:
		return b.timer.ReadTAC()
	case addr == 0xFF0F:
		return b.irq.ReadIF()
	case addr >= 0xFF10 && addr <= 0xFF26:
		return b.apu.ReadRegister(addr)
	case addr >= 0xFF30 && addr <= 0xFF3F:
		return b.apu.ReadRegister(addr)
	case addr == 0xFF40, addr == 0xFF41, addr == 0xFF42, addr == 0xFF43,
		addr == 0xFF44, addr == 0xFF45,
		addr == 0xFF47, addr == 0xFF48, addr == 0xFF49,
		addr == 0xFF4A, addr == 0xFF4B:
		return b.ppu.ReadRegister(addr)
	case addr == 0xFF46:
		return byte(b.dmaSrc >> 8)
	case addr == 0xFF50:
		return 0xFF
	case addr >= 0xFF80 && addr <= 0xFFFE:
		return b.hram[addr-0xFF80]
	case addr == 0xFFFF:
		return b.irq.ReadIE()
	default:
		return 0xFF
	}
}

func (b *Bus) Write(addr uint16, v byte) {
	switch {
	case addr < 0x8000:
		b.cart.Write(addr, v)
	case addr <= 0x9FFF:
		b.ppu.WriteVRAM(addr, v)
	case addr <= 0xBFFF:
		b.cart.Write(addr, v)
	case addr <= 0xDFFF:
		b.wram[addr-0xC000] = v
	case addr <= 0xFDFF:
		b.wram[addr-0x2000-0xC000] = v
	case addr <= 0xFE9F:
		if b.dmaActive {
			return
		}
		b.ppu.WriteOAM(addr, v)
	case addr <= 0xFEFF:
		// Unusable region.
	case addr == 0xFF00:
		b.joypad.Write(v)
	case addr == 0xFF01:
		b.serial.WriteSB(v)
	case addr == 0xFF02:
		b.serial.WriteSC(v)
	case addr == 0xFF04:
		b.timer.WriteDIV()
	case addr == 0xFF05:
		b.timer.WriteTIMA(v)
	case addr == 0xFF06:
		b.timer.WriteTMA(v)
	case addr == 0xFF07:
		b.timer.WriteTAC(v)
	case addr == 0xFF0F:
		b.irq.WriteIF(v)
	case addr >= 0xFF10 && addr <= 0xFF26:
		b.apu.WriteRegister(addr, v)
	case addr >= 0xFF30 && addr <= 0xFF3F:
		b.apu.WriteRegister(addr, v)
	case addr == 0xFF40, addr == 0xFF41, addr == 0xFF42, addr == 0xFF43,
		addr == 0xFF44, addr == 0xFF45,
		addr == 0xFF47, addr == 0xFF48, addr == 0xFF49,
		addr == 0xFF4A, addr == 0xFF4B:
		b.ppu.WriteRegister(addr, v)
	case addr == 0xFF46:
		b.dmaActive = true
		b.dmaSrc = uint16(v) << 8
		b.dmaIndex = 0
	case addr == 0xFF50:
		if v != 0x00 {
			b.bootEnabled = false
		}
	case addr >= 0xFF80 && addr <= 0xFFFE:
		b.hram[addr-0xFF80] = v
	case addr == 0xFFFF:
		b.irq.WriteIE(v)
	}
}

// Tick advances every peripheral by tcycles T-cycles and runs one serial
// tick, matching the pace at which the CPU hands off cycles after each
// instruction.
func (b *Bus) Tick(tcycles int) {
	for i := 0; i < tcycles; i++ {
		b.timer.Tick(1)
		b.ppu.Tick(1)
		b.apu.Tick(1)
		if b.dmaActive {
			v := b.Read(b.dmaSrc + uint16(b.dmaIndex))
			b.ppu.DMAWriteOAM(b.dmaIndex, v)
			b.dmaIndex++
			if b.dmaIndex >= 0xA0 {
				b.dmaActive = false
			}
		}
	}
	b.serial.Tick()
}
