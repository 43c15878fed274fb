// Package cart decodes a Game Boy cartridge image and exposes the
// memory-bank-controller behavior the bus needs to translate guest
// addresses into ROM/external-RAM bytes.
package cart

import (
	"github.com/pkg/errors"
)

// Cartridge is the minimal interface the bus needs for ROM/RAM banking.
// Implementations are ROM-only (MBC0) or one of the supported MBC variants.
// Addresses passed in are CPU addresses, not offsets into the image.
type Cartridge interface {
	// Read returns a byte for ROM (0x0000-0x7FFF) or external RAM (0xA000-0xBFFF).
	Read(addr uint16) byte
	// Write handles MBC control writes (0x0000-0x7FFF) and external RAM writes (0xA000-0xBFFF).
	Write(addr uint16, value byte)
	// Header returns the parsed header backing this cartridge.
	Header() *Header
}

// BatteryBacked is implemented by cartridges with persistable external RAM.
type BatteryBacked interface {
	SaveRAM() []byte
	LoadRAM(data []byte)
}

// ErrTooSmall is returned when an image is shorter than the minimum 32 KiB
// image size (two 16 KiB banks).
var ErrTooSmall = errors.New("cartridge image shorter than 32 KiB")

// ErrUnsupportedMBC is returned when the header names a bank controller this core does not implement.
var ErrUnsupportedMBC = errors.New("unsupported cartridge type")

const minImageSize = 32 * 1024

// Load parses rom's header and returns the appropriate Cartridge implementation.
// It is the sole entry point that can fail: every other operation on a
// constructed Cartridge is total over its input domain.
func Load(rom []byte) (Cartridge, error) {
	if len(rom) < minImageSize {
		return nil, errors.Wrapf(ErrTooSmall, "got %d bytes", len(rom))
	}
	h, err := ParseHeader(rom)
	if err != nil {
		return nil, err
	}
	switch h.CartType {
	case 0x00:
		return NewMBC0(rom, h), nil
	case 0x01, 0x02, 0x03:
		return NewMBC1(rom, h), nil
	case 0x0F, 0x10, 0x11, 0x12, 0x13:
		return NewMBC3(rom, h), nil
	default:
		return nil, errors.Wrapf(ErrUnsupportedMBC, "cartridge type 0x%02X (%s)", h.CartType, h.CartTypeStr)
	}
}
