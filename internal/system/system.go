// Package system assembles a CPU and Bus into a runnable DMG core and
// exposes the three sinks (pixel, audio, serial) and the joypad edge a
// host needs to drive it, continuing the teacher's internal/emu.Machine
// role with the bus/cpu pair this module actually implements.
package system

import (
	"github.com/pkg/errors"

	"dmgcore/internal/bus"
	"dmgcore/internal/cart"
	"dmgcore/internal/cpu"
	"dmgcore/internal/joypad"
	"dmgcore/internal/ppu"
)

// Color is the PPU's resolved RGBA output for one pixel.
type Color = ppu.Color

// The four DMG shades, re-exported for hosts and tests that need to
// compare against a known pixel value without importing internal/ppu.
var (
	PixelWhite     = ppu.PixelWhite
	PixelLightGray = ppu.PixelLightGray
	PixelDarkGray  = ppu.PixelDarkGray
	PixelBlack     = ppu.PixelBlack
)

// PixelSink receives one SetPixel call per emitted pixel and one EndFrame
// call when a frame's 160x144 pixels have all been emitted.
type PixelSink = ppu.PixelSink

// AudioSink receives one stereo sample per resampled APU tick.
type AudioSink interface {
	PushSample(left, right float32)
}

// SerialSink receives one byte per completed serial transfer.
type SerialSink interface {
	PutByte(b byte)
}

// Button is a physical DMG button, re-exported so hosts need only import system.
type Button = joypad.Button

const (
	ButtonA      = joypad.A
	ButtonB      = joypad.B
	ButtonSelect = joypad.Select
	ButtonStart  = joypad.Start
	ButtonUp     = joypad.Up
	ButtonDown   = joypad.Down
	ButtonLeft   = joypad.Left
	ButtonRight  = joypad.Right
)

// Clock rates, as associated constants rather than magic numbers scattered
// through host code (spec.md §9: "global constants, not singletons").
const (
	CyclesPerSecond = 4_194_304
	ScreenWidth     = 160
	ScreenHeight    = 144
)

// Config holds the settings a host supplies at construction, continuing
// the teacher's internal/emu.Config pattern.
type Config struct {
	SampleRate int // APU resampling target; defaults to 48000 if zero.
	TargetFPS  int // advisory only, System itself never sleeps; defaults to 60.
	BootROM    []byte
}

// System owns one CPU, one Bus, and the cartridge loaded into it.
type System struct {
	cfg Config
	bus *bus.Bus
	cpu *cpu.CPU

	audioAdapter *audioAdapter
}

// audioAdapter lets System hand the bus's apu.AudioSink interface (which
// lives in internal/apu and only knows about float32 samples) a sink
// implemented in terms of this package's AudioSink, without internal/apu
// importing internal/system.
type audioAdapter struct{ sink AudioSink }

func (a *audioAdapter) PushSample(l, r float32) {
	if a.sink != nil {
		a.sink.PushSample(l, r)
	}
}

type serialAdapter struct{ sink SerialSink }

func (a *serialAdapter) PutByte(b byte) {
	if a.sink != nil {
		a.sink.PutByte(b)
	}
}

// New loads rom and wires a System ready to Step. Cartridge-load failure
// (short image, unsupported MBC) is the sole error this constructor can
// return; every subsequent operation is total.
func New(rom []byte, cfg Config) (*System, error) {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 48000
	}
	if cfg.TargetFPS <= 0 {
		cfg.TargetFPS = 60
	}
	c, err := cart.Load(rom)
	if err != nil {
		return nil, errors.Wrap(err, "system: load cartridge")
	}
	return newWithCartridge(c, cfg), nil
}

func newWithCartridge(c cart.Cartridge, cfg Config) *System {
	s := &System{cfg: cfg}
	s.bus = bus.NewWithCartridge(c, cfg.SampleRate)
	s.audioAdapter = &audioAdapter{}
	s.bus.APU().SetSink(s.audioAdapter)
	s.cpu = cpu.New(s.bus)
	if len(cfg.BootROM) >= 0x100 {
		s.bus.SetBootROM(cfg.BootROM)
		s.cpu.SetPC(0x0000)
	} else {
		s.Reset()
	}
	return s
}

// Reset restores the standard DMG post-boot register and I/O state
// (spec.md §3), matching what the real boot ROM leaves behind.
func (s *System) Reset() {
	s.cpu.ResetNoBoot()
	s.bus.Write(0xFF00, 0xCF)
	s.bus.Write(0xFF05, 0x00)
	s.bus.Write(0xFF06, 0x00)
	s.bus.Write(0xFF07, 0x00)
	s.bus.Write(0xFF40, 0x91)
	s.bus.Write(0xFF42, 0x00)
	s.bus.Write(0xFF43, 0x00)
	s.bus.Write(0xFF45, 0x00)
	s.bus.Write(0xFF47, 0xFC)
	s.bus.Write(0xFF48, 0xFF)
	s.bus.Write(0xFF49, 0xFF)
	s.bus.Write(0xFF4A, 0x00)
	s.bus.Write(0xFF4B, 0x00)
	s.bus.Write(0xFFFF, 0x00)
}

// SetPixelSink installs the host's framebuffer; nil drops pixels.
func (s *System) SetPixelSink(sink PixelSink) { s.bus.PPU().SetSink(sink) }

// SetAudioSink installs the host's audio consumer; nil drops samples.
func (s *System) SetAudioSink(sink AudioSink) { s.audioAdapter.sink = sink }

// SetSerialSink installs the host's serial byte consumer; nil drops bytes.
func (s *System) SetSerialSink(sink SerialSink) {
	s.bus.SetSerialSink(&serialAdapter{sink: sink})
}

// SetButton records a button edge, which may raise the Joypad interrupt.
func (s *System) SetButton(b Button, pressed bool) { s.bus.Joypad().SetButton(b, pressed) }

// Step executes one CPU instruction, one interrupt dispatch, or one HALT
// tick, and ticks every peripheral by the T-cycles it consumed, returning
// that count.
func (s *System) Step() int { return s.cpu.Step() }

// StepCycles runs whole instructions until at least n T-cycles have
// elapsed, returning the actual count (always >= n).
func (s *System) StepCycles(n int) int {
	total := 0
	for total < n {
		total += s.Step()
	}
	return total
}

// StepFrame runs instructions until one PPU frame (one VBlank-to-VBlank
// span) completes, tracked via the PPU's own frame counter rather than a
// fixed cycle budget, since HALT/STOP can stretch a frame's instruction
// count arbitrarily.
func (s *System) StepFrame() {
	target := s.bus.PPU().FrameCount() + 1
	for s.bus.PPU().FrameCount() < target {
		s.Step()
	}
}

// CPU exposes the underlying CPU for diagnostics and test harnesses.
func (s *System) CPU() *cpu.CPU { return s.cpu }

// Bus exposes the underlying bus for diagnostics and test harnesses.
func (s *System) Bus() *bus.Bus { return s.bus }
