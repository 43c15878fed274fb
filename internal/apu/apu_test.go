package apu

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	left, right []float32
}

func (r *recordingSink) PushSample(l, r2 float32) {
	r.left = append(r.left, l)
	r.right = append(r.right, r2)
}

func TestTriggerRequiresDACOn(t *testing.T) {
	a := New(48000)
	a.WriteRegister(0xFF12, 0x00) // volume 0, direction down -> DAC off
	a.WriteRegister(0xFF14, 0x80) // trigger
	require.False(t, a.ch1.enabled, "channel should not enable with DAC off")
}

func TestTriggerWithDACOnEnablesChannel(t *testing.T) {
	a := New(48000)
	a.WriteRegister(0xFF12, 0xF0) // volume 15, direction down -> DAC on
	a.WriteRegister(0xFF14, 0x80)
	require.True(t, a.ch1.enabled, "channel should enable when DAC is on and triggered")
	require.Equal(t, 64, a.ch1.length, "length should reload to 64 when zero")
}

func TestPowerOffPreservesLengthCounters(t *testing.T) {
	a := New(48000)
	a.ch1.length = 20
	a.WriteRegister(0xFF26, 0x00) // power off
	require.Equal(t, 20, a.ch1.length, "length counter should survive power-off")
	require.Equal(t, byte(0), a.nr50, "NR50 should be zeroed on power-off")
}

func TestLengthRegistersStayWritableWhilePoweredOff(t *testing.T) {
	a := New(48000)
	a.WriteRegister(0xFF26, 0x00) // power off
	a.WriteRegister(0xFF11, 0x3F) // NR11 length bits: 64-63=1
	a.WriteRegister(0xFF16, 0x20) // NR21 length bits: 64-32=32
	a.WriteRegister(0xFF1B, 0x01) // NR31 length: 256-1=255
	a.WriteRegister(0xFF20, 0x00) // NR41 length bits: 64-0=64
	require.Equal(t, 1, a.ch1.length, "NR11 length should stay writable while powered off")
	require.Equal(t, 32, a.ch2.length, "NR21 length should stay writable while powered off")
	require.Equal(t, 255, a.ch3.length, "NR31 length should stay writable while powered off")
	require.Equal(t, 64, a.ch4.length, "NR41 length should stay writable while powered off")

	a.WriteRegister(0xFF12, 0xF0) // NR12: non-length register, ignored while off
	require.Zero(t, a.ch1.volInit, "non-length registers should stay ignored while powered off")
}

func TestSweepOverflowDisablesChannel(t *testing.T) {
	a := New(48000)
	a.WriteRegister(0xFF12, 0xF0)
	a.WriteRegister(0xFF10, 0x01) // shift=1, period irrelevant for pre-check
	a.WriteRegister(0xFF13, 0xFF)
	a.WriteRegister(0xFF14, 0x80|0x07) // freq near max, trigger
	require.False(t, a.ch1.enabled, "expected immediate sweep-overflow disable on trigger")
}

func TestMixerRespectsNR51Routing(t *testing.T) {
	a := New(48000)
	a.WriteRegister(0xFF24, 0x77) // max master volume both sides
	a.WriteRegister(0xFF25, 0x01) // channel 1 to right only
	a.WriteRegister(0xFF12, 0xF0)
	a.WriteRegister(0xFF11, 0x80) // duty 2
	a.WriteRegister(0xFF14, 0x80)
	a.ch1.phase = 0
	l, r := a.mixStereo()
	require.Zero(t, l, "left should be silent")
	require.NotZero(t, r, "right should carry channel 1's output")
}

func TestTickPushesSamplesToSink(t *testing.T) {
	a := New(48000)
	sink := &recordingSink{}
	a.SetSink(sink)
	a.Tick(cpuHz / 48000 * 4)
	require.NotEmpty(t, sink.left, "expected at least one sample pushed")
}

func TestWaveChannelDACGatingFollowsNR30Bit7(t *testing.T) {
	a := New(48000)
	a.WriteRegister(0xFF1A, 0x00) // NR30 bit7 clear: DAC off
	a.WriteRegister(0xFF1E, 0x80) // trigger
	require.False(t, a.ch3.enabled, "wave channel should not enable with DAC off")

	a.WriteRegister(0xFF1A, 0x80) // DAC on
	a.WriteRegister(0xFF1E, 0x80)
	require.True(t, a.ch3.enabled, "wave channel should enable once DAC is on")
}
