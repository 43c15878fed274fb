// Package apu implements the DMG's four-channel audio processing unit: two
// square channels (one with frequency sweep), a programmable wave channel,
// a noise channel, the 512 Hz frame sequencer that clocks their length,
// envelope and sweep units, and the NR50/NR51 stereo mixer.
package apu

const cpuHz = 4194304

// AudioSink receives one resolved stereo sample pair at a time, sampled at
// the APU's configured output rate.
type AudioSink interface {
	PushSample(left, right float32)
}

// APU holds every sound register and the four channels' running state.
type APU struct {
	enabled bool

	sampleRate      int
	cyclesPerSample float64
	cycAccum        float64

	fsCounter int
	fsStep    int

	nr50, nr51 byte

	ch1 chSquare
	ch2 chSquare
	ch3 chWave
	ch4 chNoise

	sink AudioSink
}

type chSquare struct {
	enabled bool
	dacOn   bool

	duty   byte
	length int
	lenEn  bool

	volInit byte
	envDir  int8 // +1 up, -1 down
	envPer  byte
	curVol  byte
	envTmr  byte

	freq  uint16
	timer int
	phase int

	hasSweep    bool
	sweepPer    byte
	sweepNeg    bool
	sweepShift  byte
	sweepTmr    byte
	sweepEn     bool
	sweepShadow uint16
}

type chWave struct {
	enabled bool
	dacOn   bool

	length int
	lenEn  bool

	volCode byte
	freq    uint16
	timer   int
	pos     int
	ram     [16]byte

	lastRead byte
}

type chNoise struct {
	enabled bool
	dacOn   bool

	length int
	lenEn  bool

	volInit byte
	envDir  int8
	envPer  byte
	curVol  byte
	envTmr  byte

	shift  byte
	width7 bool
	divSel byte
	timer  int
	lfsr   uint16
}

var dutyTable = [4][8]byte{
	{0, 0, 0, 0, 0, 0, 0, 1},
	{1, 0, 0, 0, 0, 0, 0, 1},
	{1, 0, 0, 0, 0, 1, 1, 1},
	{0, 1, 1, 1, 1, 1, 1, 0},
}

var noiseDivisorTable = [8]int{8, 16, 32, 48, 64, 80, 96, 112}

// New constructs an APU that resamples to sampleRate stereo frames/sec.
func New(sampleRate int) *APU {
	if sampleRate <= 0 {
		sampleRate = 48000
	}
	a := &APU{
		enabled:         true,
		sampleRate:      sampleRate,
		cyclesPerSample: float64(cpuHz) / float64(sampleRate),
		fsCounter:       cpuHz / 512,
		nr50:            0x77,
		nr51:            0xF3,
	}
	a.ch1.hasSweep = true
	return a
}

// SetSink installs the stereo sample sink; nil is valid and drops samples.
func (a *APU) SetSink(sink AudioSink) { a.sink = sink }

func boolToByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

func (a *APU) ReadRegister(addr uint16) byte {
	switch addr {
	case 0xFF10:
		n := (a.ch1.sweepPer & 7) << 4
		if a.ch1.sweepNeg {
			n |= 1 << 3
		}
		return 0x80 | n | (a.ch1.sweepShift & 7)
	case 0xFF11:
		return (a.ch1.duty << 6) | 0x3F
	case 0xFF12:
		return nrxEnvelopeByte(a.ch1.volInit, a.ch1.envDir, a.ch1.envPer)
	case 0xFF13:
		return 0xFF
	case 0xFF14:
		return 0xBF | (boolToByte(a.ch1.lenEn) << 6)
	case 0xFF16:
		return (a.ch2.duty << 6) | 0x3F
	case 0xFF17:
		return nrxEnvelopeByte(a.ch2.volInit, a.ch2.envDir, a.ch2.envPer)
	case 0xFF18:
		return 0xFF
	case 0xFF19:
		return 0xBF | (boolToByte(a.ch2.lenEn) << 6)
	case 0xFF1A:
		if a.ch3.dacOn {
			return 0xFF
		}
		return 0x7F
	case 0xFF1B:
		return 0xFF
	case 0xFF1C:
		return 0x9F | (a.ch3.volCode << 5)
	case 0xFF1D:
		return 0xFF
	case 0xFF1E:
		return 0xBF | (boolToByte(a.ch3.lenEn) << 6)
	case 0xFF30, 0xFF31, 0xFF32, 0xFF33, 0xFF34, 0xFF35, 0xFF36, 0xFF37,
		0xFF38, 0xFF39, 0xFF3A, 0xFF3B, 0xFF3C, 0xFF3D, 0xFF3E, 0xFF3F:
		if a.ch3.enabled {
			return a.ch3.ram[a.ch3.pos>>1]
		}
		return a.ch3.ram[addr-0xFF30]
	case 0xFF20:
		return 0xFF
	case 0xFF21:
		return nrxEnvelopeByte(a.ch4.volInit, a.ch4.envDir, a.ch4.envPer)
	case 0xFF22:
		w := byte(0)
		if a.ch4.width7 {
			w = 1
		}
		return (a.ch4.shift << 4) | (w << 3) | (a.ch4.divSel & 7)
	case 0xFF23:
		return 0xBF | (boolToByte(a.ch4.lenEn) << 6)
	case 0xFF24:
		return a.nr50
	case 0xFF25:
		return a.nr51
	case 0xFF26:
		flags := byte(0)
		if a.ch1.enabled {
			flags |= 1 << 0
		}
		if a.ch2.enabled {
			flags |= 1 << 1
		}
		if a.ch3.enabled {
			flags |= 1 << 2
		}
		if a.ch4.enabled {
			flags |= 1 << 3
		}
		return 0x70 | (boolToByte(a.enabled) << 7) | flags
	default:
		return 0xFF
	}
}

func nrxEnvelopeByte(vol byte, dir int8, per byte) byte {
	d := byte(0)
	if dir > 0 {
		d = 1
	}
	return (vol << 4) | (d << 3) | (per & 7)
}

func (a *APU) WriteRegister(addr uint16, v byte) {
	if !a.enabled {
		switch addr {
		case 0xFF26:
		case 0xFF30, 0xFF31, 0xFF32, 0xFF33, 0xFF34, 0xFF35, 0xFF36, 0xFF37,
			0xFF38, 0xFF39, 0xFF3A, 0xFF3B, 0xFF3C, 0xFF3D, 0xFF3E, 0xFF3F:
		case 0xFF11:
			a.ch1.length = 64 - int(v&0x3F)
			return
		case 0xFF16:
			a.ch2.length = 64 - int(v&0x3F)
			return
		case 0xFF1B:
			a.ch3.length = 256 - int(v)
			return
		case 0xFF20:
			a.ch4.length = 64 - int(v&0x3F)
			return
		default:
			return // powered off: every other register is ignored
		}
	}
	switch addr {
	case 0xFF10:
		a.ch1.sweepPer = (v >> 4) & 7
		a.ch1.sweepNeg = v&0x08 != 0
		a.ch1.sweepShift = v & 7
	case 0xFF11:
		a.ch1.duty = (v >> 6) & 3
		a.ch1.length = 64 - int(v&0x3F)
	case 0xFF12:
		a.writeEnvelopeReg(&a.ch1.volInit, &a.ch1.envDir, &a.ch1.envPer, &a.ch1.dacOn, &a.ch1.enabled, v)
	case 0xFF13:
		a.ch1.freq = (a.ch1.freq & 0x0700) | uint16(v)
	case 0xFF14:
		a.ch1.lenEn = v&0x40 != 0
		a.ch1.freq = (a.ch1.freq & 0x00FF) | (uint16(v&7) << 8)
		if v&0x80 != 0 {
			a.triggerSquare(&a.ch1)
		}
	case 0xFF16:
		a.ch2.duty = (v >> 6) & 3
		a.ch2.length = 64 - int(v&0x3F)
	case 0xFF17:
		a.writeEnvelopeReg(&a.ch2.volInit, &a.ch2.envDir, &a.ch2.envPer, &a.ch2.dacOn, &a.ch2.enabled, v)
	case 0xFF18:
		a.ch2.freq = (a.ch2.freq & 0x0700) | uint16(v)
	case 0xFF19:
		a.ch2.lenEn = v&0x40 != 0
		a.ch2.freq = (a.ch2.freq & 0x00FF) | (uint16(v&7) << 8)
		if v&0x80 != 0 {
			a.triggerSquare(&a.ch2)
		}
	case 0xFF1A:
		a.ch3.dacOn = v&0x80 != 0
		if !a.ch3.dacOn {
			a.ch3.enabled = false
		}
	case 0xFF1B:
		a.ch3.length = 256 - int(v)
	case 0xFF1C:
		a.ch3.volCode = (v >> 5) & 3
	case 0xFF1D:
		a.ch3.freq = (a.ch3.freq & 0x0700) | uint16(v)
	case 0xFF1E:
		a.ch3.lenEn = v&0x40 != 0
		a.ch3.freq = (a.ch3.freq & 0x00FF) | (uint16(v&7) << 8)
		if v&0x80 != 0 {
			a.triggerWave()
		}
	case 0xFF30, 0xFF31, 0xFF32, 0xFF33, 0xFF34, 0xFF35, 0xFF36, 0xFF37,
		0xFF38, 0xFF39, 0xFF3A, 0xFF3B, 0xFF3C, 0xFF3D, 0xFF3E, 0xFF3F:
		if !a.ch3.enabled {
			a.ch3.ram[addr-0xFF30] = v
		}
	case 0xFF20:
		a.ch4.length = 64 - int(v&0x3F)
	case 0xFF21:
		a.writeEnvelopeReg(&a.ch4.volInit, &a.ch4.envDir, &a.ch4.envPer, &a.ch4.dacOn, &a.ch4.enabled, v)
	case 0xFF22:
		a.ch4.shift = (v >> 4) & 0x0F
		a.ch4.width7 = v&0x08 != 0
		a.ch4.divSel = v & 7
	case 0xFF23:
		a.ch4.lenEn = v&0x40 != 0
		if v&0x80 != 0 {
			a.triggerNoise()
		}
	case 0xFF24:
		a.nr50 = v
	case 0xFF25:
		a.nr51 = v
	case 0xFF26:
		on := v&0x80 != 0
		if a.enabled && !on {
			a.powerOff()
		}
		a.enabled = on
	}
}

func (a *APU) writeEnvelopeReg(vol *byte, dir *int8, per *byte, dacOn, enabled *bool, v byte) {
	*vol = (v >> 4) & 0x0F
	if v&0x08 != 0 {
		*dir = 1
	} else {
		*dir = -1
	}
	*per = v & 7
	*dacOn = v&0xF8 != 0
	if !*dacOn {
		*enabled = false
	}
}

// powerOff zeroes every register NR10-NR51 but preserves the length
// counters and wave RAM. Tick clocks nothing while the APU is off, so the
// counters hold their values until power returns.
func (a *APU) powerOff() {
	l1, l2, l3, l4 := a.ch1.length, a.ch2.length, a.ch3.length, a.ch4.length
	ram := a.ch3.ram
	a.ch1 = chSquare{hasSweep: true, length: l1}
	a.ch2 = chSquare{length: l2}
	a.ch3 = chWave{length: l3, ram: ram}
	a.ch4 = chNoise{length: l4}
	a.nr50, a.nr51 = 0, 0
}

func (a *APU) triggerSquare(ch *chSquare) {
	ch.enabled = ch.dacOn
	if ch.length == 0 {
		ch.length = 64
	}
	ch.phase = 0
	ch.timer = squarePeriod(ch.freq)
	ch.curVol = ch.volInit
	per := ch.envPer
	if per == 0 {
		per = 8
	}
	ch.envTmr = per
	if ch.hasSweep {
		ch.sweepShadow = ch.freq & 0x7FF
		ch.sweepEn = ch.sweepPer != 0 || ch.sweepShift != 0
		st := ch.sweepPer
		if st == 0 {
			st = 8
		}
		ch.sweepTmr = st
		if ch.sweepShift != 0 && a.sweepCalc(ch) > 2047 {
			ch.enabled = false
		}
	}
}

func squarePeriod(freq uint16) int {
	p := int(4 * (2048 - (freq & 0x7FF)))
	if p < 8 {
		p = 8
	}
	return p
}

func (a *APU) triggerWave() {
	a.ch3.enabled = a.ch3.dacOn
	if a.ch3.length == 0 {
		a.ch3.length = 256
	}
	a.ch3.pos = 0
	a.ch3.timer = wavePeriod(a.ch3.freq)
}

func wavePeriod(freq uint16) int {
	p := int(2 * (2048 - (freq & 0x7FF)))
	if p < 4 {
		p = 4
	}
	return p
}

func (a *APU) triggerNoise() {
	a.ch4.enabled = a.ch4.dacOn
	if a.ch4.length == 0 {
		a.ch4.length = 64
	}
	a.ch4.curVol = a.ch4.volInit
	per := a.ch4.envPer
	if per == 0 {
		per = 8
	}
	a.ch4.envTmr = per
	a.ch4.lfsr = 0x7FFF
	a.ch4.timer = noisePeriod(a.ch4.divSel, a.ch4.shift)
}

func noisePeriod(divSel, shift byte) int {
	p := noiseDivisorTable[divSel&7] << (shift + 4)
	if p < 2 {
		p = 2
	}
	return p
}

func (a *APU) sweepCalc(ch *chSquare) int {
	base := int(ch.sweepShadow)
	if ch.sweepShift == 0 {
		return base
	}
	delta := base >> ch.sweepShift
	if ch.sweepNeg {
		return base - delta
	}
	return base + delta
}

// Tick advances the APU by tcycles CPU T-cycles, resampling and pushing
// stereo frames to the sink as they come due.
func (a *APU) Tick(tcycles int) {
	for i := 0; i < tcycles; i++ {
		if !a.enabled {
			continue
		}
		a.fsCounter--
		if a.fsCounter <= 0 {
			a.fsCounter += cpuHz / 512
			a.fsStep = (a.fsStep + 1) & 7
			if a.fsStep%2 == 0 {
				a.clockLength()
			}
			if a.fsStep == 2 || a.fsStep == 6 {
				a.clockSweep()
			}
			if a.fsStep == 7 {
				a.clockEnvelope()
			}
		}
		a.tickSquare(&a.ch1)
		a.tickSquare(&a.ch2)
		a.tickWave()
		a.tickNoise()

		a.cycAccum++
		for a.cycAccum >= a.cyclesPerSample {
			a.cycAccum -= a.cyclesPerSample
			if a.sink != nil {
				l, r := a.mixStereo()
				a.sink.PushSample(l, r)
			}
		}
	}
}

func (a *APU) tickSquare(ch *chSquare) {
	if !ch.enabled {
		return
	}
	ch.timer--
	if ch.timer <= 0 {
		ch.timer = squarePeriod(ch.freq)
		ch.phase = (ch.phase + 1) & 7
	}
}

func (a *APU) tickWave() {
	if !a.ch3.enabled {
		return
	}
	a.ch3.timer--
	if a.ch3.timer <= 0 {
		a.ch3.timer = wavePeriod(a.ch3.freq)
		a.ch3.pos = (a.ch3.pos + 1) & 31
		b := a.ch3.ram[a.ch3.pos>>1]
		if a.ch3.pos&1 == 0 {
			a.ch3.lastRead = (b >> 4) & 0x0F
		} else {
			a.ch3.lastRead = b & 0x0F
		}
	}
}

func (a *APU) tickNoise() {
	if !a.ch4.enabled {
		return
	}
	a.ch4.timer--
	if a.ch4.timer <= 0 {
		a.ch4.timer = noisePeriod(a.ch4.divSel, a.ch4.shift)
		x := (a.ch4.lfsr ^ (a.ch4.lfsr >> 1)) & 1
		a.ch4.lfsr >>= 1
		a.ch4.lfsr |= x << 14
		if a.ch4.width7 {
			a.ch4.lfsr &^= 1 << 6
			a.ch4.lfsr |= x << 6
		}
	}
}

func (a *APU) clockLength() {
	for _, l := range []*chSquare{&a.ch1, &a.ch2} {
		if l.lenEn && l.length > 0 {
			l.length--
			if l.length <= 0 {
				l.enabled = false
			}
		}
	}
	if a.ch3.lenEn && a.ch3.length > 0 {
		a.ch3.length--
		if a.ch3.length <= 0 {
			a.ch3.enabled = false
		}
	}
	if a.ch4.lenEn && a.ch4.length > 0 {
		a.ch4.length--
		if a.ch4.length <= 0 {
			a.ch4.enabled = false
		}
	}
}

func (a *APU) clockEnvelope() {
	clockOne := func(enabled bool, per *byte, tmr *byte, dir int8, curVol *byte) {
		if !enabled || *per == 0 {
			return
		}
		if *tmr > 0 {
			*tmr--
		}
		if *tmr == 0 {
			*tmr = *per
			if dir > 0 && *curVol < 15 {
				*curVol++
			} else if dir < 0 && *curVol > 0 {
				*curVol--
			}
		}
	}
	clockOne(a.ch1.enabled, &a.ch1.envPer, &a.ch1.envTmr, a.ch1.envDir, &a.ch1.curVol)
	clockOne(a.ch2.enabled, &a.ch2.envPer, &a.ch2.envTmr, a.ch2.envDir, &a.ch2.curVol)
	clockOne(a.ch4.enabled, &a.ch4.envPer, &a.ch4.envTmr, a.ch4.envDir, &a.ch4.curVol)
}

func (a *APU) clockSweep() {
	ch := &a.ch1
	if !ch.enabled || !ch.sweepEn || ch.sweepPer == 0 {
		return
	}
	if ch.sweepTmr > 0 {
		ch.sweepTmr--
	}
	if ch.sweepTmr != 0 {
		return
	}
	ch.sweepTmr = ch.sweepPer
	nf := a.sweepCalc(ch)
	if nf > 2047 {
		ch.enabled = false
		return
	}
	if ch.sweepShift != 0 {
		ch.sweepShadow = uint16(nf)
		ch.freq = uint16(nf) & 0x07FF
		ch.timer = squarePeriod(ch.freq)
		if a.sweepCalc(ch) > 2047 {
			ch.enabled = false
		}
	}
}

func (a *APU) mixStereo() (float32, float32) {
	c1, c2, c3, c4 := 0.0, 0.0, 0.0, 0.0
	if a.ch1.enabled {
		if dutyTable[a.ch1.duty][a.ch1.phase] != 0 {
			c1 = float64(a.ch1.curVol) / 15.0
		} else {
			c1 = -float64(a.ch1.curVol) / 15.0
		}
	}
	if a.ch2.enabled {
		if dutyTable[a.ch2.duty][a.ch2.phase] != 0 {
			c2 = float64(a.ch2.curVol) / 15.0
		} else {
			c2 = -float64(a.ch2.curVol) / 15.0
		}
	}
	if a.ch3.enabled && a.ch3.volCode != 0 {
		shift := a.ch3.volCode - 1
		scaled := float64(a.ch3.lastRead >> shift)
		max := float64(15 >> shift)
		if max < 1 {
			max = 1
		}
		c3 = (scaled/max)*2.0 - 1.0
	}
	if a.ch4.enabled {
		if (^a.ch4.lfsr)&1 != 0 {
			c4 = float64(a.ch4.curVol) / 15.0
		} else {
			c4 = -float64(a.ch4.curVol) / 15.0
		}
	}

	rMask, lMask := a.nr51&0x0F, (a.nr51>>4)&0x0F
	l, r := 0.0, 0.0
	for i, c := range [4]float64{c1, c2, c3, c4} {
		bit := byte(1 << i)
		if lMask&bit != 0 {
			l += c
		}
		if rMask&bit != 0 {
			r += c
		}
	}
	lv := float64((a.nr50>>4)&0x07) / 7.0
	rv := float64(a.nr50&0x07) / 7.0
	l = clamp(l*lv/4, -1, 1)
	r = clamp(r*rv/4, -1, 1)
	return float32(l), float32(r)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
