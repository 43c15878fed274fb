package main

import (
	"encoding/binary"
	"sync"
)

// ringAudioSink adapts system.AudioSink's push model to the io.Reader pull
// model ebiten's audio.Player expects, the way the teacher's apuStream
// adapted internal/emu's pull-based APUPullStereo into the same Reader
// shape. Samples arriving faster than the player drains them are dropped
// (oldest first) rather than grown without bound.
type ringAudioSink struct {
	mu   sync.Mutex
	buf  []int16 // interleaved L,R
	head int
	size int
}

func newRingAudioSink(capacityFrames int) *ringAudioSink {
	return &ringAudioSink{buf: make([]int16, capacityFrames*2)}
}

func (r *ringAudioSink) PushSample(left, right float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	capFrames := len(r.buf) / 2
	if r.size >= capFrames {
		// Drop the oldest frame to make room; an overrun means the host
		// isn't draining fast enough, not a reason to grow unbounded.
		r.head = (r.head + 1) % capFrames
		r.size--
	}
	idx := (r.head + r.size) % capFrames
	r.buf[idx*2] = floatToPCM16(left)
	r.buf[idx*2+1] = floatToPCM16(right)
	r.size++
}

func floatToPCM16(v float32) int16 {
	if v > 1 {
		v = 1
	}
	if v < -1 {
		v = -1
	}
	return int16(v * 32767)
}

// Read implements io.Reader, filling p with whatever stereo frames are
// currently buffered and padding the remainder with silence rather than
// blocking, matching ebiten's expectation that Read never stalls.
func (r *ringAudioSink) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	capFrames := len(r.buf) / 2
	n := 0
	for n+4 <= len(p) && r.size > 0 {
		idx := r.head % capFrames
		binary.LittleEndian.PutUint16(p[n:], uint16(r.buf[idx*2]))
		binary.LittleEndian.PutUint16(p[n+2:], uint16(r.buf[idx*2+1]))
		r.head = (r.head + 1) % capFrames
		r.size--
		n += 4
	}
	for ; n+1 < len(p); n += 2 {
		binary.LittleEndian.PutUint16(p[n:], 0)
	}
	return len(p), nil
}
