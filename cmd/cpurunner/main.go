// Command cpurunner drives internal/system headlessly against a ROM,
// watching its serial output for a pass/fail marker the way Blargg's
// cpu_instrs suite reports results. It is the harness behind spec.md's
// "2,787,804 T-cycle run of 06-ld r,r.gb" scenario.
package main

import (
	"bytes"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	flag "github.com/spf13/pflag"

	"dmgcore/internal/system"
)

type serialCapture struct {
	buf  bytes.Buffer
	ring []byte
	idx  int
	fill int
}

func newSerialCapture(windowSize int) *serialCapture {
	return &serialCapture{ring: make([]byte, windowSize)}
}

func (s *serialCapture) PutByte(b byte) {
	s.buf.WriteByte(b)
	fmt.Printf("%c", b)
	s.ring[s.idx] = b
	s.idx = (s.idx + 1) % len(s.ring)
	if s.fill < len(s.ring) {
		s.fill++
	}
}

func (s *serialCapture) window() string {
	start := (s.idx - s.fill + len(s.ring)) % len(s.ring)
	out := make([]byte, s.fill)
	for j := 0; j < s.fill; j++ {
		out[j] = s.ring[(start+j)%len(s.ring)]
	}
	return string(out)
}

func main() {
	romPath := flag.String("rom", "", "path to ROM (.gb)")
	bootPath := flag.String("bootrom", "", "optional DMG boot ROM to run from 0x0000 until FF50 disables it")
	maxCycles := flag.Int64("cycles", 5_000_000_000, "max T-cycles to run")
	trace := flag.Bool("trace", false, "print PC/opcode/register state every step")
	until := flag.String("until", "Passed", "stop when serial output contains this substring (case-insensitive); empty to disable")
	auto := flag.Bool("auto", false, "auto-detect 'Passed' or 'Failed N tests' and exit 0/1")
	timeout := flag.Duration("timeout", 0, "optional wall-clock timeout; 0 disables")
	serialWindow := flag.Int("serialWindow", 8192, "bytes of recent serial output retained for diagnostics")
	flag.Parse()

	if *romPath == "" {
		fmt.Fprintln(os.Stderr, "cpurunner: -rom is required")
		os.Exit(2)
	}
	rom, err := os.ReadFile(*romPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cpurunner: read rom: %v\n", err)
		os.Exit(2)
	}

	var boot []byte
	if *bootPath != "" {
		boot, err = os.ReadFile(*bootPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "cpurunner: read bootrom: %v\n", err)
			os.Exit(2)
		}
	}

	sys, err := system.New(rom, system.Config{BootROM: boot})
	if err != nil {
		fmt.Fprintf(os.Stderr, "cpurunner: %v\n", err)
		os.Exit(2)
	}

	if *serialWindow < 256 {
		*serialWindow = 256
	}
	ser := newSerialCapture(*serialWindow)
	sys.SetSerialSink(ser)

	start := time.Now()
	var deadline time.Time
	if *timeout > 0 {
		deadline = start.Add(*timeout)
	}
	failRe := regexp.MustCompile(`(?i)failed\s+(\d+)\s+tests?`)

	var cycles int64
	for cycles < *maxCycles {
		pc := sys.CPU().PC
		op := sys.Bus().Read(pc)
		cyc := sys.Step()
		cycles += int64(cyc)
		if *trace {
			c := sys.CPU()
			fmt.Printf("PC=%04X OP=%02X cyc=%d A=%02X F=%02X B=%02X C=%02X D=%02X E=%02X H=%02X L=%02X SP=%04X IME=%t\n",
				pc, op, cyc, c.A, c.F, c.B, c.C, c.D, c.E, c.H, c.L, c.SP, c.IME)
		}

		out := ser.buf.String()
		lower := strings.ToLower(out)
		if *auto {
			if strings.Contains(lower, "passed") {
				fmt.Printf("\nDetected PASS. cycles=%d elapsed=%s\n", cycles, time.Since(start).Truncate(time.Millisecond))
				os.Exit(0)
			}
			if m := failRe.FindStringSubmatch(out); m != nil {
				fmt.Printf("\nDetected %s. cycles=%d elapsed=%s\n", m[0], cycles, time.Since(start).Truncate(time.Millisecond))
				fmt.Printf("--- recent serial ---\n%s\n--- end ---\n", ser.window())
				os.Exit(1)
			}
		} else if *until != "" && strings.Contains(lower, strings.ToLower(*until)) {
			fmt.Printf("\nDetected %q. cycles=%d elapsed=%s\n", *until, cycles, time.Since(start).Truncate(time.Millisecond))
			return
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			fmt.Printf("\nTimeout after %s. cycles=%d\n", time.Since(start).Truncate(time.Millisecond), cycles)
			os.Exit(2)
		}
	}
	fmt.Printf("\nDone: cycles=%d elapsed=%s\n", cycles, time.Since(start).Truncate(time.Millisecond))
}
