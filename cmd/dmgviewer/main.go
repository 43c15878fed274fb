// Command dmgviewer is a thin ebiten-based reference host: it loads a ROM
// into internal/system and exercises the pixel/audio/serial sinks and the
// joypad edge exactly the way the teacher's internal/ui.App exercised the
// teacher's stub internal/emu.Machine.
package main

import (
	"os"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	flag "github.com/spf13/pflag"

	"dmgcore/internal/cart"
	"dmgcore/internal/system"
)

var opts struct {
	romPath    string
	sampleRate int
	targetFPS  int
	scale      int
	trace      bool
}

func init() {
	flag.StringVar(&opts.romPath, "rom", "", "path to a .gb ROM image")
	flag.IntVar(&opts.sampleRate, "sample-rate", 48000, "audio sample rate in Hz")
	flag.IntVar(&opts.targetFPS, "target-fps", 60, "advisory frame rate")
	flag.IntVar(&opts.scale, "scale", 3, "integer window scale over the 160x144 screen")
	flag.BoolVar(&opts.trace, "trace", false, "enable debug-level logging (each serial byte is logged)")
}

func main() {
	flag.Parse()
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if opts.trace {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	if opts.romPath == "" {
		log.Fatal().Msg("dmgviewer: -rom is required")
	}
	rom, err := os.ReadFile(opts.romPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", opts.romPath).Msg("read rom")
	}

	sys, err := system.New(rom, system.Config{SampleRate: opts.sampleRate, TargetFPS: opts.targetFPS})
	if err != nil {
		log.Fatal().Err(err).Msg("construct system")
	}

	savPath := strings.TrimSuffix(opts.romPath, ".gb") + ".sav"
	if bb, ok := sys.Bus().Cart().(cart.BatteryBacked); ok {
		if data, err := os.ReadFile(savPath); err == nil {
			bb.LoadRAM(data)
			log.Info().Str("path", savPath).Int("bytes", len(data)).Msg("loaded battery RAM")
		}
	}

	game := newGame(sys)
	ebiten.SetWindowTitle("dmgviewer")
	ebiten.SetWindowSize(system.ScreenWidth*opts.scale, system.ScreenHeight*opts.scale)
	runErr := ebiten.RunGame(game)

	if bb, ok := sys.Bus().Cart().(cart.BatteryBacked); ok {
		if err := os.WriteFile(savPath, bb.SaveRAM(), 0644); err != nil {
			log.Warn().Err(err).Str("path", savPath).Msg("failed to persist battery RAM")
		} else {
			log.Info().Str("path", savPath).Msg("persisted battery RAM")
		}
	}

	if runErr != nil {
		log.Fatal().Err(runErr).Msg("ebiten run loop exited")
	}
}

// game implements ebiten.Game, driving one System.StepFrame per Update
// and blitting the accumulated framebuffer in Draw.
type game struct {
	sys *system.System
	fb  *framebufferSink
	img *ebiten.Image

	audioCtx    *audio.Context
	audioPlayer *audio.Player
	audioSink   *ringAudioSink
}

func newGame(sys *system.System) *game {
	g := &game{
		sys: sys,
		fb:  newFramebufferSink(),
		img: ebiten.NewImage(system.ScreenWidth, system.ScreenHeight),
	}
	sys.SetPixelSink(g.fb)

	g.audioCtx = audio.NewContext(opts.sampleRate)
	g.audioSink = newRingAudioSink(8192)
	sys.SetAudioSink(g.audioSink)
	if p, err := g.audioCtx.NewPlayer(g.audioSink); err == nil {
		g.audioPlayer = p
		g.audioPlayer.Play()
	} else {
		log.Warn().Err(err).Msg("failed to start audio player")
	}

	sys.SetSerialSink(serialLogSink{})
	return g
}

var keyToButton = map[ebiten.Key]system.Button{
	ebiten.KeyArrowRight: system.ButtonRight,
	ebiten.KeyArrowLeft:  system.ButtonLeft,
	ebiten.KeyArrowUp:    system.ButtonUp,
	ebiten.KeyArrowDown:  system.ButtonDown,
	ebiten.KeyZ:          system.ButtonA,
	ebiten.KeyX:          system.ButtonB,
	ebiten.KeyEnter:      system.ButtonStart,
	ebiten.KeyShiftRight: system.ButtonSelect,
}

func (g *game) Update() error {
	for key, btn := range keyToButton {
		if inpututil.IsKeyJustPressed(key) {
			g.sys.SetButton(btn, true)
		}
		if inpututil.IsKeyJustReleased(key) {
			g.sys.SetButton(btn, false)
		}
	}
	g.sys.StepFrame()
	g.img.WritePixels(g.fb.rgba())
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	drawOpts := &ebiten.DrawImageOptions{}
	sx := float64(screen.Bounds().Dx()) / float64(system.ScreenWidth)
	sy := float64(screen.Bounds().Dy()) / float64(system.ScreenHeight)
	drawOpts.GeoM.Scale(sx, sy)
	screen.DrawImage(g.img, drawOpts)
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}

// framebufferSink implements system.PixelSink, accumulating one frame's
// worth of pixels into a packed RGBA buffer ebiten.Image.WritePixels can
// consume directly.
type framebufferSink struct {
	pix [system.ScreenWidth * system.ScreenHeight * 4]byte
}

func newFramebufferSink() *framebufferSink { return &framebufferSink{} }

func (f *framebufferSink) SetPixel(x, y int, c system.Color) {
	if x < 0 || x >= system.ScreenWidth || y < 0 || y >= system.ScreenHeight {
		return
	}
	i := (y*system.ScreenWidth + x) * 4
	f.pix[i+0] = c.R
	f.pix[i+1] = c.G
	f.pix[i+2] = c.B
	f.pix[i+3] = c.A
}

func (f *framebufferSink) EndFrame() {}

func (f *framebufferSink) rgba() []byte { return f.pix[:] }

type serialLogSink struct{}

func (serialLogSink) PutByte(b byte) {
	log.Debug().Str("byte", string(rune(b))).Msg("serial")
}
