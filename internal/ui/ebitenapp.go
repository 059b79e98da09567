// Package ui is the ebiten front-end. App presents frames, polls the
// keyboard and plays audio for an emu.Machine.
package ui

import (
	"errors"
	"fmt"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/sirupsen/logrus"

	"github.com/FabianRolfMatthiasNoll/gbcycle/internal/apu"
	"github.com/FabianRolfMatthiasNoll/gbcycle/internal/battery"
	"github.com/FabianRolfMatthiasNoll/gbcycle/internal/config"
	"github.com/FabianRolfMatthiasNoll/gbcycle/internal/debugserver"
	"github.com/FabianRolfMatthiasNoll/gbcycle/internal/emu"
	"github.com/FabianRolfMatthiasNoll/gbcycle/internal/hostaudio"
	"github.com/FabianRolfMatthiasNoll/gbcycle/internal/joypad"
	"github.com/FabianRolfMatthiasNoll/gbcycle/internal/ppu"
	"github.com/FabianRolfMatthiasNoll/gbcycle/internal/shot"
)

// Options carries the optional collaborators of an App.
type Options struct {
	Log     logrus.FieldLogger
	Battery *battery.File
	Debug   *debugserver.Server
	// Sinks receive the audio stream alongside the speakers.
	Sinks []apu.Sink
}

type App struct {
	cfg  config.Config
	m    *emu.Machine
	log  logrus.FieldLogger
	keys keyMap

	tex   *ebiten.Image
	frame []byte

	paused bool
	fast   bool
	menu   menu

	stream *hostaudio.Stream
	player *audio.Player

	save      *battery.File
	lastFlush time.Time
	dbg       *debugserver.Server

	status      string
	statusUntil time.Time
}

func NewApp(cfg config.Config, m *emu.Machine, opts Options) (*App, error) {
	cfg.Defaults()
	keys, err := resolveKeys(cfg.Keys)
	if err != nil {
		return nil, err
	}
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	a := &App{
		cfg:       cfg,
		m:         m,
		log:       log.WithField("component", "ui"),
		keys:      keys,
		frame:     make([]byte, ppu.Width*ppu.Height*4),
		save:      opts.Battery,
		dbg:       opts.Debug,
		lastFlush: time.Now(),
	}
	copy(a.frame, m.Frame())

	// ~200ms of queue; the APU backs off long before that fills.
	a.stream = hostaudio.NewStream(cfg.SampleRate / 5)
	a.stream.SetVolume(cfg.Volume)
	a.stream.SetMuted(cfg.Mute)
	ctx := audio.CurrentContext()
	if ctx == nil {
		ctx = audio.NewContext(cfg.SampleRate)
	}
	a.player, err = ctx.NewPlayerF32(a.stream)
	if err != nil {
		return nil, fmt.Errorf("audio player: %w", err)
	}
	a.applyPlayerBufferSize()
	a.player.Play()
	sinks := append([]apu.Sink{a.stream}, opts.Sinks...)
	m.SetAudioSink(apu.MultiSink(sinks...))

	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(ppu.Width*cfg.Scale, ppu.Height*cfg.Scale)
	return a, nil
}

// Run blocks until the window closes, then flushes battery RAM.
func (a *App) Run() error {
	err := ebiten.RunGame(a)
	a.flushBattery(true)
	a.player.Close()
	if errors.Is(err, ebiten.Termination) {
		return nil
	}
	return err
}

// Present implements emu.Presenter.
func (a *App) Present(frame []byte) { copy(a.frame, frame) }

// PollButtons implements emu.InputSource.
func (a *App) PollButtons() joypad.Buttons { return a.keys.poll() }

func (a *App) Update() error {
	if a.dbg != nil {
		a.dbg.Poll(a.m)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		a.menu.toggle()
	}
	if a.menu.open {
		return a.updateMenu()
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		a.paused = !a.paused
	}
	a.fast = ebiten.IsKeyPressed(ebiten.KeyTab)
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		a.m.Reset()
		a.toast("Reset")
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyM) {
		a.stream.SetMuted(!a.stream.Muted())
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF12) {
		a.screenshot()
	}

	if a.held() {
		if inpututil.IsKeyJustPressed(ebiten.KeyN) {
			if err := a.runFrames(1); err != nil {
				return err
			}
		}
		a.flushBattery(false)
		return nil
	}

	n := 1
	if a.fast {
		n = a.cfg.FastForward
	}
	a.applyPlayerBufferSize()
	if err := a.runFrames(n); err != nil {
		return err
	}
	a.flushBattery(false)
	return nil
}

func (a *App) held() bool {
	return a.paused || (a.dbg != nil && a.dbg.Paused())
}

// runFrames stops early on a breakpoint; any other error ends the session.
func (a *App) runFrames(n int) error {
	for i := 0; i < n; i++ {
		err := a.m.RunFrame(a, a)
		if err == nil {
			continue
		}
		var bp *emu.BreakpointError
		if errors.As(err, &bp) {
			if a.dbg != nil {
				a.dbg.BreakpointHit(a.m, bp.PC)
			} else {
				a.paused = true
			}
			a.toast(fmt.Sprintf("Break at %04X", bp.PC))
			return nil
		}
		a.log.WithError(err).Error("emulation stopped")
		return err
	}
	return nil
}

func (a *App) Draw(screen *ebiten.Image) {
	if a.tex == nil {
		a.tex = ebiten.NewImage(ppu.Width, ppu.Height)
	}
	a.tex.WritePixels(a.frame)
	screen.DrawImage(a.tex, nil)

	if a.menu.open {
		a.drawMenu(screen)
		return
	}
	if a.held() {
		ebitenutil.DebugPrintAt(screen, "PAUSED", 4, 4)
	}
	if a.status != "" && time.Now().Before(a.statusUntil) {
		ebitenutil.DebugPrintAt(screen, a.status, 4, ppu.Height-16)
	}
}

func (a *App) Layout(outW, outH int) (int, int) { return ppu.Width, ppu.Height }

func (a *App) toast(msg string) {
	a.status = msg
	a.statusUntil = time.Now().Add(2 * time.Second)
}

func (a *App) screenshot() {
	path := shot.Name(a.cfg.ScreenshotDir, time.Now())
	if err := shot.Save(path, a.frame, a.cfg.Scale); err != nil {
		a.log.WithError(err).Warn("screenshot failed")
		a.toast("Screenshot failed")
		return
	}
	a.log.WithField("path", path).Info("screenshot saved")
	a.toast("Screenshot saved")
}

// flushBattery persists dirty cartridge RAM at most once per SaveInterval
// unless forced.
func (a *App) flushBattery(force bool) {
	if a.save == nil {
		return
	}
	if !force && time.Since(a.lastFlush) < a.cfg.SaveInterval {
		return
	}
	a.lastFlush = time.Now()
	wrote, err := battery.Sync(a.save, a.m)
	if err != nil {
		a.log.WithError(err).Warn("battery flush failed")
		return
	}
	if wrote {
		a.log.WithField("path", a.save.Path()).Debug("battery RAM flushed")
	}
}
