package ui

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/FabianRolfMatthiasNoll/gbcycle/internal/emu"
)

const (
	itemResume = iota
	itemPalette
	itemVolume
	itemMute
	itemSave
	itemReset
	itemQuit
	itemCount
)

type menu struct {
	open bool
	idx  int
}

func (m *menu) toggle() {
	m.open = !m.open
	m.idx = itemResume
}

func (a *App) updateMenu() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowUp) && a.menu.idx > 0 {
		a.menu.idx--
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowDown) && a.menu.idx < itemCount-1 {
		a.menu.idx++
	}
	dir := 0
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowLeft) {
		dir = -1
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowRight) {
		dir = 1
	}
	enter := inpututil.IsKeyJustPressed(ebiten.KeyEnter)

	switch a.menu.idx {
	case itemResume:
		if enter {
			a.menu.open = false
		}
	case itemPalette:
		if enter {
			dir = 1
		}
		if dir != 0 {
			a.cyclePalette(dir)
		}
	case itemVolume:
		if dir != 0 {
			v := a.cfg.Volume + 0.1*float64(dir)
			a.cfg.Volume = min(1, max(0, v))
			a.stream.SetVolume(a.cfg.Volume)
		}
	case itemMute:
		if enter || dir != 0 {
			a.stream.SetMuted(!a.stream.Muted())
		}
	case itemSave:
		if enter {
			if a.save == nil {
				a.toast("No battery RAM")
			} else {
				a.flushBattery(true)
				a.toast("Saved")
			}
			a.menu.open = false
		}
	case itemReset:
		if enter {
			a.m.Reset()
			a.menu.open = false
			a.toast("Reset")
		}
	case itemQuit:
		if enter {
			return ebiten.Termination
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyBackspace) {
		a.menu.open = false
	}
	return nil
}

func (a *App) cyclePalette(dir int) {
	names := emu.PaletteNames()
	cur := 0
	for i, n := range names {
		if n == a.cfg.Palette {
			cur = i
		}
	}
	next := names[(cur+dir+len(names))%len(names)]
	if err := a.m.SetPalette(next); err != nil {
		a.log.WithError(err).Warn("palette change failed")
		return
	}
	a.cfg.Palette = next
}

func (a *App) drawMenu(screen *ebiten.Image) {
	mute := "off"
	if a.stream.Muted() {
		mute = "on"
	}
	pal := a.cfg.Palette
	if pal != a.m.Palette() {
		pal += " (" + a.m.Palette() + ")"
	}
	lines := []string{
		"Resume",
		"Palette: " + pal,
		fmt.Sprintf("Volume: %d%%", int(a.cfg.Volume*100+0.5)),
		"Mute: " + mute,
		"Save battery",
		"Reset",
		"Quit",
	}
	for i, s := range lines {
		prefix := "  "
		if i == a.menu.idx {
			prefix = "> "
		}
		ebitenutil.DebugPrintAt(screen, prefix+s, 8, 8+i*14)
	}
}
