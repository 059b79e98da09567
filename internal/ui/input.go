package ui

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/FabianRolfMatthiasNoll/gbcycle/internal/config"
	"github.com/FabianRolfMatthiasNoll/gbcycle/internal/joypad"
)

// keyMap holds the host key bound to each button.
type keyMap struct {
	up, down, left, right ebiten.Key
	a, b, start, sel      ebiten.Key
}

func resolveKeys(k config.Keys) (keyMap, error) {
	var m keyMap
	binds := []struct {
		name string
		dst  *ebiten.Key
	}{
		{k.Up, &m.up}, {k.Down, &m.down}, {k.Left, &m.left}, {k.Right, &m.right},
		{k.A, &m.a}, {k.B, &m.b}, {k.Start, &m.start}, {k.Select, &m.sel},
	}
	for _, b := range binds {
		if err := b.dst.UnmarshalText([]byte(b.name)); err != nil {
			return m, fmt.Errorf("key binding %q: %w", b.name, err)
		}
	}
	return m, nil
}

func (m keyMap) poll() joypad.Buttons {
	return joypad.Buttons{
		Up:     ebiten.IsKeyPressed(m.up),
		Down:   ebiten.IsKeyPressed(m.down),
		Left:   ebiten.IsKeyPressed(m.left),
		Right:  ebiten.IsKeyPressed(m.right),
		A:      ebiten.IsKeyPressed(m.a),
		B:      ebiten.IsKeyPressed(m.b),
		Start:  ebiten.IsKeyPressed(m.start),
		Select: ebiten.IsKeyPressed(m.sel),
	}
}
