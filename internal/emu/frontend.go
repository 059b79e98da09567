package emu

import "github.com/FabianRolfMatthiasNoll/gbcycle/internal/joypad"

// Presenter shows a finished RGBA frame. It must not keep the slice.
type Presenter interface {
	Present(frame []byte)
}

// InputSource reports the buttons held right now.
type InputSource interface {
	PollButtons() joypad.Buttons
}

// RunFrame polls input, runs one frame and hands the result to out.
// Either side may be nil.
func (m *Machine) RunFrame(in InputSource, out Presenter) error {
	if in != nil {
		m.SetButtons(in.PollButtons())
	}
	if err := m.StepFrame(); err != nil {
		return err
	}
	if out != nil {
		out.Present(m.Frame())
	}
	return nil
}
