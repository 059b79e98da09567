package ui

import "time"

// applyPlayerBufferSize keeps the player's internal buffer short:
// ~20ms in low-latency mode or during fast-forward, ~40ms otherwise.
func (a *App) applyPlayerBufferSize() {
	if a.player == nil {
		return
	}
	bufMs := 40
	if a.cfg.AudioLowLatency || a.fast {
		bufMs = 20
	}
	a.player.SetBufferSize(time.Duration(bufMs) * time.Millisecond)
}
