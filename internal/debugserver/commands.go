package debugserver

import (
	"errors"
	"fmt"

	"github.com/FabianRolfMatthiasNoll/gbcycle/internal/emu"
)

const (
	maxDisasmLines = 64
	// maxSteps bounds one step request to a few frames of instructions.
	maxSteps = 1 << 16
)

func (s *Server) apply(t Target, cmd Command) Response {
	resp := Response{Op: cmd.Op}
	err := s.run(t, cmd, &resp)
	if err != nil {
		resp.Error = err.Error()
		s.log.WithField("op", cmd.Op).WithError(err).Debug("command failed")
	}
	resp.Paused = s.Paused()
	return resp
}

func (s *Server) run(t Target, cmd Command, resp *Response) error {
	switch cmd.Op {
	case OpSnapshot:
	case OpPause:
		s.setPaused(true)
	case OpResume:
		s.setPaused(false)
	case OpStep:
		s.setPaused(true)
		n := min(cmd.N, maxSteps)
		if n <= 0 {
			n = 1
		}
		for i := 0; i < n; i++ {
			if _, err := t.Step(); err != nil && !errors.Is(err, emu.ErrBreakpoint) {
				return err
			}
		}
	case OpFrame:
		s.setPaused(true)
		if err := t.StepFrame(); err != nil && !errors.Is(err, emu.ErrBreakpoint) {
			return err
		}
	case OpBreak:
		t.AddBreakpoint(cmd.Addr)
		resp.Breakpoints = t.Breakpoints()
		return nil
	case OpUnbreak:
		t.RemoveBreakpoint(cmd.Addr)
		resp.Breakpoints = t.Breakpoints()
		return nil
	case OpClearBreak:
		t.ClearBreakpoints()
		return nil
	case OpDisasm:
		n := cmd.N
		if n <= 0 || n > maxDisasmLines {
			n = 16
		}
		resp.Lines = t.Disassemble(cmd.Addr, n)
		return nil
	case OpMemory:
		mem := t.Memory()
		start := int(cmd.Addr)
		n := cmd.N
		if n <= 0 {
			n = 256
		}
		end := start + n
		if end > len(mem) {
			end = len(mem)
		}
		resp.Data = mem[start:end]
		return nil
	default:
		return fmt.Errorf("unknown op %q", cmd.Op)
	}
	st, err := t.Snapshot()
	if err != nil {
		return err
	}
	resp.State = &st
	return nil
}
