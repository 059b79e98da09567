// Package debugserver exposes a running machine over a WebSocket. Clients
// send JSON commands; the emulation goroutine applies them between frames by
// calling Poll, so the machine is never touched concurrently.
package debugserver

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/FabianRolfMatthiasNoll/gbcycle/internal/emu"
)

// Target is the machine surface the debugger drives.
type Target interface {
	Snapshot() (emu.DebugState, error)
	Step() (int, error)
	StepFrame() error
	AddBreakpoint(pc uint16)
	RemoveBreakpoint(pc uint16)
	ClearBreakpoints()
	Breakpoints() []uint16
	Disassemble(pc uint16, n int) []string
	Memory() []byte
}

// Command ops.
const (
	OpSnapshot   = "snapshot"
	OpPause      = "pause"
	OpResume     = "resume"
	OpStep       = "step"
	OpFrame      = "frame"
	OpBreak      = "break"
	OpUnbreak    = "unbreak"
	OpClearBreak = "clear"
	OpDisasm     = "disasm"
	OpMemory     = "memory"
	OpHit        = "hit" // server-initiated: breakpoint reached
)

type Command struct {
	Op   string `json:"op"`
	Addr uint16 `json:"addr,omitempty"`
	N    int    `json:"n,omitempty"`
}

type Response struct {
	Op          string          `json:"op"`
	Error       string          `json:"error,omitempty"`
	Paused      bool            `json:"paused"`
	State       *emu.DebugState `json:"state,omitempty"`
	Breakpoints []uint16        `json:"breakpoints,omitempty"`
	Lines       []string        `json:"lines,omitempty"`
	Data        []byte          `json:"data,omitempty"`
}

type request struct {
	cmd Command
	c   *client
}

type client struct {
	conn *websocket.Conn
	send chan Response
}

// Server queues commands from any number of clients.
type Server struct {
	log      logrus.FieldLogger
	upgrader websocket.Upgrader
	reqs     chan request

	mu      sync.Mutex
	clients map[*client]struct{}
	paused  bool
}

func New(log logrus.FieldLogger) *Server {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Server{
		log: log.WithField("component", "debugserver"),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		reqs:    make(chan request, 64),
		clients: make(map[*client]struct{}),
	}
}

// Paused reports whether the front-end should hold the emulation loop.
func (s *Server) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

func (s *Server) setPaused(p bool) {
	s.mu.Lock()
	s.paused = p
	s.mu.Unlock()
}

// Handler upgrades every request to a WebSocket session.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(s.serveWS)
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/ws", s.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()
	s.log.WithField("addr", addr).Info("debug server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("upgrade failed")
		return
	}
	c := &client{conn: conn, send: make(chan Response, 16)}
	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()
	s.log.WithField("remote", r.RemoteAddr).Info("debugger attached")

	go s.writePump(c)
	s.readPump(c)
}

func (s *Server) readPump(c *client) {
	defer func() {
		s.mu.Lock()
		delete(s.clients, c)
		s.mu.Unlock()
		close(c.send)
		c.conn.Close()
	}()
	for {
		var cmd Command
		if err := c.conn.ReadJSON(&cmd); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.WithError(err).Debug("read ended")
			}
			return
		}
		s.reqs <- request{cmd: cmd, c: c}
	}
}

func (s *Server) writePump(c *client) {
	for resp := range c.send {
		if err := c.conn.WriteJSON(resp); err != nil {
			s.log.WithError(err).Debug("write failed")
			return
		}
	}
}

// reply delivers resp without blocking the emulation goroutine; a client
// that stopped reading loses messages.
func (s *Server) reply(c *client, resp Response) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[c]; !ok {
		return
	}
	select {
	case c.send <- resp:
	default:
		s.log.WithField("op", resp.Op).Warn("client too slow, dropping message")
	}
}

// Broadcast sends resp to every attached client.
func (s *Server) Broadcast(resp Response) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		select {
		case c.send <- resp:
		default:
		}
	}
}

// Poll applies every queued command to t and returns how many it handled.
// Call it from the goroutine that owns the machine.
func (s *Server) Poll(t Target) int {
	n := 0
	for {
		select {
		case req := <-s.reqs:
			s.reply(req.c, s.apply(t, req.cmd))
			n++
		default:
			return n
		}
	}
}

// BreakpointHit pauses the loop and tells every client where it stopped.
func (s *Server) BreakpointHit(t Target, pc uint16) {
	s.setPaused(true)
	s.log.WithField("pc", pc).Info("breakpoint hit")
	resp := Response{Op: OpHit, Paused: true}
	if st, err := t.Snapshot(); err == nil {
		resp.State = &st
	}
	s.Broadcast(resp)
}
