// Package hostaudio queues APU output for a host audio player. A Stream is
// an apu.Sink on the emulation side and an io.Reader of little-endian
// float32 stereo frames on the player side.
package hostaudio

import (
	"encoding/binary"
	"math"
	"sync"
	"time"
)

const bytesPerFrame = 8 // two float32 samples

// Stream is a bounded ring of interleaved stereo samples.
type Stream struct {
	mu     sync.Mutex
	ring   []float32
	head   int
	size   int // samples, not frames
	volume float32
	muted  bool

	// Wait bounds how long Read holds out for the emulator before padding
	// with silence.
	Wait time.Duration

	underruns int
	overflow  int
}

// NewStream queues at most maxFrames stereo frames; older frames are
// discarded when the player falls behind.
func NewStream(maxFrames int) *Stream {
	if maxFrames < 1 {
		maxFrames = 1
	}
	return &Stream{
		ring:   make([]float32, 2*maxFrames),
		volume: 1,
		Wait:   8 * time.Millisecond,
	}
}

func (s *Stream) SetVolume(v float64) {
	s.mu.Lock()
	s.volume = float32(math.Max(0, math.Min(1, v)))
	s.mu.Unlock()
}

func (s *Stream) SetMuted(m bool) {
	s.mu.Lock()
	s.muted = m
	s.mu.Unlock()
}

func (s *Stream) Muted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.muted
}

// PushSamples implements apu.Sink.
func (s *Stream) PushSamples(samples []float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(samples) &^ 1
	if n > len(s.ring) {
		s.overflow += (n - len(s.ring)) / 2
		samples = samples[n-len(s.ring) : n]
		n = len(s.ring)
	}
	if free := len(s.ring) - s.size; n > free {
		drop := n - free
		s.head = (s.head + drop) % len(s.ring)
		s.size -= drop
		s.overflow += drop / 2
	}
	tail := (s.head + s.size) % len(s.ring)
	for i := 0; i < n; i++ {
		s.ring[(tail+i)%len(s.ring)] = samples[i]
	}
	s.size += n
}

// Pending implements apu.Sink: stereo frames not yet read.
func (s *Stream) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size / 2
}

// Read fills p with whole frames. Missing data is padded with silence so
// the player never stalls; each padded read counts as an underrun.
func (s *Stream) Read(p []byte) (int, error) {
	frames := len(p) / bytesPerFrame
	if frames == 0 {
		clear(p)
		return len(p), nil
	}
	if s.Pending() == 0 && s.Wait > 0 {
		deadline := time.Now().Add(s.Wait)
		for s.Pending() == 0 && time.Now().Before(deadline) {
			time.Sleep(time.Millisecond)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	gain := s.volume
	if s.muted {
		gain = 0
	}
	avail := s.size / 2
	if avail > frames {
		avail = frames
	}
	for i := 0; i < avail*2; i++ {
		v := s.ring[s.head] * gain
		s.head = (s.head + 1) % len(s.ring)
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(v))
	}
	s.size -= avail * 2
	if avail < frames {
		clear(p[avail*bytesPerFrame : frames*bytesPerFrame])
		if !s.muted {
			s.underruns++
		}
	}
	return frames * bytesPerFrame, nil
}

// Stats reports padded reads and frames discarded on overflow.
func (s *Stream) Stats() (underruns, overflow int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.underruns, s.overflow
}
