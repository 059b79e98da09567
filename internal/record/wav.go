// Package record captures the APU output stream to a 16-bit stereo WAV file.
package record

import (
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/FabianRolfMatthiasNoll/gbcycle/internal/apu"
)

const (
	bitDepth  = 16
	channels  = 2
	pcmFormat = 1
)

var _ apu.LosslessSink = (*WAVSink)(nil)

// WAVSink is an apu.LosslessSink that encodes every pushed batch. It never
// applies backpressure, so Pending is always zero.
type WAVSink struct {
	f      io.WriteSeeker
	closer io.Closer
	enc    *wav.Encoder
	buf    *audio.IntBuffer
	frames int
	err    error
}

// Create opens path for writing.
func Create(path string, sampleRate int) (*WAVSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	s := NewWAVSink(f, sampleRate)
	s.closer = f
	return s, nil
}

// NewWAVSink encodes into w. Close finalizes the header but leaves w open.
func NewWAVSink(w io.WriteSeeker, sampleRate int) *WAVSink {
	return &WAVSink{
		f:   w,
		enc: wav.NewEncoder(w, sampleRate, bitDepth, channels, pcmFormat),
		buf: &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
			SourceBitDepth: bitDepth,
		},
	}
}

// PushSamples converts interleaved float samples to PCM16 and encodes them.
// The first encoder error sticks and is reported by Close.
func (s *WAVSink) PushSamples(samples []float32) {
	if s.err != nil || len(samples) == 0 {
		return
	}
	s.buf.Data = s.buf.Data[:0]
	for _, v := range samples {
		s.buf.Data = append(s.buf.Data, toPCM16(v))
	}
	if err := s.enc.Write(s.buf); err != nil {
		s.err = fmt.Errorf("record: %w", err)
		return
	}
	s.frames += len(samples) / channels
}

func (s *WAVSink) Pending() int { return 0 }

// Lossless keeps the recording complete while a speaker sink is backed up.
func (s *WAVSink) Lossless() bool { return true }

// Frames is the number of stereo frames written so far.
func (s *WAVSink) Frames() int { return s.frames }

// Close writes the final header sizes.
func (s *WAVSink) Close() error {
	err := s.err
	if cerr := s.enc.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("record: %w", cerr)
	}
	if s.closer != nil {
		if cerr := s.closer.Close(); err == nil {
			err = cerr
		}
		s.closer = nil
	}
	return err
}

func toPCM16(v float32) int {
	switch {
	case v > 1:
		v = 1
	case v < -1:
		v = -1
	}
	return int(v * 32767)
}
