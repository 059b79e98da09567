package record

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/wav"
)

func TestToPCM16(t *testing.T) {
	cases := []struct {
		in   float32
		want int
	}{
		{0, 0},
		{1, 32767},
		{-1, -32767},
		{2, 32767},
		{-3, -32767},
		{0.5, 16383},
	}
	for _, c := range cases {
		if got := toPCM16(c.in); got != c.want {
			t.Errorf("toPCM16(%v) = %d want %d", c.in, got, c.want)
		}
	}
}

func TestWAVSink_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	s, err := Create(path, 48000)
	if err != nil {
		t.Fatal(err)
	}
	s.PushSamples([]float32{0.5, -0.5, 1, -1})
	s.PushSamples([]float32{0, 0})
	if s.Pending() != 0 {
		t.Fatalf("Pending got %d want 0", s.Pending())
	}
	if s.Frames() != 3 {
		t.Fatalf("Frames got %d want 3", s.Frames())
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		t.Fatalf("not a valid wav file")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatal(err)
	}
	if dec.NumChans != 2 || dec.SampleRate != 48000 || dec.BitDepth != 16 {
		t.Fatalf("format got ch=%d rate=%d bits=%d", dec.NumChans, dec.SampleRate, dec.BitDepth)
	}
	want := []int{16383, -16383, 32767, -32767, 0, 0}
	if len(buf.Data) != len(want) {
		t.Fatalf("samples got %d want %d", len(buf.Data), len(want))
	}
	for i, v := range want {
		if buf.Data[i] != v {
			t.Fatalf("sample %d got %d want %d", i, buf.Data[i], v)
		}
	}
}
