package romfile

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func sampleROM() []byte {
	rom := make([]byte, 0x8000)
	for i := range rom {
		rom[i] = byte(i * 7)
	}
	return rom
}

func TestDecode_Plain(t *testing.T) {
	rom := sampleROM()
	got, err := Decode("game.gb", rom)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, rom) {
		t.Fatalf("plain ROM altered")
	}
}

func TestDecode_Gzip(t *testing.T) {
	rom := sampleROM()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	zw.Write(rom)
	zw.Close()
	got, err := Decode("game.gb.gz", buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, rom) {
		t.Fatalf("gzip ROM mismatch: got %d bytes want %d", len(got), len(rom))
	}
}

func TestDecode_ZipSkipsNonROM(t *testing.T) {
	rom := sampleROM()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, _ := zw.Create("readme.txt")
	w.Write([]byte("hello"))
	w, _ = zw.Create("game.GB")
	w.Write(rom)
	zw.Close()

	got, err := Decode("game.zip", buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, rom) {
		t.Fatalf("zip ROM mismatch")
	}
}

func TestDecode_ZipWithoutROM(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, _ := zw.Create("notes.txt")
	w.Write([]byte("nothing here"))
	zw.Close()

	_, err := Decode("game.zip", buf.Bytes())
	if !errors.Is(err, ErrEmptyArchive) {
		t.Fatalf("got %v want ErrEmptyArchive", err)
	}
}

func TestDecode_Bad7z(t *testing.T) {
	if _, err := Decode("game.7z", []byte("not an archive")); err == nil {
		t.Fatalf("expected error for corrupt 7z")
	}
}

func TestLoadFromDisk(t *testing.T) {
	rom := sampleROM()
	path := filepath.Join(t.TempDir(), "game.gb")
	if err := os.WriteFile(path, rom, 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, rom) {
		t.Fatalf("Load altered ROM")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.gb")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("got %v want ErrNotExist", err)
	}
}

func TestSavePath(t *testing.T) {
	cases := map[string]string{
		"roms/tetris.gb":   "roms/tetris.sav",
		"roms/zelda.zip":   "roms/zelda.sav",
		"roms/noextension": "roms/noextension.sav",
	}
	for in, want := range cases {
		if got := SavePath(in); got != want {
			t.Errorf("SavePath(%q) = %q want %q", in, got, want)
		}
	}
}
