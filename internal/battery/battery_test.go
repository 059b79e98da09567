package battery

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type fakeRAM struct {
	ram   []byte
	dirty bool
}

func (f *fakeRAM) RAM() []byte {
	out := make([]byte, len(f.ram))
	copy(out, f.ram)
	return out
}
func (f *fakeRAM) SetRAM(d []byte) { copy(f.ram, d); f.dirty = true }
func (f *fakeRAM) ConsumeRAMDirty() bool {
	d := f.dirty
	f.dirty = false
	return d
}

func TestOpen_CreatesSizedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "game.sav")
	b, err := Open(path, 0x2000)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()
	if !b.Fresh() {
		t.Fatalf("new file should be fresh")
	}
	fi, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if fi.Size() != 0x2000 {
		t.Fatalf("size got %d want %d", fi.Size(), 0x2000)
	}
}

func TestStoreAndReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "game.sav")
	b, err := Open(path, 16)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte("0123456789ABCDEF")
	if err := b.Store(want); err != nil {
		t.Fatal(err)
	}
	if err := b.Close(); err != nil {
		t.Fatal(err)
	}

	b, err = Open(path, 16)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()
	if b.Fresh() {
		t.Fatalf("existing file reported fresh")
	}
	got, err := b.Load()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestOpen_ResizesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "game.sav")
	if err := os.WriteFile(path, []byte{1, 2, 3, 4}, 0o644); err != nil {
		t.Fatal(err)
	}
	b, err := Open(path, 8)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()
	got, _ := b.Load()
	if !bytes.Equal(got, []byte{1, 2, 3, 4, 0, 0, 0, 0}) {
		t.Fatalf("got % x", got)
	}
}

func TestClosed(t *testing.T) {
	b, err := Open(filepath.Join(t.TempDir(), "x.sav"), 4)
	if err != nil {
		t.Fatal(err)
	}
	b.Close()
	if _, err := b.Load(); !errors.Is(err, ErrClosed) {
		t.Fatalf("Load after close: %v", err)
	}
	if err := b.Store([]byte{1}); !errors.Is(err, ErrClosed) {
		t.Fatalf("Store after close: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestInvalidSize(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "x.sav"), 0); err == nil {
		t.Fatalf("expected error for size 0")
	}
}

func TestAttachAndSync(t *testing.T) {
	path := filepath.Join(t.TempDir(), "game.sav")
	b, err := Open(path, 4)
	if err != nil {
		t.Fatal(err)
	}
	src := &fakeRAM{ram: []byte{9, 9, 9, 9}}
	if err := Attach(b, src); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(src.ram, []byte{9, 9, 9, 9}) {
		t.Fatalf("fresh file must not overwrite RAM")
	}
	if wrote, err := Sync(b, src); err != nil || wrote {
		t.Fatalf("clean RAM synced: wrote=%v err=%v", wrote, err)
	}
	src.ram[1] = 7
	src.dirty = true
	if wrote, err := Sync(b, src); err != nil || !wrote {
		t.Fatalf("dirty RAM not synced: wrote=%v err=%v", wrote, err)
	}
	b.Close()

	b, err = Open(path, 4)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()
	other := &fakeRAM{ram: make([]byte, 4)}
	if err := Attach(b, other); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(other.ram, []byte{9, 7, 9, 9}) {
		t.Fatalf("restored % x", other.ram)
	}
	if other.dirty {
		t.Fatalf("restore should leave RAM clean")
	}
}
