// Package battery keeps cartridge RAM in a memory-mapped .sav file so a
// flush is a copy plus msync rather than a full rewrite.
package battery

import (
	"errors"
	"fmt"
	"os"

	"github.com/edsrzf/mmap-go"
)

// ErrClosed is returned by operations on a closed File.
var ErrClosed = errors.New("battery file closed")

// File is an open save file of fixed size.
type File struct {
	path  string
	file  *os.File
	mmap  mmap.MMap
	fresh bool
}

// Open maps path, creating or resizing it to size bytes. A file that had to
// be created reports Fresh so the caller keeps the cartridge's power-on RAM.
func Open(path string, size int) (*File, error) {
	if size <= 0 {
		return nil, fmt.Errorf("battery: invalid size %d", size)
	}
	fresh := false
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		fresh = true
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if fi.Size() != int64(size) {
		if err := f.Truncate(int64(size)); err != nil {
			f.Close()
			return nil, err
		}
	}
	m, err := mmap.Map(f, mmap.RDWR, 0)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("battery: map %s: %w", path, err)
	}
	return &File{path: path, file: f, mmap: m, fresh: fresh}, nil
}

func (b *File) Path() string { return b.path }
func (b *File) Fresh() bool  { return b.fresh }
func (b *File) Size() int    { return len(b.mmap) }

// Load returns a copy of the saved RAM.
func (b *File) Load() ([]byte, error) {
	if b.mmap == nil {
		return nil, ErrClosed
	}
	out := make([]byte, len(b.mmap))
	copy(out, b.mmap)
	return out, nil
}

// Store writes data into the mapping and flushes it to disk.
func (b *File) Store(data []byte) error {
	if b.mmap == nil {
		return ErrClosed
	}
	copy(b.mmap, data)
	b.fresh = false
	return b.mmap.Flush()
}

// Close unmaps and closes the file.
func (b *File) Close() error {
	if b.mmap == nil {
		return nil
	}
	err := b.mmap.Unmap()
	b.mmap = nil
	if cerr := b.file.Close(); err == nil {
		err = cerr
	}
	return err
}
