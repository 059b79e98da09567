// Package shot exports framebuffers as PNG screenshots.
package shot

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/image/draw"

	"github.com/FabianRolfMatthiasNoll/gbcycle/internal/ppu"
)

// Image wraps an RGBA framebuffer without copying it.
func Image(frame []byte) (*image.RGBA, error) {
	if len(frame) != ppu.Width*ppu.Height*4 {
		return nil, fmt.Errorf("shot: frame is %d bytes, want %d", len(frame), ppu.Width*ppu.Height*4)
	}
	return &image.RGBA{
		Pix:    frame,
		Stride: 4 * ppu.Width,
		Rect:   image.Rect(0, 0, ppu.Width, ppu.Height),
	}, nil
}

// Scale enlarges src by an integer factor with nearest-neighbour sampling so
// pixels stay square.
func Scale(src image.Image, factor int) *image.RGBA {
	if factor < 1 {
		factor = 1
	}
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}

// Encode writes frame as a PNG scaled by factor.
func Encode(w io.Writer, frame []byte, factor int) error {
	img, err := Image(frame)
	if err != nil {
		return err
	}
	return png.Encode(w, Scale(img, factor))
}

// Save writes frame to path.
func Save(path string, frame []byte, factor int) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return Encode(f, frame, factor)
}

// Name returns a timestamped screenshot path in dir.
func Name(dir string, now time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("screenshot_%s.png", now.Format("20060102_150405")))
}
