// Package imagemap loads density images as 8-bit grey maps.
//
// PNG, GIF and JPEG are decoded by the standard library, BMP and TIFF by
// golang.org/x/image. Colour images are reduced to luminance.
package imagemap

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"sync"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/udisondev/seed/internal/host"
)

// ErrEmptyImage is returned for images with zero width or height.
var ErrEmptyImage = errors.New("image has no pixels")

// Map is a decoded density map.
type Map struct {
	name    string
	w, h    int
	pix     []uint8
	density float64
}

// Load reads and decodes the image at path.
func Load(path string) (*Map, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening image %s: %w", path, err)
	}
	defer f.Close()

	m, err := Decode(filepath.Base(path), f)
	if err != nil {
		return nil, fmt.Errorf("loading image %s: %w", path, err)
	}
	return m, nil
}

// Decode decodes an image in any registered format.
func Decode(name string, r io.Reader) (*Map, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decoding: %w", err)
	}
	m, err := FromImage(name, img)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", format, err)
	}
	return m, nil
}

// FromImage converts img to a grey map.
func FromImage(name string, img image.Image) (*Map, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil, ErrEmptyImage
	}

	m := &Map{name: name, w: w, h: h, pix: make([]uint8, w*h)}
	if g, ok := img.(*image.Gray); ok {
		for y := 0; y < h; y++ {
			row := g.Pix[y*g.Stride : y*g.Stride+w]
			copy(m.pix[y*w:], row)
		}
	} else {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				m.pix[y*w+x] = color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray).Y
			}
		}
	}

	var sum float64
	for _, v := range m.pix {
		sum += float64(v)
	}
	m.density = sum / float64(w*h*256)
	return m, nil
}

func (m *Map) Name() string     { return m.name }
func (m *Map) Width() int       { return m.w }
func (m *Map) Height() int      { return m.h }
func (m *Map) Density() float64 { return m.density }

// At returns the pixel at (x, y). Out-of-range coordinates are clamped.
func (m *Map) At(x, y int) uint8 {
	x = min(max(x, 0), m.w-1)
	y = min(max(y, 0), m.h-1)
	return m.pix[y*m.w+x]
}

// Sample returns the pixel at normalized coordinates u, v in [0, 1].
func (m *Map) Sample(u, v float64) uint8 {
	return Sample(m, u, v)
}

// AverageDensity integrates the map over the transformed sampling domain.
func (m *Map) AverageDensity(scaleX, scaleY, ofsX, ofsY float64) float64 {
	return AverageDensity(m, scaleX, scaleY, ofsX, ofsY)
}

// Sample returns the pixel of m at normalized coordinates u, v in [0, 1].
// u = 1 maps to the last column.
func Sample(m host.DensityMap, u, v float64) uint8 {
	w, h := m.Width(), m.Height()
	x := min(int(u*float64(w)), w-1)
	y := min(int(v*float64(h)), h-1)
	return m.At(max(x, 0), max(y, 0))
}

// AverageDensity returns the mean density in [0, 1] seen by a sampler that
// scales and offsets normalized coordinates and wraps them into the image.
// With the identity transform this is the precomputed whole-image average.
func AverageDensity(m host.DensityMap, scaleX, scaleY, ofsX, ofsY float64) float64 {
	if ofsX == 0 && ofsY == 0 && scaleX == 1 && scaleY == 1 {
		return m.Density()
	}

	w, h := m.Width(), m.Height()
	wd, hd := float64(w), float64(h)
	xo, yo := wd*ofsX, hd*ofsY

	var sum float64
	for x := 0; x < w; x++ {
		x1 := int(Wrap(float64(x)*scaleX+xo, wd))
		for y := 0; y < h; y++ {
			y1 := int(Wrap(float64(y)*scaleY+yo, hd))
			sum += float64(m.At(x1, y1))
		}
	}
	return sum / (wd * hd * 256)
}

// Wrap maps v into [0, m).
func Wrap(v, m float64) float64 {
	r := math.Mod(math.Mod(v, m)+m, m)
	if r >= m {
		return 0
	}
	return r
}

// Store loads maps from a directory on first use and keeps them.
type Store struct {
	dir string

	mu    sync.Mutex
	cache map[string]*Map
}

// NewStore returns a store reading images below dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir, cache: make(map[string]*Map)}
}

// Image implements host.Images. Names are relative to the store directory.
func (s *Store) Image(name string) (host.DensityMap, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m, ok := s.cache[name]; ok {
		return m, nil
	}
	m, err := Load(filepath.Join(s.dir, filepath.FromSlash(name)))
	if err != nil {
		return nil, err
	}
	s.cache[name] = m
	return m, nil
}

// Len returns the number of cached maps.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cache)
}
