// Package render draws the six formations of a rotation cycle as a single
// PNG: a 2×3 grid of court diagrams with one marker per player.
//
// Geometry is computed by NewLayout without touching pixels, so the layout
// can be checked independently of the drawing surface.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/falconvolei/quadro/pkg/core"
)

// Download filenames.
const (
	ExportFilename  = "falcon-rotacoes.png"
	PreviewFilename = "falcon-rotacoes-visualizacao.png"
)

// ErrFormationCount is returned when a render is asked for anything other
// than a full cycle.
var ErrFormationCount = errors.New("render requires exactly six formations")

// Renderer owns the font faces used for labels. The faces keep glyph
// state between calls, so every use of them holds mu.
type Renderer struct {
	mu    sync.Mutex
	faces faces
}

// New creates a Renderer with the embedded bold font loaded.
func New() (*Renderer, error) {
	f, err := loadFaces()
	if err != nil {
		return nil, err
	}
	return &Renderer{faces: f}, nil
}

// Measure returns the width of a name label in pixels.
func (r *Renderer) Measure(s string) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.measure(s)
}

func (r *Renderer) measure(s string) float64 {
	return measureWith(r.faces.label)(s)
}

// Layout computes the layout of formations using the renderer's label font.
func (r *Renderer) Layout(formations []core.Formation) Layout {
	r.mu.Lock()
	defer r.mu.Unlock()
	return NewLayout(formations, r.measure)
}

// Image lays out and draws a full cycle.
func (r *Renderer) Image(formations []core.Formation) (*image.RGBA, error) {
	if len(formations) != Diagrams {
		return nil, fmt.Errorf("%w: got %d", ErrFormationCount, len(formations))
	}
	return r.Draw(r.Layout(formations)), nil
}

// Render returns the PNG encoding of a full cycle.
func (r *Renderer) Render(formations []core.Formation) ([]byte, error) {
	img, err := r.Image(formations)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Encode writes img as PNG.
func Encode(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}

// WriteDownload saves data as filename inside dir, creating dir if needed,
// and returns the written path.
func WriteDownload(dir, filename string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", filename, err)
	}
	return path, nil
}
