package render

import (
	"bytes"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/falconvolei/quadro/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := New()
	require.NoError(t, err)
	return r
}

func rgba(c color.Color) color.RGBA {
	return color.RGBAModel.Convert(c).(color.RGBA)
}

func TestRender_CanvasSize(t *testing.T) {
	r := newTestRenderer(t)
	data, err := r.Render(sixFormations(
		core.Player{ID: 1, Name: "Bruna", Number: 13, Position: core.Position{X: 83.33, Y: 19.44}},
		core.Player{ID: 2, Name: "Nome Muito Comprido Mesmo", Number: 9, Position: core.Position{X: 50, Y: 19.44}},
	))
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 600, img.Bounds().Dx())
	assert.Equal(t, 620, img.Bounds().Dy())
}

func TestRender_ConcurrentCallsMatchSequential(t *testing.T) {
	r := newTestRenderer(t)
	formations := sixFormations(
		core.Player{ID: 1, Name: "Bruna", Number: 13, Position: core.Position{X: 83.33, Y: 19.44}},
		core.Player{ID: 5, Name: "Laura Marcelly", Number: 6, Position: core.Position{X: 50, Y: 69.44}},
	)
	want, err := r.Render(formations)
	require.NoError(t, err)

	const workers = 8
	got := make([][]byte, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i], errs[i] = r.Render(formations)
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, want, got[i], "worker %d", i)
	}
}

func TestRender_RequiresSixFormations(t *testing.T) {
	r := newTestRenderer(t)
	_, err := r.Render(sixFormations()[:5])
	require.ErrorIs(t, err, ErrFormationCount)
}

func TestDraw_CourtPalette(t *testing.T) {
	r := newTestRenderer(t)
	img := r.Draw(NewLayout(sixFormations(), r.Measure))

	assert.Equal(t, colorBackground, rgba(img.At(5, 5)), "background")
	assert.Equal(t, colorBackground, rgba(img.At(300, 100)), "gap between columns")
	assert.Equal(t, colorCourt, rgba(img.At(70, 120)), "court")
	assert.Equal(t, colorInk, rgba(img.At(120, 29)), "net")
	assert.Equal(t, colorLine, rgba(img.At(30, 120)), "left sideline")
	assert.Equal(t, colorLine, rgba(img.At(70, 190)), "baseline")
}

func TestDraw_MarkerIsBlue(t *testing.T) {
	r := newTestRenderer(t)
	p := core.Player{ID: 1, Name: "A", Number: 1, Position: core.Position{X: 50, Y: 50}}
	img := r.Draw(NewLayout(sixFormations(p), r.Measure))

	c := rgba(img.At(155, 120))
	assert.Greater(t, c.B, c.R)
	assert.Greater(t, c.B, uint8(0xc0))
}

func TestLinearGradient_Clamps(t *testing.T) {
	g := &linearGradient{c0: colorMarkerFrom, c1: colorMarkerTo}
	g.to.X, g.to.Y = 30, 30
	assert.Equal(t, colorMarkerFrom, g.At(-10, -10))
	assert.Equal(t, colorMarkerTo, g.At(100, 100))
}

func TestWriteDownload(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	path, err := WriteDownload(dir, ExportFilename, []byte("png"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "falcon-rotacoes.png"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))
}
