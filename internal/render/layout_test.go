package render

import (
	"image"
	"testing"

	"github.com/falconvolei/quadro/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// monospace measures every rune as 7px wide.
func monospace(s string) float64 {
	return float64(len([]rune(s))) * 7
}

func sixFormations(players ...core.Player) []core.Formation {
	out := make([]core.Formation, Diagrams)
	for i := range out {
		out[i] = core.Formation{Name: "Rotação " + itoa(i+1), Players: players}
	}
	return out
}

func TestCanvasSize(t *testing.T) {
	w, h := CanvasSize()
	assert.Equal(t, 600, w)
	assert.Equal(t, 620, h)
}

func TestNewLayout_SizeIndependentOfContent(t *testing.T) {
	empty := NewLayout(sixFormations(), monospace)
	crowded := NewLayout(sixFormations(
		core.Player{ID: 1, Name: "Maria Eduarda dos Santos Oliveira", Number: 99},
		core.Player{ID: 2, Name: "Bela", Number: 9},
	), monospace)

	assert.Equal(t, 600, empty.Width)
	assert.Equal(t, 620, empty.Height)
	assert.Equal(t, empty.Width, crowded.Width)
	assert.Equal(t, empty.Height, crowded.Height)
}

func TestDiagramOrigin(t *testing.T) {
	assert.Equal(t, image.Pt(20, 20), DiagramOrigin(0))
	assert.Equal(t, image.Pt(310, 20), DiagramOrigin(1))
	assert.Equal(t, image.Pt(20, 220), DiagramOrigin(2))
	assert.Equal(t, image.Pt(310, 220), DiagramOrigin(3))
	assert.Equal(t, image.Pt(20, 420), DiagramOrigin(4))
	assert.Equal(t, image.Pt(310, 420), DiagramOrigin(5))
}

func TestNewLayout_Diagrams(t *testing.T) {
	l := NewLayout(sixFormations(), monospace)
	require.Len(t, l.Diagrams, Diagrams)

	d := l.Diagrams[3]
	assert.Equal(t, "Rotação 4", d.Title.Text)
	assert.Equal(t, geom.XY{X: 445, Y: 215}, d.Title.At)
	assert.Equal(t, image.Rect(310, 220, 580, 400), d.Bounds)
	assert.Equal(t, image.Rect(310, 228, 580, 232), d.Net)
	require.Len(t, d.Lines, 4)
	assert.InDelta(t, 220+180*0.33, d.Lines[0].From.Y, 1e-9)
	assert.Equal(t, 390.0, d.Lines[1].From.Y)
	assert.Equal(t, 320.0, d.Lines[2].From.X)
	assert.Equal(t, 570.0, d.Lines[3].From.X)
}

func TestNewLayout_IgnoresExtraFormations(t *testing.T) {
	formations := append(sixFormations(), core.Formation{Name: "Rotação 7"})
	l := NewLayout(formations, monospace)
	assert.Len(t, l.Diagrams, Diagrams)
}

func TestNewLayout_MarkerPlacement(t *testing.T) {
	p := core.Player{ID: 4, Name: "Camila", Number: 11, Position: core.Position{X: 50, Y: 50}}
	l := NewLayout(sixFormations(p), monospace)

	m := l.Diagrams[0].Markers[0]
	assert.Equal(t, 4, m.PlayerID)
	assert.Equal(t, geom.XY{X: 155, Y: 110}, m.Center)
	assert.Equal(t, Label{Text: "11", At: geom.XY{X: 155, Y: 107}}, m.Number)
	require.Len(t, m.Name, 1)
	assert.Equal(t, Label{Text: "Camila", At: geom.XY{X: 155, Y: 130}}, m.Name[0])

	m = l.Diagrams[5].Markers[0]
	assert.Equal(t, geom.XY{X: 445, Y: 510}, m.Center)
}

func TestNewLayout_NameLinesStack(t *testing.T) {
	p := core.Player{ID: 1, Name: "Ana Clara Souza", Number: 1, Position: core.Position{}}
	l := NewLayout(sixFormations(p), monospace)

	name := l.Diagrams[0].Markers[0].Name
	require.Len(t, name, 3)
	assert.Equal(t, 40.0, name[0].At.Y)
	assert.Equal(t, 52.0, name[1].At.Y)
	assert.Equal(t, 64.0, name[2].At.Y)
}

func TestWrapWords(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"single short", "Bela", []string{"Bela"}},
		{"single long word never breaks", "Marcelly", []string{"Marcelly"}},
		{"each word alone", "Ana Clara Souza", []string{"Ana", "Clara", "Souza"}},
		{"two fit together", "A B", []string{"A B"}},
		{"break after packing", "A B Bruna", []string{"A B", "Bruna"}},
		{"empty", "", []string{""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WrapWords(tt.in, NameMaxWidth, monospace))
		})
	}
}
