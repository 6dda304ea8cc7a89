package render

import (
	"image"
	"strings"

	"github.com/falconvolei/quadro/internal/geo"
	"github.com/falconvolei/quadro/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
)

// Grid geometry in pixels.
const (
	CourtWidth  = 270
	CourtHeight = 180
	Margin      = 20
	Columns     = 2
	Rows        = 3
	Diagrams    = Columns * Rows
)

// Marker and label geometry in pixels.
const (
	MarkerRadius   = 15
	NameMaxWidth   = 40
	NameLineHeight = 12
	nameOffsetY    = 20
	numberOffsetY  = -3
	titleOffsetY   = -5
	courtInset     = 10
	netOffsetY     = 8
	netHeight      = 4
	attackLineAt   = 0.33
)

// CanvasSize is the pixel size of the whole export, independent of content.
func CanvasSize() (width, height int) {
	return (CourtWidth+Margin)*Columns + Margin, (CourtHeight+Margin)*Rows + Margin
}

// MeasureFunc returns the rendered width of s in pixels.
type MeasureFunc func(s string) float64

// Label is a line of text anchored at a point. How the anchor is
// interpreted depends on the label's role (see Draw).
type Label struct {
	Text string
	At   geom.XY
}

// Segment is a straight court line.
type Segment struct {
	From, To geom.XY
	Width    float64
}

// Marker is one player's circle and its labels.
type Marker struct {
	PlayerID int
	Center   geom.XY
	Number   Label
	Name     []Label
}

// Diagram is one court of the grid.
type Diagram struct {
	Title   Label
	Bounds  image.Rectangle
	Net     image.Rectangle
	Lines   []Segment
	Markers []Marker
}

// Layout is the complete, drawable description of an export.
type Layout struct {
	Width    int
	Height   int
	Diagrams []Diagram
}

// NewLayout positions up to six formations on the grid, filling rows left
// to right. Extra formations are ignored.
func NewLayout(formations []core.Formation, measure MeasureFunc) Layout {
	w, h := CanvasSize()
	l := Layout{Width: w, Height: h}
	for i, f := range formations {
		if i >= Diagrams {
			break
		}
		l.Diagrams = append(l.Diagrams, newDiagram(i, f, measure))
	}
	return l
}

// DiagramOrigin returns the top-left corner of the diagram at index i.
func DiagramOrigin(i int) image.Point {
	col, row := i%Columns, i/Columns
	return image.Point{
		X: Margin + col*(CourtWidth+Margin),
		Y: Margin + row*(CourtHeight+Margin),
	}
}

func newDiagram(i int, f core.Formation, measure MeasureFunc) Diagram {
	o := DiagramOrigin(i)
	x, y := float64(o.X), float64(o.Y)
	w, h := float64(CourtWidth), float64(CourtHeight)

	d := Diagram{
		Title:  Label{Text: f.Name, At: geom.XY{X: x + w/2, Y: y + titleOffsetY}},
		Bounds: image.Rect(o.X, o.Y, o.X+CourtWidth, o.Y+CourtHeight),
		Net:    image.Rect(o.X, o.Y+netOffsetY, o.X+CourtWidth, o.Y+netOffsetY+netHeight),
		Lines: []Segment{
			// attack line
			{From: geom.XY{X: x + courtInset, Y: y + h*attackLineAt}, To: geom.XY{X: x + w - courtInset, Y: y + h*attackLineAt}, Width: 1},
			// baseline
			{From: geom.XY{X: x + courtInset, Y: y + h - courtInset}, To: geom.XY{X: x + w - courtInset, Y: y + h - courtInset}, Width: 1},
			// sidelines
			{From: geom.XY{X: x + courtInset, Y: y + courtInset}, To: geom.XY{X: x + courtInset, Y: y + h - courtInset}, Width: 1},
			{From: geom.XY{X: x + w - courtInset, Y: y + courtInset}, To: geom.XY{X: x + w - courtInset, Y: y + h - courtInset}, Width: 1},
		},
	}

	origin := geom.XY{X: x, Y: y}
	for _, p := range f.Players {
		c := geo.ToPixels(p.Position, origin, w, h)
		m := Marker{
			PlayerID: p.ID,
			Center:   c,
			Number:   Label{Text: itoa(p.Number), At: geom.XY{X: c.X, Y: c.Y + numberOffsetY}},
		}
		for j, line := range WrapWords(p.Name, NameMaxWidth, measure) {
			m.Name = append(m.Name, Label{
				Text: line,
				At:   geom.XY{X: c.X, Y: c.Y + nameOffsetY + float64(j*NameLineHeight)},
			})
		}
		d.Markers = append(d.Markers, m)
	}
	return d
}

// WrapWords breaks name on single spaces, greedily packing words while the
// candidate line (with its trailing space) fits in maxWidth. A line never
// starts empty: the first word always stays on the first line even if it
// overflows.
func WrapWords(name string, maxWidth float64, measure MeasureFunc) []string {
	words := strings.Split(name, " ")
	var (
		lines []string
		line  string
	)
	for i, word := range words {
		test := line + word + " "
		if measure(test) > maxWidth && i > 0 {
			lines = append(lines, strings.TrimSpace(line))
			line = word + " "
		} else {
			line = test
		}
	}
	return append(lines, strings.TrimSpace(line))
}
