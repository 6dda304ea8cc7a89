package render

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	geom "github.com/peterstace/simplefeatures/geom"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

// Palette.
var (
	colorBackground = color.RGBA{0xff, 0xff, 0xff, 0xff}
	colorCourt      = color.RGBA{0xff, 0xd5, 0x4f, 0xff}
	colorLine       = color.RGBA{0xff, 0xff, 0xff, 0xff}
	colorInk        = color.RGBA{0x33, 0x33, 0x33, 0xff}
	colorMarkerFrom = color.RGBA{0x42, 0xa5, 0xf5, 0xff}
	colorMarkerTo   = color.RGBA{0x19, 0x76, 0xd2, 0xff}
	colorNumber     = color.RGBA{0xff, 0xff, 0xff, 0xff}
)

const (
	borderWidth       = 2
	markerBorderWidth = 2
	// kappa places cubic control points so four curves approximate a circle.
	kappa = 0.5522847498
)

// Draw paints l onto a new RGBA canvas.
//
// Titles are centered horizontally on their anchor with the anchor on the
// baseline. Numbers are centered on their anchor in both axes. Name lines
// are centered horizontally with the anchor at the top of the line.
func (r *Renderer) Draw(l Layout) *image.RGBA {
	r.mu.Lock()
	defer r.mu.Unlock()

	img := image.NewRGBA(image.Rect(0, 0, l.Width, l.Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(colorBackground), image.Point{}, draw.Src)

	for _, d := range l.Diagrams {
		r.drawCourt(img, d)
		r.drawText(img, r.faces.title, colorInk, d.Title.Text, d.Title.At, anchorBaseline)
		for _, m := range d.Markers {
			r.drawMarker(img, m)
		}
	}
	return img
}

func (r *Renderer) drawCourt(img *image.RGBA, d Diagram) {
	fill(img, d.Bounds, colorCourt)
	strokeRect(img, d.Bounds, borderWidth, colorLine)
	fill(img, d.Net, colorInk)
	for _, s := range d.Lines {
		drawSegment(img, s, colorLine)
	}
}

func (r *Renderer) drawMarker(img *image.RGBA, m Marker) {
	// The border straddles the circle edge the way a canvas stroke does.
	fillCircle(img, m.Center, MarkerRadius+markerBorderWidth/2, image.NewUniform(colorLine))
	grad := &linearGradient{
		from: geom.XY{X: m.Center.X - MarkerRadius, Y: m.Center.Y - MarkerRadius},
		to:   geom.XY{X: m.Center.X + MarkerRadius, Y: m.Center.Y + MarkerRadius},
		c0:   colorMarkerFrom,
		c1:   colorMarkerTo,
	}
	fillCircle(img, m.Center, MarkerRadius-markerBorderWidth/2, grad)

	r.drawText(img, r.faces.label, colorNumber, m.Number.Text, m.Number.At, anchorMiddle)
	for _, line := range m.Name {
		r.drawText(img, r.faces.label, colorInk, line.Text, line.At, anchorTop)
	}
}

type anchor int

const (
	anchorBaseline anchor = iota
	anchorMiddle
	anchorTop
)

func (r *Renderer) drawText(img *image.RGBA, face font.Face, c color.Color, text string, at geom.XY, a anchor) {
	if text == "" {
		return
	}
	metrics := face.Metrics()
	ascent, descent := fixedToFloat(metrics.Ascent), fixedToFloat(metrics.Descent)

	baseline := at.Y
	switch a {
	case anchorMiddle:
		baseline = at.Y + (ascent-descent)/2
	case anchorTop:
		baseline = at.Y + ascent
	}

	width := fixedToFloat(font.MeasureString(face, text))
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.Point26_6{X: floatToFixed(at.X - width/2), Y: floatToFixed(baseline)},
	}
	d.DrawString(text)
}

func fill(img *image.RGBA, rect image.Rectangle, c color.Color) {
	draw.Draw(img, rect.Intersect(img.Bounds()), image.NewUniform(c), image.Point{}, draw.Src)
}

// strokeRect draws a border of the given width centered on rect's edges.
func strokeRect(img *image.RGBA, rect image.Rectangle, width int, c color.Color) {
	half := width / 2
	outer := rect.Inset(-half)
	fill(img, image.Rect(outer.Min.X, outer.Min.Y, outer.Max.X, outer.Min.Y+width), c)
	fill(img, image.Rect(outer.Min.X, outer.Max.Y-width, outer.Max.X, outer.Max.Y), c)
	fill(img, image.Rect(outer.Min.X, outer.Min.Y, outer.Min.X+width, outer.Max.Y), c)
	fill(img, image.Rect(outer.Max.X-width, outer.Min.Y, outer.Max.X, outer.Max.Y), c)
}

// drawSegment draws an axis-aligned segment as a filled rectangle.
func drawSegment(img *image.RGBA, s Segment, c color.Color) {
	w := math.Max(s.Width, 1)
	x0, x1 := math.Min(s.From.X, s.To.X), math.Max(s.From.X, s.To.X)
	y0, y1 := math.Min(s.From.Y, s.To.Y), math.Max(s.From.Y, s.To.Y)
	if x0 == x1 {
		x0, x1 = x0-w/2, x0+w/2
	} else {
		y0, y1 = y0-w/2, y0+w/2
	}
	fill(img, image.Rect(
		int(math.Floor(x0)), int(math.Floor(y0)),
		int(math.Ceil(x1)), int(math.Ceil(y1)),
	), c)
}

func fillCircle(img *image.RGBA, center geom.XY, radius float64, src image.Image) {
	b := img.Bounds()
	z := vector.NewRasterizer(b.Dx(), b.Dy())
	cx, cy, rr := float32(center.X), float32(center.Y), float32(radius)
	k := float32(kappa) * rr

	z.MoveTo(cx+rr, cy)
	z.CubeTo(cx+rr, cy+k, cx+k, cy+rr, cx, cy+rr)
	z.CubeTo(cx-k, cy+rr, cx-rr, cy+k, cx-rr, cy)
	z.CubeTo(cx-rr, cy-k, cx-k, cy-rr, cx, cy-rr)
	z.CubeTo(cx+k, cy-rr, cx+rr, cy-k, cx+rr, cy)
	z.ClosePath()
	z.Draw(img, b, src, image.Point{})
}

// linearGradient is an unbounded image whose color varies linearly from c0
// at from to c1 at to, clamped beyond both ends.
type linearGradient struct {
	from, to geom.XY
	c0, c1   color.RGBA
}

func (g *linearGradient) ColorModel() color.Model { return color.RGBAModel }

func (g *linearGradient) Bounds() image.Rectangle {
	return image.Rect(-1<<20, -1<<20, 1<<20, 1<<20)
}

func (g *linearGradient) At(x, y int) color.Color {
	axis := g.to.Sub(g.from)
	den := axis.Dot(axis)
	t := 0.0
	if den > 0 {
		p := geom.XY{X: float64(x) + 0.5, Y: float64(y) + 0.5}
		t = p.Sub(g.from).Dot(axis) / den
	}
	t = math.Max(0, math.Min(1, t))
	lerp := func(a, b uint8) uint8 {
		return uint8(math.Round(float64(a) + (float64(b)-float64(a))*t))
	}
	return color.RGBA{
		R: lerp(g.c0.R, g.c1.R),
		G: lerp(g.c0.G, g.c1.G),
		B: lerp(g.c0.B, g.c1.B),
		A: 0xff,
	}
}
