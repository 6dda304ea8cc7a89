package render

import (
	"fmt"
	"strconv"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Font sizes in pixels (72 DPI makes points and pixels equal).
const (
	titleSize = 14
	labelSize = 12
)

type faces struct {
	title font.Face
	label font.Face
}

func loadFaces() (faces, error) {
	f, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return faces{}, fmt.Errorf("failed to parse bold font: %w", err)
	}
	title, err := opentype.NewFace(f, &opentype.FaceOptions{Size: titleSize, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return faces{}, fmt.Errorf("failed to create title face: %w", err)
	}
	label, err := opentype.NewFace(f, &opentype.FaceOptions{Size: labelSize, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return faces{}, fmt.Errorf("failed to create label face: %w", err)
	}
	return faces{title: title, label: label}, nil
}

// measureWith adapts a font face into a MeasureFunc.
func measureWith(face font.Face) MeasureFunc {
	return func(s string) float64 {
		return fixedToFloat(font.MeasureString(face, s))
	}
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}

func floatToFixed(v float64) fixed.Int26_6 {
	return fixed.Int26_6(v * 64)
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
