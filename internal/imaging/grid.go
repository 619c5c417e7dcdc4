package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strconv"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// DefaultGridColor is semi-transparent red.
var DefaultGridColor = color.NRGBA{R: 255, A: 128}

var (
	labelColor      = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	labelBackground = color.NRGBA{A: 180}
)

// DrawGrid draws a line every spacing pixels across dst and, when labels is
// set, writes the "x,y" coordinates next to each intersection. Coordinates
// are relative to the top-left corner of dst. A non-positive spacing draws
// nothing.
func DrawGrid(dst draw.Image, spacing int, lineColor color.Color, labels bool) {
	if spacing <= 0 {
		return
	}
	b := dst.Bounds()

	for x := b.Min.X + spacing; x < b.Max.X; x += spacing {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			dst.Set(x, y, lineColor)
		}
	}
	for y := b.Min.Y + spacing; y < b.Max.Y; y += spacing {
		for x := b.Min.X; x < b.Max.X; x++ {
			dst.Set(x, y, lineColor)
		}
	}

	if !labels {
		return
	}
	for y := b.Min.Y + spacing; y < b.Max.Y; y += spacing {
		for x := b.Min.X + spacing; x < b.Max.X; x += spacing {
			drawLabel(dst, x+2, y+2, fmt.Sprintf("%d,%d", x-b.Min.X, y-b.Min.Y))
		}
	}
}

// drawLabel writes text with its top-left corner at (x, y) on a dark box.
func drawLabel(dst draw.Image, x, y int, text string) {
	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(labelColor),
		Face: face,
	}
	metrics := face.Metrics()
	box := image.Rect(x-1, y-1, x+d.MeasureString(text).Ceil()+1, y+metrics.Height.Ceil())
	draw.Draw(dst, box.Intersect(dst.Bounds()), image.NewUniform(labelBackground), image.Point{}, draw.Over)

	d.Dot = fixed.P(x, y+metrics.Ascent.Ceil())
	d.DrawString(text)
}

// ParseHexColor parses a hex color string like "#FF0000" or "#FF000080".
func ParseHexColor(hex string) (color.NRGBA, error) {
	if len(hex) == 0 {
		return color.NRGBA{}, fmt.Errorf("empty color string")
	}
	if hex[0] == '#' {
		hex = hex[1:]
	}

	var r, g, b, a uint8 = 0, 0, 0, 255

	switch len(hex) {
	case 6:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.NRGBA{}, err
		}
		r = uint8(val >> 16)
		g = uint8(val >> 8)
		b = uint8(val)
	case 8:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.NRGBA{}, err
		}
		r = uint8(val >> 24)
		g = uint8(val >> 16)
		b = uint8(val >> 8)
		a = uint8(val)
	default:
		return color.NRGBA{}, fmt.Errorf("invalid hex color length")
	}

	return color.NRGBA{R: r, G: g, B: b, A: a}, nil
}
