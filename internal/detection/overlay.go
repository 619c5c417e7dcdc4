package detection

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// overlayLineWidth is the outline thickness of candidate boxes in pixels.
const overlayLineWidth = 2

var (
	lowScoreColor  = colorful.Color{R: 0.85, G: 0.15, B: 0.10}
	highScoreColor = colorful.Color{R: 0.10, G: 0.75, B: 0.25}
)

// ScoreColor maps a score in [0,1] onto a red-to-green ramp blended in HCL
// space, so mid scores stay saturated instead of turning brown.
func ScoreColor(score float64) color.NRGBA {
	t := min(max(score, 0), 1)
	c := lowScoreColor.BlendHcl(highScoreColor, t).Clamped()
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}

// RenderCandidates draws the outline of every region on a copy of img, each
// coloured by its score. Regions are drawn last-to-first so that the first
// (best) region ends up on top.
func RenderCandidates(img image.Image, regions []Region) *image.NRGBA {
	out := imaging.Clone(img)
	bounds := out.Bounds()

	for i := len(regions) - 1; i >= 0; i-- {
		r := regions[i]
		rect := image.Rect(int(r.X), int(r.Y), int(r.X+r.Width), int(r.Y+r.Height)).
			Add(bounds.Min).
			Intersect(bounds)
		if rect.Empty() {
			continue
		}
		drawOutline(out, rect, ScoreColor(r.Score))
	}
	return out
}

func drawOutline(img *image.NRGBA, rect image.Rectangle, c color.NRGBA) {
	for w := 0; w < overlayLineWidth; w++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			img.SetNRGBA(x, rect.Min.Y+w, c)
			img.SetNRGBA(x, rect.Max.Y-1-w, c)
		}
		for y := rect.Min.Y; y < rect.Max.Y; y++ {
			img.SetNRGBA(rect.Min.X+w, y, c)
			img.SetNRGBA(rect.Max.X-1-w, y, c)
		}
	}
}
