package detection

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreColor(t *testing.T) {
	low := ScoreColor(0)
	high := ScoreColor(1)

	assert.Greater(t, low.R, low.G, "low scores are red")
	assert.Greater(t, high.G, high.R, "high scores are green")
	assert.Equal(t, uint8(255), ScoreColor(0.5).A)

	assert.Equal(t, low, ScoreColor(-3))
	assert.Equal(t, high, ScoreColor(7))
}

func TestRenderCandidates(t *testing.T) {
	src := fillImage(100, 100, color.White)
	regions := []Region{
		{X: 10, Y: 10, Width: 40, Height: 20, Score: 1},
		{X: 10, Y: 10, Width: 60, Height: 50, Score: 0},
	}

	out := RenderCandidates(src, regions)
	assert.Equal(t, image.Rect(0, 0, 100, 100), out.Bounds())

	best := ScoreColor(1)
	worst := ScoreColor(0)

	// shared corner shows the first region
	assert.Equal(t, best, out.NRGBAAt(10, 10))
	assert.Equal(t, best, out.NRGBAAt(11, 20))
	assert.Equal(t, best, out.NRGBAAt(49, 25))
	assert.Equal(t, worst, out.NRGBAAt(69, 40))
	assert.Equal(t, worst, out.NRGBAAt(30, 59))

	// interiors and outside are untouched
	white := color.NRGBA{255, 255, 255, 255}
	assert.Equal(t, white, out.NRGBAAt(25, 20))
	assert.Equal(t, white, out.NRGBAAt(90, 90))

	// source image is not modified
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, src.RGBAAt(10, 10))
}

func TestRenderCandidates_ClipsToImage(t *testing.T) {
	src := fillImage(50, 50, color.White)
	regions := []Region{
		{X: 40, Y: 40, Width: 30, Height: 30, Score: 1},
		{X: 500, Y: 500, Width: 30, Height: 30, Score: 1},
	}

	out := RenderCandidates(src, regions)
	assert.Equal(t, ScoreColor(1), out.NRGBAAt(40, 45))
	assert.Equal(t, ScoreColor(1), out.NRGBAAt(49, 45))
}
