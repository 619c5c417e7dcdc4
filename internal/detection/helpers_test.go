package detection

import (
	"image"
	"image/color"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/plate-tools-mcp/internal/imaging"
)

// plateRect is where createPlateImage draws its plate.
var plateRect = image.Rect(100, 200, 220, 232)

// quietLogger discards log output in tests.
func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func fillImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// createPlateImage draws a white plate with black character strokes on a flat
// gray 320x320 background.
func createPlateImage() *image.RGBA {
	img := fillImage(320, 320, color.RGBA{128, 128, 128, 255})
	for y := plateRect.Min.Y; y < plateRect.Max.Y; y++ {
		for x := plateRect.Min.X; x < plateRect.Max.X; x++ {
			c := color.RGBA{255, 255, 255, 255}
			inText := y >= plateRect.Min.Y+6 && y < plateRect.Max.Y-6 && x >= plateRect.Min.X+4 && x < plateRect.Max.X-4
			if inText && (x-plateRect.Min.X)%8 < 3 {
				c = color.RGBA{0, 0, 0, 255}
			}
			img.Set(x, y, c)
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	data, err := imaging.EncodePNG(img)
	require.NoError(t, err)
	return data
}
