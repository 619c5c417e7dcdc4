package reader

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/plate-tools-mcp/internal/detection"
	"github.com/ironsheep/plate-tools-mcp/internal/imaging"
	"github.com/ironsheep/plate-tools-mcp/internal/ocr"
)

// stubEngine answers every attempt with the same text, or blocks until the
// context is done when block is set.
type stubEngine struct {
	text       string
	confidence float64
	block      bool
	images     int
}

func (e *stubEngine) SetMode(ocr.SegMode) error { return nil }

func (e *stubEngine) Recognize(ctx context.Context, data []byte) (string, float64, error) {
	e.images++
	if e.block {
		<-ctx.Done()
		return "", 0, ctx.Err()
	}
	return e.text, e.confidence, nil
}

func (e *stubEngine) Close() error { return nil }

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func newTestReader(engine *stubEngine, timeout time.Duration) *Reader {
	log := quietLogger()
	factory := func(context.Context) (ocr.Engine, error) { return engine, nil }
	return New(
		detection.NewLocator(detection.WithLogger(log)),
		ocr.NewRecognizer(factory, log),
		timeout,
		log,
	)
}

// createCarImage draws a white plate with dark character bars on a gray
// background.
func createCarImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 320, 320))
	for y := 0; y < 320; y++ {
		for x := 0; x < 320; x++ {
			img.Set(x, y, color.RGBA{128, 128, 128, 255})
		}
	}
	for y := 200; y < 232; y++ {
		for x := 100; x < 220; x++ {
			c := color.RGBA{255, 255, 255, 255}
			if y >= 206 && y < 226 && x >= 104 && x < 216 && (x-100)%8 < 3 {
				c = color.RGBA{0, 0, 0, 255}
			}
			img.Set(x, y, c)
		}
	}
	return img
}

func encode(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestRead_FindsAndReadsPlate(t *testing.T) {
	engine := &stubEngine{text: "xy-123", confidence: 91}
	r := newTestReader(engine, time.Second)

	res, err := r.Read(context.Background(), encode(t, createCarImage()))
	require.NoError(t, err)

	assert.Equal(t, "XY 123", res.Text)
	assert.Equal(t, "xy-123", res.RawText)
	assert.Equal(t, 91.0, res.Confidence)
	assert.Equal(t, ocr.ModeSingleLine, res.Mode)
	require.NotNil(t, res.Detection)
	assert.True(t, res.Detection.Found)
	assert.Equal(t, detection.SourceScan, res.Detection.Source)
	assert.NotEmpty(t, res.Detection.Data)
	assert.Equal(t, 1, engine.images, "early stop after the first confident attempt")
}

func TestRead_NoPlateStillReads(t *testing.T) {
	blank := image.NewRGBA(image.Rect(0, 0, 400, 300))
	engine := &stubEngine{text: "", confidence: 0}
	r := newTestReader(engine, time.Second)

	res, err := r.Read(context.Background(), encode(t, blank))
	require.NoError(t, err)

	assert.False(t, res.Detection.Found)
	assert.Equal(t, detection.SourceFallback, res.Detection.Source)
	assert.Empty(t, res.Text)
}

func TestRead_EmptyInput(t *testing.T) {
	r := newTestReader(&stubEngine{}, time.Second)
	_, err := r.Read(context.Background(), nil)
	assert.ErrorIs(t, err, imaging.ErrEmptyImage)
	assert.NotErrorIs(t, err, ErrTimeout)
}

func TestRead_Timeout(t *testing.T) {
	r := newTestReader(&stubEngine{block: true}, 50*time.Millisecond)

	start := time.Now()
	_, err := r.Read(context.Background(), encode(t, createCarImage()))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestRead_Cancelled(t *testing.T) {
	r := newTestReader(&stubEngine{}, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Read(ctx, encode(t, createCarImage()))
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.NotErrorIs(t, err, ErrTimeout)
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "car.png")
	require.NoError(t, os.WriteFile(path, encode(t, createCarImage()), 0644))

	r := newTestReader(&stubEngine{text: "XY 987", confidence: 88}, 0)
	res, err := r.ReadFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "XY 987", res.Text)
}

func TestReadFile_Errors(t *testing.T) {
	dir := t.TempDir()
	gif := filepath.Join(dir, "car.gif")
	require.NoError(t, os.WriteFile(gif, []byte("GIF89a"), 0644))

	r := newTestReader(&stubEngine{}, time.Second)

	_, err := r.ReadFile(context.Background(), gif)
	assert.ErrorIs(t, err, imaging.ErrUnsupportedFormat)

	_, err = r.ReadFile(context.Background(), filepath.Join(dir, "missing.png"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
