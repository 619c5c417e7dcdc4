package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// MaxFileSize is the largest image file accepted by ReadImageFile (10 MB).
const MaxFileSize = 10 * 1024 * 1024

var (
	// ErrUnsupportedFormat is returned for files that are not JPEG or PNG.
	ErrUnsupportedFormat = errors.New("only JPEG, JPG, and PNG images are allowed")

	// ErrImageTooLarge is returned for files larger than MaxFileSize.
	ErrImageTooLarge = errors.New("image exceeds maximum file size")

	// ErrEmptyImage is returned for zero-length image data.
	ErrEmptyImage = errors.New("image data is empty")
)

// ReadImageFile reads an image file from disk after validating its extension
// and size.
//
// Parameters:
//   - path: Path to a .jpg, .jpeg or .png file.
//
// Returns:
//   - []byte: The raw, still encoded file contents.
//   - error: Non-nil if the file is missing, too large, empty or has an
//     unsupported extension.
//
// Failing to read the source image is the only fatal condition of the plate
// pipeline; everything after this point degrades instead of failing.
func ReadImageFile(path string) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg", ".png":
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(path))
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat image: %w", err)
	}
	if stat.Size() > MaxFileSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrImageTooLarge, stat.Size())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}
	return data, nil
}

// Decode decodes JPEG or PNG data, applying any EXIF orientation so that
// photographs taken with a rotated camera are scanned upright.
func Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// EncodePNG encodes img as PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FormatFromPath returns "png" or "jpeg" for supported extensions and
// "unknown" otherwise. Detection is based on file extension, not contents.
func FormatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "png"
	case ".jpg", ".jpeg":
		return "jpeg"
	}
	return "unknown"
}
