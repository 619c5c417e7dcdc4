package ocr

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegMode_String(t *testing.T) {
	tests := []struct {
		mode   SegMode
		expect string
	}{
		{ModeSingleLine, "single_line"},
		{ModeSingleBlock, "single_block"},
		{ModeSingleWord, "single_word"},
		{ModeSparseText, "sparse_text"},
		{ModeRawLine, "raw_line"},
		{SegMode(3), "psm_3"},
	}

	for _, tt := range tests {
		t.Run(tt.expect, func(t *testing.T) {
			assert.Equal(t, tt.expect, tt.mode.String())
		})
	}
}

func TestSegMode_JSON(t *testing.T) {
	data, err := json.Marshal(Attempt{Mode: ModeSingleWord, Text: "AB", Confidence: 50})
	require.NoError(t, err)
	assert.JSONEq(t, `{"mode":"single_word","text":"AB","confidence":50}`, string(data))
}

func TestSegMode_UnmarshalText(t *testing.T) {
	for _, mode := range append([]SegMode{0, 3}, DefaultModes...) {
		var got SegMode
		require.NoError(t, got.UnmarshalText([]byte(mode.String())))
		assert.Equal(t, mode, got)
	}

	var a Attempt
	require.NoError(t, json.Unmarshal([]byte(`{"mode":"raw_line"}`), &a))
	assert.Equal(t, ModeRawLine, a.Mode)

	var m SegMode
	assert.ErrorContains(t, m.UnmarshalText([]byte("columns")), "unknown segmentation mode")
	assert.Error(t, m.UnmarshalText([]byte("psm_x")))
}

func TestDefaultModesOrder(t *testing.T) {
	assert.Equal(t, []SegMode{7, 6, 8, 11, 13}, DefaultModes)
}

func TestNewEngineFactory(t *testing.T) {
	for _, backend := range []string{"", "tesseract", "Tesseract", "rekognition"} {
		factory, err := NewEngineFactory(Options{Backend: backend})
		assert.NoError(t, err, backend)
		assert.NotNil(t, factory, backend)
	}

	_, err := NewEngineFactory(Options{Backend: "easyocr"})
	assert.ErrorContains(t, err, "unknown OCR backend")
}
