package ocr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{"three letters three digits", "ABC123", "ABC 123"},
		{"three digits three letters", "123ABC", "123 ABC"},
		{"O before digit", "O1234", "01234"},
		{"already formatted", "ABC 123", "ABC 123"},
		{"lowercase and symbols", "abc-123!", "ABC 123"},
		{"surrounding noise", "  ..XYZ 789..  ", "XYZ 789"},
		{"two letters four digits with suffix", "KL1234MN", "KL 1234MN"},
		{"isolated noise dropped", "Q XYZ 789", "XYZ 789"},
		{"B before digit becomes 8", "AB1234", "81234"},
		{"trailing O after digit", "AB1O", "810"},
		{"dropping noise exposes a split", "X AB12", "812"},
		{"empty", "", ""},
		{"only symbols", "#@!", ""},
		{"single character", "A", ""},
		{"newlines from engine", "ABC\n123\n", "ABC 123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, Normalize(tt.input))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"ABC123", "123ABC", "AB1234", "A12345", "O1234", "AB1O",
		"X AB12", "S5 B8 Z2 I1 O0", "  hello world  ", "ZS1234", "OIO1",
		"AB 12 CD 34", "1A2B3C", "7ABC", "AAAA", "99999999", "", "A B C",
		"Ab-12.cD", "IO10I", "XYZ 7890",
	}

	for _, input := range inputs {
		once := Normalize(input)
		assert.Equal(t, once, Normalize(once), "input %q", input)
	}
}

func TestStripSymbols(t *testing.T) {
	assert.Equal(t, "AB 12", StripSymbols("  A-B 1.2  "))
	assert.Equal(t, "ab", StripSymbols("äaöb"))
	assert.Equal(t, "", StripSymbols("---"))
}

func TestSubstituteGlyphs(t *testing.T) {
	tests := []struct {
		input  string
		expect string
	}{
		{"O1234", "01234"},
		{"12O", "120"},
		{"HELLO", "HELLO"},
		{"I9", "19"},
		{"9I", "91"},
		{"Z7", "27"},
		{"7Z", "7Z"},
		{"S5", "55"},
		{"5S", "5S"},
		{"B8", "88"},
		{"8B", "8B"},
		{"AB1O", "A810"},
		// decided on the input of each rule: the first O is followed by a
		// letter when the O rule runs
		{"OO1", "O01"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expect, SubstituteGlyphs(tt.input))
		})
	}
}

func TestSplitGroups(t *testing.T) {
	tests := []struct {
		input  string
		expect string
	}{
		{"ABC123", "ABC 123"},
		{"123ABC", "123 ABC"},
		{"AB12CD", "AB 12CD"},
		{"12AB34", "12AB 34"},
		{"A1", "A1"},
		{"AB 12", "AB 12"},
		{"ABCDEF", "ABCDEF"},
		{"123456", "123456"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expect, SplitGroups(tt.input))
		})
	}
}

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		input  string
		expect string
	}{
		{"ABC123", "ABC 123"},
		{"AB1234", "AB 1234"},
		{"A12345", "A 12345"},
		{"123ABC", "123 ABC"},
		{"AB123C", "AB 123C"},
		{"AB 1234CD", "AB 1234CD"},
		{"AB  123", "AB 123"},
		{"AB12345", "AB 12345"},
		{"ABCD123", "ABCD123"},
		{"HELLO", "HELLO"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expect, Canonicalize(tt.input))
		})
	}
}

func TestDropIsolated(t *testing.T) {
	assert.Equal(t, "AB 123", DropIsolated("AB 123 X"))
	assert.Equal(t, "AB", DropIsolated("7 AB"))
	assert.Equal(t, "", DropIsolated("A"))
	assert.Equal(t, "AB  12", DropIsolated("AB C 12"))
}
