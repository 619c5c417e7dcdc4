package ocr

import (
	"regexp"
	"strings"
	"unicode"
)

// plateFormats are tried in order; the first match is reformatted as
// "GROUP1 GROUP2[GROUP3]".
var plateFormats = []*regexp.Regexp{
	// AB 123, AB 1234, AB 123C, AB 1234CD
	regexp.MustCompile(`^([A-Z]{2})\s*(\d{3,4})([A-Z]{0,2})$`),
	// A 12, AB 12345
	regexp.MustCompile(`^([A-Z]{1,2})\s*(\d{2,5})$`),
	// ABC 123
	regexp.MustCompile(`^([A-Z]{3})\s*(\d{3})$`),
	// 1 ABC, 123 ABC
	regexp.MustCompile(`^(\d{1,3})\s*([A-Z]{3})$`),
}

var isolatedChar = regexp.MustCompile(`\b[A-Z0-9]\b`)

// glyphRule replaces From with To when it touches a digit on the given side.
type glyphRule struct {
	From, To    byte
	BeforeDigit bool
	AfterDigit  bool
}

// glyphRules are applied in order, each over the output of the previous one.
var glyphRules = []glyphRule{
	{From: 'O', To: '0', BeforeDigit: true},
	{From: 'O', To: '0', AfterDigit: true},
	{From: 'I', To: '1', BeforeDigit: true},
	{From: 'I', To: '1', AfterDigit: true},
	{From: 'Z', To: '2', BeforeDigit: true},
	{From: 'S', To: '5', BeforeDigit: true},
	{From: 'B', To: '8', BeforeDigit: true},
}

// Normalize cleans raw OCR output into plate text.
//
// A single cleaning pass can expose new substitutions, e.g. dropping a stray
// character joins two groups, so the pass is repeated until the text stops
// changing. Normalize(Normalize(s)) == Normalize(s).
func Normalize(text string) string {
	out := normalizePass(text)
	for i := 0; i <= len(text); i++ {
		next := normalizePass(out)
		if next == out {
			break
		}
		out = next
	}
	return out
}

// normalizePass runs every cleaning step once.
func normalizePass(text string) string {
	s := StripSymbols(text)
	if s == "" {
		return ""
	}
	s = strings.ToUpper(s)
	s = SubstituteGlyphs(s)
	s = SplitGroups(s)
	s = Canonicalize(s)
	return DropIsolated(s)
}

// StripSymbols removes everything except ASCII letters, digits and whitespace,
// then trims.
func StripSymbols(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if isASCIILetter(r) || isDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// SubstituteGlyphs replaces letters that OCR confuses with digits when they
// sit next to a digit: O->0 on either side, I->1 on either side, and Z->2,
// S->5, B->8 before a digit.
func SubstituteGlyphs(s string) string {
	for _, rule := range glyphRules {
		s = rule.apply(s)
	}
	return s
}

// apply decides every replacement on the input string, so a replacement
// never enables another within the same rule.
func (g glyphRule) apply(s string) string {
	if strings.IndexByte(s, g.From) < 0 {
		return s
	}
	out := []byte(s)
	for i := 0; i < len(s); i++ {
		if s[i] != g.From {
			continue
		}
		if (g.BeforeDigit && i+1 < len(s) && isDigitByte(s[i+1])) ||
			(g.AfterDigit && i > 0 && isDigitByte(s[i-1])) {
			out[i] = g.To
		}
	}
	return string(out)
}

// SplitGroups inserts a space between the letter and digit groups of text
// without whitespace that is longer than two characters. The first
// letter-to-digit boundary is used; failing that, the first digit-to-letter
// boundary.
func SplitGroups(s string) string {
	if len(s) <= 2 || strings.IndexFunc(s, unicode.IsSpace) >= 0 {
		return s
	}
	if i := firstBoundary(s, isLetterByte, isDigitByte); i > 0 {
		return s[:i] + " " + s[i:]
	}
	if i := firstBoundary(s, isDigitByte, isLetterByte); i > 0 {
		return s[:i] + " " + s[i:]
	}
	return s
}

func firstBoundary(s string, left, right func(byte) bool) int {
	for i := 1; i < len(s); i++ {
		if left(s[i-1]) && right(s[i]) {
			return i
		}
	}
	return -1
}

// Canonicalize reformats text matching a known plate layout as
// "GROUP1 GROUP2[GROUP3]". At most one layout is applied.
func Canonicalize(s string) string {
	for _, format := range plateFormats {
		m := format.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		out := m[1] + " " + m[2]
		if len(m) > 3 {
			out += m[3]
		}
		return out
	}
	return s
}

// DropIsolated removes single-character tokens, which are usually noise.
func DropIsolated(s string) string {
	return strings.TrimSpace(isolatedChar.ReplaceAllString(s, ""))
}

func isASCIILetter(r rune) bool {
	return (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z')
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isLetterByte(b byte) bool {
	return b >= 'A' && b <= 'Z'
}

func isDigitByte(b byte) bool {
	return b >= '0' && b <= '9'
}
