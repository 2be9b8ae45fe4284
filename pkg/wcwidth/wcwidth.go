// Package wcwidth provides utilities for determining the width of characters
// and strings on the terminal.
package wcwidth

import (
	"strings"
	"sync"
	"unicode"
)

// overrides maps runes to widths that take precedence over the built-in
// tables. It may be written and read concurrently.
var overrides sync.Map

// wide covers the East Asian Wide and Fullwidth ranges that occupy two
// cells on the terminal.
var wide = &unicode.RangeTable{
	R16: []unicode.Range16{
		{0x1100, 0x115f, 1}, // Hangul Jamo
		{0x2e80, 0x303e, 1}, // CJK Radicals .. CJK Symbols and Punctuation
		{0x3041, 0x33ff, 1}, // Hiragana .. CJK Compatibility
		{0x3400, 0x4dbf, 1}, // CJK Unified Ideographs Extension A
		{0x4e00, 0x9fff, 1}, // CJK Unified Ideographs
		{0xa000, 0xa4cf, 1}, // Yi Syllables, Yi Radicals
		{0xa960, 0xa97f, 1}, // Hangul Jamo Extended-A
		{0xac00, 0xd7a3, 1}, // Hangul Syllables
		{0xf900, 0xfaff, 1}, // CJK Compatibility Ideographs
		{0xfe10, 0xfe19, 1}, // Vertical Forms
		{0xfe30, 0xfe6f, 1}, // CJK Compatibility Forms, Small Form Variants
		{0xff00, 0xff60, 1}, // Fullwidth Forms
		{0xffe0, 0xffe6, 1}, // Fullwidth Signs
	},
	R32: []unicode.Range32{
		{0x16fe0, 0x16fe4, 1}, // Ideographic Symbols and Punctuation
		{0x1f300, 0x1f64f, 1}, // Miscellaneous Symbols and Pictographs, Emoticons
		{0x1f680, 0x1f6fc, 1}, // Transport and Map Symbols
		{0x1f900, 0x1f9ff, 1}, // Supplemental Symbols and Pictographs
		{0x20000, 0x2fffd, 1}, // CJK Unified Ideographs Extensions B-F
		{0x30000, 0x3fffd, 1}, // CJK Unified Ideographs Extension G
	},
}

// OfRune returns the width of a rune on the terminal: 0 for combining and
// other non-spacing characters, 2 for East Asian wide characters and 1
// otherwise.
func OfRune(r rune) int {
	if w, ok := overrides.Load(r); ok {
		return w.(int)
	}
	switch {
	case r < 0x20 || (0x7f <= r && r < 0xa0):
		return 0
	case unicode.In(r, unicode.Mn, unicode.Me, unicode.Cf):
		return 0
	case unicode.Is(wide, r):
		return 2
	}
	return 1
}

// Override overrides the width of a rune to be the given value. A negative
// width removes the override instead.
func Override(r rune, w int) {
	if w < 0 {
		Unoverride(r)
		return
	}
	overrides.Store(r, w)
}

// Unoverride removes the override of a rune.
func Unoverride(r rune) { overrides.Delete(r) }

// Of returns the width of a string on the terminal, the sum of the widths of
// its runes.
func Of(s string) int {
	w := 0
	for _, r := range s {
		w += OfRune(r)
	}
	return w
}

// Trim returns the longest prefix of s that fits within wmax cells.
func Trim(s string, wmax int) string {
	w := 0
	for i, r := range s {
		w += OfRune(r)
		if w > wmax {
			return s[:i]
		}
	}
	return s
}

// Force makes the width of s exactly wmax on the terminal, trimming it or
// padding it with spaces on the right as needed.
func Force(s string, wmax int) string {
	s = Trim(s, wmax)
	return s + strings.Repeat(" ", wmax-Of(s))
}

// TrimEachLine trims each line of s to fit within wmax cells.
func TrimEachLine(s string, wmax int) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = Trim(line, wmax)
	}
	return strings.Join(lines, "\n")
}
