package clean

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"
)

// mojibakeMarkers are byte sequences that appear when UTF-8 text has been
// mis-decoded as Latin-1 and re-encoded as UTF-8 (the classic "Ã©" for
// "é" pattern). When found, we attempt a round-trip repair: encode back to
// Latin-1 bytes, then decode those bytes as UTF-8.
var mojibakeMarkers = []string{"Ã", "â€", "Â"}

// repairMojibake detects and reverses a single layer of UTF-8-as-Latin-1
// mojibake. If the round trip doesn't produce valid UTF-8, the original
// text is returned unchanged.
func repairMojibake(s string) string {
	hasMarker := false
	for _, m := range mojibakeMarkers {
		if strings.Contains(s, m) {
			hasMarker = true
			break
		}
	}
	if !hasMarker {
		return s
	}

	latin1Bytes, err := charmap.ISO8859_1.NewEncoder().String(s)
	if err != nil {
		return s
	}
	if !utf8.ValidString(latin1Bytes) {
		return s
	}
	return latin1Bytes
}

// RepairEncoding fixes mojibake, normalizes to Unicode NFC, and drops any
// remaining invalid UTF-8 bytes (spec.md §4.5 stage 2).
func RepairEncoding(s string) string {
	s = repairMojibake(s)
	s = norm.NFC.String(s)
	return dropInvalidUTF8(s)
}

func dropInvalidUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i, r := range s {
		if r == utf8.RuneError {
			_, size := utf8.DecodeRuneInString(s[i:])
			if size == 1 {
				continue
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}
