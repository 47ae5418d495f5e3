package clean

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"
)

// decodeCandidates are tried in order (spec.md §4.5 stage 1): utf-8,
// utf-16, gbk, latin-1. Each decode attempt must fully succeed (no
// replacement characters introduced) to be accepted; the final fallback
// is UTF-8 with replacement, which can never fail.
var decodeCandidates = []struct {
	name string
	enc  encoding.Encoding
}{
	{"utf-16", unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)},
	{"gbk", simplifiedchinese.GBK},
	{"latin-1", charmap.ISO8859_1},
}

// DecodeFallback converts binary to text when no raw_text was extracted,
// trying utf-8 first, then utf-16/gbk/latin-1, then UTF-8 with
// replacement as a final, always-succeeding fallback.
func DecodeFallback(binary []byte) string {
	if utf8.Valid(binary) {
		return string(binary)
	}

	for _, c := range decodeCandidates {
		decoded, err := c.enc.NewDecoder().Bytes(binary)
		if err == nil && utf8.Valid(decoded) && !bytes.ContainsRune(decoded, utf8.RuneError) {
			return string(decoded)
		}
	}

	// Final fallback: UTF-8 with replacement characters for invalid bytes.
	return string([]rune(string(binary)))
}
