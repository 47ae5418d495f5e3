package clean

import (
	"regexp"
	"strings"
)

// Per-line drop patterns (spec.md §4.5 stage 4): page markers, horizontal
// rule runs, confidentiality markers, and short bare numeric lines.
var (
	pageMarkerPattern  = regexp.MustCompile(`^第\s*\d+\s*页$|^\s*\d+\s*/\s*\d+\s*$`)
	hruleRunPattern    = regexp.MustCompile(`^[-─━—~～.·_]{8,}$`)
	confidentialPattern = regexp.MustCompile(`（机密|秘密|内部|保密）`)
	bareNumericPattern = regexp.MustCompile(`^\d{1,10}$`)

	// Cross-page hyphen+number sequences, e.g. "-12-" on its own line.
	crossPageHyphenPattern = regexp.MustCompile(`^-\s*\d+\s*-$`)
)

// unassignedRunePattern strips zero-width and reserved code points that
// regularly leak in from PDF/Word extraction: U+FFFC, U+FFFD,
// U+200B-U+200F, U+2060-U+206F, U+FEFF, U+FFF0-U+FFFF.
var unassignedRunePattern = regexp.MustCompile(`[\x{FFFC}\x{FFFD}\x{200B}-\x{200F}\x{2060}-\x{206F}\x{FEFF}\x{FFF0}-\x{FFFF}]`)

func shouldDropLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return false
	}
	switch {
	case pageMarkerPattern.MatchString(trimmed):
		return true
	case hruleRunPattern.MatchString(trimmed):
		return true
	case confidentialPattern.MatchString(trimmed):
		return true
	case crossPageHyphenPattern.MatchString(trimmed):
		return true
	case len(trimmed) <= 10 && bareNumericPattern.MatchString(trimmed):
		return true
	}
	return false
}

// terminalPunct ends a sentence; softPunct is a pause that should be
// joined with a space rather than broken into a new paragraph.
const terminalPunct = "。！？；"
const softPunct = "，、：；”’）】"

func isCJK(r rune) bool {
	return r >= 0x4E00 && r <= 0x9FFF
}

// repairBrokenLines reassembles lines that were hard-wrapped by the
// source document (spec.md §4.5 stage 4, sub-bullets): a line ending in
// terminal punctuation becomes a paragraph break; a line ending in soft
// punctuation is joined to the next with a space; a CJK character
// followed directly by another CJK character across a line break is
// concatenated with no separator; "word-\nword" hyphenation is joined.
func repairBrokenLines(lines []string) string {
	var out strings.Builder
	for i, line := range lines {
		trimmed := strings.TrimRight(line, " \t")
		if trimmed == "" {
			out.WriteString("\n\n")
			continue
		}

		if i == len(lines)-1 {
			out.WriteString(trimmed)
			continue
		}

		runes := []rune(trimmed)
		last := runes[len(runes)-1]

		nextTrimmed := strings.TrimSpace(lines[i+1])
		var nextFirst rune
		if nextTrimmed != "" {
			nextFirst = []rune(nextTrimmed)[0]
		}

		switch {
		case last == '-' && len(runes) > 1 && isWordChar(runes[len(runes)-2]):
			// hyphenation: drop the trailing hyphen, join directly to next line
			out.WriteString(string(runes[:len(runes)-1]))
		case strings.ContainsRune(terminalPunct, last):
			out.WriteString(trimmed)
			out.WriteString("\n\n")
		case strings.ContainsRune(softPunct, last):
			out.WriteString(trimmed)
			out.WriteString(" ")
		case isCJK(last) && isCJK(nextFirst):
			out.WriteString(trimmed)
			// no separator
		default:
			out.WriteString(trimmed)
			out.WriteString("\n")
		}
	}
	return out.String()
}

func isWordChar(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// RemoveNoise drops layout-noise lines, strips zero-width/unassigned code
// points, and repairs hard-wrapped lines (spec.md §4.5 stage 4).
func RemoveNoise(text string) string {
	text = unassignedRunePattern.ReplaceAllString(text, "")

	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	for _, l := range lines {
		if shouldDropLine(l) {
			continue
		}
		kept = append(kept, l)
	}

	return repairBrokenLines(kept)
}
