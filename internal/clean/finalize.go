package clean

import (
	"regexp"
	"strings"
)

var (
	cjkAdjacentSpace = regexp.MustCompile(`([\x{4E00}-\x{9FFF}])[ \t]+([\x{4E00}-\x{9FFF}])`)
	spaceTabRun      = regexp.MustCompile(`[ \t]{2,}`)
	tripleNewline    = regexp.MustCompile(`\n{3,}`)
)

// Finalize collapses whitespace between adjacent CJK characters, collapses
// runs of spaces/tabs and of 3+ newlines down to a blank line, and trims
// the result (spec.md §4.5 stage 7).
func Finalize(text string) string {
	for cjkAdjacentSpace.MatchString(text) {
		text = cjkAdjacentSpace.ReplaceAllString(text, "$1$2")
	}
	text = spaceTabRun.ReplaceAllString(text, " ")
	text = tripleNewline.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
