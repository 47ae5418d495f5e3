// Package identity generates the stable doc_id used to dedupe and version
// ingested documents (spec.md §3's identity rule).
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

// garbage is the fixed set of punctuation stripped from a filename before
// it's folded into the hash. Hyphen, underscore and dot are not in it, so
// keepPattern below retains them.
const garbage = "!\"#$%&'()*+,/:;<=>?@[\\]^`{|}~“”‘’《》〈〉‹›«»„“‟′″‵′〃＂[]【】"

var garbageStripper = strings.NewReplacer(splitPairs(garbage)...)

func splitPairs(s string) []string {
	runes := []rune(s)
	pairs := make([]string, 0, len(runes)*2)
	for _, r := range runes {
		pairs = append(pairs, string(r), "")
	}
	return pairs
}

// keepPattern retains CJK ideographs, word characters, dots, and hyphens;
// everything else is dropped. Mirrors the original's
// re.sub(r'[^一-鿿\w\.\-]+', '', text).
var keepPattern = regexp.MustCompile(`[^\p{Han}\w.\-]+`)

// CleanFilename strips punctuation noise from a filename, keeping CJK
// characters, word characters, dots, and hyphens.
func CleanFilename(name string) string {
	stripped := garbageStripper.Replace(name)
	return keepPattern.ReplaceAllString(stripped, "")
}

// Input bundles the fields the doc_id rule needs. ContentForHash is the
// raw bytes to hash (file binary, raw_text, or uri, in that preference
// order — callers are responsible for picking the right one). FileName
// defaults to "unknown_source" when empty, as in the original.
type Input struct {
	ContentForHash []byte
	FileName       string
	SourceSystem   string

	// PreferredID, when non-empty after trimming, is returned as-is
	// (caller-supplied identity wins over content hashing).
	PreferredID string
}

// Generate implements spec.md's doc_id rule: a caller-supplied ID wins
// outright; otherwise the ID is
// "{source_system}_" + sha256(clean_filename || 0x00 0x00 || content)[:16 hex].
func Generate(in Input) string {
	if pref := strings.TrimSpace(in.PreferredID); pref != "" {
		return pref
	}

	fileName := in.FileName
	if fileName == "" {
		fileName = "unknown_source"
	}
	content := in.ContentForHash
	if len(content) == 0 {
		content = []byte("no_content")
	}

	h := sha256.New()
	h.Write([]byte(CleanFilename(fileName)))
	h.Write([]byte{0, 0})
	h.Write(content)

	digest := hex.EncodeToString(h.Sum(nil))[:16]
	return in.SourceSystem + "_" + digest
}

// PreferredFrom resolves the priority chain of spec.md §3: a doc_id given
// in user metadata takes precedence over one already set on the item,
// which takes precedence over a business_id, then an archive_no, then a
// bare id. Empty or whitespace-only candidates are skipped; "" means none
// was set.
func PreferredFrom(userMetaDocID, itemDocID, businessID, archiveNo, id string) string {
	for _, candidate := range []string{userMetaDocID, itemDocID, businessID, archiveNo, id} {
		if strings.TrimSpace(candidate) != "" {
			return candidate
		}
	}
	return ""
}
