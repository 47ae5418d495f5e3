// Package chunkspan splits cleaned text into overlapping chunks for
// embedding and full-text indexing (spec.md §4.6).
//
// Splitting strategy, character-based rather than token-based:
//  1. Split on the highest-priority separator ("\n\n", "\n", " ", "") that
//     yields pieces within chunk_size.
//  2. Recurse into over-sized pieces with the next-priority separator.
//  3. Merge adjacent pieces into a chunk as close to chunk_size as
//     possible without exceeding it; when a chunk is flushed, retain its
//     trailing chunk_overlap characters as the seed of the next chunk.
package chunkspan

import "strings"

// separators is the fixed priority order from spec.md §4.6. The final
// empty string means "split by individual character" — it always
// succeeds, so recursion terminates.
var separators = []string{"\n\n", "\n", " ", ""}

// Options configures the splitter.
type Options struct {
	// ChunkSize is the maximum chunk length in characters. Default: 500.
	ChunkSize int
	// ChunkOverlap is how many trailing characters of the previous chunk
	// are prefixed onto the next. Default: 50.
	ChunkOverlap int
}

func (o *Options) defaults() {
	if o.ChunkSize <= 0 {
		o.ChunkSize = 500
	}
	if o.ChunkOverlap <= 0 {
		o.ChunkOverlap = 50
	}
}

// Split divides text into overlapping chunks. Empty input yields an empty
// list; the output never contains empty chunks.
func Split(text string, opts Options) []string {
	opts.defaults()

	if strings.TrimSpace(text) == "" {
		return nil
	}

	pieces := recursiveSplit(text, opts.ChunkSize, 0)
	return mergeSplits(pieces, opts.ChunkSize, opts.ChunkOverlap)
}

// recursiveSplit splits text on the separator at sepIdx; any resulting
// piece still over chunkSize recurses into the next-priority separator.
func recursiveSplit(text string, chunkSize int, sepIdx int) []string {
	if len([]rune(text)) <= chunkSize {
		return []string{text}
	}
	if sepIdx >= len(separators) {
		return []string{text}
	}

	sep := separators[sepIdx]
	var parts []string
	if sep == "" {
		parts = splitByRune(text)
	} else {
		parts = strings.Split(text, sep)
	}

	var out []string
	for i, p := range parts {
		if p == "" {
			continue
		}
		if len([]rune(p)) > chunkSize {
			out = append(out, recursiveSplit(p, chunkSize, sepIdx+1)...)
		} else {
			out = append(out, p)
		}
		// Reattach the separator to all but the last piece so joined text
		// round-trips (merge step collapses runs back together anyway).
		if sep != "" && i < len(parts)-1 {
			out[len(out)-1] += sep
		}
	}
	return out
}

func splitByRune(text string) []string {
	runes := []rune(text)
	out := make([]string, len(runes))
	for i, r := range runes {
		out[i] = string(r)
	}
	return out
}

// mergeSplits packs consecutive pieces into a window, flushing a chunk
// once adding the next piece would exceed chunkSize, then retains
// trailing pieces from the flushed window (worth up to chunkOverlap
// characters) as the start of the next window — so the shared boundary
// is made of the same original pieces, not a copied substring. This is
// LangChain RecursiveCharacterTextSplitter's merge_splits algorithm,
// applied to characters instead of tokens.
func mergeSplits(pieces []string, chunkSize, chunkOverlap int) []string {
	var chunks []string
	var window []string
	windowLen := 0

	join := func(ps []string) string {
		return strings.TrimSpace(strings.Join(ps, ""))
	}

	for _, p := range pieces {
		pLen := len([]rune(p))

		if windowLen+pLen > chunkSize && len(window) > 0 {
			if doc := join(window); doc != "" {
				chunks = append(chunks, doc)
			}
			for (windowLen > chunkOverlap || windowLen+pLen > chunkSize) && len(window) > 0 {
				windowLen -= len([]rune(window[0]))
				window = window[1:]
			}
		}

		window = append(window, p)
		windowLen += pLen
	}
	if doc := join(window); doc != "" {
		chunks = append(chunks, doc)
	}

	return chunks
}
