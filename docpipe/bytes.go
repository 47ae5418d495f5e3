package docpipe

import (
	"context"
	"os"
	"path/filepath"
	"strings"
)

// ExtractBytes extracts text and metadata from an in-memory document,
// used as the Extract processor's local fallback when no remote
// extraction service is configured. It writes data to a scratch file
// since the format-specific parsers below operate on paths, then removes
// it unconditionally.
func (p *Pipeline) ExtractBytes(filename string, data []byte) (string, map[string]any, error) {
	tmpDir, err := os.MkdirTemp("", "docpipe-*")
	if err != nil {
		return "", nil, err
	}
	defer os.RemoveAll(tmpDir)

	tmpPath := filepath.Join(tmpDir, filepath.Base(filename))
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return "", nil, err
	}

	if _, detectErr := p.Detect(tmpPath); detectErr != nil {
		// No recognized extension (e.g. base64/inline content with no
		// file name at all): treat it as plain text rather than failing
		// the Item outright, the same last-resort this package's own
		// extractText applies to a ".txt" file.
		title, sections, err := extractText(tmpPath)
		if err != nil {
			return "", nil, err
		}
		var sb strings.Builder
		for i, s := range sections {
			if i > 0 {
				sb.WriteByte('\n')
			}
			sb.WriteString(s.Text)
		}
		return sb.String(), map[string]any{"title": title}, nil
	}

	doc, err := p.Extract(context.Background(), tmpPath)
	if err != nil {
		return "", nil, err
	}

	meta := map[string]any{
		"title": doc.Title,
	}
	if doc.Quality != nil {
		meta["page_count"] = doc.Quality.PageCount
		meta["is_scanned_pdf"] = doc.Quality.NeedsOCR()
	}
	return doc.RawText, meta, nil
}
