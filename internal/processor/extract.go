package processor

import (
	"context"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/geelink/docingest/docpipe"
	"github.com/geelink/docingest/internal/capability"
	"github.com/geelink/docingest/internal/ingesterr"
	"github.com/geelink/docingest/internal/item"
)

// scannedProducerMarkers are lowercased substrings of a PDF producer
// string that indicate the document was scanned rather than generated
// digitally (spec.md §4.4's scanned-PDF heuristic).
var scannedProducerMarkers = []string{
	"scan", "image", "mfp", "scanner", "canon", "fujitsu", "kodak", "hp", "ricoh", "epson", "pdfscan",
}

var dateLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Extract delegates binary->text/metadata extraction to an external
// extractor service, falling back to a local parser when none is
// configured or it returns no text (order=10). An extractor error fails
// the Item unless the local parser succeeds.
type Extract struct {
	Extractor     capability.Extractor
	LocalFallback *docpipe.Pipeline
}

func (Extract) Name() string { return "extract" }
func (Extract) Order() int   { return OrderExtract }

func (p Extract) Process(ctx context.Context, it item.Item) (item.FieldUpdate, error) {
	meta := cloneMetadata(it.Metadata)

	// spec.md §4.4: web sources that already carry raw_text skip
	// extraction but still get normalized metadata.
	if it.SourceType == item.SourceWeb && it.HasRawText {
		applyUserMetadata(meta, it.UserMetadata)
		return item.FieldUpdate{item.FieldMetadata: meta}, nil
	}

	if len(it.Binary) == 0 {
		applyUserMetadata(meta, it.UserMetadata)
		return item.FieldUpdate{
			item.FieldRawText: it.RawText,
			item.FieldMetadata: meta,
		}, nil
	}

	var text string
	var rawMeta map[string]any
	var ingestionMethod string

	var remoteErr error
	if p.Extractor != nil {
		result, err := p.Extractor.Extract(ctx, it.FileName, it.Binary)
		if err == nil {
			text = result.Text
			rawMeta = result.Metadata
			ingestionMethod = "tika"
		} else {
			remoteErr = err
		}
	}
	localOK := false
	if text == "" && p.LocalFallback != nil {
		localText, localMeta, err := p.LocalFallback.ExtractBytes(it.FileName, it.Binary)
		if err == nil {
			text = localText
			if rawMeta == nil {
				rawMeta = localMeta
			}
			ingestionMethod = "local"
			localOK = true
		}
	}
	if remoteErr != nil && !localOK {
		return nil, &ingesterr.UpstreamUnavailable{Processor: "extract", Cause: remoteErr}
	}

	normalizeExtracted(meta, it, text, rawMeta, ingestionMethod)
	applyUserMetadata(meta, it.UserMetadata)

	return item.FieldUpdate{
		item.FieldRawText: text,
		item.FieldMetadata: meta,
	}, nil
}

func normalizeExtracted(meta map[string]any, it item.Item, text string, rawMeta map[string]any, ingestionMethod string) {
	meta["source_name"] = it.FileName
	meta["source_type"] = string(it.SourceType)
	meta["source_size"] = len(it.Binary)
	meta["ingest_at"] = time.Now().UTC().Format(time.RFC3339)
	meta["raw_text_length"] = len([]rune(text))
	meta["ingestion_method"] = ingestionMethod

	sumMD5 := md5.Sum(it.Binary)
	meta["content_md5"] = hex.EncodeToString(sumMD5[:])
	sumSHA := sha256.Sum256(it.Binary)
	meta["content_sha256"] = hex.EncodeToString(sumSHA[:])

	meta["language"] = stringOrDefault(rawMeta, "language", "zh-CN")
	meta["title"] = stringOrDefault(rawMeta, "title", "")
	meta["author"] = stringOrDefault(rawMeta, "author", "")
	meta["created_at"] = parseDate(stringOrDefault(rawMeta, "created_at", ""))
	meta["modified_at"] = parseDate(stringOrDefault(rawMeta, "modified_at", ""))
	meta["company"] = stringOrDefault(rawMeta, "company", "")
	meta["category"] = stringOrDefault(rawMeta, "category", "")
	meta["producer"] = stringOrDefault(rawMeta, "producer", "")

	pageCount := intOrDefault(rawMeta, "page_count", 0)
	meta["page_count"] = pageCount

	meta["keywords"] = splitKeywords(stringOrDefault(rawMeta, "keywords", ""))

	encrypted, _ := rawMeta["is_encrypted"].(bool)
	meta["is_encrypted"] = encrypted

	meta["is_scanned_pdf"] = isScannedPDF(meta["producer"].(string), text, pageCount)
}

func isScannedPDF(producer, text string, pageCount int) bool {
	lowered := strings.ToLower(producer)
	for _, marker := range scannedProducerMarkers {
		if strings.Contains(lowered, marker) {
			return true
		}
	}
	return len(strings.TrimSpace(text)) < 600 && pageCount > 3
}

func splitKeywords(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func parseDate(s string) string {
	if s == "" {
		return s
	}
	trimmed := strings.TrimSuffix(strings.TrimSuffix(s, "Z"), "+00:00")
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, trimmed); err == nil {
			return trimmed
		}
	}
	return s
}

func stringOrDefault(m map[string]any, key, def string) string {
	if m == nil {
		return def
	}
	if v, ok := m[key].(string); ok && v != "" {
		return v
	}
	return def
}

func intOrDefault(m map[string]any, key string, def int) int {
	if m == nil {
		return def
	}
	switch v := m[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// applyUserMetadata merges caller-supplied metadata over extractor-derived
// keys, per spec.md §3 invariant 3 and §4.4's merge policy.
func applyUserMetadata(meta map[string]any, userMeta map[string]any) {
	for k, v := range userMeta {
		meta[k] = v
	}
}
