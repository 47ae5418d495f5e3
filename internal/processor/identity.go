package processor

import (
	"context"

	"github.com/geelink/docingest/internal/identity"
	"github.com/geelink/docingest/internal/item"
)

// Identity computes doc_id per spec.md §3 and must run before any
// processor referencing it (order=5).
type Identity struct {
	// DefaultSourceSystem is used when user_metadata.source_system is not
	// set; when both are empty, "rag_upload" is used.
	DefaultSourceSystem string
}

func (Identity) Name() string { return "identity" }
func (Identity) Order() int   { return OrderIdentity }

func (p Identity) Process(_ context.Context, it item.Item) (item.FieldUpdate, error) {
	contentForHash := contentToHash(it)
	sourceSystem := stringMeta(it.UserMetadata, "source_system")
	if sourceSystem == "" {
		sourceSystem = p.DefaultSourceSystem
	}
	if sourceSystem == "" {
		sourceSystem = "rag_upload"
	}

	preferred := identity.PreferredFrom(
		stringMeta(it.UserMetadata, "doc_id"),
		it.DocID,
		stringMeta(it.UserMetadata, "business_id"),
		stringMeta(it.UserMetadata, "archive_no"),
		stringMeta(it.UserMetadata, "id"),
	)

	docID := identity.Generate(identity.Input{
		ContentForHash: contentForHash,
		FileName:       it.FileName,
		SourceSystem:   sourceSystem,
		PreferredID:    preferred,
	})

	meta := cloneMetadata(it.Metadata)
	meta["doc_id"] = docID

	return item.FieldUpdate{
		item.FieldDocID:    docID,
		item.FieldMetadata: meta,
	}, nil
}

// contentToHash picks binary, then raw_text, then source_path — the
// Go analogue of the original's `binary or raw_text or uri` chain.
func contentToHash(it item.Item) []byte {
	if len(it.Binary) > 0 {
		return it.Binary
	}
	if it.HasRawText {
		return []byte(it.RawText)
	}
	return []byte(it.SourcePath)
}

func stringMeta(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	v, ok := m[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}
