package processor

import (
	"context"
	"fmt"
	"time"

	"github.com/geelink/docingest/idgen"
	"github.com/geelink/docingest/internal/item"
)

// excludedFromParent are metadata keys folded into extraction already
// surfaced as named parent fields, so they are not duplicated verbatim.
var excludedFromParent = map[string]bool{
	"title": true, "author": true, "filename": true, "filetype": true,
}

// Assemble builds the parent + per-chunk persistence records (order=100),
// the last processor in the chain.
type Assemble struct {
	// NamespaceSeed prefixes every UUIDv5 seed string. Configurable per
	// spec.md §6 ("Identity namespace"); defaults to "com.geelink.2025".
	NamespaceSeed string
}

func (Assemble) Name() string { return "assemble" }
func (Assemble) Order() int   { return OrderAssemble }

func (p Assemble) Process(_ context.Context, it item.Item) (item.FieldUpdate, error) {
	seed := p.NamespaceSeed
	if seed == "" {
		seed = "com.geelink.2025"
	}

	now := time.Now().UTC().Format("2006-01-02T15:04:05.000Z")

	parentID := idgen.DeterministicV5(fmt.Sprintf("%s:%s", seed, it.DocID))

	parent := map[string]any{
		"doc_type":      "document",
		"id":            parentID,
		"doc_id":        it.DocID,
		"raw_content":   it.RawText,
		"content":       it.CleanText,
		"title":         stringMeta(it.Metadata, "title"),
		"author":        stringMeta(it.Metadata, "author"),
		"source_name":   it.FileName,
		"source_type":   string(it.SourceType),
		"source_path":   it.SourcePath,
		"source":        it.SourcePath,
		"created_at":    it.Metadata["created_at"],
		"modified_at":   it.Metadata["modified_at"],
		"keywords":      it.Metadata["keywords"],
		"summary":       stringMeta(it.Metadata, "summary"),
		"section_title": stringMeta(it.Metadata, "section_title"),
		"language":      stringMeta(it.Metadata, "language"),
		"chunk_count":   len(it.Chunks),
		"timestamp":     now,
	}
	for k, v := range it.Metadata {
		if excludedFromParent[k] {
			continue
		}
		if _, already := parent[k]; already {
			continue
		}
		parent[k] = v
	}

	solrDocs := make([]map[string]any, 0, len(it.Chunks)+1)
	vectorDocs := make([]map[string]any, 0, len(it.Chunks))
	solrDocs = append(solrDocs, parent)

	for idx, chunkText := range it.Chunks {
		chunkDocID := fmt.Sprintf("%s_chunk_%06d", it.DocID, idx)
		chunkID := idgen.DeterministicV5(fmt.Sprintf("%s:%s", seed, chunkDocID))

		var vector []float32
		if idx < len(it.Embeddings) {
			vector = it.Embeddings[idx].Vector
		}

		chunk := map[string]any{
			"doc_type":      "chunk",
			"id":            chunkID,
			"doc_id":        chunkDocID,
			"parent_id":     parentID,
			"chunk_index":   idx,
			"chunk_content": chunkText,
			"_gl_vector":    vector,
			"title":         parent["title"],
			"author":        parent["author"],
			"source_name":   parent["source_name"],
			"source_type":   parent["source_type"],
			"source_path":   parent["source_path"],
			"timestamp":     now,
		}
		solrDocs = append(solrDocs, chunk)
		vectorDocs = append(vectorDocs, chunk)
	}

	return item.FieldUpdate{
		item.FieldSolrDocs:   solrDocs,
		item.FieldVectorDocs: vectorDocs,
		item.FieldDocID:      it.DocID,
		item.FieldBinary:     []byte(nil),
	}, nil
}
