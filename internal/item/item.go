// Package item defines the Item envelope that flows through the ingestion
// pipeline: Source -> Processor chain -> Sink fan-out.
package item

import "fmt"

// SourceType labels where an Item originated from.
type SourceType string

const (
	SourceFile            SourceType = "file"
	SourceText             SourceType = "text"
	SourceURI              SourceType = "uri"
	SourceBase64           SourceType = "base64"
	SourceEmail            SourceType = "email"
	SourceEmailAttachment  SourceType = "email_attachment"
	SourceWeb              SourceType = "web"
)

// Embedding pairs a chunk's text with its vector, aligned 1:1 with Chunks.
type Embedding struct {
	Text   string
	Vector []float32
}

// Item is the mutable envelope traversing the pipeline. Processors never
// mutate an Item directly; they return a FieldUpdate that the orchestrator
// merges in. Binary is never mutated in place (invariant 4 of spec.md §3).
type Item struct {
	FileName   string
	Binary     []byte
	RawText    string
	HasRawText bool // distinguishes "" from absent, since RawText bypasses extraction only when present
	SourcePath string
	SourceType SourceType

	UserMetadata map[string]any

	DocID    string
	Metadata map[string]any

	CleanText string

	Chunks []string

	Embeddings []Embedding

	SolrDocs   []map[string]any
	VectorDocs []map[string]any

	// Score is source-assigned result ranking (IMAP content_score, crawler
	// text-density score). Not part of the wire contract, used only for
	// ordering within a source's batch.
	Score float64
}

// Clone returns a shallow copy suitable for handing to one worker goroutine.
// Per invariant 5, each Source-yielded Item is independent; Clone guards
// against accidental sharing of the UserMetadata map across Items produced
// by the same source call.
func (it Item) Clone() Item {
	out := it
	if it.UserMetadata != nil {
		out.UserMetadata = make(map[string]any, len(it.UserMetadata))
		for k, v := range it.UserMetadata {
			out.UserMetadata[k] = v
		}
	}
	return out
}

// FieldUpdate is the partial result a Processor returns. The orchestrator
// merges it into the Item's fields by key. An unrecognized key makes Merge
// return an error, which fails the Item.
type FieldUpdate map[string]any

// Known update keys. Processors only ever set a subset of these.
const (
	FieldDocID      = "doc_id"
	FieldMetadata   = "metadata"
	FieldRawText    = "raw_text"
	FieldCleanText  = "clean_text"
	FieldChunks     = "chunks"
	FieldEmbeddings = "embeddings"
	FieldSolrDocs   = "solr_docs"
	FieldVectorDocs = "vector_docs"
	FieldBinary     = "binary"
	FieldUserMeta   = "user_metadata"
)

// Merge applies a FieldUpdate onto the Item by key replacement (spec.md
// §4.1 step 3a). Returns an error naming the unknown key if update carries
// a field the Item doesn't recognize — this is the Go analogue of the
// Python "return is not a mapping" ProcessorContract failure.
func (it *Item) Merge(update FieldUpdate) error {
	for k, v := range update {
		switch k {
		case FieldDocID:
			s, ok := v.(string)
			if !ok {
				return fmt.Errorf("item: field %q: want string, got %T", k, v)
			}
			it.DocID = s
		case FieldMetadata:
			m, ok := v.(map[string]any)
			if !ok {
				return fmt.Errorf("item: field %q: want map[string]any, got %T", k, v)
			}
			it.Metadata = m
		case FieldRawText:
			s, ok := v.(string)
			if !ok {
				return fmt.Errorf("item: field %q: want string, got %T", k, v)
			}
			it.RawText = s
			it.HasRawText = true
		case FieldCleanText:
			s, ok := v.(string)
			if !ok {
				return fmt.Errorf("item: field %q: want string, got %T", k, v)
			}
			it.CleanText = s
		case FieldChunks:
			c, ok := v.([]string)
			if !ok {
				return fmt.Errorf("item: field %q: want []string, got %T", k, v)
			}
			it.Chunks = c
		case FieldEmbeddings:
			e, ok := v.([]Embedding)
			if !ok {
				return fmt.Errorf("item: field %q: want []item.Embedding, got %T", k, v)
			}
			it.Embeddings = e
		case FieldSolrDocs:
			d, ok := v.([]map[string]any)
			if !ok {
				return fmt.Errorf("item: field %q: want []map[string]any, got %T", k, v)
			}
			it.SolrDocs = d
		case FieldVectorDocs:
			d, ok := v.([]map[string]any)
			if !ok {
				return fmt.Errorf("item: field %q: want []map[string]any, got %T", k, v)
			}
			it.VectorDocs = d
		case FieldBinary:
			b, ok := v.([]byte)
			if !ok {
				return fmt.Errorf("item: field %q: want []byte, got %T", k, v)
			}
			it.Binary = b
		case FieldUserMeta:
			m, ok := v.(map[string]any)
			if !ok {
				return fmt.Errorf("item: field %q: want map[string]any, got %T", k, v)
			}
			it.UserMetadata = m
		default:
			return fmt.Errorf("item: unknown field %q", k)
		}
	}
	return nil
}
