package processor

import (
	"context"
	"errors"
	"testing"

	"github.com/geelink/docingest/docpipe"
	"github.com/geelink/docingest/internal/capability"
	"github.com/geelink/docingest/internal/item"
)

type stubExtractor struct {
	result capability.ExtractResult
	err    error
}

func (s stubExtractor) Extract(context.Context, string, []byte) (capability.ExtractResult, error) {
	return s.result, s.err
}

func TestExtract_WebSourceWithRawTextSkipsExtraction(t *testing.T) {
	p := Extract{}
	it := item.Item{
		SourceType:   item.SourceWeb,
		HasRawText:   true,
		RawText:      "already extracted",
		UserMetadata: map[string]any{"title": "override"},
	}
	update, err := p.Process(context.Background(), it)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if _, ok := update[item.FieldRawText]; ok {
		t.Errorf("expected raw_text untouched for web source with raw text already set")
	}
	meta := update[item.FieldMetadata].(map[string]any)
	if meta["title"] != "override" {
		t.Errorf("user metadata not applied: %v", meta)
	}
}

func TestExtract_NoBinaryPassesThroughRawText(t *testing.T) {
	p := Extract{}
	it := item.Item{RawText: "plain text upload"}
	update, err := p.Process(context.Background(), it)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if update[item.FieldRawText] != "plain text upload" {
		t.Errorf("raw_text = %v", update[item.FieldRawText])
	}
}

func TestExtract_UsesExtractorAndNormalizesMetadata(t *testing.T) {
	p := Extract{
		Extractor: stubExtractor{result: capability.ExtractResult{
			Text: "extracted body",
			Metadata: map[string]any{
				"title":      "doc title",
				"page_count": 2,
			},
		}},
	}
	it := item.Item{FileName: "report.pdf", Binary: []byte("%PDF-fake")}

	update, err := p.Process(context.Background(), it)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if update[item.FieldRawText] != "extracted body" {
		t.Errorf("raw_text = %v", update[item.FieldRawText])
	}
	meta := update[item.FieldMetadata].(map[string]any)
	if meta["ingestion_method"] != "tika" {
		t.Errorf("ingestion_method = %v, want tika", meta["ingestion_method"])
	}
	if meta["title"] != "doc title" {
		t.Errorf("title = %v", meta["title"])
	}
	if meta["source_name"] != "report.pdf" {
		t.Errorf("source_name = %v", meta["source_name"])
	}
}

func TestExtract_RemoteFailureWithNoFallbackFailsItem(t *testing.T) {
	p := Extract{
		Extractor: stubExtractor{result: capability.ExtractResult{Text: ""}, err: errors.New("unavailable")},
	}
	it := item.Item{FileName: "note.txt", Binary: []byte("hello world")}

	update, err := p.Process(context.Background(), it)
	if err == nil {
		t.Fatal("expected error when the extractor fails and no fallback is configured")
	}
	// No local fallback configured: the extractor's error fails the Item.
	if update != nil {
		t.Errorf("update = %v, want nil on failure", update)
	}
}

func TestExtract_FallsBackToLocalWhenRemoteEmpty(t *testing.T) {
	p := Extract{
		Extractor:     stubExtractor{result: capability.ExtractResult{Text: ""}, err: errors.New("unavailable")},
		LocalFallback: docpipe.New(docpipe.Config{}),
	}
	it := item.Item{FileName: "note.txt", Binary: []byte("hello world")}

	update, err := p.Process(context.Background(), it)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if update[item.FieldRawText] != "hello world" {
		t.Errorf("raw_text = %q, want %q", update[item.FieldRawText], "hello world")
	}
	meta := update[item.FieldMetadata].(map[string]any)
	if meta["ingestion_method"] != "local" {
		t.Errorf("ingestion_method = %v, want local", meta["ingestion_method"])
	}
}

func TestExtract_FallsBackToLocalForUnextensionedContent(t *testing.T) {
	p := Extract{LocalFallback: docpipe.New(docpipe.Config{})}
	it := item.Item{FileName: "base64_input", Binary: []byte("hello world")}

	update, err := p.Process(context.Background(), it)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if update[item.FieldRawText] != "hello world" {
		t.Errorf("raw_text = %q, want %q", update[item.FieldRawText], "hello world")
	}
}
