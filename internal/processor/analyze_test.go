package processor

import (
	"context"
	"errors"
	"testing"

	"github.com/geelink/docingest/internal/item"
)

type stubAnalyzer struct {
	result string
	err    error
}

func (s stubAnalyzer) Analyze(context.Context, string, string) (string, error) {
	return s.result, s.err
}

func TestAnalyze_EmptyInputYieldsEmptyGlossary(t *testing.T) {
	p := Analyze{Analyzer: stubAnalyzer{result: "should not be used"}}
	update, err := p.Process(context.Background(), item.Item{CleanText: ""})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	meta := update[item.FieldMetadata].(map[string]any)
	if meta["business_glossary"] != "" {
		t.Errorf("business_glossary = %v, want empty", meta["business_glossary"])
	}
}

func TestAnalyze_ProviderFailureDoesNotAbort(t *testing.T) {
	p := Analyze{Analyzer: stubAnalyzer{err: errors.New("provider down")}}
	update, err := p.Process(context.Background(), item.Item{CleanText: "some text"})
	if err != nil {
		t.Fatalf("Process returned error, want graceful degradation: %v", err)
	}
	meta := update[item.FieldMetadata].(map[string]any)
	if meta["business_glossary"] != "" {
		t.Errorf("expected empty glossary after provider failure, got %v", meta["business_glossary"])
	}
}

func TestAnalyze_ReturnsGlossaryOnSuccess(t *testing.T) {
	p := Analyze{Analyzer: stubAnalyzer{result: "term: definition"}}
	update, err := p.Process(context.Background(), item.Item{CleanText: "some text"})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	meta := update[item.FieldMetadata].(map[string]any)
	if meta["business_glossary"] != "term: definition" {
		t.Errorf("business_glossary = %v", meta["business_glossary"])
	}
}
