package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/geelink/docingest/internal/item"
)

type fakeProcessor struct {
	name   string
	order  int
	update item.FieldUpdate
	err    error
}

func (f fakeProcessor) Name() string { return f.name }
func (f fakeProcessor) Order() int   { return f.order }
func (f fakeProcessor) Process(context.Context, item.Item) (item.FieldUpdate, error) {
	return f.update, f.err
}

type fakeSource struct {
	items []item.Item
	err   error
}

func (f fakeSource) Name() string { return "fake" }
func (f fakeSource) Read(context.Context) ([]item.Item, error) {
	return f.items, f.err
}

type fakeSink struct {
	written *[]item.Item
	err     error
}

func (f fakeSink) Name() string { return "fake-sink" }
func (f fakeSink) Write(_ context.Context, it item.Item) error {
	if f.err != nil {
		return f.err
	}
	*f.written = append(*f.written, it)
	return nil
}

func TestRun_OrdersProcessorsByDeclaredOrder(t *testing.T) {
	p50 := fakeProcessor{name: "second", order: 50, update: item.FieldUpdate{}}
	p5 := fakeProcessor{name: "first", order: 5, update: item.FieldUpdate{}}
	reg := NewRegistry(nil, p50, p5)

	names := make([]string, 0, 2)
	for _, p := range reg.Processors() {
		names = append(names, p.Name())
	}
	if names[0] != "first" || names[1] != "second" {
		t.Errorf("processors not ordered: %v", names)
	}
}

func TestRun_ProcessorFailureAbortsItemOnly(t *testing.T) {
	failing := fakeProcessor{name: "boom", order: 5, err: errors.New("kaboom")}
	reg := NewRegistry(nil, failing)
	src := fakeSource{items: []item.Item{{FileName: "a.txt"}, {FileName: "b.txt"}}}

	summary, err := Run(context.Background(), src, reg, nil, Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(summary.Items) != 2 {
		t.Fatalf("got %d summaries, want 2", len(summary.Items))
	}
	for _, s := range summary.Items {
		if s.Status != "failed" {
			t.Errorf("status = %q, want failed", s.Status)
		}
		if s.Error == "" {
			t.Errorf("expected error message recorded")
		}
	}
}

func TestRun_SuccessWritesToAllSinksAndSummarizes(t *testing.T) {
	setDocID := fakeProcessor{name: "identity", order: 5, update: item.FieldUpdate{item.FieldDocID: "doc1"}}
	setChunks := fakeProcessor{name: "chunk", order: 30, update: item.FieldUpdate{item.FieldChunks: []string{"a", "b"}}}
	reg := NewRegistry(nil, setDocID, setChunks)
	src := fakeSource{items: []item.Item{{FileName: "a.txt"}}}

	var written []item.Item
	sink := fakeSink{written: &written}

	summary, err := Run(context.Background(), src, reg, []Sink{sink}, Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(summary.Items) != 1 {
		t.Fatalf("got %d summaries, want 1", len(summary.Items))
	}
	s := summary.Items[0]
	if s.Status != "ok" || s.DocID != "doc1" || s.ChunkCount != 2 {
		t.Errorf("unexpected summary: %+v", s)
	}
	if len(written) != 1 || written[0].DocID != "doc1" {
		t.Errorf("sink did not receive processed item: %+v", written)
	}
}

func TestRun_SinkFailureMarksItemFailed(t *testing.T) {
	reg := NewRegistry(nil)
	src := fakeSource{items: []item.Item{{FileName: "a.txt"}}}
	sink := fakeSink{written: &[]item.Item{}, err: errors.New("write failed")}

	summary, err := Run(context.Background(), src, reg, []Sink{sink}, Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Items[0].Status != "failed" {
		t.Errorf("status = %q, want failed", summary.Items[0].Status)
	}
}

func TestRun_EmptySourceYieldsEmptySummary(t *testing.T) {
	reg := NewRegistry(nil)
	src := fakeSource{items: nil}

	summary, err := Run(context.Background(), src, reg, nil, Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(summary.Items) != 0 {
		t.Errorf("expected empty summary, got %v", summary.Items)
	}
}
