package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNormalizeURL_StripsFragmentAndTrailingSlash(t *testing.T) {
	got := normalizeURL("https://example.com/docs/?x=1#section")
	want := "https://example.com/docs?x=1"
	if got != want {
		t.Errorf("normalizeURL = %q, want %q", got, want)
	}
}

func TestRegistrableDomain(t *testing.T) {
	cases := map[string]string{
		"a.example.com":     "example.com",
		"example.com":       "example.com",
		"deep.sub.host.com": "host.com",
	}
	for in, want := range cases {
		if got := registrableDomain(in); got != want {
			t.Errorf("registrableDomain(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestIsAdURL(t *testing.T) {
	if !isAdURL("https://www.googletagmanager.com/gtm.js") {
		t.Error("expected ad pattern match")
	}
	if isAdURL("https://example.com/docs/article") {
		t.Error("unexpected ad pattern match on clean URL")
	}
}

func TestScoreFor_CappedAtOne(t *testing.T) {
	score := scoreFor(strings.Repeat("a", 1000), 100)
	if score != 1.0 {
		t.Errorf("score = %v, want 1.0 (capped)", score)
	}
}

// Scenario (e) of spec.md §8: scope filtering by host/subdomain/path
// prefix.
func TestCrawler_InScopeRestrictedToPath(t *testing.T) {
	c := &crawler{
		startHost:         "a.example.com",
		registrableDomain: "example.com",
		startDir:          "/docs",
		allowSubdomains:   false,
		restrictToPath:    true,
	}

	cases := []struct {
		url  string
		want bool
	}{
		{"https://a.example.com/docs/sub/x", true},
		{"https://a.example.com/blog/x", false},
		{"https://b.example.com/docs/x", false},
	}
	for _, tc := range cases {
		if got := c.inScope(tc.url); got != tc.want {
			t.Errorf("inScope(%q) = %v, want %v", tc.url, got, tc.want)
		}
	}
}

func TestWeb_CrawlsLinkedPageWithinScope(t *testing.T) {
	var mux http.ServeMux
	mux.HandleFunc("/docs/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><body><p>root page content here</p><a href="/docs/child">child</a></body></html>`))
	})
	mux.HandleFunc("/docs/child", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><body><p>child page content here</p></body></html>`))
	})
	server := httptest.NewServer(&mux)
	defer server.Close()

	w := Web{
		StartURL:      server.URL + "/docs/",
		MaxDepth:      2,
		Concurrency:   2,
		RespectRobots: false,
		HTTPClient:    server.Client(),
	}

	items, err := w.Read(context.Background())
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2 (root + child)", len(items))
	}
}

func TestWeb_InvalidStartURLYieldsEmptyResult(t *testing.T) {
	w := Web{StartURL: "not a url at all"}
	items, err := w.Read(context.Background())
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("expected empty result, got %v", items)
	}
}
