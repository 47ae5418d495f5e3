package source

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/geelink/docingest/internal/ingesterr"
	"github.com/geelink/docingest/internal/item"
)

var uriFilenameSanitizer = regexp.MustCompile(`[^A-Za-z0-9_.\-]+`)

// URI resolves file:///, an OS-absolute path (POSIX or Windows-style), or
// an http(s):// URL into one or more Items. A directory path expands to
// one Item per contained file; any other scheme is InvalidInput
// (spec.md §4.10).
type URI struct {
	Value        string
	UserMetadata map[string]any
	HTTPClient   *http.Client
}

func (URI) Name() string { return "uri" }

func (u URI) Read(ctx context.Context) ([]item.Item, error) {
	raw := strings.Trim(strings.TrimSpace(u.Value), `"'`)

	switch {
	case strings.HasPrefix(raw, "file:///"):
		return u.readLocalPath(strings.TrimPrefix(raw, "file://"))
	case strings.HasPrefix(raw, "http://"), strings.HasPrefix(raw, "https://"):
		return u.readHTTP(ctx, raw)
	case isWindowsPath(raw), strings.HasPrefix(raw, "/"):
		return u.readLocalPath(raw)
	default:
		return nil, &ingesterr.InvalidInput{Reason: "unsupported or non-existing URI: " + raw}
	}
}

func isWindowsPath(s string) bool {
	return len(s) > 2 && s[1] == ':' && (s[2] == '\\' || s[2] == '/')
}

func (u URI) readLocalPath(path string) ([]item.Item, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, &ingesterr.InvalidInput{Reason: "cannot resolve local path", Cause: err}
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, &ingesterr.InvalidInput{Reason: "local path does not exist: " + abs, Cause: err}
	}

	if info.IsDir() {
		var items []item.Item
		err := filepath.Walk(abs, func(p string, fi os.FileInfo, walkErr error) error {
			if walkErr != nil || fi.IsDir() {
				return nil
			}
			it, loadErr := u.loadLocalFile(p)
			if loadErr != nil {
				return nil
			}
			items = append(items, it)
			return nil
		})
		if err != nil {
			return nil, &ingesterr.InvalidInput{Reason: "walking directory " + abs, Cause: err}
		}
		return items, nil
	}

	it, err := u.loadLocalFile(abs)
	if err != nil {
		return nil, &ingesterr.InvalidInput{Reason: "reading local file " + abs, Cause: err}
	}
	return []item.Item{it}, nil
}

func (u URI) loadLocalFile(path string) (item.Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return item.Item{}, err
	}
	return item.Item{
		FileName:     filepath.Base(path),
		Binary:       data,
		SourcePath:   path,
		SourceType:   item.SourceURI,
		UserMetadata: u.UserMetadata,
	}, nil
}

func (u URI) readHTTP(ctx context.Context, rawURL string) ([]item.Item, error) {
	client := u.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &ingesterr.InvalidInput{Reason: "malformed URL", Cause: err}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &ingesterr.SourceFailure{Source: "uri", Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ingesterr.SourceFailure{Source: "uri", Cause: &httpStatusError{rawURL, resp.StatusCode}}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ingesterr.SourceFailure{Source: "uri", Cause: err}
	}

	return []item.Item{{
		FileName:     filenameFromURL(rawURL),
		Binary:       body,
		SourcePath:   rawURL,
		SourceType:   item.SourceURI,
		UserMetadata: u.UserMetadata,
	}}, nil
}

func filenameFromURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "remote_file"
	}
	segments := strings.Split(strings.TrimSuffix(parsed.Path, "/"), "/")
	last := segments[len(segments)-1]
	sanitized := uriFilenameSanitizer.ReplaceAllString(last, "_")
	if sanitized == "" {
		return "remote_file"
	}
	return sanitized
}

type httpStatusError struct {
	url        string
	statusCode int
}

func (e *httpStatusError) Error() string {
	return "non-2xx response (" + strconv.Itoa(e.statusCode) + ") from " + e.url
}
