// Package source implements the byte-bearing Sources of spec.md §4.10 plus
// the IMAP and web crawler sources of §4.11-4.12.
package source

import (
	"context"
	"os"
	"path/filepath"

	"github.com/geelink/docingest/internal/ingesterr"
	"github.com/geelink/docingest/internal/item"
)

// File reads a single file already present on local disk (the `/upload`
// HTTP handler writes the multipart upload to a temp path before handing
// it to this source).
type File struct {
	Path         string
	UserMetadata map[string]any
}

func (File) Name() string { return "file" }

func (f File) Read(context.Context) ([]item.Item, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, &ingesterr.SourceFailure{Source: "file", Cause: err}
	}

	return []item.Item{{
		FileName:     filepath.Base(f.Path),
		Binary:       data,
		SourcePath:   f.Path,
		SourceType:   item.SourceFile,
		UserMetadata: f.UserMetadata,
	}}, nil
}
