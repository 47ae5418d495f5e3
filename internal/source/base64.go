package source

import (
	"context"
	"encoding/base64"

	"github.com/geelink/docingest/internal/ingesterr"
	"github.com/geelink/docingest/internal/item"
)

// Base64 decodes a caller-supplied base64 blob into an Item's binary
// field. Decode failure is an InvalidInput, not a SourceFailure, per
// spec.md §7.
type Base64 struct {
	Content      string
	FileName     string
	UserMetadata map[string]any
}

func (Base64) Name() string { return "base64" }

func (b Base64) Read(context.Context) ([]item.Item, error) {
	data, err := base64.StdEncoding.DecodeString(b.Content)
	if err != nil {
		return nil, &ingesterr.InvalidInput{Reason: "malformed base64 content", Cause: err}
	}

	fileName := b.FileName
	if fileName == "" {
		fileName = "base64_input"
	}

	return []item.Item{{
		FileName:     fileName,
		Binary:       data,
		SourceType:   item.SourceBase64,
		UserMetadata: b.UserMetadata,
	}}, nil
}
