package source

import (
	"context"

	"github.com/geelink/docingest/internal/item"
)

// Text wraps a caller-supplied string as an Item. raw_text is authoritative
// here, so Extract skips extraction entirely for Items this source yields.
type Text struct {
	Content      string
	UserMetadata map[string]any
}

func (Text) Name() string { return "text" }

func (t Text) Read(context.Context) ([]item.Item, error) {
	return []item.Item{{
		FileName:     "inline_text",
		RawText:      t.Content,
		HasRawText:   true,
		SourceType:   item.SourceText,
		UserMetadata: t.UserMetadata,
	}}, nil
}
