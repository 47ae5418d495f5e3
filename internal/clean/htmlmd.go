package clean

import (
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"
)

// mdConverter is shared across calls; the underlying converter holds no
// per-document state.
var mdConverter = converter.NewConverter(
	converter.WithPlugins(
		base.NewBasePlugin(),
		commonmark.NewCommonmarkPlugin(),
		table.NewTablePlugin(),
	),
)

// sanitizePolicy strips script/style/event-handler content before Markdown
// conversion. Web and email sources (source.Web, source.IMAP) both feed
// attacker-controlled HTML into this package, so nothing reaches the
// converter - and later the Analyze/Embed LLM calls - without a pass
// through an allowlist sanitizer first.
var sanitizePolicy = bluemonday.UGCPolicy().AllowElements("table", "thead", "tbody", "tr", "th", "td")

// HTMLToMarkdown converts HTML to Markdown (spec.md §4.5 stage 3): the
// input is first run through an allowlist HTML sanitizer, then script,
// style, header, footer, nav, and aside are dropped by the base plugin's
// default element filtering; tables become Markdown tables with a header
// separator row; h1-h6 become Markdown headings. On conversion failure or
// empty output, the sanitized HTML is returned unchanged so downstream
// stages still have something to work with.
func HTMLToMarkdown(html, sourceURL string) string {
	if strings.TrimSpace(html) == "" {
		return html
	}
	clean := sanitizePolicy.Sanitize(html)
	result, err := mdConverter.ConvertString(clean, converter.WithDomain(sourceURL))
	if err != nil || strings.TrimSpace(result) == "" {
		return clean
	}
	return strings.TrimSpace(result)
}
