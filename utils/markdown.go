package utils

import (
	"bytes"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var sanitizer = bluemonday.UGCPolicy()

// GFM with hard line breaks: a single newline in the source becomes <br>.
var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

// Sanitize cleans HTML content to prevent XSS attacks.
func Sanitize(input string) string {
	return sanitizer.Sanitize(input)
}

// RenderMarkdown converts raw markdown to sanitized HTML. Content is stored
// as raw markdown and only rendered on the way out, so the sanitizer runs on
// every read.
func RenderMarkdown(src string) string {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		// Fall back to sanitizing the source rather than leaking raw input.
		return Sanitize(src)
	}
	return Sanitize(buf.String())
}
