package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderMarkdown(t *testing.T) {
	out := RenderMarkdown("# Heading\n\nSome **bold** and *italic* text.")
	assert.Contains(t, out, "<h1")
	assert.Contains(t, out, "<strong>bold</strong>")
	assert.Contains(t, out, "<em>italic</em>")
}

func TestRenderMarkdownHardWraps(t *testing.T) {
	out := RenderMarkdown("line one\nline two")
	assert.Contains(t, out, "<br")
}

func TestRenderMarkdownStripsScripts(t *testing.T) {
	out := RenderMarkdown("hello\n\n<script>alert(1)</script>")
	assert.NotContains(t, out, "<script")
	assert.NotContains(t, out, "alert(1)")
	assert.Contains(t, out, "hello")
}

func TestRenderMarkdownStripsEventHandlers(t *testing.T) {
	out := RenderMarkdown(`<a href="https://example.com" onclick="steal()">link</a>`)
	assert.NotContains(t, out, "onclick")
	assert.Contains(t, out, "link")
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "", Sanitize("<script>alert(1)</script>"))
	assert.Contains(t, Sanitize("plain <b>bold</b>"), "<b>bold</b>")
}
