// Package markdown turns problem statements into sanitized HTML.
package markdown

import (
	"bytes"
	"fmt"
	"html/template"
	"regexp"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// PreviewPlaceholder is shown by Preview when there is nothing to render.
const PreviewPlaceholder = "Nothing to preview..."

type Renderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

func NewRenderer() *Renderer {
	policy := bluemonday.UGCPolicy()
	// keep fenced-code language hints for client side highlighting
	policy.AllowAttrs("class").Matching(regexp.MustCompile(`^language-[a-zA-Z0-9+#-]+$`)).OnElements("code")

	return &Renderer{
		md:     goldmark.New(goldmark.WithExtensions(extension.GFM)),
		policy: policy,
	}
}

// Render converts src to safe HTML. Empty input renders as empty output.
func (r *Renderer) Render(src string) (template.HTML, error) {
	if src == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("markdown.Render: %w", err)
	}
	return template.HTML(r.policy.SanitizeBytes(buf.Bytes())), nil
}

// Preview renders src, or the placeholder text when src is empty.
func (r *Renderer) Preview(src string) (template.HTML, error) {
	if src == "" {
		src = PreviewPlaceholder
	}
	return r.Render(src)
}
