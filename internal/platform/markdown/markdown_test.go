package markdown

import (
	"strings"
	"testing"
)

func TestRenderEmptyInput(t *testing.T) {
	r := NewRenderer()
	out, err := r.Render("")
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	if out != "" {
		t.Errorf("Expected empty output, got %q", out)
	}
}

func TestRenderMarkdown(t *testing.T) {
	r := NewRenderer()
	out, err := r.Render("# Two Sum\n\nGiven `nums`, return **indices**.\n\n```cpp\nint main() {}\n```\n")
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	html := string(out)
	for _, want := range []string{"<h1", "Two Sum", "<code>nums</code>", "<strong>indices</strong>", `class="language-cpp"`} {
		if !strings.Contains(html, want) {
			t.Errorf("Expected %q in output:\n%s", want, html)
		}
	}
}

func TestRenderSanitizes(t *testing.T) {
	r := NewRenderer()
	out, err := r.Render("hello <script>alert(1)</script> [x](javascript:alert(1))")
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	html := string(out)
	if strings.Contains(html, "<script") || strings.Contains(html, "javascript:") {
		t.Errorf("Expected unsafe markup to be removed, got %s", html)
	}
}

func TestRenderGFMTable(t *testing.T) {
	r := NewRenderer()
	out, _ := r.Render("| a | b |\n|---|---|\n| 1 | 2 |\n")
	if !strings.Contains(string(out), "<table>") {
		t.Errorf("Expected GFM table, got %s", out)
	}
}

func TestPreviewPlaceholder(t *testing.T) {
	r := NewRenderer()
	out, err := r.Preview("")
	if err != nil {
		t.Fatalf("Preview returned error: %v", err)
	}
	if !strings.Contains(string(out), PreviewPlaceholder) {
		t.Errorf("Expected placeholder, got %q", out)
	}

	out, _ = r.Preview("*hi*")
	if !strings.Contains(string(out), "<em>hi</em>") {
		t.Errorf("Expected rendered text, got %q", out)
	}
}

func TestExcerpt(t *testing.T) {
	rendered := "<h1>Two Sum</h1>\n<p>Given an   array of <code>nums</code>.</p><ul><li>one</li><li>two</li></ul>"

	if got, want := Excerpt(rendered, 0), "Two Sum Given an array of nums. one two"; got != want {
		t.Errorf("Excerpt() = %q, want %q", got, want)
	}
	if got, want := Excerpt(rendered, 7), "Two Sum..."; got != want {
		t.Errorf("Excerpt(7) = %q, want %q", got, want)
	}
	if got := Excerpt("", 10); got != "" {
		t.Errorf("Expected empty excerpt, got %q", got)
	}
}
