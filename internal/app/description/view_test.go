package description

import (
	"bytes"
	"strings"
	"testing"
	"tle_zone_studio/internal/domain/model"
	"tle_zone_studio/internal/platform/markdown"
)

func TestLoadingUntilProblemArrives(t *testing.T) {
	v := NewView(markdown.NewRenderer())
	if !v.Model().Loading {
		t.Fatal("Expected loading state before any problem")
	}
	if err := v.Observe(nil); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := v.WriteHTML(&buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Loading problem...") || !strings.Contains(buf.String(), "animate-spin") {
		t.Errorf("Expected loading indicator, got:\n%s", buf.String())
	}
}

func TestRendersProblem(t *testing.T) {
	v := NewView(markdown.NewRenderer())
	p := &model.Problem{Serial: 1, Name: "Two Sum", Level: model.LevelEasy, Category: "Array", Description: "Find **two** numbers."}
	if err := v.Observe(p); err != nil {
		t.Fatal(err)
	}

	m := v.Model()
	if m.Loading || m.Title != "1. Two Sum" || m.Category != "Array" {
		t.Errorf("Unexpected model: %+v", m)
	}
	if m.LevelClass != "bg-green-100 text-green-700" {
		t.Errorf("Unexpected level class %q", m.LevelClass)
	}

	var buf bytes.Buffer
	v.WriteHTML(&buf)
	html := buf.String()
	for _, want := range []string{"1. Two Sum", "<strong>two</strong>", "bg-green-100", ">Easy<"} {
		if !strings.Contains(html, want) {
			t.Errorf("Expected %q in page:\n%s", want, html)
		}
	}
	if p.Description != "Find **two** numbers." {
		t.Error("View modified the record")
	}
}

func TestUnknownLevelUsesNeutralStyle(t *testing.T) {
	v := NewView(markdown.NewRenderer())
	if err := v.Observe(&model.Problem{Serial: 9, Name: "Odd", Level: "Unknown"}); err != nil {
		t.Fatal(err)
	}
	if got := v.Model().LevelClass; got != NeutralLevelClass {
		t.Errorf("Expected neutral class, got %q", got)
	}
	if LevelClass(model.LevelHard) != "bg-red-100 text-red-700" || LevelClass(model.LevelMedium) != "bg-yellow-100 text-yellow-700" {
		t.Error("Unexpected class for known levels")
	}
}

func TestRerendersOnIdentityChange(t *testing.T) {
	v := NewView(markdown.NewRenderer())
	p := &model.Problem{Serial: 1, Name: "A", Level: model.LevelEasy}

	v.Observe(p)
	v.Observe(p)
	if v.Renders() != 1 {
		t.Errorf("Expected one render for the same record, got %d", v.Renders())
	}

	same := *p
	v.Observe(&same)
	if v.Renders() != 2 {
		t.Errorf("Expected re-render for a new record, got %d", v.Renders())
	}

	v.Observe(nil)
	if !v.Model().Loading || v.Renders() != 3 {
		t.Errorf("Expected loading after record cleared, renders=%d", v.Renders())
	}
}

func TestEscapesTitle(t *testing.T) {
	v := NewView(markdown.NewRenderer())
	v.Observe(&model.Problem{Serial: 2, Name: "<b>x</b>", Level: model.LevelEasy})
	var buf bytes.Buffer
	v.WriteHTML(&buf)
	if strings.Contains(buf.String(), "<b>x</b>") {
		t.Error("Expected problem name to be escaped")
	}
}
