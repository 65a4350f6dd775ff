// Package description renders a problem statement with its difficulty and category badges.
package description

import (
	"fmt"
	"html/template"
	"io"
	"tle_zone_studio/internal/domain/model"
)

const NeutralLevelClass = "bg-gray-200 text-gray-700"

var levelClasses = map[model.ProblemLevel]string{
	model.LevelEasy:   "bg-green-100 text-green-700",
	model.LevelMedium: "bg-yellow-100 text-yellow-700",
	model.LevelHard:   "bg-red-100 text-red-700",
}

// LevelClass returns the badge style for a level, falling back to a neutral style.
func LevelClass(level model.ProblemLevel) string {
	if c, ok := levelClasses[level]; ok {
		return c
	}
	return NeutralLevelClass
}

type Renderer interface {
	Render(src string) (template.HTML, error)
}

type Model struct {
	Loading    bool          `json:"loading"`
	Title      string        `json:"title,omitempty"`
	Level      string        `json:"level,omitempty"`
	LevelClass string        `json:"level_class,omitempty"`
	Category   string        `json:"category,omitempty"`
	BodyHTML   template.HTML `json:"body_html,omitempty"`
}

// View shows the current problem. It never modifies the record it is given.
type View struct {
	renderer Renderer
	problem  *model.Problem
	model    Model
	renders  int
}

func NewView(renderer Renderer) *View {
	v := &View{renderer: renderer}
	v.model = Model{Loading: true}
	return v
}

// Observe takes the latest current-problem value; it re-renders only when the record identity changes.
func (v *View) Observe(p *model.Problem) error {
	if p == v.problem && v.renders > 0 {
		return nil
	}
	m, err := v.build(p)
	if err != nil {
		return err
	}
	v.problem = p
	v.model = m
	v.renders++
	return nil
}

func (v *View) build(p *model.Problem) (Model, error) {
	if p == nil {
		return Model{Loading: true}, nil
	}
	body, err := v.renderer.Render(p.Description)
	if err != nil {
		return Model{}, fmt.Errorf("description.View: %w", err)
	}
	return Model{
		Title:      fmt.Sprintf("%d. %s", p.Serial, p.Name),
		Level:      string(p.Level),
		LevelClass: LevelClass(p.Level),
		Category:   p.Category,
		BodyHTML:   body,
	}, nil
}

func (v *View) Model() Model { return v.model }
func (v *View) Renders() int { return v.renders }

func (v *View) WriteHTML(w io.Writer) error {
	return pageTemplate.Execute(w, v.model)
}
