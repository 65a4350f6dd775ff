package authoring

import (
	"html/template"
	"tle_zone_studio/internal/app/draft"
	"tle_zone_studio/internal/app/editor"
	"tle_zone_studio/internal/domain/model"
)

type LanguageOption struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type DraftView struct {
	SerialID        string           `json:"serial_id"`
	Level           string           `json:"level"`
	Category        string           `json:"category"`
	Name            string           `json:"name"`
	Description     string           `json:"description"`
	Language        string           `json:"language"`
	SampleTestcases []model.Testcase `json:"sample_testcases"`
	HiddenTestcases []model.Testcase `json:"hidden_testcases"`
}

// View is what a client needs to draw the modal. A closed modal carries only Open=false.
type View struct {
	Open        bool                   `json:"open"`
	Theme       string                 `json:"theme,omitempty"`
	Levels      []string               `json:"levels,omitempty"`
	Categories  []model.CategoryOption `json:"categories,omitempty"`
	Languages   []LanguageOption       `json:"languages,omitempty"`
	Preview     bool                   `json:"preview"`
	PreviewHTML template.HTML          `json:"preview_html,omitempty"`
	Draft       *DraftView             `json:"draft,omitempty"`
	Editor      *editor.State          `json:"editor,omitempty"`
	Controls    Controls               `json:"controls"`
}

func (m *Modal) View() (View, error) {
	if !m.open {
		return View{Open: false, Controls: m.Controls()}, nil
	}

	v := View{
		Open:     true,
		Theme:    m.props.Theme,
		Levels:   m.props.Levels,
		Preview:  m.preview,
		Controls: m.Controls(),
	}
	for _, c := range m.props.Categories {
		v.Categories = append(v.Categories, model.CategoryOption{Value: c, Label: model.CategoryDisplayName(c)})
	}
	for _, l := range m.props.Languages {
		v.Languages = append(v.Languages, LanguageOption{ID: l.ID, Name: l.Name})
	}

	if m.preview && m.previewer != nil {
		html, err := m.previewer.Preview(m.draft.Description)
		if err != nil {
			return View{}, err
		}
		v.PreviewHTML = html
	}

	d := m.draft
	v.Draft = &DraftView{
		SerialID:        d.SerialID,
		Level:           d.Level,
		Category:        d.Category,
		Name:            d.Name,
		Description:     d.Description,
		Language:        d.Language,
		SampleTestcases: d.Testcases(draft.GroupSample),
		HiddenTestcases: d.Testcases(draft.GroupHidden),
	}
	st := m.editor.State()
	v.Editor = &st
	return v, nil
}
