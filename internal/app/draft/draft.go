// Package draft holds the in-progress state of a new problem.
package draft

import (
	"fmt"
	"tle_zone_studio/internal/common"
	"tle_zone_studio/internal/domain/model"

	"github.com/google/uuid"
)

type Group string

const (
	GroupSample Group = "sample"
	GroupHidden Group = "hidden"
)

type Field string

const (
	FieldInput  Field = "input"
	FieldOutput Field = "output"
)

// ParseGroup accepts "sample" and "hidden"; "real" is kept as an alias for hidden.
func ParseGroup(s string) (Group, error) {
	switch s {
	case "sample":
		return GroupSample, nil
	case "hidden", "real":
		return GroupHidden, nil
	}
	return "", fmt.Errorf("unknown testcase group %q: %w", s, common.ErrBadRequest)
}

func ParseField(s string) (Field, error) {
	switch Field(s) {
	case FieldInput, FieldOutput:
		return Field(s), nil
	}
	return "", fmt.Errorf("unknown testcase field %q: %w", s, common.ErrBadRequest)
}

type Draft struct {
	SerialID    string
	Level       string
	Category    string
	Name        string
	Description string
	Language    string

	languages   []model.Language
	starterCode map[string]string
	sample      []model.Testcase
	hidden      []model.Testcase
}

// New creates an empty draft with one template per language and the first language selected.
func New(languages []model.Language) *Draft {
	d := &Draft{
		SerialID:    uuid.NewString(),
		languages:   languages,
		starterCode: make(map[string]string, len(languages)),
	}
	for _, l := range languages {
		d.starterCode[l.ID] = l.Template
	}
	if len(languages) > 0 {
		d.Language = languages[0].ID
	}
	return d
}

// ApplyDefaults fills level and category from the option lists, but only when they are unset.
func (d *Draft) ApplyDefaults(levels, categories []string) {
	if d.Level == "" {
		d.Level = firstOr(levels, model.DefaultLevel)
	}
	if d.Category == "" {
		d.Category = firstOr(categories, model.DefaultCategory)
	}
}

func firstOr(list []string, fallback string) string {
	if len(list) > 0 && list[0] != "" {
		return list[0]
	}
	return fallback
}

func (d *Draft) SetName(v string)        { d.Name = v }
func (d *Draft) SetDescription(v string) { d.Description = v }
func (d *Draft) SetLevel(v string)       { d.Level = v }
func (d *Draft) SetCategory(v string)    { d.Category = v }

func (d *Draft) SelectLanguage(id string) error {
	if _, ok := d.starterCode[id]; !ok {
		return fmt.Errorf("unsupported language %q: %w", id, common.ErrBadRequest)
	}
	d.Language = id
	return nil
}

// SetStarterCode writes the code of the currently selected language only.
func (d *Draft) SetStarterCode(code string) {
	d.starterCode[d.Language] = code
}

func (d *Draft) StarterCode(language string) string {
	return d.starterCode[language]
}

func (d *Draft) list(g Group) *[]model.Testcase {
	if g == GroupSample {
		return &d.sample
	}
	return &d.hidden
}

// AddTestcase appends an empty input/output pair and returns its index.
func (d *Draft) AddTestcase(g Group) int {
	l := d.list(g)
	*l = append(*l, model.Testcase{})
	return len(*l) - 1
}

func (d *Draft) RemoveTestcase(g Group, index int) error {
	l := d.list(g)
	if index < 0 || index >= len(*l) {
		return fmt.Errorf("%s testcase %d out of range: %w", g, index, common.ErrBadRequest)
	}
	*l = append((*l)[:index], (*l)[index+1:]...)
	return nil
}

func (d *Draft) UpdateTestcase(g Group, index int, field Field, value string) error {
	l := *d.list(g)
	if index < 0 || index >= len(l) {
		return fmt.Errorf("%s testcase %d out of range: %w", g, index, common.ErrBadRequest)
	}
	switch field {
	case FieldInput:
		l[index].Input = value
	case FieldOutput:
		l[index].Output = value
	default:
		return fmt.Errorf("unknown testcase field %q: %w", field, common.ErrBadRequest)
	}
	return nil
}

// Testcases returns a copy of the group's rows in order.
func (d *Draft) Testcases(g Group) []model.Testcase {
	return append([]model.Testcase{}, *d.list(g)...)
}

// Snapshot returns a deep copy that later edits cannot reach.
func (d *Draft) Snapshot() model.ProblemDraft {
	code := make(map[string]string, len(d.starterCode))
	for k, v := range d.starterCode {
		code[k] = v
	}
	return model.ProblemDraft{
		SerialID:        d.SerialID,
		Level:           d.Level,
		Category:        d.Category,
		Name:            d.Name,
		Description:     d.Description,
		StarterCode:     code,
		SampleTestcases: d.Testcases(GroupSample),
		HiddenTestcases: d.Testcases(GroupHidden),
	}
}
