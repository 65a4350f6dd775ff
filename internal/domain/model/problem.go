package model

import (
	"strings"
	"time"
	"unicode"
)

type ProblemLevel string
type TestcaseKind string

const (
	LevelEasy   ProblemLevel = "Easy"
	LevelMedium ProblemLevel = "Medium"
	LevelHard   ProblemLevel = "Hard"

	TestcaseSample TestcaseKind = "sample"
	TestcaseHidden TestcaseKind = "hidden"
)

// Fallbacks used when no option lists are configured.
const (
	DefaultLevel    = "Easy"
	DefaultCategory = "1.Array"
)

type Problem struct {
	ID              string            `json:"id" db:"id"`
	Serial          int64             `json:"serial" db:"serial"`
	Name            string            `json:"name" db:"name"`
	Slug            string            `json:"slug" db:"slug"`
	Level           ProblemLevel      `json:"level" db:"level"`
	Category        string            `json:"category" db:"category"`
	Description     string            `json:"description" db:"description"`
	CreatedAt       time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at" db:"updated_at"`
	StarterCode     map[string]string `json:"starter_code,omitempty" db:"-"`
	SampleTestcases []Testcase        `json:"sample_testcases,omitempty" db:"-"`
	HiddenTestcases []Testcase        `json:"hidden_testcases,omitempty" db:"-"` // author view only
	Excerpt         string            `json:"excerpt,omitempty" db:"-"`          // listings only
}

type Testcase struct {
	ID        string       `json:"id,omitempty" db:"id"`
	ProblemID string       `json:"-" db:"problem_id"`
	Kind      TestcaseKind `json:"-" db:"kind"`
	Input     string       `json:"input" db:"input"`
	Output    string       `json:"output" db:"output"`
	SortOrder int          `json:"sort_order,omitempty" db:"sort_order"`
}

type StarterCode struct {
	ProblemID string `db:"problem_id"`
	Language  string `db:"language"`
	Code      string `db:"code"`
}

// Public returns a copy of the record without hidden testcases.
func (p *Problem) Public() *Problem {
	if p == nil {
		return nil
	}
	cp := *p
	cp.HiddenTestcases = nil
	return &cp
}

// CategoryDisplayName strips a leading "<digits>." ordering prefix, so "1.Array" becomes "Array".
func CategoryDisplayName(category string) string {
	prefix, rest, ok := strings.Cut(category, ".")
	if !ok || prefix == "" {
		return category
	}
	for _, r := range prefix {
		if !unicode.IsDigit(r) {
			return category
		}
	}
	return rest
}
