package model

// ProblemDraft is the immutable snapshot handed to the submission path.
type ProblemDraft struct {
	SerialID        string            `json:"serial_id"`
	Level           string            `json:"level"`
	Category        string            `json:"category"`
	Name            string            `json:"name"`
	Description     string            `json:"description"`
	StarterCode     map[string]string `json:"starter_code"`
	SampleTestcases []Testcase        `json:"sample_testcases"`
	HiddenTestcases []Testcase        `json:"hidden_testcases"`
}

// ProblemMeta is the option data the authoring form is built from.
type ProblemMeta struct {
	Levels     []string         `json:"levels"`
	Categories []CategoryOption `json:"categories"`
	Languages  []Language       `json:"languages"`
}

type CategoryOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}
