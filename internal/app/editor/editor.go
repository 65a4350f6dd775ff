// Package editor models the code editor widget bound to the authoring form.
//
// An Editor is a stable handle: switching languages calls Reset, which drops
// undo history and bumps Generation so clients know to rebuild their widget.
package editor

type Padding struct {
	Top    int `json:"top"`
	Bottom int `json:"bottom"`
}

type Options struct {
	AutomaticLayout      bool    `json:"automaticLayout"`
	ScrollBeyondLastLine bool    `json:"scrollBeyondLastLine"`
	Padding              Padding `json:"padding"`
}

type Config struct {
	Height  string  `json:"height"`
	Theme   string  `json:"theme"`
	Options Options `json:"options"`
}

// DefaultOptions matches the authoring layout: auto layout, no trailing scroll.
func DefaultOptions() Options {
	return Options{
		AutomaticLayout:      true,
		ScrollBeyondLastLine: false,
		Padding:              Padding{Top: 12, Bottom: 16},
	}
}

type Editor struct {
	config     Config
	language   string
	value      string
	history    []string
	generation int
	onChange   func(string)
}

func New(config Config, onChange func(string)) *Editor {
	return &Editor{config: config, onChange: onChange}
}

// Reset rebinds the editor to language with value and discards undo history.
func (e *Editor) Reset(language, value string) {
	e.language = language
	e.value = value
	e.history = nil
	e.generation++
}

// Edit replaces the buffer and reports the new value through the change callback.
func (e *Editor) Edit(value string) {
	if value == e.value {
		return
	}
	e.history = append(e.history, e.value)
	e.value = value
	if e.onChange != nil {
		e.onChange(value)
	}
}

// Undo restores the previous buffer. It reports false when there is nothing to undo.
func (e *Editor) Undo() bool {
	if len(e.history) == 0 {
		return false
	}
	prev := e.history[len(e.history)-1]
	e.history = e.history[:len(e.history)-1]
	e.value = prev
	if e.onChange != nil {
		e.onChange(prev)
	}
	return true
}

func (e *Editor) Language() string { return e.language }
func (e *Editor) Value() string    { return e.value }
func (e *Editor) Generation() int  { return e.generation }
func (e *Editor) CanUndo() bool    { return len(e.history) > 0 }
func (e *Editor) Config() Config   { return e.config }

// State is the serialisable widget binding. Key changes whenever the widget must be rebuilt.
type State struct {
	Key      string `json:"key"`
	Language string `json:"language"`
	Value    string `json:"value"`
	CanUndo  bool   `json:"can_undo"`
	Config
}

func (e *Editor) State() State {
	return State{
		Key:      stateKey(e.language, e.generation),
		Language: e.language,
		Value:    e.value,
		CanUndo:  e.CanUndo(),
		Config:   e.config,
	}
}
