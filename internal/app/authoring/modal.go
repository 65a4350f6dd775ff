// Package authoring implements the "add problem" modal and the sessions that host it.
package authoring

import (
	"context"
	"fmt"
	"html/template"
	"tle_zone_studio/internal/app/draft"
	"tle_zone_studio/internal/app/editor"
	"tle_zone_studio/internal/app/store"
	"tle_zone_studio/internal/common"
	"tle_zone_studio/internal/domain/model"
)

const KeyEscape = "Escape"

// Viewport is the page hosting the modal. Scrolling stays locked while the modal is open.
type Viewport interface {
	LockScroll()
	UnlockScroll()
}

// Dispatcher is the write side of the data layer.
type Dispatcher interface {
	Dispatch(ctx context.Context, cmd store.SubmitProblem) error
}

type Previewer interface {
	Preview(src string) (template.HTML, error)
}

type Props struct {
	Theme      string
	Height     string
	OnClose    func()
	Levels     []string
	Categories []string
	Languages  []model.Language
}

type Controls struct {
	SubmitDisabled bool   `json:"submit_disabled"`
	CancelDisabled bool   `json:"cancel_disabled"`
	Spinner        bool   `json:"spinner"`
	ErrorMessage   string `json:"error_message,omitempty"`
}

type Modal struct {
	props      Props
	viewport   Viewport
	dispatcher Dispatcher
	previewer  Previewer

	open     bool
	locked   bool
	mounted  bool
	preview  bool
	awaiting bool
	status   store.SubmitState

	draft  *draft.Draft
	editor *editor.Editor
}

func NewModal(props Props, viewport Viewport, dispatcher Dispatcher, previewer Previewer) *Modal {
	m := &Modal{
		props:      props,
		viewport:   viewport,
		dispatcher: dispatcher,
		previewer:  previewer,
		mounted:    true,
	}
	m.editor = editor.New(editor.Config{
		Height:  props.Height,
		Theme:   props.Theme,
		Options: editor.DefaultOptions(),
	}, m.onCodeChange)
	m.resetDraft()
	return m
}

func (m *Modal) resetDraft() {
	m.draft = draft.New(m.props.Languages)
	m.preview = false
	m.editor.Reset(m.draft.Language, m.draft.StarterCode(m.draft.Language))
}

func (m *Modal) onCodeChange(v string) {
	m.draft.SetStarterCode(v)
}

func (m *Modal) IsOpen() bool { return m.open }

// Open shows the modal. Level and category defaults are applied only where the draft is still empty.
func (m *Modal) Open() error {
	if !m.mounted {
		return fmt.Errorf("modal is unmounted: %w", common.ErrBadRequest)
	}
	if m.open {
		return nil
	}
	m.open = true
	m.draft.ApplyDefaults(m.props.Levels, m.props.Categories)
	if !m.locked && m.viewport != nil {
		m.viewport.LockScroll()
		m.locked = true
	}
	return nil
}

// Close hides the modal, restores page scrolling and notifies the owner.
// Cancelling is disabled while a submission is pending.
func (m *Modal) Close() error {
	if !m.open {
		return nil
	}
	if m.status.Pending {
		return fmt.Errorf("submission in progress: %w", common.ErrConflict)
	}
	m.open = false
	m.releaseViewport()
	if m.props.OnClose != nil {
		m.props.OnClose()
	}
	return nil
}

// Unmount tears the modal down for good. The draft is discarded.
func (m *Modal) Unmount() {
	if !m.mounted {
		return
	}
	m.open = false
	m.mounted = false
	m.awaiting = false
	m.releaseViewport()
	m.draft = draft.New(m.props.Languages)
}

func (m *Modal) releaseViewport() {
	if m.locked && m.viewport != nil {
		m.viewport.UnlockScroll()
	}
	m.locked = false
}

// HandleKey reacts to key presses; only Escape is bound, and only while open and idle.
func (m *Modal) HandleKey(key string) {
	if m.open && key == KeyEscape && !m.status.Pending {
		_ = m.Close()
	}
}

func (m *Modal) requireOpen() error {
	if !m.open {
		return fmt.Errorf("modal is closed: %w", common.ErrBadRequest)
	}
	return nil
}

type FieldUpdate struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Level       *string `json:"level,omitempty"`
	Category    *string `json:"category,omitempty"`
}

// UpdateFields replaces each given scalar field independently.
func (m *Modal) UpdateFields(u FieldUpdate) error {
	if err := m.requireOpen(); err != nil {
		return err
	}
	if u.Name != nil {
		m.draft.SetName(*u.Name)
	}
	if u.Description != nil {
		m.draft.SetDescription(*u.Description)
	}
	if u.Level != nil {
		m.draft.SetLevel(*u.Level)
	}
	if u.Category != nil {
		m.draft.SetCategory(*u.Category)
	}
	return nil
}

func (m *Modal) SetPreview(enabled bool) error {
	if err := m.requireOpen(); err != nil {
		return err
	}
	m.preview = enabled
	return nil
}

// SelectLanguage switches the edited starter code entry and rebinds the editor to it.
func (m *Modal) SelectLanguage(language string) error {
	if err := m.requireOpen(); err != nil {
		return err
	}
	if err := m.draft.SelectLanguage(language); err != nil {
		return err
	}
	m.editor.Reset(language, m.draft.StarterCode(language))
	return nil
}

func (m *Modal) EditCode(value string) error {
	if err := m.requireOpen(); err != nil {
		return err
	}
	m.editor.Edit(value)
	return nil
}

func (m *Modal) UndoCode() (bool, error) {
	if err := m.requireOpen(); err != nil {
		return false, err
	}
	return m.editor.Undo(), nil
}

func (m *Modal) AddTestcase(g draft.Group) (int, error) {
	if err := m.requireOpen(); err != nil {
		return 0, err
	}
	return m.draft.AddTestcase(g), nil
}

func (m *Modal) RemoveTestcase(g draft.Group, index int) error {
	if err := m.requireOpen(); err != nil {
		return err
	}
	return m.draft.RemoveTestcase(g, index)
}

func (m *Modal) UpdateTestcase(g draft.Group, index int, field draft.Field, value string) error {
	if err := m.requireOpen(); err != nil {
		return err
	}
	return m.draft.UpdateTestcase(g, index, field, value)
}

// Submit hands a snapshot of the draft to the data layer. It never retries on its own.
func (m *Modal) Submit(ctx context.Context) error {
	if err := m.requireOpen(); err != nil {
		return err
	}
	if m.status.Pending {
		return fmt.Errorf("submission in progress: %w", common.ErrConflict)
	}
	if err := m.dispatcher.Dispatch(ctx, store.SubmitProblem{Draft: m.draft.Snapshot()}); err != nil {
		return err
	}
	m.awaiting = true
	return nil
}

// Observe feeds a new submission state into the modal. A success that answers
// this modal's own submission closes it exactly once and starts a fresh draft.
func (m *Modal) Observe(st store.SubmitState) {
	m.status = st
	if !m.awaiting || !st.Succeeded() {
		return
	}
	m.awaiting = false
	m.resetDraft()
	_ = m.Close()
}

func (m *Modal) Controls() Controls {
	c := Controls{
		SubmitDisabled: m.status.Pending,
		CancelDisabled: m.status.Pending,
		Spinner:        m.status.Pending,
	}
	if m.status.Failed() {
		c.ErrorMessage = *m.status.Error
	}
	return c
}

func (m *Modal) Draft() *draft.Draft    { return m.draft }
func (m *Modal) Editor() *editor.Editor { return m.editor }
