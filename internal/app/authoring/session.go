package authoring

import (
	"fmt"
	"sync"
	"time"
	"tle_zone_studio/internal/app/store"
	"tle_zone_studio/internal/common"
	"tle_zone_studio/internal/platform/logger"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// pageViewport records the scroll lock a client must mirror on its page.
type pageViewport struct {
	locked bool
}

func (p *pageViewport) LockScroll()   { p.locked = true }
func (p *pageViewport) UnlockScroll() { p.locked = false }

type SessionView struct {
	ID           string `json:"id"`
	ScrollLocked bool   `json:"scroll_locked"`
	View
}

// Session hosts one mounted modal together with its own data-layer store.
type Session struct {
	ID string

	mu          sync.Mutex
	modal       *Modal
	store       *store.Store
	viewport    *pageViewport
	lastSeen    time.Time
	unmounted   bool
	watchers    map[int]chan SessionView
	nextWatcher int
	stopPump    func()
}

// Do runs fn against the modal under the session lock and returns the resulting view.
// It counts as client activity for idle reaping.
func (s *Session) Do(fn func(m *Modal) error) (SessionView, error) {
	return s.apply(fn, true)
}

func (s *Session) apply(fn func(m *Modal) error, touch bool) (SessionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unmounted {
		return SessionView{}, fmt.Errorf("session %s is gone: %w", s.ID, common.ErrNotFound)
	}
	if touch {
		s.lastSeen = time.Now()
	}
	if err := fn(s.modal); err != nil {
		return SessionView{}, err
	}
	v, err := s.viewLocked()
	if err != nil {
		return SessionView{}, err
	}
	s.broadcastLocked(v)
	return v, nil
}

func (s *Session) View() (SessionView, error) {
	return s.Do(func(*Modal) error { return nil })
}

// Watch streams views after every change. The channel is closed on unmount.
func (s *Session) Watch() (<-chan SessionView, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unmounted {
		return nil, nil, fmt.Errorf("session %s is gone: %w", s.ID, common.ErrNotFound)
	}
	v, err := s.viewLocked()
	if err != nil {
		return nil, nil, err
	}
	id := s.nextWatcher
	s.nextWatcher++
	ch := make(chan SessionView, 1)
	ch <- v
	s.watchers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if c, ok := s.watchers[id]; ok {
				delete(s.watchers, id)
				close(c)
			}
		})
	}, nil
}

func (s *Session) viewLocked() (SessionView, error) {
	v, err := s.modal.View()
	if err != nil {
		return SessionView{}, err
	}
	return SessionView{ID: s.ID, ScrollLocked: s.viewport.locked, View: v}, nil
}

func (s *Session) broadcastLocked(v SessionView) {
	for _, ch := range s.watchers {
		select {
		case <-ch:
		default:
		}
		ch <- v
	}
}

func (s *Session) pump(states <-chan store.SubmitState) {
	for st := range states {
		_, err := s.apply(func(m *Modal) error {
			m.Observe(st)
			return nil
		}, false)
		if err != nil {
			return
		}
	}
}

func (s *Session) unmount() {
	s.mu.Lock()
	if s.unmounted {
		s.mu.Unlock()
		return
	}
	s.unmounted = true
	s.modal.Unmount()
	for id, ch := range s.watchers {
		delete(s.watchers, id)
		close(ch)
	}
	stop := s.stopPump
	s.mu.Unlock()
	stop()
}

func (s *Session) idleSince() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen, len(s.watchers) > 0
}

// SessionManager mounts modals on demand and unmounts the abandoned ones.
type SessionManager struct {
	submitter   store.Submitter
	previewer   Previewer
	props       Props
	idleTimeout time.Duration

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSessionManager uses props as the template for every modal; Theme may be overridden per mount.
func NewSessionManager(submitter store.Submitter, previewer Previewer, props Props, idleTimeout time.Duration) *SessionManager {
	return &SessionManager{
		submitter:   submitter,
		previewer:   previewer,
		props:       props,
		idleTimeout: idleTimeout,
		sessions:    make(map[string]*Session),
	}
}

// Mount creates a session and opens its modal.
func (sm *SessionManager) Mount(theme string) (*Session, error) {
	s := &Session{
		ID:       uuid.NewString(),
		store:    store.New(sm.submitter, nil),
		viewport: &pageViewport{},
		lastSeen: time.Now(),
		watchers: make(map[int]chan SessionView),
	}
	props := sm.props
	if theme != "" {
		props.Theme = theme
	}
	props.OnClose = s.store.ResetSubmit
	s.modal = NewModal(props, s.viewport, s.store, sm.previewer)
	if err := s.modal.Open(); err != nil {
		return nil, err
	}

	states, stop := s.store.SubscribeSubmit()
	s.stopPump = stop
	go s.pump(states)

	sm.mu.Lock()
	sm.sessions[s.ID] = s
	sm.mu.Unlock()

	logger.Log.Infow("authoring session mounted", "session_id", s.ID)
	return s, nil
}

func (sm *SessionManager) Get(id string) (*Session, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	s, ok := sm.sessions[id]
	if !ok {
		return nil, fmt.Errorf("authoring session %s: %w", id, common.ErrNotFound)
	}
	return s, nil
}

func (sm *SessionManager) Unmount(id string) error {
	sm.mu.Lock()
	s, ok := sm.sessions[id]
	delete(sm.sessions, id)
	sm.mu.Unlock()
	if !ok {
		return fmt.Errorf("authoring session %s: %w", id, common.ErrNotFound)
	}
	s.unmount()
	logger.Log.Infow("authoring session unmounted", "session_id", id)
	return nil
}

func (sm *SessionManager) Len() int {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return len(sm.sessions)
}

// ReapIdle unmounts sessions without activity or watchers for longer than the idle timeout.
func (sm *SessionManager) ReapIdle(now time.Time) int {
	sm.mu.Lock()
	var stale []*Session
	for id, s := range sm.sessions {
		last, watched := s.idleSince()
		if !watched && now.Sub(last) > sm.idleTimeout {
			stale = append(stale, s)
			delete(sm.sessions, id)
		}
	}
	sm.mu.Unlock()

	for _, s := range stale {
		s.unmount()
	}
	return len(stale)
}

// Drain unmounts every session and waits for their in-flight submissions to settle.
func (sm *SessionManager) Drain() {
	sm.mu.Lock()
	sessions := make([]*Session, 0, len(sm.sessions))
	for id, s := range sm.sessions {
		sessions = append(sessions, s)
		delete(sm.sessions, id)
	}
	sm.mu.Unlock()

	for _, s := range sessions {
		s.unmount()
	}
	for _, s := range sessions {
		s.store.Wait()
	}
	if len(sessions) > 0 {
		logger.Log.Infow("authoring sessions drained", "count", len(sessions))
	}
}

// StartReaper schedules ReapIdle on the given cron spec. Stop the returned cron on shutdown.
func (sm *SessionManager) StartReaper(schedule string) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		if n := sm.ReapIdle(time.Now()); n > 0 {
			logger.Log.Infow("reaped idle authoring sessions", "count", n, "remaining", sm.Len())
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid reap schedule %q: %w", schedule, err)
	}
	c.Start()
	return c, nil
}
