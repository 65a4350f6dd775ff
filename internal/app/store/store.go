// Package store is the data layer the authoring and description views observe.
//
// A Store owns two slices: the status of the "create problem" command and the
// problem currently being viewed. Views never write to either slice; they send
// commands (Dispatch, LoadProblem) and receive state through subscriptions.
package store

import (
	"context"
	"fmt"
	"sync"
	"tle_zone_studio/internal/common"
	"tle_zone_studio/internal/domain/model"
	"tle_zone_studio/internal/platform/logger"
)

// Submitter performs the create-problem round trip.
type Submitter interface {
	SubmitProblem(ctx context.Context, draft model.ProblemDraft) (*model.Problem, error)
}

type ProblemLoader interface {
	GetProblem(ctx context.Context, serial int64) (*model.Problem, error)
}

// SubmitState is idle when every field is zero.
type SubmitState struct {
	Pending bool           `json:"pending"`
	Error   *string        `json:"error"`
	Data    *model.Problem `json:"data"`
}

func (s SubmitState) Idle() bool      { return !s.Pending && s.Error == nil && s.Data == nil }
func (s SubmitState) Failed() bool    { return !s.Pending && s.Error != nil }
func (s SubmitState) Succeeded() bool { return !s.Pending && s.Error == nil && s.Data != nil }

type SubmitProblem struct {
	Draft model.ProblemDraft
}

type Store struct {
	submitter Submitter
	loader    ProblemLoader

	mu          sync.Mutex
	submit      SubmitState
	current     *model.Problem
	nextID      int
	submitSubs  map[int]chan SubmitState
	problemSubs map[int]chan *model.Problem
	inflight    sync.WaitGroup
}

func New(submitter Submitter, loader ProblemLoader) *Store {
	return &Store{
		submitter:   submitter,
		loader:      loader,
		submitSubs:  make(map[int]chan SubmitState),
		problemSubs: make(map[int]chan *model.Problem),
	}
}

func (s *Store) SubmitState() SubmitState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submit
}

func (s *Store) CurrentProblem() *model.Problem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Dispatch starts an asynchronous submission. The outcome arrives as a state
// transition. The submission runs detached from ctx's cancellation and the store
// adds no timeout of its own.
func (s *Store) Dispatch(ctx context.Context, cmd SubmitProblem) error {
	if s.submitter == nil {
		return fmt.Errorf("store has no submitter: %w", common.ErrServiceUnavailable)
	}
	s.mu.Lock()
	if s.submit.Pending {
		s.mu.Unlock()
		return fmt.Errorf("a submission is already in flight: %w", common.ErrConflict)
	}
	s.setSubmitLocked(SubmitState{Pending: true})
	s.inflight.Add(1)
	s.mu.Unlock()

	runCtx := context.WithoutCancel(ctx)
	go func() {
		defer s.inflight.Done()
		problem, err := s.submitter.SubmitProblem(runCtx, cmd.Draft)

		next := SubmitState{Data: problem}
		if err != nil {
			msg := err.Error()
			next = SubmitState{Error: &msg}
			logger.Log.Infow("problem submission failed", "serial_id", cmd.Draft.SerialID, "error", err)
		}
		s.mu.Lock()
		s.setSubmitLocked(next)
		s.mu.Unlock()
	}()
	return nil
}

// Wait blocks until every dispatched submission has settled.
func (s *Store) Wait() {
	s.inflight.Wait()
}

// ResetSubmit returns the submission slice to idle unless a submission is pending.
func (s *Store) ResetSubmit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submit.Pending || s.submit.Idle() {
		return
	}
	s.setSubmitLocked(SubmitState{})
}

// LoadProblem clears the current problem, fetches it and publishes the result.
func (s *Store) LoadProblem(ctx context.Context, serial int64) error {
	if s.loader == nil {
		return fmt.Errorf("store has no problem loader: %w", common.ErrServiceUnavailable)
	}
	s.SetCurrentProblem(nil)
	p, err := s.loader.GetProblem(ctx, serial)
	if err != nil {
		return err
	}
	s.SetCurrentProblem(p)
	return nil
}

func (s *Store) SetCurrentProblem(p *model.Problem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == p {
		return
	}
	s.current = p
	for _, ch := range s.problemSubs {
		offerProblem(ch, p)
	}
}

// SubscribeSubmit returns a channel that receives the current state and every
// later change. Delivery keeps only the newest undelivered state.
func (s *Store) SubscribeSubmit() (<-chan SubmitState, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	ch := make(chan SubmitState, 1)
	ch <- s.submit
	s.submitSubs[id] = ch
	return ch, s.unsubscriber(func() {
		if c, ok := s.submitSubs[id]; ok {
			delete(s.submitSubs, id)
			close(c)
		}
	})
}

func (s *Store) SubscribeProblem() (<-chan *model.Problem, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	ch := make(chan *model.Problem, 1)
	ch <- s.current
	s.problemSubs[id] = ch
	return ch, s.unsubscriber(func() {
		if c, ok := s.problemSubs[id]; ok {
			delete(s.problemSubs, id)
			close(c)
		}
	})
}

func (s *Store) unsubscriber(remove func()) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			remove()
		})
	}
}

func (s *Store) setSubmitLocked(next SubmitState) {
	s.submit = next
	for _, ch := range s.submitSubs {
		offerSubmit(ch, next)
	}
}

func offerSubmit(ch chan SubmitState, st SubmitState) {
	select {
	case <-ch:
	default:
	}
	ch <- st
}

func offerProblem(ch chan *model.Problem, p *model.Problem) {
	select {
	case <-ch:
	default:
	}
	ch <- p
}
