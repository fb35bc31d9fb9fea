package calendar

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

type FlowState string

const (
	FlowNotStarted   FlowState = "not_started"
	FlowAwaitingUser FlowState = "awaiting_user"
	FlowCompleted    FlowState = "completed"
	FlowCancelled    FlowState = "cancelled"
	FlowTimedOut     FlowState = "timed_out"
	FlowFailed       FlowState = "failed"
)

var (
	ErrAuthorizationCancelled = errors.New("Autorização cancelada")
	ErrAuthorizationTimedOut  = errors.New("Tempo de autorização esgotado")
	ErrAuthorizationFailed    = errors.New("falha na autorização")
	ErrAuthorizationUnknown   = errors.New("autorização não encontrada")
	ErrAuthorizationResolved  = errors.New("autorização já concluída")
)

// resolvedRetention is how long a finished flow stays queryable
const resolvedRetention = 10 * time.Minute

// Flow is a snapshot of one authorization attempt
type Flow struct {
	State     string    `json:"state"`
	Status    FlowState `json:"status"`
	UserID    string    `json:"-"`
	Error     string    `json:"error,omitempty"`
	StartedAt time.Time `json:"startedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Err maps a resolved flow to the error its caller should see
func (f Flow) Err() error {
	switch f.Status {
	case FlowCancelled:
		return ErrAuthorizationCancelled
	case FlowTimedOut:
		return ErrAuthorizationTimedOut
	case FlowFailed:
		if f.Error != "" {
			return errors.New(f.Error)
		}
		return ErrAuthorizationFailed
	}
	return nil
}

type flowEntry struct {
	flow  Flow
	done  chan struct{}
	timer *time.Timer
}

// FlowRegistry tracks in-flight authorizations keyed by their OAuth state.
// Each flow resolves exactly once: completed, cancelled, timed out or failed.
type FlowRegistry struct {
	timeout time.Duration
	now     func() time.Time

	mu    sync.Mutex
	flows map[string]*flowEntry
}

func NewFlowRegistry(timeout time.Duration) *FlowRegistry {
	return &FlowRegistry{
		timeout: timeout,
		now:     time.Now,
		flows:   map[string]*flowEntry{},
	}
}

// Begin opens a flow awaiting the user and arms its timeout
func (r *FlowRegistry) Begin(userID string) Flow {
	now := r.now()
	state := uuid.NewString()
	entry := &flowEntry{
		flow: Flow{
			State:     state,
			Status:    FlowAwaitingUser,
			UserID:    userID,
			StartedAt: now,
			ExpiresAt: now.Add(r.timeout),
		},
		done: make(chan struct{}),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.flows[state] = entry
	entry.timer = time.AfterFunc(r.timeout, func() {
		_ = r.resolve(state, userID, FlowTimedOut, "")
	})
	return entry.flow
}

// Get returns the flow owned by userID; an unknown state reads as not started
func (r *FlowRegistry) Get(state, userID string) Flow {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.flows[state]
	if !ok || entry.flow.UserID != userID {
		return Flow{State: state, Status: FlowNotStarted}
	}
	return entry.flow
}

// Check returns nil while the flow still awaits the user, otherwise the
// error describing how it ended
func (r *FlowRegistry) Check(state, userID string) error {
	f := r.Get(state, userID)
	switch f.Status {
	case FlowAwaitingUser:
		return nil
	case FlowNotStarted:
		return ErrAuthorizationUnknown
	case FlowCompleted:
		return ErrAuthorizationResolved
	}
	return f.Err()
}

func (r *FlowRegistry) Complete(state, userID string) error {
	return r.resolve(state, userID, FlowCompleted, "")
}

func (r *FlowRegistry) Cancel(state, userID string) error {
	return r.resolve(state, userID, FlowCancelled, "")
}

func (r *FlowRegistry) Fail(state, userID string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return r.resolve(state, userID, FlowFailed, msg)
}

func (r *FlowRegistry) resolve(state, userID string, to FlowState, msg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.flows[state]
	if !ok || entry.flow.UserID != userID {
		return ErrAuthorizationUnknown
	}
	if entry.flow.Status != FlowAwaitingUser {
		if err := entry.flow.Err(); err != nil {
			return err
		}
		return ErrAuthorizationResolved
	}

	entry.flow.Status = to
	entry.flow.Error = msg
	entry.timer.Stop()
	close(entry.done)

	time.AfterFunc(resolvedRetention, func() {
		r.mu.Lock()
		delete(r.flows, state)
		r.mu.Unlock()
	})
	return nil
}

// Wait blocks until the flow resolves or ctx ends, then returns its snapshot
func (r *FlowRegistry) Wait(ctx context.Context, state, userID string) (Flow, error) {
	r.mu.Lock()
	entry, ok := r.flows[state]
	r.mu.Unlock()
	if !ok || entry.flow.UserID != userID {
		return Flow{State: state, Status: FlowNotStarted}, ErrAuthorizationUnknown
	}

	select {
	case <-entry.done:
	case <-ctx.Done():
		return r.Get(state, userID), ctx.Err()
	}
	return r.Get(state, userID), nil
}
