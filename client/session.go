package client

import (
	"context"
	"sync"
)

// Session state as a frontend observes it. Exactly one of the terminal
// shapes holds after a check: user present, or user absent with or
// without an error.
type State struct {
	User    *User
	Loading bool
	Err     error
}

type sessionAPI interface {
	Me(ctx context.Context) (User, error)
}

// SessionManager is the single source of truth for "who is logged in".
// One session check runs at a time: concurrent callers share the in-flight
// result instead of racing each other into a stale terminal state.
type SessionManager struct {
	api sessionAPI

	mu       sync.Mutex
	state    State
	inflight chan struct{} // non-nil while a check is running
}

func NewSessionManager(api sessionAPI) *SessionManager {
	return &SessionManager{
		api:   api,
		state: State{Loading: true},
	}
}

// State returns a snapshot of the current session state
func (m *SessionManager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Check resolves the current session against the server and stores the
// outcome. Called once at startup and again only on explicit triggers:
// after login, after logout, after a renewal failure.
//
// If a check is already in flight the result is shared, no second request
// is issued. If ctx is cancelled mid-check the result is discarded: the
// stored state is not overwritten by an answer nobody waits for.
func (m *SessionManager) Check(ctx context.Context) (State, error) {
	m.mu.Lock()
	if done := m.inflight; done != nil {
		m.mu.Unlock()

		select {
		case <-done:
			return m.State(), nil
		case <-ctx.Done():
			return m.State(), ctx.Err()
		}
	}

	done := make(chan struct{})
	m.inflight = done
	prev := m.state
	m.state.Loading = true
	m.mu.Unlock()

	user, err := m.api.Me(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.inflight = nil
	defer close(done)

	if ctx.Err() != nil {
		// Observer went away mid-check: drop the result and restore the
		// last terminal state, error included
		m.state = State{User: prev.User, Loading: false, Err: prev.Err}
		return m.state, ctx.Err()
	}

	switch {
	case err == nil:
		m.state = State{User: &user, Loading: false, Err: nil}
	default:
		m.state = State{User: nil, Loading: false, Err: err}
	}

	return m.state, nil
}
