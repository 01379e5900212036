package app

import (
	"fmt"
	"sync"

	"github.com/ngt-labs/coughdx/internal/domain"
	"github.com/ngt-labs/coughdx/internal/ports"
)

// StateObserver is called when the session state changes.
type StateObserver interface {
	OnStateChange(previous, current domain.SessionState, reason string)
}

// Lifecycle guards the session state machine. The session loop is the only
// writer; State may be read from any goroutine.
type Lifecycle struct {
	mu       sync.RWMutex
	state    domain.SessionState
	logger   ports.Logger
	observer StateObserver
}

// NewLifecycle creates a lifecycle starting in Idle.
func NewLifecycle(logger ports.Logger, observer StateObserver) *Lifecycle {
	return &Lifecycle{
		state:    domain.StateIdle,
		logger:   logger,
		observer: observer,
	}
}

// State returns the current session state.
func (l *Lifecycle) State() domain.SessionState {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// TransitionTo moves to newState if the state machine allows it.
func (l *Lifecycle) TransitionTo(newState domain.SessionState, reason string) error {
	l.mu.Lock()
	oldState := l.state
	if !oldState.CanTransition(newState) {
		l.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, oldState, newState)
	}
	l.state = newState
	l.mu.Unlock()

	// Notify outside of lock
	if l.observer != nil {
		l.observer.OnStateChange(oldState, newState, reason)
	}

	l.logger.Info("state transition",
		ports.String("from", oldState.String()),
		ports.String("to", newState.String()),
		ports.String("reason", reason),
	)
	return nil
}
