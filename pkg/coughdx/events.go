package coughdx

import (
	"github.com/ngt-labs/coughdx/internal/domain"
)

// State is the state of a recording session.
type State int

const (
	StateIdle State = iota
	StateRecording
	StateUploading
	StateResultShown
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	return toDomainState(s).String()
}

// StateChangeEvent describes one session transition.
type StateChangeEvent struct {
	SessionID string
	Previous  State
	Current   State
	Reason    string
}

// EventHandler receives session notifications.
type EventHandler interface {
	OnStateChange(event StateChangeEvent)
}

// EventHandlerFunc adapts a function to EventHandler.
type EventHandlerFunc func(event StateChangeEvent)

// OnStateChange calls f(event).
func (f EventHandlerFunc) OnStateChange(event StateChangeEvent) {
	f(event)
}

// eventEmitterWrapper adapts EventHandler to the internal observer interface.
type eventEmitterWrapper struct {
	sessionID string
	handler   EventHandler
}

func (e *eventEmitterWrapper) OnStateChange(previous, current domain.SessionState, reason string) {
	if e.handler == nil {
		return
	}
	e.handler.OnStateChange(StateChangeEvent{
		SessionID: e.sessionID,
		Previous:  convertState(previous),
		Current:   convertState(current),
		Reason:    reason,
	})
}

func convertState(s domain.SessionState) State {
	switch s {
	case domain.StateRecording:
		return StateRecording
	case domain.StateUploading:
		return StateUploading
	case domain.StateResultShown:
		return StateResultShown
	default:
		return StateIdle
	}
}

func toDomainState(s State) domain.SessionState {
	switch s {
	case StateRecording:
		return domain.StateRecording
	case StateUploading:
		return domain.StateUploading
	case StateResultShown:
		return domain.StateResultShown
	default:
		return domain.StateIdle
	}
}
