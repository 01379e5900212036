package domain

// SessionState is the authoritative state of a recording session.
type SessionState int

const (
	StateIdle SessionState = iota
	StateRecording
	StateUploading
	StateResultShown
)

// String returns a human-readable representation of the state.
func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateRecording:
		return "Recording"
	case StateUploading:
		return "Uploading"
	case StateResultShown:
		return "ResultShown"
	default:
		return "Unknown"
	}
}

// CanTransition reports whether the session may move from s to next.
func (s SessionState) CanTransition(next SessionState) bool {
	switch s {
	case StateIdle:
		return next == StateRecording
	case StateRecording:
		// Back to Idle only when the device fails mid-recording.
		return next == StateUploading || next == StateIdle
	case StateUploading:
		return next == StateResultShown
	case StateResultShown:
		return next == StateIdle
	}
	return false
}
