package domain

import "errors"

// Domain errors represent error conditions in the coughdx domain.
// These errors can be checked with errors.Is.
var (
	// ErrMicrophoneDenied is returned when access to the input device is refused.
	ErrMicrophoneDenied = errors.New("coughdx: microphone access denied")

	// ErrMicrophoneUnavailable is returned when no usable input device exists.
	ErrMicrophoneUnavailable = errors.New("coughdx: microphone unavailable")

	// ErrStreamClosed is returned by reads on a released capture stream.
	ErrStreamClosed = errors.New("coughdx: capture stream closed")

	// ErrEmptyClip is returned when a clip without samples is assembled.
	ErrEmptyClip = errors.New("coughdx: empty clip")

	// ErrUploadStatus is returned when the endpoint answers with a non-2xx status.
	ErrUploadStatus = errors.New("coughdx: upload rejected")

	// ErrInvalidResponse is returned when the endpoint body is not valid JSON.
	ErrInvalidResponse = errors.New("coughdx: invalid response")

	// ErrInvalidTransition is returned when a session state change is not allowed.
	ErrInvalidTransition = errors.New("coughdx: invalid state transition")

	// ErrSessionClosed is returned when an action is sent to a stopped session.
	ErrSessionClosed = errors.New("coughdx: session closed")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("coughdx: invalid configuration")

	// ErrRecordNotFound is returned when a history record does not exist.
	ErrRecordNotFound = errors.New("coughdx: record not found")
)
