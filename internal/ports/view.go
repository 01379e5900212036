package ports

import "github.com/ngt-labs/coughdx/internal/domain"

// View renders the session panels. Calls are made from the session loop
// only and must not block for long.
type View interface {
	// ShowRecordingPanel hides results and shows the recording panel.
	ShowRecordingPanel()

	// SetRecording toggles the recording indicator.
	SetRecording(active bool)

	// UpdateTimer replaces the elapsed-time display (mm:ss).
	UpdateTimer(text string)

	// ShowInlineError displays an error on the recording panel.
	ShowInlineError(msg string)

	// ShowPending switches to the results panel with a waiting message.
	ShowPending(msg string)

	// ShowOutcome renders the final result.
	ShowOutcome(outcome domain.Outcome)
}
