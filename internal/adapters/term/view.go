// Package term renders the recording and result panels to a terminal.
package term

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/ngt-labs/coughdx/internal/domain"
	"github.com/ngt-labs/coughdx/internal/ports"
)

// Theme defines the color scheme of the panels.
type Theme struct {
	Primary lipgloss.Color
	Healthy lipgloss.Color
	Warning lipgloss.Color
	Dim     lipgloss.Color
}

// DefaultTheme is a green-on-dark scheme.
var DefaultTheme = Theme{
	Primary: lipgloss.Color("#00ff9f"),
	Healthy: lipgloss.Color("#3fb950"),
	Warning: lipgloss.Color("#f0883e"),
	Dim:     lipgloss.Color("#6e7681"),
}

// Hints shown under the panels by the interactive recorder.
const (
	RecordHint = "Enter: start/stop recording · q: quit"
	ResultHint = "r: diagnose again · q: quit"
)

type styles struct {
	title   lipgloss.Style
	rec     lipgloss.Style
	timer   lipgloss.Style
	healthy lipgloss.Style
	warning lipgloss.Style
	label   lipgloss.Style
	dim     lipgloss.Style
	box     lipgloss.Style
}

func newStyles(r *lipgloss.Renderer, t Theme) styles {
	return styles{
		title:   r.NewStyle().Bold(true).Foreground(t.Primary),
		rec:     r.NewStyle().Bold(true).Foreground(t.Warning),
		timer:   r.NewStyle().Bold(true),
		healthy: r.NewStyle().Bold(true).Foreground(t.Healthy),
		warning: r.NewStyle().Bold(true).Foreground(t.Warning),
		label:   r.NewStyle().Foreground(t.Primary),
		dim:     r.NewStyle().Foreground(t.Dim),
		box:     r.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(t.Primary).Padding(0, 1),
	}
}

// Option configures a View.
type Option func(*View)

// WithTheme sets the color scheme.
func WithTheme(t Theme) Option {
	return func(v *View) { v.theme = t }
}

// WithLive redraws the timer in place on every tick. Use it only when the
// writer is a terminal.
func WithLive(live bool) Option {
	return func(v *View) { v.live = live }
}

// WithHints prints key hints under the panels.
func WithHints(hints bool) Option {
	return func(v *View) { v.hints = hints }
}

// View implements ports.View on an io.Writer. Safe for concurrent use.
type View struct {
	mu    sync.Mutex
	w     io.Writer
	theme Theme
	live  bool
	hints bool
	st    styles

	recording bool
	timer     string
	lineOpen  bool
}

var _ ports.View = (*View)(nil)

// NewView creates a view writing to w. Colors are only emitted when w is a
// terminal.
func NewView(w io.Writer, opts ...Option) *View {
	v := &View{w: w, theme: DefaultTheme, timer: "00:00"}
	for _, opt := range opts {
		opt(v)
	}
	v.st = newStyles(lipgloss.NewRenderer(w), v.theme)
	return v
}

func (v *View) ShowRecordingPanel() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.endLine()
	v.println(v.st.title.Render("Cough diagnosis"))
	v.println("Record a few coughs, then stop to get a diagnosis.")
	if v.hints {
		v.println(v.st.dim.Render(RecordHint))
	}
}

func (v *View) SetRecording(active bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if active == v.recording {
		return
	}
	v.recording = active
	if active {
		v.drawTimer()
		return
	}
	if v.live {
		v.endLine()
		return
	}
	v.println(fmt.Sprintf("Recorded %s", v.st.timer.Render(v.timer)))
}

func (v *View) UpdateTimer(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.timer = text
	if v.recording && v.live {
		v.drawTimer()
	}
}

func (v *View) ShowInlineError(msg string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.endLine()
	v.println(v.st.warning.Render("! " + msg))
}

func (v *View) ShowPending(msg string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.endLine()
	v.println(v.st.dim.Render(msg))
}

func (v *View) ShowOutcome(o domain.Outcome) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.endLine()

	var lines []string
	switch o.Kind {
	case domain.OutcomeDiagnosis:
		result := v.st.warning
		if o.Healthy {
			result = v.st.healthy
		}
		lines = append(lines, v.st.label.Render("Result:     ")+result.Render(o.Label))
		if o.Confidence != "" {
			lines = append(lines, v.st.label.Render("Confidence: ")+o.Confidence)
		}
		if o.AudioFile != "" {
			lines = append(lines, v.st.label.Render("Audio:      ")+o.AudioFile)
		}
		lines = append(lines, "", v.st.dim.Render(o.Message))
	default:
		lines = append(lines, v.st.warning.Render(o.Message))
		if o.AudioFile != "" {
			lines = append(lines, v.st.label.Render("Audio: ")+o.AudioFile)
		}
	}

	v.println(v.st.box.Render(strings.Join(lines, "\n")))
	if v.hints {
		v.println(v.st.dim.Render(ResultHint))
	}
}

// drawTimer writes the recording line. In live mode it is rewritten in place.
func (v *View) drawTimer() {
	line := v.st.rec.Render("● REC") + " " + v.st.timer.Render(v.timer)
	if v.live {
		fmt.Fprint(v.w, "\r"+line)
		v.lineOpen = true
		return
	}
	v.println(line)
}

func (v *View) endLine() {
	if v.lineOpen {
		fmt.Fprintln(v.w)
		v.lineOpen = false
	}
}

func (v *View) println(s string) {
	fmt.Fprintln(v.w, s)
}
