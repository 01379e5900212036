package main

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/ngt-labs/coughdx/internal/adapters/term"
	"github.com/ngt-labs/coughdx/internal/domain"
	"github.com/ngt-labs/coughdx/pkg/coughdx"
)

type command int

const (
	cmdUnknown command = iota
	cmdToggle
	cmdReset
	cmdQuit
)

// parseCommand maps one line of keyboard input to a session command.
// An empty line is the record button.
func parseCommand(line string) command {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "", "s", "space":
		return cmdToggle
	case "r", "again":
		return cmdReset
	case "q", "quit", "exit":
		return cmdQuit
	default:
		return cmdUnknown
	}
}

func newRecordCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record a cough interactively and show the diagnosis",
		Long: strings.TrimSpace(`
Press Enter to start recording and Enter again to stop. The clip is uploaded
as soon as recording stops. Type r to record again and q to quit.

When stdin is not a terminal, end of input stops a running recording and
waits for its result before exiting.`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRecord(cmd.Context(), cmd.InOrStdin())
		},
	}

	cfg := &c.cfg
	f := cmd.Flags()
	f.StringVar(&cfg.InputFile, "input", cfg.InputFile, "replay a WAV file instead of the microphone")
	f.BoolVar(&cfg.Realtime, "realtime", cfg.Realtime, "replay --input at its natural speed")
	f.IntVar(&cfg.SampleRate, "sample-rate", cfg.SampleRate, "capture sample rate in Hz")
	f.IntVar(&cfg.Channels, "channels", cfg.Channels, "capture channels (1 or 2)")
	f.DurationVar(&cfg.ChunkDuration, "chunk", cfg.ChunkDuration, "capture chunk duration")
	return cmd
}

func (c *cli) runRecord(parent context.Context, in io.Reader) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	states := make(chan coughdx.StateChangeEvent, 16)
	handler := coughdx.EventHandlerFunc(func(ev coughdx.StateChangeEvent) {
		select {
		case states <- ev:
		default:
		}
	})

	view := &notifyingView{
		View: term.NewView(os.Stdout, term.WithLive(isatty.IsTerminal(os.Stdout.Fd())), term.WithHints(true)),
		errs: make(chan string, 4),
	}
	client, closeFn, err := c.newClient(view, coughdx.WithEventHandler(handler))
	if err != nil {
		return err
	}
	defer closeFn()

	sess := client.NewSession()
	c.log.Debug().Str("session", sess.ID()).Str("upload_url", client.UploadURL()).Msg("session started")

	runErr := make(chan error, 1)
	go func() { runErr <- sess.Run(ctx) }()

	lines := readLines(ctx, in)
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case err := <-runErr:
			return finishSession(client, err)
		case line, ok := <-lines:
			if !ok {
				awaitResult(ctx, sess, states)
				break loop
			}
			switch parseCommand(line) {
			case cmdToggle:
				idle := sess.State() == domain.StateIdle
				drain(states)
				drain(view.errs)
				if err = sess.Toggle(); err == nil && idle {
					awaitStart(ctx, states, view.errs)
				}
			case cmdReset:
				err = sess.Reset()
			case cmdQuit:
				break loop
			default:
				c.log.Warn().Str("input", line).Msg("unknown command")
			}
			if err != nil {
				return err
			}
		}
	}

	cancel()
	<-sess.Done()
	return finishSession(client, nil)
}

type archiveWaiter interface {
	Wait()
}

// finishSession waits for background archiving before the history store is
// closed. A cancelled run is a normal exit.
func finishSession(w archiveWaiter, runErr error) error {
	w.Wait()
	if errors.Is(runErr, context.Canceled) {
		return nil
	}
	return runErr
}

// notifyingView reports inline errors so the input loop can tell a refused
// microphone from a slow one.
type notifyingView struct {
	coughdx.View
	errs chan string
}

func (v *notifyingView) ShowInlineError(msg string) {
	v.View.ShowInlineError(msg)
	select {
	case v.errs <- msg:
	default:
	}
}

func drain[T any](ch chan T) {
	for len(ch) > 0 {
		<-ch
	}
}

// awaitStart blocks until a requested recording has started or was refused.
func awaitStart(ctx context.Context, states <-chan coughdx.StateChangeEvent, errs <-chan string) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-errs:
			return
		case ev := <-states:
			if ev.Current == coughdx.StateRecording {
				return
			}
		}
	}
}

// awaitResult stops a running recording and waits until its outcome is shown.
func awaitResult(ctx context.Context, sess *coughdx.Session, states chan coughdx.StateChangeEvent) {
	drain(states)
	switch sess.State() {
	case domain.StateRecording:
		if err := sess.Toggle(); err != nil {
			return
		}
	case domain.StateUploading:
	default:
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-states:
			if ev.Current == coughdx.StateResultShown || ev.Current == coughdx.StateIdle {
				return
			}
		}
	}
}

// readLines forwards input lines until EOF or ctx is done.
func readLines(ctx context.Context, in io.Reader) <-chan string {
	out := make(chan string)
	go func() {
		defer close(out)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case out <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
