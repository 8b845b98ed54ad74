package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/alnah/go-formula/internal/controller"
)

// Interactive session commands.
const (
	cmdCopy = ":copy"
	cmdQuit = ":quit"
)

// InteractiveCmd creates the interactive command.
// The env parameter provides injectable dependencies for testing.
func InteractiveCmd(env *Env) *cobra.Command {
	var flags generationFlags

	cmd := &cobra.Command{
		Use:     "interactive",
		Aliases: []string{"repl"},
		Short:   "Generate formulas in a line-oriented session",
		Long: `Start a session that reads one description per line.

Each line is submitted for generation; results appear as soon as they are
ready. Lines entered while a formula is still generating are refused.

Session commands:
  :copy   Copy the last formula to the clipboard
  :quit   End the session (Ctrl-D also works)`,
		Example: `  formula interactive
  formula interactive --dialect libreoffice --lang de`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractive(cmd, env, flags)
		},
	}

	flags.register(cmd)
	return cmd
}

// runInteractive reads lines until :quit, EOF or cancellation.
func runInteractive(cmd *cobra.Command, env *Env, flags generationFlags) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	s, err := newSetup(ctx, env, flags)
	if err != nil {
		return err
	}

	ctrl := controller.New(s.generator, env.Clipboard, controller.WithLogger(env.Logger))
	defer ctrl.Close()

	r := &sessionRenderer{env: env}
	ctrl.OnChange(r.render)

	fmt.Fprintf(env.Stderr, "Describe a %s formula (:copy, :quit).\n", s.dialect.Product())

	lines := scanLines(ctx, env)
	for {
		select {
		case <-ctx.Done():
			ctrl.Wait()
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				ctrl.Wait()
				return nil
			}
			if quit := handleLine(ctx, env, ctrl, line); quit {
				ctrl.Wait()
				return nil
			}
		}
	}
}

// handleLine applies one input line. It returns true on :quit.
func handleLine(ctx context.Context, env *Env, ctrl *controller.Controller, line string) bool {
	line = strings.TrimSpace(line)
	switch line {
	case "":
		return false
	case cmdQuit:
		return true
	case cmdCopy:
		switch err := ctrl.Copy(); {
		case err == nil:
			fmt.Fprintln(env.Stderr, "Copied!")
		case errors.Is(err, controller.ErrNothingToCopy):
			fmt.Fprintln(env.Stderr, "Nothing to copy yet.")
		default:
			fmt.Fprintf(env.Stderr, "Warning: %v\n", err)
		}
		return false
	}

	if !ctrl.Submit(ctx, line) {
		fmt.Fprintln(env.Stderr, "Still generating, please wait.")
	}
	return false
}

// scanLines delivers stdin lines on a channel closed at EOF.
// The reader goroutine stops at the next line once ctx is done.
func scanLines(ctx context.Context, env *Env) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(env.Stdin)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}

// sessionRenderer prints controller transitions.
// Results go to Stdout; status and failures to Stderr. Copied-flag changes
// keep the state at Success and print nothing.
type sessionRenderer struct {
	env *Env

	mu   sync.Mutex
	last controller.State
}

func (r *sessionRenderer) render(snap controller.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if snap.State == r.last {
		return
	}
	r.last = snap.State

	switch snap.State {
	case controller.Loading:
		fmt.Fprintln(r.env.Stderr, "Generating...")
	case controller.Failure:
		fmt.Fprintf(r.env.Stderr, "Error: %s\n", snap.Reason)
	case controller.Success:
		if err := writeResult(r.env.Stdout, snap.Result); err != nil {
			r.env.Logger.Error("write result", zap.Error(err))
			fmt.Fprintf(r.env.Stderr, "Error: cannot write result: %v\n", err)
		}
	}
}
