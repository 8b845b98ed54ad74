// Package controller holds the interaction state of a formula session:
// one request in flight at most, the last result or failure reason, and
// the transient "copied" flag.
package controller

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/alnah/go-formula/internal/interpret"
	"github.com/alnah/go-formula/internal/model"
)

// CopiedResetDelay is how long the copied flag stays set after Copy.
const CopiedResetDelay = 2 * time.Second

// State is the phase of the session.
type State int

// Session phases.
const (
	Idle State = iota
	Loading
	Success
	Failure
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Success:
		return "success"
	case Failure:
		return "failure"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Snapshot is a copy of the session state.
// Result is set only in Success; Reason and Err only in Failure.
type Snapshot struct {
	State  State
	Result interpret.Result
	Reason string
	Err    error
	Copied bool
}

// Generator produces a formula for a description.
// *formula.Generator implements this interface.
type Generator interface {
	Generate(ctx context.Context, description string) (interpret.Result, error)
}

// Clipboard receives copied formulas.
type Clipboard interface {
	WriteAll(text string) error
}

// Timer is a pending reset that can be cancelled. *time.Timer implements it.
type Timer interface {
	Stop() bool
}

// Scheduler runs f after d and returns a handle to cancel it.
type Scheduler func(d time.Duration, f func()) Timer

func afterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Option configures a Controller.
type Option func(*Controller)

// WithScheduler replaces time.AfterFunc for the copied-flag reset.
func WithScheduler(s Scheduler) Option {
	return func(c *Controller) {
		if s != nil {
			c.schedule = s
		}
	}
}

// WithLogger sets the diagnostics logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// Controller drives a formula session. Methods are safe for concurrent use.
// Observers registered with OnChange are called outside the lock, once per
// transition, from the goroutine that caused it.
type Controller struct {
	gen      Generator
	clip     Clipboard
	schedule Scheduler
	logger   *zap.Logger

	mu        sync.Mutex
	snap      Snapshot
	seq       uint64 // bumped on every accepted submit
	copyGen   uint64 // bumped on every copy; stale resets compare against it
	reset     Timer
	observers []func(Snapshot)

	inflight sync.WaitGroup
}

// New creates an idle Controller.
func New(gen Generator, clip Clipboard, opts ...Option) *Controller {
	c := &Controller{
		gen:      gen,
		clip:     clip,
		schedule: afterFunc,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnChange registers fn to receive a snapshot after every transition.
func (c *Controller) OnChange(fn func(Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, fn)
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap
}

// Submit starts generating a formula for description.
// It returns false, changing nothing, when description is blank or a request
// is already loading. Otherwise the state moves to Loading and the call runs
// in the background; use Wait or OnChange to observe the outcome.
func (c *Controller) Submit(ctx context.Context, description string) bool {
	if strings.TrimSpace(description) == "" {
		return false
	}

	c.mu.Lock()
	if c.snap.State == Loading {
		c.mu.Unlock()
		c.logger.Debug("submit refused while loading")
		return false
	}
	c.seq++
	seq := c.seq
	c.cancelResetLocked()
	c.snap = Snapshot{State: Loading}
	c.inflight.Add(1)
	snap, observers := c.snap, c.observersLocked()
	c.mu.Unlock()

	c.logger.Debug("state changed", zap.Stringer("state", Loading))
	notify(observers, snap)

	go c.run(ctx, seq, description)
	return true
}

func (c *Controller) run(ctx context.Context, seq uint64, description string) {
	defer c.inflight.Done()

	result, err := c.gen.Generate(ctx, description)

	c.mu.Lock()
	if seq != c.seq {
		c.mu.Unlock()
		return
	}
	if err != nil {
		c.snap = Snapshot{State: Failure, Reason: Reason(err), Err: err}
	} else {
		c.snap = Snapshot{State: Success, Result: result}
	}
	snap, observers := c.snap, c.observersLocked()
	c.mu.Unlock()

	if err != nil {
		c.logger.Debug("state changed", zap.Stringer("state", Failure), zap.Error(err))
	} else {
		c.logger.Debug("state changed", zap.Stringer("state", Success))
	}
	notify(observers, snap)
}

// Copy writes the current formula to the clipboard and sets the copied flag
// for CopiedResetDelay. A second copy restarts the delay.
// Returns ErrNothingToCopy outside Success, or the clipboard's error.
func (c *Controller) Copy() error {
	c.mu.Lock()
	if c.snap.State != Success {
		c.mu.Unlock()
		return ErrNothingToCopy
	}
	seq, text := c.seq, c.snap.Result.Formula
	c.mu.Unlock()

	if err := c.clip.WriteAll(text); err != nil {
		return fmt.Errorf("copying formula: %w", err)
	}

	c.mu.Lock()
	if seq != c.seq || c.snap.State != Success {
		// A new submission started while writing; its state wins.
		c.mu.Unlock()
		return nil
	}
	c.cancelResetLocked()
	gen := c.copyGen
	c.snap.Copied = true
	c.reset = c.schedule(CopiedResetDelay, func() { c.clearCopied(gen) })
	snap, observers := c.snap, c.observersLocked()
	c.mu.Unlock()

	notify(observers, snap)
	return nil
}

func (c *Controller) clearCopied(gen uint64) {
	c.mu.Lock()
	if gen != c.copyGen || !c.snap.Copied {
		c.mu.Unlock()
		return
	}
	c.snap.Copied = false
	c.reset = nil
	snap, observers := c.snap, c.observersLocked()
	c.mu.Unlock()

	notify(observers, snap)
}

// Wait blocks until no request is in flight.
func (c *Controller) Wait() {
	c.inflight.Wait()
}

// Close cancels a pending copied reset and waits for the in-flight request.
func (c *Controller) Close() {
	c.mu.Lock()
	c.cancelResetLocked()
	c.mu.Unlock()
	c.inflight.Wait()
}

// cancelResetLocked stops the pending reset and invalidates any reset that
// already fired but has not acquired the lock yet.
func (c *Controller) cancelResetLocked() {
	c.copyGen++
	if c.reset != nil {
		c.reset.Stop()
		c.reset = nil
	}
}

func (c *Controller) observersLocked() []func(Snapshot) {
	return slices.Clone(c.observers)
}

func notify(observers []func(Snapshot), snap Snapshot) {
	for _, fn := range observers {
		fn(snap)
	}
}

// Reason returns the user-facing failure message for err.
func Reason(err error) string {
	var cfgErr *model.ConfigurationError
	if errors.As(err, &cfgErr) {
		return fmt.Sprintf(reasonConfiguration, cfgErr.Provider.EnvVar())
	}
	var provErr *model.ProviderError
	if errors.As(err, &provErr) {
		return fmt.Sprintf(reasonProvider, provErr.Error())
	}
	if errors.Is(err, interpret.ErrMalformedResponse) {
		return reasonMalformed
	}
	return reasonUnexpected
}
