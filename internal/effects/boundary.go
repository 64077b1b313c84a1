package effects

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/tomhutton/strata/internal/state"
)

// Policy declares how a workflow handles a Start that arrives while a
// previous Start for the same workflow is still outstanding.
type Policy int

const (
	// PolicyConcurrent lets tasks overlap; each settles independently.
	PolicyConcurrent Policy = iota

	// PolicyLatest cancels the outstanding task; only the newest Start
	// produces a terminal action (last-wins).
	PolicyLatest
)

// String returns the policy name for logs.
func (p Policy) String() string {
	switch p {
	case PolicyConcurrent:
		return "concurrent"
	case PolicyLatest:
		return "latest"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// Operation is the external asynchronous call of a workflow. It receives
// the Start action's payload via the action itself and returns the
// Success action, or an error to be translated into Failure.
//
// The context is cancelled when the task is superseded (PolicyLatest) or
// the boundary is closed; operations should honor it.
type Operation func(ctx context.Context, start state.Action) (state.Action, error)

// FailureBuilder converts an operation error into the workflow's Failure
// action. The error reason becomes ordinary state data downstream.
type FailureBuilder func(start state.Action, err error) state.Action

// Workflow declares one effect workflow: which Start kind triggers it,
// its concurrency policy, and how outcomes map to terminal actions.
type Workflow struct {
	Start  state.Kind
	Policy Policy
	Run    Operation
	Fail   FailureBuilder
}

// Boundary intercepts Start actions on a store and runs their workflows.
//
// The boundary registers itself as a store tap; interception is
// pass-through and never blocks the Start dispatch. All boundary state
// is bookkeeping (in-flight tasks) - it holds no state-tree data.
type Boundary struct {
	store *state.Store
	gen   TokenGenerator
	log   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	workflows map[state.Kind]Workflow
	inflight  map[state.Kind]*task // newest task per kind (PolicyLatest bookkeeping)
	closed    bool

	wg sync.WaitGroup
}

// task is one in-flight effect: an external operation plus the promise
// of exactly one terminal dispatch, unless cancelled first.
type task struct {
	token  string
	kind   state.Kind
	ctx    context.Context
	cancel context.CancelFunc

	// settled flips exactly once: either the terminal dispatch claims it
	// or cancellation does. Whoever wins the swap owns the outcome, so a
	// cancelled task can never dispatch after cancellation.
	settled atomic.Bool
}

// Registration errors. These are composition defects, reported at
// Register time rather than at dispatch time.
var (
	ErrDuplicateWorkflow = errors.New("effects: workflow already registered for start kind")
	ErrInvalidWorkflow   = errors.New("effects: workflow must declare a start kind, an operation, and a failure builder")
	ErrClosed            = errors.New("effects: boundary is closed")
)

// BoundaryOption configures a Boundary at construction time.
type BoundaryOption func(*Boundary)

// WithTokenGenerator sets the task token source. Defaults to UUIDv7.
func WithTokenGenerator(gen TokenGenerator) BoundaryOption {
	return func(b *Boundary) {
		b.gen = gen
	}
}

// WithLogger sets the structured logger for task lifecycle events.
// Defaults to slog.Default().
func WithLogger(log *slog.Logger) BoundaryOption {
	return func(b *Boundary) {
		b.log = log
	}
}

// New creates a boundary over the store and attaches it as an action
// tap. Workflows are added with Register before any triggering dispatch.
func New(store *state.Store, opts ...BoundaryOption) *Boundary {
	ctx, cancel := context.WithCancel(context.Background())
	b := &Boundary{
		store:     store,
		gen:       UUIDv7Generator{},
		log:       slog.Default(),
		ctx:       ctx,
		cancel:    cancel,
		workflows: make(map[state.Kind]Workflow),
		inflight:  make(map[state.Kind]*task),
	}
	for _, opt := range opts {
		opt(b)
	}
	store.Tap(b.intercept)
	return b
}

// Register adds a workflow. The start kind must be unique across the
// boundary: one workflow owns one Start kind.
func (b *Boundary) Register(w Workflow) error {
	if w.Start == "" || w.Run == nil || w.Fail == nil {
		return ErrInvalidWorkflow
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	if _, dup := b.workflows[w.Start]; dup {
		return fmt.Errorf("%w: %s", ErrDuplicateWorkflow, w.Start)
	}
	b.workflows[w.Start] = w
	return nil
}

// intercept is the store tap. It matches Start kinds and launches tasks;
// everything else passes through untouched.
func (b *Boundary) intercept(act state.Action) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	w, ok := b.workflows[act.Kind()]
	if !ok {
		return
	}

	if w.Policy == PolicyLatest {
		if prev := b.inflight[w.Start]; prev != nil {
			b.supersede(prev)
		}
	}

	ctx, cancel := context.WithCancel(b.ctx)
	t := &task{
		token:  b.gen.Generate(),
		kind:   w.Start,
		ctx:    ctx,
		cancel: cancel,
	}
	b.inflight[w.Start] = t

	b.log.Debug("effect task started",
		"task", t.token,
		"kind", t.kind,
		"policy", w.Policy.String(),
	)

	b.wg.Add(1)
	go b.run(w, t, act)
}

// supersede cancels an outstanding task. Called with b.mu held.
func (b *Boundary) supersede(t *task) {
	// Claim the task before cancelling: once settled is won here, the
	// run goroutine can no longer dispatch a terminal action.
	if t.settled.CompareAndSwap(false, true) {
		b.log.Debug("effect task superseded", "task", t.token, "kind", t.kind)
	}
	t.cancel()
}

// run executes the external operation and dispatches the terminal
// action. Runs in its own goroutine, one per task.
func (b *Boundary) run(w Workflow, t *task, start state.Action) {
	defer b.wg.Done()
	defer t.cancel()

	result, err := w.Run(t.ctx, start)

	// A task that lost the settle race (superseded or boundary closed)
	// must never dispatch its terminal action.
	if !t.settled.CompareAndSwap(false, true) {
		return
	}
	b.clearInflight(t)

	var terminal state.Action
	if err != nil {
		terminal = w.Fail(start, err)
		b.log.Debug("effect task failed", "task", t.token, "kind", t.kind, "error", err)
	} else {
		terminal = result
		b.log.Debug("effect task succeeded", "task", t.token, "kind", t.kind)
	}
	if terminal == nil {
		b.log.Error("effect workflow produced nil terminal action",
			"task", t.token,
			"kind", t.kind,
		)
		return
	}

	// Terminal re-entry goes through the ordinary dispatch entry point;
	// it is serialized behind whatever dispatch is in flight, which is
	// what guarantees Start-before-terminal ordering.
	if err := b.store.Dispatch(terminal); err != nil {
		// Log and continue: a fault here is a wiring defect, and the
		// boundary has no caller to hand it to.
		b.log.Error("effect terminal dispatch failed",
			"task", t.token,
			"kind", t.kind,
			"terminal", terminal.Kind(),
			"error", err,
		)
	}
}

// clearInflight removes the task from the bookkeeping map if it is
// still the current task for its kind.
func (b *Boundary) clearInflight(t *task) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.inflight[t.kind] == t {
		delete(b.inflight, t.kind)
	}
}

// Inflight returns the number of tasks currently outstanding.
// Useful for monitoring and testing.
func (b *Boundary) Inflight() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.inflight)
}

// Drain blocks until every launched task goroutine has finished or the
// context is cancelled. Dispatching further Start actions while draining
// is a caller error; Drain is meant for quiescent points (scenario step
// boundaries, shutdown).
func (b *Boundary) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// Close cancels all outstanding tasks and stops accepting new Starts.
// Cancelled tasks never dispatch their terminal actions. Close waits
// for task goroutines to exit.
func (b *Boundary) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	for _, t := range b.inflight {
		b.supersede(t)
	}
	b.inflight = make(map[state.Kind]*task)
	b.mu.Unlock()

	b.cancel()
	b.wg.Wait()
}
