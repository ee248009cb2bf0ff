// Package lifecycle runs the dashboard's long-running actions (AI syncs,
// uploads, simulated scans) and the deferred per-record transitions.
package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type Phase int

const (
	Idle Phase = iota
	Pending
	Succeeded
	Failed
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// MarshalText lets statuses travel as JSON with readable phases.
func (p Phase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *Phase) UnmarshalText(text []byte) error {
	for _, candidate := range []Phase{Idle, Pending, Succeeded, Failed} {
		if candidate.String() == string(text) {
			*p = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", text)
}

// Settled reports whether p is a terminal phase of a run.
func (p Phase) Settled() bool { return p == Succeeded || p == Failed }

// Status is a snapshot of an action.
type Status struct {
	Action    string    `json:"action"`
	Phase     Phase     `json:"phase"`
	Message   string    `json:"message,omitempty"`
	StartedAt time.Time `json:"startedAt,omitempty"`
	SettledAt time.Time `json:"settledAt,omitempty"`
}

// Func is the work of one run. The returned message is shown when the run
// succeeds; an error is shown when it fails.
type Func func(ctx context.Context) (string, error)

// DefaultWindow is how long a settled status stays visible.
const DefaultWindow = 5 * time.Second

type Option func(*Action)

// WithObserver reports every phase change.
func WithObserver(fn func(Status)) Option {
	return func(a *Action) { a.observe = fn }
}

// WithClock replaces time.Now for status timestamps.
func WithClock(now func() time.Time) Option {
	return func(a *Action) { a.now = now }
}

// Action is one named button of the dashboard. At most one run is pending at
// a time; a settled status reverts to Idle after the display window unless a
// newer run has started.
type Action struct {
	name    string
	window  time.Duration
	now     func() time.Time
	observe func(Status)

	mu     sync.Mutex
	status Status
	gen    uint64
	revert *time.Timer
}

func NewAction(name string, window time.Duration, opts ...Option) *Action {
	if window <= 0 {
		window = DefaultWindow
	}
	a := &Action{
		name:   name,
		window: window,
		now:    time.Now,
		status: Status{Action: name, Phase: Idle},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Action) Name() string { return a.name }

func (a *Action) Status() Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

// Trigger starts fn on its own goroutine. While a run is pending it does
// nothing and returns false. The returned channel receives the settled
// status once and is then closed.
func (a *Action) Trigger(ctx context.Context, fn Func) (<-chan Status, bool) {
	a.mu.Lock()
	if a.status.Phase == Pending {
		a.mu.Unlock()
		return nil, false
	}
	if a.revert != nil {
		a.revert.Stop()
		a.revert = nil
	}
	a.gen++
	gen := a.gen
	a.status = Status{Action: a.name, Phase: Pending, StartedAt: a.now()}
	pending := a.status
	a.mu.Unlock()
	a.report(pending)

	done := make(chan Status, 1)
	go func() {
		defer close(done)
		msg, err := run(ctx, fn)
		done <- a.settle(gen, msg, err)
	}()
	return done, true
}

func run(ctx context.Context, fn Func) (msg string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("action panicked: %v", r)
		}
	}()
	return fn(ctx)
}

func (a *Action) settle(gen uint64, msg string, err error) Status {
	a.mu.Lock()
	st := Status{Action: a.name, Phase: Succeeded, Message: msg, StartedAt: a.status.StartedAt, SettledAt: a.now()}
	if err != nil {
		st.Phase = Failed
		st.Message = err.Error()
	}
	a.status = st
	a.revert = time.AfterFunc(a.window, func() { a.expire(gen) })
	a.mu.Unlock()
	a.report(st)
	return st
}

func (a *Action) expire(gen uint64) {
	a.mu.Lock()
	if a.gen != gen || !a.status.Phase.Settled() {
		a.mu.Unlock()
		return
	}
	a.status = Status{Action: a.name, Phase: Idle}
	a.revert = nil
	idle := a.status
	a.mu.Unlock()
	a.report(idle)
}

// Stop cancels a pending auto-revert.
func (a *Action) Stop() {
	a.mu.Lock()
	if a.revert != nil {
		a.revert.Stop()
		a.revert = nil
	}
	a.mu.Unlock()
}

func (a *Action) report(st Status) {
	if a.observe != nil {
		a.observe(st)
	}
}

// Simulate waits d, or until ctx is done.
func Simulate(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
