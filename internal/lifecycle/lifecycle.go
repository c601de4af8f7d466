// Package lifecycle implements the Disabled / Starting / Enabled state machine
// that gates capture and decode work.
//
// Transitions are serialized by a mutex. The current state is also kept in an
// atomic word so the decode goroutine can read it without taking the lock.
// The settle delay between Starting and Enabled is not a sleep: Enable records
// a deadline tagged with a generation number, and the owner's tick calls
// Advance to complete the transition once the deadline has passed. Any later
// Enable or Disable bumps the generation and so supersedes the pending delay.
package lifecycle

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultSettleDelay is the warm-up period before frames are trusted.
const DefaultSettleDelay = 500 * time.Millisecond

// State is the reader state.
type State int32

const (
	Disabled State = iota
	Starting
	Enabled
)

func (s State) String() string {
	switch s {
	case Disabled:
		return "disabled"
	case Starting:
		return "starting"
	case Enabled:
		return "enabled"
	default:
		return "unknown"
	}
}

// Hooks are invoked while the transition lock is held. They must not call
// back into the Lifecycle.
type Hooks struct {
	// Starting runs on every Enable, after the state has become Starting.
	Starting func()
	// Disabled runs on every effective Disable, after the state has become Disabled.
	Disabled func()
	// Transition observes every state change.
	Transition func(from, to State)
}

// Options configures a Lifecycle.
type Options struct {
	SettleDelay time.Duration
	Now         func() time.Time
	Hooks       Hooks
	Logger      *slog.Logger
}

type settle struct {
	gen      uint64
	deadline time.Time
}

// Lifecycle is the reader state machine.
type Lifecycle struct {
	mu      sync.Mutex
	state   atomic.Int32
	gen     uint64
	pending *settle

	settleDelay time.Duration
	now         func() time.Time
	hooks       Hooks
	logger      *slog.Logger
}

// New returns a Lifecycle in the Disabled state.
func New(opts Options) *Lifecycle {
	if opts.SettleDelay < 0 {
		opts.SettleDelay = 0
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Lifecycle{
		settleDelay: opts.SettleDelay,
		now:         opts.Now,
		hooks:       opts.Hooks,
		logger:      opts.Logger,
	}
}

// State returns the current state. Safe to call from any goroutine.
func (l *Lifecycle) State() State {
	return State(l.state.Load())
}

// Enabled reports whether decode work is allowed.
func (l *Lifecycle) Enabled() bool {
	return l.State() == Enabled
}

// Enable moves to Starting and schedules the transition to Enabled after the
// settle delay. Calling Enable while Starting or Enabled restarts the sequence.
func (l *Lifecycle) Enable() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.gen++
	l.setState(Starting)
	if l.hooks.Starting != nil {
		l.hooks.Starting()
	}
	l.pending = &settle{gen: l.gen, deadline: l.now().Add(l.settleDelay)}
	l.logger.Debug("Settle delay scheduled", "generation", l.gen, "delay", l.settleDelay)
}

// Disable moves to Disabled and cancels any pending settle delay.
// It reports false, and does nothing, if the reader was already disabled.
func (l *Lifecycle) Disable() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.State() == Disabled && l.pending == nil {
		return false
	}
	l.gen++
	l.pending = nil
	l.setState(Disabled)
	if l.hooks.Disabled != nil {
		l.hooks.Disabled()
	}
	return true
}

// Advance completes a pending Starting -> Enabled transition whose deadline
// is not after now. It reports whether the state changed.
func (l *Lifecycle) Advance(now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	p := l.pending
	if p == nil || p.gen != l.gen || now.Before(p.deadline) {
		return false
	}
	l.pending = nil
	l.setState(Enabled)
	return true
}

// Pending reports whether a settle delay is outstanding.
func (l *Lifecycle) Pending() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pending != nil
}

// Generation returns the number of transitions requested so far.
func (l *Lifecycle) Generation() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.gen
}

// setState must be called with mu held.
func (l *Lifecycle) setState(to State) {
	from := State(l.state.Swap(int32(to)))
	if from == to {
		return
	}
	l.logger.Info("Reader state changed", "from", from.String(), "to", to.String())
	if l.hooks.Transition != nil {
		l.hooks.Transition(from, to)
	}
}
