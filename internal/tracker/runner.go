// ABOUTME: Drives a session from a location source and a one-second tick
// ABOUTME: Serializes fixes and ticks onto a single goroutine

package tracker

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harper/runtrack/internal/location"
	"github.com/harper/runtrack/internal/models"
)

// Ticker delivers periodic ticks. time.Ticker satisfies it through wallTicker.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type wallTicker struct{ t *time.Ticker }

func (w wallTicker) C() <-chan time.Time { return w.t.C }
func (w wallTicker) Stop()               { w.t.Stop() }

// NewWallTicker ticks every second of wall-clock time.
func NewWallTicker() Ticker {
	return wallTicker{t: time.NewTicker(time.Second)}
}

// Runner feeds a Session from a Source. It is the only goroutine that
// touches the session while Run is executing.
type Runner struct {
	session   *Session
	source    location.Source
	newTicker func() Ticker
	fixClock  bool
	onUpdate  func(Snapshot)
	logger    *log.Logger

	fixOrigin time.Time
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithTicker replaces the wall-clock ticker.
func WithTicker(newTicker func() Ticker) RunnerOption {
	return func(r *Runner) {
		r.newTicker = newTicker
	}
}

// WithFixClock derives elapsed time from fix timestamps instead of a ticker:
// before each fix the session receives one tick per whole second since the
// first fix. Used for replaying recorded tracks faster than real time.
func WithFixClock() RunnerOption {
	return func(r *Runner) {
		r.fixClock = true
	}
}

// WithUpdates registers a callback invoked after every tick or fix.
func WithUpdates(fn func(Snapshot)) RunnerOption {
	return func(r *Runner) {
		r.onUpdate = fn
	}
}

// WithRunnerLogger sets the logger for source failures.
func WithRunnerLogger(l *log.Logger) RunnerOption {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRunner creates a runner for session fed by source.
func NewRunner(session *Session, source location.Source, opts ...RunnerOption) *Runner {
	r := &Runner{
		session:   session,
		source:    source,
		newTicker: NewWallTicker,
		logger:    session.logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type sourceEvent struct {
	fix models.Fix
	err error
}

// Run starts the session if it is idle and processes fixes and ticks until the
// source is exhausted or ctx is cancelled. The session is always stopped on
// return. A source failure other than io.EOF is logged and the session keeps
// counting time until ctx is done.
func (r *Runner) Run(ctx context.Context) error {
	if r.session.State() == Idle {
		if err := r.session.Start(); err != nil {
			return err
		}
	}
	defer func() { _ = r.session.Stop() }()

	pullCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	events := make(chan sourceEvent)
	go r.pull(pullCtx, events)

	var ticks <-chan time.Time
	if !r.fixClock {
		ticker := r.newTicker()
		defer ticker.Stop()
		ticks = ticker.C()
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-ticks:
			r.session.Tick()
			r.notify()

		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if ev.err != nil {
				if errors.Is(ev.err, io.EOF) {
					return nil
				}
				if errors.Is(ev.err, context.Canceled) || errors.Is(ev.err, context.DeadlineExceeded) {
					return nil
				}
				r.logger.Warn("location source failed, tracking time only", "err", ev.err)
				if r.fixClock {
					return nil
				}
				events = nil
				continue
			}
			r.ingest(ev.fix)
		}
	}
}

func (r *Runner) ingest(fix models.Fix) {
	if r.fixClock && !fix.Time.IsZero() {
		if r.fixOrigin.IsZero() {
			r.fixOrigin = fix.Time
		}
		want := int64(fix.Time.Sub(r.fixOrigin) / time.Second)
		for r.session.ElapsedSeconds() < want {
			r.session.Tick()
		}
	}
	if err := r.session.IngestFix(fix.Point); err != nil {
		r.logger.Warn("dropped fix", "err", err)
	}
	r.notify()
}

func (r *Runner) notify() {
	if r.onUpdate != nil {
		r.onUpdate(r.session.Snapshot())
	}
}

// pull reads the source until it fails, sending every result to events.
func (r *Runner) pull(ctx context.Context, events chan<- sourceEvent) {
	defer close(events)
	for {
		fix, err := r.source.Next(ctx)
		select {
		case events <- sourceEvent{fix: fix, err: err}:
		case <-ctx.Done():
			return
		}
		if err != nil {
			return
		}
	}
}
