package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/dude613/avoda-desktop/internal/capture"
	"github.com/google/uuid"
)

// ErrInvalidTransition is returned when a command is issued in a state that
// forbids it. The session state is never changed by a rejected command.
var ErrInvalidTransition = errors.New("invalid transition")

// Notifier receives engine events for delivery to the presentation layer.
// Calls are made in state-change order while the engine lock is held, so
// implementations must not block.
type Notifier interface {
	StatusChanged(snap Snapshot)
}

// Recorder persists session lifecycle events. Implementations are optional
// collaborators: a nil Recorder disables persistence and a Recorder error
// never affects a transition.
type Recorder interface {
	SessionStarted(ctx context.Context, id string, startedAt time.Time) error
	SessionEnded(ctx context.Context, sum Summary) error
}

// Engine is the session state machine and elapsed-time accountant. It owns
// the capture scheduler's lifecycle and is the only writer of session
// state; all transitions are serialized by its mutex.
//
// Elapsed time is accumulated + (now - since) while Running. Both
// timestamps come from time.Now, whose monotonic reading keeps interval
// deltas non-negative across wall-clock adjustments.
type Engine struct {
	mu          sync.Mutex
	status      Status
	sessionID   string
	startedAt   time.Time
	since       time.Time
	accumulated time.Duration
	cancel      context.CancelFunc

	counter   *Counter
	captures  *capture.Store
	scheduler *capture.Scheduler
	notifier  Notifier
	recorder  Recorder

	now func() time.Time
}

func NewEngine(counter *Counter, captures *capture.Store, scheduler *capture.Scheduler, notifier Notifier, recorder Recorder) *Engine {
	return &Engine{
		counter:   counter,
		captures:  captures,
		scheduler: scheduler,
		notifier:  notifier,
		recorder:  recorder,
		now:       time.Now,
	}
}

// Start begins a new session: fresh id, zeroed counters, cleared captures,
// scheduler launched.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.status != Stopped {
		return fmt.Errorf("cannot start while %s: %w", e.status, ErrInvalidTransition)
	}

	now := e.now()
	e.sessionID = uuid.NewString()
	e.startedAt = now
	e.since = now
	e.accumulated = 0
	e.counter.Reset()
	e.captures.Clear()
	e.launchLocked()
	e.status = Running

	log.Printf("Session %s started", e.sessionID)
	if e.recorder != nil {
		if err := e.recorder.SessionStarted(context.Background(), e.sessionID, now); err != nil {
			log.Printf("Failed to record session start: %v", err)
		}
	}
	e.notifier.StatusChanged(e.snapshotLocked())
	return nil
}

// Pause banks the current running interval and halts capturing. The
// session's accumulated time and captures survive until resume or stop.
func (e *Engine) Pause() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.status != Running {
		return fmt.Errorf("cannot pause while %s: %w", e.status, ErrInvalidTransition)
	}

	e.accumulated += e.now().Sub(e.since)
	e.haltLocked()
	e.status = Paused

	log.Printf("Session %s paused at %s", e.sessionID, e.accumulated)
	e.notifier.StatusChanged(e.snapshotLocked())
	return nil
}

// Resume opens a new running interval and relaunches the scheduler.
func (e *Engine) Resume() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.status != Paused {
		return fmt.Errorf("cannot resume while %s: %w", e.status, ErrInvalidTransition)
	}

	e.since = e.now()
	e.launchLocked()
	e.status = Running

	log.Printf("Session %s resumed", e.sessionID)
	e.notifier.StatusChanged(e.snapshotLocked())
	return nil
}

// Stop ends the session from Running or Paused and resets everything.
// Stopping an already stopped session is a no-op.
func (e *Engine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.status == Stopped {
		return nil
	}

	now := e.now()
	if e.status == Running {
		e.accumulated += now.Sub(e.since)
	}
	counts := e.counter.Snapshot()
	sum := Summary{
		ID:          e.sessionID,
		StartedAt:   e.startedAt,
		EndedAt:     now,
		Duration:    e.accumulated,
		KeyPresses:  counts.KeyPresses,
		MouseClicks: counts.MouseClicks,
	}

	e.haltLocked()
	e.captures.Clear()
	e.counter.Reset()
	e.accumulated = 0
	e.sessionID = ""
	e.startedAt = time.Time{}
	e.status = Stopped

	log.Printf("Session %s stopped after %s", sum.ID, sum.Duration)
	if e.recorder != nil {
		if err := e.recorder.SessionEnded(context.Background(), sum); err != nil {
			log.Printf("Failed to record session end: %v", err)
		}
	}
	e.notifier.StatusChanged(e.snapshotLocked())
	return nil
}

// Close cancels any running scheduler without transitioning state. For
// process shutdown only.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.haltLocked()
}

// launchLocked starts a scheduler run for the current session. Caller must
// hold e.mu. Stop and pause cancel the run's context and return
// immediately; a capture already in flight is discarded on arrival by the
// store's context guard rather than awaited here.
func (e *Engine) launchLocked() {
	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	go e.scheduler.Run(ctx, e.sessionID)
}

// haltLocked cancels the scheduler run, if any. Caller must hold e.mu.
func (e *Engine) haltLocked() {
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
}

// Status returns the current state tag.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// Elapsed returns the session's running time so far. It is a pure function
// of state and now: accumulated plus the in-progress interval while
// Running, accumulated alone while Paused, zero while Stopped.
func (e *Engine) Elapsed() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.elapsedLocked()
}

func (e *Engine) elapsedLocked() time.Duration {
	switch e.status {
	case Running:
		return e.accumulated + e.now().Sub(e.since)
	case Paused:
		return e.accumulated
	default:
		return 0
	}
}

// Activity returns the current input totals without resetting them.
func (e *Engine) Activity() ActivityCounts {
	return e.counter.Snapshot()
}

// Snapshot returns a point-in-time view of the whole session.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() Snapshot {
	return Snapshot{
		Status:         e.status,
		SessionID:      e.sessionID,
		ElapsedSeconds: int64(e.elapsedLocked() / time.Second),
		Activity:       e.counter.Snapshot(),
		CaptureIDs:     e.captures.IDs(),
	}
}
