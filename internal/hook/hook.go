// Package hook installs global input listeners used to attribute
// keyboard and mouse activity to the running session.
package hook

import (
	"context"
	"errors"
)

// ErrUnavailable is returned by Start on platforms without global input
// hook support. Callers should treat it as a degraded mode, not a fatal
// error: the rest of the tracker keeps working without activity counts.
var ErrUnavailable = errors.New("input hooks unavailable")

// Callbacks receives input notifications. Handlers run on the hook
// thread and must return quickly.
type Callbacks struct {
	OnKeyPress   func()
	OnMouseClick func()
}

// Listener owns the platform hook lifecycle.
type Listener struct {
	cb Callbacks
}

func New(cb Callbacks) *Listener {
	return &Listener{cb: cb}
}

// Start installs the hooks and blocks servicing input events until ctx
// is cancelled. On platforms without hook support it returns an error
// wrapping ErrUnavailable immediately.
func (l *Listener) Start(ctx context.Context) error {
	return l.run(ctx)
}
