package session

import "sync/atomic"

// ActivityCounts is a snapshot of the raw input totals for the current
// session.
type ActivityCounts struct {
	KeyPresses  uint64 `json:"keyPresses"`
	MouseClicks uint64 `json:"mouseClicks"`
}

// Counter accumulates raw input events. The input hook pushes increments
// from its own callback thread while the query path reads snapshots, so all
// access goes through atomics. The hook itself never gates on session
// state; the engine's resets on start/stop are what scope the totals to a
// session.
type Counter struct {
	keyPresses  atomic.Uint64
	mouseClicks atomic.Uint64
}

func NewCounter() *Counter {
	return &Counter{}
}

func (c *Counter) RecordKeyPress() {
	c.keyPresses.Add(1)
}

func (c *Counter) RecordMouseClick() {
	c.mouseClicks.Add(1)
}

// Snapshot returns the current totals without resetting them. A snapshot
// concurrent with increments may observe either side of an increment, never
// a torn value.
func (c *Counter) Snapshot() ActivityCounts {
	return ActivityCounts{
		KeyPresses:  c.keyPresses.Load(),
		MouseClicks: c.mouseClicks.Load(),
	}
}

// Reset zeroes both counters. Called only by the engine on start and stop.
func (c *Counter) Reset() {
	c.keyPresses.Store(0)
	c.mouseClicks.Store(0)
}
