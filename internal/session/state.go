package session

import (
	"encoding/json"
	"time"
)

type Status int

const (
	Stopped Status = iota
	Running
	Paused
)

var statusNames = map[Status]string{
	Stopped: "stopped",
	Running: "running",
	Paused:  "paused",
}

var statusFromName = map[string]Status{
	"stopped": Stopped,
	"running": Running,
	"paused":  Paused,
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	if v, ok := statusFromName[name]; ok {
		*s = v
	}
	return nil
}

// Snapshot is a point-in-time view of the session, served to the
// presentation layer on query and on every status change.
type Snapshot struct {
	Status         Status         `json:"status"`
	SessionID      string         `json:"sessionId,omitempty"`
	ElapsedSeconds int64          `json:"elapsedSeconds"`
	Activity       ActivityCounts `json:"activity"`
	CaptureIDs     []string       `json:"captureIds"`
}

// Summary describes a finished session. It is computed during stop, before
// the engine resets its counters, so the final totals survive the reset.
type Summary struct {
	ID          string
	StartedAt   time.Time
	EndedAt     time.Time
	Duration    time.Duration
	KeyPresses  uint64
	MouseClicks uint64
}
