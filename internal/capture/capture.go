package capture

import (
	"context"
	"image"
	"time"
)

// Capture is one screenshot event's stored result. The payload is the
// encoded image, ready for transport; Apps is the best-effort list of
// applications visible when the frame was taken.
type Capture struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"sessionId"`
	Payload    string    `json:"data"`
	CapturedAt time.Time `json:"capturedAt"`
	Apps       []string  `json:"apps,omitempty"`
}

// Grabber obtains a raw frame from the host display.
type Grabber interface {
	Grab() (image.Image, error)
}

// Encoder turns a raw frame into a transportable string payload.
type Encoder interface {
	Encode(img image.Image) (string, error)
}

// Inspector reports the applications currently visible on the host,
// used to annotate captures. Implementations are best-effort.
type Inspector interface {
	Snapshot() ([]string, error)
}

// Events is the subset of outward notifications the scheduler emits.
type Events interface {
	CaptureTaken(id string)
	CaptureFailed(msg string)
}

// Sink receives stored captures for persistence. A nil Sink disables
// persistence; a Sink error is reported and never interrupts scheduling.
type Sink interface {
	CaptureSaved(ctx context.Context, c Capture) error
}

// Capabilities bundles the host-supplied collaborators the scheduler
// drives. Grabber and Encoder are required; Inspector and Sink may be nil.
type Capabilities struct {
	Grabber   Grabber
	Encoder   Encoder
	Inspector Inspector
	Sink      Sink
}
