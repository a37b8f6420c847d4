package capture

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/dude613/avoda-desktop/internal/config"
	"github.com/google/uuid"
)

// Scheduler drives periodic captures while a session is running. The engine
// launches one run per running interval and cancels it on pause or stop; the
// scheduler itself owns no session state.
type Scheduler struct {
	caps      Capabilities
	store     *Store
	events    Events
	privacy   *PrivacyFilter
	interval  time.Duration
	jitter    time.Duration
	maxApps   int
	threshold int
	health    grabHealth

	// runMu serializes runs: a relaunch on resume must not capture
	// concurrently with a cancelled run still draining a blocking grab.
	runMu sync.Mutex
	rand  *rand.Rand
}

func NewScheduler(cfg *config.Config, caps Capabilities, store *Store, events Events) *Scheduler {
	return &Scheduler{
		caps:   caps,
		store:  store,
		events: events,
		privacy: &PrivacyFilter{
			MaskAppNames: cfg.Privacy.MaskAppNames,
			BlockedApps:  cfg.Privacy.BlockedApps,
		},
		interval:  cfg.Capture.Interval,
		jitter:    cfg.Capture.Jitter,
		maxApps:   cfg.Capture.MaxApps,
		threshold: cfg.Capture.FailureThreshold,
		rand:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Run captures frames for one running interval until ctx is cancelled.
// Ticks never overlap: the next delay is armed only after the current tick
// finishes, so a slow capture delays the next one instead of racing it.
func (s *Scheduler) Run(ctx context.Context, sessionID string) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	if ctx.Err() != nil {
		return
	}
	log.Printf("Capture scheduler started (session %s, interval %s)", sessionID, s.interval)

	timer := time.NewTimer(s.nextDelay())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("Capture scheduler stopped (session %s)", sessionID)
			return
		case <-timer.C:
			s.tick(ctx, sessionID)
			timer.Reset(s.nextDelay())
		}
	}
}

// nextDelay returns the delay until the next tick, spread across
// interval±jitter when jitter is configured.
func (s *Scheduler) nextDelay() time.Duration {
	d := s.interval
	if s.jitter > 0 {
		d += time.Duration(s.rand.Int63n(int64(2*s.jitter))) - s.jitter
	}
	if d < time.Millisecond {
		d = time.Millisecond
	}
	return d
}

// tick performs one capture attempt. A failure is reported and scheduling
// continues; only cancellation ends the run.
func (s *Scheduler) tick(ctx context.Context, sessionID string) {
	img, err := s.caps.Grabber.Grab()
	if ctx.Err() != nil {
		// Cancelled while the grab was in flight; the result is stale.
		return
	}
	if err != nil {
		if s.health.recordFailure(err, s.threshold) {
			log.Printf("Screen capture degraded after %d consecutive failures: %v", s.threshold, err)
			s.events.CaptureFailed(fmt.Sprintf("screen capture degraded: %v", err))
		} else {
			s.events.CaptureFailed(fmt.Sprintf("screen capture failed: %v", err))
		}
		log.Printf("Screen capture failed: %v", err)
		return
	}
	if s.health.recordSuccess() {
		log.Printf("Screen capture recovered")
	}

	payload, err := s.caps.Encoder.Encode(img)
	if err != nil {
		log.Printf("Frame encode failed: %v", err)
		s.events.CaptureFailed(fmt.Sprintf("frame encode failed: %v", err))
		return
	}

	c := Capture{
		ID:         uuid.NewString(),
		SessionID:  sessionID,
		Payload:    payload,
		CapturedAt: time.Now(),
		Apps:       s.collectApps(),
	}

	if _, inserted := s.store.Insert(ctx, c); !inserted {
		return
	}
	s.events.CaptureTaken(c.ID)

	if s.caps.Sink != nil {
		if err := s.caps.Sink.CaptureSaved(ctx, c); err != nil {
			log.Printf("Capture save failed: %v", err)
			s.events.CaptureFailed(fmt.Sprintf("failed to save capture: %v", err))
		}
	}
}

// collectApps gathers the visible-app metadata for a capture. Metadata is
// best-effort: an inspector failure degrades to an empty list.
func (s *Scheduler) collectApps() []string {
	if s.caps.Inspector == nil {
		return nil
	}

	apps, err := s.caps.Inspector.Snapshot()
	if err != nil {
		log.Printf("App snapshot failed: %v", err)
		return nil
	}
	if s.maxApps > 0 && len(apps) > s.maxApps {
		apps = apps[:s.maxApps]
	}
	return s.privacy.FilterApps(apps)
}

// Health reports the grabber's consecutive failure count and whether the
// capability is currently considered degraded.
func (s *Scheduler) Health() (failures int, degraded bool, lastErr string) {
	return s.health.snapshot()
}
