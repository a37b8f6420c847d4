package capture

import "sync"

// grabHealth tracks consecutive screen-grab failures so a dead capability
// can be told apart from a one-off failure. Fields are protected by mu
// because the scheduler writes from its run goroutine while queries may
// read from the request path.
type grabHealth struct {
	mu       sync.Mutex
	failures int
	lastErr  string
	degraded bool
}

// recordFailure counts a failed grab and reports whether this failure
// crossed the threshold into the degraded state.
func (h *grabHealth) recordFailure(err error, threshold int) (justDegraded bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.failures++
	h.lastErr = err.Error()
	if !h.degraded && threshold > 0 && h.failures >= threshold {
		h.degraded = true
		return true
	}
	return false
}

// recordSuccess resets the failure streak and reports whether the
// capability just recovered from the degraded state.
func (h *grabHealth) recordSuccess() (justRecovered bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	recovered := h.degraded
	h.failures = 0
	h.lastErr = ""
	h.degraded = false
	return recovered
}

// snapshot returns a consistent copy of all health fields under the lock.
func (h *grabHealth) snapshot() (failures int, degraded bool, lastErr string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.failures, h.degraded, h.lastErr
}
