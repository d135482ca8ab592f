package alert

import (
	"sync"
	"time"
)

// DefaultCooldown is the minimum gap between two accepted alerts for the
// same subject key.
const DefaultCooldown = 30 * time.Minute

// CooldownTracker throttles alerts per subject key (typically a product URL).
//
// Entries never expire: the map is bounded by the number of distinct
// subjects on the watchlist, not by time. Elapsed-time comparisons use
// time.Time's monotonic reading, so wall-clock adjustments cannot
// re-open or extend a window.
type CooldownTracker struct {
	mu     sync.Mutex
	window time.Duration
	last   map[string]time.Time

	now func() time.Time // test hook
}

func NewCooldownTracker(window time.Duration) *CooldownTracker {
	if window <= 0 {
		window = DefaultCooldown
	}
	return &CooldownTracker{
		window: window,
		last:   map[string]time.Time{},
		now:    time.Now,
	}
}

// Allow reports whether a new alert for key may proceed. An empty key is
// never throttled (startup banners and other untracked alerts).
//
// On true it records now as the key's last-alert time before returning
// (test-and-set under one lock), so two concurrent callers for the same
// key cannot both pass. A suppressed call has no side effects: it does
// not reset the window.
func (t *CooldownTracker) Allow(key string) bool {
	if key == "" {
		return true
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if last, ok := t.last[key]; ok && now.Sub(last) < t.window {
		return false
	}
	t.last[key] = now
	return true
}

// Window returns the configured cooldown window.
func (t *CooldownTracker) Window() time.Duration { return t.window }
