package alert

import (
	"sync"
	"testing"
	"time"
)

func TestCooldownSuppression(t *testing.T) {
	t.Parallel()
	tr := NewCooldownTracker(30 * time.Minute)
	now := time.Unix(1_700_000_000, 0)
	tr.now = func() time.Time { return now }

	if !tr.Allow("u") {
		t.Fatal("first alert should pass")
	}
	now = now.Add(10 * time.Minute)
	if tr.Allow("u") {
		t.Fatal("second alert within window should be suppressed")
	}
	// Suppressed attempts must not reset the window.
	now = now.Add(21 * time.Minute) // 31m after the accepted alert
	if !tr.Allow("u") {
		t.Fatal("alert after window elapsed should pass")
	}
}

func TestCooldownIsolationBetweenSubjects(t *testing.T) {
	t.Parallel()
	tr := NewCooldownTracker(30 * time.Minute)
	if !tr.Allow("a") {
		t.Fatal("subject a should pass")
	}
	if !tr.Allow("b") {
		t.Fatal("subject b must not be suppressed by subject a")
	}
	if tr.Allow("a") || tr.Allow("b") {
		t.Fatal("repeat alerts within window should be suppressed")
	}
}

func TestCooldownEmptyKeyAlwaysAllowed(t *testing.T) {
	t.Parallel()
	tr := NewCooldownTracker(30 * time.Minute)
	for i := 0; i < 10; i++ {
		if !tr.Allow("") {
			t.Fatalf("untracked alert %d was suppressed", i)
		}
	}
}

func TestCooldownConcurrentTestAndSet(t *testing.T) {
	t.Parallel()
	tr := NewCooldownTracker(30 * time.Minute)

	const n = 16
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if tr.Allow("same") {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if allowed != 1 {
		t.Fatalf("allowed = %d, want exactly 1", allowed)
	}
}

func TestCooldownDefaultWindow(t *testing.T) {
	t.Parallel()
	tr := NewCooldownTracker(0)
	if tr.Window() != DefaultCooldown {
		t.Fatalf("Window = %v, want %v", tr.Window(), DefaultCooldown)
	}
}
