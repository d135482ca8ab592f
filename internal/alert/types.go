// Package alert is the notification dispatch pipeline: a priority queue
// feeding a single consumer loop that suppresses repeats per subject and
// fans deliveries out to every registered channel under a bounded worker
// budget.
package alert

import "context"

// Priority orders pending notifications. Critical items are always
// dispatched before Info items queued ahead of them.
type Priority int

const (
	Info Priority = iota
	Critical
)

func (p Priority) String() string {
	switch p {
	case Critical:
		return "critical"
	case Info:
		return "info"
	default:
		return "unknown"
	}
}

// Notification is an immutable alert value. It is created when a price
// condition fires and discarded after every channel has been attempted;
// no delivery receipt is kept.
type Notification struct {
	Message  string
	Priority Priority
}

// Channel is a single delivery target (console, Telegram, ...).
//
// Implementations must be safe for concurrent Deliver calls and must not
// share mutable state with other channels; that is what makes concurrent
// fan-out safe. A returned error marks the attempt failed; there is no
// retry.
type Channel interface {
	Name() string
	Deliver(ctx context.Context, n Notification) error
}
