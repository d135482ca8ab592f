package storage

import (
	"errors"
	"time"
)

var ErrDisabled = errors.New("storage disabled")

// Config configures storage.
//
// Driver values:
//   - "sqlite": SQLite database file
//
// If Driver is empty or "none", storage is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite busy handler; 0 means default
	Retain      time.Duration // drop samples older than this; 0 keeps 30 days
}

// PriceSample is one observed price for a product URL.
type PriceSample struct {
	URL   string
	Price float64
	At    time.Time
}
