package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	logx "pricewatch/pkg/logx"
)

// Store is the persistence API used by the watcher.
type Store interface {
	RecordPrice(ctx context.Context, url string, price float64, at time.Time) error
	LastPrice(ctx context.Context, url string) (PriceSample, bool, error)
	RecentPrices(ctx context.Context, url string, limit int) ([]PriceSample, error)
	Close() error
}

// Open initializes the configured store.
// It returns (nil, nil) if storage is disabled.
func Open(cfg Config, log logx.Logger) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" || driver == "none" {
		return nil, nil
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	switch driver {
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown storage driver: " + driver)
	}
}
