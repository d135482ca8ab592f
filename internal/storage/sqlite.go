package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	logx "pricewatch/pkg/logx"
)

const schema = `
CREATE TABLE IF NOT EXISTS price_history (
	id    INTEGER PRIMARY KEY AUTOINCREMENT,
	url   TEXT    NOT NULL,
	price REAL    NOT NULL,
	at    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_price_history_url_at ON price_history(url, at DESC);
`

type sqliteStore struct {
	db     *sql.DB
	log    logx.Logger
	retain time.Duration

	opCount    atomic.Uint64
	pruneEvery uint64
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	retain := cfg.Retain
	if retain <= 0 {
		retain = 30 * 24 * time.Hour
	}
	st := &sqliteStore{db: db, log: log, retain: retain, pruneEvery: 500}

	if cfg.BusyTimeout > 0 {
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	if _, err := db.ExecContext(context.Background(), schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) RecordPrice(ctx context.Context, url string, price float64, at time.Time) error {
	if s == nil || s.db == nil {
		return ErrDisabled
	}
	if url == "" {
		return nil
	}
	if at.IsZero() {
		at = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO price_history(url, price, at) VALUES(?,?,?)`,
		url, price, at.UnixMilli(),
	)
	if err == nil && s.opCount.Add(1)%s.pruneEvery == 0 {
		pctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		_ = s.pruneOld(pctx)
		cancel()
	}
	return err
}

func (s *sqliteStore) LastPrice(ctx context.Context, url string) (PriceSample, bool, error) {
	if s == nil || s.db == nil {
		return PriceSample{}, false, ErrDisabled
	}
	var (
		price float64
		ms    int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT price, at FROM price_history WHERE url = ? ORDER BY at DESC LIMIT 1`,
		url,
	).Scan(&price, &ms)
	if errors.Is(err, sql.ErrNoRows) {
		return PriceSample{}, false, nil
	}
	if err != nil {
		return PriceSample{}, false, err
	}
	return PriceSample{URL: url, Price: price, At: time.UnixMilli(ms)}, true, nil
}

func (s *sqliteStore) RecentPrices(ctx context.Context, url string, limit int) ([]PriceSample, error) {
	if s == nil || s.db == nil {
		return nil, ErrDisabled
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT price, at FROM price_history WHERE url = ? ORDER BY at DESC LIMIT ?`,
		url, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PriceSample
	for rows.Next() {
		var (
			price float64
			ms    int64
		)
		if err := rows.Scan(&price, &ms); err != nil {
			return nil, err
		}
		out = append(out, PriceSample{URL: url, Price: price, At: time.UnixMilli(ms)})
	}
	return out, rows.Err()
}

func (s *sqliteStore) pruneOld(ctx context.Context) error {
	cutoff := time.Now().Add(-s.retain).UnixMilli()
	res, err := s.db.ExecContext(ctx, `DELETE FROM price_history WHERE at < ?`, cutoff)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		s.log.Debug("pruned old price samples", logx.Int64("rows", n))
	}
	return nil
}
