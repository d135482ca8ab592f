// Package watch runs the periodic price sweep over the configured
// watchlist and feeds the alert dispatcher when a target is hit.
package watch

import (
	"context"
	"fmt"
	"time"

	"pricewatch/internal/config"
	logx "pricewatch/pkg/logx"
)

// PriceSource fetches the current price for a product URL.
type PriceSource interface {
	Price(ctx context.Context, url string) (float64, error)
}

// Notifier accepts alerts; the dispatcher implements it.
type Notifier interface {
	Notify(message string, critical bool, subjectKey string)
}

// Recorder persists observed price samples. May be left nil.
type Recorder interface {
	RecordPrice(ctx context.Context, url string, price float64, at time.Time) error
}

type Poller struct {
	log logx.Logger

	sched    Schedule
	products func() []config.Product
	prices   PriceSource
	notifier Notifier
	store    Recorder

	now func() time.Time // test hook
}

// NewPoller wires the sweep. products is read fresh on every tick so a
// hot-reloaded watchlist takes effect without a restart.
func NewPoller(sched Schedule, products func() []config.Product, prices PriceSource, notifier Notifier, store Recorder, log logx.Logger) *Poller {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Poller{
		log:      log,
		sched:    sched,
		products: products,
		prices:   prices,
		notifier: notifier,
		store:    store,
		now:      time.Now,
	}
}

// Run blocks, sweeping the watchlist on schedule until ctx is canceled.
// Sweeps never overlap: the next tick is computed after the current sweep
// finishes.
func (p *Poller) Run(ctx context.Context) error {
	p.log.Info("poller started", logx.String("schedule", p.sched.String()))
	for {
		p.Sweep(ctx)

		next := p.sched.Next(p.now())
		wait := time.Until(next)
		if wait < 0 {
			wait = 0
		}
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			p.log.Info("poller stopped")
			return nil
		case <-t.C:
		}
	}
}

// Sweep checks every product once.
func (p *Poller) Sweep(ctx context.Context) {
	products := p.products()
	if len(products) == 0 {
		p.log.Debug("watchlist empty; nothing to sweep")
		return
	}
	p.log.Info("sweeping watchlist", logx.Int("products", len(products)))

	for _, item := range products {
		if ctx.Err() != nil {
			return
		}
		p.checkOne(ctx, item)
	}
}

func (p *Poller) checkOne(ctx context.Context, item config.Product) {
	name := item.Name
	if name == "" {
		name = "unknown product"
	}
	if item.URL == "" {
		p.log.Warn("product has no url; skipping", logx.String("name", name))
		return
	}

	current, err := p.prices.Price(ctx, item.URL)
	if err != nil {
		p.log.Warn("price check failed",
			logx.String("name", name),
			logx.String("url", item.URL),
			logx.Err(err))
		return
	}

	p.log.Info("price checked",
		logx.String("name", name),
		logx.Float64("price", current),
		logx.Float64("target", item.TargetPrice))

	if p.store != nil {
		if err := p.store.RecordPrice(ctx, item.URL, current, p.now()); err != nil {
			p.log.Warn("price sample not recorded", logx.String("url", item.URL), logx.Err(err))
		}
	}

	if current > 0 && current <= item.TargetPrice {
		p.notifier.Notify(promoMessage(name, item.TargetPrice, current, item.URL), true, item.URL)
	}
}

func promoMessage(name string, target, current float64, url string) string {
	return fmt.Sprintf("🚨 PRICE DROP!\n\n📦 %s\n🎯 Target: R$ %.2f\n📉 Now: R$ %.2f\n🔗 %s",
		name, target, current, url)
}
