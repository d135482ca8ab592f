// Package app wires configuration, channels, the dispatcher and the
// price poller into one runnable unit.
package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"pricewatch/internal/alert"
	"pricewatch/internal/channel/console"
	"pricewatch/internal/channel/telegram"
	"pricewatch/internal/config"
	"pricewatch/internal/price"
	"pricewatch/internal/storage"
	"pricewatch/internal/watch"
	logx "pricewatch/pkg/logx"
)

type App struct {
	cfgPath string
	cfgm    *config.Manager

	logs *logx.Service
	log  logx.Logger

	disp   *alert.Dispatcher
	tg     *telegram.Channel
	store  storage.Store
	poller *watch.Poller

	runCtx    context.Context
	runCancel context.CancelFunc
	wg        sync.WaitGroup
}

// New loads the config and constructs every component. Any error here is
// fatal: a watcher that cannot build its dispatch pipeline is useless.
func New(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logs, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	log = log.With(logx.String("comp", "app"))
	cfgm.SetLogger(log.With(logx.String("comp", "config")))
	cfgm.SetValidator(validateConfig)

	cooldown, err := config.ParseDurationOrDefault("alerts.cooldown", cfg.Alerts.Cooldown, alert.DefaultCooldown)
	if err != nil {
		return nil, err
	}
	deliverTimeout, err := config.ParseDurationField("alerts.deliver_timeout", cfg.Alerts.DeliverTimeout)
	if err != nil {
		return nil, err
	}

	disp := alert.New(alert.Config{
		Cooldown:       cooldown,
		FanoutBudget:   cfg.Alerts.FanoutBudget,
		DeliverTimeout: deliverTimeout,
	}, log.With(logx.String("comp", "alerts")))

	disp.Register(console.New(log.With(logx.String("comp", "console"))))

	chatID, err := cfg.Telegram.ParsedChatID()
	if err != nil {
		return nil, err
	}
	tg, err := telegram.New(telegram.Config{
		Token:      cfg.Telegram.Token,
		ChatID:     chatID,
		RatePerSec: cfg.Telegram.RatePerSec,
	}, log.With(logx.String("comp", "telegram")))
	if err != nil {
		// A broken bot credential shouldn't kill the watcher; console
		// delivery still works.
		log.Warn("telegram channel unavailable; continuing without it", logx.Err(err))
		tg = nil
	}
	if tg != nil && tg.Configured() {
		disp.Register(tg)
	}

	var store storage.Store
	if cfg.Storage != nil {
		busy, err := config.ParseDurationField("storage.busy_timeout", cfg.Storage.BusyTimeout)
		if err != nil {
			return nil, err
		}
		retain, err := config.ParseDurationField("storage.retain", cfg.Storage.Retain)
		if err != nil {
			return nil, err
		}
		store, err = storage.Open(storage.Config{
			Driver:      cfg.Storage.Driver,
			Path:        cfg.Storage.Path,
			BusyTimeout: busy,
			Retain:      retain,
		}, log.With(logx.String("comp", "storage")))
		if err != nil {
			return nil, fmt.Errorf("open storage: %w", err)
		}
	}

	pageTimeout, err := config.ParseDurationField("watch.page_timeout", cfg.Watch.PageTimeout)
	if err != nil {
		return nil, err
	}
	extractor := price.NewExtractor(price.ExtractorConfig{
		PageTimeout: pageTimeout,
	}, log.With(logx.String("comp", "price")))

	sched, err := watch.ParseSchedule(cfg.Watch.Schedule)
	if err != nil {
		return nil, err
	}
	var rec watch.Recorder
	if store != nil {
		rec = store
	}
	poller := watch.NewPoller(sched, cfgm.Products, extractor, disp, rec, log.With(logx.String("comp", "watch")))

	return &App{
		cfgPath: cfgPath,
		cfgm:    cfgm,
		logs:    logs,
		log:     log,
		disp:    disp,
		tg:      tg,
		store:   store,
		poller:  poller,
	}, nil
}

func validateConfig(_ context.Context, cfg *config.Config) error {
	if _, err := config.ParseDurationField("alerts.cooldown", cfg.Alerts.Cooldown); err != nil {
		return err
	}
	if _, err := config.ParseDurationField("alerts.deliver_timeout", cfg.Alerts.DeliverTimeout); err != nil {
		return err
	}
	if _, err := config.ParseDurationField("watch.page_timeout", cfg.Watch.PageTimeout); err != nil {
		return err
	}
	if _, err := watch.ParseSchedule(cfg.Watch.Schedule); err != nil {
		return err
	}
	if _, err := cfg.Telegram.ParsedChatID(); err != nil {
		return err
	}
	for i, p := range cfg.Products {
		if strings.TrimSpace(p.URL) == "" {
			return fmt.Errorf("products[%d]: url is required", i)
		}
	}
	return nil
}

// Start launches the background loops. The dispatcher runs detached from
// ctx so that Stop() controls its drain instead of an upstream cancel.
func (a *App) Start(ctx context.Context) error {
	a.runCtx, a.runCancel = context.WithCancel(ctx)

	a.disp.Start(context.Background())

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		_ = a.poller.Run(a.runCtx)
	}()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		_ = a.cfgm.Watch(a.runCtx)
	}()

	// Hot-reload fan-out: logging settings apply live; the watchlist is
	// re-read by the poller on every sweep.
	sub := a.cfgm.Subscribe(4)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer a.cfgm.Unsubscribe(sub)
		for {
			select {
			case <-a.runCtx.Done():
				return
			case newCfg, ok := <-sub:
				if !ok {
					return
				}
				a.logs.Apply(logx.Config{
					Level:   newCfg.Logging.Level,
					Console: newCfg.Logging.Console,
					File: logx.FileConfig{
						Enabled: newCfg.Logging.File.Enabled,
						Path:    newCfg.Logging.File.Path,
					},
				})
			}
		}
	}()

	if a.tg != nil && a.tg.Configured() {
		a.disp.Notify(fmt.Sprintf("🤖 pricewatch online, watching %d products", len(a.cfgm.Products())), false, "")
	}

	a.log.Info("started", logx.Int("products", len(a.cfgm.Products())))
	return nil
}

// Stop shuts components down in dependency order, each under its own
// bounded deadline so one stuck piece can't stall the whole exit.
func (a *App) Stop(ctx context.Context) error {
	if a.runCancel != nil {
		a.runCancel()
	}

	step := func(name string, max time.Duration, fn func(context.Context)) {
		stepCtx, cancel := context.WithTimeout(ctx, max)
		defer cancel()

		done := make(chan struct{})
		go func() {
			defer close(done)
			fn(stepCtx)
		}()
		select {
		case <-done:
		case <-stepCtx.Done():
			a.log.Warn("stop step deadline reached (continuing)", logx.String("name", name))
		}
	}

	// Dispatcher last-ish: let it drain what the poller already queued.
	step("dispatcher", 5*time.Second, func(c context.Context) { a.disp.Stop(c) })
	step("loops", 3*time.Second, func(c context.Context) {
		done := make(chan struct{})
		go func() {
			a.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-c.Done():
		}
	})

	if a.store != nil {
		_ = a.store.Close()
	}
	a.log.Info("stopped")
	_ = a.logs.Close()
	return nil
}
