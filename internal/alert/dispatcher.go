package alert

import (
	"context"
	"sync"
	"time"

	logx "pricewatch/pkg/logx"
)

// Config controls the dispatch pipeline.
//
// All zero values fall back to defaults, so Config{} is usable.
type Config struct {
	// Cooldown is the per-subject suppression window.
	Cooldown time.Duration

	// FanoutBudget bounds concurrent delivery attempts for one
	// notification. The budget is a long-lived semaphore, not a pool
	// rebuilt per dispatch.
	FanoutBudget int

	// DeliverTimeout bounds a single channel attempt.
	DeliverTimeout time.Duration

	// WaitTimeout is how long the loop blocks waiting for work before
	// re-checking the stop signal.
	WaitTimeout time.Duration
}

func (c *Config) defaults() {
	if c.Cooldown <= 0 {
		c.Cooldown = DefaultCooldown
	}
	if c.FanoutBudget <= 0 {
		c.FanoutBudget = 3
	}
	if c.DeliverTimeout <= 0 {
		c.DeliverTimeout = 10 * time.Second
	}
	if c.WaitTimeout <= 0 {
		c.WaitTimeout = time.Second
	}
}

// Dispatcher owns the pending queue, the cooldown tracker and the channel
// registry. Producers call Notify; a single background loop drains the
// queue and fans each notification out to all channels.
//
// The pipeline is fire-and-forget: channel failures are logged and never
// surface to Notify callers.
type Dispatcher struct {
	log logx.Logger
	cfg Config

	cooldown *CooldownTracker
	sem      chan struct{}

	mu        sync.Mutex
	queue     pending
	channels  []Channel
	accepting bool

	wake   chan struct{}
	stopCh chan struct{}

	startMu   sync.Mutex
	started   bool
	stopOnce  sync.Once
	runCtx    context.Context
	runCancel context.CancelFunc
	loopDone  chan struct{}
}

func New(cfg Config, log logx.Logger) *Dispatcher {
	cfg.defaults()
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Dispatcher{
		log:       log,
		cfg:       cfg,
		cooldown:  NewCooldownTracker(cfg.Cooldown),
		sem:       make(chan struct{}, cfg.FanoutBudget),
		accepting: true,
		wake:      make(chan struct{}, 1),
		stopCh:    make(chan struct{}),
		loopDone:  make(chan struct{}),
	}
}

// Register appends a channel to the registry. Registering before Start is
// always safe; registering after Start is permitted but not guaranteed
// race-free against an in-flight fan-out snapshot.
func (d *Dispatcher) Register(ch Channel) {
	if ch == nil {
		return
	}
	d.mu.Lock()
	d.channels = append(d.channels, ch)
	d.mu.Unlock()
}

// Notify enqueues an alert. It never blocks on delivery: the cooldown
// check is a cheap in-memory test-and-set, and the enqueue is O(log n).
//
// subjectKey groups alerts for cooldown purposes (empty = untracked,
// never suppressed). A suppressed or dropped call is observable only in
// the log, never as an error.
func (d *Dispatcher) Notify(message string, critical bool, subjectKey string) {
	if !d.cooldown.Allow(subjectKey) {
		d.log.Info("alert suppressed (cooldown)",
			logx.String("subject", subjectKey),
			logx.String("msg", prefix(message, 48)))
		return
	}

	p := Info
	if critical {
		p = Critical
	}

	d.mu.Lock()
	if !d.accepting {
		d.mu.Unlock()
		// Items arriving after Stop began are dropped, never queued.
		d.log.Debug("alert dropped (dispatcher stopping)", logx.String("msg", prefix(message, 48)))
		return
	}
	d.queue.push(Notification{Message: message, Priority: p})
	depth := d.queue.Len()
	d.mu.Unlock()

	d.log.Debug("alert queued",
		logx.String("priority", p.String()),
		logx.Int("depth", depth))

	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// Start launches the background dispatch loop. Calling Start twice is a
// no-op.
func (d *Dispatcher) Start(ctx context.Context) {
	d.startMu.Lock()
	defer d.startMu.Unlock()
	if d.started {
		return
	}
	d.started = true
	d.runCtx, d.runCancel = context.WithCancel(ctx)

	go func() {
		defer close(d.loopDone)
		d.loop()
	}()
	d.log.Info("dispatch loop started",
		logx.Duration("cooldown", d.cooldown.Window()),
		logx.Int("fanout_budget", d.cfg.FanoutBudget))
}

// Stop blocks new alerts, drains the already-enqueued ones and shuts the
// loop down. It is idempotent and bounded: once the caller's deadline (or
// a 5s default grace) elapses, remaining work is abandoned.
func (d *Dispatcher) Stop(ctx context.Context) {
	d.mu.Lock()
	d.accepting = false
	d.mu.Unlock()

	d.stopOnce.Do(func() { close(d.stopCh) })

	d.startMu.Lock()
	started := d.started
	cancel := d.runCancel
	d.startMu.Unlock()
	if !started {
		return
	}

	grace := 5 * time.Second
	if dl, ok := ctx.Deadline(); ok {
		if rem := time.Until(dl); rem > 0 && rem < grace {
			grace = rem
		}
	}
	t := time.NewTimer(grace)
	defer t.Stop()

	select {
	case <-d.loopDone:
		d.log.Info("dispatcher stopped")
		cancel()
		return
	case <-ctx.Done():
	case <-t.C:
	}

	// Grace elapsed: abandon in-flight deliveries and whatever is still
	// queued (no persistence; see package doc).
	cancel()

	d.mu.Lock()
	dropped := d.queue.Len()
	d.mu.Unlock()

	select {
	case <-d.loopDone:
		d.log.Warn("dispatcher stopped after grace", logx.Int("dropped", dropped))
	case <-time.After(time.Second):
		// A channel is ignoring its context. Don't hold shutdown hostage.
		d.log.Warn("dispatch loop still busy; abandoning", logx.Int("dropped", dropped))
	}
}

func (d *Dispatcher) loop() {
	for {
		if n, ok := d.next(); ok {
			d.deliver(n)
			continue
		}
		if d.stopRequested() {
			return
		}
		select {
		case <-d.runCtx.Done():
			return
		case <-d.stopCh:
			// Loop around: the queue is drained at the top before exit.
		case <-d.wake:
		case <-time.After(d.cfg.WaitTimeout):
		}
	}
}

func (d *Dispatcher) next() (Notification, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.queue.pop()
}

func (d *Dispatcher) stopRequested() bool {
	select {
	case <-d.stopCh:
		return true
	default:
		return false
	}
}

// deliver fans one notification out to every registered channel,
// concurrently but bounded by the semaphore. It waits for the fan-out to
// finish before the loop picks the next item; with one sweep per minute
// upstream that never builds a backlog.
func (d *Dispatcher) deliver(n Notification) {
	d.mu.Lock()
	chs := append([]Channel(nil), d.channels...)
	d.mu.Unlock()

	var wg sync.WaitGroup
	for _, ch := range chs {
		select {
		case d.sem <- struct{}{}:
		case <-d.runCtx.Done():
			// Shutdown grace elapsed; skip the remaining attempts.
			wg.Wait()
			return
		}
		wg.Add(1)
		go func(ch Channel) {
			defer wg.Done()
			defer func() { <-d.sem }()
			defer func() {
				if r := recover(); r != nil {
					d.log.Error("panic in channel delivery",
						logx.String("channel", ch.Name()),
						logx.Any("panic", r))
				}
			}()
			d.send(ch, n)
		}(ch)
	}
	wg.Wait()
}

// send performs exactly one delivery attempt; failures stay inside the
// channel boundary.
func (d *Dispatcher) send(ch Channel, n Notification) {
	ctx, cancel := context.WithTimeout(d.runCtx, d.cfg.DeliverTimeout)
	defer cancel()

	if err := ch.Deliver(ctx, n); err != nil {
		d.log.Warn("delivery failed",
			logx.String("channel", ch.Name()),
			logx.String("msg", prefix(n.Message, 48)),
			logx.Err(err))
		return
	}
	d.log.Debug("delivered",
		logx.String("channel", ch.Name()),
		logx.String("priority", n.Priority.String()))
}

func prefix(s string, maxN int) string {
	if len(s) <= maxN {
		return s
	}
	return s[:maxN] + "..."
}
