package watch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"pricewatch/internal/config"
	logx "pricewatch/pkg/logx"
)

type fakePrices struct {
	prices map[string]float64
	errs   map[string]error
}

func (f *fakePrices) Price(_ context.Context, url string) (float64, error) {
	if err := f.errs[url]; err != nil {
		return 0, err
	}
	return f.prices[url], nil
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []notifyCall
}

type notifyCall struct {
	message  string
	critical bool
	subject  string
}

func (f *fakeNotifier) Notify(message string, critical bool, subjectKey string) {
	f.mu.Lock()
	f.calls = append(f.calls, notifyCall{message: message, critical: critical, subject: subjectKey})
	f.mu.Unlock()
}

type fakeRecorder struct {
	mu      sync.Mutex
	samples map[string][]float64
}

func (f *fakeRecorder) RecordPrice(_ context.Context, url string, price float64, _ time.Time) error {
	f.mu.Lock()
	if f.samples == nil {
		f.samples = map[string][]float64{}
	}
	f.samples[url] = append(f.samples[url], price)
	f.mu.Unlock()
	return nil
}

func newTestPoller(products []config.Product, prices *fakePrices, n *fakeNotifier, r *fakeRecorder) *Poller {
	var rec Recorder
	if r != nil {
		rec = r
	}
	return NewPoller(DefaultSchedule(), func() []config.Product { return products }, prices, n, rec, logx.Nop())
}

func TestSweepNotifiesOnTargetHit(t *testing.T) {
	t.Parallel()
	products := []config.Product{
		{Name: "GPU", URL: "https://store/gpu", TargetPrice: 2000},
		{Name: "SSD", URL: "https://store/ssd", TargetPrice: 300},
	}
	prices := &fakePrices{prices: map[string]float64{
		"https://store/gpu": 1899.90, // at or below target
		"https://store/ssd": 350.00,  // above target
	}}
	n := &fakeNotifier{}
	r := &fakeRecorder{}

	newTestPoller(products, prices, n, r).Sweep(context.Background())

	if len(n.calls) != 1 {
		t.Fatalf("notify calls = %d, want 1", len(n.calls))
	}
	call := n.calls[0]
	if !call.critical {
		t.Fatal("price-drop alert should be critical")
	}
	if call.subject != "https://store/gpu" {
		t.Fatalf("subject = %q, want product url", call.subject)
	}

	// Both checks were recorded, hit or miss.
	if got := len(r.samples["https://store/gpu"]) + len(r.samples["https://store/ssd"]); got != 2 {
		t.Fatalf("recorded samples = %d, want 2", got)
	}
}

func TestSweepSkipsZeroAndFailedPrices(t *testing.T) {
	t.Parallel()
	products := []config.Product{
		{Name: "gone", URL: "https://store/gone", TargetPrice: 100},
		{Name: "broken", URL: "https://store/broken", TargetPrice: 100},
	}
	prices := &fakePrices{
		prices: map[string]float64{"https://store/gone": 0},
		errs:   map[string]error{"https://store/broken": errors.New("page blocked")},
	}
	n := &fakeNotifier{}

	newTestPoller(products, prices, n, nil).Sweep(context.Background())

	// Zero means "not found", never a price drop; the failed fetch is
	// logged and skipped.
	if len(n.calls) != 0 {
		t.Fatalf("notify calls = %d, want 0", len(n.calls))
	}
}

func TestSweepEmptyURLSkipped(t *testing.T) {
	t.Parallel()
	products := []config.Product{{Name: "no url", TargetPrice: 10}}
	n := &fakeNotifier{}
	newTestPoller(products, &fakePrices{}, n, nil).Sweep(context.Background())
	if len(n.calls) != 0 {
		t.Fatalf("notify calls = %d, want 0", len(n.calls))
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	t.Parallel()
	n := &fakeNotifier{}
	p := newTestPoller(nil, &fakePrices{}, n, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = p.Run(ctx)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
