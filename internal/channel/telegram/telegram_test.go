package telegram

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/time/rate"
	tele "gopkg.in/telebot.v4"

	"pricewatch/internal/alert"
	logx "pricewatch/pkg/logx"
)

// tripwireSender fails the test if any network-bound send is attempted.
type tripwireSender struct{ t *testing.T }

func (s tripwireSender) Send(tele.Recipient, interface{}, ...interface{}) (*tele.Message, error) {
	s.t.Fatal("network send attempted on unconfigured channel")
	return nil, nil
}

type stubSender struct {
	sent int
	err  error
}

func (s *stubSender) Send(tele.Recipient, interface{}, ...interface{}) (*tele.Message, error) {
	s.sent++
	return &tele.Message{}, s.err
}

func TestUnconfiguredChannelIsNoopSuccess(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "no token", cfg: Config{ChatID: 42}},
		{name: "no chat", cfg: Config{Token: "123:abc"}},
		{name: "nothing", cfg: Config{}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.cfg, logx.Nop())
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if c.Configured() {
				t.Fatal("channel should report unconfigured")
			}
			// Even if a bot were somehow present, deliver must not touch
			// it while the chat is unset; the tripwire enforces the
			// no-network guarantee.
			for i := 0; i < 3; i++ {
				if err := c.Deliver(context.Background(), alert.Notification{Message: "x"}); err != nil {
					t.Fatalf("Deliver %d: %v", i, err)
				}
			}
		})
	}
}

func TestDeliverSendsToChat(t *testing.T) {
	t.Parallel()
	s := &stubSender{}
	c := &Channel{
		log:     logx.Nop(),
		bot:     s,
		chat:    &tele.Chat{ID: 42},
		limiter: rate.NewLimiter(rate.Inf, 1),
	}
	if err := c.Deliver(context.Background(), alert.Notification{Message: "hello", Priority: alert.Critical}); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if s.sent != 1 {
		t.Fatalf("sent = %d, want 1", s.sent)
	}
}

func TestDeliverReportsAPIFailure(t *testing.T) {
	t.Parallel()
	s := &stubSender{err: errors.New("api rejected")}
	c := &Channel{
		log:     logx.Nop(),
		bot:     s,
		chat:    &tele.Chat{ID: 42},
		limiter: rate.NewLimiter(rate.Inf, 1),
	}
	err := c.Deliver(context.Background(), alert.Notification{Message: "hello"})
	if err == nil {
		t.Fatal("expected delivery failure")
	}
}

func TestDeliverHonorsCanceledContext(t *testing.T) {
	t.Parallel()
	c := &Channel{
		log:  logx.Nop(),
		bot:  tripwireSender{t: t},
		chat: &tele.Chat{ID: 42},
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.Deliver(ctx, alert.Notification{Message: "x"}); err == nil {
		t.Fatal("expected context error")
	}
}
