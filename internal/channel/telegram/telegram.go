// Package telegram delivers alerts to a Telegram chat via the bot API.
package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"
	tele "gopkg.in/telebot.v4"

	"pricewatch/internal/alert"
	logx "pricewatch/pkg/logx"
)

type Config struct {
	Token  string
	ChatID int64
	// RatePerSec paces sends; Telegram rejects bursts above ~30 msg/s
	// and far less per chat. Default 1.
	RatePerSec int
	// PollTimeout is passed to the long poller. The channel never reads
	// updates, but telebot requires a poller to construct a bot.
	PollTimeout time.Duration
}

// sender is the slice of the telebot API the channel uses.
// Narrowed for test injection.
type sender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// Channel sends notifications to one chat.
//
// If token or chat ID are missing at construction, the channel is
// deliberately unconfigured: Deliver is a silent no-op success and no
// network call is ever made. This is the degrade-gracefully policy for
// environments without a bot, not an error.
type Channel struct {
	log     logx.Logger
	bot     sender
	chat    *tele.Chat
	limiter *rate.Limiter
}

// New builds the channel. Credentials are resolved exactly once, here.
func New(cfg Config, log logx.Logger) (*Channel, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	c := &Channel{log: log}

	if strings.TrimSpace(cfg.Token) == "" || cfg.ChatID == 0 {
		log.Info("telegram channel unconfigured; deliveries will be skipped")
		return c, nil
	}

	timeout := cfg.PollTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	b, err := tele.NewBot(tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: timeout},
	})
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}

	rps := cfg.RatePerSec
	if rps <= 0 {
		rps = 1
	}
	c.bot = b
	c.chat = &tele.Chat{ID: cfg.ChatID}
	c.limiter = rate.NewLimiter(rate.Limit(rps), rps)
	log.Info("telegram channel ready", logx.Int64("chat_id", cfg.ChatID))
	return c, nil
}

// Configured reports whether the channel will actually send.
func (c *Channel) Configured() bool { return c.bot != nil && c.chat != nil }

func (c *Channel) Name() string { return "telegram" }

func (c *Channel) Deliver(ctx context.Context, n alert.Notification) error {
	if !c.Configured() {
		// Intentionally unconfigured: success without I/O.
		return nil
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := c.bot.Send(c.chat, n.Message, &tele.SendOptions{DisableWebPagePreview: true})
	if err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}
