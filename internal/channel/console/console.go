// Package console implements the always-available log sink channel.
package console

import (
	"context"

	"pricewatch/internal/alert"
	logx "pricewatch/pkg/logx"
)

// Channel writes every notification to the process log. It never fails.
type Channel struct {
	log logx.Logger
}

func New(log logx.Logger) *Channel {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Channel{log: log}
}

func (c *Channel) Name() string { return "console" }

func (c *Channel) Deliver(_ context.Context, n alert.Notification) error {
	c.log.Info(n.Message, logx.String("priority", n.Priority.String()))
	return nil
}
