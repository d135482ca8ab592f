package config

// Config is the full on-disk configuration.
//
// All duration fields are Go duration strings (e.g. "500ms", "10s", "30m").
type Config struct {
	Products []Product `json:"products"`

	Watch    WatchConfig    `json:"watch"`
	Telegram TelegramConfig `json:"telegram"`
	Alerts   AlertsConfig   `json:"alerts"`
	Logging  LoggingConfig  `json:"logging"`
	Storage  *StorageConfig `json:"storage,omitempty"`
}

// Product is one watched listing.
type Product struct {
	Name        string  `json:"name"`
	URL         string  `json:"url"`
	TargetPrice float64 `json:"target_price"`
}

// WatchConfig controls the price-check sweep.
//
// Schedule accepts a crontab expression ("*/5 * * * *", "@hourly") or a
// Go duration ("60s"). Default: "60s".
type WatchConfig struct {
	Schedule string `json:"schedule,omitempty"`
	// PageTimeout bounds one page load + extraction. Default "30s".
	PageTimeout string `json:"page_timeout,omitempty"`
}

// TelegramConfig configures the chat-bot channel.
//
// Token falls back to $TELEGRAM_TOKEN and ChatID to $CHAT_ID when omitted,
// so credentials can stay out of the config file.
type TelegramConfig struct {
	Token      string `json:"token,omitempty"`
	ChatID     string `json:"chat_id,omitempty"`
	RatePerSec int    `json:"rate_per_sec,omitempty"`
}

// AlertsConfig controls the dispatch pipeline.
type AlertsConfig struct {
	// Cooldown is the per-product suppression window. Default "30m".
	Cooldown string `json:"cooldown,omitempty"`
	// FanoutBudget bounds concurrent channel deliveries. Default 3.
	FanoutBudget int `json:"fanout_budget,omitempty"`
	// DeliverTimeout bounds one channel attempt. Default "10s".
	DeliverTimeout string `json:"deliver_timeout,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// StorageConfig controls the optional price-history store.
//
// Example:
//
//	"storage": { "driver": "sqlite", "path": "./pricewatch.db" }
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // sqlite busy handler
	// Retain prunes price samples older than this. Default "720h" (30d).
	Retain string `json:"retain,omitempty"`
}
