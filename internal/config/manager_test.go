package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
products:
  - name: GPU
    url: https://store/gpu
    target_price: 2000
watch:
  schedule: "*/5 * * * *"
telegram:
  token: "123:abc"
  chat_id: "-100200300"
alerts:
  cooldown: 45m
logging:
  level: debug
  console: true
`)
	m := NewManager(path)
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Products) != 1 || cfg.Products[0].TargetPrice != 2000 {
		t.Fatalf("unexpected products: %+v", cfg.Products)
	}
	if cfg.Watch.Schedule != "*/5 * * * *" {
		t.Fatalf("schedule = %q", cfg.Watch.Schedule)
	}
	id, err := cfg.Telegram.ParsedChatID()
	if err != nil {
		t.Fatalf("ParsedChatID: %v", err)
	}
	if id != -100200300 {
		t.Fatalf("chat id = %d", id)
	}
	if got := m.Get(); got != cfg {
		t.Fatal("Get should return the committed config")
	}
}

func TestLoadJSON(t *testing.T) {
	path := writeConfig(t, "config.json", `{
  "products": [{"name": "SSD", "url": "https://store/ssd", "target_price": 300}],
  "logging": {"level": "info", "console": true, "file": {"enabled": false, "path": ""}}
}`)
	cfg, err := NewManager(path).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Products) != 1 || cfg.Products[0].Name != "SSD" {
		t.Fatalf("unexpected products: %+v", cfg.Products)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	path := writeConfig(t, "config.json", `{"produtcs": []}`)
	if _, err := NewManager(path).Load(); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestEnvFallbackForTelegram(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "env-token")
	t.Setenv("CHAT_ID", "777")

	path := writeConfig(t, "config.json", `{"products": []}`)
	cfg, err := NewManager(path).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Telegram.Token != "env-token" {
		t.Fatalf("token = %q, want env fallback", cfg.Telegram.Token)
	}
	id, err := cfg.Telegram.ParsedChatID()
	if err != nil || id != 777 {
		t.Fatalf("chat id = %d, err = %v", id, err)
	}
}

func TestParsedChatIDInvalid(t *testing.T) {
	t.Parallel()
	cfg := TelegramConfig{ChatID: "not-a-number"}
	if _, err := cfg.ParsedChatID(); err == nil {
		t.Fatal("expected error")
	}
}

func TestParseDurationField(t *testing.T) {
	t.Parallel()
	if d, err := ParseDurationField("x", "30m"); err != nil || d.Minutes() != 30 {
		t.Fatalf("got %v, %v", d, err)
	}
	if d, err := ParseDurationField("x", ""); err != nil || d != 0 {
		t.Fatalf("empty should be zero, got %v, %v", d, err)
	}
	if _, err := ParseDurationField("x", "nope"); err == nil {
		t.Fatal("expected error")
	}
	if _, err := ParseDurationField("x", "-5s"); err == nil {
		t.Fatal("expected error for negative duration")
	}
}
