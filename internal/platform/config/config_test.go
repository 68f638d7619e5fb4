package config

import (
	"testing"
	"time"
)

func TestDeriveWSURL(t *testing.T) {
	cases := map[string]string{
		"http://localhost:8080":    "ws://localhost:8080/events/ws",
		"https://api.example.com/": "wss://api.example.com/events/ws",
	}
	for in, want := range cases {
		if got := DeriveWSURL(in); got != want {
			t.Errorf("DeriveWSURL(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLoadConsole_DefaultsAndOverrides(t *testing.T) {
	t.Setenv("CONSOLE_API_URL", "https://admin.example.com")
	t.Setenv("CONSOLE_WS_URL", "")
	t.Setenv("CONSOLE_ROLE", "")
	t.Setenv("CONSOLE_BULK_CONCURRENCY", "3")
	t.Setenv("CONSOLE_RECONCILE_EVERY", "30s")
	t.Setenv("CONSOLE_REQUEST_TIMEOUT", "")

	c, err := LoadConsole()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.WSURL != "wss://admin.example.com/events/ws" || c.Role != "admin" || c.BulkConcurrency != 3 ||
		c.ReconcileEvery != 30*time.Second || c.RequestTimeout != 10*time.Second {
		t.Fatalf("unexpected config %+v", c)
	}
}

func TestLoadConsole_RejectsBadNumbers(t *testing.T) {
	t.Setenv("CONSOLE_BULK_CONCURRENCY", "0")
	if _, err := LoadConsole(); err == nil {
		t.Fatalf("expected error for zero concurrency")
	}
	t.Setenv("CONSOLE_BULK_CONCURRENCY", "")
	t.Setenv("CONSOLE_RECONCILE_EVERY", "soon")
	if _, err := LoadConsole(); err == nil {
		t.Fatalf("expected error for bad duration")
	}
}

func TestLoadAPI(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("SEED_DEMO", "yes")
	t.Setenv("DB_DSN", "")
	c, err := LoadAPI()
	if err != nil || c.Port != "8080" || !c.SeedDemo || c.DBDSN != "" {
		t.Fatalf("unexpected api config %+v err=%v", c, err)
	}
}
