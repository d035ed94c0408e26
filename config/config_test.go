package config

import (
	"testing"
	"time"
)

func TestParseDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Parse()
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.InviteTTL != 7*24*time.Hour {
		t.Fatalf("InviteTTL = %v, want 168h", cfg.InviteTTL)
	}
	if cfg.PresenceTTL != 24*time.Hour || cfg.UnreadTTL != 24*time.Hour {
		t.Fatalf("cache ttls = %v/%v, want 24h", cfg.PresenceTTL, cfg.UnreadTTL)
	}
	if cfg.Broker != BrokerRedis {
		t.Fatalf("Broker = %q, want redis", cfg.Broker)
	}
}

func TestParseRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	if _, err := Parse(); err == nil {
		t.Fatalf("expected error without JWT_SECRET")
	}
}

func TestParseRejectsUnknownBroker(t *testing.T) {
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("BROKER", "carrier-pigeon")
	if _, err := Parse(); err == nil {
		t.Fatalf("expected error for unknown broker")
	}
}

func TestOriginAllowed(t *testing.T) {
	cfg := Config{AllowedOrigins: []string{"https://chat.example.com"}}
	if !cfg.OriginAllowed("https://chat.example.com") {
		t.Fatalf("configured origin rejected")
	}
	if cfg.OriginAllowed("https://evil.example.com") {
		t.Fatalf("foreign origin accepted")
	}
	if !cfg.OriginAllowed("") {
		t.Fatalf("non-browser clients send no origin and should pass")
	}
}

func TestOriginListedIgnoresWildcard(t *testing.T) {
	cfg := Config{AllowedOrigins: []string{"*", " https://chat.example.com "}}
	if !cfg.OriginAllowed("https://evil.example.com") {
		t.Fatalf("wildcard should allow any origin")
	}
	if cfg.OriginListed("https://evil.example.com") {
		t.Fatalf("wildcard must not list an origin")
	}
	if !cfg.OriginListed("https://CHAT.example.com") {
		t.Fatalf("explicit origin not listed")
	}
	if cfg.OriginListed("") {
		t.Fatalf("empty origin listed")
	}
}
