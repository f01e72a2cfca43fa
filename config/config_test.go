package config

import (
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/planillas?sslmode=disable")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SERVER_PORT", "")
	t.Setenv("AUTH_MODE", "")
	t.Setenv("SESSION_TTL", "")
	t.Setenv("ALLOWED_ORIGINS", "")
	t.Setenv("CREDENTIALS_EMAIL_DOMAIN", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.ServerPort != 8080 {
		t.Fatalf("expected default port 8080, got %d", cfg.ServerPort)
	}
	if cfg.AuthMode != "session" {
		t.Fatalf("expected default auth mode session, got %q", cfg.AuthMode)
	}
	if cfg.SessionTTL != 7*24*time.Hour {
		t.Fatalf("expected default session ttl of 7 days, got %v", cfg.SessionTTL)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "*" {
		t.Fatalf("expected wildcard origins, got %v", cfg.AllowedOrigins)
	}
	if cfg.CredentialsEmailDomain != "valesanito.com" {
		t.Fatalf("unexpected default email domain %q", cfg.CredentialsEmailDomain)
	}
}

func TestLoadMissingDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error when DATABASE_URL is missing")
	}
}

func TestLoadJWTModeRequiresSecret(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("AUTH_MODE", "jwt")
	t.Setenv("JWT_SECRET_KEY", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when jwt mode has no secret")
	}

	t.Setenv("JWT_SECRET_KEY", "shhh")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.AuthMode != "jwt" || cfg.JWTSecretKey != "shhh" {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := []struct {
		name  string
		key   string
		value string
	}{
		{"bad port", "SERVER_PORT", "eighty"},
		{"port out of range", "SERVER_PORT", "70000"},
		{"bad auth mode", "AUTH_MODE", "cookie"},
		{"bad ttl", "SESSION_TTL", "soon"},
		{"negative ttl", "SESSION_TTL", "-1h"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tc.key, tc.value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%q", tc.key, tc.value)
			}
		})
	}
}

func TestLoadAllowedOriginsList(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ALLOWED_ORIGINS", "https://app.example.com, https://staging.example.com ,")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(cfg.AllowedOrigins) != 2 {
		t.Fatalf("expected 2 origins, got %v", cfg.AllowedOrigins)
	}
}
