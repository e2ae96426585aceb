package config

import (
	"testing"
)

func TestParseCORSOrigins(t *testing.T) {
	origins := parseCORSOrigins("", "local")
	if len(origins) != 2 {
		t.Fatalf("expected 2 local defaults, got %v", origins)
	}

	origins = parseCORSOrigins("", "prod")
	if origins != nil {
		t.Fatalf("expected nil for empty prod origins, got %v", origins)
	}

	origins = parseCORSOrigins(" https://app.example.com , https://admin.example.com ,", "prod")
	if len(origins) != 2 {
		t.Fatalf("expected 2 origins, got %v", origins)
	}
	if origins[0] != "https://app.example.com" {
		t.Errorf("expected trimmed origin, got %q", origins[0])
	}
}

func TestLoadDatabasePrecedence(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://url")
	t.Setenv("DATABASE_URL_POOLED", "postgres://pooled")
	t.Setenv("DATABASE_URL_DIRECT", "postgres://direct")

	cfg := Load()
	if cfg.DatabaseURL != "postgres://pooled" {
		t.Errorf("expected pooled URL to win, got %q", cfg.DatabaseURL)
	}
	if cfg.DatabaseURLDirect != "postgres://direct" {
		t.Errorf("expected direct URL preserved, got %q", cfg.DatabaseURLDirect)
	}

	t.Setenv("DATABASE_URL_POOLED", "")
	cfg = Load()
	if cfg.DatabaseURL != "postgres://url" {
		t.Errorf("expected DATABASE_URL fallback, got %q", cfg.DatabaseURL)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("ENV", "")
	t.Setenv("PORT", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("JWT_ISSUER", "")
	t.Setenv("JWT_TTL_MINUTES", "")

	cfg := Load()
	if cfg.Env != "local" {
		t.Errorf("expected local env default, got %q", cfg.Env)
	}
	if cfg.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Port)
	}
	if cfg.JWTSecret != "change_me" {
		t.Errorf("expected default secret, got %q", cfg.JWTSecret)
	}
	if cfg.JWTIssuer != "mealplanner" {
		t.Errorf("expected default issuer, got %q", cfg.JWTIssuer)
	}
	if cfg.JWTTTLMinutes != 10080 {
		t.Errorf("expected default TTL, got %d", cfg.JWTTTLMinutes)
	}
}
