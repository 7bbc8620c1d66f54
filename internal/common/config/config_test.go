package config

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleYAML = `
database:
  host: localhost
  port: 5433
  user: tableside
  password: "secret"
  database: tableside

rabbitmq:
  host: localhost
  user: guest
  password: guest

server:
  port: 3100
  base_url: "http://localhost:3100"

auth:
  jwt_secret: file-secret
`

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeTemp(t, sampleYAML))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Database.Host != "localhost" || cfg.Database.Port != 5433 {
		t.Errorf("database section mismatch: %+v", cfg.Database)
	}
	if cfg.Rabbit.Port != 5672 {
		t.Errorf("expected default rabbitmq port, got %d", cfg.Rabbit.Port)
	}
	if cfg.Server.Port != 3100 {
		t.Errorf("expected server port 3100, got %d", cfg.Server.Port)
	}
	if cfg.Auth.JWTSecret != "file-secret" {
		t.Errorf("expected jwt secret from file, got %q", cfg.Auth.JWTSecret)
	}
}

func TestLoadEnvOverridesSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "env-secret")
	cfg, err := Load(writeTemp(t, sampleYAML))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Auth.JWTSecret != "env-secret" {
		t.Errorf("expected env to override jwt secret, got %q", cfg.Auth.JWTSecret)
	}
}

func TestLoadIncompleteDatabase(t *testing.T) {
	if _, err := Load(writeTemp(t, "rabbitmq:\n  host: localhost\n")); err == nil {
		t.Fatal("expected error for missing database section")
	}
}
