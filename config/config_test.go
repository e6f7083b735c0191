package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func loadFrom(t *testing.T, yaml string) (*Config, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_PATH", path)
	return LoadConfig()
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("SECRET", "")
	cfg, err := loadFrom(t, `
http:
  addr: ":3001"
postgres:
  dsn: "postgres://localhost/chat"
auth:
  secret: "s3cret"
`)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Storage.Driver != "postgres" {
		t.Fatalf("default driver: %q", cfg.Storage.Driver)
	}
	if cfg.Auth.TokenTTL != 7*24*time.Hour {
		t.Fatalf("default ttl: %v", cfg.Auth.TokenTTL)
	}
	if cfg.Logging.Service != "chat-service" || cfg.Logging.Backend != "std" {
		t.Fatalf("logging defaults: %+v", cfg.Logging)
	}
}

func TestLoadConfig_SecretFromEnv(t *testing.T) {
	t.Setenv("SECRET", "from-env")
	cfg, err := loadFrom(t, `
http:
  addr: ":3001"
storage:
  driver: memory
`)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Auth.Secret != "from-env" {
		t.Fatalf("secret: %q", cfg.Auth.Secret)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Setenv("SECRET", "")
	cases := []struct{ name, yaml string }{
		{"no addr", `
auth:
  secret: s
storage:
  driver: memory
`},
		{"no secret", `
http:
  addr: ":3001"
storage:
  driver: memory
`},
		{"bad driver", `
http:
  addr: ":3001"
auth:
  secret: s
storage:
  driver: redis
`},
		{"postgres without dsn", `
http:
  addr: ":3001"
auth:
  secret: s
`},
	}
	for _, c := range cases {
		if _, err := loadFrom(t, c.yaml); err == nil {
			t.Fatalf("%s: expected error", c.name)
		}
	}
}
