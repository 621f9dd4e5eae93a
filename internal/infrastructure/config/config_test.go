package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// writeConfig writes a temporary config file and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

const validConfig = `
database:
  path: "/tmp/test.db"
  wal_mode: true
  busy_timeout: 5
api:
  host: "0.0.0.0"
  port: 8080
auth:
  username: "operator"
  password: "hunter2-but-longer"
  session_secret: "test-secret-key-at-least-32-chars!"
`

func TestLoad_ValidConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/test.db")
	}
	if cfg.Auth.Username != "operator" {
		t.Errorf("Auth.Username = %q, want %q", cfg.Auth.Username, "operator")
	}
	if cfg.Auth.CookieMaxAgeDays != 30 {
		t.Errorf("Auth.CookieMaxAgeDays = %d, want default 30", cfg.Auth.CookieMaxAgeDays)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "invalid: [yaml: content"))
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_EnvOverridesSecret(t *testing.T) {
	t.Setenv("CAMCORE_AUTH_SESSION_SECRET", "env-secret-that-is-at-least-32-chars!!")

	cfg, err := Load(writeConfig(t, validConfig))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Auth.SessionSecret != "env-secret-that-is-at-least-32-chars!!" {
		t.Errorf("SessionSecret = %q, want env override", cfg.Auth.SessionSecret)
	}
}

func TestConfig_Validate(t *testing.T) {
	validSecret := "test-secret-key-at-least-32-chars!"

	base := func() *Config {
		cfg := defaultConfig()
		cfg.Auth.Username = "operator"
		cfg.Auth.Password = "pw"
		cfg.Auth.SessionSecret = validSecret
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid config",
			mutate: func(*Config) {},
		},
		{
			name:    "missing session secret",
			mutate:  func(c *Config) { c.Auth.SessionSecret = "" },
			wantErr: "session_secret is required",
		},
		{
			name:    "short session secret",
			mutate:  func(c *Config) { c.Auth.SessionSecret = "too-short" },
			wantErr: "at least 32 characters",
		},
		{
			name:    "missing username",
			mutate:  func(c *Config) { c.Auth.Username = "" },
			wantErr: "auth.username is required",
		},
		{
			name:    "missing password",
			mutate:  func(c *Config) { c.Auth.Password = "" },
			wantErr: "auth.password is required",
		},
		{
			name:    "invalid port",
			mutate:  func(c *Config) { c.API.Port = 0 },
			wantErr: "api.port",
		},
		{
			name:    "invalid qos",
			mutate:  func(c *Config) { c.MQTT.QoS = 3 },
			wantErr: "mqtt.qos",
		},
		{
			name:    "influxdb enabled without token",
			mutate:  func(c *Config) { c.InfluxDB.Enabled = true; c.InfluxDB.URL = "http://localhost:8086" },
			wantErr: "influxdb.token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestAPI_TimeoutHelpers(t *testing.T) {
	a := API{Timeouts: APITimeouts{Read: 30, Write: 45, Idle: 60}}

	if got := a.GetReadTimeout(); got != 30*time.Second {
		t.Errorf("GetReadTimeout() = %v, want 30s", got)
	}
	if got := a.GetWriteTimeout(); got != 45*time.Second {
		t.Errorf("GetWriteTimeout() = %v, want 45s", got)
	}
	if got := a.GetIdleTimeout(); got != 60*time.Second {
		t.Errorf("GetIdleTimeout() = %v, want 60s", got)
	}
}

func TestAuth_CookieMaxAge(t *testing.T) {
	a := Auth{CookieMaxAgeDays: 30}
	want := 30 * 24 * 60 * 60
	if got := a.CookieMaxAge(); got != want {
		t.Errorf("CookieMaxAge() = %d, want %d", got, want)
	}
}
