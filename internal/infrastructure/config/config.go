package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for camcore.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Database Database `yaml:"database"`
	API      API      `yaml:"api"`
	Auth     Auth     `yaml:"auth"`
	MQTT     MQTT     `yaml:"mqtt"`
	InfluxDB InfluxDB `yaml:"influxdb"`
	Logging  Logging  `yaml:"logging"`
}

// Database contains SQLite database settings.
// Path may be empty, in which case the state store runs memory-backed
// and nothing survives a restart.
type Database struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// API contains HTTP API server settings.
type API struct {
	Host     string      `yaml:"host"`
	Port     int         `yaml:"port"`
	Timeouts APITimeouts `yaml:"timeouts"`
}

// APITimeouts contains HTTP timeout settings (seconds).
type APITimeouts struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// Auth contains the credentials and secrets for the session authenticator
// and the request gate.
//
// Username/Password is the single operator login pair. SessionSecret signs
// session tokens. DeviceKey is the optional pre-shared key presented by the
// embedded poller; when empty, the device-key path is disabled.
type Auth struct {
	Username      string `yaml:"username"`
	Password      string `yaml:"password"`
	SessionSecret string `yaml:"session_secret"`
	DeviceKey     string `yaml:"device_key"`

	// CookieMaxAgeDays is the session cookie lifetime. Note this bounds the
	// cookie only; the signed token itself carries no expiry.
	CookieMaxAgeDays int `yaml:"cookie_max_age_days"`

	// DevMode omits the Secure cookie attribute for plain-HTTP local work.
	DevMode bool `yaml:"dev_mode"`
}

// MQTT contains optional broker settings for retained state fan-out.
type MQTT struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	ClientID string `yaml:"client_id"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	QoS      int    `yaml:"qos"`
}

// InfluxDB contains optional time-series recording settings.
type InfluxDB struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Token   string `yaml:"token"`
	Org     string `yaml:"org"`
	Bucket  string `yaml:"bucket"`
}

// Logging contains logging settings.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// minSessionSecretLength is the minimum accepted signing secret length.
// Short secrets make forged session tokens a realistic attack.
const minSessionSecretLength = 32

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern CAMCORE_SECTION_KEY, for example
// CAMCORE_AUTH_SESSION_SECRET or CAMCORE_DATABASE_PATH.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Database: Database{
			Path:        "./data/camcore.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		API: API{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: APITimeouts{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		Auth: Auth{
			CookieMaxAgeDays: 30,
		},
		MQTT: MQTT{
			Host:     "localhost",
			Port:     1883,
			ClientID: "camcore",
			QoS:      1,
		},
		Logging: Logging{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Secrets are always overridable so they can stay out of the config file.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CAMCORE_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	if v := os.Getenv("CAMCORE_API_HOST"); v != "" {
		cfg.API.Host = v
	}

	if v := os.Getenv("CAMCORE_AUTH_USERNAME"); v != "" {
		cfg.Auth.Username = v
	}
	if v := os.Getenv("CAMCORE_AUTH_PASSWORD"); v != "" {
		cfg.Auth.Password = v
	}
	if v := os.Getenv("CAMCORE_AUTH_SESSION_SECRET"); v != "" {
		cfg.Auth.SessionSecret = v
	}
	if v := os.Getenv("CAMCORE_AUTH_DEVICE_KEY"); v != "" {
		cfg.Auth.DeviceKey = v
	}

	if v := os.Getenv("CAMCORE_MQTT_HOST"); v != "" {
		cfg.MQTT.Host = v
	}
	if v := os.Getenv("CAMCORE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Username = v
	}
	if v := os.Getenv("CAMCORE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Password = v
	}

	if v := os.Getenv("CAMCORE_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors and security issues.
//
// A missing or weak session secret is rejected here rather than at first
// token issue: signing secrets are a deployment concern, and failing at
// startup beats failing on the first login request.
func (c *Config) Validate() error {
	var errs []string

	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if c.Auth.Username == "" {
		errs = append(errs, "auth.username is required (set CAMCORE_AUTH_USERNAME)")
	}
	if c.Auth.Password == "" {
		errs = append(errs, "auth.password is required (set CAMCORE_AUTH_PASSWORD)")
	}

	if c.Auth.SessionSecret == "" {
		errs = append(errs, "auth.session_secret is required (set CAMCORE_AUTH_SESSION_SECRET)")
	} else if len(c.Auth.SessionSecret) < minSessionSecretLength {
		errs = append(errs, "auth.session_secret must be at least 32 characters")
	}

	if c.Auth.CookieMaxAgeDays < 1 {
		errs = append(errs, "auth.cookie_max_age_days must be at least 1")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb is enabled")
		}
		if c.InfluxDB.Token == "" {
			errs = append(errs, "influxdb.token is required when influxdb is enabled (set CAMCORE_INFLUXDB_TOKEN)")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetReadTimeout returns the API read timeout as a Duration.
func (a API) GetReadTimeout() time.Duration {
	return time.Duration(a.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (a API) GetWriteTimeout() time.Duration {
	return time.Duration(a.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (a API) GetIdleTimeout() time.Duration {
	return time.Duration(a.Timeouts.Idle) * time.Second
}

// CookieMaxAge returns the session cookie lifetime in seconds.
func (a Auth) CookieMaxAge() int {
	return a.CookieMaxAgeDays * 24 * 60 * 60
}
