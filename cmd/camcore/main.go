// camcore is the control-panel server for a single smart-home camera.
//
// It serves the login/logout endpoints and the gated device-state API that
// both the browser dashboard and the embedded poller (cmd/camagent) talk to.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sgruber/camcore/internal/api"
	"github.com/sgruber/camcore/internal/camera"
	"github.com/sgruber/camcore/internal/infrastructure/config"
	"github.com/sgruber/camcore/internal/infrastructure/database"
	"github.com/sgruber/camcore/internal/infrastructure/influxdb"
	"github.com/sgruber/camcore/internal/infrastructure/logging"
	"github.com/sgruber/camcore/internal/infrastructure/mqtt"
	"github.com/sgruber/camcore/internal/session"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting camcore",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)

	// State storage: SQLite when a path is configured, memory otherwise.
	var (
		states  camera.Repository
		history camera.HistoryRepository
	)
	if cfg.Database.Path != "" {
		db, openErr := database.Open(database.Config{
			Path:        cfg.Database.Path,
			WALMode:     cfg.Database.WALMode,
			BusyTimeout: cfg.Database.BusyTimeout,
		})
		if openErr != nil {
			return fmt.Errorf("opening database: %w", openErr)
		}
		defer func() {
			log.Info("closing database", "open_connections", db.Stats().OpenConnections)
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		}()

		if migrateErr := db.Migrate(ctx); migrateErr != nil {
			return fmt.Errorf("migrating database: %w", migrateErr)
		}
		log.Info("database ready", "path", db.Path())

		states = camera.NewSQLiteRepository(db.DB)
		history = camera.NewSQLiteHistoryRepository(db.DB)
	} else {
		log.Warn("no database path configured, state will not survive restarts")
		states = camera.NewMemoryRepository()
		history = camera.NewMemoryHistoryRepository()
	}

	sessions, err := session.New(cfg.Auth.SessionSecret)
	if err != nil {
		return fmt.Errorf("creating session service: %w", err)
	}
	gate := session.NewGate(sessions, cfg.Auth.DeviceKey)
	if cfg.Auth.DeviceKey == "" {
		log.Warn("no device key configured, device-key access is disabled")
	}

	// MQTT fan-out (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT connected", "broker", fmt.Sprintf("%s:%d", cfg.MQTT.Host, cfg.MQTT.Port))
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
	} else {
		log.Info("MQTT disabled")
	}

	// InfluxDB transition recording (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	} else {
		log.Info("InfluxDB disabled")
	}

	server, err := api.New(api.Deps{
		Config:   cfg.API,
		Auth:     cfg.Auth,
		Logger:   log,
		Sessions: sessions,
		Gate:     gate,
		States:   states,
		History:  history,
		MQTT:     mqttClient,
		Influx:   influxClient,
		Version:  version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()
	log.Info("API server listening", "host", cfg.API.Host, "port", cfg.API.Port)

	<-ctx.Done()
	log.Info("shutdown signal received")
	return nil
}

// getConfigPath returns the config file path from CAMCORE_CONFIG or the default.
func getConfigPath() string {
	if path := os.Getenv("CAMCORE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
