// camagent is the embedded poller that runs next to the camera.
//
// It polls the camcore server for the target state using the pre-shared
// device key, runs a configured shell hook when the target changes, and
// reports the applied state back so the dashboard can show target and
// actual side by side.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sgruber/camcore/internal/camera"
	"github.com/sgruber/camcore/internal/infrastructure/config"
	"github.com/sgruber/camcore/internal/infrastructure/logging"
	"github.com/sgruber/camcore/internal/session"
)

var version = "dev"

const (
	defaultInterval   = 5 * time.Second
	maxBackoff        = 2 * time.Minute
	requestTimeout    = 10 * time.Second
	hookTimeout       = 30 * time.Second
	pollJitterPercent = 20
)

type options struct {
	serverURL string
	deviceKey string
	interval  time.Duration
	onCmd     string
	offCmd    string
	logLevel  string
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	opts, err := parseOptions(os.Args[1:])
	if err != nil {
		return err
	}

	log := logging.New(config.Logging{Level: opts.logLevel, Format: "text"}, version)
	log.Info("starting camagent",
		"server", opts.serverURL,
		"interval", opts.interval.String(),
	)

	agent := &agent{
		opts:   *opts,
		client: &http.Client{Timeout: requestTimeout},
		log:    log,
	}
	agent.loop(ctx)

	log.Info("shutdown signal received")
	return nil
}

// parseOptions reads flags with CAMAGENT_* environment fallbacks.
func parseOptions(args []string) (*options, error) {
	fs := flag.NewFlagSet("camagent", flag.ContinueOnError)

	opts := &options{}
	fs.StringVar(&opts.serverURL, "server", envOr("CAMAGENT_SERVER", "http://localhost:8080"), "camcore server base URL")
	fs.StringVar(&opts.deviceKey, "key", os.Getenv("CAMAGENT_DEVICE_KEY"), "pre-shared device key")
	fs.DurationVar(&opts.interval, "interval", defaultInterval, "poll interval")
	fs.StringVar(&opts.onCmd, "on-cmd", envOr("CAMAGENT_ON_CMD", ""), "shell command to run when the target becomes on")
	fs.StringVar(&opts.offCmd, "off-cmd", envOr("CAMAGENT_OFF_CMD", ""), "shell command to run when the target becomes off")
	fs.StringVar(&opts.logLevel, "log-level", envOr("CAMAGENT_LOG_LEVEL", "info"), "log level (debug, info, warn, error)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if opts.deviceKey == "" {
		return nil, fmt.Errorf("device key is required (-key or CAMAGENT_DEVICE_KEY)")
	}
	if opts.interval < time.Second {
		return nil, fmt.Errorf("interval must be at least 1s, got %v", opts.interval)
	}
	opts.serverURL = strings.TrimRight(opts.serverURL, "/")

	return opts, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

type agent struct {
	opts   options
	client *http.Client
	log    *logging.Logger

	// applied is the last target this agent acted on. Empty until the
	// first successful poll.
	applied camera.State

	// reportPending is set once a hook has run and cleared only after the
	// applied state has been reported back, so a failed report is retried
	// on the next poll without re-running the hook.
	reportPending bool

	// failures counts consecutive poll errors for backoff.
	failures int
}

// loop polls until the context is cancelled.
//
// The interval is jittered so a fleet of agents restarted together does not
// hammer the server in lockstep, and backs off exponentially while the
// server is unreachable.
func (a *agent) loop(ctx context.Context) {
	for {
		if err := a.pollOnce(ctx); err != nil {
			a.failures++
			a.log.Warn("poll failed", "error", err, "consecutive_failures", a.failures)
		} else {
			a.failures = 0
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(a.nextDelay()):
		}
	}
}

// nextDelay returns the jittered poll interval, stretched by backoff after
// consecutive failures.
func (a *agent) nextDelay() time.Duration {
	delay := a.opts.interval
	for i := 0; i < a.failures && delay < maxBackoff; i++ {
		delay *= 2
	}
	if delay > maxBackoff {
		delay = maxBackoff
	}

	jitter := time.Duration(rand.Int63n(int64(delay) * pollJitterPercent / 100))
	return delay + jitter
}

// pollOnce fetches the target state, applies it if it changed, and reports
// the applied state back.
func (a *agent) pollOnce(ctx context.Context) error {
	snap, err := a.fetchState(ctx)
	if err != nil {
		return err
	}

	if snap.Value != a.applied {
		a.log.Info("target changed", "from", string(a.applied), "to", string(snap.Value))
		if err := a.runHook(ctx, snap.Value); err != nil {
			return fmt.Errorf("running hook: %w", err)
		}
		a.applied = snap.Value
		a.reportPending = true
	}

	if !a.reportPending {
		return nil
	}
	if err := a.reportActual(ctx, a.applied); err != nil {
		return fmt.Errorf("reporting actual: %w", err)
	}
	a.reportPending = false
	return nil
}

// fetchState reads the current state document from the server.
func (a *agent) fetchState(ctx context.Context) (camera.Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.opts.serverURL+"/device-state", nil)
	if err != nil {
		return camera.Snapshot{}, err
	}
	req.Header.Set(session.DeviceKeyHeader, a.opts.deviceKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return camera.Snapshot{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return camera.Snapshot{}, fmt.Errorf("server returned %d", resp.StatusCode)
	}

	var snap camera.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return camera.Snapshot{}, fmt.Errorf("decoding state: %w", err)
	}
	return snap, nil
}

// reportActual tells the server which state the camera is actually in.
func (a *agent) reportActual(ctx context.Context, value camera.State) error {
	body, err := json.Marshal(map[string]string{
		"action": "report-actual",
		"state":  string(value),
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.opts.serverURL+"/device-state", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(session.DeviceKeyHeader, a.opts.deviceKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %d", resp.StatusCode)
	}
	return nil
}

// runHook executes the configured shell command for the new state.
// A missing hook is fine: the agent still reports the target as applied,
// which suits setups where the camera process watches the state itself.
func (a *agent) runHook(ctx context.Context, value camera.State) error {
	cmdline := a.opts.offCmd
	if value == camera.StateOn {
		cmdline = a.opts.onCmd
	}
	if cmdline == "" {
		return nil
	}

	hookCtx, cancel := context.WithTimeout(ctx, hookTimeout)
	defer cancel()

	cmd := exec.CommandContext(hookCtx, "sh", "-c", cmdline)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w (output: %s)", err, strings.TrimSpace(string(output)))
	}

	a.log.Debug("hook completed", "state", string(value), "output", strings.TrimSpace(string(output)))
	return nil
}
