package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/sgruber/camcore/internal/camera"
	"github.com/sgruber/camcore/internal/infrastructure/mqtt"
	"github.com/sgruber/camcore/internal/session"
)

// State write actions.
const (
	actionSetTarget    = "set-target"
	actionReportActual = "report-actual"
)

// stateRequest is the raw POST /device-state body before classification.
// Pointer fields distinguish "absent" from "empty".
type stateRequest struct {
	Action *string `json:"action"`
	State  *string `json:"state"`
}

// stateCommand is a classified, validated write.
type stateCommand struct {
	field string // camera.HistoryFieldTarget or camera.HistoryFieldActual
	value camera.State
}

// classifyStateRequest sorts a request body into exactly one of
// {legacy set, set-target, report-actual, invalid} before any field is
// acted on. Ambiguous or unrecognised shapes are rejected outright.
func classifyStateRequest(req stateRequest) (stateCommand, error) {
	// Legacy shape: {"state": "on"} with no action.
	if req.Action == nil {
		if req.State == nil {
			return stateCommand{}, fmt.Errorf("missing state (use {\"state\":\"on\"|\"off\"})")
		}
		value, err := camera.ParseState(*req.State)
		if err != nil {
			return stateCommand{}, fmt.Errorf("invalid state (use \"on\" or \"off\")")
		}
		return stateCommand{field: camera.HistoryFieldTarget, value: value}, nil
	}

	switch *req.Action {
	case actionSetTarget, actionReportActual:
	default:
		return stateCommand{}, fmt.Errorf("unrecognised action (use %q or %q)", actionSetTarget, actionReportActual)
	}

	if req.State == nil {
		return stateCommand{}, fmt.Errorf("missing state for action %q", *req.Action)
	}
	value, err := camera.ParseState(*req.State)
	if err != nil {
		return stateCommand{}, fmt.Errorf("invalid state (use \"on\" or \"off\")")
	}

	field := camera.HistoryFieldTarget
	if *req.Action == actionReportActual {
		field = camera.HistoryFieldActual
	}
	return stateCommand{field: field, value: value}, nil
}

// handleGetState returns the current state document.
func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	snap, err := s.states.Get(r.Context())
	if err != nil {
		s.logger.Error("failed to read state", "error", err)
		writeInternalError(w, "state store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// handleSetState applies a classified write to the store.
//
// On success the response is the new state snapshot. Rejected values leave
// the store untouched and return 400 with the expected shape.
func (s *Server) handleSetState(w http.ResponseWriter, r *http.Request) {
	var req stateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	cmd, err := classifyStateRequest(req)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	var snap camera.Snapshot
	switch cmd.field {
	case camera.HistoryFieldActual:
		snap, err = s.states.ReportActual(r.Context(), cmd.value)
	default:
		snap, err = s.states.SetTarget(r.Context(), cmd.value)
	}
	if err != nil {
		s.logger.Error("failed to write state", "error", err)
		writeInternalError(w, "state store unavailable")
		return
	}

	s.recordWrite(r, cmd, snap)
	writeJSON(w, http.StatusOK, snap)
}

// recordWrite fans an accepted write out to history, MQTT, and InfluxDB.
// All three are bookkeeping: failures are logged, never surfaced to the
// caller whose write already succeeded.
func (s *Server) recordWrite(r *http.Request, cmd stateCommand, snap camera.Snapshot) {
	source := camera.HistorySourceDevice
	if id := identityFromContext(r.Context()); id != nil && id.Via == session.ViaSession {
		source = camera.HistorySourceDashboard
	}

	if err := s.history.Record(r.Context(), cmd.field, cmd.value, source); err != nil {
		s.logger.Warn("failed to record state history", "error", err)
	}

	if s.mqtt != nil {
		payload, err := json.Marshal(snap)
		if err == nil {
			err = s.mqtt.PublishRetained(mqtt.TopicCameraState, payload)
		}
		if err != nil {
			s.logger.Warn("failed to publish state", "error", err)
		}
	}

	if s.influx != nil {
		s.influx.WriteStateTransition(cmd.field, string(cmd.value), source)
	}
}

// handleGetHistory returns recent accepted writes, newest first.
func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeBadRequest(w, "invalid limit (use a positive integer)")
			return
		}
		limit = parsed
	}

	entries, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		s.logger.Error("failed to read state history", "error", err)
		writeInternalError(w, "state store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleStatePreflight answers CORS preflight with an empty 204.
// CORS headers are already set by stateHeadersMiddleware.
func (s *Server) handleStatePreflight(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}
