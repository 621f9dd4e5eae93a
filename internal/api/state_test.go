package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sgruber/camcore/internal/camera"
	"github.com/sgruber/camcore/internal/session"
)

// deviceGet performs GET /device-state with the device key and decodes the snapshot.
func deviceGet(t *testing.T, handler http.Handler) camera.Snapshot {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/device-state", nil)
	req.Header.Set(session.DeviceKeyHeader, testDeviceKey)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("GET /device-state failed with status %d: %s", rec.Code, rec.Body.String())
	}

	var snap camera.Snapshot
	if err := json.NewDecoder(rec.Body).Decode(&snap); err != nil {
		t.Fatalf("failed to decode snapshot: %v", err)
	}
	return snap
}

func TestStateRequiresCredentials(t *testing.T) {
	_, handler := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
	}{
		{"get state", http.MethodGet, "/device-state"},
		{"set state", http.MethodPost, "/device-state"},
		{"get history", http.MethodGet, "/device-state/history"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", rec.Code)
			}
			var resp map[string]any
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode error body: %v", err)
			}
			if _, ok := resp["error"]; !ok {
				t.Errorf("expected {\"error\": message} body, got %v", resp)
			}
		})
	}
}

func TestGetStateInitialisesOff(t *testing.T) {
	_, handler := newTestServer(t)

	snap := deviceGet(t, handler)

	if snap.Value != camera.StateOff {
		t.Errorf("expected initial value off, got %q", snap.Value)
	}
	if snap.UpdatedAtMs <= 0 {
		t.Errorf("expected positive updatedAtMs, got %d", snap.UpdatedAtMs)
	}
	if snap.UpdatedAtReadable == "" {
		t.Error("expected non-empty updatedAtReadable")
	}
	if snap.Actual != "" {
		t.Errorf("expected empty actual before any device report, got %q", snap.Actual)
	}
}

func TestSetStateLegacyShape(t *testing.T) {
	_, handler := newTestServer(t)
	cookie := login(t, handler)

	req := httptest.NewRequest(http.MethodPost, "/device-state", strings.NewReader(`{"state":"on"}`))
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var snap camera.Snapshot
	if err := json.NewDecoder(rec.Body).Decode(&snap); err != nil {
		t.Fatalf("failed to decode snapshot: %v", err)
	}
	if snap.Value != camera.StateOn {
		t.Errorf("expected value on, got %q", snap.Value)
	}
	if snap.Actual != "" {
		t.Errorf("legacy write must not touch actual, got %q", snap.Actual)
	}
}

func TestSetStateActions(t *testing.T) {
	_, handler := newTestServer(t)
	cookie := login(t, handler)

	// Dashboard sets the target.
	req := httptest.NewRequest(http.MethodPost, "/device-state",
		strings.NewReader(`{"action":"set-target","state":"on"}`))
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("set-target failed with status %d: %s", rec.Code, rec.Body.String())
	}

	// Device confirms a different value; target must survive.
	req = httptest.NewRequest(http.MethodPost, "/device-state",
		strings.NewReader(`{"action":"report-actual","state":"off"}`))
	req.Header.Set(session.DeviceKeyHeader, testDeviceKey)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("report-actual failed with status %d: %s", rec.Code, rec.Body.String())
	}

	snap := deviceGet(t, handler)
	if snap.Value != camera.StateOn {
		t.Errorf("expected target on after actual report, got %q", snap.Value)
	}
	if snap.Actual != camera.StateOff {
		t.Errorf("expected actual off, got %q", snap.Actual)
	}
	if snap.ReportedAtMs <= 0 {
		t.Errorf("expected positive reportedAtMs, got %d", snap.ReportedAtMs)
	}
}

func TestSetStateRejectsBadBodies(t *testing.T) {
	_, handler := newTestServer(t)
	cookie := login(t, handler)

	tests := []struct {
		name string
		body string
	}{
		{"invalid state value", `{"state":"maybe"}`},
		{"boolean state", `{"state":true}`},
		{"numeric state", `{"state":1}`},
		{"uppercase state", `{"state":"ON"}`},
		{"missing state", `{}`},
		{"unknown action", `{"action":"toggle","state":"on"}`},
		{"action without state", `{"action":"set-target"}`},
		{"not json", `state=on`},
		{"empty body", ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/device-state", strings.NewReader(tt.body))
			req.AddCookie(cookie)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", rec.Code)
			}
		})
	}

	// None of the rejected bodies may have modified the store.
	snap := deviceGet(t, handler)
	if snap.Value != camera.StateOff {
		t.Errorf("store modified by rejected write: value %q", snap.Value)
	}
	if snap.Actual != "" {
		t.Errorf("store modified by rejected write: actual %q", snap.Actual)
	}
}

func TestGatePrecedence(t *testing.T) {
	_, handler := newTestServer(t)
	cookie := login(t, handler)

	tests := []struct {
		name          string
		cookie        *http.Cookie
		deviceKey     string
		sendKeyHeader bool
		wantStatus    int
	}{
		{name: "valid cookie only", cookie: cookie, wantStatus: http.StatusOK},
		{name: "valid key only", deviceKey: testDeviceKey, sendKeyHeader: true, wantStatus: http.StatusOK},
		{name: "valid cookie wins over bad key", cookie: cookie, deviceKey: "wrong-key", sendKeyHeader: true, wantStatus: http.StatusOK},
		{name: "bad cookie falls through to valid key", cookie: &http.Cookie{Name: session.CookieName, Value: "forged.token"}, deviceKey: testDeviceKey, sendKeyHeader: true, wantStatus: http.StatusOK},
		{name: "bad cookie and bad key", cookie: &http.Cookie{Name: session.CookieName, Value: "forged.token"}, deviceKey: "wrong-key", sendKeyHeader: true, wantStatus: http.StatusUnauthorized},
		{name: "no credentials", wantStatus: http.StatusUnauthorized},
		{name: "explicitly empty key header", deviceKey: "", sendKeyHeader: true, wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/device-state", nil)
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}
			if tt.sendKeyHeader {
				req.Header.Set(session.DeviceKeyHeader, tt.deviceKey)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
		})
	}
}

func TestPreflightNeedsNoCredentials(t *testing.T) {
	_, handler := newTestServer(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/device-state", nil))

	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("expected empty preflight body, got %q", rec.Body.String())
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("expected open CORS origin, got %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Headers"); !strings.Contains(got, session.DeviceKeyHeader) {
		t.Errorf("expected allowed headers to include %s, got %q", session.DeviceKeyHeader, got)
	}
}

func TestStateResponsesAreUncacheable(t *testing.T) {
	_, handler := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/device-state", nil)
	req.Header.Set(session.DeviceKeyHeader, testDeviceKey)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Cache-Control"); got != "no-store" {
		t.Errorf("expected Cache-Control no-store, got %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("expected open CORS origin, got %q", got)
	}
}

func TestHistoryEndpoint(t *testing.T) {
	_, handler := newTestServer(t)
	cookie := login(t, handler)

	// One dashboard write, one device report.
	req := httptest.NewRequest(http.MethodPost, "/device-state", strings.NewReader(`{"state":"on"}`))
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("dashboard write failed with status %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/device-state",
		strings.NewReader(`{"action":"report-actual","state":"on"}`))
	req.Header.Set(session.DeviceKeyHeader, testDeviceKey)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("device report failed with status %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/device-state/history", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("history read failed with status %d", rec.Code)
	}

	var entries []camera.HistoryEntry
	if err := json.NewDecoder(rec.Body).Decode(&entries); err != nil {
		t.Fatalf("failed to decode history: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	// Newest first.
	if entries[0].Field != camera.HistoryFieldActual || entries[0].Source != camera.HistorySourceDevice {
		t.Errorf("expected newest entry actual/device, got %s/%s", entries[0].Field, entries[0].Source)
	}
	if entries[1].Field != camera.HistoryFieldTarget || entries[1].Source != camera.HistorySourceDashboard {
		t.Errorf("expected oldest entry target/dashboard, got %s/%s", entries[1].Field, entries[1].Source)
	}
}

func TestHistoryRejectsBadLimit(t *testing.T) {
	_, handler := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/device-state/history?limit=abc", nil)
	req.Header.Set(session.DeviceKeyHeader, testDeviceKey)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

// TestDashboardDeviceRoundTrip walks the end-to-end flow: operator logs in,
// reads the initial state, switches the camera on, and the device observes
// the new target through its own credential.
func TestDashboardDeviceRoundTrip(t *testing.T) {
	_, handler := newTestServer(t)
	cookie := login(t, handler)

	req := httptest.NewRequest(http.MethodGet, "/device-state", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("initial read failed with status %d", rec.Code)
	}
	var snap camera.Snapshot
	if err := json.NewDecoder(rec.Body).Decode(&snap); err != nil {
		t.Fatalf("failed to decode snapshot: %v", err)
	}
	if snap.Value != camera.StateOff {
		t.Fatalf("expected initial off, got %q", snap.Value)
	}

	req = httptest.NewRequest(http.MethodPost, "/device-state", strings.NewReader(`{"state":"on"}`))
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("write failed with status %d", rec.Code)
	}

	snap = deviceGet(t, handler)
	if snap.Value != camera.StateOn {
		t.Errorf("device poll expected on, got %q", snap.Value)
	}
}
