package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ehr/wardadmin/internal/config"
	"github.com/ehr/wardadmin/internal/domain/ward"
	"github.com/ehr/wardadmin/internal/platform/auth"
	"github.com/ehr/wardadmin/internal/platform/db"
	"github.com/ehr/wardadmin/internal/platform/telemetry"
)

func testConfig() *config.Config {
	return &config.Config{
		Env:            "test",
		LogLevel:       "info",
		AuthMode:       config.AuthModeSession,
		StoreDriver:    config.DriverSQLite,
		SQLitePath:     ":memory:",
		SessionSecret:  "test-secret-0123456789",
		SessionTTL:     time.Hour,
		RequestTimeout: 5 * time.Second,
		LoginPerMinute: 60,
	}
}

func newTestServer(t *testing.T, cfg *config.Config) (*echo.Echo, *stores) {
	t.Helper()
	sqlDB, err := db.OpenSQLite(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	st := sqliteStores(sqlDB)
	t.Cleanup(st.Close)

	revoked := auth.NewMemoryRevocationStore()
	t.Cleanup(revoked.Close)

	e, err := buildServer(cfg, zerolog.Nop(), st, revoked, telemetry.NewProvider())
	if err != nil {
		t.Fatalf("buildServer: %v", err)
	}
	return e, st
}

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func postForm(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	return req
}

func TestServer_Health(t *testing.T) {
	e, _ := newTestServer(t, testConfig())
	rec := serve(e, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"driver":"sqlite"`) {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected a request id header")
	}
}

func TestServer_AnonymousIsSentToLogin(t *testing.T) {
	e, _ := newTestServer(t, testConfig())
	for _, path := range []string{"/patients", "/rooms", "/"} {
		rec := serve(e, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusFound || rec.Header().Get(echo.HeaderLocation) != "/login" {
			t.Errorf("%s: expected redirect to /login, got %d %s", path, rec.Code, rec.Header().Get(echo.HeaderLocation))
		}
	}

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/dashboard_admin", nil))
	if rec.Code != http.StatusForbidden || !strings.Contains(rec.Body.String(), "Access Denied: Admins only") {
		t.Errorf("expected 403 admins only, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestServer_LoginFlow(t *testing.T) {
	e, st := newTestServer(t, testConfig())

	rec := serve(e, postForm("/signup", url.Values{"username": {"nurse"}, "password": {"pw"}}))
	if rec.Code != http.StatusFound {
		t.Fatalf("signup: expected 302, got %d", rec.Code)
	}
	u, err := st.users.GetByUsername(context.Background(), "nurse")
	if err != nil {
		t.Fatalf("GetByUsername: %v", err)
	}
	if err := st.users.SetApproved(context.Background(), u.ID, true); err != nil {
		t.Fatalf("SetApproved: %v", err)
	}

	rec = serve(e, postForm("/login", url.Values{"username": {"nurse"}, "password": {"pw"}}))
	if rec.Code != http.StatusFound || rec.Header().Get(echo.HeaderLocation) != "/dashboard_staff" {
		t.Fatalf("login: expected redirect to staff dashboard, got %d", rec.Code)
	}
	var session *http.Cookie
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == auth.DefaultCookieName {
			session = ck
		}
	}
	if session == nil {
		t.Fatal("no session cookie")
	}

	req := httptest.NewRequest(http.MethodGet, "/dashboard_staff", nil)
	req.Header.Set(echo.HeaderAccept, echo.MIMEApplicationJSON)
	req.AddCookie(session)
	rec = serve(e, req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"totalPatients":0`) {
		t.Errorf("dashboard: got %d %s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/logout", nil)
	req.AddCookie(session)
	serve(e, req)

	req = httptest.NewRequest(http.MethodGet, "/patients", nil)
	req.AddCookie(session)
	if rec = serve(e, req); rec.Code != http.StatusFound {
		t.Errorf("expected revoked session to be sent to login, got %d", rec.Code)
	}
}

func TestServer_DevAuthAndMethodOverride(t *testing.T) {
	cfg := testConfig()
	cfg.AuthMode = config.AuthModeDevelopment
	e, st := newTestServer(t, cfg)
	ctx := context.Background()

	rec := serve(e, postForm("/rooms", url.Values{"roomNumber": {"101"}, "type": {"General"}, "capacity": {"1"}}))
	if rec.Code != http.StatusFound || rec.Header().Get(echo.HeaderLocation) != "/rooms" {
		t.Fatalf("create room: got %d", rec.Code)
	}
	rec = serve(e, postForm("/patients", url.Values{"name": {"Ann"}, "age": {"50"}, "condition": {"High"}}))
	if rec.Code != http.StatusFound {
		t.Fatalf("create patient: got %d", rec.Code)
	}

	patients, _ := st.patients.List(ctx, ward.PatientFilter{})
	rooms, _ := st.rooms.List(ctx, ward.RoomFilter{})
	if len(patients) != 1 || len(rooms) != 1 {
		t.Fatalf("expected 1 patient and 1 room, got %d and %d", len(patients), len(rooms))
	}

	rec = serve(e, postForm("/rooms/assign", url.Values{"patientId": {patients[0].ID.String()}, "roomNumber": {"101"}}))
	if rec.Code != http.StatusFound || rec.Header().Get(echo.HeaderLocation) != "/patients" {
		t.Fatalf("assign: got %d", rec.Code)
	}
	if room, _ := st.rooms.GetByNumber(ctx, "101"); room.IsAvailable {
		t.Error("expected room 101 to be full")
	}

	req := httptest.NewRequest(http.MethodGet, "/patients", nil)
	req.Header.Set(echo.HeaderAccept, echo.MIMEApplicationJSON)
	rec = serve(e, req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "All Patients") || !strings.Contains(rec.Body.String(), `"room":"101"`) {
		t.Errorf("list: got %d %s", rec.Code, rec.Body.String())
	}

	rec = serve(e, postForm("/patients/"+patients[0].ID.String(), url.Values{"_method": {"DELETE"}}))
	if rec.Code != http.StatusFound {
		t.Fatalf("delete via override: got %d", rec.Code)
	}
	if room, _ := st.rooms.GetByNumber(ctx, "101"); !room.IsAvailable {
		t.Error("expected room 101 to be free after delete")
	}

	rec = serve(e, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	for _, want := range []string{
		`wardadmin_audit_events_total{action="create",outcome="ok",resource="rooms"} 2`,
		`wardadmin_audit_events_total{action="delete",outcome="ok",resource="patients"} 1`,
	} {
		if !strings.Contains(rec.Body.String(), want) {
			t.Errorf("expected %s in exposition", want)
		}
	}

	rec = serve(e, httptest.NewRequest(http.MethodGet, "/patients/not-a-uuid", nil))
	if rec.Code != http.StatusNotFound || strings.TrimSpace(rec.Body.String()) != "Patient not found" {
		t.Errorf("expected plain-text 404, got %d %q", rec.Code, rec.Body.String())
	}
}

func TestServer_CSRF(t *testing.T) {
	cfg := testConfig()
	cfg.CSRFEnabled = true
	e, _ := newTestServer(t, cfg)

	rec := serve(e, postForm("/login", url.Values{"username": {"x"}, "password": {"y"}}))
	if rec.Code < 400 {
		t.Errorf("expected a POST without token to be rejected, got %d", rec.Code)
	}

	rec = serve(e, httptest.NewRequest(http.MethodGet, "/login", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `name="_csrf" value="`) {
		t.Errorf("expected login form with token, got %d", rec.Code)
	}
	if rec = serve(e, httptest.NewRequest(http.MethodGet, "/health", nil)); rec.Code != http.StatusOK {
		t.Errorf("health must not need a token, got %d", rec.Code)
	}
}

func TestServer_Metrics(t *testing.T) {
	e, _ := newTestServer(t, testConfig())
	serve(e, httptest.NewRequest(http.MethodGet, "/health", nil))

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "wardadmin_http_requests_total") {
		t.Error("expected request counter in exposition")
	}
}

func TestNewLogger_Level(t *testing.T) {
	cfg := testConfig()
	cfg.LogLevel = "warn"
	if got := newLogger(cfg).GetLevel(); got != zerolog.WarnLevel {
		t.Errorf("expected warn, got %s", got)
	}
	cfg.LogLevel = "loud"
	if got := newLogger(cfg).GetLevel(); got != zerolog.InfoLevel {
		t.Errorf("expected info fallback, got %s", got)
	}
}

func TestNewRevocationStore(t *testing.T) {
	cfg := testConfig()
	store, closeFn, err := newRevocationStore(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := store.(*auth.MemoryRevocationStore); !ok {
		t.Errorf("expected memory store, got %T", store)
	}
	closeFn()

	mr := miniredis.RunT(t)
	cfg.RedisURL = "redis://" + mr.Addr()
	store, closeFn, err = newRevocationStore(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer closeFn()
	if _, ok := store.(*auth.RedisRevocationStore); !ok {
		t.Errorf("expected redis store, got %T", store)
	}
}
