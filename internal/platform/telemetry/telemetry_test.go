package telemetry

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNilProvider_IsNoop(t *testing.T) {
	var p *Provider
	p.ObserveIsolation(true)
	p.SetIsolatedPatients(3)
	p.ObserveRecompute(RecomputeFull)
	p.ObserveAssignment()
	p.ObserveAudit("patients", "delete", http.StatusFound)

	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	called := false
	h := p.MetricsMiddleware()(func(c echo.Context) error { called = true; return nil })
	if err := h(c); err != nil || !called {
		t.Fatalf("expected pass-through, got err=%v called=%v", err, called)
	}
}

func TestDomainCounters(t *testing.T) {
	p := NewProvider()
	p.ObserveIsolation(true)
	p.ObserveIsolation(true)
	p.ObserveIsolation(false)
	p.SetIsolatedPatients(2)
	p.ObserveRecompute(RecomputeAvailable)
	p.ObserveRecompute(RecomputeMissing)
	p.ObserveAssignment()

	if got := testutil.ToFloat64(p.evaluations.WithLabelValues("isolated")); got != 2 {
		t.Errorf("isolated evaluations = %v, want 2", got)
	}
	if got := testutil.ToFloat64(p.evaluations.WithLabelValues("cleared")); got != 1 {
		t.Errorf("cleared evaluations = %v, want 1", got)
	}
	if got := testutil.ToFloat64(p.isolatedPatients); got != 2 {
		t.Errorf("isolated gauge = %v, want 2", got)
	}
	if got := testutil.ToFloat64(p.recomputes.WithLabelValues(RecomputeMissing)); got != 1 {
		t.Errorf("missing recomputes = %v, want 1", got)
	}
	if got := testutil.ToFloat64(p.assignments); got != 1 {
		t.Errorf("assignments = %v, want 1", got)
	}
}

func TestMetricsMiddleware_LabelsByRoute(t *testing.T) {
	p := NewProvider()
	e := echo.New()
	e.Use(p.MetricsMiddleware())
	e.GET("/patients/:id", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/boom", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusForbidden, "no")
	})

	for _, path := range []string{"/patients/1", "/patients/2", "/boom"} {
		e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	if got := testutil.ToFloat64(p.requests.WithLabelValues("GET", "/patients/:id", "200")); got != 2 {
		t.Errorf("patient requests = %v, want 2", got)
	}
	if got := testutil.ToFloat64(p.requests.WithLabelValues("GET", "/boom", "403")); got != 1 {
		t.Errorf("forbidden requests = %v, want 1", got)
	}
	if got := testutil.ToFloat64(p.activeRequests); got != 0 {
		t.Errorf("active requests = %v, want 0", got)
	}
}

func TestMetricsMiddleware_PassesErrors(t *testing.T) {
	p := NewProvider()
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/x", nil), httptest.NewRecorder())
	want := errors.New("fail")
	if err := p.MetricsMiddleware()(func(echo.Context) error { return want })(c); err != want {
		t.Fatalf("expected handler error to propagate, got %v", err)
	}
}

func TestHandler_ExposesMetrics(t *testing.T) {
	p := NewProvider()
	p.ObserveAssignment()

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/metrics", nil), rec)
	if err := p.Handler()(c); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, name := range []string{"wardadmin_room_assignments_total 1", "go_goroutines"} {
		if !strings.Contains(body, name) {
			t.Errorf("expected %q in exposition", name)
		}
	}
}

func TestHandler_NilProvider(t *testing.T) {
	var p *Provider
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/metrics", nil), rec)
	_ = p.Handler()(c)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestObserveAudit_Outcomes(t *testing.T) {
	p := NewProvider()
	p.ObserveAudit("patients", "create", http.StatusFound)
	p.ObserveAudit("patients", "create", http.StatusFound)
	p.ObserveAudit("admin", "update", http.StatusForbidden)
	p.ObserveAudit("rooms", "delete", http.StatusInternalServerError)

	if got := testutil.ToFloat64(p.auditEvents.WithLabelValues("patients", "create", "ok")); got != 2 {
		t.Errorf("expected 2 ok creates, got %v", got)
	}
	if got := testutil.ToFloat64(p.auditEvents.WithLabelValues("admin", "update", "denied")); got != 1 {
		t.Errorf("expected 1 denied update, got %v", got)
	}
	if got := testutil.ToFloat64(p.auditEvents.WithLabelValues("rooms", "delete", "failed")); got != 1 {
		t.Errorf("expected 1 failed delete, got %v", got)
	}
}
