package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func TestSessionMiddleware_SetsIdentity(t *testing.T) {
	m := newTestManager(nil)
	ck := issueCookie(t, m, Identity{UserID: "u1", Username: "nurse", Role: RoleStaff})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/patients", nil)
	req.AddCookie(ck)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var got Identity
	h := SessionMiddleware(m, zerolog.Nop())(func(c echo.Context) error {
		got = IdentityFromContext(c.Request().Context())
		return c.NoContent(http.StatusOK)
	})
	if err := h(c); err != nil {
		t.Fatal(err)
	}
	if got.Username != "nurse" || got.Role != RoleStaff {
		t.Errorf("unexpected identity %+v", got)
	}
	if c.Get("username") != "nurse" {
		t.Errorf("expected username in echo context, got %v", c.Get("username"))
	}
}

func TestSessionMiddleware_BadCookieIsAnonymous(t *testing.T) {
	m := newTestManager(nil)
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/patients", nil)
	req.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: "garbage"})
	c := e.NewContext(req, httptest.NewRecorder())

	var got Identity
	h := SessionMiddleware(m, zerolog.Nop())(func(c echo.Context) error {
		got = IdentityFromContext(c.Request().Context())
		return nil
	})
	if err := h(c); err != nil {
		t.Fatal(err)
	}
	if got.IsAuthenticated() {
		t.Errorf("expected anonymous, got %+v", got)
	}
	if got.String() != "Guest" {
		t.Errorf("expected Guest, got %s", got.String())
	}
}

func TestDevAuthMiddleware(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	var got Identity
	h := DevAuthMiddleware()(func(c echo.Context) error {
		got = IdentityFromContext(c.Request().Context())
		return nil
	})
	if err := h(c); err != nil {
		t.Fatal(err)
	}
	if !got.IsAdmin() {
		t.Errorf("expected dev admin, got %+v", got)
	}
}

func TestDevAuthMiddleware_KeepsRealSession(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithIdentity(req.Context(), Identity{UserID: "u2", Username: "nurse", Role: RoleStaff}))
	c := e.NewContext(req, httptest.NewRecorder())

	var got Identity
	h := DevAuthMiddleware()(func(c echo.Context) error {
		got = IdentityFromContext(c.Request().Context())
		return nil
	})
	_ = h(c)
	if got.Role != RoleStaff {
		t.Errorf("expected existing staff identity to survive, got %+v", got)
	}
}
