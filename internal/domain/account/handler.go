package account

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ehr/wardadmin/internal/platform/apperr"
	"github.com/ehr/wardadmin/internal/platform/auth"
	"github.com/ehr/wardadmin/internal/platform/web"
)

// FormView feeds the login and signup pages.
type FormView struct {
	Error   string `json:"error,omitempty"`
	Success bool   `json:"success,omitempty"`
}

type PendingUsersView struct {
	Users []*User `json:"users"`
}

type Handler struct {
	svc      *Service
	sessions *auth.SessionManager
	logger   zerolog.Logger
}

func NewHandler(svc *Service, sessions *auth.SessionManager, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, sessions: sessions, logger: logger}
}

// RegisterRoutes mounts the open account pages and the admin user pages.
// throttle wraps the credential-accepting POST routes.
func (h *Handler) RegisterRoutes(e *echo.Echo, throttle ...echo.MiddlewareFunc) {
	e.GET("/signup", h.SignupForm)
	e.POST("/signup", h.Signup, throttle...)
	e.GET("/login", h.LoginForm)
	e.POST("/login", h.Login, throttle...)
	e.GET("/logout", h.Logout)

	admin := e.Group("/admin", auth.RequireAdmin())
	admin.GET("/pending-users", h.PendingUsers)
	admin.POST("/users/:id/approve", h.ApproveUser)
	admin.DELETE("/users/:id", h.DeleteUser)
}

// DashboardPath is where a role lands after login.
func DashboardPath(role string) (string, bool) {
	switch role {
	case auth.RoleAdmin:
		return "/dashboard_admin", true
	case auth.RoleStaff:
		return "/dashboard_staff", true
	}
	return "", false
}

func (h *Handler) SignupForm(c echo.Context) error {
	return c.Render(http.StatusOK, "signup", FormView{Success: c.QueryParam("success") != ""})
}

func (h *Handler) Signup(c echo.Context) error {
	_, err := h.svc.Signup(c.Request().Context(), c.FormValue("username"), c.FormValue("password"))
	switch {
	case err == nil:
		return c.Redirect(http.StatusFound, "/signup?success=1")
	case apperr.IsConflict(err):
		return c.Render(http.StatusOK, "signup", FormView{Error: "Username already exists."})
	default:
		h.logger.Error().Err(err).Msg("signup failed")
		return c.Render(http.StatusOK, "signup", FormView{Error: "Something went wrong. Please try again."})
	}
}

func (h *Handler) LoginForm(c echo.Context) error {
	return c.Render(http.StatusOK, "login", FormView{})
}

func (h *Handler) Login(c echo.Context) error {
	u, err := h.svc.Authenticate(c.Request().Context(), c.FormValue("username"), c.FormValue("password"))
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return c.Render(http.StatusUnauthorized, "login", FormView{Error: "Invalid username or password."})
	case errors.Is(err, ErrPendingApproval):
		return c.Render(http.StatusForbidden, "login", FormView{Error: "Your account is pending approval."})
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, "Login failed.").SetInternal(err)
	}

	dest, ok := DashboardPath(u.Role)
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "Unknown user role.")
	}
	if err := h.sessions.Issue(c, u.Identity()); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Login failed.").SetInternal(err)
	}
	h.logger.Info().Str("username", u.Username).Str("role", u.Role).Msg("login")
	return c.Redirect(http.StatusFound, dest)
}

func (h *Handler) Logout(c echo.Context) error {
	if err := h.sessions.Revoke(c); err != nil {
		h.logger.Warn().Err(err).Msg("session revocation failed")
	}
	return c.Redirect(http.StatusFound, auth.LoginPath)
}

func (h *Handler) PendingUsers(c echo.Context) error {
	users, err := h.svc.ListPending(c.Request().Context(), auth.IdentityFromContext(c.Request().Context()))
	if err != nil {
		return web.Fail(err, "Error loading pending users.", "Error loading pending users.")
	}
	return web.Respond(c, http.StatusOK, "admin/pending_users", PendingUsersView{Users: users})
}

func (h *Handler) ApproveUser(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "User not found.")
	}
	if err := h.svc.Approve(c.Request().Context(), auth.IdentityFromContext(c.Request().Context()), id); err != nil {
		return web.Fail(err, "User not found.", "Failed to approve user.")
	}
	return c.Redirect(http.StatusFound, "/admin/pending-users")
}

func (h *Handler) DeleteUser(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "User not found.")
	}
	if err := h.svc.Delete(c.Request().Context(), auth.IdentityFromContext(c.Request().Context()), id); err != nil {
		return web.Fail(err, "User not found.", "Failed to delete user.")
	}
	return c.Redirect(http.StatusFound, "/admin/pending-users")
}
