// Package dashboard serves the role landing pages with ward counts.
package dashboard

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ehr/wardadmin/internal/domain/account"
	"github.com/ehr/wardadmin/internal/domain/ward"
	"github.com/ehr/wardadmin/internal/platform/apperr"
	"github.com/ehr/wardadmin/internal/platform/auth"
	"github.com/ehr/wardadmin/internal/platform/web"
)

// Summary is shown on both dashboards.
type Summary struct {
	TotalPatients    int `json:"totalPatients"`
	IsolatedPatients int `json:"isolatedPatients"`
	TotalRooms       int `json:"totalRooms"`
	AvailableRooms   int `json:"availableRooms"`
}

type Service struct {
	patients ward.PatientRepository
	rooms    ward.RoomRepository
}

func NewService(patients ward.PatientRepository, rooms ward.RoomRepository) *Service {
	return &Service{patients: patients, rooms: rooms}
}

// Summary counts patients and rooms; the four counts are separate reads.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	var (
		sum      Summary
		err      error
		isolated = true
	)
	if sum.TotalPatients, err = s.patients.Count(ctx, ward.PatientFilter{}); err != nil {
		return sum, apperr.NewPersistence("count patients", err)
	}
	if sum.IsolatedPatients, err = s.patients.Count(ctx, ward.PatientFilter{IsIsolated: &isolated}); err != nil {
		return sum, apperr.NewPersistence("count isolated patients", err)
	}
	if sum.TotalRooms, err = s.rooms.Count(ctx, ward.RoomFilter{}); err != nil {
		return sum, apperr.NewPersistence("count rooms", err)
	}
	if sum.AvailableRooms, err = s.rooms.Count(ctx, ward.RoomFilter{AvailableOnly: true}); err != nil {
		return sum, apperr.NewPersistence("count available rooms", err)
	}
	return sum, nil
}

type Handler struct {
	svc    *Service
	logger zerolog.Logger
}

func NewHandler(svc *Service, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Root)
	e.GET("/dashboard_admin", h.Admin, auth.RequireAdmin())
	e.GET("/dashboard_staff", h.Staff, auth.RequireStaff())
}

// Root sends the user to the dashboard for their role.
func (h *Handler) Root(c echo.Context) error {
	id := auth.IdentityFromContext(c.Request().Context())
	if !id.IsAuthenticated() {
		return c.Redirect(http.StatusFound, auth.LoginPath)
	}
	dest, ok := account.DashboardPath(id.Role)
	if !ok {
		h.logger.Warn().Str("user", id.Username).Str("role", id.Role).Msg("no dashboard for role")
		return echo.NewHTTPError(http.StatusForbidden, "Unauthorized role")
	}
	return c.Redirect(http.StatusFound, dest)
}

func (h *Handler) Admin(c echo.Context) error {
	return h.render(c, "dashboard_admin", "Error loading dashboard.")
}

func (h *Handler) Staff(c echo.Context) error {
	return h.render(c, "dashboard_staff", "Error loading staff dashboard.")
}

func (h *Handler) render(c echo.Context, page, failure string) error {
	sum, err := h.svc.Summary(c.Request().Context())
	if err != nil {
		return web.Fail(err, failure, failure)
	}
	return web.Respond(c, http.StatusOK, page, sum)
}
