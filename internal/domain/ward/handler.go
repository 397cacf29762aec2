package ward

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ehr/wardadmin/internal/platform/auth"
)

type Handler struct {
	svc    *Service
	logger zerolog.Logger
}

func NewHandler(svc *Service, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// RegisterRoutes mounts /patients and /rooms behind the given gate
// middleware (normally auth.RequireLogin).
func (h *Handler) RegisterRoutes(e *echo.Echo, gate ...echo.MiddlewareFunc) {
	patients := e.Group("/patients", gate...)
	patients.GET("", h.ListPatients)
	patients.GET("/new", h.NewPatientForm)
	patients.POST("", h.CreatePatient)
	patients.GET("/isolation/evaluate", h.EvaluateIsolation)
	patients.GET("/isolation/list", h.ListIsolated)
	patients.GET("/:id", h.GetPatient)
	patients.GET("/:id/edit", h.EditPatientForm)
	patients.PUT("/:id", h.UpdatePatient)
	patients.POST("/:id/unassign", h.UnassignPatient)
	patients.POST("/:id/discharge", h.DischargePatient)
	patients.DELETE("/:id", h.DeletePatient)

	rooms := e.Group("/rooms", gate...)
	rooms.GET("", h.ListRooms)
	rooms.GET("/new", h.NewRoomForm)
	rooms.POST("", h.CreateRoom)
	rooms.GET("/assign", h.AssignmentCandidates)
	rooms.GET("/assign/:patientId", h.AssignmentForm)
	rooms.POST("/assign", h.AssignRoom)
	rooms.GET("/:id", h.GetRoom)
	rooms.GET("/:id/edit", h.EditRoomForm)
	rooms.PUT("/:id", h.UpdateRoom)
	rooms.DELETE("/:id", h.DeleteRoom)
}

func actor(c echo.Context) auth.Identity {
	return auth.IdentityFromContext(c.Request().Context())
}

// pathID parses a UUID route parameter. A malformed id cannot name a
// record, so it is reported with the not-found message.
func pathID(c echo.Context, name, notFound string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusNotFound, notFound)
	}
	return id, nil
}

// formField returns the submitted value, or nil when the field was absent.
func formField(c echo.Context, name string) *string {
	params, err := c.FormParams()
	if err != nil {
		return nil
	}
	vals, ok := params[name]
	if !ok || len(vals) == 0 {
		return nil
	}
	v := vals[0]
	return &v
}
