package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ehr/wardadmin/internal/platform/auth"
)

// AuditEntry records who touched which ward resource and how.
type AuditEntry struct {
	Username   string
	Role       string
	Resource   string // patients, rooms, admin
	PatientID  string
	Action     string // create, update, delete
	Method     string
	Path       string
	IPAddress  string
	UserAgent  string
	RequestID  string
	StatusCode int
	Timestamp  time.Time
}

// AuditRecorder persists audit entries somewhere other than the log.
type AuditRecorder interface {
	RecordAccess(entry AuditEntry) error
}

// AuditRecorderFunc is a function adapter for AuditRecorder.
type AuditRecorderFunc func(entry AuditEntry) error

func (f AuditRecorderFunc) RecordAccess(entry AuditEntry) error {
	return f(entry)
}

// Audit logs every change to patient, room and account routes after the
// handler has run, so the entry carries the final status. Reads are not
// audited.
func Audit(logger zerolog.Logger, recorders ...AuditRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			resource := auditResource(req.URL.Path)
			if resource == "" || safeMethod(req.Method) {
				return next(c)
			}

			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			id := auth.IdentityFromContext(req.Context())
			entry := AuditEntry{
				Username:   id.String(),
				Role:       id.Role,
				Resource:   resource,
				PatientID:  auditPatientID(c, resource),
				Action:     httpMethodToAction(req.Method),
				Method:     req.Method,
				Path:       req.URL.Path,
				IPAddress:  c.RealIP(),
				UserAgent:  req.UserAgent(),
				StatusCode: status,
				Timestamp:  time.Now().UTC(),
			}
			entry.RequestID, _ = c.Get("request_id").(string)

			for _, r := range recorders {
				if r == nil {
					continue
				}
				if recErr := r.RecordAccess(entry); recErr != nil {
					logger.Error().Err(recErr).
						Str("request_id", entry.RequestID).
						Msg("failed to record audit entry")
				}
			}

			logger.Info().
				Str("type", "audit").
				Str("request_id", entry.RequestID).
				Str("user", entry.Username).
				Str("role", entry.Role).
				Str("resource", entry.Resource).
				Str("patient_id", entry.PatientID).
				Str("action", entry.Action).
				Str("method", entry.Method).
				Str("path", entry.Path).
				Str("remote_ip", entry.IPAddress).
				Int("status", entry.StatusCode).
				Msg("ward_access")

			return err
		}
	}
}

func auditResource(path string) string {
	for _, prefix := range []string{"patients", "rooms", "admin"} {
		p := "/" + prefix
		if path == p || strings.HasPrefix(path, p+"/") {
			return prefix
		}
	}
	return ""
}

func safeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

func httpMethodToAction(method string) string {
	switch method {
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	default:
		return strings.ToLower(method)
	}
}

// auditPatientID reads the patient from the route parameters, falling back
// to a posted patientId for room assignment forms.
func auditPatientID(c echo.Context, resource string) string {
	if pid := c.Param("patientId"); pid != "" {
		return pid
	}
	if resource == "patients" {
		if id := c.Param("id"); id != "" {
			return id
		}
	}
	if resource == "rooms" && c.Request().Method == http.MethodPost {
		return c.FormValue("patientId")
	}
	return ""
}
