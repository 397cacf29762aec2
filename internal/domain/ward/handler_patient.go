package ward

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ehr/wardadmin/internal/platform/web"
)

// PatientListView is the patient index page; JSON clients get it as is.
type PatientListView struct {
	Title      string       `json:"title"`
	Patients   []*Patient   `json:"patients"`
	Conditions []string     `json:"conditions"`
	Query      PatientQuery `json:"query"`
}

// PatientQuery echoes the raw filter values back into the form.
type PatientQuery struct {
	Name       string `json:"name,omitempty"`
	Condition  string `json:"condition,omitempty"`
	IsIsolated string `json:"isIsolated,omitempty"`
	Room       string `json:"room,omitempty"`
}

// ListPatients falls back to an empty list when the store fails, as the
// page is the landing point after every patient action.
func (h *Handler) ListPatients(c echo.Context) error {
	q := PatientQuery{
		Name:       c.QueryParam("name"),
		Condition:  c.QueryParam("condition"),
		IsIsolated: c.QueryParam("isIsolated"),
		Room:       c.QueryParam("room"),
	}
	view := PatientListView{Title: "All Patients", Patients: []*Patient{}, Conditions: []string{}}

	list, err := h.svc.ListPatients(c.Request().Context(), actor(c), ParsePatientFilter(q.Name, q.Condition, q.IsIsolated, q.Room))
	if err != nil {
		h.logger.Error().Err(err).Msg("error fetching patients")
		return web.Respond(c, http.StatusOK, "patients/index", view)
	}
	view.Patients, view.Conditions, view.Query = list.Patients, list.Conditions, q
	return web.Respond(c, http.StatusOK, "patients/index", view)
}

func (h *Handler) ListIsolated(c echo.Context) error {
	patients, err := h.svc.ListIsolated(c.Request().Context(), actor(c))
	if err != nil {
		return web.Fail(err, "Failed to load isolated patients.", "Failed to load isolated patients.")
	}
	return web.Respond(c, http.StatusOK, "patients/index", PatientListView{
		Title:      "Isolated Patients",
		Patients:   patients,
		Conditions: []string{},
	})
}

func (h *Handler) EvaluateIsolation(c echo.Context) error {
	if _, err := h.svc.EvaluateIsolation(c.Request().Context(), actor(c)); err != nil {
		return web.Fail(err, "Failed to evaluate isolation.", "Failed to evaluate isolation.")
	}
	return c.Redirect(http.StatusFound, "/patients")
}

func (h *Handler) NewPatientForm(c echo.Context) error {
	return c.Render(http.StatusOK, "patients/new", nil)
}

func (h *Handler) CreatePatient(c echo.Context) error {
	in := PatientInput{
		Name:          c.FormValue("name"),
		Age:           c.FormValue("age"),
		Condition:     c.FormValue("condition"),
		Symptoms:      c.FormValue("symptoms"),
		InfectionRisk: c.FormValue("infectionRisk"),
	}
	if _, err := h.svc.CreatePatient(c.Request().Context(), actor(c), in); err != nil {
		return web.Fail(err, "Failed to add patient.", "Failed to add patient.")
	}
	return c.Redirect(http.StatusFound, "/patients")
}

func (h *Handler) GetPatient(c echo.Context) error {
	id, err := pathID(c, "id", "Patient not found")
	if err != nil {
		return err
	}
	p, err := h.svc.GetPatient(c.Request().Context(), actor(c), id)
	if err != nil {
		return web.Fail(err, "Patient not found", "Failed to load patient.")
	}
	return web.Respond(c, http.StatusOK, "patients/show", p)
}

func (h *Handler) EditPatientForm(c echo.Context) error {
	id, err := pathID(c, "id", "Patient not found.")
	if err != nil {
		return err
	}
	p, err := h.svc.GetPatient(c.Request().Context(), actor(c), id)
	if err != nil {
		return web.Fail(err, "Patient not found.", "Failed to load patient.")
	}
	return c.Render(http.StatusOK, "patients/edit", p)
}

func (h *Handler) UpdatePatient(c echo.Context) error {
	id, err := pathID(c, "id", "Patient not found.")
	if err != nil {
		return err
	}
	upd := PatientUpdate{
		Name:      formField(c, "name"),
		Age:       formField(c, "age"),
		Condition: formField(c, "condition"),
		Room:      formField(c, "room"),
	}
	if _, err := h.svc.UpdatePatient(c.Request().Context(), actor(c), id, upd); err != nil {
		return web.Fail(err, "Patient not found.", "Failed to update patient.")
	}
	return c.Redirect(http.StatusFound, "/patients")
}

func (h *Handler) UnassignPatient(c echo.Context) error {
	id, err := pathID(c, "id", "Patient not found.")
	if err != nil {
		return err
	}
	if err := h.svc.UnassignPatient(c.Request().Context(), actor(c), id); err != nil {
		return web.Fail(err, "Patient not found.", "Failed to unassign room.")
	}
	return c.Redirect(http.StatusFound, "/patients")
}

func (h *Handler) DischargePatient(c echo.Context) error {
	id, err := pathID(c, "id", "Patient not found.")
	if err != nil {
		return err
	}
	if err := h.svc.DischargePatient(c.Request().Context(), actor(c), id); err != nil {
		return web.Fail(err, "Patient not found.", "Failed to discharge patient.")
	}
	return c.Redirect(http.StatusFound, "/patients")
}

func (h *Handler) DeletePatient(c echo.Context) error {
	id, err := pathID(c, "id", "Patient not found.")
	if err != nil {
		return err
	}
	if err := h.svc.DeletePatient(c.Request().Context(), actor(c), id); err != nil {
		return web.Fail(err, "Patient not found.", "Failed to delete patient.")
	}
	return c.Redirect(http.StatusFound, "/patients")
}
