package ward

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ehr/wardadmin/internal/platform/web"
)

// RoomListView is the room index page.
type RoomListView struct {
	Rooms []*Room `json:"rooms"`
}

func (h *Handler) ListRooms(c echo.Context) error {
	rooms, err := h.svc.ListRooms(c.Request().Context(), actor(c))
	if err != nil {
		return web.Fail(err, "Failed to load rooms.", "Failed to load rooms.")
	}
	return web.Respond(c, http.StatusOK, "rooms/index", RoomListView{Rooms: rooms})
}

func (h *Handler) NewRoomForm(c echo.Context) error {
	return c.Render(http.StatusOK, "rooms/new", nil)
}

func (h *Handler) CreateRoom(c echo.Context) error {
	in := RoomInput{
		RoomNumber: c.FormValue("roomNumber"),
		Type:       c.FormValue("type"),
		Capacity:   c.FormValue("capacity"),
	}
	if _, err := h.svc.CreateRoom(c.Request().Context(), actor(c), in); err != nil {
		return web.Fail(err, "Failed to add room.", "Failed to add room.")
	}
	return c.Redirect(http.StatusFound, "/rooms")
}

func (h *Handler) GetRoom(c echo.Context) error {
	id, err := pathID(c, "id", "Room not found.")
	if err != nil {
		return err
	}
	room, err := h.svc.GetRoom(c.Request().Context(), actor(c), id)
	if err != nil {
		return web.Fail(err, "Room not found.", "Failed to load room.")
	}
	return web.Respond(c, http.StatusOK, "rooms/show", room)
}

func (h *Handler) EditRoomForm(c echo.Context) error {
	id, err := pathID(c, "id", "Room not found.")
	if err != nil {
		return err
	}
	room, err := h.svc.GetRoom(c.Request().Context(), actor(c), id)
	if err != nil {
		return web.Fail(err, "Room not found.", "Failed to load room.")
	}
	return c.Render(http.StatusOK, "rooms/edit", room)
}

func (h *Handler) UpdateRoom(c echo.Context) error {
	id, err := pathID(c, "id", "Room not found.")
	if err != nil {
		return err
	}
	upd := RoomUpdate{
		RoomNumber: formField(c, "roomNumber"),
		Type:       formField(c, "type"),
		Capacity:   formField(c, "capacity"),
	}
	if _, err := h.svc.UpdateRoom(c.Request().Context(), actor(c), id, upd); err != nil {
		return web.Fail(err, "Room not found.", "Failed to update room.")
	}
	return c.Redirect(http.StatusFound, "/rooms")
}

func (h *Handler) DeleteRoom(c echo.Context) error {
	id, err := pathID(c, "id", "Room not found.")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteRoom(c.Request().Context(), actor(c), id); err != nil {
		return web.Fail(err, "Room not found.", "Failed to delete room.")
	}
	return c.Redirect(http.StatusFound, "/rooms")
}

func (h *Handler) AssignmentCandidates(c echo.Context) error {
	view, err := h.svc.AssignmentCandidates(c.Request().Context(), actor(c))
	if err != nil {
		return web.Fail(err, "Failed to load assignment page.", "Failed to load assignment page.")
	}
	return c.Render(http.StatusOK, "rooms/assign", view)
}

func (h *Handler) AssignmentForm(c echo.Context) error {
	id, err := pathID(c, "patientId", "Patient not found.")
	if err != nil {
		return err
	}
	view, err := h.svc.AssignmentForm(c.Request().Context(), actor(c), id)
	if err != nil {
		return web.Fail(err, "Patient not found.", "Failed to load assignment page.")
	}
	return c.Render(http.StatusOK, "rooms/assign", view)
}

func (h *Handler) AssignRoom(c echo.Context) error {
	patientID, err := uuid.Parse(c.FormValue("patientId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Patient not found.")
	}
	if _, err := h.svc.AssignRoom(c.Request().Context(), actor(c), patientID, c.FormValue("roomNumber")); err != nil {
		return web.Fail(err, "Patient not found.", "Failed to assign room.")
	}
	return c.Redirect(http.StatusFound, "/patients")
}
