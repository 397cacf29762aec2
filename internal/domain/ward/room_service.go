package ward

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/ehr/wardadmin/internal/platform/apperr"
	"github.com/ehr/wardadmin/internal/platform/auth"
)

// AssignmentView feeds the assignment form: available rooms plus either a
// single patient or every unassigned patient.
type AssignmentView struct {
	Rooms    []*Room
	Patients []*Patient
	Patient  *Patient
}

func (s *Service) ListRooms(ctx context.Context, actor auth.Identity) ([]*Room, error) {
	rooms, err := s.rooms.List(ctx, RoomFilter{})
	if err != nil {
		return nil, apperr.NewPersistence("list rooms", err)
	}
	return rooms, nil
}

func (s *Service) ListAvailableRooms(ctx context.Context, actor auth.Identity) ([]*Room, error) {
	rooms, err := s.rooms.List(ctx, RoomFilter{AvailableOnly: true})
	if err != nil {
		return nil, apperr.NewPersistence("list available rooms", err)
	}
	return rooms, nil
}

func (s *Service) GetRoom(ctx context.Context, actor auth.Identity, id uuid.UUID) (*Room, error) {
	room, err := s.rooms.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.NewPersistence("get room", err)
	}
	return room, nil
}

// CreateRoom stores a room as available without looking at any patients
// that may already reference its number.
func (s *Service) CreateRoom(ctx context.Context, actor auth.Identity, in RoomInput) (*Room, error) {
	capacity, err := parseCount("capacity", in.Capacity)
	if err != nil {
		return nil, err
	}
	room := &Room{
		RoomNumber:  strings.TrimSpace(in.RoomNumber),
		Type:        in.Type,
		Capacity:    capacity,
		IsAvailable: true,
	}
	if err := s.rooms.Create(ctx, room); err != nil {
		return nil, apperr.NewPersistence("create room", err)
	}
	s.logger.Info().Str("actor", actor.String()).Str("room", room.RoomNumber).Msg("room created")
	return room, nil
}

// UpdateRoom overwrites the submitted fields. Availability is not
// recomputed even when the capacity drops below the current occupancy.
func (s *Service) UpdateRoom(ctx context.Context, actor auth.Identity, id uuid.UUID, upd RoomUpdate) (*Room, error) {
	room, err := s.rooms.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.NewPersistence("load room", err)
	}
	if upd.RoomNumber != nil {
		room.RoomNumber = strings.TrimSpace(*upd.RoomNumber)
	}
	if upd.Type != nil {
		room.Type = *upd.Type
	}
	if upd.Capacity != nil {
		capacity, err := parseCount("capacity", *upd.Capacity)
		if err != nil {
			return nil, err
		}
		room.Capacity = capacity
	}
	if err := s.rooms.Update(ctx, room); err != nil {
		return nil, apperr.NewPersistence("update room", err)
	}
	s.logger.Info().Str("actor", actor.String()).Str("room_id", id.String()).Msg("room updated")
	return room, nil
}

// DeleteRoom removes the room only. Patients still pointing at its number
// keep the dangling reference.
func (s *Service) DeleteRoom(ctx context.Context, actor auth.Identity, id uuid.UUID) error {
	if err := s.rooms.Delete(ctx, id); err != nil {
		return apperr.NewPersistence("delete room", err)
	}
	s.logger.Info().Str("actor", actor.String()).Str("room_id", id.String()).Msg("room deleted")
	return nil
}

// AssignRoom points the patient at roomNumber and then recomputes that
// room's availability. The room is not checked for existence, capacity or
// availability first, so a full room can be over-filled.
func (s *Service) AssignRoom(ctx context.Context, actor auth.Identity, patientID uuid.UUID, roomNumber string) (*Room, error) {
	roomNumber = strings.TrimSpace(roomNumber)
	if roomNumber == "" {
		return nil, apperr.NewValidation("room number is required")
	}
	if _, err := s.patients.GetByID(ctx, patientID); err != nil {
		return nil, apperr.NewPersistence("load patient", err)
	}

	if err := s.patients.SetRoom(ctx, patientID, &roomNumber); err != nil {
		return nil, apperr.NewPersistence("assign room", err)
	}
	s.metrics.ObserveAssignment()

	room, err := s.ledger.Recompute(ctx, roomNumber)
	if err != nil {
		return nil, err
	}
	evt := s.logger.Info().
		Str("actor", actor.String()).
		Str("patient_id", patientID.String()).
		Str("room", roomNumber)
	if room != nil {
		evt = evt.Bool("room_available", room.IsAvailable)
	}
	evt.Msg("patient assigned to room")
	return room, nil
}

// AssignmentCandidates lists available rooms and unassigned patients.
func (s *Service) AssignmentCandidates(ctx context.Context, actor auth.Identity) (*AssignmentView, error) {
	rooms, err := s.ListAvailableRooms(ctx, actor)
	if err != nil {
		return nil, err
	}
	patients, err := s.patients.List(ctx, PatientFilter{Unassigned: true})
	if err != nil {
		return nil, apperr.NewPersistence("list unassigned patients", err)
	}
	return &AssignmentView{Rooms: rooms, Patients: patients}, nil
}

// AssignmentForm lists available rooms for one patient.
func (s *Service) AssignmentForm(ctx context.Context, actor auth.Identity, patientID uuid.UUID) (*AssignmentView, error) {
	rooms, err := s.ListAvailableRooms(ctx, actor)
	if err != nil {
		return nil, err
	}
	p, err := s.patients.GetByID(ctx, patientID)
	if err != nil {
		return nil, apperr.NewPersistence("load patient", err)
	}
	return &AssignmentView{Rooms: rooms, Patient: p}, nil
}
