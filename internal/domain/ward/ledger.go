package ward

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/ehr/wardadmin/internal/platform/apperr"
	"github.com/ehr/wardadmin/internal/platform/telemetry"
)

// Ledger keeps Room.IsAvailable in line with occupancy. It reads the
// occupancy and writes the flag as two separate statements; concurrent
// assignments can interleave between them.
type Ledger struct {
	patients PatientRepository
	rooms    RoomRepository
	metrics  *telemetry.Provider
	logger   zerolog.Logger
}

func NewLedger(patients PatientRepository, rooms RoomRepository, metrics *telemetry.Provider, logger zerolog.Logger) *Ledger {
	return &Ledger{patients: patients, rooms: rooms, metrics: metrics, logger: logger}
}

// Recompute sets the room's availability to occupancy < capacity and
// returns the updated room. An unknown room number is skipped silently and
// yields (nil, nil).
func (l *Ledger) Recompute(ctx context.Context, roomNumber string) (*Room, error) {
	if roomNumber == "" {
		return nil, nil
	}
	room, err := l.rooms.GetByNumber(ctx, roomNumber)
	if apperr.IsNotFound(err) {
		l.metrics.ObserveRecompute(telemetry.RecomputeMissing)
		l.logger.Debug().Str("room", roomNumber).Msg("room not found, availability not recomputed")
		return nil, nil
	}
	if err != nil {
		return nil, apperr.NewPersistence("load room", err)
	}

	assigned, err := l.patients.Count(ctx, PatientFilter{Room: roomNumber})
	if err != nil {
		return nil, apperr.NewPersistence("count room occupants", err)
	}

	room.IsAvailable = assigned < room.Capacity
	if err := l.rooms.SetAvailability(ctx, room.ID, room.IsAvailable); err != nil {
		return nil, apperr.NewPersistence("save room availability", err)
	}

	result := telemetry.RecomputeAvailable
	if !room.IsAvailable {
		result = telemetry.RecomputeFull
	}
	l.metrics.ObserveRecompute(result)
	l.logger.Debug().
		Str("room", roomNumber).
		Int("assigned", assigned).
		Int("capacity", room.Capacity).
		Bool("available", room.IsAvailable).
		Msg("room availability recomputed")
	return room, nil
}
