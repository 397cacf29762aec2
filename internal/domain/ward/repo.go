package ward

import (
	"context"

	"github.com/google/uuid"
)

// PatientRepository persists patients. GetByID returns an error wrapping
// apperr.ErrNotFound for a missing row; Delete of a missing row is not an
// error.
type PatientRepository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	SetRoom(ctx context.Context, id uuid.UUID, room *string) error
	SetIsolation(ctx context.Context, id uuid.UUID, isolated bool) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f PatientFilter) ([]*Patient, error)
	Count(ctx context.Context, f PatientFilter) (int, error)
	DistinctConditions(ctx context.Context) ([]string, error)
}

// RoomRepository persists rooms. GetByNumber returns the first room with
// that number in storage order, since numbers are unique only by habit.
type RoomRepository interface {
	Create(ctx context.Context, r *Room) error
	GetByID(ctx context.Context, id uuid.UUID) (*Room, error)
	GetByNumber(ctx context.Context, roomNumber string) (*Room, error)
	Update(ctx context.Context, r *Room) error
	SetAvailability(ctx context.Context, id uuid.UUID, available bool) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f RoomFilter) ([]*Room, error)
	Count(ctx context.Context, f RoomFilter) (int, error)
}
