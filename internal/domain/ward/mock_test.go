package ward

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ehr/wardadmin/internal/platform/apperr"
	"github.com/ehr/wardadmin/internal/platform/auth"
)

var errStore = errors.New("store unavailable")

var testActor = auth.Identity{UserID: "u-1", Username: "nurse", Role: auth.RoleStaff}

// -- Mock Patient Repository --

type mockPatientRepo struct {
	store map[uuid.UUID]*Patient
	order []uuid.UUID

	listErr      error
	setIsoCalls  int
	failSetIsoAt int // 1-based call that fails; 0 never fails
	setRoomErr   error
}

func newMockPatientRepo() *mockPatientRepo {
	return &mockPatientRepo{store: make(map[uuid.UUID]*Patient)}
}

func clonePatient(p *Patient) *Patient {
	cp := *p
	cp.Symptoms = append([]string(nil), p.Symptoms...)
	if p.Room != nil {
		r := *p.Room
		cp.Room = &r
	}
	return &cp
}

func (m *mockPatientRepo) Create(_ context.Context, p *Patient) error {
	p.ID = uuid.New()
	p.CreatedAt, p.UpdatedAt = time.Now(), time.Now()
	m.store[p.ID] = clonePatient(p)
	m.order = append(m.order, p.ID)
	return nil
}

func (m *mockPatientRepo) GetByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	p, ok := m.store[id]
	if !ok {
		return nil, fmt.Errorf("patient %s: %w", id, apperr.ErrNotFound)
	}
	return clonePatient(p), nil
}

func (m *mockPatientRepo) Update(_ context.Context, p *Patient) error {
	if _, ok := m.store[p.ID]; !ok {
		return nil
	}
	m.store[p.ID] = clonePatient(p)
	return nil
}

func (m *mockPatientRepo) SetRoom(_ context.Context, id uuid.UUID, room *string) error {
	if m.setRoomErr != nil {
		return m.setRoomErr
	}
	if p, ok := m.store[id]; ok {
		if room == nil {
			p.Room = nil
		} else {
			r := *room
			p.Room = &r
		}
	}
	return nil
}

func (m *mockPatientRepo) SetIsolation(_ context.Context, id uuid.UUID, isolated bool) error {
	m.setIsoCalls++
	if m.failSetIsoAt > 0 && m.setIsoCalls == m.failSetIsoAt {
		return errStore
	}
	if p, ok := m.store[id]; ok {
		p.IsIsolated = isolated
	}
	return nil
}

func (m *mockPatientRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.store[id]; !ok {
		return nil
	}
	delete(m.store, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func matchPatient(p *Patient, f PatientFilter) bool {
	if f.Name != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(f.Name)) {
		return false
	}
	if f.Condition != "" && p.Condition != f.Condition {
		return false
	}
	if f.IsIsolated != nil && p.IsIsolated != *f.IsIsolated {
		return false
	}
	if f.Room != "" && p.RoomNumber() != f.Room {
		return false
	}
	if f.Unassigned && p.Room != nil {
		return false
	}
	return true
}

func (m *mockPatientRepo) List(_ context.Context, f PatientFilter) ([]*Patient, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := []*Patient{}
	for _, id := range m.order {
		if p := m.store[id]; matchPatient(p, f) {
			out = append(out, clonePatient(p))
		}
	}
	return out, nil
}

func (m *mockPatientRepo) Count(ctx context.Context, f PatientFilter) (int, error) {
	list, err := m.List(ctx, f)
	return len(list), err
}

func (m *mockPatientRepo) DistinctConditions(_ context.Context) ([]string, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	seen := map[string]bool{}
	out := []string{}
	for _, id := range m.order {
		c := m.store[id].Condition
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out, nil
}

// -- Mock Room Repository --

type mockRoomRepo struct {
	store map[uuid.UUID]*Room
	order []uuid.UUID

	listErr error
	setErr  error
}

func newMockRoomRepo() *mockRoomRepo {
	return &mockRoomRepo{store: make(map[uuid.UUID]*Room)}
}

func (m *mockRoomRepo) Create(_ context.Context, r *Room) error {
	r.ID = uuid.New()
	cp := *r
	m.store[r.ID] = &cp
	m.order = append(m.order, r.ID)
	return nil
}

func (m *mockRoomRepo) GetByID(_ context.Context, id uuid.UUID) (*Room, error) {
	r, ok := m.store[id]
	if !ok {
		return nil, fmt.Errorf("room %s: %w", id, apperr.ErrNotFound)
	}
	cp := *r
	return &cp, nil
}

func (m *mockRoomRepo) GetByNumber(_ context.Context, roomNumber string) (*Room, error) {
	for _, id := range m.order {
		if r := m.store[id]; r.RoomNumber == roomNumber {
			cp := *r
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("room %q: %w", roomNumber, apperr.ErrNotFound)
}

func (m *mockRoomRepo) Update(_ context.Context, r *Room) error {
	cp := *r
	m.store[r.ID] = &cp
	return nil
}

func (m *mockRoomRepo) SetAvailability(_ context.Context, id uuid.UUID, available bool) error {
	if m.setErr != nil {
		return m.setErr
	}
	if r, ok := m.store[id]; ok {
		r.IsAvailable = available
	}
	return nil
}

func (m *mockRoomRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.store, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *mockRoomRepo) List(_ context.Context, f RoomFilter) ([]*Room, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := []*Room{}
	for _, id := range m.order {
		r := m.store[id]
		if f.AvailableOnly && !r.IsAvailable {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}
	return out, nil
}

func (m *mockRoomRepo) Count(ctx context.Context, f RoomFilter) (int, error) {
	list, err := m.List(ctx, f)
	return len(list), err
}

// -- helpers --

func newTestService() (*Service, *mockPatientRepo, *mockRoomRepo) {
	patients := newMockPatientRepo()
	rooms := newMockRoomRepo()
	return NewService(patients, rooms, nil, zerolog.Nop()), patients, rooms
}

func seedRoom(m *mockRoomRepo, number string, capacity int) *Room {
	r := &Room{RoomNumber: number, Type: "General", Capacity: capacity, IsAvailable: true}
	_ = m.Create(context.Background(), r)
	return r
}

func seedPatient(m *mockPatientRepo, p *Patient) *Patient {
	_ = m.Create(context.Background(), p)
	return p
}

func strPtr(s string) *string { return &s }
