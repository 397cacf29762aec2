package ward

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"

	"github.com/ehr/wardadmin/internal/platform/apperr"
)

// The sqlite store keeps symptoms as a JSON array and orders by rowid.

var sqliteOrder = goqu.L("rowid").Asc()

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// -- Patient Repository --

type patientRepoSQLite struct {
	db *sql.DB
}

func NewPatientRepoSQLite(db *sql.DB) PatientRepository {
	return &patientRepoSQLite{db: db}
}

func (r *patientRepoSQLite) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	if p.Symptoms == nil {
		p.Symptoms = []string{}
	}
	symptoms, err := json.Marshal(p.Symptoms)
	if err != nil {
		return fmt.Errorf("encode symptoms: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO patients (id, name, age, condition, symptoms, infection_risk, is_isolated, room, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID.String(), p.Name, p.Age, p.Condition, string(symptoms), p.InfectionRisk, p.IsIsolated, p.Room, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert patient: %w", err)
	}
	return nil
}

func (r *patientRepoSQLite) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := scanPatientSQLite(r.db.QueryRowContext(ctx, `
		SELECT id, name, age, condition, symptoms, infection_risk, is_isolated, room, created_at, updated_at
		FROM patients WHERE id = ?`, id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("patient %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get patient: %w", err)
	}
	return p, nil
}

func (r *patientRepoSQLite) Update(ctx context.Context, p *Patient) error {
	p.UpdatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		UPDATE patients SET name = ?, age = ?, condition = ?, room = ?, updated_at = ?
		WHERE id = ?`,
		p.Name, p.Age, p.Condition, p.Room, p.UpdatedAt, p.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("update patient: %w", err)
	}
	return nil
}

func (r *patientRepoSQLite) SetRoom(ctx context.Context, id uuid.UUID, room *string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE patients SET room = ?, updated_at = ? WHERE id = ?`,
		room, time.Now().UTC(), id.String())
	if err != nil {
		return fmt.Errorf("set patient room: %w", err)
	}
	return nil
}

func (r *patientRepoSQLite) SetIsolation(ctx context.Context, id uuid.UUID, isolated bool) error {
	_, err := r.db.ExecContext(ctx, `UPDATE patients SET is_isolated = ?, updated_at = ? WHERE id = ?`,
		isolated, time.Now().UTC(), id.String())
	if err != nil {
		return fmt.Errorf("set patient isolation: %w", err)
	}
	return nil
}

func (r *patientRepoSQLite) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM patients WHERE id = ?`, id.String()); err != nil {
		return fmt.Errorf("delete patient: %w", err)
	}
	return nil
}

func (r *patientRepoSQLite) List(ctx context.Context, f PatientFilter) ([]*Patient, error) {
	query, args, err := selectPatients(sqliteDialect, f, sqliteOrder)
	if err != nil {
		return nil, fmt.Errorf("build patient query: %w", err)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	defer rows.Close()

	patients := []*Patient{}
	for rows.Next() {
		p, err := scanPatientSQLite(rows)
		if err != nil {
			return nil, fmt.Errorf("scan patient: %w", err)
		}
		patients = append(patients, p)
	}
	return patients, rows.Err()
}

func (r *patientRepoSQLite) Count(ctx context.Context, f PatientFilter) (int, error) {
	query, args, err := countPatients(sqliteDialect, f)
	if err != nil {
		return 0, fmt.Errorf("build patient count: %w", err)
	}
	var n int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count patients: %w", err)
	}
	return n, nil
}

func (r *patientRepoSQLite) DistinctConditions(ctx context.Context) ([]string, error) {
	query, args, err := distinctConditions(sqliteDialect)
	if err != nil {
		return nil, fmt.Errorf("build condition query: %w", err)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("distinct conditions: %w", err)
	}
	defer rows.Close()

	conditions := []string{}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan condition: %w", err)
		}
		conditions = append(conditions, c)
	}
	return conditions, rows.Err()
}

func scanPatientSQLite(row rowScanner) (*Patient, error) {
	var (
		p        Patient
		id       string
		symptoms string
	)
	err := row.Scan(
		&id, &p.Name, &p.Age, &p.Condition, &symptoms, &p.InfectionRisk,
		&p.IsIsolated, &p.Room, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if p.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse patient id: %w", err)
	}
	if err := json.Unmarshal([]byte(symptoms), &p.Symptoms); err != nil {
		return nil, fmt.Errorf("decode symptoms: %w", err)
	}
	if p.Symptoms == nil {
		p.Symptoms = []string{}
	}
	return &p, nil
}

// -- Room Repository --

type roomRepoSQLite struct {
	db *sql.DB
}

func NewRoomRepoSQLite(db *sql.DB) RoomRepository {
	return &roomRepoSQLite{db: db}
}

func (r *roomRepoSQLite) Create(ctx context.Context, room *Room) error {
	room.ID = uuid.New()
	now := time.Now().UTC()
	room.CreatedAt, room.UpdatedAt = now, now
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO rooms (id, room_number, type, capacity, is_available, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		room.ID.String(), room.RoomNumber, room.Type, room.Capacity, room.IsAvailable, room.CreatedAt, room.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert room: %w", err)
	}
	return nil
}

func (r *roomRepoSQLite) GetByID(ctx context.Context, id uuid.UUID) (*Room, error) {
	room, err := scanRoomSQLite(r.db.QueryRowContext(ctx, `
		SELECT id, room_number, type, capacity, is_available, created_at, updated_at
		FROM rooms WHERE id = ?`, id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("room %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get room: %w", err)
	}
	return room, nil
}

func (r *roomRepoSQLite) GetByNumber(ctx context.Context, roomNumber string) (*Room, error) {
	room, err := scanRoomSQLite(r.db.QueryRowContext(ctx, `
		SELECT id, room_number, type, capacity, is_available, created_at, updated_at
		FROM rooms WHERE room_number = ? ORDER BY rowid LIMIT 1`, roomNumber))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("room %q: %w", roomNumber, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get room by number: %w", err)
	}
	return room, nil
}

func (r *roomRepoSQLite) Update(ctx context.Context, room *Room) error {
	room.UpdatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		UPDATE rooms SET room_number = ?, type = ?, capacity = ?, updated_at = ?
		WHERE id = ?`,
		room.RoomNumber, room.Type, room.Capacity, room.UpdatedAt, room.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("update room: %w", err)
	}
	return nil
}

func (r *roomRepoSQLite) SetAvailability(ctx context.Context, id uuid.UUID, available bool) error {
	_, err := r.db.ExecContext(ctx, `UPDATE rooms SET is_available = ?, updated_at = ? WHERE id = ?`,
		available, time.Now().UTC(), id.String())
	if err != nil {
		return fmt.Errorf("set room availability: %w", err)
	}
	return nil
}

func (r *roomRepoSQLite) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, id.String()); err != nil {
		return fmt.Errorf("delete room: %w", err)
	}
	return nil
}

func (r *roomRepoSQLite) List(ctx context.Context, f RoomFilter) ([]*Room, error) {
	query, args, err := selectRooms(sqliteDialect, f, sqliteOrder)
	if err != nil {
		return nil, fmt.Errorf("build room query: %w", err)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	defer rows.Close()

	rooms := []*Room{}
	for rows.Next() {
		room, err := scanRoomSQLite(rows)
		if err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

func (r *roomRepoSQLite) Count(ctx context.Context, f RoomFilter) (int, error) {
	query, args, err := countRooms(sqliteDialect, f)
	if err != nil {
		return 0, fmt.Errorf("build room count: %w", err)
	}
	var n int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count rooms: %w", err)
	}
	return n, nil
}

func scanRoomSQLite(row rowScanner) (*Room, error) {
	var (
		room Room
		id   string
	)
	err := row.Scan(&id, &room.RoomNumber, &room.Type, &room.Capacity, &room.IsAvailable, &room.CreatedAt, &room.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if room.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse room id: %w", err)
	}
	return &room, nil
}
