package ward

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ehr/wardadmin/internal/platform/apperr"
)

// queryable is satisfied by *pgxpool.Pool and pgx.Tx.
type queryable interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// -- Patient Repository --

type patientRepoPG struct {
	pool *pgxpool.Pool
}

func NewPatientRepoPG(pool *pgxpool.Pool) PatientRepository {
	return &patientRepoPG{pool: pool}
}

func (r *patientRepoPG) conn() queryable {
	return r.pool
}

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	if p.Symptoms == nil {
		p.Symptoms = []string{}
	}
	_, err := r.conn().Exec(ctx, `
		INSERT INTO patients (id, name, age, condition, symptoms, infection_risk, is_isolated, room, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		p.ID, p.Name, p.Age, p.Condition, p.Symptoms, p.InfectionRisk, p.IsIsolated, p.Room, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert patient: %w", err)
	}
	return nil
}

func (r *patientRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := scanPatientPG(r.conn().QueryRow(ctx, `
		SELECT id, name, age, condition, symptoms, infection_risk, is_isolated, room, created_at, updated_at
		FROM patients WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("patient %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get patient: %w", err)
	}
	return p, nil
}

func (r *patientRepoPG) Update(ctx context.Context, p *Patient) error {
	p.UpdatedAt = time.Now().UTC()
	_, err := r.conn().Exec(ctx, `
		UPDATE patients SET name = $2, age = $3, condition = $4, room = $5, updated_at = $6
		WHERE id = $1`,
		p.ID, p.Name, p.Age, p.Condition, p.Room, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update patient: %w", err)
	}
	return nil
}

func (r *patientRepoPG) SetRoom(ctx context.Context, id uuid.UUID, room *string) error {
	_, err := r.conn().Exec(ctx, `UPDATE patients SET room = $2, updated_at = NOW() WHERE id = $1`, id, room)
	if err != nil {
		return fmt.Errorf("set patient room: %w", err)
	}
	return nil
}

func (r *patientRepoPG) SetIsolation(ctx context.Context, id uuid.UUID, isolated bool) error {
	_, err := r.conn().Exec(ctx, `UPDATE patients SET is_isolated = $2, updated_at = NOW() WHERE id = $1`, id, isolated)
	if err != nil {
		return fmt.Errorf("set patient isolation: %w", err)
	}
	return nil
}

func (r *patientRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.conn().Exec(ctx, `DELETE FROM patients WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete patient: %w", err)
	}
	return nil
}

func (r *patientRepoPG) List(ctx context.Context, f PatientFilter) ([]*Patient, error) {
	query, args, err := selectPatients(pgDialect, f, goqu.C("seq").Asc())
	if err != nil {
		return nil, fmt.Errorf("build patient query: %w", err)
	}
	rows, err := r.conn().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	defer rows.Close()

	patients := []*Patient{}
	for rows.Next() {
		p, err := scanPatientPG(rows)
		if err != nil {
			return nil, fmt.Errorf("scan patient: %w", err)
		}
		patients = append(patients, p)
	}
	return patients, rows.Err()
}

func (r *patientRepoPG) Count(ctx context.Context, f PatientFilter) (int, error) {
	query, args, err := countPatients(pgDialect, f)
	if err != nil {
		return 0, fmt.Errorf("build patient count: %w", err)
	}
	var n int
	if err := r.conn().QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count patients: %w", err)
	}
	return n, nil
}

func (r *patientRepoPG) DistinctConditions(ctx context.Context) ([]string, error) {
	query, args, err := distinctConditions(pgDialect)
	if err != nil {
		return nil, fmt.Errorf("build condition query: %w", err)
	}
	rows, err := r.conn().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("distinct conditions: %w", err)
	}
	conditions, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan conditions: %w", err)
	}
	return conditions, nil
}

func scanPatientPG(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(
		&p.ID, &p.Name, &p.Age, &p.Condition, &p.Symptoms, &p.InfectionRisk,
		&p.IsIsolated, &p.Room, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if p.Symptoms == nil {
		p.Symptoms = []string{}
	}
	return &p, nil
}

// -- Room Repository --

type roomRepoPG struct {
	pool *pgxpool.Pool
}

func NewRoomRepoPG(pool *pgxpool.Pool) RoomRepository {
	return &roomRepoPG{pool: pool}
}

func (r *roomRepoPG) conn() queryable {
	return r.pool
}

func (r *roomRepoPG) Create(ctx context.Context, room *Room) error {
	room.ID = uuid.New()
	now := time.Now().UTC()
	room.CreatedAt, room.UpdatedAt = now, now
	_, err := r.conn().Exec(ctx, `
		INSERT INTO rooms (id, room_number, type, capacity, is_available, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		room.ID, room.RoomNumber, room.Type, room.Capacity, room.IsAvailable, room.CreatedAt, room.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert room: %w", err)
	}
	return nil
}

func (r *roomRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Room, error) {
	room, err := scanRoomPG(r.conn().QueryRow(ctx, `
		SELECT id, room_number, type, capacity, is_available, created_at, updated_at
		FROM rooms WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("room %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get room: %w", err)
	}
	return room, nil
}

func (r *roomRepoPG) GetByNumber(ctx context.Context, roomNumber string) (*Room, error) {
	room, err := scanRoomPG(r.conn().QueryRow(ctx, `
		SELECT id, room_number, type, capacity, is_available, created_at, updated_at
		FROM rooms WHERE room_number = $1 ORDER BY seq LIMIT 1`, roomNumber))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("room %q: %w", roomNumber, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get room by number: %w", err)
	}
	return room, nil
}

func (r *roomRepoPG) Update(ctx context.Context, room *Room) error {
	room.UpdatedAt = time.Now().UTC()
	_, err := r.conn().Exec(ctx, `
		UPDATE rooms SET room_number = $2, type = $3, capacity = $4, updated_at = $5
		WHERE id = $1`,
		room.ID, room.RoomNumber, room.Type, room.Capacity, room.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update room: %w", err)
	}
	return nil
}

func (r *roomRepoPG) SetAvailability(ctx context.Context, id uuid.UUID, available bool) error {
	_, err := r.conn().Exec(ctx, `UPDATE rooms SET is_available = $2, updated_at = NOW() WHERE id = $1`, id, available)
	if err != nil {
		return fmt.Errorf("set room availability: %w", err)
	}
	return nil
}

func (r *roomRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.conn().Exec(ctx, `DELETE FROM rooms WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete room: %w", err)
	}
	return nil
}

func (r *roomRepoPG) List(ctx context.Context, f RoomFilter) ([]*Room, error) {
	query, args, err := selectRooms(pgDialect, f, goqu.C("seq").Asc())
	if err != nil {
		return nil, fmt.Errorf("build room query: %w", err)
	}
	rows, err := r.conn().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	defer rows.Close()

	rooms := []*Room{}
	for rows.Next() {
		room, err := scanRoomPG(rows)
		if err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

func (r *roomRepoPG) Count(ctx context.Context, f RoomFilter) (int, error) {
	query, args, err := countRooms(pgDialect, f)
	if err != nil {
		return 0, fmt.Errorf("build room count: %w", err)
	}
	var n int
	if err := r.conn().QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count rooms: %w", err)
	}
	return n, nil
}

func scanRoomPG(row pgx.Row) (*Room, error) {
	var room Room
	err := row.Scan(&room.ID, &room.RoomNumber, &room.Type, &room.Capacity, &room.IsAvailable, &room.CreatedAt, &room.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &room, nil
}
