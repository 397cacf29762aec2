package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ehr/wardadmin/internal/platform/apperr"
	"github.com/ehr/wardadmin/internal/platform/auth"
)

type userRepoSQLite struct {
	db *sql.DB
}

func NewUserRepoSQLite(db *sql.DB) UserRepository {
	return &userRepoSQLite{db: db}
}

func (r *userRepoSQLite) Create(ctx context.Context, u *User) error {
	u.ID = uuid.New()
	u.CreatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, username, password_hash, role, approved, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID.String(), u.Username, u.PasswordHash, u.Role, u.Approved, u.CreatedAt,
	)
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return apperr.NewConflict("username already exists")
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *userRepoSQLite) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return r.get(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id.String())
}

func (r *userRepoSQLite) GetByUsername(ctx context.Context, username string) (*User, error) {
	return r.get(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
}

func (r *userRepoSQLite) get(ctx context.Context, query string, arg string) (*User, error) {
	u, err := scanUserSQLite(r.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", arg, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (r *userRepoSQLite) SetApproved(ctx context.Context, id uuid.UUID, approved bool) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE users SET approved = ? WHERE id = ?`, approved, id.String()); err != nil {
		return fmt.Errorf("approve user: %w", err)
	}
	return nil
}

func (r *userRepoSQLite) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id.String()); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

func (r *userRepoSQLite) ListPending(ctx context.Context) ([]*User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE role = ? AND approved = 0
		ORDER BY created_at, rowid`, auth.RoleStaff)
	if err != nil {
		return nil, fmt.Errorf("list pending users: %w", err)
	}
	defer rows.Close()

	users := []*User{}
	for rows.Next() {
		u, err := scanUserSQLite(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUserSQLite(row rowScanner) (*User, error) {
	var (
		u  User
		id string
	)
	if err := row.Scan(&id, &u.Username, &u.PasswordHash, &u.Role, &u.Approved, &u.CreatedAt); err != nil {
		return nil, err
	}
	var err error
	if u.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse user id: %w", err)
	}
	return &u, nil
}
