package account

import (
	"time"

	"github.com/google/uuid"

	"github.com/ehr/wardadmin/internal/platform/auth"
)

// User is a login account. Staff sign up unapproved; admins are created
// from the command line and are always approved.
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Approved     bool      `json:"approved"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Identity is the session identity for the user.
func (u *User) Identity() auth.Identity {
	return auth.Identity{UserID: u.ID.String(), Username: u.Username, Role: u.Role}
}

// CanLogin reports whether the account may start a session. Only staff
// accounts wait for approval.
func (u *User) CanLogin() bool {
	return u.Role != auth.RoleStaff || u.Approved
}
