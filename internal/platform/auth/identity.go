package auth

import "context"

const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

type contextKey string

const identityKey contextKey = "identity"

// Identity is the authenticated principal of a request. It is resolved once
// by SessionMiddleware and handed explicitly to the directory operations.
type Identity struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Anonymous is the zero identity.
var Anonymous = Identity{}

func (i Identity) IsAuthenticated() bool {
	return i.UserID != ""
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// String is the name used in log lines ("Guest" when unauthenticated).
func (i Identity) String() string {
	if !i.IsAuthenticated() {
		return "Guest"
	}
	return i.Username
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the request identity, or Anonymous.
func IdentityFromContext(ctx context.Context) Identity {
	id, _ := ctx.Value(identityKey).(Identity)
	return id
}
