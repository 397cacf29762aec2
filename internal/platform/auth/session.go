package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const DefaultCookieName = "wardadmin_session"

var ErrSessionRevoked = errors.New("session revoked")

// SessionClaims is the payload of the signed session cookie.
type SessionClaims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
	Role     string `json:"role"`
}

// SessionConfig configures a SessionManager.
type SessionConfig struct {
	Secret     []byte
	TTL        time.Duration
	CookieName string
	Secure     bool
}

// SessionManager issues, parses and revokes HS256-signed session cookies.
type SessionManager struct {
	cfg     SessionConfig
	revoked RevocationStore
	now     func() time.Time
}

func NewSessionManager(cfg SessionConfig, revoked RevocationStore) *SessionManager {
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultCookieName
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 12 * time.Hour
	}
	return &SessionManager{cfg: cfg, revoked: revoked, now: time.Now}
}

// Issue signs a session for id and sets it as the session cookie.
func (m *SessionManager) Issue(c echo.Context, id Identity) error {
	token, expires, err := m.Sign(id)
	if err != nil {
		return err
	}
	c.SetCookie(m.cookie(token, expires))
	return nil
}

// Sign returns a signed session token for id and its expiry.
func (m *SessionManager) Sign(id Identity) (string, time.Time, error) {
	now := m.now()
	expires := now.Add(m.cfg.TTL)
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		Username: id.Username,
		Role:     id.Role,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.cfg.Secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session: %w", err)
	}
	return token, expires, nil
}

// Parse validates a session token and checks the revocation store.
func (m *SessionManager) Parse(ctx context.Context, tokenStr string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return m.cfg.Secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithTimeFunc(m.now))
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid session: %w", err)
	}

	if m.revoked != nil && claims.ID != "" {
		revoked, err := m.revoked.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("check revocation: %w", err)
		}
		if revoked {
			return nil, ErrSessionRevoked
		}
	}
	return claims, nil
}

// Revoke invalidates the request's session (if any) and clears the cookie.
func (m *SessionManager) Revoke(c echo.Context) error {
	defer c.SetCookie(m.cookie("", time.Unix(0, 0)))

	cookie, err := c.Cookie(m.cfg.CookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	claims, err := m.Parse(c.Request().Context(), cookie.Value)
	if err != nil {
		return nil
	}
	if m.revoked == nil {
		return nil
	}
	return m.revoked.Revoke(c.Request().Context(), claims.ID, claims.ExpiresAt.Time)
}

func (m *SessionManager) cookie(value string, expires time.Time) *http.Cookie {
	ck := &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   m.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if value == "" {
		ck.MaxAge = -1
	}
	return ck
}
