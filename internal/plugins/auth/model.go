// Package auth handles login, logout, and session management. Sessions are
// random tokens stored in Redis with a TTL; the token travels in an HttpOnly
// cookie. Access levels come from the users plugin.
package auth

import (
	"time"

	"github.com/veliry/timeclerk/internal/plugins/users"
)

// LoginRequest holds the data submitted by the login form.
type LoginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// Session represents an authenticated user session stored in Redis.
// The session ID is the key, and this struct is the value (JSON-encoded).
type Session struct {
	UserID    string      `json:"user_id"`
	Email     string      `json:"email"`
	Name      string      `json:"name"`
	Level     users.Level `json:"level"`
	Market    string      `json:"market"`
	CreatedAt time.Time   `json:"created_at"`
}
