package auth

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/veliry/timeclerk/internal/middleware"
)

// RegisterRoutes sets up the auth routes on the given Echo instance.
// Login routes are public; the session middleware is exported separately
// for other plugins to use on their route groups.
//
// POST /login is rate-limited to slow down brute-force and credential
// stuffing attacks: 10 attempts per IP per minute.
func RegisterRoutes(e *echo.Echo, h *Handler) {
	e.GET("/login", h.LoginForm)
	e.POST("/login", h.Login, middleware.RateLimit(10, time.Minute))

	// Logout requires an active session cookie, but validating it is
	// pointless: logging out an invalid session is still a logout.
	e.POST("/logout", h.Logout)
}
