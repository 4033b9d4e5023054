package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/veliry/timeclerk/internal/middleware"
	"github.com/veliry/timeclerk/internal/plugins/users"
)

// Context key for storing session data in Echo context. Other plugins
// access the session via the exported getters below.
const contextKeySession = "auth_session"

// RequireAuth returns middleware that validates the session cookie and
// injects session data into the request context. If the session is
// invalid or missing, it redirects browsers to /login or returns 401
// for /ajax/ requests.
func RequireAuth(service Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := getSessionToken(c)
			if token == "" {
				return handleUnauthenticated(c)
			}

			session, err := service.ValidateSession(c.Request().Context(), token)
			if err != nil {
				// Invalid or expired session -- clear the stale cookie.
				clearSessionCookie(c)
				return handleUnauthenticated(c)
			}

			c.Set(contextKeySession, session)

			return next(c)
		}
	}
}

// RequireLevel returns middleware that rejects sessions below the given
// access level. Apply after RequireAuth.
func RequireLevel(min users.Level) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			session := GetSession(c)
			if session == nil {
				return handleUnauthenticated(c)
			}
			if !session.Level.AtLeast(min) {
				if isAjaxPath(c) {
					return c.JSON(http.StatusForbidden, map[string]any{
						"success": false,
						"error":   "you do not have permission to do that",
					})
				}
				return echo.NewHTTPError(http.StatusForbidden)
			}
			return next(c)
		}
	}
}

// handleUnauthenticated returns the appropriate response for unauthenticated
// requests: a JSON envelope for /ajax/ calls, a redirect for browsers.
func handleUnauthenticated(c echo.Context) error {
	if isAjaxPath(c) || middleware.IsAsync(c) {
		return c.JSON(http.StatusUnauthorized, map[string]any{
			"success": false,
			"error":   "authentication required",
		})
	}

	return c.Redirect(http.StatusSeeOther, "/login")
}

// --- Exported getters for other plugins ---

// GetSession retrieves the authenticated session from the Echo context.
// Returns nil if the request is not authenticated (middleware not applied).
func GetSession(c echo.Context) *Session {
	session, ok := c.Get(contextKeySession).(*Session)
	if !ok {
		return nil
	}
	return session
}

// GetUserID retrieves the authenticated user's ID from the Echo context.
// Returns empty string if the request is not authenticated.
func GetUserID(c echo.Context) string {
	session := GetSession(c)
	if session == nil {
		return ""
	}
	return session.UserID
}

// --- Helpers ---

// isAjaxPath returns true if the request targets the /ajax/ endpoint.
func isAjaxPath(c echo.Context) bool {
	path := c.Request().URL.Path
	return len(path) >= 5 && path[:5] == "/ajax"
}
