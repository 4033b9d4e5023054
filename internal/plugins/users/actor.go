package users

import (
	"github.com/labstack/echo/v4"
)

// ActorFunc resolves the authenticated user behind a request. The app
// wires this to the session middleware plus a user lookup.
type ActorFunc func(echo.Context) (*User, error)

// HandlerFunc is an echo handler that receives the resolved actor.
type HandlerFunc func(echo.Context, *User) error

// WithActor adapts a HandlerFunc into a plain echo.HandlerFunc.
func WithActor(actor ActorFunc, fn HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, err := actor(c)
		if err != nil {
			return err
		}
		return fn(c, user)
	}
}
