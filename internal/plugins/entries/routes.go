package entries

import (
	"github.com/labstack/echo/v4"

	"github.com/veliry/timeclerk/internal/plugins/users"
)

// RegisterRoutes sets up the calendar page and forms fragment routes.
// The /ajax/ entry operations are registered by the app-level dispatcher,
// which routes on form_type across plugins.
func RegisterRoutes(e *echo.Echo, h *Handler, requireAuth echo.MiddlewareFunc, actor users.ActorFunc) {
	g := e.Group("/calendar", requireAuth)

	g.GET("/", users.WithActor(actor, h.CalendarPage))
	g.GET("/:year/:month/", users.WithActor(actor, h.CalendarPage))

	g.GET("/forms/select", users.WithActor(actor, h.FormsSelect))
	g.GET("/forms/clear", users.WithActor(actor, h.FormsClear))
	g.GET("/forms/delete", users.WithActor(actor, h.FormsDelete))
}
