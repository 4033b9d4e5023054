package holidays

import (
	"github.com/labstack/echo/v4"

	"github.com/veliry/timeclerk/internal/plugins/users"
)

// RegisterRoutes sets up the holiday table routes. The mass_holidays
// ajax operation is registered by the app-level form_type dispatcher.
func RegisterRoutes(e *echo.Echo, h *Handler, requireAuth echo.MiddlewareFunc, actor users.ActorFunc) {
	g := e.Group("/holidays", requireAuth)

	g.GET("/", users.WithActor(actor, h.Page))
	g.GET("/:year/:month/", users.WithActor(actor, h.Page))
	g.GET("/table/:year/:month/", users.WithActor(actor, h.Table))
}
