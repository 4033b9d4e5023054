package activities

import (
	"github.com/labstack/echo/v4"

	"github.com/veliry/timeclerk/internal/plugins/users"
)

// RegisterRoutes sets up the activity filing page and form posts.
func RegisterRoutes(e *echo.Echo, h *Handler, requireAuth echo.MiddlewareFunc, actor users.ActorFunc) {
	g := e.Group("/activities", requireAuth)

	g.GET("/", users.WithActor(actor, h.Page))
	g.POST("/entry/", users.WithActor(actor, h.Add))
	g.POST("/entry/update/", users.WithActor(actor, h.Update))
}
