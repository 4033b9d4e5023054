package approvals

import (
	"github.com/labstack/echo/v4"

	"github.com/veliry/timeclerk/internal/plugins/users"
)

// RegisterRoutes sets up the approval review page and decision post.
func RegisterRoutes(e *echo.Echo, h *Handler, requireAuth, requireLead echo.MiddlewareFunc, actor users.ActorFunc) {
	g := e.Group("/approvals", requireAuth, requireLead)

	g.GET("/", users.WithActor(actor, h.Page))
	g.POST("/:id/decide/", users.WithActor(actor, h.Decide))
}
