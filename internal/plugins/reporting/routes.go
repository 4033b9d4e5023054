package reporting

import (
	"github.com/labstack/echo/v4"

	"github.com/veliry/timeclerk/internal/plugins/users"
)

// RegisterRoutes sets up the navigation redirects and report pages.
func RegisterRoutes(e *echo.Echo, h *Handler, requireAuth echo.MiddlewareFunc, actor users.ActorFunc) {
	nav := e.Group("/nav", requireAuth)
	nav.GET("/user_holidays", users.WithActor(actor, h.NavUserHolidays))
	nav.GET("/:report", users.WithActor(actor, h.Nav))

	g := e.Group("/reporting", requireAuth)
	g.GET("/ot_for_hr/:year/:month/", users.WithActor(actor, h.OvertimeForHR))
	g.GET("/all_team/:year/:month/:team/", users.WithActor(actor, h.AllTeam))
	g.GET("/ot_by_month/:year/", users.WithActor(actor, h.OvertimeByMonth))
	g.GET("/ot_by_year/:year/", users.WithActor(actor, h.OvertimeByYear))
	g.GET("/hols_for_yearmonth/:year/:month/:team/", users.WithActor(actor, h.HolidaysForYearMonth))
	g.GET("/yearmonthhol/:year/:month/", users.WithActor(actor, h.YearMonthHolidays))
	g.GET("/all/:user/", users.WithActor(actor, h.UserHolidays))
	g.GET("/costbuckets/:year/:month/", users.WithActor(actor, h.Buckets))
}
