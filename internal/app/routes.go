package app

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/veliry/timeclerk/internal/apperror"
	"github.com/veliry/timeclerk/internal/notify"
	"github.com/veliry/timeclerk/internal/plugins/activities"
	"github.com/veliry/timeclerk/internal/plugins/approvals"
	"github.com/veliry/timeclerk/internal/plugins/auth"
	"github.com/veliry/timeclerk/internal/plugins/entries"
	"github.com/veliry/timeclerk/internal/plugins/holidays"
	"github.com/veliry/timeclerk/internal/plugins/reporting"
	"github.com/veliry/timeclerk/internal/plugins/users"
)

// RegisterRoutes builds every plugin's repository/service/handler stack
// and wires the routes. This is the single place where the dependency
// graph between plugins is spelled out.
func (a *App) RegisterRoutes() {
	e := a.Echo
	mailer := notify.NewMailer(a.Config.Mail)

	// users has no upward dependencies; everything else leans on it.
	usersRepo := users.NewRepository(a.DB)
	usersSvc := users.NewService(usersRepo, mailer)
	usersHandler := users.NewHandler(usersSvc)

	// auth: sessions in Redis, credentials checked through users.
	authSvc := auth.NewService(usersSvc, a.Redis, a.Config.Auth.SessionTTL)
	authHandler := auth.NewHandler(authSvc)

	// entries → approvals is decoupled through the ApprovalOpener
	// interface so approvals can read entries without a cycle.
	approvalsRepo := approvals.NewRepository(a.DB)
	approvalsSvc := approvals.NewService(approvalsRepo, usersSvc, mailer)

	// Both entries and holidays touch the holiday-row cache: holidays
	// reads and fills it, entries invalidates on mutation.
	rowCache := holidays.NewRowCache(a.Redis)

	entriesRepo := entries.NewRepository(a.DB)
	entriesSvc := entries.NewService(entriesRepo, usersSvc, mailer, approvalsSvc,
		rowCache, a.Config.SuspiciousDateDiff)
	entriesHandler := entries.NewHandler(entriesSvc)

	holidaysSvc := holidays.NewService(entriesRepo, usersSvc, mailer, rowCache)
	holidaysHandler := holidays.NewHandler(holidaysSvc)

	activitiesRepo := activities.NewRepository(a.DB)
	activitiesSvc := activities.NewService(activitiesRepo, usersSvc)
	activitiesHandler := activities.NewHandler(activitiesSvc)

	reportingSvc := reporting.NewService(entriesRepo, usersSvc, activitiesSvc)
	reportingHandler := reporting.NewHandler(reportingSvc, a.Config.RefreshURL)

	approvalsHandler := approvals.NewHandler(approvalsSvc)

	requireAuth := auth.RequireAuth(authSvc)
	requireLead := auth.RequireLevel(users.LevelTeamLeader)

	// actor resolves the logged-in user for handlers that need more than
	// the session snapshot.
	actor := func(c echo.Context) (*users.User, error) {
		session := auth.GetSession(c)
		if session == nil {
			return nil, apperror.NewUnauthorized("no active session")
		}
		return usersSvc.ByID(c.Request().Context(), session.UserID)
	}

	// --- Public routes ---

	e.GET("/", func(c echo.Context) error {
		return c.Redirect(http.StatusSeeOther, "/calendar/")
	})

	// Health check endpoint for container monitoring.
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	auth.RegisterRoutes(e, authHandler)

	// --- Plugin routes ---

	entries.RegisterRoutes(e, entriesHandler, requireAuth, actor)
	holidays.RegisterRoutes(e, holidaysHandler, requireAuth, actor)
	activities.RegisterRoutes(e, activitiesHandler, requireAuth, actor)
	approvals.RegisterRoutes(e, approvalsHandler, requireAuth, requireLead, actor)
	reporting.RegisterRoutes(e, reportingHandler, requireAuth, actor)

	// --- The submission endpoint ---
	// One POST target for every form in the app, discriminated by the
	// form_type field. Each case delegates to the owning plugin.
	e.POST("/ajax/", users.WithActor(actor, func(c echo.Context, actorUser *users.User) error {
		switch c.FormValue("form_type") {
		case "add":
			return entriesHandler.Add(c, actorUser)
		case "change":
			return entriesHandler.Change(c, actorUser)
		case "delete":
			return entriesHandler.Delete(c, actorUser)
		case "get_comment":
			return entriesHandler.GetComment(c, actorUser)
		case "add_comment":
			return entriesHandler.AddComment(c, actorUser)
		case "remove_comment":
			return entriesHandler.RemoveComment(c, actorUser)
		case "mass_holidays":
			return holidaysHandler.MassHolidays(c, actorUser)
		case "useredit":
			return usersHandler.UserEdit(c, actorUser)
		case "delete_user":
			return usersHandler.DeleteUser(c, actorUser)
		case "get_user_data":
			return usersHandler.GetUserData(c, actorUser)
		case "profile_edit":
			return usersHandler.ProfileEdit(c, actorUser)
		default:
			return c.JSON(http.StatusBadRequest, map[string]any{
				"success": false,
				"error":   "unknown form_type",
			})
		}
	}), requireAuth)
}
