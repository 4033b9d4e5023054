package approvals

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/veliry/timeclerk/internal/apperror"
	"github.com/veliry/timeclerk/internal/middleware"
	"github.com/veliry/timeclerk/internal/plugins/users"
)

// Handler handles the approval review page and decisions.
type Handler struct {
	service Service
}

// NewHandler creates a new approvals handler with the given service.
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// approvalsPageData feeds the approvals template.
type approvalsPageData struct {
	Pending   []PendingApproval
	CSRFToken string
	UserName  string
}

// Page renders the open approvals for the actor's team
// (GET /approvals/).
func (h *Handler) Page(c echo.Context, actor *users.User) error {
	pending, err := h.service.Pending(c.Request().Context(), actor)
	if err != nil {
		return err
	}

	return c.Render(http.StatusOK, "approvals", approvalsPageData{
		Pending:   pending,
		CSRFToken: middleware.GetCSRFToken(c),
		UserName:  actor.FullName(),
	})
}

// Decide closes an approval with the posted decision
// (POST /approvals/:id/decide/, form field decision=approve|deny).
func (h *Handler) Decide(c echo.Context, actor *users.User) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return apperror.NewBadRequest("approval id must be a number")
	}

	var approved bool
	switch c.FormValue("decision") {
	case "approve":
		approved = true
	case "deny":
		approved = false
	default:
		return apperror.NewBadRequest("decision must be approve or deny")
	}

	if err := h.service.Decide(c.Request().Context(), actor, id, approved); err != nil {
		return err
	}

	return c.Redirect(http.StatusSeeOther, "/approvals/")
}
