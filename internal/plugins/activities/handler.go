package activities

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/veliry/timeclerk/internal/middleware"
	"github.com/veliry/timeclerk/internal/plugins/users"
)

// Handler handles the activity-filing page and its form posts.
type Handler struct {
	service Service
}

// NewHandler creates a new activities handler with the given service.
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// activitiesPageData feeds the activities template.
type activitiesPageData struct {
	Catalogue []Activity
	CSRFToken string
	UserName  string
	Error     string
}

// Page renders the filing form with the activity catalogue
// (GET /activities/).
func (h *Handler) Page(c echo.Context, actor *users.User) error {
	catalogue, err := h.service.Catalogue(c.Request().Context())
	if err != nil {
		return err
	}

	return c.Render(http.StatusOK, "activities", activitiesPageData{
		Catalogue: catalogue,
		CSRFToken: middleware.GetCSRFToken(c),
		UserName:  actor.FullName(),
	})
}

// Add files a new amount and sends the user back to the form
// (POST /activities/entry/).
func (h *Handler) Add(c echo.Context, actor *users.User) error {
	input := AddInput{
		ActivityKey: c.FormValue("activity_key"),
		Amount:      c.FormValue("amount"),
		Date:        c.FormValue("date"),
	}

	if _, err := h.service.Add(c.Request().Context(), actor, input); err != nil {
		return err
	}

	return c.Redirect(http.StatusSeeOther, backTo(c, "/activities/"))
}

// Update replaces the amount on a filed entry
// (POST /activities/entry/update/).
func (h *Handler) Update(c echo.Context, actor *users.User) error {
	err := h.service.Update(c.Request().Context(), actor,
		c.FormValue("id"), c.FormValue("volume"))
	if err != nil {
		return err
	}

	return c.Redirect(http.StatusSeeOther, backTo(c, "/activities/"))
}

// backTo picks the redirect target after a form post, preferring the
// page the post came from.
func backTo(c echo.Context, fallback string) string {
	if ref := c.Request().Header.Get("Referer"); ref != "" {
		return ref
	}
	return fallback
}
