package holidays

import (
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/veliry/timeclerk/internal/apperror"
	"github.com/veliry/timeclerk/internal/middleware"
	"github.com/veliry/timeclerk/internal/plugins/entries"
	"github.com/veliry/timeclerk/internal/plugins/users"
)

// Handler handles the holiday table page, its fragment endpoint, and the
// mass_holidays operation dispatched through POST /ajax/.
type Handler struct {
	service Service
}

// NewHandler creates a new holidays handler with the given service.
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// holidaysPageData feeds the holidays template.
type holidaysPageData struct {
	Year        int
	Month       int
	MonthName   string
	Table       string
	DaytypeJSON template.JS
	CSRFToken   string
	UserName    string
}

// Page renders the holiday table page for the requested month
// (GET /holidays/ and GET /holidays/:year/:month/).
func (h *Handler) Page(c echo.Context, actor *users.User) error {
	year, month, err := yearMonthParams(c)
	if err != nil {
		return err
	}

	table, err := h.service.Table(c.Request().Context(), actor, year, month)
	if err != nil {
		return err
	}

	daytypeJSON, err := json.Marshal(entries.DaytypeOptions())
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("marshaling daytype options: %w", err))
	}

	return c.Render(http.StatusOK, "holidays", holidaysPageData{
		Year:        year,
		Month:       month,
		MonthName:   time.Month(month).String(),
		Table:       table,
		DaytypeJSON: template.JS(daytypeJSON),
		CSRFToken:   middleware.GetCSRFToken(c),
		UserName:    actor.FullName(),
	})
}

// Table returns just the table fragment (GET /holidays/table/:year/:month/),
// used when the footer selectors change the month in place.
func (h *Handler) Table(c echo.Context, actor *users.User) error {
	year, month, err := yearMonthParams(c)
	if err != nil {
		return err
	}

	table, err := h.service.Table(c.Request().Context(), actor, year, month)
	if err != nil {
		return err
	}

	return middleware.RenderHTML(c, http.StatusOK, table)
}

// MassHolidays applies a mass_data batch (form_type=mass_holidays).
// Responds with the refreshed table in the "calendar" slot so the client
// swap works the same way as the entry operations.
func (h *Handler) MassHolidays(c echo.Context, actor *users.User) error {
	year, err := strconv.Atoi(c.FormValue("year"))
	if err != nil {
		return ajaxError(c, apperror.NewBadRequest("year must be a number"))
	}
	month, err := strconv.Atoi(c.FormValue("month"))
	if err != nil {
		return ajaxError(c, apperror.NewBadRequest("month must be a number"))
	}

	table, err := h.service.MassAssign(c.Request().Context(), actor, year, month,
		c.FormValue("mass_data"))
	if err != nil {
		return ajaxError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success":  true,
		"calendar": table,
	})
}

// ajaxError maps an error to the {"success":false,"error":...} envelope.
func ajaxError(c echo.Context, err error) error {
	return c.JSON(apperror.SafeCode(err), map[string]any{
		"success": false,
		"error":   apperror.SafeMessage(err),
	})
}

// yearMonthParams reads the optional :year/:month path params, defaulting
// to the current month.
func yearMonthParams(c echo.Context) (int, int, error) {
	now := time.Now()
	year, month := now.Year(), int(now.Month())

	if raw := c.Param("year"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil {
			return 0, 0, apperror.NewBadRequest("year must be a number")
		}
		year = y
	}
	if raw := c.Param("month"); raw != "" {
		m, err := strconv.Atoi(raw)
		if err != nil || m < 1 || m > 12 {
			return 0, 0, apperror.NewBadRequest("month must be between 1 and 12")
		}
		month = m
	}
	return year, month, nil
}
