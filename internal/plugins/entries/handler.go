package entries

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/veliry/timeclerk/internal/apperror"
	"github.com/veliry/timeclerk/internal/middleware"
	"github.com/veliry/timeclerk/internal/plugins/users"
)

// Handler handles the calendar page, the forms fragment endpoints, and
// the entry operations multiplexed through POST /ajax/.
type Handler struct {
	service Service
}

// NewHandler creates a new entries handler with the given service.
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// --- /ajax/ operations ---

// ajaxSuccess is the success envelope: the refreshed calendar fragment
// rides along so the client can swap it in wholesale.
func ajaxSuccess(c echo.Context, calendar string) error {
	return c.JSON(http.StatusOK, map[string]any{
		"success":  true,
		"calendar": calendar,
	})
}

// ajaxError maps an error to the {"success":false,"error":...} envelope.
func ajaxError(c echo.Context, err error) error {
	return c.JSON(apperror.SafeCode(err), map[string]any{
		"success": false,
		"error":   apperror.SafeMessage(err),
	})
}

// Add handles form_type=add.
func (h *Handler) Add(c echo.Context, actor *users.User) error {
	calendar, err := h.service.Add(c.Request().Context(), actor, bindSubmission(c, FormAdd))
	if err != nil {
		return ajaxError(c, err)
	}
	return ajaxSuccess(c, calendar)
}

// Change handles form_type=change.
func (h *Handler) Change(c echo.Context, actor *users.User) error {
	calendar, err := h.service.Change(c.Request().Context(), actor, bindSubmission(c, FormChange))
	if err != nil {
		return ajaxError(c, err)
	}
	return ajaxSuccess(c, calendar)
}

// Delete handles form_type=delete.
func (h *Handler) Delete(c echo.Context, actor *users.User) error {
	calendar, err := h.service.DeleteEntry(c.Request().Context(), actor, bindSubmission(c, FormDelete))
	if err != nil {
		return ajaxError(c, err)
	}
	return ajaxSuccess(c, calendar)
}

// bindSubmission reads the wire fields of an /ajax/ entry operation.
func bindSubmission(c echo.Context, t FormType) Submission {
	return Submission{
		FormType:  t,
		EntryDate: c.FormValue("entry_date"),
		StartTime: c.FormValue("start_time"),
		EndTime:   c.FormValue("end_time"),
		Breaks:    c.FormValue("breaks"),
		Daytype:   Daytype(c.FormValue("daytype")),
		HiddenID:  c.FormValue("hidden-id"),
	}
}

// --- Calendar page ---

// calendarPageData feeds the calendar template.
type calendarPageData struct {
	Year      int
	Month     int
	MonthName string
	Calendar  string
	Forms     string
	CSRFToken string
	UserName  string
}

// CalendarPage renders the calendar for the requested month, defaulting
// to the current one (GET /calendar/ and GET /calendar/:year/:month/).
func (h *Handler) CalendarPage(c echo.Context, actor *users.User) error {
	now := time.Now()
	year, month := now.Year(), int(now.Month())

	if raw := c.Param("year"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil {
			return apperror.NewBadRequest("year must be a number")
		}
		year = y
	}
	if raw := c.Param("month"); raw != "" {
		m, err := strconv.Atoi(raw)
		if err != nil || m < 1 || m > 12 {
			return apperror.NewBadRequest("month must be between 1 and 12")
		}
		month = m
	}

	calendar, err := h.service.Calendar(c.Request().Context(), actor.ID, year, month)
	if err != nil {
		return err
	}

	return c.Render(http.StatusOK, "calendar", calendarPageData{
		Year:      year,
		Month:     month,
		MonthName: time.Month(month).String(),
		Calendar:  calendar,
		Forms:     RenderForms(NewCalendarForms(), middleware.GetCSRFToken(c)),
		CSRFToken: middleware.GetCSRFToken(c),
		UserName:  actor.FullName(),
	})
}

// --- Forms fragment endpoints ---

// FormsSelect renders the forms fragment in the SelectedForEdit state
// (GET /calendar/forms/select). The entry is reloaded by id so the
// fragment always reflects stored state, not stale query parameters.
func (h *Handler) FormsSelect(c echo.Context, actor *users.User) error {
	id, err := strconv.ParseInt(c.QueryParam("id"), 10, 64)
	if err != nil {
		return apperror.NewBadRequest("entry id must be a number")
	}

	entry, err := h.service.Entry(c.Request().Context(), actor, id)
	if err != nil {
		return err
	}

	sel, err := SelectionFromEntry(entry)
	if err != nil {
		return apperror.NewInternal(err)
	}

	forms := NewCalendarForms()
	forms.SelectEntry(sel)
	return middleware.RenderHTML(c, http.StatusOK, RenderForms(forms, middleware.GetCSRFToken(c)))
}

// FormsClear renders the forms fragment in the SelectedForAdd state, or
// Idle when no date is given (GET /calendar/forms/clear).
func (h *Handler) FormsClear(c echo.Context, actor *users.User) error {
	forms := NewCalendarForms()
	if date := c.QueryParam("date"); date != "" {
		if _, err := time.Parse("2006-01-02", date); err != nil {
			return apperror.NewBadRequest("date must be yyyy-mm-dd")
		}
		forms.SelectEmptyCell(date)
	}
	return middleware.RenderHTML(c, http.StatusOK, RenderForms(forms, middleware.GetCSRFToken(c)))
}

// FormsDelete renders the delete confirmation fragment for the selected
// entry (GET /calendar/forms/delete).
func (h *Handler) FormsDelete(c echo.Context, actor *users.User) error {
	id, err := strconv.ParseInt(c.QueryParam("id"), 10, 64)
	if err != nil {
		return apperror.NewBadRequest("entry id must be a number")
	}

	entry, err := h.service.Entry(c.Request().Context(), actor, id)
	if err != nil {
		return err
	}

	sel, err := SelectionFromEntry(entry)
	if err != nil {
		return apperror.NewInternal(err)
	}

	forms := NewCalendarForms()
	forms.SelectEntry(sel)
	return middleware.RenderHTML(c, http.StatusOK, RenderDeleteConfirm(forms, middleware.GetCSRFToken(c)))
}

// --- Comment operations (form_type=get_comment / add_comment / remove_comment) ---

// GetComment returns the comment on a user-date entry.
func (h *Handler) GetComment(c echo.Context, actor *users.User) error {
	comment, err := h.service.Comment(c.Request().Context(), actor,
		c.FormValue("user_id"), c.FormValue("entry_date"))
	if err != nil {
		return ajaxError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"comment": comment,
	})
}

// AddComment stores a comment on a user-date entry.
func (h *Handler) AddComment(c echo.Context, actor *users.User) error {
	err := h.service.SetComment(c.Request().Context(), actor,
		c.FormValue("user_id"), c.FormValue("entry_date"), c.FormValue("comment"))
	if err != nil {
		return ajaxError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true})
}

// RemoveComment clears a comment on a user-date entry.
func (h *Handler) RemoveComment(c echo.Context, actor *users.User) error {
	err := h.service.SetComment(c.Request().Context(), actor,
		c.FormValue("user_id"), c.FormValue("entry_date"), "")
	if err != nil {
		return ajaxError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true})
}
