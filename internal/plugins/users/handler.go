package users

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/veliry/timeclerk/internal/apperror"
)

// Handler handles the account operations multiplexed through POST /ajax/.
// The dispatcher resolves the logged-in actor and passes it in; handlers
// bind the form, call the service, and shape the JSON response.
type Handler struct {
	service Service
}

// NewHandler creates a new users handler with the given service.
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// ajaxOK is the success envelope shared by the account operations.
func ajaxOK(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{"success": true})
}

// ajaxError maps an error to the {"success":false,"error":...} envelope.
func ajaxError(c echo.Context, err error) error {
	return c.JSON(apperror.SafeCode(err), map[string]any{
		"success": false,
		"error":   apperror.SafeMessage(err),
	})
}

// UserEdit creates or updates an account (form_type=useredit). An empty
// hidden-id creates; a set one updates.
func (h *Handler) UserEdit(c echo.Context, actor *User) error {
	input, err := bindEditInput(c)
	if err != nil {
		return ajaxError(c, err)
	}

	if _, err := h.service.Edit(c.Request().Context(), actor, input); err != nil {
		return ajaxError(c, err)
	}
	return ajaxOK(c)
}

// DeleteUser removes an account (form_type=delete_user).
func (h *Handler) DeleteUser(c echo.Context, actor *User) error {
	id := c.FormValue("user_id")
	if id == "" {
		return ajaxError(c, apperror.NewBadRequest("user_id is required"))
	}

	if err := h.service.Delete(c.Request().Context(), actor, id); err != nil {
		return ajaxError(c, err)
	}
	return ajaxOK(c)
}

// GetUserData returns the fields the useredit form edits
// (form_type=get_user_data).
func (h *Handler) GetUserData(c echo.Context, actor *User) error {
	id := c.FormValue("user_id")
	if id == "" {
		return ajaxError(c, apperror.NewBadRequest("user_id is required"))
	}

	user, err := h.service.Get(c.Request().Context(), actor, id)
	if err != nil {
		return ajaxError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success":         true,
		"user_id":         user.ID,
		"email":           user.Email,
		"firstname":       user.Firstname,
		"lastname":        user.Lastname,
		"level":           user.Level.String(),
		"market":          user.Market,
		"process":         user.Process,
		"start_date":      user.StartDate.Format("2006-01-02"),
		"break_minutes":   user.BreakMinutes,
		"shift_minutes":   user.ShiftMinutes,
		"job_code":        user.JobCode,
		"holiday_balance": user.HolidayBalance,
		"disabled":        user.Disabled,
	})
}

// ProfileEdit changes the caller's own name and password
// (form_type=profile_edit).
func (h *Handler) ProfileEdit(c echo.Context, actor *User) error {
	input := ProfileInput{
		Firstname: c.FormValue("firstname"),
		Lastname:  c.FormValue("lastname"),
		Password:  c.FormValue("password"),
	}

	if err := h.service.UpdateProfile(c.Request().Context(), actor.ID, input); err != nil {
		return ajaxError(c, err)
	}
	return ajaxOK(c)
}

// bindEditInput reads the useredit form fields.
func bindEditInput(c echo.Context) (EditInput, error) {
	input := EditInput{
		ID:        c.FormValue("hidden-id"),
		Email:     c.FormValue("email"),
		Firstname: c.FormValue("firstname"),
		Lastname:  c.FormValue("lastname"),
		Password:  c.FormValue("password"),
		Market:    c.FormValue("market"),
		Process:   c.FormValue("process"),
		JobCode:   c.FormValue("job_code"),
		Disabled:  c.FormValue("disabled") == "true",
	}

	level, err := ParseLevel(c.FormValue("level"))
	if err != nil {
		return input, apperror.NewValidation("unknown user level")
	}
	input.Level = level

	if raw := c.FormValue("start_date"); raw != "" {
		startDate, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return input, apperror.NewValidation("start date must be yyyy-mm-dd")
		}
		input.StartDate = startDate
	}

	input.BreakMinutes, err = formInt(c, "break_minutes")
	if err != nil {
		return input, err
	}
	input.ShiftMinutes, err = formInt(c, "shift_minutes")
	if err != nil {
		return input, err
	}

	if raw := c.FormValue("holiday_balance"); raw != "" {
		balance, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return input, apperror.NewValidation("holiday balance must be a number")
		}
		input.HolidayBalance = balance
	}

	return input, nil
}

// formInt parses an integer form field, treating empty as zero.
func formInt(c echo.Context, name string) (int, error) {
	raw := c.FormValue(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperror.NewValidation(name + " must be a whole number")
	}
	return n, nil
}
