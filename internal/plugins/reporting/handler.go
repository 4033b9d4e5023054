package reporting

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/veliry/timeclerk/internal/apperror"
	"github.com/veliry/timeclerk/internal/plugins/entries"
	"github.com/veliry/timeclerk/internal/plugins/users"
)

// Handler handles report navigation and the report pages.
type Handler struct {
	service    Service
	refreshURL string
}

// NewHandler creates a new reporting handler. refreshURL is handed to
// the chart page so its refresh control knows where to re-request
// bucket data from.
func NewHandler(service Service, refreshURL string) *Handler {
	return &Handler{service: service, refreshURL: refreshURL}
}

// --- Navigation ---

// Nav validates the report selectors and 303-redirects to the report's
// canonical path (GET /nav/:report?year=&month=&team=).
func (h *Handler) Nav(c echo.Context, actor *users.User) error {
	report, err := ParseReport(c.Param("report"))
	if err != nil {
		return err
	}

	var aux []string
	for _, field := range report.AuxFields() {
		value := c.QueryParam(field)
		if value == "" {
			return apperror.NewBadRequest(field + " is required for this report")
		}
		if field == "month" {
			value = padMonth(value)
		}
		aux = append(aux, value)
	}

	path, err := BuildPath(report, c.QueryParam("year"), aux...)
	if err != nil {
		return err
	}

	return c.Redirect(http.StatusSeeOther, path)
}

// NavUserHolidays handles the per-user holiday selector, which skips
// year validation entirely (GET /nav/user_holidays?user=). The empty
// sentinel sends the browser back where it came from.
func (h *Handler) NavUserHolidays(c echo.Context, actor *users.User) error {
	path, ok := UserHolidayPath(c.QueryParam("user"))
	if !ok {
		back := c.Request().Header.Get("Referer")
		if back == "" {
			back = "/reporting/"
		}
		return c.Redirect(http.StatusSeeOther, back)
	}
	return c.Redirect(http.StatusSeeOther, path)
}

// padMonth zero-pads single-digit month selectors so paths come out
// uniform. Non-numeric values pass through and fail later parsing.
func padMonth(value string) string {
	m, err := strconv.Atoi(value)
	if err != nil {
		return value
	}
	return fmt.Sprintf("%02d", m)
}

// --- Report pages ---

type overtimePageData struct {
	Year     int
	Month    int
	Market   string
	Rows     []UserOvertime
	UserName string
}

type yearOvertimePageData struct {
	Year     int
	Months   []MonthOvertime
	UserName string
}

type holidayCountsPageData struct {
	Year     int
	Month    int
	Market   string
	Rows     []UserHolidayCount
	UserName string
}

type userHolidaysPageData struct {
	Year     int
	Entries  []entries.Entry
	UserName string
}

type bucketsPageData struct {
	Year       int
	Month      int
	Buckets    CostBuckets
	Slices     []PieSlice
	RefreshURL string
	UserName   string
}

// OvertimeForHR renders the month overtime table across all markets
// (GET /reporting/ot_for_hr/:year/:month/).
func (h *Handler) OvertimeForHR(c echo.Context, actor *users.User) error {
	year, month, err := yearMonthParams(c)
	if err != nil {
		return err
	}

	rows, err := h.service.TeamOvertime(c.Request().Context(), actor, year, month, "")
	if err != nil {
		return err
	}

	return c.Render(http.StatusOK, "report_overtime", overtimePageData{
		Year: year, Month: month, Rows: rows, UserName: actor.FullName(),
	})
}

// AllTeam renders the month overtime table for one market
// (GET /reporting/all_team/:year/:month/:team/).
func (h *Handler) AllTeam(c echo.Context, actor *users.User) error {
	year, month, err := yearMonthParams(c)
	if err != nil {
		return err
	}
	market := c.Param("team")

	rows, err := h.service.TeamOvertime(c.Request().Context(), actor, year, month, market)
	if err != nil {
		return err
	}

	return c.Render(http.StatusOK, "report_overtime", overtimePageData{
		Year: year, Month: month, Market: market, Rows: rows,
		UserName: actor.FullName(),
	})
}

// OvertimeByMonth renders the actor's own overtime per month
// (GET /reporting/ot_by_month/:year/).
func (h *Handler) OvertimeByMonth(c echo.Context, actor *users.User) error {
	year, err := yearParam(c)
	if err != nil {
		return err
	}

	months, err := h.service.YearOvertime(c.Request().Context(), actor, actor.ID, year)
	if err != nil {
		return err
	}

	return c.Render(http.StatusOK, "report_overtime_year", yearOvertimePageData{
		Year: year, Months: months, UserName: actor.FullName(),
	})
}

// OvertimeByYear renders the actor's year totals page
// (GET /reporting/ot_by_year/:year/).
func (h *Handler) OvertimeByYear(c echo.Context, actor *users.User) error {
	return h.OvertimeByMonth(c, actor)
}

// HolidaysForYearMonth renders the day-type tallies for one market
// (GET /reporting/hols_for_yearmonth/:year/:month/:team/).
func (h *Handler) HolidaysForYearMonth(c echo.Context, actor *users.User) error {
	year, month, err := yearMonthParams(c)
	if err != nil {
		return err
	}
	market := c.Param("team")

	rows, err := h.service.HolidayCounts(c.Request().Context(), actor, year, month, market)
	if err != nil {
		return err
	}

	return c.Render(http.StatusOK, "report_holidays", holidayCountsPageData{
		Year: year, Month: month, Market: market, Rows: rows,
		UserName: actor.FullName(),
	})
}

// YearMonthHolidays renders the day-type tallies across all markets
// (GET /reporting/yearmonthhol/:year/:month/).
func (h *Handler) YearMonthHolidays(c echo.Context, actor *users.User) error {
	year, month, err := yearMonthParams(c)
	if err != nil {
		return err
	}

	rows, err := h.service.HolidayCounts(c.Request().Context(), actor, year, month, "")
	if err != nil {
		return err
	}

	return c.Render(http.StatusOK, "report_holidays", holidayCountsPageData{
		Year: year, Month: month, Rows: rows, UserName: actor.FullName(),
	})
}

// UserHolidays renders one user's non-working entries for the current
// year (GET /reporting/all/:user/). The all report shares the path
// shape: a year segment renders the year-wide tally instead
// (GET /reporting/all/:year/).
func (h *Handler) UserHolidays(c echo.Context, actor *users.User) error {
	segment := c.Param("user")
	if navYear, ok := YearSegment(segment); ok {
		return h.allHolidays(c, actor, navYear)
	}

	year := time.Now().Year()

	userEntries, err := h.service.UserHolidays(c.Request().Context(), actor,
		segment, year)
	if err != nil {
		return err
	}

	return c.Render(http.StatusOK, "report_user_holidays", userHolidaysPageData{
		Year: year, Entries: userEntries, UserName: actor.FullName(),
	})
}

// allHolidays renders the year-wide day-type tallies for every user the
// actor can see.
func (h *Handler) allHolidays(c echo.Context, actor *users.User, year int) error {
	rows, err := h.service.AllHolidays(c.Request().Context(), actor, year)
	if err != nil {
		return err
	}

	return c.Render(http.StatusOK, "report_holidays_year", holidayCountsPageData{
		Year: year, Rows: rows, UserName: actor.FullName(),
	})
}

// Buckets renders the cost-bucket pie chart for the actor
// (GET /reporting/costbuckets/:year/:month/).
func (h *Handler) Buckets(c echo.Context, actor *users.User) error {
	year, month, err := yearMonthParams(c)
	if err != nil {
		return err
	}

	buckets, err := h.service.Buckets(c.Request().Context(), actor, actor.ID, year, month)
	if err != nil {
		return err
	}

	return c.Render(http.StatusOK, "report_buckets", bucketsPageData{
		Year: year, Month: month,
		Buckets:    buckets,
		Slices:     buckets.PieSlices(),
		RefreshURL: h.refreshURL,
		UserName:   actor.FullName(),
	})
}

// --- Param helpers ---

func yearParam(c echo.Context) (int, error) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		return 0, apperror.NewBadRequest("year must be a number")
	}
	return year, nil
}

func yearMonthParams(c echo.Context) (int, int, error) {
	year, err := yearParam(c)
	if err != nil {
		return 0, 0, err
	}
	month, err := strconv.Atoi(c.Param("month"))
	if err != nil || month < 1 || month > 12 {
		return 0, 0, apperror.NewBadRequest("month must be between 1 and 12")
	}
	return year, month, nil
}
