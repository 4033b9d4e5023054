// Package reporting builds the report pages: overtime rollups, holiday
// summaries, team views, and the cost-bucket chart. Navigation into the
// reports goes through a validated redirect so every report address has
// one canonical shape.
package reporting

import (
	"math"
	"strconv"

	"github.com/veliry/timeclerk/internal/apperror"
)

// Report names a report page. The value doubles as its path prefix
// under /reporting/.
type Report string

const (
	ReportOvertimeForHR     Report = "ot_for_hr"
	ReportAllHolidays       Report = "all"
	ReportYearMonthHolidays Report = "yearmonthhol"
	ReportOvertimeByMonth   Report = "ot_by_month"
	ReportOvertimeByYear    Report = "ot_by_year"
	ReportHolsForYearMonth  Report = "hols_for_yearmonth"
	ReportAllTeam           Report = "all_team"
)

// reportAux says which selector values each report's path carries after
// the year, in order.
var reportAux = map[Report][]string{
	ReportOvertimeForHR:     {"month"},
	ReportAllHolidays:       nil,
	ReportYearMonthHolidays: {"month"},
	ReportOvertimeByMonth:   nil,
	ReportOvertimeByYear:    nil,
	ReportHolsForYearMonth:  {"month", "team"},
	ReportAllTeam:           {"month", "team"},
}

// ParseReport maps a path prefix back to its report.
func ParseReport(s string) (Report, error) {
	r := Report(s)
	if _, ok := reportAux[r]; !ok {
		return "", apperror.NewNotFound("no such report")
	}
	return r, nil
}

// AuxFields returns the selector names a report's path needs, in path
// order.
func (r Report) AuxFields() []string {
	return reportAux[r]
}

// ValidYear reports whether a submitted year value may enter a report
// path. The check is deliberately loose: any finite number of at least
// four characters passes. "2020.5" is accepted, "202" and "20ab" are
// not. The whole string must parse, so trailing garbage like "2020abc"
// fails even though a prefix parse would take it. Full date validation
// belongs to the report itself.
func ValidYear(year string) bool {
	if len(year) < 4 {
		return false
	}
	f, err := strconv.ParseFloat(year, 64)
	if err != nil {
		return false
	}
	return !math.IsInf(f, 0) && !math.IsNaN(f)
}

// BuildPath computes the canonical path for a report: the prefix, the
// year, then each auxiliary selector value, every segment slash-closed.
// An invalid year yields no path and the exact alert text the form
// shows.
func BuildPath(report Report, year string, aux ...string) (string, error) {
	if !ValidYear(year) {
		return "", apperror.NewBadRequest("Invalid year.")
	}

	path := "/reporting/" + string(report) + "/" + year + "/"
	for _, value := range aux {
		path += value + "/"
	}
	return path, nil
}

// userSentinel is what the all-users selector submits when nothing is
// chosen.
const userSentinel = "null"

// UserHolidayPath computes the per-user holiday report path. The second
// return is false when the selector holds the empty sentinel, in which
// case no navigation happens at all.
func UserHolidayPath(user string) (string, bool) {
	if user == "" || user == userSentinel {
		return "", false
	}
	return "/reporting/all/" + user + "/", true
}

// YearSegment reports whether a /reporting/all/ path segment names a
// year rather than a user id. User ids are UUIDs, so a whole-number
// year of at least four digits cannot collide with one.
func YearSegment(s string) (int, bool) {
	year, err := strconv.Atoi(s)
	if err != nil || len(s) < 4 || year < 0 {
		return 0, false
	}
	return year, true
}
