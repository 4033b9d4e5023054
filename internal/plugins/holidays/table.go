// Package holidays renders the team holiday table and implements the
// mass_holidays assignment operation: an admin paints day types over a
// whole month for several users at once and submits one batch.
package holidays

import (
	"fmt"
	"html"
	"strings"

	"github.com/veliry/timeclerk/internal/datemaps"
	"github.com/veliry/timeclerk/internal/plugins/entries"
	"github.com/veliry/timeclerk/internal/plugins/users"
)

// UserRow is one user's month in the holiday table.
type UserRow struct {
	User     users.User
	Daytypes map[int]entries.Daytype // day of month -> daytype
}

// BuildRow renders one user's <tr>: name, holiday balance, days on
// demand used this month, job code, then one cell per day carrying the
// daytype code as its CSS class (WKEND for empty weekend days). The
// cells carry data attributes the page script reads when building the
// mass_data payload.
func BuildRow(year, month int, row UserRow) string {
	var b strings.Builder

	dayod := 0
	for _, d := range row.Daytypes {
		if d == entries.DaytypeDayOnDemand {
			dayod++
		}
	}

	fmt.Fprintf(&b, `<tr class="holiday-row" data-user="%s">`, html.EscapeString(row.User.ID))
	fmt.Fprintf(&b, `<td class="user-name">%s</td>`, html.EscapeString(row.User.FullName()))
	fmt.Fprintf(&b, `<td class="balance">%.1f</td>`, row.User.HolidayBalance)
	fmt.Fprintf(&b, `<td class="dayod">%d</td>`, dayod)
	fmt.Fprintf(&b, `<td class="job-code">%s</td>`, html.EscapeString(row.User.JobCode))

	for _, day := range datemaps.MonthDays(year, month) {
		d := day.Day()
		class := "WKDAY-empty"
		if daytype, ok := row.Daytypes[d]; ok {
			class = string(daytype)
		} else if datemaps.IsWeekend(year, month, d) {
			class = "WKEND"
		}
		fmt.Fprintf(&b, `<td class="%s" data-day="%d">%d</td>`, class, d, d)
	}

	b.WriteString("</tr>")
	return b.String()
}

// BuildTable renders the holiday table fragment around pre-rendered row
// markup: a header row of day numbers with short weekday names, the
// rows, and a footer with month/year selectors. Rows arrive rendered
// because they are cached individually.
func BuildTable(year, month int, rowMarkup []string) string {
	var b strings.Builder
	b.WriteString(`<table id="holiday-table" class="holiday-table">`)

	// Header: day numbers over short weekday names.
	b.WriteString(`<tr><th>Name</th><th>Bal</th><th>DOD</th><th>Code</th>`)
	for _, day := range datemaps.MonthDays(year, month) {
		fmt.Fprintf(&b, `<th>%d<br>%s</th>`, day.Day(), datemaps.ShortWeekday(day))
	}
	b.WriteString("</tr>")

	for _, row := range rowMarkup {
		b.WriteString(row)
	}

	// Footer selectors drive navigation to another month.
	fmt.Fprintf(&b, `<tr class="controls"><td colspan="%d">%s %s</td></tr>`,
		4+len(datemaps.MonthDays(year, month)),
		datemaps.GenerateMonthSelect("holiday_month", month),
		datemaps.GenerateYearBox("holiday_year", year),
	)

	b.WriteString("</table>")
	return b.String()
}
