package entries

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/veliry/timeclerk/internal/datemaps"
)

// BuildCalendar renders the calendar fragment for one user-month: a table
// with one row per week, a header linking to the previous and next month,
// and one cell per day. Days with an entry carry the day-type code as
// their CSS class and link to the change-form selection endpoint with the
// entry's full field set; empty in-month days link to the add-form
// endpoint with their date; out-of-month cells are blank.
//
// The fragment is what /ajax/ returns on success and what the calendar
// page embeds, so it is swapped into the page wholesale.
func BuildCalendar(year, month int, monthEntries []Entry) string {
	byDay := make(map[int]*Entry, len(monthEntries))
	for i := range monthEntries {
		e := &monthEntries[i]
		if d, err := e.Date(); err == nil && d.Year() == year && int(d.Month()) == month {
			byDay[d.Day()] = e
		}
	}

	prevYear, prevMonth := year, month-1
	if prevMonth < 1 {
		prevYear, prevMonth = year-1, 12
	}
	nextYear, nextMonth := year, month+1
	if nextMonth > 12 {
		nextYear, nextMonth = year+1, 1
	}

	var b strings.Builder
	b.WriteString(`<table id="calendar" class="calendar">`)

	fmt.Fprintf(&b,
		`<caption><a class="cal-nav" href="/calendar/%d/%02d/">&laquo;</a> %s %d <a class="cal-nav" href="/calendar/%d/%02d/">&raquo;</a></caption>`,
		prevYear, prevMonth, datemaps.MonthName(month), year, nextYear, nextMonth)

	b.WriteString("<tr>")
	for _, wd := range []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"} {
		fmt.Fprintf(&b, "<th>%s</th>", wd)
	}
	b.WriteString("</tr>")

	for _, week := range datemaps.MonthGrid(year, month) {
		b.WriteString("<tr>")
		for _, day := range week {
			writeDayCell(&b, year, month, day, byDay[day])
		}
		b.WriteString("</tr>")
	}

	b.WriteString("</table>")
	return b.String()
}

// writeDayCell renders one <td>.
func writeDayCell(b *strings.Builder, year, month, day int, entry *Entry) {
	if day == 0 {
		b.WriteString(`<td class="noday"></td>`)
		return
	}

	date := fmt.Sprintf("%d-%02d-%02d", year, month, day)

	if entry == nil {
		class := "empty"
		if datemaps.IsWeekend(year, month, day) {
			class = "empty weekend"
		}
		fmt.Fprintf(b, `<td class="%s"><a href="/calendar/forms/clear?date=%s">%d</a></td>`,
			class, date, day)
		return
	}

	fmt.Fprintf(b, `<td class="%s"><a href="/calendar/forms/select?%s">%d</a></td>`,
		string(entry.Daytype), selectionQuery(entry, date), day)
}

// selectionQuery encodes the change-form selection for an entry day: the
// entry id, date, day type, full time strings, and the decomposed
// hour/minute values that seed the time pickers.
func selectionQuery(entry *Entry, date string) string {
	q := url.Values{
		"id":         {fmt.Sprintf("%d", entry.ID)},
		"date":       {date},
		"daytype":    {string(entry.Daytype)},
		"start_time": {entry.StartTime},
		"end_time":   {entry.EndTime},
		"breaks":     {entry.Breaks},
	}
	if start, err := ParseClock(entry.StartTime); err == nil {
		q.Set("start_hour", fmt.Sprintf("%d", start.Hour))
		q.Set("start_min", fmt.Sprintf("%d", start.Minute))
	}
	if end, err := ParseClock(entry.EndTime); err == nil {
		q.Set("end_hour", fmt.Sprintf("%d", end.Hour))
		q.Set("end_min", fmt.Sprintf("%d", end.Minute))
	}
	return q.Encode()
}
