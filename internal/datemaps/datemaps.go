// Package datemaps collects the small date and markup helpers shared by the
// calendar, holiday, and reporting packages: month/weekday display names,
// zero padding, select-box generation, and month expansion.
package datemaps

import (
	"fmt"
	"strings"
	"time"
)

// MonthName returns the English display name for a 1-based month number,
// or "" when the number is out of range.
func MonthName(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return time.Month(month).String()
}

// ShortWeekday returns the three-letter weekday name for a date.
func ShortWeekday(t time.Time) string {
	return t.Weekday().String()[:3]
}

// Pad zero-pads a day or month number to two digits, matching the
// yyyy-mm-dd form used everywhere on the wire.
func Pad(n int) string {
	return fmt.Sprintf("%02d", n)
}

// ISODate formats a date as yyyy-mm-dd.
func ISODate(t time.Time) string {
	return t.Format("2006-01-02")
}

// ParseISODate parses a yyyy-mm-dd string.
func ParseISODate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}

// RoundDown truncates a fractional hour count to two decimal places for
// report display. Totals are accumulated in minutes, so this only drops
// float noise, never real precision.
func RoundDown(hours float64) float64 {
	return float64(int(hours*100)) / 100
}

// MonthDays returns every day of the given month in order.
func MonthDays(year, month int) []time.Time {
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	days := make([]time.Time, 0, 31)
	for d := first; d.Month() == first.Month(); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// WorkingDays returns the Monday-Friday days of the given month.
func WorkingDays(year, month int) []time.Time {
	var days []time.Time
	for _, d := range MonthDays(year, month) {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			days = append(days, d)
		}
	}
	return days
}

// IsWeekend reports whether the given day of a month falls on a weekend.
func IsWeekend(year, month, day int) bool {
	wd := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC).Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// Last12Months returns the first day of each of the twelve months ending
// with the given year/month, oldest first.
func Last12Months(year, month int) []time.Time {
	months := make([]time.Time, 12)
	cursor := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	for i := 11; i >= 0; i-- {
		months[i] = cursor
		cursor = cursor.AddDate(0, -1, 0)
	}
	return months
}

// MonthGrid returns the weeks of a month as rows of day numbers, padded
// with zeroes before the first and after the last day so every row has
// seven cells. Weeks start on Monday, matching the calendar table layout.
func MonthGrid(year, month int) [][7]int {
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	// Monday=0 ... Sunday=6.
	offset := (int(first.Weekday()) + 6) % 7

	last := first.AddDate(0, 1, -1).Day()

	var weeks [][7]int
	var week [7]int
	col := offset
	for day := 1; day <= last; day++ {
		week[col] = day
		col++
		if col == 7 {
			weeks = append(weeks, week)
			week = [7]int{}
			col = 0
		}
	}
	if col != 0 {
		weeks = append(weeks, week)
	}
	return weeks
}

// SelectOption is a value/label pair for generated select boxes.
type SelectOption struct {
	Value string
	Label string
}

// GenerateSelect renders a <select> element with the given id and options.
// The holiday table embeds month/year/process selectors in its footer row,
// so this produces markup rather than template data.
func GenerateSelect(id string, options []SelectOption, selected string) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<select id="%s">`, id)
	for _, opt := range options {
		if opt.Value == selected {
			fmt.Fprintf(&b, `<option value="%s" selected>%s</option>`, opt.Value, opt.Label)
		} else {
			fmt.Fprintf(&b, `<option value="%s">%s</option>`, opt.Value, opt.Label)
		}
	}
	b.WriteString("</select>")
	return b.String()
}

// GenerateYearBox renders a year selector spanning three years either side
// of the given year.
func GenerateYearBox(id string, year int) string {
	options := make([]SelectOption, 0, 7)
	for y := year - 3; y <= year+3; y++ {
		v := fmt.Sprintf("%d", y)
		options = append(options, SelectOption{Value: v, Label: v})
	}
	return GenerateSelect(id, options, fmt.Sprintf("%d", year))
}

// GenerateMonthSelect renders a month selector with display names.
func GenerateMonthSelect(id string, month int) string {
	options := make([]SelectOption, 0, 12)
	for m := 1; m <= 12; m++ {
		options = append(options, SelectOption{Value: Pad(m), Label: MonthName(m)})
	}
	return GenerateSelect(id, options, Pad(month))
}
