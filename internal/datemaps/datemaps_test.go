package datemaps

import (
	"strings"
	"testing"
	"time"
)

func TestMonthName(t *testing.T) {
	if got := MonthName(1); got != "January" {
		t.Errorf("MonthName(1) = %q, want January", got)
	}
	if got := MonthName(12); got != "December" {
		t.Errorf("MonthName(12) = %q, want December", got)
	}
	if got := MonthName(0); got != "" {
		t.Errorf("MonthName(0) = %q, want empty", got)
	}
	if got := MonthName(13); got != "" {
		t.Errorf("MonthName(13) = %q, want empty", got)
	}
}

func TestPad(t *testing.T) {
	if got := Pad(3); got != "03" {
		t.Errorf("Pad(3) = %q, want 03", got)
	}
	if got := Pad(11); got != "11" {
		t.Errorf("Pad(11) = %q, want 11", got)
	}
}

func TestRoundDown(t *testing.T) {
	if got := RoundDown(7.256); got != 7.25 {
		t.Errorf("RoundDown(7.256) = %v, want 7.25", got)
	}
	if got := RoundDown(8.0); got != 8.0 {
		t.Errorf("RoundDown(8.0) = %v, want 8.0", got)
	}
}

func TestMonthDays(t *testing.T) {
	days := MonthDays(2024, 2)
	if len(days) != 29 {
		t.Fatalf("February 2024 has %d days, want 29", len(days))
	}
	if days[0].Day() != 1 || days[28].Day() != 29 {
		t.Errorf("unexpected day range: first=%d last=%d", days[0].Day(), days[28].Day())
	}
}

func TestWorkingDays(t *testing.T) {
	// September 2025 starts on a Monday and has 22 working days.
	days := WorkingDays(2025, 9)
	if len(days) != 22 {
		t.Fatalf("September 2025 has %d working days, want 22", len(days))
	}
	for _, d := range days {
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			t.Errorf("working days contains weekend day %s", d.Format("2006-01-02"))
		}
	}
}

func TestLast12Months(t *testing.T) {
	months := Last12Months(2025, 3)
	if len(months) != 12 {
		t.Fatalf("got %d months, want 12", len(months))
	}
	first, last := months[0], months[11]
	if first.Year() != 2024 || first.Month() != time.April {
		t.Errorf("first month = %s, want April 2024", first.Format("2006-01"))
	}
	if last.Year() != 2025 || last.Month() != time.March {
		t.Errorf("last month = %s, want March 2025", last.Format("2006-01"))
	}
}

func TestMonthGrid(t *testing.T) {
	// June 2025 starts on a Sunday, so the first row has six empty cells.
	weeks := MonthGrid(2025, 6)
	if len(weeks) != 6 {
		t.Fatalf("June 2025 grid has %d rows, want 6", len(weeks))
	}
	if weeks[0][6] != 1 {
		t.Errorf("first Sunday cell = %d, want 1", weeks[0][6])
	}
	for col := 0; col < 6; col++ {
		if weeks[0][col] != 0 {
			t.Errorf("leading cell %d = %d, want 0", col, weeks[0][col])
		}
	}
	if weeks[5][0] != 30 {
		t.Errorf("last row Monday = %d, want 30", weeks[5][0])
	}
}

func TestGenerateSelect(t *testing.T) {
	html := GenerateSelect("month_select", []SelectOption{
		{Value: "01", Label: "January"},
		{Value: "02", Label: "February"},
	}, "02")
	if !strings.Contains(html, `<select id="month_select">`) {
		t.Errorf("missing select element: %s", html)
	}
	if !strings.Contains(html, `<option value="02" selected>February</option>`) {
		t.Errorf("selected option not marked: %s", html)
	}
	if strings.Contains(html, `value="01" selected`) {
		t.Errorf("unselected option marked selected: %s", html)
	}
}

func TestGenerateYearBox(t *testing.T) {
	html := GenerateYearBox("year_select", 2025)
	for _, y := range []string{"2022", "2025", "2028"} {
		if !strings.Contains(html, y) {
			t.Errorf("year box missing %s: %s", y, html)
		}
	}
	if !strings.Contains(html, `<option value="2025" selected>`) {
		t.Errorf("current year not selected: %s", html)
	}
}
