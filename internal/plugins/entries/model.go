// Package entries implements the calendar-entry workflow: the tracking
// entry model, the add/change/delete operations multiplexed through
// POST /ajax/, the server-rendered calendar fragment, and the form
// view-models the fragment endpoints operate on.
package entries

import (
	"fmt"
	"time"
)

// Daytype classifies a calendar day and decides whether the start/end
// times carry meaning.
type Daytype string

const (
	DaytypeWorkday      Daytype = "WKDAY" // worked day
	DaytypeSick         Daytype = "SICKD" // sick day
	DaytypeHoliday      Daytype = "HOLIS" // booked holiday
	DaytypePaidUnworked Daytype = "PUABS" // paid but unworked absence
	DaytypePaidWorked   Daytype = "PUWRK" // paid overtime working
	DaytypeSpecial      Daytype = "SPECI" // special leave
	DaytypeTraining     Daytype = "TRAIN" // training
	DaytypeDayOnDemand  Daytype = "DAYOD" // day on demand
	DaytypeWorkHome     Daytype = "WKHOM" // work at home
	DaytypeReturn       Daytype = "RETRN" // return for overtime
	DaytypePending      Daytype = "PENDI" // pending approval
	DaytypeLinked       Daytype = "LINKD" // linked to another entry
)

// daytypeNames maps codes to display names for the calendar legend and
// the day-type selectors.
var daytypeNames = map[Daytype]string{
	DaytypeWorkday:      "Working Day",
	DaytypeSick:         "Sickness Absence",
	DaytypeHoliday:      "Scheduled Holiday",
	DaytypePaidUnworked: "Public Holiday",
	DaytypePaidWorked:   "Public Holiday (Worked)",
	DaytypeSpecial:      "Special Leave",
	DaytypeTraining:     "Training",
	DaytypeDayOnDemand:  "Day On Demand",
	DaytypeWorkHome:     "Work At Home",
	DaytypeReturn:       "Return For Overtime",
	DaytypePending:      "Pending Approval",
	DaytypeLinked:       "Linked Day",
}

// DaytypeOptions returns a code to display-name map for the day-type
// selectors and the holiday-table painter.
func DaytypeOptions() map[string]string {
	options := make(map[string]string, len(daytypeNames))
	for code, name := range daytypeNames {
		options[string(code)] = name
	}
	return options
}

// ParseDaytype validates a wire code.
func ParseDaytype(code string) (Daytype, error) {
	d := Daytype(code)
	if _, ok := daytypeNames[d]; !ok {
		return "", fmt.Errorf("unknown day type %q", code)
	}
	return d, nil
}

// DisplayName returns the human-readable name for the day type.
func (d Daytype) DisplayName() string {
	if name, ok := daytypeNames[d]; ok {
		return name
	}
	return string(d)
}

// Timeless reports whether the day type has no meaningful working
// interval. Timeless entries store the sentinel pair 00:00/00:01 and the
// forms disable their time inputs.
func (d Daytype) Timeless() bool {
	return d == DaytypeSick || d == DaytypeHoliday
}

// CountsAsWorked reports whether the day contributes worked hours to the
// overtime reports.
func (d Daytype) CountsAsWorked() bool {
	switch d {
	case DaytypeWorkday, DaytypePaidWorked, DaytypeWorkHome, DaytypeTraining, DaytypeReturn:
		return true
	}
	return false
}

// NeedsApproval reports whether filing the entry opens a pending approval
// for a manager to close.
func (d Daytype) NeedsApproval() bool {
	return d == DaytypePending || d == DaytypeReturn || d == DaytypePaidWorked
}

// Sentinel start/end values stored for timeless day types.
const (
	SentinelStart = "00:00"
	SentinelEnd   = "00:01"
)

// Entry is one tracked calendar day. Dates and times are stored as the
// strings that travel on the wire; parsing happens at the edges.
type Entry struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	EntryDate string    `json:"entry_date"` // yyyy-mm-dd
	StartTime string    `json:"start_time"` // HH:MM
	EndTime   string    `json:"end_time"`   // HH:MM
	Breaks    string    `json:"breaks"`     // HH:MM
	Daytype   Daytype   `json:"daytype"`
	Comments  string    `json:"comments"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WorkedMinutes returns the entry's working interval net of breaks, in
// minutes. Timeless and malformed entries contribute zero.
func (e *Entry) WorkedMinutes() int {
	if e.Daytype.Timeless() || !e.Daytype.CountsAsWorked() {
		return 0
	}
	start, err := ParseClock(e.StartTime)
	if err != nil {
		return 0
	}
	end, err := ParseClock(e.EndTime)
	if err != nil {
		return 0
	}
	worked := end.TotalMinutes() - start.TotalMinutes()
	if breaks, err := ParseClock(e.Breaks); err == nil {
		worked -= breaks.TotalMinutes()
	}
	if worked < 0 {
		return 0
	}
	return worked
}

// Date parses the entry date.
func (e *Entry) Date() (time.Time, error) {
	return time.Parse("2006-01-02", e.EntryDate)
}
