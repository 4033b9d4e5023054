package entries

import (
	"fmt"
	"strconv"
	"strings"
)

// Clock is a parsed HH:MM value.
type Clock struct {
	Hour   int
	Minute int
}

// TotalMinutes returns the clock value as minutes since midnight.
func (c Clock) TotalMinutes() int {
	return c.Hour*60 + c.Minute
}

// String formats the clock back to zero-padded HH:MM.
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// ParseClock parses an HH:MM string. Hours run 0-23 and minutes 0-59;
// both halves must be present.
func ParseClock(s string) (Clock, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return Clock{}, fmt.Errorf("time %q is not in HH:MM form", s)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return Clock{}, fmt.Errorf("time %q has an invalid hour", s)
	}

	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return Clock{}, fmt.Errorf("time %q has an invalid minute", s)
	}

	return Clock{Hour: hour, Minute: minute}, nil
}

// ValidateTimes parses a start/end pair and checks the interval runs
// forward. The sentinel pair used by timeless day types passes.
func ValidateTimes(start, end string) (Clock, Clock, error) {
	s, err := ParseClock(start)
	if err != nil {
		return Clock{}, Clock{}, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return Clock{}, Clock{}, err
	}
	if e.TotalMinutes() <= s.TotalMinutes() {
		return Clock{}, Clock{}, fmt.Errorf("end time %s is not after start time %s", end, start)
	}
	return s, e, nil
}
