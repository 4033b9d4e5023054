// Package users manages tracker accounts: the user model, access levels,
// password hashing, and the admin operations dispatched through the /ajax/
// endpoint (useredit, delete_user, get_user_data, profile_edit).
package users

import (
	"fmt"
	"time"
)

// Level is a user's access level. Levels are ordered: each level can do
// everything the levels below it can.
type Level int

const (
	// LevelUser is a regular user: owns a calendar, files entries.
	LevelUser Level = iota

	// LevelTeamLeader can view reports for users in their market.
	LevelTeamLeader

	// LevelAdmin manages users and approvals within their market.
	LevelAdmin

	// LevelSuper manages everything across all markets.
	LevelSuper
)

// levelCodes maps levels to their stable wire codes. These codes appear in
// the database ENUM and the useredit form, so they never change.
var levelCodes = map[Level]string{
	LevelUser:       "RUSER",
	LevelTeamLeader: "TEAML",
	LevelAdmin:      "ADMIN",
	LevelSuper:      "SUPER",
}

// levelNames maps levels to their display names.
var levelNames = map[Level]string{
	LevelUser:       "Regular User",
	LevelTeamLeader: "Team Leader",
	LevelAdmin:      "Administrator",
	LevelSuper:      "Super User",
}

// String returns the wire code for the level.
func (l Level) String() string {
	if code, ok := levelCodes[l]; ok {
		return code
	}
	return "RUSER"
}

// DisplayName returns the human-readable name for the level.
func (l Level) DisplayName() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "Regular User"
}

// AtLeast reports whether this level grants at least the given level's access.
func (l Level) AtLeast(min Level) bool {
	return l >= min
}

// ParseLevel converts a wire code back into a Level.
func ParseLevel(code string) (Level, error) {
	for level, c := range levelCodes {
		if c == code {
			return level, nil
		}
	}
	return LevelUser, fmt.Errorf("unknown user level %q", code)
}

// User represents a tracker account. Email doubles as the login name.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Firstname    string    `json:"firstname"`
	Lastname     string    `json:"lastname"`
	PasswordHash string    `json:"-"`
	Level        Level     `json:"-"`
	Market       string    `json:"market"`
	Process      string    `json:"process"`
	StartDate    time.Time `json:"start_date"`
	// BreakMinutes and ShiftMinutes define the user's working pattern and
	// feed the overtime calculation.
	BreakMinutes int    `json:"break_minutes"`
	ShiftMinutes int    `json:"shift_minutes"`
	JobCode      string `json:"job_code"`
	// HolidayBalance is the user's remaining holiday allowance in days.
	HolidayBalance float64    `json:"holiday_balance"`
	Disabled       bool       `json:"disabled"`
	CreatedAt      time.Time  `json:"created_at"`
	LastLoginAt    *time.Time `json:"last_login_at,omitempty"`
}

// FullName returns "Firstname Lastname" for display and mail salutations.
func (u *User) FullName() string {
	return u.Firstname + " " + u.Lastname
}

// CanSee reports whether this user may view another user's data. Team
// leaders and admins see users in their own market; supers see everyone.
func (u *User) CanSee(other *User) bool {
	if u.ID == other.ID {
		return true
	}
	switch {
	case u.Level >= LevelSuper:
		return true
	case u.Level >= LevelTeamLeader:
		return u.Market == other.Market && other.Level < u.Level
	default:
		return false
	}
}

// --- Service input DTOs ---

// EditInput carries the fields of the useredit form. An empty ID means
// create; a set ID means update. An empty Password keeps the current one.
type EditInput struct {
	ID             string
	Email          string
	Firstname      string
	Lastname       string
	Password       string
	Level          Level
	Market         string
	Process        string
	StartDate      time.Time
	BreakMinutes   int
	ShiftMinutes   int
	JobCode        string
	HolidayBalance float64
	Disabled       bool
}

// ProfileInput carries the fields a user may change about themselves.
type ProfileInput struct {
	Firstname string
	Lastname  string
	Password  string
}
