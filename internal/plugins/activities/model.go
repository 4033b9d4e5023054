// Package activities tracks utilization counts: the catalogue of
// countable activities and the per-user daily amounts filed against
// them. Activity groups double as the cost-bucket codes the reporting
// pages aggregate into.
package activities

import "time"

// Activity is one countable item in the catalogue.
type Activity struct {
	ID          int64
	Group       string // cost-bucket code, e.g. "PVA"
	GroupType   string
	GroupDetail string
	Details     string
	Disabled    bool
	TimeMinutes int // standard minutes one unit of this activity takes
	CreatedAt   time.Time
}

// Entry is a filed amount of an activity for a user on a date.
type Entry struct {
	ID         int64
	UserID     string
	EntryDate  string // yyyy-mm-dd
	ActivityID int64
	Amount     float64
	CreatedAt  time.Time
}

// AddInput carries the fields of a new activity entry. All three are
// required.
type AddInput struct {
	ActivityKey string // activity id as submitted
	Amount      string
	Date        string // yyyy-mm-dd
}
