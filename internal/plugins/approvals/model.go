// Package approvals holds the pending-approval queue. Filing an entry
// with an approval-requiring day type opens an approval; a team leader
// closes it with a decision and the requesting user is mailed.
package approvals

import (
	"time"

	"github.com/veliry/timeclerk/internal/plugins/entries"
)

// Approval statuses.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusDenied   = "denied"
)

// PendingApproval is one open or decided approval request.
type PendingApproval struct {
	ID         int64
	EntryID    int64
	UserID     string // the user whose entry needs approval
	Daytype    entries.Daytype
	Closed     bool
	Status     string
	ApproverID string // who decided; empty while open
	CreatedAt  time.Time
	ClosedAt   *time.Time
}
