package approvals

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/veliry/timeclerk/internal/apperror"
	"github.com/veliry/timeclerk/internal/notify"
	"github.com/veliry/timeclerk/internal/plugins/entries"
	"github.com/veliry/timeclerk/internal/plugins/users"
)

// Service defines the business logic contract for approvals.
// It satisfies entries.ApprovalOpener so filing an entry with an
// approval-requiring day type opens a request here.
type Service interface {
	Open(ctx context.Context, userID string, entryID int64, daytype entries.Daytype) error
	// Pending returns the open approvals the actor may decide on.
	Pending(ctx context.Context, actor *users.User) ([]PendingApproval, error)
	// Decide closes an approval and mails the requesting user.
	Decide(ctx context.Context, actor *users.User, id int64, approved bool) error
}

type service struct {
	repo     Repository
	usersSvc users.Service
	mailer   notify.Mailer
}

// NewService creates a new approval service.
func NewService(repo Repository, usersSvc users.Service, mailer notify.Mailer) Service {
	return &service{repo: repo, usersSvc: usersSvc, mailer: mailer}
}

var _ entries.ApprovalOpener = (Service)(nil)

// Open records a pending approval for an entry. Re-filing against an
// entry that already has an open request is a no-op.
func (s *service) Open(ctx context.Context, userID string, entryID int64, daytype entries.Daytype) error {
	existing, err := s.repo.FindOpenByEntry(ctx, entryID)
	if err != nil && !apperror.IsNotFound(err) {
		return err
	}
	if existing != nil {
		return nil
	}

	_, err = s.repo.Create(ctx, &PendingApproval{
		EntryID: entryID,
		UserID:  userID,
		Daytype: daytype,
	})
	if err != nil {
		return err
	}

	slog.Info("approval opened", "user_id", userID, "entry_id", entryID,
		"daytype", string(daytype))
	return nil
}

func (s *service) Pending(ctx context.Context, actor *users.User) ([]PendingApproval, error) {
	if !actor.Level.AtLeast(users.LevelTeamLeader) {
		return nil, apperror.NewForbidden("only team leaders can review approvals")
	}

	team, err := s.usersSvc.Visible(ctx, actor)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(team))
	for _, member := range team {
		ids = append(ids, member.ID)
	}

	return s.repo.ListOpen(ctx, ids)
}

func (s *service) Decide(ctx context.Context, actor *users.User, id int64, approved bool) error {
	if !actor.Level.AtLeast(users.LevelTeamLeader) {
		return apperror.NewForbidden("only team leaders can review approvals")
	}

	approval, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if approval.UserID == actor.ID {
		return apperror.NewForbidden("you cannot decide on your own request")
	}

	requester, err := s.usersSvc.ByID(ctx, approval.UserID)
	if err != nil {
		return err
	}
	if !actor.CanSee(requester) {
		return apperror.NewForbidden("this request is outside your team")
	}

	status := StatusDenied
	if approved {
		status = StatusApproved
	}
	if err := s.repo.Close(ctx, id, status, actor.ID); err != nil {
		if apperror.IsNotFound(err) {
			return apperror.NewConflict("this request has already been decided")
		}
		return err
	}

	s.notifyDecision(ctx, requester, approval, approved)

	slog.Info("approval decided", "approval_id", id, "status", status,
		"approver_id", actor.ID)
	return nil
}

// notifyDecision mails the requesting user. Delivery failures are
// logged, never surfaced: the decision already stuck.
func (s *service) notifyDecision(ctx context.Context, requester *users.User, approval *PendingApproval, approved bool) {
	subject := "Request for Overtime: Denied."
	body := fmt.Sprintf("Hello %s,\n\nYour %s request for entry %d was denied.\n",
		requester.Firstname, approval.Daytype.DisplayName(), approval.EntryID)
	if approved {
		subject = "Your recent timetracker actions."
		body = fmt.Sprintf("Hello %s,\n\nYour %s request for entry %d was approved.\n",
			requester.Firstname, approval.Daytype.DisplayName(), approval.EntryID)
	}

	err := s.mailer.Send(ctx, []string{requester.Email}, subject, body)
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Warn("failed to send approval decision mail",
			"approval_id", approval.ID, "error", err)
	}
}
