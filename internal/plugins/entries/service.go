package entries

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/veliry/timeclerk/internal/apperror"
	"github.com/veliry/timeclerk/internal/notify"
	"github.com/veliry/timeclerk/internal/plugins/users"
	"github.com/veliry/timeclerk/internal/sanitize"
)

// ApprovalOpener records a pending approval when an entry with an
// approval-requiring day type is filed. Implemented by the approvals
// plugin; entries only knows this contract.
type ApprovalOpener interface {
	Open(ctx context.Context, userID string, entryID int64, daytype Daytype) error
}

// RowInvalidator drops cached holiday-table rows when an entry mutation
// changes the underlying user-month. Implemented by the holidays
// plugin's row cache.
type RowInvalidator interface {
	Invalidate(ctx context.Context, userID string, year, month int)
}

// Service defines the business logic behind the /ajax/ entry operations.
// Every mutating call returns the regenerated calendar fragment for the
// affected month, which is what the /ajax/ response carries back.
type Service interface {
	Add(ctx context.Context, actor *users.User, sub Submission) (string, error)
	Change(ctx context.Context, actor *users.User, sub Submission) (string, error)
	DeleteEntry(ctx context.Context, actor *users.User, sub Submission) (string, error)

	// Calendar renders the fragment for one user-month.
	Calendar(ctx context.Context, userID string, year, month int) (string, error)

	// Entry ownership-checked lookup for the selection endpoints.
	Entry(ctx context.Context, actor *users.User, id int64) (*Entry, error)

	// Comment operations, admin-only (original get/add/remove_comment).
	Comment(ctx context.Context, actor *users.User, userID, date string) (string, error)
	SetComment(ctx context.Context, actor *users.User, userID, date, comment string) error
}

// service implements Service.
type service struct {
	repo   Repository
	users  users.Service
	mailer notify.Mailer

	approvals ApprovalOpener
	rows      RowInvalidator

	// suspiciousDiff is how far in the past an entry may lie before a
	// change to it is flagged in the log.
	suspiciousDiff time.Duration
}

// NewService creates a new entries service with the given dependencies.
func NewService(repo Repository, usersSvc users.Service, mailer notify.Mailer, approvals ApprovalOpener, rows RowInvalidator, suspiciousDiff time.Duration) Service {
	return &service{
		repo:           repo,
		users:          usersSvc,
		mailer:         mailer,
		approvals:      approvals,
		rows:           rows,
		suspiciousDiff: suspiciousDiff,
	}
}

// Add files a new entry for the actor and returns the refreshed fragment.
func (s *service) Add(ctx context.Context, actor *users.User, sub Submission) (string, error) {
	entry, err := entryFromSubmission(actor.ID, sub)
	if err != nil {
		return "", err
	}

	// One entry per user per day.
	if _, err := s.repo.FindByUserAndDate(ctx, actor.ID, entry.EntryDate); err == nil {
		return "", apperror.NewConflict("an entry for this date already exists")
	} else if !apperror.IsNotFound(err) {
		return "", apperror.NewInternal(fmt.Errorf("checking for existing entry: %w", err))
	}

	id, err := s.repo.Create(ctx, entry)
	if err != nil {
		return "", apperror.NewInternal(fmt.Errorf("creating entry: %w", err))
	}
	entry.ID = id

	s.afterFile(ctx, actor, entry)
	s.invalidateRow(ctx, actor.ID, entry.EntryDate)

	slog.Info("entry added",
		slog.Int64("entry_id", id),
		slog.String("user_id", actor.ID),
		slog.String("date", entry.EntryDate),
		slog.String("daytype", string(entry.Daytype)),
	)

	return s.fragmentFor(ctx, actor.ID, entry.EntryDate)
}

// Change updates the entry named by the hidden id and returns the
// refreshed fragment.
func (s *service) Change(ctx context.Context, actor *users.User, sub Submission) (string, error) {
	current, err := s.findOwned(ctx, actor, sub.HiddenID)
	if err != nil {
		return "", err
	}

	updated, err := entryFromSubmission(current.UserID, sub)
	if err != nil {
		return "", err
	}
	updated.ID = current.ID
	updated.Comments = current.Comments

	// Rewriting history long after the fact is allowed but noted.
	if date, err := current.Date(); err == nil && time.Since(date) > s.suspiciousDiff {
		slog.Warn("entry changed long after its date",
			slog.Int64("entry_id", current.ID),
			slog.String("user_id", actor.ID),
			slog.String("entry_date", current.EntryDate),
		)
	}

	if err := s.repo.Update(ctx, updated); err != nil {
		if apperror.IsNotFound(err) {
			return "", err
		}
		return "", apperror.NewInternal(fmt.Errorf("updating entry: %w", err))
	}

	if updated.Daytype != current.Daytype {
		s.afterFile(ctx, actor, updated)
	}
	s.invalidateRow(ctx, updated.UserID, current.EntryDate)
	if updated.EntryDate != current.EntryDate {
		s.invalidateRow(ctx, updated.UserID, updated.EntryDate)
	}

	slog.Info("entry changed",
		slog.Int64("entry_id", updated.ID),
		slog.String("user_id", actor.ID),
		slog.String("date", updated.EntryDate),
	)

	return s.fragmentFor(ctx, updated.UserID, updated.EntryDate)
}

// DeleteEntry removes the entry named by the hidden id and returns the
// refreshed fragment for its month.
func (s *service) DeleteEntry(ctx context.Context, actor *users.User, sub Submission) (string, error) {
	current, err := s.findOwned(ctx, actor, sub.HiddenID)
	if err != nil {
		return "", err
	}

	if err := s.repo.Delete(ctx, current.ID); err != nil {
		if apperror.IsNotFound(err) {
			return "", err
		}
		return "", apperror.NewInternal(fmt.Errorf("deleting entry: %w", err))
	}

	s.invalidateRow(ctx, current.UserID, current.EntryDate)

	slog.Info("entry deleted",
		slog.Int64("entry_id", current.ID),
		slog.String("user_id", actor.ID),
		slog.String("date", current.EntryDate),
	)

	return s.fragmentFor(ctx, current.UserID, current.EntryDate)
}

// Calendar renders the fragment for one user-month.
func (s *service) Calendar(ctx context.Context, userID string, year, month int) (string, error) {
	if month < 1 || month > 12 {
		return "", apperror.NewBadRequest("month must be between 1 and 12")
	}

	monthEntries, err := s.repo.ListMonth(ctx, userID, year, month)
	if err != nil {
		return "", apperror.NewInternal(fmt.Errorf("listing month entries: %w", err))
	}

	return BuildCalendar(year, month, monthEntries), nil
}

// Entry returns an entry the actor may see.
func (s *service) Entry(ctx context.Context, actor *users.User, id int64) (*Entry, error) {
	entry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, err
		}
		return nil, apperror.NewInternal(fmt.Errorf("finding entry: %w", err))
	}
	if entry.UserID != actor.ID && !actor.Level.AtLeast(users.LevelAdmin) {
		return nil, apperror.NewForbidden("this entry belongs to another user")
	}
	return entry, nil
}

// Comment returns the comment on a user's entry for one date. Admin-only.
func (s *service) Comment(ctx context.Context, actor *users.User, userID, date string) (string, error) {
	entry, err := s.findForComment(ctx, actor, userID, date)
	if err != nil {
		return "", err
	}
	return entry.Comments, nil
}

// SetComment stores a sanitized comment on a user's entry for one date.
// An empty comment clears it. Admin-only.
func (s *service) SetComment(ctx context.Context, actor *users.User, userID, date, comment string) error {
	entry, err := s.findForComment(ctx, actor, userID, date)
	if err != nil {
		return err
	}

	if err := s.repo.UpdateComments(ctx, entry.ID, sanitize.Comment(comment)); err != nil {
		return apperror.NewInternal(fmt.Errorf("updating comment: %w", err))
	}
	return nil
}

// --- internals ---

// findOwned resolves a hidden-id string to an entry the actor may modify.
func (s *service) findOwned(ctx context.Context, actor *users.User, hiddenID string) (*Entry, error) {
	if hiddenID == "" {
		return nil, apperror.NewBadRequest("no entry is selected")
	}
	id, err := strconv.ParseInt(hiddenID, 10, 64)
	if err != nil {
		return nil, apperror.NewBadRequest("entry id must be a number")
	}

	entry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, err
		}
		return nil, apperror.NewInternal(fmt.Errorf("finding entry: %w", err))
	}

	if entry.UserID != actor.ID && !actor.Level.AtLeast(users.LevelAdmin) {
		return nil, apperror.NewForbidden("this entry belongs to another user")
	}

	return entry, nil
}

// fragmentFor regenerates the calendar fragment for the month containing
// the given date.
func (s *service) fragmentFor(ctx context.Context, userID, entryDate string) (string, error) {
	date, err := time.Parse("2006-01-02", entryDate)
	if err != nil {
		return "", apperror.NewInternal(fmt.Errorf("parsing entry date %q: %w", entryDate, err))
	}
	return s.Calendar(ctx, userID, date.Year(), int(date.Month()))
}

// invalidateRow drops the cached holiday-table row for the month the
// mutated entry falls in.
func (s *service) invalidateRow(ctx context.Context, userID, entryDate string) {
	if s.rows == nil {
		return
	}
	date, err := time.Parse("2006-01-02", entryDate)
	if err != nil {
		return
	}
	s.rows.Invalidate(ctx, userID, date.Year(), int(date.Month()))
}

// findForComment resolves the admin comment target.
func (s *service) findForComment(ctx context.Context, actor *users.User, userID, date string) (*Entry, error) {
	if !actor.Level.AtLeast(users.LevelAdmin) {
		return nil, apperror.NewForbidden("only administrators can manage comments")
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, apperror.NewBadRequest("date must be yyyy-mm-dd")
	}

	entry, err := s.repo.FindByUserAndDate(ctx, userID, date)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, err
		}
		return nil, apperror.NewInternal(fmt.Errorf("finding entry: %w", err))
	}
	return entry, nil
}

// afterFile runs the side effects of filing an entry: sickness mail to
// the market's managers and a pending approval for overtime day types.
// Neither failure fails the filing itself.
func (s *service) afterFile(ctx context.Context, actor *users.User, entry *Entry) {
	if entry.Daytype == DaytypeSick {
		s.notifySickDay(ctx, actor, entry)
	}

	if entry.Daytype.NeedsApproval() && s.approvals != nil {
		if err := s.approvals.Open(ctx, actor.ID, entry.ID, entry.Daytype); err != nil {
			slog.Warn("failed to open approval",
				slog.Int64("entry_id", entry.ID),
				slog.Any("error", err),
			)
		}
	}
}

// notifySickDay mails the actor's managers about a filed sick day.
func (s *service) notifySickDay(ctx context.Context, actor *users.User, entry *Entry) {
	managers, err := s.users.Managers(ctx, actor.Market)
	if err != nil {
		slog.Warn("failed to list managers for sick-day mail", slog.Any("error", err))
		return
	}

	to := make([]string, 0, len(managers))
	for _, m := range managers {
		to = append(to, m.Email)
	}

	body := fmt.Sprintf("%s has filed a sickness absence for %s.\n",
		actor.FullName(), entry.EntryDate)
	if err := s.mailer.Send(ctx, to, "Sickness absence filed.", body); err != nil {
		slog.Warn("failed to send sick-day mail",
			slog.String("user_id", actor.ID),
			slog.Any("error", err),
		)
	}
}

// entryFromSubmission validates the wire fields into an entry. Timeless
// day types force the sentinel time pair regardless of what was posted.
func entryFromSubmission(userID string, sub Submission) (*Entry, error) {
	daytype, err := ParseDaytype(string(sub.Daytype))
	if err != nil {
		return nil, apperror.NewValidation("unknown day type")
	}

	if _, err := time.Parse("2006-01-02", sub.EntryDate); err != nil {
		return nil, apperror.NewValidation("entry date must be yyyy-mm-dd")
	}

	entry := &Entry{
		UserID:    userID,
		EntryDate: sub.EntryDate,
		Daytype:   daytype,
		Breaks:    sub.Breaks,
	}

	if daytype.Timeless() {
		entry.StartTime = SentinelStart
		entry.EndTime = SentinelEnd
		entry.Breaks = "00:00"
		return entry, nil
	}

	if _, _, err := ValidateTimes(sub.StartTime, sub.EndTime); err != nil {
		return nil, apperror.NewValidation(err.Error())
	}
	entry.StartTime = sub.StartTime
	entry.EndTime = sub.EndTime

	if entry.Breaks == "" {
		entry.Breaks = "00:00"
	} else if _, err := ParseClock(entry.Breaks); err != nil {
		return nil, apperror.NewValidation("breaks must be HH:MM")
	}

	return entry, nil
}
