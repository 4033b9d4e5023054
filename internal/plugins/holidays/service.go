package holidays

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/veliry/timeclerk/internal/apperror"
	"github.com/veliry/timeclerk/internal/notify"
	"github.com/veliry/timeclerk/internal/plugins/entries"
	"github.com/veliry/timeclerk/internal/plugins/users"
)

// emptyMarker is the mass_data value that deletes a day's entry.
const emptyMarker = "empty"

// Service defines the business logic behind the holiday table and the
// mass_holidays operation.
type Service interface {
	// Table renders the holiday-table fragment for the users the actor
	// may see.
	Table(ctx context.Context, actor *users.User, year, month int) (string, error)

	// MassAssign applies a mass_data batch for one month and returns the
	// refreshed table fragment.
	MassAssign(ctx context.Context, actor *users.User, year, month int, massData string) (string, error)
}

// service implements Service.
type service struct {
	entries entries.Repository
	users   users.Service
	mailer  notify.Mailer
	cache   *RowCache
}

// NewService creates a new holidays service with the given dependencies.
func NewService(entriesRepo entries.Repository, usersSvc users.Service, mailer notify.Mailer, cache *RowCache) Service {
	return &service{
		entries: entriesRepo,
		users:   usersSvc,
		mailer:  mailer,
		cache:   cache,
	}
}

// Table renders the holiday table. Rows come from the cache where
// possible and are rebuilt from each user's month otherwise.
func (s *service) Table(ctx context.Context, actor *users.User, year, month int) (string, error) {
	if !actor.Level.AtLeast(users.LevelTeamLeader) {
		return "", apperror.NewForbidden("only team leaders can view the holiday table")
	}
	if month < 1 || month > 12 {
		return "", apperror.NewBadRequest("month must be between 1 and 12")
	}

	team, err := s.users.Visible(ctx, actor)
	if err != nil {
		return "", err
	}

	markup := make([]string, 0, len(team))
	for _, member := range team {
		if cached := s.cache.Get(ctx, member.ID, year, month); cached != "" {
			markup = append(markup, cached)
			continue
		}

		row, err := s.buildRow(ctx, member, year, month)
		if err != nil {
			return "", err
		}
		rendered := BuildRow(year, month, row)
		s.cache.Set(ctx, member.ID, year, month, rendered)
		markup = append(markup, rendered)
	}

	return BuildTable(year, month, markup), nil
}

// buildRow loads a user's month into a row model.
func (s *service) buildRow(ctx context.Context, member users.User, year, month int) (UserRow, error) {
	monthEntries, err := s.entries.ListMonth(ctx, member.ID, year, month)
	if err != nil {
		return UserRow{}, apperror.NewInternal(fmt.Errorf("listing month entries: %w", err))
	}

	daytypes := make(map[int]entries.Daytype, len(monthEntries))
	for _, e := range monthEntries {
		if d, err := e.Date(); err == nil {
			daytypes[d.Day()] = e.Daytype
		}
	}

	return UserRow{User: member, Daytypes: daytypes}, nil
}

// MassAssign decodes the mass_data JSON map of user id to per-day
// daytype values and applies it: "empty" deletes an existing entry, a
// day-type code creates or updates the day with the user's shift
// defaults, LINKD days and invalid values are skipped. The first sick
// day in the batch triggers the sickness notification mail.
func (s *service) MassAssign(ctx context.Context, actor *users.User, year, month int, massData string) (string, error) {
	if !actor.Level.AtLeast(users.LevelAdmin) {
		return "", apperror.NewForbidden("only administrators can mass-assign holidays")
	}
	if month < 1 || month > 12 {
		return "", apperror.NewBadRequest("month must be between 1 and 12")
	}

	var batch map[string][]string
	if err := json.Unmarshal([]byte(massData), &batch); err != nil {
		return "", apperror.NewBadRequest("mass_data is not valid JSON")
	}

	sickNotified := false
	for userID, days := range batch {
		member, err := s.users.ByID(ctx, userID)
		if err != nil {
			if apperror.IsNotFound(err) {
				continue
			}
			return "", err
		}
		if !actor.CanSee(member) {
			return "", apperror.NewForbidden("you cannot manage this user's holidays")
		}

		notifySick, err := s.applyUserDays(ctx, member, year, month, days, !sickNotified)
		if err != nil {
			return "", err
		}
		if notifySick {
			sickNotified = true
		}

		s.cache.Invalidate(ctx, userID, year, month)
	}

	slog.Info("mass holidays applied",
		slog.String("actor_id", actor.ID),
		slog.Int("year", year),
		slog.Int("month", month),
		slog.Int("users", len(batch)),
	)

	return s.Table(ctx, actor, year, month)
}

// applyUserDays walks one user's day list. The slice index is the
// zero-based day of month; values past the month's end are ignored.
// Returns whether a sick-day mail was sent.
func (s *service) applyUserDays(ctx context.Context, member *users.User, year, month int, days []string, mayNotify bool) (bool, error) {
	daysInMonth := time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
	notified := false

	for i, value := range days {
		day := i + 1
		if day > daysInMonth || value == "" {
			continue
		}
		date := fmt.Sprintf("%d-%02d-%02d", year, month, day)

		if value == emptyMarker {
			if err := s.deleteDay(ctx, member.ID, date); err != nil {
				return notified, err
			}
			continue
		}

		daytype, err := entries.ParseDaytype(value)
		if err != nil || daytype == entries.DaytypeLinked {
			// Unknown codes and linked days are left untouched.
			continue
		}

		if err := s.upsertDay(ctx, member, date, daytype); err != nil {
			return notified, err
		}

		if daytype == entries.DaytypeSick && mayNotify && !notified {
			s.notifySickDay(ctx, member, date)
			notified = true
		}
	}

	return notified, nil
}

// deleteDay removes the entry on a date, if any.
func (s *service) deleteDay(ctx context.Context, userID, date string) error {
	existing, err := s.entries.FindByUserAndDate(ctx, userID, date)
	if apperror.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("finding entry: %w", err))
	}
	if err := s.entries.Delete(ctx, existing.ID); err != nil && !apperror.IsNotFound(err) {
		return apperror.NewInternal(fmt.Errorf("deleting entry: %w", err))
	}
	return nil
}

// upsertDay creates or retypes the entry on a date. New working-day
// entries take the user's shift defaults; timeless day types take the
// sentinel pair.
func (s *service) upsertDay(ctx context.Context, member *users.User, date string, daytype entries.Daytype) error {
	entry := &entries.Entry{
		UserID:    member.ID,
		EntryDate: date,
		Daytype:   daytype,
	}
	if daytype.Timeless() {
		entry.StartTime = entries.SentinelStart
		entry.EndTime = entries.SentinelEnd
		entry.Breaks = "00:00"
	} else {
		entry.StartTime, entry.EndTime, entry.Breaks = shiftDefaults(member)
	}

	existing, err := s.entries.FindByUserAndDate(ctx, member.ID, date)
	if apperror.IsNotFound(err) {
		if _, err := s.entries.Create(ctx, entry); err != nil {
			return apperror.NewInternal(fmt.Errorf("creating entry: %w", err))
		}
		return nil
	}
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("finding entry: %w", err))
	}

	entry.ID = existing.ID
	entry.Comments = existing.Comments
	if err := s.entries.Update(ctx, entry); err != nil {
		return apperror.NewInternal(fmt.Errorf("updating entry: %w", err))
	}
	return nil
}

// shiftDefaults derives a start/end/breaks triple from the user's
// working pattern, anchored at 09:00.
func shiftDefaults(member *users.User) (start, end, breaks string) {
	const anchor = 9 * 60
	total := anchor + member.ShiftMinutes + member.BreakMinutes
	return "09:00",
		fmt.Sprintf("%02d:%02d", (total/60)%24, total%60),
		fmt.Sprintf("%02d:%02d", member.BreakMinutes/60, member.BreakMinutes%60)
}

// notifySickDay mails the user's managers about an assigned sick day.
func (s *service) notifySickDay(ctx context.Context, member *users.User, date string) {
	managers, err := s.users.Managers(ctx, member.Market)
	if err != nil {
		slog.Warn("failed to list managers for sick-day mail", slog.Any("error", err))
		return
	}

	to := make([]string, 0, len(managers))
	for _, m := range managers {
		to = append(to, m.Email)
	}

	body := fmt.Sprintf("A sickness absence has been recorded for %s on %s.\n",
		member.FullName(), date)
	if err := s.mailer.Send(ctx, to, "Sickness absence filed.", body); err != nil {
		slog.Warn("failed to send sick-day mail",
			slog.String("user_id", member.ID),
			slog.Any("error", err),
		)
	}
}
