package reporting

import (
	"context"
	"fmt"

	"github.com/veliry/timeclerk/internal/apperror"
	"github.com/veliry/timeclerk/internal/datemaps"
	"github.com/veliry/timeclerk/internal/plugins/activities"
	"github.com/veliry/timeclerk/internal/plugins/entries"
	"github.com/veliry/timeclerk/internal/plugins/users"
)

// UserOvertime is one user's worked-versus-expected rollup for a month.
type UserOvertime struct {
	User            users.User
	WorkedMinutes   int
	ExpectedMinutes int
	OvertimeMinutes int
}

// OvertimeHours returns the overtime as fractional hours for display.
func (o UserOvertime) OvertimeHours() float64 {
	return datemaps.RoundDown(float64(o.OvertimeMinutes) / 60)
}

// MonthOvertime is one month's overtime total inside a year rollup.
type MonthOvertime struct {
	Month           int
	OvertimeMinutes int
}

// MonthName returns the display name of the month.
func (o MonthOvertime) MonthName() string {
	return datemaps.MonthName(o.Month)
}

// OvertimeHours returns the overtime as fractional hours for display.
func (o MonthOvertime) OvertimeHours() float64 {
	return datemaps.RoundDown(float64(o.OvertimeMinutes) / 60)
}

// UserHolidayCount is one user's day-type tally for a month.
type UserHolidayCount struct {
	User   users.User
	Counts map[entries.Daytype]int
}

// Service defines the business logic contract for the report pages.
type Service interface {
	// TeamOvertime rolls up worked-versus-expected minutes for every
	// user the actor can see, optionally narrowed to one market.
	TeamOvertime(ctx context.Context, actor *users.User, year, month int, market string) ([]UserOvertime, error)
	// YearOvertime rolls up one user's overtime per month of a year.
	YearOvertime(ctx context.Context, actor *users.User, userID string, year int) ([]MonthOvertime, error)
	// HolidayCounts tallies day types per visible user for a month.
	HolidayCounts(ctx context.Context, actor *users.User, year, month int, market string) ([]UserHolidayCount, error)
	// UserHolidays lists one user's non-working entries for a year.
	UserHolidays(ctx context.Context, actor *users.User, userID string, year int) ([]entries.Entry, error)
	// AllHolidays tallies non-working day types per visible user for a
	// whole year.
	AllHolidays(ctx context.Context, actor *users.User, year int) ([]UserHolidayCount, error)
	// Buckets computes one user's cost-bucket chart for a month.
	Buckets(ctx context.Context, actor *users.User, userID string, year, month int) (CostBuckets, error)
}

type service struct {
	entriesRepo   entries.Repository
	usersSvc      users.Service
	activitiesSvc activities.Service
}

// NewService creates a new reporting service.
func NewService(entriesRepo entries.Repository, usersSvc users.Service, activitiesSvc activities.Service) Service {
	return &service{
		entriesRepo:   entriesRepo,
		usersSvc:      usersSvc,
		activitiesSvc: activitiesSvc,
	}
}

func (s *service) TeamOvertime(ctx context.Context, actor *users.User, year, month int, market string) ([]UserOvertime, error) {
	if !actor.Level.AtLeast(users.LevelTeamLeader) {
		return nil, apperror.NewForbidden("only team leaders can view team reports")
	}
	if month < 1 || month > 12 {
		return nil, apperror.NewBadRequest("month must be between 1 and 12")
	}

	team, err := s.usersSvc.Visible(ctx, actor)
	if err != nil {
		return nil, err
	}

	var result []UserOvertime
	for _, member := range team {
		if market != "" && member.Market != market {
			continue
		}

		monthEntries, err := s.entriesRepo.ListMonth(ctx, member.ID, year, month)
		if err != nil {
			return nil, err
		}

		worked := 0
		for _, entry := range monthEntries {
			worked += entry.WorkedMinutes()
		}
		expected := len(datemaps.WorkingDays(year, month)) * member.ShiftMinutes

		result = append(result, UserOvertime{
			User:            member,
			WorkedMinutes:   worked,
			ExpectedMinutes: expected,
			OvertimeMinutes: worked - expected,
		})
	}

	return result, nil
}

func (s *service) YearOvertime(ctx context.Context, actor *users.User, userID string, year int) ([]MonthOvertime, error) {
	target, err := s.visibleUser(ctx, actor, userID)
	if err != nil {
		return nil, err
	}

	from := fmt.Sprintf("%04d-01-01", year)
	to := fmt.Sprintf("%04d-12-31", year)
	yearEntries, err := s.entriesRepo.ListRange(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}

	workedByMonth := map[int]int{}
	for _, entry := range yearEntries {
		date, err := entry.Date()
		if err != nil {
			continue
		}
		workedByMonth[int(date.Month())] += entry.WorkedMinutes()
	}

	result := make([]MonthOvertime, 0, 12)
	for month := 1; month <= 12; month++ {
		expected := len(datemaps.WorkingDays(year, month)) * target.ShiftMinutes
		result = append(result, MonthOvertime{
			Month:           month,
			OvertimeMinutes: workedByMonth[month] - expected,
		})
	}

	return result, nil
}

func (s *service) HolidayCounts(ctx context.Context, actor *users.User, year, month int, market string) ([]UserHolidayCount, error) {
	if !actor.Level.AtLeast(users.LevelTeamLeader) {
		return nil, apperror.NewForbidden("only team leaders can view team reports")
	}
	if month < 1 || month > 12 {
		return nil, apperror.NewBadRequest("month must be between 1 and 12")
	}

	team, err := s.usersSvc.Visible(ctx, actor)
	if err != nil {
		return nil, err
	}

	var result []UserHolidayCount
	for _, member := range team {
		if market != "" && member.Market != market {
			continue
		}

		monthEntries, err := s.entriesRepo.ListMonth(ctx, member.ID, year, month)
		if err != nil {
			return nil, err
		}

		counts := map[entries.Daytype]int{}
		for _, entry := range monthEntries {
			counts[entry.Daytype]++
		}

		result = append(result, UserHolidayCount{User: member, Counts: counts})
	}

	return result, nil
}

func (s *service) UserHolidays(ctx context.Context, actor *users.User, userID string, year int) ([]entries.Entry, error) {
	if _, err := s.visibleUser(ctx, actor, userID); err != nil {
		return nil, err
	}

	from := fmt.Sprintf("%04d-01-01", year)
	to := fmt.Sprintf("%04d-12-31", year)
	yearEntries, err := s.entriesRepo.ListRange(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}

	var result []entries.Entry
	for _, entry := range yearEntries {
		if !entry.Daytype.CountsAsWorked() {
			result = append(result, entry)
		}
	}

	return result, nil
}

func (s *service) AllHolidays(ctx context.Context, actor *users.User, year int) ([]UserHolidayCount, error) {
	if !actor.Level.AtLeast(users.LevelTeamLeader) {
		return nil, apperror.NewForbidden("only team leaders can view team reports")
	}

	team, err := s.usersSvc.Visible(ctx, actor)
	if err != nil {
		return nil, err
	}

	from := fmt.Sprintf("%04d-01-01", year)
	to := fmt.Sprintf("%04d-12-31", year)

	var result []UserHolidayCount
	for _, member := range team {
		yearEntries, err := s.entriesRepo.ListRange(ctx, member.ID, from, to)
		if err != nil {
			return nil, err
		}

		counts := map[entries.Daytype]int{}
		for _, entry := range yearEntries {
			if !entry.Daytype.CountsAsWorked() {
				counts[entry.Daytype]++
			}
		}

		result = append(result, UserHolidayCount{User: member, Counts: counts})
	}

	return result, nil
}

func (s *service) Buckets(ctx context.Context, actor *users.User, userID string, year, month int) (CostBuckets, error) {
	totals, err := s.activitiesSvc.BucketTotals(ctx, actor, userID, year, month)
	if err != nil {
		return CostBuckets{}, err
	}
	return BucketsFromTotals(totals), nil
}

// visibleUser loads a user and checks the actor may look at them.
func (s *service) visibleUser(ctx context.Context, actor *users.User, userID string) (*users.User, error) {
	target, err := s.usersSvc.ByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !actor.CanSee(target) {
		return nil, apperror.NewForbidden("this user is outside your team")
	}
	return target, nil
}
