package activities

import (
	"context"
	"strconv"
	"time"

	"github.com/veliry/timeclerk/internal/apperror"
	"github.com/veliry/timeclerk/internal/plugins/users"
)

// Service defines the business logic contract for activity tracking.
type Service interface {
	// Add files a new amount for the acting user. ActivityKey, Amount
	// and Date are all required.
	Add(ctx context.Context, actor *users.User, input AddInput) (int64, error)
	// Update replaces the amount on a filed entry.
	Update(ctx context.Context, actor *users.User, id, volume string) error
	// Catalogue returns every activity that can be filed against.
	Catalogue(ctx context.Context) ([]Activity, error)
	// BucketTotals returns a user's summed minutes per cost bucket for
	// one month. Buckets with no filings are absent from the map.
	BucketTotals(ctx context.Context, actor *users.User, userID string, year, month int) (map[string]float64, error)
}

type service struct {
	repo     Repository
	usersSvc users.Service
}

// NewService creates a new activity service.
func NewService(repo Repository, usersSvc users.Service) Service {
	return &service{repo: repo, usersSvc: usersSvc}
}

func (s *service) Add(ctx context.Context, actor *users.User, input AddInput) (int64, error) {
	if input.ActivityKey == "" || input.Amount == "" || input.Date == "" {
		return 0, apperror.NewBadRequest("activity, amount and date are required")
	}

	activityID, err := strconv.ParseInt(input.ActivityKey, 10, 64)
	if err != nil {
		return 0, apperror.NewBadRequest("invalid activity")
	}

	amount, err := strconv.ParseFloat(input.Amount, 64)
	if err != nil || amount < 0 {
		return 0, apperror.NewValidation("invalid amount")
	}

	if _, err := time.Parse("2006-01-02", input.Date); err != nil {
		return 0, apperror.NewValidation("invalid date")
	}

	activity, err := s.repo.FindActivity(ctx, activityID)
	if err != nil {
		return 0, err
	}
	if activity.Disabled {
		return 0, apperror.NewValidation("this activity can no longer be filed")
	}

	return s.repo.CreateEntry(ctx, &Entry{
		UserID:     actor.ID,
		EntryDate:  input.Date,
		ActivityID: activity.ID,
		Amount:     amount,
	})
}

func (s *service) Update(ctx context.Context, actor *users.User, id, volume string) error {
	if id == "" || volume == "" {
		return apperror.NewBadRequest("id and volume are required")
	}

	entryID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return apperror.NewBadRequest("invalid entry id")
	}

	amount, err := strconv.ParseFloat(volume, 64)
	if err != nil || amount < 0 {
		return apperror.NewValidation("invalid amount")
	}

	entry, err := s.repo.FindEntry(ctx, entryID)
	if err != nil {
		return err
	}
	if entry.UserID != actor.ID && !actor.Level.AtLeast(users.LevelAdmin) {
		return apperror.NewForbidden("you cannot change this entry")
	}

	return s.repo.UpdateAmount(ctx, entryID, amount)
}

func (s *service) Catalogue(ctx context.Context) ([]Activity, error) {
	return s.repo.ListActivities(ctx)
}

func (s *service) BucketTotals(ctx context.Context, actor *users.User, userID string, year, month int) (map[string]float64, error) {
	target, err := s.usersSvc.ByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !actor.CanSee(target) {
		return nil, apperror.NewForbidden("you cannot view this user's activity")
	}

	return s.repo.GroupTotals(ctx, userID, year, month)
}
