package users

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/veliry/timeclerk/internal/apperror"
	"github.com/veliry/timeclerk/internal/notify"
)

// Service defines the business logic contract for account management.
// Handlers call these methods -- they never touch the repository directly.
type Service interface {
	// Edit creates or updates an account from the useredit form. New
	// accounts get a generated password mailed to their address.
	Edit(ctx context.Context, actor *User, input EditInput) (*User, error)

	// Delete removes an account and its tracking entries.
	Delete(ctx context.Context, actor *User, id string) error

	// Get returns the account data the useredit form edits.
	Get(ctx context.Context, actor *User, id string) (*User, error)

	// UpdateProfile lets a user change their own name and password.
	UpdateProfile(ctx context.Context, userID string, input ProfileInput) error

	// Authenticate checks credentials and returns the matching user.
	// Disabled accounts cannot log in.
	Authenticate(ctx context.Context, email, password string) (*User, error)

	// ByID resolves a user id. No permission check: this backs session
	// actor resolution, not the admin views.
	ByID(ctx context.Context, id string) (*User, error)

	// Visible returns the users the actor may see: their market for team
	// leaders and admins, everyone for supers.
	Visible(ctx context.Context, actor *User) ([]User, error)

	// Managers returns the notification recipients for a market.
	Managers(ctx context.Context, market string) ([]User, error)
}

// service implements Service.
type service struct {
	repo   Repository
	mailer notify.Mailer
}

// NewService creates a new users service with the given dependencies.
func NewService(repo Repository, mailer notify.Mailer) Service {
	return &service{repo: repo, mailer: mailer}
}

// Edit creates or updates an account. Creation is admin-only; updates also
// require the actor to outrank the target.
func (s *service) Edit(ctx context.Context, actor *User, input EditInput) (*User, error) {
	if !actor.Level.AtLeast(LevelAdmin) {
		return nil, apperror.NewForbidden("only administrators can manage accounts")
	}
	if err := validateEditInput(&input); err != nil {
		return nil, err
	}

	if input.ID == "" {
		return s.create(ctx, actor, input)
	}
	return s.update(ctx, actor, input)
}

// create provisions a new account and mails the generated password.
func (s *service) create(ctx context.Context, actor *User, input EditInput) (*User, error) {
	if input.Level >= actor.Level {
		return nil, apperror.NewForbidden("you cannot create an account at or above your own level")
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))

	exists, err := s.repo.EmailExists(ctx, email)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("checking email: %w", err))
	}
	if exists {
		return nil, apperror.NewConflict("an account with this email already exists")
	}

	password := input.Password
	if password == "" {
		password, err = GeneratePassword(12)
		if err != nil {
			return nil, apperror.NewInternal(fmt.Errorf("generating password: %w", err))
		}
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("hashing password: %w", err))
	}

	user := &User{
		ID:             generateUUID(),
		Email:          email,
		Firstname:      strings.TrimSpace(input.Firstname),
		Lastname:       strings.TrimSpace(input.Lastname),
		PasswordHash:   hash,
		Level:          input.Level,
		Market:         input.Market,
		Process:        input.Process,
		StartDate:      input.StartDate,
		BreakMinutes:   input.BreakMinutes,
		ShiftMinutes:   input.ShiftMinutes,
		JobCode:        input.JobCode,
		HolidayBalance: input.HolidayBalance,
		CreatedAt:      time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("creating user: %w", err))
	}

	// Mail the initial credentials. The account exists either way; a mail
	// failure just means the admin hands the password over directly.
	body := fmt.Sprintf(
		"Hello %s,\n\nAn account has been created for you on the timetracker.\n\n"+
			"Username: %s\nPassword: %s\n\nPlease change your password after your first login.\n",
		user.FullName(), user.Email, password,
	)
	if err := s.mailer.Send(ctx, []string{user.Email}, "Your timetracker account.", body); err != nil {
		slog.Warn("failed to send account mail",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
	}

	slog.Info("user created",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
		slog.String("level", user.Level.String()),
		slog.String("actor_id", actor.ID),
	)

	return user, nil
}

// update rewrites an existing account from the useredit form.
func (s *service) update(ctx context.Context, actor *User, input EditInput) (*User, error) {
	current, err := s.repo.FindByID(ctx, input.ID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, err
		}
		return nil, apperror.NewInternal(fmt.Errorf("finding user: %w", err))
	}

	if !actor.CanSee(current) {
		return nil, apperror.NewForbidden("you cannot manage this account")
	}
	if current.Level == LevelSuper && input.Level != LevelSuper {
		return nil, apperror.NewForbidden("super accounts keep their level")
	}
	if input.Level != current.Level && input.Level >= actor.Level {
		return nil, apperror.NewForbidden("you cannot raise an account to or above your own level")
	}
	if current.ID == actor.ID && input.Disabled {
		return nil, apperror.NewBadRequest("you cannot disable your own account")
	}

	current.Email = strings.ToLower(strings.TrimSpace(input.Email))
	current.Firstname = strings.TrimSpace(input.Firstname)
	current.Lastname = strings.TrimSpace(input.Lastname)
	current.Level = input.Level
	current.Market = input.Market
	current.Process = input.Process
	current.StartDate = input.StartDate
	current.BreakMinutes = input.BreakMinutes
	current.ShiftMinutes = input.ShiftMinutes
	current.JobCode = input.JobCode
	current.HolidayBalance = input.HolidayBalance
	current.Disabled = input.Disabled

	if input.Password != "" {
		hash, err := HashPassword(input.Password)
		if err != nil {
			return nil, apperror.NewInternal(fmt.Errorf("hashing password: %w", err))
		}
		current.PasswordHash = hash
	}

	if err := s.repo.Update(ctx, current); err != nil {
		if apperror.IsNotFound(err) {
			return nil, err
		}
		return nil, apperror.NewInternal(fmt.Errorf("updating user: %w", err))
	}

	slog.Info("user updated",
		slog.String("user_id", current.ID),
		slog.String("actor_id", actor.ID),
	)

	return current, nil
}

// Delete removes an account. Admin-only; an admin cannot delete themselves.
func (s *service) Delete(ctx context.Context, actor *User, id string) error {
	if !actor.Level.AtLeast(LevelAdmin) {
		return apperror.NewForbidden("only administrators can delete accounts")
	}
	if actor.ID == id {
		return apperror.NewBadRequest("you cannot delete your own account")
	}

	target, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if apperror.IsNotFound(err) {
			return err
		}
		return apperror.NewInternal(fmt.Errorf("finding user: %w", err))
	}
	if !actor.CanSee(target) {
		return apperror.NewForbidden("you cannot manage this account")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if apperror.IsNotFound(err) {
			return err
		}
		return apperror.NewInternal(fmt.Errorf("deleting user: %w", err))
	}

	slog.Info("user deleted",
		slog.String("user_id", id),
		slog.String("actor_id", actor.ID),
	)

	return nil
}

// Get returns the account data for the useredit form.
func (s *service) Get(ctx context.Context, actor *User, id string) (*User, error) {
	if !actor.Level.AtLeast(LevelAdmin) {
		return nil, apperror.NewForbidden("only administrators can view account data")
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, err
		}
		return nil, apperror.NewInternal(fmt.Errorf("finding user: %w", err))
	}
	if !actor.CanSee(user) {
		return nil, apperror.NewForbidden("you cannot view this account")
	}

	return user, nil
}

// UpdateProfile changes the caller's own name, and password when given.
func (s *service) UpdateProfile(ctx context.Context, userID string, input ProfileInput) error {
	firstname := strings.TrimSpace(input.Firstname)
	lastname := strings.TrimSpace(input.Lastname)
	if firstname == "" || lastname == "" {
		return apperror.NewValidation("first and last name are required")
	}

	if err := s.repo.UpdateProfile(ctx, userID, firstname, lastname); err != nil {
		if apperror.IsNotFound(err) {
			return err
		}
		return apperror.NewInternal(fmt.Errorf("updating profile: %w", err))
	}

	if input.Password != "" {
		if len(input.Password) < 8 {
			return apperror.NewValidation("password must be at least 8 characters")
		}
		hash, err := HashPassword(input.Password)
		if err != nil {
			return apperror.NewInternal(fmt.Errorf("hashing password: %w", err))
		}
		if err := s.repo.UpdatePassword(ctx, userID, hash); err != nil {
			return apperror.NewInternal(fmt.Errorf("updating password: %w", err))
		}
	}

	return nil
}

// Authenticate checks credentials and returns the user on success.
func (s *service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		// Don't reveal whether the email exists -- use generic message.
		if apperror.IsNotFound(err) {
			return nil, apperror.NewUnauthorized("invalid email or password")
		}
		return nil, apperror.NewInternal(fmt.Errorf("finding user: %w", err))
	}

	if !VerifyPassword(password, user.PasswordHash) {
		return nil, apperror.NewUnauthorized("invalid email or password")
	}
	if user.Disabled {
		return nil, apperror.NewUnauthorized("this account has been disabled")
	}

	// Update the user's last login timestamp (fire-and-forget, non-critical).
	if err := s.repo.UpdateLastLogin(ctx, user.ID); err != nil {
		slog.Warn("failed to update last login",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
	}

	return user, nil
}

// ByID resolves a user id without permission checks.
func (s *service) ByID(ctx context.Context, id string) (*User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, err
		}
		return nil, apperror.NewInternal(fmt.Errorf("finding user: %w", err))
	}
	return user, nil
}

// Visible returns the users the actor may see.
func (s *service) Visible(ctx context.Context, actor *User) ([]User, error) {
	var (
		list []User
		err  error
	)
	switch {
	case actor.Level >= LevelSuper:
		list, err = s.repo.ListAll(ctx)
	case actor.Level >= LevelTeamLeader:
		list, err = s.repo.ListByMarket(ctx, actor.Market)
	default:
		user, ferr := s.repo.FindByID(ctx, actor.ID)
		if ferr != nil {
			return nil, apperror.NewInternal(fmt.Errorf("finding user: %w", ferr))
		}
		return []User{*user}, nil
	}
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("listing users: %w", err))
	}
	return list, nil
}

// Managers returns the notification recipients for a market.
func (s *service) Managers(ctx context.Context, market string) ([]User, error) {
	list, err := s.repo.ListManagers(ctx, market)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("listing managers: %w", err))
	}
	return list, nil
}

// validateEditInput performs basic field validation on the useredit form.
func validateEditInput(input *EditInput) error {
	if _, err := mail.ParseAddress(strings.TrimSpace(input.Email)); err != nil {
		return apperror.NewValidation("a valid email address is required")
	}
	if strings.TrimSpace(input.Firstname) == "" || strings.TrimSpace(input.Lastname) == "" {
		return apperror.NewValidation("first and last name are required")
	}
	if input.ShiftMinutes <= 0 {
		return apperror.NewValidation("shift length must be positive")
	}
	if input.BreakMinutes < 0 {
		return apperror.NewValidation("break length cannot be negative")
	}
	if input.HolidayBalance < 0 {
		return apperror.NewValidation("holiday balance cannot be negative")
	}
	return nil
}
