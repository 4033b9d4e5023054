package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/veliry/timeclerk/internal/apperror"
)

// Repository defines the data access contract for user operations.
// All SQL lives in the concrete implementation -- no SQL leaks out.
type Repository interface {
	Create(ctx context.Context, user *User) error
	Update(ctx context.Context, user *User) error
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UpdateLastLogin(ctx context.Context, id string) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateProfile(ctx context.Context, id, firstname, lastname string) error
	AdjustHolidayBalance(ctx context.Context, id string, deltaDays float64) error

	// ListByMarket returns the active users of one market; ListAll returns
	// everyone. Both order by surname for the admin and holiday views.
	ListByMarket(ctx context.Context, market string) ([]User, error)
	ListAll(ctx context.Context) ([]User, error)
	ListManagers(ctx context.Context, market string) ([]User, error)
}

// userColumns is the scan list shared by every single-row query.
const userColumns = `id, email, firstname, lastname, password_hash, level,
	       market, process, start_date, break_minutes, shift_minutes,
	       job_code, holiday_balance, disabled, created_at, last_login_at`

// repository implements Repository with hand-written MariaDB queries.
type repository struct {
	db *sql.DB
}

// NewRepository creates a new user repository backed by the given DB pool.
func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

// scanUser scans a full user row, converting the level code to a Level.
func scanUser(row interface{ Scan(...any) error }) (*User, error) {
	user := &User{}
	var level string
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Firstname,
		&user.Lastname,
		&user.PasswordHash,
		&level,
		&user.Market,
		&user.Process,
		&user.StartDate,
		&user.BreakMinutes,
		&user.ShiftMinutes,
		&user.JobCode,
		&user.HolidayBalance,
		&user.Disabled,
		&user.CreatedAt,
		&user.LastLoginAt,
	)
	if err != nil {
		return nil, err
	}
	user.Level, err = ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("scanning user level: %w", err)
	}
	return user, nil
}

// Create inserts a new user row into the users table.
func (r *repository) Create(ctx context.Context, user *User) error {
	query := `INSERT INTO users (id, email, firstname, lastname, password_hash, level,
	                             market, process, start_date, break_minutes, shift_minutes,
	                             job_code, holiday_balance, disabled, created_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.Firstname,
		user.Lastname,
		user.PasswordHash,
		user.Level.String(),
		user.Market,
		user.Process,
		user.StartDate,
		user.BreakMinutes,
		user.ShiftMinutes,
		user.JobCode,
		user.HolidayBalance,
		user.Disabled,
		user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}

	return nil
}

// Update rewrites every editable field of an existing user.
func (r *repository) Update(ctx context.Context, user *User) error {
	query := `UPDATE users
	          SET email = ?, firstname = ?, lastname = ?, password_hash = ?, level = ?,
	              market = ?, process = ?, start_date = ?, break_minutes = ?,
	              shift_minutes = ?, job_code = ?, holiday_balance = ?, disabled = ?
	          WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query,
		user.Email,
		user.Firstname,
		user.Lastname,
		user.PasswordHash,
		user.Level.String(),
		user.Market,
		user.Process,
		user.StartDate,
		user.BreakMinutes,
		user.ShiftMinutes,
		user.JobCode,
		user.HolidayBalance,
		user.Disabled,
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("updating user: %w", err)
	}

	n, _ := result.RowsAffected()
	if n == 0 {
		return apperror.NewNotFound("user not found")
	}

	return nil
}

// Delete removes a user. Tracking entries cascade via the schema FK.
func (r *repository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}

	n, _ := result.RowsAffected()
	if n == 0 {
		return apperror.NewNotFound("user not found")
	}

	return nil
}

// FindByID retrieves a user by their UUID.
// Returns apperror.NotFound if no user exists with this ID.
func (r *repository) FindByID(ctx context.Context, id string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying user by id: %w", err)
	}

	return user, nil
}

// FindByEmail retrieves a user by their email address.
// Returns apperror.NotFound if no user exists with this email.
func (r *repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying user by email: %w", err)
	}

	return user, nil
}

// EmailExists returns true if a user with the given email already exists.
// Used during account creation to check for duplicates before hashing.
func (r *repository) EmailExists(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = ?)`

	var exists bool
	err := r.db.QueryRowContext(ctx, query, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking email existence: %w", err)
	}

	return exists, nil
}

// UpdateLastLogin sets the last_login_at timestamp to now for the given user.
func (r *repository) UpdateLastLogin(ctx context.Context, id string) error {
	query := `UPDATE users SET last_login_at = NOW() WHERE id = ?`

	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("updating last login: %w", err)
	}

	return nil
}

// UpdatePassword sets a new password hash for a user.
func (r *repository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	query := `UPDATE users SET password_hash = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, passwordHash, id)
	if err != nil {
		return fmt.Errorf("updating password: %w", err)
	}

	n, _ := result.RowsAffected()
	if n == 0 {
		return apperror.NewNotFound("user not found")
	}

	return nil
}

// UpdateProfile updates the fields a user may change about themselves.
func (r *repository) UpdateProfile(ctx context.Context, id, firstname, lastname string) error {
	query := `UPDATE users SET firstname = ?, lastname = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, firstname, lastname, id)
	if err != nil {
		return fmt.Errorf("updating profile: %w", err)
	}

	n, _ := result.RowsAffected()
	if n == 0 {
		return apperror.NewNotFound("user not found")
	}

	return nil
}

// AdjustHolidayBalance adds deltaDays (may be negative) to the user's
// holiday allowance. Booking a holiday costs a day; unbooking refunds it.
func (r *repository) AdjustHolidayBalance(ctx context.Context, id string, deltaDays float64) error {
	query := `UPDATE users SET holiday_balance = holiday_balance + ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, deltaDays, id)
	if err != nil {
		return fmt.Errorf("adjusting holiday balance: %w", err)
	}

	n, _ := result.RowsAffected()
	if n == 0 {
		return apperror.NewNotFound("user not found")
	}

	return nil
}

// ListByMarket returns the active users of one market ordered by surname.
func (r *repository) ListByMarket(ctx context.Context, market string) ([]User, error) {
	query := `SELECT ` + userColumns + `
	          FROM users WHERE market = ? AND disabled = false
	          ORDER BY lastname, firstname`

	return r.list(ctx, query, market)
}

// ListAll returns every active user ordered by surname.
func (r *repository) ListAll(ctx context.Context) ([]User, error) {
	query := `SELECT ` + userColumns + `
	          FROM users WHERE disabled = false
	          ORDER BY lastname, firstname`

	return r.list(ctx, query)
}

// ListManagers returns the team leaders and admins of a market. Their
// addresses receive sick-day and approval notification mail.
func (r *repository) ListManagers(ctx context.Context, market string) ([]User, error) {
	query := `SELECT ` + userColumns + `
	          FROM users
	          WHERE market = ? AND disabled = false AND level IN ('TEAML', 'ADMIN', 'SUPER')
	          ORDER BY lastname, firstname`

	return r.list(ctx, query, market)
}

func (r *repository) list(ctx context.Context, query string, args ...any) ([]User, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var result []User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning user row: %w", err)
		}
		result = append(result, *user)
	}

	return result, rows.Err()
}
