package activities

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/veliry/timeclerk/internal/apperror"
)

// Repository defines the data access contract for the activity
// catalogue and filed entries.
type Repository interface {
	FindActivity(ctx context.Context, id int64) (*Activity, error)
	ListActivities(ctx context.Context) ([]Activity, error)
	CreateEntry(ctx context.Context, entry *Entry) (int64, error)
	UpdateAmount(ctx context.Context, id int64, amount float64) error
	FindEntry(ctx context.Context, id int64) (*Entry, error)
	ListEntries(ctx context.Context, userID string, year, month int) ([]Entry, error)
	GroupTotals(ctx context.Context, userID string, year, month int) (map[string]float64, error)
}

const activityColumns = `id, activity_group, group_type, group_detail, details,
	       disabled, time_minutes, created_at`

const entryColumns = `id, user_id, DATE_FORMAT(entry_date, '%Y-%m-%d') AS entry_date,
	       activity_id, amount, created_at`

// repository implements Repository with hand-written MariaDB queries.
type repository struct {
	db *sql.DB
}

// NewRepository creates a new activity repository backed by the given DB pool.
func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func scanActivity(row interface{ Scan(...any) error }) (*Activity, error) {
	activity := &Activity{}
	err := row.Scan(
		&activity.ID,
		&activity.Group,
		&activity.GroupType,
		&activity.GroupDetail,
		&activity.Details,
		&activity.Disabled,
		&activity.TimeMinutes,
		&activity.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return activity, nil
}

func scanEntry(row interface{ Scan(...any) error }) (*Entry, error) {
	entry := &Entry{}
	err := row.Scan(
		&entry.ID,
		&entry.UserID,
		&entry.EntryDate,
		&entry.ActivityID,
		&entry.Amount,
		&entry.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// FindActivity retrieves one catalogue activity by id.
// Returns apperror.NotFound if no activity exists with this id.
func (r *repository) FindActivity(ctx context.Context, id int64) (*Activity, error) {
	query := `SELECT ` + activityColumns + `
	          FROM activities WHERE id = ?`

	activity, err := scanActivity(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("activity not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying activity by id: %w", err)
	}

	return activity, nil
}

// ListActivities returns the whole catalogue, enabled activities first.
func (r *repository) ListActivities(ctx context.Context) ([]Activity, error) {
	query := `SELECT ` + activityColumns + `
	          FROM activities
	          ORDER BY disabled, activity_group, details`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing activities: %w", err)
	}
	defer rows.Close()

	var result []Activity
	for rows.Next() {
		activity, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning activity row: %w", err)
		}
		result = append(result, *activity)
	}

	return result, rows.Err()
}

// CreateEntry inserts a filed amount and returns its generated id.
func (r *repository) CreateEntry(ctx context.Context, entry *Entry) (int64, error) {
	query := `INSERT INTO activity_entries (user_id, entry_date, activity_id, amount, created_at)
	          VALUES (?, ?, ?, ?, NOW())`

	result, err := r.db.ExecContext(ctx, query,
		entry.UserID,
		entry.EntryDate,
		entry.ActivityID,
		entry.Amount,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting activity entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading activity entry id: %w", err)
	}

	return id, nil
}

// UpdateAmount replaces the filed amount on an entry.
func (r *repository) UpdateAmount(ctx context.Context, id int64, amount float64) error {
	query := `UPDATE activity_entries SET amount = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, amount, id)
	if err != nil {
		return fmt.Errorf("updating activity amount: %w", err)
	}

	n, _ := result.RowsAffected()
	if n == 0 {
		return apperror.NewNotFound("activity entry not found")
	}

	return nil
}

// FindEntry retrieves a filed entry by id.
func (r *repository) FindEntry(ctx context.Context, id int64) (*Entry, error) {
	query := `SELECT ` + entryColumns + `
	          FROM activity_entries WHERE id = ?`

	entry, err := scanEntry(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("activity entry not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying activity entry by id: %w", err)
	}

	return entry, nil
}

// ListEntries returns a user's filed amounts for one month in date order.
func (r *repository) ListEntries(ctx context.Context, userID string, year, month int) ([]Entry, error) {
	query := `SELECT ` + entryColumns + `
	          FROM activity_entries
	          WHERE user_id = ? AND YEAR(entry_date) = ? AND MONTH(entry_date) = ?
	          ORDER BY entry_date`

	rows, err := r.db.QueryContext(ctx, query, userID, year, month)
	if err != nil {
		return nil, fmt.Errorf("listing activity entries: %w", err)
	}
	defer rows.Close()

	var result []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning activity entry row: %w", err)
		}
		result = append(result, *entry)
	}

	return result, rows.Err()
}

// GroupTotals sums a user's filed minutes for one month, keyed by the
// activity group the amounts were filed against. Each filed amount is
// weighted by the activity's standard minutes.
func (r *repository) GroupTotals(ctx context.Context, userID string, year, month int) (map[string]float64, error) {
	query := `SELECT a.activity_group, SUM(e.amount * a.time_minutes)
	          FROM activity_entries e
	          JOIN activities a ON a.id = e.activity_id
	          WHERE e.user_id = ? AND YEAR(e.entry_date) = ? AND MONTH(e.entry_date) = ?
	          GROUP BY a.activity_group`

	rows, err := r.db.QueryContext(ctx, query, userID, year, month)
	if err != nil {
		return nil, fmt.Errorf("summing activity groups: %w", err)
	}
	defer rows.Close()

	totals := map[string]float64{}
	for rows.Next() {
		var group string
		var total float64
		if err := rows.Scan(&group, &total); err != nil {
			return nil, fmt.Errorf("scanning group total: %w", err)
		}
		totals[group] = total
	}

	return totals, rows.Err()
}
