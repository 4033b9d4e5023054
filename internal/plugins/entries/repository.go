package entries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/veliry/timeclerk/internal/apperror"
)

// Repository defines the data access contract for tracking entries.
// All SQL lives in the concrete implementation -- no SQL leaks out.
type Repository interface {
	Create(ctx context.Context, entry *Entry) (int64, error)
	Update(ctx context.Context, entry *Entry) error
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*Entry, error)
	FindByUserAndDate(ctx context.Context, userID, entryDate string) (*Entry, error)
	ListMonth(ctx context.Context, userID string, year, month int) ([]Entry, error)
	ListRange(ctx context.Context, userID, from, to string) ([]Entry, error)
	UpdateComments(ctx context.Context, id int64, comments string) error
}

// entryColumns is the scan list shared by every entry query. The date
// is formatted in SQL because Entry carries it as a yyyy-mm-dd string.
const entryColumns = `id, user_id, DATE_FORMAT(entry_date, '%Y-%m-%d') AS entry_date,
	       start_time, end_time, breaks, daytype, comments, created_at, updated_at`

// repository implements Repository with hand-written MariaDB queries.
// Dates are stored as DATE and times as CHAR(5); the formatting in and
// out of Go strings happens here.
type repository struct {
	db *sql.DB
}

// NewRepository creates a new entry repository backed by the given DB pool.
func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

// scanEntry scans a full entry row.
func scanEntry(row interface{ Scan(...any) error }) (*Entry, error) {
	entry := &Entry{}
	var daytype string
	err := row.Scan(
		&entry.ID,
		&entry.UserID,
		&entry.EntryDate,
		&entry.StartTime,
		&entry.EndTime,
		&entry.Breaks,
		&daytype,
		&entry.Comments,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	entry.Daytype, err = ParseDaytype(daytype)
	if err != nil {
		return nil, fmt.Errorf("scanning entry daytype: %w", err)
	}
	return entry, nil
}

// Create inserts a new entry row and returns its generated id.
func (r *repository) Create(ctx context.Context, entry *Entry) (int64, error) {
	query := `INSERT INTO entries (user_id, entry_date, start_time, end_time, breaks,
	                               daytype, comments, created_at, updated_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, NOW(), NOW())`

	result, err := r.db.ExecContext(ctx, query,
		entry.UserID,
		entry.EntryDate,
		entry.StartTime,
		entry.EndTime,
		entry.Breaks,
		string(entry.Daytype),
		entry.Comments,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading entry id: %w", err)
	}

	return id, nil
}

// Update rewrites an existing entry's fields.
func (r *repository) Update(ctx context.Context, entry *Entry) error {
	query := `UPDATE entries
	          SET entry_date = ?, start_time = ?, end_time = ?, breaks = ?,
	              daytype = ?, comments = ?, updated_at = NOW()
	          WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query,
		entry.EntryDate,
		entry.StartTime,
		entry.EndTime,
		entry.Breaks,
		string(entry.Daytype),
		entry.Comments,
		entry.ID,
	)
	if err != nil {
		return fmt.Errorf("updating entry: %w", err)
	}

	n, _ := result.RowsAffected()
	if n == 0 {
		return apperror.NewNotFound("entry not found")
	}

	return nil
}

// Delete removes an entry.
func (r *repository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting entry: %w", err)
	}

	n, _ := result.RowsAffected()
	if n == 0 {
		return apperror.NewNotFound("entry not found")
	}

	return nil
}

// FindByID retrieves an entry by id.
// Returns apperror.NotFound if no entry exists with this id.
func (r *repository) FindByID(ctx context.Context, id int64) (*Entry, error) {
	query := `SELECT ` + entryColumns + `
	          FROM entries WHERE id = ?`

	entry, err := scanEntry(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("entry not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying entry by id: %w", err)
	}

	return entry, nil
}

// FindByUserAndDate retrieves the entry a user filed for one day. A user
// has at most one entry per date; this backs the duplicate check.
func (r *repository) FindByUserAndDate(ctx context.Context, userID, entryDate string) (*Entry, error) {
	query := `SELECT ` + entryColumns + `
	          FROM entries WHERE user_id = ? AND entry_date = ?`

	entry, err := scanEntry(r.db.QueryRowContext(ctx, query, userID, entryDate))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("entry not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying entry by user and date: %w", err)
	}

	return entry, nil
}

// ListMonth returns a user's entries for one calendar month in date order.
func (r *repository) ListMonth(ctx context.Context, userID string, year, month int) ([]Entry, error) {
	query := `SELECT ` + entryColumns + `
	          FROM entries
	          WHERE user_id = ? AND YEAR(entry_date) = ? AND MONTH(entry_date) = ?
	          ORDER BY entry_date`

	return r.list(ctx, query, userID, year, month)
}

// ListRange returns a user's entries between two inclusive dates.
func (r *repository) ListRange(ctx context.Context, userID, from, to string) ([]Entry, error) {
	query := `SELECT ` + entryColumns + `
	          FROM entries
	          WHERE user_id = ? AND entry_date BETWEEN ? AND ?
	          ORDER BY entry_date`

	return r.list(ctx, query, userID, from, to)
}

// UpdateComments sets the comment on an entry.
func (r *repository) UpdateComments(ctx context.Context, id int64, comments string) error {
	query := `UPDATE entries SET comments = ?, updated_at = NOW() WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, comments, id)
	if err != nil {
		return fmt.Errorf("updating entry comments: %w", err)
	}

	n, _ := result.RowsAffected()
	if n == 0 {
		return apperror.NewNotFound("entry not found")
	}

	return nil
}

func (r *repository) list(ctx context.Context, query string, args ...any) ([]Entry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}
	defer rows.Close()

	var result []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning entry row: %w", err)
		}
		result = append(result, *entry)
	}

	return result, rows.Err()
}
