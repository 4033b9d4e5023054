package approvals

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/veliry/timeclerk/internal/apperror"
	"github.com/veliry/timeclerk/internal/plugins/entries"
)

// Repository defines the data access contract for approvals.
type Repository interface {
	Create(ctx context.Context, approval *PendingApproval) (int64, error)
	FindByID(ctx context.Context, id int64) (*PendingApproval, error)
	FindOpenByEntry(ctx context.Context, entryID int64) (*PendingApproval, error)
	ListOpen(ctx context.Context, userIDs []string) ([]PendingApproval, error)
	Close(ctx context.Context, id int64, status, approverID string) error
}

const approvalColumns = `id, entry_id, user_id, daytype, closed, status,
	       approver_id, created_at, closed_at`

// repository implements Repository with hand-written MariaDB queries.
type repository struct {
	db *sql.DB
}

// NewRepository creates a new approval repository backed by the given DB pool.
func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func scanApproval(row interface{ Scan(...any) error }) (*PendingApproval, error) {
	approval := &PendingApproval{}
	var daytype string
	err := row.Scan(
		&approval.ID,
		&approval.EntryID,
		&approval.UserID,
		&daytype,
		&approval.Closed,
		&approval.Status,
		&approval.ApproverID,
		&approval.CreatedAt,
		&approval.ClosedAt,
	)
	if err != nil {
		return nil, err
	}
	approval.Daytype, err = entries.ParseDaytype(daytype)
	if err != nil {
		return nil, fmt.Errorf("scanning approval daytype: %w", err)
	}
	return approval, nil
}

// Create inserts an open approval and returns its generated id.
func (r *repository) Create(ctx context.Context, approval *PendingApproval) (int64, error) {
	query := `INSERT INTO pending_approvals (entry_id, user_id, daytype, closed, status,
	                                         approver_id, created_at)
	          VALUES (?, ?, ?, FALSE, ?, '', NOW())`

	result, err := r.db.ExecContext(ctx, query,
		approval.EntryID,
		approval.UserID,
		string(approval.Daytype),
		StatusPending,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting approval: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading approval id: %w", err)
	}

	return id, nil
}

// FindByID retrieves an approval by id.
func (r *repository) FindByID(ctx context.Context, id int64) (*PendingApproval, error) {
	query := `SELECT ` + approvalColumns + `
	          FROM pending_approvals WHERE id = ?`

	approval, err := scanApproval(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("approval not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying approval by id: %w", err)
	}

	return approval, nil
}

// FindOpenByEntry retrieves the open approval for an entry, if any.
// This backs the duplicate check when an entry is changed.
func (r *repository) FindOpenByEntry(ctx context.Context, entryID int64) (*PendingApproval, error) {
	query := `SELECT ` + approvalColumns + `
	          FROM pending_approvals WHERE entry_id = ? AND closed = FALSE`

	approval, err := scanApproval(r.db.QueryRowContext(ctx, query, entryID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("approval not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying open approval by entry: %w", err)
	}

	return approval, nil
}

// ListOpen returns the open approvals filed by any of the given users,
// oldest first.
func (r *repository) ListOpen(ctx context.Context, userIDs []string) ([]PendingApproval, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	placeholders := "?"
	args := []any{userIDs[0]}
	for _, id := range userIDs[1:] {
		placeholders += ", ?"
		args = append(args, id)
	}

	query := `SELECT ` + approvalColumns + `
	          FROM pending_approvals
	          WHERE closed = FALSE AND user_id IN (` + placeholders + `)
	          ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing open approvals: %w", err)
	}
	defer rows.Close()

	var result []PendingApproval
	for rows.Next() {
		approval, err := scanApproval(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning approval row: %w", err)
		}
		result = append(result, *approval)
	}

	return result, rows.Err()
}

// Close marks an approval decided. Closing an already-closed approval
// is a not-found so a second decision cannot overwrite the first.
func (r *repository) Close(ctx context.Context, id int64, status, approverID string) error {
	query := `UPDATE pending_approvals
	          SET closed = TRUE, status = ?, approver_id = ?, closed_at = NOW()
	          WHERE id = ? AND closed = FALSE`

	result, err := r.db.ExecContext(ctx, query, status, approverID, id)
	if err != nil {
		return fmt.Errorf("closing approval: %w", err)
	}

	n, _ := result.RowsAffected()
	if n == 0 {
		return apperror.NewNotFound("approval not found")
	}

	return nil
}
