package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hemolink/hemolink/internal/domain"
	"github.com/hemolink/hemolink/internal/repository"
)

// deletionRepository implements repository.DeletionRequestRepository for SQLite.
type deletionRepository struct {
	db *DB
}

// NewDeletionRequestRepository creates a new SQLite deletion request repository.
func NewDeletionRequestRepository(db *DB) repository.DeletionRequestRepository {
	return &deletionRepository{db: db}
}

const deletionColumns = `id, requester_id, target_user_id, reason, status, reviewed_by, created_at, updated_at`

// Create creates a new deletion request.
func (r *deletionRepository) Create(ctx context.Context, req *domain.DeletionRequest) error {
	ts := time.Now().UTC()
	req.CreatedAt = ts
	req.UpdatedAt = ts

	query := `
		INSERT INTO deletion_requests (requester_id, target_user_id, reason, status, reviewed_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		req.RequesterID,
		req.TargetUserID,
		req.Reason,
		string(req.Status),
		nullInt64(req.ReviewedBy),
		fmtTime(req.CreatedAt),
		fmtTime(req.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create deletion request: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}
	req.ID = id

	return nil
}

func scanDeletion(row interface{ Scan(...interface{}) error }) (*domain.DeletionRequest, error) {
	req := &domain.DeletionRequest{}
	var status string
	var reviewedBy sql.NullInt64
	var createdAt, updatedAt string

	err := row.Scan(
		&req.ID,
		&req.RequesterID,
		&req.TargetUserID,
		&req.Reason,
		&status,
		&reviewedBy,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	req.Status = domain.DeletionRequestStatus(status)
	req.ReviewedBy = parseNullInt64(reviewedBy)
	req.CreatedAt = parseTime(createdAt)
	req.UpdatedAt = parseTime(updatedAt)

	return req, nil
}

// GetByID retrieves a deletion request by ID.
func (r *deletionRepository) GetByID(ctx context.Context, id int64) (*domain.DeletionRequest, error) {
	query := `SELECT ` + deletionColumns + ` FROM deletion_requests WHERE id = ?`
	req, err := scanDeletion(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get deletion request: %w", err)
	}
	return req, nil
}

// Update merges the given record over the stored one.
func (r *deletionRepository) Update(ctx context.Context, req *domain.DeletionRequest) error {
	req.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE deletion_requests
		SET reason = ?, status = ?, reviewed_by = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		req.Reason,
		string(req.Status),
		nullInt64(req.ReviewedBy),
		fmtTime(req.UpdatedAt),
		req.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update deletion request: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// List returns deletion requests matching the options. Joined user
// summaries are redacted: the password hash is never selected.
func (r *deletionRepository) List(ctx context.Context, opts repository.DeletionListOptions) (*repository.ListResult[domain.DeletionRequestDetail], error) {
	where := ` WHERE 1=1`
	var args []interface{}

	if opts.Status != "" {
		where += ` AND status = ?`
		args = append(args, string(opts.Status))
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM deletion_requests`+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count deletion requests: %w", err)
	}

	query := `SELECT ` + deletionColumns + ` FROM deletion_requests` + where + ` ORDER BY id`
	if opts.Page > 0 && opts.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, opts.Limit, (opts.Page-1)*opts.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list deletion requests: %w", err)
	}
	defer rows.Close()

	details := []*domain.DeletionRequestDetail{}
	for rows.Next() {
		req, err := scanDeletion(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan deletion request: %w", err)
		}
		details = append(details, &domain.DeletionRequestDetail{DeletionRequest: *req})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating deletion requests: %w", err)
	}

	// Join requester and target summaries. Users deleted since the
	// request was filed simply leave the summary nil.
	for _, d := range details {
		if opts.IncludeRequester {
			d.Requester = r.userSummary(ctx, d.RequesterID)
		}
		if opts.IncludeTarget {
			d.Target = r.userSummary(ctx, d.TargetUserID)
		}
	}

	return &repository.ListResult[domain.DeletionRequestDetail]{
		Items: details,
		Total: total,
		Page:  opts.Page,
		Limit: opts.Limit,
	}, nil
}

// userSummary fetches the redacted view of a user, or nil if absent.
func (r *deletionRepository) userSummary(ctx context.Context, userID int64) *domain.UserSummary {
	summary := &domain.UserSummary{}
	var role, bloodType string

	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, email, role, blood_type FROM users WHERE id = ?`, userID,
	).Scan(&summary.ID, &summary.Username, &summary.Email, &role, &bloodType)
	if err != nil {
		return nil
	}

	summary.Role = domain.Role(role)
	summary.BloodType = domain.BloodType(bloodType)
	return summary
}

// Ensure deletionRepository implements repository.DeletionRequestRepository.
var _ repository.DeletionRequestRepository = (*deletionRepository)(nil)
