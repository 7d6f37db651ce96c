package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hemolink/hemolink/internal/domain"
	"github.com/hemolink/hemolink/internal/repository"
)

// requestRepository implements repository.EmergencyRequestRepository for SQLite.
type requestRepository struct {
	db *DB
}

// NewEmergencyRequestRepository creates a new SQLite request repository.
func NewEmergencyRequestRepository(db *DB) repository.EmergencyRequestRepository {
	return &requestRepository{db: db}
}

const requestColumns = `id, requester_id, contact_name, contact_phone, contact_email,
	blood_type, urgency_level, hospital_name, latitude, longitude, address,
	status, matched_donor_ids, expires_at, created_at, updated_at`

// Create creates a new emergency request.
func (r *requestRepository) Create(ctx context.Context, req *domain.EmergencyRequest) error {
	ts := time.Now().UTC()
	req.CreatedAt = ts
	req.UpdatedAt = ts

	query := `
		INSERT INTO emergency_requests (requester_id, contact_name, contact_phone, contact_email,
			blood_type, urgency_level, hospital_name, latitude, longitude, address,
			status, matched_donor_ids, expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		nullInt64(req.RequesterID),
		req.ContactName,
		req.ContactPhone,
		req.ContactEmail,
		string(req.BloodType),
		string(req.UrgencyLevel),
		req.HospitalName,
		req.Location.Latitude,
		req.Location.Longitude,
		req.Location.Address,
		string(req.Status),
		encodeDonorIDs(req.MatchedDonorIDs),
		fmtTime(req.ExpiresAt),
		fmtTime(req.CreatedAt),
		fmtTime(req.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}
	req.ID = id

	return nil
}

func scanRequest(row interface{ Scan(...interface{}) error }) (*domain.EmergencyRequest, error) {
	req := &domain.EmergencyRequest{}
	var requesterID sql.NullInt64
	var bloodType, urgency, status, matchedIDs string
	var expiresAt, createdAt, updatedAt string

	err := row.Scan(
		&req.ID,
		&requesterID,
		&req.ContactName,
		&req.ContactPhone,
		&req.ContactEmail,
		&bloodType,
		&urgency,
		&req.HospitalName,
		&req.Location.Latitude,
		&req.Location.Longitude,
		&req.Location.Address,
		&status,
		&matchedIDs,
		&expiresAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	req.RequesterID = parseNullInt64(requesterID)
	req.BloodType = domain.BloodType(bloodType)
	req.UrgencyLevel = domain.UrgencyLevel(urgency)
	req.Status = domain.RequestStatus(status)
	req.MatchedDonorIDs = decodeDonorIDs(matchedIDs)
	req.ExpiresAt = parseTime(expiresAt)
	req.CreatedAt = parseTime(createdAt)
	req.UpdatedAt = parseTime(updatedAt)

	return req, nil
}

// GetByID retrieves a request by ID.
func (r *requestRepository) GetByID(ctx context.Context, id int64) (*domain.EmergencyRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM emergency_requests WHERE id = ?`
	req, err := scanRequest(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get request: %w", err)
	}
	return req, nil
}

// Update merges the given record over the stored one.
func (r *requestRepository) Update(ctx context.Context, req *domain.EmergencyRequest) error {
	req.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE emergency_requests
		SET contact_name = ?, contact_phone = ?, contact_email = ?, blood_type = ?,
			urgency_level = ?, hospital_name = ?, latitude = ?, longitude = ?, address = ?,
			status = ?, matched_donor_ids = ?, expires_at = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		req.ContactName,
		req.ContactPhone,
		req.ContactEmail,
		string(req.BloodType),
		string(req.UrgencyLevel),
		req.HospitalName,
		req.Location.Latitude,
		req.Location.Longitude,
		req.Location.Address,
		string(req.Status),
		encodeDonorIDs(req.MatchedDonorIDs),
		fmtTime(req.ExpiresAt),
		fmtTime(req.UpdatedAt),
		req.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update request: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// Delete deletes a request by ID.
func (r *requestRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM emergency_requests WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete request: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// List returns requests matching the options.
func (r *requestRepository) List(ctx context.Context, opts repository.RequestListOptions) (*repository.ListResult[domain.EmergencyRequest], error) {
	where := ` WHERE 1=1`
	var args []interface{}

	if opts.Status != "" {
		where += ` AND status = ?`
		args = append(args, string(opts.Status))
	}
	if opts.BloodType != "" {
		where += ` AND blood_type = ?`
		args = append(args, string(opts.BloodType))
	}
	if opts.UrgencyLevel != "" {
		where += ` AND urgency_level = ?`
		args = append(args, string(opts.UrgencyLevel))
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM emergency_requests`+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count requests: %w", err)
	}

	query := `SELECT ` + requestColumns + ` FROM emergency_requests` + where + ` ORDER BY id`
	if opts.Page > 0 && opts.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, opts.Limit, (opts.Page-1)*opts.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	defer rows.Close()

	requests := []*domain.EmergencyRequest{}
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating requests: %w", err)
	}

	return &repository.ListResult[domain.EmergencyRequest]{
		Items: requests,
		Total: total,
		Page:  opts.Page,
		Limit: opts.Limit,
	}, nil
}

// ListExpired returns non-terminal requests whose deadline is before the
// given time, up to limit records.
func (r *requestRepository) ListExpired(ctx context.Context, before time.Time, limit int) ([]*domain.EmergencyRequest, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM emergency_requests
		WHERE expires_at < ? AND status IN (?, ?)
		ORDER BY expires_at
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query,
		fmtTime(before),
		string(domain.RequestStatusPending),
		string(domain.RequestStatusMatching),
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired requests: %w", err)
	}
	defer rows.Close()

	var requests []*domain.EmergencyRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating expired requests: %w", err)
	}

	return requests, nil
}

// Ensure requestRepository implements repository.EmergencyRequestRepository.
var _ repository.EmergencyRequestRepository = (*requestRepository)(nil)
