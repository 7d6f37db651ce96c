package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hemolink/hemolink/internal/domain"
	"github.com/hemolink/hemolink/internal/repository"
)

// donorRepository implements repository.DonorProfileRepository for SQLite.
type donorRepository struct {
	db *DB
}

// NewDonorProfileRepository creates a new SQLite donor profile repository.
func NewDonorProfileRepository(db *DB) repository.DonorProfileRepository {
	return &donorRepository{db: db}
}

const donorColumns = `id, user_id, status, badge, total_donations, liters_donated,
	lives_saved, verification_status, last_donation_date, next_eligible_date, created_at, updated_at`

// Create creates a new donor profile.
func (r *donorRepository) Create(ctx context.Context, profile *domain.DonorProfile) error {
	ts := time.Now().UTC()
	profile.CreatedAt = ts
	profile.UpdatedAt = ts

	query := `
		INSERT INTO donor_profiles (user_id, status, badge, total_donations, liters_donated,
			lives_saved, verification_status, last_donation_date, next_eligible_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		profile.UserID,
		string(profile.Status),
		string(profile.Badge),
		profile.TotalDonations,
		profile.LitersDonated,
		profile.LivesSaved,
		string(profile.VerificationStatus),
		fmtNullTime(profile.LastDonationDate),
		fmtNullTime(profile.NextEligibleDate),
		fmtTime(profile.CreatedAt),
		fmtTime(profile.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: user already has a donor profile", domain.ErrDonorProfileExists)
		}
		return fmt.Errorf("failed to create donor profile: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}
	profile.ID = id

	return nil
}

func scanDonorProfile(row interface{ Scan(...interface{}) error }) (*domain.DonorProfile, error) {
	profile := &domain.DonorProfile{}
	var status, badge, verification string
	var lastDonation, nextEligible sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(
		&profile.ID,
		&profile.UserID,
		&status,
		&badge,
		&profile.TotalDonations,
		&profile.LitersDonated,
		&profile.LivesSaved,
		&verification,
		&lastDonation,
		&nextEligible,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	profile.Status = domain.DonorStatus(status)
	profile.Badge = domain.DonorBadge(badge)
	profile.VerificationStatus = domain.VerificationStatus(verification)
	profile.LastDonationDate = parseNullTime(lastDonation)
	profile.NextEligibleDate = parseNullTime(nextEligible)
	profile.CreatedAt = parseTime(createdAt)
	profile.UpdatedAt = parseTime(updatedAt)

	return profile, nil
}

func (r *donorRepository) getBy(ctx context.Context, where string, arg interface{}) (*domain.DonorProfile, error) {
	query := `SELECT ` + donorColumns + ` FROM donor_profiles WHERE ` + where
	profile, err := scanDonorProfile(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if isNoRows(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get donor profile: %w", err)
	}
	return profile, nil
}

// GetByID retrieves a profile by ID.
func (r *donorRepository) GetByID(ctx context.Context, id int64) (*domain.DonorProfile, error) {
	return r.getBy(ctx, `id = ?`, id)
}

// GetByUserID retrieves the profile extending the given user.
func (r *donorRepository) GetByUserID(ctx context.Context, userID int64) (*domain.DonorProfile, error) {
	return r.getBy(ctx, `user_id = ?`, userID)
}

// Update merges the given record over the stored one.
func (r *donorRepository) Update(ctx context.Context, profile *domain.DonorProfile) error {
	profile.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE donor_profiles
		SET status = ?, badge = ?, total_donations = ?, liters_donated = ?, lives_saved = ?,
			verification_status = ?, last_donation_date = ?, next_eligible_date = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		string(profile.Status),
		string(profile.Badge),
		profile.TotalDonations,
		profile.LitersDonated,
		profile.LivesSaved,
		string(profile.VerificationStatus),
		fmtNullTime(profile.LastDonationDate),
		fmtNullTime(profile.NextEligibleDate),
		fmtTime(profile.UpdatedAt),
		profile.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update donor profile: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// Delete deletes a profile by ID.
func (r *donorRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM donor_profiles WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete donor profile: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// List returns profiles matching the options.
func (r *donorRepository) List(ctx context.Context, opts repository.DonorListOptions) (*repository.ListResult[domain.DonorProfile], error) {
	where := ` WHERE 1=1`
	var args []interface{}

	if opts.Status != "" {
		where += ` AND status = ?`
		args = append(args, string(opts.Status))
	}
	if opts.VerificationStatus != "" {
		where += ` AND verification_status = ?`
		args = append(args, string(opts.VerificationStatus))
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM donor_profiles`+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count donor profiles: %w", err)
	}

	query := `SELECT ` + donorColumns + ` FROM donor_profiles` + where + ` ORDER BY id`
	if opts.Page > 0 && opts.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, opts.Limit, (opts.Page-1)*opts.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list donor profiles: %w", err)
	}
	defer rows.Close()

	profiles := []*domain.DonorProfile{}
	for rows.Next() {
		profile, err := scanDonorProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan donor profile: %w", err)
		}
		profiles = append(profiles, profile)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating donor profiles: %w", err)
	}

	return &repository.ListResult[domain.DonorProfile]{
		Items: profiles,
		Total: total,
		Page:  opts.Page,
		Limit: opts.Limit,
	}, nil
}

// Ensure donorRepository implements repository.DonorProfileRepository.
var _ repository.DonorProfileRepository = (*donorRepository)(nil)
