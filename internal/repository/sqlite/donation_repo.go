package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hemolink/hemolink/internal/domain"
	"github.com/hemolink/hemolink/internal/repository"
)

// donationRepository implements repository.DonationRepository for SQLite.
// Donation records are immutable; there is no update or delete.
type donationRepository struct {
	db *DB
}

// NewDonationRepository creates a new SQLite donation repository.
func NewDonationRepository(db *DB) repository.DonationRepository {
	return &donationRepository{db: db}
}

const donationColumns = `id, donor_id, request_id, blood_type, volume_ml, donation_date, location, created_at`

// Create creates a new donation record.
func (r *donationRepository) Create(ctx context.Context, rec *domain.DonationRecord) error {
	rec.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO donation_records (donor_id, request_id, blood_type, volume_ml, donation_date, location, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		rec.DonorID,
		nullInt64(rec.RequestID),
		string(rec.BloodType),
		rec.VolumeML,
		fmtTime(rec.DonationDate),
		rec.Location,
		fmtTime(rec.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create donation record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}
	rec.ID = id

	return nil
}

func scanDonation(row interface{ Scan(...interface{}) error }) (*domain.DonationRecord, error) {
	rec := &domain.DonationRecord{}
	var requestID sql.NullInt64
	var bloodType, donationDate, createdAt string

	err := row.Scan(
		&rec.ID,
		&rec.DonorID,
		&requestID,
		&bloodType,
		&rec.VolumeML,
		&donationDate,
		&rec.Location,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	rec.RequestID = parseNullInt64(requestID)
	rec.BloodType = domain.BloodType(bloodType)
	rec.DonationDate = parseTime(donationDate)
	rec.CreatedAt = parseTime(createdAt)

	return rec, nil
}

// GetByID retrieves a record by ID.
func (r *donationRepository) GetByID(ctx context.Context, id int64) (*domain.DonationRecord, error) {
	query := `SELECT ` + donationColumns + ` FROM donation_records WHERE id = ?`
	rec, err := scanDonation(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get donation record: %w", err)
	}
	return rec, nil
}

// ListByDonorID returns all records for a donor, newest first.
func (r *donationRepository) ListByDonorID(ctx context.Context, donorID int64) ([]*domain.DonationRecord, error) {
	query := `
		SELECT ` + donationColumns + `
		FROM donation_records
		WHERE donor_id = ?
		ORDER BY donation_date DESC, id DESC
	`

	rows, err := r.db.QueryContext(ctx, query, donorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list donation records: %w", err)
	}
	defer rows.Close()

	var records []*domain.DonationRecord
	for rows.Next() {
		rec, err := scanDonation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan donation record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating donation records: %w", err)
	}

	return records, nil
}

// CountByDonorID returns the number of records for a donor.
func (r *donationRepository) CountByDonorID(ctx context.Context, donorID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM donation_records WHERE donor_id = ?`, donorID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count donation records: %w", err)
	}
	return count, nil
}

// Ensure donationRepository implements repository.DonationRepository.
var _ repository.DonationRepository = (*donationRepository)(nil)
