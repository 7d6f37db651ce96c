package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hemolink/hemolink/internal/domain"
	"github.com/hemolink/hemolink/internal/repository"
)

// bloodBankRepository implements repository.BloodBankRepository for SQLite.
type bloodBankRepository struct {
	db *DB
}

// NewBloodBankRepository creates a new SQLite blood bank repository.
func NewBloodBankRepository(db *DB) repository.BloodBankRepository {
	return &bloodBankRepository{db: db}
}

const bankColumns = `id, name, address, latitude, longitude, location_address,
	inventory_levels, status, created_by, created_at, updated_at`

// Create creates a new blood bank.
func (r *bloodBankRepository) Create(ctx context.Context, bank *domain.BloodBank) error {
	ts := time.Now().UTC()
	bank.CreatedAt = ts
	bank.UpdatedAt = ts

	query := `
		INSERT INTO blood_banks (name, address, latitude, longitude, location_address,
			inventory_levels, status, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		bank.Name,
		bank.Address,
		bank.Location.Latitude,
		bank.Location.Longitude,
		bank.Location.Address,
		encodeInventory(bank.InventoryLevels),
		string(bank.Status),
		nullInt64(bank.CreatedBy),
		fmtTime(bank.CreatedAt),
		fmtTime(bank.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create blood bank: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}
	bank.ID = id

	return nil
}

func scanBloodBank(row interface{ Scan(...interface{}) error }) (*domain.BloodBank, error) {
	bank := &domain.BloodBank{}
	var inventory, status string
	var createdBy sql.NullInt64
	var createdAt, updatedAt string

	err := row.Scan(
		&bank.ID,
		&bank.Name,
		&bank.Address,
		&bank.Location.Latitude,
		&bank.Location.Longitude,
		&bank.Location.Address,
		&inventory,
		&status,
		&createdBy,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	bank.InventoryLevels = decodeInventory(inventory)
	bank.Status = domain.BloodBankStatus(status)
	bank.CreatedBy = parseNullInt64(createdBy)
	bank.CreatedAt = parseTime(createdAt)
	bank.UpdatedAt = parseTime(updatedAt)

	return bank, nil
}

// GetByID retrieves a bank by ID.
func (r *bloodBankRepository) GetByID(ctx context.Context, id int64) (*domain.BloodBank, error) {
	query := `SELECT ` + bankColumns + ` FROM blood_banks WHERE id = ?`
	bank, err := scanBloodBank(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get blood bank: %w", err)
	}
	return bank, nil
}

// Update merges the given record over the stored one.
func (r *bloodBankRepository) Update(ctx context.Context, bank *domain.BloodBank) error {
	bank.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE blood_banks
		SET name = ?, address = ?, latitude = ?, longitude = ?, location_address = ?,
			inventory_levels = ?, status = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		bank.Name,
		bank.Address,
		bank.Location.Latitude,
		bank.Location.Longitude,
		bank.Location.Address,
		encodeInventory(bank.InventoryLevels),
		string(bank.Status),
		fmtTime(bank.UpdatedAt),
		bank.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update blood bank: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// Delete deletes a bank by ID.
func (r *bloodBankRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM blood_banks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete blood bank: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// List returns all banks, optionally restricted to active ones.
func (r *bloodBankRepository) List(ctx context.Context, activeOnly bool) ([]*domain.BloodBank, error) {
	query := `SELECT ` + bankColumns + ` FROM blood_banks`
	var args []interface{}
	if activeOnly {
		query += ` WHERE status = ?`
		args = append(args, string(domain.BloodBankActive))
	}
	query += ` ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list blood banks: %w", err)
	}
	defer rows.Close()

	var banks []*domain.BloodBank
	for rows.Next() {
		bank, err := scanBloodBank(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan blood bank: %w", err)
		}
		banks = append(banks, bank)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating blood banks: %w", err)
	}

	return banks, nil
}

// Ensure bloodBankRepository implements repository.BloodBankRepository.
var _ repository.BloodBankRepository = (*bloodBankRepository)(nil)
