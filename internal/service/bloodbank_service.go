package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/hemolink/hemolink/internal/domain"
	"github.com/hemolink/hemolink/internal/repository"
)

// BloodBankService handles blood bank registry and inventory.
type BloodBankService struct {
	bankRepo repository.BloodBankRepository
	logger   zerolog.Logger
}

// NewBloodBankService creates a new BloodBankService.
func NewBloodBankService(bankRepo repository.BloodBankRepository, logger zerolog.Logger) *BloodBankService {
	return &BloodBankService{
		bankRepo: bankRepo,
		logger:   logger.With().Str("service", "bloodbank").Logger(),
	}
}

// CreateBankInput contains the data needed to register a blood bank.
type CreateBankInput struct {
	Name      string
	Address   string
	Location  domain.Location
	CreatedBy *int64
}

// Create registers a new blood bank with an empty inventory.
func (s *BloodBankService) Create(ctx context.Context, input CreateBankInput) (*domain.BloodBank, error) {
	bank := domain.NewBloodBank(input.Name)
	bank.Address = input.Address
	bank.Location = input.Location
	bank.CreatedBy = input.CreatedBy

	if err := domain.ValidateBloodBank(bank); err != nil {
		return nil, err
	}

	if err := s.bankRepo.Create(ctx, bank); err != nil {
		s.logger.Error().Err(err).Str("name", input.Name).Msg("failed to create blood bank")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().Int64("bank_id", bank.ID).Str("name", bank.Name).Msg("blood bank registered")
	return bank, nil
}

// GetByID retrieves a blood bank by ID.
func (s *BloodBankService) GetByID(ctx context.Context, id int64) (*domain.BloodBank, error) {
	bank, err := s.bankRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrBloodBankNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return bank, nil
}

// UpdateBankInput contains the updatable bank fields. Nil pointers
// leave the stored value unchanged.
type UpdateBankInput struct {
	BankID   int64
	Name     *string
	Address  *string
	Location *domain.Location
	Status   *domain.BloodBankStatus
}

// Update applies a partial update to a blood bank.
func (s *BloodBankService) Update(ctx context.Context, input UpdateBankInput) (*domain.BloodBank, error) {
	bank, err := s.GetByID(ctx, input.BankID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		bank.Name = *input.Name
	}
	if input.Address != nil {
		bank.Address = *input.Address
	}
	if input.Location != nil {
		bank.Location = *input.Location
	}
	if input.Status != nil {
		bank.Status = *input.Status
	}

	if err := domain.ValidateBloodBank(bank); err != nil {
		return nil, err
	}

	if err := s.bankRepo.Update(ctx, bank); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().Int64("bank_id", bank.ID).Msg("blood bank updated")
	return bank, nil
}

// AdjustInventory changes the units on hand for one blood type by
// delta. Withdrawals never take a level below zero; draining more than
// the bank holds fails with ErrInsufficientInventory.
func (s *BloodBankService) AdjustInventory(ctx context.Context, bankID int64, bloodType domain.BloodType, delta int) (*domain.BloodBank, error) {
	if !bloodType.IsValid() {
		verr := domain.NewValidationError()
		verr.Add("bloodType", "unknown blood type")
		return nil, verr
	}

	bank, err := s.GetByID(ctx, bankID)
	if err != nil {
		return nil, err
	}

	current := bank.UnitsOf(bloodType)
	next := current + delta
	if next < 0 {
		return nil, fmt.Errorf("%w: %s has %d units, requested %d",
			domain.ErrInsufficientInventory, bloodType, current, -delta)
	}

	bank.InventoryLevels[bloodType] = next
	if err := s.bankRepo.Update(ctx, bank); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().
		Int64("bank_id", bankID).
		Str("blood_type", string(bloodType)).
		Int("delta", delta).
		Int("level", next).
		Msg("inventory adjusted")

	return bank, nil
}

// Delete removes a blood bank from the registry.
func (s *BloodBankService) Delete(ctx context.Context, id int64) error {
	if err := s.bankRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrBloodBankNotFound
		}
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().Int64("bank_id", id).Msg("blood bank deleted")
	return nil
}

// List returns all blood banks, optionally only operating ones.
func (s *BloodBankService) List(ctx context.Context, activeOnly bool) ([]*domain.BloodBank, error) {
	banks, err := s.bankRepo.List(ctx, activeOnly)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list blood banks")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return banks, nil
}
