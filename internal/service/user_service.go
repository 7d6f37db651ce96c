// Package service provides business logic services for Hemolink.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/hemolink/hemolink/internal/domain"
	"github.com/hemolink/hemolink/internal/repository"
)

// UserService handles user account management.
type UserService struct {
	userRepo repository.UserRepository
	logger   zerolog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repository.UserRepository, logger zerolog.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		logger:   logger.With().Str("service", "user").Logger(),
	}
}

// CreateUserInput contains the data needed to create a new user.
type CreateUserInput struct {
	Username    string
	Email       string
	Password    string
	BloodType   domain.BloodType
	Role        domain.Role
	FirebaseUID string
	CreatedBy   *int64
}

// CreateUserOutput contains the result of creating a user.
type CreateUserOutput struct {
	User *domain.User
}

// Create creates a new user account.
func (s *UserService) Create(ctx context.Context, input CreateUserInput) (*CreateUserOutput, error) {
	user := domain.NewUser(input.Username, input.Email, "")
	user.BloodType = input.BloodType
	user.FirebaseUID = input.FirebaseUID
	user.CreatedBy = input.CreatedBy
	if input.Role != "" {
		user.Role = input.Role
	}
	user.NormalizeAdminFlag()

	// Validate collects every field violation, not just the first
	if err := domain.ValidateUser(user); err != nil {
		return nil, err
	}
	if input.Password != "" && len(input.Password) < 8 {
		return nil, ErrInvalidPassword
	}

	// Check if username already exists
	exists, err := s.userRepo.ExistsByUsername(ctx, input.Username)
	if err != nil {
		s.logger.Error().Err(err).Str("username", input.Username).Msg("failed to check username existence")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if exists {
		return nil, fmt.Errorf("%w: username '%s'", domain.ErrUserAlreadyExists, input.Username)
	}

	// Check if email already exists
	exists, err = s.userRepo.ExistsByEmail(ctx, input.Email)
	if err != nil {
		s.logger.Error().Err(err).Str("email", input.Email).Msg("failed to check email existence")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if exists {
		return nil, fmt.Errorf("%w: email '%s'", domain.ErrUserAlreadyExists, input.Email)
	}

	// Hash password when one is provided; identity-provider accounts
	// have none
	if input.Password != "" {
		passwordHash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			s.logger.Error().Err(err).Msg("failed to hash password")
			return nil, fmt.Errorf("%w: failed to hash password", ErrInternalError)
		}
		user.PasswordHash = string(passwordHash)
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		s.logger.Error().Err(err).Str("username", input.Username).Msg("failed to create user")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().
		Int64("user_id", user.ID).
		Str("username", user.Username).
		Str("role", string(user.Role)).
		Msg("user created")

	return &CreateUserOutput{User: user}, nil
}

// Authenticate verifies user credentials and returns the user.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		// Log but don't expose whether username exists
		s.logger.Debug().Str("username", username).Msg("user not found during authentication")
		return nil, ErrInvalidCredentials
	}

	if !user.CanAuthenticate() {
		s.logger.Debug().Str("username", username).Msg("suspended user attempted authentication")
		return nil, domain.ErrUserSuspended
	}

	if user.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Debug().Str("username", username).Msg("invalid password during authentication")
		return nil, ErrInvalidCredentials
	}

	s.logger.Info().
		Int64("user_id", user.ID).
		Str("username", user.Username).
		Msg("user authenticated")

	return user, nil
}

// GetByID retrieves a user by ID.
func (s *UserService) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrUserNotFound
		}
		s.logger.Error().Err(err).Int64("user_id", id).Msg("failed to get user")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return user, nil
}

// GetByFirebaseUID retrieves a user by the external identity UID.
func (s *UserService) GetByFirebaseUID(ctx context.Context, uid string) (*domain.User, error) {
	user, err := s.userRepo.GetByFirebaseUID(ctx, uid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrUserNotFound
		}
		s.logger.Error().Err(err).Str("firebase_uid", uid).Msg("failed to get user")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return user, nil
}

// GetByUsername retrieves a user by username.
func (s *UserService) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrUserNotFound
		}
		s.logger.Error().Err(err).Str("username", username).Msg("failed to get user")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return user, nil
}

// UpdateUserInput contains the updatable user fields. Nil pointers
// leave the stored value unchanged.
type UpdateUserInput struct {
	UserID    int64
	Username  *string
	Email     *string
	BloodType *domain.BloodType
}

// Update applies a partial update to a user record.
func (s *UserService) Update(ctx context.Context, input UpdateUserInput) (*domain.User, error) {
	user, err := s.GetByID(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	if input.Username != nil {
		user.Username = *input.Username
	}
	if input.Email != nil {
		user.Email = *input.Email
	}
	if input.BloodType != nil {
		user.BloodType = *input.BloodType
	}

	if err := domain.ValidateUser(user); err != nil {
		return nil, err
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().Int64("user_id", user.ID).Msg("user updated")
	return user, nil
}

// SetRole changes a user's role and keeps the admin flag consistent.
func (s *UserService) SetRole(ctx context.Context, userID int64, role domain.Role) (*domain.User, error) {
	if !role.IsValid() {
		return nil, domain.ErrInvalidRole
	}

	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.Role = role
	user.NormalizeAdminFlag()

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().
		Int64("user_id", user.ID).
		Str("role", string(role)).
		Bool("is_admin", user.IsAdmin).
		Msg("user role updated")

	return user, nil
}

// Suspend suspends a user until the given time.
func (s *UserService) Suspend(ctx context.Context, userID int64, until time.Time, reason string) error {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	user.Status = domain.UserStatusSuspended
	user.SuspendedUntil = &until
	user.SuspensionReason = reason

	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().
		Int64("user_id", userID).
		Time("until", until).
		Str("reason", reason).
		Msg("user suspended")

	return nil
}

// Ban permanently bans a user.
func (s *UserService) Ban(ctx context.Context, userID int64, reason string) error {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	user.Status = domain.UserStatusBanned
	user.SuspendedUntil = nil
	user.SuspensionReason = reason

	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().Int64("user_id", userID).Str("reason", reason).Msg("user banned")
	return nil
}

// Reinstate returns a suspended or banned user to active standing.
func (s *UserService) Reinstate(ctx context.Context, userID int64) error {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	user.Status = domain.UserStatusActive
	user.SuspendedUntil = nil
	user.SuspensionReason = ""

	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().Int64("user_id", userID).Msg("user reinstated")
	return nil
}

// Delete deletes a user account. The repository cascades to the user's
// donor profile and documents; donation records survive.
func (s *UserService) Delete(ctx context.Context, userID int64) error {
	if err := s.userRepo.Delete(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().Int64("user_id", userID).Msg("user deleted")
	return nil
}

// ListUsersInput contains filter and pagination options for listing users.
type ListUsersInput struct {
	Role         domain.Role
	ExcludeRoles []domain.Role
	OnlyRoles    []domain.Role
	Page         int
	Limit        int
}

// ListUsersOutput contains the result of listing users.
type ListUsersOutput struct {
	Users      []*domain.User
	TotalCount int64
	Page       int
	Limit      int
}

// List returns users matching the filters with pagination.
func (s *UserService) List(ctx context.Context, input ListUsersInput) (*ListUsersOutput, error) {
	if input.Limit <= 0 {
		input.Limit = 20
	}
	if input.Limit > 100 {
		input.Limit = 100
	}
	if input.Page <= 0 {
		input.Page = 1
	}

	result, err := s.userRepo.List(ctx, repository.UserListOptions{
		Role:         input.Role,
		ExcludeRoles: input.ExcludeRoles,
		OnlyRoles:    input.OnlyRoles,
		Page:         input.Page,
		Limit:        input.Limit,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list users")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	return &ListUsersOutput{
		Users:      result.Items,
		TotalCount: result.Total,
		Page:       result.Page,
		Limit:      result.Limit,
	}, nil
}

// RepairAdminFlags walks all users and forces the IsAdmin flag to agree
// with the role. Returns the number of records changed. Run from the
// admin CLI when the redundant signals have drifted.
func (s *UserService) RepairAdminFlags(ctx context.Context) (int, error) {
	result, err := s.userRepo.List(ctx, repository.UserListOptions{})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	repaired := 0
	for _, user := range result.Items {
		if user.IsAdmin == user.Role.IsAdminRole() {
			continue
		}

		user.NormalizeAdminFlag()
		if err := s.userRepo.Update(ctx, user); err != nil {
			s.logger.Error().Err(err).Int64("user_id", user.ID).Msg("failed to repair admin flag")
			return repaired, fmt.Errorf("%w: %v", ErrInternalError, err)
		}

		s.logger.Info().
			Int64("user_id", user.ID).
			Str("role", string(user.Role)).
			Bool("is_admin", user.IsAdmin).
			Msg("admin flag repaired")
		repaired++
	}

	return repaired, nil
}
