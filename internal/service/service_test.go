package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/hemolink/hemolink/internal/domain"
	"github.com/hemolink/hemolink/internal/lock"
	"github.com/hemolink/hemolink/internal/realtime"
	"github.com/hemolink/hemolink/internal/repository"
	"github.com/hemolink/hemolink/internal/repository/memory"
)

// Service tests run against the in-memory repositories; the memory
// package is the reference implementation of the repository contract.

type fixture struct {
	repos  *repository.Repositories
	store  *realtime.MemoryStore
	locker lock.Locker
	logger zerolog.Logger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := realtime.NewMemoryStore()
	t.Cleanup(store.Close)
	return &fixture{
		repos:  memory.NewRepositories(memory.NewStore()),
		store:  store,
		locker: lock.NewMemoryLocker(),
		logger: zerolog.Nop(),
	}
}

func (f *fixture) userService() *UserService {
	return NewUserService(f.repos.User, f.logger)
}

func (f *fixture) donorService() *DonorService {
	return NewDonorService(f.repos.DonorProfile, f.repos.User, f.store, nil, f.logger)
}

func (f *fixture) requestService() *RequestService {
	return NewRequestService(f.repos.Request, f.repos.DonorProfile, f.store, nil, f.logger)
}

func (f *fixture) donationService(cfg DonationConfig) *DonationService {
	return NewDonationService(f.repos.Donation, f.repos.DonorProfile, f.locker, f.store, nil, f.logger, cfg)
}

func (f *fixture) deletionService() *DeletionService {
	return NewDeletionService(f.repos.DeletionRequest, f.repos.User, f.locker, nil, f.logger)
}

func (f *fixture) notificationService() *NotificationService {
	return NewNotificationService(f.repos.Notification, f.store, nil, f.logger)
}

func (f *fixture) bankService() *BloodBankService {
	return NewBloodBankService(f.repos.BloodBank, f.logger)
}

// createUser seeds a user through the repository directly.
func (f *fixture) createUser(t *testing.T, username string, role domain.Role) *domain.User {
	t.Helper()
	user := domain.NewUser(username, username+"@example.com", "")
	user.Role = role
	user.NormalizeAdminFlag()
	if err := f.repos.User.Create(context.Background(), user); err != nil {
		t.Fatalf("seeding user %s: %v", username, err)
	}
	return user
}

// createDonor seeds a user with a donor profile.
func (f *fixture) createDonor(t *testing.T, username string) (*domain.User, *domain.DonorProfile) {
	t.Helper()
	user := f.createUser(t, username, domain.RoleDonor)
	profile := domain.NewDonorProfile(user.ID)
	profile.Status = domain.DonorStatusAvailable
	if err := f.repos.DonorProfile.Create(context.Background(), profile); err != nil {
		t.Fatalf("seeding donor profile for %s: %v", username, err)
	}
	return user, profile
}

// createRequest seeds a valid pending emergency request.
func (f *fixture) createRequest(t *testing.T, expiresAt time.Time) *domain.EmergencyRequest {
	t.Helper()
	req := domain.NewEmergencyRequest(domain.BloodOPositive, domain.UrgencyCritical, expiresAt)
	req.ContactName = "Contact"
	req.ContactPhone = "0123456789"
	req.HospitalName = "City General"
	if err := f.repos.Request.Create(context.Background(), req); err != nil {
		t.Fatalf("seeding request: %v", err)
	}
	return req
}
