package sqlite

import (
	"github.com/hemolink/hemolink/internal/repository"
)

// NewRepositories wires every repository over a single database handle.
func NewRepositories(db *DB) *repository.Repositories {
	return &repository.Repositories{
		User:            NewUserRepository(db),
		DonorProfile:    NewDonorProfileRepository(db),
		Request:         NewEmergencyRequestRepository(db),
		Donation:        NewDonationRepository(db),
		Document:        NewDocumentRepository(db),
		DeletionRequest: NewDeletionRequestRepository(db),
		BloodBank:       NewBloodBankRepository(db),
		Notification:    NewNotificationRepository(db),
	}
}
