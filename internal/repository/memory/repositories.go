package memory

import (
	"github.com/hemolink/hemolink/internal/repository"
)

// NewRepositories wires every repository over a single shared Store.
// Sharing the Store is what makes cross-entity operations (user deletion
// cascades, deletion-request joins) consistent.
func NewRepositories(store *Store) *repository.Repositories {
	return &repository.Repositories{
		User:            NewUserRepository(store),
		DonorProfile:    NewDonorProfileRepository(store),
		Request:         NewEmergencyRequestRepository(store),
		Donation:        NewDonationRepository(store),
		Document:        NewDocumentRepository(store),
		DeletionRequest: NewDeletionRequestRepository(store),
		BloodBank:       NewBloodBankRepository(store),
		Notification:    NewNotificationRepository(store),
	}
}
