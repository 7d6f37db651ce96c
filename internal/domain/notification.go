// Package domain contains the core business entities for Hemolink.
package domain

import (
	"time"
)

// NotificationType classifies what a notification is about.
type NotificationType string

const (
	// NotificationEmergencyRequest announces a new emergency request.
	NotificationEmergencyRequest NotificationType = "emergency_request"

	// NotificationDonorAvailable announces a donor becoming available.
	NotificationDonorAvailable NotificationType = "donor_available"

	// NotificationDonorMatched announces a donor matched to an emergency request.
	NotificationDonorMatched NotificationType = "donor_matched"

	// NotificationSystem is for administrative announcements.
	NotificationSystem NotificationType = "system"
)

// Notification is a message delivered to a user.
type Notification struct {
	// ID is the unique identifier (minted by the repository).
	ID int64 `json:"id"`

	// UserID is the recipient.
	UserID int64 `json:"userId"`

	// Type classifies the notification.
	Type NotificationType `json:"type"`

	// Title is the short headline.
	Title string `json:"title"`

	// Message is the body text.
	Message string `json:"message"`

	// Read indicates whether the recipient has seen it.
	Read bool `json:"read"`

	// CreatedAt is the timestamp when the notification was created.
	CreatedAt time.Time `json:"createdAt"`
}

// NewNotification creates a new unread Notification.
func NewNotification(userID int64, nType NotificationType, title, message string) *Notification {
	return &Notification{
		UserID:    userID,
		Type:      nType,
		Title:     title,
		Message:   message,
		Read:      false,
		CreatedAt: time.Now().UTC(),
	}
}
