// Package domain contains the core business entities for Hemolink.
package domain

import (
	"time"
)

// DocumentType classifies an uploaded verification artifact.
type DocumentType string

const (
	DocumentTypeID            DocumentType = "ID"
	DocumentTypeMedicalReport DocumentType = "MedicalReport"
	DocumentTypeDonorCard     DocumentType = "DonorCard"
	DocumentTypeAddressProof  DocumentType = "AddressProof"
	DocumentTypeOther         DocumentType = "Other"
)

// IsValid reports whether the document type is known.
func (t DocumentType) IsValid() bool {
	switch t {
	case DocumentTypeID, DocumentTypeMedicalReport, DocumentTypeDonorCard,
		DocumentTypeAddressProof, DocumentTypeOther:
		return true
	}
	return false
}

// Document is an uploaded verification artifact tied to a user.
// Its VerificationStatus is independent of DonorProfile.VerificationStatus;
// verifying a document does not auto-promote the profile.
type Document struct {
	// ID is the unique identifier for the document (minted by the repository).
	ID int64 `json:"id"`

	// UserID is the owner of the document.
	UserID int64 `json:"userId"`

	// Type classifies the document.
	Type DocumentType `json:"type"`

	// FileName is the original name of the uploaded file.
	FileName string `json:"fileName"`

	// ContentHash is the SHA-256 hash of the file content, used as the
	// storage backend key.
	ContentHash string `json:"contentHash,omitempty"`

	// SizeBytes is the size of the uploaded file.
	SizeBytes int64 `json:"sizeBytes"`

	// VerificationStatus is the review state of this document.
	VerificationStatus VerificationStatus `json:"verificationStatus"`

	// CreatedAt is the timestamp when the document was uploaded.
	CreatedAt time.Time `json:"createdAt"`

	// UpdatedAt is the timestamp when the document was last updated.
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewDocument creates a new Document with review pending.
func NewDocument(userID int64, docType DocumentType, fileName string) *Document {
	now := time.Now().UTC()
	return &Document{
		UserID:             userID,
		Type:               docType,
		FileName:           fileName,
		VerificationStatus: VerificationPending,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}
