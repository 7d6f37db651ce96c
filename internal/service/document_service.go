package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/hemolink/hemolink/internal/domain"
	"github.com/hemolink/hemolink/internal/repository"
	"github.com/hemolink/hemolink/internal/storage"
)

// DocumentService handles verification document upload and review.
type DocumentService struct {
	docRepo  repository.DocumentRepository
	userRepo repository.UserRepository
	backend  storage.Backend
	logger   zerolog.Logger
}

// NewDocumentService creates a new DocumentService.
func NewDocumentService(
	docRepo repository.DocumentRepository,
	userRepo repository.UserRepository,
	backend storage.Backend,
	logger zerolog.Logger,
) *DocumentService {
	return &DocumentService{
		docRepo:  docRepo,
		userRepo: userRepo,
		backend:  backend,
		logger:   logger.With().Str("service", "document").Logger(),
	}
}

// UploadDocumentInput contains the data needed to upload a document.
type UploadDocumentInput struct {
	UserID   int64
	Type     domain.DocumentType
	FileName string
	Content  io.Reader
	Size     int64
}

// Upload stores the document content and creates its metadata record.
// The file is content-addressed by SHA-256, so re-uploading identical
// content costs no extra storage.
func (s *DocumentService) Upload(ctx context.Context, input UploadDocumentInput) (*domain.Document, error) {
	if _, err := s.userRepo.GetByID(ctx, input.UserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	doc := domain.NewDocument(input.UserID, input.Type, input.FileName)
	if err := domain.ValidateDocument(doc); err != nil {
		return nil, err
	}

	contentHash, err := s.backend.Store(ctx, input.Content, input.Size)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", input.UserID).Msg("failed to store document content")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	size, err := s.backend.GetSize(ctx, contentHash)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	doc.ContentHash = contentHash
	doc.SizeBytes = size

	if err := s.docRepo.Create(ctx, doc); err != nil {
		s.logger.Error().Err(err).Int64("user_id", input.UserID).Msg("failed to create document record")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().
		Int64("document_id", doc.ID).
		Int64("user_id", input.UserID).
		Str("type", string(input.Type)).
		Str("content_hash", contentHash).
		Msg("document uploaded")

	return doc, nil
}

// GetByID retrieves a document's metadata by ID.
func (s *DocumentService) GetByID(ctx context.Context, id int64) (*domain.Document, error) {
	doc, err := s.docRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return doc, nil
}

// Download returns a document's metadata and a stream of its content.
// The caller must close the returned reader.
func (s *DocumentService) Download(ctx context.Context, id int64) (*domain.Document, io.ReadCloser, error) {
	doc, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	reader, err := s.backend.Retrieve(ctx, doc.ContentHash)
	if err != nil {
		if storage.IsNotFound(err) {
			s.logger.Error().
				Int64("document_id", id).
				Str("content_hash", doc.ContentHash).
				Msg("document content missing from storage")
			return nil, nil, domain.ErrDocumentNotFound
		}
		return nil, nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return doc, reader, nil
}

// ListByUser returns all documents owned by a user.
func (s *DocumentService) ListByUser(ctx context.Context, userID int64) ([]*domain.Document, error) {
	docs, err := s.docRepo.ListByUserID(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to list documents")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return docs, nil
}

// SetVerification updates the review state of a document. Verifying a
// document never changes the owner's donor profile; profile
// verification is a separate decision.
func (s *DocumentService) SetVerification(ctx context.Context, id int64, status domain.VerificationStatus) (*domain.Document, error) {
	if !status.IsValid() {
		verr := domain.NewValidationError()
		verr.Add("verificationStatus", "must be one of Unverified, Pending, Verified")
		return nil, verr
	}

	doc, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	doc.VerificationStatus = status
	if err := s.docRepo.Update(ctx, doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().
		Int64("document_id", id).
		Str("verification_status", string(status)).
		Msg("document verification updated")

	return doc, nil
}

// Delete removes a document's metadata. Content is kept: other
// documents may share the same hash.
func (s *DocumentService) Delete(ctx context.Context, id int64) error {
	if err := s.docRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrDocumentNotFound
		}
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().Int64("document_id", id).Msg("document deleted")
	return nil
}
