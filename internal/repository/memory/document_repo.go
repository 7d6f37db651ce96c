package memory

import (
	"context"
	"sort"

	"github.com/hemolink/hemolink/internal/domain"
	"github.com/hemolink/hemolink/internal/repository"
)

// documentRepository implements repository.DocumentRepository.
type documentRepository struct {
	store *Store
}

// NewDocumentRepository creates an in-memory document repository.
func NewDocumentRepository(store *Store) repository.DocumentRepository {
	return &documentRepository{store: store}
}

// Create creates a new document.
func (r *documentRepository) Create(ctx context.Context, doc *domain.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	doc.ID = s.nextDocumentID
	s.nextDocumentID++

	ts := now()
	doc.CreatedAt = ts
	doc.UpdatedAt = ts

	s.documents[doc.ID] = copyDocument(doc)
	return nil
}

// GetByID retrieves a document by ID.
func (r *documentRepository) GetByID(ctx context.Context, id int64) (*domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.documents[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyDocument(doc), nil
}

// ListByUserID returns all documents owned by a user.
func (r *documentRepository) ListByUserID(ctx context.Context, userID int64) ([]*domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := r.store
	s.mu.RLock()
	var docs []*domain.Document
	for _, doc := range s.documents {
		if doc.UserID == userID {
			docs = append(docs, copyDocument(doc))
		}
	}
	s.mu.RUnlock()

	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

// Update merges the given record over the stored one.
func (r *documentRepository) Update(ctx context.Context, doc *domain.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.documents[doc.ID]
	if !ok {
		return repository.ErrNotFound
	}

	updated := copyDocument(doc)
	updated.ID = existing.ID
	updated.UserID = existing.UserID
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = now()

	s.documents[updated.ID] = updated
	doc.UpdatedAt = updated.UpdatedAt
	return nil
}

// Delete deletes a document by ID.
func (r *documentRepository) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.documents[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.documents, id)
	return nil
}

// DeleteByUserID deletes all documents owned by a user.
func (r *documentRepository) DeleteByUserID(ctx context.Context, userID int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := 0
	for id, doc := range s.documents {
		if doc.UserID == userID {
			delete(s.documents, id)
			deleted++
		}
	}
	return deleted, nil
}

// Ensure documentRepository implements the interface.
var _ repository.DocumentRepository = (*documentRepository)(nil)
