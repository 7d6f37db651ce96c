package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/hemolink/hemolink/internal/domain"
	"github.com/hemolink/hemolink/internal/repository"
)

// documentRepository implements repository.DocumentRepository for SQLite.
type documentRepository struct {
	db *DB
}

// NewDocumentRepository creates a new SQLite document repository.
func NewDocumentRepository(db *DB) repository.DocumentRepository {
	return &documentRepository{db: db}
}

const documentColumns = `id, user_id, type, file_name, content_hash, size_bytes, verification_status, created_at, updated_at`

// Create creates a new document.
func (r *documentRepository) Create(ctx context.Context, doc *domain.Document) error {
	ts := time.Now().UTC()
	doc.CreatedAt = ts
	doc.UpdatedAt = ts

	query := `
		INSERT INTO documents (user_id, type, file_name, content_hash, size_bytes, verification_status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		doc.UserID,
		string(doc.Type),
		doc.FileName,
		doc.ContentHash,
		doc.SizeBytes,
		string(doc.VerificationStatus),
		fmtTime(doc.CreatedAt),
		fmtTime(doc.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}
	doc.ID = id

	return nil
}

func scanDocument(row interface{ Scan(...interface{}) error }) (*domain.Document, error) {
	doc := &domain.Document{}
	var docType, verification, createdAt, updatedAt string

	err := row.Scan(
		&doc.ID,
		&doc.UserID,
		&docType,
		&doc.FileName,
		&doc.ContentHash,
		&doc.SizeBytes,
		&verification,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	doc.Type = domain.DocumentType(docType)
	doc.VerificationStatus = domain.VerificationStatus(verification)
	doc.CreatedAt = parseTime(createdAt)
	doc.UpdatedAt = parseTime(updatedAt)

	return doc, nil
}

// GetByID retrieves a document by ID.
func (r *documentRepository) GetByID(ctx context.Context, id int64) (*domain.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = ?`
	doc, err := scanDocument(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return doc, nil
}

// ListByUserID returns all documents owned by a user.
func (r *documentRepository) ListByUserID(ctx context.Context, userID int64) ([]*domain.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE user_id = ? ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []*domain.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating documents: %w", err)
	}

	return docs, nil
}

// Update merges the given record over the stored one.
func (r *documentRepository) Update(ctx context.Context, doc *domain.Document) error {
	doc.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE documents
		SET type = ?, file_name = ?, content_hash = ?, size_bytes = ?, verification_status = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		string(doc.Type),
		doc.FileName,
		doc.ContentHash,
		doc.SizeBytes,
		string(doc.VerificationStatus),
		fmtTime(doc.UpdatedAt),
		doc.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// Delete deletes a document by ID.
func (r *documentRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// DeleteByUserID deletes all documents owned by a user.
func (r *documentRepository) DeleteByUserID(ctx context.Context, userID int64) (int, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE user_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete documents: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	return int(rowsAffected), nil
}

// Ensure documentRepository implements repository.DocumentRepository.
var _ repository.DocumentRepository = (*documentRepository)(nil)
