package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/hemolink/hemolink/internal/domain"
	"github.com/hemolink/hemolink/internal/storage"
)

func (f *fixture) documentService(t *testing.T) *DocumentService {
	t.Helper()
	backend, err := storage.NewFilesystemBackend(t.TempDir())
	if err != nil {
		t.Fatalf("NewFilesystemBackend: %v", err)
	}
	return NewDocumentService(f.repos.Document, f.repos.User, backend, f.logger)
}

func TestDocumentServiceUploadDownload(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := f.documentService(t)
	user := f.createUser(t, "casey", domain.RoleUser)

	content := "scanned donor card"
	doc, err := svc.Upload(ctx, UploadDocumentInput{
		UserID:   user.ID,
		Type:     domain.DocumentTypeDonorCard,
		FileName: "card.pdf",
		Content:  strings.NewReader(content),
		Size:     int64(len(content)),
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if doc.ContentHash == "" {
		t.Error("expected content hash recorded")
	}
	if doc.SizeBytes != int64(len(content)) {
		t.Errorf("expected size %d, got %d", len(content), doc.SizeBytes)
	}
	if doc.VerificationStatus != domain.VerificationPending {
		t.Errorf("expected new document Pending, got %s", doc.VerificationStatus)
	}

	got, reader, err := svc.Download(ctx, doc.ID)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	defer reader.Close()
	data, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(data) != content {
		t.Errorf("downloaded content mismatch: %q", data)
	}
	if got.ID != doc.ID {
		t.Errorf("expected document %d, got %d", doc.ID, got.ID)
	}
}

func TestDocumentServiceDeduplicatesContent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := f.documentService(t)
	user := f.createUser(t, "casey", domain.RoleUser)

	content := "same bytes"
	upload := func(name string) *domain.Document {
		doc, err := svc.Upload(ctx, UploadDocumentInput{
			UserID:   user.ID,
			Type:     domain.DocumentTypeOther,
			FileName: name,
			Content:  strings.NewReader(content),
			Size:     int64(len(content)),
		})
		if err != nil {
			t.Fatalf("Upload %s: %v", name, err)
		}
		return doc
	}

	first := upload("a.txt")
	second := upload("b.txt")
	if first.ContentHash != second.ContentHash {
		t.Errorf("expected identical content to share a hash: %s vs %s", first.ContentHash, second.ContentHash)
	}
	if first.ID == second.ID {
		t.Error("expected distinct metadata records")
	}

	// Deleting one record leaves the shared content readable
	if err := svc.Delete(ctx, first.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	_, reader, err := svc.Download(ctx, second.ID)
	if err != nil {
		t.Fatalf("Download after delete: %v", err)
	}
	reader.Close()
}

func TestDocumentServiceUploadErrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := f.documentService(t)
	user := f.createUser(t, "casey", domain.RoleUser)

	_, err := svc.Upload(ctx, UploadDocumentInput{
		UserID:   999,
		Type:     domain.DocumentTypeID,
		FileName: "id.png",
		Content:  strings.NewReader("x"),
		Size:     1,
	})
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}

	var verr *domain.ValidationError
	_, err = svc.Upload(ctx, UploadDocumentInput{
		UserID:   user.ID,
		Type:     "Selfie",
		FileName: "",
		Content:  strings.NewReader("x"),
		Size:     1,
	})
	if !errors.As(err, &verr) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestDocumentServiceSetVerification(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := f.documentService(t)
	user := f.createUser(t, "casey", domain.RoleUser)

	doc, err := svc.Upload(ctx, UploadDocumentInput{
		UserID:   user.ID,
		Type:     domain.DocumentTypeMedicalReport,
		FileName: "report.pdf",
		Content:  strings.NewReader("results"),
		Size:     7,
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	got, err := svc.SetVerification(ctx, doc.ID, domain.VerificationVerified)
	if err != nil {
		t.Fatalf("SetVerification: %v", err)
	}
	if got.VerificationStatus != domain.VerificationVerified {
		t.Errorf("expected Verified, got %s", got.VerificationStatus)
	}

	// Verifying a document does not verify the donor profile
	profile := domain.NewDonorProfile(user.ID)
	if err := f.repos.DonorProfile.Create(ctx, profile); err != nil {
		t.Fatalf("Create: %v", err)
	}
	stored, err := f.repos.DonorProfile.GetByUserID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetByUserID: %v", err)
	}
	if stored.VerificationStatus != domain.VerificationUnverified {
		t.Errorf("expected profile untouched, got %s", stored.VerificationStatus)
	}

	var verr *domain.ValidationError
	if _, err := svc.SetVerification(ctx, doc.ID, "Checked"); !errors.As(err, &verr) {
		t.Errorf("expected validation error, got %v", err)
	}
	if _, err := svc.SetVerification(ctx, 999, domain.VerificationVerified); !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Errorf("expected ErrDocumentNotFound, got %v", err)
	}
}
