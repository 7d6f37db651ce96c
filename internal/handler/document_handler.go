package handler

import (
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/hemolink/hemolink/internal/auth"
	"github.com/hemolink/hemolink/internal/domain"
	"github.com/hemolink/hemolink/internal/service"
)

// maxDocumentSize caps uploaded document bodies at 10 MiB.
const maxDocumentSize = 10 << 20

// DocumentHandler serves the verification document endpoints.
type DocumentHandler struct {
	documents *service.DocumentService
	logger    zerolog.Logger
}

// NewDocumentHandler creates a new DocumentHandler.
func NewDocumentHandler(documents *service.DocumentService, logger zerolog.Logger) *DocumentHandler {
	return &DocumentHandler{
		documents: documents,
		logger:    logger.With().Str("handler", "document").Logger(),
	}
}

// Upload handles POST /documents. The document type and file name come
// from headers so the body can stream straight into storage.
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	authCtx, err := auth.RequireAuth(r.Context())
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, APIError{Error: "unauthorized", Message: "authentication required"})
		return
	}

	docType := r.Header.Get("X-Document-Type")
	fileName := r.Header.Get("X-File-Name")
	if docType == "" || fileName == "" {
		writeBadRequest(w, "X-Document-Type and X-File-Name headers are required")
		return
	}

	body := http.MaxBytesReader(w, r.Body, maxDocumentSize)
	defer body.Close()

	doc, err := h.documents.Upload(r.Context(), service.UploadDocumentInput{
		UserID:   authCtx.UserID,
		Type:     domain.DocumentType(docType),
		FileName: fileName,
		Content:  body,
		Size:     r.ContentLength,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

// Download handles GET /documents/{id}. Owners and admins may fetch
// the stored content.
func (h *DocumentHandler) Download(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	authCtx, err := auth.RequireAuth(r.Context())
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, APIError{Error: "unauthorized", Message: "authentication required"})
		return
	}

	doc, content, err := h.documents.Download(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	defer content.Close()

	if doc.UserID != authCtx.UserID && !authCtx.EffectiveAdmin {
		writeJSON(w, http.StatusForbidden, APIError{Error: "access_denied", Message: "not the document owner"})
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.FileName))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", doc.SizeBytes))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, content); err != nil {
		h.logger.Error().Err(err).Int64("document_id", doc.ID).Msg("failed to stream document")
	}
}

// ListOwn handles GET /documents. Returns the caller's documents.
func (h *DocumentHandler) ListOwn(w http.ResponseWriter, r *http.Request) {
	authCtx, err := auth.RequireAuth(r.Context())
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, APIError{Error: "unauthorized", Message: "authentication required"})
		return
	}

	docs, err := h.documents.ListByUser(r.Context(), authCtx.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"documents": docs})
}

// SetVerification handles PUT /admin/documents/{id}/verification.
// Reviewing a document never touches the owner's donor profile; profile
// verification is a separate admin action.
func (h *DocumentHandler) SetVerification(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	var req setVerificationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	doc, err := h.documents.SetVerification(r.Context(), id, domain.VerificationStatus(req.Status))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}
