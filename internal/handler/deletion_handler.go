package handler

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/hemolink/hemolink/internal/auth"
	"github.com/hemolink/hemolink/internal/domain"
	"github.com/hemolink/hemolink/internal/service"
)

// DeletionHandler serves the account deletion review endpoints.
type DeletionHandler struct {
	deletions *service.DeletionService
	logger    zerolog.Logger
}

// NewDeletionHandler creates a new DeletionHandler.
func NewDeletionHandler(deletions *service.DeletionService, logger zerolog.Logger) *DeletionHandler {
	return &DeletionHandler{
		deletions: deletions,
		logger:    logger.With().Str("handler", "deletion").Logger(),
	}
}

type createDeletionRequest struct {
	TargetUserID int64  `json:"targetUserId"`
	Reason       string `json:"reason,omitempty"`
}

// Create handles POST /admin/deletion-requests.
func (h *DeletionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createDeletionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	authCtx, err := auth.RequireAuth(r.Context())
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, APIError{Error: "unauthorized", Message: "authentication required"})
		return
	}

	dr, err := h.deletions.Create(r.Context(), authCtx.UserID, req.TargetUserID, req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, dr)
}

// Approve handles POST /admin/deletion-requests/{id}/approve. The
// reviewer must differ from the requester; approval deletes the target
// account and its dependent records.
func (h *DeletionHandler) Approve(w http.ResponseWriter, r *http.Request) {
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

	dr, err := h.deletions.Approve(r.Context(), id, authCtx.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dr)
}

// Reject handles POST /admin/deletion-requests/{id}/reject. The target
// account is left untouched.
func (h *DeletionHandler) Reject(w http.ResponseWriter, r *http.Request) {
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

	dr, err := h.deletions.Reject(r.Context(), id, authCtx.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dr)
}

type listDeletionsResponse struct {
	Requests   []*domain.DeletionRequestDetail `json:"requests"`
	TotalCount int64                           `json:"totalCount"`
	Page       int                             `json:"page"`
	Limit      int                             `json:"limit"`
}

// List handles GET /admin/deletion-requests. Entries carry redacted
// requester and target summaries.
func (h *DeletionHandler) List(w http.ResponseWriter, r *http.Request) {
	out, err := h.deletions.List(r.Context(), service.ListDeletionsInput{
		Status: domain.DeletionRequestStatus(r.URL.Query().Get("status")),
		Page:   queryInt(r, "page"),
		Limit:  queryInt(r, "limit"),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listDeletionsResponse{
		Requests:   out.Requests,
		TotalCount: out.TotalCount,
		Page:       out.Page,
		Limit:      out.Limit,
	})
}
