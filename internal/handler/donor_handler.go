package handler

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/hemolink/hemolink/internal/auth"
	"github.com/hemolink/hemolink/internal/domain"
	"github.com/hemolink/hemolink/internal/service"
)

// DonorHandler serves the donor profile endpoints.
type DonorHandler struct {
	donors *service.DonorService
	logger zerolog.Logger
}

// NewDonorHandler creates a new DonorHandler.
func NewDonorHandler(donors *service.DonorService, logger zerolog.Logger) *DonorHandler {
	return &DonorHandler{
		donors: donors,
		logger: logger.With().Str("handler", "donor").Logger(),
	}
}

// Register handles POST /donors. The caller becomes a donor.
func (h *DonorHandler) Register(w http.ResponseWriter, r *http.Request) {
	authCtx, err := auth.RequireAuth(r.Context())
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, APIError{Error: "unauthorized", Message: "authentication required"})
		return
	}

	profile, err := h.donors.Register(r.Context(), authCtx.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, profile)
}

// GetOwn handles GET /donors/me.
func (h *DonorHandler) GetOwn(w http.ResponseWriter, r *http.Request) {
	authCtx, err := auth.RequireAuth(r.Context())
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, APIError{Error: "unauthorized", Message: "authentication required"})
		return
	}

	profile, err := h.donors.GetByUserID(r.Context(), authCtx.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

type setAvailabilityRequest struct {
	Status string `json:"status"`
}

// SetAvailability handles PUT /donors/me/availability.
func (h *DonorHandler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	authCtx, err := auth.RequireAuth(r.Context())
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, APIError{Error: "unauthorized", Message: "authentication required"})
		return
	}

	var req setAvailabilityRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	profile, err := h.donors.SetAvailability(r.Context(), authCtx.UserID, domain.DonorStatus(req.Status))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

type eligibilityResponse struct {
	Eligible         bool       `json:"eligible"`
	NextEligibleDate *time.Time `json:"nextEligibleDate,omitempty"`
}

// Eligibility handles GET /donors/me/eligibility.
func (h *DonorHandler) Eligibility(w http.ResponseWriter, r *http.Request) {
	authCtx, err := auth.RequireAuth(r.Context())
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, APIError{Error: "unauthorized", Message: "authentication required"})
		return
	}

	eligible, next, err := h.donors.Eligibility(r.Context(), authCtx.UserID, time.Now().UTC())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, eligibilityResponse{Eligible: eligible, NextEligibleDate: next})
}

type setVerificationRequest struct {
	Status string `json:"status"`
}

// SetVerification handles PUT /admin/donors/{userId}/verification.
func (h *DonorHandler) SetVerification(w http.ResponseWriter, r *http.Request) {
	userID, err := urlID(r, "userId")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	var req setVerificationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	profile, err := h.donors.SetVerification(r.Context(), userID, domain.VerificationStatus(req.Status))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

type listDonorsResponse struct {
	Donors     []*domain.DonorProfile `json:"donors"`
	TotalCount int64                  `json:"totalCount"`
	Page       int                    `json:"page"`
	Limit      int                    `json:"limit"`
}

// List handles GET /donors.
func (h *DonorHandler) List(w http.ResponseWriter, r *http.Request) {
	out, err := h.donors.List(r.Context(), service.ListDonorsInput{
		Status:             domain.DonorStatus(r.URL.Query().Get("status")),
		VerificationStatus: domain.VerificationStatus(r.URL.Query().Get("verificationStatus")),
		Page:               queryInt(r, "page"),
		Limit:              queryInt(r, "limit"),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listDonorsResponse{
		Donors:     out.Donors,
		TotalCount: out.TotalCount,
		Page:       out.Page,
		Limit:      out.Limit,
	})
}
