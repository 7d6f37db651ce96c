package handler

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/hemolink/hemolink/internal/auth"
	"github.com/hemolink/hemolink/internal/domain"
	"github.com/hemolink/hemolink/internal/service"
)

// DonationHandler serves the donation record endpoints.
type DonationHandler struct {
	donations *service.DonationService
	logger    zerolog.Logger
}

// NewDonationHandler creates a new DonationHandler.
func NewDonationHandler(donations *service.DonationService, logger zerolog.Logger) *DonationHandler {
	return &DonationHandler{
		donations: donations,
		logger:    logger.With().Str("handler", "donation").Logger(),
	}
}

type recordDonationRequest struct {
	DonorID      int64     `json:"donorId"`
	RequestID    *int64    `json:"requestId,omitempty"`
	BloodType    string    `json:"bloodType"`
	VolumeML     int       `json:"volumeMl"`
	DonationDate time.Time `json:"donationDate"`
	Location     string    `json:"location,omitempty"`
}

// Record handles POST /admin/donations. Donation records are entered
// by staff after a completed donation and are immutable afterwards.
func (h *DonationHandler) Record(w http.ResponseWriter, r *http.Request) {
	var req recordDonationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	rec, err := h.donations.Record(r.Context(), service.RecordDonationInput{
		DonorID:      req.DonorID,
		RequestID:    req.RequestID,
		BloodType:    domain.BloodType(req.BloodType),
		VolumeML:     req.VolumeML,
		DonationDate: req.DonationDate,
		Location:     req.Location,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// ListOwn handles GET /donations. Returns the caller's donation
// history, newest first.
func (h *DonationHandler) ListOwn(w http.ResponseWriter, r *http.Request) {
	authCtx, err := auth.RequireAuth(r.Context())
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, APIError{Error: "unauthorized", Message: "authentication required"})
		return
	}

	records, err := h.donations.ListByDonor(r.Context(), authCtx.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"donations": records})
}

type donorStatsResponse struct {
	TotalDonations int               `json:"totalDonations"`
	LitersDonated  float64           `json:"litersDonated"`
	LivesSaved     int               `json:"livesSaved"`
	Badge          domain.DonorBadge `json:"badge"`
}

// Stats handles GET /donations/stats.
func (h *DonationHandler) Stats(w http.ResponseWriter, r *http.Request) {
	authCtx, err := auth.RequireAuth(r.Context())
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, APIError{Error: "unauthorized", Message: "authentication required"})
		return
	}

	stats, err := h.donations.Stats(r.Context(), authCtx.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, donorStatsResponse{
		TotalDonations: stats.TotalDonations,
		LitersDonated:  stats.LitersDonated,
		LivesSaved:     stats.LivesSaved,
		Badge:          stats.Badge,
	})
}
