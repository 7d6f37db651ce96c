package handler

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/hemolink/hemolink/internal/auth"
	"github.com/hemolink/hemolink/internal/domain"
	"github.com/hemolink/hemolink/internal/service"
)

// RequestHandler serves the emergency request endpoints.
type RequestHandler struct {
	requests *service.RequestService
	logger   zerolog.Logger
}

// NewRequestHandler creates a new RequestHandler.
func NewRequestHandler(requests *service.RequestService, logger zerolog.Logger) *RequestHandler {
	return &RequestHandler{
		requests: requests,
		logger:   logger.With().Str("handler", "request").Logger(),
	}
}

type createRequestRequest struct {
	ContactName  string          `json:"contactName"`
	ContactPhone string          `json:"contactPhone"`
	ContactEmail string          `json:"contactEmail,omitempty"`
	BloodType    string          `json:"bloodType"`
	UrgencyLevel string          `json:"urgencyLevel"`
	HospitalName string          `json:"hospitalName"`
	Location     domain.Location `json:"location"`
	ExpiresAt    time.Time       `json:"expiresAt"`
}

// Create handles POST /requests. Anonymous callers may file requests;
// an authenticated caller is recorded as the requester.
func (h *RequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequestRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	var requesterID *int64
	if id := auth.CallerID(r.Context()); id != 0 {
		requesterID = &id
	}

	created, err := h.requests.Create(r.Context(), service.CreateRequestInput{
		RequesterID:  requesterID,
		ContactName:  req.ContactName,
		ContactPhone: req.ContactPhone,
		ContactEmail: req.ContactEmail,
		BloodType:    domain.BloodType(req.BloodType),
		UrgencyLevel: domain.UrgencyLevel(req.UrgencyLevel),
		HospitalName: req.HospitalName,
		Location:     req.Location,
		ExpiresAt:    req.ExpiresAt,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// Get handles GET /requests/{id}.
func (h *RequestHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	req, err := h.requests.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// MatchDonor handles POST /requests/{id}/match. The caller volunteers
// as a donor for the request.
func (h *RequestHandler) MatchDonor(w http.ResponseWriter, r *http.Request) {
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

	req, err := h.requests.MatchDonor(r.Context(), id, authCtx.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// Fulfill handles POST /requests/{id}/fulfill.
func (h *RequestHandler) Fulfill(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	req, err := h.requests.Fulfill(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// Cancel handles POST /requests/{id}/cancel.
func (h *RequestHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	req, err := h.requests.Cancel(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

type listRequestsResponse struct {
	Requests   []*domain.EmergencyRequest `json:"requests"`
	TotalCount int64                      `json:"totalCount"`
	Page       int                        `json:"page"`
	Limit      int                        `json:"limit"`
}

// List handles GET /requests.
func (h *RequestHandler) List(w http.ResponseWriter, r *http.Request) {
	out, err := h.requests.List(r.Context(), service.ListRequestsInput{
		Status:       domain.RequestStatus(r.URL.Query().Get("status")),
		BloodType:    domain.BloodType(r.URL.Query().Get("bloodType")),
		UrgencyLevel: domain.UrgencyLevel(r.URL.Query().Get("urgencyLevel")),
		Page:         queryInt(r, "page"),
		Limit:        queryInt(r, "limit"),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listRequestsResponse{
		Requests:   out.Requests,
		TotalCount: out.TotalCount,
		Page:       out.Page,
		Limit:      out.Limit,
	})
}
