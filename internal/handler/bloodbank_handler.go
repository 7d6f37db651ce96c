package handler

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/hemolink/hemolink/internal/auth"
	"github.com/hemolink/hemolink/internal/domain"
	"github.com/hemolink/hemolink/internal/service"
)

// BloodBankHandler serves the blood bank registry endpoints.
type BloodBankHandler struct {
	banks  *service.BloodBankService
	logger zerolog.Logger
}

// NewBloodBankHandler creates a new BloodBankHandler.
func NewBloodBankHandler(banks *service.BloodBankService, logger zerolog.Logger) *BloodBankHandler {
	return &BloodBankHandler{
		banks:  banks,
		logger: logger.With().Str("handler", "bloodbank").Logger(),
	}
}

type createBankRequest struct {
	Name     string          `json:"name"`
	Address  string          `json:"address,omitempty"`
	Location domain.Location `json:"location"`
}

// Create handles POST /admin/blood-banks.
func (h *BloodBankHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createBankRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	var createdBy *int64
	if id := auth.CallerID(r.Context()); id != 0 {
		createdBy = &id
	}

	bank, err := h.banks.Create(r.Context(), service.CreateBankInput{
		Name:      req.Name,
		Address:   req.Address,
		Location:  req.Location,
		CreatedBy: createdBy,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, bank)
}

// Get handles GET /blood-banks/{id}.
func (h *BloodBankHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	bank, err := h.banks.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bank)
}

type updateBankRequest struct {
	Name     *string          `json:"name,omitempty"`
	Address  *string          `json:"address,omitempty"`
	Location *domain.Location `json:"location,omitempty"`
	Status   *string          `json:"status,omitempty"`
}

// Update handles PUT /admin/blood-banks/{id}.
func (h *BloodBankHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	var req updateBankRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	input := service.UpdateBankInput{
		BankID:   id,
		Name:     req.Name,
		Address:  req.Address,
		Location: req.Location,
	}
	if req.Status != nil {
		st := domain.BloodBankStatus(*req.Status)
		input.Status = &st
	}

	bank, err := h.banks.Update(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bank)
}

type adjustInventoryRequest struct {
	BloodType string `json:"bloodType"`
	Delta     int    `json:"delta"`
}

// AdjustInventory handles POST /admin/blood-banks/{id}/inventory.
// Delta may be negative; draining below zero is rejected.
func (h *BloodBankHandler) AdjustInventory(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	var req adjustInventoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	bank, err := h.banks.AdjustInventory(r.Context(), id, domain.BloodType(req.BloodType), req.Delta)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bank)
}

// Delete handles DELETE /admin/blood-banks/{id}.
func (h *BloodBankHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if err := h.banks.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// List handles GET /blood-banks. Pass active=true to filter to
// operating banks.
func (h *BloodBankHandler) List(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"
	banks, err := h.banks.List(r.Context(), activeOnly)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]*domain.BloodBank{"bloodBanks": banks})
}
