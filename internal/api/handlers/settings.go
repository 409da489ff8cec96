package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/your-org/facelink/internal/auth"
	"github.com/your-org/facelink/internal/models"
	"github.com/your-org/facelink/internal/storage"
	"github.com/your-org/facelink/pkg/dto"
)

// SettingsHandler serves the per-user settings singleton and its caregivers.
// Settings are created from defaults the first time they are needed.
type SettingsHandler struct {
	store    SettingsStore
	defaults models.Settings
}

func NewSettingsHandler(store SettingsStore, defaults models.Settings) *SettingsHandler {
	return &SettingsHandler{store: store, defaults: defaults}
}

func (h *SettingsHandler) Get(c *gin.Context) {
	st, err := h.store.GetOrCreateSettings(c.Request.Context(), auth.UserID(c), h.defaults)
	if err != nil {
		respondInternal(c, "get settings", err)
		return
	}
	respondOK(c, http.StatusOK, toSettingsResponse(st))
}

func (h *SettingsHandler) Update(c *gin.Context) {
	var req dto.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	ctx := c.Request.Context()
	userID := auth.UserID(c)

	if _, err := h.store.GetOrCreateSettings(ctx, userID, h.defaults); err != nil {
		respondInternal(c, "get settings", err)
		return
	}

	st, err := h.store.UpdateSettings(ctx, userID, models.SettingsPatch{
		HomeLabel:          req.HomeLabel,
		HomeAddress:        req.HomeAddress,
		ReassuranceMessage: req.ReassuranceMessage,
		Latitude:           req.MapLatitude,
		Longitude:          req.MapLongitude,
	})
	if err != nil {
		respondInternal(c, "update settings", err)
		return
	}
	respondMessage(c, http.StatusOK, toSettingsResponse(st), "Settings updated")
}

func (h *SettingsHandler) ListCaregivers(c *gin.Context) {
	cs, err := h.store.ListCaregivers(c.Request.Context(), auth.UserID(c))
	if err != nil {
		respondInternal(c, "list caregivers", err)
		return
	}
	respondOK(c, http.StatusOK, toCaregiverResponses(cs))
}

func (h *SettingsHandler) CreateCaregiver(c *gin.Context) {
	var req dto.CreateCaregiverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	ctx := c.Request.Context()
	userID := auth.UserID(c)

	if _, err := h.store.GetOrCreateSettings(ctx, userID, h.defaults); err != nil {
		respondInternal(c, "get settings", err)
		return
	}

	cg := &models.Caregiver{
		Name:         req.Name,
		Relationship: req.Relationship,
		Phone:        req.PhoneNumber,
		Email:        req.Email,
		IsPrimary:    req.IsPrimary,
	}
	if err := h.store.CreateCaregiver(ctx, userID, cg); err != nil {
		respondInternal(c, "create caregiver", err)
		return
	}
	respondMessage(c, http.StatusCreated, toCaregiverResponse(cg), "Caregiver added")
}

func (h *SettingsHandler) UpdateCaregiver(c *gin.Context) {
	id, ok := parseID(c, "caregiver")
	if !ok {
		return
	}

	var req dto.UpdateCaregiverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	cg, err := h.store.UpdateCaregiver(c.Request.Context(), auth.UserID(c), id, models.CaregiverPatch{
		Name:         req.Name,
		Relationship: req.Relationship,
		Phone:        req.PhoneNumber,
		Email:        req.Email,
		IsPrimary:    req.IsPrimary,
	})
	if errors.Is(err, storage.ErrNotFound) {
		respondError(c, http.StatusNotFound, "Caregiver not found")
		return
	}
	if err != nil {
		respondInternal(c, "update caregiver", err)
		return
	}
	respondOK(c, http.StatusOK, toCaregiverResponse(cg))
}

func (h *SettingsHandler) DeleteCaregiver(c *gin.Context) {
	id, ok := parseID(c, "caregiver")
	if !ok {
		return
	}

	err := h.store.DeleteCaregiver(c.Request.Context(), auth.UserID(c), id)
	if errors.Is(err, storage.ErrNotFound) {
		respondError(c, http.StatusNotFound, "Caregiver not found")
		return
	}
	if err != nil {
		respondInternal(c, "delete caregiver", err)
		return
	}
	respondMessage(c, http.StatusOK, nil, "Caregiver deleted")
}
