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

type LocationHandler struct {
	store LocationStore
}

func NewLocationHandler(store LocationStore) *LocationHandler {
	return &LocationHandler{store: store}
}

func (h *LocationHandler) List(c *gin.Context) {
	ls, err := h.store.ListLocations(c.Request.Context(), auth.UserID(c))
	if err != nil {
		respondInternal(c, "list locations", err)
		return
	}

	resp := make([]dto.LocationResponse, 0, len(ls))
	for i := range ls {
		resp = append(resp, toLocationResponse(&ls[i]))
	}
	respondOK(c, http.StatusOK, resp)
}

func (h *LocationHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "location")
	if !ok {
		return
	}

	l, err := h.store.GetLocation(c.Request.Context(), auth.UserID(c), id)
	if err != nil {
		respondInternal(c, "get location", err)
		return
	}
	if l == nil {
		respondError(c, http.StatusNotFound, "Location not found")
		return
	}
	respondOK(c, http.StatusOK, toLocationResponse(l))
}

func (h *LocationHandler) Create(c *gin.Context) {
	var req dto.CreateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	l := &models.Location{
		UserID:    auth.UserID(c),
		Label:     req.Label,
		Address:   req.Address,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		PlaceType: req.PlaceType,
	}
	if err := h.store.CreateLocation(c.Request.Context(), l); err != nil {
		respondInternal(c, "create location", err)
		return
	}
	respondOK(c, http.StatusCreated, toLocationResponse(l))
}

func (h *LocationHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "location")
	if !ok {
		return
	}

	var req dto.UpdateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	l, err := h.store.UpdateLocation(c.Request.Context(), auth.UserID(c), id, models.LocationPatch{
		Label:     req.Label,
		Address:   req.Address,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		PlaceType: req.PlaceType,
	})
	if errors.Is(err, storage.ErrNotFound) {
		respondError(c, http.StatusNotFound, "Location not found")
		return
	}
	if err != nil {
		respondInternal(c, "update location", err)
		return
	}
	respondOK(c, http.StatusOK, toLocationResponse(l))
}

func (h *LocationHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "location")
	if !ok {
		return
	}

	err := h.store.DeleteLocation(c.Request.Context(), auth.UserID(c), id)
	if errors.Is(err, storage.ErrNotFound) {
		respondError(c, http.StatusNotFound, "Location not found")
		return
	}
	if err != nil {
		respondInternal(c, "delete location", err)
		return
	}
	respondMessage(c, http.StatusOK, nil, "Location deleted")
}
