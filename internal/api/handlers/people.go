package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/your-org/facelink/internal/auth"
	"github.com/your-org/facelink/internal/models"
	"github.com/your-org/facelink/internal/storage"
	"github.com/your-org/facelink/internal/vision"
	"github.com/your-org/facelink/pkg/dto"
)

// FaceFunc extracts the most prominent face of an image.
type FaceFunc func(image []byte) (*vision.Face, error)

type PeopleHandler struct {
	store     PersonStore
	blobs     BlobStore
	maxUpload int64
	// Face is nil when no face model is loaded; photo uploads then fail
	// with 503.
	Face FaceFunc
}

func NewPeopleHandler(store PersonStore, blobs BlobStore, maxUpload int64) *PeopleHandler {
	return &PeopleHandler{store: store, blobs: blobs, maxUpload: maxUpload}
}

func (h *PeopleHandler) List(c *gin.Context) {
	people, err := h.store.ListPersons(c.Request.Context(), auth.UserID(c))
	if err != nil {
		respondInternal(c, "list people", err)
		return
	}

	resp := make([]dto.PersonResponse, 0, len(people))
	for i := range people {
		resp = append(resp, toPersonResponse(&people[i]))
	}
	respondOK(c, http.StatusOK, resp)
}

func (h *PeopleHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "person")
	if !ok {
		return
	}

	p, err := h.store.GetPerson(c.Request.Context(), auth.UserID(c), id)
	if err != nil {
		respondInternal(c, "get person", err)
		return
	}
	if p == nil {
		respondError(c, http.StatusNotFound, "Person not found")
		return
	}
	respondOK(c, http.StatusOK, toPersonResponse(p))
}

func (h *PeopleHandler) Create(c *gin.Context) {
	var req dto.CreatePersonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	p := &models.Person{
		UserID:       auth.UserID(c),
		Name:         req.Name,
		Relationship: req.Relationship,
		Reminder:     req.Reminder,
	}
	if err := h.store.CreatePerson(c.Request.Context(), p); err != nil {
		respondInternal(c, "create person", err)
		return
	}
	respondMessage(c, http.StatusCreated, toPersonResponse(p), "Added "+p.Name)
}

func (h *PeopleHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "person")
	if !ok {
		return
	}

	var req dto.UpdatePersonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	p, err := h.store.UpdatePerson(c.Request.Context(), auth.UserID(c), id, models.PersonPatch{
		Name:         req.Name,
		Relationship: req.Relationship,
		Reminder:     req.Reminder,
	})
	if errors.Is(err, storage.ErrNotFound) {
		respondError(c, http.StatusNotFound, "Person not found")
		return
	}
	if err != nil {
		respondInternal(c, "update person", err)
		return
	}
	respondOK(c, http.StatusOK, toPersonResponse(p))
}

// Delete removes the person and its photo. Timeline events that mention the
// person are kept.
func (h *PeopleHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "person")
	if !ok {
		return
	}

	kept, err := h.store.CountPersonEvents(c.Request.Context(), auth.UserID(c), id)
	if err != nil {
		respondInternal(c, "count person events", err)
		return
	}

	photoKey, err := h.store.DeletePerson(c.Request.Context(), auth.UserID(c), id)
	if errors.Is(err, storage.ErrNotFound) {
		respondError(c, http.StatusNotFound, "Person not found")
		return
	}
	if err != nil {
		respondInternal(c, "delete person", err)
		return
	}

	if photoKey != "" {
		if err := h.blobs.DeleteObject(c.Request.Context(), photoKey); err != nil {
			slog.Warn("delete person photo", "person_id", id, "key", photoKey, "error", err)
		}
	}
	respondMessage(c, http.StatusOK, dto.DeletePersonResponse{EventsKept: kept}, "Person deleted")
}

// UploadPhoto stores a new photo and replaces the person's face descriptor.
func (h *PeopleHandler) UploadPhoto(c *gin.Context) {
	id, ok := parseID(c, "person")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	userID := auth.UserID(c)

	p, err := h.store.GetPerson(ctx, userID, id)
	if err != nil {
		respondInternal(c, "get person", err)
		return
	}
	if p == nil {
		respondError(c, http.StatusNotFound, "Person not found")
		return
	}

	img, err := readImage(c, h.maxUpload)
	if err != nil {
		respondImageError(c, err)
		return
	}

	if h.Face == nil {
		respondError(c, http.StatusServiceUnavailable, "face recognition is not available")
		return
	}
	face, err := h.Face(img.Data)
	switch {
	case errors.Is(err, vision.ErrNoFace):
		respondError(c, http.StatusUnprocessableEntity, "No face detected in image")
		return
	case errors.Is(err, vision.ErrUnsupportedImage):
		respondError(c, http.StatusUnsupportedMediaType, err.Error())
		return
	case err != nil:
		respondInternal(c, "extract face", err)
		return
	}

	key := fmt.Sprintf("people/%s/%s%s", id, uuid.New(), img.Ext)
	if err := h.blobs.PutObject(ctx, key, img.Data, img.MIME); err != nil {
		respondInternal(c, "store photo", err)
		return
	}

	prev, err := h.store.SetPersonPhoto(ctx, userID, id, key, face.Embedding)
	if err != nil {
		h.deleteBlob(c, key)
		if errors.Is(err, storage.ErrNotFound) {
			respondError(c, http.StatusNotFound, "Person not found")
			return
		}
		respondInternal(c, "set person photo", err)
		return
	}
	if prev != "" && prev != key {
		h.deleteBlob(c, prev)
	}

	p.PhotoKey = key
	p.HasFace = true
	respondMessage(c, http.StatusOK, dto.PhotoUploadResponse{
		Person:    toPersonResponse(p),
		FaceScore: face.Score,
	}, "Photo updated for "+p.Name)
}

func (h *PeopleHandler) deleteBlob(c *gin.Context, key string) {
	if err := h.blobs.DeleteObject(c.Request.Context(), key); err != nil {
		slog.Warn("delete photo object", "key", key, "error", err)
	}
}

func (h *PeopleHandler) Photo(c *gin.Context) {
	id, ok := parseID(c, "person")
	if !ok {
		return
	}

	p, err := h.store.GetPerson(c.Request.Context(), auth.UserID(c), id)
	if err != nil {
		respondInternal(c, "get person", err)
		return
	}
	if p == nil || p.PhotoKey == "" {
		respondError(c, http.StatusNotFound, "Photo not found")
		return
	}

	data, contentType, err := h.blobs.GetObject(c.Request.Context(), p.PhotoKey)
	if err != nil {
		respondInternal(c, "get photo", err)
		return
	}
	c.Header("Cache-Control", "private, max-age=300")
	c.Data(http.StatusOK, contentType, data)
}

// Descriptors lists the stored face descriptors of the user's people.
func (h *PeopleHandler) Descriptors(c *gin.Context) {
	people, err := h.store.ListDescriptors(c.Request.Context(), auth.UserID(c))
	if err != nil {
		respondInternal(c, "list descriptors", err)
		return
	}

	resp := make([]dto.DescriptorResponse, 0, len(people))
	for _, p := range people {
		resp = append(resp, dto.DescriptorResponse{
			ID:           p.ID,
			Name:         p.Name,
			Relationship: p.Relationship,
			Descriptor:   p.Embedding,
		})
	}
	respondOK(c, http.StatusOK, resp)
}
