package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/your-org/facelink/internal/auth"
	"github.com/your-org/facelink/internal/recognition"
	"github.com/your-org/facelink/pkg/dto"
)

type RecognitionHandler struct {
	sessions     *recognition.Sessions
	pollInterval time.Duration
	maxUpload    int64
}

func NewRecognitionHandler(sessions *recognition.Sessions, pollInterval time.Duration, maxUpload int64) *RecognitionHandler {
	return &RecognitionHandler{sessions: sessions, pollInterval: pollInterval, maxUpload: maxUpload}
}

// Recognize runs one attempt on the device's session. A second request
// while one is running is rejected with 409 and evaluates nothing.
func (h *RecognitionHandler) Recognize(c *gin.Context) {
	img, err := readImage(c, h.maxUpload)
	if err != nil {
		respondImageError(c, err)
		return
	}

	out, err := h.sessions.Recognize(c.Request.Context(), auth.UserID(c), auth.DeviceID(c), img.Data)
	if errors.Is(err, recognition.ErrAttemptInFlight) {
		respondError(c, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		respondInternal(c, "recognize", err)
		return
	}

	resp, msg := RecognitionPayload(out)
	respondMessage(c, http.StatusOK, resp, msg)
}

// RecognitionPayload renders an attempt outcome for HTTP and WebSocket
// clients, with the sentence to announce.
func RecognitionPayload(out recognition.Outcome) (dto.RecognizeResponse, string) {
	var resp dto.RecognizeResponse
	if out.Event != nil {
		ev := EventResponse(out.Event)
		resp.TimelineEvent = &ev
	}

	d := out.Decision
	if d.Person == nil {
		return resp, "I don't recognize this person"
	}

	p := toPersonResponse(d.Person)
	conf := d.Confidence
	resp.Recognized = true
	resp.ShouldAnnounce = d.ShouldAnnounce
	resp.Person = &p
	resp.Confidence = &conf

	msg := "It looks like " + d.Person.Name + " is here."
	if d.ShouldAnnounce {
		resp.Announcement = msg
		if d.Person.Relationship != "" {
			resp.Announcement = "This is " + d.Person.Name + ", your " + d.Person.Relationship + "."
		}
	}
	return resp, msg
}

func (h *RecognitionHandler) StartVisitor(c *gin.Context) {
	st := h.sessions.StartVisitor(c.Request.Context(), auth.UserID(c), auth.DeviceID(c))
	respondMessage(c, http.StatusOK, h.status(c, st), "Visitor mode started")
}

func (h *RecognitionHandler) StopVisitor(c *gin.Context) {
	st := h.sessions.StopVisitor(auth.UserID(c), auth.DeviceID(c))
	respondMessage(c, http.StatusOK, h.status(c, st), "Visitor mode stopped")
}

func (h *RecognitionHandler) VisitorStatus(c *gin.Context) {
	st := h.sessions.Status(auth.UserID(c), auth.DeviceID(c))
	respondOK(c, http.StatusOK, h.status(c, st))
}

// PutFrame buffers the device's latest camera frame for the poller.
func (h *RecognitionHandler) PutFrame(c *gin.Context) {
	img, err := readImage(c, h.maxUpload)
	if err != nil {
		respondImageError(c, err)
		return
	}

	userID, deviceID := auth.UserID(c), auth.DeviceID(c)
	h.sessions.PutFrame(userID, deviceID, img.Data)
	respondOK(c, http.StatusAccepted, h.status(c, h.sessions.Status(userID, deviceID)))
}

func (h *RecognitionHandler) status(c *gin.Context, st recognition.VisitorStatus) dto.VisitorStatusResponse {
	resp := dto.VisitorStatusResponse{
		DeviceID:       auth.DeviceID(c),
		Active:         st.Active,
		PollIntervalMS: h.pollInterval.Milliseconds(),
		InFlight:       st.InFlight,
		FrameBuffered:  st.FrameBuffered,
	}
	if !st.StartedAt.IsZero() {
		resp.StartedAt = st.StartedAt.Format(timestampLayout)
	}
	if !st.LastAttemptAt.IsZero() {
		resp.LastAttemptAt = st.LastAttemptAt.Format(timestampLayout)
	}
	return resp
}
