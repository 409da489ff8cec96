package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/your-org/facelink/internal/auth"
	"github.com/your-org/facelink/internal/models"
	"github.com/your-org/facelink/pkg/dto"
)

const defaultHelpNote = "User pressed help button"

type HelpHandler struct {
	settings SettingsStore
	recorder EventRecorder
	defaults models.Settings
}

func NewHelpHandler(settings SettingsStore, recorder EventRecorder, defaults models.Settings) *HelpHandler {
	return &HelpHandler{settings: settings, recorder: recorder, defaults: defaults}
}

// Trigger logs a confused event and returns everything the help screen
// shows: where home is, who to call and a reassuring message.
func (h *HelpHandler) Trigger(c *gin.Context) {
	var req dto.HelpRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
	}
	notes := strings.TrimSpace(req.Notes)
	if notes == "" {
		notes = defaultHelpNote
	}

	ctx := c.Request.Context()
	userID := auth.UserID(c)

	st, err := h.settings.GetOrCreateSettings(ctx, userID, h.defaults)
	if err != nil {
		respondInternal(c, "get settings", err)
		return
	}

	ev, err := h.recorder.Record(ctx, userID, models.EventConfused, nil, notes, nil)
	if err != nil {
		respondInternal(c, "record help event", err)
		return
	}

	respondMessage(c, http.StatusOK, dto.HelpResponse{
		Message:      st.ReassuranceMessage,
		HomeLabel:    st.HomeLabel,
		HomeAddress:  st.HomeAddress,
		MapLatitude:  st.Latitude,
		MapLongitude: st.Longitude,
		Caregivers:   toCaregiverResponses(st.Caregivers),
		Event:        EventResponse(ev),
	}, "You are at "+st.HomeLabel+". "+st.ReassuranceMessage)
}
