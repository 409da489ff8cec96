package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/your-org/facelink/internal/auth"
	"github.com/your-org/facelink/internal/models"
	"github.com/your-org/facelink/internal/timeline"
	"github.com/your-org/facelink/pkg/dto"
)

const (
	rangeDay  = "day"
	rangeWeek = "week"
)

type TimelineHandler struct {
	events EventLister
	clock  clock
}

func NewTimelineHandler(events EventLister, loc *time.Location) *TimelineHandler {
	return &TimelineHandler{events: events, clock: newClock(loc)}
}

// List returns the events of a day or of the Monday-based week containing
// date, newest first.
func (h *TimelineHandler) List(c *gin.Context) {
	var q dto.TimelineQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err)
		return
	}
	h.respond(c, q)
}

func (h *TimelineHandler) Today(c *gin.Context) {
	h.respond(c, dto.TimelineQuery{Range: rangeDay})
}

func (h *TimelineHandler) respond(c *gin.Context, q dto.TimelineQuery) {
	date := h.clock.today()
	if q.Date != "" {
		date, _ = models.ParseDate(q.Date)
	}
	if q.Range == "" {
		q.Range = rangeDay
	}

	day := h.clock.inZone(date)
	from, to := timeline.DayRange(day, h.clock.loc)
	if q.Range == rangeWeek {
		from, to = timeline.WeekRange(day, h.clock.loc)
	}

	events, err := h.events.ListEvents(c.Request.Context(), auth.UserID(c), from, to)
	if err != nil {
		respondInternal(c, "list timeline", err)
		return
	}

	resp := make([]dto.TimelineEventResponse, 0, len(events))
	for i := range events {
		resp = append(resp, EventResponse(&events[i]))
	}
	respondOK(c, http.StatusOK, dto.TimelineResponse{
		Date:   date.Format(models.DateLayout),
		Range:  q.Range,
		From:   from.Format(timestampLayout),
		To:     to.Format(timestampLayout),
		Events: resp,
		Total:  len(resp),
	})
}
