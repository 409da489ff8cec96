package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/your-org/facelink/internal/auth"
	"github.com/your-org/facelink/internal/models"
	"github.com/your-org/facelink/internal/storage"
	"github.com/your-org/facelink/pkg/dto"
)

const (
	defaultUpcomingDays  = 7
	defaultUpcomingLimit = 10
)

type TaskHandler struct {
	store TaskStore
	clock clock
}

func NewTaskHandler(store TaskStore, loc *time.Location) *TaskHandler {
	return &TaskHandler{store: store, clock: newClock(loc)}
}

// List returns the tasks of one date, today by default, ordered by time.
func (h *TaskHandler) List(c *gin.Context) {
	var q dto.TaskQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err)
		return
	}

	date := h.clock.today()
	if q.Date != "" {
		date, _ = models.ParseDate(q.Date)
	}

	tasks, err := h.store.ListTasksByDate(c.Request.Context(), auth.UserID(c), date)
	if err != nil {
		respondInternal(c, "list tasks", err)
		return
	}
	respondOK(c, http.StatusOK, toTaskResponses(tasks))
}

// Upcoming returns incomplete tasks from today through today+days.
func (h *TaskHandler) Upcoming(c *gin.Context) {
	var q dto.UpcomingQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err)
		return
	}
	if q.Days == 0 {
		q.Days = defaultUpcomingDays
	}
	if q.Limit == 0 {
		q.Limit = defaultUpcomingLimit
	}

	from := h.clock.today()
	to := from.AddDate(0, 0, q.Days)

	tasks, err := h.store.ListUpcomingTasks(c.Request.Context(), auth.UserID(c), from, to, q.Limit)
	if err != nil {
		respondInternal(c, "list upcoming tasks", err)
		return
	}
	respondOK(c, http.StatusOK, toTaskResponses(tasks))
}

func (h *TaskHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "task")
	if !ok {
		return
	}

	t, err := h.store.GetTask(c.Request.Context(), auth.UserID(c), id)
	if err != nil {
		respondInternal(c, "get task", err)
		return
	}
	if t == nil {
		respondError(c, http.StatusNotFound, "Task not found")
		return
	}
	respondOK(c, http.StatusOK, TaskResponse(t))
}

func (h *TaskHandler) Create(c *gin.Context) {
	var req dto.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	// Both were checked by the binding rules.
	tod, _ := models.ParseTimeOfDay(req.Time)
	date, _ := models.ParseDate(req.Date)

	t := &models.Task{
		UserID:      auth.UserID(c),
		Title:       req.Title,
		Description: req.Description,
		TimeOfDay:   tod,
		Date:        date,
		Completed:   req.Completed,
		Reminder:    req.Reminder,
	}
	if err := h.store.CreateTask(c.Request.Context(), t); err != nil {
		respondInternal(c, "create task", err)
		return
	}
	respondMessage(c, http.StatusCreated, TaskResponse(t), "Task added")
}

// Update applies a partial update. Every field is validated before the
// single write, so a bad field leaves the task untouched.
func (h *TaskHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "task")
	if !ok {
		return
	}

	var req dto.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	patch := models.TaskPatch{
		Title:       req.Title,
		Description: req.Description,
		Completed:   req.Completed,
		Reminder:    req.Reminder,
	}
	if req.Time != nil {
		tod, _ := models.ParseTimeOfDay(*req.Time)
		patch.TimeOfDay = &tod
	}
	if req.Date != nil {
		date, _ := models.ParseDate(*req.Date)
		patch.Date = &date
	}

	t, err := h.store.UpdateTask(c.Request.Context(), auth.UserID(c), id, patch)
	if errors.Is(err, storage.ErrNotFound) {
		respondError(c, http.StatusNotFound, "Task not found")
		return
	}
	if err != nil {
		respondInternal(c, "update task", err)
		return
	}
	respondOK(c, http.StatusOK, TaskResponse(t))
}

// Toggle flips completion atomically.
func (h *TaskHandler) Toggle(c *gin.Context) {
	id, ok := parseID(c, "task")
	if !ok {
		return
	}

	t, err := h.store.ToggleTask(c.Request.Context(), auth.UserID(c), id)
	if errors.Is(err, storage.ErrNotFound) {
		respondError(c, http.StatusNotFound, "Task not found")
		return
	}
	if err != nil {
		respondInternal(c, "toggle task", err)
		return
	}
	respondOK(c, http.StatusOK, TaskResponse(t))
}

func (h *TaskHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "task")
	if !ok {
		return
	}

	err := h.store.DeleteTask(c.Request.Context(), auth.UserID(c), id)
	if errors.Is(err, storage.ErrNotFound) {
		respondError(c, http.StatusNotFound, "Task not found")
		return
	}
	if err != nil {
		respondInternal(c, "delete task", err)
		return
	}
	respondMessage(c, http.StatusOK, nil, "Task deleted")
}
