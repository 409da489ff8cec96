package dto

import "github.com/google/uuid"

type CreateTaskRequest struct {
	Title       string `json:"title" binding:"required,max=200"`
	Description string `json:"description" binding:"max=2000"`
	Time        string `json:"time" binding:"required,timeofday"`
	Date        string `json:"date" binding:"required,isodate"`
	Completed   bool   `json:"completed"`
	Reminder    bool   `json:"reminder"`
}

type UpdateTaskRequest struct {
	Title       *string `json:"title" binding:"omitnil,min=1,max=200"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
	Time        *string `json:"time" binding:"omitnil,timeofday"`
	Date        *string `json:"date" binding:"omitnil,isodate"`
	Completed   *bool   `json:"completed"`
	Reminder    *bool   `json:"reminder"`
}

type TaskQuery struct {
	Date string `form:"date" binding:"omitempty,isodate"`
}

type UpcomingQuery struct {
	Days  int `form:"days" binding:"omitempty,min=1,max=90"`
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

type TaskResponse struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Time        string    `json:"time"`
	Date        string    `json:"date"`
	Completed   bool      `json:"completed"`
	Reminder    bool      `json:"reminder"`
	CreatedAt   string    `json:"created_at"`
	UpdatedAt   string    `json:"updated_at"`
}
