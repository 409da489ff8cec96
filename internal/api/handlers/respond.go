package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/your-org/facelink/pkg/dto"
)

const timestampLayout = time.RFC3339

func respondOK(c *gin.Context, status int, data any) {
	c.JSON(status, dto.OK(data))
}

func respondMessage(c *gin.Context, status int, data any, msg string) {
	env := dto.OK(data)
	env.Message = msg
	c.JSON(status, env)
}

func respondError(c *gin.Context, status int, msg string) {
	c.JSON(status, dto.Fail(msg))
}

// respondInternal logs err and hides it from the client.
func respondInternal(c *gin.Context, msg string, err error) {
	slog.Error(msg, "path", c.FullPath(), "error", err)
	respondError(c, http.StatusInternalServerError, "internal error")
}

// respondBindError reports a binding failure as 400, listing the offending
// fields when the failure came from validation.
func respondBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		respondError(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	details := make([]dto.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, dto.FieldError{
			Field: fe.Field(),
			Rule:  fe.Tag(),
			Param: fe.Param(),
		})
	}
	c.JSON(http.StatusBadRequest, dto.Envelope{
		Success: false,
		Error:   "validation failed",
		Details: details,
	})
}

func parseID(c *gin.Context, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid "+what+" id")
		return uuid.Nil, false
	}
	return id, true
}
