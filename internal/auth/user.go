package auth

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/your-org/facelink/pkg/dto"
)

const (
	userIDHeader   = "X-User-ID"
	deviceIDHeader = "X-Device-ID"

	userIDKey   = "facelink.user_id"
	deviceIDKey = "facelink.device_id"

	// DefaultDeviceID is used when a client does not identify its device.
	DefaultDeviceID = "default"
	maxDeviceIDLen  = 64
)

// UserEnsurer creates the user row for an id seen for the first time.
type UserEnsurer interface {
	EnsureUser(ctx context.Context, id uuid.UUID) error
}

// UserMiddleware scopes the request to a user and a device. The user comes
// from X-User-ID or falls back to defaultUser; the device from X-Device-ID
// or the device_id query parameter.
func UserMiddleware(defaultUser uuid.UUID, users UserEnsurer) gin.HandlerFunc {
	var known sync.Map
	known.Store(defaultUser, struct{}{})

	return func(c *gin.Context) {
		userID := defaultUser
		if raw := c.GetHeader(userIDHeader); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil || id == uuid.Nil {
				c.AbortWithStatusJSON(http.StatusBadRequest, dto.Fail("invalid "+userIDHeader+" header"))
				return
			}
			userID = id
		}

		if _, ok := known.Load(userID); !ok && users != nil {
			if err := users.EnsureUser(c.Request.Context(), userID); err != nil {
				slog.Error("ensure user", "user_id", userID, "error", err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, dto.Fail("internal error"))
				return
			}
			known.Store(userID, struct{}{})
		}

		deviceID := c.GetHeader(deviceIDHeader)
		if deviceID == "" {
			deviceID = c.Query("device_id")
		}
		if deviceID == "" {
			deviceID = DefaultDeviceID
		}
		if len(deviceID) > maxDeviceIDLen {
			c.AbortWithStatusJSON(http.StatusBadRequest, dto.Fail("device id too long"))
			return
		}

		c.Set(userIDKey, userID)
		c.Set(deviceIDKey, deviceID)
		c.Next()
	}
}

// UserID returns the user the request is scoped to.
func UserID(c *gin.Context) uuid.UUID {
	if v, ok := c.Get(userIDKey); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}

// DeviceID returns the device the request came from.
func DeviceID(c *gin.Context) string {
	if v := c.GetString(deviceIDKey); v != "" {
		return v
	}
	return DefaultDeviceID
}
