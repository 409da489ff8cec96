package api

import (
	"fmt"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/your-org/facelink/internal/api/handlers"
	"github.com/your-org/facelink/internal/api/ws"
	"github.com/your-org/facelink/internal/auth"
	"github.com/your-org/facelink/internal/models"
	"github.com/your-org/facelink/internal/recognition"
)

// Store is everything the HTTP layer needs from the database.
type Store interface {
	handlers.PersonStore
	handlers.TaskStore
	handlers.EventLister
	handlers.SettingsStore
	handlers.LocationStore
	auth.UserEnsurer
}

type RouterConfig struct {
	APIKey         string
	DefaultUserID  uuid.UUID
	CORSOrigins    []string
	MaxUploadBytes int64
	Location       *time.Location

	Store    Store
	Blobs    handlers.BlobStore
	Recorder handlers.EventRecorder
	Defaults models.Settings

	Sessions     *recognition.Sessions
	PollInterval time.Duration
	// Face extracts a face from an image; nil when the models are not loaded.
	Face    handlers.FaceFunc
	Limiter *RateLimiter

	Hub    *ws.Hub
	Checks []handlers.Check
}

func NewRouter(cfg RouterConfig) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)

	if err := handlers.RegisterValidators(); err != nil {
		return nil, fmt.Errorf("register validators: %w", err)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(LoggingMiddleware())
	r.Use(corsMiddleware(cfg.CORSOrigins))

	// System endpoints (no auth)
	systemH := handlers.NewSystemHandler(cfg.Checks...)
	r.GET("/healthz", systemH.Healthz)
	r.GET("/readyz", systemH.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 (with auth)
	v1 := r.Group("/v1")
	v1.Use(auth.APIKeyMiddleware(cfg.APIKey))
	v1.Use(auth.UserMiddleware(cfg.DefaultUserID, cfg.Store))

	// WebSocket
	v1.GET("/ws", cfg.Hub.HandleWS)

	// People
	peopleH := handlers.NewPeopleHandler(cfg.Store, cfg.Blobs, cfg.MaxUploadBytes)
	peopleH.Face = cfg.Face
	v1.GET("/people", peopleH.List)
	v1.POST("/people", peopleH.Create)
	v1.GET("/people/descriptors", peopleH.Descriptors)
	v1.GET("/people/:id", peopleH.Get)
	v1.PUT("/people/:id", peopleH.Update)
	v1.DELETE("/people/:id", peopleH.Delete)
	v1.POST("/people/:id/photo", peopleH.UploadPhoto)
	v1.GET("/people/:id/photo", peopleH.Photo)

	// Recognition & visitor mode
	recH := handlers.NewRecognitionHandler(cfg.Sessions, cfg.PollInterval, cfg.MaxUploadBytes)
	throttled := v1.Group("")
	if cfg.Limiter != nil {
		throttled.Use(cfg.Limiter.Middleware())
	}
	throttled.POST("/recognize", recH.Recognize)
	throttled.PUT("/visitor/frame", recH.PutFrame)
	v1.GET("/visitor", recH.VisitorStatus)
	v1.POST("/visitor/start", recH.StartVisitor)
	v1.POST("/visitor/stop", recH.StopVisitor)

	// Timeline
	timelineH := handlers.NewTimelineHandler(cfg.Store, cfg.Location)
	v1.GET("/timeline", timelineH.List)
	v1.GET("/timeline/today", timelineH.Today)

	// Tasks
	taskH := handlers.NewTaskHandler(cfg.Store, cfg.Location)
	v1.GET("/tasks", taskH.List)
	v1.POST("/tasks", taskH.Create)
	v1.GET("/tasks/upcoming", taskH.Upcoming)
	v1.GET("/tasks/:id", taskH.Get)
	v1.PUT("/tasks/:id", taskH.Update)
	v1.DELETE("/tasks/:id", taskH.Delete)
	v1.POST("/tasks/:id/toggle", taskH.Toggle)

	// Settings & caregivers
	settingsH := handlers.NewSettingsHandler(cfg.Store, cfg.Defaults)
	v1.GET("/settings", settingsH.Get)
	v1.PUT("/settings", settingsH.Update)
	v1.GET("/settings/caregivers", settingsH.ListCaregivers)
	v1.POST("/settings/caregivers", settingsH.CreateCaregiver)
	v1.PUT("/settings/caregivers/:id", settingsH.UpdateCaregiver)
	v1.DELETE("/settings/caregivers/:id", settingsH.DeleteCaregiver)

	// Help
	helpH := handlers.NewHelpHandler(cfg.Store, cfg.Recorder, cfg.Defaults)
	v1.POST("/help", helpH.Trigger)

	// Locations
	locH := handlers.NewLocationHandler(cfg.Store)
	v1.GET("/locations", locH.List)
	v1.POST("/locations", locH.Create)
	v1.GET("/locations/:id", locH.Get)
	v1.PUT("/locations/:id", locH.Update)
	v1.DELETE("/locations/:id", locH.Delete)

	return r, nil
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	if len(origins) == 0 {
		return cors.Default()
	}
	cfg := cors.DefaultConfig()
	cfg.AllowOrigins = origins
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization", "X-API-Key", "X-User-ID", "X-Device-ID")
	cfg.MaxAge = 12 * time.Hour
	return cors.New(cfg)
}
