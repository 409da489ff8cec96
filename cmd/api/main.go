package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/your-org/facelink/internal/api"
	"github.com/your-org/facelink/internal/api/handlers"
	"github.com/your-org/facelink/internal/api/ws"
	"github.com/your-org/facelink/internal/config"
	"github.com/your-org/facelink/internal/models"
	"github.com/your-org/facelink/internal/observability"
	"github.com/your-org/facelink/internal/queue"
	"github.com/your-org/facelink/internal/recognition"
	"github.com/your-org/facelink/internal/reminder"
	"github.com/your-org/facelink/internal/storage"
	"github.com/your-org/facelink/internal/timeline"
	"github.com/your-org/facelink/internal/vision"
	"github.com/your-org/facelink/pkg/dto"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	observability.SetupLogger(cfg.Logging.Level, cfg.Logging.Format)

	if err := run(cfg); err != nil {
		slog.Error("facelink api stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("starting FaceLink API", "port", cfg.Server.Port)

	loc, err := cfg.Server.Location()
	if err != nil {
		return err
	}

	// Connect to Postgres
	db, err := storage.NewPostgresStore(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if err := db.EnsureUser(ctx, cfg.Server.DefaultUserID); err != nil {
		return fmt.Errorf("ensure default user: %w", err)
	}

	// Connect to MinIO
	minioStore, err := storage.NewMinIOStore(cfg.MinIO)
	if err != nil {
		return fmt.Errorf("connect to minio: %w", err)
	}
	if err := minioStore.EnsureBucket(ctx); err != nil {
		slog.Warn("ensure minio bucket", "error", err)
	}

	// Connect to NATS
	producer, err := queue.NewProducer(cfg.NATS.URL)
	if err != nil {
		return fmt.Errorf("connect to nats: %w", err)
	}
	defer producer.Close()

	if err := producer.EnsureStreams(ctx); err != nil {
		slog.Warn("ensure nats streams", "error", err)
	}

	consumer, err := queue.NewConsumer(cfg.NATS.URL)
	if err != nil {
		return fmt.Errorf("create consumer: %w", err)
	}
	defer consumer.Close()

	hub := ws.NewHub()

	// Face models are optional; without them recognition reports no match
	// and photo uploads answer 503.
	var (
		faceFn  handlers.FaceFunc
		embedFn recognition.EmbedFunc
	)
	if destroy, err := vision.InitRuntime(cfg.Vision.ONNXLibPath); err != nil {
		slog.Warn("onnx runtime unavailable, face recognition disabled", "error", err)
	} else {
		defer destroy()
		faces, err := vision.NewFaceEmbedder(cfg.Vision)
		if err != nil {
			slog.Warn("face models unavailable, face recognition disabled", "error", err)
		} else {
			defer faces.Close()
			faceFn = faces.Embed
			embedFn = func(img []byte) ([]float32, error) {
				f, err := faces.Embed(img)
				if err != nil {
					return nil, err
				}
				return f.Embedding, nil
			}
			slog.Info("face models loaded")
		}
	}

	recorder := timeline.NewRecorder(db, producer)
	matcher := recognition.NewEmbeddingMatcher(embedFn, db, cfg.Recognition.Threshold)
	svc := recognition.NewService(matcher, recorder, cfg.Recognition.MatchTimeout)
	sessions := recognition.NewSessions(svc, cfg.Recognition, func(s *recognition.Session, out recognition.Outcome) {
		resp, _ := handlers.RecognitionPayload(out)
		hub.Broadcast(dto.WSEvent{
			Type:     dto.WSRecognition,
			UserID:   s.UserID,
			DeviceID: s.DeviceID,
			Data:     resp,
		})
	})
	defer sessions.Close()

	scheduler := reminder.NewScheduler(db, reminder.NotifierFunc(producer.PublishReminder),
		cfg.Reminder.Interval, cfg.Reminder.Lead, loc)

	router, err := api.NewRouter(api.RouterConfig{
		APIKey:         cfg.Server.APIKey,
		DefaultUserID:  cfg.Server.DefaultUserID,
		CORSOrigins:    cfg.Server.CORSOrigins,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		Location:       loc,
		Store:          db,
		Blobs:          minioStore,
		Recorder:       recorder,
		Defaults:       defaultSettings(cfg.Defaults),
		Sessions:       sessions,
		PollInterval:   cfg.Recognition.PollInterval,
		Face:           faceFn,
		Limiter:        api.NewRateLimiter(cfg.Recognition.RatePerSecond, cfg.Recognition.Burst),
		Hub:            hub,
		Checks: []handlers.Check{
			{Name: "postgres", Ping: db.Ping},
			{Name: "minio", Ping: minioStore.Ping},
			{Name: "nats", Ping: func(context.Context) error { return producer.Ping() }},
		},
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})

	// Timeline events and reminders travel through JetStream and are pushed
	// to the user's connected devices.
	if err := consumer.ConsumeTimeline(gctx, "api-timeline", func(_ context.Context, ev models.TimelineEvent) error {
		hub.Broadcast(dto.WSEvent{Type: dto.WSTimelineEvent, UserID: ev.UserID, Data: handlers.EventResponse(&ev)})
		return nil
	}); err != nil {
		slog.Warn("start timeline consumer", "error", err)
	}
	if err := consumer.ConsumeReminders(gctx, "api-reminders", func(_ context.Context, task models.Task) error {
		hub.Broadcast(dto.WSEvent{Type: dto.WSTaskReminder, UserID: task.UserID, Data: handlers.TaskResponse(&task)})
		return nil
	}); err != nil {
		slog.Warn("start reminder consumer", "error", err)
	}

	g.Go(func() error {
		return scheduler.Run(gctx)
	})

	g.Go(func() error {
		slog.Info("API server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down API server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	err = g.Wait()
	slog.Info("API server stopped")
	return err
}

func defaultSettings(d config.DefaultsConfig) models.Settings {
	return models.Settings{
		HomeLabel:          d.HomeLabel,
		HomeAddress:        d.HomeAddress,
		ReassuranceMessage: d.ReassuranceMessage,
		Latitude:           d.Latitude,
		Longitude:          d.Longitude,
	}
}
