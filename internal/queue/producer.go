package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/your-org/facelink/internal/models"
)

const (
	TimelineStreamName   = "TIMELINE"
	TimelineSubjectBase  = "timeline"
	RemindersStreamName  = "REMINDERS"
	RemindersSubjectBase = "reminders"
)

// TimelineSubject is the subject carrying a user's timeline events.
func TimelineSubject(userID uuid.UUID) string {
	return TimelineSubjectBase + "." + userID.String()
}

// ReminderSubject is the subject carrying a user's task reminders.
func ReminderSubject(userID uuid.UUID) string {
	return RemindersSubjectBase + "." + userID.String()
}

func connect(natsURL string) (*nats.Conn, jetstream.JetStream, error) {
	nc, err := nats.Connect(natsURL,
		nats.Name("facelink"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to nats: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("create jetstream context: %w", err)
	}
	return nc, js, nil
}

type Producer struct {
	nc *nats.Conn
	js jetstream.JetStream
}

func NewProducer(natsURL string) (*Producer, error) {
	nc, js, err := connect(natsURL)
	if err != nil {
		return nil, err
	}
	return &Producer{nc: nc, js: js}, nil
}

// EnsureStreams creates the JetStream streams if they don't exist.
// Retries up to 30 times (1s apart) to ride out NATS startup.
func (p *Producer) EnsureStreams(ctx context.Context) error {
	streams := []jetstream.StreamConfig{
		{
			Name:        TimelineStreamName,
			Subjects:    []string{TimelineSubjectBase + ".>"},
			Retention:   jetstream.InterestPolicy,
			MaxAge:      24 * time.Hour,
			MaxMsgs:     1000000,
			Storage:     jetstream.FileStorage,
			Description: "Timeline events for live fan-out",
		},
		{
			Name:        RemindersStreamName,
			Subjects:    []string{RemindersSubjectBase + ".>"},
			Retention:   jetstream.InterestPolicy,
			MaxAge:      time.Hour,
			Storage:     jetstream.FileStorage,
			Duplicates:  24 * time.Hour,
			Description: "Due task reminders",
		},
	}

	const maxAttempts = 30
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		allOK := true
		for _, cfg := range streams {
			opCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			_, err := p.js.CreateOrUpdateStream(opCtx, cfg)
			cancel()
			if err != nil {
				allOK = false
				if attempt == maxAttempts {
					return fmt.Errorf("create stream %s: %w (after %d attempts)", cfg.Name, err, maxAttempts)
				}
				slog.Warn("ensure NATS stream (retrying...)", "name", cfg.Name, "attempt", attempt, "error", err)
				break
			}
			slog.Info("ensured NATS stream", "name", cfg.Name)
		}
		if allOK {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
		}
	}
	return nil
}

// PublishTimelineEvent publishes a stored event on its user's subject.
func (p *Producer) PublishTimelineEvent(ctx context.Context, ev *models.TimelineEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal timeline event: %w", err)
	}

	if _, err := p.js.Publish(ctx, TimelineSubject(ev.UserID), payload, jetstream.WithMsgID(ev.ID.String())); err != nil {
		return fmt.Errorf("publish timeline event: %w", err)
	}
	return nil
}

// PublishReminder publishes a due task. The message id makes a reminder
// for the same task and date a duplicate within the stream window.
func (p *Producer) PublishReminder(ctx context.Context, task models.Task) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal reminder: %w", err)
	}

	msgID := task.ID.String() + "@" + task.Date.Format(models.DateLayout)
	if _, err := p.js.Publish(ctx, ReminderSubject(task.UserID), payload, jetstream.WithMsgID(msgID)); err != nil {
		return fmt.Errorf("publish reminder: %w", err)
	}
	return nil
}

func (p *Producer) Ping() error {
	if !p.nc.IsConnected() {
		return fmt.Errorf("nats not connected")
	}
	return nil
}

func (p *Producer) Close() {
	p.nc.Close()
}
