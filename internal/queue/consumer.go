package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/your-org/facelink/internal/models"
)

type Consumer struct {
	nc *nats.Conn
	js jetstream.JetStream
}

func NewConsumer(natsURL string) (*Consumer, error) {
	nc, js, err := connect(natsURL)
	if err != nil {
		return nil, err
	}
	return &Consumer{nc: nc, js: js}, nil
}

// ConsumeTimeline delivers new timeline events to handler until ctx is done.
func (c *Consumer) ConsumeTimeline(ctx context.Context, consumerName string, handler func(context.Context, models.TimelineEvent) error) error {
	return c.consume(ctx, TimelineStreamName, TimelineSubjectBase+".>", consumerName, func(ctx context.Context, data []byte) error {
		var ev models.TimelineEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return fmt.Errorf("decode timeline event: %w", err)
		}
		return handler(ctx, ev)
	})
}

// ConsumeReminders delivers due task reminders to handler until ctx is done.
func (c *Consumer) ConsumeReminders(ctx context.Context, consumerName string, handler func(context.Context, models.Task) error) error {
	return c.consume(ctx, RemindersStreamName, RemindersSubjectBase+".>", consumerName, func(ctx context.Context, data []byte) error {
		var task models.Task
		if err := json.Unmarshal(data, &task); err != nil {
			return fmt.Errorf("decode reminder: %w", err)
		}
		return handler(ctx, task)
	})
}

func (c *Consumer) consume(ctx context.Context, streamName, filter, consumerName string, handle func(context.Context, []byte) error) error {
	stream, err := c.js.Stream(ctx, streamName)
	if err != nil {
		return fmt.Errorf("get stream %s: %w", streamName, err)
	}

	cons, err := stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		Name:              consumerName,
		Durable:           consumerName,
		AckPolicy:         jetstream.AckExplicitPolicy,
		AckWait:           10 * time.Second,
		MaxDeliver:        3,
		FilterSubject:     filter,
		DeliverPolicy:     jetstream.DeliverNewPolicy,
		InactiveThreshold: time.Hour,
	})
	if err != nil {
		return fmt.Errorf("create consumer %s: %w", consumerName, err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			batch, err := cons.Fetch(10, jetstream.FetchMaxWait(5*time.Second))
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				slog.Warn("fetch messages", "stream", streamName, "error", err)
				time.Sleep(time.Second)
				continue
			}

			for msg := range batch.Messages() {
				if err := handle(ctx, msg.Data()); err != nil {
					slog.Error("process message", "stream", streamName, "subject", msg.Subject(), "error", err)
					_ = msg.Nak()
				} else {
					_ = msg.Ack()
				}
			}
		}
	}()

	slog.Info("consumer started", "stream", streamName, "consumer", consumerName)
	return nil
}

func (c *Consumer) Close() {
	c.nc.Close()
}
