package reminder

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/your-org/facelink/internal/models"
	"github.com/your-org/facelink/internal/observability"
)

// TaskSource lists incomplete reminder tasks due on a date within a
// time-of-day window.
type TaskSource interface {
	ListDueReminders(ctx context.Context, date time.Time, fromTime, toTime string) ([]models.Task, error)
}

// Notifier delivers one reminder.
type Notifier interface {
	Notify(ctx context.Context, task models.Task) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, task models.Task) error

func (f NotifierFunc) Notify(ctx context.Context, task models.Task) error { return f(ctx, task) }

// Scheduler periodically notifies tasks whose time falls within the lead
// window. Each task is notified at most once per date.
type Scheduler struct {
	source   TaskSource
	notifier Notifier
	interval time.Duration
	lead     time.Duration
	loc      *time.Location
	now      func() time.Time

	mu   sync.Mutex
	sent map[string]time.Time // task@date -> date
}

func NewScheduler(source TaskSource, notifier Notifier, interval, lead time.Duration, loc *time.Location) *Scheduler {
	return &Scheduler{
		source:   source,
		notifier: notifier,
		interval: interval,
		lead:     lead,
		loc:      loc,
		now:      time.Now,
		sent:     make(map[string]time.Time),
	}
}

// Run ticks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	slog.Info("reminder scheduler started", "interval", s.interval, "lead", s.lead)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.RunOnce(ctx); err != nil {
				slog.Warn("reminder tick", "error", err)
			}
		}
	}
}

// RunOnce notifies every due task not yet notified today.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	now := s.now().In(s.loc)
	date := models.DateOf(now)
	from, to := Window(now, s.lead)

	tasks, err := s.source.ListDueReminders(ctx, date, from, to)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, d := range s.sent {
		if !d.Equal(date) {
			delete(s.sent, k)
		}
	}

	for _, task := range tasks {
		key := task.ID.String() + "@" + date.Format(models.DateLayout)
		if _, done := s.sent[key]; done {
			continue
		}
		if err := s.notifier.Notify(ctx, task); err != nil {
			slog.Warn("send task reminder", "task_id", task.ID, "error", err)
			continue
		}
		s.sent[key] = date
		observability.RemindersSent.Inc()
	}
	return nil
}

// Window returns the [from, to] time-of-day bounds for reminders due within
// lead of now. The window never crosses midnight.
func Window(now time.Time, lead time.Duration) (string, string) {
	from := now.Format(models.TimeOfDayLayout)
	end := now.Add(lead)
	if end.YearDay() != now.YearDay() || end.Year() != now.Year() {
		return from, "23:59"
	}
	return from, end.Format(models.TimeOfDayLayout)
}
