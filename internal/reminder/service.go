package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/subhive-systems/subhive/internal/models"
	"github.com/subhive-systems/subhive/internal/store"
)

// Notifier delivers one renewal reminder to a user.
type Notifier interface {
	NotifyRenewalDue(ctx context.Context, user *models.User) error
}

// NoopNotifier is a Notifier that does nothing.
type NoopNotifier struct{}

func (NoopNotifier) NotifyRenewalDue(_ context.Context, _ *models.User) error { return nil }

// Service runs the scheduled maintenance jobs: renewal reminders for plans
// coming due and the nightly reset of daily forwarding counters.
type Service struct {
	users    store.UserStore
	notifier Notifier
	leadDays int
	now      func() time.Time
}

func NewService(users store.UserStore, notifier Notifier, leadDays int) *Service {
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	if leadDays <= 0 {
		leadDays = 3
	}
	return &Service{
		users:    users,
		notifier: notifier,
		leadDays: leadDays,
		now:      time.Now,
	}
}

// SendDueReminders notifies every active user whose plan due date falls
// within the lead window. A failed notification is logged and does not stop
// the remaining users. It returns the number of reminders sent.
func (s *Service) SendDueReminders(ctx context.Context) (int, error) {
	from := s.now().Truncate(24 * time.Hour)
	to := from.AddDate(0, 0, s.leadDays)

	users, err := s.users.ListUsersWithPlanDueBetween(ctx, from, to)
	if err != nil {
		return 0, fmt.Errorf("listing users with due plans: %w", err)
	}

	sent := 0
	for i := range users {
		user := &users[i]
		if err := s.notifier.NotifyRenewalDue(ctx, user); err != nil {
			slog.Error("failed to send renewal reminder",
				"user_id", user.PublicID, "error", err)
			continue
		}
		sent++
	}
	return sent, nil
}

// ResetDailyCounts zeroes every user's daily forwarding counter. Scheduled
// at midnight; the webhook pipeline never resets the counter itself.
func (s *Service) ResetDailyCounts(ctx context.Context) error {
	n, err := s.users.ResetDailyForwardingCounts(ctx)
	if err != nil {
		return fmt.Errorf("resetting daily forwarding counts: %w", err)
	}
	slog.Info("reset daily forwarding counters", "users", n)
	return nil
}
