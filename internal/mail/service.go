package mail

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/subhive-systems/subhive/internal/models"
)

// Sender delivers a rendered email to one recipient.
type Sender interface {
	Send(to, subject, body string) error
}

// Service sends plan renewal reminders. It satisfies reminder.Notifier.
type Service struct {
	client Sender
}

// NewService creates a new mail Service that sends notifications via SMTP.
func NewService(client Sender) *Service {
	return &Service{client: client}
}

// NotifyRenewalDue emails the user a reminder that their plan payment is due.
func (s *Service) NotifyRenewalDue(ctx context.Context, user *models.User) error {
	subject := fmt.Sprintf("Payment reminder: %s plan due %s",
		user.Plan.Name, user.Plan.DueDate.Format("2 Jan 2006"))
	body := RenewalReminderBody(user.DisplayName, user.Plan.Name, user.Plan.Price, user.Plan.DueDate)

	if err := s.client.Send(user.Email, subject, body); err != nil {
		return fmt.Errorf("mail: failed to send reminder to %s: %w", user.Email, err)
	}

	slog.InfoContext(ctx, "sent renewal reminder",
		"user_id", user.PublicID,
		"plan", user.Plan.Name,
		"due_date", user.Plan.DueDate,
	)

	return nil
}
