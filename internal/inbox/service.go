package inbox

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/subhive-systems/subhive/internal/models"
	"github.com/subhive-systems/subhive/internal/store"
)

// Sentinel errors, each mapped to a fixed HTTP status by the webhook handler.
var (
	ErrMissingAddress     = errors.New("receiving address is required")
	ErrUserNotFound       = errors.New("user not found for receiving address")
	ErrForwardingDisabled = errors.New("email forwarding not enabled for this user")
	ErrQuotaExceeded      = errors.New("daily forwarding limit exceeded")
)

// Forwarder fans an accepted email out to the user's configured
// destinations. Delivery is best-effort: implementations log per-destination
// failures and never report them to the pipeline.
type Forwarder interface {
	Forward(ctx context.Context, destinations []models.ForwardingDestination, email *Email)
}

// NoopForwarder is a Forwarder that does nothing.
type NoopForwarder struct{}

func (NoopForwarder) Forward(_ context.Context, _ []models.ForwardingDestination, _ *Email) {}

// Result is the outcome of one accepted webhook request.
type Result struct {
	// EmailID is the public ID of the stored message; zero when skipped.
	EmailID uuid.UUID
	// Skipped reports that the email was accepted as a no-op (forwarded-
	// subject suppression): not stored, not counted, not dispatched.
	Skipped bool
}

// Service runs the webhook ingestion pipeline: resolve the receiving
// address, normalize the payload, apply policy, store the message, and fan
// out to forwarding destinations.
type Service struct {
	users        store.UserStore
	emails       store.EmailStore
	destinations store.DestinationStore
	forwarder    Forwarder
}

func NewService(users store.UserStore, emails store.EmailStore, destinations store.DestinationStore, forwarder Forwarder) *Service {
	if forwarder == nil {
		forwarder = NoopForwarder{}
	}
	return &Service{
		users:        users,
		emails:       emails,
		destinations: destinations,
		forwarder:    forwarder,
	}
}

// Ingest processes one inbound webhook payload addressed to receivingAddress.
func (s *Service) Ingest(ctx context.Context, receivingAddress string, payload map[string]any) (*Result, error) {
	receivingAddress = strings.TrimSpace(receivingAddress)
	if receivingAddress == "" {
		return nil, ErrMissingAddress
	}

	email, err := Normalize(payload)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByAccountEmail(ctx, receivingAddress)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("look up user by account email: %w", err)
	}

	if !user.InboxSettings.ForwardingEnabled {
		return nil, ErrForwardingDisabled
	}
	if user.InboxSettings.DailyForwardingCount >= user.InboxSettings.DailyForwardingLimit {
		slog.Warn("daily forwarding limit exceeded",
			"user_id", user.PublicID,
			"count", user.InboxSettings.DailyForwardingCount,
			"limit", user.InboxSettings.DailyForwardingLimit,
		)
		return nil, ErrQuotaExceeded
	}

	if user.InboxSettings.PreventForwardedEmails && isForwardedSubject(email.Subject) {
		slog.Info("skipping already forwarded email",
			"user_id", user.PublicID,
			"subject", email.Subject,
		)
		return &Result{Skipped: true}, nil
	}

	// Reserve the quota slot before inserting so concurrent deliveries
	// cannot race past the limit. A failed insert gives the slot back.
	ok, err := s.users.IncrementForwardingCount(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("increment forwarding count: %w", err)
	}
	if !ok {
		return nil, ErrQuotaExceeded
	}

	stored, err := s.emails.CreateEmail(ctx, models.EmailCreateParams{
		UserID:      user.ID,
		FromEmail:   email.From,
		FromName:    email.FromName,
		Subject:     email.Subject,
		TextBody:    email.TextBody,
		HTMLBody:    email.HTMLBody,
		Attachments: email.Attachments,
		IsRead:      user.InboxSettings.AutoMarkAsRead,
	})
	if err != nil {
		if decErr := s.users.DecrementForwardingCount(ctx, user.ID); decErr != nil {
			slog.Error("failed to release forwarding count after insert failure",
				"user_id", user.PublicID, "error", decErr)
		}
		return nil, fmt.Errorf("store email: %w", err)
	}

	destinations, err := s.destinations.ListDestinationsByUserID(ctx, user.ID)
	if err != nil {
		// The message is stored; a destination lookup failure must not
		// fail the request.
		slog.Error("failed to load forwarding destinations",
			"user_id", user.PublicID, "error", err)
	} else if len(destinations) > 0 {
		s.forwarder.Forward(ctx, destinations, email)
	}

	slog.Info("email stored",
		"email_id", stored.PublicID,
		"user_id", user.PublicID,
		"subject", email.Subject,
		"from", email.From,
	)

	return &Result{EmailID: stored.PublicID}, nil
}

func isForwardedSubject(subject string) bool {
	s := strings.ToLower(subject)
	return strings.HasPrefix(s, "fw:") || strings.HasPrefix(s, "fwd:")
}
