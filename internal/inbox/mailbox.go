package inbox

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/subhive-systems/subhive/internal/models"
)

var ErrEmailNotFound = errors.New("email not found")

// ListEmails returns a page of the user's stored messages, newest first,
// together with the unread count for the whole mailbox.
func (s *Service) ListEmails(ctx context.Context, userID int64, limit, offset int) ([]models.EmailMessage, int, error) {
	emails, err := s.emails.ListEmailsByUserID(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("listing emails: %w", err)
	}
	unread, err := s.emails.CountUnreadByUserID(ctx, userID)
	if err != nil {
		return nil, 0, fmt.Errorf("counting unread emails: %w", err)
	}
	return emails, unread, nil
}

// GetEmail returns one of the user's messages by its public ID.
func (s *Service) GetEmail(ctx context.Context, userID int64, publicID uuid.UUID) (*models.EmailMessage, error) {
	email, err := s.emails.GetEmailByPublicID(ctx, publicID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEmailNotFound
		}
		return nil, fmt.Errorf("looking up email: %w", err)
	}
	if email.UserID != userID {
		return nil, ErrEmailNotFound
	}
	return email, nil
}

// SetRead flags one of the user's messages as read or unread.
func (s *Service) SetRead(ctx context.Context, userID int64, publicID uuid.UUID, isRead bool) error {
	email, err := s.GetEmail(ctx, userID, publicID)
	if err != nil {
		return err
	}
	if err := s.emails.SetEmailRead(ctx, email.ID, isRead); err != nil {
		return fmt.Errorf("updating read flag: %w", err)
	}
	return nil
}

// SetStarred flags one of the user's messages as starred or unstarred.
func (s *Service) SetStarred(ctx context.Context, userID int64, publicID uuid.UUID, isStarred bool) error {
	email, err := s.GetEmail(ctx, userID, publicID)
	if err != nil {
		return err
	}
	if err := s.emails.SetEmailStarred(ctx, email.ID, isStarred); err != nil {
		return fmt.Errorf("updating starred flag: %w", err)
	}
	return nil
}

// MarkAllRead marks every message in the user's mailbox as read.
func (s *Service) MarkAllRead(ctx context.Context, userID int64) error {
	if err := s.emails.MarkAllEmailsRead(ctx, userID); err != nil {
		return fmt.Errorf("marking all emails read: %w", err)
	}
	return nil
}

// DeleteEmail removes one of the user's messages.
func (s *Service) DeleteEmail(ctx context.Context, userID int64, publicID uuid.UUID) error {
	email, err := s.GetEmail(ctx, userID, publicID)
	if err != nil {
		return err
	}
	if err := s.emails.DeleteEmail(ctx, email.ID); err != nil {
		return fmt.Errorf("deleting email: %w", err)
	}
	return nil
}

// Cleanup deletes the user's messages received before the cutoff and
// returns how many were removed.
func (s *Service) Cleanup(ctx context.Context, userID int64, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	deleted, err := s.emails.DeleteEmailsOlderThan(ctx, userID, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleaning up emails: %w", err)
	}
	return deleted, nil
}
