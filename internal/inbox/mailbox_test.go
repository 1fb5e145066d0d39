package inbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/subhive-systems/subhive/internal/models"
)

func seedMailbox(t *testing.T) (*Service, *mockEmailStore, []*models.EmailMessage) {
	t.Helper()
	emails := newMockEmailStore()
	svc := NewService(newMockUserStore(), emails, &mockDestinationStore{}, nil)

	var stored []*models.EmailMessage
	for i := 0; i < 3; i++ {
		e, err := emails.CreateEmail(context.Background(), models.EmailCreateParams{
			UserID:  1,
			Subject: "msg",
		})
		if err != nil {
			t.Fatalf("seed failed: %v", err)
		}
		stored = append(stored, e)
	}
	return svc, emails, stored
}

func TestListEmailsReturnsUnreadCount(t *testing.T) {
	svc, emails, stored := seedMailbox(t)
	emails.SetEmailRead(context.Background(), stored[0].ID, true)

	list, unread, err := svc.ListEmails(context.Background(), 1, 10, 0)
	if err != nil {
		t.Fatalf("ListEmails failed: %v", err)
	}
	if len(list) != 3 {
		t.Errorf("listed %d emails, want 3", len(list))
	}
	if unread != 2 {
		t.Errorf("unread = %d, want 2", unread)
	}
}

func TestGetEmailEnforcesOwnership(t *testing.T) {
	svc, _, stored := seedMailbox(t)

	if _, err := svc.GetEmail(context.Background(), 1, stored[0].PublicID); err != nil {
		t.Fatalf("owner lookup failed: %v", err)
	}

	_, err := svc.GetEmail(context.Background(), 2, stored[0].PublicID)
	if !errors.Is(err, ErrEmailNotFound) {
		t.Fatalf("err = %v, want ErrEmailNotFound for other user", err)
	}

	_, err = svc.GetEmail(context.Background(), 1, uuid.New())
	if !errors.Is(err, ErrEmailNotFound) {
		t.Fatalf("err = %v, want ErrEmailNotFound for unknown ID", err)
	}
}

func TestSetReadAndStarred(t *testing.T) {
	svc, emails, stored := seedMailbox(t)

	if err := svc.SetRead(context.Background(), 1, stored[0].PublicID, true); err != nil {
		t.Fatalf("SetRead failed: %v", err)
	}
	if !emails.emails[0].IsRead {
		t.Error("email not marked read")
	}

	if err := svc.SetStarred(context.Background(), 1, stored[1].PublicID, true); err != nil {
		t.Fatalf("SetStarred failed: %v", err)
	}
	if !emails.emails[1].IsStarred {
		t.Error("email not starred")
	}

	if err := svc.SetRead(context.Background(), 1, stored[0].PublicID, false); err != nil {
		t.Fatalf("SetRead(false) failed: %v", err)
	}
	if emails.emails[0].IsRead {
		t.Error("email still read after unread")
	}
}

func TestMarkAllRead(t *testing.T) {
	svc, emails, _ := seedMailbox(t)

	if err := svc.MarkAllRead(context.Background(), 1); err != nil {
		t.Fatalf("MarkAllRead failed: %v", err)
	}
	for _, e := range emails.emails {
		if !e.IsRead {
			t.Errorf("email %d still unread", e.ID)
		}
	}
}

func TestDeleteEmail(t *testing.T) {
	svc, emails, stored := seedMailbox(t)

	if err := svc.DeleteEmail(context.Background(), 1, stored[1].PublicID); err != nil {
		t.Fatalf("DeleteEmail failed: %v", err)
	}
	if len(emails.emails) != 2 {
		t.Errorf("%d emails remain, want 2", len(emails.emails))
	}

	err := svc.DeleteEmail(context.Background(), 2, stored[0].PublicID)
	if !errors.Is(err, ErrEmailNotFound) {
		t.Fatalf("cross-user delete err = %v, want ErrEmailNotFound", err)
	}
}

func TestCleanupDeletesOldEmails(t *testing.T) {
	svc, emails, _ := seedMailbox(t)
	emails.emails[0].ReceivedAt = time.Now().Add(-40 * 24 * time.Hour)

	deleted, err := svc.Cleanup(context.Background(), 1, 30*24*time.Hour)
	if err != nil {
		t.Fatalf("Cleanup failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}
	if len(emails.emails) != 2 {
		t.Errorf("%d emails remain, want 2", len(emails.emails))
	}
}
