package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/subhive-systems/subhive/internal/models"
)

type EmailStore struct {
	db *sql.DB
}

func NewEmailStore(db *sql.DB) *EmailStore {
	return &EmailStore{db: db}
}

const emailColumns = `id, public_id, user_id, from_email, from_name, subject,
	text_body, html_body, attachments, is_read, is_starred,
	received_at, created_at, updated_at`

func (s *EmailStore) CreateEmail(ctx context.Context, params models.EmailCreateParams) (*models.EmailMessage, error) {
	attachments := params.Attachments
	if attachments == nil {
		attachments = []models.EmailAttachment{}
	}
	raw, err := json.Marshal(attachments)
	if err != nil {
		return nil, fmt.Errorf("marshal attachments: %w", err)
	}

	email := &models.EmailMessage{
		PublicID:    uuid.New(),
		UserID:      params.UserID,
		FromEmail:   params.FromEmail,
		FromName:    params.FromName,
		Subject:     params.Subject,
		TextBody:    params.TextBody,
		HTMLBody:    params.HTMLBody,
		Attachments: attachments,
		IsRead:      params.IsRead,
	}

	err = s.db.QueryRowContext(ctx,
		`INSERT INTO emails
		 (public_id, user_id, from_email, from_name, subject, text_body, html_body, attachments, is_read)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id, is_starred, received_at, created_at, updated_at`,
		email.PublicID, email.UserID, email.FromEmail, email.FromName,
		email.Subject, email.TextBody, email.HTMLBody, raw, email.IsRead,
	).Scan(&email.ID, &email.IsStarred, &email.ReceivedAt, &email.CreatedAt, &email.UpdatedAt)
	if err != nil {
		return nil, err
	}

	return email, nil
}

func (s *EmailStore) GetEmailByPublicID(ctx context.Context, publicID uuid.UUID) (*models.EmailMessage, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+emailColumns+` FROM emails WHERE public_id = $1`, publicID)
	return scanEmail(row)
}

func (s *EmailStore) ListEmailsByUserID(ctx context.Context, userID int64, limit, offset int) ([]models.EmailMessage, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+emailColumns+` FROM emails
		 WHERE user_id = $1 ORDER BY received_at DESC LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	emails := make([]models.EmailMessage, 0, limit)
	for rows.Next() {
		email, err := scanEmail(rows)
		if err != nil {
			return nil, err
		}
		emails = append(emails, *email)
	}
	return emails, rows.Err()
}

func (s *EmailStore) CountUnreadByUserID(ctx context.Context, userID int64) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM emails WHERE user_id = $1 AND is_read = FALSE`,
		userID).Scan(&count)
	return count, err
}

func (s *EmailStore) SetEmailRead(ctx context.Context, id int64, isRead bool) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE emails SET is_read = $2, updated_at = NOW() WHERE id = $1`, id, isRead)
	return err
}

func (s *EmailStore) SetEmailStarred(ctx context.Context, id int64, isStarred bool) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE emails SET is_starred = $2, updated_at = NOW() WHERE id = $1`, id, isStarred)
	return err
}

func (s *EmailStore) MarkAllEmailsRead(ctx context.Context, userID int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE emails SET is_read = TRUE, updated_at = NOW()
		 WHERE user_id = $1 AND is_read = FALSE`, userID)
	return err
}

func (s *EmailStore) DeleteEmail(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM emails WHERE id = $1`, id)
	return err
}

func (s *EmailStore) DeleteEmailsOlderThan(ctx context.Context, userID int64, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM emails WHERE user_id = $1 AND received_at < $2`, userID, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanEmail(row rowScanner) (*models.EmailMessage, error) {
	email := &models.EmailMessage{}
	var raw []byte
	err := row.Scan(
		&email.ID, &email.PublicID, &email.UserID, &email.FromEmail, &email.FromName,
		&email.Subject, &email.TextBody, &email.HTMLBody, &raw,
		&email.IsRead, &email.IsStarred, &email.ReceivedAt, &email.CreatedAt, &email.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &email.Attachments); err != nil {
			return nil, fmt.Errorf("unmarshal attachments: %w", err)
		}
	}
	if email.Attachments == nil {
		email.Attachments = []models.EmailAttachment{}
	}
	return email, nil
}
