package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/subhive-systems/subhive/internal/models"
)

type DestinationStore struct {
	db *sql.DB
}

func NewDestinationStore(db *sql.DB) *DestinationStore {
	return &DestinationStore{db: db}
}

const destinationColumns = `id, public_id, user_id, type, name, enabled,
	target_address, webhook_url, webhook_method, webhook_format, webhook_headers,
	discord_webhook_url, discord_username, ifttt_event, ifttt_key,
	template, position, created_at, updated_at`

func (s *DestinationStore) CreateDestination(ctx context.Context, params models.DestinationCreateParams) (*models.ForwardingDestination, error) {
	headers := params.WebhookHeaders
	if headers == nil {
		headers = map[string]string{}
	}
	rawHeaders, err := json.Marshal(headers)
	if err != nil {
		return nil, fmt.Errorf("marshal webhook headers: %w", err)
	}

	dest := &models.ForwardingDestination{
		PublicID:          uuid.New(),
		UserID:            params.UserID,
		Type:              params.Type,
		Name:              params.Name,
		Enabled:           params.Enabled,
		TargetAddress:     params.TargetAddress,
		WebhookURL:        params.WebhookURL,
		WebhookMethod:     params.WebhookMethod,
		WebhookFormat:     params.WebhookFormat,
		WebhookHeaders:    headers,
		DiscordWebhookURL: params.DiscordWebhookURL,
		DiscordUsername:   params.DiscordUsername,
		IFTTTEvent:        params.IFTTTEvent,
		IFTTTKey:          params.IFTTTKey,
		Template:          params.Template,
		Position:          params.Position,
	}

	err = s.db.QueryRowContext(ctx,
		`INSERT INTO forwarding_destinations
		 (public_id, user_id, type, name, enabled, target_address,
		  webhook_url, webhook_method, webhook_format, webhook_headers,
		  discord_webhook_url, discord_username, ifttt_event, ifttt_key, template, position)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		 RETURNING id, created_at, updated_at`,
		dest.PublicID, dest.UserID, dest.Type, dest.Name, dest.Enabled, dest.TargetAddress,
		dest.WebhookURL, dest.WebhookMethod, dest.WebhookFormat, rawHeaders,
		dest.DiscordWebhookURL, dest.DiscordUsername, dest.IFTTTEvent, dest.IFTTTKey,
		dest.Template, dest.Position,
	).Scan(&dest.ID, &dest.CreatedAt, &dest.UpdatedAt)
	if err != nil {
		return nil, err
	}

	return dest, nil
}

func (s *DestinationStore) ListDestinationsByUserID(ctx context.Context, userID int64) ([]models.ForwardingDestination, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+destinationColumns+` FROM forwarding_destinations
		 WHERE user_id = $1 ORDER BY position ASC, id ASC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	dests := make([]models.ForwardingDestination, 0)
	for rows.Next() {
		dest, err := scanDestination(rows)
		if err != nil {
			return nil, err
		}
		dests = append(dests, *dest)
	}
	return dests, rows.Err()
}

func (s *DestinationStore) GetDestinationByPublicID(ctx context.Context, publicID uuid.UUID) (*models.ForwardingDestination, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+destinationColumns+` FROM forwarding_destinations WHERE public_id = $1`,
		publicID)
	return scanDestination(row)
}

func (s *DestinationStore) SetDestinationEnabled(ctx context.Context, id int64, enabled bool) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE forwarding_destinations SET enabled = $2, updated_at = NOW() WHERE id = $1`,
		id, enabled)
	return err
}

func (s *DestinationStore) DeleteDestination(ctx context.Context, userID, id int64) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM forwarding_destinations WHERE id = $1 AND user_id = $2`, id, userID)
	return err
}

func scanDestination(row rowScanner) (*models.ForwardingDestination, error) {
	dest := &models.ForwardingDestination{}
	var rawHeaders []byte
	err := row.Scan(
		&dest.ID, &dest.PublicID, &dest.UserID, &dest.Type, &dest.Name, &dest.Enabled,
		&dest.TargetAddress, &dest.WebhookURL, &dest.WebhookMethod, &dest.WebhookFormat, &rawHeaders,
		&dest.DiscordWebhookURL, &dest.DiscordUsername, &dest.IFTTTEvent, &dest.IFTTTKey,
		&dest.Template, &dest.Position, &dest.CreatedAt, &dest.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(rawHeaders) > 0 {
		if err := json.Unmarshal(rawHeaders, &dest.WebhookHeaders); err != nil {
			return nil, fmt.Errorf("unmarshal webhook headers: %w", err)
		}
	}
	return dest, nil
}
