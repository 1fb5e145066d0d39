package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/subhive-systems/subhive/internal/models"
	"github.com/subhive-systems/subhive/internal/store"
)

// Sentinel errors returned by Service methods.
var (
	ErrNotFound             = errors.New("user not found")
	ErrAccountEmailTaken    = errors.New("account email already in use")
	ErrAccountEmailRequired = errors.New("account email is required")
	ErrEmailRequired        = errors.New("email is required")
)

// Service provides managed-user business logic for the admin API.
type Service struct {
	users        store.UserStore
	destinations store.DestinationStore
}

func NewService(users store.UserStore, destinations store.DestinationStore) *Service {
	return &Service{
		users:        users,
		destinations: destinations,
	}
}

// Create registers a new managed user. The account email becomes the user's
// unique receiving address for the email webhook.
func (s *Service) Create(ctx context.Context, params models.UserCreateParams) (*models.User, error) {
	if params.Email == "" {
		return nil, ErrEmailRequired
	}
	if params.AccountEmail == "" {
		return nil, ErrAccountEmailRequired
	}
	if params.Role == "" {
		params.Role = "user"
	}
	if params.Plan.Status == "" {
		params.Plan.Status = "pending"
	}
	if params.InboxSettings.DailyForwardingLimit <= 0 {
		params.InboxSettings.DailyForwardingLimit = 50
	}

	user, err := s.users.CreateUser(ctx, params)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, ErrAccountEmailTaken
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}
	return user, nil
}

// Get returns the user identified by its public ID.
func (s *Service) Get(ctx context.Context, publicID uuid.UUID) (*models.User, error) {
	user, err := s.users.GetUserByPublicID(ctx, publicID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}
	return user, nil
}

// List returns users with pagination.
func (s *Service) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	users, err := s.users.ListUsers(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return users, nil
}

// Update persists profile and plan changes for an existing user.
func (s *Service) Update(ctx context.Context, user *models.User) error {
	if err := s.users.UpdateUser(ctx, user); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrAccountEmailTaken
		}
		return fmt.Errorf("updating user: %w", err)
	}
	return nil
}

// UpdateInboxSettings replaces the user's inbox settings. The daily
// forwarding count is owned by the pipeline and left untouched.
func (s *Service) UpdateInboxSettings(ctx context.Context, userID int64, settings models.InboxSettings) error {
	if settings.DailyForwardingLimit <= 0 {
		settings.DailyForwardingLimit = 50
	}
	if err := s.users.UpdateInboxSettings(ctx, userID, settings); err != nil {
		return fmt.Errorf("updating inbox settings: %w", err)
	}
	return nil
}

// Delete removes a user along with their emails and destinations.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.users.DeleteUser(ctx, id); err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	return nil
}

// AddDestination creates a forwarding destination for the user.
func (s *Service) AddDestination(ctx context.Context, params models.DestinationCreateParams) (*models.ForwardingDestination, error) {
	switch params.Type {
	case models.DestinationEmail, models.DestinationWebhook, models.DestinationDiscord, models.DestinationIFTTT:
	default:
		return nil, fmt.Errorf("unknown destination type %q", params.Type)
	}
	dest, err := s.destinations.CreateDestination(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("creating destination: %w", err)
	}
	return dest, nil
}

// ListDestinations returns the user's forwarding destinations in order.
func (s *Service) ListDestinations(ctx context.Context, userID int64) ([]models.ForwardingDestination, error) {
	dests, err := s.destinations.ListDestinationsByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing destinations: %w", err)
	}
	return dests, nil
}

// RemoveDestination deletes one of the user's forwarding destinations.
func (s *Service) RemoveDestination(ctx context.Context, userID int64, destPublicID uuid.UUID) error {
	dest, err := s.destinations.GetDestinationByPublicID(ctx, destPublicID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("looking up destination: %w", err)
	}
	if dest.UserID != userID {
		return ErrNotFound
	}
	if err := s.destinations.DeleteDestination(ctx, userID, dest.ID); err != nil {
		return fmt.Errorf("deleting destination: %w", err)
	}
	return nil
}
