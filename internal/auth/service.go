package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/subhive-systems/subhive/internal/models"
	"github.com/subhive-systems/subhive/internal/store"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

// Service provides admin authentication for the management API.
type Service struct {
	admins   store.AdminStore
	sessions store.SessionStore
	maxAge   time.Duration
}

// NewService creates a new auth service with the given stores and session max age in hours.
func NewService(admins store.AdminStore, sessions store.SessionStore, maxAgeHours int) *Service {
	return &Service{
		admins:   admins,
		sessions: sessions,
		maxAge:   time.Duration(maxAgeHours) * time.Hour,
	}
}

// Bootstrap ensures the configured initial admin exists. It is a no-op when
// the admin is already present.
func (s *Service) Bootstrap(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return nil
	}

	_, err := s.admins.GetAdminByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to look up admin: %w", err)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	if _, err := s.admins.CreateAdmin(ctx, email, hash); err != nil {
		return fmt.Errorf("failed to create initial admin: %w", err)
	}

	slog.Info("bootstrapped initial admin", "email", email)
	return nil
}

// Login authenticates an admin by email and password, returning a new session.
func (s *Service) Login(ctx context.Context, email, password string) (*models.Session, error) {
	admin, err := s.admins.GetAdminByEmail(ctx, email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := CheckPassword(admin.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := GenerateToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}

	expiresAt := time.Now().Add(s.maxAge)
	session, err := s.sessions.CreateSession(ctx, token, admin.ID, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return session, nil
}

// Logout deletes the session identified by the given token.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.sessions.DeleteSession(ctx, token)
}

// ValidateSession checks if the given token corresponds to a valid session
// and returns the associated admin.
func (s *Service) ValidateSession(ctx context.Context, token string) (*models.Admin, error) {
	session, err := s.sessions.GetSessionByToken(ctx, token)
	if err != nil {
		return nil, errors.New("invalid session")
	}

	admin, err := s.admins.GetAdminByID(ctx, session.AdminID)
	if err != nil {
		return nil, errors.New("admin not found")
	}

	return admin, nil
}
