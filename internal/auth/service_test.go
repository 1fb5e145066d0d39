package auth

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/subhive-systems/subhive/internal/models"
)

// --- Mock stores ---

type mockAdminStore struct {
	admins map[string]*models.Admin
	byID   map[int64]*models.Admin
	nextID int64
}

func newMockAdminStore() *mockAdminStore {
	return &mockAdminStore{
		admins: make(map[string]*models.Admin),
		byID:   make(map[int64]*models.Admin),
		nextID: 1,
	}
}

func (m *mockAdminStore) CreateAdmin(_ context.Context, email, passwordHash string) (*models.Admin, error) {
	if _, exists := m.admins[email]; exists {
		return nil, errors.New("admin already exists")
	}
	a := &models.Admin{
		ID:           m.nextID,
		PublicID:     uuid.New(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	m.nextID++
	m.admins[email] = a
	m.byID[a.ID] = a
	return a, nil
}

func (m *mockAdminStore) GetAdminByEmail(_ context.Context, email string) (*models.Admin, error) {
	a, ok := m.admins[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return a, nil
}

func (m *mockAdminStore) GetAdminByID(_ context.Context, id int64) (*models.Admin, error) {
	a, ok := m.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return a, nil
}

type mockSessionStore struct {
	sessions map[string]*models.Session
	nextID   int64
}

func newMockSessionStore() *mockSessionStore {
	return &mockSessionStore{
		sessions: make(map[string]*models.Session),
		nextID:   1,
	}
}

func (m *mockSessionStore) CreateSession(_ context.Context, token string, adminID int64, expiresAt time.Time) (*models.Session, error) {
	s := &models.Session{
		ID:        m.nextID,
		Token:     token,
		AdminID:   adminID,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
	m.nextID++
	m.sessions[token] = s
	return s, nil
}

func (m *mockSessionStore) GetSessionByToken(_ context.Context, token string) (*models.Session, error) {
	s, ok := m.sessions[token]
	if !ok || s.ExpiresAt.Before(time.Now()) {
		return nil, sql.ErrNoRows
	}
	return s, nil
}

func (m *mockSessionStore) DeleteSession(_ context.Context, token string) error {
	delete(m.sessions, token)
	return nil
}

func (m *mockSessionStore) DeleteExpiredSessions(_ context.Context) error {
	now := time.Now()
	for token, s := range m.sessions {
		if s.ExpiresAt.Before(now) {
			delete(m.sessions, token)
		}
	}
	return nil
}

func newTestService() (*Service, *mockAdminStore, *mockSessionStore) {
	admins := newMockAdminStore()
	sessions := newMockSessionStore()
	return NewService(admins, sessions, 72), admins, sessions
}

// --- Tests ---

func TestBootstrap_CreatesAdmin(t *testing.T) {
	svc, admins, _ := newTestService()

	if err := svc.Bootstrap(context.Background(), "admin@example.com", "password123"); err != nil {
		t.Fatalf("Bootstrap failed: %v", err)
	}

	a, err := admins.GetAdminByEmail(context.Background(), "admin@example.com")
	if err != nil {
		t.Fatalf("admin not created: %v", err)
	}
	if err := CheckPassword(a.PasswordHash, "password123"); err != nil {
		t.Error("stored hash does not match password")
	}
}

func TestBootstrap_Idempotent(t *testing.T) {
	svc, admins, _ := newTestService()

	if err := svc.Bootstrap(context.Background(), "admin@example.com", "password123"); err != nil {
		t.Fatalf("first Bootstrap failed: %v", err)
	}
	if err := svc.Bootstrap(context.Background(), "admin@example.com", "changed"); err != nil {
		t.Fatalf("second Bootstrap failed: %v", err)
	}

	// The original password still works; bootstrap never overwrites.
	a, _ := admins.GetAdminByEmail(context.Background(), "admin@example.com")
	if err := CheckPassword(a.PasswordHash, "password123"); err != nil {
		t.Error("original password no longer valid after re-bootstrap")
	}
}

func TestBootstrap_SkipsWhenUnconfigured(t *testing.T) {
	svc, admins, _ := newTestService()

	if err := svc.Bootstrap(context.Background(), "", ""); err != nil {
		t.Fatalf("Bootstrap failed: %v", err)
	}
	if len(admins.admins) != 0 {
		t.Error("admin created without configuration")
	}
}

func TestLogin_Success(t *testing.T) {
	svc, _, _ := newTestService()
	_ = svc.Bootstrap(context.Background(), "admin@example.com", "password123")

	session, err := svc.Login(context.Background(), "admin@example.com", "password123")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if session.Token == "" {
		t.Error("expected session token to be set")
	}
	if session.AdminID != 1 {
		t.Errorf("expected admin ID 1, got %d", session.AdminID)
	}
	if !session.ExpiresAt.After(time.Now().Add(71 * time.Hour)) {
		t.Error("session expiry shorter than configured max age")
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, _, _ := newTestService()
	_ = svc.Bootstrap(context.Background(), "admin@example.com", "password123")

	_, err := svc.Login(context.Background(), "admin@example.com", "wrongpassword")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestLogin_NonexistentAdmin(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Login(context.Background(), "nobody@example.com", "password123")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestLogout(t *testing.T) {
	svc, _, _ := newTestService()
	_ = svc.Bootstrap(context.Background(), "admin@example.com", "password123")
	session, _ := svc.Login(context.Background(), "admin@example.com", "password123")

	if err := svc.Logout(context.Background(), session.Token); err != nil {
		t.Fatalf("logout failed: %v", err)
	}

	if _, err := svc.ValidateSession(context.Background(), session.Token); err == nil {
		t.Error("expected session to be invalid after logout")
	}
}

func TestValidateSession_Valid(t *testing.T) {
	svc, _, _ := newTestService()
	_ = svc.Bootstrap(context.Background(), "admin@example.com", "password123")
	session, _ := svc.Login(context.Background(), "admin@example.com", "password123")

	admin, err := svc.ValidateSession(context.Background(), session.Token)
	if err != nil {
		t.Fatalf("validate session failed: %v", err)
	}
	if admin.Email != "admin@example.com" {
		t.Errorf("expected email admin@example.com, got %s", admin.Email)
	}
}

func TestValidateSession_InvalidToken(t *testing.T) {
	svc, _, _ := newTestService()

	if _, err := svc.ValidateSession(context.Background(), "bogus-token"); err == nil {
		t.Error("expected error for invalid token")
	}
}

func TestValidateSession_Expired(t *testing.T) {
	svc, _, sessions := newTestService()
	_ = svc.Bootstrap(context.Background(), "admin@example.com", "password123")
	session, _ := svc.Login(context.Background(), "admin@example.com", "password123")

	sessions.sessions[session.Token].ExpiresAt = time.Now().Add(-time.Minute)

	if _, err := svc.ValidateSession(context.Background(), session.Token); err == nil {
		t.Error("expected error for expired session")
	}
}

func TestHashPassword_And_CheckPassword(t *testing.T) {
	hash, err := HashPassword("mypassword")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if err := CheckPassword(hash, "mypassword"); err != nil {
		t.Error("CheckPassword should succeed with correct password")
	}
	if err := CheckPassword(hash, "wrongpassword"); err == nil {
		t.Error("CheckPassword should fail with wrong password")
	}
}

func TestGenerateToken(t *testing.T) {
	token1, err := GenerateToken()
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	if len(token1) != 64 { // 32 bytes = 64 hex chars
		t.Errorf("expected 64-char token, got %d chars", len(token1))
	}

	token2, _ := GenerateToken()
	if token1 == token2 {
		t.Error("expected unique tokens")
	}
}
