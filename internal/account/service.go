package account

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

var (
	ErrNotFound        = errors.New("account not found")
	ErrAccountFull     = errors.New("account has no free seats")
	ErrAlreadyAssigned = errors.New("user already assigned to this account")
)

// Service provides shared-account business logic: CRUD plus seat
// assignments with a max-users ceiling.
type Service struct {
	accounts store.AccountStore
}

func NewService(accounts store.AccountStore) *Service {
	return &Service{accounts: accounts}
}

func (s *Service) Create(ctx context.Context, params models.AccountCreateParams) (*models.SharedAccount, error) {
	if params.MaxUsers <= 0 {
		params.MaxUsers = 1
	}
	if params.Status == "" {
		params.Status = "active"
	}
	account, err := s.accounts.CreateAccount(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("creating account: %w", err)
	}
	return account, nil
}

func (s *Service) Get(ctx context.Context, publicID uuid.UUID) (*models.SharedAccount, error) {
	account, err := s.accounts.GetAccountByPublicID(ctx, publicID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("looking up account: %w", err)
	}
	return account, nil
}

func (s *Service) List(ctx context.Context) ([]models.SharedAccount, error) {
	accounts, err := s.accounts.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	return accounts, nil
}

func (s *Service) Update(ctx context.Context, account *models.SharedAccount) error {
	if err := s.accounts.UpdateAccount(ctx, account); err != nil {
		return fmt.Errorf("updating account: %w", err)
	}
	return nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.accounts.DeleteAccount(ctx, id); err != nil {
		return fmt.Errorf("deleting account: %w", err)
	}
	return nil
}

// Assign gives the user a seat on the account if one is free.
func (s *Service) Assign(ctx context.Context, account *models.SharedAccount, userID int64) (*models.AccountAssignment, error) {
	count, err := s.accounts.CountActiveAssignments(ctx, account.ID)
	if err != nil {
		return nil, fmt.Errorf("counting assignments: %w", err)
	}
	if count >= account.MaxUsers {
		return nil, ErrAccountFull
	}

	assignment, err := s.accounts.CreateAssignment(ctx, account.ID, userID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, ErrAlreadyAssigned
		}
		return nil, fmt.Errorf("creating assignment: %w", err)
	}
	return assignment, nil
}

// Unassign frees the user's seat on the account.
func (s *Service) Unassign(ctx context.Context, accountID, userID int64) error {
	if err := s.accounts.DeleteAssignment(ctx, accountID, userID); err != nil {
		return fmt.Errorf("deleting assignment: %w", err)
	}
	return nil
}
