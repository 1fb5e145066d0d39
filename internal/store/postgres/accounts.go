package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/subhive-systems/subhive/internal/models"
)

type AccountStore struct {
	db *sql.DB
}

func NewAccountStore(db *sql.DB) *AccountStore {
	return &AccountStore{db: db}
}

const accountColumns = `a.id, a.public_id, a.plan_id, p.name, a.email, a.password,
	a.max_users, a.status, a.notes, a.created_at, a.updated_at,
	(SELECT COUNT(*) FROM account_assignments aa WHERE aa.account_id = a.id AND aa.status = 'active')`

func (s *AccountStore) CreateAccount(ctx context.Context, params models.AccountCreateParams) (*models.SharedAccount, error) {
	account := &models.SharedAccount{
		PublicID: uuid.New(),
		PlanID:   params.PlanID,
		Email:    params.Email,
		Password: params.Password,
		MaxUsers: params.MaxUsers,
		Status:   params.Status,
		Notes:    params.Notes,
	}

	err := s.db.QueryRowContext(ctx,
		`INSERT INTO shared_accounts (public_id, plan_id, email, password, max_users, status, notes)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at, updated_at,
		   (SELECT name FROM subscription_plans WHERE id = $2)`,
		account.PublicID, account.PlanID, account.Email, account.Password,
		account.MaxUsers, account.Status, account.Notes,
	).Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt, &account.PlanName)
	if err != nil {
		return nil, err
	}

	return account, nil
}

func (s *AccountStore) GetAccountByID(ctx context.Context, id int64) (*models.SharedAccount, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+`
		 FROM shared_accounts a JOIN subscription_plans p ON p.id = a.plan_id
		 WHERE a.id = $1`, id)
	return scanAccount(row)
}

func (s *AccountStore) GetAccountByPublicID(ctx context.Context, publicID uuid.UUID) (*models.SharedAccount, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+`
		 FROM shared_accounts a JOIN subscription_plans p ON p.id = a.plan_id
		 WHERE a.public_id = $1`, publicID)
	return scanAccount(row)
}

func (s *AccountStore) ListAccounts(ctx context.Context) ([]models.SharedAccount, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+accountColumns+`
		 FROM shared_accounts a JOIN subscription_plans p ON p.id = a.plan_id
		 ORDER BY a.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := make([]models.SharedAccount, 0)
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *account)
	}
	return accounts, rows.Err()
}

func (s *AccountStore) UpdateAccount(ctx context.Context, account *models.SharedAccount) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE shared_accounts SET
		   plan_id = $2, email = $3, password = $4, max_users = $5,
		   status = $6, notes = $7, updated_at = NOW()
		 WHERE id = $1`,
		account.ID, account.PlanID, account.Email, account.Password,
		account.MaxUsers, account.Status, account.Notes,
	)
	return err
}

func (s *AccountStore) DeleteAccount(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM shared_accounts WHERE id = $1`, id)
	return err
}

func (s *AccountStore) CreateAssignment(ctx context.Context, accountID, userID int64) (*models.AccountAssignment, error) {
	assignment := &models.AccountAssignment{
		AccountID: accountID,
		UserID:    userID,
		Status:    "active",
	}
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO account_assignments (account_id, user_id, status)
		 VALUES ($1, $2, 'active')
		 RETURNING id, assigned_at`,
		accountID, userID,
	).Scan(&assignment.ID, &assignment.AssignedAt)
	if err != nil {
		return nil, err
	}
	return assignment, nil
}

func (s *AccountStore) DeleteAssignment(ctx context.Context, accountID, userID int64) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM account_assignments WHERE account_id = $1 AND user_id = $2`,
		accountID, userID)
	return err
}

func (s *AccountStore) ListAssignmentsByAccountID(ctx context.Context, accountID int64) ([]models.AccountAssignment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, account_id, user_id, status, assigned_at
		 FROM account_assignments WHERE account_id = $1 ORDER BY assigned_at ASC`,
		accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	assignments := make([]models.AccountAssignment, 0)
	for rows.Next() {
		var a models.AccountAssignment
		if err := rows.Scan(&a.ID, &a.AccountID, &a.UserID, &a.Status, &a.AssignedAt); err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

func (s *AccountStore) CountActiveAssignments(ctx context.Context, accountID int64) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM account_assignments WHERE account_id = $1 AND status = 'active'`,
		accountID).Scan(&count)
	return count, err
}

func scanAccount(row rowScanner) (*models.SharedAccount, error) {
	account := &models.SharedAccount{}
	err := row.Scan(
		&account.ID, &account.PublicID, &account.PlanID, &account.PlanName,
		&account.Email, &account.Password, &account.MaxUsers, &account.Status,
		&account.Notes, &account.CreatedAt, &account.UpdatedAt, &account.CurrentUsers,
	)
	if err != nil {
		return nil, err
	}
	return account, nil
}
