package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/subhive-systems/subhive/internal/models"
)

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

const userColumns = `id, public_id, email, display_name, role, account_email, account_password,
	plan_name, plan_price, plan_due_date, plan_status,
	forwarding_enabled, daily_forwarding_limit, daily_forwarding_count,
	prevent_forwarded_emails, auto_mark_as_read,
	join_date, created_at, updated_at`

func (s *UserStore) CreateUser(ctx context.Context, params models.UserCreateParams) (*models.User, error) {
	user := &models.User{
		PublicID:        uuid.New(),
		Email:           params.Email,
		DisplayName:     params.DisplayName,
		Role:            params.Role,
		AccountEmail:    params.AccountEmail,
		AccountPassword: params.AccountPassword,
		Plan:            params.Plan,
		InboxSettings:   params.InboxSettings,
		JoinDate:        params.JoinDate,
	}

	err := s.db.QueryRowContext(ctx,
		`INSERT INTO users
		 (public_id, email, display_name, role, account_email, account_password,
		  plan_name, plan_price, plan_due_date, plan_status,
		  forwarding_enabled, daily_forwarding_limit, daily_forwarding_count,
		  prevent_forwarded_emails, auto_mark_as_read, join_date)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		 RETURNING id, created_at, updated_at`,
		user.PublicID, user.Email, user.DisplayName, user.Role, user.AccountEmail, user.AccountPassword,
		user.Plan.Name, user.Plan.Price, user.Plan.DueDate, user.Plan.Status,
		user.InboxSettings.ForwardingEnabled, user.InboxSettings.DailyForwardingLimit,
		user.InboxSettings.DailyForwardingCount, user.InboxSettings.PreventForwardedEmails,
		user.InboxSettings.AutoMarkAsRead, user.JoinDate,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (s *UserStore) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (s *UserStore) GetUserByPublicID(ctx context.Context, publicID uuid.UUID) (*models.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE public_id = $1`, publicID)
	return scanUser(row)
}

func (s *UserStore) GetUserByAccountEmail(ctx context.Context, accountEmail string) (*models.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE LOWER(account_email) = LOWER($1)`, accountEmail)
	return scanUser(row)
}

func (s *UserStore) ListUsers(ctx context.Context, limit, offset int) ([]models.User, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectUsers(rows)
}

func (s *UserStore) ListUsersWithPlanDueBetween(ctx context.Context, from, to time.Time) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE plan_status = 'active' AND plan_due_date >= $1 AND plan_due_date < $2
		 ORDER BY plan_due_date ASC`,
		from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectUsers(rows)
}

func (s *UserStore) UpdateUser(ctx context.Context, user *models.User) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET
		   email = $2, display_name = $3, role = $4, account_email = $5, account_password = $6,
		   plan_name = $7, plan_price = $8, plan_due_date = $9, plan_status = $10,
		   join_date = $11, updated_at = NOW()
		 WHERE id = $1`,
		user.ID, user.Email, user.DisplayName, user.Role, user.AccountEmail, user.AccountPassword,
		user.Plan.Name, user.Plan.Price, user.Plan.DueDate, user.Plan.Status, user.JoinDate,
	)
	return err
}

func (s *UserStore) UpdateInboxSettings(ctx context.Context, userID int64, settings models.InboxSettings) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET
		   forwarding_enabled = $2, daily_forwarding_limit = $3,
		   prevent_forwarded_emails = $4, auto_mark_as_read = $5, updated_at = NOW()
		 WHERE id = $1`,
		userID, settings.ForwardingEnabled, settings.DailyForwardingLimit,
		settings.PreventForwardedEmails, settings.AutoMarkAsRead,
	)
	return err
}

// IncrementForwardingCount performs the quota check-and-increment as one
// conditional UPDATE so concurrent deliveries cannot race past the limit.
func (s *UserStore) IncrementForwardingCount(ctx context.Context, userID int64) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET daily_forwarding_count = daily_forwarding_count + 1, updated_at = NOW()
		 WHERE id = $1 AND daily_forwarding_count < daily_forwarding_limit`,
		userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *UserStore) DecrementForwardingCount(ctx context.Context, userID int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET daily_forwarding_count = GREATEST(daily_forwarding_count - 1, 0), updated_at = NOW()
		 WHERE id = $1`,
		userID)
	return err
}

func (s *UserStore) ResetDailyForwardingCounts(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET daily_forwarding_count = 0, updated_at = NOW()
		 WHERE daily_forwarding_count > 0`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *UserStore) DeleteUser(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	return err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID, &user.PublicID, &user.Email, &user.DisplayName, &user.Role,
		&user.AccountEmail, &user.AccountPassword,
		&user.Plan.Name, &user.Plan.Price, &user.Plan.DueDate, &user.Plan.Status,
		&user.InboxSettings.ForwardingEnabled, &user.InboxSettings.DailyForwardingLimit,
		&user.InboxSettings.DailyForwardingCount, &user.InboxSettings.PreventForwardedEmails,
		&user.InboxSettings.AutoMarkAsRead,
		&user.JoinDate, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func collectUsers(rows *sql.Rows) ([]models.User, error) {
	users := make([]models.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}
