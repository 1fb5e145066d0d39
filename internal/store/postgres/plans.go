package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/subhive-systems/subhive/internal/models"
)

type PlanStore struct {
	db *sql.DB
}

func NewPlanStore(db *sql.DB) *PlanStore {
	return &PlanStore{db: db}
}

const planColumns = `id, public_id, name, price, currency, description, features, is_active, created_at, updated_at`

func (s *PlanStore) CreatePlan(ctx context.Context, params models.PlanCreateParams) (*models.SubscriptionPlan, error) {
	plan := &models.SubscriptionPlan{
		PublicID:    uuid.New(),
		Name:        params.Name,
		Price:       params.Price,
		Currency:    params.Currency,
		Description: params.Description,
		Features:    params.Features,
		IsActive:    params.IsActive,
	}
	if plan.Features == nil {
		plan.Features = []string{}
	}

	err := s.db.QueryRowContext(ctx,
		`INSERT INTO subscription_plans (public_id, name, price, currency, description, features, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at, updated_at`,
		plan.PublicID, plan.Name, plan.Price, plan.Currency, plan.Description,
		pq.Array(plan.Features), plan.IsActive,
	).Scan(&plan.ID, &plan.CreatedAt, &plan.UpdatedAt)
	if err != nil {
		return nil, err
	}

	return plan, nil
}

func (s *PlanStore) GetPlanByID(ctx context.Context, id int64) (*models.SubscriptionPlan, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+planColumns+` FROM subscription_plans WHERE id = $1`, id)
	return scanPlan(row)
}

func (s *PlanStore) GetPlanByPublicID(ctx context.Context, publicID uuid.UUID) (*models.SubscriptionPlan, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+planColumns+` FROM subscription_plans WHERE public_id = $1`, publicID)
	return scanPlan(row)
}

func (s *PlanStore) ListPlans(ctx context.Context) ([]models.SubscriptionPlan, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+planColumns+` FROM subscription_plans ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	plans := make([]models.SubscriptionPlan, 0)
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, *plan)
	}
	return plans, rows.Err()
}

func (s *PlanStore) UpdatePlan(ctx context.Context, plan *models.SubscriptionPlan) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE subscription_plans SET
		   name = $2, price = $3, currency = $4, description = $5, features = $6,
		   is_active = $7, updated_at = NOW()
		 WHERE id = $1`,
		plan.ID, plan.Name, plan.Price, plan.Currency, plan.Description,
		pq.Array(plan.Features), plan.IsActive,
	)
	return err
}

func (s *PlanStore) DeletePlan(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM subscription_plans WHERE id = $1`, id)
	return err
}

func scanPlan(row rowScanner) (*models.SubscriptionPlan, error) {
	plan := &models.SubscriptionPlan{}
	err := row.Scan(
		&plan.ID, &plan.PublicID, &plan.Name, &plan.Price, &plan.Currency,
		&plan.Description, pq.Array(&plan.Features), &plan.IsActive,
		&plan.CreatedAt, &plan.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return plan, nil
}
