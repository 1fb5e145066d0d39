package plan

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/subhive-systems/subhive/internal/models"
	"github.com/subhive-systems/subhive/internal/store"
)

var (
	ErrNotFound     = errors.New("plan not found")
	ErrNameRequired = errors.New("plan name is required")
)

// Service provides subscription plan business logic.
type Service struct {
	plans store.PlanStore
}

func NewService(plans store.PlanStore) *Service {
	return &Service{plans: plans}
}

func (s *Service) Create(ctx context.Context, params models.PlanCreateParams) (*models.SubscriptionPlan, error) {
	if params.Name == "" {
		return nil, ErrNameRequired
	}
	if params.Currency == "" {
		params.Currency = "USD"
	}
	plan, err := s.plans.CreatePlan(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("creating plan: %w", err)
	}
	return plan, nil
}

func (s *Service) Get(ctx context.Context, publicID uuid.UUID) (*models.SubscriptionPlan, error) {
	plan, err := s.plans.GetPlanByPublicID(ctx, publicID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("looking up plan: %w", err)
	}
	return plan, nil
}

func (s *Service) List(ctx context.Context) ([]models.SubscriptionPlan, error) {
	plans, err := s.plans.ListPlans(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing plans: %w", err)
	}
	return plans, nil
}

func (s *Service) Update(ctx context.Context, plan *models.SubscriptionPlan) error {
	if plan.Name == "" {
		return ErrNameRequired
	}
	if err := s.plans.UpdatePlan(ctx, plan); err != nil {
		return fmt.Errorf("updating plan: %w", err)
	}
	return nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.plans.DeletePlan(ctx, id); err != nil {
		return fmt.Errorf("deleting plan: %w", err)
	}
	return nil
}
