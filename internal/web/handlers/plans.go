package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/subhive-systems/subhive/internal/models"
	"github.com/subhive-systems/subhive/internal/plan"
)

// PlanHandler serves the subscription plan admin endpoints.
type PlanHandler struct {
	plans *plan.Service
}

func NewPlanHandler(service *plan.Service) *PlanHandler {
	return &PlanHandler{plans: service}
}

type planRequest struct {
	Name        string   `json:"name"`
	Price       float64  `json:"price"`
	Currency    string   `json:"currency"`
	Description string   `json:"description"`
	Features    []string `json:"features"`
	IsActive    bool     `json:"isActive"`
}

func (h *PlanHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	created, err := h.plans.Create(r.Context(), models.PlanCreateParams{
		Name:        req.Name,
		Price:       req.Price,
		Currency:    req.Currency,
		Description: req.Description,
		Features:    req.Features,
		IsActive:    req.IsActive,
	})
	if err != nil {
		if errors.Is(err, plan.ErrNameRequired) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		slog.Error("failed to create plan", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toPlanView(created))
}

func (h *PlanHandler) List(w http.ResponseWriter, r *http.Request) {
	plans, err := h.plans.List(r.Context())
	if err != nil {
		slog.Error("failed to list plans", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
		return
	}

	views := make([]planView, 0, len(plans))
	for i := range plans {
		views = append(views, toPlanView(&plans[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{"plans": views})
}

func (h *PlanHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := h.lookupPlan(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toPlanView(p))
}

func (h *PlanHandler) Update(w http.ResponseWriter, r *http.Request) {
	p, ok := h.lookupPlan(w, r)
	if !ok {
		return
	}

	var req planRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	p.Name = req.Name
	p.Price = req.Price
	if req.Currency != "" {
		p.Currency = req.Currency
	}
	p.Description = req.Description
	p.Features = req.Features
	p.IsActive = req.IsActive

	if err := h.plans.Update(r.Context(), p); err != nil {
		if errors.Is(err, plan.ErrNameRequired) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		slog.Error("failed to update plan", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, toPlanView(p))
}

func (h *PlanHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p, ok := h.lookupPlan(w, r)
	if !ok {
		return
	}
	if err := h.plans.Delete(r.Context(), p.ID); err != nil {
		slog.Error("failed to delete plan", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PlanHandler) lookupPlan(w http.ResponseWriter, r *http.Request) (*models.SubscriptionPlan, bool) {
	publicID, err := uuid.Parse(chi.URLParam(r, "planID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid plan ID"})
		return nil, false
	}

	p, err := h.plans.Get(r.Context(), publicID)
	if err != nil {
		if errors.Is(err, plan.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "plan not found"})
			return nil, false
		}
		slog.Error("failed to look up plan", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
		return nil, false
	}
	return p, true
}
