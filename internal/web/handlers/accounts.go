package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/subhive-systems/subhive/internal/account"
	"github.com/subhive-systems/subhive/internal/models"
	"github.com/subhive-systems/subhive/internal/plan"
	"github.com/subhive-systems/subhive/internal/user"
)

// AccountHandler serves the shared-account admin endpoints, including
// seat assignments.
type AccountHandler struct {
	accounts *account.Service
	plans    *plan.Service
	users    *user.Service
}

func NewAccountHandler(accountService *account.Service, planService *plan.Service, userService *user.Service) *AccountHandler {
	return &AccountHandler{
		accounts: accountService,
		plans:    planService,
		users:    userService,
	}
}

type accountRequest struct {
	PlanID   string `json:"planId"`
	Email    string `json:"email"`
	Password string `json:"password"`
	MaxUsers int    `json:"maxUsers"`
	Status   string `json:"status"`
	Notes    string `json:"notes"`
}

func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	planPublicID, err := uuid.Parse(req.PlanID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid plan ID"})
		return
	}
	p, err := h.plans.Get(r.Context(), planPublicID)
	if err != nil {
		if errors.Is(err, plan.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "plan not found"})
			return
		}
		slog.Error("failed to look up plan", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
		return
	}

	created, err := h.accounts.Create(r.Context(), models.AccountCreateParams{
		PlanID:   p.ID,
		Email:    req.Email,
		Password: req.Password,
		MaxUsers: req.MaxUsers,
		Status:   req.Status,
		Notes:    req.Notes,
	})
	if err != nil {
		slog.Error("failed to create account", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toAccountView(created))
}

func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accounts.List(r.Context())
	if err != nil {
		slog.Error("failed to list accounts", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
		return
	}

	views := make([]accountView, 0, len(accounts))
	for i := range accounts {
		views = append(views, toAccountView(&accounts[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{"accounts": views})
}

func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	a, ok := h.lookupAccount(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toAccountView(a))
}

type updateAccountRequest struct {
	Email    *string `json:"email"`
	Password *string `json:"password"`
	MaxUsers *int    `json:"maxUsers"`
	Status   *string `json:"status"`
	Notes    *string `json:"notes"`
}

func (h *AccountHandler) Update(w http.ResponseWriter, r *http.Request) {
	a, ok := h.lookupAccount(w, r)
	if !ok {
		return
	}

	var req updateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	if req.Email != nil {
		a.Email = *req.Email
	}
	if req.Password != nil {
		a.Password = *req.Password
	}
	if req.MaxUsers != nil && *req.MaxUsers > 0 {
		a.MaxUsers = *req.MaxUsers
	}
	if req.Status != nil {
		a.Status = *req.Status
	}
	if req.Notes != nil {
		a.Notes = *req.Notes
	}

	if err := h.accounts.Update(r.Context(), a); err != nil {
		slog.Error("failed to update account", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, toAccountView(a))
}

func (h *AccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	a, ok := h.lookupAccount(w, r)
	if !ok {
		return
	}
	if err := h.accounts.Delete(r.Context(), a.ID); err != nil {
		slog.Error("failed to delete account", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type assignRequest struct {
	UserID string `json:"userId"`
}

func (h *AccountHandler) Assign(w http.ResponseWriter, r *http.Request) {
	a, ok := h.lookupAccount(w, r)
	if !ok {
		return
	}

	var req assignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	u, ok := h.lookupAssignmentUser(w, r, req.UserID)
	if !ok {
		return
	}

	if _, err := h.accounts.Assign(r.Context(), a, u.ID); err != nil {
		switch {
		case errors.Is(err, account.ErrAccountFull):
			writeJSON(w, http.StatusConflict, errorResponse{Error: "account has no free seats"})
		case errors.Is(err, account.ErrAlreadyAssigned):
			writeJSON(w, http.StatusConflict, errorResponse{Error: "user already assigned to this account"})
		default:
			slog.Error("failed to assign user", "error", err)
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
		}
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *AccountHandler) Unassign(w http.ResponseWriter, r *http.Request) {
	a, ok := h.lookupAccount(w, r)
	if !ok {
		return
	}
	u, ok := h.lookupAssignmentUser(w, r, chi.URLParam(r, "userID"))
	if !ok {
		return
	}

	if err := h.accounts.Unassign(r.Context(), a.ID, u.ID); err != nil {
		slog.Error("failed to unassign user", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AccountHandler) lookupAccount(w http.ResponseWriter, r *http.Request) (*models.SharedAccount, bool) {
	publicID, err := uuid.Parse(chi.URLParam(r, "accountID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid account ID"})
		return nil, false
	}

	a, err := h.accounts.Get(r.Context(), publicID)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "account not found"})
			return nil, false
		}
		slog.Error("failed to look up account", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
		return nil, false
	}
	return a, true
}

func (h *AccountHandler) lookupAssignmentUser(w http.ResponseWriter, r *http.Request, rawID string) (*models.User, bool) {
	publicID, err := uuid.Parse(rawID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid user ID"})
		return nil, false
	}
	u, err := h.users.Get(r.Context(), publicID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "user not found"})
			return nil, false
		}
		slog.Error("failed to look up user", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
		return nil, false
	}
	return u, true
}
