package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/subhive-systems/subhive/internal/models"
	"github.com/subhive-systems/subhive/internal/user"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// UserHandler serves the managed-user admin endpoints, including each
// user's forwarding destinations.
type UserHandler struct {
	users *user.Service
}

func NewUserHandler(service *user.Service) *UserHandler {
	return &UserHandler{users: service}
}

type createUserRequest struct {
	Email           string             `json:"email"`
	DisplayName     string             `json:"displayName"`
	Role            string             `json:"role"`
	AccountEmail    string             `json:"accountEmail"`
	AccountPassword string             `json:"accountPassword"`
	Plan            *planSummaryView   `json:"plan"`
	InboxSettings   *inboxSettingsView `json:"inboxSettings"`
	JoinDate        *time.Time         `json:"joinDate"`
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	params := models.UserCreateParams{
		Email:           req.Email,
		DisplayName:     req.DisplayName,
		Role:            req.Role,
		AccountEmail:    req.AccountEmail,
		AccountPassword: req.AccountPassword,
	}
	if req.Plan != nil {
		params.Plan = models.PlanSummary{
			Name:   req.Plan.Name,
			Price:  req.Plan.Price,
			Status: req.Plan.Status,
		}
		if req.Plan.DueDate != nil {
			params.Plan.DueDate = *req.Plan.DueDate
		}
	}
	if req.InboxSettings != nil {
		params.InboxSettings = models.InboxSettings{
			ForwardingEnabled:      req.InboxSettings.ForwardingEnabled,
			DailyForwardingLimit:   req.InboxSettings.DailyForwardingLimit,
			PreventForwardedEmails: req.InboxSettings.PreventForwardedEmails,
			AutoMarkAsRead:         req.InboxSettings.AutoMarkAsRead,
		}
	}
	if req.JoinDate != nil {
		params.JoinDate = *req.JoinDate
	} else {
		params.JoinDate = time.Now()
	}

	created, err := h.users.Create(r.Context(), params)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrEmailRequired), errors.Is(err, user.ErrAccountEmailRequired):
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		case errors.Is(err, user.ErrAccountEmailTaken):
			writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
		default:
			slog.Error("failed to create user", "error", err)
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
		}
		return
	}

	writeJSON(w, http.StatusCreated, toUserView(created))
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	users, err := h.users.List(r.Context(), limit, offset)
	if err != nil {
		slog.Error("failed to list users", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
		return
	}

	views := make([]userView, 0, len(users))
	for i := range users {
		views = append(views, toUserView(&users[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": views})
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	u, ok := h.lookupUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toUserView(u))
}

type updateUserRequest struct {
	Email           *string          `json:"email"`
	DisplayName     *string          `json:"displayName"`
	Role            *string          `json:"role"`
	AccountEmail    *string          `json:"accountEmail"`
	AccountPassword *string          `json:"accountPassword"`
	Plan            *planSummaryView `json:"plan"`
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	u, ok := h.lookupUser(w, r)
	if !ok {
		return
	}

	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	if req.Email != nil {
		u.Email = *req.Email
	}
	if req.DisplayName != nil {
		u.DisplayName = *req.DisplayName
	}
	if req.Role != nil {
		u.Role = *req.Role
	}
	if req.AccountEmail != nil {
		u.AccountEmail = *req.AccountEmail
	}
	if req.AccountPassword != nil {
		u.AccountPassword = *req.AccountPassword
	}
	if req.Plan != nil {
		u.Plan.Name = req.Plan.Name
		u.Plan.Price = req.Plan.Price
		u.Plan.Status = req.Plan.Status
		if req.Plan.DueDate != nil {
			u.Plan.DueDate = *req.Plan.DueDate
		}
	}

	if err := h.users.Update(r.Context(), u); err != nil {
		if errors.Is(err, user.ErrAccountEmailTaken) {
			writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
			return
		}
		slog.Error("failed to update user", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toUserView(u))
}

type updateInboxSettingsRequest struct {
	ForwardingEnabled      bool `json:"forwardingEnabled"`
	DailyForwardingLimit   int  `json:"dailyForwardingLimit"`
	PreventForwardedEmails bool `json:"preventForwardedEmails"`
	AutoMarkAsRead         bool `json:"autoMarkAsRead"`
}

func (h *UserHandler) UpdateInboxSettings(w http.ResponseWriter, r *http.Request) {
	u, ok := h.lookupUser(w, r)
	if !ok {
		return
	}

	var req updateInboxSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	settings := models.InboxSettings{
		ForwardingEnabled:      req.ForwardingEnabled,
		DailyForwardingLimit:   req.DailyForwardingLimit,
		PreventForwardedEmails: req.PreventForwardedEmails,
		AutoMarkAsRead:         req.AutoMarkAsRead,
	}
	if err := h.users.UpdateInboxSettings(r.Context(), u.ID, settings); err != nil {
		slog.Error("failed to update inbox settings", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	u, ok := h.lookupUser(w, r)
	if !ok {
		return
	}
	if err := h.users.Delete(r.Context(), u.ID); err != nil {
		slog.Error("failed to delete user", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type createDestinationRequest struct {
	Type    string `json:"type"`
	Name    string `json:"name"`
	Enabled *bool  `json:"enabled"`

	TargetAddress string `json:"targetAddress"`

	WebhookURL     string            `json:"webhookUrl"`
	WebhookMethod  string            `json:"webhookMethod"`
	WebhookFormat  string            `json:"webhookFormat"`
	WebhookHeaders map[string]string `json:"webhookHeaders"`

	DiscordWebhookURL string `json:"discordWebhookUrl"`
	DiscordUsername   string `json:"discordUsername"`

	IFTTTEvent string `json:"iftttEvent"`
	IFTTTKey   string `json:"iftttKey"`

	Template string `json:"template"`
	Position int    `json:"position"`
}

func (h *UserHandler) AddDestination(w http.ResponseWriter, r *http.Request) {
	u, ok := h.lookupUser(w, r)
	if !ok {
		return
	}

	var req createDestinationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	params := models.DestinationCreateParams{
		UserID:            u.ID,
		Type:              req.Type,
		Name:              req.Name,
		Enabled:           enabled,
		TargetAddress:     req.TargetAddress,
		WebhookURL:        req.WebhookURL,
		WebhookMethod:     req.WebhookMethod,
		WebhookFormat:     req.WebhookFormat,
		WebhookHeaders:    req.WebhookHeaders,
		DiscordWebhookURL: req.DiscordWebhookURL,
		DiscordUsername:   req.DiscordUsername,
		IFTTTEvent:        req.IFTTTEvent,
		IFTTTKey:          req.IFTTTKey,
		Template:          req.Template,
		Position:          req.Position,
	}

	dest, err := h.users.AddDestination(r.Context(), params)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, toDestinationView(dest))
}

func (h *UserHandler) ListDestinations(w http.ResponseWriter, r *http.Request) {
	u, ok := h.lookupUser(w, r)
	if !ok {
		return
	}

	dests, err := h.users.ListDestinations(r.Context(), u.ID)
	if err != nil {
		slog.Error("failed to list destinations", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
		return
	}

	views := make([]destinationView, 0, len(dests))
	for i := range dests {
		views = append(views, toDestinationView(&dests[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{"destinations": views})
}

func (h *UserHandler) RemoveDestination(w http.ResponseWriter, r *http.Request) {
	u, ok := h.lookupUser(w, r)
	if !ok {
		return
	}

	destID, err := uuid.Parse(chi.URLParam(r, "destinationID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid destination ID"})
		return
	}

	if err := h.users.RemoveDestination(r.Context(), u.ID, destID); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "destination not found"})
			return
		}
		slog.Error("failed to remove destination", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// lookupUser resolves the {userID} path parameter. On failure it writes the
// error response and returns ok=false.
func (h *UserHandler) lookupUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	publicID, err := uuid.Parse(chi.URLParam(r, "userID"))
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

// pagination reads limit/offset query parameters with sane bounds.
func pagination(r *http.Request) (limit, offset int) {
	limit = defaultPageSize
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}
