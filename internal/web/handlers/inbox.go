package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/subhive-systems/subhive/internal/inbox"
	"github.com/subhive-systems/subhive/internal/user"
)

// InboxHandler serves per-user mailbox management under the admin API.
type InboxHandler struct {
	inbox *inbox.Service
	users *user.Service
}

func NewInboxHandler(inboxService *inbox.Service, userService *user.Service) *InboxHandler {
	return &InboxHandler{inbox: inboxService, users: userService}
}

func (h *InboxHandler) ListEmails(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.resolveUserID(w, r)
	if !ok {
		return
	}

	limit, offset := pagination(r)
	emails, unread, err := h.inbox.ListEmails(r.Context(), userID, limit, offset)
	if err != nil {
		slog.Error("failed to list emails", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
		return
	}

	views := make([]emailView, 0, len(emails))
	for i := range emails {
		views = append(views, toEmailView(&emails[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"emails":      views,
		"unreadCount": unread,
	})
}

func (h *InboxHandler) GetEmail(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.resolveUserID(w, r)
	if !ok {
		return
	}
	emailID, ok := h.emailID(w, r)
	if !ok {
		return
	}

	email, err := h.inbox.GetEmail(r.Context(), userID, emailID)
	if err != nil {
		h.writeMailboxError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEmailView(email))
}

func (h *InboxHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	h.setReadFlag(w, r, true)
}

func (h *InboxHandler) MarkUnread(w http.ResponseWriter, r *http.Request) {
	h.setReadFlag(w, r, false)
}

func (h *InboxHandler) Star(w http.ResponseWriter, r *http.Request) {
	h.setStarredFlag(w, r, true)
}

func (h *InboxHandler) Unstar(w http.ResponseWriter, r *http.Request) {
	h.setStarredFlag(w, r, false)
}

func (h *InboxHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.resolveUserID(w, r)
	if !ok {
		return
	}
	if err := h.inbox.MarkAllRead(r.Context(), userID); err != nil {
		slog.Error("failed to mark all emails read", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *InboxHandler) DeleteEmail(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.resolveUserID(w, r)
	if !ok {
		return
	}
	emailID, ok := h.emailID(w, r)
	if !ok {
		return
	}
	if err := h.inbox.DeleteEmail(r.Context(), userID, emailID); err != nil {
		h.writeMailboxError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type cleanupRequest struct {
	OlderThanDays int `json:"olderThanDays"`
}

func (h *InboxHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.resolveUserID(w, r)
	if !ok {
		return
	}

	var req cleanupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.OlderThanDays <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "olderThanDays must be positive"})
		return
	}

	deleted, err := h.inbox.Cleanup(r.Context(), userID, time.Duration(req.OlderThanDays)*24*time.Hour)
	if err != nil {
		slog.Error("failed to clean up emails", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": deleted})
}

func (h *InboxHandler) setReadFlag(w http.ResponseWriter, r *http.Request, isRead bool) {
	userID, ok := h.resolveUserID(w, r)
	if !ok {
		return
	}
	emailID, ok := h.emailID(w, r)
	if !ok {
		return
	}
	if err := h.inbox.SetRead(r.Context(), userID, emailID, isRead); err != nil {
		h.writeMailboxError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *InboxHandler) setStarredFlag(w http.ResponseWriter, r *http.Request, isStarred bool) {
	userID, ok := h.resolveUserID(w, r)
	if !ok {
		return
	}
	emailID, ok := h.emailID(w, r)
	if !ok {
		return
	}
	if err := h.inbox.SetStarred(r.Context(), userID, emailID, isStarred); err != nil {
		h.writeMailboxError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *InboxHandler) resolveUserID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	publicID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid user ID"})
		return 0, false
	}
	u, err := h.users.Get(r.Context(), publicID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "user not found"})
			return 0, false
		}
		slog.Error("failed to look up user", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
		return 0, false
	}
	return u.ID, true
}

func (h *InboxHandler) emailID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "emailID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid email ID"})
		return uuid.Nil, false
	}
	return id, true
}

func (h *InboxHandler) writeMailboxError(w http.ResponseWriter, err error) {
	if errors.Is(err, inbox.ErrEmailNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "email not found"})
		return
	}
	slog.Error("mailbox operation failed", "error", err)
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
}
