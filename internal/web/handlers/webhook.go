package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/subhive-systems/subhive/internal/inbox"
)

const maxWebhookBodyBytes int64 = 1024 * 1024

// WebhookHandler serves the public inbound email webhook.
type WebhookHandler struct {
	inbox *inbox.Service
}

func NewWebhookHandler(service *inbox.Service) *WebhookHandler {
	return &WebhookHandler{inbox: service}
}

// webhookResponse is the success envelope providers receive.
type webhookResponse struct {
	Success bool   `json:"success"`
	EmailID string `json:"emailId,omitempty"`
	Message string `json:"message,omitempty"`
}

// HandleInboundEmail accepts an inbound email notification from a provider.
//
// POST is preferred; GET is tolerated for providers that can only send
// query parameters. The receiving address comes from the "address" or
// "receivingAddress" body field, falling back to the "address" query
// parameter; body fields win when both are supplied.
func (h *WebhookHandler) HandleInboundEmail(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodOptions:
		// Preflight is answered before any business logic.
		w.WriteHeader(http.StatusOK)
		return
	case http.MethodGet, http.MethodPost:
	default:
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "Method not allowed"})
		return
	}

	payload := decodeWebhookPayload(w, r)

	address, _ := payload["address"].(string)
	if address == "" {
		address, _ = payload["receivingAddress"].(string)
	}

	result, err := h.inbox.Ingest(r.Context(), address, payload)
	if err != nil {
		switch {
		case errors.Is(err, inbox.ErrMissingAddress):
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Receiving address is required"})
		case errors.Is(err, inbox.ErrInvalidPayload):
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid email data"})
		case errors.Is(err, inbox.ErrUserNotFound):
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "User not found for receiving address"})
		case errors.Is(err, inbox.ErrForwardingDisabled):
			writeJSON(w, http.StatusForbidden, errorResponse{Error: "Email forwarding not enabled for this user"})
		case errors.Is(err, inbox.ErrQuotaExceeded):
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "Daily forwarding limit exceeded"})
		default:
			slog.Error("email webhook error", "error", err)
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal server error"})
		}
		return
	}

	if result.Skipped {
		writeJSON(w, http.StatusOK, webhookResponse{
			Success: true,
			Message: "Skipped forwarded email",
		})
		return
	}

	writeJSON(w, http.StatusOK, webhookResponse{
		Success: true,
		EmailID: result.EmailID.String(),
		Message: "Email processed successfully",
	})
}

// decodeWebhookPayload merges query parameters and the request body into one
// map, body fields taking precedence. A body that cannot be parsed is
// ignored; shape recognition downstream rejects what remains.
func decodeWebhookPayload(w http.ResponseWriter, r *http.Request) map[string]any {
	payload := map[string]any{}
	for key, values := range r.URL.Query() {
		if len(values) > 0 {
			payload[key] = values[0]
		}
	}

	if r.Method != http.MethodPost || r.Body == nil {
		return payload
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBodyBytes)

	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "application/x-www-form-urlencoded") ||
		strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxWebhookBodyBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			return payload
		}
		for key, values := range r.PostForm {
			if len(values) > 0 {
				payload[key] = values[0]
			}
		}
		return payload
	}

	raw, err := io.ReadAll(r.Body)
	if err != nil || len(bytes.TrimSpace(raw)) == 0 {
		return payload
	}

	body := map[string]any{}
	if err := json.Unmarshal(raw, &body); err != nil {
		// Some providers double-encode: a JSON string containing JSON.
		var s string
		if json.Unmarshal(raw, &s) == nil {
			_ = json.Unmarshal([]byte(s), &body)
		}
	}
	for key, value := range body {
		payload[key] = value
	}
	return payload
}
