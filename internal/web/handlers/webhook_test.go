package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/subhive-systems/subhive/internal/inbox"
	"github.com/subhive-systems/subhive/internal/models"
)

// --- Minimal stores backing the webhook pipeline ---

type fakeUserStore struct {
	user        *models.User
	lookups     int
	lookupError error
}

func (f *fakeUserStore) CreateUser(_ context.Context, _ models.UserCreateParams) (*models.User, error) {
	return nil, errors.New("not implemented")
}
func (f *fakeUserStore) GetUserByID(_ context.Context, _ int64) (*models.User, error) {
	return f.user, nil
}
func (f *fakeUserStore) GetUserByPublicID(_ context.Context, _ uuid.UUID) (*models.User, error) {
	return f.user, nil
}
func (f *fakeUserStore) GetUserByAccountEmail(_ context.Context, accountEmail string) (*models.User, error) {
	f.lookups++
	if f.lookupError != nil {
		return nil, f.lookupError
	}
	if f.user == nil || f.user.AccountEmail != accountEmail {
		return nil, sql.ErrNoRows
	}
	return f.user, nil
}
func (f *fakeUserStore) ListUsers(_ context.Context, _, _ int) ([]models.User, error) {
	return nil, nil
}
func (f *fakeUserStore) ListUsersWithPlanDueBetween(_ context.Context, _, _ time.Time) ([]models.User, error) {
	return nil, nil
}
func (f *fakeUserStore) UpdateUser(_ context.Context, _ *models.User) error { return nil }
func (f *fakeUserStore) UpdateInboxSettings(_ context.Context, _ int64, _ models.InboxSettings) error {
	return nil
}
func (f *fakeUserStore) IncrementForwardingCount(_ context.Context, _ int64) (bool, error) {
	if f.user.InboxSettings.DailyForwardingCount >= f.user.InboxSettings.DailyForwardingLimit {
		return false, nil
	}
	f.user.InboxSettings.DailyForwardingCount++
	return true, nil
}
func (f *fakeUserStore) DecrementForwardingCount(_ context.Context, _ int64) error {
	f.user.InboxSettings.DailyForwardingCount--
	return nil
}
func (f *fakeUserStore) ResetDailyForwardingCounts(_ context.Context) (int64, error) { return 0, nil }
func (f *fakeUserStore) DeleteUser(_ context.Context, _ int64) error                 { return nil }

type fakeEmailStore struct {
	created []models.EmailCreateParams
}

func (f *fakeEmailStore) CreateEmail(_ context.Context, params models.EmailCreateParams) (*models.EmailMessage, error) {
	f.created = append(f.created, params)
	return &models.EmailMessage{
		ID:       int64(len(f.created)),
		PublicID: uuid.New(),
		UserID:   params.UserID,
		Subject:  params.Subject,
	}, nil
}
func (f *fakeEmailStore) GetEmailByPublicID(_ context.Context, _ uuid.UUID) (*models.EmailMessage, error) {
	return nil, sql.ErrNoRows
}
func (f *fakeEmailStore) ListEmailsByUserID(_ context.Context, _ int64, _, _ int) ([]models.EmailMessage, error) {
	return nil, nil
}
func (f *fakeEmailStore) CountUnreadByUserID(_ context.Context, _ int64) (int, error) { return 0, nil }
func (f *fakeEmailStore) SetEmailRead(_ context.Context, _ int64, _ bool) error       { return nil }
func (f *fakeEmailStore) SetEmailStarred(_ context.Context, _ int64, _ bool) error    { return nil }
func (f *fakeEmailStore) MarkAllEmailsRead(_ context.Context, _ int64) error          { return nil }
func (f *fakeEmailStore) DeleteEmail(_ context.Context, _ int64) error                { return nil }
func (f *fakeEmailStore) DeleteEmailsOlderThan(_ context.Context, _ int64, _ time.Time) (int64, error) {
	return 0, nil
}

type fakeDestinationStore struct{}

func (fakeDestinationStore) CreateDestination(_ context.Context, _ models.DestinationCreateParams) (*models.ForwardingDestination, error) {
	return nil, errors.New("not implemented")
}
func (fakeDestinationStore) ListDestinationsByUserID(_ context.Context, _ int64) ([]models.ForwardingDestination, error) {
	return nil, nil
}
func (fakeDestinationStore) GetDestinationByPublicID(_ context.Context, _ uuid.UUID) (*models.ForwardingDestination, error) {
	return nil, sql.ErrNoRows
}
func (fakeDestinationStore) SetDestinationEnabled(_ context.Context, _ int64, _ bool) error {
	return nil
}
func (fakeDestinationStore) DeleteDestination(_ context.Context, _, _ int64) error { return nil }

func newTestWebhookHandler(user *models.User) (*WebhookHandler, *fakeUserStore, *fakeEmailStore) {
	users := &fakeUserStore{user: user}
	emails := &fakeEmailStore{}
	svc := inbox.NewService(users, emails, fakeDestinationStore{}, nil)
	return NewWebhookHandler(svc), users, emails
}

func enabledUser() *models.User {
	return &models.User{
		ID:           1,
		PublicID:     uuid.New(),
		AccountEmail: "inbox@subhive.test",
		InboxSettings: models.InboxSettings{
			ForwardingEnabled:    true,
			DailyForwardingLimit: 10,
		},
	}
}

func postJSON(t *testing.T, handler *WebhookHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/webhook/email", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.HandleInboundEmail(rec, req)
	return rec
}

// --- Tests ---

func TestWebhookStoresEmail(t *testing.T) {
	handler, _, emails := newTestWebhookHandler(enabledUser())

	rec := postJSON(t, handler, `{
		"address": "inbox@subhive.test",
		"from": "sender@example.com",
		"subject": "Hello",
		"text": "body"
	}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body = %s", rec.Code, rec.Body.String())
	}

	var resp webhookResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if !resp.Success {
		t.Error("success = false")
	}
	if resp.Message != "Email processed successfully" {
		t.Errorf("message = %q", resp.Message)
	}
	if _, err := uuid.Parse(resp.EmailID); err != nil {
		t.Errorf("emailId %q is not a UUID", resp.EmailID)
	}
	if len(emails.created) != 1 {
		t.Fatalf("stored %d emails, want 1", len(emails.created))
	}
}

func TestWebhookReceivingAddressFallbackKey(t *testing.T) {
	handler, _, emails := newTestWebhookHandler(enabledUser())

	rec := postJSON(t, handler, `{
		"receivingAddress": "inbox@subhive.test",
		"from": "sender@example.com",
		"subject": "Hi"
	}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if len(emails.created) != 1 {
		t.Error("email not stored via receivingAddress key")
	}
}

func TestWebhookBodyAddressWinsOverQuery(t *testing.T) {
	handler, users, _ := newTestWebhookHandler(enabledUser())

	req := httptest.NewRequest(http.MethodPost,
		"/api/webhook/email?address=query@subhive.test",
		strings.NewReader(`{"address":"inbox@subhive.test","from":"s@example.com","subject":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.HandleInboundEmail(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body address should win)", rec.Code)
	}
	if users.lookups != 1 {
		t.Errorf("lookups = %d, want 1", users.lookups)
	}
}

func TestWebhookGETWithQueryParams(t *testing.T) {
	handler, _, emails := newTestWebhookHandler(enabledUser())

	req := httptest.NewRequest(http.MethodGet,
		"/api/webhook/email?address=inbox@subhive.test&from=sender@example.com&subject=Ping", nil)
	rec := httptest.NewRecorder()
	handler.HandleInboundEmail(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body = %s", rec.Code, rec.Body.String())
	}
	if len(emails.created) != 1 {
		t.Fatal("email not stored from query parameters")
	}
	if emails.created[0].Subject != "Ping" {
		t.Errorf("subject = %q, want Ping", emails.created[0].Subject)
	}
}

func TestWebhookOptionsAlwaysOK(t *testing.T) {
	handler, users, _ := newTestWebhookHandler(enabledUser())

	req := httptest.NewRequest(http.MethodOptions, "/api/webhook/email", nil)
	rec := httptest.NewRecorder()
	handler.HandleInboundEmail(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if users.lookups != 0 {
		t.Error("OPTIONS triggered business logic")
	}
}

func TestWebhookRejectsOtherMethods(t *testing.T) {
	for _, method := range []string{http.MethodPut, http.MethodDelete, http.MethodPatch} {
		handler, users, emails := newTestWebhookHandler(enabledUser())

		req := httptest.NewRequest(method, "/api/webhook/email",
			strings.NewReader(`{"address":"inbox@subhive.test","from":"s@example.com","subject":"x"}`))
		rec := httptest.NewRecorder()
		handler.HandleInboundEmail(rec, req)

		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s status = %d, want 405", method, rec.Code)
		}
		if users.lookups != 0 || len(emails.created) != 0 {
			t.Errorf("%s caused side effects", method)
		}
	}
}

func TestWebhookMissingAddress(t *testing.T) {
	handler, users, _ := newTestWebhookHandler(enabledUser())

	rec := postJSON(t, handler, `{"from":"sender@example.com","subject":"no address"}`)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if users.lookups != 0 {
		t.Error("user lookup performed without address")
	}
}

func TestWebhookInvalidPayload(t *testing.T) {
	handler, _, _ := newTestWebhookHandler(enabledUser())

	rec := postJSON(t, handler, `{"address":"inbox@subhive.test","unrecognized":"shape"}`)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400; body = %s", rec.Code, rec.Body.String())
	}
}

func TestWebhookUnknownUser(t *testing.T) {
	handler, _, _ := newTestWebhookHandler(enabledUser())

	rec := postJSON(t, handler, `{"address":"other@subhive.test","from":"s@example.com","subject":"x"}`)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestWebhookForwardingDisabled(t *testing.T) {
	u := enabledUser()
	u.InboxSettings.ForwardingEnabled = false
	handler, _, _ := newTestWebhookHandler(u)

	rec := postJSON(t, handler, `{"address":"inbox@subhive.test","from":"s@example.com","subject":"x"}`)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestWebhookQuotaExceeded(t *testing.T) {
	u := enabledUser()
	u.InboxSettings.DailyForwardingCount = u.InboxSettings.DailyForwardingLimit
	handler, _, emails := newTestWebhookHandler(u)

	rec := postJSON(t, handler, `{"address":"inbox@subhive.test","from":"s@example.com","subject":"x"}`)

	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", rec.Code)
	}
	if len(emails.created) != 0 {
		t.Error("email stored over quota")
	}
}

func TestWebhookSkipResponse(t *testing.T) {
	u := enabledUser()
	u.InboxSettings.PreventForwardedEmails = true
	handler, _, emails := newTestWebhookHandler(u)

	rec := postJSON(t, handler, `{"address":"inbox@subhive.test","from":"s@example.com","subject":"Fwd: chain"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp webhookResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if !resp.Success || resp.Message != "Skipped forwarded email" {
		t.Errorf("response = %+v", resp)
	}
	if resp.EmailID != "" {
		t.Errorf("emailId = %q, want empty for skip", resp.EmailID)
	}
	if len(emails.created) != 0 {
		t.Error("skipped email was stored")
	}
}

func TestWebhookStoreErrorReturns500(t *testing.T) {
	handler, users, _ := newTestWebhookHandler(enabledUser())
	users.lookupError = errors.New("connection refused")

	rec := postJSON(t, handler, `{"address":"inbox@subhive.test","from":"s@example.com","subject":"x"}`)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestWebhookUnparsableBodyFallsBackToQuery(t *testing.T) {
	handler, _, emails := newTestWebhookHandler(enabledUser())

	req := httptest.NewRequest(http.MethodPost,
		"/api/webhook/email?address=inbox@subhive.test&from=sender@example.com&subject=Query",
		strings.NewReader("%%%not json%%%"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.HandleInboundEmail(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body = %s", rec.Code, rec.Body.String())
	}
	if len(emails.created) != 1 {
		t.Error("query fallback did not store email")
	}
}

func TestWebhookFormEncodedBody(t *testing.T) {
	handler, _, emails := newTestWebhookHandler(enabledUser())

	form := "address=inbox@subhive.test&from=sender@example.com&subject=Form+post&text=hi"
	req := httptest.NewRequest(http.MethodPost, "/api/webhook/email", strings.NewReader(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler.HandleInboundEmail(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body = %s", rec.Code, rec.Body.String())
	}
	if len(emails.created) != 1 {
		t.Fatal("form post not stored")
	}
	if emails.created[0].Subject != "Form post" {
		t.Errorf("subject = %q", emails.created[0].Subject)
	}
}
