package forward

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/subhive-systems/subhive/internal/inbox"
	"github.com/subhive-systems/subhive/internal/models"
)

const (
	defaultDiscordTemplate   = "\U0001F4E7 **New Email**\n**From:** {{fromEmail}}\n**Subject:** {{subject}}\n\n{{textBody}}"
	defaultPlaintextTemplate = "{{subject}} from {{fromEmail}}"
	defaultIFTTTBaseURL      = "https://maker.ifttt.com"

	discordBodyLimit = 1000
	iftttBodyLimit   = 500
)

type Options struct {
	// Timeout bounds each destination's round trip. Defaults to 10s.
	Timeout time.Duration
	// MaxConcurrent limits parallel deliveries per email. Defaults to 4.
	MaxConcurrent int
	// IFTTTBaseURL overrides the trigger-service base URL (tests).
	IFTTTBaseURL string
	// Client overrides the HTTP client (tests).
	Client *http.Client
}

// Dispatcher delivers an accepted email to the user's enabled destinations.
// Destinations are independent, so they run concurrently, each under its
// own timeout; a failure is logged and never affects siblings or the
// webhook response. There is no retry and no dead-letter queue.
type Dispatcher struct {
	client        *http.Client
	timeout       time.Duration
	maxConcurrent int
	iftttBaseURL  string
}

func NewDispatcher(opts Options) *Dispatcher {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	maxConcurrent := opts.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	baseURL := strings.TrimSuffix(opts.IFTTTBaseURL, "/")
	if baseURL == "" {
		baseURL = defaultIFTTTBaseURL
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}

	return &Dispatcher{
		client:        client,
		timeout:       timeout,
		maxConcurrent: maxConcurrent,
		iftttBaseURL:  baseURL,
	}
}

// Forward satisfies inbox.Forwarder.
func (d *Dispatcher) Forward(ctx context.Context, destinations []models.ForwardingDestination, email *inbox.Email) {
	g := new(errgroup.Group)
	g.SetLimit(d.maxConcurrent)

	for _, dest := range destinations {
		if !dest.Enabled {
			continue
		}
		dest := dest
		g.Go(func() error {
			dctx, cancel := context.WithTimeout(ctx, d.timeout)
			defer cancel()

			if err := d.deliver(dctx, &dest, email); err != nil {
				slog.Error("destination delivery failed",
					"destination", dest.Name,
					"type", dest.Type,
					"error", err,
				)
			}
			return nil
		})
	}

	g.Wait()
}

func (d *Dispatcher) deliver(ctx context.Context, dest *models.ForwardingDestination, email *inbox.Email) error {
	switch dest.Type {
	case models.DestinationDiscord:
		return d.sendDiscord(ctx, dest, email)
	case models.DestinationWebhook:
		return d.sendWebhook(ctx, dest, email)
	case models.DestinationIFTTT:
		return d.sendIFTTT(ctx, dest, email)
	case models.DestinationEmail:
		// Recognized but deferred: needs outbound SMTP per destination.
		slog.Info("email destination not implemented, skipping",
			"destination", dest.Name, "target", dest.TargetAddress)
		return nil
	default:
		return fmt.Errorf("unknown destination type %q", dest.Type)
	}
}

func (d *Dispatcher) sendDiscord(ctx context.Context, dest *models.ForwardingDestination, email *inbox.Email) error {
	template := dest.Template
	if template == "" {
		template = defaultDiscordTemplate
	}

	fromName := email.FromName
	if fromName == "" {
		fromName = email.From
	}
	message := Render(template, map[string]string{
		"fromEmail":  email.From,
		"fromName":   fromName,
		"subject":    email.Subject,
		"textBody":   truncate(email.TextBody, discordBodyLimit),
		"receivedAt": time.Now().UTC().Format(time.RFC3339),
	})

	username := dest.DiscordUsername
	if username == "" {
		username = "Email Bot"
	}
	body, err := json.Marshal(map[string]string{
		"content":  message,
		"username": username,
	})
	if err != nil {
		return fmt.Errorf("marshal discord payload: %w", err)
	}

	return d.post(ctx, http.MethodPost, dest.DiscordWebhookURL, "application/json", nil, body)
}

func (d *Dispatcher) sendWebhook(ctx context.Context, dest *models.ForwardingDestination, email *inbox.Email) error {
	fields := map[string]string{
		"fromEmail":  email.From,
		"fromName":   email.FromName,
		"subject":    email.Subject,
		"textBody":   email.TextBody,
		"htmlBody":   email.HTMLBody,
		"receivedAt": time.Now().UTC().Format(time.RFC3339),
	}

	var (
		body        []byte
		contentType string
	)
	switch dest.WebhookFormat {
	case models.WebhookFormatJSON:
		raw, err := json.Marshal(fields)
		if err != nil {
			return fmt.Errorf("marshal webhook payload: %w", err)
		}
		body = raw
		contentType = "application/json"
	case models.WebhookFormatForm:
		values := url.Values{}
		for key, value := range fields {
			values.Set(key, value)
		}
		body = []byte(values.Encode())
		contentType = "application/x-www-form-urlencoded"
	default: // plaintext
		template := dest.Template
		if template == "" {
			template = defaultPlaintextTemplate
		}
		body = []byte(Render(template, fields))
		contentType = "text/plain"
	}

	method := dest.WebhookMethod
	if method == "" {
		method = http.MethodPost
	}

	return d.post(ctx, method, dest.WebhookURL, contentType, dest.WebhookHeaders, body)
}

func (d *Dispatcher) sendIFTTT(ctx context.Context, dest *models.ForwardingDestination, email *inbox.Email) error {
	triggerURL := fmt.Sprintf("%s/trigger/%s/with/key/%s",
		d.iftttBaseURL, url.PathEscape(dest.IFTTTEvent), url.PathEscape(dest.IFTTTKey))

	body, err := json.Marshal(map[string]string{
		"value1": email.Subject,
		"value2": email.From,
		"value3": truncate(email.TextBody, iftttBodyLimit),
	})
	if err != nil {
		return fmt.Errorf("marshal ifttt payload: %w", err)
	}

	return d.post(ctx, http.MethodPost, triggerURL, "application/json", nil, body)
}

func (d *Dispatcher) post(ctx context.Context, method, targetURL, contentType string, extraHeaders map[string]string, body []byte) error {
	if targetURL == "" {
		return fmt.Errorf("destination URL is empty")
	}

	req, err := http.NewRequestWithContext(ctx, method, targetURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	for key, value := range extraHeaders {
		req.Header.Set(key, value)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("delivery failed with status %d", resp.StatusCode)
	}
	return nil
}
