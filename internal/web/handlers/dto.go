package handlers

import (
	"time"

	"github.com/subhive-systems/subhive/internal/models"
)

// View types returned by the admin API. Internal numeric IDs never leave
// the process; resources are addressed by their public UUIDs.

type planSummaryView struct {
	Name    string     `json:"name"`
	Price   float64    `json:"price"`
	DueDate *time.Time `json:"dueDate,omitempty"`
	Status  string     `json:"status"`
}

type inboxSettingsView struct {
	ForwardingEnabled      bool `json:"forwardingEnabled"`
	DailyForwardingLimit   int  `json:"dailyForwardingLimit"`
	DailyForwardingCount   int  `json:"dailyForwardingCount"`
	PreventForwardedEmails bool `json:"preventForwardedEmails"`
	AutoMarkAsRead         bool `json:"autoMarkAsRead"`
}

type userView struct {
	ID            string            `json:"id"`
	Email         string            `json:"email"`
	DisplayName   string            `json:"displayName"`
	Role          string            `json:"role"`
	AccountEmail  string            `json:"accountEmail"`
	Plan          planSummaryView   `json:"plan"`
	InboxSettings inboxSettingsView `json:"inboxSettings"`
	JoinDate      time.Time         `json:"joinDate"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}

func toUserView(u *models.User) userView {
	v := userView{
		ID:           u.PublicID.String(),
		Email:        u.Email,
		DisplayName:  u.DisplayName,
		Role:         u.Role,
		AccountEmail: u.AccountEmail,
		Plan: planSummaryView{
			Name:   u.Plan.Name,
			Price:  u.Plan.Price,
			Status: u.Plan.Status,
		},
		InboxSettings: inboxSettingsView{
			ForwardingEnabled:      u.InboxSettings.ForwardingEnabled,
			DailyForwardingLimit:   u.InboxSettings.DailyForwardingLimit,
			DailyForwardingCount:   u.InboxSettings.DailyForwardingCount,
			PreventForwardedEmails: u.InboxSettings.PreventForwardedEmails,
			AutoMarkAsRead:         u.InboxSettings.AutoMarkAsRead,
		},
		JoinDate:  u.JoinDate,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
	if !u.Plan.DueDate.IsZero() {
		due := u.Plan.DueDate
		v.Plan.DueDate = &due
	}
	return v
}

type destinationView struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`

	TargetAddress string `json:"targetAddress,omitempty"`

	WebhookURL     string            `json:"webhookUrl,omitempty"`
	WebhookMethod  string            `json:"webhookMethod,omitempty"`
	WebhookFormat  string            `json:"webhookFormat,omitempty"`
	WebhookHeaders map[string]string `json:"webhookHeaders,omitempty"`

	DiscordWebhookURL string `json:"discordWebhookUrl,omitempty"`
	DiscordUsername   string `json:"discordUsername,omitempty"`

	IFTTTEvent string `json:"iftttEvent,omitempty"`
	IFTTTKey   string `json:"iftttKey,omitempty"`

	Template string `json:"template,omitempty"`
	Position int    `json:"position"`
}

func toDestinationView(d *models.ForwardingDestination) destinationView {
	return destinationView{
		ID:                d.PublicID.String(),
		Type:              d.Type,
		Name:              d.Name,
		Enabled:           d.Enabled,
		TargetAddress:     d.TargetAddress,
		WebhookURL:        d.WebhookURL,
		WebhookMethod:     d.WebhookMethod,
		WebhookFormat:     d.WebhookFormat,
		WebhookHeaders:    d.WebhookHeaders,
		DiscordWebhookURL: d.DiscordWebhookURL,
		DiscordUsername:   d.DiscordUsername,
		IFTTTEvent:        d.IFTTTEvent,
		IFTTTKey:          d.IFTTTKey,
		Template:          d.Template,
		Position:          d.Position,
	}
}

type emailView struct {
	ID          string                   `json:"id"`
	FromEmail   string                   `json:"fromEmail"`
	FromName    string                   `json:"fromName,omitempty"`
	Subject     string                   `json:"subject"`
	TextBody    string                   `json:"textBody"`
	HTMLBody    string                   `json:"htmlBody,omitempty"`
	Attachments []models.EmailAttachment `json:"attachments"`
	IsRead      bool                     `json:"isRead"`
	IsStarred   bool                     `json:"isStarred"`
	ReceivedAt  time.Time                `json:"receivedAt"`
}

func toEmailView(e *models.EmailMessage) emailView {
	attachments := e.Attachments
	if attachments == nil {
		attachments = []models.EmailAttachment{}
	}
	return emailView{
		ID:          e.PublicID.String(),
		FromEmail:   e.FromEmail,
		FromName:    e.FromName,
		Subject:     e.Subject,
		TextBody:    e.TextBody,
		HTMLBody:    e.HTMLBody,
		Attachments: attachments,
		IsRead:      e.IsRead,
		IsStarred:   e.IsStarred,
		ReceivedAt:  e.ReceivedAt,
	}
}

type planView struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Price       float64   `json:"price"`
	Currency    string    `json:"currency"`
	Description string    `json:"description,omitempty"`
	Features    []string  `json:"features"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toPlanView(p *models.SubscriptionPlan) planView {
	features := p.Features
	if features == nil {
		features = []string{}
	}
	return planView{
		ID:          p.PublicID.String(),
		Name:        p.Name,
		Price:       p.Price,
		Currency:    p.Currency,
		Description: p.Description,
		Features:    features,
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

type accountView struct {
	ID           string    `json:"id"`
	PlanName     string    `json:"planName"`
	Email        string    `json:"email"`
	MaxUsers     int       `json:"maxUsers"`
	CurrentUsers int       `json:"currentUsers"`
	Status       string    `json:"status"`
	Notes        string    `json:"notes,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func toAccountView(a *models.SharedAccount) accountView {
	return accountView{
		ID:           a.PublicID.String(),
		PlanName:     a.PlanName,
		Email:        a.Email,
		MaxUsers:     a.MaxUsers,
		CurrentUsers: a.CurrentUsers,
		Status:       a.Status,
		Notes:        a.Notes,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}
