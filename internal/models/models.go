package models

import (
	"time"

	"github.com/google/uuid"
)

// Admin is an operator account for the management API.
type Admin struct {
	ID           int64
	PublicID     uuid.UUID
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Session struct {
	ID        int64
	Token     string
	AdminID   int64
	ExpiresAt time.Time
	CreatedAt time.Time
}

// PlanSummary is the per-user snapshot of the plan a member is on.
type PlanSummary struct {
	Name    string
	Price   float64
	DueDate time.Time
	Status  string // active, expired, pending
}

// InboxSettings controls the email webhook pipeline for one user.
// DailyForwardingCount is the only field the pipeline mutates; it is
// reset to zero by the nightly scheduler job.
type InboxSettings struct {
	ForwardingEnabled      bool
	DailyForwardingLimit   int
	DailyForwardingCount   int
	PreventForwardedEmails bool
	AutoMarkAsRead         bool
}

// User is a managed member of a shared subscription. AccountEmail is the
// unique receiving address that inbound webhook payloads resolve against.
type User struct {
	ID              int64
	PublicID        uuid.UUID
	Email           string
	DisplayName     string
	Role            string // user, admin
	AccountEmail    string
	AccountPassword string
	Plan            PlanSummary
	InboxSettings   InboxSettings
	JoinDate        time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type UserCreateParams struct {
	Email           string
	DisplayName     string
	Role            string
	AccountEmail    string
	AccountPassword string
	Plan            PlanSummary
	InboxSettings   InboxSettings
	JoinDate        time.Time
}

// Destination types.
const (
	DestinationEmail   = "email"
	DestinationWebhook = "webhook"
	DestinationDiscord = "discord"
	DestinationIFTTT   = "ifttt"
)

// Webhook body formats.
const (
	WebhookFormatJSON      = "json"
	WebhookFormatForm      = "form"
	WebhookFormatPlaintext = "plaintext"
)

// ForwardingDestination is one configured downstream target an accepted
// email is re-sent to. Only the fields for its Type are meaningful.
type ForwardingDestination struct {
	ID       int64
	PublicID uuid.UUID
	UserID   int64
	Type     string
	Name     string
	Enabled  bool

	// email
	TargetAddress string

	// webhook
	WebhookURL     string
	WebhookMethod  string
	WebhookFormat  string
	WebhookHeaders map[string]string

	// discord
	DiscordWebhookURL string
	DiscordUsername   string

	// ifttt
	IFTTTEvent string
	IFTTTKey   string

	// Optional {{placeholder}} template, any type.
	Template string

	Position  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

type DestinationCreateParams struct {
	UserID            int64
	Type              string
	Name              string
	Enabled           bool
	TargetAddress     string
	WebhookURL        string
	WebhookMethod     string
	WebhookFormat     string
	WebhookHeaders    map[string]string
	DiscordWebhookURL string
	DiscordUsername   string
	IFTTTEvent        string
	IFTTTKey          string
	Template          string
	Position          int
}

// EmailAttachment is the canonical attachment representation stored
// alongside an email message. Data is opaque, typically base64.
type EmailAttachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	Data        string `json:"data,omitempty"`
}

// EmailMessage is a stored inbox message created by the webhook pipeline
// and later mutated by the inbox management API.
type EmailMessage struct {
	ID          int64
	PublicID    uuid.UUID
	UserID      int64
	FromEmail   string
	FromName    string
	Subject     string
	TextBody    string
	HTMLBody    string
	Attachments []EmailAttachment
	IsRead      bool
	IsStarred   bool
	ReceivedAt  time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type EmailCreateParams struct {
	UserID      int64
	FromEmail   string
	FromName    string
	Subject     string
	TextBody    string
	HTMLBody    string
	Attachments []EmailAttachment
	IsRead      bool
}

// SubscriptionPlan is an offering members can be assigned to.
type SubscriptionPlan struct {
	ID          int64
	PublicID    uuid.UUID
	Name        string
	Price       float64
	Currency    string
	Description string
	Features    []string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type PlanCreateParams struct {
	Name        string
	Price       float64
	Currency    string
	Description string
	Features    []string
	IsActive    bool
}

// SharedAccount is a third-party subscription account shared between users.
type SharedAccount struct {
	ID           int64
	PublicID     uuid.UUID
	PlanID       int64
	PlanName     string
	Email        string
	Password     string
	MaxUsers     int
	CurrentUsers int
	Status       string // active, inactive, suspended
	Notes        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type AccountCreateParams struct {
	PlanID   int64
	Email    string
	Password string
	MaxUsers int
	Status   string
	Notes    string
}

// AccountAssignment links a user to a shared account seat.
type AccountAssignment struct {
	ID         int64
	UserID     int64
	AccountID  int64
	Status     string // active, inactive
	AssignedAt time.Time
}
