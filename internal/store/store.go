package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/subhive-systems/subhive/internal/models"
)

type AdminStore interface {
	CreateAdmin(ctx context.Context, email, passwordHash string) (*models.Admin, error)
	GetAdminByEmail(ctx context.Context, email string) (*models.Admin, error)
	GetAdminByID(ctx context.Context, id int64) (*models.Admin, error)
}

type SessionStore interface {
	CreateSession(ctx context.Context, token string, adminID int64, expiresAt time.Time) (*models.Session, error)
	GetSessionByToken(ctx context.Context, token string) (*models.Session, error)
	DeleteSession(ctx context.Context, token string) error
	DeleteExpiredSessions(ctx context.Context) error
}

type UserStore interface {
	CreateUser(ctx context.Context, params models.UserCreateParams) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByPublicID(ctx context.Context, publicID uuid.UUID) (*models.User, error)
	GetUserByAccountEmail(ctx context.Context, accountEmail string) (*models.User, error)
	ListUsers(ctx context.Context, limit, offset int) ([]models.User, error)
	ListUsersWithPlanDueBetween(ctx context.Context, from, to time.Time) ([]models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	UpdateInboxSettings(ctx context.Context, userID int64, settings models.InboxSettings) error
	// IncrementForwardingCount atomically increments the user's daily
	// forwarding count if it is still below the daily limit. It reports
	// whether the increment was applied.
	IncrementForwardingCount(ctx context.Context, userID int64) (bool, error)
	DecrementForwardingCount(ctx context.Context, userID int64) error
	ResetDailyForwardingCounts(ctx context.Context) (int64, error)
	DeleteUser(ctx context.Context, id int64) error
}

type DestinationStore interface {
	CreateDestination(ctx context.Context, params models.DestinationCreateParams) (*models.ForwardingDestination, error)
	ListDestinationsByUserID(ctx context.Context, userID int64) ([]models.ForwardingDestination, error)
	GetDestinationByPublicID(ctx context.Context, publicID uuid.UUID) (*models.ForwardingDestination, error)
	SetDestinationEnabled(ctx context.Context, id int64, enabled bool) error
	DeleteDestination(ctx context.Context, userID, id int64) error
}

type EmailStore interface {
	CreateEmail(ctx context.Context, params models.EmailCreateParams) (*models.EmailMessage, error)
	GetEmailByPublicID(ctx context.Context, publicID uuid.UUID) (*models.EmailMessage, error)
	ListEmailsByUserID(ctx context.Context, userID int64, limit, offset int) ([]models.EmailMessage, error)
	CountUnreadByUserID(ctx context.Context, userID int64) (int, error)
	SetEmailRead(ctx context.Context, id int64, isRead bool) error
	SetEmailStarred(ctx context.Context, id int64, isStarred bool) error
	MarkAllEmailsRead(ctx context.Context, userID int64) error
	DeleteEmail(ctx context.Context, id int64) error
	DeleteEmailsOlderThan(ctx context.Context, userID int64, cutoff time.Time) (int64, error)
}

type PlanStore interface {
	CreatePlan(ctx context.Context, params models.PlanCreateParams) (*models.SubscriptionPlan, error)
	GetPlanByID(ctx context.Context, id int64) (*models.SubscriptionPlan, error)
	GetPlanByPublicID(ctx context.Context, publicID uuid.UUID) (*models.SubscriptionPlan, error)
	ListPlans(ctx context.Context) ([]models.SubscriptionPlan, error)
	UpdatePlan(ctx context.Context, plan *models.SubscriptionPlan) error
	DeletePlan(ctx context.Context, id int64) error
}

type AccountStore interface {
	CreateAccount(ctx context.Context, params models.AccountCreateParams) (*models.SharedAccount, error)
	GetAccountByID(ctx context.Context, id int64) (*models.SharedAccount, error)
	GetAccountByPublicID(ctx context.Context, publicID uuid.UUID) (*models.SharedAccount, error)
	ListAccounts(ctx context.Context) ([]models.SharedAccount, error)
	UpdateAccount(ctx context.Context, account *models.SharedAccount) error
	DeleteAccount(ctx context.Context, id int64) error

	CreateAssignment(ctx context.Context, accountID, userID int64) (*models.AccountAssignment, error)
	DeleteAssignment(ctx context.Context, accountID, userID int64) error
	ListAssignmentsByAccountID(ctx context.Context, accountID int64) ([]models.AccountAssignment, error)
	CountActiveAssignments(ctx context.Context, accountID int64) (int, error)
}
