package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/subhive-systems/subhive/internal/account"
	"github.com/subhive-systems/subhive/internal/auth"
	"github.com/subhive-systems/subhive/internal/config"
	"github.com/subhive-systems/subhive/internal/database"
	"github.com/subhive-systems/subhive/internal/forward"
	"github.com/subhive-systems/subhive/internal/inbox"
	"github.com/subhive-systems/subhive/internal/mail"
	"github.com/subhive-systems/subhive/internal/plan"
	"github.com/subhive-systems/subhive/internal/ratelimit"
	"github.com/subhive-systems/subhive/internal/reminder"
	"github.com/subhive-systems/subhive/internal/store/postgres"
	"github.com/subhive-systems/subhive/internal/user"
	"github.com/subhive-systems/subhive/internal/web"
	"github.com/subhive-systems/subhive/internal/web/handlers"
	"github.com/subhive-systems/subhive/migrations"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Database
	db, err := postgres.NewDB(cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Migrations
	if err := database.RunMigrations(migrations.FS, cfg.DatabaseURL); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Stores
	adminStore := postgres.NewAdminStore(db)
	sessionStore := postgres.NewSessionStore(db)
	userStore := postgres.NewUserStore(db)
	destinationStore := postgres.NewDestinationStore(db)
	emailStore := postgres.NewEmailStore(db)
	planStore := postgres.NewPlanStore(db)
	accountStore := postgres.NewAccountStore(db)

	// Services
	authService := auth.NewService(adminStore, sessionStore, cfg.SessionMaxAge)
	dispatcher := forward.NewDispatcher(forward.Options{
		Timeout:       cfg.DispatchTimeout,
		MaxConcurrent: cfg.DispatchMaxConcurrent,
	})
	inboxService := inbox.NewService(userStore, emailStore, destinationStore, dispatcher)
	userService := user.NewService(userStore, destinationStore)
	planService := plan.NewService(planStore)
	accountService := account.NewService(accountStore)

	var notifier reminder.Notifier
	if cfg.SMTPEnabled {
		smtpClient := mail.NewSMTPClient(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom)
		notifier = mail.NewService(smtpClient)
	} else {
		notifier = reminder.NoopNotifier{}
	}
	reminderService := reminder.NewService(userStore, notifier, cfg.ReminderLeadDays)

	// Initial admin
	if err := authService.Bootstrap(context.Background(), cfg.AdminEmail, cfg.AdminPassword); err != nil {
		slog.Error("failed to bootstrap admin", "error", err)
		os.Exit(1)
	}

	// Rate limiter
	limiter := ratelimit.NewLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	// Handlers
	webhookHandler := handlers.NewWebhookHandler(inboxService)
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	inboxHandler := handlers.NewInboxHandler(inboxService, userService)
	planHandler := handlers.NewPlanHandler(planService)
	accountHandler := handlers.NewAccountHandler(accountService, planService, userService)

	// Router
	router := web.NewRouter(web.RouterDeps{
		WebhookHandler: webhookHandler,
		AuthHandler:    authHandler,
		UserHandler:    userHandler,
		InboxHandler:   inboxHandler,
		PlanHandler:    planHandler,
		AccountHandler: accountHandler,
		AuthService:    authService,
		Limiter:        limiter,
	})

	// Scheduled jobs: counter reset at midnight, reminders each morning.
	var scheduler *cron.Cron
	if cfg.SchedulerEnabled {
		scheduler = cron.New()
		scheduler.AddFunc("0 0 * * *", func() {
			if err := reminderService.ResetDailyCounts(context.Background()); err != nil {
				slog.Error("daily counter reset failed", "error", err)
			}
		})
		scheduler.AddFunc("0 8 * * *", func() {
			sent, err := reminderService.SendDueReminders(context.Background())
			if err != nil {
				slog.Error("renewal reminder run failed", "error", err)
				return
			}
			slog.Info("renewal reminder run complete", "sent", sent)
		})
		scheduler.Start()
	}

	// Session cleanup goroutine
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			if err := sessionStore.DeleteExpiredSessions(context.Background()); err != nil {
				slog.Error("failed to clean up expired sessions", "error", err)
			}
		}
	}()

	// Server
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("SubHive starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-done
	slog.Info("shutting down...")

	if scheduler != nil {
		scheduler.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}
