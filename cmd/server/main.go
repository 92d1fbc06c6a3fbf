package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/theLastOfCats/contentgate/internal/api"
	"github.com/theLastOfCats/contentgate/internal/auth"
	"github.com/theLastOfCats/contentgate/internal/billing"
	"github.com/theLastOfCats/contentgate/internal/config"
	"github.com/theLastOfCats/contentgate/internal/db"
	"github.com/theLastOfCats/contentgate/internal/logging"
	"github.com/theLastOfCats/contentgate/internal/mail"
	"github.com/theLastOfCats/contentgate/internal/obfuscate"
	"github.com/theLastOfCats/contentgate/internal/supervisor"
	"github.com/theLastOfCats/contentgate/internal/templates"
	"github.com/theLastOfCats/contentgate/internal/vip"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Error().Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	// Initialize Database
	database, err := db.New(cfg.Database.URL)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to initialize database")
		os.Exit(1)
	}
	defer database.Close()

	// Initialize Services
	mailer := mail.NewSender(cfg.Mail.Provider, mail.SmtpConfig{
		Host:     cfg.Mail.SMTPHost,
		Port:     cfg.Mail.SMTPPort,
		User:     cfg.Mail.SMTPUser,
		Password: cfg.Mail.SMTPPassword,
		From:     cfg.Mail.SMTPFrom,
	})

	var provider billing.Provider
	if cfg.Stripe.Enabled() {
		provider = billing.NewStripe(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret)
	} else {
		logging.Warn().Msg("Stripe is not configured; billing endpoints will answer 503")
	}

	router := api.NewRouter(api.Deps{
		DB:        database,
		Tokens:    auth.NewTokenIssuer(cfg.Security.JWTSecret, cfg.Security.TokenTTL),
		Mailer:    mailer,
		Templates: templates.NewManager(nil),
		Encoder:   obfuscate.New(nil),
		Billing:   provider,
		Prices: billing.Prices{
			Monthly: cfg.Stripe.MonthlyPriceID,
			Annual:  cfg.Stripe.AnnualPriceID,
		},
		AdminKey:          cfg.Security.AdminKey,
		APIKey:            cfg.Security.APIKey,
		AllowedOrigins:    cfg.Security.AllowedOrigins,
		FrontendURL:       cfg.Server.FrontendURL,
		RateLimitRequests: cfg.Security.RateLimitRequests,
		RateLimitWindow:   cfg.Security.RateLimitWindow,
		AuthRateLimit:     cfg.Security.AuthRateLimit,
	})

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	tree := supervisor.NewTree(supervisor.TreeConfig{ShutdownTimeout: cfg.Server.ShutdownTimeout})
	tree.AddAPIService(supervisor.NewHTTPService(server, cfg.Server.ShutdownTimeout))
	tree.AddJobService(vip.NewSweeper(database, cfg.VIP.SweepInterval))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logging.Info().Str("addr", cfg.Addr()).Msg("Server starting")
	if err := tree.Serve(ctx); err != nil && ctx.Err() == nil {
		logging.Error().Err(err).Msg("Supervisor stopped unexpectedly")
		os.Exit(1)
	}
	logging.Info().Msg("Server stopped")
}
