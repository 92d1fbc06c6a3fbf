package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/theLastOfCats/contentgate/internal/auth"
	"github.com/theLastOfCats/contentgate/internal/billing"
	"github.com/theLastOfCats/contentgate/internal/db"
	"github.com/theLastOfCats/contentgate/internal/mail"
	"github.com/theLastOfCats/contentgate/internal/model"
	"github.com/theLastOfCats/contentgate/internal/obfuscate"
	"github.com/theLastOfCats/contentgate/internal/search"
	"github.com/theLastOfCats/contentgate/internal/templates"
)

const defaultCategoryTTL = 10 * time.Minute

// Deps is everything the router needs. Billing may be nil.
type Deps struct {
	DB        *db.DB
	Tokens    *auth.TokenIssuer
	Mailer    mail.MailSender
	Templates *templates.Manager
	Encoder   *obfuscate.Encoder
	Billing   billing.Provider
	Prices    billing.Prices

	AdminKey       string
	APIKey         string
	AllowedOrigins []string
	FrontendURL    string

	RateLimitRequests int
	RateLimitWindow   time.Duration
	// AuthRateLimit caps credential endpoints per IP per minute. Zero disables it.
	AuthRateLimit     int
	CategoryTTL       time.Duration
	Now               func() time.Time
}

func Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("Alive"))
}

func NewRouter(d Deps) http.Handler {
	if d.Encoder == nil {
		d.Encoder = obfuscate.New(nil)
	}
	if d.CategoryTTL <= 0 {
		d.CategoryTTL = defaultCategoryTTL
	}

	stores := make([]*db.ContentStore, 0, len(model.Groups))
	sources := make([]search.Source, 0, len(model.Groups))
	byKey := make(map[string]*db.ContentStore, len(model.Groups))
	for _, g := range model.Groups {
		s := d.DB.Content(g)
		stores = append(stores, s)
		sources = append(sources, s)
		byKey[g.Key] = s
	}
	categories := NewCategoryCache(stores, d.CategoryTTL)

	mw := &Middleware{
		Users:          d.DB,
		Tokens:         d.Tokens,
		AdminKey:       d.AdminKey,
		APIKey:         d.APIKey,
		AllowedOrigins: d.AllowedOrigins,
	}
	authHandler := &AuthHandler{
		DB:          d.DB,
		Tokens:      d.Tokens,
		Mailer:      d.Mailer,
		Templates:   d.Templates,
		FrontendURL: d.FrontendURL,
	}
	userHandler := &UserHandler{DB: d.DB, Now: d.Now}
	billingHandler := &BillingHandler{
		DB:          d.DB,
		Provider:    d.Billing,
		Prices:      d.Prices,
		FrontendURL: d.FrontendURL,
		Mailer:      d.Mailer,
		Templates:   d.Templates,
		Now:         d.Now,
	}
	community := &CommunityHandler{DB: d.DB, Stores: byKey}
	searchHandler := &SearchHandler{Aggregator: search.NewAggregator(sources, d.Now), Encoder: d.Encoder}
	categoryHandler := &CategoryHandler{Cache: categories, Encoder: d.Encoder}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(LoggingMiddleware)
	r.Use(chimiddleware.Recoverer)
	r.Use(MetricsMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: d.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization", HeaderAPIKey, HeaderAdminKey},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         86400,
	}))

	r.Get("/", Health)
	r.Handle("/metrics", promhttp.Handler())

	// raw body and provider signature, no identity
	r.Post("/billing/webhook", billingHandler.Webhook)

	r.Group(func(r chi.Router) {
		if d.RateLimitRequests > 0 {
			r.Use(httprate.LimitByIP(d.RateLimitRequests, d.RateLimitWindow))
		}
		r.Use(mw.Identify)

		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				if d.AuthRateLimit > 0 {
					r.Use(httprate.LimitByIP(d.AuthRateLimit, time.Minute))
				}
				r.Post("/register", authHandler.Register)
				r.Post("/login", authHandler.Login)
				r.Post("/forgot-password", authHandler.ForgotPassword)
				r.Post("/reset-password", authHandler.ResetPassword)
			})
			r.Group(func(r chi.Router) {
				r.Use(RequireUser)
				r.Get("/me", userHandler.GetMe)
				r.Put("/me", userHandler.UpdateMe)
				r.Delete("/users/{id}", userHandler.DeleteUser)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(RequireAdmin)
			r.Get("/", userHandler.ListUsers)
			r.Post("/{id}/vip", userHandler.RenewVip)
			r.Put("/{id}/disabled", userHandler.SetDisabled)
		})

		r.Route("/billing", func(r chi.Router) {
			r.Use(RequireUser)
			r.Post("/checkout", billingHandler.Checkout)
			r.Post("/portal", billingHandler.Portal)
		})

		for _, s := range stores {
			h := &ContentHandler{Store: s, Encoder: d.Encoder, Categories: categories}
			r.Mount("/"+s.Group().Key, h.Routes())
		}

		r.With(RequireAPIKey).Get("/universal-search/search", searchHandler.Search)
		r.With(RequireAPIKey).Get("/categories", categoryHandler.List)

		r.With(RequireUser).Post("/reactions", community.React)
		r.With(RequireAPIKey).Get("/reactions/{contentType}/{contentId}", community.Reactions)

		r.Route("/recommendations", func(r chi.Router) {
			r.With(RequireUser).Post("/", community.CreateRecommendation)
			r.Group(func(r chi.Router) {
				r.Use(RequireAdmin)
				r.Get("/", community.ListRecommendations)
				r.Put("/{id}/approve", community.ApproveRecommendation)
				r.Put("/{id}/reject", community.RejectRecommendation)
				r.Delete("/{id}", community.DeleteRecommendation)
			})
		})

		r.Route("/requests", func(r chi.Router) {
			r.With(RequireUser).Post("/", community.CreateRequest)
			r.Group(func(r chi.Router) {
				r.Use(RequireAdmin)
				r.Get("/", community.ListRequests)
				r.Put("/{id}/status", community.SetRequestStatus)
				r.Delete("/{id}", community.DeleteRequest)
			})
		})
	})

	return r
}
