package api

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/theLastOfCats/contentgate/internal/billing"
	"github.com/theLastOfCats/contentgate/internal/db"
	"github.com/theLastOfCats/contentgate/internal/logging"
	"github.com/theLastOfCats/contentgate/internal/mail"
	"github.com/theLastOfCats/contentgate/internal/metrics"
	"github.com/theLastOfCats/contentgate/internal/model"
	"github.com/theLastOfCats/contentgate/internal/templates"
	"github.com/theLastOfCats/contentgate/internal/validation"
	"github.com/theLastOfCats/contentgate/internal/vip"
)

const maxWebhookBytes = 65536

// BillingHandler serves checkout, the billing portal and provider webhooks.
// A nil Provider means billing is not configured.
type BillingHandler struct {
	DB          *db.DB
	Provider    billing.Provider
	Prices      billing.Prices
	FrontendURL string
	Mailer      mail.MailSender
	Templates   *templates.Manager
	Now         func() time.Time
}

type URLResponse struct {
	URL string `json:"url"`
}

func (h *BillingHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func (h *BillingHandler) providerError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, billing.ErrNotConfigured):
		JSONError(w, "Billing is not configured", http.StatusServiceUnavailable)
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		JSONError(w, "Billing is temporarily unavailable", http.StatusServiceUnavailable)
	default:
		logging.Ctx(r.Context()).Error().Err(err).Msg("billing provider call failed")
		JSONError(w, "Billing provider error", http.StatusBadGateway)
	}
}

func (h *BillingHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	if h.Provider == nil {
		h.providerError(w, r, billing.ErrNotConfigured)
		return
	}
	var req struct {
		Plan string `json:"plan" validate:"required"`
	}
	if err := decodeJSON(r, &req); err != nil {
		JSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := validation.ValidateStruct(&req); err != nil {
		JSONError(w, validation.Message(err), http.StatusBadRequest)
		return
	}
	plan, err := vip.ParsePlan(req.Plan)
	if err != nil {
		JSONError(w, "plan must be one of: monthly annual", http.StatusBadRequest)
		return
	}

	userID, _ := GetUserID(r)
	user, err := h.DB.GetUserByID(r.Context(), userID)
	if err != nil {
		storeError(w, r, err, "User")
		return
	}

	url, err := h.Provider.CreateCheckoutSession(r.Context(), billing.CheckoutRequest{
		UserID:     user.ID,
		Email:      user.Email,
		PriceID:    h.Prices.PriceFor(plan),
		SuccessURL: h.FrontendURL + "/billing/success",
		CancelURL:  h.FrontendURL + "/billing/cancel",
	})
	if err != nil {
		h.providerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, URLResponse{URL: url})
}

func (h *BillingHandler) Portal(w http.ResponseWriter, r *http.Request) {
	if h.Provider == nil {
		h.providerError(w, r, billing.ErrNotConfigured)
		return
	}
	userID, _ := GetUserID(r)
	user, err := h.DB.GetUserByID(r.Context(), userID)
	if err != nil {
		storeError(w, r, err, "User")
		return
	}
	if user.StripeSubscriptionID == nil || *user.StripeSubscriptionID == "" {
		JSONError(w, "No active subscription", http.StatusBadRequest)
		return
	}

	url, err := h.Provider.CreatePortalSession(r.Context(), *user.StripeSubscriptionID, h.FrontendURL+"/account")
	if err != nil {
		h.providerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, URLResponse{URL: url})
}

// Webhook verifies and applies a provider event. Events that name an unknown
// user or price are acknowledged so the provider stops retrying them.
func (h *BillingHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	if h.Provider == nil {
		h.providerError(w, r, billing.ErrNotConfigured)
		return
	}
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBytes))
	if err != nil {
		JSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	evt, err := h.Provider.ParseWebhook(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		metrics.WebhookEvents.WithLabelValues("unknown", "rejected").Inc()
		logging.Ctx(r.Context()).Warn().Err(err).Msg("webhook rejected")
		JSONError(w, "Invalid webhook payload", http.StatusBadRequest)
		return
	}
	log := logging.Ctx(r.Context()).With().Str("event_id", evt.ID).Str("event_type", evt.Type).Logger()

	outcome, err := h.apply(r, evt)
	if err != nil {
		metrics.WebhookEvents.WithLabelValues(evt.Type, "error").Inc()
		log.Error().Err(err).Msg("webhook processing failed")
		JSONError(w, "Database error", http.StatusInternalServerError)
		return
	}
	metrics.WebhookEvents.WithLabelValues(evt.Type, outcome).Inc()
	log.Info().Str("outcome", outcome).Msg("webhook processed")
	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}

func (h *BillingHandler) apply(r *http.Request, evt billing.Event) (string, error) {
	ctx := r.Context()
	log := logging.Ctx(ctx)

	switch evt.Kind {
	case billing.EventCheckoutCompleted:
		user, err := h.DB.GetUserByEmail(ctx, evt.Email)
		if errors.Is(err, db.ErrNotFound) {
			log.Warn().Str("event_id", evt.ID).Msg("checkout for unknown email")
			return "unknown_user", nil
		}
		if err != nil {
			return "", err
		}
		plan, ok := h.Prices.PlanFor(evt.PriceID)
		if !ok {
			log.Warn().Str("event_id", evt.ID).Str("price_id", evt.PriceID).Msg("checkout for unknown price")
			return "unknown_price", nil
		}
		var subID *string
		if evt.SubscriptionID != "" {
			subID = &evt.SubscriptionID
		}
		expires := vip.SetFromNow(h.now(), plan)
		if err := h.DB.SetVip(ctx, user.ID, expires, subID); err != nil {
			return "", err
		}
		h.notifyVip(r, user, expires)
		return "applied", nil

	case billing.EventInvoicePaid:
		if evt.SubscriptionID == "" {
			return "ignored", nil
		}
		user, err := h.DB.GetUserBySubscriptionID(ctx, evt.SubscriptionID)
		if errors.Is(err, db.ErrNotFound) {
			log.Warn().Str("event_id", evt.ID).Msg("invoice for unknown subscription")
			return "unknown_user", nil
		}
		if err != nil {
			return "", err
		}
		plan, ok := h.Prices.PlanFor(evt.PriceID)
		if !ok {
			log.Warn().Str("event_id", evt.ID).Str("price_id", evt.PriceID).Msg("invoice for unknown price")
			return "unknown_price", nil
		}
		if err := h.DB.SetVip(ctx, user.ID, vip.SetFromNow(h.now(), plan), nil); err != nil {
			return "", err
		}
		return "applied", nil

	case billing.EventSubscriptionDeleted:
		n, err := h.DB.ClearSubscription(ctx, evt.SubscriptionID)
		if err != nil {
			return "", err
		}
		if n == 0 {
			return "unknown_user", nil
		}
		return "applied", nil
	}
	return "ignored", nil
}

func (h *BillingHandler) notifyVip(r *http.Request, user *model.User, expires time.Time) {
	if h.Mailer == nil || h.Templates == nil {
		return
	}
	log := logging.Ctx(r.Context())
	date := expires.UTC().Format("2006-01-02")
	html, err := h.Templates.Render("mail/vip-activated.html", map[string]string{
		"Username":  user.Username,
		"ExpiresAt": date,
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to render VIP email")
	}
	if err := h.Mailer.Send(user.Email, "Your VIP access is active", "VIP active until "+date, html); err != nil {
		log.Error().Err(err).Int64("user_id", user.ID).Msg("failed to send VIP email")
	}
}
