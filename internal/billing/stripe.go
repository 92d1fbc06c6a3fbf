package billing

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
	"github.com/theLastOfCats/contentgate/internal/logging"
	"github.com/theLastOfCats/contentgate/internal/metrics"
)

const breakerName = "stripe-api"

// Stripe talks to the Stripe API. Outbound calls share one circuit breaker.
type Stripe struct {
	api           *client.API
	webhookSecret string
	cb            *gobreaker.CircuitBreaker[string]
}

func NewStripe(secretKey, webhookSecret string) *Stripe {
	metrics.BreakerState.WithLabelValues(breakerName).Set(0)

	cb := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("circuit breaker state change")
			metrics.BreakerState.WithLabelValues(name).Set(float64(to))
		},
	})

	return &Stripe{
		api:           client.New(secretKey, nil),
		webhookSecret: webhookSecret,
		cb:            cb,
	}
}

func (s *Stripe) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (string, error) {
	if req.PriceID == "" {
		return "", ErrNotConfigured
	}
	return s.cb.Execute(func() (string, error) {
		params := &stripe.CheckoutSessionParams{
			Mode:          stripe.String(string(stripe.CheckoutSessionModeSubscription)),
			CustomerEmail: stripe.String(req.Email),
			SuccessURL:    stripe.String(req.SuccessURL),
			CancelURL:     stripe.String(req.CancelURL),
			LineItems: []*stripe.CheckoutSessionLineItemParams{
				{Price: stripe.String(req.PriceID), Quantity: stripe.Int64(1)},
			},
		}
		params.Context = ctx
		params.AddMetadata("price_id", req.PriceID)
		params.AddMetadata("user_id", strconv.FormatInt(req.UserID, 10))

		sess, err := s.api.CheckoutSessions.New(params)
		if err != nil {
			return "", fmt.Errorf("create checkout session: %w", err)
		}
		return sess.URL, nil
	})
}

func (s *Stripe) CreatePortalSession(ctx context.Context, subscriptionID, returnURL string) (string, error) {
	return s.cb.Execute(func() (string, error) {
		subParams := &stripe.SubscriptionParams{}
		subParams.Context = ctx
		sub, err := s.api.Subscriptions.Get(subscriptionID, subParams)
		if err != nil {
			return "", fmt.Errorf("get subscription: %w", err)
		}
		if sub.Customer == nil {
			return "", errors.New("subscription has no customer")
		}

		params := &stripe.BillingPortalSessionParams{
			Customer:  stripe.String(sub.Customer.ID),
			ReturnURL: stripe.String(returnURL),
		}
		params.Context = ctx
		sess, err := s.api.BillingPortalSessions.New(params)
		if err != nil {
			return "", fmt.Errorf("create portal session: %w", err)
		}
		return sess.URL, nil
	})
}

func (s *Stripe) ParseWebhook(payload []byte, signature string) (Event, error) {
	return parseWebhook(payload, signature, s.webhookSecret)
}

func parseWebhook(payload []byte, signature, secret string) (Event, error) {
	evt, err := webhook.ConstructEventWithOptions(payload, signature, secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	out := Event{ID: evt.ID, Type: string(evt.Type)}
	if evt.Data == nil {
		return out, nil
	}

	switch out.Type {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(evt.Data.Raw, &sess); err != nil {
			return out, fmt.Errorf("decode checkout session: %w", err)
		}
		out.Kind = EventCheckoutCompleted
		out.Email = sess.CustomerEmail
		if out.Email == "" && sess.CustomerDetails != nil {
			out.Email = sess.CustomerDetails.Email
		}
		if sess.Subscription != nil {
			out.SubscriptionID = sess.Subscription.ID
		}
		out.PriceID = sess.Metadata["price_id"]

	case "invoice.paid", "invoice.payment_succeeded":
		var inv stripe.Invoice
		if err := json.Unmarshal(evt.Data.Raw, &inv); err != nil {
			return out, fmt.Errorf("decode invoice: %w", err)
		}
		out.Kind = EventInvoicePaid
		out.Email = inv.CustomerEmail
		if inv.Subscription != nil {
			out.SubscriptionID = inv.Subscription.ID
		}
		if inv.Lines != nil {
			for _, line := range inv.Lines.Data {
				if line != nil && line.Price != nil {
					out.PriceID = line.Price.ID
					break
				}
			}
		}

	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(evt.Data.Raw, &sub); err != nil {
			return out, fmt.Errorf("decode subscription: %w", err)
		}
		out.Kind = EventSubscriptionDeleted
		out.SubscriptionID = sub.ID
	}
	return out, nil
}
