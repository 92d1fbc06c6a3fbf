// Package billing is the boundary to the payment provider.
package billing

import (
	"context"
	"errors"

	"github.com/theLastOfCats/contentgate/internal/vip"
)

var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrNotConfigured    = errors.New("billing is not configured")
)

type EventKind int

const (
	EventIgnored EventKind = iota
	EventCheckoutCompleted
	EventInvoicePaid
	EventSubscriptionDeleted
)

// Event is a verified webhook reduced to what the VIP lifecycle needs.
type Event struct {
	ID             string
	Type           string
	Kind           EventKind
	Email          string
	SubscriptionID string
	PriceID        string
}

type CheckoutRequest struct {
	UserID     int64
	Email      string
	PriceID    string
	SuccessURL string
	CancelURL  string
}

type Provider interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (string, error)
	CreatePortalSession(ctx context.Context, subscriptionID, returnURL string) (string, error)
	// ParseWebhook verifies the signature and decodes the event.
	// A bad signature yields ErrInvalidSignature.
	ParseWebhook(payload []byte, signature string) (Event, error)
}

// Prices maps provider price ids onto VIP plans.
type Prices struct {
	Monthly string
	Annual  string
}

func (p Prices) PlanFor(priceID string) (vip.Plan, bool) {
	switch {
	case priceID == "":
		return "", false
	case priceID == p.Monthly:
		return vip.Monthly, true
	case priceID == p.Annual:
		return vip.Annual, true
	default:
		return "", false
	}
}

func (p Prices) PriceFor(plan vip.Plan) string {
	if plan == vip.Annual {
		return p.Annual
	}
	return p.Monthly
}
