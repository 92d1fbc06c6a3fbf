package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stripe/stripe-go/v76/webhook"
	"github.com/theLastOfCats/contentgate/internal/billing"
)

// SignStripePayload returns a Stripe-Signature header value for payload.
func SignStripePayload(t *testing.T, payload []byte, secret string) string {
	t.Helper()
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: time.Now(),
	})
	return signed.Header
}

// FakeBilling is a billing.Provider that records checkout requests and
// returns fixed URLs. Webhooks are delegated to Parse when set.
type FakeBilling struct {
	mu        sync.Mutex
	Checkouts []billing.CheckoutRequest
	Portals   []string
	Err       error
	Parse     func(payload []byte, signature string) (billing.Event, error)
}

func (f *FakeBilling) CreateCheckoutSession(_ context.Context, req billing.CheckoutRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return "", f.Err
	}
	f.Checkouts = append(f.Checkouts, req)
	return "https://checkout.test/session", nil
}

func (f *FakeBilling) CreatePortalSession(_ context.Context, subscriptionID, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return "", f.Err
	}
	f.Portals = append(f.Portals, subscriptionID)
	return "https://portal.test/session", nil
}

func (f *FakeBilling) ParseWebhook(payload []byte, signature string) (billing.Event, error) {
	if f.Parse == nil {
		return billing.Event{}, billing.ErrInvalidSignature
	}
	return f.Parse(payload, signature)
}
