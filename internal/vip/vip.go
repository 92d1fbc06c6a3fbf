// Package vip holds VIP plan arithmetic and the expiry sweep.
package vip

import (
	"fmt"
	"strings"
	"time"
)

type Plan string

const (
	Monthly Plan = "monthly"
	Annual  Plan = "annual"
)

func ParsePlan(s string) (Plan, error) {
	switch Plan(strings.ToLower(strings.TrimSpace(s))) {
	case Monthly:
		return Monthly, nil
	case Annual:
		return Annual, nil
	default:
		return "", fmt.Errorf("unknown plan %q", s)
	}
}

func (p Plan) Duration() time.Duration {
	if p == Annual {
		return 365 * 24 * time.Hour
	}
	return 30 * 24 * time.Hour
}

// SetFromNow is the expiration granted by a payment: now plus the plan length,
// regardless of any time left on the current period.
func SetFromNow(now time.Time, p Plan) time.Time {
	return now.UTC().Add(p.Duration())
}

// ExtendFromCurrent adds the plan length to the current expiration when the
// user is VIP and that expiration is still in the future, otherwise to now.
func ExtendFromCurrent(now time.Time, current *time.Time, active bool, p Plan) time.Time {
	if active && current != nil && current.After(now) {
		return current.UTC().Add(p.Duration())
	}
	return SetFromNow(now, p)
}
