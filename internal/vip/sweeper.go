package vip

import (
	"context"
	"time"

	"github.com/theLastOfCats/contentgate/internal/logging"
	"github.com/theLastOfCats/contentgate/internal/metrics"
	"github.com/theLastOfCats/contentgate/internal/model"
)

// Store is the slice of the user store the sweep needs.
type Store interface {
	ExpiredVips(ctx context.Context, now time.Time) ([]model.User, error)
	ClearVip(ctx context.Context, userID int64) error
}

// Sweeper clears the VIP flag of users whose expiration has passed.
// It implements suture.Service.
type Sweeper struct {
	store    Store
	interval time.Duration
	now      func() time.Time
}

func NewSweeper(store Store, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &Sweeper{store: store, interval: interval, now: time.Now}
}

// Serve sweeps once at start and then on every interval until ctx is done.
func (s *Sweeper) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if _, err := s.Sweep(ctx); err != nil {
			logging.Error().Err(err).Msg("VIP expiry sweep failed")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *Sweeper) String() string {
	return "vip-sweeper"
}

// Sweep clears every expired user one at a time and returns how many were cleared.
// A failure on one user is logged and does not stop the others.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	users, err := s.store.ExpiredVips(ctx, s.now())
	if err != nil {
		return 0, err
	}

	cleared := 0
	for _, u := range users {
		if err := s.store.ClearVip(ctx, u.ID); err != nil {
			logging.Error().Err(err).Int64("user_id", u.ID).Msg("failed to clear expired VIP")
			continue
		}
		cleared++
		metrics.VipExpired.Inc()
		logging.Info().Int64("user_id", u.ID).Str("email", u.Email).Msg("VIP expired")
	}
	return cleared, nil
}
