package vip_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/theLastOfCats/contentgate/internal/model"
	"github.com/theLastOfCats/contentgate/internal/testutil"
	"github.com/theLastOfCats/contentgate/internal/vip"
)

var now = time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)

func TestParsePlan(t *testing.T) {
	p, err := vip.ParsePlan(" Annual ")
	require.NoError(t, err)
	assert.Equal(t, vip.Annual, p)

	_, err = vip.ParsePlan("weekly")
	assert.Error(t, err)
}

func TestSetFromNowIgnoresRemainingTime(t *testing.T) {
	assert.Equal(t, now.AddDate(0, 0, 30), vip.SetFromNow(now, vip.Monthly))
	assert.Equal(t, now.AddDate(0, 0, 365), vip.SetFromNow(now, vip.Annual))
}

func TestExtendFromCurrent(t *testing.T) {
	future := now.AddDate(0, 0, 10)
	past := now.AddDate(0, 0, -10)

	assert.Equal(t, future.AddDate(0, 0, 30), vip.ExtendFromCurrent(now, &future, true, vip.Monthly))
	assert.Equal(t, now.AddDate(0, 0, 30), vip.ExtendFromCurrent(now, &past, true, vip.Monthly))
	assert.Equal(t, now.AddDate(0, 0, 30), vip.ExtendFromCurrent(now, &future, false, vip.Monthly))
	assert.Equal(t, now.AddDate(0, 0, 365), vip.ExtendFromCurrent(now, nil, true, vip.Annual))
}

type flakyStore struct {
	users   []model.User
	failOn  int64
	cleared []int64
}

func (f *flakyStore) ExpiredVips(context.Context, time.Time) ([]model.User, error) {
	return f.users, nil
}

func (f *flakyStore) ClearVip(_ context.Context, id int64) error {
	if id == f.failOn {
		return errors.New("locked")
	}
	f.cleared = append(f.cleared, id)
	return nil
}

func TestSweepContinuesPastFailures(t *testing.T) {
	store := &flakyStore{users: []model.User{{ID: 1}, {ID: 2}, {ID: 3}}, failOn: 2}
	n, err := vip.NewSweeper(store, time.Hour).Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []int64{1, 3}, store.cleared)
}

func TestSweepAgainstDatabase(t *testing.T) {
	database := testutil.SetupTestDB(t)
	ctx := context.Background()
	user := testutil.SeedUser(t, database, "lapsed@example.com", false)
	require.NoError(t, database.SetVip(ctx, user.ID, time.Now().Add(-time.Minute), nil))

	n, err := vip.NewSweeper(database, 0).Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := database.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, got.IsVip)
}

func TestServeStopsOnCancel(t *testing.T) {
	store := &flakyStore{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- vip.NewSweeper(store, time.Hour).Serve(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
