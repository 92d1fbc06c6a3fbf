package db_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/theLastOfCats/contentgate/internal/db"
	"github.com/theLastOfCats/contentgate/internal/model"
	"github.com/theLastOfCats/contentgate/internal/testutil"
)

func at(year int, month time.Month, day int) *model.Time {
	t := model.NewTime(time.Date(year, month, day, 12, 0, 0, 0, time.UTC))
	return &t
}

func TestCreateAssignsUniqueSlugs(t *testing.T) {
	database := testutil.SetupTestDB(t)
	store := database.Content(model.GroupAsian)
	ctx := context.Background()

	created, err := store.Create(ctx, []model.ContentInput{
		{Name: "Same Name", Mega: "m1"},
		{Name: "Same Name", Mega: "m2"},
	})
	require.NoError(t, err)
	require.Len(t, created, 2)

	assert.NotEmpty(t, created[0].Slug)
	assert.NotEqual(t, created[0].Slug, created[1].Slug)
	assert.NotZero(t, created[0].ID)
	assert.NotEqual(t, created[0].ID, created[1].ID)
	assert.Empty(t, created[0].Region)

	got, err := store.GetBySlug(ctx, created[1].Slug)
	require.NoError(t, err)
	assert.Equal(t, created[1].ID, got.ID)
	assert.Equal(t, "m2", got.Mega)
}

func TestCreateDefaultsRegionForRegionGroups(t *testing.T) {
	database := testutil.SetupTestDB(t)
	ctx := context.Background()

	created, err := database.Content(model.GroupBanned).Create(ctx, []model.ContentInput{
		{Name: "a", Mega: "m"},
		{Name: "b", Mega: "m", Region: model.RegionWestern},
	})
	require.NoError(t, err)
	assert.Equal(t, model.RegionAsian, created[0].Region)
	assert.Equal(t, model.RegionWestern, created[1].Region)

	got, err := database.Content(model.GroupBanned).GetByID(ctx, created[1].ID)
	require.NoError(t, err)
	assert.Equal(t, model.RegionWestern, got.Region)
}

func TestGroupsHaveIndependentSequences(t *testing.T) {
	database := testutil.SetupTestDB(t)
	ctx := context.Background()

	a, err := database.Content(model.GroupAsian).Create(ctx, []model.ContentInput{{Name: "a", Mega: "m"}})
	require.NoError(t, err)
	w, err := database.Content(model.GroupWestern).Create(ctx, []model.ContentInput{{Name: "w", Mega: "m"}})
	require.NoError(t, err)
	assert.Equal(t, a[0].ID, w[0].ID)

	_, err = database.Content(model.GroupWestern).GetBySlug(ctx, a[0].Slug)
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestSearchFilters(t *testing.T) {
	database := testutil.SetupTestDB(t)
	store := database.Content(model.GroupUnknown)
	ctx := context.Background()

	_, err := store.Create(ctx, []model.ContentInput{
		{Name: "Test Alpha", Category: "cosplay", Region: "asian", PostDate: at(2023, time.March, 1)},
		{Name: "another TEST", Category: "cosplay", Region: "western", PostDate: at(2024, time.March, 20)},
		{Name: "Gamma", Category: "other", Region: "asian", PostDate: at(2024, time.April, 2)},
	})
	require.NoError(t, err)

	rows, err := store.All(ctx, db.ContentFilter{Search: "test"}, db.DefaultSort)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "another TEST", rows[0].Name, "newest first")

	rows, err = store.All(ctx, db.ContentFilter{Month: 3}, db.DefaultSort)
	require.NoError(t, err)
	assert.Len(t, rows, 2, "month matches any year")

	rows, err = store.All(ctx, db.ContentFilter{Search: "test", Region: "asian"}, db.DefaultSort)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Test Alpha", rows[0].Name)

	rows, err = store.All(ctx, db.ContentFilter{Category: "other"}, db.DefaultSort)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	rows, err = store.All(ctx, db.ContentFilter{
		From: time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC),
	}, db.DefaultSort)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "another TEST", rows[0].Name)

	n, err := store.Count(ctx, db.ContentFilter{Category: "cosplay"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestFindSortAndWindow(t *testing.T) {
	database := testutil.SetupTestDB(t)
	store := database.Content(model.GroupWestern)
	ctx := context.Background()

	_, err := store.Create(ctx, []model.ContentInput{
		{Name: "b", Mega: "m", PostDate: at(2024, time.January, 2)},
		{Name: "a", Mega: "m", PostDate: at(2024, time.January, 3)},
		{Name: "c", Mega: "m", PostDate: at(2024, time.January, 1)},
	})
	require.NoError(t, err)

	rows, err := store.Find(ctx, db.ContentFilter{}, db.ParseSort("name", "asc"), 2, 0)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "a", rows[0].Name)
	assert.Equal(t, "b", rows[1].Name)

	rows, err = store.Find(ctx, db.ContentFilter{}, db.DefaultSort, 2, 2)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "c", rows[0].Name)
}

func TestUpdatePartial(t *testing.T) {
	database := testutil.SetupTestDB(t)
	store := database.Content(model.GroupAsian)
	ctx := context.Background()

	created, err := store.Create(ctx, []model.ContentInput{{Name: "old", Mega: "keep", Category: "x"}})
	require.NoError(t, err)

	name := "new"
	updated, err := store.Update(ctx, created[0].ID, model.ContentPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "new", updated.Name)
	assert.Equal(t, "keep", updated.Mega)
	assert.Equal(t, created[0].Slug, updated.Slug)

	_, err = store.Update(ctx, 9999, model.ContentPatch{Name: &name})
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestUpdateSlugConflict(t *testing.T) {
	database := testutil.SetupTestDB(t)
	store := database.Content(model.GroupAsian)
	ctx := context.Background()

	created, err := store.Create(ctx, []model.ContentInput{{Name: "a", Mega: "m"}, {Name: "b", Mega: "m"}})
	require.NoError(t, err)

	slug := created[0].Slug
	_, err = store.Update(ctx, created[1].ID, model.ContentPatch{Slug: &slug})
	assert.ErrorIs(t, err, db.ErrDuplicate)
}

func TestDeleteThenLookupsFail(t *testing.T) {
	database := testutil.SetupTestDB(t)
	store := database.Content(model.GroupVipAsian)
	ctx := context.Background()

	created, err := store.Create(ctx, []model.ContentInput{{Name: "gone", Mega: "m"}})
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, created[0].ID))

	_, err = store.GetByID(ctx, created[0].ID)
	assert.True(t, errors.Is(err, db.ErrNotFound))
	_, err = store.GetBySlug(ctx, created[0].Slug)
	assert.True(t, errors.Is(err, db.ErrNotFound))

	assert.ErrorIs(t, store.Delete(ctx, created[0].ID), db.ErrNotFound)
}

func TestCategories(t *testing.T) {
	database := testutil.SetupTestDB(t)
	store := database.Content(model.GroupAsian)
	ctx := context.Background()

	_, err := store.Create(ctx, []model.ContentInput{
		{Name: "a", Mega: "m", Category: "one"},
		{Name: "b", Mega: "m", Category: "one"},
		{Name: "c", Mega: "m", Category: "two"},
		{Name: "d", Mega: "m"},
	})
	require.NoError(t, err)

	cats, err := store.Categories(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"one", "two"}, cats)
}

func TestParseSort(t *testing.T) {
	assert.Equal(t, db.DefaultSort, db.ParseSort("", ""))
	assert.Equal(t, db.DefaultSort, db.ParseSort("password", "sideways"))
	assert.Equal(t, db.Sort{Column: "name", Desc: false}, db.ParseSort("name", "ASC"))
}
