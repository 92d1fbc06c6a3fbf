package model

import (
	"math"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupByKey(t *testing.T) {
	g, ok := GroupByKey(" VIP-Banned ")
	require.True(t, ok)
	assert.Equal(t, "content_vip_banned", g.Table)
	assert.True(t, g.HasRegion)

	_, ok = GroupByKey("all")
	assert.False(t, ok)
}

func TestGroupsHaveDistinctTables(t *testing.T) {
	seen := map[string]bool{}
	for _, g := range Groups {
		assert.False(t, seen[g.Table], "duplicate table %s", g.Table)
		seen[g.Table] = true
	}
	assert.Len(t, seen, 8)
}

func TestTimeScan(t *testing.T) {
	want := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)

	var got Time
	require.NoError(t, got.Scan(want.UnixMilli()))
	assert.True(t, want.Equal(got.Time))

	require.NoError(t, got.Scan([]byte("1709632800000")))
	assert.True(t, want.Equal(got.Time))

	assert.Error(t, got.Scan(true))

	v, err := NewTime(want).Value()
	require.NoError(t, err)
	assert.Equal(t, want.UnixMilli(), v)
}

func TestTimeJSON(t *testing.T) {
	c := Content{Name: "x", PostDate: NewTime(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))}
	b, err := json.Marshal(c)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"postDate":"2024-01-02T03:04:05Z"`)
	assert.NotContains(t, string(b), "contentType")
	assert.NotContains(t, string(b), "region")
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 0, TotalPages(0, 24))
	assert.Equal(t, 1, TotalPages(24, 24))
	assert.Equal(t, 2, TotalPages(25, 24))
	assert.Equal(t, 0, TotalPages(5, 0))
	assert.Equal(t, 1, TotalPages(3, math.MaxInt))
}
