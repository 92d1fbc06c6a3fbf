// Package search merges content from every group into one paginated result.
package search

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/theLastOfCats/contentgate/internal/db"
	"github.com/theLastOfCats/contentgate/internal/metrics"
	"github.com/theLastOfCats/contentgate/internal/model"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultLimit = 24
	ContentAll   = "all"
)

var ErrUnknownContentType = errors.New("unknown content type")

// Source is one group's table.
type Source interface {
	Group() model.Group
	All(ctx context.Context, f db.ContentFilter, s db.Sort) ([]model.Content, error)
}

type Query struct {
	Search      string
	Category    string
	Region      string
	ContentType string
	// Month selects a calendar month of the current year and overrides DateFilter.
	Month      int
	DateFilter string
	// SortBy accepts postDate, createdAt or updatedAt. Any other key merges by postDate.
	SortBy     string
	SortOrder  string
	Page       int
	Limit      int
}

type Aggregator struct {
	sources []Source
	now     func() time.Time
}

func NewAggregator(sources []Source, now func() time.Time) *Aggregator {
	if now == nil {
		now = time.Now
	}
	return &Aggregator{sources: sources, now: now}
}

// Search fetches every selected group unpaginated, tags each row with its
// group key, sorts the union in memory and returns the requested window.
func (a *Aggregator) Search(ctx context.Context, q Query) (model.Page[model.Content], error) {
	sources, err := a.selected(q.ContentType)
	if err != nil {
		return model.Page[model.Content]{}, err
	}

	from, to := DateRange(a.now(), q.Month, q.DateFilter)
	filter := db.ContentFilter{
		Search:   q.Search,
		Category: q.Category,
		Region:   q.Region,
		From:     from,
		To:       to,
	}
	order := db.ParseSort(q.SortBy, q.SortOrder)

	results := make([][]model.Content, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		g.Go(func() error {
			rows, err := src.All(gctx, filter, order)
			if err != nil {
				return fmt.Errorf("%s: %w", src.Group().Key, err)
			}
			for j := range rows {
				rows[j].ContentType = src.Group().Key
			}
			results[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return model.Page[model.Content]{}, err
	}

	merged := Merge(results, q.SortBy, order.Desc)
	metrics.AggregatedRows.Observe(float64(len(merged)))
	return Paginate(merged, q.Page, q.Limit), nil
}

func (a *Aggregator) selected(contentType string) ([]Source, error) {
	key := strings.ToLower(strings.TrimSpace(contentType))
	if key == "" || key == ContentAll {
		return a.sources, nil
	}
	for _, s := range a.sources {
		if s.Group().Key == key {
			return []Source{s}, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownContentType, contentType)
}

// Merge concatenates the per-group lists and sorts them by the timestamp named
// by sortBy (postDate, createdAt or updatedAt; anything else means postDate).
// Rows with equal timestamps keep their concatenation order.
func Merge(lists [][]model.Content, sortBy string, desc bool) []model.Content {
	n := 0
	for _, l := range lists {
		n += len(l)
	}
	merged := make([]model.Content, 0, n)
	for _, l := range lists {
		merged = append(merged, l...)
	}

	key := timestampOf(sortBy)
	sort.SliceStable(merged, func(i, j int) bool {
		a, b := key(&merged[i]), key(&merged[j])
		if desc {
			return a.After(b)
		}
		return a.Before(b)
	})
	return merged
}

func timestampOf(sortBy string) func(*model.Content) time.Time {
	switch sortBy {
	case "createdAt":
		return func(c *model.Content) time.Time { return c.CreatedAt.Time }
	case "updatedAt":
		return func(c *model.Content) time.Time { return c.UpdatedAt.Time }
	default:
		return func(c *model.Content) time.Time { return c.PostDate.Time }
	}
}

// Paginate slices rows to [(page-1)*limit, page*limit). Page defaults to 1
// and limit to DefaultLimit.
func Paginate(rows []model.Content, page, limit int) model.Page[model.Content] {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultLimit
	}

	total := len(rows)
	start := total
	if page-1 <= total/limit {
		start = min((page-1)*limit, total)
	}
	end := start + min(limit, total-start)

	return model.Page[model.Content]{
		Page:       page,
		PerPage:    limit,
		Total:      total,
		TotalPages: model.TotalPages(total, limit),
		Data:       rows[start:end],
	}
}

// DateRange turns the month and dateFilter parameters into a [from, to) window
// on postDate in UTC. A month of 1-12 wins over dateFilter and is taken in the
// current year. Zero times mean the bound is open.
func DateRange(now time.Time, month int, dateFilter string) (from, to time.Time) {
	now = now.UTC()
	if month >= 1 && month <= 12 {
		from = time.Date(now.Year(), time.Month(month), 1, 0, 0, 0, 0, time.UTC)
		return from, from.AddDate(0, 1, 0)
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	switch strings.ToLower(dateFilter) {
	case "today":
		return today, today.AddDate(0, 0, 1)
	case "yesterday":
		return today.AddDate(0, 0, -1), today
	case "7days":
		return now.AddDate(0, 0, -7), time.Time{}
	default:
		return time.Time{}, time.Time{}
	}
}
