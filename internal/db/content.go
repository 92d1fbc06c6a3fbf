package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/theLastOfCats/contentgate/internal/model"
)

// ContentFilter narrows a content query. All set conditions are combined with AND.
type ContentFilter struct {
	Search   string
	Category string
	Region   string
	// Month matches the calendar month of post_date in any year.
	Month int
	// From and To bound post_date as [From, To). Zero values are open.
	From time.Time
	To   time.Time
}

type Sort struct {
	Column string
	Desc   bool
}

var DefaultSort = Sort{Column: "post_date", Desc: true}

var sortColumns = map[string]string{
	"postDate":  "post_date",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"name":      "name",
	"category":  "category",
	"id":        "id",
}

// ParseSort maps a JSON field name and direction onto a sortable column.
// Unknown fields fall back to post_date and unknown directions to DESC.
func ParseSort(sortBy, sortOrder string) Sort {
	s := DefaultSort
	if col, ok := sortColumns[sortBy]; ok {
		s.Column = col
	}
	s.Desc = !strings.EqualFold(sortOrder, "asc")
	return s
}

func (s Sort) orderBy() string {
	dir := "DESC"
	if !s.Desc {
		dir = "ASC"
	}
	col := s.Column
	if col == "" {
		col = DefaultSort.Column
	}
	if col == "id" {
		return "id " + dir
	}
	return col + " " + dir + ", id " + dir
}

// ContentStore reads and writes one content group's table.
type ContentStore struct {
	db    *DB
	group model.Group
}

func (db *DB) Content(g model.Group) *ContentStore {
	return &ContentStore{db: db, group: g}
}

func (s *ContentStore) Group() model.Group {
	return s.group
}

func (s *ContentStore) columns() []string {
	cols := []string{"name", "mega", "mega2", "pixeldrain", "admaven_mega", "admaven_mega2",
		"admaven_pixeldrain", "slug", "category"}
	if s.group.HasRegion {
		cols = append(cols, "region")
	}
	return append(cols, "thumbnail", "post_date", "created_at", "updated_at")
}

func (s *ContentStore) selectColumns() string {
	return "id, " + strings.Join(s.columns(), ", ")
}

// Create inserts every input in one transaction; either all rows are stored or none.
func (s *ContentStore) Create(ctx context.Context, inputs []model.ContentInput) ([]model.Content, error) {
	created := make([]model.Content, 0, len(inputs))
	err := s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		for _, in := range inputs {
			c, err := s.insert(ctx, tx, in)
			if err != nil {
				return err
			}
			created = append(created, c)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *ContentStore) insert(ctx context.Context, tx *sqlx.Tx, in model.ContentInput) (model.Content, error) {
	now := model.Now()
	c := model.Content{
		Name:              in.Name,
		Mega:              in.Mega,
		Mega2:             in.Mega2,
		Pixeldrain:        in.Pixeldrain,
		AdmavenMega:       in.AdmavenMega,
		AdmavenMega2:      in.AdmavenMega2,
		AdmavenPixeldrain: in.AdmavenPixeldrain,
		Slug:              uuid.NewString(),
		Category:          in.Category,
		Thumbnail:         in.Thumbnail,
		PostDate:          now,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if in.PostDate != nil && !in.PostDate.IsZero() {
		c.PostDate = model.NewTime(in.PostDate.Time)
	}
	if s.group.HasRegion {
		c.Region = in.Region
		if c.Region == "" {
			c.Region = model.RegionAsian
		}
	}

	args := []any{c.Name, c.Mega, c.Mega2, c.Pixeldrain, c.AdmavenMega, c.AdmavenMega2,
		c.AdmavenPixeldrain, c.Slug, c.Category}
	if s.group.HasRegion {
		args = append(args, c.Region)
	}
	args = append(args, c.Thumbnail, c.PostDate, c.CreatedAt, c.UpdatedAt)

	cols := s.columns()
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		s.group.Table, strings.Join(cols, ", "), placeholders(len(cols)))

	if s.db.dialect.returning() {
		if err := tx.QueryRowxContext(ctx, tx.Rebind(query+" RETURNING id"), args...).Scan(&c.ID); err != nil {
			return c, duplicate(err)
		}
		return c, nil
	}

	res, err := tx.ExecContext(ctx, tx.Rebind(query), args...)
	if err != nil {
		return c, duplicate(err)
	}
	if c.ID, err = res.LastInsertId(); err != nil {
		return c, err
	}
	return c, nil
}

func (s *ContentStore) GetByID(ctx context.Context, id int64) (*model.Content, error) {
	return s.getBy(ctx, "id", id)
}

func (s *ContentStore) GetBySlug(ctx context.Context, slug string) (*model.Content, error) {
	return s.getBy(ctx, "slug", slug)
}

func (s *ContentStore) getBy(ctx context.Context, col string, v any) (*model.Content, error) {
	var c model.Content
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?", s.selectColumns(), s.group.Table, col)
	if err := s.db.GetContext(ctx, &c, s.db.Rebind(query), v); err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

// Update applies the non-nil fields of patch and returns the stored row.
func (s *ContentStore) Update(ctx context.Context, id int64, patch model.ContentPatch) (*model.Content, error) {
	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}

	var sets []string
	var args []any
	set := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	setString := func(col string, v *string) {
		if v != nil {
			set(col, *v)
		}
	}

	setString("name", patch.Name)
	setString("mega", patch.Mega)
	setString("mega2", patch.Mega2)
	setString("pixeldrain", patch.Pixeldrain)
	setString("admaven_mega", patch.AdmavenMega)
	setString("admaven_mega2", patch.AdmavenMega2)
	setString("admaven_pixeldrain", patch.AdmavenPixeldrain)
	setString("slug", patch.Slug)
	setString("category", patch.Category)
	setString("thumbnail", patch.Thumbnail)
	if s.group.HasRegion {
		setString("region", patch.Region)
	}
	if patch.PostDate != nil {
		set("post_date", model.NewTime(patch.PostDate.Time))
	}
	set("updated_at", model.Now())

	args = append(args, id)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", s.group.Table, strings.Join(sets, ", "))
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(query), args...); err != nil {
		return nil, duplicate(err)
	}
	return s.GetByID(ctx, id)
}

func (s *ContentStore) Delete(ctx context.Context, id int64) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = ?", s.group.Table)
	res, err := s.db.ExecContext(ctx, s.db.Rebind(query), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *ContentStore) where(f ContentFilter) (string, []any) {
	var conds []string
	var args []any

	if f.Search != "" {
		conds = append(conds, "LOWER(name) LIKE ?")
		args = append(args, "%"+strings.ToLower(f.Search)+"%")
	}
	if f.Category != "" {
		conds = append(conds, "category = ?")
		args = append(args, f.Category)
	}
	if f.Region != "" && s.group.HasRegion {
		conds = append(conds, "region = ?")
		args = append(args, f.Region)
	}
	if f.Month >= 1 && f.Month <= 12 {
		conds = append(conds, s.db.dialect.monthOf("post_date")+" = ?")
		args = append(args, f.Month)
	}
	if !f.From.IsZero() {
		conds = append(conds, "post_date >= ?")
		args = append(args, f.From.UnixMilli())
	}
	if !f.To.IsZero() {
		conds = append(conds, "post_date < ?")
		args = append(args, f.To.UnixMilli())
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// Find returns one window of matching rows. A non-positive limit returns every match.
func (s *ContentStore) Find(ctx context.Context, f ContentFilter, sort Sort, limit, offset int) ([]model.Content, error) {
	where, args := s.where(f)
	query := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s", s.selectColumns(), s.group.Table, where, sort.orderBy())
	if limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, limit, offset)
	}

	rows := []model.Content{}
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("query %s: %w", s.group.Table, err)
	}
	return rows, nil
}

func (s *ContentStore) Count(ctx context.Context, f ContentFilter) (int, error) {
	where, args := s.where(f)
	var n int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s%s", s.group.Table, where)
	if err := s.db.GetContext(ctx, &n, s.db.Rebind(query), args...); err != nil {
		return 0, fmt.Errorf("count %s: %w", s.group.Table, err)
	}
	return n, nil
}

// All returns every matching row, unpaginated.
func (s *ContentStore) All(ctx context.Context, f ContentFilter, sort Sort) ([]model.Content, error) {
	return s.Find(ctx, f, sort, 0, 0)
}

func (s *ContentStore) Categories(ctx context.Context) ([]string, error) {
	var cats []string
	query := fmt.Sprintf("SELECT DISTINCT category FROM %s WHERE category <> ''", s.group.Table)
	if err := s.db.SelectContext(ctx, &cats, query); err != nil {
		return nil, fmt.Errorf("categories %s: %w", s.group.Table, err)
	}
	return cats, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
