package db

import (
	"context"

	"github.com/theLastOfCats/contentgate/internal/model"
)

func (db *DB) insertReturningID(ctx context.Context, query string, args ...any) (int64, error) {
	if db.dialect.returning() {
		var id int64
		err := db.QueryRowxContext(ctx, db.Rebind(query+" RETURNING id"), args...).Scan(&id)
		return id, err
	}
	res, err := db.ExecContext(ctx, db.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (db *DB) deleteByID(ctx context.Context, table string, id int64) error {
	res, err := db.ExecContext(ctx, db.Rebind("DELETE FROM "+table+" WHERE id = ?"), id)
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

// statusWhere returns a WHERE clause filtering on status, or nothing for an empty status.
func statusWhere(status string) (string, []any) {
	if status == "" {
		return "", nil
	}
	return " WHERE status = ?", []any{status}
}

const recommendationColumns = `id, user_id, name, link, description, status, created_at, updated_at`

func (db *DB) CreateRecommendation(ctx context.Context, userID int64, name, link, description string) (*model.Recommendation, error) {
	now := model.Now()
	id, err := db.insertReturningID(ctx,
		`INSERT INTO recommendations (user_id, name, link, description, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		userID, name, link, description, model.StatusPending, now, now)
	if err != nil {
		return nil, err
	}
	return db.GetRecommendation(ctx, id)
}

func (db *DB) GetRecommendation(ctx context.Context, id int64) (*model.Recommendation, error) {
	var rec model.Recommendation
	query := "SELECT " + recommendationColumns + " FROM recommendations WHERE id = ?"
	if err := db.GetContext(ctx, &rec, db.Rebind(query), id); err != nil {
		return nil, notFound(err)
	}
	return &rec, nil
}

func (db *DB) ListRecommendations(ctx context.Context, status string, limit, offset int) ([]model.Recommendation, int, error) {
	where, args := statusWhere(status)

	var total int
	if err := db.GetContext(ctx, &total, db.Rebind("SELECT COUNT(*) FROM recommendations"+where), args...); err != nil {
		return nil, 0, err
	}

	recs := []model.Recommendation{}
	query := "SELECT " + recommendationColumns + " FROM recommendations" + where + " ORDER BY id DESC LIMIT ? OFFSET ?"
	if err := db.SelectContext(ctx, &recs, db.Rebind(query), append(args, limit, offset)...); err != nil {
		return nil, 0, err
	}
	return recs, total, nil
}

func (db *DB) SetRecommendationStatus(ctx context.Context, id int64, status string) (*model.Recommendation, error) {
	if _, err := db.GetRecommendation(ctx, id); err != nil {
		return nil, err
	}
	query := `UPDATE recommendations SET status = ?, updated_at = ? WHERE id = ?`
	if _, err := db.ExecContext(ctx, db.Rebind(query), status, model.Now(), id); err != nil {
		return nil, err
	}
	return db.GetRecommendation(ctx, id)
}

func (db *DB) DeleteRecommendation(ctx context.Context, id int64) error {
	return db.deleteByID(ctx, "recommendations", id)
}

const requestColumns = `id, user_id, title, description, status, created_at, updated_at`

func (db *DB) CreateRequest(ctx context.Context, userID int64, title, description string) (*model.Request, error) {
	now := model.Now()
	id, err := db.insertReturningID(ctx,
		`INSERT INTO requests (user_id, title, description, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		userID, title, description, model.StatusPending, now, now)
	if err != nil {
		return nil, err
	}
	return db.GetRequest(ctx, id)
}

func (db *DB) GetRequest(ctx context.Context, id int64) (*model.Request, error) {
	var req model.Request
	query := "SELECT " + requestColumns + " FROM requests WHERE id = ?"
	if err := db.GetContext(ctx, &req, db.Rebind(query), id); err != nil {
		return nil, notFound(err)
	}
	return &req, nil
}

func (db *DB) ListRequests(ctx context.Context, status string, limit, offset int) ([]model.Request, int, error) {
	where, args := statusWhere(status)

	var total int
	if err := db.GetContext(ctx, &total, db.Rebind("SELECT COUNT(*) FROM requests"+where), args...); err != nil {
		return nil, 0, err
	}

	reqs := []model.Request{}
	query := "SELECT " + requestColumns + " FROM requests" + where + " ORDER BY id DESC LIMIT ? OFFSET ?"
	if err := db.SelectContext(ctx, &reqs, db.Rebind(query), append(args, limit, offset)...); err != nil {
		return nil, 0, err
	}
	return reqs, total, nil
}

func (db *DB) SetRequestStatus(ctx context.Context, id int64, status string) (*model.Request, error) {
	if _, err := db.GetRequest(ctx, id); err != nil {
		return nil, err
	}
	query := `UPDATE requests SET status = ?, updated_at = ? WHERE id = ?`
	if _, err := db.ExecContext(ctx, db.Rebind(query), status, model.Now(), id); err != nil {
		return nil, err
	}
	return db.GetRequest(ctx, id)
}

func (db *DB) DeleteRequest(ctx context.Context, id int64) error {
	return db.deleteByID(ctx, "requests", id)
}
