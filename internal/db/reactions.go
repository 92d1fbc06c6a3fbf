package db

import (
	"context"

	"github.com/theLastOfCats/contentgate/internal/model"
)

// AddReaction increments the caller's counter for one emoji on one content record,
// creating it at 1 on first use.
func (db *DB) AddReaction(ctx context.Context, userID int64, contentType string, contentID int64, emoji string) (*model.Reaction, error) {
	now := model.Now()
	if _, err := db.ExecContext(ctx, db.Rebind(db.dialect.upsertReaction()),
		contentID, contentType, userID, emoji, now, now); err != nil {
		return nil, err
	}

	var r model.Reaction
	query := `SELECT id, content_id, content_type, user_id, emoji, count, created_at, updated_at
		FROM reactions WHERE content_id = ? AND content_type = ? AND user_id = ? AND emoji = ?`
	if err := db.GetContext(ctx, &r, db.Rebind(query), contentID, contentType, userID, emoji); err != nil {
		return nil, notFound(err)
	}
	return &r, nil
}

// ReactionCounts sums every user's counters per emoji for one content record.
func (db *DB) ReactionCounts(ctx context.Context, contentType string, contentID int64) ([]model.ReactionCount, error) {
	counts := []model.ReactionCount{}
	query := `SELECT emoji, SUM(count) AS count FROM reactions
		WHERE content_id = ? AND content_type = ?
		GROUP BY emoji ORDER BY emoji ASC`
	if err := db.SelectContext(ctx, &counts, db.Rebind(query), contentID, contentType); err != nil {
		return nil, err
	}
	return counts, nil
}
