package db

import "fmt"

type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectMySQL    Dialect = "mysql"
	DialectPostgres Dialect = "postgres"
)

// monthOf returns an expression yielding the UTC calendar month (1-12) of a
// Unix-millisecond column.
func (d Dialect) monthOf(col string) string {
	switch d {
	case DialectPostgres:
		return fmt.Sprintf("CAST(EXTRACT(MONTH FROM to_timestamp(%s / 1000.0) AT TIME ZONE 'UTC') AS INTEGER)", col)
	case DialectMySQL:
		return fmt.Sprintf("MONTH(FROM_UNIXTIME(%s DIV 1000))", col)
	default:
		return fmt.Sprintf("CAST(strftime('%%m', %s / 1000, 'unixepoch') AS INTEGER)", col)
	}
}

// returning reports whether INSERT ... RETURNING id is used instead of LastInsertId.
func (d Dialect) returning() bool {
	return d == DialectPostgres
}

func (d Dialect) upsertReaction() string {
	const insert = `INSERT INTO reactions (content_id, content_type, user_id, emoji, count, created_at, updated_at)
		VALUES (?, ?, ?, ?, 1, ?, ?)`
	if d == DialectMySQL {
		return insert + ` ON DUPLICATE KEY UPDATE count = count + 1, updated_at = VALUES(updated_at)`
	}
	return insert + ` ON CONFLICT (content_id, content_type, user_id, emoji)
		DO UPDATE SET count = reactions.count + 1, updated_at = excluded.updated_at`
}

type schemaTypes struct {
	ID            string
	Text          string
	Bool          string
	InlineIndexes bool
}

func (d Dialect) types() schemaTypes {
	switch d {
	case DialectPostgres:
		return schemaTypes{ID: "BIGSERIAL PRIMARY KEY", Text: "TEXT", Bool: "BOOLEAN NOT NULL DEFAULT FALSE"}
	case DialectMySQL:
		return schemaTypes{ID: "BIGINT AUTO_INCREMENT PRIMARY KEY", Text: "TEXT", Bool: "BOOLEAN NOT NULL DEFAULT FALSE", InlineIndexes: true}
	default:
		return schemaTypes{ID: "INTEGER PRIMARY KEY AUTOINCREMENT", Text: "TEXT", Bool: "INTEGER NOT NULL DEFAULT 0"}
	}
}
