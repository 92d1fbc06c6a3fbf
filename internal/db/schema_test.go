package db

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/theLastOfCats/contentgate/internal/model"
)

func TestRenderSchemaPerDialect(t *testing.T) {
	for _, d := range []Dialect{DialectSQLite, DialectMySQL, DialectPostgres} {
		schema, err := renderSchema(d)
		require.NoError(t, err, d)

		for _, g := range model.Groups {
			assert.Contains(t, schema, "CREATE TABLE IF NOT EXISTS "+g.Table+" (", d)
		}
		assert.Contains(t, schema, d.types().ID)
	}

	mysqlSchema, _ := renderSchema(DialectMySQL)
	assert.NotContains(t, mysqlSchema, "CREATE INDEX")
	assert.Contains(t, mysqlSchema, "INDEX idx_content_asian_post_date (post_date)")

	sqlite, _ := renderSchema(DialectSQLite)
	assert.Contains(t, sqlite, "CREATE INDEX IF NOT EXISTS idx_content_asian_post_date")

	region := strings.Count(sqlite, "region VARCHAR(16) NOT NULL")
	assert.Equal(t, 4, region)
}

func TestDetectDialect(t *testing.T) {
	assert.Equal(t, DialectPostgres, detectDialect("postgres://u:p@localhost/db"))
	assert.Equal(t, DialectMySQL, detectDialect("u:p@tcp(localhost:3306)/db"))
	assert.Equal(t, DialectSQLite, detectDialect("data/content.db"))
	assert.Equal(t, "u:p@/db?time_zone=%27%2B00%3A00%27", mysqlDSN("u:p@/db"))
	assert.Equal(t, "u:p@/db?time_zone=x", mysqlDSN("u:p@/db?time_zone=x"))
}

func TestMonthExpression(t *testing.T) {
	assert.Contains(t, DialectSQLite.monthOf("post_date"), "strftime('%m', post_date / 1000, 'unixepoch')")
	assert.Contains(t, DialectMySQL.monthOf("post_date"), "FROM_UNIXTIME(post_date DIV 1000)")
	assert.Contains(t, DialectPostgres.monthOf("post_date"), "to_timestamp(post_date / 1000.0)")
}

func TestBulkCreateRollsBackOnFailure(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	database := Wrap(conn, "sqlmock", DialectSQLite)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO content_asian").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO content_asian").WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err = database.Content(model.GroupAsian).Create(context.Background(), []model.ContentInput{
		{Name: "one", Mega: "m"},
		{Name: "two", Mega: "m"},
	})
	assert.EqualError(t, err, "disk full")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindWrapsQueryErrors(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	database := Wrap(conn, "sqlmock", DialectSQLite)
	mock.ExpectQuery("SELECT .* FROM content_western WHERE LOWER\\(name\\) LIKE").
		WithArgs("%test%").
		WillReturnError(errors.New("connection reset"))

	_, err = database.Content(model.GroupWestern).All(context.Background(), ContentFilter{Search: "Test"}, DefaultSort)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query content_western")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(errors.New("constraint failed: UNIQUE constraint failed: users.email (2067)")))
	assert.False(t, isUniqueViolation(errors.New("boom")))
	assert.False(t, isUniqueViolation(nil))
}
