package testutil

import (
	"os"
	"testing"

	"github.com/theLastOfCats/contentgate/internal/db"
	"github.com/theLastOfCats/contentgate/internal/model"
)

// SetupMySQLTestDB initializes a MySQL-backed DB for integration tests.
// It skips tests when MYSQL_TEST_DSN is not set.
func SetupMySQLTestDB(t *testing.T) *db.DB {
	t.Helper()

	dsn := os.Getenv("MYSQL_TEST_DSN")
	if dsn == "" {
		t.Skip("MYSQL_TEST_DSN not set; skipping MySQL integration tests")
	}

	database, err := db.New(dsn)
	if err != nil {
		t.Fatalf("failed to init mysql test db: %v", err)
	}

	t.Cleanup(func() {
		_ = database.Close()
	})

	resetMySQLTables(t, database)
	return database
}

func resetMySQLTables(t *testing.T, database *db.DB) {
	t.Helper()

	stmts := []string{"SET FOREIGN_KEY_CHECKS=0"}
	for _, table := range resettableTables() {
		stmts = append(stmts, "TRUNCATE TABLE "+table)
	}
	stmts = append(stmts, "SET FOREIGN_KEY_CHECKS=1")

	for _, stmt := range stmts {
		if _, err := database.Exec(stmt); err != nil {
			t.Fatalf("mysql reset failed on %q: %v", stmt, err)
		}
	}
}

func resettableTables() []string {
	tables := []string{"reactions", "recommendations", "requests"}
	for _, g := range model.Groups {
		tables = append(tables, g.Table)
	}
	return append(tables, "users")
}
