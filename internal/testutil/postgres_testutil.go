//go:build integration

package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/theLastOfCats/contentgate/internal/db"
)

const postgresImage = "postgres:16-alpine"

// SetupPostgresTestDB starts a throwaway Postgres container and opens it with the full schema.
func SetupPostgresTestDB(t *testing.T) *db.DB {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        postgresImage,
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "content",
			"POSTGRES_PASSWORD": "content",
			"POSTGRES_DB":       "content",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("postgres container unavailable: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Warning: failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("get container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("get mapped port: %v", err)
	}

	dsn := fmt.Sprintf("postgres://content:content@%s:%s/content?sslmode=disable", host, port.Port())
	database, err := db.New(dsn)
	if err != nil {
		t.Fatalf("failed to init postgres test db: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})
	return database
}
