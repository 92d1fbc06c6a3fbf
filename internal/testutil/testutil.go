package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/theLastOfCats/contentgate/internal/db"
	"github.com/theLastOfCats/contentgate/internal/logging"
	"github.com/theLastOfCats/contentgate/internal/model"
)

var dbSeq atomic.Int64

// SetupTestDB creates an in-memory SQLite DB with schema, private to the calling test.
func SetupTestDB(t *testing.T) *db.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, dbSeq.Add(1))

	database, err := db.New(dsn)
	if err != nil {
		t.Fatalf("Failed to init in-memory db: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

// SeedUser inserts a user with the given flags and returns it.
func SeedUser(t *testing.T, database *db.DB, email string, isAdmin bool) *model.User {
	t.Helper()
	ctx := context.Background()
	user, err := database.CreateUser(ctx, email, strings.Split(email, "@")[0], "hash")
	if err != nil {
		t.Fatalf("Failed to seed user: %v", err)
	}
	if isAdmin {
		if _, err := database.ExecContext(ctx, database.Rebind(`UPDATE users SET is_admin = ? WHERE id = ?`), true, user.ID); err != nil {
			t.Fatalf("Failed to promote user: %v", err)
		}
		user.IsAdmin = true
	}
	return user
}

// MockMailSender captures emails for testing
type MockMailSender struct {
	mu         sync.Mutex
	SentEmails []SentEmail
}

type SentEmail struct {
	To       string
	Subject  string
	TextBody string
	HtmlBody string
}

func (m *MockMailSender) Send(to string, subject string, textBody string, htmlBody string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SentEmails = append(m.SentEmails, SentEmail{to, subject, textBody, htmlBody})
	logging.Debug().Str("to", to).Str("subject", subject).Msg("mock email sent")
	return nil
}

func (m *MockMailSender) Sent() []SentEmail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentEmail(nil), m.SentEmails...)
}
