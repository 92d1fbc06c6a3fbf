package api

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
	"github.com/theLastOfCats/contentgate/internal/auth"
	"github.com/theLastOfCats/contentgate/internal/billing"
	"github.com/theLastOfCats/contentgate/internal/db"
	"github.com/theLastOfCats/contentgate/internal/obfuscate"
	"github.com/theLastOfCats/contentgate/internal/templates"
	"github.com/theLastOfCats/contentgate/internal/testutil"
)

const (
	testAdminKey = "admin-secret"
	testAPIKey   = "frontend-key"
	testOrigin   = "https://site.test"
	testWebhook  = "whsec_test"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

var testPrices = billing.Prices{Monthly: "price_month", Annual: "price_year"}

type testServer struct {
	t       *testing.T
	DB      *db.DB
	Tokens  *auth.TokenIssuer
	Mailer  *testutil.MockMailSender
	Handler http.Handler
}

type serverOption func(*Deps)

func withBilling(p billing.Provider) serverOption {
	return func(d *Deps) { d.Billing = p }
}

func newTestServer(t *testing.T, opts ...serverOption) *testServer {
	t.Helper()
	database := testutil.SetupTestDB(t)
	tokens := auth.NewTokenIssuer("test-secret", time.Hour)
	mailer := &testutil.MockMailSender{}

	d := Deps{
		DB:             database,
		Tokens:         tokens,
		Mailer:         mailer,
		Templates:      templates.NewManager(nil),
		Prices:         testPrices,
		AdminKey:       testAdminKey,
		APIKey:         testAPIKey,
		AllowedOrigins: []string{testOrigin},
		FrontendURL:    "http://front.test",
		Now:            func() time.Time { return testNow },
	}
	for _, opt := range opts {
		opt(&d)
	}

	return &testServer{t: t, DB: database, Tokens: tokens, Mailer: mailer, Handler: NewRouter(d)}
}

// token signs a session token for the given user id.
func (s *testServer) token(userID int64) string {
	s.t.Helper()
	tok, err := s.Tokens.Issue(userID)
	require.NoError(s.t, err)
	return tok
}

func (s *testServer) do(method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	case []byte:
		reader = bytes.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	s.Handler.ServeHTTP(rr, req)
	return rr
}

func adminHeaders() map[string]string {
	return map[string]string{HeaderAdminKey: testAdminKey}
}

func frontendHeaders() map[string]string {
	return map[string]string{HeaderAPIKey: testAPIKey, "Origin": testOrigin}
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), v), "body: %s", rr.Body.String())
}

// decodeEncoded unwraps an EncodedResponse into v.
func decodeEncoded(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	var resp EncodedResponse
	decodeBody(t, rr, &resp)
	require.NotEmpty(t, resp.Data)
	require.NoError(t, obfuscate.Decode(resp.Data, v))
}

func errorMessage(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	decodeBody(t, rr, &resp)
	return resp.Error
}
