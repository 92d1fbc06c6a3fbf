package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/theLastOfCats/contentgate/internal/auth"
	"github.com/theLastOfCats/contentgate/internal/model"
	"github.com/theLastOfCats/contentgate/internal/templates"
	"github.com/theLastOfCats/contentgate/internal/testutil"
)

func TestHealth(t *testing.T) {
	req, err := http.NewRequest("GET", "/", nil)
	if err != nil {
		t.Fatal(err)
	}
	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(Health)

	handler.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusOK)
	}

	expected := "Alive"
	if rr.Body.String() != expected {
		t.Errorf("handler returned unexpected body: got %v want %v", rr.Body.String(), expected)
	}
}

func TestForgotPassword(t *testing.T) {
	database := testutil.SetupTestDB(t)

	email := "test@example.com"
	testutil.SeedUser(t, database, email, false)

	mailer := &testutil.MockMailSender{}
	handler := &AuthHandler{
		DB:          database,
		Mailer:      mailer,
		Templates:   templates.NewManager(nil),
		FrontendURL: "http://test.local",
	}

	payload := map[string]string{"email": email}
	body, _ := json.Marshal(payload)
	req, _ := http.NewRequest("POST", "/auth/forgot-password", bytes.NewBuffer(body))
	rr := httptest.NewRecorder()

	handler.ForgotPassword(rr, req)

	if status := rr.Code; status != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusOK)
	}

	sent := mailer.Sent()
	if len(sent) != 1 {
		t.Errorf("Expected 1 email sent, got %d", len(sent))
	} else {
		if sent[0].To != email {
			t.Errorf("Expected email to %s, got %s", email, sent[0].To)
		}
		if !bytes.Contains([]byte(sent[0].HtmlBody), []byte("http://test.local/reset-password?token=")) {
			t.Errorf("Expected reset link in email body, got %s", sent[0].HtmlBody)
		}
	}

	user, err := database.GetUserByEmail(context.Background(), email)
	if err != nil {
		t.Fatalf("Failed to get user: %v", err)
	}
	if user.PasswordResetTokenHash == nil {
		t.Error("Expected password reset token to be set in DB")
	}
}

func TestForgotPasswordUnknownEmail(t *testing.T) {
	database := testutil.SetupTestDB(t)
	mailer := &testutil.MockMailSender{}
	handler := &AuthHandler{DB: database, Mailer: mailer, Templates: templates.NewManager(nil)}

	body, _ := json.Marshal(map[string]string{"email": "nobody@example.com"})
	req, _ := http.NewRequest("POST", "/auth/forgot-password", bytes.NewBuffer(body))
	rr := httptest.NewRecorder()

	handler.ForgotPassword(rr, req)

	if status := rr.Code; status != http.StatusOK {
		t.Errorf("unknown email should still answer 200, got %v", status)
	}
	if len(mailer.Sent()) != 0 {
		t.Error("No email should be sent for an unknown address")
	}
}

func TestResetPassword(t *testing.T) {
	database := testutil.SetupTestDB(t)
	ctx := context.Background()

	token, hash, _ := auth.GenerateResetToken()
	expires := time.Now().Add(1 * time.Hour).Unix()

	user := testutil.SeedUser(t, database, "reset@example.com", false)
	if err := database.SetPasswordResetToken(ctx, user.ID, hash, expires); err != nil {
		t.Fatalf("Failed to seed token: %v", err)
	}

	handler := &AuthHandler{DB: database}

	newPass := "newsecurepassword"
	payload := map[string]string{
		"reset_token": token,
		"password":    newPass,
	}
	body, _ := json.Marshal(payload)
	req, _ := http.NewRequest("POST", "/auth/reset-password", bytes.NewBuffer(body))
	rr := httptest.NewRecorder()

	handler.ResetPassword(rr, req)

	if status := rr.Code; status != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v body: %s", status, http.StatusOK, rr.Body.String())
	}

	updated, _ := database.GetUserByID(ctx, user.ID)
	match, err := auth.VerifyPassword(newPass, updated.PasswordHash)
	if err != nil {
		t.Fatalf("Error verifying password: %v", err)
	}
	if !match {
		t.Error("Password should match new password")
	}

	if updated.PasswordResetTokenHash != nil {
		t.Error("Token should be cleared after reset")
	}

	// the token is single use
	req2, _ := http.NewRequest("POST", "/auth/reset-password", bytes.NewBuffer(body))
	rr2 := httptest.NewRecorder()
	handler.ResetPassword(rr2, req2)
	if status := rr2.Code; status != http.StatusBadRequest {
		t.Errorf("Reusing a reset token should fail, got %v", status)
	}
}

func TestResetPasswordExpiredToken(t *testing.T) {
	database := testutil.SetupTestDB(t)

	token, hash, _ := auth.GenerateResetToken()
	user := testutil.SeedUser(t, database, "late@example.com", false)
	if err := database.SetPasswordResetToken(context.Background(), user.ID, hash, time.Now().Add(-time.Minute).Unix()); err != nil {
		t.Fatalf("Failed to seed token: %v", err)
	}

	handler := &AuthHandler{DB: database}
	body, _ := json.Marshal(map[string]string{"reset_token": token, "password": "whatever1"})
	req, _ := http.NewRequest("POST", "/auth/reset-password", bytes.NewBuffer(body))
	rr := httptest.NewRecorder()

	handler.ResetPassword(rr, req)

	if status := rr.Code; status != http.StatusBadRequest {
		t.Errorf("Expired token should be rejected, got %v", status)
	}
}

func TestGetMe(t *testing.T) {
	database := testutil.SetupTestDB(t)

	email := "me@example.com"
	user := testutil.SeedUser(t, database, email, false)

	handler := &UserHandler{DB: database}

	req, _ := http.NewRequest("GET", "/auth/me", nil)
	// Inject the identity (simulating Identify)
	ctx := context.WithValue(req.Context(), identityKey, auth.Identity{Kind: auth.AuthenticatedUser, UserID: user.ID})
	req = req.WithContext(ctx)

	rr := httptest.NewRecorder()

	handler.GetMe(rr, req)

	if status := rr.Code; status != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusOK)
	}

	var resp model.User
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Email != email {
		t.Errorf("Expected email %s, got %s", email, resp.Email)
	}
	if resp.ID != user.ID {
		t.Errorf("Expected ID %d, got %d", user.ID, resp.ID)
	}
}
