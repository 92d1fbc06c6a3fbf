package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/theLastOfCats/contentgate/internal/auth"
	"github.com/theLastOfCats/contentgate/internal/db"
	"github.com/theLastOfCats/contentgate/internal/logging"
	"github.com/theLastOfCats/contentgate/internal/mail"
	"github.com/theLastOfCats/contentgate/internal/model"
	"github.com/theLastOfCats/contentgate/internal/templates"
	"github.com/theLastOfCats/contentgate/internal/validation"
)

const resetTokenTTL = time.Hour

type AuthHandler struct {
	DB          *db.DB
	Tokens      *auth.TokenIssuer
	Mailer      mail.MailSender
	Templates   *templates.Manager
	FrontendURL string
}

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Username string `json:"username" validate:"omitempty,max=64"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

func (h *AuthHandler) respondWithToken(w http.ResponseWriter, r *http.Request, status int, user *model.User) {
	token, err := h.Tokens.Issue(user.ID)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Int64("user_id", user.ID).Msg("failed to sign token")
		JSONError(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}
	writeJSON(w, status, AuthResponse{Token: token, User: user})
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		JSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := validation.ValidateStruct(&req); err != nil {
		JSONError(w, validation.Message(err), http.StatusBadRequest)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		JSONError(w, "Failed to hash password", http.StatusInternalServerError)
		return
	}

	if req.Username == "" {
		req.Username, _, _ = strings.Cut(req.Email, "@")
	}

	user, err := h.DB.CreateUser(r.Context(), req.Email, req.Username, hash)
	if errors.Is(err, db.ErrDuplicate) {
		JSONError(w, "Email is already registered", http.StatusBadRequest)
		return
	}
	if err != nil {
		storeError(w, r, err, "User")
		return
	}
	logging.Ctx(r.Context()).Info().Int64("user_id", user.ID).Msg("user registered")
	h.respondWithToken(w, r, http.StatusCreated, user)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		JSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := validation.ValidateStruct(&req); err != nil {
		JSONError(w, validation.Message(err), http.StatusBadRequest)
		return
	}

	user, err := h.DB.GetUserByEmail(r.Context(), req.Email)
	if errors.Is(err, db.ErrNotFound) {
		JSONError(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}
	if err != nil {
		storeError(w, r, err, "User")
		return
	}

	match, err := auth.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Int64("user_id", user.ID).Msg("unreadable password hash")
	}
	if !match {
		JSONError(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}
	if user.IsDisabled {
		JSONError(w, "Account is disabled", http.StatusForbidden)
		return
	}
	h.respondWithToken(w, r, http.StatusOK, user)
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email" validate:"required"`
	}
	if err := decodeJSON(r, &req); err != nil {
		JSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := validation.ValidateStruct(&req); err != nil {
		JSONError(w, validation.Message(err), http.StatusBadRequest)
		return
	}

	const sent = "A password reset email was sent"
	log := logging.Ctx(r.Context())

	user, err := h.DB.GetUserByEmail(r.Context(), req.Email)
	if errors.Is(err, db.ErrNotFound) {
		// same answer for unknown addresses
		writeJSON(w, http.StatusOK, MessageResponse{Message: sent})
		return
	}
	if err != nil {
		storeError(w, r, err, "User")
		return
	}

	token, hash, err := auth.GenerateResetToken()
	if err != nil {
		JSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	expiresAt := time.Now().Add(resetTokenTTL).Unix()
	if err := h.DB.SetPasswordResetToken(r.Context(), user.ID, hash, expiresAt); err != nil {
		storeError(w, r, err, "User")
		return
	}

	link := fmt.Sprintf("%s/reset-password?token=%s", h.FrontendURL, url.QueryEscape(token))
	htmlBody, err := h.Templates.Render("mail/forgot-password.html", map[string]string{
		"Username":          user.Username,
		"ResetPasswordLink": link,
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to render reset email")
	}
	if err := h.Mailer.Send(user.Email, "Password reset", "Reset link: "+link, htmlBody); err != nil {
		log.Error().Err(err).Int64("user_id", user.ID).Msg("failed to send reset email")
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: sent})
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ResetToken string `json:"reset_token" validate:"required"`
		Password   string `json:"password" validate:"required"`
	}
	if err := decodeJSON(r, &req); err != nil {
		JSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := validation.ValidateStruct(&req); err != nil {
		JSONError(w, validation.Message(err), http.StatusBadRequest)
		return
	}

	user, err := h.DB.GetUserByResetToken(r.Context(), auth.HashToken(req.ResetToken))
	if err != nil {
		JSONError(w, "Invalid or expired token", http.StatusBadRequest)
		return
	}
	if user.PasswordResetTokenExpires == nil || *user.PasswordResetTokenExpires < time.Now().Unix() {
		JSONError(w, "Invalid or expired token", http.StatusBadRequest)
		return
	}

	if len(req.Password) < 6 || len(req.Password) > 72 {
		JSONError(w, "Password should be from 6 to 72 characters long", http.StatusBadRequest)
		return
	}

	newHash, err := auth.HashPassword(req.Password)
	if err != nil {
		JSONError(w, "Internal error", http.StatusInternalServerError)
		return
	}
	if err := h.DB.UpdatePassword(r.Context(), user.ID, newHash); err != nil {
		storeError(w, r, err, "User")
		return
	}
	if err := h.DB.ClearResetToken(r.Context(), user.ID); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Int64("user_id", user.ID).Msg("failed to clear reset token")
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Password has been reset successfully"})
}
