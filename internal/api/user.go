package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/theLastOfCats/contentgate/internal/auth"
	"github.com/theLastOfCats/contentgate/internal/db"
	"github.com/theLastOfCats/contentgate/internal/logging"
	"github.com/theLastOfCats/contentgate/internal/model"
	"github.com/theLastOfCats/contentgate/internal/validation"
	"github.com/theLastOfCats/contentgate/internal/vip"
)

type UserHandler struct {
	DB  *db.DB
	Now func() time.Time
}

func (h *UserHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r)
	if !ok {
		JSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	user, err := h.DB.GetUserByID(r.Context(), userID)
	if err != nil {
		storeError(w, r, err, "User")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type UpdateMeRequest struct {
	Username *string `json:"username" validate:"omitempty,min=1,max=64"`
	Email    *string `json:"email" validate:"omitempty,email,max=255"`
	Password *string `json:"password" validate:"omitempty,min=6,max=72"`
}

func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, _ := GetUserID(r)

	var req UpdateMeRequest
	if err := decodeJSON(r, &req); err != nil {
		JSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := validation.ValidateStruct(&req); err != nil {
		JSONError(w, validation.Message(err), http.StatusBadRequest)
		return
	}

	update := db.ProfileUpdate{Username: req.Username, Email: req.Email}
	if req.Password != nil {
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			JSONError(w, "Failed to hash password", http.StatusInternalServerError)
			return
		}
		update.PasswordHash = &hash
	}

	user, err := h.DB.UpdateProfile(r.Context(), userID, update)
	if errors.Is(err, db.ErrDuplicate) {
		JSONError(w, "Email is already registered", http.StatusBadRequest)
		return
	}
	if err != nil {
		storeError(w, r, err, "User")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// DeleteUser removes the caller's own account.
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		JSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if callerID, _ := GetUserID(r); callerID != id {
		JSONError(w, "You can only delete your own account", http.StatusForbidden)
		return
	}
	if err := h.DB.DeleteUser(r.Context(), id); err != nil {
		storeError(w, r, err, "User")
		return
	}
	logging.Ctx(r.Context()).Info().Int64("user_id", id).Msg("user deleted own account")
	writeJSON(w, http.StatusOK, MessageResponse{Message: "User deleted successfully"})
}

func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, limit, err := pagination(r, 50, 200)
	if err != nil {
		JSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	users, total, err := h.DB.ListUsers(r.Context(), limit, (page-1)*limit)
	if err != nil {
		storeError(w, r, err, "Users")
		return
	}
	writeJSON(w, http.StatusOK, model.Page[model.User]{
		Page:       page,
		PerPage:    limit,
		Total:      total,
		TotalPages: model.TotalPages(total, limit),
		Data:       users,
	})
}

// RenewVip extends from the current expiration while it is still running.
func (h *UserHandler) RenewVip(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		JSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	var req struct {
		Plan string `json:"plan" validate:"required"`
	}
	if err := decodeJSON(r, &req); err != nil {
		JSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := validation.ValidateStruct(&req); err != nil {
		JSONError(w, validation.Message(err), http.StatusBadRequest)
		return
	}
	plan, err := vip.ParsePlan(req.Plan)
	if err != nil {
		JSONError(w, "plan must be one of: monthly annual", http.StatusBadRequest)
		return
	}

	user, err := h.DB.GetUserByID(r.Context(), id)
	if err != nil {
		storeError(w, r, err, "User")
		return
	}

	var current *time.Time
	if user.VipExpirationDate != nil {
		current = &user.VipExpirationDate.Time
	}
	expires := vip.ExtendFromCurrent(h.now(), current, user.IsVip, plan)
	if err := h.DB.SetVip(r.Context(), id, expires, nil); err != nil {
		storeError(w, r, err, "User")
		return
	}
	logging.Ctx(r.Context()).Info().Int64("user_id", id).Str("plan", string(plan)).Time("expires_at", expires).Msg("VIP renewed")

	user, err = h.DB.GetUserByID(r.Context(), id)
	if err != nil {
		storeError(w, r, err, "User")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) SetDisabled(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		JSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	var req struct {
		Disabled *bool `json:"disabled" validate:"required"`
	}
	if err := decodeJSON(r, &req); err != nil {
		JSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := validation.ValidateStruct(&req); err != nil {
		JSONError(w, validation.Message(err), http.StatusBadRequest)
		return
	}

	user, err := h.DB.SetDisabled(r.Context(), id, *req.Disabled)
	if err != nil {
		storeError(w, r, err, "User")
		return
	}
	writeJSON(w, http.StatusOK, user)
}
