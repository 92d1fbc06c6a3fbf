package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/theLastOfCats/contentgate/internal/db"
	"github.com/theLastOfCats/contentgate/internal/model"
	"github.com/theLastOfCats/contentgate/internal/validation"
)

// CommunityHandler serves reactions, recommendations and content requests.
type CommunityHandler struct {
	DB     *db.DB
	Stores map[string]*db.ContentStore
}

type ReactionRequest struct {
	ContentID   int64  `json:"contentId" validate:"required,gt=0"`
	ContentType string `json:"contentType" validate:"required"`
	Emoji       string `json:"emoji" validate:"required,max=32"`
}

func (h *CommunityHandler) React(w http.ResponseWriter, r *http.Request) {
	var req ReactionRequest
	if err := decodeJSON(r, &req); err != nil {
		JSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := validation.ValidateStruct(&req); err != nil {
		JSONError(w, validation.Message(err), http.StatusBadRequest)
		return
	}

	store, ok := h.Stores[req.ContentType]
	if !ok {
		JSONError(w, "Invalid contentType", http.StatusBadRequest)
		return
	}
	if _, err := store.GetByID(r.Context(), req.ContentID); err != nil {
		storeError(w, r, err, "Content")
		return
	}

	userID, _ := GetUserID(r)
	reaction, err := h.DB.AddReaction(r.Context(), userID, req.ContentType, req.ContentID, req.Emoji)
	if err != nil {
		storeError(w, r, err, "Reaction")
		return
	}
	writeJSON(w, http.StatusOK, reaction)
}

func (h *CommunityHandler) Reactions(w http.ResponseWriter, r *http.Request) {
	contentType := chi.URLParam(r, "contentType")
	if _, ok := h.Stores[contentType]; !ok {
		JSONError(w, "Invalid contentType", http.StatusBadRequest)
		return
	}
	contentID, err := strconv.ParseInt(chi.URLParam(r, "contentId"), 10, 64)
	if err != nil {
		JSONError(w, "invalid contentId", http.StatusBadRequest)
		return
	}
	counts, err := h.DB.ReactionCounts(r.Context(), contentType, contentID)
	if err != nil {
		storeError(w, r, err, "Reactions")
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

type RecommendationRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	Link        string `json:"link" validate:"omitempty,url,max=2048"`
	Description string `json:"description" validate:"max=5000"`
}

func (h *CommunityHandler) CreateRecommendation(w http.ResponseWriter, r *http.Request) {
	var req RecommendationRequest
	if err := decodeJSON(r, &req); err != nil {
		JSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := validation.ValidateStruct(&req); err != nil {
		JSONError(w, validation.Message(err), http.StatusBadRequest)
		return
	}
	userID, _ := GetUserID(r)
	rec, err := h.DB.CreateRecommendation(r.Context(), userID, req.Name, req.Link, req.Description)
	if err != nil {
		storeError(w, r, err, "Recommendation")
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (h *CommunityHandler) ListRecommendations(w http.ResponseWriter, r *http.Request) {
	page, limit, err := pagination(r, 50, 200)
	if err != nil {
		JSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	recs, total, err := h.DB.ListRecommendations(r.Context(), r.URL.Query().Get("status"), limit, (page-1)*limit)
	if err != nil {
		storeError(w, r, err, "Recommendations")
		return
	}
	writeJSON(w, http.StatusOK, model.Page[model.Recommendation]{
		Page: page, PerPage: limit, Total: total, TotalPages: model.TotalPages(total, limit), Data: recs,
	})
}

func (h *CommunityHandler) setRecommendationStatus(status string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			JSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		rec, err := h.DB.SetRecommendationStatus(r.Context(), id, status)
		if err != nil {
			storeError(w, r, err, "Recommendation")
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

func (h *CommunityHandler) ApproveRecommendation(w http.ResponseWriter, r *http.Request) {
	h.setRecommendationStatus(model.StatusApproved)(w, r)
}

func (h *CommunityHandler) RejectRecommendation(w http.ResponseWriter, r *http.Request) {
	h.setRecommendationStatus(model.StatusRejected)(w, r)
}

func (h *CommunityHandler) DeleteRecommendation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		JSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.DB.DeleteRecommendation(r.Context(), id); err != nil {
		storeError(w, r, err, "Recommendation")
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Recommendation deleted successfully"})
}

type ContentRequestBody struct {
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description" validate:"max=5000"`
}

func (h *CommunityHandler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	var req ContentRequestBody
	if err := decodeJSON(r, &req); err != nil {
		JSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := validation.ValidateStruct(&req); err != nil {
		JSONError(w, validation.Message(err), http.StatusBadRequest)
		return
	}
	userID, _ := GetUserID(r)
	created, err := h.DB.CreateRequest(r.Context(), userID, req.Title, req.Description)
	if err != nil {
		storeError(w, r, err, "Request")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *CommunityHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	page, limit, err := pagination(r, 50, 200)
	if err != nil {
		JSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	reqs, total, err := h.DB.ListRequests(r.Context(), r.URL.Query().Get("status"), limit, (page-1)*limit)
	if err != nil {
		storeError(w, r, err, "Requests")
		return
	}
	writeJSON(w, http.StatusOK, model.Page[model.Request]{
		Page: page, PerPage: limit, Total: total, TotalPages: model.TotalPages(total, limit), Data: reqs,
	})
}

// SetRequestStatus accepts any non-empty status; pending is only the initial one.
func (h *CommunityHandler) SetRequestStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		JSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	var req struct {
		Status string `json:"status" validate:"required,max=32"`
	}
	if err := decodeJSON(r, &req); err != nil {
		JSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := validation.ValidateStruct(&req); err != nil {
		JSONError(w, validation.Message(err), http.StatusBadRequest)
		return
	}
	updated, err := h.DB.SetRequestStatus(r.Context(), id, req.Status)
	if err != nil {
		storeError(w, r, err, "Request")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *CommunityHandler) DeleteRequest(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		JSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.DB.DeleteRequest(r.Context(), id); err != nil {
		storeError(w, r, err, "Request")
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Request deleted successfully"})
}
