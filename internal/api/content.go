package api

import (
	"bytes"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/theLastOfCats/contentgate/internal/db"
	"github.com/theLastOfCats/contentgate/internal/logging"
	"github.com/theLastOfCats/contentgate/internal/metrics"
	"github.com/theLastOfCats/contentgate/internal/model"
	"github.com/theLastOfCats/contentgate/internal/obfuscate"
	"github.com/theLastOfCats/contentgate/internal/search"
	"github.com/theLastOfCats/contentgate/internal/validation"
)

// ListPageSize is the fixed page size of the plain listing.
const ListPageSize = 900

// EncodedResponse carries an obfuscated payload.
type EncodedResponse struct {
	Data string `json:"data"`
}

func writeEncoded(w http.ResponseWriter, r *http.Request, enc *obfuscate.Encoder, v any) {
	encoded, err := enc.Encode(v)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("failed to encode response")
		JSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, EncodedResponse{Data: encoded})
}

// ContentHandler serves one content group.
type ContentHandler struct {
	Store      *db.ContentStore
	Encoder    *obfuscate.Encoder
	Categories *CategoryCache
}

func (h *ContentHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.With(RequireAdmin).Post("/", h.Create)
	r.With(RequireAdmin).Put("/{id}", h.Update)
	r.With(RequireAdmin).Delete("/{id}", h.Delete)

	r.Group(func(r chi.Router) {
		r.Use(RequireAPIKey)
		r.Get("/", h.List)
		r.Get("/search", h.Search)
		r.Get("/id/{id}", h.GetByID)
		r.Get("/{slug}", h.GetBySlug)
	})
	return r
}

func (h *ContentHandler) group() model.Group {
	return h.Store.Group()
}

func (h *ContentHandler) validateInput(in *model.ContentInput) error {
	if err := validation.ValidateStruct(in); err != nil {
		return err
	}
	if h.group().MegaRequired && strings.TrimSpace(in.Mega) == "" {
		return &validation.Error{Fields: []validation.FieldError{{Field: "mega", Tag: "required", Message: "mega is required"}}}
	}
	if !h.group().HasRegion {
		in.Region = ""
	}
	return nil
}

// Create accepts one record or an array and stores them atomically.
func (h *ContentHandler) Create(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		JSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	body = bytes.TrimSpace(body)

	var inputs []model.ContentInput
	bulk := len(body) > 0 && body[0] == '['
	if bulk {
		err = json.Unmarshal(body, &inputs)
	} else {
		var in model.ContentInput
		err = json.Unmarshal(body, &in)
		inputs = []model.ContentInput{in}
	}
	if err != nil {
		JSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if len(inputs) == 0 {
		JSONError(w, "At least one record is required", http.StatusBadRequest)
		return
	}
	for i := range inputs {
		if err := h.validateInput(&inputs[i]); err != nil {
			JSONError(w, validation.Message(err), http.StatusBadRequest)
			return
		}
	}

	created, err := h.Store.Create(r.Context(), inputs)
	if err != nil {
		storeError(w, r, err, "Content")
		return
	}
	metrics.ContentWrites.WithLabelValues(h.group().Key, "create").Add(float64(len(created)))
	h.Categories.Invalidate()

	if bulk {
		writeJSON(w, http.StatusCreated, created)
		return
	}
	writeJSON(w, http.StatusCreated, created[0])
}

func (h *ContentHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, limit, err := pagination(r, search.DefaultLimit, ListPageSize)
	if err != nil {
		JSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	month, err := queryInt(r, "month", 0)
	if err != nil || month > 12 {
		JSONError(w, "month must be between 1 and 12", http.StatusBadRequest)
		return
	}

	filter := db.ContentFilter{
		Search:   q.Get("search"),
		Category: q.Get("category"),
		Region:   q.Get("region"),
		Month:    month,
	}
	sort := db.ParseSort(q.Get("sortBy"), q.Get("sortOrder"))

	total, err := h.Store.Count(r.Context(), filter)
	if err != nil {
		storeError(w, r, err, "Content")
		return
	}
	rows, err := h.Store.Find(r.Context(), filter, sort, limit, (page-1)*limit)
	if err != nil {
		storeError(w, r, err, "Content")
		return
	}

	writeEncoded(w, r, h.Encoder, model.Page[model.Content]{
		Page:       page,
		PerPage:    limit,
		Total:      total,
		TotalPages: model.TotalPages(total, limit),
		Data:       rows,
	})
}

// List returns a fixed-size page without totals, newest first.
func (h *ContentHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page", 1)
	if err == nil {
		err = checkPage(page, ListPageSize)
	}
	if err != nil {
		JSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	filter := db.ContentFilter{Region: r.URL.Query().Get("region")}

	rows, err := h.Store.Find(r.Context(), filter, db.DefaultSort, ListPageSize, (page-1)*ListPageSize)
	if err != nil {
		storeError(w, r, err, "Content")
		return
	}
	writeEncoded(w, r, h.Encoder, model.Listing[model.Content]{
		Page:    page,
		PerPage: ListPageSize,
		Data:    rows,
	})
}

func (h *ContentHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		JSONError(w, "Content not found", http.StatusNotFound)
		return
	}
	c, err := h.Store.GetByID(r.Context(), id)
	if err != nil {
		storeError(w, r, err, "Content")
		return
	}
	writeEncoded(w, r, h.Encoder, c)
}

func (h *ContentHandler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	c, err := h.Store.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		storeError(w, r, err, "Content")
		return
	}
	writeEncoded(w, r, h.Encoder, c)
}

func (h *ContentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		JSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var patch model.ContentPatch
	if err := decodeJSON(r, &patch); err != nil {
		JSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := validation.ValidateStruct(&patch); err != nil {
		JSONError(w, validation.Message(err), http.StatusBadRequest)
		return
	}
	if !h.group().HasRegion {
		patch.Region = nil
	}
	if patch.Empty() {
		JSONError(w, "No fields to update", http.StatusBadRequest)
		return
	}

	c, err := h.Store.Update(r.Context(), id, patch)
	if err != nil {
		storeError(w, r, err, "Content")
		return
	}
	metrics.ContentWrites.WithLabelValues(h.group().Key, "update").Inc()
	h.Categories.Invalidate()
	writeJSON(w, http.StatusOK, c)
}

func (h *ContentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		JSONError(w, "Content not found", http.StatusNotFound)
		return
	}
	if err := h.Store.Delete(r.Context(), id); err != nil {
		storeError(w, r, err, "Content")
		return
	}
	metrics.ContentWrites.WithLabelValues(h.group().Key, "delete").Inc()
	h.Categories.Invalidate()
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Content deleted successfully"})
}
