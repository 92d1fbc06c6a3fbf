package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/theLastOfCats/contentgate/internal/logging"
	"github.com/theLastOfCats/contentgate/internal/obfuscate"
	"github.com/theLastOfCats/contentgate/internal/search"
)

type SearchHandler struct {
	Aggregator *search.Aggregator
	Encoder    *obfuscate.Encoder
}

// Search answers GET /universal-search/search across the selected groups.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
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
	switch strings.ToLower(q.Get("dateFilter")) {
	case "", "all", "today", "yesterday", "7days":
	default:
		JSONError(w, "dateFilter must be one of: today yesterday 7days all", http.StatusBadRequest)
		return
	}

	result, err := h.Aggregator.Search(r.Context(), search.Query{
		Search:      q.Get("search"),
		Category:    q.Get("category"),
		Region:      q.Get("region"),
		ContentType: q.Get("contentType"),
		Month:       month,
		DateFilter:  q.Get("dateFilter"),
		SortBy:      q.Get("sortBy"),
		SortOrder:   q.Get("sortOrder"),
		Page:        page,
		Limit:       limit,
	})
	if errors.Is(err, search.ErrUnknownContentType) {
		JSONError(w, "Invalid contentType", http.StatusBadRequest)
		return
	}
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("universal search failed")
		JSONError(w, "Database error", http.StatusInternalServerError)
		return
	}
	writeEncoded(w, r, h.Encoder, result)
}
