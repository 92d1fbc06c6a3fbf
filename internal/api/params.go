package api

import (
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// queryInt reads a positive integer query parameter, falling back to def when absent.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%s must be a positive integer", name)
	}
	return n, nil
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return id, nil
}

// pagination reads page and limit. limit is capped at max.
func pagination(r *http.Request, defLimit, max int) (page, limit int, err error) {
	if page, err = queryInt(r, "page", 1); err != nil {
		return 0, 0, err
	}
	if limit, err = queryInt(r, "limit", defLimit); err != nil {
		return 0, 0, err
	}
	if limit > max {
		limit = max
	}
	if err = checkPage(page, limit); err != nil {
		return 0, 0, err
	}
	return page, limit, nil
}

// checkPage rejects pages whose row offset does not fit in an int.
func checkPage(page, limit int) error {
	if page-1 > math.MaxInt/limit {
		return fmt.Errorf("page is too large")
	}
	return nil
}
