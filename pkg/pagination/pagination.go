package pagination

import (
	"errors"
	"net/http"
	"strconv"
)

// Page sizing limits. Listing endpoints share these so no caller can drag a
// whole table through one request.
const (
	DefaultPage    = 1
	DefaultPerPage = 20
	MaxPerPage     = 100
)

var (
	ErrInvalidPage    = errors.New("page must be a valid positive integer")
	ErrInvalidPerPage = errors.New("per_page must be a valid integer between 1 and 100")
)

// Params holds the page window a listing query should return.
type Params struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	Offset  int `json:"-"`
}

// DefaultParams returns the first page at the default size.
func DefaultParams() Params {
	return Params{Page: DefaultPage, PerPage: DefaultPerPage}
}

// ParseRequest reads page and per_page from the query string. Absent
// parameters fall back to defaults. Malformed or out-of-range values are
// rejected rather than silently corrected, so clients learn about broken
// query strings instead of getting page 1 back.
func ParseRequest(r *http.Request) (Params, error) {
	p := DefaultParams()
	query := r.URL.Query()

	if raw := query.Get("page"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			return Params{}, ErrInvalidPage
		}
		p.Page = v
	}

	if raw := query.Get("per_page"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > MaxPerPage {
			return Params{}, ErrInvalidPerPage
		}
		p.PerPage = v
	}

	p.Offset = (p.Page - 1) * p.PerPage
	return p, nil
}
