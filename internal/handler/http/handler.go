package http

import (
	"net/http"

	"github.com/localpro/marketplace/internal/auth"
	"github.com/localpro/marketplace/pkg/httputil"
	"github.com/localpro/marketplace/pkg/middleware"
	"github.com/localpro/marketplace/pkg/pagination"
)

// maxBodyBytes limits request bodies to 1MB to prevent DoS via large payloads.
const maxBodyBytes = 1 << 20

// ContentTypeJSON sets the JSON content type on all responses in a route group.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// actorFromRequest rebuilds the authenticated actor from the claims the auth
// middleware stored in the request context. On public routes it returns a
// zero actor.
func actorFromRequest(r *http.Request) auth.Actor {
	ctx := r.Context()
	return auth.Actor{
		ID:   middleware.UserIDFromContext(ctx),
		Role: middleware.RoleFromContext(ctx),
	}
}

// parsePagination reads page and per_page query parameters, writing a 400 and
// returning false on malformed values.
func parsePagination(w http.ResponseWriter, r *http.Request) (page, perPage int, ok bool) {
	params, err := pagination.ParseRequest(r)
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Fail(&httputil.ErrorResponse{
			Code: "INVALID_PARAMETER", Message: err.Error(),
		}))
		return 0, 0, false
	}
	return params.Page, params.PerPage, true
}
