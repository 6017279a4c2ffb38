package identity

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns the subrouter mounted at /session. establish wraps only the
// POST handler, typically with a rate limiter.
func Routes(h *Handler, establish ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.With(establish...).Post("/", h.HandleEstablish)
	r.Delete("/", h.HandleClear)
	return r
}
