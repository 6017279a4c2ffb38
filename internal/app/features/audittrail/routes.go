package audittrail

import "github.com/go-chi/chi/v5"

// Routes returns the subrouter mounted at /api/audit.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeList)
	return r
}
