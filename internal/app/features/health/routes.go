package health

import "github.com/go-chi/chi/v5"

// Routes returns a subrouter mounted at /health. HEAD is answered too, for
// load balancers that check liveness without a body.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Serve)
	r.Head("/", h.Serve)
	return r
}
