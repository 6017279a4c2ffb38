package reference

import (
	"github.com/dalemusser/refhub/internal/app/refdata"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Routes returns the subrouter for one kind, mounted at /api/{kind}.
func Routes[E any](h *Handler[E]) chi.Router {
	r := chi.NewRouter()
	routes(r, h)
	return r
}

func routes[E any](r chi.Router, h *Handler[E]) {
	r.Get("/", h.ServeAll)
	r.Get("/active", h.ServeActive)
	r.Get("/deleted", h.ServeDeleted)
	r.Get("/{id}", h.ServeByID)
	r.Post("/", h.HandleCreate)
	r.Put("/{id}", h.HandleEdit)
	r.Delete("/{id}", h.HandleDelete)
}

// StateRoutes returns the state subrouter, which also lists by country.
func StateRoutes(h *StateHandler) chi.Router {
	r := chi.NewRouter()
	r.Get("/by-country/{countryCode}", h.ServeByCountry)
	routes(r, h.Handler)
	return r
}

// Mount attaches every kind under r (bootstrap mounts r at /api).
func Mount(r chi.Router, engines *refdata.Engines, logger *zap.Logger) {
	r.Mount("/reason-codes", Routes(NewHandler(engines.ReasonCodes, logger)))
	r.Mount("/countries", Routes(NewHandler(engines.Countries, logger)))
	r.Mount("/states", StateRoutes(NewStateHandler(engines.States, logger)))
	r.Mount("/castes", Routes(NewHandler(engines.Castes, logger)))
}
