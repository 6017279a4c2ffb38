package reference

import (
	"context"
	"net/http"

	"github.com/dalemusser/refhub/internal/app/refdata"
	"github.com/dalemusser/refhub/internal/app/system/session"
	"github.com/dalemusser/refhub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
)

type reader func(ctx context.Context, p refdata.Principal) (refdata.Result, error)

func (h *Handler[E]) serveList(w http.ResponseWriter, r *http.Request, op string, read reader) {
	p, _ := session.FromContext(r.Context())

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, op)
	defer cancel()

	res, err := read(ctx, p)
	if err != nil {
		writeError(w, h.Log, op, err)
		return
	}
	writeResult(w, res)
}

// ServeAll handles GET /api/{kind}: every entry, deleted ones included.
func (h *Handler[E]) ServeAll(w http.ResponseWriter, r *http.Request) {
	h.serveList(w, r, "list all", h.Engine.GetAll)
}

// ServeActive handles GET /api/{kind}/active.
func (h *Handler[E]) ServeActive(w http.ResponseWriter, r *http.Request) {
	h.serveList(w, r, "list active", h.Engine.GetActive)
}

// ServeDeleted handles GET /api/{kind}/deleted.
func (h *Handler[E]) ServeDeleted(w http.ResponseWriter, r *http.Request) {
	h.serveList(w, r, "list deleted", h.Engine.GetDeleted)
}

// ServeByID handles GET /api/{kind}/{id}.
func (h *Handler[E]) ServeByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.serveList(w, r, "get by id", func(ctx context.Context, p refdata.Principal) (refdata.Result, error) {
		return h.Engine.GetByID(ctx, p, id)
	})
}

// ServeByCountry handles GET /api/states/by-country/{countryCode}: the active
// states of one country.
func (h *StateHandler) ServeByCountry(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "countryCode")
	h.serveList(w, r, "list by country", func(ctx context.Context, p refdata.Principal) (refdata.Result, error) {
		return h.States.GetByCountry(ctx, p, code)
	})
}
