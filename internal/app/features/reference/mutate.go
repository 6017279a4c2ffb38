package reference

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dalemusser/refhub/internal/app/refdata"
	"github.com/dalemusser/refhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/refhub/internal/app/system/limits"
	"github.com/dalemusser/refhub/internal/app/system/session"
	"github.com/dalemusser/refhub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
)

// decode reads an optional JSON object into payload. An empty body leaves
// payload zero. Markup is stripped from every schema field.
func (h *Handler[E]) decode(w http.ResponseWriter, r *http.Request, payload *E) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, limits.MaxEntryBody))
	if err := dec.Decode(payload); err != nil && !errors.Is(err, io.EOF) {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeJSON(w, http.StatusRequestEntityTooLarge, refdata.Result{Status: false, Error: "Request body too large"})
			return false
		}
		badRequest(w, "Request body must be a JSON object")
		return false
	}
	h.Engine.MapFields(payload, func(s string) string {
		htmlsanitize.Fields(&s)
		return s
	})
	return true
}

// HandleCreate handles POST /api/{kind}.
func (h *Handler[E]) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var payload E
	if !h.decode(w, r, &payload) {
		return
	}
	// Ids are always assigned by the engine.
	payload = h.Engine.WithID(payload, "")

	p, _ := session.FromContext(r.Context())
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "create")
	defer cancel()

	res, err := h.Engine.Create(ctx, p, payload)
	if err != nil {
		writeError(w, h.Log, "create", err)
		return
	}
	if res.Status {
		writeJSON(w, http.StatusCreated, res)
		return
	}
	writeResult(w, res)
}

// HandleEdit handles PUT /api/{kind}/{id}. The id in the path wins over any
// id in the body.
func (h *Handler[E]) HandleEdit(w http.ResponseWriter, r *http.Request) {
	var payload E
	if !h.decode(w, r, &payload) {
		return
	}
	payload = h.Engine.WithID(payload, chi.URLParam(r, "id"))

	p, _ := session.FromContext(r.Context())
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "edit")
	defer cancel()

	res, err := h.Engine.Edit(ctx, p, payload)
	if err != nil {
		writeError(w, h.Log, "edit", err)
		return
	}
	writeResult(w, res)
}

// HandleDelete handles DELETE /api/{kind}/{id}. A body is optional; when it
// carries entry fields the kind's delete guard applies.
func (h *Handler[E]) HandleDelete(w http.ResponseWriter, r *http.Request) {
	var payload E
	if !h.decode(w, r, &payload) {
		return
	}
	payload = h.Engine.WithID(payload, chi.URLParam(r, "id"))

	p, _ := session.FromContext(r.Context())
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "delete")
	defer cancel()

	res, err := h.Engine.Delete(ctx, p, payload)
	if err != nil {
		writeError(w, h.Log, "delete", err)
		return
	}
	writeResult(w, res)
}
