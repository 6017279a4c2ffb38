package reference

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dalemusser/refhub/internal/app/refdata"
	"go.uber.org/zap"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeResult answers 200 for a successful Result and 422 for a business
// failure.
func writeResult(w http.ResponseWriter, res refdata.Result) {
	if !res.Status {
		writeJSON(w, http.StatusUnprocessableEntity, res)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// writeError maps engine errors to statuses. The body always has the same
// {status:false,error} shape as a business failure.
func writeError(w http.ResponseWriter, log *zap.Logger, op string, err error) {
	code := http.StatusInternalServerError
	msg := "Internal server error"

	var ve *refdata.ValidationError
	switch {
	case errors.As(err, &ve):
		code, msg = http.StatusBadRequest, ve.Message
	case errors.Is(err, refdata.ErrTenantRequired):
		code, msg = http.StatusUnauthorized, "Tenant code not found"
	case errors.Is(err, refdata.ErrOrganizationNotFound):
		code, msg = http.StatusNotFound, "Organization data not found"
	case errors.Is(err, refdata.ErrSaveFailed):
		msg = "Failed to update organization data"
	}

	if code >= http.StatusInternalServerError {
		log.Error(op+" failed", zap.Error(err))
	} else {
		log.Debug(op+" rejected", zap.Int("status", code), zap.Error(err))
	}
	writeJSON(w, code, refdata.Result{Status: false, Error: msg})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, refdata.Result{Status: false, Error: msg})
}
