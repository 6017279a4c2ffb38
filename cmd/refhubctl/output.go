package main

import (
	"encoding/json"
	"errors"
	"io"

	"github.com/dalemusser/refhub/internal/app/refdata"
)

// ErrRejected is returned after a business-rule failure has been printed.
var ErrRejected = errors.New("operation rejected")

func writeJSONLine(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// emit prints res and turns a status:false result into a non-zero exit.
func emit(w io.Writer, res refdata.Result) error {
	if err := writeJSONLine(w, res); err != nil {
		return err
	}
	if !res.Status {
		return ErrRejected
	}
	return nil
}
