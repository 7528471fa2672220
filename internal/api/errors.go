package api

import (
	"errors"
	"net/http"

	"github.com/cabewaldrop/microdb/internal/dberrors"
)

// statusFor maps an engine error to the HTTP status code a client
// should see. Everything not explicitly recognized is a 500: the core
// never expects callers to handle it.
func statusFor(err error) int {
	switch {
	case errors.Is(err, dberrors.ErrCatalogMissing):
		return http.StatusNotFound
	case errors.Is(err, dberrors.ErrSchemaMismatch),
		errors.Is(err, dberrors.ErrCapacityExceeded):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeErr(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorResponse{Error: err.Error()})
}
