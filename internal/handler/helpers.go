package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/woutervb/boodschap/internal/catalog"
	"github.com/woutervb/boodschap/internal/session"
	"github.com/woutervb/boodschap/internal/store"
)

var validate = validator.New()

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeErrorMsg(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decodeJSON parses and validates a request body. An empty body is allowed
// when the target has no required fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "ongeldige JSON")
		return false
	}
	if err := validate.Struct(v); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// writeError maps service errors to HTTP statuses. notFoundMsg is the
// user-facing message for a missing entity.
func writeError(w http.ResponseWriter, err error, notFoundMsg string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeErrorMsg(w, http.StatusNotFound, notFoundMsg)
	case errors.Is(err, catalog.ErrValidation):
		writeErrorMsg(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, session.ErrSessionClosed):
		writeErrorMsg(w, http.StatusConflict, "Sessie is al gesloten")
	case errors.Is(err, store.ErrConflict):
		writeErrorMsg(w, http.StatusConflict, "conflict, probeer het opnieuw")
	default:
		writeErrorMsg(w, http.StatusInternalServerError, "interne fout")
	}
}
