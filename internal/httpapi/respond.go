package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/acksell/storefront/dynamo"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// errorEnvelope is the uniform error body. requestId comes from the
// gateway, invocationId is fresh per request; together they tie a client
// report to the logs.
type errorEnvelope struct {
	Message      string `json:"message"`
	RequestID    string `json:"requestId"`
	InvocationID string `json:"invocationId"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	// The status line is already out; an encode failure here can only be
	// a broken connection.
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, status, errorEnvelope{
		Message:      message,
		RequestID:    requestIDFrom(r.Context()),
		InvocationID: invocationIDFrom(r.Context()),
	})
}

// writeStoreError maps the storage sentinels: a missing item or a failed
// existence condition both read as "not found" to the client.
func writeStoreError(w http.ResponseWriter, r *http.Request, err error, notFoundMsg string) {
	switch {
	case errors.Is(err, dynamo.ErrNotFound), errors.Is(err, dynamo.ErrConditionFailed):
		writeError(w, r, http.StatusNotFound, notFoundMsg)
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("request failed")
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

// writeValidationError turns validator field errors into a 422 naming the
// offending fields.
func writeValidationError(w http.ResponseWriter, r *http.Request, err error) {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		msg := "validation failed:"
		for _, fe := range fieldErrs {
			msg += " " + fe.Field() + " (" + fe.Tag() + ")"
		}
		writeError(w, r, http.StatusUnprocessableEntity, msg)
		return
	}
	writeError(w, r, http.StatusUnprocessableEntity, "validation failed: "+err.Error())
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, r, http.StatusBadRequest, "malformed request body")
		return false
	}
	return true
}
