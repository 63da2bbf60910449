// Package handlers contains the HTTP handlers for the API surface.  Handlers
// decode and validate transport concerns only; all domain logic lives in the
// application services they delegate to.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/interfaces/http/middleware"
	"github.com/faisalsajibwp/fiverr-chat-buddy/pkg/errors"
	"github.com/faisalsajibwp/fiverr-chat-buddy/pkg/types/common"
)

// ownerFromRequest extracts the authenticated owner set by the auth
// middleware.
func ownerFromRequest(r *http.Request) common.OwnerID {
	return middleware.ContextOwnerID(r.Context())
}

// queryInt parses an integer query parameter, returning def when absent or
// unparsable.
func queryInt(r *http.Request, name string, def int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

// decodeJSON reads the request body into dst, rejecting unknown fields.
func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.Wrap(err, errors.CodeInvalidParam, "invalid request body")
	}
	return nil
}

// errorBody is the standard error response shape.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// writeAppError maps application errors to HTTP statuses via their error
// code.  Internal details are masked.
func writeAppError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	status := code.HTTPStatus()
	message := errors.GetMessage(err)
	if status >= http.StatusInternalServerError {
		message = "internal server error"
	}
	writeJSON(w, status, errorBody{Code: code.String(), Message: message})
}

func writeUnauthorized(w http.ResponseWriter) {
	writeJSON(w, http.StatusUnauthorized, errorBody{Code: "unauthorized", Message: "missing identity"})
}
