// Package httpjson writes the JSON bodies every endpoint returns.
// Errors are always {"message": "..."}.
package httpjson

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dalemusser/roomhub/internal/app/system/limits"
	"go.uber.org/zap"
)

// ErrBadBody is returned by Decode for empty or malformed bodies.
var ErrBadBody = errors.New("invalid request body")

// Msg is the body of message-only responses.
type Msg struct {
	Message string `json:"message"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Message writes {"message": msg}.
func Message(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, Msg{Message: msg})
}

// BadRequest writes a 400 with msg.
func BadRequest(w http.ResponseWriter, msg string) {
	Message(w, http.StatusBadRequest, msg)
}

// NotFound writes a 404 with msg.
func NotFound(w http.ResponseWriter, msg string) {
	Message(w, http.StatusNotFound, msg)
}

// Unauthorized writes a 401 with msg.
func Unauthorized(w http.ResponseWriter, msg string) {
	Message(w, http.StatusUnauthorized, msg)
}

// Forbidden writes a 403 with msg.
func Forbidden(w http.ResponseWriter, msg string) {
	Message(w, http.StatusForbidden, msg)
}

// ServerError logs err with the operation name and writes an opaque 500.
func ServerError(w http.ResponseWriter, log *zap.Logger, op string, err error) {
	if log != nil {
		log.Error(op+" failed", zap.String("operation", op), zap.Error(err))
	}
	Message(w, http.StatusInternalServerError, "internal server error")
}

// Decode reads a JSON body into v.
func Decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, limits.MaxJSONBody))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrBadBody, err)
	}
	return nil
}
