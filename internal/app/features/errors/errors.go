// internal/app/features/errors/errors.go

// Package errors maps domain errors onto the JSON error responses every
// feature returns, and serves the router's not-found and method-not-allowed
// replies.
package errors

import (
	stderrors "errors"
	"net/http"

	"github.com/dalemusser/roomhub/internal/app/membership"
	"github.com/dalemusser/roomhub/internal/app/system/httpjson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler is the errors feature handler.
type Handler struct{}

// NewHandler constructs an errors Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// NotFound answers unknown routes.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	httpjson.NotFound(w, "Route not found")
}

// MethodNotAllowed answers known routes called with the wrong verb.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	httpjson.Message(w, http.StatusMethodNotAllowed, "Method not allowed")
}

var messages = []struct {
	err error
	msg string
}{
	{membership.ErrRoomNotFound, "Room not found"},
	{membership.ErrUserNotFound, "User not found"},
	{membership.ErrNotificationNotFound, "Notification not found"},
	{membership.ErrAlreadyMember, "User already in room"},
	{membership.ErrAlreadyResolved, "Notification already resolved"},
	{membership.ErrSelfFollow, "You cannot follow yourself"},
	{membership.ErrWrongNotificationType, "Wrong notification type"},
	{membership.ErrInvalidID, "Invalid id"},
	{membership.ErrNotRecipient, "This notification is not addressed to you"},
	{membership.ErrNotContributor, "Only room contributors can send invitations"},
	{httpjson.ErrBadBody, "Invalid request body"},
}

func messageFor(err error, fallback string) string {
	for _, m := range messages {
		if stderrors.Is(err, m.err) {
			return m.msg
		}
	}
	return fallback
}

// Write maps err to a status and message:
// not found → 404, conflict and validation → 400, forbidden → 403, and
// anything else → an opaque 500 logged under op.
func Write(w http.ResponseWriter, log *zap.Logger, op string, err error) {
	switch {
	case stderrors.Is(err, membership.ErrNotFound):
		httpjson.NotFound(w, messageFor(err, "Not found"))
	case stderrors.Is(err, membership.ErrConflict),
		stderrors.Is(err, membership.ErrValidation),
		stderrors.Is(err, httpjson.ErrBadBody):
		httpjson.BadRequest(w, messageFor(err, "Bad request"))
	case stderrors.Is(err, membership.ErrForbidden):
		httpjson.Forbidden(w, messageFor(err, "Forbidden"))
	default:
		httpjson.ServerError(w, log, op, err)
	}
}

// ParseID parses a path or body id, writing a 400 and returning false when
// it is malformed.
func ParseID(w http.ResponseWriter, s string) (primitive.ObjectID, bool) {
	id, err := membership.ParseID(s)
	if err != nil {
		httpjson.BadRequest(w, messageFor(err, "Invalid id"))
		return primitive.NilObjectID, false
	}
	return id, true
}
