package membership

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error classes. Every specific error below wraps exactly one of them so
// callers can map by class with errors.Is.
var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrValidation = errors.New("invalid request")
	ErrForbidden  = errors.New("forbidden")
)

var (
	ErrRoomNotFound         = fmt.Errorf("room %w", ErrNotFound)
	ErrUserNotFound         = fmt.Errorf("user %w", ErrNotFound)
	ErrNotificationNotFound = fmt.Errorf("notification %w", ErrNotFound)

	ErrAlreadyMember   = fmt.Errorf("%w: user is already in the room", ErrConflict)
	ErrAlreadyResolved = fmt.Errorf("%w: notification already resolved", ErrConflict)

	ErrSelfFollow            = fmt.Errorf("%w: you cannot follow yourself", ErrValidation)
	ErrWrongNotificationType = fmt.Errorf("%w: wrong notification type", ErrValidation)
	ErrInvalidID             = fmt.Errorf("%w: malformed id", ErrValidation)

	ErrNotRecipient   = fmt.Errorf("%w: notification is addressed to another user", ErrForbidden)
	ErrNotContributor = fmt.Errorf("%w: only room contributors can invite", ErrForbidden)
)

// ParseID parses a hex object id, returning ErrInvalidID when malformed.
func ParseID(s string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidID
	}
	return id, nil
}

// outcome classifies err for the transitions metric.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrValidation):
		return "invalid"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	default:
		return "error"
	}
}
