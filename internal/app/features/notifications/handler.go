// internal/app/features/notifications/handler.go
package notifications

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/roomhub/internal/app/features/errors"
	"github.com/dalemusser/roomhub/internal/app/membership"
	notificationstore "github.com/dalemusser/roomhub/internal/app/store/notifications"
	roomstore "github.com/dalemusser/roomhub/internal/app/store/rooms"
	userstore "github.com/dalemusser/roomhub/internal/app/store/users"
	"github.com/dalemusser/roomhub/internal/app/system/auth"
	"github.com/dalemusser/roomhub/internal/app/system/httpjson"
	"github.com/dalemusser/roomhub/internal/app/system/timeouts"
	"github.com/dalemusser/roomhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Notifications *notificationstore.Store
	Users         *userstore.Store
	Rooms         *roomstore.Store
	Membership    *membership.Service
	Log           *zap.Logger
}

func NewHandler(db *mongo.Database, svc *membership.Service, logger *zap.Logger) *Handler {
	return &Handler{
		Notifications: notificationstore.New(db),
		Users:         userstore.New(db),
		Rooms:         roomstore.New(db),
		Membership:    svc,
		Log:           logger,
	}
}

// ServeInbox handles GET /notification: the caller's notifications newest
// first with users and rooms populated. Listing marks them all read.
func (h *Handler) ServeInbox(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.CurrentUser(r)
	me := su.ObjectID()

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	ns, err := h.Notifications.ListForRecipient(ctx, me)
	if err != nil {
		httpjson.ServerError(w, h.Log, "list notifications", err)
		return
	}
	userIDs, roomIDs := models.NotificationRefs(ns)
	users, err := h.Users.Summaries(ctx, userIDs)
	if err != nil {
		httpjson.ServerError(w, h.Log, "list notifications: load users", err)
		return
	}
	rooms, err := h.Rooms.Summaries(ctx, roomIDs)
	if err != nil {
		httpjson.ServerError(w, h.Log, "list notifications: load rooms", err)
		return
	}

	if _, err := h.Notifications.MarkAllRead(ctx, me); err != nil {
		h.Log.Warn("mark notifications read", zap.String("user_id", me.Hex()), zap.Error(err))
	}
	httpjson.JSON(w, http.StatusOK, models.NotificationViews(ns, users, rooms))
}

// ServeUnread handles GET /notification/unread and replies with a bare count.
func (h *Handler) ServeUnread(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	n, err := h.Notifications.CountUnread(ctx, su.ObjectID())
	if err != nil {
		httpjson.ServerError(w, h.Log, "count unread notifications", err)
		return
	}
	httpjson.JSON(w, http.StatusOK, n)
}

// HandleSendInvitation handles POST /notification/sendInvitation {to,roomId}.
func (h *Handler) HandleSendInvitation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		To     string `json:"to"`
		RoomID string `json:"roomId"`
	}
	if err := httpjson.Decode(r, &req); err != nil {
		uierrors.Write(w, h.Log, "send invitation", err)
		return
	}
	if req.To == "" || req.RoomID == "" {
		httpjson.BadRequest(w, "Missing properties")
		return
	}
	to, ok := uierrors.ParseID(w, req.To)
	if !ok {
		return
	}
	roomID, ok := uierrors.ParseID(w, req.RoomID)
	if !ok {
		return
	}
	su, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	n, err := h.Membership.SendInvitation(ctx, roomID, to, su.ObjectID())
	if err != nil {
		uierrors.Write(w, h.Log, "send invitation", err)
		return
	}
	httpjson.JSON(w, http.StatusCreated, n)
}

// HandleSendRequest handles POST /notification/sendRequest {roomId}.
func (h *Handler) HandleSendRequest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RoomID string `json:"roomId"`
	}
	if err := httpjson.Decode(r, &req); err != nil {
		uierrors.Write(w, h.Log, "send request", err)
		return
	}
	if req.RoomID == "" {
		httpjson.BadRequest(w, "Missing properties")
		return
	}
	roomID, ok := uierrors.ParseID(w, req.RoomID)
	if !ok {
		return
	}
	su, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	if _, err := h.Membership.SendRequest(ctx, roomID, su.ObjectID()); err != nil {
		uierrors.Write(w, h.Log, "send request", err)
		return
	}
	httpjson.Message(w, http.StatusCreated, "Request sent")
}

type resolveFunc func(ctx context.Context, notificationID, actorID primitive.ObjectID) error

// resolve builds a PUT /notification/{id}/<action> handler.
func (h *Handler) resolve(op, done string, fn resolveFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := uierrors.ParseID(w, chi.URLParam(r, "id"))
		if !ok {
			return
		}
		su, _ := auth.CurrentUser(r)

		ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
		defer cancel()

		if err := fn(ctx, id, su.ObjectID()); err != nil {
			uierrors.Write(w, h.Log, op, err)
			return
		}
		httpjson.Message(w, http.StatusOK, done)
	}
}

func (h *Handler) HandleAcceptInvitation() http.HandlerFunc {
	return h.resolve("accept invitation", "Invitation accepted", h.Membership.AcceptInvitation)
}

func (h *Handler) HandleRejectInvitation() http.HandlerFunc {
	return h.resolve("reject invitation", "Invitation rejected", h.Membership.RejectInvitation)
}

func (h *Handler) HandleAcceptRequest() http.HandlerFunc {
	return h.resolve("accept request", "Request accepted", h.Membership.AcceptRequest)
}

func (h *Handler) HandleRejectRequest() http.HandlerFunc {
	return h.resolve("reject request", "Request rejected", h.Membership.RejectRequest)
}
