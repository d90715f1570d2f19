package rooms

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/roomhub/internal/app/features/errors"
	roomstore "github.com/dalemusser/roomhub/internal/app/store/rooms"
	"github.com/dalemusser/roomhub/internal/app/system/auth"
	"github.com/dalemusser/roomhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/roomhub/internal/app/system/httpjson"
	"github.com/dalemusser/roomhub/internal/app/system/timeouts"
	"github.com/dalemusser/roomhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// record appends an activity. A failed append is logged; the write it
// describes has already happened.
func (h *Handler) record(ctx context.Context, title models.ActivityTitle, user, room primitive.ObjectID) {
	if err := h.Activities.Record(ctx, title, user, room); err != nil {
		h.Log.Warn("record activity",
			zap.String("title", string(title)),
			zap.String("room_id", room.Hex()),
			zap.Error(err))
	}
}

type createRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image"`
	Topic       string `json:"topic"`
	Type        string `json:"type"`
}

// HandleCreate handles POST /room. The caller becomes admin and first
// contributor.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpjson.Decode(r, &req); err != nil {
		uierrors.Write(w, h.Log, "create room", err)
		return
	}
	if req.Title == "" {
		httpjson.BadRequest(w, "Missing properties")
		return
	}
	su, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	me, err := h.Users.GetByID(ctx, su.ObjectID())
	if errors.Is(err, mongo.ErrNoDocuments) {
		httpjson.NotFound(w, "User not found")
		return
	}
	if err != nil {
		httpjson.ServerError(w, h.Log, "create room: load creator", err)
		return
	}

	room, err := h.Rooms.Create(ctx, models.Room{
		Title:       req.Title,
		Description: htmlsanitize.Text(req.Description),
		Image:       req.Image,
		Topic:       req.Topic,
		Type:        req.Type,
		Admin:       me.ID,
	})
	switch {
	case errors.Is(err, roomstore.ErrDuplicateTitle):
		httpjson.BadRequest(w, "Room with this name already exists")
		return
	case errors.Is(err, roomstore.ErrTitleRequired):
		httpjson.BadRequest(w, "Missing properties")
		return
	case errors.Is(err, roomstore.ErrBadTopic):
		httpjson.BadRequest(w, "Invalid topic")
		return
	case errors.Is(err, roomstore.ErrBadType):
		httpjson.BadRequest(w, "Invalid room type")
		return
	case err != nil:
		httpjson.ServerError(w, h.Log, "create room", err)
		return
	}

	if err := h.Users.AddRoom(ctx, me.ID, room.ID); err != nil {
		httpjson.ServerError(w, h.Log, "create room: link creator", err)
		return
	}
	h.record(ctx, models.ActivityCreateRoom, me.ID, room.ID)
	h.Search.IndexRoom(ctx, room)

	h.Log.Info("room created",
		zap.String("room_id", room.ID.Hex()),
		zap.String("admin_id", me.ID.Hex()))
	httpjson.JSON(w, http.StatusCreated, room)
}

// HandleDelete handles DELETE /room/{id}. Only the admin may delete a room.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	room, ok := h.loadRoom(ctx, w, r)
	if !ok {
		return
	}
	su, _ := auth.CurrentUser(r)
	if room.Admin != su.ObjectID() {
		httpjson.Forbidden(w, "Only the room admin can delete this room")
		return
	}

	if _, err := h.Rooms.Delete(ctx, room.ID); err != nil {
		httpjson.ServerError(w, h.Log, "delete room", err)
		return
	}
	if err := h.Users.RemoveRoomEverywhere(ctx, room.ID); err != nil {
		h.Log.Error("delete room: unlink users", zap.String("room_id", room.ID.Hex()), zap.Error(err))
	}
	if err := h.Notifications.DeleteForRoom(ctx, room.ID); err != nil {
		h.Log.Error("delete room: drop notifications", zap.String("room_id", room.ID.Hex()), zap.Error(err))
	}
	h.Search.DeleteRoom(ctx, room.ID)

	httpjson.Message(w, http.StatusOK, "Room deleted")
}

// HandleJoin handles POST /room/{id}/join, toggling the caller's membership.
func (h *Handler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	roomID, ok := uierrors.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	su, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	res, err := h.Membership.JoinLeaveRoom(ctx, roomID, su.ObjectID())
	if err != nil {
		uierrors.Write(w, h.Log, "join room", err)
		return
	}
	httpjson.JSON(w, http.StatusOK, res.Contributors)
}
