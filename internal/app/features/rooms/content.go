package rooms

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	uierrors "github.com/dalemusser/roomhub/internal/app/features/errors"
	roomstore "github.com/dalemusser/roomhub/internal/app/store/rooms"
	"github.com/dalemusser/roomhub/internal/app/system/auth"
	"github.com/dalemusser/roomhub/internal/app/system/filestore"
	"github.com/dalemusser/roomhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/roomhub/internal/app/system/httpjson"
	"github.com/dalemusser/roomhub/internal/app/system/limits"
	"github.com/dalemusser/roomhub/internal/app/system/timeouts"
	"github.com/dalemusser/roomhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// writeContentErr maps the room content errors shared by the write handlers.
func (h *Handler) writeContentErr(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		httpjson.NotFound(w, "Room not found")
	case errors.Is(err, roomstore.ErrLinkNotFound):
		httpjson.NotFound(w, "Link not found")
	case errors.Is(err, roomstore.ErrTaskNotFound):
		httpjson.NotFound(w, "Task not found")
	case errors.Is(err, roomstore.ErrBadTaskStatus):
		httpjson.BadRequest(w, "Invalid task status")
	default:
		httpjson.ServerError(w, h.Log, op, err)
	}
}

// HandleMessage handles POST /room/{id}/message.
func (h *Handler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	roomID, ok := uierrors.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	var req struct {
		Body string `json:"body"`
	}
	if err := httpjson.Decode(r, &req); err != nil {
		uierrors.Write(w, h.Log, "send message", err)
		return
	}
	body := strings.TrimSpace(htmlsanitize.Sanitize(req.Body))
	if body == "" {
		httpjson.BadRequest(w, "Missing message body")
		return
	}
	su, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	m, err := h.Rooms.AddMessage(ctx, roomID, su.ObjectID(), body)
	if err != nil {
		h.writeContentErr(w, "send message", err)
		return
	}
	httpjson.JSON(w, http.StatusOK, m)
}

// validLink accepts absolute https URLs only.
func validLink(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.Scheme == "https" && u.Host != ""
}

// HandleCreateLink handles POST /room/{id}/link.
func (h *Handler) HandleCreateLink(w http.ResponseWriter, r *http.Request) {
	roomID, ok := uierrors.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	var req struct {
		Name string `json:"name"`
		Link string `json:"link"`
	}
	if err := httpjson.Decode(r, &req); err != nil {
		uierrors.Write(w, h.Log, "create link", err)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Link = strings.TrimSpace(req.Link)
	if req.Name == "" || req.Link == "" {
		httpjson.BadRequest(w, "Missing properties")
		return
	}
	if !validLink(req.Link) {
		httpjson.BadRequest(w, "Invalid link format")
		return
	}
	su, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	l, err := h.Rooms.AddLink(ctx, roomID, htmlsanitize.Text(req.Name), req.Link)
	if err != nil {
		h.writeContentErr(w, "create link", err)
		return
	}
	h.record(ctx, models.ActivityCreateLink, su.ObjectID(), roomID)
	httpjson.JSON(w, http.StatusCreated, l)
}

// HandleDeleteLink handles DELETE /room/{id}/link with body {linkId}.
func (h *Handler) HandleDeleteLink(w http.ResponseWriter, r *http.Request) {
	roomID, ok := uierrors.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	var req struct {
		LinkID string `json:"linkId"`
	}
	if err := httpjson.Decode(r, &req); err != nil {
		uierrors.Write(w, h.Log, "delete link", err)
		return
	}
	linkID, ok := uierrors.ParseID(w, req.LinkID)
	if !ok {
		return
	}
	su, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Rooms.DeleteLink(ctx, roomID, linkID); err != nil {
		h.writeContentErr(w, "delete link", err)
		return
	}
	h.record(ctx, models.ActivityDeleteLink, su.ObjectID(), roomID)
	httpjson.Message(w, http.StatusOK, "Link deleted")
}

type taskRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	AssignedTo  string     `json:"assignedTo"`
	Deadline    *time.Time `json:"deadline"`
	Status      string     `json:"status"`
}

// HandleCreateTask handles POST /room/{id}/task. The assignee must exist.
func (h *Handler) HandleCreateTask(w http.ResponseWriter, r *http.Request) {
	roomID, ok := uierrors.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	var req taskRequest
	if err := httpjson.Decode(r, &req); err != nil {
		uierrors.Write(w, h.Log, "create task", err)
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		httpjson.BadRequest(w, "Title is required")
		return
	}
	su, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	assignee, err := primitive.ObjectIDFromHex(req.AssignedTo)
	if err != nil {
		httpjson.NotFound(w, "Assignee not found")
		return
	}
	if _, err := h.Users.GetByID(ctx, assignee); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.NotFound(w, "Assignee not found")
			return
		}
		httpjson.ServerError(w, h.Log, "create task: load assignee", err)
		return
	}

	t, err := h.Rooms.AddTask(ctx, roomID, models.Task{
		Title:       strings.TrimSpace(req.Title),
		Description: htmlsanitize.Text(req.Description),
		AssignedTo:  assignee,
		Deadline:    req.Deadline,
		Status:      req.Status,
	})
	if err != nil {
		h.writeContentErr(w, "create task", err)
		return
	}
	h.record(ctx, models.ActivityCreateTask, su.ObjectID(), roomID)
	httpjson.JSON(w, http.StatusCreated, t)
}

// HandleTaskStatus handles PATCH /room/{id}/task with body {taskId,status}.
func (h *Handler) HandleTaskStatus(w http.ResponseWriter, r *http.Request) {
	roomID, ok := uierrors.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	var req struct {
		TaskID string `json:"taskId"`
		Status string `json:"status"`
	}
	if err := httpjson.Decode(r, &req); err != nil {
		uierrors.Write(w, h.Log, "update task", err)
		return
	}
	if req.TaskID == "" || req.Status == "" {
		httpjson.BadRequest(w, "Missing properties")
		return
	}
	taskID, ok := uierrors.ParseID(w, req.TaskID)
	if !ok {
		return
	}
	su, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	t, err := h.Rooms.SetTaskStatus(ctx, roomID, taskID, req.Status)
	if err != nil {
		h.writeContentErr(w, "update task", err)
		return
	}
	h.record(ctx, models.ActivityUpdateTaskStatus, su.ObjectID(), roomID)
	httpjson.JSON(w, http.StatusOK, t)
}

// HandleUpload handles POST /room/{id}/file as multipart form field "file".
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if h.Files == nil {
		httpjson.JSON(w, http.StatusServiceUnavailable, httpjson.Msg{Message: "File storage is not configured"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	room, ok := h.loadRoom(ctx, w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxUpload)
	if err := r.ParseMultipartForm(limits.MaxUpload); err != nil {
		httpjson.BadRequest(w, "No file provided")
		return
	}
	f, hdr, err := r.FormFile("file")
	if err != nil {
		httpjson.BadRequest(w, "No file provided")
		return
	}
	defer f.Close()

	info, err := filestore.Upload(ctx, h.Files, room.ID.Hex(), hdr.Filename, f, hdr.Size, hdr.Header.Get("Content-Type"))
	if errors.Is(err, filestore.ErrEmptyFile) {
		httpjson.BadRequest(w, "No file provided")
		return
	}
	if err != nil {
		httpjson.ServerError(w, h.Log, "upload file", err)
		return
	}

	su, _ := auth.CurrentUser(r)
	file, err := h.Rooms.AddFile(ctx, room.ID, su.ObjectID(), info.URL)
	if err != nil {
		h.writeContentErr(w, "upload file", err)
		return
	}
	h.record(ctx, models.ActivityUploadFile, su.ObjectID(), room.ID)
	httpjson.JSON(w, http.StatusOK, file)
}
