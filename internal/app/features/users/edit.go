package users

import (
	"context"
	"errors"
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/roomhub/internal/app/features/errors"
	userstore "github.com/dalemusser/roomhub/internal/app/store/users"
	"github.com/dalemusser/roomhub/internal/app/system/auth"
	"github.com/dalemusser/roomhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/roomhub/internal/app/system/httpjson"
	"github.com/dalemusser/roomhub/internal/app/system/timeouts"
	"github.com/dalemusser/roomhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type createRequest struct {
	Name           string   `json:"name"`
	Email          string   `json:"email"`
	Password       string   `json:"password"`
	Specialization string   `json:"specialization"`
	About          string   `json:"about"`
	Avatar         string   `json:"avatar"`
	Skills         []string `json:"skills"`
}

// HandleCreate handles POST /user.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpjson.Decode(r, &req); err != nil {
		uierrors.Write(w, h.Log, "create user", err)
		return
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" || req.Password == "" {
		httpjson.BadRequest(w, "Missing properties")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		httpjson.ServerError(w, h.Log, "create user: hash password", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.Create(ctx, models.User{
		Name:           req.Name,
		Email:          req.Email,
		PasswordHash:   string(hash),
		Specialization: req.Specialization,
		About:          htmlsanitize.Text(req.About),
		Avatar:         req.Avatar,
		Skills:         req.Skills,
	})
	switch {
	case errors.Is(err, userstore.ErrDuplicateEmail):
		httpjson.BadRequest(w, "User with this email already exists")
		return
	case errors.Is(err, userstore.ErrBadSpecialization):
		httpjson.BadRequest(w, "Invalid specialization")
		return
	case err != nil:
		httpjson.ServerError(w, h.Log, "create user", err)
		return
	}
	httpjson.JSON(w, http.StatusCreated, u.Public())
}

type updateRequest struct {
	Name           *string  `json:"name"`
	Email          *string  `json:"email"`
	Specialization *string  `json:"specialization"`
	About          *string  `json:"about"`
	Skills         []string `json:"skills"`
}

// HandleUpdate handles PUT /user/{id}. Users may only edit themselves.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := uierrors.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	su, _ := auth.CurrentUser(r)
	if su.ObjectID() != id {
		httpjson.Forbidden(w, "You can only update your own profile")
		return
	}

	var req updateRequest
	if err := httpjson.Decode(r, &req); err != nil {
		uierrors.Write(w, h.Log, "update user", err)
		return
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		httpjson.BadRequest(w, "Name cannot be empty")
		return
	}
	if req.Email != nil && strings.TrimSpace(*req.Email) == "" {
		httpjson.BadRequest(w, "Email cannot be empty")
		return
	}

	upd := userstore.ProfileUpdate{
		Name:           req.Name,
		Email:          req.Email,
		Specialization: req.Specialization,
		Skills:         req.Skills,
		SetSkills:      req.Skills != nil,
	}
	if req.About != nil {
		about := htmlsanitize.Text(*req.About)
		upd.About = &about
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.UpdateProfile(ctx, id, upd)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		httpjson.NotFound(w, "User not found")
		return
	case errors.Is(err, userstore.ErrDuplicateEmail):
		httpjson.BadRequest(w, "Email already in use")
		return
	case errors.Is(err, userstore.ErrBadSpecialization):
		httpjson.BadRequest(w, "Invalid specialization")
		return
	case err != nil:
		httpjson.ServerError(w, h.Log, "update user", err)
		return
	}
	httpjson.JSON(w, http.StatusOK, u.Public())
}

// HandleFollow handles PATCH /user/{id}/follow, toggling whether the caller
// follows {id}.
func (h *Handler) HandleFollow(w http.ResponseWriter, r *http.Request) {
	target, ok := uierrors.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	su, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	res, err := h.Membership.FollowUnfollow(ctx, target, su.ObjectID())
	if err != nil {
		uierrors.Write(w, h.Log, "follow user", err)
		return
	}
	if res.Following {
		httpjson.Message(w, http.StatusOK, "User followed")
		return
	}
	httpjson.Message(w, http.StatusOK, "User unfollowed")
}

// HandleDelete handles DELETE /user/{id}. Users may only delete themselves.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := uierrors.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	su, _ := auth.CurrentUser(r)
	if su.ObjectID() != id {
		httpjson.Forbidden(w, "You can only delete your own account")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	n, err := h.Users.Delete(ctx, id)
	if err != nil {
		httpjson.ServerError(w, h.Log, "delete user", err)
		return
	}
	if n == 0 {
		httpjson.NotFound(w, "User not found")
		return
	}
	if err := h.Rooms.RemoveUserEverywhere(ctx, id); err != nil {
		h.Log.Error("delete user: unlink rooms", zap.String("user_id", id.Hex()), zap.Error(err))
	}
	httpjson.Message(w, http.StatusOK, "User deleted")
}
