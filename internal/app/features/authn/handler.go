// internal/app/features/authn/handler.go
package authn

import (
	"context"
	"errors"
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/roomhub/internal/app/features/errors"
	userstore "github.com/dalemusser/roomhub/internal/app/store/users"
	"github.com/dalemusser/roomhub/internal/app/system/auth"
	"github.com/dalemusser/roomhub/internal/app/system/httpjson"
	"github.com/dalemusser/roomhub/internal/app/system/ratelimit"
	"github.com/dalemusser/roomhub/internal/app/system/timeouts"
	"github.com/dalemusser/roomhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type Handler struct {
	Users      *userstore.Store
	SessionMgr *auth.SessionManager
	Limiter    *ratelimit.LoginLimiter // nil disables throttling
	Log        *zap.Logger
}

func NewHandler(db *mongo.Database, sessionMgr *auth.SessionManager, limiter *ratelimit.LoginLimiter, logger *zap.Logger) *Handler {
	return &Handler{
		Users:      userstore.New(db),
		SessionMgr: sessionMgr,
		Limiter:    limiter,
		Log:        logger,
	}
}

type signupRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleSignup handles POST /auth/signup.
func (h *Handler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := httpjson.Decode(r, &req); err != nil {
		uierrors.Write(w, h.Log, "signup", err)
		return
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" ||
		req.Password == "" || req.ConfirmPassword == "" {
		httpjson.BadRequest(w, "Missing properties")
		return
	}
	if req.Password != req.ConfirmPassword {
		httpjson.BadRequest(w, "Passwords do not match")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		httpjson.ServerError(w, h.Log, "signup: hash password", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.Create(ctx, models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
	})
	if errors.Is(err, userstore.ErrDuplicateEmail) {
		httpjson.BadRequest(w, "User with this email already exists")
		return
	}
	if err != nil {
		httpjson.ServerError(w, h.Log, "signup: create user", err)
		return
	}

	if err := h.SessionMgr.SignIn(w, &u); err != nil {
		httpjson.ServerError(w, h.Log, "signup: sign in", err)
		return
	}
	h.Log.Info("user signed up", zap.String("user_id", u.ID.Hex()))
	httpjson.JSON(w, http.StatusCreated, u.Public())
}

// HandleLogin handles POST /auth/login.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpjson.Decode(r, &req); err != nil {
		uierrors.Write(w, h.Log, "login", err)
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		httpjson.BadRequest(w, "Missing properties")
		return
	}

	if h.Limiter != nil {
		if ok, reason := h.Limiter.Check(r, req.Email); !ok {
			h.Log.Warn("login rate limited",
				zap.String("ip", ratelimit.ClientIP(r)),
				zap.String("email", req.Email))
			httpjson.Message(w, http.StatusTooManyRequests, reason)
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if errors.Is(err, mongo.ErrNoDocuments) {
		httpjson.NotFound(w, "User not found")
		return
	}
	if err != nil {
		httpjson.ServerError(w, h.Log, "login: load user", err)
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		httpjson.Unauthorized(w, "Invalid credentials")
		return
	}
	if h.Limiter != nil {
		h.Limiter.Succeeded(req.Email)
	}

	if err := h.SessionMgr.SignIn(w, u); err != nil {
		httpjson.ServerError(w, h.Log, "login: sign in", err)
		return
	}
	httpjson.JSON(w, http.StatusOK, u.Public())
}

// ServeMe handles GET /auth/getMe.
func (h *Handler) ServeMe(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByID(ctx, su.ObjectID())
	if errors.Is(err, mongo.ErrNoDocuments) {
		httpjson.NotFound(w, "User not found")
		return
	}
	if err != nil {
		httpjson.ServerError(w, h.Log, "getMe", err)
		return
	}
	httpjson.JSON(w, http.StatusOK, u.Public())
}

// HandleLogout handles POST /auth/logout.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.SessionMgr.SignOut(w, r); err != nil {
		// The cookie is already cleared; a failed revocation only means the
		// token stays valid until it expires.
		h.Log.Warn("logout: revoke token", zap.Error(err))
	}
	httpjson.Message(w, http.StatusOK, "Logged out")
}
