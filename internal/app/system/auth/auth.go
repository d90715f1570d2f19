package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/roomhub/internal/app/system/httpjson"
	"github.com/dalemusser/roomhub/internal/domain/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Collaborators                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

// Revoker remembers signed-out token ids until they expire.
type Revoker interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// UserFetcher loads the account a token names.
type UserFetcher interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Current-User helper                                                         |
*─────────────────────────────────────────────────────────────────────────────*/

// SessionUser is the authenticated caller injected into r.Context().
type SessionUser struct {
	ID        string
	Name      string
	Email     string
	TokenID   string
	ExpiresAt time.Time
}

// ObjectID parses ID.
func (u *SessionUser) ObjectID() primitive.ObjectID {
	oid, _ := primitive.ObjectIDFromHex(u.ID)
	return oid
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the user and a "found?" flag.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok
}

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

// WithTestUser injects u directly, bypassing the cookie. Handler tests use it.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Session manager                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

// ErrInvalidToken covers malformed, expired, wrongly signed and revoked tokens.
var ErrInvalidToken = errors.New("invalid token")

// MinSecretLen is the shortest accepted signing secret.
const MinSecretLen = 32

type claims struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// SessionManager issues and verifies the signed auth cookie.
type SessionManager struct {
	secret     []byte
	cookieName string
	ttl        time.Duration
	secure     bool
	users      UserFetcher
	revoker    Revoker
	log        *zap.Logger
	now        func() time.Time
}

// NewSessionManager builds a manager signing HS256 tokens with secret.
// users and revoker are optional.
func NewSessionManager(secret, cookieName string, ttl time.Duration, secure bool, users UserFetcher, revoker Revoker, logger *zap.Logger) (*SessionManager, error) {
	if len(secret) < MinSecretLen {
		return nil, fmt.Errorf("jwt secret must be at least %d bytes", MinSecretLen)
	}
	if cookieName == "" {
		return nil, errors.New("cookie name is required")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionManager{
		secret:     []byte(secret),
		cookieName: cookieName,
		ttl:        ttl,
		secure:     secure,
		users:      users,
		revoker:    revoker,
		log:        logger,
		now:        time.Now,
	}, nil
}

// CookieName returns the configured cookie name.
func (sm *SessionManager) CookieName() string { return sm.cookieName }

// Issue signs a token for u and returns it with its id and expiry.
func (sm *SessionManager) Issue(u *models.User) (token string, su *SessionUser, err error) {
	now := sm.now()
	c := claims{
		Name:  u.Name,
		Email: u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   u.ID.Hex(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(sm.ttl)),
		},
	}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(sm.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return token, sessionUserFrom(&c), nil
}

// Parse verifies token and returns the identity it carries. It does not
// consult the revocation store.
func (sm *SessionManager) Parse(token string) (*SessionUser, error) {
	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(*jwt.Token) (any, error) {
		return sm.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(sm.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if _, err := primitive.ObjectIDFromHex(c.Subject); err != nil {
		return nil, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	return sessionUserFrom(&c), nil
}

func sessionUserFrom(c *claims) *SessionUser {
	su := &SessionUser{ID: c.Subject, Name: c.Name, Email: c.Email, TokenID: c.ID}
	if c.ExpiresAt != nil {
		su.ExpiresAt = c.ExpiresAt.Time
	}
	return su
}

// SignIn issues a token for u and sets it as an HttpOnly, SameSite=Strict
// cookie.
func (sm *SessionManager) SignIn(w http.ResponseWriter, u *models.User) error {
	token, su, err := sm.Issue(u)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sm.cookieName,
		Value:    token,
		Path:     "/",
		Expires:  su.ExpiresAt,
		MaxAge:   int(sm.ttl.Seconds()),
		HttpOnly: true,
		Secure:   sm.secure,
		SameSite: http.SameSiteStrictMode,
	})
	return nil
}

// SignOut clears the cookie and, when a revocation store is configured,
// revokes the token the request carried.
func (sm *SessionManager) SignOut(w http.ResponseWriter, r *http.Request) error {
	http.SetCookie(w, &http.Cookie{
		Name:     sm.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   sm.secure,
		SameSite: http.SameSiteStrictMode,
	})

	if sm.revoker == nil {
		return nil
	}
	u, ok := CurrentUser(r)
	if !ok {
		tok := sm.tokenFrom(r)
		if tok == "" {
			return nil
		}
		if u, _ = sm.Parse(tok); u == nil {
			return nil
		}
	}
	if u.TokenID == "" {
		return nil
	}
	return sm.revoker.Revoke(r.Context(), u.TokenID, u.ExpiresAt)
}

// tokenFrom reads the cookie, then an Authorization: Bearer header.
func (sm *SessionManager) tokenFrom(r *http.Request) string {
	if c, err := r.Cookie(sm.cookieName); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); h != "" {
		if tok, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(tok)
		}
	}
	return ""
}

// authenticate resolves the caller from r. A nil user with a nil error
// means there is no usable credential.
func (sm *SessionManager) authenticate(r *http.Request) (*SessionUser, error) {
	tok := sm.tokenFrom(r)
	if tok == "" {
		return nil, nil
	}
	su, err := sm.Parse(tok)
	if err != nil {
		sm.log.Debug("rejecting auth token", zap.Error(err))
		return nil, nil
	}

	if sm.revoker != nil {
		revoked, err := sm.revoker.IsRevoked(r.Context(), su.TokenID)
		if err != nil {
			return nil, err
		}
		if revoked {
			return nil, nil
		}
	}

	if sm.users != nil {
		u, err := sm.users.GetByID(r.Context(), su.ObjectID())
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		su.Name = u.Name
		su.Email = u.Email
	}
	return su, nil
}

// LoadSessionUser injects the user into context when the request carries
// a valid, unrevoked token for an existing account.
func (sm *SessionManager) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		su, err := sm.authenticate(r)
		if err != nil {
			httpjson.ServerError(w, sm.log, "authenticate", err)
			return
		}
		if su != nil {
			r = withUser(r, su)
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSignedIn answers 401 unless LoadSessionUser found a user.
func (sm *SessionManager) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); !ok {
			msg := "Missing Token"
			if sm.tokenFrom(r) != "" {
				msg = "Invalid Token"
			}
			httpjson.Unauthorized(w, msg)
			return
		}
		next.ServeHTTP(w, r)
	})
}
