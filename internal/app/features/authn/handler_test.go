package authn_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/roomhub/internal/app/features/authn"
	"github.com/dalemusser/roomhub/internal/app/system/httpjson"
	"github.com/dalemusser/roomhub/internal/app/system/ratelimit"
	"github.com/dalemusser/roomhub/internal/domain/models"
	"github.com/dalemusser/roomhub/internal/testutil"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T, limiter *ratelimit.LoginLimiter) *authn.Handler {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return authn.NewHandler(db, testutil.NewSessionManager(t, nil), limiter, zap.NewNop())
}

func signup(t *testing.T, h *authn.Handler, body map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.HandleSignup(rec, testutil.NewJSONRequest(http.MethodPost, "/auth/signup", body))
	return rec
}

func validSignup(email string) map[string]string {
	return map[string]string{
		"name":            "Grace Hopper",
		"email":           email,
		"password":        "cobol-rules",
		"confirmPassword": "cobol-rules",
	}
}

func TestHandleSignup_Success(t *testing.T) {
	h := newTestHandler(t, nil)

	rec := signup(t, h, validSignup("Grace@Example.com"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "roomhub_token" {
			cookie = c
		}
	}
	if cookie == nil || cookie.Value == "" || !cookie.HttpOnly {
		t.Fatalf("expected HttpOnly auth cookie, got %+v", cookie)
	}

	var u models.PublicUser
	if err := testutil.DecodeJSON(rec, &u); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if u.Email != "grace@example.com" || u.Specialization != models.SpecGuest || u.Avatar != models.DefaultAvatar {
		t.Errorf("unexpected user %+v", u)
	}
}

func TestHandleSignup_Validation(t *testing.T) {
	h := newTestHandler(t, nil)

	if rec := signup(t, h, validSignup("dup@example.com")); rec.Code != http.StatusCreated {
		t.Fatalf("seed signup failed: %d", rec.Code)
	}

	mismatch := validSignup("other@example.com")
	mismatch["confirmPassword"] = "nope"
	missing := validSignup("missing@example.com")
	delete(missing, "name")

	tests := []struct {
		name    string
		body    map[string]string
		wantMsg string
	}{
		{"missing field", missing, "Missing properties"},
		{"password mismatch", mismatch, "Passwords do not match"},
		{"duplicate email", validSignup("DUP@example.com"), "User with this email already exists"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := signup(t, h, tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
			var msg httpjson.Msg
			_ = testutil.DecodeJSON(rec, &msg)
			if msg.Message != tt.wantMsg {
				t.Errorf("message = %q, want %q", msg.Message, tt.wantMsg)
			}
		})
	}
}

func TestHandleLogin(t *testing.T) {
	h := newTestHandler(t, nil)
	if rec := signup(t, h, validSignup("ada@example.com")); rec.Code != http.StatusCreated {
		t.Fatalf("seed signup failed: %d", rec.Code)
	}

	tests := []struct {
		name     string
		email    string
		password string
		wantCode int
	}{
		{"success", "ada@example.com", "cobol-rules", http.StatusOK},
		{"wrong password", "ada@example.com", "fortran", http.StatusUnauthorized},
		{"unknown user", "nobody@example.com", "cobol-rules", http.StatusNotFound},
		{"missing password", "ada@example.com", "", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.HandleLogin(rec, testutil.NewJSONRequest(http.MethodPost, "/auth/login",
				map[string]string{"email": tt.email, "password": tt.password}))
			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
		})
	}
}

func TestHandleLogin_RateLimited(t *testing.T) {
	limiter := ratelimit.NewLoginLimiter(2, time.Minute)
	defer limiter.Close()
	h := newTestHandler(t, limiter)

	var last int
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.HandleLogin(rec, testutil.NewJSONRequest(http.MethodPost, "/auth/login",
			map[string]string{"email": "ghost@example.com", "password": "x"}))
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("third attempt status = %d, want 429", last)
	}
}

func TestRoutes_GetMeRequiresToken(t *testing.T) {
	db := testutil.SetupTestDB(t)
	sm := testutil.NewSessionManager(t, nil)
	h := authn.NewHandler(db, sm, nil, zap.NewNop())
	router := sm.LoadSessionUser(authn.Routes(h, sm))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, testutil.NewRequest(http.MethodGet, "/getMe"))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}

	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	u := fixtures.CreateUser(ctx, "Linus", "linus@example.com")

	rec = httptest.NewRecorder()
	h.ServeMe(rec, testutil.WithUser(testutil.NewRequest(http.MethodGet, "/getMe"), u))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got models.PublicUser
	if err := testutil.DecodeJSON(rec, &got); err != nil || got.ID != u.ID {
		t.Errorf("getMe = %+v, %v", got, err)
	}
}

func TestHandleLogout(t *testing.T) {
	h := newTestHandler(t, nil)
	rec := httptest.NewRecorder()
	h.HandleLogout(rec, testutil.NewRequest(http.MethodPost, "/auth/logout"))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge >= 0 {
		t.Errorf("expected a deletion cookie, got %+v", cookies)
	}
}
