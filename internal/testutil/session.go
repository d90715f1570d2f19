package testutil

import (
	"testing"
	"time"

	"github.com/dalemusser/roomhub/internal/app/system/auth"
	"go.uber.org/zap"
)

// TestJWTSecret signs tokens in handler tests.
const TestJWTSecret = "test-jwt-secret-must-be-32-chars-long"

// NewSessionManager returns a session manager with no revocation store.
// users may be nil.
func NewSessionManager(t *testing.T, users auth.UserFetcher) *auth.SessionManager {
	t.Helper()
	sm, err := auth.NewSessionManager(TestJWTSecret, "roomhub_token", 24*time.Hour, false, users, nil, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	return sm
}
