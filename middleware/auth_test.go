package middleware

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/PelvK/planillas-buena-fe/models"
	"github.com/PelvK/planillas-buena-fe/repositories"
)

type fakeSessionRepo struct {
	sessions map[string]*models.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]*models.Session)}
}

func (r *fakeSessionRepo) Create(ctx context.Context, session *models.Session) error {
	copied := *session
	r.sessions[session.Token] = &copied
	return nil
}

func (r *fakeSessionRepo) GetByToken(ctx context.Context, token string) (*models.Session, error) {
	session, ok := r.sessions[token]
	if !ok {
		return nil, repositories.ErrSessionNotFound
	}
	copied := *session
	return &copied, nil
}

func (r *fakeSessionRepo) DeleteByToken(ctx context.Context, token string) error {
	if _, ok := r.sessions[token]; !ok {
		return repositories.ErrSessionNotFound
	}
	delete(r.sessions, token)
	return nil
}

func (r *fakeSessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	var deleted int64
	now := time.Now()
	for token, session := range r.sessions {
		if now.After(session.ExpiresAt) {
			delete(r.sessions, token)
			deleted++
		}
	}
	return deleted, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func callProtected(t *testing.T, a *Authenticator, token string) (*httptest.ResponseRecorder, string) {
	t.Helper()
	var gotUserID string
	handler := a.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, _ = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/planillas", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec, gotUserID
}

func TestSessionModeRoundtrip(t *testing.T) {
	sessions := newFakeSessionRepo()
	a, err := NewAuthenticator(ModeSession, "", time.Hour, sessions, testLogger())
	if err != nil {
		t.Fatalf("NewAuthenticator failed: %v", err)
	}

	token, expiresAt, err := a.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if time.Until(expiresAt) > time.Hour || time.Until(expiresAt) < 59*time.Minute {
		t.Fatalf("unexpected expiry %v", expiresAt)
	}

	rec, userID := callProtected(t, a, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if userID != "user-1" {
		t.Fatalf("expected user-1 in context, got %q", userID)
	}

	if err := a.Revoke(context.Background(), token); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}
	rec, _ = callProtected(t, a, token)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("revoked token should yield 401, got %d", rec.Code)
	}
}

func TestSessionModeExpiredToken(t *testing.T) {
	sessions := newFakeSessionRepo()
	a, err := NewAuthenticator(ModeSession, "", -time.Minute, sessions, testLogger())
	if err != nil {
		t.Fatalf("NewAuthenticator failed: %v", err)
	}

	token, _, err := a.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	rec, _ := callProtected(t, a, token)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expired token should yield 401, got %d", rec.Code)
	}
}

func TestJWTModeRoundtrip(t *testing.T) {
	a, err := NewAuthenticator(ModeJWT, "test-secret", time.Hour, nil, testLogger())
	if err != nil {
		t.Fatalf("NewAuthenticator failed: %v", err)
	}

	token, _, err := a.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	rec, userID := callProtected(t, a, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if userID != "user-1" {
		t.Fatalf("expected user-1 in context, got %q", userID)
	}
}

func TestJWTModeRejectsForeignSignature(t *testing.T) {
	issuer, _ := NewAuthenticator(ModeJWT, "other-secret", time.Hour, nil, testLogger())
	verifier, _ := NewAuthenticator(ModeJWT, "test-secret", time.Hour, nil, testLogger())

	token, _, err := issuer.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	rec, _ := callProtected(t, verifier, token)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("foreign signature should yield 401, got %d", rec.Code)
	}
}

func TestMiddlewareRejectsMissingOrMalformedHeader(t *testing.T) {
	a, _ := NewAuthenticator(ModeJWT, "test-secret", time.Hour, nil, testLogger())

	rec, _ := callProtected(t, a, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing header should yield 401, got %d", rec.Code)
	}

	handler := a.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	req := httptest.NewRequest(http.MethodGet, "/planillas", nil)
	req.Header.Set("Authorization", "Basic abc")
	rec2 := httptest.NewRecorder()
	handler.ServeHTTP(rec2, req)
	if rec2.Code != http.StatusUnauthorized {
		t.Fatalf("non-bearer scheme should yield 401, got %d", rec2.Code)
	}
}
