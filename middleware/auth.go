package middleware

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PelvK/planillas-buena-fe/models"
	"github.com/PelvK/planillas-buena-fe/repositories"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// Mode selects how bearer tokens are issued and verified.
type Mode string

const (
	// ModeSession stores opaque tokens in the sessions table.
	ModeSession Mode = "session"
	// ModeJWT issues stateless HS256 tokens with the user id in "sub".
	ModeJWT Mode = "jwt"
)

type Authenticator struct {
	mode       Mode
	jwtSecret  []byte
	sessionTTL time.Duration
	sessions   repositories.SessionRepository
	logger     *slog.Logger
}

func NewAuthenticator(mode Mode, jwtSecret string, sessionTTL time.Duration, sessions repositories.SessionRepository, logger *slog.Logger) (*Authenticator, error) {
	switch mode {
	case ModeSession:
		if sessions == nil {
			return nil, errors.New("session mode requires a session repository")
		}
	case ModeJWT:
		if jwtSecret == "" {
			return nil, errors.New("jwt mode requires a signing secret")
		}
	default:
		return nil, fmt.Errorf("unknown auth mode %q", mode)
	}
	return &Authenticator{
		mode:       mode,
		jwtSecret:  []byte(jwtSecret),
		sessionTTL: sessionTTL,
		sessions:   sessions,
		logger:     logger,
	}, nil
}

// Issue creates a bearer token for the user.
func (a *Authenticator) Issue(ctx context.Context, userID string) (string, time.Time, error) {
	expiresAt := time.Now().Add(a.sessionTTL)

	if a.mode == ModeJWT {
		claims := jwt.MapClaims{
			"sub": userID,
			"iat": time.Now().Unix(),
			"exp": expiresAt.Unix(),
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.jwtSecret)
		if err != nil {
			return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
		}
		return token, expiresAt, nil
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate session token: %w", err)
	}
	token := hex.EncodeToString(raw)

	session := &models.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		Token:     token,
		ExpiresAt: expiresAt,
	}
	if err := a.sessions.Create(ctx, session); err != nil {
		return "", time.Time{}, fmt.Errorf("failed to store session: %w", err)
	}
	return token, expiresAt, nil
}

// Revoke invalidates a token. Stateless JWT tokens cannot be revoked; logout
// is then purely client-side.
func (a *Authenticator) Revoke(ctx context.Context, token string) error {
	if a.mode == ModeJWT {
		return nil
	}
	err := a.sessions.DeleteByToken(ctx, token)
	if errors.Is(err, repositories.ErrSessionNotFound) {
		return nil
	}
	return err
}

// Middleware resolves the bearer token and puts the user id in the request
// context. Requests without a valid token get 401.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			unauthorized(w)
			return
		}

		userID, err := a.resolve(r.Context(), token)
		if err != nil {
			a.logger.Debug("token rejected", slog.Any("error", err))
			unauthorized(w)
			return
		}

		ctx := context.WithValue(r.Context(), userIDContextKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *Authenticator) resolve(ctx context.Context, token string) (string, error) {
	if a.mode == ModeJWT {
		return a.resolveJWT(token)
	}
	return a.resolveSession(ctx, token)
}

func (a *Authenticator) resolveJWT(token string) (string, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.jwtSecret, nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return "", errors.New("invalid token claims")
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", errors.New("missing sub claim")
	}
	return sub, nil
}

func (a *Authenticator) resolveSession(ctx context.Context, token string) (string, error) {
	session, err := a.sessions.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repositories.ErrSessionNotFound) {
			return "", errors.New("session not found")
		}
		return "", fmt.Errorf("failed to load session: %w", err)
	}
	if time.Now().After(session.ExpiresAt) {
		return "", errors.New("session expired")
	}
	return session.UserID, nil
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"Unauthorized"}`))
}
