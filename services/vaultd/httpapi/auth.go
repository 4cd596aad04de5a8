package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// AuthConfig configures bearer-token verification, a trimmed-down mirror
// of the teacher gateway's middleware.AuthConfig: vaultd has no scopes or
// audience tiers, only a single signing secret and the user key a caller
// authenticates as.
type AuthConfig struct {
	Enabled    bool
	HMACSecret string
	Issuer     string
	ClockSkew  time.Duration
}

type contextKey string

// ContextKeyUser is the request context key a verified caller's user key
// (the JWT subject claim) is stored under.
const ContextKeyUser contextKey = "vaultd.user"

// Authenticator verifies bearer tokens and injects the caller's user key
// into the request context for handlers to read.
type Authenticator struct {
	cfg    AuthConfig
	logger *slog.Logger
	secret []byte
}

// NewAuthenticator builds an Authenticator from cfg.
func NewAuthenticator(cfg AuthConfig, logger *slog.Logger) *Authenticator {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ClockSkew <= 0 {
		cfg.ClockSkew = 2 * time.Minute
	}
	return &Authenticator{cfg: cfg, logger: logger, secret: []byte(strings.TrimSpace(cfg.HMACSecret))}
}

// Middleware rejects requests without a valid bearer token when auth is
// enabled, and otherwise stores the token subject as the caller's user key.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.cfg.Enabled {
			next.ServeHTTP(w, r)
			return
		}
		tokenString := extractBearer(r.Header.Get("Authorization"))
		if tokenString == "" {
			writeJSONError(w, http.StatusUnauthorized, errors.New("missing bearer token"))
			return
		}
		subject, err := a.verify(tokenString)
		if err != nil {
			a.logger.Warn("bearer token rejected", "error", err)
			writeJSONError(w, http.StatusUnauthorized, errors.New("invalid token"))
			return
		}
		ctx := context.WithValue(r.Context(), ContextKeyUser, subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *Authenticator) verify(tokenString string) (string, error) {
	if len(a.secret) == 0 {
		return "", errors.New("auth secret not configured")
	}
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	}, jwt.WithLeeway(a.cfg.ClockSkew))
	if err != nil {
		return "", err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", errors.New("token invalid")
	}
	if a.cfg.Issuer != "" {
		if iss, ok := claims["iss"].(string); !ok || iss != a.cfg.Issuer {
			return "", errors.New("issuer mismatch")
		}
	}
	subject, ok := claims["sub"].(string)
	if !ok || subject == "" {
		return "", errors.New("missing subject claim")
	}
	return subject, nil
}

func extractBearer(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// userKey reads the authenticated caller's user key from ctx, falling back
// to the X-User-Key header when auth is disabled (local/dev use).
func userKey(r *http.Request) string {
	if v, ok := r.Context().Value(ContextKeyUser).(string); ok && v != "" {
		return v
	}
	return r.Header.Get("X-User-Key")
}
