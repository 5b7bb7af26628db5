package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type contextKey string

const SessionIDKey contextKey = "session_id"

// DefaultSessionTTL bounds how long an anonymous socket token stays usable.
const DefaultSessionTTL = 12 * time.Hour

var ErrInvalidSession = errors.New("invalid session token")

// SessionTokens issues and checks anonymous visitor tokens. A token carries
// nothing but a random session id; there are no accounts behind it.
type SessionTokens struct {
	Secret []byte
	TTL    time.Duration
}

func NewSessionTokens(secret string) *SessionTokens {
	return &SessionTokens{Secret: []byte(secret), TTL: DefaultSessionTTL}
}

// Issue signs a fresh session id.
func (s *SessionTokens) Issue() (string, uuid.UUID, error) {
	sessionID := uuid.New()
	now := time.Now()
	claims := jwt.MapClaims{
		"sid": sessionID.String(),
		"exp": now.Add(s.TTL).Unix(),
		"iat": now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.Secret)
	if err != nil {
		return "", uuid.Nil, err
	}
	return signed, sessionID, nil
}

// Verify returns the session id of a valid, unexpired token.
func (s *SessionTokens) Verify(tokenStr string) (uuid.UUID, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.Secret, nil
	})
	if err != nil {
		return uuid.Nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return uuid.Nil, ErrInvalidSession
	}

	sid, ok := claims["sid"].(string)
	if !ok {
		return uuid.Nil, ErrInvalidSession
	}
	sessionID, err := uuid.Parse(sid)
	if err != nil {
		return uuid.Nil, ErrInvalidSession
	}
	return sessionID, nil
}

// Middleware validates the token and attaches the session id to the context.
// Browsers cannot set headers on a websocket upgrade, so the token may also
// arrive as the "token" query parameter.
func (s *SessionTokens) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr := r.URL.Query().Get("token")
		if tokenStr == "" {
			authHeader := r.Header.Get("Authorization")
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenStr = parts[1]
			}
		}
		if tokenStr == "" {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing session token", r)
			return
		}

		sessionID, err := s.Verify(tokenStr)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				writeError(w, http.StatusUnauthorized, "TOKEN_EXPIRED", "Session token has expired", r)
			} else {
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid session token", r)
			}
			return
		}

		ctx := context.WithValue(r.Context(), SessionIDKey, sessionID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetSessionID extracts the session id from request context
func GetSessionID(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(SessionIDKey).(uuid.UUID)
	return id
}

func writeError(w http.ResponseWriter, status int, code, message string, r *http.Request) {
	requestID := r.Header.Get(RequestIDHeader)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error":      message,
		"code":       code,
		"request_id": requestID,
	})
}
