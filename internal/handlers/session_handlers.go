package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/JinFuuMugen/coinshop/internal/logger"
	"github.com/JinFuuMugen/coinshop/internal/session"
	"github.com/JinFuuMugen/coinshop/internal/workflow"
)

const (
	SessionCookie = "session_token"
	tokenTTL      = time.Hour
)

type contextKey string

const flowKey contextKey = "flow"

type SessionHandler struct {
	Sessions  *session.Manager
	JWTSecret []byte
}

func (h *SessionHandler) generateToken(id uuid.UUID) (string, error) {
	claims := jwt.MapClaims{
		"sid": id.String(),
		"exp": time.Now().Add(tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(h.JWTSecret)
}

func (h *SessionHandler) sessionFromToken(tokenString string) (uuid.UUID, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("invalid signing method")
		}
		return h.JWTSecret, nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, fmt.Errorf("invalid claims")
	}
	sid, _ := claims["sid"].(string)
	id, err := uuid.Parse(sid)
	if err != nil {
		return uuid.Nil, fmt.Errorf("no session in token: %w", err)
	}
	return id, nil
}

func setSessionCookie(w http.ResponseWriter, token string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   false,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   maxAge,
	})
}

// SessionMiddleware attaches the caller's purchase flow to the request,
// starting a new session for callers without a cookie.
func (h *SessionHandler) SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookie)
		if err != nil || cookie.Value == "" {
			id, flow := h.Sessions.Create()
			token, err := h.generateToken(id)
			if err != nil {
				logger.Errorf("failed to generate token: %v", err)
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			setSessionCookie(w, token, int(tokenTTL/time.Second))
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), flowKey, flow)))
			return
		}

		id, err := h.sessionFromToken(cookie.Value)
		if err != nil {
			setSessionCookie(w, "", -1)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		flow, err := h.Sessions.Get(id)
		if err != nil {
			setSessionCookie(w, "", -1)
			http.Error(w, "session expired", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), flowKey, flow)))
	})
}

func flowFromContext(ctx context.Context) (*workflow.Controller, bool) {
	flow, ok := ctx.Value(flowKey).(*workflow.Controller)
	return flow, ok && flow != nil
}
