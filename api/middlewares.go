package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
)

// requireAuth resolves the bearer token on the request to a user and makes
// it available through the request context. Missing, malformed, expired and
// revoked tokens all produce the same 401.
func (app *application) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", "Authorization")
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeError(w, errInvalidToken, http.StatusUnauthorized)
			return
		}
		parts := strings.Fields(authHeader)
		if len(parts) != 2 || parts[0] != "Bearer" {
			writeError(w, errInvalidToken, http.StatusUnauthorized)
			return
		}
		userID, claims, err := parseToken(parts[1], []byte(app.config.jwt.secret))
		if err != nil {
			writeError(w, errInvalidToken, http.StatusUnauthorized)
			return
		}
		revoked, err := app.denylist.IsRevoked(r.Context(), claims.ID)
		if err != nil {
			log.Println(err)
			writeError(w, errors.New("internal server error"), http.StatusInternalServerError)
			return
		}
		if revoked {
			writeError(w, errInvalidToken, http.StatusUnauthorized)
			return
		}
		u, err := app.storage.getUserByID(userID)
		if err != nil {
			log.Println(err)
			writeError(w, errors.New("internal server error"), http.StatusInternalServerError)
			return
		}
		if u == nil {
			writeError(w, errInvalidToken, http.StatusUnauthorized)
			return
		}
		ctx := contextWithUser(r.Context(), u)
		ctx = contextWithSession(ctx, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

func (app *application) enableCORS(next http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", "Origin")
		w.Header().Add("Vary", "Access-Control-Request-Method")

		origin := r.Header.Get("Origin")
		if origin != "" {
			for _, o := range app.config.cors.trustedOrigins {
				if origin == o || o == "*" {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					// preflight request
					if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
						w.Header().Set("Access-Control-Allow-Methods", "OPTIONS, PUT, PATCH, DELETE")
						w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
						w.WriteHeader(http.StatusOK)
						return
					}
					break
				}
			}
		}
		next.ServeHTTP(w, r)
	}
}

type contextKey string

const (
	userContextKey    contextKey = "user"
	sessionContextKey contextKey = "session"
)

func contextWithUser(ctx context.Context, u *user) context.Context {
	return context.WithValue(ctx, userContextKey, u)
}

func contextWithSession(ctx context.Context, c *sessionClaims) context.Context {
	return context.WithValue(ctx, sessionContextKey, c)
}

func getUserFromRequest(r *http.Request) *user {
	u, _ := r.Context().Value(userContextKey).(*user)
	return u
}

func getSessionFromRequest(r *http.Request) *sessionClaims {
	c, _ := r.Context().Value(sessionContextKey).(*sessionClaims)
	return c
}
