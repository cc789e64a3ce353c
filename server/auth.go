package server

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/sanghalabs/bodhikit/store"
)

type contextKey string

const userIDKey contextKey = "user_id"

const tokenLifetime = 24 * time.Hour

// UserIDFromContext returns the authenticated user id, if any.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok
}

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || len(req.Password) < 8 {
		s.writeError(w, http.StatusBadRequest, "email and a password of at least 8 characters are required")
		return
	}

	if _, err := s.users.GetByEmail(r.Context(), req.Email); err == nil {
		s.writeError(w, http.StatusConflict, "email already registered")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "could not hash password")
		return
	}

	user := &store.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.Create(r.Context(), user); err != nil {
		s.logger.Error("create user failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "could not create user")
		return
	}

	token, err := s.issueToken(user.ID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "could not issue token")
		return
	}
	s.writeJSON(w, http.StatusCreated, authResponse{Token: token, UserID: user.ID})
}

func (s *Server) handleSignin(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := s.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		s.writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := s.issueToken(user.ID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "could not issue token")
		return
	}
	s.writeJSON(w, http.StatusOK, authResponse{Token: token, UserID: user.ID})
}

type apiKeyResponse struct {
	ID  string `json:"id"`
	Key string `json:"key"`
}

func (s *Server) handleCreateAPIKey(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	var req struct {
		Name string `json:"name"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	// The raw key is shown once; only its digest is stored.
	raw := "bk_" + strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
	key := &store.APIKey{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      req.Name,
		KeyHash:   hashAPIKey(raw),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.apiKeys.Create(r.Context(), key); err != nil {
		s.logger.Error("create api key failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "could not create api key")
		return
	}
	s.writeJSON(w, http.StatusCreated, apiKeyResponse{ID: key.ID, Key: raw})
}

func (s *Server) handleListAPIKeys(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	keys, err := s.apiKeys.ListByUser(r.Context(), userID)
	if err != nil {
		s.logger.Error("list api keys failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "could not list api keys")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"keys":  keys,
		"count": len(keys),
	})
}

func (s *Server) handleDeleteAPIKey(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	id := r.PathValue("id")

	// Only the owner may revoke a key.
	keys, err := s.apiKeys.ListByUser(r.Context(), userID)
	if err != nil {
		s.logger.Error("list api keys failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "could not revoke api key")
		return
	}
	owned := false
	for _, key := range keys {
		if key.ID == id {
			owned = true
			break
		}
	}
	if !owned {
		s.writeError(w, http.StatusNotFound, "api key not found")
		return
	}

	if err := s.apiKeys.Delete(r.Context(), id); err != nil {
		s.logger.Error("delete api key failed", "key_id", id, "error", err)
		s.writeError(w, http.StatusInternalServerError, "could not revoke api key")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"revoked": id})
}

func (s *Server) issueToken(userID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenLifetime)),
		Issuer:    "bodhikit",
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

// requireAuth accepts either a Bearer JWT or an X-API-Key header.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if apiKey := r.Header.Get("X-API-Key"); apiKey != "" {
			key, err := s.apiKeys.GetByHash(r.Context(), hashAPIKey(apiKey))
			if err != nil {
				s.writeError(w, http.StatusUnauthorized, "invalid api key")
				return
			}
			next(w, r.WithContext(context.WithValue(r.Context(), userIDKey, key.UserID)))
			return
		}

		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			s.writeError(w, http.StatusUnauthorized, "missing credentials")
			return
		}

		userID, err := s.verifyToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			s.writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), userIDKey, userID)))
	}
}

func (s *Server) verifyToken(raw string) (string, error) {
	token, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return "", err
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return "", fmt.Errorf("invalid claims")
	}
	return claims.Subject, nil
}

func hashAPIKey(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
