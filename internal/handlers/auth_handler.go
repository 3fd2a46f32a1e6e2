package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/healthtrack/backend/internal/middleware"
	"github.com/healthtrack/backend/internal/models"
	"github.com/healthtrack/backend/internal/services"
)

type AuthHandler struct {
	auth     *services.AuthService
	profiles *services.ProfileService
	cookies  *middleware.SessionCookies
	logger   *zap.Logger
	timeout  time.Duration
}

func NewAuthHandler(auth *services.AuthService, profiles *services.ProfileService, cookies *middleware.SessionCookies, logger *zap.Logger, timeout time.Duration) *AuthHandler {
	return &AuthHandler{
		auth:     auth,
		profiles: profiles,
		cookies:  cookies,
		logger:   logger,
		timeout:  timeout,
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(errs))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	log := reqLogger(h.logger, r)
	sess, err := h.auth.Register(ctx, &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmailExists):
			writeError(w, http.StatusBadRequest, "Email is already registered")
		case errors.Is(err, services.ErrSignInNotConfigured):
			log.Error("register: password sign-in not configured")
			writeError(w, http.StatusInternalServerError, "Server is not configured for sign-in")
		default:
			log.Error("register failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "Registration failed")
		}
		return
	}

	if !h.startSession(w, r, sess) {
		return
	}
	log.Info("user registered", zap.String("uid", sess.UID))
	writeJSON(w, http.StatusCreated, authResponse(sess))
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(errs))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	log := reqLogger(h.logger, r)
	sess, err := h.auth.Login(ctx, &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmailNotFound):
			writeError(w, http.StatusUnauthorized, "No user found with this email")
		case errors.Is(err, services.ErrInvalidPassword):
			writeError(w, http.StatusUnauthorized, "Invalid password")
		case errors.Is(err, services.ErrUserDisabled):
			writeError(w, http.StatusUnauthorized, "User account is disabled")
		case errors.Is(err, services.ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, "Invalid credentials")
		case errors.Is(err, services.ErrSignInNotConfigured):
			log.Error("login: password sign-in not configured")
			writeError(w, http.StatusInternalServerError, "Server is not configured for sign-in")
		default:
			log.Error("login failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "Server error")
		}
		return
	}

	if !h.startSession(w, r, sess) {
		return
	}
	writeJSON(w, http.StatusOK, authResponse(sess))
}

func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	var req models.FederatedLoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.IDToken) == "" {
		writeError(w, http.StatusBadRequest, "ID token is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	log := reqLogger(h.logger, r)
	sess, err := h.auth.FederatedLogin(ctx, strings.TrimSpace(req.IDToken))
	if err != nil {
		if errors.Is(err, services.ErrInvalidToken) {
			log.Info("federated login rejected", zap.Error(err))
			writeError(w, http.StatusUnauthorized, "Google sign-in failed")
			return
		}
		log.Error("federated login failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	if !h.startSession(w, r, sess) {
		return
	}
	writeJSON(w, http.StatusOK, authResponse(sess))
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.cookies.Clear(w)
	writeJSON(w, http.StatusOK, models.NewMessageResponse("Logged out"))
}

func (h *AuthHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	doc, err := h.profiles.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, services.ErrIdentityNotFound) {
			writeError(w, http.StatusNotFound, "User data not found")
			return
		}
		reqLogger(h.logger, r).Error("get profile failed", zap.String("uid", userID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, sess *services.Session) bool {
	if err := h.cookies.Set(w, sess.Token); err != nil {
		reqLogger(h.logger, r).Error("set session cookie", zap.String("uid", sess.UID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to start session")
		return false
	}
	return true
}

func authResponse(sess *services.Session) models.AuthResponse {
	return models.AuthResponse{
		UID:         sess.UID,
		Email:       sess.Email,
		DisplayName: sess.DisplayName,
		PhotoURL:    sess.PhotoURL,
	}
}
