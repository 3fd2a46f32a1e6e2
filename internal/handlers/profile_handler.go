package handlers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/healthtrack/backend/internal/middleware"
	"github.com/healthtrack/backend/internal/models"
	"github.com/healthtrack/backend/internal/services"
)

type ProfileHandler struct {
	profiles *services.ProfileService
	logger   *zap.Logger
	timeout  time.Duration
}

func NewProfileHandler(profiles *services.ProfileService, logger *zap.Logger, timeout time.Duration) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, logger: logger, timeout: timeout}
}

// UpdateProfile handles PUT /api/profile with {name?, photoDataURL?}.
// photoDataURL null removes the photo.
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req models.UpdateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	upd, errs := req.Validate()
	if len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(errs))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.profiles.UpdateProfile(ctx, userID, upd); err != nil {
		reqLogger(h.logger, r).Error("update profile failed", zap.String("uid", userID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to update profile")
		return
	}
	writeJSON(w, http.StatusOK, models.NewMessageResponse("Profile updated"))
}
