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

type TrainingHandler struct {
	profiles *services.ProfileService
	logger   *zap.Logger
	timeout  time.Duration
}

func NewTrainingHandler(profiles *services.ProfileService, logger *zap.Logger, timeout time.Duration) *TrainingHandler {
	return &TrainingHandler{profiles: profiles, logger: logger, timeout: timeout}
}

func (h *TrainingHandler) LogWorkout(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req models.WorkoutRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(errs))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if _, err := h.profiles.LogWorkout(ctx, userID, &req); err != nil {
		reqLogger(h.logger, r).Error("log workout failed", zap.String("uid", userID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to log workout")
		return
	}
	writeJSON(w, http.StatusOK, models.NewMessageResponse("Workout added"))
}

func (h *TrainingHandler) Progress(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	progress, err := h.profiles.Progress(ctx, userID)
	if err != nil {
		reqLogger(h.logger, r).Error("load progress failed", zap.String("uid", userID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to load progress")
		return
	}
	writeJSON(w, http.StatusOK, progress)
}
