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

type MealHandler struct {
	profiles *services.ProfileService
	logger   *zap.Logger
	timeout  time.Duration
}

func NewMealHandler(profiles *services.ProfileService, logger *zap.Logger, timeout time.Duration) *MealHandler {
	return &MealHandler{profiles: profiles, logger: logger, timeout: timeout}
}

// ListMeals serves both GET /api/meals and GET /public/meals. Without a
// session it returns an empty mapping.
func (h *MealHandler) ListMeals(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusOK, models.MealsResponse{Meals: models.Meals{}})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	meals, err := h.profiles.Meals(ctx, userID)
	if err != nil {
		reqLogger(h.logger, r).Error("load meals failed", zap.String("uid", userID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to load meals")
		return
	}
	writeJSON(w, http.StatusOK, models.MealsResponse{Meals: meals})
}

func (h *MealHandler) AddMeal(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req models.MealRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(errs))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if _, err := h.profiles.AddMeal(ctx, userID, &req); err != nil {
		reqLogger(h.logger, r).Error("add meal failed",
			zap.String("uid", userID), zap.String("meal_time", req.MealTime), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to save meal")
		return
	}
	writeJSON(w, http.StatusOK, models.NewMessageResponse("Meal saved"))
}
