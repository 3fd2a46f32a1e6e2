package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/healthtrack/backend/internal/middleware"
	"github.com/healthtrack/backend/internal/models"
	"github.com/healthtrack/backend/internal/services"
)

type BookingHandler struct {
	bookings *services.BookingService
	logger   *zap.Logger
	timeout  time.Duration
}

func NewBookingHandler(bookings *services.BookingService, logger *zap.Logger, timeout time.Duration) *BookingHandler {
	return &BookingHandler{bookings: bookings, logger: logger, timeout: timeout}
}

func (h *BookingHandler) BookTraining(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req models.BookingRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(errs))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	log := reqLogger(h.logger, r).With(
		zap.String("uid", userID),
		zap.String("slot", req.Slot().Key()),
	)

	booking, err := h.bookings.Book(ctx, userID, req.Slot(), *req.TrainerName)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSlotAlreadyYours):
			log.Info("slot already booked by requester")
			writeError(w, http.StatusBadRequest, "You have already booked this time")
		case errors.Is(err, services.ErrSlotTaken):
			log.Info("slot booked by another user")
			writeError(w, http.StatusBadRequest, "This time is already booked by another user")
		default:
			log.Error("book training failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "Failed to book training")
		}
		return
	}

	log.Info("training booked")
	writeJSON(w, http.StatusOK, models.NewMessageResponse(fmt.Sprintf(
		"Training booked on %s at %s with %s", booking.Date, booking.Time, booking.TrainerName)))
}
