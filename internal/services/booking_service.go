package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/healthtrack/backend/internal/models"
)

// BookingService books trainer slots. A slot is claimed in the slot index
// before it is added to the user's trainings, so two users can never hold
// the same (trainer, date, time).
type BookingService struct {
	slots  SlotStore
	users  UserStore
	logger *zap.Logger
	now    func() time.Time
}

func NewBookingService(slots SlotStore, users UserStore, logger *zap.Logger) *BookingService {
	return &BookingService{slots: slots, users: users, logger: logger, now: time.Now}
}

// Book reserves the slot for uid and records the booking. It returns
// ErrSlotAlreadyYours or ErrSlotTaken when the slot is held.
func (s *BookingService) Book(ctx context.Context, uid string, slot models.Slot, trainerName string) (*models.Booking, error) {
	booking := models.Booking{
		TrainerID:   slot.TrainerID,
		TrainerName: trainerName,
		Date:        slot.Date,
		Time:        slot.Time,
		BookedAt:    models.FormatTimestamp(s.now()),
	}

	if err := s.slots.ReserveSlot(ctx, models.NewSlotReservation(booking, uid)); err != nil {
		return nil, err
	}

	if err := s.users.AppendBooking(ctx, uid, booking); err != nil {
		// Release on a fresh context; ctx may already be done.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if relErr := s.slots.ReleaseSlot(releaseCtx, slot.Key(), uid); relErr != nil {
			s.logger.Error("release slot after failed booking",
				zap.String("uid", uid),
				zap.String("slot", slot.Key()),
				zap.Error(relErr),
			)
		}
		return nil, fmt.Errorf("append booking: %w", err)
	}

	return &booking, nil
}
