package services

import (
	"context"
	"errors"

	"github.com/healthtrack/backend/internal/models"
)

var (
	ErrUserDocNotFound  = errors.New("user document not found")
	ErrSlotTaken        = errors.New("slot is booked by another user")
	ErrSlotAlreadyYours = errors.New("slot is already booked by this user")
)

// UserStore persists per-user documents. Every write is a merge-upsert: a
// missing document is created and fields not named by the write are kept.
type UserStore interface {
	GetUser(ctx context.Context, uid string) (*models.UserDoc, error)
	UpsertProfile(ctx context.Context, uid string, upd models.ProfileUpdate) error

	// Append* add an entry to a set-valued field. An identical entry already
	// present is not duplicated.
	AppendBooking(ctx context.Context, uid string, b models.Booking) error
	AppendWorkout(ctx context.Context, uid string, w models.Workout) error
	AppendMeal(ctx context.Context, uid, mealTime string, entry models.MealEntry) error
}

// SlotStore is the unique index of booked trainer slots.
type SlotStore interface {
	// ReserveSlot atomically creates the reservation if the slot is free.
	// It returns ErrSlotAlreadyYours or ErrSlotTaken when it is not.
	ReserveSlot(ctx context.Context, r models.SlotReservation) error
	// ReleaseSlot removes the reservation if it is owned by uid.
	ReleaseSlot(ctx context.Context, key, uid string) error
}

type ReviewStore interface {
	// CreateReview stores the review and fills in its ID.
	CreateReview(ctx context.Context, r *models.Review) error
	// ListReviews returns all reviews, newest first.
	ListReviews(ctx context.Context) ([]models.Review, error)
}

// Store is a complete persistence backend.
type Store interface {
	UserStore
	SlotStore
	ReviewStore
	Close(ctx context.Context) error
}

func slotConflict(owner, uid string) error {
	if owner == uid {
		return ErrSlotAlreadyYours
	}
	return ErrSlotTaken
}
