package models

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timeRe = regexp.MustCompile(`^\d{2}:\d{2}$`)
)

// Slot is one bookable appointment with a trainer.
type Slot struct {
	TrainerID int64
	Date      string
	Time      string
}

// Key is the unique identifier of the slot in the reservation index.
func (s Slot) Key() string {
	return strconv.FormatInt(s.TrainerID, 10) + "_" + s.Date + "_" + s.Time
}

type WorkoutRequest struct {
	Name     *string  `json:"name"`
	Duration *float64 `json:"duration"`
	Calories *float64 `json:"calories"`
}

func (r *WorkoutRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Name == nil || strings.TrimSpace(*r.Name) == "" {
		errors["name"] = "Workout name is required"
	}
	if r.Duration == nil {
		errors["duration"] = "Duration is required"
	} else if *r.Duration < 0 {
		errors["duration"] = "Duration cannot be negative"
	}
	if r.Calories == nil {
		errors["calories"] = "Calories are required"
	} else if *r.Calories < 0 {
		errors["calories"] = "Calories cannot be negative"
	}

	return errors
}

type BookingRequest struct {
	TrainerID   *int64  `json:"trainerId"`
	TrainerName *string `json:"trainerName"`
	Date        *string `json:"date"`
	Time        *string `json:"time"`
}

func (r *BookingRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.TrainerID == nil || *r.TrainerID == 0 {
		errors["trainerId"] = "Trainer ID is required"
	}
	if r.TrainerName == nil || *r.TrainerName == "" {
		errors["trainerName"] = "Trainer name is required"
	}
	if r.Date == nil || *r.Date == "" {
		errors["date"] = "Date is required"
	} else if !dateRe.MatchString(*r.Date) {
		errors["date"] = "Date must be YYYY-MM-DD"
	}
	if r.Time == nil || *r.Time == "" {
		errors["time"] = "Time is required"
	} else if !timeRe.MatchString(*r.Time) {
		errors["time"] = "Time must be HH:MM"
	}

	return errors
}

// Slot returns the requested slot. Call only after Validate succeeds.
func (r *BookingRequest) Slot() Slot {
	return Slot{TrainerID: *r.TrainerID, Date: *r.Date, Time: *r.Time}
}

// SlotReservation is the slot index record. Its existence is the reservation.
type SlotReservation struct {
	Key       string `json:"key" firestore:"-" bson:"_id"`
	UserID    string `json:"userId" firestore:"userId" bson:"userId"`
	TrainerID int64  `json:"trainerId" firestore:"trainerId" bson:"trainerId"`
	Date      string `json:"date" firestore:"date" bson:"date"`
	Time      string `json:"time" firestore:"time" bson:"time"`
	BookedAt  string `json:"bookedAt" firestore:"bookedAt" bson:"bookedAt"`
}

func NewSlotReservation(b Booking, userID string) SlotReservation {
	return SlotReservation{
		Key:       b.Slot().Key(),
		UserID:    userID,
		TrainerID: b.TrainerID,
		Date:      b.Date,
		Time:      b.Time,
		BookedAt:  b.BookedAt,
	}
}
