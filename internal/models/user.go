package models

import (
	"strings"
	"time"
)

// TimestampLayout matches JavaScript's Date.toISOString so that stored
// timestamps sort lexically in time order.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// UserDoc is the per-user document keyed by the identity provider's UID.
type UserDoc struct {
	UID                string    `json:"uid" firestore:"-" bson:"_id,omitempty"`
	Email              string    `json:"email" firestore:"email,omitempty" bson:"email,omitempty"`
	Name               string    `json:"name" firestore:"name,omitempty" bson:"name,omitempty"`
	PhotoURL           *string   `json:"photoURL" firestore:"photoURL" bson:"photoURL"`
	CreatedAt          time.Time `json:"-" firestore:"createdAt" bson:"createdAt"`
	Trainings          []Booking `json:"trainings" firestore:"trainings" bson:"trainings"`
	CompletedTrainings []Workout `json:"completedTrainings" firestore:"completedTrainings" bson:"completedTrainings"`
	Meals              Meals     `json:"meals" firestore:"meals" bson:"meals"`
}

// Normalize replaces nil collections with empty ones so they encode as [] and {}.
func (u *UserDoc) Normalize() {
	if u.Trainings == nil {
		u.Trainings = []Booking{}
	}
	if u.CompletedTrainings == nil {
		u.CompletedTrainings = []Workout{}
	}
	if u.Meals == nil {
		u.Meals = Meals{}
	}
}

// Booking is a trainer appointment held in the user's trainings set.
type Booking struct {
	TrainerID   int64  `json:"trainerId" firestore:"trainerId" bson:"trainerId"`
	TrainerName string `json:"trainerName" firestore:"trainerName" bson:"trainerName"`
	Date        string `json:"date" firestore:"date" bson:"date"`
	Time        string `json:"time" firestore:"time" bson:"time"`
	BookedAt    string `json:"bookedAt" firestore:"bookedAt" bson:"bookedAt"`
}

func (b Booking) Slot() Slot {
	return Slot{TrainerID: b.TrainerID, Date: b.Date, Time: b.Time}
}

// Workout is a completed training entry.
type Workout struct {
	Name     string  `json:"name" firestore:"name" bson:"name"`
	Duration float64 `json:"duration" firestore:"duration" bson:"duration"`
	Calories float64 `json:"calories" firestore:"calories" bson:"calories"`
	Date     string  `json:"date" firestore:"date" bson:"date"`
}

// MealEntry is free-form client data plus a server-assigned date.
type MealEntry map[string]interface{}

// Meals maps a meal-time label ("breakfast", ...) to its entries.
type Meals map[string][]MealEntry

// ProfileUpdate is a merge-upsert of profile fields. Nil fields are left
// untouched; ClearPhoto writes a null photoURL.
type ProfileUpdate struct {
	Email      *string
	Name       *string
	PhotoURL   *string
	ClearPhoto bool
}

func (p ProfileUpdate) IsEmpty() bool {
	return p.Email == nil && p.Name == nil && p.PhotoURL == nil && !p.ClearPhoto
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type FederatedLoginRequest struct {
	IDToken string `json:"idToken"`
}

func (r *RegisterRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if strings.TrimSpace(r.Email) == "" {
		errors["email"] = "Email is required"
	}
	if r.Password == "" {
		errors["password"] = "Password is required"
	} else if len(r.Password) < 6 {
		errors["password"] = "Password must be at least 6 characters"
	}
	if strings.TrimSpace(r.Name) == "" {
		errors["name"] = "Name is required"
	}

	return errors
}

func (r *LoginRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if strings.TrimSpace(r.Email) == "" {
		errors["email"] = "Email is required"
	}
	if r.Password == "" {
		errors["password"] = "Password is required"
	}

	return errors
}
