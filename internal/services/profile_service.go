package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/healthtrack/backend/internal/models"
)

// ProfileService serves a user's own document: profile fields, workout log,
// bookings and meals.
type ProfileService struct {
	identity IdentityProvider
	users    UserStore
	logger   *zap.Logger
	now      func() time.Time
}

func NewProfileService(identity IdentityProvider, users UserStore, logger *zap.Logger) *ProfileService {
	return &ProfileService{identity: identity, users: users, logger: logger, now: time.Now}
}

// GetProfile returns the user's document, creating it from the identity
// record on first access. A document without an email is backfilled from the
// identity record.
func (s *ProfileService) GetProfile(ctx context.Context, uid string) (*models.UserDoc, error) {
	doc, err := s.users.GetUser(ctx, uid)
	if errors.Is(err, ErrUserDocNotFound) {
		return s.createFromIdentity(ctx, uid)
	}
	if err != nil {
		return nil, err
	}

	if doc.Email == "" {
		if id, err := s.identity.GetUser(ctx, uid); err != nil {
			s.logger.Warn("email backfill: identity lookup failed", zap.String("uid", uid), zap.Error(err))
		} else if id.Email != "" {
			if err := s.users.UpsertProfile(ctx, uid, models.ProfileUpdate{Email: &id.Email}); err != nil {
				s.logger.Warn("email backfill: update failed", zap.String("uid", uid), zap.Error(err))
			} else {
				doc.Email = id.Email
			}
		}
	}
	return doc, nil
}

func (s *ProfileService) createFromIdentity(ctx context.Context, uid string) (*models.UserDoc, error) {
	id, err := s.identity.GetUser(ctx, uid)
	if err != nil {
		return nil, err
	}

	doc := &models.UserDoc{UID: id.UID, Email: id.Email, Name: id.DisplayName}
	if id.PhotoURL != "" {
		photo := id.PhotoURL
		doc.PhotoURL = &photo
	}
	doc.Normalize()

	upd := models.ProfileUpdate{Email: &doc.Email, PhotoURL: doc.PhotoURL}
	if doc.Name != "" {
		upd.Name = &doc.Name
	}
	if err := s.users.UpsertProfile(ctx, uid, upd); err != nil {
		return nil, fmt.Errorf("create user document: %w", err)
	}
	return doc, nil
}

// UpdateProfile merges the update into the document and mirrors a changed
// name into the identity provider's display name.
func (s *ProfileService) UpdateProfile(ctx context.Context, uid string, upd models.ProfileUpdate) error {
	if err := s.users.UpsertProfile(ctx, uid, upd); err != nil {
		return err
	}
	if upd.Name == nil {
		return nil
	}

	id, err := s.identity.GetUser(ctx, uid)
	if err != nil {
		return fmt.Errorf("load identity: %w", err)
	}
	if id.DisplayName == *upd.Name {
		return nil
	}
	if err := s.identity.UpdateDisplayName(ctx, uid, *upd.Name); err != nil {
		return fmt.Errorf("update display name: %w", err)
	}
	return nil
}

func (s *ProfileService) LogWorkout(ctx context.Context, uid string, req *models.WorkoutRequest) (*models.Workout, error) {
	w := models.Workout{
		Name:     strings.TrimSpace(*req.Name),
		Duration: *req.Duration,
		Calories: *req.Calories,
		Date:     models.FormatTimestamp(s.now()),
	}
	if err := s.users.AppendWorkout(ctx, uid, w); err != nil {
		return nil, err
	}
	return &w, nil
}

// Progress returns the workout log and bookings; a user without a document
// has empty ones.
func (s *ProfileService) Progress(ctx context.Context, uid string) (*models.ProgressResponse, error) {
	doc, err := s.users.GetUser(ctx, uid)
	if errors.Is(err, ErrUserDocNotFound) {
		return &models.ProgressResponse{CompletedTrainings: []models.Workout{}, Trainings: []models.Booking{}}, nil
	}
	if err != nil {
		return nil, err
	}
	return &models.ProgressResponse{CompletedTrainings: doc.CompletedTrainings, Trainings: doc.Trainings}, nil
}

func (s *ProfileService) Meals(ctx context.Context, uid string) (models.Meals, error) {
	doc, err := s.users.GetUser(ctx, uid)
	if errors.Is(err, ErrUserDocNotFound) {
		return models.Meals{}, nil
	}
	if err != nil {
		return nil, err
	}
	return doc.Meals, nil
}

// AddMeal appends the client's meal data, stamped with the current time,
// under meals[mealTime].
func (s *ProfileService) AddMeal(ctx context.Context, uid string, req *models.MealRequest) (models.MealEntry, error) {
	entry := make(models.MealEntry, len(req.MealData)+1)
	for k, v := range req.MealData {
		entry[k] = v
	}
	entry["date"] = models.FormatTimestamp(s.now())

	if err := s.users.AppendMeal(ctx, uid, req.MealTime, entry); err != nil {
		return nil, err
	}
	return entry, nil
}
