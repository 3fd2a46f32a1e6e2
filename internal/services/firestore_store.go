package services

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/healthtrack/backend/internal/models"
)

const (
	usersCollection   = "users"
	slotsCollection   = "slots"
	reviewsCollection = "reviews"
)

// FirestoreStore keeps users, slot reservations and reviews in Cloud
// Firestore.
type FirestoreStore struct {
	client  *firestore.Client
	users   *firestore.CollectionRef
	slots   *firestore.CollectionRef
	reviews *firestore.CollectionRef
}

func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{
		client:  client,
		users:   client.Collection(usersCollection),
		slots:   client.Collection(slotsCollection),
		reviews: client.Collection(reviewsCollection),
	}
}

func (s *FirestoreStore) Close(ctx context.Context) error {
	return s.client.Close()
}

func (s *FirestoreStore) GetUser(ctx context.Context, uid string) (*models.UserDoc, error) {
	snap, err := s.users.Doc(uid).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, ErrUserDocNotFound
	}
	if err != nil {
		return nil, err
	}

	var doc models.UserDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("decode user %s: %w", uid, err)
	}
	doc.UID = uid
	doc.Normalize()
	return &doc, nil
}

// UpsertProfile merges the update into the user document. Collections and
// createdAt are initialised only when the document is first created.
func (s *FirestoreStore) UpsertProfile(ctx context.Context, uid string, upd models.ProfileUpdate) error {
	data := map[string]interface{}{}
	if upd.Email != nil {
		data["email"] = *upd.Email
	}
	if upd.Name != nil {
		data["name"] = *upd.Name
	}
	if upd.ClearPhoto {
		data["photoURL"] = nil
	} else if upd.PhotoURL != nil {
		data["photoURL"] = *upd.PhotoURL
	}
	return s.mergeUser(ctx, uid, data)
}

// mergeUser merges data into the user document inside a transaction. A new
// document also gets createdAt, a null photoURL and empty collections for
// every field data does not write.
func (s *FirestoreStore) mergeUser(ctx context.Context, uid string, data map[string]interface{}) error {
	ref := s.users.Doc(uid)

	return s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		_, err := tx.Get(ref)
		if err == nil {
			if len(data) == 0 {
				return nil
			}
			return tx.Set(ref, data, firestore.MergeAll)
		}
		if status.Code(err) != codes.NotFound {
			return err
		}

		// The transaction may retry, so data itself stays untouched.
		doc := map[string]interface{}{
			"createdAt":          firestore.ServerTimestamp,
			"photoURL":           nil,
			"trainings":          []interface{}{},
			"completedTrainings": []interface{}{},
			"meals":              map[string]interface{}{},
		}
		for field, v := range data {
			doc[field] = v
		}
		return tx.Set(ref, doc, firestore.MergeAll)
	})
}

func (s *FirestoreStore) AppendBooking(ctx context.Context, uid string, b models.Booking) error {
	return s.mergeUser(ctx, uid, map[string]interface{}{
		"trainings": firestore.ArrayUnion(b),
	})
}

func (s *FirestoreStore) AppendWorkout(ctx context.Context, uid string, w models.Workout) error {
	return s.mergeUser(ctx, uid, map[string]interface{}{
		"completedTrainings": firestore.ArrayUnion(w),
	})
}

func (s *FirestoreStore) AppendMeal(ctx context.Context, uid, mealTime string, entry models.MealEntry) error {
	return s.mergeUser(ctx, uid, map[string]interface{}{
		"meals": map[string]interface{}{
			mealTime: firestore.ArrayUnion(map[string]interface{}(entry)),
		},
	})
}

func (s *FirestoreStore) ReserveSlot(ctx context.Context, r models.SlotReservation) error {
	ref := s.slots.Doc(r.Key)

	_, err := ref.Create(ctx, r)
	if err == nil {
		return nil
	}
	if status.Code(err) != codes.AlreadyExists {
		return err
	}

	snap, err := ref.Get(ctx)
	if err != nil {
		return fmt.Errorf("read slot %s: %w", r.Key, err)
	}
	var existing models.SlotReservation
	if err := snap.DataTo(&existing); err != nil {
		return fmt.Errorf("decode slot %s: %w", r.Key, err)
	}
	return slotConflict(existing.UserID, r.UserID)
}

func (s *FirestoreStore) ReleaseSlot(ctx context.Context, key, uid string) error {
	ref := s.slots.Doc(key)

	snap, err := ref.Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil
	}
	if err != nil {
		return err
	}
	var existing models.SlotReservation
	if err := snap.DataTo(&existing); err != nil {
		return err
	}
	if existing.UserID != uid {
		return nil
	}

	_, err = ref.Delete(ctx, firestore.LastUpdateTime(snap.UpdateTime))
	return err
}

func (s *FirestoreStore) CreateReview(ctx context.Context, r *models.Review) error {
	ref, _, err := s.reviews.Add(ctx, r)
	if err != nil {
		return err
	}
	r.ID = ref.ID
	return nil
}

func (s *FirestoreStore) ListReviews(ctx context.Context) ([]models.Review, error) {
	iter := s.reviews.OrderBy("date", firestore.Desc).Documents(ctx)
	defer iter.Stop()

	reviews := []models.Review{}
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		var r models.Review
		if err := snap.DataTo(&r); err != nil {
			return nil, fmt.Errorf("decode review %s: %w", snap.Ref.ID, err)
		}
		r.ID = snap.Ref.ID
		reviews = append(reviews, r)
	}
	return reviews, nil
}
