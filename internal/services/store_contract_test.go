package services

import (
	"context"
	"os"
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthtrack/backend/internal/models"
)

// runStoreContract exercises the behaviour every Store backend must share.
// IDs are random so it can run against a shared database.
func runStoreContract(t *testing.T, s Store) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	t.Run("missing user", func(t *testing.T) {
		_, err := s.GetUser(ctx, "missing-"+uuid.NewString())
		assert.ErrorIs(t, err, ErrUserDocNotFound)
	})

	t.Run("upsert keeps collections", func(t *testing.T) {
		uid := "u-" + uuid.NewString()
		require.NoError(t, s.UpsertProfile(ctx, uid, models.ProfileUpdate{Email: strPtr("a@example.com"), Name: strPtr("A")}))

		b := models.Booking{TrainerID: 1, TrainerName: "T", Date: "2025-01-01", Time: "10:00", BookedAt: "2025-01-01T00:00:00.000Z"}
		w := models.Workout{Name: "Run", Duration: 10, Calories: 100, Date: "2025-01-01T00:00:00.000Z"}
		require.NoError(t, s.AppendBooking(ctx, uid, b))
		require.NoError(t, s.AppendBooking(ctx, uid, b))
		require.NoError(t, s.AppendWorkout(ctx, uid, w))
		require.NoError(t, s.AppendMeal(ctx, uid, "dinner", models.MealEntry{"dish": "pasta", "date": "x"}))

		require.NoError(t, s.UpsertProfile(ctx, uid, models.ProfileUpdate{Name: strPtr("B"), PhotoURL: strPtr("data:image/png;base64,AA")}))

		doc, err := s.GetUser(ctx, uid)
		require.NoError(t, err)
		assert.Equal(t, uid, doc.UID)
		assert.Equal(t, "B", doc.Name)
		assert.Equal(t, "a@example.com", doc.Email)
		require.NotNil(t, doc.PhotoURL)
		assert.Equal(t, []models.Booking{b}, doc.Trainings)
		assert.Equal(t, []models.Workout{w}, doc.CompletedTrainings)
		require.Len(t, doc.Meals["dinner"], 1)
		assert.Equal(t, "pasta", doc.Meals["dinner"][0]["dish"])

		require.NoError(t, s.UpsertProfile(ctx, uid, models.ProfileUpdate{ClearPhoto: true}))
		doc, err = s.GetUser(ctx, uid)
		require.NoError(t, err)
		assert.Nil(t, doc.PhotoURL)
	})

	t.Run("append creates document", func(t *testing.T) {
		uid := "u-" + uuid.NewString()
		require.NoError(t, s.AppendMeal(ctx, uid, "lunch", models.MealEntry{"dish": "soup", "date": "x"}))
		doc, err := s.GetUser(ctx, uid)
		require.NoError(t, err)
		assert.Len(t, doc.Meals["lunch"], 1)
		assert.NotNil(t, doc.Trainings)
		assert.NotNil(t, doc.CompletedTrainings)
		assert.Nil(t, doc.PhotoURL)
		assert.False(t, doc.CreatedAt.IsZero(), "createdAt is set when an append creates the document")

		workoutUID := "u-" + uuid.NewString()
		w := models.Workout{Name: "Row", Duration: 5, Calories: 40, Date: "2025-01-01T00:00:00.000Z"}
		require.NoError(t, s.AppendWorkout(ctx, workoutUID, w))
		doc, err = s.GetUser(ctx, workoutUID)
		require.NoError(t, err)
		assert.Equal(t, []models.Workout{w}, doc.CompletedTrainings)
		assert.False(t, doc.CreatedAt.IsZero())

		require.NoError(t, s.AppendWorkout(ctx, workoutUID, w))
		doc, err = s.GetUser(ctx, workoutUID)
		require.NoError(t, err)
		assert.Len(t, doc.CompletedTrainings, 1, "a second append must not reset the document")
	})

	t.Run("slot reservation", func(t *testing.T) {
		b := models.Booking{TrainerID: time.Now().UnixNano(), Date: "2025-02-02", Time: "08:00", BookedAt: "x"}
		key := b.Slot().Key()

		require.NoError(t, s.ReserveSlot(ctx, models.NewSlotReservation(b, "alice")))
		assert.ErrorIs(t, s.ReserveSlot(ctx, models.NewSlotReservation(b, "alice")), ErrSlotAlreadyYours)
		assert.ErrorIs(t, s.ReserveSlot(ctx, models.NewSlotReservation(b, "bob")), ErrSlotTaken)

		require.NoError(t, s.ReleaseSlot(ctx, key, "bob"))
		assert.ErrorIs(t, s.ReserveSlot(ctx, models.NewSlotReservation(b, "bob")), ErrSlotTaken)

		require.NoError(t, s.ReleaseSlot(ctx, key, "alice"))
		require.NoError(t, s.ReserveSlot(ctx, models.NewSlotReservation(b, "bob")))
		require.NoError(t, s.ReleaseSlot(ctx, key, "bob"))
	})

	t.Run("reviews newest first", func(t *testing.T) {
		marker := uuid.NewString()
		older := models.Review{Name: "n", Text: marker + "-older", Date: "2999-01-01T00:00:00.000Z"}
		newer := models.Review{Name: "n", Text: marker + "-newer", Date: "2999-01-02T00:00:00.000Z"}
		require.NoError(t, s.CreateReview(ctx, &older))
		require.NoError(t, s.CreateReview(ctx, &newer))
		assert.NotEmpty(t, older.ID)
		assert.NotEqual(t, older.ID, newer.ID)

		reviews, err := s.ListReviews(ctx)
		require.NoError(t, err)

		var order []string
		for _, r := range reviews {
			if r.Text == older.Text || r.Text == newer.Text {
				order = append(order, r.Text)
			}
		}
		assert.Equal(t, []string{newer.Text, older.Text}, order)
	})
}

func TestMemoryStore_Contract(t *testing.T) {
	runStoreContract(t, NewMemoryStore())
}

func TestFirestoreStore_Contract(t *testing.T) {
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}
	ctx := context.Background()
	client, err := firestore.NewClient(ctx, "healthtrack-test")
	require.NoError(t, err)

	s := NewFirestoreStore(client)
	t.Cleanup(func() { s.Close(ctx) })
	runStoreContract(t, s)
}

func TestMongoStore_Contract(t *testing.T) {
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s, err := NewMongoStore(ctx, uri, "healthtrack_test")
	require.NoError(t, err)
	t.Cleanup(func() {
		s.db.Drop(context.Background())
		s.Close(context.Background())
	})
	runStoreContract(t, s)
}
