package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/healthtrack/backend/internal/models"
)

// MongoStore keeps users, slot reservations and reviews in MongoDB. User
// documents are keyed by UID and slots by their slot key, so the _id index
// gives slot uniqueness.
type MongoStore struct {
	client     *mongo.Client
	db         *mongo.Database
	usersCol   *mongo.Collection
	slotsCol   *mongo.Collection
	reviewsCol *mongo.Collection
	now        func() time.Time
}

func NewMongoStore(ctx context.Context, mongoURI, dbName string) (*MongoStore, error) {
	opts := options.Client().
		ApplyURI(mongoURI).
		SetBSONOptions(&options.BSONOptions{DefaultDocumentM: true})

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	db := client.Database(dbName)
	s := &MongoStore{
		client:     client,
		db:         db,
		usersCol:   db.Collection(usersCollection),
		slotsCol:   db.Collection(slotsCollection),
		reviewsCol: db.Collection(reviewsCollection),
		now:        time.Now,
	}

	// Best-effort indexes.
	_, _ = s.slotsCol.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}},
	})
	_, _ = s.reviewsCol.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "date", Value: -1}},
	})

	return s, nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) GetUser(ctx context.Context, uid string) (*models.UserDoc, error) {
	var doc models.UserDoc
	err := s.usersCol.FindOne(ctx, bson.M{"_id": uid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrUserDocNotFound
	}
	if err != nil {
		return nil, err
	}
	doc.UID = uid
	doc.Normalize()
	return &doc, nil
}

// defaultsOnInsert returns the $setOnInsert fields for a new user document,
// minus any path the same update writes. MongoDB rejects updates that touch
// one path from two operators.
func (s *MongoStore) defaultsOnInsert(skip ...string) bson.M {
	defaults := bson.M{
		"createdAt":          s.now().UTC(),
		"photoURL":           nil,
		"trainings":          bson.A{},
		"completedTrainings": bson.A{},
		"meals":              bson.M{},
	}
	for _, k := range skip {
		delete(defaults, k)
	}
	return defaults
}

func (s *MongoStore) UpsertProfile(ctx context.Context, uid string, upd models.ProfileUpdate) error {
	set := bson.M{}
	if upd.Email != nil {
		set["email"] = *upd.Email
	}
	if upd.Name != nil {
		set["name"] = *upd.Name
	}
	if upd.ClearPhoto {
		set["photoURL"] = nil
	} else if upd.PhotoURL != nil {
		set["photoURL"] = *upd.PhotoURL
	}

	update := bson.M{}
	if len(set) > 0 {
		update["$set"] = set
	}
	if _, ok := set["photoURL"]; ok {
		update["$setOnInsert"] = s.defaultsOnInsert("photoURL")
	} else {
		update["$setOnInsert"] = s.defaultsOnInsert()
	}

	_, err := s.usersCol.UpdateOne(ctx, bson.M{"_id": uid}, update, options.Update().SetUpsert(true))
	return err
}

func (s *MongoStore) addToSet(ctx context.Context, uid, path, field string, value interface{}) error {
	_, err := s.usersCol.UpdateOne(
		ctx,
		bson.M{"_id": uid},
		bson.M{
			"$addToSet":    bson.M{path: value},
			"$setOnInsert": s.defaultsOnInsert(field),
		},
		options.Update().SetUpsert(true),
	)
	return err
}

func (s *MongoStore) AppendBooking(ctx context.Context, uid string, b models.Booking) error {
	return s.addToSet(ctx, uid, "trainings", "trainings", b)
}

func (s *MongoStore) AppendWorkout(ctx context.Context, uid string, w models.Workout) error {
	return s.addToSet(ctx, uid, "completedTrainings", "completedTrainings", w)
}

func (s *MongoStore) AppendMeal(ctx context.Context, uid, mealTime string, entry models.MealEntry) error {
	return s.addToSet(ctx, uid, "meals."+mealTime, "meals", bson.M(entry))
}

func (s *MongoStore) ReserveSlot(ctx context.Context, r models.SlotReservation) error {
	_, err := s.slotsCol.InsertOne(ctx, r)
	if err == nil {
		return nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return err
	}

	var existing models.SlotReservation
	if err := s.slotsCol.FindOne(ctx, bson.M{"_id": r.Key}).Decode(&existing); err != nil {
		return fmt.Errorf("read slot %s: %w", r.Key, err)
	}
	return slotConflict(existing.UserID, r.UserID)
}

func (s *MongoStore) ReleaseSlot(ctx context.Context, key, uid string) error {
	_, err := s.slotsCol.DeleteOne(ctx, bson.M{"_id": key, "userId": uid})
	return err
}

func (s *MongoStore) CreateReview(ctx context.Context, r *models.Review) error {
	r.ID = uuid.NewString()
	if _, err := s.reviewsCol.InsertOne(ctx, r); err != nil {
		r.ID = ""
		return err
	}
	return nil
}

func (s *MongoStore) ListReviews(ctx context.Context) ([]models.Review, error) {
	cur, err := s.reviewsCol.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "date", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	reviews := []models.Review{}
	if err := cur.All(ctx, &reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}
