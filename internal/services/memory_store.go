package services

import (
	"context"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/healthtrack/backend/internal/models"
	"github.com/healthtrack/backend/internal/storage"
)

// MemoryStore keeps every collection in process memory. With a snapshot
// attached, each write is flushed to disk and the state is reloaded on
// startup.
type MemoryStore struct {
	mu      sync.RWMutex
	users   map[string]*models.UserDoc
	slots   map[string]models.SlotReservation
	reviews []models.Review

	snapshot *storage.Snapshot
	now      func() time.Time
}

type memorySnapshot struct {
	Users   map[string]snapshotUser           `json:"users"`
	Slots   map[string]models.SlotReservation `json:"slots"`
	Reviews []models.Review                   `json:"reviews"`
}

// snapshotUser keeps createdAt, which the API encoding of UserDoc omits.
type snapshotUser struct {
	models.UserDoc
	CreatedAt time.Time `json:"createdAt"`
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users: make(map[string]*models.UserDoc),
		slots: make(map[string]models.SlotReservation),
		now:   time.Now,
	}
}

// NewPersistentMemoryStore loads dataDir/healthtrack.json if present and
// persists every subsequent write to it.
func NewPersistentMemoryStore(dataDir string) (*MemoryStore, error) {
	snap, err := storage.NewSnapshot(dataDir, "healthtrack.json")
	if err != nil {
		return nil, err
	}

	s := NewMemoryStore()
	s.snapshot = snap

	var data memorySnapshot
	found, err := snap.Load(&data)
	if err != nil {
		return nil, err
	}
	if found {
		for uid, u := range data.Users {
			doc := u.UserDoc
			doc.UID = uid
			doc.CreatedAt = u.CreatedAt
			doc.Normalize()
			s.users[uid] = &doc
		}
		for key, r := range data.Slots {
			r.Key = key
			s.slots[key] = r
		}
		s.reviews = data.Reviews
	}
	return s, nil
}

// persist must be called with s.mu held.
func (s *MemoryStore) persist() error {
	if s.snapshot == nil {
		return nil
	}
	data := memorySnapshot{
		Users:   make(map[string]snapshotUser, len(s.users)),
		Slots:   s.slots,
		Reviews: s.reviews,
	}
	for uid, u := range s.users {
		data.Users[uid] = snapshotUser{UserDoc: *u, CreatedAt: u.CreatedAt}
	}
	return s.snapshot.Save(data)
}

func (s *MemoryStore) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persist()
}

func (s *MemoryStore) GetUser(ctx context.Context, uid string) (*models.UserDoc, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[uid]
	if !ok {
		return nil, ErrUserDocNotFound
	}
	return copyUserDoc(u), nil
}

// updateUser applies fn to a copy of uid's document, creating it if needed,
// and swaps the copy in only once the snapshot write succeeds. fn reports
// whether it changed anything.
func (s *MemoryStore) updateUser(uid string, fn func(u *models.UserDoc) bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, existed := s.users[uid]
	var u *models.UserDoc
	if existed {
		u = copyUserDoc(prev)
	} else {
		u = &models.UserDoc{UID: uid, CreatedAt: s.now().UTC()}
		u.Normalize()
	}
	if !fn(u) && existed {
		return nil
	}

	s.users[uid] = u
	if err := s.persist(); err != nil {
		if existed {
			s.users[uid] = prev
		} else {
			delete(s.users, uid)
		}
		return err
	}
	return nil
}

func (s *MemoryStore) UpsertProfile(ctx context.Context, uid string, upd models.ProfileUpdate) error {
	return s.updateUser(uid, func(u *models.UserDoc) bool {
		if upd.Email != nil {
			u.Email = *upd.Email
		}
		if upd.Name != nil {
			u.Name = *upd.Name
		}
		if upd.ClearPhoto {
			u.PhotoURL = nil
		} else if upd.PhotoURL != nil {
			photo := *upd.PhotoURL
			u.PhotoURL = &photo
		}
		return true
	})
}

func (s *MemoryStore) AppendBooking(ctx context.Context, uid string, b models.Booking) error {
	return s.updateUser(uid, func(u *models.UserDoc) bool {
		for _, existing := range u.Trainings {
			if existing == b {
				return false
			}
		}
		u.Trainings = append(u.Trainings, b)
		return true
	})
}

func (s *MemoryStore) AppendWorkout(ctx context.Context, uid string, w models.Workout) error {
	return s.updateUser(uid, func(u *models.UserDoc) bool {
		for _, existing := range u.CompletedTrainings {
			if existing == w {
				return false
			}
		}
		u.CompletedTrainings = append(u.CompletedTrainings, w)
		return true
	})
}

func (s *MemoryStore) AppendMeal(ctx context.Context, uid, mealTime string, entry models.MealEntry) error {
	return s.updateUser(uid, func(u *models.UserDoc) bool {
		for _, existing := range u.Meals[mealTime] {
			if reflect.DeepEqual(existing, entry) {
				return false
			}
		}
		u.Meals[mealTime] = append(u.Meals[mealTime], entry)
		return true
	})
}

func (s *MemoryStore) ReserveSlot(ctx context.Context, r models.SlotReservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.slots[r.Key]; ok {
		return slotConflict(existing.UserID, r.UserID)
	}
	s.slots[r.Key] = r
	if err := s.persist(); err != nil {
		delete(s.slots, r.Key)
		return err
	}
	return nil
}

func (s *MemoryStore) ReleaseSlot(ctx context.Context, key, uid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.slots[key]
	if !ok || existing.UserID != uid {
		return nil
	}
	delete(s.slots, key)
	if err := s.persist(); err != nil {
		s.slots[key] = existing
		return err
	}
	return nil
}

func (s *MemoryStore) CreateReview(ctx context.Context, r *models.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	review := *r
	review.ID = uuid.NewString()
	s.reviews = append(s.reviews, review)
	if err := s.persist(); err != nil {
		s.reviews = s.reviews[:len(s.reviews)-1]
		return err
	}
	r.ID = review.ID
	return nil
}

func (s *MemoryStore) ListReviews(ctx context.Context) ([]models.Review, error) {
	s.mu.RLock()
	out := make([]models.Review, len(s.reviews))
	copy(out, s.reviews)
	s.mu.RUnlock()

	// Newest first; equal dates keep reverse insertion order.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out, nil
}

func copyUserDoc(u *models.UserDoc) *models.UserDoc {
	out := *u
	if u.PhotoURL != nil {
		photo := *u.PhotoURL
		out.PhotoURL = &photo
	}
	out.Trainings = append([]models.Booking{}, u.Trainings...)
	out.CompletedTrainings = append([]models.Workout{}, u.CompletedTrainings...)
	out.Meals = make(models.Meals, len(u.Meals))
	for k, entries := range u.Meals {
		out.Meals[k] = append([]models.MealEntry{}, entries...)
	}
	return &out
}
