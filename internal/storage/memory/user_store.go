package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Mojahedhu/Mojahed-Store/internal/app"
	"github.com/Mojahedhu/Mojahed-Store/internal/domain"
)

// UserStore is the in-memory app.UserStore.
type UserStore struct {
	mu    sync.RWMutex
	items map[string]domain.User
}

var _ app.UserStore = (*UserStore)(nil)

// NewUserStore returns an empty in-memory user store.
func NewUserStore() *UserStore {
	return &UserStore{items: make(map[string]domain.User)}
}

func (s *UserStore) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.items {
		if existing.Email == user.Email {
			return nil, domain.Validation("user already exists")
		}
	}

	stored := *user
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now
	s.items[stored.ID] = stored

	out := stored
	return &out, nil
}

func (s *UserStore) FindByID(ctx context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.items[id]
	if !ok {
		return nil, domain.NotFound("user not found")
	}
	return &user, nil
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.items {
		if user.Email == email {
			out := user
			return &out, nil
		}
	}
	return nil, domain.NotFound("user not found")
}

func (s *UserStore) FindAll(ctx context.Context) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.User, 0, len(s.items))
	for _, user := range s.items {
		out = append(out, user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *UserStore) Update(ctx context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[user.ID]; !ok {
		return domain.NotFound("user not found")
	}
	user.UpdatedAt = time.Now().UTC()
	s.items[user.ID] = *user
	return nil
}

func (s *UserStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return domain.NotFound("user not found")
	}
	delete(s.items, id)
	return nil
}
