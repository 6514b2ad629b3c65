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

// CategoryStore is the in-memory app.CategoryStore.
type CategoryStore struct {
	mu    sync.RWMutex
	items map[string]domain.Category
}

var _ app.CategoryStore = (*CategoryStore)(nil)

// NewCategoryStore returns an empty in-memory category store.
func NewCategoryStore() *CategoryStore {
	return &CategoryStore{items: make(map[string]domain.Category)}
}

func (s *CategoryStore) Create(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.items {
		if existing.Name == category.Name {
			return nil, domain.Validation("category already exists")
		}
	}

	stored := *category
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

func (s *CategoryStore) FindByID(ctx context.Context, id string) (*domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	category, ok := s.items[id]
	if !ok {
		return nil, domain.NotFound("category not found")
	}
	return &category, nil
}

func (s *CategoryStore) FindByName(ctx context.Context, name string) (*domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, category := range s.items {
		if category.Name == name {
			out := category
			return &out, nil
		}
	}
	return nil, domain.NotFound("category not found")
}

func (s *CategoryStore) FindAll(ctx context.Context) ([]domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Category, 0, len(s.items))
	for _, category := range s.items {
		out = append(out, category)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *CategoryStore) Update(ctx context.Context, category *domain.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[category.ID]; !ok {
		return domain.NotFound("category not found")
	}
	category.UpdatedAt = time.Now().UTC()
	s.items[category.ID] = *category
	return nil
}

func (s *CategoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return domain.NotFound("category not found")
	}
	delete(s.items, id)
	return nil
}
