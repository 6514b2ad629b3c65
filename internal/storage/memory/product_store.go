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

// ProductStore is the in-memory app.ProductStore.
type ProductStore struct {
	mu    sync.RWMutex
	items map[string]domain.Product
}

var _ app.ProductStore = (*ProductStore)(nil)

// NewProductStore returns an empty in-memory product store.
func NewProductStore() *ProductStore {
	return &ProductStore{items: make(map[string]domain.Product)}
}

// ResolveProducts returns exactly the stored products matching ids.
func (s *ProductStore) ResolveProducts(ctx context.Context, ids []string) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool, len(ids))
	out := make([]domain.Product, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if prod, ok := s.items[id]; ok {
			out = append(out, prod)
		}
	}
	return out, nil
}

func (s *ProductStore) Create(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *product
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

func (s *ProductStore) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prod, ok := s.items[id]
	if !ok {
		return nil, domain.NotFound("product not found")
	}
	return &prod, nil
}

func (s *ProductStore) FindAll(ctx context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Product, 0, len(s.items))
	for _, prod := range s.items {
		out = append(out, prod)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *ProductStore) Update(ctx context.Context, product *domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[product.ID]; !ok {
		return domain.NotFound("product not found")
	}
	product.UpdatedAt = time.Now().UTC()
	s.items[product.ID] = *product
	return nil
}

func (s *ProductStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return domain.NotFound("product not found")
	}
	delete(s.items, id)
	return nil
}
