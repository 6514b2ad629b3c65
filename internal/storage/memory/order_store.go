// Package memory provides in-memory implementations of the storage ports
// for unit tests and local development. Do NOT use in production.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Mojahedhu/Mojahed-Store/internal/app"
	"github.com/Mojahedhu/Mojahed-Store/internal/domain"
)

// OrderStore is the in-memory app.OrderStore. A single mutex serialises
// transactions, which gives the same per-order at-most-once guarantee the
// Mongo implementation gets from session transactions plus the conditional
// MarkPaid write.
type OrderStore struct {
	mu    sync.Mutex
	txMu  sync.Mutex
	items map[string]domain.Order
}

var _ app.OrderStore = (*OrderStore)(nil)

// NewOrderStore returns an empty in-memory order store.
func NewOrderStore() *OrderStore {
	return &OrderStore{items: make(map[string]domain.Order)}
}

func (s *OrderStore) Create(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := cloneOrder(*order)
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	s.items[stored.ID] = stored

	out := cloneOrder(stored)
	return &out, nil
}

func (s *OrderStore) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.items[id]
	if !ok {
		return nil, domain.NotFound("order not found")
	}
	out := cloneOrder(order)
	return &out, nil
}

func (s *OrderStore) FindByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.Order
	for _, order := range s.items {
		if order.UserID == userID {
			out = append(out, cloneOrder(order))
		}
	}
	sortByCreation(out)
	return out, nil
}

func (s *OrderStore) FindAll(ctx context.Context) ([]domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Order, 0, len(s.items))
	for _, order := range s.items {
		out = append(out, cloneOrder(order))
	}
	sortByCreation(out)
	return out, nil
}

func (s *OrderStore) Count(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.items)), nil
}

func (s *OrderStore) TotalSales(ctx context.Context) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := decimal.Zero
	for _, order := range s.items {
		total = total.Add(order.Totals.TotalPrice)
	}
	return total, nil
}

func (s *OrderStore) TotalSalesByDay(ctx context.Context) ([]app.DailySales, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byDay := make(map[string]decimal.Decimal)
	for _, order := range s.items {
		if !order.IsPaid {
			continue
		}
		day := order.CreatedAt.UTC().Format("2006-01-02")
		byDay[day] = byDay[day].Add(order.Totals.TotalPrice)
	}

	out := make([]app.DailySales, 0, len(byDay))
	for day, total := range byDay {
		out = append(out, app.DailySales{Date: day, Total: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func (s *OrderStore) Save(ctx context.Context, order *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[order.ID]; !ok {
		return domain.NotFound("order not found")
	}
	s.items[order.ID] = cloneOrder(*order)
	return nil
}

// MarkPaid flips the order to paid only if it is currently unpaid; the
// check-and-set runs under the store mutex, so at most one caller wins.
func (s *OrderStore) MarkPaid(ctx context.Context, orderID string, result domain.PaymentResult, paidAt time.Time) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.items[orderID]
	if !ok {
		return nil, domain.NotFound("order not found")
	}
	if order.IsPaid {
		return nil, domain.ErrAlreadyPaid
	}

	order.IsPaid = true
	order.PaidAt = &paidAt
	order.PaymentResult = &result
	order.UpdatedAt = paidAt
	s.items[orderID] = order

	out := cloneOrder(order)
	return &out, nil
}

func (s *OrderStore) Delete(ctx context.Context, orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[orderID]; !ok {
		return domain.NotFound("order not found")
	}
	delete(s.items, orderID)
	return nil
}

func (s *OrderStore) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return fn(ctx)
}

func sortByCreation(orders []domain.Order) {
	sort.Slice(orders, func(i, j int) bool {
		if !orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].CreatedAt.After(orders[j].CreatedAt)
		}
		return orders[i].ID > orders[j].ID
	})
}

// cloneOrder copies an order deeply enough that callers cannot mutate
// stored state through shared slices or pointers.
func cloneOrder(o domain.Order) domain.Order {
	out := o
	out.Items = append([]domain.OrderItem(nil), o.Items...)
	if o.PaidAt != nil {
		paidAt := *o.PaidAt
		out.PaidAt = &paidAt
	}
	if o.PaymentResult != nil {
		result := *o.PaymentResult
		out.PaymentResult = &result
	}
	if o.DeliveredAt != nil {
		deliveredAt := *o.DeliveredAt
		out.DeliveredAt = &deliveredAt
	}
	return out
}
