package mongodb_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Mojahedhu/Mojahed-Store/internal/domain"
	"github.com/Mojahedhu/Mojahed-Store/internal/storage/mongodb"
)

// fakeCache is an in-memory cache.Cache.
type fakeCache struct {
	values map[string]string
	gets   int
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: map[string]string{}}
}

func (f *fakeCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	f.values[key] = string(value.([]byte))
	return nil
}

func (f *fakeCache) Get(ctx context.Context, key string) (string, error) {
	f.gets++
	return f.values[key], nil
}

func (f *fakeCache) Delete(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.values, k)
	}
	return nil
}

func (f *fakeCache) GenerateKey(operation, key string) string {
	return "test:" + operation + ":" + key
}

// offlineDB builds a database handle without dialling anything; the driver
// connects lazily, so cache-hit paths never touch the network.
func offlineDB(t *testing.T) *mongo.Database {
	t.Helper()
	client, err := mongo.NewClient(options.Client().ApplyURI("mongodb://localhost:27017"))
	require.NoError(t, err)
	return client.Database("storefront_test")
}

func TestFindByIDServedFromCache(t *testing.T) {
	cache := newFakeCache()
	store := mongodb.NewProductStore(offlineDB(t), cache)

	product := domain.Product{
		ID:    "665f1f77bcf86cd799439011",
		Name:  "Cached Widget",
		Price: decimal.RequireFromString("19.99"),
	}
	raw, err := json.Marshal(product)
	require.NoError(t, err)
	cache.values[cache.GenerateKey("product", product.ID)] = string(raw)

	got, err := store.FindByID(context.Background(), product.ID)
	require.NoError(t, err)
	require.Equal(t, "Cached Widget", got.Name)
	require.True(t, got.Price.Equal(product.Price))
	require.Equal(t, 1, cache.gets)
}
