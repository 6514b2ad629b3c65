package mongodb

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Mojahedhu/Mojahed-Store/internal/app"
	"github.com/Mojahedhu/Mojahed-Store/internal/domain"
	"github.com/Mojahedhu/Mojahed-Store/internal/pkg/cache"
)

const (
	productsCollection = "products"
	productCacheTTL    = 5 * time.Minute
	productCacheOp     = "product"
)

type productDoc struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty"`
	Name         string               `bson:"name"`
	Image        string               `bson:"image"`
	ImageID      string               `bson:"imageId,omitempty"`
	Brand        string               `bson:"brand"`
	Quantity     int                  `bson:"quantity"`
	CategoryID   primitive.ObjectID   `bson:"category"`
	Description  string               `bson:"description"`
	Rating       float64              `bson:"rating"`
	NumReviews   int                  `bson:"numReviews"`
	Price        primitive.Decimal128 `bson:"price"`
	CountInStock int                  `bson:"countInStock"`
	CreatedAt    time.Time            `bson:"createdAt"`
	UpdatedAt    time.Time            `bson:"updatedAt"`
}

// ProductStore is the MongoDB app.ProductStore with a Redis read-through
// cache on single-product lookups. Cache failures degrade to the database,
// never to an error.
type ProductStore struct {
	products *mongo.Collection
	cache    cache.Cache
}

var _ app.ProductStore = (*ProductStore)(nil)

// NewProductStore builds the store. cache may be nil to disable caching.
func NewProductStore(db *mongo.Database, c cache.Cache) *ProductStore {
	return &ProductStore{
		products: db.Collection(productsCollection),
		cache:    c,
	}
}

// ResolveProducts returns exactly the catalog entries matching ids; missing
// or malformed ids are absent from the result.
func (s *ProductStore) ResolveProducts(ctx context.Context, ids []string) ([]domain.Product, error) {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			continue
		}
		oids = append(oids, oid)
	}
	if len(oids) == 0 {
		return nil, nil
	}

	cur, err := s.products.Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []domain.Product
	for cur.Next(ctx) {
		var doc productDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		product, err := productFromDoc(&doc)
		if err != nil {
			return nil, err
		}
		out = append(out, *product)
	}
	return out, cur.Err()
}

func (s *ProductStore) Create(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	doc, err := productToDoc(product)
	if err != nil {
		return nil, err
	}
	doc.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	if _, err := s.products.InsertOne(ctx, doc); err != nil {
		return nil, err
	}
	return productFromDoc(doc)
}

func (s *ProductStore) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	if product := s.cached(ctx, id); product != nil {
		return product, nil
	}

	oid, err := parseID(id, "product")
	if err != nil {
		return nil, err
	}

	var doc productDoc
	if err := s.products.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.NotFound("product not found")
		}
		return nil, err
	}

	product, err := productFromDoc(&doc)
	if err != nil {
		return nil, err
	}
	s.store(ctx, product)
	return product, nil
}

func (s *ProductStore) FindAll(ctx context.Context) ([]domain.Product, error) {
	cur, err := s.products.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []domain.Product
	for cur.Next(ctx) {
		var doc productDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		product, err := productFromDoc(&doc)
		if err != nil {
			return nil, err
		}
		out = append(out, *product)
	}
	return out, cur.Err()
}

func (s *ProductStore) Update(ctx context.Context, product *domain.Product) error {
	oid, err := parseID(product.ID, "product")
	if err != nil {
		return err
	}
	doc, err := productToDoc(product)
	if err != nil {
		return err
	}
	doc.ID = oid
	doc.UpdatedAt = time.Now().UTC()

	res, err := s.products.ReplaceOne(ctx, bson.M{"_id": oid}, doc)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.NotFound("product not found")
	}
	s.invalidate(ctx, product.ID)
	return nil
}

func (s *ProductStore) Delete(ctx context.Context, id string) error {
	oid, err := parseID(id, "product")
	if err != nil {
		return err
	}
	res, err := s.products.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.NotFound("product not found")
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *ProductStore) cached(ctx context.Context, id string) *domain.Product {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, s.cache.GenerateKey(productCacheOp, id))
	if err != nil {
		slog.WarnContext(ctx, "product cache read failed", "error", err, "product_id", id)
		return nil
	}
	if raw == "" {
		return nil
	}
	var product domain.Product
	if err := json.Unmarshal([]byte(raw), &product); err != nil {
		slog.WarnContext(ctx, "product cache entry corrupt", "error", err, "product_id", id)
		return nil
	}
	return &product
}

func (s *ProductStore) store(ctx context.Context, product *domain.Product) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(product)
	if err != nil {
		return
	}
	key := s.cache.GenerateKey(productCacheOp, product.ID)
	if err := s.cache.Set(ctx, key, raw, productCacheTTL); err != nil {
		slog.WarnContext(ctx, "product cache write failed", "error", err, "product_id", product.ID)
	}
}

func (s *ProductStore) invalidate(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, s.cache.GenerateKey(productCacheOp, id)); err != nil {
		slog.WarnContext(ctx, "product cache invalidation failed", "error", err, "product_id", id)
	}
}

func productToDoc(product *domain.Product) (*productDoc, error) {
	doc := &productDoc{
		Name:         product.Name,
		Image:        product.Image,
		ImageID:      product.ImageID,
		Brand:        product.Brand,
		Quantity:     product.Quantity,
		Description:  product.Description,
		Rating:       product.Rating,
		NumReviews:   product.NumReviews,
		CountInStock: product.CountInStock,
		CreatedAt:    product.CreatedAt,
		UpdatedAt:    product.UpdatedAt,
	}

	var err error
	if doc.CategoryID, err = parseID(product.CategoryID, "category"); err != nil {
		return nil, err
	}
	if doc.Price, err = toDecimal128(product.Price); err != nil {
		return nil, err
	}
	return doc, nil
}

func productFromDoc(doc *productDoc) (*domain.Product, error) {
	price, err := fromDecimal128(doc.Price)
	if err != nil {
		return nil, err
	}
	return &domain.Product{
		ID:           doc.ID.Hex(),
		Name:         doc.Name,
		Image:        doc.Image,
		ImageID:      doc.ImageID,
		Brand:        doc.Brand,
		Quantity:     doc.Quantity,
		CategoryID:   doc.CategoryID.Hex(),
		Description:  doc.Description,
		Rating:       doc.Rating,
		NumReviews:   doc.NumReviews,
		Price:        price,
		CountInStock: doc.CountInStock,
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
	}, nil
}
