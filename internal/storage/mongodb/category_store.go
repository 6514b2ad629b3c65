package mongodb

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Mojahedhu/Mojahed-Store/internal/app"
	"github.com/Mojahedhu/Mojahed-Store/internal/domain"
)

const categoriesCollection = "categories"

type categoryDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Name      string             `bson:"name"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

// CategoryStore is the MongoDB app.CategoryStore. Name uniqueness is
// enforced by a unique index.
type CategoryStore struct {
	categories *mongo.Collection
}

var _ app.CategoryStore = (*CategoryStore)(nil)

func NewCategoryStore(db *mongo.Database) *CategoryStore {
	return &CategoryStore{categories: db.Collection(categoriesCollection)}
}

// EnsureIndexes creates the unique name index. Call once at startup.
func (s *CategoryStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.categories.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (s *CategoryStore) Create(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	doc := &categoryDoc{
		ID:   primitive.NewObjectID(),
		Name: category.Name,
	}
	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	if _, err := s.categories.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.Validation("category already exists")
		}
		return nil, err
	}
	return categoryFromDoc(doc), nil
}

func (s *CategoryStore) FindByID(ctx context.Context, id string) (*domain.Category, error) {
	oid, err := parseID(id, "category")
	if err != nil {
		return nil, err
	}

	var doc categoryDoc
	if err := s.categories.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.NotFound("category not found")
		}
		return nil, err
	}
	return categoryFromDoc(&doc), nil
}

func (s *CategoryStore) FindByName(ctx context.Context, name string) (*domain.Category, error) {
	var doc categoryDoc
	if err := s.categories.FindOne(ctx, bson.M{"name": name}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.NotFound("category not found")
		}
		return nil, err
	}
	return categoryFromDoc(&doc), nil
}

func (s *CategoryStore) FindAll(ctx context.Context) ([]domain.Category, error) {
	cur, err := s.categories.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []domain.Category
	for cur.Next(ctx) {
		var doc categoryDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, *categoryFromDoc(&doc))
	}
	return out, cur.Err()
}

func (s *CategoryStore) Update(ctx context.Context, category *domain.Category) error {
	oid, err := parseID(category.ID, "category")
	if err != nil {
		return err
	}

	res, err := s.categories.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"name": category.Name, "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.Validation("category already exists")
		}
		return err
	}
	if res.MatchedCount == 0 {
		return domain.NotFound("category not found")
	}
	return nil
}

func (s *CategoryStore) Delete(ctx context.Context, id string) error {
	oid, err := parseID(id, "category")
	if err != nil {
		return err
	}
	res, err := s.categories.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.NotFound("category not found")
	}
	return nil
}

func categoryFromDoc(doc *categoryDoc) *domain.Category {
	return &domain.Category{
		ID:        doc.ID.Hex(),
		Name:      doc.Name,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
}
