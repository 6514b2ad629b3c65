package app

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Mojahedhu/Mojahed-Store/internal/domain"
)

// CatalogService manages products and categories. Reads are public; all
// writes are admin only.
type CatalogService struct {
	products   ProductStore
	categories CategoryStore
}

func NewCatalogService(products ProductStore, categories CategoryStore) *CatalogService {
	return &CatalogService{products: products, categories: categories}
}

// ProductInput carries the writable product fields.
type ProductInput struct {
	Name         string
	Image        string
	ImageID      string
	Brand        string
	Quantity     int
	CategoryID   string
	Description  string
	Price        string
	CountInStock int
}

func (in *ProductInput) validate() (decimal.Decimal, error) {
	if strings.TrimSpace(in.Name) == "" {
		return decimal.Decimal{}, domain.Validation("product name is required")
	}
	if in.CategoryID == "" {
		return decimal.Decimal{}, domain.Validation("product category is required")
	}
	price, err := decimal.NewFromString(in.Price)
	if err != nil || price.IsNegative() {
		return decimal.Decimal{}, domain.Validation("invalid product price")
	}
	if in.CountInStock < 0 {
		return decimal.Decimal{}, domain.Validation("stock count cannot be negative")
	}
	return price, nil
}

// CreateProduct adds a catalog entry. Admin only.
func (s *CatalogService) CreateProduct(ctx context.Context, p domain.Principal, in ProductInput) (*domain.Product, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	price, err := in.validate()
	if err != nil {
		return nil, err
	}
	if _, err := s.categories.FindByID(ctx, in.CategoryID); err != nil {
		return nil, err
	}

	product, err := s.products.Create(ctx, &domain.Product{
		Name:         strings.TrimSpace(in.Name),
		Image:        in.Image,
		ImageID:      in.ImageID,
		Brand:        in.Brand,
		Quantity:     in.Quantity,
		CategoryID:   in.CategoryID,
		Description:  in.Description,
		Price:        price,
		CountInStock: in.CountInStock,
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "product created", "product_id", product.ID, "name", product.Name)
	return product, nil
}

// GetProduct returns one catalog entry.
func (s *CatalogService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return s.products.FindByID(ctx, id)
}

// ListProducts returns the whole catalog.
func (s *CatalogService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.products.FindAll(ctx)
}

// UpdateProduct replaces a catalog entry's writable fields. Admin only.
func (s *CatalogService) UpdateProduct(ctx context.Context, p domain.Principal, id string, in ProductInput) (*domain.Product, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	price, err := in.validate()
	if err != nil {
		return nil, err
	}
	if _, err := s.categories.FindByID(ctx, in.CategoryID); err != nil {
		return nil, err
	}

	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	product.Name = strings.TrimSpace(in.Name)
	product.Image = in.Image
	product.ImageID = in.ImageID
	product.Brand = in.Brand
	product.Quantity = in.Quantity
	product.CategoryID = in.CategoryID
	product.Description = in.Description
	product.Price = price
	product.CountInStock = in.CountInStock

	if err := s.products.Update(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// DeleteProduct removes a catalog entry. Admin only. Existing orders keep
// their snapshots, so deleting a product never corrupts history.
func (s *CatalogService) DeleteProduct(ctx context.Context, p domain.Principal, id string) error {
	if err := requireAdmin(p); err != nil {
		return err
	}
	return s.products.Delete(ctx, id)
}

// CreateCategory adds a category. Admin only.
func (s *CatalogService) CreateCategory(ctx context.Context, p domain.Principal, name string) (*domain.Category, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.Validation("category name is required")
	}
	return s.categories.Create(ctx, &domain.Category{Name: name})
}

// GetCategory returns one category.
func (s *CatalogService) GetCategory(ctx context.Context, id string) (*domain.Category, error) {
	return s.categories.FindByID(ctx, id)
}

// ListCategories returns every category.
func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.categories.FindAll(ctx)
}

// UpdateCategory renames a category. Admin only.
func (s *CatalogService) UpdateCategory(ctx context.Context, p domain.Principal, id, name string) (*domain.Category, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.Validation("category name is required")
	}

	category, err := s.categories.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	category.Name = name
	if err := s.categories.Update(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// DeleteCategory removes a category. Admin only.
func (s *CatalogService) DeleteCategory(ctx context.Context, p domain.Principal, id string) error {
	if err := requireAdmin(p); err != nil {
		return err
	}
	return s.categories.Delete(ctx, id)
}
