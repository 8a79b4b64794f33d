package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"storefront/internal/cache"
	apperrors "storefront/internal/errors"
	"storefront/internal/model"
	"storefront/internal/repository"
)

const (
	productCacheTTL = 5 * time.Minute

	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ListProductsQuery selects a page of the catalog. Page is 1-based.
type ListProductsQuery struct {
	Category model.Category
	Page     int
	Limit    int
}

// ProductPage is one page of the catalog.
type ProductPage struct {
	Items      []model.Product `json:"items"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
	Total      int64           `json:"total"`
	TotalPages int             `json:"totalPages"`
}

// ProductService manages the catalog.
type ProductService interface {
	CreateProduct(ctx context.Context, product *model.Product) (*model.Product, error)
	ImportProducts(ctx context.Context, products []model.Product) (int, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error)
	ListProducts(ctx context.Context, query ListProductsQuery) (ProductPage, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
}

type productService struct {
	repo  repository.ProductRepository
	cache *cache.Client
}

// NewProductService creates a new product service.
func NewProductService(repo repository.ProductRepository, cache *cache.Client) ProductService {
	return &productService{repo: repo, cache: cache}
}

func productCacheKey(id uuid.UUID) string {
	return fmt.Sprintf("product:%s", id)
}

// CreateProduct stores a product with all variants, sizes and images in
// one transaction.
func (s *productService) CreateProduct(ctx context.Context, product *model.Product) (*model.Product, error) {
	if err := ValidateProduct(product); err != nil {
		return nil, err
	}

	err := s.repo.WithTransaction(ctx, func(ctx context.Context, repo repository.ProductRepository) error {
		return repo.Create(ctx, product)
	})
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return product, nil
}

// ImportProducts validates every product first, then stores them all or none.
func (s *productService) ImportProducts(ctx context.Context, products []model.Product) (int, error) {
	for i := range products {
		if err := ValidateProduct(&products[i]); err != nil {
			return 0, fmt.Errorf("product %d: %w", i, err)
		}
	}

	err := s.repo.WithTransaction(ctx, func(ctx context.Context, repo repository.ProductRepository) error {
		return repo.CreateBatch(ctx, products)
	})
	if err != nil {
		return 0, fmt.Errorf("import products: %w", err)
	}
	return len(products), nil
}

func (s *productService) GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var cached model.Product
	if s.cache.GetJSON(ctx, productCacheKey(id), &cached) {
		return &cached, nil
	}

	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrProductNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}

	s.cache.SetJSON(ctx, productCacheKey(id), product, productCacheTTL)
	return product, nil
}

func (s *productService) ListProducts(ctx context.Context, query ListProductsQuery) (ProductPage, error) {
	if query.Category != "" && !query.Category.Valid() {
		return ProductPage{}, fmt.Errorf("%w: unknown category %q", apperrors.ErrInvalidProduct, query.Category)
	}
	if query.Page < 1 {
		query.Page = 1
	}
	if query.Limit < 1 {
		query.Limit = DefaultPageSize
	}
	if query.Limit > MaxPageSize {
		query.Limit = MaxPageSize
	}

	items, total, err := s.repo.List(ctx, repository.ProductFilter{
		Category: query.Category,
		Offset:   (query.Page - 1) * query.Limit,
		Limit:    query.Limit,
	})
	if err != nil {
		return ProductPage{}, fmt.Errorf("list products: %w", err)
	}
	if items == nil {
		items = []model.Product{}
	}

	return ProductPage{
		Items:      items,
		Page:       query.Page,
		Limit:      query.Limit,
		Total:      total,
		TotalPages: int((total + int64(query.Limit) - 1) / int64(query.Limit)),
	}, nil
}

func (s *productService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	n, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if n == 0 {
		return apperrors.ErrProductNotFound
	}
	s.cache.Delete(ctx, productCacheKey(id))
	return nil
}

// ValidateProduct enforces catalog rules that struct tags cannot express.
func ValidateProduct(p *model.Product) error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", apperrors.ErrInvalidProduct, fmt.Sprintf(format, args...))
	}

	if strings.TrimSpace(p.Name) == "" || strings.TrimSpace(p.Description) == "" || strings.TrimSpace(p.BrandName) == "" {
		return invalid("name, description and brand name are required")
	}
	if !p.Category.Valid() {
		return invalid("unknown category %q", p.Category)
	}
	if len(p.Variants) == 0 {
		return invalid("at least one variant is required")
	}
	for i, v := range p.Variants {
		if strings.TrimSpace(v.Color) == "" {
			return invalid("variant %d: color is required", i)
		}
		if len(v.Sizes) == 0 {
			return invalid("variant %d: at least one size is required", i)
		}
		if len(v.Images) == 0 {
			return invalid("variant %d: at least one image is required", i)
		}
		for j, sz := range v.Sizes {
			if !sz.OriginalPrice.IsPositive() || !sz.FinalPrice.IsPositive() {
				return invalid("variant %d size %d: prices must be positive", i, j)
			}
			if sz.Discount.IsNegative() || sz.Discount.GreaterThan(sz.OriginalPrice) {
				return invalid("variant %d size %d: discount out of range", i, j)
			}
			if sz.FinalPrice.GreaterThan(sz.OriginalPrice) {
				return invalid("variant %d size %d: final price above original price", i, j)
			}
			if sz.Stock < 0 {
				return invalid("variant %d size %d: stock cannot be negative", i, j)
			}
		}
	}
	return nil
}
