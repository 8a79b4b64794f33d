package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"storefront/internal/model"
)

// ProductFilter narrows and pages a product listing.
type ProductFilter struct {
	Category model.Category
	Offset   int
	Limit    int
}

// ProductRepository defines catalog persistence operations.
type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	CreateBatch(ctx context.Context, products []model.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]model.Product, int64, error)
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
	WithTransaction(ctx context.Context, fn func(ctx context.Context, repo ProductRepository) error) error
}

type productRepository struct {
	db *gorm.DB
}

// NewProductRepository creates a new product repository.
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

// Create inserts a product together with its variants, sizes and images.
func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// CreateBatch inserts products with their associations.
func (r *productRepository) CreateBatch(ctx context.Context, products []model.Product) error {
	if len(products) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&products).Error
}

func (r *productRepository) withDetails(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Variants", func(db *gorm.DB) *gorm.DB { return db.Order("created_at, id") }).
		Preload("Variants.Sizes", func(db *gorm.DB) *gorm.DB { return db.Order("size") }).
		Preload("Variants.Images", func(db *gorm.DB) *gorm.DB { return db.Order("is_thumbnail DESC, id") })
}

// FindByID finds a product with all its details.
func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := r.withDetails(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// List returns a page of products, newest first, and the total matching count.
func (r *productRepository) List(ctx context.Context, filter ProductFilter) ([]model.Product, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Product{})
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var products []model.Product
	err := r.withDetails(ctx).
		Scopes(func(db *gorm.DB) *gorm.DB {
			if filter.Category != "" {
				return db.Where("category = ?", filter.Category)
			}
			return db
		}).
		Order("created_at DESC, id").
		Offset(filter.Offset).
		Limit(filter.Limit).
		Find(&products).Error
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// Delete soft-deletes a product. It returns the number of rows affected.
func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Product{})
	return res.RowsAffected, res.Error
}

// WithTransaction executes a function within a database transaction.
func (r *productRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, repo ProductRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := &productRepository{db: tx}
		return fn(ctx, txRepo)
	})
}
