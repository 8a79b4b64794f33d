package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Category groups products in the catalog.
type Category string

const (
	CategoryMen    Category = "MEN"
	CategoryWomen  Category = "WOMEN"
	CategoryKids   Category = "KIDS"
	CategoryUnisex Category = "UNISEX"
)

// Categories lists every accepted category.
var Categories = []Category{CategoryMen, CategoryWomen, CategoryKids, CategoryUnisex}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Product is a catalog entry with one or more color variants.
type Product struct {
	ID          uuid.UUID      `json:"id" swaggertype:"string" format:"uuid" gorm:"type:char(36);primaryKey"`
	Name        string         `json:"name" gorm:"size:255;not null;index"`
	Description string         `json:"description" gorm:"type:text;not null"`
	BrandName   string         `json:"brandName" gorm:"size:255;not null"`
	Category    Category       `json:"category" gorm:"type:varchar(20);not null;index"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Variants []ProductVariant `json:"variants" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
}

// ProductVariant is one color of a product.
type ProductVariant struct {
	ID        uuid.UUID      `json:"id" swaggertype:"string" format:"uuid" gorm:"type:char(36);primaryKey"`
	ProductID uuid.UUID      `json:"productId" swaggertype:"string" format:"uuid" gorm:"type:char(36);not null;index"`
	Color     string         `json:"color" gorm:"size:64;not null"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Sizes  []ProductSize  `json:"sizes" gorm:"foreignKey:VariantID;constraint:OnDelete:CASCADE"`
	Images []ProductImage `json:"images" gorm:"foreignKey:VariantID;constraint:OnDelete:CASCADE"`
}

// ProductSize carries price and stock for one size of a variant.
type ProductSize struct {
	ID            uuid.UUID       `json:"id" swaggertype:"string" format:"uuid" gorm:"type:char(36);primaryKey"`
	VariantID     uuid.UUID       `json:"variantId" swaggertype:"string" format:"uuid" gorm:"type:char(36);not null;index"`
	Size          int             `json:"size" gorm:"not null"`
	OriginalPrice decimal.Decimal `json:"originalPrice" swaggertype:"string" gorm:"type:decimal(20,2);not null"`
	Discount      decimal.Decimal `json:"discount" swaggertype:"string" gorm:"type:decimal(20,2);not null;default:0"`
	FinalPrice    decimal.Decimal `json:"finalPrice" swaggertype:"string" gorm:"type:decimal(20,2);not null"`
	Stock         int             `json:"stock" gorm:"not null;default:0"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
	DeletedAt     gorm.DeletedAt  `json:"-" gorm:"index"`
}

// ProductImage is a picture of a variant.
type ProductImage struct {
	ID          uuid.UUID      `json:"id" swaggertype:"string" format:"uuid" gorm:"type:char(36);primaryKey"`
	VariantID   uuid.UUID      `json:"variantId" swaggertype:"string" format:"uuid" gorm:"type:char(36);not null;index"`
	ImageURL    string         `json:"imageUrl" gorm:"size:1024;not null"`
	IsThumbnail bool           `json:"isThumbnail" gorm:"default:false"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

// BeforeCreate sets UUID before creating the record.
func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// BeforeCreate sets UUID before creating the record.
func (v *ProductVariant) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

// BeforeCreate sets UUID before creating the record.
func (s *ProductSize) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// BeforeCreate sets UUID before creating the record.
func (i *ProductImage) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
