package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"storefront/internal/model"
	"storefront/internal/response"
	"storefront/internal/service"
)

// ProductHandler serves the catalog.
type ProductHandler struct {
	productService service.ProductService
}

// NewProductHandler creates a new product handler.
func NewProductHandler(productService service.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

// ProductRequest is the payload for creating a product.
type ProductRequest struct {
	Name        string           `json:"name" validate:"required,max=255"`
	Description string           `json:"description" validate:"required"`
	BrandName   string           `json:"brandName" validate:"required,max=255"`
	Category    string           `json:"category" validate:"required,oneof=MEN WOMEN KIDS UNISEX"`
	Variants    []VariantRequest `json:"variants" validate:"required,min=1,dive"`
}

// VariantRequest is one color of a product.
type VariantRequest struct {
	Color  string         `json:"color" validate:"required,max=64"`
	Sizes  []SizeRequest  `json:"sizes" validate:"required,min=1,dive"`
	Images []ImageRequest `json:"images" validate:"required,min=1,dive"`
}

// SizeRequest carries prices and stock for one size. Prices accept JSON
// numbers or strings.
type SizeRequest struct {
	Size          int             `json:"size" validate:"gt=0"`
	OriginalPrice decimal.Decimal `json:"originalPrice" swaggertype:"string" example:"1999.00"`
	Discount      decimal.Decimal `json:"discount" swaggertype:"string" example:"200.00"`
	FinalPrice    decimal.Decimal `json:"finalPrice" swaggertype:"string" example:"1799.00"`
	Stock         int             `json:"stock" validate:"gte=0"`
}

// ImageRequest is a picture of a variant.
type ImageRequest struct {
	ImageURL    string `json:"imageUrl" validate:"required,url,max=1024"`
	IsThumbnail bool   `json:"isThumbnail"`
}

// ImportProductsRequest wraps a batch of products.
type ImportProductsRequest struct {
	Products []ProductRequest `json:"products" validate:"required,min=1,max=500,dive"`
}

// ImportProductsResponse reports how many products were stored.
type ImportProductsResponse struct {
	Count int `json:"count"`
}

// ListProductsRequest holds the catalog query string.
type ListProductsRequest struct {
	Category string `query:"category" validate:"omitempty,oneof=MEN WOMEN KIDS UNISEX"`
	Page     int    `query:"page" validate:"omitempty,gte=1"`
	Limit    int    `query:"limit" validate:"omitempty,gte=1,lte=100"`
}

// ToModel converts the payload into a catalog entry.
func (r ProductRequest) ToModel() model.Product {
	product := model.Product{
		Name:        r.Name,
		Description: r.Description,
		BrandName:   r.BrandName,
		Category:    model.Category(r.Category),
		Variants:    make([]model.ProductVariant, 0, len(r.Variants)),
	}
	for _, v := range r.Variants {
		variant := model.ProductVariant{
			Color:  v.Color,
			Sizes:  make([]model.ProductSize, 0, len(v.Sizes)),
			Images: make([]model.ProductImage, 0, len(v.Images)),
		}
		for _, s := range v.Sizes {
			variant.Sizes = append(variant.Sizes, model.ProductSize{
				Size:          s.Size,
				OriginalPrice: s.OriginalPrice,
				Discount:      s.Discount,
				FinalPrice:    s.FinalPrice,
				Stock:         s.Stock,
			})
		}
		for _, img := range v.Images {
			variant.Images = append(variant.Images, model.ProductImage{
				ImageURL:    img.ImageURL,
				IsThumbnail: img.IsThumbnail,
			})
		}
		product.Variants = append(product.Variants, variant)
	}
	return product
}

// CreateProduct godoc
// @Summary Create a product
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ProductRequest true "Product"
// @Success 201 {object} response.Envelope{result=response.Result{data=model.Product}}
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /products [post]
func (h *ProductHandler) CreateProduct(c echo.Context) error {
	var req ProductRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	product := req.ToModel()
	created, err := h.productService.CreateProduct(c.Request().Context(), &product)
	if err != nil {
		return err
	}
	return response.Success(c, http.StatusCreated, "PRODUCT_CREATED_SUCCESSFULLY", created)
}

// ImportProducts godoc
// @Summary Import a batch of products
// @Description Stores every product or none of them.
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ImportProductsRequest true "Products"
// @Success 201 {object} response.Envelope{result=response.Result{data=ImportProductsResponse}}
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /products/import [post]
func (h *ProductHandler) ImportProducts(c echo.Context) error {
	var req ImportProductsRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	products := make([]model.Product, 0, len(req.Products))
	for _, p := range req.Products {
		products = append(products, p.ToModel())
	}

	count, err := h.productService.ImportProducts(c.Request().Context(), products)
	if err != nil {
		return err
	}
	return response.Success(c, http.StatusCreated, "PRODUCTS_IMPORTED_SUCCESSFULLY", ImportProductsResponse{Count: count})
}

// ListProducts godoc
// @Summary List products
// @Description Newest first.
// @Tags products
// @Produce json
// @Param category query string false "MEN, WOMEN, KIDS or UNISEX"
// @Param page query int false "1-based page" default(1)
// @Param limit query int false "Page size" default(20)
// @Success 200 {object} response.Envelope{result=response.Result{data=service.ProductPage}}
// @Failure 400 {object} response.Envelope
// @Router /products [get]
func (h *ProductHandler) ListProducts(c echo.Context) error {
	var req ListProductsRequest
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	page, err := h.productService.ListProducts(c.Request().Context(), service.ListProductsQuery{
		Category: model.Category(req.Category),
		Page:     req.Page,
		Limit:    req.Limit,
	})
	if err != nil {
		return err
	}
	return response.Success(c, http.StatusOK, "PRODUCTS_FETCHED_SUCCESSFULLY", page)
}

// GetProduct godoc
// @Summary Get a product
// @Tags products
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} response.Envelope{result=response.Result{data=model.Product}}
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /products/{id} [get]
func (h *ProductHandler) GetProduct(c echo.Context) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	product, err := h.productService.GetProduct(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return response.Success(c, http.StatusOK, "PRODUCT_FETCHED_SUCCESSFULLY", product)
}

// DeleteProduct godoc
// @Summary Delete a product
// @Tags products
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /products/{id} [delete]
func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	if err := h.productService.DeleteProduct(c.Request().Context(), id); err != nil {
		return err
	}
	return response.Success(c, http.StatusOK, "PRODUCT_DELETED_SUCCESSFULLY", nil)
}
