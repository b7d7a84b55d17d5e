package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	qrcode "github.com/skip2/go-qrcode"
	"go.uber.org/zap"

	"inventory-service/internal/model"
	"inventory-service/internal/repository"
	"inventory-service/pkg/logger"
	"inventory-service/prometheus"
)

// ProductRequest defines the structure for product creation/update requests
type ProductRequest struct {
	Name             string `json:"name"`
	Category         string `json:"category"`
	Description      string `json:"description"`
	BarcodeData      string `json:"barcode_data"`
	CurrentStock     int    `json:"current_stock"`
	MinimumThreshold int    `json:"minimum_threshold"`
	IsActive         *bool  `json:"is_active"`
}

// ProductUpdateRequest carries a partial update; nil fields are left alone
type ProductUpdateRequest struct {
	Name             *string `json:"name"`
	Category         *string `json:"category"`
	Description      *string `json:"description"`
	BarcodeData      *string `json:"barcode_data"`
	MinimumThreshold *int    `json:"minimum_threshold"`
	IsActive         *bool   `json:"is_active"`
}

// ProductHandler serves the product registry endpoints
type ProductHandler struct {
	products repository.ProductRepository
}

// NewProductHandler creates a ProductHandler
func NewProductHandler(products repository.ProductRepository) *ProductHandler {
	return &ProductHandler{products: products}
}

// List handles retrieving all products with optional filtering
func (h *ProductHandler) List(c echo.Context) error {
	log := logger.FromContext(c)

	filter := repository.ProductFilter{
		Category: c.QueryParam("category"),
	}

	// Filter by active status if specified
	if isActive := c.QueryParam("is_active"); isActive != "" {
		active, err := strconv.ParseBool(isActive)
		if err == nil {
			filter.IsActive = &active
		} else {
			log.Warn("Invalid is_active parameter", zap.String("value", isActive), zap.Error(err))
		}
	}

	// Keep only products at or under their threshold if requested
	if lowStock := c.QueryParam("low_stock"); lowStock != "" {
		filter.LowStock, _ = strconv.ParseBool(lowStock)
	}

	products, err := h.products.List(c.Request().Context(), filter)
	if err != nil {
		log.Error("Failed to list products", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve products",
		})
	}

	log.Info("Products retrieved successfully", zap.Int("count", len(products)))
	return c.JSON(http.StatusOK, products)
}

// Get handles retrieving a single product by ID
func (h *ProductHandler) Get(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")

	product, err := h.products.GetByID(c.Request().Context(), id)
	if err != nil {
		log.Error("Product not found",
			zap.String("product_id", id),
			zap.Error(err))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Product not found",
		})
	}

	log.Info("Product retrieved successfully",
		zap.String("product_id", id),
		zap.String("product_name", product.Name))
	return c.JSON(http.StatusOK, product)
}

// Create handles registering a new product. When no barcode payload is
// supplied one is generated, matching the label generator in the scanner UI.
func (h *ProductHandler) Create(c echo.Context) error {
	log := logger.FromContext(c)

	var req ProductRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}

	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Product name is required",
		})
	}
	if req.CurrentStock < 0 || req.MinimumThreshold < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Stock and threshold must not be negative",
		})
	}
	if req.BarcodeData == "" {
		req.BarcodeData = model.NewBarcode()
	}
	if req.MinimumThreshold == 0 {
		req.MinimumThreshold = 5
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	product := model.Product{
		Name:             req.Name,
		Category:         req.Category,
		Description:      req.Description,
		BarcodeData:      req.BarcodeData,
		BarcodeType:      model.BarcodeTypeQR,
		CurrentStock:     req.CurrentStock,
		MinimumThreshold: req.MinimumThreshold,
		IsActive:         isActive,
	}

	if err := h.products.Create(c.Request().Context(), &product); err != nil {
		if errors.Is(err, repository.ErrDuplicateBarcode) {
			log.Warn("Product with this barcode already exists",
				zap.String("barcode", req.BarcodeData))
			return c.JSON(http.StatusConflict, echo.Map{
				"error": "Product with this barcode already exists",
			})
		}
		log.Error("Failed to create product",
			zap.String("name", req.Name),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to create product",
		})
	}

	prometheus.UpdateProductInventory(product.ID, product.Name, product.Category, float64(product.CurrentStock))

	log.Info("Product created successfully",
		zap.String("product_id", product.ID),
		zap.String("name", product.Name),
		zap.String("barcode", product.BarcodeData))
	return c.JSON(http.StatusCreated, product)
}

// Update handles updating an existing product. Only the fields present in
// the request change; omitted fields keep their stored values.
func (h *ProductHandler) Update(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")

	var req ProductUpdateRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data",
			zap.String("product_id", id),
			zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}

	if req.Name != nil && *req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Product name is required",
		})
	}
	if req.MinimumThreshold != nil && *req.MinimumThreshold < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Stock and threshold must not be negative",
		})
	}

	ctx := c.Request().Context()
	product, err := h.products.GetByID(ctx, id)
	if err != nil {
		log.Error("Product not found for update",
			zap.String("product_id", id),
			zap.Error(err))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Product not found",
		})
	}

	// Check if the barcode is changed and if the new one already exists
	if req.BarcodeData != nil && *req.BarcodeData != "" && *req.BarcodeData != product.BarcodeData {
		if existing, err := h.products.GetByBarcode(ctx, *req.BarcodeData); err == nil && existing.ID != id {
			log.Warn("Product with this barcode already exists",
				zap.String("barcode", *req.BarcodeData))
			return c.JSON(http.StatusConflict, echo.Map{
				"error": "Product with this barcode already exists",
			})
		}
		product.BarcodeData = *req.BarcodeData
	}

	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Category != nil {
		product.Category = *req.Category
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.MinimumThreshold != nil {
		product.MinimumThreshold = *req.MinimumThreshold
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	if err := h.products.Update(ctx, product); err != nil {
		log.Error("Failed to update product",
			zap.String("product_id", id),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to update product",
		})
	}

	log.Info("Product updated successfully",
		zap.String("product_id", id),
		zap.String("name", product.Name))
	return c.JSON(http.StatusOK, product)
}

// Delete handles deleting a product (soft delete)
func (h *ProductHandler) Delete(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")

	if err := h.products.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Warn("Product not found for deletion", zap.String("product_id", id))
			return c.JSON(http.StatusNotFound, echo.Map{
				"error": "Product not found",
			})
		}
		log.Error("Failed to delete product",
			zap.String("product_id", id),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to delete product",
		})
	}

	log.Info("Product deleted successfully", zap.String("product_id", id))
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Product deleted successfully",
	})
}

// QRCode renders the product's barcode payload as a QR label PNG
func (h *ProductHandler) QRCode(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")

	product, err := h.products.GetByID(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Product not found",
		})
	}

	size := 256
	if s := c.QueryParam("size"); s != "" {
		if parsed, err := strconv.Atoi(s); err == nil && parsed >= 64 && parsed <= 1024 {
			size = parsed
		}
	}

	png, err := qrcode.Encode(product.BarcodeData, qrcode.Medium, size)
	if err != nil {
		log.Error("Failed to render QR label",
			zap.String("product_id", id),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to render QR code",
		})
	}

	return c.Blob(http.StatusOK, "image/png", png)
}
