package handler

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"inventory-service/internal/middleware"
	"inventory-service/internal/repository"
	"inventory-service/internal/service"
	"inventory-service/pkg/logger"
	"inventory-service/prometheus"
)

// TransactionRequest defines the structure for applying a stock change
type TransactionRequest struct {
	ProductID string `json:"product_id"`
	Type      string `json:"transaction_type"`
	Quantity  int    `json:"quantity"`
}

// TransactionHandler serves the stock transaction endpoints
type TransactionHandler struct {
	stock        *service.StockService
	transactions repository.TransactionRepository
}

// NewTransactionHandler creates a TransactionHandler
func NewTransactionHandler(stock *service.StockService, transactions repository.TransactionRepository) *TransactionHandler {
	return &TransactionHandler{stock: stock, transactions: transactions}
}

// Apply commits one confirmed stock change
func (h *TransactionHandler) Apply(c echo.Context) error {
	log := logger.FromContext(c)

	var req TransactionRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Please enter a valid quantity",
		})
	}

	userID, userName := middleware.ActorFromContext(c)
	result, err := h.stock.Apply(c.Request().Context(), service.ApplyRequest{
		ProductID: req.ProductID,
		Type:      req.Type,
		Quantity:  req.Quantity,
		UserID:    userID,
		UserName:  userName,
	})
	if err != nil {
		prometheus.RecordStockOperation(req.Type, "rejected")
		switch {
		case errors.Is(err, service.ErrInvalidQuantity):
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error": "Please enter a valid quantity",
			})
		case errors.Is(err, service.ErrInvalidType):
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error": "Transaction type must be add or remove",
			})
		case errors.Is(err, service.ErrProductNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{
				"error": "Product not found",
			})
		case errors.Is(err, service.ErrInsufficientStock):
			log.Warn("Removal rejected, not enough stock",
				zap.String("product_id", req.ProductID),
				zap.Int("quantity", req.Quantity))
			return c.JSON(http.StatusConflict, echo.Map{
				"error": "Not enough stock to remove",
			})
		default:
			log.Error("Failed to apply stock transaction",
				zap.String("product_id", req.ProductID),
				zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{
				"error": "Failed to update stock",
			})
		}
	}

	prometheus.RecordStockOperation(req.Type, "applied")
	prometheus.UpdateProductInventory(
		result.Product.ID,
		result.Product.Name,
		result.Product.Category,
		float64(result.Product.CurrentStock),
	)
	if result.Alert != nil {
		prometheus.RecordAlertCreated()
	}

	return c.JSON(http.StatusCreated, result)
}

// List returns the activity log, newest first. `mine=true` restricts the
// listing to the authenticated user's own transactions.
func (h *TransactionHandler) List(c echo.Context) error {
	log := logger.FromContext(c)

	filter := repository.TransactionFilter{
		UserID:    c.QueryParam("user_id"),
		ProductID: c.QueryParam("product_id"),
	}
	if mine, _ := strconv.ParseBool(c.QueryParam("mine")); mine {
		filter.UserID, _ = middleware.ActorFromContext(c)
	}
	if limit := c.QueryParam("limit"); limit != "" {
		filter.Limit, _ = strconv.Atoi(limit)
	}

	transactions, err := h.transactions.List(c.Request().Context(), filter)
	if err != nil {
		log.Error("Failed to list transactions", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve transactions",
		})
	}

	log.Info("Transactions retrieved successfully", zap.Int("count", len(transactions)))
	return c.JSON(http.StatusOK, transactions)
}

// Export streams the activity log as a CSV download
func (h *TransactionHandler) Export(c echo.Context) error {
	log := logger.FromContext(c)

	filter := repository.TransactionFilter{
		UserID: c.QueryParam("user_id"),
	}
	transactions, err := h.transactions.List(c.Request().Context(), filter)
	if err != nil {
		log.Error("Failed to export transactions", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to export transactions",
		})
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"Date", "User", "Product", "Type", "Quantity", "Previous Stock", "Resulting Stock"})
	for _, t := range transactions {
		_ = w.Write([]string{
			t.CreatedAt.Format(time.RFC3339),
			t.UserName,
			t.ProductName,
			t.Type,
			strconv.Itoa(t.Quantity),
			strconv.Itoa(t.PreviousStock),
			strconv.Itoa(t.ResultingStock),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to export transactions",
		})
	}

	filename := fmt.Sprintf("inventory-activity-%s.csv", time.Now().Format("2006-01-02"))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Blob(http.StatusOK, "text/csv", buf.Bytes())
}
