package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"inventory-service/internal/model"
	"inventory-service/internal/repository"
)

var (
	// ErrInvalidQuantity is returned for zero or negative quantities
	ErrInvalidQuantity = errors.New("quantity must be a positive integer")
	// ErrInvalidType is returned for transaction types other than add/remove
	ErrInvalidType = errors.New("transaction type must be add or remove")
	// ErrInsufficientStock is returned when a removal would drive stock negative
	ErrInsufficientStock = errors.New("not enough stock to remove")
	// ErrProductNotFound is returned for stale or unknown product references
	ErrProductNotFound = errors.New("product not found")
)

// ApplyRequest describes one confirmed stock change
type ApplyRequest struct {
	ProductID string
	Type      string
	Quantity  int
	UserID    string
	UserName  string
}

// ApplyResult carries the committed state back to the caller. Alert is nil
// unless the transaction left the product at or under its threshold.
type ApplyResult struct {
	Product     *model.Product          `json:"product"`
	Transaction *model.StockTransaction `json:"transaction"`
	Alert       *model.Alert            `json:"alert,omitempty"`
}

// StockService applies stock transactions inside one atomic unit of work:
// the stock level is recomputed and persisted, a low-stock alert is raised
// when needed, and the activity record is appended.
type StockService struct {
	store repository.Store
	log   *zap.Logger
}

// NewStockService creates a StockService
func NewStockService(store repository.Store, log *zap.Logger) *StockService {
	return &StockService{store: store, log: log}
}

// Apply validates the request and commits the stock change. The product is
// re-read under a row lock inside the transaction, so concurrent requests on
// the same product serialize instead of losing updates.
func (s *StockService) Apply(ctx context.Context, req ApplyRequest) (*ApplyResult, error) {
	if req.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	if req.Type != model.TransactionTypeAdd && req.Type != model.TransactionTypeRemove {
		return nil, ErrInvalidType
	}

	var result ApplyResult
	err := s.store.Atomically(ctx, func(tx repository.Store) error {
		product, err := tx.Products().GetByIDForUpdate(ctx, req.ProductID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrProductNotFound
			}
			return err
		}

		delta := req.Quantity
		if req.Type == model.TransactionTypeRemove {
			delta = -delta
		}

		previous := product.CurrentStock
		resulting := previous + delta
		if resulting < 0 {
			return ErrInsufficientStock
		}

		product.CurrentStock = resulting
		product.Version++
		if err := tx.Products().Update(ctx, product); err != nil {
			return err
		}

		if resulting <= product.MinimumThreshold {
			alert := &model.Alert{
				ProductID:    product.ID,
				ProductName:  product.Name,
				CurrentStock: resulting,
				Threshold:    product.MinimumThreshold,
			}
			if err := tx.Alerts().Create(ctx, alert); err != nil {
				return err
			}
			result.Alert = alert
		}

		transaction := &model.StockTransaction{
			ProductID:      product.ID,
			ProductName:    product.Name,
			Type:           req.Type,
			Quantity:       req.Quantity,
			PreviousStock:  previous,
			ResultingStock: resulting,
			UserID:         req.UserID,
			UserName:       req.UserName,
		}
		if err := tx.Transactions().Create(ctx, transaction); err != nil {
			return err
		}

		result.Product = product
		result.Transaction = transaction
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("stock transaction applied",
		zap.String("product_id", result.Product.ID),
		zap.String("type", req.Type),
		zap.Int("quantity", req.Quantity),
		zap.Int("previous_stock", result.Transaction.PreviousStock),
		zap.Int("resulting_stock", result.Transaction.ResultingStock),
		zap.Bool("alert_created", result.Alert != nil),
		zap.String("user_id", req.UserID))
	return &result, nil
}
