package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"inventory-service/internal/model"
	"inventory-service/internal/repository"
)

// ValidationResult is the outcome of resolving a decoded payload to a
// product. Failures are reported through Valid/Reason, never as errors.
type ValidationResult struct {
	Valid   bool           `json:"valid"`
	Product *model.Product `json:"product,omitempty"`
	Reason  string         `json:"reason,omitempty"`
}

// Validator resolves barcode payloads against the product store using exact
// string equality on the stored barcode data.
type Validator struct {
	products repository.ProductRepository
	log      *zap.Logger
}

// NewValidator creates a Validator
func NewValidator(products repository.ProductRepository, log *zap.Logger) *Validator {
	return &Validator{products: products, log: log}
}

// Validate looks the payload up as a barcode key. Lookup failures fail
// softly: the caller treats any non-success uniformly as invalid.
func (v *Validator) Validate(ctx context.Context, payload string) ValidationResult {
	if payload == "" {
		return ValidationResult{Valid: false, Reason: "empty payload"}
	}

	product, err := v.products.GetByBarcode(ctx, payload)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ValidationResult{Valid: false, Reason: "barcode not registered"}
		}
		v.log.Warn("barcode lookup failed",
			zap.String("payload", payload),
			zap.Error(err))
		return ValidationResult{Valid: false, Reason: "validation error"}
	}

	return ValidationResult{Valid: true, Product: product}
}
