// Package repository defines the storage contracts for products, alerts and
// stock transactions, with a relational adapter backed by GORM/Postgres and
// an in-memory adapter used by tests and single-node deployments.
package repository

import (
	"context"
	"errors"

	"inventory-service/internal/model"
)

var (
	// ErrNotFound is returned when a record does not exist
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateBarcode is returned when a barcode payload is already registered
	ErrDuplicateBarcode = errors.New("barcode already registered")
)

// ProductFilter narrows product listings
type ProductFilter struct {
	Category string
	IsActive *bool
	// LowStock keeps only products at or under their minimum threshold
	LowStock bool
}

// AlertFilter narrows alert listings
type AlertFilter struct {
	Resolved *bool
}

// TransactionFilter narrows activity listings
type TransactionFilter struct {
	UserID    string
	ProductID string
	Limit     int
}

// ProductRepository is the product store contract
type ProductRepository interface {
	Create(ctx context.Context, p *model.Product) error
	GetByID(ctx context.Context, id string) (*model.Product, error)
	// GetByIDForUpdate reads the product with a row lock when called inside
	// Atomically; outside a transaction it behaves like GetByID.
	GetByIDForUpdate(ctx context.Context, id string) (*model.Product, error)
	GetByBarcode(ctx context.Context, payload string) (*model.Product, error)
	List(ctx context.Context, f ProductFilter) ([]model.Product, error)
	Update(ctx context.Context, p *model.Product) error
	Delete(ctx context.Context, id string) error
}

// AlertRepository is the alert store contract
type AlertRepository interface {
	Create(ctx context.Context, a *model.Alert) error
	GetByID(ctx context.Context, id string) (*model.Alert, error)
	List(ctx context.Context, f AlertFilter) ([]model.Alert, error)
	// Resolve marks the alert resolved and read
	Resolve(ctx context.Context, id string) (*model.Alert, error)
}

// TransactionRepository is the append-only activity log contract
type TransactionRepository interface {
	Create(ctx context.Context, t *model.StockTransaction) error
	List(ctx context.Context, f TransactionFilter) ([]model.StockTransaction, error)
}

// Store bundles the repositories behind one atomic unit-of-work boundary.
// Everything done through the Store passed to the Atomically callback either
// commits together or rolls back together.
type Store interface {
	Products() ProductRepository
	Alerts() AlertRepository
	Transactions() TransactionRepository
	Atomically(ctx context.Context, fn func(Store) error) error
}
