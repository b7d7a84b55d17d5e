package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"inventory-service/internal/model"
	"inventory-service/prometheus"
)

// GormStore implements Store on top of a *gorm.DB
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a Store backed by the given database handle
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Products() ProductRepository         { return &gormProductRepo{db: s.db} }
func (s *GormStore) Alerts() AlertRepository             { return &gormAlertRepo{db: s.db} }
func (s *GormStore) Transactions() TransactionRepository { return &gormTransactionRepo{db: s.db} }

// Atomically runs fn inside one database transaction
func (s *GormStore) Atomically(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "duplicate key") {
		return ErrDuplicateBarcode
	}
	return err
}

type gormProductRepo struct {
	db *gorm.DB
}

func (r *gormProductRepo) Create(ctx context.Context, p *model.Product) error {
	defer prometheus.TrackDBOperation("insert")(time.Now())

	return translateError(r.db.WithContext(ctx).Create(p).Error)
}

func (r *gormProductRepo) GetByID(ctx context.Context, id string) (*model.Product, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	var product model.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return &product, nil
}

func (r *gormProductRepo) GetByIDForUpdate(ctx context.Context, id string) (*model.Product, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	var product model.Product
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&product, "id = ?", id).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &product, nil
}

func (r *gormProductRepo) GetByBarcode(ctx context.Context, payload string) (*model.Product, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	var product model.Product
	if err := r.db.WithContext(ctx).First(&product, "barcode_data = ?", payload).Error; err != nil {
		return nil, translateError(err)
	}
	return &product, nil
}

func (r *gormProductRepo) List(ctx context.Context, f ProductFilter) ([]model.Product, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	query := r.db.WithContext(ctx).Order("created_at DESC")
	if f.Category != "" {
		query = query.Where("category = ?", f.Category)
	}
	if f.IsActive != nil {
		query = query.Where("is_active = ?", *f.IsActive)
	}
	if f.LowStock {
		query = query.Where("current_stock <= minimum_threshold")
	}

	var products []model.Product
	if err := query.Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *gormProductRepo) Update(ctx context.Context, p *model.Product) error {
	defer prometheus.TrackDBOperation("update")(time.Now())

	return translateError(r.db.WithContext(ctx).Save(p).Error)
}

func (r *gormProductRepo) Delete(ctx context.Context, id string) error {
	defer prometheus.TrackDBOperation("delete")(time.Now())

	result := r.db.WithContext(ctx).Delete(&model.Product{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

type gormAlertRepo struct {
	db *gorm.DB
}

func (r *gormAlertRepo) Create(ctx context.Context, a *model.Alert) error {
	defer prometheus.TrackDBOperation("insert")(time.Now())

	return translateError(r.db.WithContext(ctx).Create(a).Error)
}

func (r *gormAlertRepo) GetByID(ctx context.Context, id string) (*model.Alert, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	var alert model.Alert
	if err := r.db.WithContext(ctx).First(&alert, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return &alert, nil
}

func (r *gormAlertRepo) List(ctx context.Context, f AlertFilter) ([]model.Alert, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	query := r.db.WithContext(ctx).Order("created_at DESC")
	if f.Resolved != nil {
		query = query.Where("is_resolved = ?", *f.Resolved)
	}

	var alerts []model.Alert
	if err := query.Find(&alerts).Error; err != nil {
		return nil, err
	}
	return alerts, nil
}

func (r *gormAlertRepo) Resolve(ctx context.Context, id string) (*model.Alert, error) {
	defer prometheus.TrackDBOperation("update")(time.Now())

	var alert model.Alert
	if err := r.db.WithContext(ctx).First(&alert, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	alert.IsResolved = true
	alert.IsRead = true
	if err := r.db.WithContext(ctx).Save(&alert).Error; err != nil {
		return nil, err
	}
	return &alert, nil
}

type gormTransactionRepo struct {
	db *gorm.DB
}

func (r *gormTransactionRepo) Create(ctx context.Context, t *model.StockTransaction) error {
	defer prometheus.TrackDBOperation("insert")(time.Now())

	return translateError(r.db.WithContext(ctx).Create(t).Error)
}

func (r *gormTransactionRepo) List(ctx context.Context, f TransactionFilter) ([]model.StockTransaction, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	query := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit)
	if f.UserID != "" {
		query = query.Where("user_id = ?", f.UserID)
	}
	if f.ProductID != "" {
		query = query.Where("product_id = ?", f.ProductID)
	}

	var transactions []model.StockTransaction
	if err := query.Find(&transactions).Error; err != nil {
		return nil, err
	}
	return transactions, nil
}
