package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"inventory-service/internal/model"
)

type memoryData struct {
	products     map[string]model.Product
	alerts       map[string]model.Alert
	transactions []model.StockTransaction
}

func newMemoryData() *memoryData {
	return &memoryData{
		products: make(map[string]model.Product),
		alerts:   make(map[string]model.Alert),
	}
}

func (d *memoryData) clone() *memoryData {
	c := newMemoryData()
	for id, p := range d.products {
		c.products[id] = p
	}
	for id, a := range d.alerts {
		c.alerts[id] = a
	}
	c.transactions = append(c.transactions, d.transactions...)
	return c
}

// MemoryStore implements Store with mutex-guarded in-process maps. Atomically
// stages a full copy of the data and swaps it in only when the callback
// succeeds, so partial writes never become visible.
type MemoryStore struct {
	mu   sync.Mutex
	data *memoryData
	// inTx marks a staged view running under the parent's lock
	inTx bool
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: newMemoryData()}
}

func (s *MemoryStore) Products() ProductRepository         { return &memoryProductRepo{s: s} }
func (s *MemoryStore) Alerts() AlertRepository             { return &memoryAlertRepo{s: s} }
func (s *MemoryStore) Transactions() TransactionRepository { return &memoryTransactionRepo{s: s} }

// Atomically stages a copy, runs fn against it, and commits it on success
func (s *MemoryStore) Atomically(ctx context.Context, fn func(Store) error) error {
	if s.inTx {
		return fn(s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	staged := &MemoryStore{data: s.data.clone(), inTx: true}
	if err := fn(staged); err != nil {
		return err
	}
	s.data = staged.data
	return nil
}

// lock acquires the store mutex unless a transaction already holds it
func (s *MemoryStore) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

type memoryProductRepo struct {
	s *MemoryStore
}

func (r *memoryProductRepo) Create(ctx context.Context, p *model.Product) error {
	defer r.s.lock()()

	for _, existing := range r.s.data.products {
		if existing.BarcodeData == p.BarcodeData {
			return ErrDuplicateBarcode
		}
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.BarcodeType == "" {
		p.BarcodeType = model.BarcodeTypeQR
	}
	if p.Version == 0 {
		p.Version = 1
	}
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	r.s.data.products[p.ID] = *p
	return nil
}

func (r *memoryProductRepo) GetByID(ctx context.Context, id string) (*model.Product, error) {
	defer r.s.lock()()

	p, ok := r.s.data.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (r *memoryProductRepo) GetByIDForUpdate(ctx context.Context, id string) (*model.Product, error) {
	// The store mutex already serializes writers; a separate row lock is
	// not needed here.
	return r.GetByID(ctx, id)
}

func (r *memoryProductRepo) GetByBarcode(ctx context.Context, payload string) (*model.Product, error) {
	defer r.s.lock()()

	for _, p := range r.s.data.products {
		if p.BarcodeData == payload {
			product := p
			return &product, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memoryProductRepo) List(ctx context.Context, f ProductFilter) ([]model.Product, error) {
	defer r.s.lock()()

	products := make([]model.Product, 0, len(r.s.data.products))
	for _, p := range r.s.data.products {
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if f.IsActive != nil && p.IsActive != *f.IsActive {
			continue
		}
		if f.LowStock && !p.IsLowStock() {
			continue
		}
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool {
		if products[i].CreatedAt.Equal(products[j].CreatedAt) {
			return products[i].ID < products[j].ID
		}
		return products[i].CreatedAt.After(products[j].CreatedAt)
	})
	return products, nil
}

func (r *memoryProductRepo) Update(ctx context.Context, p *model.Product) error {
	defer r.s.lock()()

	if _, ok := r.s.data.products[p.ID]; !ok {
		return ErrNotFound
	}
	p.UpdatedAt = time.Now()
	r.s.data.products[p.ID] = *p
	return nil
}

func (r *memoryProductRepo) Delete(ctx context.Context, id string) error {
	defer r.s.lock()()

	if _, ok := r.s.data.products[id]; !ok {
		return ErrNotFound
	}
	delete(r.s.data.products, id)
	return nil
}

type memoryAlertRepo struct {
	s *MemoryStore
}

func (r *memoryAlertRepo) Create(ctx context.Context, a *model.Alert) error {
	defer r.s.lock()()

	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	now := time.Now()
	a.CreatedAt = now
	a.UpdatedAt = now
	r.s.data.alerts[a.ID] = *a
	return nil
}

func (r *memoryAlertRepo) GetByID(ctx context.Context, id string) (*model.Alert, error) {
	defer r.s.lock()()

	a, ok := r.s.data.alerts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (r *memoryAlertRepo) List(ctx context.Context, f AlertFilter) ([]model.Alert, error) {
	defer r.s.lock()()

	alerts := make([]model.Alert, 0, len(r.s.data.alerts))
	for _, a := range r.s.data.alerts {
		if f.Resolved != nil && a.IsResolved != *f.Resolved {
			continue
		}
		alerts = append(alerts, a)
	}
	sort.Slice(alerts, func(i, j int) bool {
		if alerts[i].CreatedAt.Equal(alerts[j].CreatedAt) {
			return alerts[i].ID < alerts[j].ID
		}
		return alerts[i].CreatedAt.After(alerts[j].CreatedAt)
	})
	return alerts, nil
}

func (r *memoryAlertRepo) Resolve(ctx context.Context, id string) (*model.Alert, error) {
	defer r.s.lock()()

	a, ok := r.s.data.alerts[id]
	if !ok {
		return nil, ErrNotFound
	}
	a.IsResolved = true
	a.IsRead = true
	a.UpdatedAt = time.Now()
	r.s.data.alerts[id] = a
	return &a, nil
}

type memoryTransactionRepo struct {
	s *MemoryStore
}

func (r *memoryTransactionRepo) Create(ctx context.Context, t *model.StockTransaction) error {
	defer r.s.lock()()

	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	t.CreatedAt = time.Now()
	r.s.data.transactions = append(r.s.data.transactions, *t)
	return nil
}

func (r *memoryTransactionRepo) List(ctx context.Context, f TransactionFilter) ([]model.StockTransaction, error) {
	defer r.s.lock()()

	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	transactions := make([]model.StockTransaction, 0, limit)
	// transactions are appended in order, so walk backwards for newest first
	for i := len(r.s.data.transactions) - 1; i >= 0 && len(transactions) < limit; i-- {
		t := r.s.data.transactions[i]
		if f.UserID != "" && t.UserID != f.UserID {
			continue
		}
		if f.ProductID != "" && t.ProductID != f.ProductID {
			continue
		}
		transactions = append(transactions, t)
	}
	return transactions, nil
}
