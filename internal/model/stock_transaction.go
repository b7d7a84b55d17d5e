package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Transaction types
const (
	TransactionTypeAdd    = "add"
	TransactionTypeRemove = "remove"
)

// StockTransaction is the append-only record of one confirmed stock change.
// Rows are immutable once written; the activity views read them newest first.
type StockTransaction struct {
	ID             string    `json:"id" gorm:"type:uuid;primarykey"`
	ProductID      string    `json:"product_id" gorm:"type:uuid;index;not null"`
	ProductName    string    `json:"product_name" gorm:"type:varchar(255)"`
	Type           string    `json:"transaction_type" gorm:"type:varchar(10);not null"`
	Quantity       int       `json:"quantity" gorm:"not null"`
	PreviousStock  int       `json:"previous_stock"`
	ResultingStock int       `json:"resulting_stock"`
	UserID         string    `json:"user_id" gorm:"type:varchar(64);index"`
	UserName       string    `json:"user_name" gorm:"type:varchar(255)"`
	CreatedAt      time.Time `json:"created_at"`
}

// BeforeCreate assigns an id when the caller did not
func (t *StockTransaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}
