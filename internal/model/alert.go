package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Alert is a low-stock notification created by the stock transaction applier
// when a transaction leaves a product at or under its minimum threshold.
// ProductName, CurrentStock and Threshold are snapshots taken at creation.
type Alert struct {
	ID           string    `json:"id" gorm:"type:uuid;primarykey"`
	ProductID    string    `json:"product_id" gorm:"type:uuid;index;not null"`
	ProductName  string    `json:"product_name" gorm:"type:varchar(255)"`
	CurrentStock int       `json:"current_stock"`
	Threshold    int       `json:"threshold"`
	IsRead       bool      `json:"is_read" gorm:"default:false"`
	IsResolved   bool      `json:"is_resolved" gorm:"default:false;index"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// BeforeCreate assigns an id when the caller did not
func (a *Alert) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
