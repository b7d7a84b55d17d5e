package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BarcodeTypeQR is the only barcode type currently issued
const BarcodeTypeQR = "QR"

// Product represents the product master data. CurrentStock is mutated only
// through the stock transaction applier and never goes negative.
type Product struct {
	ID               string         `json:"id" gorm:"type:uuid;primarykey"`
	Name             string         `json:"name" gorm:"type:varchar(255);not null"`
	Category         string         `json:"category" gorm:"type:varchar(100)"`
	Description      string         `json:"description" gorm:"type:text"`
	BarcodeData      string         `json:"barcode_data" gorm:"type:varchar(100);unique;not null"`
	BarcodeType      string         `json:"barcode_type" gorm:"type:varchar(20);default:'QR'"`
	CurrentStock     int            `json:"current_stock" gorm:"default:0"`
	MinimumThreshold int            `json:"minimum_threshold" gorm:"default:5"`
	IsActive         bool           `json:"is_active" gorm:"default:true"`
	Version          int            `json:"version" gorm:"default:1"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// IsLowStock reports whether the product sits at or under its threshold
func (p *Product) IsLowStock() bool {
	return p.CurrentStock <= p.MinimumThreshold
}

// NewBarcode generates a barcode payload in the same shape the original
// label generator used: QR-<unix millis>-<short random suffix>.
func NewBarcode() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return fmt.Sprintf("QR-%d-%s", time.Now().UnixMilli(), suffix)
}

// BeforeCreate assigns an id when the caller did not
func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.BarcodeType == "" {
		p.BarcodeType = BarcodeTypeQR
	}
	return nil
}
