package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Store is a retail point of sale receiving orders.
type Store struct {
	ID      string `gorm:"type:varchar(64);primaryKey" json:"id" validate:"required"`
	Name    string `gorm:"type:varchar(255);not null" json:"name"`
	City    string `gorm:"type:varchar(100);index" json:"city,omitempty"`
	Address string `gorm:"type:text" json:"address,omitempty"`
}

// Product is a catalog entry.
type Product struct {
	ID       string          `gorm:"type:varchar(64);primaryKey" json:"id" validate:"required"`
	Name     string          `gorm:"type:varchar(255);not null" json:"name"`
	SKU      string          `gorm:"type:varchar(100);index" json:"sku,omitempty"`
	Category string          `gorm:"type:varchar(100);index" json:"category,omitempty"`
	Price    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"price"`
}

// User is a seller or administrator.
type User struct {
	ID    string `gorm:"type:varchar(64);primaryKey" json:"id" validate:"required"`
	Name  string `gorm:"type:varchar(255)" json:"name"`
	Email string `gorm:"type:varchar(255);index" json:"email,omitempty"`
	Role  string `gorm:"type:varchar(50)" json:"role,omitempty"`
}

// PriceHistory records the price of a product from EffectiveDate onwards.
type PriceHistory struct {
	ID            string          `gorm:"type:varchar(64);primaryKey" json:"id"`
	ProductID     string          `gorm:"type:varchar(64);index;not null" json:"productId" validate:"required"`
	Price         decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"price"`
	EffectiveDate time.Time       `gorm:"index;not null" json:"effectiveDate"`
}
