package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is a store order placed by a seller, usually built from a planogram grid.
type Order struct {
	ID          string          `gorm:"type:varchar(64);primaryKey" json:"id" validate:"required"`
	OrderNumber string          `gorm:"type:varchar(30);uniqueIndex" json:"orderNumber,omitempty"`
	StoreID     string          `gorm:"type:varchar(64);index;not null" json:"storeId"`
	StoreName   string          `gorm:"type:varchar(255)" json:"storeName,omitempty"`
	SellerID    string          `gorm:"type:varchar(64);index" json:"sellerId"`
	SellerName  string          `gorm:"type:varchar(255)" json:"sellerName,omitempty"`
	Status      OrderStatus     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status" validate:"required,oneof=pending completed invoiced delivered"`
	Items       []OrderLine     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items" validate:"dive"`
	Subtotal    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"subtotal"`
	Tax         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"tax"`
	Total       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"total"`
	Notes       string          `gorm:"type:text" json:"notes,omitempty"`
	PODID       string          `gorm:"type:varchar(64)" json:"podId,omitempty"`
	PODPath     string          `gorm:"type:text" json:"podPath,omitempty"`
	PODFileName string          `gorm:"type:varchar(255)" json:"podFileName,omitempty"`
	InvoiceID   string          `gorm:"type:varchar(64)" json:"invoiceId,omitempty"`
	Version     int             `gorm:"not null;default:1" json:"version"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// OrderLine is a single product row of an order.
type OrderLine struct {
	ID          uint            `gorm:"primaryKey" json:"-"`
	OrderID     string          `gorm:"type:varchar(64);index;not null" json:"-"`
	ProductID   string          `gorm:"type:varchar(64);not null" json:"productId" validate:"required"`
	ProductName string          `gorm:"type:varchar(255)" json:"productName,omitempty"`
	SKU         string          `gorm:"type:varchar(100)" json:"sku,omitempty"`
	Quantity    int             `gorm:"not null" json:"quantity" validate:"gte=0"`
	Price       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"price"`
	Subtotal    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"subtotal"`
}

// Amount is quantity × price.
func (l OrderLine) Amount() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// LinesTotal sums quantity × price over all lines.
func (o *Order) LinesTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, line := range o.Items {
		sum = sum.Add(line.Amount())
	}
	return sum
}

// RecomputeTotals refreshes line subtotals and fills subtotal/total when the
// backend did not supply positive values. Total includes tax when present.
func (o *Order) RecomputeTotals() {
	for i := range o.Items {
		o.Items[i].Subtotal = o.Items[i].Amount()
	}
	if !o.Subtotal.IsPositive() {
		o.Subtotal = o.LinesTotal()
	}
	if !o.Total.IsPositive() {
		o.Total = o.Subtotal.Add(o.Tax)
	}
}

// ResetTotals clears derived money fields so RecomputeTotals rebuilds them.
func (o *Order) ResetTotals() {
	o.Subtotal = decimal.Zero
	o.Total = decimal.Zero
}
