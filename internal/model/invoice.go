package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// invoiceTaxPercent is applied to the subtotal of every draft invoice.
const invoiceTaxPercent = 21

// InvoiceTaxRate returns the draft invoice tax rate as a fraction.
func InvoiceTaxRate() decimal.Decimal {
	return decimal.New(invoiceTaxPercent, -2)
}

// Invoice status constants
const (
	InvoiceStatusDraft  = "draft"
	InvoiceStatusIssued = "issued"
)

// Invoice is the billing document attached to an order.
type Invoice struct {
	ID            string          `gorm:"type:varchar(64);primaryKey" json:"id" validate:"required"`
	InvoiceNumber string          `gorm:"type:varchar(30);uniqueIndex" json:"invoiceNumber,omitempty"`
	OrderID       string          `gorm:"type:varchar(64);index;not null" json:"orderId"`
	StoreID       string          `gorm:"type:varchar(64);index" json:"storeId,omitempty"`
	IssuedAt      time.Time       `json:"issuedAt"`
	Status        string          `gorm:"type:varchar(20);not null;default:'draft'" json:"status,omitempty" validate:"omitempty,oneof=draft issued"`
	Subtotal      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"subtotal"`
	Tax           decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"tax"`
	Total         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"total"`
	PODPath       string          `gorm:"type:text" json:"podPath,omitempty"`
	Items         []InvoiceLine   `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"items" validate:"dive"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// InvoiceLine is one printed row of an invoice.
type InvoiceLine struct {
	ID          uint            `gorm:"primaryKey" json:"-"`
	InvoiceID   string          `gorm:"type:varchar(64);index;not null" json:"-"`
	Quantity    int             `gorm:"not null" json:"quantity" validate:"gte=0"`
	Code        string          `gorm:"type:varchar(100)" json:"code"`
	Description string          `gorm:"type:varchar(255)" json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"price"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"amount"`
}

// InvoiceDisplay is the read-only projection rendered by invoice and POD views.
// It is never persisted.
type InvoiceDisplay struct {
	InvoiceID     string          `json:"invoiceId,omitempty"`
	InvoiceNumber string          `json:"invoiceNumber,omitempty"`
	IssuedAt      time.Time       `json:"issuedAt"`
	OrderID       string          `json:"orderId"`
	StoreID       string          `json:"storeId"`
	StoreName     string          `json:"storeName"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Tax           decimal.Decimal `json:"tax"`
	Total         decimal.Decimal `json:"total"`
	PODPath       string          `json:"podPath"`
	PODImageURL   string          `json:"podImageUrl"`
	Items         []InvoiceLine   `json:"items"`
	Synthesized   bool            `json:"synthesized"`
}

// LinesFromOrder builds invoice rows from order lines.
func LinesFromOrder(items []OrderLine) []InvoiceLine {
	lines := make([]InvoiceLine, 0, len(items))
	for _, item := range items {
		code := item.SKU
		if code == "" {
			code = item.ProductID
		}
		lines = append(lines, InvoiceLine{
			Quantity:    item.Quantity,
			Code:        code,
			Description: item.ProductName,
			Price:       item.Price,
			Amount:      item.Amount(),
		})
	}
	return lines
}

// NewDraftInvoice prices a draft invoice for an order at InvoiceTaxRate().
func NewDraftInvoice(order *Order) *Invoice {
	subtotal := order.LinesTotal()
	tax := subtotal.Mul(InvoiceTaxRate()).Round(2)
	return &Invoice{
		OrderID:  order.ID,
		StoreID:  order.StoreID,
		IssuedAt: time.Now(),
		Status:   InvoiceStatusDraft,
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal.Add(tax),
		Items:    LinesFromOrder(order.Items),
	}
}
