package model

import "time"

// POD is a proof-of-delivery image attached to an invoice.
type POD struct {
	ID          string     `gorm:"type:varchar(64);primaryKey" json:"id" validate:"required"`
	OrderID     string     `gorm:"type:varchar(64);index" json:"orderId"`
	InvoiceID   string     `gorm:"type:varchar(64);index;not null" json:"invoiceId"`
	ImageRef    string     `gorm:"type:text;not null" json:"imageRef"`
	Validated   bool       `gorm:"not null;default:false" json:"validated"`
	UploadedBy  string     `gorm:"type:varchar(64)" json:"uploadedBy,omitempty"`
	ValidatedBy string     `gorm:"type:varchar(64)" json:"validatedBy,omitempty"`
	ValidatedAt *time.Time `json:"validatedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}
