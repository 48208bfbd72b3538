package repository

import (
	"context"
	"time"

	"orderdesk/internal/model"

	"gorm.io/gorm"
)

type InvoiceRepository interface {
	Create(ctx context.Context, invoice *model.Invoice) error
	FindByID(ctx context.Context, id string) (*model.Invoice, error)
	FindLatestByOrder(ctx context.Context, orderID string) (*model.Invoice, error)
	Update(ctx context.Context, invoice *model.Invoice) error
	SetPODPath(ctx context.Context, id string, path string) error
	// LastNumber returns the highest number starting with prefix, or "" when
	// none exists.
	LastNumber(ctx context.Context, prefix string) (string, error)
}

type invoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) InvoiceRepository {
	return &invoiceRepository{db: db}
}

func (r *invoiceRepository) Create(ctx context.Context, invoice *model.Invoice) error {
	return GetDB(ctx, r.db).Create(invoice).Error
}

func (r *invoiceRepository) FindByID(ctx context.Context, id string) (*model.Invoice, error) {
	var invoice model.Invoice
	if err := GetDB(ctx, r.db).Preload("Items").First(&invoice, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *invoiceRepository) FindLatestByOrder(ctx context.Context, orderID string) (*model.Invoice, error) {
	var invoice model.Invoice
	if err := GetDB(ctx, r.db).Preload("Items").
		Where("order_id = ?", orderID).
		Order("created_at desc").
		First(&invoice).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

// Update saves the invoice header and replaces its lines.
func (r *invoiceRepository) Update(ctx context.Context, invoice *model.Invoice) error {
	db := GetDB(ctx, r.db)
	if err := db.Model(&model.Invoice{}).Where("id = ?", invoice.ID).Updates(map[string]interface{}{
		"subtotal":   invoice.Subtotal,
		"tax":        invoice.Tax,
		"total":      invoice.Total,
		"status":     invoice.Status,
		"pod_path":   invoice.PODPath,
		"updated_at": time.Now(),
	}).Error; err != nil {
		return err
	}
	if err := db.Where("invoice_id = ?", invoice.ID).Delete(&model.InvoiceLine{}).Error; err != nil {
		return err
	}
	if len(invoice.Items) == 0 {
		return nil
	}
	for i := range invoice.Items {
		invoice.Items[i].ID = 0
		invoice.Items[i].InvoiceID = invoice.ID
	}
	return db.Create(&invoice.Items).Error
}

func (r *invoiceRepository) SetPODPath(ctx context.Context, id string, path string) error {
	return GetDB(ctx, r.db).Model(&model.Invoice{}).Where("id = ?", id).Update("pod_path", path).Error
}

func (r *invoiceRepository) LastNumber(ctx context.Context, prefix string) (string, error) {
	var last string
	if err := GetDB(ctx, r.db).Model(&model.Invoice{}).
		Select("COALESCE(MAX(invoice_number), '')").
		Where("invoice_number LIKE ?", prefix+"%").
		Scan(&last).Error; err != nil {
		return "", err
	}
	return last, nil
}
