package repository

import (
	"context"

	"orderdesk/internal/model"

	"gorm.io/gorm"
)

type PODRepository interface {
	Create(ctx context.Context, pod *model.POD) error
	FindByID(ctx context.Context, id string) (*model.POD, error)
	FindLatestByInvoice(ctx context.Context, invoiceID string) (*model.POD, error)
	Save(ctx context.Context, pod *model.POD) error
}

type podRepository struct {
	db *gorm.DB
}

func NewPODRepository(db *gorm.DB) PODRepository {
	return &podRepository{db: db}
}

func (r *podRepository) Create(ctx context.Context, pod *model.POD) error {
	return GetDB(ctx, r.db).Create(pod).Error
}

func (r *podRepository) FindByID(ctx context.Context, id string) (*model.POD, error) {
	var pod model.POD
	if err := GetDB(ctx, r.db).First(&pod, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &pod, nil
}

func (r *podRepository) FindLatestByInvoice(ctx context.Context, invoiceID string) (*model.POD, error) {
	var pod model.POD
	if err := GetDB(ctx, r.db).
		Where("invoice_id = ?", invoiceID).
		Order("created_at desc").
		First(&pod).Error; err != nil {
		return nil, err
	}
	return &pod, nil
}

func (r *podRepository) Save(ctx context.Context, pod *model.POD) error {
	return GetDB(ctx, r.db).Save(pod).Error
}
