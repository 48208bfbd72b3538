package repository

import (
	"context"

	"orderdesk/internal/model"

	"gorm.io/gorm"
)

type PlanogramRepository interface {
	FindByID(ctx context.Context, id string) (*model.Planogram, error)
	List(ctx context.Context) ([]model.Planogram, error)
	ListDistributions(ctx context.Context, planogramID string) ([]model.Distribution, error)
}

type planogramRepository struct {
	db *gorm.DB
}

func NewPlanogramRepository(db *gorm.DB) PlanogramRepository {
	return &planogramRepository{db: db}
}

func (r *planogramRepository) FindByID(ctx context.Context, id string) (*model.Planogram, error) {
	var planogram model.Planogram
	if err := GetDB(ctx, r.db).First(&planogram, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &planogram, nil
}

func (r *planogramRepository) List(ctx context.Context) ([]model.Planogram, error) {
	var planograms []model.Planogram
	if err := GetDB(ctx, r.db).Order("active desc, version desc").Find(&planograms).Error; err != nil {
		return nil, err
	}
	return planograms, nil
}

// ListDistributions returns distributions in insertion order, which decides
// which product wins when two share a position.
func (r *planogramRepository) ListDistributions(ctx context.Context, planogramID string) ([]model.Distribution, error) {
	var distributions []model.Distribution
	if err := GetDB(ctx, r.db).
		Where("planogram_id = ?", planogramID).
		Order("created_at asc, id asc").
		Find(&distributions).Error; err != nil {
		return nil, err
	}
	return distributions, nil
}
