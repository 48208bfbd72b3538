package repository

import (
	"context"

	"orderdesk/internal/model"

	"gorm.io/gorm"
)

type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	FindByIDWithItems(ctx context.Context, id string) (*model.Order, error)
	List(ctx context.Context, page, limit int) ([]model.Order, int64, error)
	// UpdateIfVersion saves the order header only when the stored version equals
	// expectedVersion and bumps the version. It reports whether a row changed.
	UpdateIfVersion(ctx context.Context, order *model.Order, expectedVersion int) (bool, error)
	ReplaceItems(ctx context.Context, orderID string, items []model.OrderLine) error
	UpdateStatus(ctx context.Context, id string, status model.OrderStatus) error
	Delete(ctx context.Context, id string) error
	// LastNumber returns the highest number starting with prefix, or "" when
	// none exists.
	LastNumber(ctx context.Context, prefix string) (string, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	return GetDB(ctx, r.db).Create(order).Error
}

func (r *orderRepository) FindByIDWithItems(ctx context.Context, id string) (*model.Order, error) {
	var order model.Order
	if err := GetDB(ctx, r.db).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) List(ctx context.Context, page, limit int) ([]model.Order, int64, error) {
	var orders []model.Order
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.Order{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.
		Preload("Items").
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

func (r *orderRepository) UpdateIfVersion(ctx context.Context, order *model.Order, expectedVersion int) (bool, error) {
	res := GetDB(ctx, r.db).Model(&model.Order{}).
		Where("id = ? AND version = ?", order.ID, expectedVersion).
		Updates(map[string]interface{}{
			"notes":    order.Notes,
			"subtotal": order.Subtotal,
			"tax":      order.Tax,
			"total":    order.Total,
			"version":  gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *orderRepository) ReplaceItems(ctx context.Context, orderID string, items []model.OrderLine) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("order_id = ?", orderID).Delete(&model.OrderLine{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].ID = 0
		items[i].OrderID = orderID
	}
	return db.Create(&items).Error
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id string, status model.OrderStatus) error {
	res := GetDB(ctx, r.db).Model(&model.Order{}).Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "version": gorm.Expr("version + 1")})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *orderRepository) Delete(ctx context.Context, id string) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("order_id = ?", id).Delete(&model.OrderLine{}).Error; err != nil {
		return err
	}
	res := db.Where("id = ?", id).Delete(&model.Order{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *orderRepository) LastNumber(ctx context.Context, prefix string) (string, error) {
	var last string
	if err := GetDB(ctx, r.db).Model(&model.Order{}).
		Select("COALESCE(MAX(order_number), '')").
		Where("order_number LIKE ?", prefix+"%").
		Scan(&last).Error; err != nil {
		return "", err
	}
	return last, nil
}
