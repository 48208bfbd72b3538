package repository

import (
	"context"
	"time"

	"orderdesk/internal/model"

	"gorm.io/gorm"
)

// DirectoryRepository reads the store, product, user and price tables of the
// local order book.
type DirectoryRepository interface {
	FindStore(ctx context.Context, id string) (*model.Store, error)
	ListStores(ctx context.Context) ([]model.Store, error)
	FindProduct(ctx context.Context, id string) (*model.Product, error)
	ListProducts(ctx context.Context) ([]model.Product, error)
	FindUser(ctx context.Context, id string) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	LatestPrice(ctx context.Context, productID string, at time.Time) (*model.PriceHistory, error)
}

type directoryRepository struct {
	db *gorm.DB
}

func NewDirectoryRepository(db *gorm.DB) DirectoryRepository {
	return &directoryRepository{db: db}
}

func (r *directoryRepository) FindStore(ctx context.Context, id string) (*model.Store, error) {
	var store model.Store
	if err := GetDB(ctx, r.db).First(&store, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

func (r *directoryRepository) ListStores(ctx context.Context) ([]model.Store, error) {
	var stores []model.Store
	if err := GetDB(ctx, r.db).Order("name asc").Find(&stores).Error; err != nil {
		return nil, err
	}
	return stores, nil
}

func (r *directoryRepository) FindProduct(ctx context.Context, id string) (*model.Product, error) {
	var product model.Product
	if err := GetDB(ctx, r.db).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *directoryRepository) ListProducts(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	if err := GetDB(ctx, r.db).Order("name asc").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *directoryRepository) FindUser(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	if err := GetDB(ctx, r.db).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *directoryRepository) ListUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := GetDB(ctx, r.db).Order("name asc").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *directoryRepository) LatestPrice(ctx context.Context, productID string, at time.Time) (*model.PriceHistory, error) {
	var price model.PriceHistory
	if err := GetDB(ctx, r.db).
		Where("product_id = ? AND effective_date <= ?", productID, at).
		Order("effective_date desc").
		First(&price).Error; err != nil {
		return nil, err
	}
	return &price, nil
}
